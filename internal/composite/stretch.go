package composite

import (
	"fmt"
	"math"
	"sort"

	"github.com/lewtec/astrorank/internal/domain"
)

// Mode selects the transfer curve applied after the percentile clip.
type Mode string

const (
	ModeLinear Mode = "linear"
	ModeAsinh  Mode = "asinh"
)

// Stretch compresses the raw range of a plane into [0, 1].
type Stretch struct {
	Mode Mode
	// Low and High are percentiles in [0, 100] of the finite values
	Low  float64
	High float64
	// Q is the asinh softening parameter
	Q float64
}

// DefaultStretch clips to the 1st and 99th percentile and rescales linearly.
func DefaultStretch() Stretch {
	return Stretch{Mode: ModeLinear, Low: 1, High: 99, Q: 8}
}

// Validate checks the parameters.
func (s Stretch) Validate() error {
	if s.Mode != ModeLinear && s.Mode != ModeAsinh {
		return fmt.Errorf("unknown stretch mode %q", s.Mode)
	}
	if s.Low < 0 || s.High > 100 || s.Low >= s.High {
		return fmt.Errorf("stretch percentiles must satisfy 0 <= low < high <= 100, got %v/%v", s.Low, s.High)
	}
	if s.Mode == ModeAsinh && s.Q <= 0 {
		return fmt.Errorf("asinh Q must be positive, got %v", s.Q)
	}
	return nil
}

// Normalize maps every pixel of p into [0, 1]. Non-finite pixels map to 0.
// A plane without finite values, or with a single finite value, is all 0.
func (s Stretch) Normalize(p domain.Plane) []float64 {
	ret := make([]float64, len(p.Data))
	finite := make([]float64, 0, len(p.Data))
	for _, v := range p.Data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return ret
	}
	sort.Float64s(finite)
	lo := Percentile(finite, s.Low)
	hi := Percentile(finite, s.High)
	if lo == hi {
		lo, hi = finite[0], finite[len(finite)-1]
	}
	if lo == hi {
		return ret
	}

	scale := hi - lo
	var asinhQ float64
	if s.Mode == ModeAsinh {
		asinhQ = math.Asinh(s.Q)
	}
	for i, v := range p.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x := (v - lo) / scale
		if x < 0 {
			x = 0
		} else if x > 1 {
			x = 1
		}
		if s.Mode == ModeAsinh {
			x = math.Asinh(s.Q*x) / asinhQ
		}
		ret[i] = x
	}
	return ret
}

// NormalizeBytes is Normalize quantized to 0..255.
func (s Stretch) NormalizeBytes(p domain.Plane) []uint8 {
	norm := s.Normalize(p)
	ret := make([]uint8, len(norm))
	for i, v := range norm {
		ret[i] = Quantize(v)
	}
	return ret
}

// Quantize maps [0, 1] onto 0..255, rounding to nearest.
func Quantize(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

// Percentile returns the p-th percentile of sorted using linear
// interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	below := int(math.Floor(rank))
	above := int(math.Ceil(rank))
	if below == above {
		return sorted[below]
	}
	frac := rank - float64(below)
	return sorted[below] + frac*(sorted[above]-sorted[below])
}
