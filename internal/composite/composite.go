// Package composite builds RGB rasters out of numeric planes through an
// explicit extension-to-channel graph.
package composite

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/lewtec/astrorank/internal/domain"
)

// ErrShapeMismatch is returned when contributing planes differ in size.
var ErrShapeMismatch = errors.New("planes differ in shape")

// ChannelMap assigns extension indexes to output channels. One extension may
// feed several channels and one channel may be fed by several extensions.
type ChannelMap map[int]domain.ChannelSet

// Validate checks that every index is non-negative and names at least one
// of R, G and B.
func (m ChannelMap) Validate() error {
	if len(m) == 0 {
		return errors.New("channel map is empty")
	}
	for index, channels := range m {
		if index < 0 {
			return fmt.Errorf("extension index %d is negative", index)
		}
		if len(channels) == 0 {
			return fmt.Errorf("extension %d is not assigned to any channel", index)
		}
		for _, ch := range channels {
			if ch < domain.Red || ch > domain.Blue {
				return fmt.Errorf("extension %d names unknown channel %d", index, int(ch))
			}
		}
	}
	return nil
}

// Sources inverts the map: for each channel, the sorted extension indexes
// feeding it.
func (m ChannelMap) Sources() [3][]int {
	var ret [3][]int
	for index, channels := range m {
		for _, ch := range channels {
			ret[ch] = appendUnique(ret[ch], index)
		}
	}
	for i := range ret {
		sort.Ints(ret[i])
	}
	return ret
}

func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// Compose builds the raster. Each contributing plane is normalized on its own
// and a channel fed by several planes takes their per-pixel mean. Channels
// without sources stay 0. Indexes missing from planes are skipped.
func Compose(planes []domain.Plane, m ChannelMap, s Stretch) (*domain.CompositeImage, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	sources := m.Sources()

	width, height := -1, -1
	used := make(map[int]bool)
	for _, channel := range sources {
		for _, index := range channel {
			if index >= len(planes) {
				continue
			}
			p := planes[index]
			if width < 0 {
				width, height = p.Width, p.Height
			} else if p.Width != width || p.Height != height {
				return nil, fmt.Errorf("%w: extension %d is %dx%d, expected %dx%d", ErrShapeMismatch, index, p.Width, p.Height, width, height)
			}
			used[index] = true
		}
	}
	if width < 0 {
		return nil, fmt.Errorf("none of the mapped extensions is present (payload has %d)", len(planes))
	}

	normalized := make(map[int][]float64, len(used))
	for index := range used {
		normalized[index] = s.Normalize(planes[index])
	}

	img := domain.NewCompositeImage(width, height)
	for _, ch := range domain.Channels {
		var contributors [][]float64
		for _, index := range sources[ch] {
			if data, ok := normalized[index]; ok {
				contributors = append(contributors, data)
			} else {
				log.Printf("composite: extension %d mapped to %s is missing from the payload", index, ch)
			}
		}
		if len(contributors) == 0 {
			continue
		}
		for i := 0; i < width*height; i++ {
			sum := 0.0
			for _, data := range contributors {
				sum += data[i]
			}
			img.Pix[i*3+int(ch)] = Quantize(sum / float64(len(contributors)))
		}
	}
	return img, nil
}
