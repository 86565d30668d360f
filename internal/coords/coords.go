// Package coords extracts sky coordinates from image filenames.
package coords

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/lewtec/astrorank/internal/domain"
)

var numericToken = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

// sexagesimal pattern, e.g. COOLJ085925.43+074849.05_DECaLS
var sexagesimalPattern = regexp.MustCompile(`(\d{6}(?:\.\d+)?)([+-])(\d{6}(?:\.\d+)?)`)

// Parse extracts (ra, dec) from a name of the form <prefix>_<ra>_<dec>.<ext>.
// The last two underscore-delimited tokens before the extension are used, so
// earlier numeric components in the prefix are ignored.
func Parse(filename string) (domain.Coordinates, bool) {
	parts := strings.Split(stem(filename), "_")
	if len(parts) < 3 {
		return domain.Coordinates{}, false
	}
	raToken, decToken := parts[len(parts)-2], parts[len(parts)-1]
	if !numericToken.MatchString(raToken) || !numericToken.MatchString(decToken) {
		return domain.Coordinates{}, false
	}
	ra, err := strconv.ParseFloat(raToken, 64)
	if err != nil {
		return domain.Coordinates{}, false
	}
	dec, err := strconv.ParseFloat(decToken, 64)
	if err != nil {
		return domain.Coordinates{}, false
	}
	c := domain.Coordinates{RA: ra, Dec: dec}
	if !Valid(c) {
		return domain.Coordinates{}, false
	}
	return c, true
}

// stem drops the directory and the extension. A purely numeric suffix is
// part of the dec token, not an extension.
func stem(filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if ext == "" || strings.Trim(ext[1:], "0123456789") == "" {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

// Valid reports whether c lies on the sky.
func Valid(c domain.Coordinates) bool {
	if math.IsNaN(c.RA) || math.IsNaN(c.Dec) {
		return false
	}
	return c.RA >= 0 && c.RA <= 360 && c.Dec >= -90 && c.Dec <= 90
}

// Extractor applies the filename conventions enabled in configuration.
type Extractor struct {
	// Sexagesimal enables the HHMMSS.SS±DDMMSS.SS fallback
	Sexagesimal bool
}

// Extract returns the coordinates of filename, or nil when none can be found.
func (e Extractor) Extract(filename string) *domain.Coordinates {
	if c, ok := Parse(filename); ok {
		return &c
	}
	if e.Sexagesimal {
		if c, ok := ParseSexagesimal(filename); ok {
			return &c
		}
	}
	return nil
}

// ParseSexagesimal finds the first HHMMSS.SS±DDMMSS.SS group in filename.
func ParseSexagesimal(filename string) (domain.Coordinates, bool) {
	m := sexagesimalPattern.FindStringSubmatch(stem(filename))
	if m == nil {
		return domain.Coordinates{}, false
	}
	hh, _ := strconv.Atoi(m[1][0:2])
	mm, _ := strconv.Atoi(m[1][2:4])
	ss, err := strconv.ParseFloat(m[1][4:], 64)
	if err != nil || mm >= 60 || ss >= 60 {
		return domain.Coordinates{}, false
	}
	dd, _ := strconv.Atoi(m[3][0:2])
	am, _ := strconv.Atoi(m[3][2:4])
	as, err := strconv.ParseFloat(m[3][4:], 64)
	if err != nil || am >= 60 || as >= 60 {
		return domain.Coordinates{}, false
	}
	sign := 1.0
	if m[2] == "-" {
		sign = -1
	}
	c := domain.Coordinates{
		RA:  (float64(hh) + float64(mm)/60 + ss/3600) * 15,
		Dec: sign * (float64(dd) + float64(am)/60 + as/3600),
	}
	if !Valid(c) {
		return domain.Coordinates{}, false
	}
	return c, true
}

// FormatRA renders ra (degrees) as HHMMSS.SS.
func FormatRA(ra float64) string {
	hours := ra / 15
	h := int(hours)
	minutes := (hours - float64(h)) * 60
	m := int(minutes)
	s := (minutes - float64(m)) * 60
	return fmt.Sprintf("%02d%02d%05.2f", h, m, s)
}

// FormatDec renders dec (degrees) as ±DDMMSS.SS.
func FormatDec(dec float64) string {
	sign := "+"
	if dec < 0 {
		sign = "-"
		dec = -dec
	}
	d := int(dec)
	minutes := (dec - float64(d)) * 60
	m := int(minutes)
	s := (minutes - float64(m)) * 60
	return fmt.Sprintf("%s%02d%02d%05.2f", sign, d, m, s)
}

// Format renders c with a fixed number of decimals, as used in provider
// URLs and cache paths.
func Format(c domain.Coordinates, precision int) (ra, dec string) {
	return strconv.FormatFloat(c.RA, 'f', precision, 64), strconv.FormatFloat(c.Dec, 'f', precision, 64)
}
