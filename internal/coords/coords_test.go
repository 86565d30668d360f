package coords

import (
	"math"
	"testing"

	"github.com/lewtec/astrorank/internal/domain"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantOK   bool
		want     domain.Coordinates
	}{
		{"simple", "img1_10.0_-5.0.jpg", true, domain.Coordinates{RA: 10, Dec: -5}},
		{"prefix with numbers", "qso_2024_07_100.00371_-69.056759.jpg", true, domain.Coordinates{RA: 100.00371, Dec: -69.056759}},
		{"integers", "field_120_45.jpg", true, domain.Coordinates{RA: 120, Dec: 45}},
		{"explicit plus sign", "obj_15.5_+20.25.png", true, domain.Coordinates{RA: 15.5, Dec: 20.25}},
		{"absolute path", "/data/thumbs/obj_1.5_2.5.jpg", true, domain.Coordinates{RA: 1.5, Dec: 2.5}},
		{"no extension", "obj_1.5_2.25", true, domain.Coordinates{RA: 1.5, Dec: 2.25}},
		{"single token", "obj_10.0.jpg", false, domain.Coordinates{}},
		{"non numeric dec", "obj_10.0_abc.jpg", false, domain.Coordinates{}},
		{"numbers not last", "obj_10.0_20.0_thumb.jpg", false, domain.Coordinates{}},
		{"dec out of range", "obj_10.0_95.0.jpg", false, domain.Coordinates{}},
		{"ra out of range", "obj_400.0_5.0.jpg", false, domain.Coordinates{}},
		{"empty", "", false, domain.Coordinates{}},
		{"only underscores", "__.jpg", false, domain.Coordinates{}},
		{"double sign", "obj_--1_2.jpg", false, domain.Coordinates{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestExtractor(t *testing.T) {
	t.Run("decimal convention wins", func(t *testing.T) {
		c := Extractor{Sexagesimal: true}.Extract("J085925.43+074849.05_10.0_20.0.jpg")
		if c == nil || c.RA != 10 || c.Dec != 20 {
			t.Fatalf("Extract() = %+v, want 10,20", c)
		}
	})

	t.Run("sexagesimal disabled by default", func(t *testing.T) {
		if c := (Extractor{}).Extract("COOLJ085925.43+074849.05_DECaLS.jpg"); c != nil {
			t.Errorf("Extract() = %+v, want nil", c)
		}
	})

	t.Run("sexagesimal fallback", func(t *testing.T) {
		c := Extractor{Sexagesimal: true}.Extract("COOLJ085925.43+074849.05_DECaLS.jpg")
		if c == nil {
			t.Fatal("Extract() = nil")
		}
		wantRA := (8 + 59.0/60 + 25.43/3600) * 15
		wantDec := 7 + 48.0/60 + 49.05/3600
		if math.Abs(c.RA-wantRA) > 1e-9 || math.Abs(c.Dec-wantDec) > 1e-9 {
			t.Errorf("Extract() = %+v, want %v,%v", c, wantRA, wantDec)
		}
	})

	t.Run("negative declination", func(t *testing.T) {
		c, ok := ParseSexagesimal("J120000.00-301500.00.jpg")
		if !ok {
			t.Fatal("ParseSexagesimal() not ok")
		}
		if c.RA != 180 || c.Dec != -30.25 {
			t.Errorf("ParseSexagesimal() = %+v, want 180,-30.25", c)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if c := (Extractor{Sexagesimal: true}).Extract("holiday photo.jpg"); c != nil {
			t.Errorf("Extract() = %+v, want nil", c)
		}
	})
}

func TestFormat(t *testing.T) {
	ra, dec := Format(domain.Coordinates{RA: 10, Dec: -5.1234567}, 6)
	if ra != "10.000000" || dec != "-5.123457" {
		t.Errorf("Format() = %s %s", ra, dec)
	}
	if got := FormatRA(180); got != "120000.00" {
		t.Errorf("FormatRA(180) = %s", got)
	}
	if got := FormatDec(-30.25); got != "-301500.00" {
		t.Errorf("FormatDec(-30.25) = %s", got)
	}
}
