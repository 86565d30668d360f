package ranking

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lewtec/astrorank/internal/bindings"
	"github.com/lewtec/astrorank/internal/domain"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Output.Rankings != "rankings.txt" {
		t.Errorf("Rankings = %v, want rankings.txt", cfg.Output.Rankings)
	}
	if cfg.Secondary.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Secondary.Timeout)
	}
	if !cfg.Secondary.FlipVertical {
		t.Error("FlipVertical should default to true")
	}
}

func TestLoadConfig_Sample(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "astrorank.yaml", SampleConfig))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	m, err := cfg.Secondary.ChannelMap()
	if err != nil {
		t.Fatalf("ChannelMap() error = %v", err)
	}
	if len(m[0]) != 2 || m[0][0] != domain.Red || m[0][1] != domain.Green || m[1][0] != domain.Blue {
		t.Errorf("ChannelMap() = %v, want {0: [R G], 1: [B]}", m)
	}
	r, err := cfg.Resolver()
	if err != nil {
		t.Fatalf("Resolver() error = %v", err)
	}
	if o, ok := r.Resolve("equal"); !ok || o.Action != bindings.ActionZoomIn {
		t.Errorf("Resolve(equal) = %v, %v, want zoom_in", o, ok)
	}
}

func TestLoadConfig_Formats(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, "config.json", `{
  "ranks": {"1": 1, "2": 2},
  "keys": {"quit": ["escape"]},
  "secondary_download": {"enabled": false}
}`))
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if got := len(cfg.Ranks); got != 2 {
			t.Errorf("len(Ranks) = %d, want 2, the ranks table replaces the defaults", got)
		}
		if got := cfg.Keys["quit"]; len(got) != 1 || got[0] != "escape" {
			t.Errorf("Keys[quit] = %v, want [escape]", got)
		}
		if got := cfg.Keys["fit"]; len(got) != 1 || got[0] != "f" {
			t.Errorf("Keys[fit] = %v, other actions keep their defaults", got)
		}
		if cfg.Secondary.Enabled {
			t.Error("secondary download should be disabled")
		}
	})

	t.Run("toml", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, "config.toml", `
[output]
rankings = "ranks.txt"
navigation = "unranked"

[ranks]
"1" = "good"
"2" = "bad"

[secondary_download]
name = "PS1"
timeout = "5s"
format = "png"

[secondary_download.extensions]
"0" = ["R"]
"1" = "G"
"2" = ["B"]
`))
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Output.Navigation != AdvanceUnranked {
			t.Errorf("Navigation = %v, want unranked", cfg.Output.Navigation)
		}
		if cfg.Secondary.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", cfg.Secondary.Timeout)
		}
		if cfg.Secondary.Name != "PS1" || cfg.Secondary.Format != FormatPNG {
			t.Errorf("Secondary = %+v", cfg.Secondary)
		}
		m, err := cfg.Secondary.ChannelMap()
		if err != nil {
			t.Fatalf("ChannelMap() error = %v", err)
		}
		if len(m) != 3 || m[1][0] != domain.Green {
			t.Errorf("ChannelMap() = %v", m)
		}
		if cfg.Ranks["1"] != "good" {
			t.Errorf("Ranks[1] = %v, want good", cfg.Ranks["1"])
		}
	})
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"binding conflict", "keys:\n  quit: \"1\"\n", `trigger "1"`},
		{"unknown action", "keys:\n  teleport: t\n", `unknown action "teleport"`},
		{"unknown field", "output:\n  rankngs: x.txt\n", "rankngs"},
		{"bad extension index", "secondary_download:\n  extensions:\n    red: [R]\n", "not an integer"},
		{"bad channel", "secondary_download:\n  extensions:\n    \"0\": [X]\n", "unknown channel"},
		{"duplicate extension index", "secondary_download:\n  extensions:\n    \"0\": [R]\n    \"00\": [B]\n", `extension keys "0" and "00" both name index 0`},
		{"empty channel set", "secondary_download:\n  extensions:\n    \"0\": []\n", "not assigned to any channel"},
		{"bad percentiles", "secondary_download:\n  stretch:\n    low: 99\n    high: 1\n", "percentiles"},
		{"template without placeholders", "browser:\n  url_template: https://example.org/\n", "{ra} and {dec}"},
		{"bad navigation", "output:\n  navigation: sideways\n", "navigation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, "config.yaml", tt.content))
			if err == nil {
				t.Fatal("LoadConfig() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadConfig() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}

	t.Run("conflicts are typed", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "config.yaml", "keys:\n  quit: \"1\"\n  fit: \"2\"\n"))
		var conflict *bindings.ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("LoadConfig() error = %v, want a ConflictError", err)
		}
		if !strings.Contains(err.Error(), `trigger "2"`) {
			t.Errorf("every conflict should be reported, got %v", err)
		}
	})

	t.Run("every problem is reported at once", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "config.yaml", "output:\n  navigation: sideways\nsecondary_download:\n  precision: 40\n"))
		if err == nil {
			t.Fatal("LoadConfig() should fail")
		}
		if !strings.Contains(err.Error(), "navigation") || !strings.Contains(err.Error(), "precision") {
			t.Errorf("LoadConfig() error = %v, want both problems", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("LoadConfig() should fail")
		}
	})
}
