package ranking

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/lewtec/astrorank/internal/bindings"
	"github.com/lewtec/astrorank/internal/composite"
	"github.com/lewtec/astrorank/internal/coords"
	"github.com/lewtec/astrorank/internal/domain"
)

// Navigation selects where the cursor goes after a submission.
type Navigation string

const (
	// AdvanceNext moves to the following record, one past the end after the last.
	AdvanceNext Navigation = "next"
	// AdvanceUnranked moves to the next unranked record after the submitted one.
	AdvanceUnranked Navigation = "unranked"
)

type Config struct {
	Images    ImagesConfig           `yaml:"images"`
	Output    OutputConfig           `yaml:"output"`
	Keys      map[string]KeyList     `yaml:"keys"`
	Ranks     map[string]domain.Rank `yaml:"ranks"`
	Browser   BrowserConfig          `yaml:"browser"`
	Secondary ProviderConfig         `yaml:"secondary_download"`
}

type ImagesConfig struct {
	Extensions  []string `yaml:"extensions"`
	Sexagesimal bool     `yaml:"sexagesimal"`
}

type OutputConfig struct {
	Rankings   string     `yaml:"rankings"`
	Navigation Navigation `yaml:"navigation"`
}

type BrowserConfig struct {
	Enabled     bool   `yaml:"enabled"`
	URLTemplate string `yaml:"url_template"`
}

// ProviderConfig describes a secondary imaging service.
type ProviderConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Name              string `yaml:"name"`
	URLTemplate       string `yaml:"url_template"`
	ViewerURLTemplate string `yaml:"viewer_url_template"`
	// Extensions maps payload extension indexes to output channels. Keys are
	// strings so TOML and JSON documents can express them.
	Extensions   map[string]domain.ChannelSet `yaml:"extensions"`
	Stretch      StretchConfig                `yaml:"stretch"`
	CacheDir     string                       `yaml:"cache_dir"`
	Timeout      time.Duration                `yaml:"timeout"`
	MaxBytes     int64                        `yaml:"max_bytes"`
	Precision    int                          `yaml:"precision"`
	Format       string                       `yaml:"format"`
	Quality      int                          `yaml:"quality"`
	FlipVertical bool                         `yaml:"flip_vertical"`
}

type StretchConfig struct {
	Mode string  `yaml:"mode"`
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
	Q    float64 `yaml:"q"`
}

// KeyList is the set of trigger specs of one action. It can be written as a
// single string or as a list.
type KeyList []string

func (k *KeyList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*k = KeyList{node.Value}
		return nil
	case yaml.SequenceNode:
		var ret []string
		if err := node.Decode(&ret); err != nil {
			return err
		}
		*k = ret
		return nil
	}
	return fmt.Errorf("line %d: keys must be a string or a list", node.Line)
}

const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// DefaultConfig mirrors the stock astrorank configuration.
func DefaultConfig() *Config {
	keys := make(map[string]KeyList)
	for action, specs := range bindings.DefaultActions() {
		keys[action] = specs
	}
	stretch := composite.DefaultStretch()
	return &Config{
		Images: ImagesConfig{Extensions: []string{".jpg"}},
		Output: OutputConfig{Rankings: "rankings.txt", Navigation: AdvanceNext},
		Keys:   keys,
		Ranks:  bindings.DefaultRanks(),
		Browser: BrowserConfig{
			Enabled:     true,
			URLTemplate: "https://www.legacysurvey.org/viewer/?ra={ra}&dec={dec}&layer=ls-dr10&zoom=16",
		},
		Secondary: ProviderConfig{
			Enabled:           true,
			Name:              "WISE",
			URLTemplate:       "https://www.legacysurvey.org/viewer/fits-cutout?ra={ra}&dec={dec}&layer=unwise-neo7&size=512&pixscale=2.75&bands=12",
			ViewerURLTemplate: "https://www.legacysurvey.org/viewer/?ra={ra}&dec={dec}&layer=unwise-neo7&zoom=14",
			Extensions: map[string]domain.ChannelSet{
				"0": {domain.Red, domain.Green},
				"1": {domain.Blue},
			},
			Stretch:      StretchConfig{Mode: string(stretch.Mode), Low: stretch.Low, High: stretch.High, Q: stretch.Q},
			CacheDir:     "secondary",
			Timeout:      30 * time.Second,
			MaxBytes:     64 << 20,
			Precision:    6,
			Format:       FormatJPEG,
			Quality:      90,
			FlipVertical: true,
		},
	}
}

// LoadConfig reads a YAML, JSON or TOML document on top of the defaults and
// validates the result. An empty filename yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	ret := DefaultConfig()
	if filename == "" {
		return ret, ret.Validate()
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		if data, err = tomlToYAML(data); err != nil {
			return nil, fmt.Errorf("while parsing '%s': %w", filename, err)
		}
	}
	if err := ret.decode(data); err != nil {
		return nil, fmt.Errorf("while parsing '%s': %w", filename, err)
	}
	if err := ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", filename, err)
	}
	return ret, nil
}

// decode overlays a YAML (or JSON) document. Keys are merged per action, a
// ranks table replaces the default scale entirely.
func (c *Config) decode(data []byte) error {
	defaultKeys := c.Keys
	defaultRanks := c.Ranks
	c.Keys = nil
	c.Ranks = nil
	c.Secondary.Extensions = nil

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	for action, specs := range c.Keys {
		defaultKeys[action] = specs
	}
	c.Keys = defaultKeys
	if c.Ranks == nil {
		c.Ranks = defaultRanks
	}
	if c.Secondary.Extensions == nil {
		c.Secondary.Extensions = DefaultConfig().Secondary.Extensions
	}
	return nil
}

// tomlToYAML funnels a TOML document through the YAML tags of Config.
func tomlToYAML(data []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// Validate reports every problem of the configuration at once.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if len(c.Images.Extensions) == 0 {
		errs = multierror.Append(errs, errors.New("images.extensions must list at least one extension"))
	}
	for _, ext := range c.Images.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = multierror.Append(errs, fmt.Errorf("images.extensions: %q must start with a dot", ext))
		}
	}
	if c.Output.Rankings == "" {
		errs = multierror.Append(errs, errors.New("output.rankings must be set"))
	}
	if c.Output.Navigation != AdvanceNext && c.Output.Navigation != AdvanceUnranked {
		errs = multierror.Append(errs, fmt.Errorf("output.navigation must be %q or %q, got %q", AdvanceNext, AdvanceUnranked, c.Output.Navigation))
	}

	if _, err := c.Resolver(); err != nil {
		errs = multierror.Append(errs, err)
	}

	if c.Browser.Enabled {
		if err := checkTemplate(c.Browser.URLTemplate); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("browser.url_template: %w", err))
		}
	}
	if c.Secondary.Enabled {
		errs = multierror.Append(errs, c.Secondary.validate())
	}
	return errs.ErrorOrNil()
}

func (p *ProviderConfig) validate() error {
	var errs *multierror.Error
	if p.Name == "" || strings.ContainsAny(p.Name, `/\ `) {
		errs = multierror.Append(errs, fmt.Errorf("secondary_download.name %q must be a non-empty name without slashes or spaces", p.Name))
	}
	if err := checkTemplate(p.URLTemplate); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("secondary_download.url_template: %w", err))
	}
	if p.ViewerURLTemplate != "" {
		if err := checkTemplate(p.ViewerURLTemplate); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("secondary_download.viewer_url_template: %w", err))
		}
	}
	if _, err := p.ChannelMap(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("secondary_download.extensions: %w", err))
	}
	if err := p.StretchParams().Validate(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("secondary_download.stretch: %w", err))
	}
	if p.CacheDir == "" {
		errs = multierror.Append(errs, errors.New("secondary_download.cache_dir must be set"))
	}
	if p.Timeout <= 0 {
		errs = multierror.Append(errs, errors.New("secondary_download.timeout must be positive"))
	}
	if p.MaxBytes <= 0 {
		errs = multierror.Append(errs, errors.New("secondary_download.max_bytes must be positive"))
	}
	if p.Precision < 0 || p.Precision > 12 {
		errs = multierror.Append(errs, fmt.Errorf("secondary_download.precision must be between 0 and 12, got %d", p.Precision))
	}
	switch p.Format {
	case FormatJPEG:
		if p.Quality < 1 || p.Quality > 100 {
			errs = multierror.Append(errs, fmt.Errorf("secondary_download.quality must be between 1 and 100, got %d", p.Quality))
		}
	case FormatPNG:
	default:
		errs = multierror.Append(errs, fmt.Errorf("secondary_download.format must be %q or %q, got %q", FormatJPEG, FormatPNG, p.Format))
	}
	return errs.ErrorOrNil()
}

func checkTemplate(tmpl string) error {
	if !strings.Contains(tmpl, "{ra}") || !strings.Contains(tmpl, "{dec}") {
		return fmt.Errorf("%q must contain {ra} and {dec}", tmpl)
	}
	return nil
}

// ChannelMap converts the configured extension table.
func (p *ProviderConfig) ChannelMap() (composite.ChannelMap, error) {
	ret := make(composite.ChannelMap, len(p.Extensions))
	keys := make(map[int]string, len(p.Extensions))
	for key, channels := range p.Extensions {
		index, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("extension index %q is not an integer", key)
		}
		if other, ok := keys[index]; ok {
			if other > key {
				other, key = key, other
			}
			return nil, fmt.Errorf("extension keys %q and %q both name index %d", other, key, index)
		}
		keys[index] = key
		ret[index] = channels
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// StretchParams converts the stretch section.
func (p *ProviderConfig) StretchParams() composite.Stretch {
	return composite.Stretch{
		Mode: composite.Mode(p.Stretch.Mode),
		Low:  p.Stretch.Low,
		High: p.Stretch.High,
		Q:    p.Stretch.Q,
	}
}

// Resolver builds the binding lookup from the keys and ranks tables.
func (c *Config) Resolver() (*bindings.Resolver, error) {
	actions := make(map[string][]string, len(c.Keys))
	for action, specs := range c.Keys {
		actions[action] = specs
	}
	return bindings.Build(actions, c.Ranks)
}

// Extractor returns the coordinate extractor configured for image names.
func (c *Config) Extractor() coords.Extractor {
	return coords.Extractor{Sexagesimal: c.Images.Sexagesimal}
}
