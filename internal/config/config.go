// Package config handles configuration loading for SignalFuzz.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/signalfuzz/signalfuzz/internal/analyzer"
	"gopkg.in/yaml.v3"
)

// Config is the global configuration for one campaign.
type Config struct {
	Target   TargetConfig   `yaml:"target"`
	Engine   EngineConfig   `yaml:"engine"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Filters  FilterConfig   `yaml:"filters"`
	Output   OutputConfig   `yaml:"output"`
}

// TargetConfig names the target and the request template.
type TargetConfig struct {
	// BaseURL carries scheme and host; the template supplies the path.
	BaseURL string `yaml:"base_url"`

	// Template is the path of the raw HTTP request file with tokens.
	Template string `yaml:"template"`
}

// EngineConfig tunes the orchestrator and prober.
type EngineConfig struct {
	Workers       int           `yaml:"workers"`
	MaxInFlight   int           `yaml:"max_in_flight"`
	RPS           int           `yaml:"rps"`
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	SkipTLSVerify bool          `yaml:"skip_tls_verify"`
}

// AnalyzerConfig selects the analysis strategy.
type AnalyzerConfig struct {
	// Strategy is "content" or "timing".
	Strategy string `yaml:"strategy"`

	// TimingThreshold is the relative deviation a timing verdict must
	// strictly exceed (fraction of the global mean).
	TimingThreshold float64 `yaml:"timing_threshold"`
}

// FilterConfig configures the optional response predicates. Absent keys
// stay nil and impose no constraint.
type FilterConfig struct {
	HideLength *int    `yaml:"hide_length"`
	ShowLength *int    `yaml:"show_length"`
	HideCode   *int    `yaml:"hide_code"`
	ShowCode   *int    `yaml:"show_code"`
	ShowString *string `yaml:"show_string"`
	HideString *string `yaml:"hide_string"`
}

// OutputConfig controls reporting.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
	Quiet   bool `yaml:"quiet"`

	// NoRetain drops observations after hook dispatch: only side effects
	// remain, trading memory for visibility.
	NoRetain bool `yaml:"no_retain"`

	// TUI enables the live progress view.
	TUI bool `yaml:"tui"`

	// SaveFile appends filter-passing payloads to this file.
	SaveFile string `yaml:"save_file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers:       50,
			MaxInFlight:   100,
			RPS:           0,
			Timeout:       10 * time.Second,
			UserAgent:     "SignalFuzz/1.0",
			SkipTLSVerify: true,
		},
		Analyzer: AnalyzerConfig{
			Strategy:        "content",
			TimingThreshold: analyzer.DefaultTimingThreshold,
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// FilterSet converts the filter section into the analyzer's predicate set.
func (c *Config) FilterSet() *analyzer.FilterSet {
	return &analyzer.FilterSet{
		HideLength: c.Filters.HideLength,
		ShowLength: c.Filters.ShowLength,
		HideCode:   c.Filters.HideCode,
		ShowCode:   c.Filters.ShowCode,
		ShowString: c.Filters.ShowString,
		HideString: c.Filters.HideString,
	}
}

// Strategy builds the configured analysis strategy.
func (c *Config) Strategy() (analyzer.Strategy, error) {
	switch c.Analyzer.Strategy {
	case "", "content":
		return analyzer.NewContentStrategy(), nil
	case "timing":
		return analyzer.NewTimingStrategy(c.Analyzer.TimingThreshold), nil
	default:
		return nil, fmt.Errorf("unknown analyzer strategy %q", c.Analyzer.Strategy)
	}
}
