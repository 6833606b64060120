// Package config loads scrollcode's runtime configuration through viper:
// overscan, buffer sizing, frame rate, highlight workers and tokenize limit,
// theme selection, and tracing. cache_capacity is loaded with the rest but
// nothing else in scrollcode reads it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/zjrosen/scrollcode/internal/log"
)

// ThemeConfig mirrors styles.ThemeConfig field-for-field (duplicated, not
// imported, to avoid a config<->styles import cycle — internal/tui converts
// between the two with a plain struct conversion at the call site).
type ThemeConfig struct {
	Preset string `mapstructure:"preset"`
	// Type selects "system" (query the terminal via termenv), "light", or
	// "dark" — spec.md §4.2's setThemeType(system|light|dark).
	Type string `mapstructure:"type"`
	// Syntax names the chroma style used for source-code tokens, independent
	// of Preset's gutter/diff UI colors.
	Syntax string            `mapstructure:"syntax"`
	Colors map[string]string `mapstructure:"colors"`
}

// TracingConfig controls the otel tracer provider internal/telemetry builds.
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Exporter   string  `mapstructure:"exporter"` // "none" or "stdout"
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Config holds scrollcode's full runtime configuration.
type Config struct {
	// Overscan is the number of extra rows rendered above/below the visible
	// viewport so scrolling doesn't show unrendered gaps (spec.md §4.5).
	Overscan int `mapstructure:"overscan"`

	// BufferLines bounds CollapsedThreshold: collapsed regions at or below
	// this many lines auto-expand instead of rendering a collapsed marker.
	BufferLines int `mapstructure:"buffer_lines"`

	// FPS is the animation-frame tick rate driving the virtualizer's frame
	// loop (spec.md §5's "host's animation-frame clock").
	FPS int `mapstructure:"fps"`

	// CacheCapacity is loaded from cache_capacity but not read anywhere:
	// highlight.NewCache takes no capacity, and the highlight cache is never
	// evicted by entry count.
	CacheCapacity int `mapstructure:"cache_capacity"`

	// HighlightWorkers selects highlight.Pool's mode: 0 runs synchronously,
	// >0 starts that many worker goroutines.
	HighlightWorkers int `mapstructure:"highlight_workers"`

	// TokenizeLimit is the byte size above which a file is shown unhighlighted.
	TokenizeLimit int `mapstructure:"tokenize_limit"`

	Theme   ThemeConfig   `mapstructure:"theme"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// Defaults returns scrollcode's built-in configuration.
func Defaults() Config {
	return Config{
		Overscan:         20,
		BufferLines:      3,
		FPS:              60,
		CacheCapacity:    2000,
		HighlightWorkers: 4,
		TokenizeLimit:    1 << 20, // 1 MiB
		Theme:            ThemeConfig{Preset: "default", Type: "system", Syntax: "dracula"},
		Tracing: TracingConfig{
			Enabled:    false,
			Exporter:   "stdout",
			SampleRate: 1.0,
		},
	}
}

// DefaultConfigPath returns the config file path Load falls back to when no
// --config flag is given: $XDG_CONFIG_HOME/scrollcode/config.yaml, or
// ~/.config/scrollcode/config.yaml if XDG_CONFIG_HOME is unset.
func DefaultConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scrollcode", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "scrollcode", "config.yaml"), nil
}

// Load reads configuration from cfgFile (if non-empty), else from
// $XDG_CONFIG_HOME/scrollcode/config.yaml (falling back to
// ~/.config/scrollcode), layering env vars (SCROLLCODE_*, with
// "SCROLLCODE_THEME_PRESET" mapping to theme.preset) over the file and
// defaults over both. Missing config files are not an error: defaults apply.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCROLLCODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Defaults()
	v.SetDefault("overscan", defaults.Overscan)
	v.SetDefault("buffer_lines", defaults.BufferLines)
	v.SetDefault("fps", defaults.FPS)
	v.SetDefault("cache_capacity", defaults.CacheCapacity)
	v.SetDefault("highlight_workers", defaults.HighlightWorkers)
	v.SetDefault("tokenize_limit", defaults.TokenizeLimit)
	v.SetDefault("theme.preset", defaults.Theme.Preset)
	v.SetDefault("theme.type", defaults.Theme.Type)
	v.SetDefault("theme.syntax", defaults.Theme.Syntax)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "scrollcode"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "scrollcode"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		log.Debug(log.CatConfig, "no config file found, using defaults")
	} else {
		log.Info(log.CatConfig, "config loaded", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, Validate(cfg)
}

// Validate rejects configuration values that would make the core's
// invariants (spec.md §3's VirtualFileMetrics, §4.5's overscan) meaningless.
func Validate(cfg Config) error {
	if cfg.Overscan < 0 {
		return fmt.Errorf("overscan must be >= 0, got %d", cfg.Overscan)
	}
	if cfg.BufferLines < 0 {
		return fmt.Errorf("buffer_lines must be >= 0, got %d", cfg.BufferLines)
	}
	if cfg.FPS <= 0 {
		return fmt.Errorf("fps must be > 0, got %d", cfg.FPS)
	}
	if cfg.HighlightWorkers < 0 {
		return fmt.Errorf("highlight_workers must be >= 0, got %d", cfg.HighlightWorkers)
	}
	switch cfg.Theme.Type {
	case "", "system", "light", "dark":
	default:
		return fmt.Errorf(`theme.type must be "system", "light", or "dark", got %q`, cfg.Theme.Type)
	}
	switch cfg.Tracing.Exporter {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\" or \"stdout\", got %q", cfg.Tracing.Exporter)
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", cfg.Tracing.SampleRate)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a commented YAML
// document, written out by WriteDefaultConfig the first time scrollcode
// runs with no config file present.
func DefaultConfigTemplate() string {
	return `# scrollcode configuration

# Rows rendered above/below the visible viewport.
overscan: 20

# Collapsed diff regions at or below this size auto-expand.
buffer_lines: 3

# Animation-frame tick rate driving the virtualizer.
fps: 60

# Not read by scrollcode; the highlight cache has no size limit.
cache_capacity: 2000

# Highlight worker goroutines (0 = synchronous, in-process highlighting).
highlight_workers: 4

# Files larger than this many bytes render unhighlighted.
tokenize_limit: 1048576

theme:
  # default, dracula, nord, high-contrast
  preset: default
  # system (detect via terminal background query), light, or dark
  type: system
  # chroma syntax-highlighting style name
  syntax: dracula
  # colors:
  #   diff.addition: "#73F59F"

tracing:
  enabled: false
  exporter: stdout
  sample_rate: 1.0
`
}

// WriteDefaultConfig writes DefaultConfigTemplate() to path, creating parent
// directories as needed.
func WriteDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	log.Info(log.CatConfig, "wrote default config", "path", path)
	return nil
}
