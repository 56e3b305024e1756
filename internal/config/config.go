// Package config loads the app's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all notechat configuration.
type Config struct {
	Resolver ResolverConfig `yaml:"resolver"`
	Decay    DecayConfig    `yaml:"decay"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ResolverConfig configures the external intent resolver.
type ResolverConfig struct {
	Provider string        `yaml:"provider"` // http, gemini
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"-"`
}

// UnmarshalYAML accepts the timeout as a Go duration string ("30s").
// Unset keys keep whatever value the struct already holds.
func (r *ResolverConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Model    string `yaml:"model"`
		Timeout  string `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Provider != "" {
		r.Provider = raw.Provider
	}
	if raw.BaseURL != "" {
		r.BaseURL = raw.BaseURL
	}
	if raw.APIKey != "" {
		r.APIKey = raw.APIKey
	}
	if raw.Model != "" {
		r.Model = raw.Model
	}
	return setDuration(&r.Timeout, raw.Timeout, "resolver.timeout")
}

// DecayConfig configures the context decay windows.
type DecayConfig struct {
	OptionsWindow time.Duration `yaml:"-"`
	PreviewWindow time.Duration `yaml:"-"`
	PanelWindow   time.Duration `yaml:"-"`
}

// UnmarshalYAML accepts the windows as Go duration strings ("60s").
func (d *DecayConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		OptionsWindow string `yaml:"options_window"`
		PreviewWindow string `yaml:"preview_window"`
		PanelWindow   string `yaml:"panel_window"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if err := setDuration(&d.OptionsWindow, raw.OptionsWindow, "decay.options_window"); err != nil {
		return err
	}
	if err := setDuration(&d.PreviewWindow, raw.PreviewWindow, "decay.preview_window"); err != nil {
		return err
	}
	return setDuration(&d.PanelWindow, raw.PanelWindow, "decay.panel_window")
}

func setDuration(dst *time.Duration, s, key string) error {
	if s == "" {
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = v
	return nil
}

// HistoryConfig configures conversation persistence.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path"`
	Retained     int    `yaml:"retained"`
}

// LoggingConfig configures zap construction.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		Resolver: ResolverConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			Timeout:  30 * time.Second,
		},
		Decay: DecayConfig{
			OptionsWindow: 60 * time.Second,
			PreviewWindow: 90 * time.Second,
			PanelWindow:   180 * time.Second,
		},
		History: HistoryConfig{
			DatabasePath: ".notechat/history.db",
			Retained:     200,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path, layered over defaults. A missing file
// is not an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field invariants.
func (c Config) Validate() error {
	d := c.Decay
	if d.OptionsWindow <= 0 || d.PreviewWindow <= 0 || d.PanelWindow <= 0 {
		return fmt.Errorf("config: decay windows must be positive")
	}
	if d.OptionsWindow > d.PreviewWindow || d.PreviewWindow > d.PanelWindow {
		return fmt.Errorf("config: decay windows must be ordered options <= preview <= panel")
	}
	if c.History.Retained <= 0 {
		return fmt.Errorf("config: history.retained must be positive")
	}
	switch c.Resolver.Provider {
	case "http", "gemini":
	default:
		return fmt.Errorf("config: unknown resolver provider %q", c.Resolver.Provider)
	}
	return nil
}

// ResolverAPIKey resolves the API key, falling back to the environment.
func (c Config) ResolverAPIKey() string {
	if c.Resolver.APIKey != "" {
		return c.Resolver.APIKey
	}
	if key := os.Getenv("NOTECHAT_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GEMINI_API_KEY")
}
