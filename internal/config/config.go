package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds engine settings. Values load from an optional YAML file;
// flags and environment variables override them.
type Config struct {
	// APIBase is the analysis API origin, e.g. https://api.example.com
	APIBase string `yaml:"api_base"`

	// DatabaseURL is the PostgreSQL connection string for the report store.
	DatabaseURL string `yaml:"database_url"`

	// ResultBase is the public origin embedded in QR share links.
	ResultBase string `yaml:"result_base"`

	// Passcode is the static access-gate code asked once per install.
	Passcode string `yaml:"passcode"`

	ExportWindowDays int `yaml:"export_window_days"`
	ResultDelayMS    int `yaml:"result_delay_ms"`
	QRHoldSeconds    int `yaml:"qr_hold_seconds"`
}

// Default returns the product defaults.
func Default() Config {
	return Config{
		ResultBase:       "http://localhost:3000",
		Passcode:         "0101",
		ExportWindowDays: 7,
		ResultDelayMS:    1000,
		QRHoldSeconds:    60,
	}
}

// File returns the default config file path.
func File() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".facefortune", "config.yaml"), nil
}

// Load reads the configuration. An empty path means the default location; a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = File()
		if err != nil {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment overrides.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("FACEFORTUNE_API_BASE"); v != "" {
		c.APIBase = v
	}
	if v := os.Getenv("FACEFORTUNE_RESULT_BASE"); v != "" {
		c.ResultBase = v
	}
	if v := os.Getenv("FACEFORTUNE_PASSCODE"); v != "" {
		c.Passcode = v
	}
}

// ExportWindow returns the export eligibility window as a duration.
func (c Config) ExportWindow() time.Duration {
	days := c.ExportWindowDays
	if days <= 0 {
		days = Default().ExportWindowDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// ResultDelay returns the deliberate presentation delay.
func (c Config) ResultDelay() time.Duration {
	if c.ResultDelayMS < 0 {
		return 0
	}
	return time.Duration(c.ResultDelayMS) * time.Millisecond
}

// QRHold returns the QR view's auto-return window.
func (c Config) QRHold() time.Duration {
	if c.QRHoldSeconds < 0 {
		return 0
	}
	return time.Duration(c.QRHoldSeconds) * time.Second
}
