// Package config reads ~/.blackbox/config.yaml and applies environment
// overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	configDir  = ".blackbox"
	configFile = "config.yaml"
	dbFile     = "blackbox.db"
)

// Config is the top-level structure of config.yaml.
type Config struct {
	Database         string        `yaml:"database" env:"BLACKBOX_DB"`
	AutosaveInterval time.Duration `yaml:"autosave_interval" env:"BLACKBOX_AUTOSAVE_INTERVAL"`
	LogLevel         string        `yaml:"log_level" env:"BLACKBOX_LOG_LEVEL"`
	LogFormat        string        `yaml:"log_format" env:"BLACKBOX_LOG_FORMAT"`
	Insight          InsightConfig `yaml:"insight"`
}

// InsightConfig configures the language-model backend. An empty APIKey
// disables it.
type InsightConfig struct {
	APIKey        string        `yaml:"api_key,omitempty" env:"BLACKBOX_GEMINI_API_KEY"`
	BaseURL       string        `yaml:"base_url" env:"BLACKBOX_GEMINI_BASE_URL"`
	ForecastModel string        `yaml:"forecast_model" env:"BLACKBOX_FORECAST_MODEL"`
	InsightsModel string        `yaml:"insights_model" env:"BLACKBOX_INSIGHTS_MODEL"`
	ChatModel     string        `yaml:"chat_model" env:"BLACKBOX_CHAT_MODEL"`
	Timeout       time.Duration `yaml:"timeout" env:"BLACKBOX_INSIGHT_TIMEOUT"`
}

// Dir returns ~/.blackbox.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// DefaultPath returns ~/.blackbox/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// DefaultConfig returns a Config populated with defaults. The database
// lives next to the config file.
func DefaultConfig() *Config {
	db := dbFile
	if dir, err := Dir(); err == nil {
		db = filepath.Join(dir, dbFile)
	}
	return &Config{
		Database:         db,
		AutosaveInterval: 30 * time.Second,
		LogLevel:         "info",
		LogFormat:        "text",
		Insight: InsightConfig{
			BaseURL:       "https://generativelanguage.googleapis.com",
			ForecastModel: "gemini-3-flash-preview",
			InsightsModel: "gemini-3-pro-preview",
			ChatModel:     "gemini-3-flash-preview",
			Timeout:       15 * time.Second,
		},
	}
}

// ReadConfig reads the file at path over the defaults. Keys the file omits
// keep their default values.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// WriteConfig writes cfg to path, creating the parent directory. The file
// is readable by the owner only because it may hold an API key.
func WriteConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ParseEnv applies environment overrides to target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load resolves the effective configuration: defaults, then the file at
// path when it exists, then the environment. An empty path means
// DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := ReadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = DefaultConfig()
	} else if err != nil {
		return nil, err
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and durations.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.LogFormat)
	}
	if c.Database == "" {
		return fmt.Errorf("config: database is required")
	}
	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("config: autosave_interval must be positive")
	}
	if c.Insight.Timeout <= 0 {
		return fmt.Errorf("config: insight.timeout must be positive")
	}
	return nil
}
