// Package config loads the service configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Artifacts struct {
		PipelinePath string `yaml:"pipeline_path"`
		CatalogPath  string `yaml:"catalog_path"`
	} `yaml:"artifacts"`
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log     LogConfig `yaml:"log"`
	History struct {
		Path  string `yaml:"path"`
		Limit int    `yaml:"limit"`
	} `yaml:"history"`
	Cache struct {
		Size int `yaml:"size"`
	} `yaml:"cache"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Console    bool   `yaml:"console"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Artifacts.PipelinePath = "artifacts/pipeline.json"
	cfg.Artifacts.CatalogPath = "artifacts/reference.csv"
	cfg.Http.Port = 8080
	cfg.Http.Timeout = 30 * time.Second
	cfg.Http.AllowedOrigins = []string{"*"}
	cfg.Log = LogConfig{
		Level:      "info",
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
		Console:    true,
	}
	cfg.History.Path = "data/history.db"
	cfg.History.Limit = 50
	cfg.Cache.Size = 1024
	return cfg
}

// Load reads path over the defaults, applies CROPYIELD_* environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("CROPYIELD_PIPELINE_PATH"); v != "" {
		c.Artifacts.PipelinePath = v
	}
	if v := os.Getenv("CROPYIELD_CATALOG_PATH"); v != "" {
		c.Artifacts.CatalogPath = v
	}
	if v := os.Getenv("CROPYIELD_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CROPYIELD_HTTP_PORT: %w", err)
		}
		c.Http.Port = port
	}
	if v := os.Getenv("CROPYIELD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv("CROPYIELD_HISTORY_PATH"); ok {
		c.History.Path = v
	}
	return nil
}

var logLevels = []string{"debug", "info", "warn", "error"}

func (c *Config) Validate() error {
	if c.Artifacts.PipelinePath == "" || c.Artifacts.CatalogPath == "" {
		return errors.New("artifacts.pipeline_path and artifacts.catalog_path are required")
	}
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if !ValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level %q must be one of %s", c.Log.Level, strings.Join(logLevels, ", "))
	}
	if c.History.Limit <= 0 {
		c.History.Limit = 50
	}
	return nil
}

func ValidLogLevel(level string) bool {
	for _, l := range logLevels {
		if strings.EqualFold(level, l) {
			return true
		}
	}
	return false
}
