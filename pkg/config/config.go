// Package config holds the pipeline configuration: request defaults,
// cache bounds, logging, and the media store location. Values load
// from an optional YAML file and can be overridden per-field through
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full pipeline configuration.
type Config struct {
	Defaults DefaultsConfig `yaml:"defaults"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
	Media    MediaConfig    `yaml:"media"`
}

// DefaultsConfig carries request-parameter defaults applied when the
// caller leaves a field unset.
type DefaultsConfig struct {
	Tolerance     float64 `yaml:"tolerance"`
	MaxFileSizeMB float64 `yaml:"max_file_size_mb"`
	MaxTimeoutS   float64 `yaml:"max_timeout_s"`
}

// CacheConfig bounds the two in-process FIFO caches.
type CacheConfig struct {
	IngestEntries   int `yaml:"ingest_entries"`
	SemanticEntries int `yaml:"semantic_entries"`
}

// LogConfig selects logger level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MediaConfig locates the local media store.
type MediaConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Tolerance:     0.001,
			MaxFileSizeMB: 50,
			MaxTimeoutS:   30,
		},
		Cache: CacheConfig{
			IngestEntries:   100,
			SemanticEntries: 50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Media: MediaConfig{
			SQLitePath: "planar-media.db",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at
// path (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Defaults.Tolerance = envFloat("PLANAR_TOLERANCE", c.Defaults.Tolerance)
	c.Defaults.MaxFileSizeMB = envFloat("PLANAR_MAX_FILE_SIZE_MB", c.Defaults.MaxFileSizeMB)
	c.Defaults.MaxTimeoutS = envFloat("PLANAR_MAX_TIMEOUT_S", c.Defaults.MaxTimeoutS)
	c.Cache.IngestEntries = envInt("PLANAR_INGEST_CACHE_ENTRIES", c.Cache.IngestEntries)
	c.Cache.SemanticEntries = envInt("PLANAR_SEMANTIC_CACHE_ENTRIES", c.Cache.SemanticEntries)
	c.Log.Level = envString("PLANAR_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envString("PLANAR_LOG_FORMAT", c.Log.Format)
	c.Media.SQLitePath = envString("PLANAR_MEDIA_SQLITE_PATH", c.Media.SQLitePath)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
