// Package config holds the bitprof configuration: store location, fragment
// directories, consolidation cadence, prediction horizon, and logging.
// Configuration is read from a YAML file with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all bitprof configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Store         StoreConfig         `yaml:"store"`
	Consolidation ConsolidationConfig `yaml:"consolidation"`
	Predict       PredictConfig       `yaml:"predict"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// StoreConfig configures the record store.
type StoreConfig struct {
	// Path is the canonical record file (a JSON array, written atomically).
	Path string `yaml:"path"`

	// FragmentDirs are legacy/fragment locations consolidation also reads.
	FragmentDirs []string `yaml:"fragment_dirs"`

	// Capacity caps the number of persisted records.
	Capacity int `yaml:"capacity"`
}

// ConsolidationConfig configures the background consolidation scheduler.
type ConsolidationConfig struct {
	// MinInterval and MaxInterval bound the adaptive pass interval.
	MinInterval string `yaml:"min_interval"`
	MaxInterval string `yaml:"max_interval"`

	// WatchFragments enables the fsnotify fragment watcher.
	WatchFragments bool `yaml:"watch_fragments"`
}

// PredictConfig configures the predictive heuristic.
type PredictConfig struct {
	// Length is the prediction horizon in symbols.
	Length int `yaml:"length"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`   // empty = stderr
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "bitprof",
		Version: "1.0.0",

		Store: StoreConfig{
			Path:         "data/records.json",
			FragmentDirs: []string{"data/fragments"},
			Capacity:     1000,
		},
		Consolidation: ConsolidationConfig{
			MinInterval:    "60s",
			MaxInterval:    "300s",
			WatchFragments: false,
		},
		Predict: PredictConfig{
			Length: 8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file, returning defaults when the
// file does not exist. Environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("BITPROF_STORE_PATH"); path != "" {
		c.Store.Path = path
	}
	if dirs := os.Getenv("BITPROF_FRAGMENT_DIRS"); dirs != "" {
		var cleaned []string
		for _, dir := range strings.Split(dirs, ",") {
			if dir = strings.TrimSpace(dir); dir != "" {
				cleaned = append(cleaned, dir)
			}
		}
		c.Store.FragmentDirs = cleaned
	}
	if level := os.Getenv("BITPROF_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if c.Store.Capacity <= 0 {
		return fmt.Errorf("store capacity must be positive, got %d", c.Store.Capacity)
	}
	if c.Predict.Length <= 0 {
		return fmt.Errorf("predict length must be positive, got %d", c.Predict.Length)
	}
	if c.GetMinInterval() > c.GetMaxInterval() {
		return fmt.Errorf("consolidation min_interval exceeds max_interval")
	}
	return nil
}

// GetMinInterval returns the minimum consolidation interval as a duration.
func (c *Config) GetMinInterval() time.Duration {
	d, err := time.ParseDuration(c.Consolidation.MinInterval)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetMaxInterval returns the maximum consolidation interval as a duration.
func (c *Config) GetMaxInterval() time.Duration {
	d, err := time.ParseDuration(c.Consolidation.MaxInterval)
	if err != nil {
		return 300 * time.Second
	}
	return d
}
