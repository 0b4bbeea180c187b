// Package config provides configuration management for globwatch.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	handles, err := sanewatch.Watch(ctx, cfg.Globs, cfg.ToWatchConfig(log))
package config

import (
	"fmt"

	"github.com/0xmhha/globwatch/pkg/logger"
	"github.com/0xmhha/globwatch/pkg/sanewatch"
	"github.com/0xmhha/globwatch/pkg/watcher"
)

// Config represents the complete application configuration.
//
// Invariants:
// - Globs, when set, is a string or a list of non-empty strings
// - DebounceMs must be >= 0
// - Journal.Path must be set when Journal.Enabled is true.
type Config struct {
	// Globs to watch; a single string or a list
	Globs any `yaml:"globs,omitempty" json:"globs,omitempty"`

	// Trailing-edge debounce window in milliseconds (0 disables)
	DebounceMs int `yaml:"debounce_ms" json:"debounce_ms"`

	// Log one line per raw event; unset means true
	Verbose *bool `yaml:"verbose,omitempty" json:"verbose,omitempty"`

	// Event kinds to deliver; unset means delete, change, add
	Events []watcher.Kind `yaml:"events,omitempty" json:"events,omitempty"`

	// Share one debounce timer per kind across all globs
	SharedDebounce bool `yaml:"shared_debounce" json:"shared_debounce"`

	// Options passed to every watcher
	Watcher watcher.Options `yaml:"watcher" json:"watcher"`

	// Event journal settings
	Journal JournalConfig `yaml:"journal" json:"journal"`

	// Prometheus endpoint settings
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// JournalConfig contains event journal settings.
type JournalConfig struct {
	// Record delivered events
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Path to BoltDB database file
	Path string `yaml:"path" json:"path"`
}

// MetricsConfig contains Prometheus endpoint settings.
type MetricsConfig struct {
	// Listen address for /metrics; empty disables the endpoint
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`

	// Log format (text, json, console)
	Format string `yaml:"format" json:"format"`

	// Console colour mode (auto, always, never)
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Returns an error if any invariant is violated:
//   - Globs of the wrong type, or an empty glob
//   - Negative debounce or poll interval
//   - Enabled journal without a path
//   - Invalid log level, format or colour mode
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if c.Globs != nil {
		if _, err := sanewatch.ParseGlobs(c.Globs); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidGlobs, err)
		}
	}

	if c.DebounceMs < 0 {
		return ErrInvalidDebounce
	}
	if c.Watcher.Interval < 0 {
		return ErrInvalidInterval
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		return ErrNoJournalPath
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text":    true,
		"json":    true,
		"console": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	validColors := map[string]bool{
		"":       true,
		"auto":   true,
		"always": true,
		"never":  true,
	}
	if !validColors[c.Logging.Color] {
		return ErrInvalidColor
	}

	return nil
}

// LoggerConfig returns the logger configuration.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Output: c.Logging.Output,
		Format: c.Logging.Format,
		Color:  c.Logging.Color,
	}
}

// ToWatchConfig converts the file settings into an orchestrator
// configuration. Handlers are left for the caller to set.
func (c *Config) ToWatchConfig(log logger.Logger) sanewatch.Config {
	cfg := sanewatch.Config{
		DebounceMs:     c.DebounceMs,
		Verbose:        c.Verbose,
		SharedDebounce: c.SharedDebounce,
		Watcher:        c.Watcher,
		Logger:         log,
	}
	if c.Events != nil {
		cfg.Events = append([]watcher.Kind(nil), c.Events...)
	}
	return cfg
}

// Default returns a configuration with sensible default values.
//
// No globs are set; they usually come from the command line.
func Default() *Config {
	return &Config{
		DebounceMs: 0,
		Journal: JournalConfig{
			Enabled: false,
			Path:    defaultJournalPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "console",
		},
	}
}
