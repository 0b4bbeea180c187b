package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by the loader.
const (
	EnvConfig     = "GLOBWATCH_CONFIG"
	EnvLogLevel   = "GLOBWATCH_LOG_LEVEL"
	EnvDebounceMs = "GLOBWATCH_DEBOUNCE_MS"
	EnvJournal    = "GLOBWATCH_JOURNAL"
	EnvMetrics    = "GLOBWATCH_METRICS_ADDR"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)

	// Source returns the config file Load reads, or "" when only
	// defaults and the environment apply.
	Source() string
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, GLOBWATCH_CONFIG is used, and failing that the
// config file is searched for in:
// 1. ./globwatch.yaml (current directory)
// 2. ~/.config/globwatch/config.yaml.
func NewLoader(configPath string) Loader {
	if configPath == "" {
		configPath = os.Getenv(EnvConfig)
	}
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	if configPath := l.Source(); configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicit path must load; a discovered one may be skipped.
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = l.mergeConfigs(cfg, fileCfg)
		}
	}

	cfg, err := l.applyEnvVars(cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Source implements Loader.Source.
func (l *loader) Source() string {
	if l.configPath != "" {
		return l.configPath
	}
	return l.findConfigFile()
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// findConfigFile returns the first existing entry of SearchPaths, or ""
// if there is none.
func (l *loader) findConfigFile() string {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs merges file configuration into default configuration.
//
// File values override defaults, but only if they are non-zero.
func (l *loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Globs != nil {
		result.Globs = override.Globs
	}
	if override.DebounceMs > 0 {
		result.DebounceMs = override.DebounceMs
	}
	if override.Verbose != nil {
		verbose := *override.Verbose
		result.Verbose = &verbose
	}
	if override.Events != nil {
		result.Events = override.Events
	}
	// Bools cannot be told apart from unset, so the file value wins
	result.SharedDebounce = override.SharedDebounce

	// Merge watcher options
	if override.Watcher.Pattern != "" {
		result.Watcher.Pattern = override.Watcher.Pattern
	}
	if len(override.Watcher.Ignored) > 0 {
		result.Watcher.Ignored = override.Watcher.Ignored
	}
	result.Watcher.Dot = override.Watcher.Dot
	result.Watcher.Poll = override.Watcher.Poll
	if override.Watcher.Interval > 0 {
		result.Watcher.Interval = override.Watcher.Interval
	}
	if override.Watcher.CircuitBreakerThreshold > 0 {
		result.Watcher.CircuitBreakerThreshold = override.Watcher.CircuitBreakerThreshold
	}

	// Merge journal config
	result.Journal.Enabled = override.Journal.Enabled
	if override.Journal.Path != "" {
		result.Journal.Path = override.Journal.Path
	}

	if override.Metrics.Addr != "" {
		result.Metrics.Addr = override.Metrics.Addr
	}

	// Merge logging config
	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}
	if override.Logging.Color != "" {
		result.Logging.Color = override.Logging.Color
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - GLOBWATCH_LOG_LEVEL: Log level
//   - GLOBWATCH_DEBOUNCE_MS: Debounce window in milliseconds
//   - GLOBWATCH_JOURNAL: Journal database path; setting it enables the journal
//   - GLOBWATCH_METRICS_ADDR: Listen address for the metrics endpoint
func (l *loader) applyEnvVars(cfg *Config) (*Config, error) {
	result := *cfg

	if logLevel := os.Getenv(EnvLogLevel); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	if debounce := os.Getenv(EnvDebounceMs); debounce != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(debounce))
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvDebounceMs, debounce)
		}
		result.DebounceMs = ms
	}

	if journal := os.Getenv(EnvJournal); journal != "" {
		result.Journal.Path = journal
		result.Journal.Enabled = true
	}

	if addr := os.Getenv(EnvMetrics); addr != "" {
		result.Metrics.Addr = addr
	}

	return &result, nil
}

// Load is a convenience function that creates a loader and loads configuration.
//
// Equivalent to:
//
//	loader := NewLoader("")
//	return loader.Load()
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads configuration from a file.
//
// Equivalent to:
//
//	loader := NewLoader(path)
//	return loader.Load()
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
