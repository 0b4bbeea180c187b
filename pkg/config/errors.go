package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidGlobs is returned when globs is neither a string nor a list
	// of non-empty strings.
	ErrInvalidGlobs = errors.New("invalid globs")

	// ErrInvalidDebounce is returned when the debounce window is < 0.
	ErrInvalidDebounce = errors.New("invalid debounce: must be >= 0")

	// ErrInvalidInterval is returned when the poll interval is < 0.
	ErrInvalidInterval = errors.New("invalid poll interval: must be >= 0")

	// ErrNoJournalPath is returned when the journal is enabled without a path.
	ErrNoJournalPath = errors.New("journal enabled but no path specified")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text, json, or console")

	// ErrInvalidColor is returned when the colour mode is not recognized.
	ErrInvalidColor = errors.New("invalid color mode: must be auto, always, or never")

	// ErrInvalidEnv is returned when an environment override cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment variable")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
