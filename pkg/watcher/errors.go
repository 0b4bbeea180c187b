package watcher

import "errors"

// Common errors returned by the watcher.
var (
	// ErrWatcherClosed is returned when attempting to use a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrAlreadyStarted is returned when Start is called on a running watcher.
	ErrAlreadyStarted = errors.New("watcher already started")

	// ErrCircuitBreakerOpen is reported once when too many consecutive
	// runtime errors occurred.
	ErrCircuitBreakerOpen = errors.New("circuit breaker open")

	// ErrInvalidPath is returned when the base directory is missing or
	// is not a directory.
	ErrInvalidPath = errors.New("invalid watch path")

	// ErrUnknownKind is returned when parsing an unrecognized event kind.
	ErrUnknownKind = errors.New("unknown event kind")
)
