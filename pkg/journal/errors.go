package journal

import "errors"

// Common errors returned by the journal.
var (
	// ErrNotFound is returned when no entry exists for a path.
	ErrNotFound = errors.New("no journal entry for path")

	// ErrClosed is returned when using a closed store.
	ErrClosed = errors.New("journal is closed")

	// ErrNoPath is returned when Open is called without a database path.
	ErrNoPath = errors.New("journal database path required")
)
