package sanewatch

import (
	"errors"
	"fmt"
)

// Common errors returned by Watch.
var (
	// ErrMissingGlob is returned when no glob is supplied, or a glob is empty.
	ErrMissingGlob = errors.New("glob argument required")

	// ErrInvalidDebounce is returned for a negative debounce window.
	ErrInvalidDebounce = errors.New("invalid debounce: must be >= 0")
)

// InvalidGlobTypeError is returned when the globs argument is neither a
// string nor a list of strings.
type InvalidGlobTypeError struct {
	// Type is the Go type that was received.
	Type string
}

func (e *InvalidGlobTypeError) Error() string {
	return fmt.Sprintf("glob should be string or []string, not %s", e.Type)
}
