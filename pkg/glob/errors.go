package glob

import "errors"

// Common errors returned by the glob package.
var (
	// ErrBadPattern is returned when a pattern has malformed syntax,
	// such as an unterminated bracket class.
	ErrBadPattern = errors.New("malformed glob pattern")
)
