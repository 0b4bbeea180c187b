// Package display provides output formatting for resolved globs and
// watch events.
//
// It supports multiple output formats (table, JSON, simple text).
package display

import (
	"errors"
	"fmt"
	"io"

	"github.com/0xmhha/globwatch/pkg/journal"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays data in aligned columns.
	FormatTable Format = "table"

	// FormatJSON displays data as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays data as plain lines.
	FormatSimple Format = "simple"
)

// ErrUnknownFormat is returned by ParseFormat for unrecognized names.
var ErrUnknownFormat = errors.New("unknown format: must be table, json, or simple")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatSimple:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ResolvedRow is one glob split into its base directory and pattern.
type ResolvedRow struct {
	Glob    string `json:"glob"`
	Base    string `json:"base"`
	Pattern string `json:"pattern"`
}

// Formatter formats and displays globwatch output.
type Formatter interface {
	// FormatResolved formats glob resolutions.
	//
	// Parameters:
	//   - w: Output writer
	//   - rows: Resolutions in input order
	//
	// Returns error if formatting fails.
	FormatResolved(w io.Writer, rows []ResolvedRow) error

	// FormatEvents formats a batch of journal entries.
	//
	// Parameters:
	//   - w: Output writer
	//   - entries: Entries, oldest first
	//
	// Returns error if formatting fails.
	FormatEvents(w io.Writer, entries []journal.Entry) error

	// FormatEvent writes a single entry as one line, for streaming.
	FormatEvent(w io.Writer, entry journal.Entry) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// ShowTimestamps enables timestamp display.
	// Default: true.
	ShowTimestamps bool

	// Compact enables compact output (less whitespace).
	// Default: false.
	Compact bool
}
