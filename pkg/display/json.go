package display

import (
	"encoding/json"
	"io"

	"github.com/0xmhha/globwatch/pkg/journal"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

func (f *jsonFormatter) encoder(w io.Writer) *json.Encoder {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder
}

// FormatResolved implements Formatter.FormatResolved.
func (f *jsonFormatter) FormatResolved(w io.Writer, rows []ResolvedRow) error {
	if rows == nil {
		rows = []ResolvedRow{}
	}
	return f.encoder(w).Encode(rows)
}

// FormatEvents implements Formatter.FormatEvents.
func (f *jsonFormatter) FormatEvents(w io.Writer, entries []journal.Entry) error {
	if entries == nil {
		entries = []journal.Entry{}
	}
	return f.encoder(w).Encode(entries)
}

// FormatEvent implements Formatter.FormatEvent.
//
// Streamed events are always written one object per line.
func (f *jsonFormatter) FormatEvent(w io.Writer, entry journal.Entry) error {
	return json.NewEncoder(w).Encode(entry)
}
