package display

import (
	"fmt"
	"io"

	"github.com/0xmhha/globwatch/pkg/journal"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatResolved implements Formatter.FormatResolved.
func (f *simpleFormatter) FormatResolved(w io.Writer, rows []ResolvedRow) error {
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%s -> %s | %s\n", row.Glob, row.Base, row.Pattern); err != nil {
			return err
		}
	}
	return nil
}

// FormatEvents implements Formatter.FormatEvents.
func (f *simpleFormatter) FormatEvents(w io.Writer, entries []journal.Entry) error {
	for _, entry := range entries {
		if err := f.FormatEvent(w, entry); err != nil {
			return err
		}
	}
	return nil
}

// FormatEvent implements Formatter.FormatEvent.
func (f *simpleFormatter) FormatEvent(w io.Writer, entry journal.Entry) error {
	if f.config.ShowTimestamps {
		_, err := fmt.Fprintf(w, "%s %s %s\n", entry.Time.Format(timeLayout), entry.Kind, target(entry))
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s\n", entry.Kind, target(entry))
	return err
}
