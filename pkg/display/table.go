package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/globwatch/pkg/journal"
	"github.com/0xmhha/globwatch/pkg/watcher"
)

// kindWidth fits the longest kind name.
const kindWidth = 6

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatResolved implements Formatter.FormatResolved.
func (f *tableFormatter) FormatResolved(w io.Writer, rows []ResolvedRow) error {
	if err := writeHeader(w, "Resolved Globs", f.config.Compact); err != nil {
		return err
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = []string{row.Glob, row.Base, row.Pattern}
	}

	return f.writeTable(w, []string{"Glob", "Base", "Pattern"}, cells)
}

// FormatEvents implements Formatter.FormatEvents.
func (f *tableFormatter) FormatEvents(w io.Writer, entries []journal.Entry) error {
	if err := writeHeader(w, "Recent Events", f.config.Compact); err != nil {
		return err
	}

	header := []string{"Seq"}
	if f.config.ShowTimestamps {
		header = append(header, "Time")
	}
	header = append(header, "Kind", "Path", "Size")

	rows := make([][]string, len(entries))
	for i, entry := range entries {
		row := []string{fmt.Sprintf("#%d", entry.Seq)}
		if f.config.ShowTimestamps {
			row = append(row, entry.Time.Format(timeLayout))
		}
		size := ""
		if entry.Kind == watcher.KindAdd || entry.Kind == watcher.KindChange {
			size = formatNumber(entry.Size)
		}
		row = append(row, entry.Kind.String(), target(entry), size)
		rows[i] = row
	}

	return f.writeTable(w, header, rows)
}

// FormatEvent implements Formatter.FormatEvent.
func (f *tableFormatter) FormatEvent(w io.Writer, entry journal.Entry) error {
	var b strings.Builder
	if f.config.ShowTimestamps {
		b.WriteString(entry.Time.Format(timeLayout))
		b.WriteString("  ")
	}
	fmt.Fprintf(&b, "%-*s  %s\n", kindWidth, entry.Kind, target(entry))

	_, err := io.WriteString(w, b.String())
	return err
}

// target is the path shown for an entry; ready events have no file.
func target(entry journal.Entry) string {
	if entry.Kind == watcher.KindReady {
		return entry.Dir
	}
	return entry.Path()
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	// Calculate column widths.
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

// writeRow writes a single table row. Trailing padding is trimmed.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	gap := "  "
	if f.config.Compact {
		gap = " "
	}

	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(gap)
		}
		fmt.Fprintf(&b, "%-*s", widths[i], cell)
	}

	_, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	return err
}
