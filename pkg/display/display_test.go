package display

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/0xmhha/globwatch/pkg/journal"
	"github.com/0xmhha/globwatch/pkg/watcher"
)

func sampleEntries() []journal.Entry {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return []journal.Entry{
		{Seq: 1, Kind: watcher.KindReady, Dir: "/src/", Time: at},
		{Seq: 2, Kind: watcher.KindAdd, Filename: "main.go", Dir: "/src/", Size: 12345, Time: at.Add(time.Second)},
		{Seq: 3, Kind: watcher.KindDelete, Filename: "old.go", Dir: "/src/", Time: at.Add(2 * time.Second)},
	}
}

func sampleRows() []ResolvedRow {
	return []ResolvedRow{
		{Glob: "src/**/*.go", Base: "src/", Pattern: "**/*.go"},
		{Glob: "*.yaml", Base: "./", Pattern: "*.yaml"},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config Config
		want   string // Type name
	}{
		{
			name:   "default format (table)",
			config: Config{},
			want:   "*display.tableFormatter",
		},
		{
			name:   "table format",
			config: Config{Format: FormatTable},
			want:   "*display.tableFormatter",
		},
		{
			name:   "json format",
			config: Config{Format: FormatJSON},
			want:   "*display.jsonFormatter",
		},
		{
			name:   "simple format",
			config: Config{Format: FormatSimple},
			want:   "*display.simpleFormatter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			formatter := New(tt.config)
			if formatter == nil {
				t.Fatal("New() returned nil")
			}

			got := fmt.Sprintf("%T", formatter)
			if got != tt.want {
				t.Errorf("New() type = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"table", "json", "simple"} {
		got, err := ParseFormat(name)
		if err != nil || string(got) != name {
			t.Errorf("ParseFormat(%q) = %q, %v", name, got, err)
		}
	}

	if got, err := ParseFormat(""); err != nil || got != FormatTable {
		t.Errorf("ParseFormat(\"\") = %q, %v, want table", got, err)
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(xml) error = %v, want ErrUnknownFormat", err)
	}
}

func TestTableFormatter_FormatResolved(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatTable}).FormatResolved(&buf, sampleRows()); err != nil {
		t.Fatalf("FormatResolved() error = %v", err)
	}

	want := `
Resolved Globs
==============

Glob         Base  Pattern
-----------  ----  -------
src/**/*.go  src/  **/*.go
*.yaml       ./    *.yaml

`
	if got := buf.String(); got != want {
		t.Errorf("FormatResolved() =\n%q\nwant\n%q", got, want)
	}
}

func TestTableFormatter_Compact(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatter := New(Config{Format: FormatTable, Compact: true})
	if err := formatter.FormatResolved(&buf, sampleRows()[:1]); err != nil {
		t.Fatalf("FormatResolved() error = %v", err)
	}

	want := "Resolved Globs\nGlob        Base Pattern\nsrc/**/*.go src/ **/*.go\n"
	if got := buf.String(); got != want {
		t.Errorf("compact output = %q, want %q", got, want)
	}
}

func TestTableFormatter_FormatEvents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatter := New(Config{Format: FormatTable, ShowTimestamps: true})
	if err := formatter.FormatEvents(&buf, sampleEntries()); err != nil {
		t.Fatalf("FormatEvents() error = %v", err)
	}

	output := buf.String()

	for _, want := range []string{"Recent Events", "Time", "2024-01-01 10:00:01", "12,345", "/src/main.go", "delete", "#3"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestTableFormatter_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Compact: true}).FormatEvents(&buf, nil); err != nil {
		t.Fatalf("FormatEvents() error = %v", err)
	}

	if got := buf.String(); got != "Recent Events\nNo data\n" {
		t.Errorf("output = %q", got)
	}
}

func TestTableFormatter_FormatEvent(t *testing.T) {
	t.Parallel()

	entries := sampleEntries()

	var buf bytes.Buffer
	formatter := New(Config{Format: FormatTable})
	for _, entry := range entries {
		if err := formatter.FormatEvent(&buf, entry); err != nil {
			t.Fatalf("FormatEvent() error = %v", err)
		}
	}

	want := "ready   /src/\nadd     /src/main.go\ndelete  /src/old.go\n"
	if got := buf.String(); got != want {
		t.Errorf("FormatEvent() = %q, want %q", got, want)
	}
}

func TestJSONFormatter_FormatResolved(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatJSON}).FormatResolved(&buf, sampleRows()); err != nil {
		t.Fatalf("FormatResolved() error = %v", err)
	}

	var decoded []ResolvedRow
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Base != "src/" || decoded[1].Pattern != "*.yaml" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestJSONFormatter_FormatEvents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatJSON}).FormatEvents(&buf, sampleEntries()); err != nil {
		t.Fatalf("FormatEvents() error = %v", err)
	}

	if !strings.Contains(buf.String(), `"kind": "add"`) {
		t.Errorf("kind not encoded by name:\n%s", buf.String())
	}

	var decoded []journal.Entry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 3 || decoded[2].Kind != watcher.KindDelete {
		t.Errorf("decoded = %+v", decoded)
	}

	buf.Reset()
	if err := New(Config{Format: FormatJSON}).FormatEvents(&buf, nil); err != nil {
		t.Fatalf("FormatEvents(nil) error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty output = %q, want []", got)
	}
}

func TestJSONFormatter_FormatEventIsOneLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatter := New(Config{Format: FormatJSON})
	for _, entry := range sampleEntries() {
		if err := formatter.FormatEvent(&buf, entry); err != nil {
			t.Fatalf("FormatEvent() error = %v", err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for _, line := range lines {
		var entry journal.Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Errorf("line %q is not JSON: %v", line, err)
		}
	}
}

func TestSimpleFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatter := New(Config{Format: FormatSimple})

	if err := formatter.FormatResolved(&buf, sampleRows()); err != nil {
		t.Fatalf("FormatResolved() error = %v", err)
	}
	if err := formatter.FormatEvents(&buf, sampleEntries()[1:]); err != nil {
		t.Fatalf("FormatEvents() error = %v", err)
	}

	want := "src/**/*.go -> src/ | **/*.go\n" +
		"*.yaml -> ./ | *.yaml\n" +
		"add /src/main.go\n" +
		"delete /src/old.go\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestSimpleFormatter_Timestamps(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatter := New(Config{Format: FormatSimple, ShowTimestamps: true})
	if err := formatter.FormatEvent(&buf, sampleEntries()[0]); err != nil {
		t.Fatalf("FormatEvent() error = %v", err)
	}

	if got := buf.String(); got != "2024-01-01 10:00:00 ready /src/\n" {
		t.Errorf("output = %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
		{-1500, "-1,500"},
	}

	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
