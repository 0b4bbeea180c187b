// Package watcher provides the directory watcher bound to one resolved glob.
//
// A Watcher monitors a base directory recursively, filters paths against a
// doublestar pattern relative to that directory, and reports four kinds of
// notifications: add, change, delete and ready. It uses fsnotify by default
// and falls back to periodic polling when Options.Poll is set.
//
// Example usage:
//
//	w, err := watcher.New("/tmp/x/", watcher.Options{Pattern: "*.txt"}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	w.On(watcher.KindAdd, func(ev watcher.Event) {
//	    fmt.Println("added", ev.Path())
//	})
//
//	if err := w.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Kind identifies a notification stream.
type Kind uint8

// Notification kinds.
const (
	KindChange Kind = iota // Known file modified
	KindAdd                // File appeared
	KindDelete             // Known file removed
	KindReady              // Initial crawl finished

	// NumKinds is the number of notification kinds.
	NumKinds = 4
)

var kindNames = [NumKinds]string{
	KindChange: "change",
	KindAdd:    "add",
	KindDelete: "delete",
	KindReady:  "ready",
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind parses a kind name. Handler-style names such as "onChange"
// are accepted too.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "on")
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Event is one notification delivered to subscribers.
type Event struct {
	// Kind is the notification stream the event belongs to.
	Kind Kind `json:"kind"`

	// Filename is the path relative to Dir, in host separators.
	// Empty for ready events.
	Filename string `json:"filename,omitempty"`

	// Dir is the watched base directory, ending in a separator.
	Dir string `json:"dir"`

	// Stat is the file metadata. Set for add and change only.
	Stat os.FileInfo `json:"-"`

	// Time is when the watcher observed the event.
	Time time.Time `json:"time"`
}

// Path returns the full path of the file the event refers to.
func (e Event) Path() string {
	return filepath.Join(e.Dir, e.Filename)
}

// Options configures a Watcher. It is the passthrough section of the
// orchestrator configuration.
type Options struct {
	// Pattern selects reported files, relative to the base directory.
	// Default: "**" (everything).
	Pattern string `yaml:"pattern,omitempty"`

	// Ignored lists doublestar patterns that are never reported and whose
	// directories are not descended into.
	Ignored []string `yaml:"ignored,omitempty"`

	// Dot enables matching of files and directories starting with ".".
	// Dot segments named explicitly by Pattern always match.
	Dot bool `yaml:"dot,omitempty"`

	// Poll switches from fsnotify to periodic directory scans.
	Poll bool `yaml:"poll,omitempty"`

	// Interval is the scan period in poll mode.
	// Default: 100ms.
	Interval time.Duration `yaml:"interval,omitempty"`

	// CircuitBreakerThreshold is the number of consecutive runtime errors
	// after which errors stop being forwarded.
	// Default: 5.
	CircuitBreakerThreshold int `yaml:"circuit_breaker_threshold,omitempty"`
}
