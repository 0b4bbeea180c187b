// Package journal provides a persistent log of delivered watch events.
//
// Events are appended to a BoltDB bucket under monotonically increasing
// sequence numbers, with an index from file path to the latest event for
// that path.
//
// Example usage:
//
//	store, err := journal.Open(journal.Config{
//	    DBPath: "~/.config/globwatch/journal.db",
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	if err := store.Record(ev); err != nil {
//	    log.Println(err)
//	}
//
//	recent, err := store.Recent(20)
package journal

import (
	"path/filepath"
	"time"

	"github.com/0xmhha/globwatch/pkg/watcher"
)

// Entry is one recorded event.
type Entry struct {
	// Seq is the journal sequence number, starting at 1.
	Seq uint64 `json:"seq"`

	// Kind is the delivered event kind.
	Kind watcher.Kind `json:"kind"`

	// Filename is relative to Dir; empty for ready events.
	Filename string `json:"filename,omitempty"`

	// Dir is the watched base directory, ending in a separator.
	Dir string `json:"dir"`

	// Size is the file size for add and change events.
	Size int64 `json:"size,omitempty"`

	// Time is when the watcher observed the event.
	Time time.Time `json:"time"`
}

// Path returns the full path of the file the entry refers to.
func (e Entry) Path() string {
	return filepath.Join(e.Dir, e.Filename)
}

// FromEvent converts a delivered event into an unsequenced entry.
func FromEvent(ev watcher.Event) Entry {
	entry := Entry{
		Kind:     ev.Kind,
		Filename: ev.Filename,
		Dir:      ev.Dir,
		Time:     ev.Time,
	}
	if ev.Stat != nil {
		entry.Size = ev.Stat.Size()
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	return entry
}

// Store records events and answers history queries.
type Store interface {
	// Record appends ev to the journal.
	//
	// Returns error if the store is closed or the write fails.
	Record(ev watcher.Event) error

	// Recent returns up to n of the newest entries, oldest first.
	// n <= 0 returns every entry.
	Recent(n int) ([]Entry, error)

	// Latest returns the newest entry for the file at path.
	//
	// Returns:
	//   - Entry if found
	//   - ErrNotFound if no event was recorded for path
	//   - Error for database failures
	Latest(path string) (Entry, error)

	// Clear removes every entry. Sequence numbers keep increasing.
	Clear() error

	// Close releases resources. It is safe to call more than once.
	Close() error
}

// Config contains journal configuration.
type Config struct {
	// DBPath is the BoltDB file path. A leading ~ is expanded.
	DBPath string

	// MaxEntries caps the journal size; the oldest entries are pruned
	// on write. 0 keeps everything.
	MaxEntries int

	// Timeout is the database lock timeout (default: 1 second).
	Timeout time.Duration
}
