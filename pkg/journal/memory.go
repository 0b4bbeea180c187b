package journal

import (
	"path/filepath"
	"sync"

	"github.com/0xmhha/globwatch/pkg/watcher"
)

// memoryStore implements Store using an in-memory slice.
type memoryStore struct {
	mu         sync.RWMutex
	entries    []Entry
	latest     map[string]uint64
	seq        uint64
	maxEntries int
	closed     bool
}

// NewMemoryStore creates an in-memory store.
//
// Useful for testing or when persistence is not needed. maxEntries
// behaves like Config.MaxEntries.
func NewMemoryStore(maxEntries int) Store {
	return &memoryStore{
		latest:     make(map[string]uint64),
		maxEntries: maxEntries,
	}
}

// Record implements Store.Record.
func (s *memoryStore) Record(ev watcher.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.seq++
	entry := FromEvent(ev)
	entry.Seq = s.seq
	s.entries = append(s.entries, entry)
	if entry.Filename != "" {
		s.latest[entry.Path()] = entry.Seq
	}

	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		drop := len(s.entries) - s.maxEntries
		for _, old := range s.entries[:drop] {
			if s.latest[old.Path()] == old.Seq {
				delete(s.latest, old.Path())
			}
		}
		s.entries = append([]Entry(nil), s.entries[drop:]...)
	}
	return nil
}

// Recent implements Store.Recent.
func (s *memoryStore) Recent(n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	start := 0
	if n > 0 && len(s.entries) > n {
		start = len(s.entries) - n
	}
	return append([]Entry{}, s.entries[start:]...), nil
}

// Latest implements Store.Latest.
func (s *memoryStore) Latest(path string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Entry{}, ErrClosed
	}

	seq, ok := s.latest[filepath.Clean(path)]
	if !ok {
		return Entry{}, ErrNotFound
	}
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Seq == seq {
			return s.entries[i], nil
		}
	}
	return Entry{}, ErrNotFound
}

// Clear implements Store.Clear.
func (s *memoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.entries = nil
	s.latest = make(map[string]uint64)
	return nil
}

// Close implements Store.Close.
func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
