package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/0xmhha/globwatch/pkg/logger"
	"github.com/0xmhha/globwatch/pkg/watcher"
)

// Bucket names.
var (
	bucketEvents = []byte("events") // Seq -> Entry
	bucketLatest = []byte("latest") // Path -> Seq (index)
)

// boltStore implements Store using BoltDB.
type boltStore struct {
	db     *bolt.DB
	logger logger.Logger
	config Config

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the journal database.
//
// Parameters:
//   - cfg: Journal configuration
//   - log: Logger instance
//
// Returns:
//   - Configured Store
//   - Error if the database cannot be opened
func Open(cfg Config, log logger.Logger) (Store, error) {
	if cfg.DBPath == "" {
		return nil, ErrNoPath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	dbPath := expandHome(cfg.DBPath)

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, createErr := tx.CreateBucketIfNotExists(bucketEvents); createErr != nil {
			return fmt.Errorf("failed to create events bucket: %w", createErr)
		}
		if _, createErr := tx.CreateBucketIfNotExists(bucketLatest); createErr != nil {
			return fmt.Errorf("failed to create latest bucket: %w", createErr)
		}
		return nil
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close journal after initialization error",
				"error", closeErr)
		}
		return nil, err
	}

	log.Debug("journal opened", "db_path", dbPath)

	return &boltStore{
		db:     db,
		logger: log,
		config: cfg,
	}, nil
}

// Record implements Store.Record.
func (s *boltStore) Record(ev watcher.Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	entry := FromEvent(ev)

	return s.db.Update(func(tx *bolt.Tx) error {
		events := tx.Bucket(bucketEvents)
		latest := tx.Bucket(bucketLatest)

		seq, err := events.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}
		entry.Seq = seq

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}

		key := seqKey(seq)
		if err := events.Put(key, data); err != nil {
			return fmt.Errorf("failed to store entry: %w", err)
		}

		if entry.Filename != "" {
			if err := latest.Put([]byte(entry.Path()), key); err != nil {
				return fmt.Errorf("failed to store latest index: %w", err)
			}
		}

		if s.config.MaxEntries > 0 && seq > uint64(s.config.MaxEntries) {
			return prune(events, latest, seq-uint64(s.config.MaxEntries))
		}
		return nil
	})
}

// prune deletes entries with a sequence <= cutoff along with index
// records that still point at them.
func prune(events, latest *bolt.Bucket, cutoff uint64) error {
	c := events.Cursor()
	for k, v := c.First(); k != nil && binary.BigEndian.Uint64(k) <= cutoff; k, v = c.First() {
		var entry Entry
		if err := json.Unmarshal(v, &entry); err == nil && entry.Filename != "" {
			path := []byte(entry.Path())
			if idx := latest.Get(path); idx != nil && binary.BigEndian.Uint64(idx) == entry.Seq {
				if err := latest.Delete(path); err != nil {
					return fmt.Errorf("failed to prune latest index: %w", err)
				}
			}
		}
		if err := c.Delete(); err != nil {
			return fmt.Errorf("failed to prune entry: %w", err)
		}
	}
	return nil
}

// Recent implements Store.Recent.
func (s *boltStore) Recent(n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	entries := make([]Entry, 0, 16)

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if n > 0 && len(entries) == n {
				break
			}

			var entry Entry
			if unmarshalErr := json.Unmarshal(v, &entry); unmarshalErr != nil {
				s.logger.Warn("failed to unmarshal journal entry",
					"seq", binary.BigEndian.Uint64(k),
					"error", unmarshalErr)
				continue // Skip invalid entries.
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return entries, nil
}

// Latest implements Store.Latest.
func (s *boltStore) Latest(path string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Entry{}, ErrClosed
	}

	var entry Entry

	err := s.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(bucketLatest).Get([]byte(filepath.Clean(path)))
		if key == nil {
			return ErrNotFound
		}

		data := tx.Bucket(bucketEvents).Get(key)
		if data == nil {
			return ErrNotFound
		}

		if unmarshalErr := json.Unmarshal(data, &entry); unmarshalErr != nil {
			return fmt.Errorf("failed to unmarshal entry: %w", unmarshalErr)
		}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	return entry, nil
}

// Clear implements Store.Clear.
func (s *boltStore) Clear() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		events := tx.Bucket(bucketEvents)
		seq := events.Sequence()

		for _, name := range [][]byte{bucketEvents, bucketLatest} {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("failed to delete %s bucket: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("failed to recreate %s bucket: %w", name, err)
			}
		}

		return tx.Bucket(bucketEvents).SetSequence(seq)
	})
}

// Close implements Store.Close.
func (s *boltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}

	s.logger.Debug("journal closed")
	return nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
