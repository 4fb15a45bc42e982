// Package cache provides the local, file-backed store for stats cache
// records. Each record lives in its own JSON file under a namespaced
// filename, so the housekeeping sweep can enumerate this application's
// keys without touching anything else in the directory.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/repopulse/repopulse/internal/domain"
)

// keyPrefix namespaces every file this store owns.
const keyPrefix = "repopulse-"

// Store persists cache records as individual JSON files in a directory.
// Only one pipeline instance runs per invocation, so the only write
// discipline needed is last-writer-wins on each key.
type Store struct {
	dir    string
	logger *log.Logger
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string, logger *log.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// Get reads the record stored under key. A missing or unparsable file is
// reported as "no record" with no error; parse problems are logged at
// debug level only.
func (s *Store) Get(key string) (domain.CacheRecord, bool) {
	path := s.path(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("cache read failed", "key", key, "err", err)
		}
		return domain.CacheRecord{}, false
	}

	var record domain.CacheRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		s.logger.Debug("cache record malformed, treating as miss", "key", key, "err", err)
		return domain.CacheRecord{}, false
	}
	return record, true
}

// Set writes the record under key, unconditionally replacing any prior one.
func (s *Store) Set(key string, record domain.CacheRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode cache record: %w", err)
	}
	if err := os.WriteFile(s.path(key), raw, 0o644); err != nil {
		return fmt.Errorf("write cache record: %w", err)
	}
	return nil
}

// Delete removes the record under key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete cache record: %w", err)
	}
	return nil
}

// Sweep removes every record in this store's namespace whose embedded
// timestamp is older than maxAge. It runs once at startup, before the
// stats pipeline. Records that cannot be parsed at all are removed too,
// since nothing will ever read them successfully.
func (s *Store) Sweep(now time.Time, maxAge time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Debug("cache sweep skipped", "err", err)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, keyPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		path := filepath.Join(s.dir, name)

		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var record domain.CacheRecord
		stale := json.Unmarshal(raw, &record) != nil || !record.ValidAt(now, maxAge)
		if !stale {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("cache sweep complete", "removed", removed)
	}
	return removed
}

// Clear removes every record in this store's namespace regardless of age.
func (s *Store) Clear() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, keyPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, keyPrefix+key+".json")
}
