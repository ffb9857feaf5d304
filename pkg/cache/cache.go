// Package cache persists online answers keyed by normalized query text so
// they can be replayed when the assistant is offline.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrEmptyQuery is returned by Put when the query normalizes to nothing.
var ErrEmptyQuery = errors.New("cache: empty query")

// Store is a JSON-file backed query -> answer mapping.
//
// The file is re-read on every access so answers written by an earlier
// session (or edited by hand) are always visible. A missing or malformed
// file reads as empty; the next Put replaces it with valid content.
// Writes are serialized within the process only.
type Store struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// New creates a store backed by the file at path. The file is not touched
// until EnsureFile or Put is called.
func New(path string) *Store {
	return &Store{
		path:   path,
		logger: slog.Default().With("component", "cache.store"),
	}
}

// Normalize returns the cache key for a query: trimmed and lower-cased.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// EnsureFile creates the parent directory and an empty mapping if the
// backing file does not exist yet.
func (s *Store) EnsureFile() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cache: stat %s: %w", s.path, err)
	}
	return s.write(map[string]string{})
}

// Get looks up the answer recorded for query.
func (s *Store) Get(query string) (string, bool) {
	key := Normalize(query)
	if key == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	answer, ok := s.read()[key]
	return answer, ok
}

// Put records answer for query, replacing any previous entry, and persists
// the whole mapping before returning.
func (s *Store) Put(query, answer string) error {
	key := Normalize(query)
	if key == "" {
		return ErrEmptyQuery
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.read()
	entries[key] = answer
	return s.write(entries)
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.read())
}

// read loads the mapping. Caller holds mu.
func (s *Store) read() map[string]string {
	entries := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cache file unreadable, treating as empty", "path", s.path, "error", err)
		}
		return entries
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("cache file corrupt, treating as empty", "path", s.path, "error", err)
		return make(map[string]string)
	}
	if entries == nil {
		s.logger.Warn("cache file holds null, treating as empty", "path", s.path)
		return make(map[string]string)
	}
	return entries
}

// write persists the mapping atomically. Caller holds mu.
func (s *Store) write(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("cache: create directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("cache: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: rename temp file: %w", err)
	}
	return nil
}
