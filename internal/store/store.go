// Package store provides the durable local key-value store backing the
// worklog repositories.
//
// Each key maps to one JSON file (<key>.json) inside the store directory.
// Reads are forgiving: a missing or unparsable file behaves exactly like an
// empty key, so a corrupted store degrades to an empty collection instead of
// failing. Writes are atomic via a temp file and rename, so a crash mid-write
// never leaves a half-written value behind.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store is a directory-backed JSON key-value store.
//
// It is the Go counterpart of the browser's localStorage: synchronous,
// process-local, and survives restarts. Repositories for different
// collections share one Store and use distinct keys.
type Store struct {
	dir string
}

// Open creates a Store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// Read unmarshals the value stored under key into v.
//
// Returns false if the key does not exist or the stored content is not
// valid JSON; v is left untouched in that case, so callers pass a pointer
// to their fallback value. Read never fails loudly: corruption is treated
// the same as absence.
func (s *Store) Read(key string, v any) bool {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false
	}
	return true
}

// Write persists v under key as pretty-printed JSON.
//
// The value is written to a temp file first and renamed into place.
func (s *Store) Write(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	path := s.path(key)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Delete removes the value stored under key.
// Returns nil if the key does not exist (idempotent).
func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
