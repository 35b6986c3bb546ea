package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the whole namespace as a single JSON document on
// disk, the closest analog to a browser's local storage. Every write
// rewrites the file; the document is small enough that this is fine.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// NewFileStore opens (or creates) the store at path. A file that exists
// but does not parse is discarded and started fresh: corrupt persisted
// state is treated as absent, never fatal.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		data: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.data = make(map[string]json.RawMessage)
	}
	return s, nil
}

// Get returns the value for key, or (nil, false, nil) if absent.
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

// Set stores value under key and flushes the document to disk.
func (s *FileStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = json.RawMessage(value)
	return s.flush()
}

// Delete removes key and flushes.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flush()
}

// Clear removes every key and flushes.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]json.RawMessage)
	return s.flush()
}

// flush writes the document atomically via a temp file rename.
// Caller must hold s.mu.
func (s *FileStore) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".vhub-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp storage file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close storage file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace storage file: %w", err)
	}
	return nil
}
