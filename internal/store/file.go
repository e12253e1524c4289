package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a MemoryStore persisted to a single JSON file after every
// change.
type FileStore struct {
	mem  *MemoryStore
	path string
	mu   sync.Mutex
}

// OpenFile loads the store at path. A missing file is an empty store.
func OpenFile(path string) (*FileStore, error) {
	fsStore := &FileStore{mem: NewMemoryStore(), path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fsStore, nil
	case err != nil:
		return nil, fmt.Errorf("read state file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &fsStore.mem.data); err != nil {
			return nil, fmt.Errorf("parse state file %s: %w", path, err)
		}
	}
	if fsStore.mem.data == nil {
		fsStore.mem.data = make(map[string]json.RawMessage)
	}
	return fsStore, nil
}

func (s *FileStore) Get(key string, v any) error {
	return s.mem.Get(key, v)
}

func (s *FileStore) Put(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mem.Put(key, v); err != nil {
		return err
	}
	return s.flush()
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mem.Delete(key); err != nil {
		return err
	}
	return s.flush()
}

// flush writes through a temp file so a crash never leaves a partial file.
func (s *FileStore) flush() error {
	s.mem.mu.RLock()
	data, err := json.MarshalIndent(s.mem.snapshot(), "", "  ")
	s.mem.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}
