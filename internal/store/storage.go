package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Storage is the durable side of a persisted store. Read reports whether the
// named key existed. The host may defer the physical write; callers must not
// assume durability before the next event-loop tick.
type Storage interface {
	Read(name string) ([]byte, bool, error)
	Write(name string, data []byte) error
}

// FileStorage keeps one JSON document per store name under a directory.
type FileStorage struct {
	dir string
}

// NewFileStorage ensures the directory exists and returns the storage.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %q: %w", dir, err)
	}
	return &FileStorage{dir: dir}, nil
}

func (f *FileStorage) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

// Read loads the named document, reporting absence without error.
func (f *FileStorage) Read(name string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read store %q: %w", name, err)
	}
	return data, true, nil
}

// Write replaces the named document via temp file + rename so a crash never
// leaves a half-written store behind.
func (f *FileStorage) Write(name string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %q: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write store %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close store %q: %w", name, err)
	}
	if err := os.Rename(tmpName, f.path(name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace store %q: %w", name, err)
	}
	return nil
}

// MemStorage is an in-memory Storage for tests and ephemeral sessions.
type MemStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemStorage returns an empty in-memory storage.
func NewMemStorage() *MemStorage {
	return &MemStorage{data: map[string][]byte{}}
}

func (m *MemStorage) Read(name string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[name]
	if !ok {
		return nil, false, nil
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, true, nil
}

func (m *MemStorage) Write(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	m.data[name] = copied
	return nil
}
