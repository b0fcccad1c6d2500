package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File keeps one JSON document per key in a directory.
type File struct {
	dir string
	mu  sync.RWMutex
}

// NewFile returns a file backend writing into dir.
func NewFile(dir string) *File {
	return &File{dir: dir}
}

func (f *File) path(key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(f.dir, name+".json")
}

// Get reads the document stored under key.
func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set replaces the document stored under key. The write goes to a temp file
// first so a crash never leaves a half-written snapshot behind.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.path(key)
	tmp, err := os.CreateTemp(f.dir, filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

// Close is a no-op; files are closed after every write.
func (f *File) Close() error { return nil }
