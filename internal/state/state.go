// Package state provides the durable key-value backends the library snapshot is stored in.
package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("state: key not found")

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindBadger = "badger"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Backend stores whole values under string keys.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open creates the backend of the given kind rooted at dir.
func Open(kind, dir string) (Backend, error) {
	if kind != KindMemory {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	switch kind {
	case KindFile, "":
		return NewFile(dir), nil
	case KindBadger:
		return OpenBadger(filepath.Join(dir, "badger"))
	case KindSQLite:
		return OpenSQLite(filepath.Join(dir, "rak.db"))
	case KindMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", kind)
	}
}

// Dir returns XDG_STATE_HOME/rak or ~/.local/state/rak
func Dir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "rak")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "rak")
}
