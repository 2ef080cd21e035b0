package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileAdapter mirrors list blobs into plain JSON files under a data
// directory, one file per key. It is the zero-infrastructure backend
// for single-node deployments and local development.
type FileAdapter struct {
	dir string
}

// NewFileAdapter creates the data directory if needed.
func NewFileAdapter(dir string) (*FileAdapter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return &FileAdapter{dir: dir}, nil
}

func (a *FileAdapter) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(a.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (a *FileAdapter) Set(_ context.Context, key string, blob []byte) error {
	if err := os.WriteFile(a.path(key), blob, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (a *FileAdapter) Remove(_ context.Context, key string) error {
	if err := os.Remove(a.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// path maps a storage key to a filename. Keys use ":" as a namespace
// separator, which is not filesystem-safe everywhere.
func (a *FileAdapter) path(key string) string {
	name := strings.ReplaceAll(key, ":", "_") + ".json"
	return filepath.Join(a.dir, name)
}
