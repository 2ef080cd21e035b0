package storage

import (
	"context"
	"sync"
)

// MemoryAdapter keeps blobs in a map. Data does not survive a restart;
// it exists for tests and for running without any backing store.
type MemoryAdapter struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		blobs: make(map[string][]byte),
	}
}

func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	blob, ok := a.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

func (a *MemoryAdapter) Set(_ context.Context, key string, blob []byte) error {
	stored := make([]byte, len(blob))
	copy(stored, blob)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.blobs[key] = stored
	return nil
}

func (a *MemoryAdapter) Remove(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.blobs, key)
	return nil
}
