package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written
// (or was removed). Callers treat it as "start empty", not a failure.
var ErrNotFound = errors.New("storage: key not found")

// Adapter is the pluggable persistence backend behind a list: an opaque
// blob per key. Implementations may be slow or flaky; callers own the
// retry/ignore policy.
type Adapter interface {
	// Get returns the blob stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set unconditionally overwrites the blob at key.
	Set(ctx context.Context, key string, blob []byte) error

	// Remove deletes the key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
