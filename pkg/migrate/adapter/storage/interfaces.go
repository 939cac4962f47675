// Package storage defines the blob store interface used for uploaded source
// files and persisted migration artifacts, abstracting over local file system,
// in-memory and cloud object storage backends.
package storage

import "context"

// BlobStore stores and retrieves opaque byte buffers by key.
type BlobStore interface {
	// Store persists data under the given key, overwriting any previous value.
	Store(ctx context.Context, key string, data []byte) error

	// Read retrieves the data stored under the given key.
	Read(ctx context.Context, key string) ([]byte, error)

	// Delete removes the data stored under the given key.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}
