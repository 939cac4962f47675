// Package memory provides an in-memory implementation of the blob store,
// used in tests and for ephemeral single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	storageAdapter "github.com/firelater/migrator/pkg/migrate/adapter/storage"
)

// memoryBlobStore implements storage.BlobStore on top of a mutex-guarded map.
type memoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// Verify that memoryBlobStore implements the storage.BlobStore interface.
var _ storageAdapter.BlobStore = (*memoryBlobStore)(nil)

// NewMemoryBlobStore creates an empty in-memory blob store.
func NewMemoryBlobStore() storageAdapter.BlobStore {
	return &memoryBlobStore{blobs: make(map[string][]byte)}
}

// Store persists data under the given key.
func (s *memoryBlobStore) Store(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.blobs[key] = buf
	return nil
}

// Read retrieves the data stored under the given key.
func (s *memoryBlobStore) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("memory blob store: key '%s' not found", key)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Delete removes the data stored under the given key.
func (s *memoryBlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Close does nothing for the in-memory store.
func (s *memoryBlobStore) Close() error {
	return nil
}
