// Package local provides a local file system implementation of the blob store.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	storageAdapter "github.com/firelater/migrator/pkg/migrate/adapter/storage"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

// ProviderType defines the type identifier for this blob store backend.
const ProviderType = "local"

// localBlobStore implements storage.BlobStore on top of a base directory.
type localBlobStore struct {
	baseDir string
}

// Verify that localBlobStore implements the storage.BlobStore interface.
var _ storageAdapter.BlobStore = (*localBlobStore)(nil)

// NewLocalBlobStore creates a blob store rooted at baseDir, creating the
// directory if it does not exist.
func NewLocalBlobStore(baseDir string) (storageAdapter.BlobStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("local blob store: baseDir must be specified")
	}
	info, err := os.Stat(baseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("local blob store: failed to stat baseDir '%s': %w", baseDir, err)
		}
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, fmt.Errorf("local blob store: failed to create baseDir '%s': %w", baseDir, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("local blob store: baseDir '%s' is not a directory", baseDir)
	}
	return &localBlobStore{baseDir: baseDir}, nil
}

// resolve maps a key onto a path under baseDir, rejecting traversal outside it.
func (s *localBlobStore) resolve(key string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(s.baseDir, filepath.FromSlash(key)))
	if !strings.HasPrefix(cleaned, filepath.Clean(s.baseDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("local blob store: key '%s' escapes the base directory", key)
	}
	return cleaned, nil
}

// Store persists data under the given key.
func (s *localBlobStore) Store(ctx context.Context, key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("local blob store: failed to create directory for '%s': %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("local blob store: failed to write '%s': %w", key, err)
	}
	logger.Debugf("Stored blob '%s' (%d bytes)", key, len(data))
	return nil
}

// Read retrieves the data stored under the given key.
func (s *localBlobStore) Read(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("local blob store: failed to read '%s': %w", key, err)
	}
	return data, nil
}

// Delete removes the data stored under the given key.
func (s *localBlobStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local blob store: failed to delete '%s': %w", key, err)
	}
	return nil
}

// Close does nothing for the local file system store.
func (s *localBlobStore) Close() error {
	return nil
}
