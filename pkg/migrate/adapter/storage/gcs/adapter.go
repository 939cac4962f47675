// Package gcs provides a Google Cloud Storage implementation of the blob store.
package gcs

import (
	"context"
	"fmt"
	"io"
	"path"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	storageAdapter "github.com/firelater/migrator/pkg/migrate/adapter/storage"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

// ProviderType defines the type identifier for this blob store backend.
const ProviderType = "gcs"

// Config holds the GCS blob store configuration, decoded from the raw
// adapter config map.
type Config struct {
	// Bucket is the GCS bucket receiving uploaded exports and artifacts.
	Bucket string `mapstructure:"bucket"`
	// Prefix is prepended to every object key.
	Prefix string `mapstructure:"prefix"`
	// CredentialsFile optionally points at a service account key file.
	CredentialsFile string `mapstructure:"credentialsFile"`
}

// gcsBlobStore implements storage.BlobStore on top of a GCS bucket.
type gcsBlobStore struct {
	client *gcstorage.Client
	cfg    Config
}

// Verify that gcsBlobStore implements the storage.BlobStore interface.
var _ storageAdapter.BlobStore = (*gcsBlobStore)(nil)

// NewGCSBlobStore creates a blob store backed by the configured GCS bucket.
func NewGCSBlobStore(ctx context.Context, cfg Config) (storageAdapter.BlobStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs blob store: bucket must be specified")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs blob store: failed to create client: %w", err)
	}
	return &gcsBlobStore{client: client, cfg: cfg}, nil
}

// objectName prepends the configured prefix to a key.
func (s *gcsBlobStore) objectName(key string) string {
	if s.cfg.Prefix == "" {
		return key
	}
	return path.Join(s.cfg.Prefix, key)
}

// Store persists data under the given key.
func (s *gcsBlobStore) Store(ctx context.Context, key string, data []byte) error {
	w := s.client.Bucket(s.cfg.Bucket).Object(s.objectName(key)).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs blob store: failed to write '%s': %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs blob store: failed to finalize '%s': %w", key, err)
	}
	logger.Debugf("Stored blob 'gs://%s/%s' (%d bytes)", s.cfg.Bucket, s.objectName(key), len(data))
	return nil
}

// Read retrieves the data stored under the given key.
func (s *gcsBlobStore) Read(ctx context.Context, key string) ([]byte, error) {
	r, err := s.client.Bucket(s.cfg.Bucket).Object(s.objectName(key)).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs blob store: failed to open '%s': %w", key, err)
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			logger.Errorf("Failed to close GCS reader for '%s': %v", key, cerr)
		}
	}()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs blob store: failed to read '%s': %w", key, err)
	}
	return data, nil
}

// Delete removes the data stored under the given key.
func (s *gcsBlobStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.cfg.Bucket).Object(s.objectName(key)).Delete(ctx)
	if err != nil && err != gcstorage.ErrObjectNotExist {
		return fmt.Errorf("gcs blob store: failed to delete '%s': %w", key, err)
	}
	return nil
}

// Close releases the underlying GCS client.
func (s *gcsBlobStore) Close() error {
	return s.client.Close()
}
