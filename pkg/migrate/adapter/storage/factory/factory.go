// Package factory selects the blob store backend declared in the storage
// configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/fx"

	storageAdapter "github.com/firelater/migrator/pkg/migrate/adapter/storage"
	"github.com/firelater/migrator/pkg/migrate/adapter/storage/gcs"
	"github.com/firelater/migrator/pkg/migrate/adapter/storage/local"
	"github.com/firelater/migrator/pkg/migrate/adapter/storage/memory"
	config "github.com/firelater/migrator/pkg/migrate/core/config"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

// localConfig holds the local blob store configuration.
type localConfig struct {
	BaseDir string `mapstructure:"baseDir"`
}

// NewBlobStore builds the blob store backend named by migrator.storage.type.
func NewBlobStore(cfg *config.Config) (storageAdapter.BlobStore, error) {
	raw := cfg.Migrator.StorageConfig
	storageType, _ := raw["type"].(string)

	switch storageType {
	case "", "memory":
		logger.Infof("Using in-memory blob store")
		return memory.NewMemoryBlobStore(), nil
	case local.ProviderType:
		var lc localConfig
		if err := mapstructure.Decode(raw, &lc); err != nil {
			return nil, fmt.Errorf("failed to decode local storage config: %w", err)
		}
		logger.Infof("Using local blob store at '%s'", lc.BaseDir)
		return local.NewLocalBlobStore(lc.BaseDir)
	case gcs.ProviderType:
		var gc gcs.Config
		if err := mapstructure.Decode(raw, &gc); err != nil {
			return nil, fmt.Errorf("failed to decode gcs storage config: %w", err)
		}
		logger.Infof("Using GCS blob store (bucket '%s')", gc.Bucket)
		return gcs.NewGCSBlobStore(context.Background(), gc)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
}

// Module provides the configured blob store to the fx application graph and
// closes it on shutdown.
var Module = fx.Options(
	fx.Provide(NewBlobStore),
	fx.Invoke(func(lc fx.Lifecycle, blobs storageAdapter.BlobStore) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return blobs.Close()
			},
		})
	}),
)
