// Package factory selects the repository backend declared in the
// infrastructure configuration.
package factory

import (
	"fmt"

	"go.uber.org/fx"

	gormadapter "github.com/firelater/migrator/pkg/migrate/adapter/database/gorm"
	config "github.com/firelater/migrator/pkg/migrate/core/config"
	repo "github.com/firelater/migrator/pkg/migrate/core/domain/repository"
	gormrepo "github.com/firelater/migrator/pkg/migrate/infrastructure/repository/gorm"
	"github.com/firelater/migrator/pkg/migrate/infrastructure/repository/inmemory"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

// NewRepository builds the repository backend named by
// migrator.infrastructure.repository_kind.
func NewRepository(cfg *config.Config, pool *gormadapter.ConnectionPool) (repo.Repository, error) {
	kind := cfg.Migrator.Infrastructure.RepositoryKind
	switch kind {
	case "", "inmemory":
		logger.Infof("Using in-memory repository")
		return inmemory.NewInMemoryRepository(), nil
	case "gorm":
		db, err := pool.Get(cfg.Migrator.Infrastructure.RepositoryDBRef)
		if err != nil {
			return nil, fmt.Errorf("failed to open repository database: %w", err)
		}
		logger.Infof("Using GORM repository (connection '%s')", cfg.Migrator.Infrastructure.RepositoryDBRef)
		return gormrepo.NewGormRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown repository kind: %s", kind)
	}
}

// Module provides the configured repository to the fx application graph.
var Module = fx.Options(
	fx.Provide(NewRepository),
)
