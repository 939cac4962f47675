package persistence

import (
	"fmt"

	"go.uber.org/fx"

	gormadapter "github.com/firelater/migrator/pkg/migrate/adapter/database/gorm"
	config "github.com/firelater/migrator/pkg/migrate/core/config"
	"github.com/firelater/migrator/pkg/migrate/core/ports"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

// NewTenantResolver builds the resolver from the configured tenant map.
func NewTenantResolver(cfg *config.Config) ports.TenantResolver {
	return NewStaticTenantResolver(cfg.Migrator.Tenants)
}

// NewEntityPersister opens the target database connection and builds the
// default persister over it. When no target database is declared in the
// adapter configs, migrated entities are kept in memory instead.
func NewEntityPersister(cfg *config.Config, pool *gormadapter.ConnectionPool, tenants ports.TenantResolver) (ports.EntityPersister, error) {
	ref := cfg.Migrator.Infrastructure.TargetDBRef
	if _, ok := cfg.Migrator.AdapterConfigs[ref]; !ok {
		logger.Warnf("Target database '%s' is not configured. Migrated entities are held in memory.", ref)
		return NewMemoryEntityPersister(tenants), nil
	}
	db, err := pool.Get(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to open target database: %w", err)
	}
	return NewGormEntityPersister(db, tenants), nil
}

// Module provides the target-side collaborators to the fx application graph.
var Module = fx.Options(
	fx.Provide(NewTenantResolver),
	fx.Provide(NewEntityPersister),
)
