// Package ports declares the interfaces of external collaborators consumed by
// the migration subsystem. Their implementations belong to the surrounding
// product; the subsystem only depends on these contracts.
package ports

import (
	"context"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
)

// EntityPersister writes final, validated entities into the product's
// normalized schema. It is expected to carry its own timeout/retry policy.
type EntityPersister interface {
	// CreateEntity persists a single mapped record for a tenant and returns the
	// identifier of the created entity. A rejected write (e.g. a uniqueness
	// violation) is returned as an error and treated as a recoverable
	// per-record failure by the orchestrator.
	CreateEntity(ctx context.Context, tenantSlug string, entityType model.EntityType, targetData map[string]interface{}) (string, error)
}

// TenantResolver resolves a tenant identifier to its storage namespace.
type TenantResolver interface {
	SchemaFor(ctx context.Context, tenantSlug string) (string, error)
}
