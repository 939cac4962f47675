package persistence

import (
	"context"

	"github.com/firelater/migrator/pkg/migrate/core/ports"
	"github.com/firelater/migrator/pkg/migrate/support/util/exception"
)

// StaticTenantResolver implements ports.TenantResolver over a fixed map of
// tenant slugs to schema names, loaded from configuration.
type StaticTenantResolver struct {
	schemas map[string]string
}

// Verify that StaticTenantResolver implements the ports.TenantResolver interface.
var _ ports.TenantResolver = (*StaticTenantResolver)(nil)

// NewStaticTenantResolver creates a resolver over the given slug-to-schema map.
func NewStaticTenantResolver(schemas map[string]string) *StaticTenantResolver {
	copied := make(map[string]string, len(schemas))
	for slug, schema := range schemas {
		copied[slug] = schema
	}
	return &StaticTenantResolver{schemas: copied}
}

// SchemaFor returns the target schema for a tenant slug. Unknown tenants are
// rejected so no job can be created against a tenant that does not exist.
func (r *StaticTenantResolver) SchemaFor(ctx context.Context, tenantSlug string) (string, error) {
	if tenantSlug == "" {
		return "", exception.NewMigrationErrorf(moduleName, "tenant slug must not be empty")
	}
	schema, ok := r.schemas[tenantSlug]
	if !ok {
		return "", exception.NewMigrationErrorf(moduleName, "unknown tenant: %s", tenantSlug)
	}
	if schema == "" {
		return "", exception.NewMigrationErrorf(moduleName, "tenant '%s' has no target schema configured", tenantSlug)
	}
	return schema, nil
}
