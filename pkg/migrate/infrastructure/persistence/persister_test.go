package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/infrastructure/persistence"
)

func TestMemoryEntityPersister_CreateEntity(t *testing.T) {
	tenants := persistence.NewStaticTenantResolver(map[string]string{"acme": "tenant_acme"})
	p := persistence.NewMemoryEntityPersister(tenants)

	id, err := p.CreateEntity(context.Background(), "acme", model.EntityIncident, map[string]interface{}{
		"title": "VPN down",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, p.Count())
}

func TestMemoryEntityPersister_RejectsUnknownTenant(t *testing.T) {
	tenants := persistence.NewStaticTenantResolver(map[string]string{"acme": "tenant_acme"})
	p := persistence.NewMemoryEntityPersister(tenants)

	_, err := p.CreateEntity(context.Background(), "ghost", model.EntityIncident, map[string]interface{}{})
	assert.Error(t, err)
	assert.Equal(t, 0, p.Count())
}
