package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firelater/migrator/pkg/migrate/infrastructure/persistence"
)

func TestStaticTenantResolver_SchemaFor(t *testing.T) {
	resolver := persistence.NewStaticTenantResolver(map[string]string{
		"acme":   "tenant_acme",
		"broken": "",
	})
	ctx := context.Background()

	schema, err := resolver.SchemaFor(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "tenant_acme", schema)

	_, err = resolver.SchemaFor(ctx, "globex")
	assert.Error(t, err)

	_, err = resolver.SchemaFor(ctx, "")
	assert.Error(t, err)

	_, err = resolver.SchemaFor(ctx, "broken")
	assert.Error(t, err)
}

func TestStaticTenantResolver_CopiesInput(t *testing.T) {
	schemas := map[string]string{"acme": "tenant_acme"}
	resolver := persistence.NewStaticTenantResolver(schemas)

	schemas["acme"] = "hijacked"

	schema, err := resolver.SchemaFor(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "tenant_acme", schema)
}
