package postgres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dbconfig "github.com/firelater/migrator/pkg/migrate/adapter/database/config"
	gormadapter "github.com/firelater/migrator/pkg/migrate/adapter/database/gorm"
	"github.com/firelater/migrator/pkg/migrate/adapter/database/gorm/postgres"
)

func TestConnectionString(t *testing.T) {
	cfg := dbconfig.DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "migrator",
		Password: "secret",
		Database: "helpdesk",
		Sslmode:  "disable",
	}
	assert.Equal(t,
		"host=db.internal port=5432 user=migrator password=secret dbname=helpdesk sslmode=disable",
		postgres.ConnectionString(cfg))

	cfg.Schema = "tenant_acme"
	assert.Contains(t, postgres.ConnectionString(cfg), "search_path=tenant_acme")
}

func TestDialectorRegistered(t *testing.T) {
	factory, err := gormadapter.GetDialectorFactory("postgres")
	assert.NoError(t, err)
	assert.NotNil(t, factory)
}
