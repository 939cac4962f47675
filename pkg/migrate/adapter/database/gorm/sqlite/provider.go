// Package sqlite registers the GORM dialector for SQLite databases.
package sqlite

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbconfig "github.com/firelater/migrator/pkg/migrate/adapter/database/config"
	gormadapter "github.com/firelater/migrator/pkg/migrate/adapter/database/gorm"
)

// init registers the SQLite dialector factory with the GORM adapter.
func init() {
	gormadapter.RegisterDialector("sqlite", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return sqlite.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString returns the file path DSN for SQLite connections.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	return c.Database
}
