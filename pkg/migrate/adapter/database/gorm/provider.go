// Package gorm manages GORM database connections for the configured backends.
// Concrete dialectors register themselves from the postgres, mysql and sqlite
// subpackages.
package gorm

import (
	"fmt"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"gorm.io/gorm"

	dbconfig "github.com/firelater/migrator/pkg/migrate/adapter/database/config"
	config "github.com/firelater/migrator/pkg/migrate/core/config"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

// DialectorFactory generates a gorm.Dialector from a dbconfig.DatabaseConfig.
type DialectorFactory func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given database type.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[dbType]; exists {
		logger.Warnf("Dialector for type '%s' already registered. Overwriting.", dbType)
	}
	dialectorRegistry[dbType] = factory
}

// GetDialectorFactory retrieves the DialectorFactory corresponding to the specified DB type.
func GetDialectorFactory(dbType string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[dbType]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for database type: %s", dbType)
	}
	return factory, nil
}

// ConnectionPool lazily opens and caches named GORM connections declared in
// the adapter config map.
type ConnectionPool struct {
	cfg         *config.Config
	mu          sync.Mutex
	connections map[string]*gorm.DB
}

// NewConnectionPool creates a ConnectionPool over the application configuration.
func NewConnectionPool(cfg *config.Config) *ConnectionPool {
	return &ConnectionPool{
		cfg:         cfg,
		connections: make(map[string]*gorm.DB),
	}
}

// Get retrieves an existing connection or establishes a new one for the named
// database config.
func (p *ConnectionPool) Get(name string) (*gorm.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.connections[name]; ok {
		return conn, nil
	}

	rawConfig, ok := p.cfg.Migrator.AdapterConfigs[name]
	if !ok {
		return nil, fmt.Errorf("database configuration '%s' not found in adapter configs", name)
	}
	var dbConfig dbconfig.DatabaseConfig
	if err := mapstructure.Decode(rawConfig, &dbConfig); err != nil {
		return nil, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}

	db, err := Open(dbConfig)
	if err != nil {
		return nil, err
	}
	p.connections[name] = db
	logger.Infof("Established new DB connection: %s (%s)", name, dbConfig.Type)
	return db, nil
}

// Config decodes and returns the named database configuration without opening
// a connection.
func (p *ConnectionPool) Config(name string) (dbconfig.DatabaseConfig, error) {
	rawConfig, ok := p.cfg.Migrator.AdapterConfigs[name]
	if !ok {
		return dbconfig.DatabaseConfig{}, fmt.Errorf("database configuration '%s' not found in adapter configs", name)
	}
	var dbConfig dbconfig.DatabaseConfig
	if err := mapstructure.Decode(rawConfig, &dbConfig); err != nil {
		return dbconfig.DatabaseConfig{}, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}
	return dbConfig, nil
}

// CloseAll closes all connections managed by this pool.
func (p *ConnectionPool) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for name, db := range p.connections {
		sqlDB, err := db.DB()
		if err != nil {
			logger.Errorf("Failed to resolve sql.DB for connection '%s': %v", name, err)
			lastErr = err
			continue
		}
		if err := sqlDB.Close(); err != nil {
			logger.Errorf("Failed to close connection '%s': %v", name, err)
			lastErr = err
		}
		delete(p.connections, name)
	}
	return lastErr
}

// Open establishes a GORM connection based on DatabaseConfig.
func Open(dbConfig dbconfig.DatabaseConfig) (*gorm.DB, error) {
	dialectorFactory, err := GetDialectorFactory(dbConfig.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to get dialector factory for %s: %w", dbConfig.Type, err)
	}
	dialector, err := dialectorFactory(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialector for %s: %w", dbConfig.Type, err)
	}

	gormConfig := &gorm.Config{
		Logger: NewGormLogger(string(config.LogLevelSilent)),
	}
	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open GORM connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(dbConfig.Pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbConfig.Pool.MaxIdleConns)
	if dbConfig.Pool.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.Pool.ConnMaxLifetimeMinutes) * time.Minute)
	}
	return db, nil
}
