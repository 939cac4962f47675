// Package persistence provides the default implementations of the target-side
// collaborator ports: a GORM-backed entity persister and a config-backed
// tenant resolver.
package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/core/ports"
	"github.com/firelater/migrator/pkg/migrate/support/util/exception"
)

const moduleName = "persistence"

// ImportedEntityRecord is the schema model for migrated entities. Each row
// holds the mapped target data as a JSON document alongside routing columns.
type ImportedEntityRecord struct {
	ID         string        `gorm:"primaryKey;size:36"`
	TenantSlug string        `gorm:"index"`
	Schema     string        `gorm:"column:tenant_schema"`
	EntityType string        `gorm:"index"`
	Data       model.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time
}

func (ImportedEntityRecord) TableName() string {
	return "imported_entity"
}

// GormEntityPersister implements ports.EntityPersister by inserting mapped
// records into the target database.
type GormEntityPersister struct {
	db      *gorm.DB
	tenants ports.TenantResolver
}

// Verify that GormEntityPersister implements the ports.EntityPersister interface.
var _ ports.EntityPersister = (*GormEntityPersister)(nil)

// NewGormEntityPersister creates a persister over the target connection.
func NewGormEntityPersister(db *gorm.DB, tenants ports.TenantResolver) *GormEntityPersister {
	return &GormEntityPersister{db: db, tenants: tenants}
}

// CreateEntity inserts one mapped record and returns its new ID.
func (p *GormEntityPersister) CreateEntity(ctx context.Context, tenantSlug string, entityType model.EntityType, targetData map[string]interface{}) (string, error) {
	schema, err := p.tenants.SchemaFor(ctx, tenantSlug)
	if err != nil {
		return "", err
	}

	record := &ImportedEntityRecord{
		ID:         model.NewID(),
		TenantSlug: tenantSlug,
		Schema:     schema,
		EntityType: string(entityType),
		Data:       model.JSONMap(targetData),
		CreatedAt:  time.Now(),
	}
	if err := p.db.WithContext(ctx).Create(record).Error; err != nil {
		return "", exception.NewMigrationError(moduleName,
			fmt.Sprintf("failed to persist %s entity for tenant '%s'", entityType, tenantSlug), err, false, true)
	}
	return record.ID, nil
}

// MemoryEntityPersister implements ports.EntityPersister with an in-process
// map. It backs runs without a configured target database.
type MemoryEntityPersister struct {
	tenants ports.TenantResolver
	mu      sync.Mutex
	records map[string]*ImportedEntityRecord
}

var _ ports.EntityPersister = (*MemoryEntityPersister)(nil)

// NewMemoryEntityPersister creates an empty in-memory persister.
func NewMemoryEntityPersister(tenants ports.TenantResolver) *MemoryEntityPersister {
	return &MemoryEntityPersister{
		tenants: tenants,
		records: make(map[string]*ImportedEntityRecord),
	}
}

// CreateEntity stores one mapped record in memory and returns its new ID.
func (p *MemoryEntityPersister) CreateEntity(ctx context.Context, tenantSlug string, entityType model.EntityType, targetData map[string]interface{}) (string, error) {
	schema, err := p.tenants.SchemaFor(ctx, tenantSlug)
	if err != nil {
		return "", err
	}

	record := &ImportedEntityRecord{
		ID:         model.NewID(),
		TenantSlug: tenantSlug,
		Schema:     schema,
		EntityType: string(entityType),
		Data:       model.JSONMap(targetData),
		CreatedAt:  time.Now(),
	}
	p.mu.Lock()
	p.records[record.ID] = record
	p.mu.Unlock()
	return record.ID, nil
}

// Count returns the number of stored records.
func (p *MemoryEntityPersister) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}
