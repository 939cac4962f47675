package repository

import (
	"context"
	"errors"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
)

// ErrTemplateNotFound is the error returned when a MappingTemplate is not found.
var ErrTemplateNotFound = errors.New("mapping template not found")

// TemplateStore defines persistence operations for tenant-scoped MappingTemplates.
type TemplateStore interface {
	// SaveTemplate persists a new MappingTemplate.
	SaveTemplate(ctx context.Context, template *model.MappingTemplate) error

	// FindTemplateByID finds a MappingTemplate by its ID.
	FindTemplateByID(ctx context.Context, templateID string) (*model.MappingTemplate, error)

	// FindTemplatesByTenant finds all MappingTemplates saved by a tenant.
	FindTemplatesByTenant(ctx context.Context, tenantSlug string) ([]*model.MappingTemplate, error)
}
