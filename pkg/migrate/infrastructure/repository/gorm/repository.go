// Package gorm provides a GORM-backed implementation of the domain repository.
package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	repo "github.com/firelater/migrator/pkg/migrate/core/domain/repository"
	"github.com/firelater/migrator/pkg/migrate/support/util/exception"
)

const moduleName = "GormRepository"

// GormRepository implements repository.Repository on top of a GORM connection.
type GormRepository struct {
	db *gorm.DB
}

// Verify that GormRepository implements the repository.Repository interface.
var _ repo.Repository = (*GormRepository)(nil)

// NewGormRepository creates a new GormRepository over the given connection.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// SaveJob persists a new MigrationJob.
func (r *GormRepository) SaveJob(ctx context.Context, job *model.MigrationJob) error {
	entity := fromDomainJob(job)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return exception.NewMigrationError(moduleName,
			fmt.Sprintf("failed to save MigrationJob (ID: %s)", job.ID), err, false, true)
	}
	return nil
}

// UpdateJob updates the state of an existing MigrationJob.
func (r *GormRepository) UpdateJob(ctx context.Context, job *model.MigrationJob) error {
	entity := fromDomainJob(job)
	result := r.db.WithContext(ctx).
		Model(&MigrationJobEntity{}).
		Where("id = ?", entity.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(entity)
	if result.Error != nil {
		return exception.NewMigrationError(moduleName,
			fmt.Sprintf("failed to update MigrationJob (ID: %s)", job.ID), result.Error, false, true)
	}
	if result.RowsAffected == 0 {
		return repo.ErrJobNotFound
	}
	return nil
}

// FindJobByID finds a MigrationJob by its ID.
func (r *GormRepository) FindJobByID(ctx context.Context, jobID string) (*model.MigrationJob, error) {
	var entity MigrationJobEntity
	err := r.db.WithContext(ctx).Where("id = ?", jobID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrJobNotFound
		}
		return nil, exception.NewMigrationError(moduleName,
			fmt.Sprintf("failed to find MigrationJob (ID: %s)", jobID), err, false, true)
	}
	return toDomainJob(&entity), nil
}

// FindJobsByTenant finds the most recent MigrationJobs for a tenant, newest first.
func (r *GormRepository) FindJobsByTenant(ctx context.Context, tenantSlug string, limit int) ([]*model.MigrationJob, error) {
	var entities []MigrationJobEntity
	query := r.db.WithContext(ctx).
		Where("tenant_slug = ?", tenantSlug).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entities).Error; err != nil {
		return nil, exception.NewMigrationError(moduleName,
			fmt.Sprintf("failed to list MigrationJobs for tenant '%s'", tenantSlug), err, false, true)
	}
	jobs := make([]*model.MigrationJob, len(entities))
	for i := range entities {
		jobs[i] = toDomainJob(&entities[i])
	}
	return jobs, nil
}

// SaveTemplate persists a MappingTemplate.
func (r *GormRepository) SaveTemplate(ctx context.Context, template *model.MappingTemplate) error {
	entity := fromDomainTemplate(template)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return exception.NewMigrationError(moduleName,
			fmt.Sprintf("failed to save MappingTemplate (ID: %s)", template.ID), err, false, true)
	}
	return nil
}

// FindTemplateByID finds a MappingTemplate by its ID.
func (r *GormRepository) FindTemplateByID(ctx context.Context, templateID string) (*model.MappingTemplate, error) {
	var entity MappingTemplateEntity
	err := r.db.WithContext(ctx).Where("id = ?", templateID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrTemplateNotFound
		}
		return nil, exception.NewMigrationError(moduleName,
			fmt.Sprintf("failed to find MappingTemplate (ID: %s)", templateID), err, false, true)
	}
	return toDomainTemplate(&entity), nil
}

// FindTemplatesByTenant finds all MappingTemplates saved by a tenant.
func (r *GormRepository) FindTemplatesByTenant(ctx context.Context, tenantSlug string) ([]*model.MappingTemplate, error) {
	var entities []MappingTemplateEntity
	err := r.db.WithContext(ctx).
		Where("tenant_slug = ?", tenantSlug).
		Order("created_at DESC").
		Find(&entities).Error
	if err != nil {
		return nil, exception.NewMigrationError(moduleName,
			fmt.Sprintf("failed to list MappingTemplates for tenant '%s'", tenantSlug), err, false, true)
	}
	templates := make([]*model.MappingTemplate, len(entities))
	for i := range entities {
		templates[i] = toDomainTemplate(&entities[i])
	}
	return templates, nil
}

// SaveReport persists the report produced by a migration execution. Reports
// are written once per job; a re-run overwrites the previous report.
func (r *GormRepository) SaveReport(ctx context.Context, report *model.MigrationReport) error {
	entity := fromDomainReport(report)
	err := r.db.WithContext(ctx).Save(entity).Error
	if err != nil {
		return exception.NewMigrationError(moduleName,
			fmt.Sprintf("failed to save MigrationReport (JobID: %s)", report.JobID), err, false, true)
	}
	return nil
}

// FindReportByJobID finds the report for the given job ID.
func (r *GormRepository) FindReportByJobID(ctx context.Context, jobID string) (*model.MigrationReport, error) {
	var entity MigrationReportEntity
	err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrReportNotFound
		}
		return nil, exception.NewMigrationError(moduleName,
			fmt.Sprintf("failed to find MigrationReport (JobID: %s)", jobID), err, false, true)
	}
	return toDomainReport(&entity), nil
}

// Close releases the underlying database connection.
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to resolve sql.DB: %w", err)
	}
	return sqlDB.Close()
}
