package repository

import (
	"context"
	"errors"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
)

// ErrJobNotFound is the error returned when a MigrationJob is not found.
var ErrJobNotFound = errors.New("migration job not found")

// JobStore defines persistence operations for MigrationJobs.
type JobStore interface {
	// SaveJob persists a new MigrationJob.
	SaveJob(ctx context.Context, job *model.MigrationJob) error

	// UpdateJob updates the state of an existing MigrationJob.
	UpdateJob(ctx context.Context, job *model.MigrationJob) error

	// FindJobByID finds a MigrationJob by its ID.
	FindJobByID(ctx context.Context, jobID string) (*model.MigrationJob, error)

	// FindJobsByTenant finds the most recent MigrationJobs for a tenant,
	// newest first, limited to at most limit entries.
	FindJobsByTenant(ctx context.Context, tenantSlug string, limit int) ([]*model.MigrationJob, error)
}
