package repository

import (
	"context"
	"errors"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
)

// ErrReportNotFound is the error returned when a MigrationReport is not found.
var ErrReportNotFound = errors.New("migration report not found")

// ReportStore defines persistence operations for MigrationReports.
type ReportStore interface {
	// SaveReport persists the report produced by a migration execution.
	SaveReport(ctx context.Context, report *model.MigrationReport) error

	// FindReportByJobID finds the report for the given job ID.
	FindReportByJobID(ctx context.Context, jobID string) (*model.MigrationReport, error)
}
