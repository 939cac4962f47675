package inmemory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/core/domain/repository"
	"github.com/firelater/migrator/pkg/migrate/infrastructure/repository/inmemory"
)

func newJob(tenantSlug string) *model.MigrationJob {
	return model.NewMigrationJob(tenantSlug, model.SourceServiceNow, model.EntityIncident, "uploads/x")
}

func TestInMemoryRepository_JobRoundtrip(t *testing.T) {
	repo := inmemory.NewInMemoryRepository()
	ctx := context.Background()

	job := newJob("acme")
	require.NoError(t, repo.SaveJob(ctx, job))

	found, err := repo.FindJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)
	assert.Equal(t, model.JobStatusPending, found.Status)

	// The stored copy is isolated from later mutations of the original.
	job.Status = model.JobStatusRunning
	found, err = repo.FindJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, found.Status)

	// And the returned copy is isolated from the store.
	found.Status = model.JobStatusFailed
	again, err := repo.FindJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, again.Status)
}

func TestInMemoryRepository_UpdateJob(t *testing.T) {
	repo := inmemory.NewInMemoryRepository()
	ctx := context.Background()

	job := newJob("acme")
	require.NoError(t, repo.SaveJob(ctx, job))

	job.Status = model.JobStatusRunning
	job.ProcessedRecords = 42
	require.NoError(t, repo.UpdateJob(ctx, job))

	found, err := repo.FindJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, found.Status)
	assert.Equal(t, 42, found.ProcessedRecords)

	err = repo.UpdateJob(ctx, newJob("acme"))
	assert.ErrorIs(t, err, repository.ErrJobNotFound)
}

func TestInMemoryRepository_FindJobsByTenant(t *testing.T) {
	repo := inmemory.NewInMemoryRepository()
	ctx := context.Background()

	var jobs []*model.MigrationJob
	base := time.Now()
	for i := 0; i < 3; i++ {
		job := newJob("acme")
		job.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.SaveJob(ctx, job))
		jobs = append(jobs, job)
	}
	require.NoError(t, repo.SaveJob(ctx, newJob("globex")))

	found, err := repo.FindJobsByTenant(ctx, "acme", 10)
	require.NoError(t, err)
	require.Len(t, found, 3)
	// Newest first.
	assert.Equal(t, jobs[2].ID, found[0].ID)
	assert.Equal(t, jobs[0].ID, found[2].ID)

	limited, err := repo.FindJobsByTenant(ctx, "acme", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, jobs[2].ID, limited[0].ID)

	empty, err := repo.FindJobsByTenant(ctx, "unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInMemoryRepository_NotFoundSentinels(t *testing.T) {
	repo := inmemory.NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.FindJobByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrJobNotFound)

	_, err = repo.FindTemplateByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrTemplateNotFound)

	_, err = repo.FindReportByJobID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrReportNotFound)
}

func TestInMemoryRepository_Templates(t *testing.T) {
	repo := inmemory.NewInMemoryRepository()
	ctx := context.Background()

	config := model.FieldMappingConfig{
		FieldMappings: []model.FieldMapping{{SourceField: "summary", TargetField: "title"}},
	}
	template := model.NewMappingTemplate("acme", "default", config, "admin")
	require.NoError(t, repo.SaveTemplate(ctx, template))

	found, err := repo.FindTemplateByID(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, "default", found.Name)

	// Mutating the returned config never leaks back into the store.
	found.Config.FieldMappings[0].TargetField = "mutated"
	again, err := repo.FindTemplateByID(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, "title", again.Config.FieldMappings[0].TargetField)

	list, err := repo.FindTemplatesByTenant(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = repo.FindTemplatesByTenant(ctx, "globex")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInMemoryRepository_Reports(t *testing.T) {
	repo := inmemory.NewInMemoryRepository()
	ctx := context.Background()

	report := &model.MigrationReport{
		JobID:             "job-1",
		Status:            model.JobStatusCompleted,
		TotalRecords:      10,
		SuccessfulRecords: 9,
		FailedRecords:     1,
		Errors: model.RecordErrorList{
			{RowIndex: 4, SourceID: "INC0004", Kind: model.ErrorKindValidation, Message: "priority out of range"},
		},
	}
	require.NoError(t, repo.SaveReport(ctx, report))

	found, err := repo.FindReportByJobID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 9, found.SuccessfulRecords)
	require.Len(t, found.Errors, 1)

	// A re-run overwrites the previous report for the job.
	report.SuccessfulRecords = 10
	report.FailedRecords = 0
	report.Errors = model.RecordErrorList{}
	require.NoError(t, repo.SaveReport(ctx, report))

	found, err = repo.FindReportByJobID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 10, found.SuccessfulRecords)
	assert.Empty(t, found.Errors)
}

func TestInMemoryRepository_Close(t *testing.T) {
	repo := inmemory.NewInMemoryRepository()
	assert.NoError(t, repo.Close())
}

// Guard against accidental interface drift.
var _ repository.Repository = (*inmemory.InMemoryRepository)(nil)
