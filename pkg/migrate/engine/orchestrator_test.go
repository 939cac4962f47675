package engine_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firelater/migrator/pkg/migrate/adapter/storage/memory"
	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/engine"
	"github.com/firelater/migrator/pkg/migrate/infrastructure/repository/inmemory"
	"github.com/firelater/migrator/pkg/migrate/mapper"
	"github.com/firelater/migrator/pkg/migrate/parser"
	"github.com/firelater/migrator/pkg/migrate/validator"
)

// fakePersister records created entities and fails on demand.
type fakePersister struct {
	mu      sync.Mutex
	created []map[string]interface{}
	failOn  func(targetData map[string]interface{}) error
}

func (f *fakePersister) CreateEntity(ctx context.Context, tenantSlug string, entityType model.EntityType, targetData map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil {
		if err := f.failOn(targetData); err != nil {
			return "", err
		}
	}
	f.created = append(f.created, targetData)
	return fmt.Sprintf("entity-%d", len(f.created)), nil
}

func (f *fakePersister) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// fakeTenants resolves a fixed slug-to-schema table.
type fakeTenants struct {
	schemas map[string]string
}

func (f *fakeTenants) SchemaFor(ctx context.Context, tenantSlug string) (string, error) {
	schema, ok := f.schemas[tenantSlug]
	if !ok {
		return "", fmt.Errorf("unknown tenant: %s", tenantSlug)
	}
	return schema, nil
}

type orchestratorFixture struct {
	orchestrator *engine.Orchestrator
	repo         *inmemory.InMemoryRepository
	persister    *fakePersister
}

func newOrchestratorFixture() *orchestratorFixture {
	v := validator.NewValidator()
	repo := inmemory.NewInMemoryRepository()
	persister := &fakePersister{}

	orchestrator := engine.NewOrchestrator(engine.Params{
		Repository: repo,
		Parsers:    parser.NewRegistry(),
		Mapper:     mapper.NewMapper(v),
		Validator:  v,
		Persister:  persister,
		Tenants:    &fakeTenants{schemas: map[string]string{"acme": "tenant_acme"}},
		Blobs:      memory.NewMemoryBlobStore(),
	})
	return &orchestratorFixture{orchestrator: orchestrator, repo: repo, persister: persister}
}

func incidentCSV() []byte {
	return []byte("title,status,priority,description\n" +
		"Printer broken,new,2,Paper jam on floor 3\n" +
		"VPN down,open,1,Remote staff blocked\n" +
		"Email slow,new,3,Mailbox indexing\n")
}

func createJob(t *testing.T, f *orchestratorFixture, dryRun bool) *engine.CreateMigrationResult {
	t.Helper()
	result, err := f.orchestrator.CreateMigrationJob(context.Background(), engine.CreateMigrationRequest{
		TenantSlug:   "acme",
		SourceSystem: model.SourceGenericCSV,
		EntityType:   model.EntityIncident,
		Data:         incidentCSV(),
		DryRun:       dryRun,
	})
	require.NoError(t, err)
	return result
}

func TestOrchestrator_CreateAndExecute(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	created := createJob(t, f, false)
	assert.Equal(t, model.JobStatusPending, created.Job.Status)
	assert.Equal(t, 3, created.Job.TotalRecords)
	assert.Nil(t, created.Preview)

	report, err := f.orchestrator.ExecuteMigration(ctx, engine.ExecuteMigrationRequest{JobID: created.Job.ID})
	require.NoError(t, err)

	assert.Equal(t, model.JobStatusCompleted, report.Status)
	assert.Equal(t, 3, report.TotalRecords)
	assert.Equal(t, 3, report.SuccessfulRecords)
	assert.Equal(t, 0, report.FailedRecords)
	assert.Equal(t, report.TotalRecords, report.SuccessfulRecords+report.FailedRecords)
	assert.Equal(t, 3, f.persister.count())

	job, err := f.orchestrator.GetJobByID(ctx, created.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 3, job.ProcessedRecords)
	require.NotNil(t, job.CompletedAt)

	saved, err := f.orchestrator.GetReportByJobID(ctx, created.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Summary, saved.Summary)
}

func TestOrchestrator_PerRecordFailuresAreCollected(t *testing.T) {
	f := newOrchestratorFixture()
	f.persister.failOn = func(targetData map[string]interface{}) error {
		if targetData["title"] == "VPN down" {
			return fmt.Errorf("duplicate source reference")
		}
		return nil
	}
	ctx := context.Background()

	created := createJob(t, f, false)
	report, err := f.orchestrator.ExecuteMigration(ctx, engine.ExecuteMigrationRequest{JobID: created.Job.ID})
	require.NoError(t, err)

	// The run finishes; the failed record stays visible in the report.
	assert.Equal(t, model.JobStatusCompleted, report.Status)
	assert.Equal(t, 2, report.SuccessfulRecords)
	assert.Equal(t, 1, report.FailedRecords)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, model.ErrorKindPersistence, report.Errors[0].Kind)
	assert.Equal(t, 1, report.Errors[0].RowIndex)
}

func TestOrchestrator_StopsOnFirstFailureWhenContinueOnErrorIsFalse(t *testing.T) {
	f := newOrchestratorFixture()
	f.persister.failOn = func(targetData map[string]interface{}) error {
		if targetData["title"] == "VPN down" {
			return fmt.Errorf("duplicate source reference")
		}
		return nil
	}
	ctx := context.Background()

	created := createJob(t, f, false)
	continueOnError := false
	report, err := f.orchestrator.ExecuteMigration(ctx, engine.ExecuteMigrationRequest{
		JobID:           created.Job.ID,
		ContinueOnError: &continueOnError,
	})
	// A stopped run still returns its partial report without an error.
	require.NoError(t, err)

	assert.Equal(t, model.JobStatusFailed, report.Status)
	assert.Equal(t, 1, report.SuccessfulRecords)
	assert.Equal(t, 1, report.FailedRecords)
	assert.Equal(t, 1, f.persister.count())

	job, err := f.orchestrator.GetJobByID(ctx, created.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Equal(t, 2, job.ProcessedRecords)
}

func TestOrchestrator_DryRunPreview(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	result, err := f.orchestrator.CreateMigrationJob(ctx, engine.CreateMigrationRequest{
		TenantSlug:   "acme",
		SourceSystem: model.SourceGenericCSV,
		EntityType:   model.EntityIncident,
		Data:         incidentCSV(),
		DryRun:       true,
		SampleSize:   2,
	})
	require.NoError(t, err)

	assert.Equal(t, model.JobStatusReady, result.Job.Status)
	require.NotNil(t, result.Preview)
	assert.Len(t, result.Preview.SampleRecords, 2)
	assert.Equal(t, 3, result.Preview.TotalRecords)
	// Nothing is written during a preview.
	assert.Equal(t, 0, f.persister.count())

	// A previewed job executes from the ready state.
	report, err := f.orchestrator.ExecuteMigration(ctx, engine.ExecuteMigrationRequest{JobID: result.Job.ID})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, report.Status)
}

func TestOrchestrator_RejectsExecutionOfFinishedJob(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	created := createJob(t, f, false)
	_, err := f.orchestrator.ExecuteMigration(ctx, engine.ExecuteMigrationRequest{JobID: created.Job.ID})
	require.NoError(t, err)

	_, err = f.orchestrator.ExecuteMigration(ctx, engine.ExecuteMigrationRequest{JobID: created.Job.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not executable")
}

func TestOrchestrator_UnreadableUploadCreatesNoJob(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	_, err := f.orchestrator.CreateMigrationJob(ctx, engine.CreateMigrationRequest{
		TenantSlug:   "acme",
		SourceSystem: model.SourceServiceNow,
		EntityType:   model.EntityIncident,
		Data:         []byte(`{"records": [`),
	})
	require.Error(t, err)

	jobs, err := f.orchestrator.ListJobs(ctx, "acme", 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestOrchestrator_ValidateUpload(t *testing.T) {
	f := newOrchestratorFixture()

	v, err := f.orchestrator.ValidateUpload(model.SourceGenericCSV, incidentCSV())
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, 3, v.RecordCount)

	v, err = f.orchestrator.ValidateUpload(model.SourceServiceNow, []byte(`{"records": [`))
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.NotEmpty(t, v.Errors)

	_, err = f.orchestrator.ValidateUpload(model.SourceSystem("salesforce"), incidentCSV())
	assert.Error(t, err)
}

func TestOrchestrator_RejectsUnknownTenantAndInvalidEnums(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	_, err := f.orchestrator.CreateMigrationJob(ctx, engine.CreateMigrationRequest{
		TenantSlug:   "globex",
		SourceSystem: model.SourceGenericCSV,
		EntityType:   model.EntityIncident,
		Data:         incidentCSV(),
	})
	assert.Error(t, err)

	_, err = f.orchestrator.CreateMigrationJob(ctx, engine.CreateMigrationRequest{
		TenantSlug:   "acme",
		SourceSystem: model.SourceSystem("salesforce"),
		EntityType:   model.EntityIncident,
		Data:         incidentCSV(),
	})
	assert.Error(t, err)

	_, err = f.orchestrator.CreateMigrationJob(ctx, engine.CreateMigrationRequest{
		TenantSlug:   "acme",
		SourceSystem: model.SourceGenericCSV,
		EntityType:   model.EntityType("asset"),
		Data:         incidentCSV(),
	})
	assert.Error(t, err)
}

func TestOrchestrator_MappingTemplates(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	config := model.FieldMappingConfig{
		EntityType:   model.EntityIncident,
		SourceSystem: model.SourceGenericCSV,
		FieldMappings: []model.FieldMapping{
			{SourceField: "title", TargetField: "title", Required: true},
			{SourceField: "status", TargetField: "status", Required: true},
			{SourceField: "priority", TargetField: "priority", Required: true},
		},
	}

	templateID, err := f.orchestrator.SaveMappingTemplate(ctx, "acme", "csv incidents", config, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, templateID)

	templates, err := f.orchestrator.ListMappingTemplates(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "csv incidents", templates[0].Name)

	created := createJob(t, f, false)
	report, err := f.orchestrator.ExecuteMigration(ctx, engine.ExecuteMigrationRequest{
		JobID:             created.Job.ID,
		MappingTemplateID: templateID,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.SuccessfulRecords)
}

func TestOrchestrator_TemplateTenantMismatch(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	// Template owned by another tenant; direct repo write keeps the fixture small.
	foreign := model.NewMappingTemplate("globex", "their template", model.FieldMappingConfig{
		FieldMappings: []model.FieldMapping{{SourceField: "title", TargetField: "title"}},
	}, "admin")
	require.NoError(t, f.repo.SaveTemplate(ctx, foreign))

	created := createJob(t, f, false)
	_, err := f.orchestrator.ExecuteMigration(ctx, engine.ExecuteMigrationRequest{
		JobID:             created.Job.ID,
		MappingTemplateID: foreign.ID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not belong to tenant")

	// The rejected execution never moved the job out of pending.
	job, err := f.orchestrator.GetJobByID(ctx, created.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, job.Status)
}

func TestOrchestrator_SaveMappingTemplateValidation(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	_, err := f.orchestrator.SaveMappingTemplate(ctx, "", "name", model.FieldMappingConfig{}, "admin")
	assert.Error(t, err)

	_, err = f.orchestrator.SaveMappingTemplate(ctx, "acme", "", model.FieldMappingConfig{}, "admin")
	assert.Error(t, err)

	_, err = f.orchestrator.SaveMappingTemplate(ctx, "acme", "broken", model.FieldMappingConfig{
		FieldMappings: []model.FieldMapping{{SourceField: "title"}},
	}, "admin")
	assert.Error(t, err)
}
