// Package engine owns the migration job lifecycle. It drives the
// parse → map → validate → persist pipeline in batches, aggregates a report,
// and supports a dry-run preview that commits no target entities.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	storageAdapter "github.com/firelater/migrator/pkg/migrate/adapter/storage"
	metrics "github.com/firelater/migrator/pkg/migrate/core/metrics"
	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	repository "github.com/firelater/migrator/pkg/migrate/core/domain/repository"
	"github.com/firelater/migrator/pkg/migrate/core/ports"
	"github.com/firelater/migrator/pkg/migrate/mapper"
	"github.com/firelater/migrator/pkg/migrate/parser"
	"github.com/firelater/migrator/pkg/migrate/support/util/exception"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
	"github.com/firelater/migrator/pkg/migrate/validator"
)

const engineModule = "engine"

const (
	// DefaultBatchSize bounds memory and transaction size when the caller
	// supplies no batch size.
	DefaultBatchSize = 100
	// DefaultSampleSize is the number of mapped records included in a dry-run preview.
	DefaultSampleSize = 5
	// DefaultListLimit bounds ListJobs when the caller supplies no limit.
	DefaultListLimit = 50
)

// instrumentationName identifies engine spans in traces.
const instrumentationName = "github.com/firelater/migrator/pkg/migrate/engine"

// ReportExporter writes a row-level artifact for the failed records of a run.
// The Parquet implementation lives in the export package.
type ReportExporter interface {
	ExportFailures(ctx context.Context, job *model.MigrationJob, report *model.MigrationReport) (string, error)
}

// CreateMigrationRequest carries the parameters of an upload call.
type CreateMigrationRequest struct {
	TenantSlug        string
	SourceSystem      model.SourceSystem
	EntityType        model.EntityType
	Data              []byte
	Format            string // optional container format override
	MappingTemplateID string
	DryRun            bool
	SampleSize        int
}

// CreateMigrationResult is the outcome of an upload call. Preview is set only
// for dry-run requests.
type CreateMigrationResult struct {
	Job     *model.MigrationJob
	Preview *model.MigrationPreview
}

// ExecuteMigrationRequest carries the parameters of an execute call.
type ExecuteMigrationRequest struct {
	JobID             string
	MappingConfig     *model.FieldMappingConfig // wins over MappingTemplateID and defaults
	MappingTemplateID string
	ContinueOnError   *bool // nil means true
	BatchSize         int
	Format            string
}

// Orchestrator owns MigrationJob state transitions exclusively and coordinates
// parsers, the mapper, the validator and the external persistence collaborator.
type Orchestrator struct {
	repo      repository.Repository
	parsers   *parser.Registry
	mapper    *mapper.Mapper
	validator *validator.Validator
	persister ports.EntityPersister
	tenants   ports.TenantResolver
	blobs     storageAdapter.BlobStore
	recorder  metrics.Recorder
	exporter  ReportExporter
	tracer    trace.Tracer
}

// Params defines the dependencies of NewOrchestrator.
type Params struct {
	fx.In
	Repository repository.Repository
	Parsers    *parser.Registry
	Mapper     *mapper.Mapper
	Validator  *validator.Validator
	Persister  ports.EntityPersister
	Tenants    ports.TenantResolver
	Blobs      storageAdapter.BlobStore
	Recorder   metrics.Recorder `optional:"true"`
	Exporter   ReportExporter   `optional:"true"`
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(p Params) *Orchestrator {
	recorder := p.Recorder
	if recorder == nil {
		recorder = metrics.NewNoopRecorder()
	}
	return &Orchestrator{
		repo:      p.Repository,
		parsers:   p.Parsers,
		mapper:    p.Mapper,
		validator: p.Validator,
		persister: p.Persister,
		tenants:   p.Tenants,
		blobs:     p.Blobs,
		recorder:  recorder,
		exporter:  p.Exporter,
		tracer:    otel.Tracer(instrumentationName),
	}
}

// CreateMigrationJob parses the uploaded export and creates a job. A dry-run
// request additionally computes a preview and leaves the job in the ready
// state without writing any target entities. A structurally unreadable upload
// fails creation outright; no job is left dangling.
func (o *Orchestrator) CreateMigrationJob(ctx context.Context, req CreateMigrationRequest) (*CreateMigrationResult, error) {
	ctx, span := o.tracer.Start(ctx, "CreateMigrationJob",
		trace.WithAttributes(
			attribute.String("tenant", req.TenantSlug),
			attribute.String("source_system", req.SourceSystem.String()),
			attribute.String("entity_type", req.EntityType.String()),
			attribute.Bool("dry_run", req.DryRun),
		))
	defer span.End()

	if !req.SourceSystem.IsValid() {
		return nil, exception.NewMigrationErrorf(engineModule, "unsupported source system: %s", req.SourceSystem)
	}
	if !req.EntityType.IsValid() {
		return nil, exception.NewMigrationErrorf(engineModule, "unsupported entity type: %s", req.EntityType)
	}
	if _, err := o.tenants.SchemaFor(ctx, req.TenantSlug); err != nil {
		return nil, exception.NewMigrationError(engineModule, fmt.Sprintf("failed to resolve tenant '%s'", req.TenantSlug), err, false, false)
	}

	p, err := o.parsers.ForSourceSystem(req.SourceSystem)
	if err != nil {
		return nil, exception.NewMigrationError(engineModule, "failed to select parser", err, false, false)
	}

	parsed, err := p.Parse(req.Data, req.EntityType, &parser.Options{Format: req.Format})
	if err != nil {
		// Fatal: the container is unreadable.
		return nil, err
	}

	job := model.NewMigrationJob(req.TenantSlug, req.SourceSystem, req.EntityType, "")
	job.SourceKey = fmt.Sprintf("uploads/%s/%s", req.TenantSlug, job.ID)
	job.TotalRecords = len(parsed.Records)
	job.SkippedRows = parsed.SkippedRows

	if err := o.blobs.Store(ctx, job.SourceKey, req.Data); err != nil {
		return nil, exception.NewMigrationError(engineModule, "failed to store uploaded export", err, false, false)
	}

	result := &CreateMigrationResult{Job: job}

	if req.DryRun {
		if err := job.TransitionTo(model.JobStatusPreviewing); err != nil {
			return nil, exception.NewMigrationError(engineModule, "failed to start preview", err, false, false)
		}
		config, err := o.resolveConfig(ctx, req.TenantSlug, req.SourceSystem, req.EntityType, nil, req.MappingTemplateID)
		if err != nil {
			return nil, err
		}
		sampleSize := req.SampleSize
		if sampleSize <= 0 {
			sampleSize = DefaultSampleSize
		}
		result.Preview = o.buildPreview(parsed, config, req.EntityType, sampleSize)
		if err := job.TransitionTo(model.JobStatusReady); err != nil {
			return nil, exception.NewMigrationError(engineModule, "failed to finish preview", err, false, false)
		}
	}

	if err := o.repo.SaveJob(ctx, job); err != nil {
		return nil, exception.NewMigrationError(engineModule, "failed to save migration job", err, false, false)
	}

	o.recorder.RecordJobStatus(job.TenantSlug, job.SourceSystem, job.EntityType, job.Status)
	o.recorder.RecordSkippedRows(job.TenantSlug, job.SourceSystem, parsed.SkippedRows)
	logger.Infof("Created migration job %s (tenant=%s source=%s entity=%s records=%d skipped=%d dryRun=%t)",
		job.ID, job.TenantSlug, job.SourceSystem, job.EntityType, job.TotalRecords, job.SkippedRows, req.DryRun)

	return result, nil
}

// ValidateUpload runs the source system's cheap structural check on an
// uploaded export without creating a job. Callers use it to reject unreadable
// files before committing to a full parse.
func (o *Orchestrator) ValidateUpload(sourceSystem model.SourceSystem, data []byte) (*model.FileValidation, error) {
	if !sourceSystem.IsValid() {
		return nil, exception.NewMigrationErrorf(engineModule, "unsupported source system: %s", sourceSystem)
	}
	p, err := o.parsers.ForSourceSystem(sourceSystem)
	if err != nil {
		return nil, exception.NewMigrationError(engineModule, "failed to select parser", err, false, false)
	}
	return p.Validate(data), nil
}

// ExecuteMigration runs a previously created job to completion. Per-record
// failures are captured as RecordErrors and never raised; the call returns a
// report even when the job ends in the failed state. Execute is only callable
// from the pending or ready states, so concurrent executions of the same job
// are rejected rather than silently raced.
func (o *Orchestrator) ExecuteMigration(ctx context.Context, req ExecuteMigrationRequest) (*model.MigrationReport, error) {
	ctx, span := o.tracer.Start(ctx, "ExecuteMigration",
		trace.WithAttributes(attribute.String("job_id", req.JobID)))
	defer span.End()

	job, err := o.repo.FindJobByID(ctx, req.JobID)
	if err != nil {
		return nil, exception.NewMigrationError(engineModule, fmt.Sprintf("failed to load job '%s'", req.JobID), err, false, false)
	}

	config, err := o.resolveConfig(ctx, job.TenantSlug, job.SourceSystem, job.EntityType, req.MappingConfig, req.MappingTemplateID)
	if err != nil {
		return nil, err
	}

	if err := job.TransitionTo(model.JobStatusRunning); err != nil {
		return nil, exception.NewMigrationError(engineModule,
			fmt.Sprintf("job '%s' is not executable in state '%s'", job.ID, job.Status), err, false, false)
	}
	if err := o.repo.UpdateJob(ctx, job); err != nil {
		return nil, exception.NewMigrationError(engineModule, "failed to update job state", err, false, false)
	}
	o.recorder.RecordJobStatus(job.TenantSlug, job.SourceSystem, job.EntityType, job.Status)

	parsed, err := o.reparse(ctx, job, req.Format)
	if err != nil {
		job.MarkAsFailed()
		if uerr := o.repo.UpdateJob(ctx, job); uerr != nil {
			logger.Errorf("Failed to persist failed job %s: %v", job.ID, uerr)
		}
		return nil, err
	}
	job.TotalRecords = len(parsed.Records)
	job.SkippedRows = parsed.SkippedRows

	continueOnError := true
	if req.ContinueOnError != nil {
		continueOnError = *req.ContinueOnError
	}
	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	report := &model.MigrationReport{
		JobID:        job.ID,
		TotalRecords: len(parsed.Records),
		Errors:       make(model.RecordErrorList, 0),
	}

	stopped := o.runBatches(ctx, job, parsed.Records, config, batchSize, continueOnError, report)

	if stopped {
		job.MarkAsFailed()
	} else {
		// Completed means "finished running"; failed records stay visible in the report.
		job.MarkAsCompleted()
	}
	job.SuccessfulRecords = report.SuccessfulRecords
	job.FailedRecords = report.FailedRecords

	report.Status = job.Status
	report.Summary = fmt.Sprintf("processed %d of %d records: %d succeeded, %d failed (%d rows skipped during parsing)",
		job.ProcessedRecords, report.TotalRecords, report.SuccessfulRecords, report.FailedRecords, job.SkippedRows)

	if err := o.repo.UpdateJob(ctx, job); err != nil {
		logger.Errorf("Failed to persist job %s after execution: %v", job.ID, err)
	}
	if err := o.repo.SaveReport(ctx, report); err != nil {
		logger.Errorf("Failed to persist report for job %s: %v", job.ID, err)
	}
	o.recorder.RecordJobStatus(job.TenantSlug, job.SourceSystem, job.EntityType, job.Status)

	if o.exporter != nil && report.FailedRecords > 0 {
		if key, err := o.exporter.ExportFailures(ctx, job, report); err != nil {
			logger.Warnf("Failed to export failure artifact for job %s: %v", job.ID, err)
		} else {
			logger.Infof("Exported failure artifact for job %s to '%s'", job.ID, key)
		}
	}

	logger.Infof("Migration job %s finished: %s", job.ID, report.Summary)
	return report, nil
}

// runBatches drives the batch loop. It returns true when processing stopped
// early because continueOnError was false and a record failed.
func (o *Orchestrator) runBatches(
	ctx context.Context,
	job *model.MigrationJob,
	records []*model.ParsedRecord,
	config model.FieldMappingConfig,
	batchSize int,
	continueOnError bool,
	report *model.MigrationReport,
) bool {
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batchStart := time.Now()
		batchSuccess, batchFailed := 0, 0

		for i := start; i < end; i++ {
			record := records[i]
			job.ProcessedRecords++

			if ok := o.processRecord(ctx, job, record, config, i, report); ok {
				report.SuccessfulRecords++
				batchSuccess++
				continue
			}
			report.FailedRecords++
			batchFailed++
			if !continueOnError {
				o.finishBatch(ctx, job, batchSuccess, batchFailed, batchStart)
				return true
			}
		}
		o.finishBatch(ctx, job, batchSuccess, batchFailed, batchStart)
	}
	return false
}

// finishBatch persists batch progress and records batch metrics.
func (o *Orchestrator) finishBatch(ctx context.Context, job *model.MigrationJob, successful, failed int, start time.Time) {
	if err := o.repo.UpdateJob(ctx, job); err != nil {
		logger.Warnf("Failed to persist progress of job %s: %v", job.ID, err)
	}
	o.recorder.RecordRecords(job.TenantSlug, job.EntityType, successful, failed)
	o.recorder.ObserveBatchDuration(job.TenantSlug, job.EntityType, time.Since(start))
}

// processRecord maps, validates and persists one record. Failures are
// appended to the report as RecordErrors; the record counts as failed when
// any error was appended.
func (o *Orchestrator) processRecord(
	ctx context.Context,
	job *model.MigrationJob,
	record *model.ParsedRecord,
	config model.FieldMappingConfig,
	rowIndex int,
	report *model.MigrationReport,
) bool {
	mapped := o.mapper.MapRecord(record, config, rowIndex)
	if mapped.HasErrors() {
		for _, me := range mapped.Errors {
			report.Errors = append(report.Errors, model.RecordError{
				RowIndex: rowIndex,
				SourceID: record.SourceID,
				Kind:     me.Kind,
				Message:  me.Message,
			})
		}
		return false
	}

	if result := o.validator.Validate(mapped.TargetData, job.EntityType); !result.Valid {
		report.Errors = append(report.Errors, model.RecordError{
			RowIndex: rowIndex,
			SourceID: record.SourceID,
			Kind:     model.ErrorKindValidation,
			Message:  strings.Join(result.Errors, "; "),
		})
		return false
	}

	if _, err := o.persister.CreateEntity(ctx, job.TenantSlug, job.EntityType, mapped.TargetData); err != nil {
		report.Errors = append(report.Errors, model.RecordError{
			RowIndex: rowIndex,
			SourceID: record.SourceID,
			Kind:     model.ErrorKindPersistence,
			Message:  err.Error(),
		})
		return false
	}
	return true
}

// reparse re-reads the stored upload and parses it again for execution.
func (o *Orchestrator) reparse(ctx context.Context, job *model.MigrationJob, format string) (*model.ParseResult, error) {
	data, err := o.blobs.Read(ctx, job.SourceKey)
	if err != nil {
		return nil, exception.NewMigrationError(engineModule,
			fmt.Sprintf("failed to read stored export '%s'", job.SourceKey), err, false, false)
	}
	p, err := o.parsers.ForSourceSystem(job.SourceSystem)
	if err != nil {
		return nil, exception.NewMigrationError(engineModule, "failed to select parser", err, false, false)
	}
	return p.Parse(data, job.EntityType, &parser.Options{Format: format})
}

// resolveConfig picks the effective FieldMappingConfig for a run: an explicit
// config wins over a template reference, which wins over the built-in default.
// Template configs are copied by value so concurrent template edits never
// affect an in-flight execution.
func (o *Orchestrator) resolveConfig(
	ctx context.Context,
	tenantSlug string,
	sourceSystem model.SourceSystem,
	entityType model.EntityType,
	explicit *model.FieldMappingConfig,
	templateID string,
) (model.FieldMappingConfig, error) {
	if explicit != nil {
		return explicit.Clone(), nil
	}
	if templateID != "" {
		template, err := o.repo.FindTemplateByID(ctx, templateID)
		if err != nil {
			return model.FieldMappingConfig{}, exception.NewMigrationError(engineModule,
				fmt.Sprintf("failed to load mapping template '%s'", templateID), err, false, false)
		}
		if template.TenantSlug != tenantSlug {
			return model.FieldMappingConfig{}, exception.NewMigrationErrorf(engineModule,
				"mapping template '%s' does not belong to tenant '%s'", templateID, tenantSlug)
		}
		return template.Config.Clone(), nil
	}
	return o.mapper.DefaultConfig(sourceSystem, entityType), nil
}

// GetJobByID returns the current state of a job.
func (o *Orchestrator) GetJobByID(ctx context.Context, jobID string) (*model.MigrationJob, error) {
	return o.repo.FindJobByID(ctx, jobID)
}

// ListJobs returns the most recent jobs for a tenant, newest first.
func (o *Orchestrator) ListJobs(ctx context.Context, tenantSlug string, limit int) ([]*model.MigrationJob, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return o.repo.FindJobsByTenant(ctx, tenantSlug, limit)
}

// GetReportByJobID returns the persisted report of a finished job.
func (o *Orchestrator) GetReportByJobID(ctx context.Context, jobID string) (*model.MigrationReport, error) {
	return o.repo.FindReportByJobID(ctx, jobID)
}

// SaveMappingTemplate persists a named FieldMappingConfig scoped to the
// tenant. Only structural shape is checked here; mapping correctness surfaces
// when the template is later used.
func (o *Orchestrator) SaveMappingTemplate(ctx context.Context, tenantSlug, name string, config model.FieldMappingConfig, actorID string) (string, error) {
	if tenantSlug == "" {
		return "", exception.NewMigrationErrorf(engineModule, "template tenant must not be empty")
	}
	if name == "" {
		return "", exception.NewMigrationErrorf(engineModule, "template name must not be empty")
	}
	for i, fm := range config.FieldMappings {
		if fm.SourceField == "" || fm.TargetField == "" {
			return "", exception.NewMigrationErrorf(engineModule,
				"field mapping %d must declare both a source and a target field", i)
		}
	}

	template := model.NewMappingTemplate(tenantSlug, name, config, actorID)
	if err := o.repo.SaveTemplate(ctx, template); err != nil {
		return "", exception.NewMigrationError(engineModule, "failed to save mapping template", err, false, false)
	}
	logger.Infof("Saved mapping template '%s' (%s) for tenant %s", name, template.ID, tenantSlug)
	return template.ID, nil
}

// ListMappingTemplates returns all templates saved by a tenant.
func (o *Orchestrator) ListMappingTemplates(ctx context.Context, tenantSlug string) ([]*model.MappingTemplate, error) {
	return o.repo.FindTemplatesByTenant(ctx, tenantSlug)
}
