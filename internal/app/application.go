// Package app wires the migration service together and drives one-shot runs
// from the command line.
package app

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/fx"

	gormadapter "github.com/firelater/migrator/pkg/migrate/adapter/database/gorm"
	storagefactory "github.com/firelater/migrator/pkg/migrate/adapter/storage/factory"
	config "github.com/firelater/migrator/pkg/migrate/core/config"
	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/engine"
	"github.com/firelater/migrator/pkg/migrate/export"
	infraMetrics "github.com/firelater/migrator/pkg/migrate/infrastructure/metrics"
	"github.com/firelater/migrator/pkg/migrate/infrastructure/migration"
	"github.com/firelater/migrator/pkg/migrate/infrastructure/persistence"
	repofactory "github.com/firelater/migrator/pkg/migrate/infrastructure/repository/factory"
	"github.com/firelater/migrator/pkg/migrate/infrastructure/tracing"
	"github.com/firelater/migrator/pkg/migrate/mapper"
	"github.com/firelater/migrator/pkg/migrate/parser"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
	"github.com/firelater/migrator/pkg/migrate/validator"
)

// migrationsPath is the directory inside the embedded FS holding SQL migrations.
const migrationsPath = "resources/migrations"

// RunRequest carries the parameters of a one-shot command-line run.
type RunRequest struct {
	// FilePath points at the source export to migrate.
	FilePath string
	// TenantSlug selects the receiving tenant.
	TenantSlug string
	// SourceSystem names the exporting system (servicenow, bmc_remedy, jira, generic_csv).
	SourceSystem string
	// EntityType names the migrated entity type (incident, user, ...).
	EntityType string
	// Format optionally overrides container format detection (json, xml, delimited).
	Format string
	// TemplateID optionally selects a saved mapping template.
	TemplateID string
	// ValidateOnly runs the structural pre-check and prints the outcome
	// without creating a job.
	ValidateOnly bool
	// DryRun previews the migration without persisting entities.
	DryRun bool
	// ContinueOnError keeps processing past failed records.
	ContinueOnError bool
	// BatchSize overrides the configured batch size when positive.
	BatchSize int
	// SampleSize overrides the preview sample size when positive.
	SampleSize int
}

// RunApplication sets up and runs the migration application using uber-fx.
func RunApplication(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig, migrationsFS embed.FS, req RunRequest) {
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger.SetLogLevel(cfg.Migrator.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Migrator.System.Logging.Level)

	app := fx.New(
		fx.Supply(
			cfg,
			req,
			fx.Annotate(
				appCtx,
				fx.As(new(context.Context)),
				fx.ResultTags(`name:"appCtx"`),
			),
		),

		logger.Module,
		config.Module,
		gormadapter.Module,
		storagefactory.Module,
		repofactory.Module,
		persistence.Module,
		infraMetrics.Module,
		tracing.Module,
		parser.Module,
		validator.Module,
		mapper.Module,
		export.Module,
		engine.Module,

		fx.Invoke(func(lc fx.Lifecycle, pool *gormadapter.ConnectionPool, cfg *config.Config) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return applySchemaMigrations(ctx, cfg, pool, migrationsFS)
				},
			})
		}),

		fx.Invoke(fx.Annotate(startRun, fx.ParamTags(
			"",              // lc fx.Lifecycle
			"",              // shutdowner fx.Shutdowner
			"",              // orchestrator *engine.Orchestrator
			"",              // cfg *config.Config
			"",              // req RunRequest
			`name:"appCtx"`, // appCtx context.Context
		))),
	)

	app.Run()

	if app.Err() != nil {
		logger.Fatalf("Application run failed: %v", app.Err())
	}
}

// applySchemaMigrations applies the embedded SQL migrations to the repository
// database. Nothing happens for the in-memory backend.
func applySchemaMigrations(ctx context.Context, cfg *config.Config, pool *gormadapter.ConnectionPool, migrationsFS embed.FS) error {
	if cfg.Migrator.Infrastructure.RepositoryKind != "gorm" {
		logger.Debugf("Repository backend needs no schema migrations.")
		return nil
	}
	ref := cfg.Migrator.Infrastructure.RepositoryDBRef
	db, err := pool.Get(ref)
	if err != nil {
		return fmt.Errorf("failed to open repository database '%s': %w", ref, err)
	}
	dbConfig, err := pool.Config(ref)
	if err != nil {
		return err
	}
	return migration.NewMigrator(db, dbConfig.Type).Up(ctx, migrationsFS, migrationsPath)
}

// startRun launches the one-shot migration and requests shutdown when it finishes.
func startRun(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	orchestrator *engine.Orchestrator,
	cfg *config.Config,
	req RunRequest,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in migration run: %v", r)
					}
					if err := shutdowner.Shutdown(); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()
				if err := executeRun(appCtx, orchestrator, cfg, req); err != nil {
					logger.Errorf("Migration run failed: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}

// executeRun performs a complete create-and-execute cycle (or a dry-run
// preview) and prints the outcome as JSON on stdout.
func executeRun(ctx context.Context, orchestrator *engine.Orchestrator, cfg *config.Config, req RunRequest) error {
	data, err := os.ReadFile(req.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read source file '%s': %w", req.FilePath, err)
	}

	if req.ValidateOnly {
		validation, err := orchestrator.ValidateUpload(model.SourceSystem(req.SourceSystem), data)
		if err != nil {
			return err
		}
		return printJSON(validation)
	}

	sampleSize := req.SampleSize
	if sampleSize <= 0 {
		sampleSize = cfg.Migrator.Batch.SampleSize
	}

	result, err := orchestrator.CreateMigrationJob(ctx, engine.CreateMigrationRequest{
		TenantSlug:        req.TenantSlug,
		SourceSystem:      model.SourceSystem(req.SourceSystem),
		EntityType:        model.EntityType(req.EntityType),
		Data:              data,
		Format:            req.Format,
		MappingTemplateID: req.TemplateID,
		DryRun:            req.DryRun,
		SampleSize:        sampleSize,
	})
	if err != nil {
		return err
	}

	if req.DryRun {
		logger.Infof("Dry-run preview for job %s complete.", result.Job.ID)
		return printJSON(result.Preview)
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = cfg.Migrator.Batch.BatchSize
	}
	continueOnError := req.ContinueOnError

	report, err := orchestrator.ExecuteMigration(ctx, engine.ExecuteMigrationRequest{
		JobID:             result.Job.ID,
		MappingTemplateID: req.TemplateID,
		ContinueOnError:   &continueOnError,
		BatchSize:         batchSize,
		Format:            req.Format,
	})
	if err != nil {
		return err
	}
	logger.Infof("Migration job %s finished with status '%s'.", report.JobID, report.Status)
	return printJSON(report)
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
