package main

import (
	"context"
	"embed"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	// Register GORM dialectors for the supported backends.
	_ "github.com/firelater/migrator/pkg/migrate/adapter/database/gorm/mysql"
	_ "github.com/firelater/migrator/pkg/migrate/adapter/database/gorm/postgres"
	_ "github.com/firelater/migrator/pkg/migrate/adapter/database/gorm/sqlite"

	"github.com/firelater/migrator/internal/app"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

// embeddedConfig embeds the content of the application's YAML configuration file.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// migrationsFS is an embedded file system containing database migration files.
//
//go:embed all:resources/migrations
var migrationsFS embed.FS

// main parses the command line, sets up signal handling and hands control to
// the fx application.
func main() {
	req := app.RunRequest{}
	flag.StringVar(&req.FilePath, "file", "", "path to the source export file (required)")
	flag.StringVar(&req.TenantSlug, "tenant", "", "tenant slug receiving the migrated records (required)")
	flag.StringVar(&req.SourceSystem, "source", "", "source system: servicenow, bmc_remedy, jira or generic_csv (required)")
	flag.StringVar(&req.EntityType, "entity", "", "entity type: incident, request, change, problem, user, group or application (required)")
	flag.StringVar(&req.Format, "format", "", "container format override: json, xml or delimited")
	flag.StringVar(&req.TemplateID, "template", "", "ID of a saved mapping template")
	flag.BoolVar(&req.ValidateOnly, "validate", false, "run the structural pre-check on the file and exit")
	flag.BoolVar(&req.DryRun, "dry-run", false, "preview the migration without persisting entities")
	flag.BoolVar(&req.ContinueOnError, "continue-on-error", true, "keep processing past failed records")
	flag.IntVar(&req.BatchSize, "batch-size", 0, "records per batch (0 uses the configured default)")
	flag.IntVar(&req.SampleSize, "sample-size", 0, "dry-run preview sample size (0 uses the configured default)")
	flag.Parse()

	if req.FilePath == "" || req.TenantSlug == "" || req.SourceSystem == "" {
		flag.Usage()
		os.Exit(2)
	}
	if req.EntityType == "" && !req.ValidateOnly {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the migration...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	app.RunApplication(ctx, envFilePath, embeddedConfig, migrationsFS, req)
}
