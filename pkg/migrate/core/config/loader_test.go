package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firelater/migrator/pkg/migrate/core/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig("", config.EmbeddedConfig(""))
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Migrator.Batch.BatchSize)
	assert.Equal(t, 5, cfg.Migrator.Batch.SampleSize)
	assert.True(t, cfg.Migrator.Batch.ContinueOnError)
	assert.Equal(t, 50, cfg.Migrator.Batch.ListLimit)
	assert.Equal(t, "UTC", cfg.Migrator.System.Timezone)
	assert.Equal(t, string(config.LogLevelInfo), cfg.Migrator.System.Logging.Level)
	assert.Equal(t, "inmemory", cfg.Migrator.Infrastructure.RepositoryKind)
	assert.True(t, cfg.Migrator.Metrics.Enabled)
	assert.False(t, cfg.Migrator.Tracing.Enabled)
}

func TestLoadConfig_YAMLOverridesDefaults(t *testing.T) {
	yamlConfig := []byte(`
migrator:
  batch:
    batch_size: 250
    sample_size: 10
    continue_on_error: true
  system:
    logging:
      level: DEBUG
  infrastructure:
    repository_kind: gorm
    repository_db_ref: metadata
  database:
    metadata:
      type: postgres
      host: localhost
  storage:
    type: local
    baseDir: /tmp/blobs
  tenants:
    acme: tenant_acme
`)

	cfg, err := config.LoadConfig("", config.EmbeddedConfig(yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Migrator.Batch.BatchSize)
	assert.Equal(t, 10, cfg.Migrator.Batch.SampleSize)
	assert.Equal(t, string(config.LogLevelDebug), cfg.Migrator.System.Logging.Level)
	assert.Equal(t, "gorm", cfg.Migrator.Infrastructure.RepositoryKind)
	assert.Equal(t, "metadata", cfg.Migrator.Infrastructure.RepositoryDBRef)
	assert.Equal(t, "tenant_acme", cfg.Migrator.Tenants["acme"])
	assert.Contains(t, cfg.Migrator.AdapterConfigs, "metadata")
	assert.Equal(t, "local", cfg.Migrator.StorageConfig["type"])

	// Unset sections keep their defaults.
	assert.Equal(t, "UTC", cfg.Migrator.System.Timezone)
	assert.Equal(t, 50, cfg.Migrator.Batch.ListLimit)
	assert.Equal(t, "target", cfg.Migrator.Infrastructure.TargetDBRef)
}

func TestLoadConfig_YAMLCanDisableContinueOnError(t *testing.T) {
	yamlConfig := []byte(`
migrator:
  batch:
    batch_size: 10
    continue_on_error: false
`)

	cfg, err := config.LoadConfig("", config.EmbeddedConfig(yamlConfig))
	require.NoError(t, err)
	assert.False(t, cfg.Migrator.Batch.ContinueOnError)
}

func TestLoadConfig_EnvOverridesYAML(t *testing.T) {
	t.Setenv("MIGRATOR_BATCH_BATCH_SIZE", "77")
	t.Setenv("MIGRATOR_SYSTEM_LOGGING_LEVEL", "TRACE")
	t.Setenv("MIGRATOR_TRACING_SAMPLE_RATIO", "0.25")

	yamlConfig := []byte(`
migrator:
  batch:
    batch_size: 250
  system:
    logging:
      level: DEBUG
`)

	cfg, err := config.LoadConfig("", config.EmbeddedConfig(yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, 77, cfg.Migrator.Batch.BatchSize)
	assert.Equal(t, string(config.LogLevelTrace), cfg.Migrator.System.Logging.Level)
	assert.Equal(t, 0.25, cfg.Migrator.Tracing.SampleRatio)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := config.LoadConfig("", config.EmbeddedConfig("migrator: [not a map"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidEnvValue(t *testing.T) {
	t.Setenv("MIGRATOR_BATCH_BATCH_SIZE", "not-a-number")

	_, err := config.LoadConfig("", config.EmbeddedConfig(""))
	assert.Error(t, err)
}
