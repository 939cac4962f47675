package config

// Package config provides structures and utilities for managing application configuration.

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
// This is used when loading configuration from an embedded source (e.g., a compiled binary).
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelTrace  LogLevel = "TRACE"
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelFatal  LogLevel = "FATAL"
	LogLevelSilent LogLevel = "SILENT"
)

// BatchConfig holds configuration for migration execution.
type BatchConfig struct {
	// BatchSize is the number of records processed per batch.
	BatchSize int `yaml:"batch_size"`
	// SampleSize is the number of records mapped for a dry-run preview.
	SampleSize int `yaml:"sample_size"`
	// ContinueOnError controls whether execution keeps going past failed records.
	ContinueOnError bool `yaml:"continue_on_error"`
	// ListLimit is the default page size for job listings.
	ListLimit int `yaml:"list_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG", "TRACE").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC", "Asia/Tokyo").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled toggles metric collection.
	Enabled bool `yaml:"enabled"`
	// Namespace is prepended to every metric name.
	Namespace string `yaml:"namespace"`
	// ListenAddress is the address of the /metrics endpoint (e.g., ":9090").
	ListenAddress string `yaml:"listen_address"`
}

// TracingConfig holds OpenTelemetry tracing settings.
type TracingConfig struct {
	// Enabled toggles trace export.
	Enabled bool `yaml:"enabled"`
	// Endpoint is the OTLP/HTTP collector endpoint (host:port).
	Endpoint string `yaml:"endpoint"`
	// ServiceName identifies this process in traces.
	ServiceName string `yaml:"service_name"`
	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	SampleRatio float64 `yaml:"sample_ratio"`
	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`
}

// InfrastructureConfig holds logical dependency settings for infrastructure components.
type InfrastructureConfig struct {
	// RepositoryKind selects the repository backend ("gorm" or "inmemory").
	RepositoryKind string `yaml:"repository_kind"`
	// RepositoryDBRef is the name of the database config used by the repository (e.g., "metadata").
	RepositoryDBRef string `yaml:"repository_db_ref"`
	// TargetDBRef is the name of the database config receiving migrated entities.
	TargetDBRef string `yaml:"target_db_ref"`
}

// MigratorConfig holds all configuration under the "migrator" top-level key.
type MigratorConfig struct {
	// Batch contains migration execution configurations.
	Batch BatchConfig `yaml:"batch"`
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `yaml:"metrics"`
	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `yaml:"tracing"`
	// Infrastructure contains infrastructure-related configurations.
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	// AdapterConfigs holds named database connection configurations.
	AdapterConfigs map[string]interface{} `yaml:"database"`
	// StorageConfig holds the blob store configuration, keyed by "type".
	StorageConfig map[string]interface{} `yaml:"storage"`
	// Tenants maps tenant slugs onto their target schema names.
	Tenants map[string]string `yaml:"tenants"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	// Migrator contains the top-level configuration for the migration service.
	Migrator MigratorConfig `yaml:"migrator"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	return &Config{
		Migrator: MigratorConfig{
			Batch: BatchConfig{
				BatchSize:       100,
				SampleSize:      5,
				ContinueOnError: true,
				ListLimit:       50,
			},
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: string(LogLevelInfo)},
			},
			Metrics: MetricsConfig{
				Enabled:   true,
				Namespace: "migrator",
			},
			Tracing: TracingConfig{
				Enabled:     false,
				ServiceName: "migrator",
				SampleRatio: 1.0,
			},
			Infrastructure: InfrastructureConfig{
				RepositoryKind:  "inmemory",
				RepositoryDBRef: "metadata",
				TargetDBRef:     "target",
			},
		},
	}
}
