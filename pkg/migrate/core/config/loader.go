package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/firelater/migrator/pkg/migrate/support/util/exception"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	// EmbeddedConfig contains the raw bytes of the configuration file.
	EmbeddedConfig EmbeddedConfig
	// EnvFilePath is the path to the .env file, if any.
	EnvFilePath string `name:"envFilePath" optional:"true"`
}

// loadConfig loads configuration from defaults, the embedded YAML and
// environment variables, in increasing order of precedence. It is intended to
// be called only once during application startup.
func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	var yamlConfig Config
	if err := yaml.Unmarshal(embeddedConfig, &yamlConfig); err != nil {
		return nil, exception.NewMigrationError(moduleName, "failed to unmarshal embedded config", err, false, false)
	}
	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewMigrationError(moduleName, "failed to load config from environment variables", err, false, false)
	}
	return cfg, nil
}

// NewConfigProvider is an fx provider that loads and provides *Config. It also
// sets the global logger level from the loaded configuration.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Migrator.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Migrator.System.Logging.Level)

	return cfg, nil
}

// LoadConfig loads configuration from the embedded YAML and environment
// variables without going through the fx graph.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig)
}

// mergeConfig performs a deep merge from sourceConfig into destConfig.
// Values in sourceConfig overwrite corresponding values in destConfig
// when they are not zero values for their type.
func mergeConfig(destConfig, sourceConfig *Config) {
	mergeMigratorConfig(&destConfig.Migrator, &sourceConfig.Migrator)
}

func mergeMigratorConfig(dest, source *MigratorConfig) {
	if source.Batch.BatchSize != 0 {
		dest.Batch.BatchSize = source.Batch.BatchSize
	}
	if source.Batch.SampleSize != 0 {
		dest.Batch.SampleSize = source.Batch.SampleSize
	}
	if source.Batch.ListLimit != 0 {
		dest.Batch.ListLimit = source.Batch.ListLimit
	}
	// ContinueOnError defaults to true; a YAML false must win, so copy unconditionally
	// when the batch section is present at all.
	if source.Batch != (BatchConfig{}) {
		dest.Batch.ContinueOnError = source.Batch.ContinueOnError
	}

	if source.System.Timezone != "" {
		dest.System.Timezone = source.System.Timezone
	}
	if source.System.Logging.Level != "" {
		dest.System.Logging.Level = source.System.Logging.Level
	}

	if source.Metrics.Namespace != "" {
		dest.Metrics.Namespace = source.Metrics.Namespace
	}
	if source.Metrics.ListenAddress != "" {
		dest.Metrics.ListenAddress = source.Metrics.ListenAddress
	}
	dest.Metrics.Enabled = dest.Metrics.Enabled || source.Metrics.Enabled

	if source.Tracing.Endpoint != "" {
		dest.Tracing.Endpoint = source.Tracing.Endpoint
	}
	if source.Tracing.ServiceName != "" {
		dest.Tracing.ServiceName = source.Tracing.ServiceName
	}
	if source.Tracing.SampleRatio != 0 {
		dest.Tracing.SampleRatio = source.Tracing.SampleRatio
	}
	dest.Tracing.Enabled = dest.Tracing.Enabled || source.Tracing.Enabled
	dest.Tracing.Insecure = dest.Tracing.Insecure || source.Tracing.Insecure

	if source.Infrastructure.RepositoryKind != "" {
		dest.Infrastructure.RepositoryKind = source.Infrastructure.RepositoryKind
	}
	if source.Infrastructure.RepositoryDBRef != "" {
		dest.Infrastructure.RepositoryDBRef = source.Infrastructure.RepositoryDBRef
	}
	if source.Infrastructure.TargetDBRef != "" {
		dest.Infrastructure.TargetDBRef = source.Infrastructure.TargetDBRef
	}

	if source.AdapterConfigs != nil {
		if dest.AdapterConfigs == nil {
			dest.AdapterConfigs = make(map[string]interface{})
		}
		for key, value := range source.AdapterConfigs {
			dest.AdapterConfigs[key] = value
		}
	}
	if source.StorageConfig != nil {
		if dest.StorageConfig == nil {
			dest.StorageConfig = make(map[string]interface{})
		}
		for key, value := range source.StorageConfig {
			dest.StorageConfig[key] = value
		}
	}
	if source.Tenants != nil {
		if dest.Tenants == nil {
			dest.Tenants = make(map[string]string)
		}
		for key, value := range source.Tenants {
			dest.Tenants[key] = value
		}
	}
}

// loadStructFromEnv recursively loads configuration values into a struct from
// environment variables, using the "yaml" tag to derive the variable name
// (e.g., MIGRATOR_SYSTEM_LOGGING_LEVEL).
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField sets the value of a reflect.Value field based on its kind.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
