package config

import (
	"go.uber.org/fx"

	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

// NewLoggingConfigProvider extracts and provides *LoggingConfig from *Config.
// This allows other fx components to depend only on the logging configuration.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Migrator.System.Logging
}

// ApplyLoggingConfig applies the configured log level to the global logger.
func ApplyLoggingConfig(cfg *Config) {
	logger.SetLogLevel(cfg.Migrator.System.Logging.Level)
}

// Module provides configuration-related components to fx.
var Module = fx.Options(
	fx.Provide(NewLoggingConfigProvider),
	fx.Invoke(ApplyLoggingConfig),
)
