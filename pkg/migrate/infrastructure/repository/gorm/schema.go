package gorm

import (
	"time"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
)

// MigrationJobEntity is a schema model used for persistence.
type MigrationJobEntity struct {
	ID                string `gorm:"primaryKey;size:36"`
	TenantSlug        string `gorm:"index"`
	SourceSystem      string
	EntityType        string
	Status            string
	SourceKey         string
	TotalRecords      int
	ProcessedRecords  int
	SuccessfulRecords int
	FailedRecords     int
	SkippedRows       int
	CreatedAt         time.Time
	CompletedAt       *time.Time
	LastUpdated       time.Time
}

func (MigrationJobEntity) TableName() string {
	return "migration_job"
}

// MappingTemplateEntity is a schema model used for persistence.
type MappingTemplateEntity struct {
	ID         string `gorm:"primaryKey;size:36"`
	TenantSlug string `gorm:"index"`
	Name       string
	Config     model.FieldMappingConfig `gorm:"type:jsonb"`
	CreatedBy  string
	CreatedAt  time.Time
}

func (MappingTemplateEntity) TableName() string {
	return "mapping_template"
}

// MigrationReportEntity is a schema model used for persistence.
type MigrationReportEntity struct {
	JobID             string `gorm:"primaryKey;size:36"`
	Status            string
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	Errors            model.RecordErrorList `gorm:"type:jsonb"`
	Summary           string
}

func (MigrationReportEntity) TableName() string {
	return "migration_report"
}
