// Package model defines the domain objects of the migration subsystem:
// parsed source records, field mappings, migration jobs, reports and templates.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	logger "github.com/firelater/migrator/pkg/migrate/support/util/logger"

	"github.com/google/uuid"
)

// NewID generates a new unique identifier.
func NewID() string {
	return uuid.New().String()
}

// SourceSystem identifies the legacy ITSM product whose export is being imported.
type SourceSystem string

const (
	SourceServiceNow SourceSystem = "servicenow"
	SourceBMCRemedy  SourceSystem = "bmc_remedy"
	SourceJira       SourceSystem = "jira"
	SourceGenericCSV SourceSystem = "generic_csv"
)

// String returns the string representation of the SourceSystem.
func (s SourceSystem) String() string {
	return string(s)
}

// IsValid reports whether the SourceSystem is one of the supported values.
func (s SourceSystem) IsValid() bool {
	switch s {
	case SourceServiceNow, SourceBMCRemedy, SourceJira, SourceGenericCSV:
		return true
	default:
		return false
	}
}

// EntityType identifies the target domain object being created by a migration.
type EntityType string

const (
	EntityIncident    EntityType = "incident"
	EntityRequest     EntityType = "request"
	EntityChange      EntityType = "change"
	EntityUser        EntityType = "user"
	EntityGroup       EntityType = "group"
	EntityApplication EntityType = "application"
	EntityProblem     EntityType = "problem"
)

// String returns the string representation of the EntityType.
func (e EntityType) String() string {
	return string(e)
}

// IsValid reports whether the EntityType is one of the supported values.
func (e EntityType) IsValid() bool {
	switch e {
	case EntityIncident, EntityRequest, EntityChange, EntityUser, EntityGroup, EntityApplication, EntityProblem:
		return true
	default:
		return false
	}
}

// JobStatus represents the state of a migration job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusPreviewing JobStatus = "previewing"
	JobStatusReady      JobStatus = "ready"
	JobStatusRunning    JobStatus = "running"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// String returns the string representation of the JobStatus.
func (s JobStatus) String() string {
	return string(s)
}

// IsFinished checks if the JobStatus represents a terminal state.
func (s JobStatus) IsFinished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// isValidJobTransition checks if the state transition for a MigrationJob is valid.
func isValidJobTransition(current, next JobStatus) bool {
	switch current {
	case JobStatusPending:
		// A pending job either starts a dry-run preview or is executed directly.
		return next == JobStatusPreviewing || next == JobStatusRunning || next == JobStatusFailed
	case JobStatusPreviewing:
		return next == JobStatusReady || next == JobStatusFailed
	case JobStatusReady:
		return next == JobStatusRunning || next == JobStatusFailed
	case JobStatusRunning:
		return next == JobStatusCompleted || next == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		// Terminal states reject further mutation.
		return false
	default:
		return false
	}
}

// ErrorKind classifies a recoverable per-record failure.
type ErrorKind string

const (
	ErrorKindValidation     ErrorKind = "validation"
	ErrorKindTransformation ErrorKind = "transformation"
	ErrorKindPersistence    ErrorKind = "persistence"
)

// Transformation names a built-in value transformation applied by a FieldMapping.
type Transformation string

const (
	TransformUppercase Transformation = "uppercase"
	TransformLowercase Transformation = "lowercase"
	TransformTrim      Transformation = "trim"
	TransformDate      Transformation = "date"
	TransformBoolean   Transformation = "boolean"
)

// JSONMap is a generic key-value map persisted as a JSON column.
type JSONMap map[string]interface{}

// Value implements the `driver.Valuer` interface, converting the JSONMap to a JSON string.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to a JSONMap.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(JSONMap)
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for JSONMap: %T", value)
	}
	if len(b) == 0 {
		*m = make(JSONMap)
		return nil
	}
	if err := json.Unmarshal(b, m); err != nil {
		return fmt.Errorf("failed to unmarshal JSONMap JSON: %w", err)
	}
	return nil
}

// RecordMetadata holds audit information extracted from a source record.
// Timestamps are kept in their raw source representation; normalization to
// ISO-8601 is a mapping concern, not a parsing concern.
type RecordMetadata struct {
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
	UpdatedBy string `json:"updatedBy,omitempty"`
}

// ParsedRecord is a single record extracted from a legacy export.
// It is produced once per source record by a parser, is immutable afterwards,
// and is consumed by the field mapper. Nested maps in Data are preserved so
// the mapper can address them via dot-paths.
type ParsedRecord struct {
	SourceID   string
	EntityType EntityType
	Data       map[string]interface{}
	Metadata   RecordMetadata
}

// ParseResult is the outcome of parsing a raw export buffer.
// SkippedRows counts structurally invalid elements inside an otherwise valid
// container (e.g. a null entry in a JSON array); they are not errors.
type ParseResult struct {
	Records     []*ParsedRecord
	TotalRows   int
	SkippedRows int
	Errors      []string
}

// FileValidation is the outcome of a cheap structural pre-check of an export
// buffer, performed without full field extraction.
type FileValidation struct {
	Valid       bool
	Format      string
	RecordCount int
	Errors      []string
}

// TransformFunc is a caller-supplied value transformation. It wins over the
// named Transformation when both are set on a FieldMapping.
type TransformFunc func(value interface{}) (interface{}, error)

// FieldMapping declares how a single source field is mapped onto a target field.
// It is never mutated after construction.
type FieldMapping struct {
	// SourceField is the source field name; "a.b.c" dot-paths address nested maps.
	SourceField string `json:"sourceField" yaml:"sourceField"`
	// TargetField is the field name in the normalized target schema.
	TargetField string `json:"targetField" yaml:"targetField"`
	// Required marks the target field as mandatory; a missing source value
	// without a default produces a validation error.
	Required bool `json:"required" yaml:"required"`
	// DefaultValue is written verbatim when the source value is absent.
	DefaultValue interface{} `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	// Transformation names a built-in transformation applied to present values.
	Transformation Transformation `json:"transformation,omitempty" yaml:"transformation,omitempty"`
	// CustomTransform is a first-class transformation function. It is not
	// serialized; saved templates carry named transformations only.
	CustomTransform TransformFunc `json:"-" yaml:"-"`
}

// FieldMappingConfig is a complete, declarative mapping for one (source system,
// entity type) pair. It is either a built-in default or a tenant-saved template.
type FieldMappingConfig struct {
	EntityType    EntityType     `json:"entityType" yaml:"entityType"`
	SourceSystem  SourceSystem   `json:"sourceSystem" yaml:"sourceSystem"`
	FieldMappings []FieldMapping `json:"fieldMappings" yaml:"fieldMappings"`
}

// Clone returns a value copy of the config. Executions operate on copies so
// concurrent template edits never affect an in-flight job.
func (c FieldMappingConfig) Clone() FieldMappingConfig {
	mappings := make([]FieldMapping, len(c.FieldMappings))
	copy(mappings, c.FieldMappings)
	return FieldMappingConfig{
		EntityType:    c.EntityType,
		SourceSystem:  c.SourceSystem,
		FieldMappings: mappings,
	}
}

// Value implements the `driver.Valuer` interface, converting the config to a JSON string.
func (c FieldMappingConfig) Value() (driver.Value, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to a FieldMappingConfig.
func (c *FieldMappingConfig) Scan(value interface{}) error {
	if value == nil {
		*c = FieldMappingConfig{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for FieldMappingConfig: %T", value)
	}
	if len(b) == 0 {
		*c = FieldMappingConfig{}
		return nil
	}
	if err := json.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to unmarshal FieldMappingConfig JSON: %w", err)
	}
	return nil
}

// MappingError describes a single recoverable mapping failure.
type MappingError struct {
	Field   string    `json:"field"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// MappedRecord is the result of mapping one ParsedRecord through a
// FieldMappingConfig. Mapping never throws; failures are carried as data so
// batch processing can continue past a bad record.
type MappedRecord struct {
	TargetData map[string]interface{}
	Errors     []MappingError
	Warnings   []string
}

// NewMappedRecord creates an empty MappedRecord.
func NewMappedRecord() *MappedRecord {
	return &MappedRecord{
		TargetData: make(map[string]interface{}),
		Errors:     make([]MappingError, 0),
		Warnings:   make([]string, 0),
	}
}

// AddError appends a mapping error for the given target field.
func (m *MappedRecord) AddError(field string, kind ErrorKind, message string) {
	m.Errors = append(m.Errors, MappingError{Field: field, Kind: kind, Message: message})
}

// AddWarning appends a human-readable warning.
func (m *MappedRecord) AddWarning(message string) {
	m.Warnings = append(m.Warnings, message)
}

// HasErrors reports whether any mapping error was collected.
func (m *MappedRecord) HasErrors() bool {
	return len(m.Errors) > 0
}

// RecordError describes a single failed record in a migration report,
// keyed by its row index and source identifier.
type RecordError struct {
	RowIndex int       `json:"rowIndex"`
	SourceID string    `json:"sourceId"`
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message"`
}

// RecordErrorList is a list of RecordErrors persisted as a JSON column.
type RecordErrorList []RecordError

// Value implements the `driver.Valuer` interface, converting the list to a JSON string.
func (l RecordErrorList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to a RecordErrorList.
func (l *RecordErrorList) Scan(value interface{}) error {
	if value == nil {
		*l = make(RecordErrorList, 0)
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for RecordErrorList: %T", value)
	}
	if len(b) == 0 {
		*l = make(RecordErrorList, 0)
		return nil
	}
	if err := json.Unmarshal(b, l); err != nil {
		return fmt.Errorf("failed to unmarshal RecordErrorList JSON: %w", err)
	}
	return nil
}

// MigrationJob tracks the lifecycle of a single import run.
// State transitions are owned exclusively by the orchestrator.
type MigrationJob struct {
	ID                string
	TenantSlug        string
	SourceSystem      SourceSystem
	EntityType        EntityType
	Status            JobStatus
	SourceKey         string // blob store key of the uploaded export
	TotalRecords      int
	ProcessedRecords  int
	SuccessfulRecords int
	FailedRecords     int
	SkippedRows       int
	CreatedAt         time.Time
	CompletedAt       *time.Time
	LastUpdated       time.Time
}

// NewMigrationJob creates a new MigrationJob in the pending state.
func NewMigrationJob(tenantSlug string, sourceSystem SourceSystem, entityType EntityType, sourceKey string) *MigrationJob {
	now := time.Now()
	return &MigrationJob{
		ID:           NewID(),
		TenantSlug:   tenantSlug,
		SourceSystem: sourceSystem,
		EntityType:   entityType,
		Status:       JobStatusPending,
		SourceKey:    sourceKey,
		CreatedAt:    now,
		LastUpdated:  now,
	}
}

// TransitionTo safely transitions the job state. Fields other than Status and
// LastUpdated must be set separately by the caller.
func (j *MigrationJob) TransitionTo(newStatus JobStatus) error {
	if !isValidJobTransition(j.Status, newStatus) {
		return fmt.Errorf("MigrationJob (ID: %s): invalid state transition: %s -> %s", j.ID, j.Status, newStatus)
	}
	j.Status = newStatus
	j.LastUpdated = time.Now()
	return nil
}

// MarkAsCompleted stamps the completion time and moves the job to completed.
// Completed means "finished running", not "fully successful"; failure counts
// remain visible on the job and its report.
func (j *MigrationJob) MarkAsCompleted() {
	if err := j.TransitionTo(JobStatusCompleted); err != nil {
		logger.Warnf("Could not update MigrationJob (ID: %s) status to completed: %v", j.ID, err)
		j.Status = JobStatusCompleted
	}
	now := time.Now()
	j.CompletedAt = &now
	j.LastUpdated = now
}

// MarkAsFailed stamps the completion time and moves the job to failed.
func (j *MigrationJob) MarkAsFailed() {
	if err := j.TransitionTo(JobStatusFailed); err != nil {
		logger.Warnf("Could not update MigrationJob (ID: %s) status to failed: %v", j.ID, err)
		j.Status = JobStatusFailed
	}
	now := time.Now()
	j.CompletedAt = &now
	j.LastUpdated = now
}

// MigrationReport is the immutable outcome of a migration execution.
type MigrationReport struct {
	JobID             string          `json:"jobId"`
	Status            JobStatus       `json:"status"`
	TotalRecords      int             `json:"totalRecords"`
	SuccessfulRecords int             `json:"successfulRecords"`
	FailedRecords     int             `json:"failedRecords"`
	Errors            RecordErrorList `json:"errors"`
	Summary           string          `json:"summary"`
}

// MappingTemplate is a named, tenant-scoped, reusable FieldMappingConfig.
// Its lifecycle is independent from any job; executions copy the config by value.
type MappingTemplate struct {
	ID         string
	TenantSlug string
	Name       string
	Config     FieldMappingConfig
	CreatedBy  string
	CreatedAt  time.Time
}

// NewMappingTemplate creates a new MappingTemplate.
func NewMappingTemplate(tenantSlug, name string, config FieldMappingConfig, createdBy string) *MappingTemplate {
	return &MappingTemplate{
		ID:         NewID(),
		TenantSlug: tenantSlug,
		Name:       name,
		Config:     config.Clone(),
		CreatedBy:  createdBy,
		CreatedAt:  time.Now(),
	}
}

// MigrationPreview is the dry-run result computed at job creation.
// Bad-data conditions surface as recommendations, never as errors.
type MigrationPreview struct {
	SampleRecords     []*MappedRecord `json:"sampleRecords"`
	UnmappedFields    []string        `json:"unmappedFields"`
	SuggestedMappings []FieldMapping  `json:"suggestedMappings"`
	Recommendations   []string        `json:"recommendations"`
	TotalRecords      int             `json:"totalRecords"`
	SkippedRows       int             `json:"skippedRows"`
}
