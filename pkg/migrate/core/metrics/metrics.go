// Package metrics defines the metric recording interface consumed by the
// migration engine. The Prometheus implementation lives under
// infrastructure/metrics; NoopRecorder is the default when no backend is wired.
package metrics

import (
	"time"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
)

// Recorder records operational metrics emitted by the migration engine.
type Recorder interface {
	// RecordJobStatus counts a job status transition.
	RecordJobStatus(tenantSlug string, sourceSystem model.SourceSystem, entityType model.EntityType, status model.JobStatus)

	// RecordRecords counts processed records by outcome after a batch.
	RecordRecords(tenantSlug string, entityType model.EntityType, successful, failed int)

	// RecordSkippedRows counts rows skipped during parsing.
	RecordSkippedRows(tenantSlug string, sourceSystem model.SourceSystem, skipped int)

	// ObserveBatchDuration records the wall time of one batch.
	ObserveBatchDuration(tenantSlug string, entityType model.EntityType, duration time.Duration)
}

// NoopRecorder discards all metrics.
type NoopRecorder struct{}

// Verify that NoopRecorder implements the Recorder interface.
var _ Recorder = (*NoopRecorder)(nil)

// NewNoopRecorder creates a Recorder that discards all metrics.
func NewNoopRecorder() Recorder {
	return &NoopRecorder{}
}

func (*NoopRecorder) RecordJobStatus(string, model.SourceSystem, model.EntityType, model.JobStatus) {
}
func (*NoopRecorder) RecordRecords(string, model.EntityType, int, int)              {}
func (*NoopRecorder) RecordSkippedRows(string, model.SourceSystem, int)             {}
func (*NoopRecorder) ObserveBatchDuration(string, model.EntityType, time.Duration)  {}
