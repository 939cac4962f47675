// Package metrics provides the Prometheus implementation of the metrics.Recorder interface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	config "github.com/firelater/migrator/pkg/migrate/core/config"
	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	metrics "github.com/firelater/migrator/pkg/migrate/core/metrics"
	logger "github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.Recorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	jobStatusCounter     *prometheus.CounterVec
	recordCounter        *prometheus.CounterVec
	skippedRowsCounter   *prometheus.CounterVec
	batchDurationSeconds *prometheus.HistogramVec
}

// Verify that PrometheusRecorder implements the metrics.Recorder interface.
var _ metrics.Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder(cfg *config.Config) *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	namespace := cfg.Migrator.Metrics.Namespace

	r := &PrometheusRecorder{
		registry: registry,
		jobStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_status_total",
			Help:      "Total number of migration job status transitions.",
		}, []string{"tenant", "source_system", "entity_type", "status"}),
		recordCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Total number of migrated records by outcome.",
		}, []string{"tenant", "entity_type", "outcome"}),
		skippedRowsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_rows_total",
			Help:      "Total number of source rows skipped during parsing.",
		}, []string{"tenant", "source_system"}),
		batchDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of migration batch processing.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tenant", "entity_type"}),
	}

	registry.MustRegister(r.jobStatusCounter)
	registry.MustRegister(r.recordCounter)
	registry.MustRegister(r.skippedRowsCounter)
	registry.MustRegister(r.batchDurationSeconds)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordJobStatus counts a job status transition.
func (r *PrometheusRecorder) RecordJobStatus(tenantSlug string, sourceSystem model.SourceSystem, entityType model.EntityType, status model.JobStatus) {
	r.jobStatusCounter.WithLabelValues(tenantSlug, string(sourceSystem), string(entityType), string(status)).Inc()
	logger.Debugf("Metrics: job status '%s' recorded for tenant '%s'.", status, tenantSlug)
}

// RecordRecords counts processed records by outcome after a batch.
func (r *PrometheusRecorder) RecordRecords(tenantSlug string, entityType model.EntityType, successful, failed int) {
	if successful > 0 {
		r.recordCounter.WithLabelValues(tenantSlug, string(entityType), "success").Add(float64(successful))
	}
	if failed > 0 {
		r.recordCounter.WithLabelValues(tenantSlug, string(entityType), "failure").Add(float64(failed))
	}
}

// RecordSkippedRows counts rows skipped during parsing.
func (r *PrometheusRecorder) RecordSkippedRows(tenantSlug string, sourceSystem model.SourceSystem, skipped int) {
	if skipped > 0 {
		r.skippedRowsCounter.WithLabelValues(tenantSlug, string(sourceSystem)).Add(float64(skipped))
	}
}

// ObserveBatchDuration records the wall time of one batch.
func (r *PrometheusRecorder) ObserveBatchDuration(tenantSlug string, entityType model.EntityType, duration time.Duration) {
	r.batchDurationSeconds.WithLabelValues(tenantSlug, string(entityType)).Observe(duration.Seconds())
}
