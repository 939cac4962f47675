// Package export writes row-level failure artifacts for finished migration
// jobs. Failed records are exported as Parquet files into the blob store so
// operators can triage them with standard analytics tooling.
package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/fx"

	storageAdapter "github.com/firelater/migrator/pkg/migrate/adapter/storage"
	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/engine"
	"github.com/firelater/migrator/pkg/migrate/support/util/exception"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

const moduleName = "export"

// FailedRecordRow is the Parquet schema for one failed record.
type FailedRecordRow struct {
	JobID    string `parquet:"name=job_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	RowIndex int32  `parquet:"name=row_index, type=INT32"`
	SourceID string `parquet:"name=source_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Kind     string `parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Message  string `parquet:"name=message, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ParquetFailureExporter implements engine.ReportExporter using the
// xitongsys/parquet-go writer over an in-memory buffer.
type ParquetFailureExporter struct {
	blobs storageAdapter.BlobStore
}

// Verify that ParquetFailureExporter implements the engine.ReportExporter interface.
var _ engine.ReportExporter = (*ParquetFailureExporter)(nil)

// NewParquetFailureExporter creates an exporter writing into the given blob store.
func NewParquetFailureExporter(blobs storageAdapter.BlobStore) *ParquetFailureExporter {
	return &ParquetFailureExporter{blobs: blobs}
}

// ExportFailures writes the failed records of a run as one Parquet file and
// returns the blob key it was stored under.
func (e *ParquetFailureExporter) ExportFailures(ctx context.Context, job *model.MigrationJob, report *model.MigrationReport) (string, error) {
	if len(report.Errors) == 0 {
		return "", exception.NewMigrationErrorf(moduleName, "report for job '%s' carries no record errors", job.ID)
	}

	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(FailedRecordRow), int64(len(report.Errors)))
	if err != nil {
		return "", exception.NewMigrationError(moduleName, "failed to create Parquet writer", err, false, false)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, re := range report.Errors {
		row := FailedRecordRow{
			JobID:    report.JobID,
			RowIndex: int32(re.RowIndex),
			SourceID: re.SourceID,
			Kind:     string(re.Kind),
			Message:  re.Message,
		}
		if err := pw.Write(row); err != nil {
			return "", exception.NewMigrationError(moduleName,
				fmt.Sprintf("failed to write failure row %d", re.RowIndex), err, false, false)
		}
	}

	if err := writeStop(pw); err != nil {
		return "", err
	}

	key := fmt.Sprintf("reports/%s/%s-failures.parquet", job.TenantSlug, job.ID)
	if err := e.blobs.Store(ctx, key, buf.Bytes()); err != nil {
		return "", exception.NewMigrationError(moduleName,
			fmt.Sprintf("failed to store failure artifact '%s'", key), err, false, true)
	}
	logger.Debugf("Wrote failure artifact '%s' (%d rows, %d bytes)", key, len(report.Errors), buf.Len())
	return key, nil
}

// writeStop finalizes the Parquet file, converting library panics into errors.
func writeStop(pw *writer.ParquetWriter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = exception.NewMigrationErrorf(moduleName, "Parquet writer panicked during WriteStop: %v", r)
		}
	}()
	if stopErr := pw.WriteStop(); stopErr != nil {
		return exception.NewMigrationError(moduleName, "failed to stop Parquet writer", stopErr, false, false)
	}
	return nil
}

// Module provides the failure exporter to the fx application graph.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(NewParquetFailureExporter, fx.As(new(engine.ReportExporter))),
	),
)
