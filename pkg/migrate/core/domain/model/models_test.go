package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
)

func newTestJob(status model.JobStatus) *model.MigrationJob {
	job := model.NewMigrationJob("acme", model.SourceServiceNow, model.EntityIncident, "uploads/acme/x")
	job.Status = status
	return job
}

func TestMigrationJob_TransitionTo(t *testing.T) {
	// pending -> previewing (dry-run start)
	job := newTestJob(model.JobStatusPending)
	assert.NoError(t, job.TransitionTo(model.JobStatusPreviewing))
	assert.Equal(t, model.JobStatusPreviewing, job.Status)

	// pending -> running (direct execution)
	job = newTestJob(model.JobStatusPending)
	assert.NoError(t, job.TransitionTo(model.JobStatusRunning))

	// previewing -> ready
	job = newTestJob(model.JobStatusPreviewing)
	assert.NoError(t, job.TransitionTo(model.JobStatusReady))

	// ready -> running
	job = newTestJob(model.JobStatusReady)
	assert.NoError(t, job.TransitionTo(model.JobStatusRunning))

	// running -> completed
	job = newTestJob(model.JobStatusRunning)
	assert.NoError(t, job.TransitionTo(model.JobStatusCompleted))

	// running -> failed
	job = newTestJob(model.JobStatusRunning)
	assert.NoError(t, job.TransitionTo(model.JobStatusFailed))

	// --- Invalid transitions ---

	// pending -> completed skips running
	job = newTestJob(model.JobStatusPending)
	assert.Error(t, job.TransitionTo(model.JobStatusCompleted))
	assert.Equal(t, model.JobStatusPending, job.Status)

	// ready -> previewing goes backwards
	job = newTestJob(model.JobStatusReady)
	assert.Error(t, job.TransitionTo(model.JobStatusPreviewing))

	// running -> running rejects concurrent execution
	job = newTestJob(model.JobStatusRunning)
	assert.Error(t, job.TransitionTo(model.JobStatusRunning))

	// Terminal states reject everything.
	job = newTestJob(model.JobStatusCompleted)
	assert.Error(t, job.TransitionTo(model.JobStatusRunning))
	job = newTestJob(model.JobStatusFailed)
	assert.Error(t, job.TransitionTo(model.JobStatusRunning))
}

func TestMigrationJob_MarkAsCompleted(t *testing.T) {
	job := newTestJob(model.JobStatusRunning)
	job.MarkAsCompleted()
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)
	assert.True(t, job.Status.IsFinished())
}

func TestMigrationJob_MarkAsFailed(t *testing.T) {
	job := newTestJob(model.JobStatusRunning)
	job.MarkAsFailed()
	assert.Equal(t, model.JobStatusFailed, job.Status)
	require.NotNil(t, job.CompletedAt)
}

func TestFieldMappingConfig_Clone(t *testing.T) {
	original := model.FieldMappingConfig{
		EntityType:   model.EntityIncident,
		SourceSystem: model.SourceJira,
		FieldMappings: []model.FieldMapping{
			{SourceField: "summary", TargetField: "title", Required: true},
		},
	}

	cloned := original.Clone()
	cloned.FieldMappings[0].TargetField = "changed"

	assert.Equal(t, "title", original.FieldMappings[0].TargetField)
	assert.Equal(t, "changed", cloned.FieldMappings[0].TargetField)
}

func TestFieldMappingConfig_ValueScan(t *testing.T) {
	config := model.FieldMappingConfig{
		EntityType:   model.EntityUser,
		SourceSystem: model.SourceGenericCSV,
		FieldMappings: []model.FieldMapping{
			{SourceField: "mail", TargetField: "email", Required: true},
			{SourceField: "state", TargetField: "status", DefaultValue: "active", Transformation: model.TransformLowercase},
		},
	}

	value, err := config.Value()
	require.NoError(t, err)

	var restored model.FieldMappingConfig
	require.NoError(t, restored.Scan(value))

	assert.Equal(t, config.EntityType, restored.EntityType)
	assert.Equal(t, config.SourceSystem, restored.SourceSystem)
	require.Len(t, restored.FieldMappings, 2)
	assert.Equal(t, "email", restored.FieldMappings[0].TargetField)
	assert.Equal(t, model.TransformLowercase, restored.FieldMappings[1].Transformation)
}

func TestRecordErrorList_ValueScan(t *testing.T) {
	list := model.RecordErrorList{
		{RowIndex: 3, SourceID: "INC0001", Kind: model.ErrorKindValidation, Message: "title is required"},
	}

	value, err := list.Value()
	require.NoError(t, err)

	var restored model.RecordErrorList
	require.NoError(t, restored.Scan(value))
	require.Len(t, restored, 1)
	assert.Equal(t, 3, restored[0].RowIndex)
	assert.Equal(t, model.ErrorKindValidation, restored[0].Kind)

	// nil list persists as an empty JSON array
	var empty model.RecordErrorList
	value, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)
}

func TestNewMappingTemplate_ClonesConfig(t *testing.T) {
	config := model.FieldMappingConfig{
		EntityType:    model.EntityIncident,
		SourceSystem:  model.SourceServiceNow,
		FieldMappings: []model.FieldMapping{{SourceField: "a", TargetField: "b"}},
	}
	template := model.NewMappingTemplate("acme", "default", config, "admin")

	config.FieldMappings[0].TargetField = "mutated"
	assert.Equal(t, "b", template.Config.FieldMappings[0].TargetField)
	assert.NotEmpty(t, template.ID)
}

func TestSourceSystemAndEntityType_IsValid(t *testing.T) {
	assert.True(t, model.SourceServiceNow.IsValid())
	assert.True(t, model.SourceGenericCSV.IsValid())
	assert.False(t, model.SourceSystem("salesforce").IsValid())

	assert.True(t, model.EntityProblem.IsValid())
	assert.False(t, model.EntityType("asset").IsValid())
}
