package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/parser"
)

func TestServiceNowParser_JSONArrayWithInvalidEntries(t *testing.T) {
	p := parser.NewServiceNowParser()
	data := []byte(`[
		{"sys_id": "a1", "short_description": "Printer broken", "opened_at": "2024-01-02 10:00:00"},
		null,
		{"sys_id": "a2", "number": "INC0002", "short_description": "VPN down"},
		"invalid"
	]`)

	result, err := p.Parse(data, model.EntityIncident, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalRows)
	assert.Equal(t, 2, result.SkippedRows)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "a1", result.Records[0].SourceID)
	assert.Equal(t, "a2", result.Records[1].SourceID)
	// opened_at backfills the created timestamp when the audit field is absent.
	assert.Equal(t, "2024-01-02 10:00:00", result.Records[0].Metadata.CreatedAt)
}

func TestServiceNowParser_WrapperObjects(t *testing.T) {
	p := parser.NewServiceNowParser()

	for _, wrapper := range []string{"records", "result"} {
		data := []byte(`{"` + wrapper + `": [{"sys_id": "x", "state": "1"}]}`)
		result, err := p.Parse(data, model.EntityIncident, nil)
		require.NoError(t, err, "wrapper %q", wrapper)
		require.Len(t, result.Records, 1)
		assert.Equal(t, "x", result.Records[0].SourceID)
	}

	// A single wrapped object counts as a one-record export.
	result, err := p.Parse([]byte(`{"result": {"sys_id": "y"}}`), model.EntityIncident, nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "y", result.Records[0].SourceID)
}

func TestServiceNowParser_ReferenceFlattening(t *testing.T) {
	p := parser.NewServiceNowParser()
	data := []byte(`[{
		"sys_id": "a1",
		"assigned_to": {"value": "u123", "display_value": "Alice Smith"},
		"caller_id": {"link": "https://instance/api/now/table/sys_user/u456"},
		"extra": {"nested": "kept"}
	}]`)

	result, err := p.Parse(data, model.EntityIncident, nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	record := result.Records[0]

	assert.Equal(t, "u123", record.Data["assigned_to"])
	assert.Equal(t, "Alice Smith", record.Data["assigned_to_display"])
	assert.Equal(t, "https://instance/api/now/table/sys_user/u456", record.Data["caller_id"])
	// Maps without reference markers stay nested for dot-path access.
	nested, ok := record.Data["extra"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "kept", nested["nested"])
}

func TestServiceNowParser_InvalidJSON(t *testing.T) {
	p := parser.NewServiceNowParser()
	_, err := p.Parse([]byte(`{"records": [`), model.EntityIncident, nil)
	assert.Error(t, err)

	_, err = p.Parse([]byte(`{"rows": []}`), model.EntityIncident, nil)
	assert.Error(t, err)
}

func TestServiceNowParser_XML(t *testing.T) {
	p := parser.NewServiceNowParser()
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<unload>
  <incident>
    <sys_id>a1</sys_id>
    <short_description>Printer broken</short_description>
    <assigned_to display_value="Alice Smith">u123</assigned_to>
  </incident>
  <incident>
    <sys_id>a2</sys_id>
    <short_description>VPN down</short_description>
  </incident>
</unload>`)

	result, err := p.Parse(data, model.EntityIncident, nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "a1", result.Records[0].SourceID)
	assert.Equal(t, "Printer broken", result.Records[0].Data["short_description"])
	// Attribute + text elements flatten like JSON references.
	assert.Equal(t, "u123", result.Records[0].Data["assigned_to"])
	assert.Equal(t, "Alice Smith", result.Records[0].Data["assigned_to_display"])
}

func TestServiceNowParser_Validate(t *testing.T) {
	p := parser.NewServiceNowParser()

	v := p.Validate([]byte(`[{"sys_id": "a1"}]`))
	assert.True(t, v.Valid)
	assert.Equal(t, parser.FormatJSON, v.Format)
	assert.Equal(t, 1, v.RecordCount)

	v = p.Validate([]byte(`[]`))
	assert.False(t, v.Valid)
	require.NotEmpty(t, v.Errors)
	assert.Contains(t, v.Errors[0], "no records")

	v = p.Validate([]byte(`{"records": [`))
	assert.False(t, v.Valid)

	v = p.Validate([]byte("id,title\n1,x"))
	assert.False(t, v.Valid)
	assert.Equal(t, parser.FormatDelimited, v.Format)
}
