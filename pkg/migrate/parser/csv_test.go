package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/parser"
)

func TestCSVParser_CommaDelimited(t *testing.T) {
	p := parser.NewCSVParser()
	data := []byte("id,title,status,created_at\n" +
		"T-1,Printer broken,new,2024-01-02\n" +
		"T-2,VPN down,open,2024-01-03\n")

	result, err := p.Parse(data, model.EntityIncident, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 0, result.SkippedRows)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "T-1", result.Records[0].SourceID)
	assert.Equal(t, "Printer broken", result.Records[0].Data["title"])
	assert.Equal(t, "2024-01-02", result.Records[0].Metadata.CreatedAt)
}

func TestCSVParser_DelimiterSniffing(t *testing.T) {
	p := parser.NewCSVParser()

	cases := []struct {
		name string
		data string
	}{
		{"semicolon", "id;title\n1;hello"},
		{"tab", "id\ttitle\n1\thello"},
		{"pipe", "id|title\n1|hello"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := p.Parse([]byte(tc.data), model.EntityIncident, nil)
			require.NoError(t, err)
			require.Len(t, result.Records, 1)
			assert.Equal(t, "hello", result.Records[0].Data["title"])
		})
	}
}

func TestCSVParser_DelimiterOverride(t *testing.T) {
	p := parser.NewCSVParser()
	// The sniffer would pick semicolon here; the override forces comma.
	data := []byte("id,note;x;y\n1,keep;this;too")

	result, err := p.Parse(data, model.EntityIncident, &parser.Options{Delimiter: ','})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "keep;this;too", result.Records[0].Data["note;x;y"])
}

func TestCSVParser_ColumnCountMismatch(t *testing.T) {
	p := parser.NewCSVParser()
	data := []byte("id,title,status\n" +
		"1,short row\n" +
		"2,long row,open,extra,columns\n")

	result, err := p.Parse(data, model.EntityIncident, nil)
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "padding")
	assert.Contains(t, result.Errors[1], "truncating")

	// Short rows are padded with empty strings.
	assert.Equal(t, "", result.Records[0].Data["status"])
	// Long rows are truncated to the header width.
	assert.Equal(t, "open", result.Records[1].Data["status"])
	assert.Len(t, result.Records[1].Data, 3)
}

func TestCSVParser_EmptyRowsSkippedSilently(t *testing.T) {
	p := parser.NewCSVParser()
	data := []byte("id,title\n1,hello\n,\n2,world\n")

	result, err := p.Parse(data, model.EntityIncident, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.SkippedRows)
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Records, 2)
}

func TestCSVParser_SourceIDFallback(t *testing.T) {
	p := parser.NewCSVParser()

	// Identifier columns match case-insensitively.
	result, err := p.Parse([]byte("ID,title\nX-9,hello"), model.EntityIncident, nil)
	require.NoError(t, err)
	assert.Equal(t, "X-9", result.Records[0].SourceID)

	// Without an identifier column the row number stands in.
	result, err = p.Parse([]byte("title,status\nhello,new\nworld,open"), model.EntityIncident, nil)
	require.NoError(t, err)
	assert.Equal(t, "row-1", result.Records[0].SourceID)
	assert.Equal(t, "row-2", result.Records[1].SourceID)
}

func TestCSVParser_EmptyFile(t *testing.T) {
	p := parser.NewCSVParser()
	_, err := p.Parse([]byte(""), model.EntityIncident, nil)
	assert.Error(t, err)
}

func TestCSVParser_BOMStripped(t *testing.T) {
	p := parser.NewCSVParser()
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,title\n1,hello")...)

	result, err := p.Parse(data, model.EntityIncident, nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "1", result.Records[0].SourceID)
	assert.Equal(t, "hello", result.Records[0].Data["title"])
}

func TestCSVParser_Validate(t *testing.T) {
	p := parser.NewCSVParser()

	v := p.Validate([]byte("id,title\n1,hello\n,\n2,world"))
	assert.True(t, v.Valid)
	assert.Equal(t, parser.FormatDelimited, v.Format)
	assert.Equal(t, 2, v.RecordCount)

	v = p.Validate([]byte("id,title\n"))
	assert.False(t, v.Valid)
	require.NotEmpty(t, v.Errors)
	assert.Contains(t, v.Errors[0], "no data rows")

	v = p.Validate([]byte(""))
	assert.False(t, v.Valid)
	assert.Contains(t, v.Errors[0], "no header row")
}
