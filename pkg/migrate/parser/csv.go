package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/support/util/exception"
)

const csvModule = "parser.csv"

// delimiterCandidates are tried in order during delimiter sniffing.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// CSVParser parses generic delimited exports: a header row followed by data
// rows. The delimiter is sniffed from the header line (comma, semicolon, tab
// or pipe) unless forced via Options.Delimiter.
type CSVParser struct{}

// Verify that CSVParser implements the Parser interface.
var _ Parser = (*CSVParser)(nil)

// NewCSVParser creates a new CSVParser.
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// sniffDelimiter picks the candidate delimiter occurring most often in the
// first line of the buffer. Comma wins ties.
func sniffDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	best := ','
	bestCount := 0
	for _, candidate := range delimiterCandidates {
		count := bytes.Count(line, []byte(string(candidate)))
		if count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	return best
}

// Parse extracts records from a delimited export buffer.
func (p *CSVParser) Parse(data []byte, entityType model.EntityType, opts *Options) (*model.ParseResult, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	delimiter := sniffDelimiter(data)
	if opts != nil && opts.Delimiter != 0 {
		delimiter = opts.Delimiter
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	// Column-count mismatches are handled below by padding/truncating.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, exception.NewMigrationError(csvModule, "empty file: no header row found", nil, false, false)
		}
		return nil, exception.NewMigrationError(csvModule, "failed to read header row", err, false, false)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	headerCount := len(headers)

	result := &model.ParseResult{Errors: make([]string, 0)}
	rowNum := 0 // data rows, 1-indexed; the header is row 0

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		result.TotalRows++

		if err != nil {
			result.SkippedRows++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		if allEmpty(row) {
			result.SkippedRows++
			continue
		}

		if len(row) != headerCount {
			if len(row) < headerCount {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d has %d columns, expected %d; padding with empty values", rowNum, len(row), headerCount))
				padded := make([]string, headerCount)
				copy(padded, row)
				row = padded
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d has %d columns, expected %d; truncating extra columns", rowNum, len(row), headerCount))
				row = row[:headerCount]
			}
		}

		data := make(map[string]interface{}, headerCount)
		for i, h := range headers {
			data[h] = row[i]
		}
		result.Records = append(result.Records, p.extractRecord(data, entityType, rowNum))
	}

	return result, nil
}

// allEmpty reports whether every field in the row is blank.
func allEmpty(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// extractRecord converts one delimited row into a ParsedRecord.
// The source identifier comes from a well-known identifier column when one
// exists; otherwise the row number is used.
func (p *CSVParser) extractRecord(data map[string]interface{}, entityType model.EntityType, rowNum int) *model.ParsedRecord {
	sourceID := firstStringFold(data, "id", "sys_id", "key", "number")
	if sourceID == "" {
		sourceID = fmt.Sprintf("row-%d", rowNum)
	}

	return &model.ParsedRecord{
		SourceID:   sourceID,
		EntityType: entityType,
		Data:       data,
		Metadata: model.RecordMetadata{
			CreatedAt: firstStringFold(data, "created_at", "created"),
			UpdatedAt: firstStringFold(data, "updated_at", "updated"),
			CreatedBy: firstStringFold(data, "created_by"),
			UpdatedBy: firstStringFold(data, "updated_by"),
		},
	}
}

// firstStringFold is firstString with case-insensitive key matching, for
// delimited files whose header casing is not under our control.
func firstStringFold(data map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		for k, v := range data {
			if strings.EqualFold(k, key) {
				if s := stringValue(v); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// Validate performs a cheap structural check of a delimited export buffer.
func (p *CSVParser) Validate(data []byte) *model.FileValidation {
	v := &model.FileValidation{Format: FormatDelimited, Errors: make([]string, 0)}

	trimmed := bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	reader := csv.NewReader(bytes.NewReader(trimmed))
	reader.Comma = sniffDelimiter(trimmed)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if _, err := reader.Read(); err != nil {
		v.Errors = append(v.Errors, "empty file: no header row found")
		return v
	}
	count := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		if !allEmpty(row) {
			count++
		}
	}
	v.RecordCount = count
	if count == 0 {
		v.Errors = append(v.Errors, "file contains no data rows")
		return v
	}
	v.Valid = true
	return v
}
