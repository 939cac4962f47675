package parser

import (
	"encoding/json"
	"fmt"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/support/util/exception"
)

const remedyModule = "parser.remedy"

// RemedyParser parses BMC Remedy-style flat exports. The primary container is
// XML (one entry element per record, fields as attributes or child elements);
// JSON exports (a bare array or an object wrapping the array under "entries")
// are accepted as well.
type RemedyParser struct{}

// Verify that RemedyParser implements the Parser interface.
var _ Parser = (*RemedyParser)(nil)

// NewRemedyParser creates a new RemedyParser.
func NewRemedyParser() *RemedyParser {
	return &RemedyParser{}
}

// Parse extracts records from a Remedy export buffer.
func (p *RemedyParser) Parse(data []byte, entityType model.EntityType, opts *Options) (*model.ParseResult, error) {
	var entries []interface{}
	var err error

	switch resolveFormat(data, opts) {
	case FormatJSON:
		entries, err = remedyJSONEntries(data)
		if err != nil {
			return nil, exception.NewMigrationError(remedyModule, "failed to parse Remedy JSON export", err, false, false)
		}
	default:
		_, entries, err = decodeXMLRecords(data)
		if err != nil {
			return nil, exception.NewMigrationError(remedyModule, "failed to parse Remedy XML export", err, false, false)
		}
	}

	result := &model.ParseResult{TotalRows: len(entries), Errors: make([]string, 0)}
	for _, entry := range entries {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			result.SkippedRows++
			continue
		}
		result.Records = append(result.Records, p.extractRecord(obj, entityType))
	}
	return result, nil
}

// remedyJSONEntries locates the entry array in a decoded Remedy JSON export.
func remedyJSONEntries(data []byte) ([]interface{}, error) {
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	switch v := decoded.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		if inner, ok := v["entries"]; ok {
			if arr, ok := inner.([]interface{}); ok {
				return arr, nil
			}
		}
		return nil, fmt.Errorf("no 'entries' array found in export object")
	default:
		return nil, fmt.Errorf("export is neither an array nor an object")
	}
}

// extractRecord converts one flat Remedy entry into a ParsedRecord.
func (p *RemedyParser) extractRecord(obj map[string]interface{}, entityType model.EntityType) *model.ParsedRecord {
	data := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		data[k] = v
	}

	sourceID := firstString(data,
		"Entry ID", "Entry_ID", "entryId",
		"Incident Number", "Incident_Number",
		"Request ID", "Request_ID")

	return &model.ParsedRecord{
		SourceID:   sourceID,
		EntityType: entityType,
		Data:       data,
		Metadata: model.RecordMetadata{
			CreatedAt: firstString(data, "Submit Date", "Submit_Date", "Create Date", "Create_Date"),
			UpdatedAt: firstString(data, "Last Modified Date", "Last_Modified_Date", "Modified Date", "Modified_Date"),
			CreatedBy: firstString(data, "Submitter"),
			UpdatedBy: firstString(data, "Last Modified By", "Last_Modified_By"),
		},
	}
}

// Validate performs a cheap structural check of a Remedy export buffer.
func (p *RemedyParser) Validate(data []byte) *model.FileValidation {
	format := DetectFormat(data)
	v := &model.FileValidation{Format: format, Errors: make([]string, 0)}

	switch format {
	case FormatJSON:
		entries, err := remedyJSONEntries(data)
		if err != nil {
			v.Errors = append(v.Errors, err.Error())
			return v
		}
		v.RecordCount = len(entries)
	case FormatXML:
		_, entries, err := decodeXMLRecords(data)
		if err != nil {
			v.Errors = append(v.Errors, err.Error())
			return v
		}
		v.RecordCount = len(entries)
	default:
		v.Errors = append(v.Errors, fmt.Sprintf("unsupported container format for Remedy export: %s", format))
		return v
	}

	if v.RecordCount == 0 {
		v.Errors = append(v.Errors, "export contains no entries")
		return v
	}
	v.Valid = true
	return v
}
