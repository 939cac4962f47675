package parser

import (
	"encoding/json"
	"fmt"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/support/util/exception"
)

const serviceNowModule = "parser.servicenow"

// ServiceNowParser parses ServiceNow-style table exports.
// It accepts JSON (a bare array of objects, or an object wrapping the array
// under "records" or "result") and the classic XML unload format (record
// elements under a single root).
type ServiceNowParser struct{}

// Verify that ServiceNowParser implements the Parser interface.
var _ Parser = (*ServiceNowParser)(nil)

// NewServiceNowParser creates a new ServiceNowParser.
func NewServiceNowParser() *ServiceNowParser {
	return &ServiceNowParser{}
}

// Parse extracts records from a ServiceNow export buffer.
func (p *ServiceNowParser) Parse(data []byte, entityType model.EntityType, opts *Options) (*model.ParseResult, error) {
	switch resolveFormat(data, opts) {
	case FormatXML:
		return p.parseXML(data, entityType)
	default:
		return p.parseJSON(data, entityType)
	}
}

func (p *ServiceNowParser) parseJSON(data []byte, entityType model.EntityType) (*model.ParseResult, error) {
	entries, err := serviceNowEntries(data)
	if err != nil {
		return nil, exception.NewMigrationError(serviceNowModule, "failed to parse ServiceNow JSON export", err, false, false)
	}

	result := &model.ParseResult{TotalRows: len(entries), Errors: make([]string, 0)}
	for _, entry := range entries {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			// Non-object array entries (null, scalar) are skipped, not errors.
			result.SkippedRows++
			continue
		}
		result.Records = append(result.Records, p.extractRecord(obj, entityType))
	}
	return result, nil
}

func (p *ServiceNowParser) parseXML(data []byte, entityType model.EntityType) (*model.ParseResult, error) {
	_, entries, err := decodeXMLRecords(data)
	if err != nil {
		return nil, exception.NewMigrationError(serviceNowModule, "failed to parse ServiceNow XML export", err, false, false)
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

// serviceNowEntries locates the record array in a decoded JSON export:
// a bare array, or an object with a "records" or "result" wrapper array.
func serviceNowEntries(data []byte) ([]interface{}, error) {
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	switch v := decoded.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		for _, wrapper := range []string{"records", "result"} {
			if inner, ok := v[wrapper]; ok {
				if arr, ok := inner.([]interface{}); ok {
					return arr, nil
				}
				// A single wrapped object is treated as a one-record export.
				if obj, ok := inner.(map[string]interface{}); ok {
					return []interface{}{obj}, nil
				}
			}
		}
		return nil, fmt.Errorf("no 'records' or 'result' array found in export object")
	default:
		return nil, fmt.Errorf("export is neither an array nor an object")
	}
}

// extractRecord flattens one raw ServiceNow object into a ParsedRecord.
// Reference-typed fields (objects shaped like {value, display_value} or
// {link}) are flattened: the raw value becomes data[field], the display value
// is additionally exposed as data[field+"_display"], and a link-shaped
// reference becomes the link string itself. Other nested maps are preserved
// so the mapper can address them via dot-paths.
func (p *ServiceNowParser) extractRecord(obj map[string]interface{}, entityType model.EntityType) *model.ParsedRecord {
	data := make(map[string]interface{}, len(obj))
	for field, raw := range obj {
		ref, ok := raw.(map[string]interface{})
		if !ok {
			data[field] = raw
			continue
		}
		if value, hasValue := ref["value"]; hasValue {
			data[field] = value
			if display, hasDisplay := ref["display_value"]; hasDisplay && display != nil {
				data[field+"_display"] = display
			}
			continue
		}
		if link, hasLink := ref["link"]; hasLink && len(ref) == 1 {
			data[field] = link
			continue
		}
		data[field] = ref
	}

	sourceID := firstString(data, "sys_id", "number")

	return &model.ParsedRecord{
		SourceID:   sourceID,
		EntityType: entityType,
		Data:       data,
		Metadata: model.RecordMetadata{
			// opened_at is the documented fallback when the audit field is absent.
			CreatedAt: firstString(data, "sys_created_on", "opened_at"),
			UpdatedAt: firstString(data, "sys_updated_on"),
			CreatedBy: firstString(data, "sys_created_by"),
			UpdatedBy: firstString(data, "sys_updated_by"),
		},
	}
}

// Validate performs a cheap structural check of a ServiceNow export buffer.
func (p *ServiceNowParser) Validate(data []byte) *model.FileValidation {
	format := DetectFormat(data)
	v := &model.FileValidation{Format: format, Errors: make([]string, 0)}

	switch format {
	case FormatXML:
		_, entries, err := decodeXMLRecords(data)
		if err != nil {
			v.Errors = append(v.Errors, err.Error())
			return v
		}
		v.RecordCount = len(entries)
	case FormatJSON:
		entries, err := serviceNowEntries(data)
		if err != nil {
			v.Errors = append(v.Errors, err.Error())
			return v
		}
		v.RecordCount = len(entries)
	default:
		v.Errors = append(v.Errors, fmt.Sprintf("unsupported container format for ServiceNow export: %s", format))
		return v
	}

	if v.RecordCount == 0 {
		v.Errors = append(v.Errors, "export contains no records")
		return v
	}
	v.Valid = true
	return v
}
