package parser

import (
	"encoding/json"
	"fmt"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/support/util/exception"
)

const jiraModule = "parser.jira"

// JiraParser parses Jira-style JSON exports: a bare array of issues or an
// object wrapping the array under "issues". Issue fields stay nested under
// "fields" so mappings address them via dot-paths (e.g. fields.assignee.emailAddress).
type JiraParser struct{}

// Verify that JiraParser implements the Parser interface.
var _ Parser = (*JiraParser)(nil)

// NewJiraParser creates a new JiraParser.
func NewJiraParser() *JiraParser {
	return &JiraParser{}
}

// Parse extracts records from a Jira export buffer.
func (p *JiraParser) Parse(data []byte, entityType model.EntityType, opts *Options) (*model.ParseResult, error) {
	entries, err := jiraEntries(data)
	if err != nil {
		return nil, exception.NewMigrationError(jiraModule, "failed to parse Jira export", err, false, false)
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

// jiraEntries locates the issue array in a decoded Jira export.
func jiraEntries(data []byte) ([]interface{}, error) {
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	switch v := decoded.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		if inner, ok := v["issues"]; ok {
			if arr, ok := inner.([]interface{}); ok {
				return arr, nil
			}
		}
		return nil, fmt.Errorf("no 'issues' array found in export object")
	default:
		return nil, fmt.Errorf("export is neither an array nor an object")
	}
}

// extractRecord converts one raw issue object into a ParsedRecord.
func (p *JiraParser) extractRecord(obj map[string]interface{}, entityType model.EntityType) *model.ParsedRecord {
	data := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		data[k] = v
	}

	sourceID := firstString(data, "key", "id")

	var fields map[string]interface{}
	if f, ok := data["fields"].(map[string]interface{}); ok {
		fields = f
	}

	meta := model.RecordMetadata{}
	if fields != nil {
		meta.CreatedAt = firstString(fields, "created")
		meta.UpdatedAt = firstString(fields, "updated")
		if creator, ok := fields["creator"].(map[string]interface{}); ok {
			meta.CreatedBy = firstString(creator, "emailAddress", "displayName", "name")
		} else if reporter, ok := fields["reporter"].(map[string]interface{}); ok {
			meta.CreatedBy = firstString(reporter, "emailAddress", "displayName", "name")
		}
	}

	return &model.ParsedRecord{
		SourceID:   sourceID,
		EntityType: entityType,
		Data:       data,
		Metadata:   meta,
	}
}

// Validate performs a cheap structural check of a Jira export buffer.
func (p *JiraParser) Validate(data []byte) *model.FileValidation {
	v := &model.FileValidation{Format: DetectFormat(data), Errors: make([]string, 0)}
	if v.Format != FormatJSON {
		v.Errors = append(v.Errors, fmt.Sprintf("unsupported container format for Jira export: %s", v.Format))
		return v
	}
	entries, err := jiraEntries(data)
	if err != nil {
		v.Errors = append(v.Errors, err.Error())
		return v
	}
	v.RecordCount = len(entries)
	if v.RecordCount == 0 {
		v.Errors = append(v.Errors, "export contains no issues")
		return v
	}
	v.Valid = true
	return v
}
