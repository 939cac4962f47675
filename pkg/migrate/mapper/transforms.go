package mapper

import (
	"fmt"
	"strings"
	"time"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
)

// dateLayouts are the source timestamp layouts accepted by the date
// transformation, tried in order. Output is always ISO-8601 (RFC 3339).
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"02-01-2006",
}

// booleanVocabulary is the fixed case-insensitive vocabulary accepted by the
// boolean transformation.
var booleanVocabulary = map[string]bool{
	"true": true, "1": true, "yes": true, "y": true, "active": true, "enabled": true,
	"false": false, "0": false, "no": false, "n": false, "inactive": false, "disabled": false,
}

// applyTransformation applies a named transformation to a present value.
// uppercase/lowercase/trim are total over the string form of any value;
// date and boolean return an error on input outside their accepted domain.
func applyTransformation(t model.Transformation, sourceField string, value interface{}) (interface{}, error) {
	switch t {
	case model.TransformUppercase:
		return strings.ToUpper(coerceString(value)), nil
	case model.TransformLowercase:
		return strings.ToLower(coerceString(value)), nil
	case model.TransformTrim:
		return strings.TrimSpace(coerceString(value)), nil
	case model.TransformDate:
		return transformDate(sourceField, value)
	case model.TransformBoolean:
		return transformBoolean(sourceField, value)
	default:
		return nil, fmt.Errorf("unknown transformation '%s' for field '%s'", t, sourceField)
	}
}

// transformDate parses a source timestamp and renders it as ISO-8601.
func transformDate(sourceField string, value interface{}) (interface{}, error) {
	if ts, ok := value.(time.Time); ok {
		return ts.Format(time.RFC3339), nil
	}
	raw := strings.TrimSpace(coerceString(value))
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format(time.RFC3339), nil
		}
	}
	return nil, fmt.Errorf("field '%s': cannot parse '%s' as a date", sourceField, raw)
}

// transformBoolean maps the fixed vocabulary onto a bool.
func transformBoolean(sourceField string, value interface{}) (interface{}, error) {
	if b, ok := value.(bool); ok {
		return b, nil
	}
	raw := strings.ToLower(strings.TrimSpace(coerceString(value)))
	if b, ok := booleanVocabulary[raw]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("field '%s': cannot interpret '%v' as a boolean", sourceField, value)
}

// coerceString renders any scalar value as a string.
func coerceString(value interface{}) string {
	switch t := value.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
