// Package validator applies entity-specific required-field and value-range
// checks to already-mapped data. It is independent of the source format and
// runs after field mapping.
package validator

import (
	"fmt"
	"strconv"
	"strings"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
)

// requiredFields lists the target fields every entity type must carry.
// Built-in default mappings are required to cover these fields; user-supplied
// configs are not, and surface errors at mapping/validation time instead.
var requiredFields = map[model.EntityType][]string{
	model.EntityIncident:    {"title", "status", "priority"},
	model.EntityRequest:     {"title", "status"},
	model.EntityChange:      {"title", "status"},
	model.EntityProblem:     {"title", "status"},
	model.EntityUser:        {"email"},
	model.EntityGroup:       {"name"},
	model.EntityApplication: {"name"},
}

// Result is the outcome of validating one mapped record.
type Result struct {
	Valid  bool
	Errors []string
}

// Validator checks mapped records against per-entity rules.
// It is stateless and safe for concurrent use.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// RequiredFields returns the target fields treated as required for the entity
// type. Unknown entity types yield an empty list.
func RequiredFields(entityType model.EntityType) []string {
	fields := requiredFields[entityType]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// Validate applies required-field presence and domain checks to mapped data.
func (v *Validator) Validate(targetData map[string]interface{}, entityType model.EntityType) Result {
	result := Result{Valid: true, Errors: make([]string, 0)}

	for _, field := range requiredFields[entityType] {
		value, ok := targetData[field]
		if !ok || value == nil || isBlank(value) {
			result.Errors = append(result.Errors, fmt.Sprintf("required field '%s' is missing", field))
		}
	}

	if priority, ok := targetData["priority"]; ok && priority != nil {
		if n, err := toNumber(priority); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("priority '%v' is not numeric", priority))
		} else if n < 1 || n > 4 {
			result.Errors = append(result.Errors, fmt.Sprintf("priority %v is out of range 1-4", priority))
		}
	}

	if entityType == model.EntityUser {
		if email, ok := targetData["email"].(string); ok && email != "" && !strings.Contains(email, "@") {
			result.Errors = append(result.Errors, fmt.Sprintf("email '%s' is not a valid address", email))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// isBlank reports whether a present value is an empty string.
func isBlank(value interface{}) bool {
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) == ""
}

// toNumber coerces a scalar value to a float64.
func toNumber(value interface{}) (float64, error) {
	switch t := value.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, fmt.Errorf("not a number: %T", value)
	}
}
