// Package mapper turns ParsedRecords into target-schema records by applying a
// user-configurable FieldMappingConfig with type coercion and defaulting.
// Mapping never throws: every failure is collected on the MappedRecord so the
// orchestrator decides whether to continue.
package mapper

import (
	"fmt"
	"strings"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/validator"
)

// Mapper maps parsed source records onto the normalized target schema.
// It is stateless and safe for concurrent use across independent jobs.
type Mapper struct {
	validator *validator.Validator
}

// NewMapper creates a new Mapper.
func NewMapper(v *validator.Validator) *Mapper {
	return &Mapper{validator: v}
}

// MapRecord applies every FieldMapping in config, in list order, to one
// ParsedRecord. It always returns a MappedRecord; individual mapping failures
// are accumulated as errors/warnings, never raised.
func (m *Mapper) MapRecord(record *model.ParsedRecord, config model.FieldMappingConfig, rowIndex int) *model.MappedRecord {
	mapped := model.NewMappedRecord()
	if record == nil {
		mapped.AddError("", model.ErrorKindValidation, fmt.Sprintf("row %d: record is nil", rowIndex))
		return mapped
	}

	for _, fm := range config.FieldMappings {
		value, present := resolvePath(record.Data, fm.SourceField)

		if !present {
			switch {
			case fm.DefaultValue != nil:
				// The default is used as-is; transformations are not re-applied.
				mapped.TargetData[fm.TargetField] = fm.DefaultValue
				mapped.AddWarning(fmt.Sprintf("row %d: field '%s' missing, default value applied to '%s'", rowIndex, fm.SourceField, fm.TargetField))
			case fm.Required:
				mapped.AddError(fm.TargetField, model.ErrorKindValidation,
					fmt.Sprintf("row %d: required field '%s' is missing and no default is configured", rowIndex, fm.SourceField))
			}
			// Optional without default: skipped silently.
			continue
		}

		transformed, err := m.transform(fm, value)
		if err != nil {
			mapped.AddError(fm.TargetField, model.ErrorKindTransformation,
				fmt.Sprintf("row %d: %v", rowIndex, err))
			continue
		}
		mapped.TargetData[fm.TargetField] = transformed
	}

	return mapped
}

// transform applies the mapping's transformation to a present value.
// A CustomTransform wins over the named transformation.
func (m *Mapper) transform(fm model.FieldMapping, value interface{}) (interface{}, error) {
	if fm.CustomTransform != nil {
		out, err := fm.CustomTransform(value)
		if err != nil {
			return nil, fmt.Errorf("custom transform for '%s' failed: %w", fm.SourceField, err)
		}
		return out, nil
	}
	if fm.Transformation == "" {
		return value, nil
	}
	return applyTransformation(fm.Transformation, fm.SourceField, value)
}

// ValidateMappedData applies entity-specific required-field presence and
// domain checks to already-mapped data. It is independent of and run after
// MapRecord.
func (m *Mapper) ValidateMappedData(targetData map[string]interface{}, entityType model.EntityType) validator.Result {
	return m.validator.Validate(targetData, entityType)
}

// resolvePath resolves a dot-path ("a.b.c") against nested record data.
// A nil anywhere on the path or a missing leaf resolves to absent; absence is
// not an error by itself.
func resolvePath(data map[string]interface{}, path string) (interface{}, bool) {
	if data == nil || path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	var current interface{} = data
	for _, segment := range segments {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		next, exists := node[segment]
		if !exists || next == nil {
			return nil, false
		}
		current = next
	}
	return current, true
}
