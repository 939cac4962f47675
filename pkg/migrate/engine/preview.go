package engine

import (
	"fmt"
	"sort"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/validator"
)

// buildPreview maps up to sampleSize records without persisting anything and
// derives the unmapped source fields, suggested mappings and human-readable
// recommendations for the dry-run response.
func (o *Orchestrator) buildPreview(
	parsed *model.ParseResult,
	config model.FieldMappingConfig,
	entityType model.EntityType,
	sampleSize int,
) *model.MigrationPreview {
	preview := &model.MigrationPreview{
		SampleRecords:   make([]*model.MappedRecord, 0, sampleSize),
		TotalRecords:    len(parsed.Records),
		SkippedRows:     parsed.SkippedRows,
		Recommendations: make([]string, 0),
	}

	sampleErrors := 0
	for i, record := range parsed.Records {
		if i >= sampleSize {
			break
		}
		mapped := o.mapper.MapRecord(record, config, i)
		if mapped.HasErrors() {
			sampleErrors++
		}
		preview.SampleRecords = append(preview.SampleRecords, mapped)
	}

	preview.UnmappedFields = unmappedFields(parsed.Records, config, sampleSize)
	preview.SuggestedMappings = filterSuggestions(
		o.mapper.SuggestMappings(preview.UnmappedFields, entityType), config)

	preview.Recommendations = append(preview.Recommendations,
		missingRequiredRecommendations(config, entityType, validator.RequiredFields(entityType))...)
	if len(preview.UnmappedFields) > 0 {
		preview.Recommendations = append(preview.Recommendations,
			fmt.Sprintf("%d source fields are not covered by the mapping configuration", len(preview.UnmappedFields)))
	}
	if parsed.SkippedRows > 0 {
		preview.Recommendations = append(preview.Recommendations,
			fmt.Sprintf("%d source rows were skipped during parsing and will not be migrated", parsed.SkippedRows))
	}
	if sampleErrors > 0 {
		preview.Recommendations = append(preview.Recommendations,
			fmt.Sprintf("%d of %d sampled records produced mapping errors", sampleErrors, len(preview.SampleRecords)))
	}

	return preview
}

// unmappedFields collects the source field paths seen in the sampled records
// that no configured mapping reads, sorted for stable output.
func unmappedFields(records []*model.ParsedRecord, config model.FieldMappingConfig, sampleSize int) []string {
	mappedSources := make(map[string]bool, len(config.FieldMappings))
	for _, fm := range config.FieldMappings {
		mappedSources[fm.SourceField] = true
	}

	seen := make(map[string]bool)
	for i, record := range records {
		if i >= sampleSize {
			break
		}
		for _, key := range flattenKeys(record.Data, "") {
			if !mappedSources[key] {
				seen[key] = true
			}
		}
	}

	fields := make([]string, 0, len(seen))
	for key := range seen {
		fields = append(fields, key)
	}
	sort.Strings(fields)
	return fields
}

// flattenKeys lists the dot-separated paths of all leaf values in a record.
// Nested maps contribute their leaves, matching the paths the mapper resolves.
func flattenKeys(data map[string]interface{}, prefix string) []string {
	keys := make([]string, 0, len(data))
	for key, value := range data {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok && len(nested) > 0 {
			keys = append(keys, flattenKeys(nested, path)...)
			continue
		}
		keys = append(keys, path)
	}
	return keys
}

// filterSuggestions drops suggested mappings whose target is already written
// by the configured mappings.
func filterSuggestions(suggestions []model.FieldMapping, config model.FieldMappingConfig) []model.FieldMapping {
	mappedTargets := make(map[string]bool, len(config.FieldMappings))
	for _, fm := range config.FieldMappings {
		mappedTargets[fm.TargetField] = true
	}
	kept := make([]model.FieldMapping, 0, len(suggestions))
	for _, s := range suggestions {
		if !mappedTargets[s.TargetField] {
			kept = append(kept, s)
		}
	}
	return kept
}

// missingRequiredRecommendations flags required target fields that no mapping
// writes and that carry no default, since every record would fail validation.
func missingRequiredRecommendations(config model.FieldMappingConfig, entityType model.EntityType, required []string) []string {
	covered := make(map[string]bool, len(config.FieldMappings))
	for _, fm := range config.FieldMappings {
		covered[fm.TargetField] = true
	}
	recs := make([]string, 0)
	for _, field := range required {
		if !covered[field] {
			recs = append(recs, fmt.Sprintf("required field '%s' for entity type '%s' is not produced by any mapping", field, entityType))
		}
	}
	return recs
}
