package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
)

func findSuggestion(suggestions []model.FieldMapping, target string) (model.FieldMapping, bool) {
	for _, s := range suggestions {
		if s.TargetField == target {
			return s, true
		}
	}
	return model.FieldMapping{}, false
}

func TestSuggestMappings_CaseInsensitiveSynonyms(t *testing.T) {
	m := newTestMapper()

	suggestions := m.SuggestMappings([]string{"PRIORITY", "Status", "CREATED_AT"}, model.EntityIncident)
	require.Len(t, suggestions, 3)

	priority, ok := findSuggestion(suggestions, "priority")
	require.True(t, ok)
	assert.Equal(t, "PRIORITY", priority.SourceField)
	assert.True(t, priority.Required)

	status, ok := findSuggestion(suggestions, "status")
	require.True(t, ok)
	assert.Equal(t, "Status", status.SourceField)
	assert.True(t, status.Required)

	created, ok := findSuggestion(suggestions, "created_at")
	require.True(t, ok)
	assert.Equal(t, model.TransformDate, created.Transformation)
	assert.False(t, created.Required)
}

func TestSuggestMappings_SynonymsAndDateStems(t *testing.T) {
	m := newTestMapper()

	suggestions := m.SuggestMappings([]string{
		"Short Description", // synonym for title after normalization
		"Assigned To",
		"Resolved Date",
		"Closed-At",
	}, model.EntityIncident)

	title, ok := findSuggestion(suggestions, "title")
	require.True(t, ok)
	assert.Equal(t, "Short Description", title.SourceField)
	assert.True(t, title.Required)

	_, ok = findSuggestion(suggestions, "assigned_to_email")
	assert.True(t, ok)

	resolved, ok := findSuggestion(suggestions, "resolved_at")
	require.True(t, ok)
	assert.Equal(t, model.TransformDate, resolved.Transformation)

	closed, ok := findSuggestion(suggestions, "closed_at")
	require.True(t, ok)
	assert.Equal(t, model.TransformDate, closed.Transformation)
}

func TestSuggestMappings_SkipsUnknownAndDuplicateTargets(t *testing.T) {
	m := newTestMapper()

	suggestions := m.SuggestMappings([]string{
		"summary",
		"subject", // would also map to title; first wins
		"fnord_custom_column",
		"",
	}, model.EntityIncident)

	require.Len(t, suggestions, 1)
	assert.Equal(t, "summary", suggestions[0].SourceField)
	assert.Equal(t, "title", suggestions[0].TargetField)
}

func TestSuggestMappings_RequiredDependsOnEntityType(t *testing.T) {
	m := newTestMapper()

	suggestions := m.SuggestMappings([]string{"email"}, model.EntityUser)
	require.Len(t, suggestions, 1)
	assert.True(t, suggestions[0].Required)

	suggestions = m.SuggestMappings([]string{"email"}, model.EntityIncident)
	require.Len(t, suggestions, 1)
	assert.False(t, suggestions[0].Required)
}
