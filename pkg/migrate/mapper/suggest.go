package mapper

import (
	"strings"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/validator"
)

// headerSynonyms maps normalized column headers to known target fields.
// Keys are lowercase with spaces and dashes collapsed to underscores.
var headerSynonyms = map[string]string{
	// Title
	"title":             "title",
	"summary":           "title",
	"short_description": "title",
	"subject":           "title",

	// Status
	"status": "status",
	"state":  "status",

	// Priority / urgency / impact
	"priority": "priority",
	"urgency":  "urgency",
	"impact":   "impact",

	// Description
	"description": "description",
	"details":     "description",
	"notes":       "description",

	// Assignment
	"assigned_to":    "assigned_to_email",
	"assignee":       "assigned_to_email",
	"assigned_group": "assignment_group",

	// Identity
	"email":         "email",
	"email_address": "email",
	"mail":          "email",
	"username":      "username",
	"user_name":     "username",
	"login":         "username",
	"login_id":      "username",
	"first_name":    "first_name",
	"last_name":     "last_name",
	"display_name":  "display_name",

	// Organization
	"name":       "name",
	"department": "department",
	"category":   "category",
	"manager":    "manager_name",

	// Flags
	"active":  "active",
	"enabled": "active",
}

// dateTargets resolves a date-like header to its target date field based on
// verb stems in the header name.
var dateTargets = []struct {
	stem   string
	target string
}{
	{"creat", "created_at"},
	{"open", "created_at"},
	{"updat", "updated_at"},
	{"modif", "updated_at"},
	{"resolv", "resolved_at"},
	{"clos", "closed_at"},
	{"due", "due_at"},
}

// SuggestMappings heuristically matches column headers to known target fields
// for the entity type. Matching is case-insensitive. Suggestions for required
// target fields are marked Required; optional matches are not. Headers with
// no plausible match yield no suggestion.
func (m *Mapper) SuggestMappings(headers []string, entityType model.EntityType) []model.FieldMapping {
	required := make(map[string]bool)
	for _, f := range validator.RequiredFields(entityType) {
		required[f] = true
	}

	suggestions := make([]model.FieldMapping, 0, len(headers))
	seen := make(map[string]bool)

	for _, header := range headers {
		normalized := normalizeHeader(header)
		if normalized == "" {
			continue
		}

		target, transformation := matchHeader(normalized)
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true

		suggestions = append(suggestions, model.FieldMapping{
			SourceField:    header,
			TargetField:    target,
			Required:       required[target],
			Transformation: transformation,
		})
	}
	return suggestions
}

// matchHeader resolves one normalized header to a target field, preferring
// exact synonyms over the date heuristics.
func matchHeader(normalized string) (string, model.Transformation) {
	if target, ok := headerSynonyms[normalized]; ok {
		return target, ""
	}
	if strings.Contains(normalized, "date") || strings.Contains(normalized, "_at") {
		for _, dt := range dateTargets {
			if strings.Contains(normalized, dt.stem) {
				return dt.target, model.TransformDate
			}
		}
		return normalized, model.TransformDate
	}
	return "", ""
}

// normalizeHeader lowercases a header and collapses spaces and dashes to
// underscores so "Created At", "created-at" and "CREATED_AT" all compare equal.
func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}
