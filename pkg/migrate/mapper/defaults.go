package mapper

import (
	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
)

// defaultMappings holds the built-in FieldMappingConfig table, one per
// supported (source system, entity type) pair. Built-ins cover every field
// the validator treats as required for the entity type; required fields with
// volatile source values carry defaults so sparse exports still import.
var defaultMappings = map[model.SourceSystem]map[model.EntityType][]model.FieldMapping{
	model.SourceServiceNow: {
		model.EntityIncident: {
			{SourceField: "short_description", TargetField: "title", Required: true},
			{SourceField: "state", TargetField: "status", Required: true, DefaultValue: "new"},
			{SourceField: "priority", TargetField: "priority", Required: true, DefaultValue: "3"},
			{SourceField: "description", TargetField: "description"},
			{SourceField: "category", TargetField: "category"},
			{SourceField: "urgency", TargetField: "urgency"},
			{SourceField: "impact", TargetField: "impact"},
			{SourceField: "number", TargetField: "source_ref"},
			{SourceField: "assigned_to_display", TargetField: "assignee_name"},
			{SourceField: "opened_at", TargetField: "created_at", Transformation: model.TransformDate},
			{SourceField: "sys_updated_on", TargetField: "updated_at", Transformation: model.TransformDate},
		},
		model.EntityRequest: {
			{SourceField: "short_description", TargetField: "title", Required: true},
			{SourceField: "state", TargetField: "status", Required: true, DefaultValue: "new"},
			{SourceField: "priority", TargetField: "priority"},
			{SourceField: "description", TargetField: "description"},
			{SourceField: "number", TargetField: "source_ref"},
			{SourceField: "opened_at", TargetField: "created_at", Transformation: model.TransformDate},
		},
		model.EntityChange: {
			{SourceField: "short_description", TargetField: "title", Required: true},
			{SourceField: "state", TargetField: "status", Required: true, DefaultValue: "new"},
			{SourceField: "priority", TargetField: "priority"},
			{SourceField: "description", TargetField: "description"},
			{SourceField: "number", TargetField: "source_ref"},
			{SourceField: "start_date", TargetField: "start_at", Transformation: model.TransformDate},
			{SourceField: "end_date", TargetField: "end_at", Transformation: model.TransformDate},
		},
		model.EntityProblem: {
			{SourceField: "short_description", TargetField: "title", Required: true},
			{SourceField: "state", TargetField: "status", Required: true, DefaultValue: "new"},
			{SourceField: "priority", TargetField: "priority"},
			{SourceField: "description", TargetField: "description"},
			{SourceField: "number", TargetField: "source_ref"},
		},
		model.EntityUser: {
			{SourceField: "email", TargetField: "email", Required: true},
			{SourceField: "user_name", TargetField: "username"},
			{SourceField: "first_name", TargetField: "first_name"},
			{SourceField: "last_name", TargetField: "last_name"},
			{SourceField: "title", TargetField: "job_title"},
			{SourceField: "department_display", TargetField: "department"},
			{SourceField: "active", TargetField: "active", Transformation: model.TransformBoolean},
		},
		model.EntityGroup: {
			{SourceField: "name", TargetField: "name", Required: true},
			{SourceField: "description", TargetField: "description"},
			{SourceField: "manager_display", TargetField: "manager_name"},
			{SourceField: "active", TargetField: "active", Transformation: model.TransformBoolean},
		},
		model.EntityApplication: {
			{SourceField: "name", TargetField: "name", Required: true},
			{SourceField: "version", TargetField: "version"},
			{SourceField: "short_description", TargetField: "description"},
		},
	},
	model.SourceBMCRemedy: {
		model.EntityIncident: {
			{SourceField: "Description", TargetField: "title", Required: true},
			{SourceField: "Status", TargetField: "status", Required: true, DefaultValue: "New"},
			{SourceField: "Priority", TargetField: "priority", Required: true, DefaultValue: "3"},
			{SourceField: "Notes", TargetField: "description"},
			{SourceField: "Incident Number", TargetField: "source_ref"},
			{SourceField: "Assigned Group", TargetField: "assignment_group"},
			{SourceField: "Submit Date", TargetField: "created_at", Transformation: model.TransformDate},
		},
		model.EntityChange: {
			{SourceField: "Description", TargetField: "title", Required: true},
			{SourceField: "Status", TargetField: "status", Required: true, DefaultValue: "New"},
			{SourceField: "Priority", TargetField: "priority"},
			{SourceField: "Change ID", TargetField: "source_ref"},
			{SourceField: "Submit Date", TargetField: "created_at", Transformation: model.TransformDate},
		},
		model.EntityUser: {
			{SourceField: "Email Address", TargetField: "email", Required: true},
			{SourceField: "Login ID", TargetField: "username"},
			{SourceField: "First Name", TargetField: "first_name"},
			{SourceField: "Last Name", TargetField: "last_name"},
			{SourceField: "Profile Status", TargetField: "active", Transformation: model.TransformBoolean},
		},
		model.EntityGroup: {
			{SourceField: "Support Group Name", TargetField: "name", Required: true},
			{SourceField: "Description", TargetField: "description"},
		},
	},
	model.SourceJira: {
		model.EntityIncident: {
			{SourceField: "fields.summary", TargetField: "title", Required: true},
			{SourceField: "fields.status.name", TargetField: "status", Required: true, DefaultValue: "Open"},
			{SourceField: "fields.priority.id", TargetField: "priority", Required: true, DefaultValue: "3"},
			{SourceField: "fields.description", TargetField: "description"},
			{SourceField: "key", TargetField: "source_ref"},
			{SourceField: "fields.assignee.emailAddress", TargetField: "assigned_to_email"},
			{SourceField: "fields.created", TargetField: "created_at", Transformation: model.TransformDate},
			{SourceField: "fields.updated", TargetField: "updated_at", Transformation: model.TransformDate},
		},
		model.EntityRequest: {
			{SourceField: "fields.summary", TargetField: "title", Required: true},
			{SourceField: "fields.status.name", TargetField: "status", Required: true, DefaultValue: "Open"},
			{SourceField: "fields.reporter.emailAddress", TargetField: "requested_by_email"},
			{SourceField: "key", TargetField: "source_ref"},
		},
		model.EntityChange: {
			{SourceField: "fields.summary", TargetField: "title", Required: true},
			{SourceField: "fields.status.name", TargetField: "status", Required: true, DefaultValue: "Open"},
			{SourceField: "key", TargetField: "source_ref"},
		},
		model.EntityProblem: {
			{SourceField: "fields.summary", TargetField: "title", Required: true},
			{SourceField: "fields.status.name", TargetField: "status", Required: true, DefaultValue: "Open"},
			{SourceField: "fields.priority.id", TargetField: "priority"},
			{SourceField: "key", TargetField: "source_ref"},
		},
		model.EntityUser: {
			{SourceField: "emailAddress", TargetField: "email", Required: true},
			{SourceField: "displayName", TargetField: "display_name"},
			{SourceField: "name", TargetField: "username"},
			{SourceField: "active", TargetField: "active", Transformation: model.TransformBoolean},
		},
		model.EntityGroup: {
			{SourceField: "name", TargetField: "name", Required: true},
		},
	},
	model.SourceGenericCSV: {
		model.EntityIncident: {
			{SourceField: "title", TargetField: "title", Required: true},
			{SourceField: "status", TargetField: "status", Required: true, DefaultValue: "new"},
			{SourceField: "priority", TargetField: "priority", Required: true, DefaultValue: "3"},
			{SourceField: "description", TargetField: "description"},
			{SourceField: "assigned_to", TargetField: "assigned_to_email"},
			{SourceField: "created_at", TargetField: "created_at", Transformation: model.TransformDate},
		},
		model.EntityRequest: {
			{SourceField: "title", TargetField: "title", Required: true},
			{SourceField: "status", TargetField: "status", Required: true, DefaultValue: "new"},
			{SourceField: "description", TargetField: "description"},
		},
		model.EntityChange: {
			{SourceField: "title", TargetField: "title", Required: true},
			{SourceField: "status", TargetField: "status", Required: true, DefaultValue: "new"},
			{SourceField: "description", TargetField: "description"},
		},
		model.EntityProblem: {
			{SourceField: "title", TargetField: "title", Required: true},
			{SourceField: "status", TargetField: "status", Required: true, DefaultValue: "new"},
			{SourceField: "description", TargetField: "description"},
		},
		model.EntityUser: {
			{SourceField: "email", TargetField: "email", Required: true},
			{SourceField: "username", TargetField: "username"},
			{SourceField: "first_name", TargetField: "first_name"},
			{SourceField: "last_name", TargetField: "last_name"},
			{SourceField: "active", TargetField: "active", Transformation: model.TransformBoolean},
		},
		model.EntityGroup: {
			{SourceField: "name", TargetField: "name", Required: true},
			{SourceField: "description", TargetField: "description"},
		},
		model.EntityApplication: {
			{SourceField: "name", TargetField: "name", Required: true},
			{SourceField: "version", TargetField: "version"},
			{SourceField: "owner", TargetField: "owner_email"},
		},
	},
}

// GetDefaultMappings returns the built-in field mappings for a (source system,
// entity type) pair. Unknown combinations return an empty list, never an error.
func (m *Mapper) GetDefaultMappings(sourceSystem model.SourceSystem, entityType model.EntityType) []model.FieldMapping {
	byEntity, ok := defaultMappings[sourceSystem]
	if !ok {
		return []model.FieldMapping{}
	}
	mappings, ok := byEntity[entityType]
	if !ok {
		return []model.FieldMapping{}
	}
	out := make([]model.FieldMapping, len(mappings))
	copy(out, mappings)
	return out
}

// DefaultConfig assembles the built-in FieldMappingConfig for a (source
// system, entity type) pair.
func (m *Mapper) DefaultConfig(sourceSystem model.SourceSystem, entityType model.EntityType) model.FieldMappingConfig {
	return model.FieldMappingConfig{
		EntityType:    entityType,
		SourceSystem:  sourceSystem,
		FieldMappings: m.GetDefaultMappings(sourceSystem, entityType),
	}
}
