package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/validator"
)

func TestRequiredFields(t *testing.T) {
	assert.ElementsMatch(t, []string{"title", "status", "priority"}, validator.RequiredFields(model.EntityIncident))
	assert.ElementsMatch(t, []string{"title", "status"}, validator.RequiredFields(model.EntityRequest))
	assert.ElementsMatch(t, []string{"email"}, validator.RequiredFields(model.EntityUser))
	assert.ElementsMatch(t, []string{"name"}, validator.RequiredFields(model.EntityGroup))
	assert.Empty(t, validator.RequiredFields(model.EntityType("asset")))
}

func TestValidate_RequiredPresence(t *testing.T) {
	v := validator.NewValidator()

	result := v.Validate(map[string]interface{}{
		"title":    "Printer broken",
		"status":   "new",
		"priority": 2,
	}, model.EntityIncident)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)

	// Missing, nil and blank all count as absent.
	result = v.Validate(map[string]interface{}{
		"status":   nil,
		"priority": "   ",
	}, model.EntityIncident)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "'title' is missing")
	assert.Contains(t, result.Errors[1], "'status' is missing")
	assert.Contains(t, result.Errors[2], "'priority' is missing")
}

func TestValidate_PriorityRange(t *testing.T) {
	v := validator.NewValidator()
	base := map[string]interface{}{"title": "t", "status": "new"}

	for _, priority := range []interface{}{1, "2", 3.0, int64(4), " 4 "} {
		data := map[string]interface{}{"title": "t", "status": "new", "priority": priority}
		result := v.Validate(data, model.EntityIncident)
		assert.True(t, result.Valid, "priority %v", priority)
	}

	for _, priority := range []interface{}{0, 5, "99", "high"} {
		data := map[string]interface{}{"title": "t", "status": "new", "priority": priority}
		result := v.Validate(data, model.EntityIncident)
		assert.False(t, result.Valid, "priority %v", priority)
		require.Len(t, result.Errors, 1)
	}

	// Priority is only checked when present.
	result := v.Validate(base, model.EntityRequest)
	assert.True(t, result.Valid)
}

func TestValidate_UserEmail(t *testing.T) {
	v := validator.NewValidator()

	result := v.Validate(map[string]interface{}{"email": "alice@example.com"}, model.EntityUser)
	assert.True(t, result.Valid)

	result = v.Validate(map[string]interface{}{"email": "not-an-address"}, model.EntityUser)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "not a valid address")

	// The email shape check applies only to users.
	result = v.Validate(map[string]interface{}{
		"title": "t", "status": "new", "email": "not-an-address",
	}, model.EntityRequest)
	assert.True(t, result.Valid)
}

func TestValidate_UnknownEntityTypeHasNoRequirements(t *testing.T) {
	v := validator.NewValidator()
	result := v.Validate(map[string]interface{}{}, model.EntityType("asset"))
	assert.True(t, result.Valid)
}
