package bank

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const usersYAML = `
id: users-01
name: Reporting analyst
description: Create the analyst account in the reports group.
category: users
difficulty: beginner
score: 10
concepts: [useradd, groups]
setup:
  - type: ensure_group_exists
    group: reports
validation:
  - type: ensure_user_exists
    username: analyst
  - type: check_user_group
    check_type: user_primary_group
    username: analyst
    group: reports
hints:
  - man useradd
`

func parseYAML(t *testing.T, doc string) map[string]any {
	t.Helper()
	raw, err := Parse([]byte(doc), "yaml")
	require.NoError(t, err)
	return raw
}

func TestValidateStructure_WellFormed(t *testing.T) {
	errs := ValidateStructure(parseYAML(t, usersYAML), registry.Builtin())
	assert.Empty(t, errs)
}

func TestValidateStructure_JSONScore(t *testing.T) {
	raw := parseYAML(t, usersYAML)
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	fromJSON, err := Parse(data, "json")
	require.NoError(t, err)
	assert.IsType(t, float64(0), fromJSON["score"])
	assert.Empty(t, ValidateStructure(fromJSON, registry.Builtin()))
}

func TestValidateStructure_MissingRequiredKey(t *testing.T) {
	for _, key := range requiredKeys {
		t.Run(key, func(t *testing.T) {
			raw := parseYAML(t, usersYAML)
			delete(raw, key)

			errs := ValidateStructure(raw, registry.Builtin())
			require.Len(t, errs, 1)
			assert.Equal(t, key, errs[0].Field)
			assert.Equal(t, key+": is required", errs[0].Error())
		})
	}
}

func TestValidateStructure_AccumulatesAll(t *testing.T) {
	raw := parseYAML(t, `
id: "bad id!"
name: ""
description: 42
category: users
difficulty: easy
score: "ten"
concepts: [ok, 3]
author: someone
validation:
  - type: reboot_machine
  - type: check_port_listening
    port: ssh
  - username: analyst
  - just a string
`)
	errs := ValidateStructure(raw, registry.Builtin())

	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.Equal(t, []string{
		"author",
		"id",
		"name",
		"description",
		"score",
		"concepts[1]",
		"validation[0].type",
		"validation[1]",
		"validation[2].type",
		"validation[3]",
	}, fields)
	assert.Contains(t, errs[6].Message, `unregistered check kind "reboot_machine"`)
	assert.Contains(t, errs[7].Message, `parameter "port"`)
}

func TestValidateStructure_Score(t *testing.T) {
	for _, bad := range []any{2.5, -1, true, nil} {
		raw := parseYAML(t, usersYAML)
		raw["score"] = bad
		errs := ValidateStructure(raw, registry.Builtin())
		require.Len(t, errs, 1, "%v", bad)
		assert.Equal(t, "score", errs[0].Field)
	}
}

func TestValidateStructure_EmptyValidation(t *testing.T) {
	raw := parseYAML(t, usersYAML)
	raw["validation"] = []any{}
	errs := ValidateStructure(raw, registry.Builtin())
	require.Len(t, errs, 1)
	assert.Equal(t, "validation: must contain at least one step", errs[0].Error())
}

func TestValidateStructure_IDCharset(t *testing.T) {
	for id, ok := range map[string]bool{
		"users-01":     true,
		"net.ports_2":  true,
		"":             false,
		"has space":    false,
		"semi;colon":   false,
		"\u00fcnicode": false,
	} {
		raw := parseYAML(t, usersYAML)
		raw["id"] = id
		errs := ValidateStructure(raw, registry.Builtin())
		assert.Equal(t, ok, len(errs) == 0, "%q", id)
	}
}

func TestValidateDefinition(t *testing.T) {
	def := &challenge.Definition{
		ID:   "ports-01",
		Name: "SSH is listening",
		Validation: []challenge.Step{
			challenge.NewStep("check_port_listening", "port", 22),
		},
	}
	assert.Empty(t, ValidateDefinition(def, registry.Builtin()))

	def.ID = "bad id"
	def.Setup = []challenge.Step{challenge.NewStep("mystery")}
	def.Validation = append(def.Validation,
		challenge.NewStep("check_history", "expected_count", ">2"))
	errs := ValidateDefinition(def, registry.Builtin())
	require.Len(t, errs, 3)
	assert.Equal(t, "id", errs[0].Field)
	assert.Equal(t, "setup[0].type", errs[1].Field)
	assert.Equal(t, "validation[1]", errs[2].Field)

	assert.Len(t, ValidateDefinition(nil, registry.Builtin()), 1)
}

func TestValidateFile_BankFile(t *testing.T) {
	one := parseYAML(t, usersYAML)
	two := parseYAML(t, usersYAML)
	delete(two, "concepts")

	data, err := yaml.Marshal(map[string]any{
		"challenges": []any{one, one, two},
	})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	errs := ValidateFile(path, registry.Builtin())
	require.Len(t, errs, 4)
	assert.Equal(t, "version: is required", errs[0].Error())
	assert.Equal(t, "challenges[1].id: duplicate ID: users-01", errs[1].Error())
	assert.Equal(t, "challenges[2].concepts: is required", errs[2].Error())
	assert.Equal(t, "challenges[2].id: duplicate ID: users-01", errs[3].Error())
}

func TestValidateFile_FileNotFound(t *testing.T) {
	errs := ValidateFile("/nonexistent/file.yaml", registry.Builtin())
	require.Len(t, errs, 1)
	assert.Equal(t, "file", errs[0].Field)
}

func TestValidateFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	errs := ValidateFile(path, registry.Builtin())
	require.Len(t, errs, 1)
	assert.Equal(t, "json", errs[0].Field)
}

func TestValidationError_Error(t *testing.T) {
	e1 := ValidationError{Field: "id", Message: "required", Index: 0}
	assert.Contains(t, e1.Error(), "challenges[0]")

	e2 := ValidationError{Field: "version", Message: "missing", Index: -1}
	assert.NotContains(t, e2.Error(), "challenges")
}

func TestStructuralError(t *testing.T) {
	err := &StructuralError{
		Source: "users.yaml",
		Violations: []ValidationError{
			{Field: "id", Message: "is required", Index: -1},
			{Field: "score", Message: "must be an integer, got string", Index: -1},
		},
	}
	assert.ErrorIs(t, err, ErrStructural)
	assert.Equal(t,
		"invalid challenge definition users.yaml: id: is required; "+
			"score: must be an integer, got string",
		err.Error())
	assert.Equal(t, []string{
		"id: is required", "score: must be an integer, got string",
	}, err.Reasons())
}
