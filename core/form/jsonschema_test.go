package form

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSchema(t *testing.T) {
	s := registrationSchema()
	s.Fields = append(s.Fields,
		Field{ID: "terms", Type: FieldCheckbox, Label: "Terms", Required: true},
		Field{ID: "age", Type: FieldNumber, Label: "Age"},
	)

	js := JSONSchema(s)
	data, err := json.Marshal(js)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, "Registration Form", doc["title"])
	assert.ElementsMatch(t, []interface{}{"fullName", "email", "plan", "terms"}, doc["required"])

	props := doc["properties"].(map[string]interface{})
	email := props["email"].(map[string]interface{})
	assert.Equal(t, "string", email["type"])
	assert.Equal(t, "email", email["format"])
	plan := props["plan"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Monthly", "Semester"}, plan["enum"])
	terms := props["terms"].(map[string]interface{})
	assert.Equal(t, "boolean", terms["type"])
	age := props["age"].(map[string]interface{})
	assert.ElementsMatch(t, []interface{}{"string", "number"}, age["type"])
}

func TestCheckTypes(t *testing.T) {
	s := Schema{Fields: []Field{
		{ID: "name", Type: FieldText, Required: true},
		{ID: "age", Type: FieldNumber},
		{ID: "terms", Type: FieldCheckbox},
		{ID: "plan", Type: FieldSelect, Options: []string{"Monthly"}},
	}}

	tests := []struct {
		name    string
		raw     map[string]interface{}
		wantErr bool
	}{
		{name: "well typed", raw: map[string]interface{}{"name": "A", "age": float64(3), "terms": true, "plan": "Monthly"}},
		{name: "number as text", raw: map[string]interface{}{"age": "3"}},
		{name: "nulls and missing keys", raw: map[string]interface{}{"name": nil}},
		{name: "unknown choice is left to the validator", raw: map[string]interface{}{"plan": "Weekly"}},
		{name: "extra keys are ignored", raw: map[string]interface{}{"other": []interface{}{1}}},
		{name: "string checkbox", raw: map[string]interface{}{"terms": "yes"}, wantErr: true},
		{name: "object text", raw: map[string]interface{}{"name": map[string]interface{}{"first": "A"}}, wantErr: true},
		{name: "bool number", raw: map[string]interface{}{"age": true}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTypes(s, tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
