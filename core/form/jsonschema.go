package form

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/pkg/errors"
)

const jsonSchemaDraft = "https://json-schema.org/draft/2020-12/schema"

// JSONSchema describes the submissions s accepts as a JSON Schema document,
// for API clients building their own forms.
func JSONSchema(s Schema) *jsonschema.Schema {
	js := &jsonschema.Schema{
		Schema:      jsonSchemaDraft,
		Type:        "object",
		Title:       s.Title,
		Description: s.Description,
		Properties:  make(map[string]*jsonschema.Schema, len(s.Fields)),
	}
	for _, f := range s.Fields {
		prop := propertySchema(f)
		prop.Title = f.Label
		switch f.Type {
		case FieldEmail:
			prop.Format = "email"
		case FieldDate:
			prop.Format = "date"
		case FieldSelect, FieldRadio:
			if len(f.Options) > 0 {
				prop.Enum = make([]any, len(f.Options))
				for i, opt := range f.Options {
					prop.Enum[i] = opt
				}
			}
		}
		js.Properties[f.ID] = prop
		if f.Required {
			js.Required = append(js.Required, f.ID)
		}
	}
	return js
}

// propertySchema only carries the JSON type of a field's value.
func propertySchema(f Field) *jsonschema.Schema {
	switch f.Type {
	case FieldCheckbox:
		return &jsonschema.Schema{Type: "boolean"}
	case FieldNumber:
		return &jsonschema.Schema{Types: []string{"string", "number"}}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}

// CheckTypes rejects a decoded JSON submission whose values have the wrong JSON type
// for their field, e.g. a string for a checkbox. Presence, email shape and choice
// membership are left to the Validator so the messages stay the same for every client.
func CheckTypes(s Schema, raw map[string]interface{}) error {
	js := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(s.Fields)),
	}
	for _, f := range s.Fields {
		prop := propertySchema(f)
		if f.Type != FieldCheckbox {
			// null is accepted as "no value"
			types := prop.Types
			if prop.Type != "" {
				types = []string{prop.Type}
			}
			prop = &jsonschema.Schema{Types: append(types, "null")}
		}
		js.Properties[f.ID] = prop
	}

	resolved, err := js.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return errors.Wrap(err, "resolving submission schema")
	}
	instance := make(map[string]any, len(raw))
	for k, v := range raw {
		instance[k] = v
	}
	if err := resolved.Validate(instance); err != nil {
		return errors.Wrap(err, "checking submission types")
	}
	return nil
}
