package form

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
)

// DefaultFormType is the form-type tag used when a caller does not name one.
const DefaultFormType = "registration"

// Key identifies a stored schema: one document per owner and form type.
type Key struct {
	OwnerID  string `json:"owner_id"`
	FormType string `json:"form_type"`
}

func (k Key) String() string { return k.OwnerID + "/" + k.FormType }

// Schema is a complete form definition. Field order is display order.
//
// Schemas are values: every operation of this package returns a new Schema
// and leaves its inputs untouched.
type Schema struct {
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field `json:"fields" yaml:"fields"`
}

// Clone returns a deep copy of s.
func (s Schema) Clone() Schema {
	out := Schema{Title: s.Title, Description: s.Description}
	if s.Fields != nil {
		out.Fields = make([]Field, len(s.Fields))
		for i, f := range s.Fields {
			out.Fields[i] = f.clone()
		}
	}
	return out
}

// Field returns the field with the given id.
func (s Schema) Field(id string) (Field, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.Fields[i].clone(), true
	}
	return Field{}, false
}

func (s Schema) indexOf(id string) int {
	for i, f := range s.Fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Parse decodes a JSON schema document.
func Parse(data []byte) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return Schema{}, errors.Wrap(err, "decoding schema json")
	}
	return s, nil
}

// ParseYAML decodes a YAML schema document.
func ParseYAML(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, errors.Wrap(err, "decoding schema yaml")
	}
	return s, nil
}

// YAML encodes s as a YAML document.
func (s Schema) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// JSON encodes s as an indented document.
func (s Schema) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding schema json")
	}
	return data, nil
}

const (
	errIDRequired      = "field id is required"
	errIDWhitespace    = "field id cannot contain whitespace"
	errIDDuplicate     = "duplicate field id"
	errTypeRequired    = "field type is required"
	errOptionsRequired = "choice fields need at least one option"
	errOptionDuplicate = "duplicate option"
	errOptionBlank     = "options cannot be blank"
)

// Check validates the structure of s before it is saved:
// field ids are present and unique and choice fields carry options.
// Validator and Renderer never require a checked schema.
func (s Schema) Check() error {
	var fldErrs []core.FieldError
	add := func(i int, attr, msg string) {
		fldErrs = append(fldErrs, core.FieldError{Field: fmt.Sprintf("fields[%d].%s", i, attr), Error: msg})
	}

	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		switch {
		case strings.TrimSpace(f.ID) == "":
			add(i, "id", errIDRequired)
		case strings.ContainsAny(f.ID, " \t\r\n"):
			add(i, "id", errIDWhitespace)
		case seen[f.ID]:
			add(i, "id", errIDDuplicate)
		}
		seen[f.ID] = true

		if strings.TrimSpace(string(f.Type)) == "" {
			add(i, "type", errTypeRequired)
		}

		if f.Type.IsChoice() {
			if len(f.Options) == 0 {
				add(i, "options", errOptionsRequired)
				continue
			}
			opts := make(map[string]bool, len(f.Options))
			for _, opt := range f.Options {
				if strings.TrimSpace(opt) == "" {
					add(i, "options", errOptionBlank)
					break
				}
				if opts[opt] {
					add(i, "options", errOptionDuplicate)
					break
				}
				opts[opt] = true
			}
		}
	}

	if len(fldErrs) > 0 {
		return core.NewValidationError(errors.New("invalid form schema"), fldErrs...)
	}
	return nil
}
