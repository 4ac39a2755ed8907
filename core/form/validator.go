package form

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Messages shown next to a failing field.
const (
	MsgRequired         = "This field is required."
	MsgInvalidEmail     = "Invalid email address."
	MsgInvalidSelection = "Invalid selection."
)

// ValidationResult maps a field id to its error message. Empty means valid.
type ValidationResult map[string]string

func (r ValidationResult) Valid() bool { return len(r) == 0 }

// FieldIDs returns the ids of the failing fields, sorted.
func (r ValidationResult) FieldIDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validator checks Values against a Schema.
// It only enforces presence, email shape and choice membership.
type Validator struct {
	validate *validator.Validate
}

func NewValidator(validate *validator.Validate) *Validator {
	if validate == nil {
		validate = validator.New()
	}
	return &Validator{validate: validate}
}

var defaultValidator = NewValidator(nil)

// Validate checks values against s with the default Validator.
func Validate(s Schema, values Values) ValidationResult {
	return defaultValidator.Validate(s, values)
}

// Validate returns one message per failing field; the first failing rule wins.
func (v *Validator) Validate(s Schema, values Values) ValidationResult {
	res := make(ValidationResult)
	for _, f := range s.Fields {
		if msg := v.validateField(f, values); msg != "" {
			res[f.ID] = msg
		}
	}
	return res
}

func (v *Validator) validateField(f Field, values Values) string {
	if f.Type == FieldCheckbox {
		if f.Required && !values.Bool(f.ID) {
			return MsgRequired
		}
		return ""
	}

	val := strings.TrimSpace(values.String(f.ID))
	if val == "" {
		if f.Required {
			return MsgRequired
		}
		return ""
	}

	switch {
	case f.Type == FieldEmail:
		if err := v.validate.Var(val, "email"); err != nil {
			return MsgInvalidEmail
		}
	case f.Type.IsChoice():
		if !f.hasOption(values.String(f.ID)) {
			return MsgInvalidSelection
		}
	}
	return ""
}
