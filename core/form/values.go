package form

import (
	"net/url"
	"strconv"
	"strings"
)

// Values holds the current input of a form keyed by field id.
// Checkbox fields hold a bool, every other field a string.
type Values map[string]interface{}

// Clone returns a shallow copy of v; values are immutable scalars.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// String returns the value of id as text. Missing values are "".
func (v Values) String(id string) string {
	switch val := v[id].(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}

// Bool reports whether the checkbox id is checked.
func (v Values) Bool(id string) bool {
	switch val := v[id].(type) {
	case bool:
		return val
	case string:
		return isTruthy(val)
	default:
		return false
	}
}

// Record returns the flat record handed to a submission sink:
// exactly the schema's fields, checkboxes as bools and everything else as strings.
func (v Values) Record(s Schema) Values {
	out := make(Values, len(s.Fields))
	for _, f := range s.Fields {
		if f.Type == FieldCheckbox {
			out[f.ID] = v.Bool(f.ID)
		} else {
			out[f.ID] = v.String(f.ID)
		}
	}
	return out
}

// FromForm builds Values for s out of an HTML form post.
// An unchecked checkbox is absent from the post and maps to false.
func FromForm(s Schema, form url.Values) Values {
	out := make(Values, len(s.Fields))
	for _, f := range s.Fields {
		if f.Type == FieldCheckbox {
			out[f.ID] = isTruthy(form.Get(f.ID))
			continue
		}
		if vals, ok := form[f.ID]; ok && len(vals) > 0 {
			out[f.ID] = vals[0]
		}
	}
	return out
}

// FromJSON builds Values for s out of a decoded JSON object.
// Numbers are kept as their text form; keys unknown to s are dropped.
func FromJSON(s Schema, raw map[string]interface{}) Values {
	in := Values(raw)
	out := make(Values, len(s.Fields))
	for _, f := range s.Fields {
		if _, ok := raw[f.ID]; !ok {
			continue
		}
		if f.Type == FieldCheckbox {
			out[f.ID] = in.Bool(f.ID)
		} else {
			out[f.ID] = in.String(f.ID)
		}
	}
	return out
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
