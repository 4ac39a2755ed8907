package form

// FieldType selects the input control a field is rendered with.
// The set is open: an unknown type is kept as-is and rendered as a plain text input.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldTel      FieldType = "tel"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldRadio    FieldType = "radio"
)

// FieldTypes lists the known field types in the order the builder offers them.
var FieldTypes = []FieldType{
	FieldText, FieldEmail, FieldTel, FieldTextarea, FieldSelect,
	FieldCheckbox, FieldNumber, FieldDate, FieldRadio,
}

// Control is the kind of widget a field maps onto.
type Control string

const (
	ControlInput    Control = "input"
	ControlTextarea Control = "textarea"
	ControlSelect   Control = "select"
	ControlRadio    Control = "radio"
	ControlCheckbox Control = "checkbox"
)

func (t FieldType) IsKnown() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsChoice reports whether the field's value must be one of its options.
func (t FieldType) IsChoice() bool {
	return t == FieldSelect || t == FieldRadio
}

func (t FieldType) Control() Control {
	switch t {
	case FieldTextarea:
		return ControlTextarea
	case FieldSelect:
		return ControlSelect
	case FieldRadio:
		return ControlRadio
	case FieldCheckbox:
		return ControlCheckbox
	default:
		return ControlInput
	}
}

// InputType is the type attribute of the <input> rendered for t.
func (t FieldType) InputType() string {
	switch t {
	case FieldEmail, FieldTel, FieldNumber, FieldDate:
		return string(t)
	default:
		return string(FieldText)
	}
}

// Field is one input of a form.
type Field struct {
	ID          string    `json:"id" yaml:"id"`
	Type        FieldType `json:"type" yaml:"type"`
	Label       string    `json:"label" yaml:"label"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required    bool      `json:"required" yaml:"required"`
	Options     []string  `json:"options,omitempty" yaml:"options,omitempty"`
}

func (f Field) clone() Field {
	if f.Options != nil {
		opts := make([]string, len(f.Options))
		copy(opts, f.Options)
		f.Options = opts
	}
	return f
}

func (f Field) hasOption(v string) bool {
	for _, opt := range f.Options {
		if opt == v {
			return true
		}
	}
	return false
}
