package form

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
)

// Direction moves a field one slot towards the start (up) or the end (down) of a schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// IDGenerator returns a candidate id for a new field.
type IDGenerator func() string

// NewFieldID returns "field_" followed by 8 random hex characters.
func NewFieldID() string {
	return "field_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// FieldPatch lists the attributes UpdateField replaces. Nil members are left unchanged.
// A field's id never changes.
type FieldPatch struct {
	Type        *FieldType `json:"type,omitempty"`
	Label       *string    `json:"label,omitempty"`
	Placeholder *string    `json:"placeholder,omitempty"`
	Required    *bool      `json:"required,omitempty"`
	Options     *[]string  `json:"options,omitempty"`
}

func (p FieldPatch) IsEmpty() bool {
	return p.Type == nil && p.Label == nil && p.Placeholder == nil && p.Required == nil && p.Options == nil
}

func (p FieldPatch) apply(f Field) Field {
	if p.Type != nil {
		f.Type = *p.Type
	}
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.Placeholder != nil {
		f.Placeholder = *p.Placeholder
	}
	if p.Required != nil {
		f.Required = *p.Required
	}
	if p.Options != nil {
		if len(*p.Options) == 0 {
			f.Options = nil
		} else {
			f.Options = make([]string, len(*p.Options))
			copy(f.Options, *p.Options)
		}
	}
	return f
}

// AddField appends a new optional text field with a generated unique id.
func AddField(s Schema) (Schema, string) {
	return addField(s, NewFieldID)
}

func addField(s Schema, gen IDGenerator) (Schema, string) {
	id := gen()
	for i := 0; s.indexOf(id) >= 0; i++ {
		if i >= 8 {
			id = NewFieldID()
			continue
		}
		id = gen()
	}
	out := s.Clone()
	out.Fields = append(out.Fields, Field{ID: id, Type: FieldText, Label: "New field"})
	return out, id
}

// UpdateField replaces the attributes of field id named by p.
func UpdateField(s Schema, id string, p FieldPatch) (Schema, error) {
	i := s.indexOf(id)
	if i < 0 {
		return s, errors.Wrap(ErrFieldNotFound, id)
	}
	out := s.Clone()
	out.Fields[i] = p.apply(out.Fields[i])
	return out, nil
}

// RemoveField drops field id.
func RemoveField(s Schema, id string) (Schema, error) {
	i := s.indexOf(id)
	if i < 0 {
		return s, errors.Wrap(ErrFieldNotFound, id)
	}
	out := s.Clone()
	out.Fields = append(out.Fields[:i], out.Fields[i+1:]...)
	return out, nil
}

// MoveField swaps field id with its neighbour in direction dir.
// Moving the first field up or the last field down is a no-op.
func MoveField(s Schema, id string, dir Direction) (Schema, error) {
	if dir != Up && dir != Down {
		return s, ErrInvalidDirection
	}
	i := s.indexOf(id)
	if i < 0 {
		return s, errors.Wrap(ErrFieldNotFound, id)
	}
	j := i - 1
	if dir == Down {
		j = i + 1
	}
	if j < 0 || j >= len(s.Fields) {
		return s.Clone(), nil
	}
	out := s.Clone()
	out.Fields[i], out.Fields[j] = out.Fields[j], out.Fields[i]
	return out, nil
}

func SetTitle(s Schema, title string) Schema {
	out := s.Clone()
	out.Title = title
	return out
}

func SetDescription(s Schema, description string) Schema {
	out := s.Clone()
	out.Description = description
	return out
}

// Builder is the admin-side editing state of one schema.
// onChange receives every new schema value; failed or no-op operations do not call it.
type Builder struct {
	schema   Schema
	onChange func(Schema)
	newID    IDGenerator
	logger   core.Logger
}

type BuilderOption func(*Builder)

// WithIDGenerator replaces NewFieldID; mostly useful in tests.
func WithIDGenerator(gen IDGenerator) BuilderOption {
	return func(b *Builder) { b.newID = gen }
}

func WithLogger(logger core.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

func NewBuilder(s Schema, onChange func(Schema), opts ...BuilderOption) *Builder {
	b := &Builder{
		schema:   s.Clone(),
		onChange: onChange,
		newID:    NewFieldID,
		logger:   core.NopLogger{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Schema returns a copy of the current schema.
func (b *Builder) Schema() Schema { return b.schema.Clone() }

func (b *Builder) commit(s Schema) {
	b.schema = s
	if b.onChange != nil {
		b.onChange(s.Clone())
	}
}

// notFound logs a stale field reference; the operation is dropped.
func (b *Builder) notFound(op, id string) bool {
	b.logger.Warn("form builder: "+op+": field not found", map[string]interface{}{"field_id": id})
	return false
}

func (b *Builder) AddField() string {
	s, id := addField(b.schema, b.newID)
	b.commit(s)
	return id
}

// UpdateField reports false when id does not exist.
func (b *Builder) UpdateField(id string, p FieldPatch) bool {
	s, err := UpdateField(b.schema, id, p)
	if err != nil {
		return b.notFound("update", id)
	}
	b.commit(s)
	return true
}

func (b *Builder) RemoveField(id string) bool {
	s, err := RemoveField(b.schema, id)
	if err != nil {
		return b.notFound("remove", id)
	}
	b.commit(s)
	return true
}

// MoveField reports whether the field actually moved.
func (b *Builder) MoveField(id string, dir Direction) bool {
	s, err := MoveField(b.schema, id, dir)
	switch {
	case errors.Cause(err) == ErrFieldNotFound:
		return b.notFound("move", id)
	case err != nil:
		b.logger.Warn("form builder: move: "+err.Error(), map[string]interface{}{"field_id": id, "direction": dir})
		return false
	case s.indexOf(id) == b.schema.indexOf(id):
		return false
	}
	b.commit(s)
	return true
}

func (b *Builder) SetTitle(title string) {
	b.commit(SetTitle(b.schema, title))
}

func (b *Builder) SetDescription(description string) {
	b.commit(SetDescription(b.schema, description))
}

// Preview renders the current schema with empty values, submission disabled.
func (b *Builder) Preview(r *Renderer) ([]byte, error) {
	return r.Render(b.schema, nil, nil, WithPreview())
}
