package form

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldIDs(s Schema) []string {
	ids := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		ids[i] = f.ID
	}
	return ids
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestNewFieldID(t *testing.T) {
	re := regexp.MustCompile(`^field_[0-9a-f]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewFieldID()
		assert.Regexp(t, re, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestAddField(t *testing.T) {
	s := registrationSchema()
	before := s.Clone()

	got, id := AddField(s)

	assert.Equal(t, before, s, "input schema must not change")
	require.Len(t, got.Fields, len(s.Fields)+1)
	added := got.Fields[len(got.Fields)-1]
	assert.Equal(t, id, added.ID)
	assert.Equal(t, FieldText, added.Type)
	assert.False(t, added.Required)
	_, exists := s.Field(id)
	assert.False(t, exists)
}

func TestAddField_uniqueIDs(t *testing.T) {
	s := Schema{Fields: []Field{{ID: "field_1", Type: FieldText}, {ID: "field_2", Type: FieldText}}}
	calls := 0
	gen := func() string {
		calls++
		return fmt.Sprintf("field_%d", calls)
	}

	got, id := addField(s, gen)
	assert.Equal(t, "field_3", id)
	assert.Equal(t, []string{"field_1", "field_2", "field_3"}, fieldIDs(got))

	// a generator stuck on a taken id falls back to random ids
	got, id = addField(s, func() string { return "field_1" })
	assert.NotEqual(t, "field_1", id)
	assert.Len(t, got.Fields, 3)
}

func TestAddThenRemove(t *testing.T) {
	s := registrationSchema()
	added, id := AddField(s)
	got, err := RemoveField(added, id)
	require.NoError(t, err)
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("AddField/RemoveField round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateField(t *testing.T) {
	s := registrationSchema()
	before := s.Clone()
	phone := FieldTel

	got, err := UpdateField(s, "fullName", FieldPatch{
		Type:        &phone,
		Label:       strPtr("Phone"),
		Placeholder: strPtr("+234"),
		Required:    boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, before, s)

	want := Field{ID: "fullName", Type: FieldTel, Label: "Phone", Placeholder: "+234", Required: false}
	if diff := cmp.Diff(want, got.Fields[0]); diff != "" {
		t.Errorf("UpdateField() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, s.Fields[1:], got.Fields[1:])

	opts := []string{"Monthly", "Semester", "Yearly"}
	got, err = UpdateField(s, "plan", FieldPatch{Options: &opts})
	require.NoError(t, err)
	assert.Equal(t, opts, got.Fields[2].Options)
	opts[0] = "changed"
	assert.Equal(t, "Monthly", got.Fields[2].Options[0], "options must be copied")

	got, err = UpdateField(s, "plan", FieldPatch{Options: &[]string{}})
	require.NoError(t, err)
	assert.Nil(t, got.Fields[2].Options)
}

func TestMissingFieldIsNoop(t *testing.T) {
	s := registrationSchema()

	got, err := UpdateField(s, "nope", FieldPatch{Label: strPtr("x")})
	assert.Equal(t, ErrFieldNotFound, errors.Cause(err))
	assert.Equal(t, s, got)

	got, err = RemoveField(s, "nope")
	assert.Equal(t, ErrFieldNotFound, errors.Cause(err))
	assert.Equal(t, s, got)

	got, err = MoveField(s, "nope", Up)
	assert.Equal(t, ErrFieldNotFound, errors.Cause(err))
	assert.Equal(t, s, got)
}

func TestMoveField(t *testing.T) {
	s := registrationSchema()

	tests := []struct {
		name string
		id   string
		dir  Direction
		want []string
	}{
		{name: "first up (boundary)", id: "fullName", dir: Up, want: []string{"fullName", "email", "plan"}},
		{name: "first down", id: "fullName", dir: Down, want: []string{"email", "fullName", "plan"}},
		{name: "middle up", id: "email", dir: Up, want: []string{"email", "fullName", "plan"}},
		{name: "middle down", id: "email", dir: Down, want: []string{"fullName", "plan", "email"}},
		{name: "last down (boundary)", id: "plan", dir: Down, want: []string{"fullName", "email", "plan"}},
		{name: "last up", id: "plan", dir: Up, want: []string{"fullName", "plan", "email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MoveField(s, tt.id, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fieldIDs(got))
			assert.Equal(t, []string{"fullName", "email", "plan"}, fieldIDs(s))
		})
	}

	_, err := MoveField(s, "email", "sideways")
	assert.Equal(t, ErrInvalidDirection, err)
}

func TestMoveField_upThenDown(t *testing.T) {
	s := registrationSchema()
	up, err := MoveField(s, "email", Up)
	require.NoError(t, err)
	back, err := MoveField(up, "email", Down)
	require.NoError(t, err)
	assert.Equal(t, s, back)
}

func TestSetTitleAndDescription(t *testing.T) {
	s := registrationSchema()
	got := SetDescription(SetTitle(s, "Waitlist"), "Join the waitlist")
	assert.Equal(t, "Waitlist", got.Title)
	assert.Equal(t, "Join the waitlist", got.Description)
	assert.Equal(t, s.Fields, got.Fields)
	assert.Equal(t, "Registration Form", s.Title)
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Info(string, ...interface{})  {}
func (l *recordingLogger) Warn(msg string, _ ...interface{}) {
	l.warnings = append(l.warnings, msg)
}
func (l *recordingLogger) Error(string, ...interface{}) {}
func (l *recordingLogger) Fatal(string, ...interface{}) {}

func TestBuilder(t *testing.T) {
	var changes []Schema
	logger := new(recordingLogger)
	n := 0
	b := NewBuilder(Schema{}, func(s Schema) { changes = append(changes, s) },
		WithLogger(logger),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("field_%d", n) }),
	)

	b.SetTitle("Registration Form")
	id1 := b.AddField()
	id2 := b.AddField()
	assert.Equal(t, "field_1", id1)
	assert.Equal(t, "field_2", id2)

	email := FieldEmail
	assert.True(t, b.UpdateField(id2, FieldPatch{Type: &email, Label: strPtr("Email"), Required: boolPtr(true)}))
	assert.True(t, b.MoveField(id2, Up))
	assert.False(t, b.MoveField(id2, Up), "already first")
	assert.False(t, b.UpdateField("ghost", FieldPatch{Label: strPtr("x")}))
	assert.False(t, b.RemoveField("ghost"))
	assert.True(t, b.RemoveField(id1))

	want := Schema{
		Title:  "Registration Form",
		Fields: []Field{{ID: "field_2", Type: FieldEmail, Label: "Email", Required: true}},
	}
	if diff := cmp.Diff(want, b.Schema()); diff != "" {
		t.Errorf("Builder.Schema() mismatch (-want +got):\n%s", diff)
	}
	// title, 2 adds, update, move, remove
	assert.Len(t, changes, 6)
	assert.Equal(t, want, changes[len(changes)-1])
	assert.Len(t, logger.warnings, 2)
}

func TestBuilder_snapshotsAreIndependent(t *testing.T) {
	var last Schema
	b := NewBuilder(registrationSchema(), func(s Schema) { last = s })
	b.SetTitle("A")
	last.Fields[0].Label = "mutated"
	assert.Equal(t, "Full Name", b.Schema().Fields[0].Label)
}

func TestBuilder_jsonRoundTrip(t *testing.T) {
	var last Schema
	n := 0
	b := NewBuilder(Schema{}, func(s Schema) { last = s },
		WithIDGenerator(func() string { n++; return fmt.Sprintf("field_%d", n) }),
	)

	b.SetTitle("Registration Form")
	b.SetDescription("Enroll in the <b>Quran</b> program.")
	name := b.AddField()
	plan := b.AddField()
	level := b.AddField()
	agree := b.AddField()
	note := b.AddField()

	sel, radio, checkbox, textarea := FieldSelect, FieldRadio, FieldCheckbox, FieldTextarea
	b.UpdateField(name, FieldPatch{Label: strPtr("Full Name"), Placeholder: strPtr("Your name"), Required: boolPtr(true)})
	b.UpdateField(plan, FieldPatch{Type: &sel, Label: strPtr("Plan"), Required: boolPtr(true), Options: &[]string{"Monthly", "Semester"}})
	b.UpdateField(level, FieldPatch{Type: &radio, Label: strPtr("Level"), Options: &[]string{"Beginner", "Advanced"}})
	b.UpdateField(agree, FieldPatch{Type: &checkbox, Label: strPtr("I agree"), Required: boolPtr(true)})
	b.UpdateField(note, FieldPatch{Type: &textarea, Label: strPtr("Notes"), Options: &[]string{}})
	b.MoveField(note, Up)

	built := b.Schema()
	require.Equal(t, built, last)

	data, err := built.JSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"options": []`)
	parsed, err := Parse(data)
	require.NoError(t, err)
	if diff := cmp.Diff(built, parsed); diff != "" {
		t.Errorf("Parse(JSON()) mismatch (-want +got):\n%s", diff)
	}

	r, err := NewRenderer()
	require.NoError(t, err)
	values := Values{name: "Amina", plan: "Yearly", agree: false}
	errs := Validate(built, values)
	require.NotEmpty(t, errs)

	want, err := r.Render(built, values, errs, WithAction("/programs/p1/register"))
	require.NoError(t, err)
	got, err := r.Render(parsed, values, errs, WithAction("/programs/p1/register"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	// the empty schema survives too
	data, err = Schema{}.JSON()
	require.NoError(t, err)
	empty, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Schema{}, empty)
}
