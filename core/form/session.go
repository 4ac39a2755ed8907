package form

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Confirmation is what a sink hands back for an accepted submission.
type Confirmation struct {
	Reference   string    `json:"reference"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubmissionSink receives validated records. The engine never retries a failed submission.
type SubmissionSink interface {
	Submit(ctx context.Context, key Key, record Values) (Confirmation, error)
}

// SinkFunc adapts a function to SubmissionSink.
type SinkFunc func(ctx context.Context, key Key, record Values) (Confirmation, error)

func (f SinkFunc) Submit(ctx context.Context, key Key, record Values) (Confirmation, error) {
	return f(ctx, key, record)
}

// Session holds the state of one form being filled: the schema, the current values
// and the errors on display. The host owns it; the renderer only reads it.
type Session struct {
	key       Key
	schema    Schema
	values    Values
	errors    ValidationResult
	validator *Validator
	attempted bool
}

func NewSession(key Key, s Schema, initial Values, v *Validator) *Session {
	if v == nil {
		v = defaultValidator
	}
	values := initial.Clone()
	return &Session{
		key:       key,
		schema:    s.Clone(),
		values:    values,
		errors:    make(ValidationResult),
		validator: v,
	}
}

func (s *Session) Key() Key                 { return s.key }
func (s *Session) Schema() Schema           { return s.schema.Clone() }
func (s *Session) Values() Values           { return s.values.Clone() }
func (s *Session) Errors() ValidationResult { return copyResult(s.errors) }

// OnChange records a new value for fieldID. Once a submission was attempted,
// the field is re-validated so its inline error follows the input.
func (s *Session) OnChange(fieldID string, value interface{}) {
	s.values[fieldID] = value
	if !s.attempted {
		return
	}
	f, ok := s.schema.Field(fieldID)
	if !ok {
		return
	}
	if msg := s.validator.validateField(f, s.values); msg != "" {
		s.errors[fieldID] = msg
	} else {
		delete(s.errors, fieldID)
	}
}

// Validate runs the validator over the current values and keeps the result on display.
func (s *Session) Validate() ValidationResult {
	s.attempted = true
	s.errors = s.validator.Validate(s.schema, s.values)
	return copyResult(s.errors)
}

// Submit validates the values and hands the flat record to sink only when they are valid.
// Invalid values yield an *InvalidError; a sink failure yields ErrSubmissionFailed.
// The values are preserved either way.
func (s *Session) Submit(ctx context.Context, sink SubmissionSink) (Confirmation, error) {
	if res := s.Validate(); !res.Valid() {
		return Confirmation{}, &InvalidError{Result: res}
	}
	conf, err := sink.Submit(ctx, s.key, s.values.Record(s.schema))
	if err != nil {
		return Confirmation{}, &submissionError{cause: err}
	}
	return conf, nil
}

// Render draws the session's form with its current values and errors.
func (s *Session) Render(r *Renderer, opts ...RenderOption) ([]byte, error) {
	return r.Render(s.schema, s.values, s.errors, opts...)
}

// submissionError wraps a sink failure; errors.Cause yields ErrSubmissionFailed.
type submissionError struct {
	cause error
}

func (e *submissionError) Error() string { return ErrSubmissionFailed.Error() + ": " + e.cause.Error() }
func (e *submissionError) Cause() error  { return ErrSubmissionFailed }
func (e *submissionError) Unwrap() error { return e.cause }

// SinkError returns the underlying sink failure of a Submit error, if any.
func SinkError(err error) error {
	var se *submissionError
	if errors.As(err, &se) {
		return se.cause
	}
	return nil
}

func copyResult(r ValidationResult) ValidationResult {
	out := make(ValidationResult, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
