package form

import (
	"errors"
	"strings"
)

var (
	// ErrSchemaUnavailable means no schema could be loaded for a form; it renders as "form not available".
	ErrSchemaUnavailable = errors.New("form not available")
	ErrFieldNotFound     = errors.New("field not found")
	ErrSubmissionFailed  = errors.New("submission failed")
	ErrInvalidDirection  = errors.New("direction must be up or down")
)

// InvalidError is returned by Session.Submit when the values do not validate.
type InvalidError struct {
	Result ValidationResult
}

func (e *InvalidError) Error() string {
	return "invalid submission: " + strings.Join(e.Result.FieldIDs(), ", ")
}
