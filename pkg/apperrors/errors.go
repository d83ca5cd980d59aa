package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyQuery        = errors.New("deal description is empty")
	ErrNoTable           = errors.New("no deal database uploaded")
	ErrMissingCredential = errors.New("provider API key is missing")
	ErrNoModel           = errors.New("no model selected")
	ErrUnknownModel      = errors.New("model is not available for this key")
	ErrSessionNotFound   = errors.New("session not found")
)

// ValidationError reports an input problem that halts the workflow until the
// analyst corrects it. It is never retried.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps err as a validation failure on field.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
