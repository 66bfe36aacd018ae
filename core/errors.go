package core

import "github.com/pkg/errors"

type (
	// FieldError attaches a message to the JSON name of the offending field.
	FieldError struct {
		Field string
		Error string
	}

	// ValidationError carries per-field messages for a rejected payload,
	// whether the rejection happened locally or upstream. The API error
	// handler renders the fields as a {"field": "message"} map.
	ValidationError struct {
		Err    error
		Fields []FieldError
	}
)

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown marks errors that should take the whole process down
// instead of producing a 500.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
