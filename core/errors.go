package core

import "github.com/pkg/errors"

// FieldError pairs a payload field with the message reported for it; the API
// renders these under the "fields" key of an error response.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is an invalid-input failure, optionally carrying per-field
// detail. The HTTP layer maps it to a 400 response of the form
// {"error": ..., "fields": {...}}.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals an integrity problem that should terminate the process
// gracefully rather than be served past.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

// IsShutdown reports whether err, at its root cause, asks for a shutdown.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
