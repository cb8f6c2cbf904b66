package workflow

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced to the HTTP layer: validation maps to 400,
// not-found to 404, permission to 403, transition to 422. Anything else
// is an unexpected persistence failure.

type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

type NotFoundError struct{ Msg string }

func (e *NotFoundError) Error() string { return e.Msg }

func notFound(msg string) error { return &NotFoundError{Msg: msg} }

type PermissionError struct{ Msg string }

func (e *PermissionError) Error() string { return e.Msg }

// TransitionError wraps a state machine rejection.
type TransitionError struct{ Err error }

func (e *TransitionError) Error() string { return e.Err.Error() }
func (e *TransitionError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var v *NotFoundError
	return errors.As(err, &v)
}

func IsPermission(err error) bool {
	var v *PermissionError
	return errors.As(err, &v)
}

func IsTransition(err error) bool {
	var v *TransitionError
	return errors.As(err, &v)
}
