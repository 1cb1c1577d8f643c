package errors

import "errors"

// RuntimeError is a failure of a command that the user may be able to fix,
// with an optional hint describing how.
type RuntimeError struct {
	*StructuredError
	hint string
}

// NewRuntimeError returns a new RuntimeError. cause and hint are optional.
func NewRuntimeError(msg string, cause error, hint string, fields ...any) *RuntimeError {
	return &RuntimeError{
		StructuredError: NewWithCause(msg, cause, fields...),
		hint:            hint,
	}
}

// Hint returns the advice shown to the user, if any.
func (e *RuntimeError) Hint() string {
	return e.hint
}

// Unwrap allows errors.Is and errors.As to work.
func (e *RuntimeError) Unwrap() []error {
	return []error{e.StructuredError}
}

// Errorf logs err and its hint, if it has one. It's meant to be used once, by
// the program entry point.
func Errorf(err error) {
	Log(err)

	var rerr *RuntimeError
	if errors.As(err, &rerr) && rerr.hint != "" {
		logger().Info(rerr.hint)
	}
}
