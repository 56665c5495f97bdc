package tsp

import (
	"errors"
	"fmt"
)

// Category sentinels for solver failures. Every error produced by this
// package and the strategy packages wraps one of these, so callers can
// classify failures with errors.Is.
var (
	// ErrInvalidInstance flags malformed distance input: non-square or
	// asymmetric matrices, negative or non-finite entries, bad permutations.
	ErrInvalidInstance = errors.New("invalid instance")

	// ErrEmptyInstance flags an instance with zero cities. Construction must
	// fail rather than silently return an empty tour.
	ErrEmptyInstance = errors.New("empty instance")

	// ErrInvalidConfiguration flags strategy parameters rejected during
	// validation, before any optimization iteration runs.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// Error is a solver error with category and context that can be wrapped
// with additional information.
type Error struct {
	// Kind is the failure category, one of the sentinels above.
	Kind error
	// Op is the operation that caused the error.
	Op string
	// Message describes the error that occurred.
	Message string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Kind != nil {
		if msg != "" {
			msg = fmt.Sprintf("%s: %s", e.Kind.Error(), msg)
		} else {
			msg = e.Kind.Error()
		}
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is reports whether the error belongs to the target category. It makes
// errors.Is(err, ErrInvalidConfiguration) and friends work on wrapped
// values.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	return e.Kind == target
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// NewError creates a new solver error in the given category.
func NewError(kind error, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// NewErrorf creates a new solver error with a formatted message.
func NewErrorf(kind error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error into the given category.
// If err is nil, WrapError returns nil.
func WrapError(kind error, err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// AsError checks if an error is of type Error anywhere in its chain.
// If so, it returns the error and true; otherwise nil and false.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
