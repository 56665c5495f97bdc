// Package errors provides error handling for the TRVLR solve service:
// errors that carry operation and component context for structured logging,
// plus HTTP middleware that recovers panics and logs failed requests.
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// Error attaches context to an underlying error: a message for humans, the
// operation that failed, the component it lives in, and the stack captured
// when the error was built.
type Error struct {
	Err       error
	Message   string
	Operation string
	Component string
	Stack     []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := make([]string, 0, 2)
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if tag := e.tag(); tag != "" {
		parts = append(parts, "["+tag+"]")
	}

	head := strings.Join(parts, " ")
	switch {
	case e.Err == nil:
		return head
	case head == "":
		return e.Err.Error()
	default:
		return head + ": " + e.Err.Error()
	}
}

// tag joins component and operation into one origin marker.
func (e *Error) tag() string {
	switch {
	case e.Component != "" && e.Operation != "":
		return e.Component + "." + e.Operation
	case e.Component != "":
		return e.Component
	default:
		return e.Operation
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Fields returns the error context as structured logging fields.
func (e *Error) Fields() map[string]interface{} {
	fields := map[string]interface{}{"error": e.Error()}
	if e.Operation != "" {
		fields["operation"] = e.Operation
	}
	if e.Component != "" {
		fields["component"] = e.Component
	}
	if e.Err != nil {
		fields["cause"] = e.Err.Error()
	}
	return fields
}

// WithMessage sets the human-readable message.
func (e *Error) WithMessage(msg string) *Error {
	e.Message = msg
	return e
}

// WithOperation sets the operation that was running when the error occurred.
func (e *Error) WithOperation(op string) *Error {
	e.Operation = op
	return e
}

// WithComponent sets the component the error belongs to.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// StackTrace returns the stack captured when the error was built.
func (e *Error) StackTrace() []string {
	return e.Stack
}

// New creates an error with a message.
func New(msg string) *Error {
	return &Error{
		Message: msg,
		Stack:   captureStack(),
	}
}

// Errorf creates an error with a formatted message.
func Errorf(format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(),
	}
}

// Wrap attaches a message to err. An err that already is an *Error keeps
// its context and stack; anything else is captured fresh. The wrapped error
// stays reachable through errors.Is and errors.As. Returns nil for a nil
// err.
func Wrap(err error, msg string) *Error {
	if err == nil {
		return nil
	}

	e, ok := err.(*Error)
	if !ok {
		e = &Error{
			Err:   err,
			Stack: captureStack(),
		}
	}
	if msg != "" {
		e.Message = msg
	}
	return e
}

// Wrapf attaches a formatted message to err.
func Wrapf(err error, format string, args ...interface{}) *Error {
	e := Wrap(err, "")
	if e == nil {
		return nil
	}
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// captureStack records the call stack above this package, most recent frame
// first.
func captureStack() []string {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	stack := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") &&
			!strings.Contains(frame.File, "internal/errors") {
			stack = append(stack, fmt.Sprintf("%s\n\t%s:%d", frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	return stack
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err, if any.
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}
