// Package errors provides structured error types for the flowgraph workflow model.
//
// Every failure the core can produce is a value of [Error]: catalog loading
// problems, rejected graph edits, deserialization issues and refused status
// transitions. Each carries a machine-readable [Code] so that callers (the
// editor UI, the HTTP surface, the CLI) can decide how to present it without
// parsing messages.
//
// # Error Codes
//
// Codes are grouped by the component that raises them:
//   - Catalog: DUPLICATE_ID, INVALID_SCHEMA
//   - Graph edits: UNKNOWN_*, FIELD_CONSTRAINT, SELF_LOOP, DUPLICATE_EDGE, ...
//   - Activation: NOT_ACTIVATABLE, INVALID_TRANSITION
//   - Deserialization: INVALID_PAYLOAD, UNSUPPORTED_VERSION
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownNode, "node %q does not exist", id)
//	if errors.Is(err, errors.ErrCodeUnknownNode) {
//	    // Render inline
//	}
//
//	// Attach the offending field or payload path
//	err := errors.NewField(errors.ErrCodeFieldConstraint, "threshold", "must be ≤ 1")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Generic input errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"

	// Catalog errors
	ErrCodeDuplicateID   Code = "DUPLICATE_ID"
	ErrCodeInvalidSchema Code = "INVALID_SCHEMA"

	// Graph edit errors
	ErrCodeUnknownType      Code = "UNKNOWN_TYPE"
	ErrCodeUnknownNode      Code = "UNKNOWN_NODE"
	ErrCodeUnknownEdge      Code = "UNKNOWN_EDGE"
	ErrCodeUnknownField     Code = "UNKNOWN_FIELD"
	ErrCodeFieldConstraint  Code = "FIELD_CONSTRAINT"
	ErrCodeSelfLoop         Code = "SELF_LOOP"
	ErrCodeDuplicateEdge    Code = "DUPLICATE_EDGE"
	ErrCodeDuplicateNode    Code = "DUPLICATE_NODE"
	ErrCodeSecondOutgoing   Code = "SECOND_OUTGOING"
	ErrCodeInvalidCondition Code = "INVALID_CONDITION"
	ErrCodeInvalidEndpoint  Code = "INVALID_ENDPOINT"
	ErrCodeOutOfRange       Code = "OUT_OF_RANGE"

	// Activation errors
	ErrCodeNotActivatable    Code = "NOT_ACTIVATABLE"
	ErrCodeInvalidTransition Code = "INVALID_TRANSITION"

	// Deserialization errors
	ErrCodeInvalidPayload     Code = "INVALID_PAYLOAD"
	ErrCodeUnsupportedVersion Code = "UNSUPPORTED_VERSION"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code, an optional field or path, and an optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Field   string // Offending field, argument, or payload path (optional)
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewField creates a new Error attached to a field name or payload path.
func NewField(code Code, field, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// WithPrefix returns a copy of e whose Field is prefixed with path.
// Used to lift an error about "config.x" into "nodes[3].config.x".
func (e *Error) WithPrefix(path string) *Error {
	out := *e
	switch {
	case path == "":
	case out.Field == "":
		out.Field = path
	default:
		out.Field = path + "." + out.Field
	}
	return &out
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// As is a convenience wrapper returning the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Issues flattens err into the *Error values it carries. Errors combined with
// [errors.Join] are walked recursively; anything that is not an *Error is
// wrapped as INTERNAL_ERROR. A nil err yields nil.
func Issues(err error) []*Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return []*Error{e}
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*Error
		for _, inner := range joined.Unwrap() {
			out = append(out, Issues(inner)...)
		}
		return out
	}
	if e, ok := As(err); ok {
		return []*Error{e}
	}
	return []*Error{Wrap(ErrCodeInternal, err, "unexpected error")}
}

// Join combines issues into a single error. It returns nil for no issues
// and the issue itself when there is exactly one.
func Join(issues ...*Error) error {
	switch len(issues) {
	case 0:
		return nil
	case 1:
		return issues[0]
	}
	errs := make([]error, len(issues))
	for i, e := range issues {
		errs[i] = e
	}
	return errors.Join(errs...)
}
