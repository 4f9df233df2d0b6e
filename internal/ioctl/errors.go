package ioctl

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeUnknownType indicates an ioctl id or name that is not registered.
	ErrCodeUnknownType ErrorCode = "UNKNOWN_TYPE"

	// ErrCodeInvalidArgument indicates a raw payload that is nil, too short
	// or internally inconsistent.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeMalformedTrace indicates a trace line that cannot be parsed.
	ErrCodeMalformedTrace ErrorCode = "MALFORMED_TRACE"
)

// Error is the error type returned by the registry, the tree and the trace
// serializer.
//
// Recording-side errors (UNKNOWN_TYPE, INVALID_ARGUMENT) are per call: the
// caller should skip the call and keep recording. MALFORMED_TRACE is fatal to
// loading the trace it came from.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Type is the ioctl name involved, if known.
	Type string

	// Line is the 1-based trace line for MALFORMED_TRACE, 0 otherwise.
	Line int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	switch {
	case e.Line > 0 && e.Type != "":
		return fmt.Sprintf("%s: line %d: %s (type=%s)", e.Code, e.Line, msg, e.Type)
	case e.Line > 0:
		return fmt.Sprintf("%s: line %d: %s", e.Code, e.Line, msg)
	case e.Type != "":
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, msg, e.Type)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnknownType reports whether err is, or wraps, an UNKNOWN_TYPE error.
func IsUnknownType(err error) bool {
	return hasCode(err, ErrCodeUnknownType)
}

// IsInvalidArgument reports whether err is, or wraps, an INVALID_ARGUMENT error.
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrCodeInvalidArgument)
}

// IsMalformedTrace reports whether err is, or wraps, a MALFORMED_TRACE error.
func IsMalformedTrace(err error) bool {
	return hasCode(err, ErrCodeMalformedTrace)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// NewUnknownIDError creates an UNKNOWN_TYPE error for an unregistered request number.
func NewUnknownIDError(id uint32) *Error {
	return &Error{
		Code:    ErrCodeUnknownType,
		Message: fmt.Sprintf("no ioctl registered with id 0x%X", id),
	}
}

// NewUnknownNameError creates an UNKNOWN_TYPE error for an unregistered name.
func NewUnknownNameError(name string) *Error {
	return &Error{
		Code:    ErrCodeUnknownType,
		Message: fmt.Sprintf("no ioctl registered with name %q", name),
		Type:    name,
	}
}

// NewMalformedTraceError creates a MALFORMED_TRACE error for a trace line.
// line may be 0 when the position is not known to the caller.
func NewMalformedTraceError(line int, typeName string, err error) *Error {
	var e *Error
	if errors.As(err, &e) && e.Code == ErrCodeMalformedTrace {
		// Keep the innermost message, add position.
		return &Error{
			Code:    ErrCodeMalformedTrace,
			Message: e.Message,
			Type:    firstNonEmpty(typeName, e.Type),
			Line:    line,
			Err:     e.Err,
		}
	}
	return &Error{
		Code:    ErrCodeMalformedTrace,
		Message: "cannot parse trace line",
		Type:    typeName,
		Line:    line,
		Err:     err,
	}
}

func invalidArgument(t *Type, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
		Type:    t.name,
	}
}

func malformed(t *Type, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeMalformedTrace,
		Message: fmt.Sprintf(format, args...),
		Type:    t.name,
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
