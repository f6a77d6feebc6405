package apperr

import (
	"errors"
	"fmt"
)

// Code enumerates the failure classes the engine reports to its callers.
type Code string

const (
	CodeUnknown      Code = "unknown"
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeInvalidState Code = "invalid_state"
	CodeNoPartner    Code = "no_partner"
	// CodeInvariant marks a programming error: the call must abort rather than return a wrong plan.
	CodeInvariant Code = "invariant"
)

// Error wraps a failure with a machine readable code.
type Error struct {
	Op      string
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New constructs a coded error without a cause.
func New(op string, code Code, format string, args ...any) *Error {
	return &Error{Op: op, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs a coded error around err.
func Wrap(op string, code Code, err error, message string) *Error {
	return &Error{Op: op, Code: code, Message: message, Err: err}
}

// InvalidInput is shorthand for a CodeInvalidInput error.
func InvalidInput(op, format string, args ...any) *Error {
	return New(op, CodeInvalidInput, format, args...)
}

// Invariant is shorthand for a CodeInvariant error.
func Invariant(op, format string, args ...any) *Error {
	return New(op, CodeInvariant, format, args...)
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
