// Package errors provides structured error types for qmap.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the library
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Two codes carry domain meaning:
//   - UNSUPPORTED_OPERATION: a circuit operation whose qubit arity cannot be
//     classified (repeated or out-of-range qubit). Fatal for that request.
//   - NO_VALID_LAYOUT: no device in the pool could host the circuit. Not fatal
//     to the process; callers typically deflate and retry or widen the pool.
//
// A device that does not fit a circuit, a missing calibration entry and a
// search that ran out of budget are all normal outcomes and never surface as
// errors.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnsupportedOperation, "operation %d repeats qubit %d", i, q)
//	if errors.Is(err, errors.ErrCodeUnsupportedOperation) {
//	    // reject the circuit
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput         Code = "INVALID_INPUT"
	ErrCodeInvalidDevice        Code = "INVALID_DEVICE"
	ErrCodeInvalidPath          Code = "INVALID_PATH"
	ErrCodeUnsupportedOperation Code = "UNSUPPORTED_OPERATION"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeDeviceNotFound Code = "DEVICE_NOT_FOUND"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"

	// Search outcomes
	ErrCodeNoValidLayout Code = "NO_VALID_LAYOUT"
	ErrCodeTimeout       Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
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

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
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

// HTTPStatus maps an error code to the status used by the HTTP API.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidDevice, ErrCodeInvalidPath, ErrCodeUnsupportedOperation:
		return 400
	case ErrCodeNotFound, ErrCodeDeviceNotFound, ErrCodeFileNotFound:
		return 404
	case ErrCodeNoValidLayout:
		return 422
	case ErrCodeTimeout:
		return 504
	case ErrCodeUnsupported:
		return 501
	default:
		return 500
	}
}
