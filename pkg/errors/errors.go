// Package errors provides structured error types for cifra.
//
// The chord engine itself never fails; these errors belong to the layers
// around it (pipeline options, song files, stores, caches and the HTTP API).
// Each error carries a machine-readable code that the CLI prints and the
// server maps to a status code.
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *NOT_FOUND: Resource not found
//   - TOO_LARGE, UNAVAILABLE: Limits and backend outages
//   - INTERNAL_ERROR: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSpelling, "unknown spelling %q", s)
//	if errors.Is(err, errors.ErrCodeInvalidSpelling) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeUnavailable, origErr, "preview store")
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidSpelling Code = "INVALID_SPELLING"
	ErrCodeInvalidOutput   Code = "INVALID_OUTPUT"
	ErrCodeInvalidInterval Code = "INVALID_INTERVAL"
	ErrCodeInvalidKey      Code = "INVALID_KEY"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeTooLarge        Code = "TOO_LARGE"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodePreviewNotFound Code = "PREVIEW_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"

	// Backend errors
	ErrCodeUnavailable Code = "UNAVAILABLE"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// HTTPStatus maps an error code to the HTTP status the API answers with.
// Unknown and empty codes are internal errors.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidSpelling,
		ErrCodeInvalidOutput, ErrCodeInvalidInterval, ErrCodeInvalidKey, ErrCodeInvalidPath:
		return http.StatusBadRequest
	case ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeNotFound, ErrCodePreviewNotFound, ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
