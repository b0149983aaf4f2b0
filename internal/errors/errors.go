// Package errors provides error code definitions for the sync API surface.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a unique error code reported to API callers.
type Code string

const (
	// ErrMissingField indicates a required request field was absent.
	ErrMissingField Code = "MISSING_FIELD"

	// ErrNotFound indicates the requested room does not exist.
	ErrNotFound Code = "NOT_FOUND"

	// ErrAlreadyExists indicates a create collided with an existing room.
	ErrAlreadyExists Code = "ALREADY_EXISTS"

	// ErrInvalidPayload indicates a malformed request envelope.
	ErrInvalidPayload Code = "INVALID_PAYLOAD"

	// ErrStoreUnavailable indicates the backing store failed or timed out.
	ErrStoreUnavailable Code = "STORE_UNAVAILABLE"
)

// AppError is an error carrying a stable code for transport mapping.
type AppError struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError with the given code and message.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates an AppError with a formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an AppError wrapping an underlying cause.
func Wrap(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the error code from err.
// Returns ErrInvalidPayload for non-AppError values so transport layers
// always have a code to report.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInvalidPayload
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
