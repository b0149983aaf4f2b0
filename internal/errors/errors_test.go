// Package errors tests for error codes and wrapping behavior.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

// TestCodeValues verifies all error codes have non-empty, stable values.
func TestCodeValues(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want string
	}{
		{"missing field", ErrMissingField, "MISSING_FIELD"},
		{"not found", ErrNotFound, "NOT_FOUND"},
		{"already exists", ErrAlreadyExists, "ALREADY_EXISTS"},
		{"invalid payload", ErrInvalidPayload, "INVALID_PAYLOAD"},
		{"store unavailable", ErrStoreUnavailable, "STORE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.code) != tt.want {
				t.Errorf("code = %q, want %q", tt.code, tt.want)
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	err := New(ErrNotFound, "room r1 not found")
	if !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("Error() = %q, should contain code", err.Error())
	}
	if !strings.Contains(err.Error(), "room r1 not found") {
		t.Errorf("Error() = %q, should contain message", err.Error())
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrStoreUnavailable, "save failed", cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match the cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %q, should contain cause", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"app error", New(ErrAlreadyExists, "room exists"), ErrAlreadyExists},
		{"wrapped app error", fmt.Errorf("outer: %w", New(ErrNotFound, "gone")), ErrNotFound},
		{"plain error", stderrors.New("boom"), ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := Newf(ErrMissingField, "missing %s", "roomId")
	if !Is(err, ErrMissingField) {
		t.Error("Is should match the carried code")
	}
	if Is(err, ErrNotFound) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrMissingField) {
		t.Error("Is should not match a plain error")
	}
}
