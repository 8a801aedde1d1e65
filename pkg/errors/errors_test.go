package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidSpelling, "unknown spelling %q", "mixed")

	if err.Code != ErrCodeInvalidSpelling {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidSpelling)
	}

	if err.Message != `unknown spelling "mixed"` {
		t.Errorf("Message = %v, want %v", err.Message, `unknown spelling "mixed"`)
	}

	expected := `INVALID_SPELLING: unknown spelling "mixed"`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeUnavailable, cause, "preview store")

	if err.Code != ErrCodeUnavailable {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnavailable)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	expected := "UNAVAILABLE: preview store: connection refused"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidKey,
			expected: false,
		},
		{
			name:     "outer code wins",
			err:      Wrap(ErrCodeUnavailable, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeUnavailable,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("render: %w", New(ErrCodeInvalidOutput, "pdf")),
			code:     ErrCodeInvalidOutput,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeNotFound, "x")); got != ErrCodeNotFound {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeNotFound)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidKey, "unknown key %q", "H")); got != `unknown key "H"` {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInvalidFormat, http.StatusBadRequest},
		{ErrCodeInvalidSpelling, http.StatusBadRequest},
		{ErrCodeInvalidOutput, http.StatusBadRequest},
		{ErrCodeInvalidInterval, http.StatusBadRequest},
		{ErrCodeInvalidKey, http.StatusBadRequest},
		{ErrCodeInvalidPath, http.StatusBadRequest},
		{ErrCodeTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodePreviewNotFound, http.StatusNotFound},
		{ErrCodeFileNotFound, http.StatusNotFound},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := HTTPStatus(tt.code); got != tt.want {
				t.Errorf("HTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}
