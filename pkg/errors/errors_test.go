package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeFetch, cause, "failed to fetch")

	if err.Code != ErrCodeFetch {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeFetch)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
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
			err:      New(ErrCodeParse, "test"),
			code:     ErrCodeParse,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeParse, "test"),
			code:     ErrCodeFetch,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeAutomation, New(ErrCodeSelector, "inner"), "outer"),
			code:     ErrCodeAutomation,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeParse,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeParse,
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
	if got := GetCode(New(ErrCodeDownload, "x")); got != ErrCodeDownload {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeDownload)
	}
	if got := GetCode(errors.New("plain")); got != Code("") {
		t.Errorf("GetCode() = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeFetch, "fetch failed")); got != "fetch failed" {
		t.Errorf("UserMessage() = %q, want %q", got, "fetch failed")
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %q, want %q", got, "plain error")
	}
}
