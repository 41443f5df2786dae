package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidFormat, "unknown format: %s", "bmp")

	if err.Code != ErrCodeInvalidFormat {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidFormat)
	}

	if err.Message != "unknown format: bmp" {
		t.Errorf("Message = %v, want %v", err.Message, "unknown format: bmp")
	}

	expected := "INVALID_FORMAT: unknown format: bmp"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeBrowser, cause, "failed to open page")

	if err.Code != ErrCodeBrowser {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeBrowser)
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
			err:      New(ErrCodeSyntax, "test"),
			code:     ErrCodeSyntax,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeSyntax, "test"),
			code:     ErrCodeTimeout,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeBrowser, New(ErrCodeTimeout, "inner"), "outer"),
			code:     ErrCodeBrowser,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeSyntax,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeSyntax,
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
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeTemplateNotFound, "test"),
			expected: ErrCodeTemplateNotFound,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRenderClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "syntax error keeps its code",
			err:      New(ErrCodeSyntax, "parse error on line 2"),
			expected: ErrCodeSyntax,
		},
		{
			name:     "timeout keeps its code",
			err:      New(ErrCodeTimeout, "no output within bound"),
			expected: ErrCodeTimeout,
		},
		{
			name:     "unsupported format keeps its code",
			err:      New(ErrCodeUnsupportedFormat, "bmp is not supported"),
			expected: ErrCodeUnsupportedFormat,
		},
		{
			name:     "browser error becomes generic failure",
			err:      New(ErrCodeBrowser, "page crashed"),
			expected: ErrCodeRenderFailed,
		},
		{
			name:     "plain error becomes generic failure",
			err:      errors.New("boom"),
			expected: ErrCodeRenderFailed,
		},
		{
			name:     "wrapped syntax error keeps its code",
			err:      New(ErrCodeSyntax, "bad arrow"),
			expected: ErrCodeSyntax,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderClassification(tt.err); got != tt.expected {
				t.Errorf("RenderClassification() = %v, want %v", got, tt.expected)
			}
		})
	}
}
