package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodePlanInvalid, "test error message")

	if err.Code != ErrCodePlanInvalid {
		t.Errorf("expected code %s, got %s", ErrCodePlanInvalid, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeFileReadFailed, "failed to read file", cause)

	if err.Code != ErrCodeFileReadFailed {
		t.Errorf("expected code %s, got %s", ErrCodeFileReadFailed, err.Code)
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *AgentplanError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodePlanInvalid, "invalid plan"),
			wantCode: "PLAN-002",
			wantMsg:  "invalid plan",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeFileReadFailed, "read failed", fmt.Errorf("permission denied")),
			wantCode: "IO-002",
			wantMsg:  "permission denied",
		},
		{
			name:     "error with suggestions and docs",
			err:      New(ErrCodeConfigInvalid, "bad config").WithSuggestion("fix it").WithDocs("https://example.com/docs"),
			wantCode: "CONFIG-001",
			wantMsg:  "Documentation: https://example.com/docs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestWithSuggestions(t *testing.T) {
	err := New(ErrCodePlanInvalid, "test").
		WithSuggestion("first").
		WithSuggestions("second", "third")

	if len(err.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(err.Suggestions))
	}

	if err.Suggestions[2] != "third" {
		t.Errorf("expected suggestions in insertion order, got %v", err.Suggestions)
	}
}

func TestNewInvalidInputError(t *testing.T) {
	err := NewInvalidInputError()

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidInput, err.Code)
	}

	if err.Message != "Idea is required" {
		t.Errorf("expected message 'Idea is required', got %q", err.Message)
	}
}

func TestNewGenerationError(t *testing.T) {
	cause := fmt.Errorf("duplicate node id")
	err := NewGenerationError(cause)

	if err.Code != ErrCodePlanGeneration {
		t.Errorf("expected code %s, got %s", ErrCodePlanGeneration, err.Code)
	}

	if !errors.Is(err, cause) {
		t.Error("generation error should wrap its cause")
	}
}

func TestNewPlanDriftError(t *testing.T) {
	err := NewPlanDriftError("agentic-plan.json")

	if err.Code != ErrCodePlanDriftDetected {
		t.Errorf("expected code %s, got %s", ErrCodePlanDriftDetected, err.Code)
	}

	if !strings.Contains(err.Message, "agentic-plan.json") {
		t.Errorf("message should mention the file, got %q", err.Message)
	}

	if len(err.Suggestions) == 0 {
		t.Error("expected suggestions")
	}
}

func TestNewFileUnmarshalError(t *testing.T) {
	cause := fmt.Errorf("unexpected end of JSON input")
	err := NewFileUnmarshalError("plan.json", "JSON", cause)

	if err.Code != ErrCodeFileUnmarshal {
		t.Errorf("expected code %s, got %s", ErrCodeFileUnmarshal, err.Code)
	}

	if !strings.Contains(err.Error(), "plan.json") {
		t.Errorf("error should mention the path: %s", err.Error())
	}
}

func TestCodeOfAndMessageOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
		wantMsg  string
	}{
		{
			name:     "nil",
			err:      nil,
			wantCode: "",
			wantMsg:  "",
		},
		{
			name:     "plain error",
			err:      fmt.Errorf("boom"),
			wantCode: "",
			wantMsg:  "boom",
		},
		{
			name:     "coded error",
			err:      NewInvalidInputError(),
			wantCode: ErrCodeInvalidInput,
			wantMsg:  "Idea is required",
		},
		{
			name:     "coded error wrapped with fmt",
			err:      fmt.Errorf("handler: %w", NewGenerationError(fmt.Errorf("panic"))),
			wantCode: ErrCodePlanGeneration,
			wantMsg:  "plan generation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.wantCode {
				t.Errorf("CodeOf() = %q, want %q", got, tt.wantCode)
			}
			if got := MessageOf(tt.err); got != tt.wantMsg {
				t.Errorf("MessageOf() = %q, want %q", got, tt.wantMsg)
			}
		})
	}

	if !HasCode(NewInvalidInputError(), ErrCodeInvalidInput) {
		t.Error("HasCode should match the error's own code")
	}
	if HasCode(nil, ErrCodeInvalidInput) {
		t.Error("HasCode(nil) should be false")
	}
}
