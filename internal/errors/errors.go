package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Input errors (INPUT-001 to INPUT-099)
	ErrCodeInvalidInput     ErrorCode = "INPUT-001"
	ErrCodeRequestMalformed ErrorCode = "INPUT-002"

	// Plan errors (PLAN-001 to PLAN-099)
	ErrCodePlanGeneration    ErrorCode = "PLAN-001"
	ErrCodePlanInvalid       ErrorCode = "PLAN-002"
	ErrCodePlanDriftDetected ErrorCode = "PLAN-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
	ErrCodeFileMarshal     ErrorCode = "IO-006"
)

// AgentplanError represents an error with a code, suggestions, and documentation
type AgentplanError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *AgentplanError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AgentplanError) Unwrap() error {
	return e.Cause
}

// New creates a new AgentplanError
func New(code ErrorCode, message string) *AgentplanError {
	return &AgentplanError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AgentplanError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AgentplanError {
	return &AgentplanError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *AgentplanError) WithSuggestion(suggestion string) *AgentplanError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *AgentplanError) WithSuggestions(suggestions ...string) *AgentplanError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *AgentplanError) WithDocs(url string) *AgentplanError {
	e.DocsURL = url
	return e
}

// As finds the first AgentplanError in err's chain.
func As(err error) (*AgentplanError, bool) {
	var apErr *AgentplanError
	if stderrors.As(err, &apErr) {
		return apErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AgentplanError in err's chain,
// or an empty code.
func CodeOf(err error) ErrorCode {
	if apErr, ok := As(err); ok {
		return apErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// MessageOf returns a short human-readable message for err, without code,
// suggestions or docs. Used where the message is shown to end users as-is.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if apErr, ok := As(err); ok {
		return apErr.Message
	}
	return err.Error()
}

// Common error constructors for frequently used errors

// NewInvalidInputError creates the error returned for a blank idea
func NewInvalidInputError() *AgentplanError {
	return New(ErrCodeInvalidInput, "Idea is required").
		WithSuggestion("Describe the idea in at least a few words")
}

// NewRequestMalformedError creates an error for an undecodable request body
func NewRequestMalformedError(cause error) *AgentplanError {
	return Wrap(ErrCodeRequestMalformed, "Invalid request body", cause).
		WithSuggestion(`Send a JSON object such as {"idea": "...", "options": {"depth": 5}}`)
}

// NewGenerationError creates an internal plan generation failure
func NewGenerationError(cause error) *AgentplanError {
	return Wrap(ErrCodePlanGeneration, "plan generation failed", cause).
		WithSuggestion("Retry the request; generation is deterministic, so report the idea and options if it keeps failing")
}

// NewPlanInvalidError creates a plan validation error
func NewPlanInvalidError(details string) *AgentplanError {
	return New(ErrCodePlanInvalid, fmt.Sprintf("invalid plan: %s", details)).
		WithSuggestion("Run 'agentplan validate <file>' to see validation errors").
		WithSuggestion("Regenerate the plan with 'agentplan generate'")
}

// NewPlanDriftError creates an error for an exported plan that no longer
// matches what the generator produces for the same inputs
func NewPlanDriftError(path string) *AgentplanError {
	return New(ErrCodePlanDriftDetected, fmt.Sprintf("plan drift detected: %s differs from a fresh generation", path)).
		WithSuggestion("Check that the idea and options match the ones used for the export").
		WithSuggestion("Regenerate the plan with 'agentplan generate --out " + path + "'")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *AgentplanError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'agentplan config view' to inspect the effective configuration")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *AgentplanError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *AgentplanError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
