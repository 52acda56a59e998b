// File: api/schemas/errors.go
package schemas

import "fmt"

// ErrorCode is a string type used for structured error reporting.
// Using a custom type keeps callers on the predefined constants.
type ErrorCode string

const (
	// -- Validation --
	ErrCodeInvalidTarget          ErrorCode = "INVALID_TARGET"
	ErrCodeEmptyInput             ErrorCode = "EMPTY_INPUT"
	ErrCodeUnsupportedFormat      ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeUnsupportedMediaType   ErrorCode = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeInvalidDocumentContent ErrorCode = "INVALID_DOCUMENT_CONTENT"

	// -- Session state --
	ErrCodeSessionAlreadyActive ErrorCode = "SESSION_ALREADY_ACTIVE"
	ErrCodeNoActiveSession      ErrorCode = "NO_ACTIVE_SESSION"
)

// ValidationError reports malformed caller input. It is never retried.
type ValidationError struct {
	Code   ErrorCode
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation error: %s", e.Code)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Code, e.Detail)
}

// Is matches any ValidationError with the same code. A target without a
// code matches every ValidationError.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// SessionStateError reports misuse of the recording session lifecycle.
type SessionStateError struct {
	Code   ErrorCode
	Detail string
}

func (e *SessionStateError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("session state error: %s", e.Code)
	}
	return fmt.Sprintf("session state error: %s: %s", e.Code, e.Detail)
}

func (e *SessionStateError) Is(target error) bool {
	t, ok := target.(*SessionStateError)
	if !ok {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// Sentinels for errors.Is matching.
var (
	ErrValidation           = &ValidationError{}
	ErrInvalidTarget        = &ValidationError{Code: ErrCodeInvalidTarget}
	ErrEmptyInput           = &ValidationError{Code: ErrCodeEmptyInput}
	ErrUnsupportedFormat    = &ValidationError{Code: ErrCodeUnsupportedFormat}
	ErrUnsupportedMediaType = &ValidationError{Code: ErrCodeUnsupportedMediaType}
	ErrInvalidDocument      = &ValidationError{Code: ErrCodeInvalidDocumentContent}

	ErrSessionState         = &SessionStateError{}
	ErrSessionAlreadyActive = &SessionStateError{Code: ErrCodeSessionAlreadyActive}
	ErrNoActiveSession      = &SessionStateError{Code: ErrCodeNoActiveSession}
)

// NewValidationError builds a ValidationError with a formatted detail message.
func NewValidationError(code ErrorCode, format string, args ...interface{}) error {
	return &ValidationError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// CaptureError is a transient failure affecting a single interaction.
// Capture logs it and skips the interaction; recording continues.
type CaptureError struct {
	Source string
	Err    error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture error (%s): %v", e.Source, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// ExportError wraps an encoder failure with the format it occurred in.
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s export failed: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
