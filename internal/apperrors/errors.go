package apperrors

import (
	"fmt"
)

// ErrorType represents different categories of wrapper errors
type ErrorType string

const (
	// ErrorTypeConfiguration represents missing or invalid configuration values
	ErrorTypeConfiguration ErrorType = "CONFIGURATION_ERROR"
	// ErrorTypeRestore represents failures of the restore subprocess
	ErrorTypeRestore ErrorType = "RESTORE_ERROR"
	// ErrorTypeReplicate represents failures of the replicate subprocess
	ErrorTypeReplicate ErrorType = "REPLICATE_ERROR"
	// ErrorTypeToolNotFound represents a missing litestream binary
	ErrorTypeToolNotFound ErrorType = "TOOL_NOT_FOUND_ERROR"
	// ErrorTypeStorage represents replica bucket preflight failures
	ErrorTypeStorage ErrorType = "STORAGE_ERROR"
	// ErrorTypeSnapshot represents local safety snapshot failures
	ErrorTypeSnapshot ErrorType = "SNAPSHOT_ERROR"
	// ErrorTypeIntegrity represents database integrity check failures
	ErrorTypeIntegrity ErrorType = "INTEGRITY_ERROR"
	// ErrorTypeTimeout represents operations cut short by a deadline
	ErrorTypeTimeout ErrorType = "TIMEOUT_ERROR"
)

// Error represents a wrapper error with context.
//
// The wrapper performs no retries and no partial recovery: every error is
// surfaced to the caller unmodified, carrying whatever diagnostic output the
// external tool produced.
type Error struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`

	// ExitCode holds the subprocess exit status for restore/replicate
	// errors. -1 means no subprocess exit status is available.
	ExitCode int `json:"exit_code,omitempty"`

	// Stderr holds captured diagnostic output from the external tool.
	Stderr string `json:"stderr,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithExitCode records the subprocess exit status on the error
func (e *Error) WithExitCode(code int) *Error {
	e.ExitCode = code
	return e
}

// WithStderr records captured subprocess diagnostics on the error
func (e *Error) WithStderr(stderr string) *Error {
	e.Stderr = stderr
	return e
}

// New creates a new Error
func New(errorType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:     errorType,
		Message:  message,
		Cause:    cause,
		Context:  make(map[string]interface{}),
		ExitCode: -1,
	}
}

// Common error constructors

func NewConfigurationError(message string, cause error) *Error {
	return New(ErrorTypeConfiguration, message, cause)
}

func NewRestoreError(message string, cause error) *Error {
	return New(ErrorTypeRestore, message, cause)
}

func NewReplicateError(message string, cause error) *Error {
	return New(ErrorTypeReplicate, message, cause)
}

func NewToolNotFoundError(message string, cause error) *Error {
	return New(ErrorTypeToolNotFound, message, cause)
}

func NewStorageError(message string, cause error) *Error {
	return New(ErrorTypeStorage, message, cause)
}

func NewSnapshotError(message string, cause error) *Error {
	return New(ErrorTypeSnapshot, message, cause)
}

func NewIntegrityError(message string, cause error) *Error {
	return New(ErrorTypeIntegrity, message, cause)
}

func NewTimeoutError(message string, cause error) *Error {
	return New(ErrorTypeTimeout, message, cause)
}

// IsType reports whether err is a wrapper Error of the given type
func IsType(err error, errorType ErrorType) bool {
	appErr, ok := AsError(err)
	return ok && appErr.Type == errorType
}

// ExitCode extracts a subprocess exit code from err, or -1 when none is
// recorded. The CLI uses this to mirror the external tool's exit status.
func ExitCode(err error) int {
	if appErr, ok := AsError(err); ok {
		return appErr.ExitCode
	}
	return -1
}
