package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Workspace errors
	ErrCodeRootNotFound  ErrorCode = "ROOT_NOT_FOUND"
	ErrCodeNoWorkspace   ErrorCode = "NO_WORKSPACE"
	ErrCodeUnknownConfig ErrorCode = "UNKNOWN_CONFIG"

	// Persistence errors
	ErrCodeStateIO      ErrorCode = "STATE_IO"
	ErrCodeStateDecode  ErrorCode = "STATE_DECODE"
	ErrCodeStateMissing ErrorCode = "STATE_MISSING"

	// Daemon errors
	ErrCodeDaemonNotRunning  ErrorCode = "DAEMON_NOT_RUNNING"
	ErrCodeDaemonStartFailed ErrorCode = "DAEMON_START_FAILED"
	ErrCodeDaemonTimeout     ErrorCode = "DAEMON_TIMEOUT"

	// Compilation-database merge errors
	ErrCodeMergeUnsupported ErrorCode = "MERGE_UNSUPPORTED"
	ErrCodeMergeFailed      ErrorCode = "MERGE_FAILED"

	// General errors
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
)

// KilnError represents a structured error with context
type KilnError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *KilnError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *KilnError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *KilnError) WithDetail(key string, value interface{}) *KilnError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *KilnError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new KilnError
func New(code ErrorCode, message string) *KilnError {
	return &KilnError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a KilnError
func Wrap(err error, code ErrorCode, message string) *KilnError {
	return &KilnError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific KilnError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	kilnErr, ok := err.(*KilnError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return kilnErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	kilnErr, ok := err.(*KilnError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return kilnErr.Code
}
