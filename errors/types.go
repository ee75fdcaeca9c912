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

	// Watcher errors
	ErrCodeWatchRootNotFound ErrorCode = "WATCH_ROOT_NOT_FOUND"
	ErrCodeWatchRootInvalid  ErrorCode = "WATCH_ROOT_INVALID"
	ErrCodeWatcherClosed     ErrorCode = "WATCHER_CLOSED"

	// Entity errors
	ErrCodeEntityNotFound ErrorCode = "ENTITY_NOT_FOUND"
	ErrCodeParseFailed    ErrorCode = "PARSE_FAILED"

	// Refresh errors
	ErrCodeRefreshStopped ErrorCode = "REFRESH_STOPPED"
	ErrCodeStopTimeout    ErrorCode = "STOP_TIMEOUT"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// SpecdeckError represents a structured error with context
type SpecdeckError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *SpecdeckError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SpecdeckError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *SpecdeckError) WithDetail(key string, value interface{}) *SpecdeckError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *SpecdeckError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new SpecdeckError
func New(code ErrorCode, message string) *SpecdeckError {
	return &SpecdeckError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a SpecdeckError
func Wrap(err error, code ErrorCode, message string) *SpecdeckError {
	return &SpecdeckError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific SpecdeckError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	sdErr, ok := err.(*SpecdeckError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return sdErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	sdErr, ok := err.(*SpecdeckError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return sdErr.Code
}
