package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Precondition errors
	ErrCodeNotARepository        ErrorCode = "NOT_A_REPOSITORY"
	ErrCodeProjectNotInitialized ErrorCode = "PROJECT_NOT_INITIALIZED"
	ErrCodeAlreadyInitialized    ErrorCode = "ALREADY_INITIALIZED"
	ErrCodeNameRequired          ErrorCode = "NAME_REQUIRED"
	ErrCodeInvalidInput          ErrorCode = "INVALID_INPUT"

	// Collision errors
	ErrCodeNameCollision   ErrorCode = "NAME_COLLISION"
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// Protection errors
	ErrCodeCannotRemovePrimary ErrorCode = "CANNOT_REMOVE_PRIMARY"
	ErrCodeCannotRemoveCurrent ErrorCode = "CANNOT_REMOVE_CURRENT"
	ErrCodeUncommittedChanges  ErrorCode = "UNCOMMITTED_CHANGES"

	// External tool errors
	ErrCodeRemoteUnavailable ErrorCode = "REMOTE_UNAVAILABLE"
	ErrCodeAgentNotAvailable ErrorCode = "AGENT_NOT_AVAILABLE"
	ErrCodeSpawnFailed       ErrorCode = "SPAWN_FAILED"
	ErrCodeSignalFailed      ErrorCode = "SIGNAL_FAILED"
	ErrCodeCommandFailed     ErrorCode = "COMMAND_FAILED"

	// Consistency errors
	ErrCodeCorruptRegistry   ErrorCode = "CORRUPT_REGISTRY"
	ErrCodeSessionUnrecorded ErrorCode = "SESSION_UNRECORDED"

	// General errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// WarrenError represents a structured error with context
type WarrenError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *WarrenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *WarrenError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *WarrenError) WithDetail(key string, value interface{}) *WarrenError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Remediation returns the remedial instruction attached to the error, if any.
func (e *WarrenError) Remediation() string {
	if e.Details == nil {
		return ""
	}
	if r, ok := e.Details["remediation"].(string); ok {
		return r
	}
	return ""
}

// ToJSON converts the error to JSON
func (e *WarrenError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new WarrenError
func New(code ErrorCode, message string) *WarrenError {
	return &WarrenError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a WarrenError
func Wrap(err error, code ErrorCode, message string) *WarrenError {
	return &WarrenError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific WarrenError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	warrenErr, ok := err.(*WarrenError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return warrenErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	warrenErr, ok := err.(*WarrenError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return warrenErr.Code
}
