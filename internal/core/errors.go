package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Feature errors
	ErrValidation = &Error{Code: "VALIDATION", Message: "malformed feature payload"}

	// Price data errors
	ErrDataUnavailable  = &Error{Code: "DATA_UNAVAILABLE", Message: "price history not available"}
	ErrProviderTimeout  = &Error{Code: "PROVIDER_TIMEOUT", Message: "price provider timed out"}
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for training"}

	// Store errors
	ErrNotFound    = &Error{Code: "NOT_FOUND", Message: "record not found"}
	ErrIntegrity   = &Error{Code: "INTEGRITY", Message: "snapshot conflicts with frozen record"}
	ErrPersistence = &Error{Code: "PERSISTENCE", Message: "failed to persist state"}

	// Trainer errors
	ErrTraining = &Error{Code: "TRAINING_FAILURE", Message: "batch training failed"}

	// Job errors
	ErrJobBusy = &Error{Code: "JOB_BUSY", Message: "job already running"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
