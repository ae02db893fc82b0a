package core

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeBackend       = "BACKEND_ERROR"
	ErrCodeStorage       = "STORAGE_ERROR"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// AppError carries an error code for the request boundary, a human readable
// message, optional backend details and the underlying cause.
type AppError struct {
	Code    string
	Message string
	Details any
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorf creates a new application error with a formatted message
func NewAppErrorf(code string, cause error, format string, args ...any) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// ErrValidation missing or malformed request fields
func ErrValidation(format string, args ...any) *AppError {
	return NewAppErrorf(ErrCodeValidation, nil, format, args...)
}

// ErrConfiguration no usable active model
func ErrConfiguration(message string) *AppError {
	return NewAppError(ErrCodeConfiguration, message, nil)
}

// ErrNotFound unknown model or report id
func ErrNotFound(kind, id string) *AppError {
	return NewAppErrorf(ErrCodeNotFound, nil, "%s not found: %s", kind, id)
}

// ErrBackend network failure or non-success response from the LLM backend.
// message is passed through to the caller verbatim.
func ErrBackend(message string, details any, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeBackend,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// ErrStorage disk or redis failure
func ErrStorage(op string, cause error) *AppError {
	return NewAppErrorf(ErrCodeStorage, cause, "storage %s failed", op)
}

// ErrorCode returns the AppError code in err's chain, or ErrCodeInternal.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}
