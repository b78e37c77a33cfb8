package errors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeInternal   = "INTERNAL_ERROR"
	CodeConfig     = "CONFIG_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeStart      = "START_ERROR"
	CodeExit       = "EXIT_STATUS"
)

// Process exit statuses, following shell conventions.
const (
	ExitFailure       = 1
	ExitUsage         = 2
	ExitNotExecutable = 126
	ExitNotFound      = 127
	ExitSignalBase    = 128
)

// AppError represents an application error with the process status it maps to
type AppError struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Details  map[string]string `json:"details,omitempty"`
	ExitCode int               `json:"exit_code"`
	Err      error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithError wraps an underlying error
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New creates a new AppError
func New(code, message string, exitCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		ExitCode: exitCode,
	}
}

// Internal creates an internal error
func Internal(message string) *AppError {
	return New(CodeInternal, message, ExitFailure)
}

// Config creates a configuration loading error
func Config(message string) *AppError {
	return New(CodeConfig, message, ExitUsage)
}

// Validation creates a validation error
func Validation(message string) *AppError {
	return New(CodeValidation, message, ExitUsage)
}

// Start creates an error for a child process that could not be started
func Start(message string, exitCode int) *AppError {
	return New(CodeStart, message, exitCode)
}

// Exit carries a child's non-zero exit status up to main. It is not printed.
func Exit(code int) *AppError {
	return New(CodeExit, fmt.Sprintf("exit status %d", code), code)
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error if present
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// ExitCode returns the process status for an error. nil is success.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if appErr := GetAppError(err); appErr != nil {
		return appErr.ExitCode
	}
	return ExitFailure
}

// IsExit checks if the error only carries a child's exit status
func IsExit(err error) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == CodeExit
	}
	return false
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == CodeValidation
	}
	return false
}
