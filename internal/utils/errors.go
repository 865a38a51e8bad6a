// Package contextutils provides error handling utilities and standardized error types
// for consistent error management across the splitter.
package contextutils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a standardized error code reported to the caller
type ErrorCode string

const (
	// File error codes

	// ErrorCodeFileNotFound indicates that the input file does not exist or cannot be read
	ErrorCodeFileNotFound ErrorCode = "FILE_NOT_FOUND"
	// ErrorCodePermissionDenied indicates that a directory or output file could not be created due to permissions
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	// ErrorCodeIO indicates any other read, write, flush or close failure
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// Record error codes

	// ErrorCodeMalformedRecord indicates a non-empty line without a tab separator
	ErrorCodeMalformedRecord ErrorCode = "MALFORMED_RECORD"
	// ErrorCodeInvalidEncoding indicates a line that is not valid UTF-8
	ErrorCodeInvalidEncoding ErrorCode = "INVALID_ENCODING"

	// Validation error codes

	// ErrorCodeInvalidInput indicates that the provided arguments are invalid
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Internal error codes

	// ErrorCodeInternalError indicates an unexpected internal error
	ErrorCodeInternalError ErrorCode = "INTERNAL_SERVER_ERROR"
)

// SeverityLevel represents the severity of an error for logging
type SeverityLevel string

const (
	// SeverityWarn indicates warning-level errors
	SeverityWarn SeverityLevel = "warn"
	// SeverityError indicates error-level issues
	SeverityError SeverityLevel = "error"
)

// AppError represents a structured error with code, severity, and context.
// Line is the 1-based input line the error refers to, or 0.
type AppError struct {
	Code     ErrorCode
	Severity SeverityLevel
	Message  string
	Details  string
	Line     int
	Cause    error
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, msg, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison for errors.Is
func (e *AppError) Is(target error) bool {
	if appErr, ok := target.(*AppError); ok {
		return e.Code == appErr.Code
	}
	return false
}

// Error types for consistent error handling with associated codes and severity
var (
	// File errors
	ErrFileNotFound = &AppError{
		Code:     ErrorCodeFileNotFound,
		Severity: SeverityError,
		Message:  "Input file not found",
	}

	ErrPermissionDenied = &AppError{
		Code:     ErrorCodePermissionDenied,
		Severity: SeverityError,
		Message:  "Permission denied",
	}

	ErrIO = &AppError{
		Code:     ErrorCodeIO,
		Severity: SeverityError,
		Message:  "I/O error",
	}

	// Record errors
	ErrMalformedRecord = &AppError{
		Code:     ErrorCodeMalformedRecord,
		Severity: SeverityError,
		Message:  "Malformed record",
	}

	ErrInvalidEncoding = &AppError{
		Code:     ErrorCodeInvalidEncoding,
		Severity: SeverityError,
		Message:  "Invalid UTF-8 encoding",
	}

	// Validation errors
	ErrInvalidInput = &AppError{
		Code:     ErrorCodeInvalidInput,
		Severity: SeverityWarn,
		Message:  "Invalid input",
	}

	ErrInternalError = &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  "Internal error",
	}
)

// NewAppError creates a new AppError with the specified code, severity, message and details
func NewAppError(code ErrorCode, severity SeverityLevel, message, details string) *AppError {
	return &AppError{
		Code:     code,
		Severity: severity,
		Message:  message,
		Details:  details,
	}
}

// NewLineError creates an AppError of the same kind as base that points at an input line
func NewLineError(base *AppError, line int, details string) *AppError {
	return &AppError{
		Code:     base.Code,
		Severity: base.Severity,
		Message:  base.Message,
		Details:  details,
		Line:     line,
	}
}

// WrapError wraps an error with additional context, preserving AppError structure if possible
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, wrap it with additional details
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:     appErr.Code,
			Severity: appErr.Severity,
			Message:  context,
			Details:  appErr.Error(),
			Cause:    appErr,
		}
	}

	// For regular errors, create a generic internal error wrapper
	return &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  context,
		Details:  err.Error(),
		Cause:    err,
	}
}

// WrapErrorf wraps an error with formatted context, preserving AppError structure if possible
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	// Handle %w verb for error wrapping by using fmt.Errorf
	if strings.Contains(format, "%w") {
		wrappedErr := fmt.Errorf(format, args...)

		if appErr, ok := err.(*AppError); ok {
			return &AppError{
				Code:     appErr.Code,
				Severity: appErr.Severity,
				Message:  wrappedErr.Error(),
				Cause:    wrappedErr,
			}
		}

		return &AppError{
			Code:     ErrorCodeInternalError,
			Severity: SeverityError,
			Message:  wrappedErr.Error(),
			Cause:    wrappedErr,
		}
	}

	context := fmt.Sprintf(format, args...)
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:     appErr.Code,
			Severity: appErr.Severity,
			Message:  context,
			Details:  appErr.Error(),
			Cause:    appErr,
		}
	}

	return &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  context,
		Details:  err.Error(),
		Cause:    err,
	}
}

// WrapWithCode wraps a plain error (typically from the os package) as an AppError of the given kind
func WrapWithCode(base *AppError, err error, details string) error {
	if err == nil {
		return nil
	}
	if details == "" {
		details = err.Error()
	} else {
		details = details + ": " + err.Error()
	}
	return &AppError{
		Code:     base.Code,
		Severity: base.Severity,
		Message:  base.Message,
		Details:  details,
		Cause:    err,
	}
}

// GetErrorCode returns the error code from an error if it's an AppError, otherwise returns a default code
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrorCodeInternalError
}

// GetErrorSeverity returns the severity level from an error if it's an AppError, otherwise returns error
func GetErrorSeverity(err error) SeverityLevel {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Severity
	}
	return SeverityError
}

// GetErrorLine returns the first input line number found in the error chain, or 0
func GetErrorLine(err error) int {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Line > 0 {
			return appErr.Line
		}
		err = errors.Unwrap(err)
	}
	return 0
}
