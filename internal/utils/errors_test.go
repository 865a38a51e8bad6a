package contextutils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "error with details",
			appError: &AppError{
				Code:     ErrorCodeInvalidInput,
				Severity: SeverityWarn,
				Message:  "Invalid input",
				Details:  "input path is required",
			},
			expected: "INVALID_INPUT: Invalid input - input path is required",
		},
		{
			name: "error without details",
			appError: &AppError{
				Code:     ErrorCodeFileNotFound,
				Severity: SeverityError,
				Message:  "Input file not found",
			},
			expected: "FILE_NOT_FOUND: Input file not found",
		},
		{
			name: "error with line number",
			appError: &AppError{
				Code:     ErrorCodeMalformedRecord,
				Severity: SeverityError,
				Message:  "Malformed record",
				Details:  `no tab separator in "Bye"`,
				Line:     3,
			},
			expected: `MALFORMED_RECORD: Malformed record (line 3) - no tab separator in "Bye"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	appErr := &AppError{
		Code:     ErrorCodeIO,
		Severity: SeverityError,
		Message:  "I/O error",
		Cause:    cause,
	}

	assert.Equal(t, cause, appErr.Unwrap())
	assert.True(t, errors.Is(appErr, cause))
}

func TestAppError_Is(t *testing.T) {
	err1 := &AppError{Code: ErrorCodeMalformedRecord}
	err2 := &AppError{Code: ErrorCodeMalformedRecord}
	err3 := &AppError{Code: ErrorCodeFileNotFound}

	assert.True(t, err1.Is(err2))
	assert.False(t, err1.Is(err3))
	assert.False(t, err1.Is(errors.New("regular error")))
	assert.True(t, errors.Is(err1, ErrMalformedRecord))
}

func TestNewAppError(t *testing.T) {
	err := NewAppError(ErrorCodeInvalidInput, SeverityWarn, "Invalid input", "Field required")

	assert.Equal(t, ErrorCodeInvalidInput, err.Code)
	assert.Equal(t, SeverityWarn, err.Severity)
	assert.Equal(t, "Invalid input", err.Message)
	assert.Equal(t, "Field required", err.Details)
	assert.Nil(t, err.Cause)
}

func TestNewLineError(t *testing.T) {
	err := NewLineError(ErrMalformedRecord, 7, "no tab separator")

	assert.Equal(t, ErrorCodeMalformedRecord, err.Code)
	assert.Equal(t, 7, err.Line)
	assert.Equal(t, ErrMalformedRecord.Message, err.Message)
	// The shared sentinel must not be mutated.
	assert.Equal(t, 0, ErrMalformedRecord.Line)
}

func TestWrapError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, WrapError(nil, "context"))
	})

	t.Run("app error keeps code and line", func(t *testing.T) {
		inner := NewLineError(ErrMalformedRecord, 4, "no tab")
		wrapped := WrapError(inner, "split failed")

		assert.Equal(t, ErrorCodeMalformedRecord, GetErrorCode(wrapped))
		assert.Equal(t, 4, GetErrorLine(wrapped))
		assert.True(t, errors.Is(wrapped, ErrMalformedRecord))
		assert.Contains(t, wrapped.Error(), "split failed")
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		wrapped := WrapError(errors.New("boom"), "context")
		assert.Equal(t, ErrorCodeInternalError, GetErrorCode(wrapped))
	})
}

func TestWrapErrorf(t *testing.T) {
	t.Run("with %w keeps chain", func(t *testing.T) {
		inner := NewLineError(ErrInvalidEncoding, 2, "bad byte")
		wrapped := WrapErrorf(inner, "reading %s: %w", "in.txt", inner)

		assert.Equal(t, ErrorCodeInvalidEncoding, GetErrorCode(wrapped))
		assert.Equal(t, 2, GetErrorLine(wrapped))
		assert.True(t, errors.Is(wrapped, inner))
	})

	t.Run("without %w", func(t *testing.T) {
		wrapped := WrapErrorf(ErrIO, "closing %s", "a.txt")
		assert.Equal(t, ErrorCodeIO, GetErrorCode(wrapped))
		assert.Contains(t, wrapped.Error(), "closing a.txt")
	})
}

func TestWrapWithCode(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here")
	require.Error(t, statErr)

	err := WrapWithCode(ErrFileNotFound, statErr, "opening input")

	assert.Equal(t, ErrorCodeFileNotFound, GetErrorCode(err))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "opening input")
	assert.Nil(t, WrapWithCode(ErrIO, nil, "ignored"))
}

func TestGetErrorHelpers(t *testing.T) {
	plain := errors.New("plain")

	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(plain))
	assert.Equal(t, SeverityError, GetErrorSeverity(plain))
	assert.Equal(t, 0, GetErrorLine(plain))
	assert.Equal(t, SeverityWarn, GetErrorSeverity(ErrInvalidInput))
	assert.Equal(t, ErrorCodeIO, GetErrorCode(fmt.Errorf("outer: %w", ErrIO)))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("x"), ExitInternal},
		{"canceled", context.Canceled, ExitInternal},
		{"invalid input", ErrInvalidInput, ExitInvalidInput},
		{"file not found", ErrFileNotFound, ExitFileNotFound},
		{"permission", ErrPermissionDenied, ExitPermissionDenied},
		{"io", ErrIO, ExitIO},
		{"malformed", NewLineError(ErrMalformedRecord, 1, ""), ExitMalformedRecord},
		{"encoding", ErrInvalidEncoding, ExitInvalidEncoding},
		{"wrapped", WrapError(ErrMalformedRecord, "ctx"), ExitMalformedRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
