// Package exception provides custom error types and error handling utilities for the migrator subsystem.
// It standardizes errors raised during migration processing so callers can decide
// whether a failure is fatal for the whole job or recoverable for a single record.
package exception

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// MigrationError is a custom error type raised during migration processing.
// It holds the module where the error occurred, a message, the wrapped original error,
// and flags indicating whether it is retryable or skippable.
type MigrationError struct {
	// Module indicates the module where the error occurred (e.g., "parser", "mapper", "engine", "repository").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// isRetryable indicates whether this error is retryable.
	isRetryable bool
	// isSkippable indicates whether this error may be skipped without failing the job.
	isSkippable bool
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

// NewMigrationError creates a new MigrationError instance.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap (may be nil).
// isSkippable: Whether this error may be skipped.
// isRetryable: Whether this error is retryable.
func NewMigrationError(module, message string, originalErr error, isSkippable, isRetryable bool) *MigrationError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &MigrationError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  string(buf[:n]),
	}
}

// NewMigrationErrorf creates a non-retryable, non-skippable MigrationError using a format string.
func NewMigrationErrorf(module, format string, a ...interface{}) *MigrationError {
	return NewMigrationError(module, fmt.Sprintf(format, a...), nil, false, false)
}

// Error implements the error interface.
// It returns the error's module, message, and the string representation of the original error.
func (e *MigrationError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *MigrationError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *MigrationError) IsRetryable() bool {
	return e.isRetryable
}

// IsSkippable returns whether this error may be skipped without failing the job.
func (e *MigrationError) IsSkippable() bool {
	return e.isSkippable
}

// IsMigrationError determines if the given error is of type MigrationError.
func IsMigrationError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*MigrationError)
	return ok
}

// IsTemporary determines if an error is temporary (e.g., network error, temporary DB connection issue).
// If it's a MigrationError, its IsRetryable flag takes precedence.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if me, ok := err.(*MigrationError); ok {
		return me.IsRetryable()
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "EOF")
}

// IsFatal determines if an error is fatal (can be neither retried nor skipped).
// If it's a MigrationError, its flags take precedence.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if me, ok := err.(*MigrationError); ok {
		return !me.IsRetryable() && !me.IsSkippable()
	}
	errStr := err.Error()
	return strings.Contains(errStr, "invalid argument") ||
		strings.Contains(errStr, "permission denied")
}

// Append collects err into a multierror accumulator, ignoring nil errors.
// It is a thin wrapper so callers do not import hashicorp/go-multierror directly.
func Append(accumulated error, err error) error {
	if err == nil {
		return accumulated
	}
	return multierror.Append(accumulated, err)
}
