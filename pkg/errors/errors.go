// Package errors provides structured error types for clusterview.
//
// Errors carry a machine-readable [Code] so callers (CLI, HTTP transport,
// TUI) can branch on the failure kind without string matching:
//
//	err := errors.New(errors.ErrCodeUnknownCluster, "unknown cluster %q", id)
//	if errors.Is(err, errors.ErrCodeUnknownCluster) {
//	    // report to the user, state is unchanged
//	}
//
// Data-integrity codes (dangling link endpoints, dangling cluster references)
// are never returned from state operations; they label warnings produced by
// the dataset integrity check.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidID     Code = "INVALID_ID"

	// Lookup errors
	ErrCodeUnknownCluster  Code = "UNKNOWN_CLUSTER"
	ErrCodeUnknownNode     Code = "UNKNOWN_NODE"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// State conflicts
	ErrCodeClusterHidden Code = "CLUSTER_HIDDEN"

	// Data integrity (warnings, never fatal)
	ErrCodeDanglingLinkEndpoint     Code = "DANGLING_LINK_ENDPOINT"
	ErrCodeDanglingClusterReference Code = "DANGLING_CLUSTER_REFERENCE"
	ErrCodeDuplicateID              Code = "DUPLICATE_ID"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// Only the outermost *Error in the chain is consulted.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsNotFound reports whether err names a cluster, node, file or session
// that does not exist.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeUnknownCluster, ErrCodeUnknownNode, ErrCodeFileNotFound, ErrCodeSessionNotFound:
		return true
	}
	return false
}
