// internal/utils/errors.go
package utils

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode categorizes failures for diagnostics and metrics labels.
type ErrorCode string

const (
	// DOM related errors
	ErrCodeDOMTimeout      ErrorCode = "DOM_TIMEOUT"
	ErrCodeElementDetached ErrorCode = "ELEMENT_DETACHED"
	ErrCodeBrowserFailed   ErrorCode = "BROWSER_FAILED"

	// Extraction related errors
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"

	// History related errors
	ErrCodeHistoryCorrupt ErrorCode = "HISTORY_CORRUPT"
	ErrCodeHistoryIO      ErrorCode = "HISTORY_IO"

	// Configuration related errors
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"

	// Generic errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StructuredError carries an error code and context alongside the message.
type StructuredError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	Retryable bool                   `json:"retryable"`
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code.
func (e *StructuredError) Is(target error) bool {
	var se *StructuredError
	if errors.As(target, &se) {
		return e.Code == se.Code
	}
	return false
}

// WithContext attaches a key/value pair to the error context.
func (e *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a structured error with the given code and message.
func NewError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Retryable: code == ErrCodeDOMTimeout || code == ErrCodeElementDetached,
	}
}

// WrapError wraps an existing error with a code and message.
func WrapError(code ErrorCode, message string, cause error) *StructuredError {
	err := NewError(code, message)
	err.Cause = cause
	return err
}

// CodeOf extracts the error code from an error chain, or ErrCodeInternal
// when the chain carries no structured error.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}
