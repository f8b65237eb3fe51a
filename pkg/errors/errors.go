// Package errors provides structured error types for sketchcanvas.
//
// Every error that crosses a package boundary carries a machine-readable
// [Code] so that the HTTP layer and the CLI can map it to a status or exit
// message without string matching.
//
// # Error Codes
//
// Codes are grouped by origin:
//   - INVALID_*: Input validation failures (prompt, canvas name, payloads)
//   - NOT_FOUND: Missing canvases
//   - UPSTREAM_*: Failures talking to the generative endpoint
//   - NO_JSON_FOUND, INVALID_UPSTREAM_FORMAT: Problems with the model's reply
//   - INTERNAL_ERROR: Anything unexpected
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "prompt is required")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeInvalidUpstreamFormat, jsonErr, "decode shapes")
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidPrompt   Code = "INVALID_PROMPT"
	ErrCodeInvalidCanvas   Code = "INVALID_CANVAS"
	ErrCodeInvalidDrawings Code = "INVALID_DRAWINGS"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Upstream errors
	ErrCodeUpstreamTransient Code = "UPSTREAM_TRANSIENT"
	ErrCodeUpstreamFatal     Code = "UPSTREAM_FATAL"
	ErrCodeRateLimited       Code = "RATE_LIMITED"
	ErrCodeTimeout           Code = "TIMEOUT"

	// Model output errors
	ErrCodeNoJSONFound           Code = "NO_JSON_FOUND"
	ErrCodeInvalidUpstreamFormat Code = "INVALID_UPSTREAM_FORMAT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
// Only the outermost *Error in the chain is consulted, so a wrapped error
// takes the code of its wrapper.
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
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RateLimitedError records a 429 from the generative endpoint together with
// the Retry-After hint the upstream supplied, if any.
type RateLimitedError struct {
	RetryAfter int // Seconds suggested by the upstream; 0 if absent
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
