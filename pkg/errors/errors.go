// Package errors defines the error taxonomy shared by the placement CLI,
// the API client, and the in-memory placement server. Errors carry a
// machine-readable code alongside the human-readable message so that HTTP
// status mapping and exit-code handling stay in one place.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

// Error codes as constants
const (
	// Argument parsing failures, detected before any network call.
	ErrCodeMalformedArgument     ErrorCode = "MALFORMED_ARGUMENT"
	ErrCodeEmptyArgument         ErrorCode = "EMPTY_ARGUMENT"
	ErrCodeUnknownResourceClass  ErrorCode = "UNKNOWN_RESOURCE_CLASS"
	ErrCodeUnknownInventoryField ErrorCode = "UNKNOWN_INVENTORY_FIELD"
	ErrCodeArgumentsMissing      ErrorCode = "ARGUMENTS_MISSING"
	ErrCodeArgumentsRequired     ErrorCode = "ARGUMENTS_REQUIRED"

	// Remote operation failures.
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeVersionRequirement ErrorCode = "VERSION_REQUIREMENT"
	ErrCodePartialFailure     ErrorCode = "PARTIAL_FAILURE"
	ErrCodeTransport          ErrorCode = "TRANSPORT_ERROR"

	// Server-side codes.
	ErrCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrCodeMethodNotAllowed  ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// CodedError is an error with an attached ErrorCode and optional cause.
type CodedError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CodedError) Unwrap() error { return e.Err }

// New creates a CodedError with the given code and message.
func New(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// Newf creates a CodedError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a CodedError wrapping an underlying cause.
func Wrap(code ErrorCode, message string, err error) *CodedError {
	return &CodedError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the ErrorCode from err. Errors without a code report
// ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatusFromCode maps an ErrorCode to the HTTP status the server
// responds with.
func HTTPStatusFromCode(code ErrorCode) int {
	switch code {
	case ErrCodeMalformedArgument, ErrCodeEmptyArgument, ErrCodeUnknownResourceClass,
		ErrCodeUnknownInventoryField, ErrCodeArgumentsMissing, ErrCodeArgumentsRequired,
		ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeVersionRequirement:
		return http.StatusNotAcceptable
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// CodeFromHTTPStatus maps an HTTP status received by the client back to an
// ErrorCode.
func CodeFromHTTPStatus(status int) ErrorCode {
	switch status {
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	case http.StatusNotAcceptable:
		return ErrCodeVersionRequirement
	case http.StatusMethodNotAllowed:
		return ErrCodeMethodNotAllowed
	case http.StatusTooManyRequests:
		return ErrCodeRateLimitExceeded
	default:
		return ErrCodeInternal
	}
}

// RetryableFromCode reports whether a failure with the given code may
// succeed on retry.
func RetryableFromCode(code ErrorCode) bool {
	switch code {
	case ErrCodeRateLimitExceeded, ErrCodeTransport, ErrCodeInternal:
		return true
	default:
		return false
	}
}
