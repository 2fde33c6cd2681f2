package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusFromCode(t *testing.T) {
	tests := []struct {
		name string
		code ErrorCode
		want int
	}{
		{"malformed argument", ErrCodeMalformedArgument, http.StatusBadRequest},
		{"empty argument", ErrCodeEmptyArgument, http.StatusBadRequest},
		{"unknown resource class", ErrCodeUnknownResourceClass, http.StatusBadRequest},
		{"not found", ErrCodeNotFound, http.StatusNotFound},
		{"conflict", ErrCodeConflict, http.StatusConflict},
		{"version requirement", ErrCodeVersionRequirement, http.StatusNotAcceptable},
		{"method not allowed", ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{"rate limit", ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
		{"internal", ErrCodeInternal, http.StatusInternalServerError},
		{"unknown defaults to internal", ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusFromCode(tt.code); got != tt.want {
				t.Fatalf("HTTPStatusFromCode(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestCodeFromHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ErrorCode
	}{
		{"bad request", http.StatusBadRequest, ErrCodeInvalidRequest},
		{"not found", http.StatusNotFound, ErrCodeNotFound},
		{"conflict", http.StatusConflict, ErrCodeConflict},
		{"not acceptable", http.StatusNotAcceptable, ErrCodeVersionRequirement},
		{"too many requests", http.StatusTooManyRequests, ErrCodeRateLimitExceeded},
		{"server error", http.StatusInternalServerError, ErrCodeInternal},
		{"bad gateway defaults to internal", http.StatusBadGateway, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeFromHTTPStatus(tt.status); got != tt.want {
				t.Fatalf("CodeFromHTTPStatus(%d) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	err := New(ErrCodeConflict, "in use")
	if got := CodeOf(err); got != ErrCodeConflict {
		t.Fatalf("CodeOf = %q, want %q", got, ErrCodeConflict)
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if got := CodeOf(wrapped); got != ErrCodeConflict {
		t.Fatalf("CodeOf(wrapped) = %q, want %q", got, ErrCodeConflict)
	}

	if got := CodeOf(errors.New("plain")); got != ErrCodeInternal {
		t.Fatalf("CodeOf(plain) = %q, want %q", got, ErrCodeInternal)
	}
}

func TestCodedErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeTransport, "request failed", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Error() != "request failed: connection refused" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestRetryableFromCode(t *testing.T) {
	if RetryableFromCode(ErrCodeConflict) {
		t.Fatal("conflict must not be retryable")
	}
	if !RetryableFromCode(ErrCodeTransport) {
		t.Fatal("transport errors should be retryable")
	}
}
