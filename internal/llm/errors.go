package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrorType categorizes completion failures for retry classification.
type ErrorType string

const (
	// ErrorTypeTimeout indicates a deadline expired (retryable).
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeRateLimit indicates the provider throttled the request
	// (retryable, with backoff or the provider's Retry-After hint).
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeNetwork indicates connectivity trouble (retryable).
	ErrorTypeNetwork ErrorType = "network"

	// ErrorTypeProvider indicates a provider-side failure (retryable).
	ErrorTypeProvider ErrorType = "provider_unavailable"

	// ErrorTypeAuth indicates rejected credentials (non-retryable).
	ErrorTypeAuth ErrorType = "authentication"

	// ErrorTypeContent indicates the reply was blocked or malformed beyond
	// use (non-retryable at the transport level).
	ErrorTypeContent ErrorType = "content"

	// ErrorTypeValidation indicates a malformed request (non-retryable).
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeUnknown indicates an unclassified failure (non-retryable).
	ErrorTypeUnknown ErrorType = "unknown"
)

// ErrMaxRetriesExceeded indicates the bounded retry budget was exhausted.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")

// ErrUnknownProvider indicates the configured provider has no adapter.
var ErrUnknownProvider = errors.New("unknown provider")

// ErrMissingAPIKey indicates no credential could be resolved for a provider.
var ErrMissingAPIKey = errors.New("missing API key")

// Error is a classified completion failure.
type Error struct {
	Type       ErrorType
	Provider   string
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Provider, e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Type, e.Message)
}

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeNetwork, ErrorTypeProvider:
		return true
	default:
		return false
	}
}

// classifyStatus maps a non-2xx provider status to a typed error.
func classifyStatus(provider string, status int, message string, header http.Header) *Error {
	e := &Error{Provider: provider, StatusCode: status, Message: message}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Type = ErrorTypeAuth
	case status == http.StatusTooManyRequests:
		e.Type = ErrorTypeRateLimit
		e.RetryAfter = parseRetryAfter(header)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		e.Type = ErrorTypeTimeout
	case status >= 500:
		e.Type = ErrorTypeProvider
	case status >= 400:
		e.Type = ErrorTypeValidation
	default:
		e.Type = ErrorTypeUnknown
	}
	return e
}

// classifyTransport maps a client-side transport failure to a typed error.
func classifyTransport(provider string, err error) *Error {
	e := &Error{Provider: provider, Message: err.Error()}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		e.Type = ErrorTypeTimeout
	case errors.Is(err, context.Canceled):
		e.Type = ErrorTypeTimeout
		e.Message = "request canceled: " + err.Error()
	case errors.As(err, &netErr) && netErr.Timeout():
		e.Type = ErrorTypeTimeout
	case errors.As(err, &netErr):
		e.Type = ErrorTypeNetwork
	default:
		e.Type = ErrorTypeNetwork
	}
	return e
}

func parseRetryAfter(header http.Header) time.Duration {
	if header == nil {
		return 0
	}
	raw := header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(raw, "%d", &seconds); err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
