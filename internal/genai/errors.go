// Error classification for retry and provider fallback decisions.
package genai

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorAction defines the action to take based on error type.
type ErrorAction int

const (
	// ActionRetry indicates the request should be retried with the same provider.
	ActionRetry ErrorAction = iota
	// ActionFallback indicates fallback to another provider should be attempted.
	ActionFallback
	// ActionFail indicates the request should fail immediately (permanent error).
	ActionFail
)

// String returns a human-readable string for the error action.
func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFallback:
		return "fallback"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// LLMError wraps an error with additional context for retry/fallback decisions.
type LLMError struct {
	Err        error
	StatusCode int
	Provider   Provider
	Retryable  bool
}

// Error implements the error interface.
func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return e.Err.Error() + " (status: " + strconv.Itoa(e.StatusCode) + ")"
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *LLMError) Unwrap() error {
	return e.Err
}

// ClassifyError determines the appropriate action based on the error:
//   - Transient errors (429, 5xx, network, timeout) → Retry
//   - Quota/billing exhaustion → Fallback to other provider
//   - Permanent errors (400, 401, 403, 404, 422) → Fail immediately
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionFail
	}

	if errors.Is(err, context.Canceled) {
		return ActionFail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ActionRetry
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) && llmErr.StatusCode > 0 {
		return classifyStatusCode(llmErr.StatusCode)
	}

	errStr := strings.ToLower(err.Error())

	// Quota exhaustion is not transient; skip straight to the next provider.
	if containsAny(errStr, "quota", "daily limit", "monthly limit", "billing") {
		return ActionFallback
	}

	if containsAny(errStr, "rate limit", "too many requests", "resource_exhausted", "429") {
		return ActionRetry
	}

	if containsAny(errStr, "unavailable", "503", "502", "500", "504",
		"internal server error", "bad gateway", "gateway timeout",
		"overloaded", "capacity") {
		return ActionRetry
	}

	if containsAny(errStr, "408", "409", "timeout", "deadline", "connection") {
		return ActionRetry
	}

	if containsAny(errStr, "400", "invalid", "bad request", "malformed") {
		return ActionFail
	}
	if containsAny(errStr, "401", "unauthorized", "unauthenticated", "invalid api key") {
		return ActionFail
	}
	if containsAny(errStr, "403", "forbidden", "permission denied") {
		return ActionFail
	}
	if containsAny(errStr, "404", "not found") {
		return ActionFail
	}
	if containsAny(errStr, "422", "unprocessable") {
		return ActionFail
	}

	// Unknown errors are treated as transient.
	return ActionRetry
}

// classifyStatusCode determines action based on HTTP status code.
func classifyStatusCode(statusCode int) ErrorAction {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ActionRetry
	case statusCode == http.StatusRequestTimeout:
		return ActionRetry
	case statusCode == http.StatusConflict:
		return ActionRetry
	case statusCode >= 500 && statusCode < 600:
		return ActionRetry
	case statusCode >= 400 && statusCode < 500:
		return ActionFail
	default:
		return ActionRetry
	}
}

// ParseRetryAfter parses the Retry-After header value.
// Supports both integer seconds and HTTP-date formats.
// Returns 0 if the header is missing or invalid.
func ParseRetryAfter(headers http.Header) time.Duration {
	if msStr := headers.Get("retry-after-ms"); msStr != "" {
		if ms, err := strconv.Atoi(msStr); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}

	if secStr := headers.Get("retry-after"); secStr != "" {
		if sec, err := strconv.Atoi(secStr); err == nil && sec > 0 {
			return time.Duration(sec) * time.Second
		}
		if t, err := http.ParseTime(secStr); err == nil {
			return time.Until(t)
		}
	}

	return 0
}

// ShouldFallback returns true if the error warrants trying another provider.
func ShouldFallback(err error) bool {
	return ClassifyError(err) == ActionFallback
}

// IsRetryable returns true if the error is transient and can be retried.
func IsRetryable(err error) bool {
	return ClassifyError(err) == ActionRetry
}

// IsPermanent returns true if the error is permanent and should not be retried.
func IsPermanent(err error) bool {
	return ClassifyError(err) == ActionFail
}

// containsAny checks if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// WrapError wraps an error with provider and status code information.
func WrapError(err error, provider Provider, statusCode int) error {
	if err == nil {
		return nil
	}
	return &LLMError{
		Err:        err,
		StatusCode: statusCode,
		Provider:   provider,
		Retryable:  ClassifyError(err) == ActionRetry,
	}
}
