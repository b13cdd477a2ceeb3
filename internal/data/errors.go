package data

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents an error returned by a market or weather API.
type APIError struct {
	Source     string // "entsoe", "open-meteo"
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Source, e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func statusError(source string, resp *http.Response, detail string) *APIError {
	e := &APIError{Source: source, StatusCode: resp.StatusCode}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		e.Code = "UNAUTHORIZED"
		e.Message = "invalid or missing security token"
	case http.StatusTooManyRequests:
		e.Code = "RATE_LIMIT_EXCEEDED"
		e.RetryAfter = resp.Header.Get("Retry-After")
		e.Message = fmt.Sprintf("rate limit exceeded, retry after: %s", e.RetryAfter)
	case http.StatusBadRequest:
		e.Code = "BAD_REQUEST"
		e.Message = "request rejected"
	default:
		e.Code = "API_ERROR"
		e.Message = fmt.Sprintf("API returned status %s", resp.Status)
	}
	if detail != "" {
		e.Message += ": " + detail
	}
	return e
}

// retryable decides whether a failed attempt is worth repeating. Transport
// failures, throttling, server errors and undecodable bodies are retried.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}
