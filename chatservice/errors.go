package chatservice

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotAuthenticated is returned by token sources that currently hold no
// usable credential. Callers translate it into a logout flow.
var ErrNotAuthenticated = errors.New("not authenticated")

// Code identifies an error class by symbolic name rather than by Go type,
// so UI layers can switch on stable strings.
type Code string

const (
	CodeSessionNotFound    Code = "SESSION_NOT_FOUND"
	CodeMessageNotFound    Code = "MESSAGE_NOT_FOUND"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"
	CodeInvalidSessionData Code = "INVALID_SESSION_DATA"
	CodeInvalidMessageData Code = "INVALID_MESSAGE_DATA"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeUnknown            Code = "UNKNOWN"
)

// errScope tells the classifier whether a request was about a session or a
// message, which picks the 404/400 code variant.
type errScope int

const (
	scopeSession errScope = iota
	scopeMessage
)

// FieldError mirrors one per-field validation failure from the server
// envelope's errors array.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError represents a chat API error response
type APIError struct {
	StatusCode int           `json:"-"`
	Code       Code          `json:"-"`
	Message    string        `json:"message"`
	Errors     []FieldError  `json:"errors,omitempty"`
	RetryAfter time.Duration `json:"-"` // from the Retry-After header, 0 when absent
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("chat API error (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("chat API error (%s): status %d", e.Code, e.StatusCode)
}

// classify maps an HTTP status to a symbolic code for the given scope
func classify(statusCode int, scope errScope) Code {
	switch statusCode {
	case 401:
		return CodeUnauthenticated
	case 404:
		if scope == scopeMessage {
			return CodeMessageNotFound
		}
		return CodeSessionNotFound
	case 429:
		return CodeRateLimitExceeded
	case 400, 422:
		if scope == scopeMessage {
			return CodeInvalidMessageData
		}
		return CodeInvalidSessionData
	}
	return CodeUnknown
}

// ErrorCode extracts the symbolic code from any error chain. Errors that do
// not originate from the API report CodeUnknown.
func ErrorCode(err error) Code {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return CodeUnauthenticated
	}
	return CodeUnknown
}

// IsCode reports whether err carries the given symbolic code
func IsCode(err error, code Code) bool {
	return ErrorCode(err) == code
}

// asAPIError unwraps err into an *APIError if one is in the chain
func asAPIError(err error, target **APIError) bool {
	return errors.As(err, target)
}

// retryAfterOf reports the server-requested retry delay carried by err
func retryAfterOf(err error) (time.Duration, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter, true
	}
	return 0, false
}
