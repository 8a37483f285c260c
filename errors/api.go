package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError is a structured service error built from a non-2xx HTTP response.
// The transport itself never produces one; service clients do, after the
// exchange succeeded at the HTTP level.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Code is a machine-readable error code.
	Code ErrorCode
	// Message is a human-readable message, taken from the response body when present.
	Message string
	// Retryable indicates whether the operation can be retried.
	Retryable bool
	// Body is the raw response body (may be nil).
	Body []byte
	// RequestID is the request id echoed by the service, when present.
	RequestID string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// WithRequestID attaches the echoed request id and returns the receiver.
func (e *APIError) WithRequestID(id string) *APIError {
	if e != nil {
		e.RequestID = id
	}
	return e
}

// FromStatus converts an HTTP status code and response body into a typed
// error. Returns nil for 2xx status codes. The body is parsed as an
// ErrorResponse envelope when possible; the code and message fall back to the
// status line otherwise.
func FromStatus(statusCode int, body []byte) *APIError {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var code ErrorCode
	retryable := false
	switch {
	case statusCode == http.StatusUnauthorized:
		code = ErrCodeUnauthorized
	case statusCode == http.StatusForbidden:
		code = ErrCodeForbidden
	case statusCode == http.StatusNotFound:
		code = ErrCodeNotFound
	case statusCode == http.StatusConflict:
		code = ErrCodeConflict
	case statusCode == http.StatusRequestedRangeNotSatisfiable:
		code = ErrCodeRangeNotSatisfiable
	case statusCode == http.StatusTooManyRequests:
		code = ErrCodeRateLimited
		retryable = true
	case statusCode == http.StatusGatewayTimeout:
		code = ErrCodeTimeout
		retryable = true
	case statusCode == http.StatusServiceUnavailable:
		code = ErrCodeServiceUnavailable
		retryable = true
	case statusCode >= 400 && statusCode < 500:
		code = ErrCodeInvalidInput
	case statusCode >= 500:
		code = ErrCodeServerError
		retryable = true
	default:
		code = ErrCodeServerError
	}

	message := fmt.Sprintf("HTTP %d", statusCode)
	if wire, ok := parseErrorBody(body); ok {
		if wire.Code != "" {
			code = wire.Code
			retryable = retryable || IsRetryableCode(code)
		}
		if wire.Message != "" {
			message = wire.Message
		}
	}

	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Retryable:  retryable,
		Body:       body,
	}
}

// IsAPIError checks if an error is an APIError.
func IsAPIError(err error) bool {
	var e *APIError
	return stderrors.As(err, &e)
}

// AsAPIError converts an error to an APIError if possible.
func AsAPIError(err error) (*APIError, bool) {
	var e *APIError
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsNotFound checks if an error is a not-found service error.
func IsNotFound(err error) bool {
	var e *APIError
	return stderrors.As(err, &e) && e.Code == ErrCodeNotFound
}

// IsRateLimited checks if an error is a rate-limit service error.
func IsRateLimited(err error) bool {
	var e *APIError
	return stderrors.As(err, &e) && e.Code == ErrCodeRateLimited
}

// IsConflict checks if an error is a conflict service error.
func IsConflict(err error) bool {
	var e *APIError
	return stderrors.As(err, &e) && e.Code == ErrCodeConflict
}

// IsRetryable reports whether the operation that produced err can be retried:
// either the service answered with a retryable status, or the request was
// never delivered in the first place.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return IsServiceRequestError(err)
}
