// Package errors defines the error taxonomy for the Veldt SDK.
// Transport failures map onto exactly two kinds: ServiceRequestError when the
// request was never delivered to the service, and ServiceResponseError when it
// was delivered but no usable response came back. Service clients surface
// non-2xx responses as APIError with a machine-readable code, the raw body,
// and retryable detection.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ServiceRequestError indicates the request never reached the service: DNS
// resolution failed, the connection was refused, the TLS handshake broke, or
// the request could not be written. The operation did not take effect
// remotely, so a higher layer may replay it.
type ServiceRequestError struct {
	// Message describes the failure.
	Message string
	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ServiceRequestError) Error() string {
	return fmt.Sprintf("service request error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceRequestError) Unwrap() error { return e.Cause }

// NewServiceRequestError wraps err as a request-phase failure.
func NewServiceRequestError(err error) *ServiceRequestError {
	return &ServiceRequestError{Message: err.Error(), Cause: err}
}

// ServiceResponseError indicates the request was sent but no usable response
// came back: the read timed out, the peer reset the connection mid-response,
// or the body ended prematurely. The operation may have taken effect
// remotely, so replaying it is not automatically safe.
type ServiceResponseError struct {
	// Message describes the failure.
	Message string
	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ServiceResponseError) Error() string {
	return fmt.Sprintf("service response error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceResponseError) Unwrap() error { return e.Cause }

// NewServiceResponseError wraps err as a response-phase failure.
func NewServiceResponseError(err error) *ServiceResponseError {
	return &ServiceResponseError{Message: err.Error(), Cause: err}
}

// IsServiceRequestError checks if an error is a ServiceRequestError.
func IsServiceRequestError(err error) bool {
	var e *ServiceRequestError
	return stderrors.As(err, &e)
}

// IsServiceResponseError checks if an error is a ServiceResponseError.
func IsServiceResponseError(err error) bool {
	var e *ServiceResponseError
	return stderrors.As(err, &e)
}

// AsServiceRequestError converts an error to a ServiceRequestError if possible.
func AsServiceRequestError(err error) (*ServiceRequestError, bool) {
	var e *ServiceRequestError
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// AsServiceResponseError converts an error to a ServiceResponseError if possible.
func AsServiceResponseError(err error) (*ServiceResponseError, bool) {
	var e *ServiceResponseError
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}
