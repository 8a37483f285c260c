// Package errors defines the error taxonomy for the Veldt SDK.
// Transport failures map onto exactly two kinds: ServiceRequestError when the
// request was never delivered to the service, and ServiceResponseError when it
// was delivered but no usable response came back. Service clients surface
// non-2xx responses as APIError with a machine-readable code, the raw body,
// and retryable detection.
package errors
