package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	errs "github.com/veldtcloud/veldt-sdk-go/errors"
	"github.com/veldtcloud/veldt-sdk-go/transport"
)

// TypedResponse wraps a response with a decoded body of type T.
type TypedResponse[T any] struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers http.Header
	// Data is the decoded response body.
	Data T
}

// RequestOption configures a single typed request.
type RequestOption func(*requestSettings)

type requestSettings struct {
	headers  map[string]string
	query    map[string]string
	callOpts []transport.CallOption
}

// WithHeader adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(rs *requestSettings) {
		if rs.headers == nil {
			rs.headers = make(map[string]string)
		}
		rs.headers[key] = value
	}
}

// WithQuery adds a query parameter to the request.
func WithQuery(key, value string) RequestOption {
	return func(rs *requestSettings) {
		if rs.query == nil {
			rs.query = make(map[string]string)
		}
		rs.query[key] = value
	}
}

// WithCallOptions forwards transport call options, such as a per-call
// timeout or TLS override.
func WithCallOptions(opts ...transport.CallOption) RequestOption {
	return func(rs *requestSettings) {
		rs.callOpts = append(rs.callOpts, opts...)
	}
}

// Get performs a GET request and decodes the JSON response into type T.
func Get[T any](p *Pipeline, ctx context.Context, path string, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](p, ctx, http.MethodGet, path, nil, opts...)
}

// Post performs a POST request with a JSON body and decodes the response into type T.
func Post[T any](p *Pipeline, ctx context.Context, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](p, ctx, http.MethodPost, path, body, opts...)
}

// Put performs a PUT request with a JSON body and decodes the response into type T.
func Put[T any](p *Pipeline, ctx context.Context, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](p, ctx, http.MethodPut, path, body, opts...)
}

// Patch performs a PATCH request with a JSON body and decodes the response into type T.
func Patch[T any](p *Pipeline, ctx context.Context, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](p, ctx, http.MethodPatch, path, body, opts...)
}

// Delete performs a DELETE request and decodes the JSON response into type T.
func Delete[T any](p *Pipeline, ctx context.Context, path string, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](p, ctx, http.MethodDelete, path, nil, opts...)
}

// doTyped executes a typed REST request and decodes the JSON response.
// Non-2xx responses become *errors.APIError values carrying the raw body
// and the service request id.
func doTyped[T any](p *Pipeline, ctx context.Context, method, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	var rs requestSettings
	for _, opt := range opts {
		opt(&rs)
	}

	req := transport.NewRequest(method, path)
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("pipeline: encode request body: %w", err)
		}
		req.Body = raw
		req.SetHeader("Content-Type", "application/json")
	}
	for k, v := range rs.headers {
		req.SetHeader(k, v)
	}
	for k, v := range rs.query {
		req.SetQuery(k, v)
	}

	resp, err := p.Run(ctx, req, rs.callOpts...)
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	raw, err := resp.Body()
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errs.FromStatus(resp.StatusCode, raw).WithRequestID(resp.Header(transport.HeaderRequestID))
	}

	var data T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("pipeline: decode response: %w", err)
		}
	}
	return &TypedResponse[T]{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Data:       data,
	}, nil
}
