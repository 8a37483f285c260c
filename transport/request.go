package transport

import (
	"bytes"
	"fmt"
	"io"
)

// Standard header names stamped by the transport.
const (
	HeaderClientRequestID = "x-veldt-client-request-id"
	HeaderRequestID       = "x-veldt-request-id"
)

// Request describes a single outbound HTTP exchange. Exactly one of Body,
// BodyStream, or Form should carry the payload; when several are set the
// precedence is Form, Body, BodyStream.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, etc).
	Method string
	// URL is the absolute request URL.
	URL string
	// Headers are request headers. They override the transport's defaults.
	Headers map[string]string
	// Query are URL query parameters merged into the URL.
	Query map[string]string
	// Body is a raw byte payload.
	Body []byte
	// BodyStream is a file-like payload. Seekability lets callers replay it.
	BodyStream io.ReadSeeker
	// Form is a multipart/form-data payload.
	Form *FormData
}

// NewRequest creates a request for the given method and absolute URL.
func NewRequest(method, url string) *Request {
	return &Request{
		Method:  method,
		URL:     url,
		Headers: make(map[string]string),
	}
}

// SetHeader sets a request header and returns the receiver.
func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// SetQuery sets a query parameter and returns the receiver.
func (r *Request) SetQuery(key, value string) *Request {
	if r.Query == nil {
		r.Query = make(map[string]string)
	}
	r.Query[key] = value
	return r
}

// Clone returns a deep copy of the request metadata. The body references are
// shared; ranged re-requests carry no body.
func (r *Request) Clone() *Request {
	clone := &Request{
		Method:     r.Method,
		URL:        r.URL,
		Body:       r.Body,
		BodyStream: r.BodyStream,
		Form:       r.Form,
	}
	if r.Headers != nil {
		clone.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			clone.Headers[k] = v
		}
	}
	if r.Query != nil {
		clone.Query = make(map[string]string, len(r.Query))
		for k, v := range r.Query {
			clone.Query[k] = v
		}
	}
	return clone
}

// resolveBody converts the request payload into an io.Reader plus the implied
// content type and length. A nil reader means no body; length -1 means
// unknown.
func (r *Request) resolveBody() (io.Reader, string, int64, error) {
	switch {
	case r.Form != nil:
		body, ct, err := r.Form.encode()
		if err != nil {
			return nil, "", 0, err
		}
		return body, ct, -1, nil
	case r.Body != nil:
		return bytes.NewReader(r.Body), "", int64(len(r.Body)), nil
	case r.BodyStream != nil:
		size, err := seekerLen(r.BodyStream)
		if err != nil {
			return nil, "", 0, fmt.Errorf("measure body stream: %w", err)
		}
		return r.BodyStream, "", size, nil
	default:
		return nil, "", 0, nil
	}
}

// seekerLen measures s and rewinds it to the start so a reused request
// replays from the beginning.
func seekerLen(s io.ReadSeeker) (int64, error) {
	size, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}
