package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/veldtcloud/veldt-sdk-go/logger"
)

// Response is the outcome of a single exchange. The network body is live
// until Body, a download, or Close consumes it, so every response must be
// closed. Status codes are reported, never interpreted.
type Response struct {
	// Request is the request that produced this response.
	Request *Request
	// StatusCode is the HTTP status code.
	StatusCode int
	// Reason is the status line reason phrase.
	Reason string
	// Headers are the response headers.
	Headers http.Header
	// ContentType is the Content-Type header value.
	ContentType string
	// ContentLength is the advertised body length, -1 when unknown.
	ContentLength int64

	raw       *http.Response
	cancel    context.CancelFunc
	blockSize int64
	stats     Stats
	host      string
	log       *logger.Logger

	mu       sync.Mutex
	body     []byte
	bodyRead bool
	closed   bool
}

func newResponse(req *Request, raw *http.Response, t *Transport, cancel context.CancelFunc) *Response {
	r := &Response{
		Request:       req,
		StatusCode:    raw.StatusCode,
		Reason:        reasonPhrase(raw),
		Headers:       raw.Header,
		ContentType:   raw.Header.Get("Content-Type"),
		ContentLength: raw.ContentLength,
		raw:           raw,
		cancel:        cancel,
		blockSize:     t.cfg.BlockSize,
		stats:         t.stats,
		log:           t.log,
	}
	if raw.Request != nil && raw.Request.URL != nil {
		r.host = raw.Request.URL.Host
	}
	return r
}

func reasonPhrase(raw *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(raw.Status, strconv.Itoa(raw.StatusCode)))
	if reason == "" {
		reason = http.StatusText(raw.StatusCode)
	}
	return reason
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Header returns the named response header.
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

// Body reads the whole payload into memory, closes the network stream, and
// caches the result. Subsequent calls return the cached bytes.
func (r *Response) Body() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bodyRead {
		return r.body, nil
	}
	if r.closed {
		return nil, http.ErrBodyReadAfterClose
	}
	data, err := io.ReadAll(r.raw.Body)
	r.closeLocked()
	if err != nil {
		return nil, classifyExchangeError(err)
	}
	r.body = data
	r.bodyRead = true
	if r.stats != nil {
		r.stats.AddBytesDownloaded(r.host, int64(len(data)))
	}
	return r.body, nil
}

// Text decodes the payload as text. The encoding argument wins when set,
// then the charset of the Content-Type header, then UTF-8.
func (r *Response) Text(encoding string) (string, error) {
	data, err := r.Body()
	if err != nil {
		return "", err
	}
	name := encoding
	if name == "" {
		name = r.charset()
	}
	if name == "" {
		return string(data), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("transport: unknown encoding %q: %w", name, err)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("transport: decode body as %q: %w", name, err)
	}
	return string(decoded), nil
}

// JSON unmarshals the payload into v.
func (r *Response) JSON(v any) error {
	data, err := r.Body()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("transport: decode json body: %w", err)
	}
	return nil
}

// Close releases the network stream and any per-call deadline. Close is
// idempotent and must be called once the response is no longer needed.
func (r *Response) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
	return nil
}

func (r *Response) closeLocked() {
	if r.closed {
		return
	}
	r.closed = true
	if r.raw != nil && r.raw.Body != nil {
		_ = r.raw.Body.Close()
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Response) charset() string {
	if r.ContentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
