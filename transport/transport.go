package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http/httpproxy"

	"github.com/veldtcloud/veldt-sdk-go/logger"
	"github.com/veldtcloud/veldt-sdk-go/resilience"
	"github.com/veldtcloud/veldt-sdk-go/version"
)

const tracerName = "github.com/veldtcloud/veldt-sdk-go/transport"

// Transport performs single HTTP exchanges over a pooled connection set.
// It never follows redirects, never retries, and never inspects status codes;
// those policies belong to the layers above it.
//
// The zero value is not usable; construct with New. All methods are safe for
// concurrent use.
type Transport struct {
	mu     sync.Mutex
	client *http.Client
	owned  bool

	cfg       ConnConfig
	log       *logger.Logger
	tracer    trace.Tracer
	limiter   *resilience.RateLimiter
	stats     Stats
	userAgent string
}

// New creates a transport from cfg. The connection pool is built lazily on
// the first exchange or an explicit Open.
func New(cfg ConnConfig, opts ...Option) (*Transport, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Transport{
		cfg:       cfg,
		owned:     true,
		log:       logger.NewNop(),
		tracer:    otel.Tracer(tracerName),
		userAgent: version.UserAgent(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Open readies the connection pool. Calling Open on an open transport is a
// no-op. A transport that borrowed its client via WithClient cannot rebuild
// one and Open fails if that client is gone.
func (t *Transport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.openLocked()
}

func (t *Transport) openLocked() error {
	if t.client != nil {
		return nil
	}
	if !t.owned {
		return fmt.Errorf("transport: no client available and the transport does not own one")
	}
	rt, err := t.buildRoundTripper(t.cfg.TLS)
	if err != nil {
		return err
	}
	t.client = &http.Client{
		Transport:     rt,
		CheckRedirect: noRedirects,
	}
	t.log.Debug("connection pool opened")
	return nil
}

// Close releases the pooled connections. A transport that owns its client can
// be reopened afterwards; a borrowed client is left untouched. Close is
// idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil || !t.owned {
		return nil
	}
	t.client.CloseIdleConnections()
	t.client = nil
	t.log.Debug("connection pool closed")
	return nil
}

// Do sends a single request and returns the response with its body still
// live. Errors are always one of the two transport kinds: a
// ServiceRequestError when the request never reached the service, a
// ServiceResponseError when it did but no usable response came back.
// Redirect responses are returned as-is.
func (t *Transport) Do(ctx context.Context, req *Request, opts ...CallOption) (*Response, error) {
	cs := &callSettings{}
	for _, opt := range opts {
		opt(cs)
	}

	t.mu.Lock()
	if err := t.openLocked(); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	client := t.client
	t.mu.Unlock()

	if cs.hasTLSOverride() {
		oneShot, err := t.oneShotClient(cs)
		if err != nil {
			return nil, err
		}
		client = oneShot
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, classifyExchangeError(err)
		}
	}

	// The deadline must outlive Do so the body stays readable; Response.Close
	// releases it.
	var cancel context.CancelFunc
	if cs.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cs.timeout)
	}

	httpReq, err := t.buildHTTPRequest(ctx, req, cs)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}

	ctx, span := t.tracer.Start(ctx, fmt.Sprintf("HTTP %s", req.Method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", httpReq.URL.String()),
			attribute.String("server.address", httpReq.URL.Host),
		),
	)
	httpReq = httpReq.WithContext(ctx)

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	elapsed := time.Since(start)

	if err != nil {
		if cancel != nil {
			cancel()
		}
		classified := classifyExchangeError(err)
		span.RecordError(classified)
		span.SetStatus(codes.Error, classified.Error())
		span.End()
		if t.stats != nil {
			t.stats.ObserveRequest(req.Method, httpReq.URL.Host, 0, elapsed)
		}
		t.log.WithError(classified).Debug("exchange failed", logger.Fields(
			logger.FieldMethod, req.Method,
			logger.FieldURL, req.URL,
			logger.FieldDuration, elapsed.Milliseconds(),
		))
		return nil, classified
	}

	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))
	span.End()
	if t.stats != nil {
		t.stats.ObserveRequest(req.Method, httpReq.URL.Host, httpResp.StatusCode, elapsed)
	}
	t.log.Debug("exchange completed", logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldURL, req.URL,
		logger.FieldStatus, httpResp.StatusCode,
		logger.FieldDuration, elapsed.Milliseconds(),
	))

	return newResponse(req, httpResp, t, cancel), nil
}

// buildHTTPRequest assembles the final http.Request: URL with merged query,
// resolved body, layered headers, then per-call hooks.
func (t *Transport) buildHTTPRequest(ctx context.Context, req *Request, cs *callSettings) (*http.Request, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("transport: parse url %q: %w", req.URL, err)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	body, formCT, length, err := req.resolveBody()
	if err != nil {
		return nil, fmt.Errorf("transport: resolve body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	if body != nil && length >= 0 {
		httpReq.ContentLength = length
	}

	// Connection defaults first, then request headers, then per-call headers.
	for k, v := range t.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range cs.headers {
		httpReq.Header.Set(k, v)
	}

	if formCT != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", formCT)
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}
	if httpReq.Header.Get(HeaderClientRequestID) == "" {
		httpReq.Header.Set(HeaderClientRequestID, uuid.NewString())
	}

	if cs.hook != nil {
		cs.hook(httpReq)
	}
	return httpReq, nil
}

// buildRoundTripper clones the default transport and applies the pool and
// timeout settings. cfg.Timeout bounds the wait for response headers rather
// than the whole exchange, so long downloads are never cut off mid-body.
func (t *Transport) buildRoundTripper(tlsCfg *TLSConfig) (*http.Transport, error) {
	var rt *http.Transport
	if base, ok := http.DefaultTransport.(*http.Transport); ok {
		rt = base.Clone()
	} else {
		rt = &http.Transport{}
	}

	dialer := &net.Dialer{
		Timeout:   t.cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	rt.DialContext = dialer.DialContext
	rt.TLSHandshakeTimeout = t.cfg.ConnectTimeout
	rt.ResponseHeaderTimeout = t.cfg.Timeout
	rt.MaxIdleConns = t.cfg.MaxIdleConns
	rt.MaxIdleConnsPerHost = t.cfg.MaxIdleConnsPerHost
	rt.IdleConnTimeout = t.cfg.IdleConnTimeout

	if t.cfg.ProxyFromEnv {
		proxyFn := httpproxy.FromEnvironment().ProxyFunc()
		rt.Proxy = func(r *http.Request) (*url.URL, error) {
			return proxyFn(r.URL)
		}
	} else {
		rt.Proxy = nil
	}

	if tlsCfg.IsEnabled() {
		tc, err := tlsCfg.Build()
		if err != nil {
			return nil, fmt.Errorf("transport: build tls config: %w", err)
		}
		rt.TLSClientConfig = tc
	}
	return rt, nil
}

// oneShotClient builds a dedicated client for a call that overrides the
// connection's TLS settings. Its connections are not kept alive so the
// override never leaks into the shared pool.
func (t *Transport) oneShotClient(cs *callSettings) (*http.Client, error) {
	var tlsCfg TLSConfig
	switch {
	case cs.tls != nil:
		tlsCfg = *cs.tls
	case t.cfg.TLS != nil:
		tlsCfg = *t.cfg.TLS
	}
	if cs.skipVerify {
		tlsCfg.SkipVerify = true
	}
	if cs.certFile != "" {
		tlsCfg.CertFile = cs.certFile
		tlsCfg.KeyFile = cs.keyFile
	}
	if err := tlsCfg.Validate(); err != nil {
		return nil, err
	}

	rt, err := t.buildRoundTripper(&tlsCfg)
	if err != nil {
		return nil, err
	}
	rt.DisableKeepAlives = true
	return &http.Client{
		Transport:     rt,
		CheckRedirect: noRedirects,
	}, nil
}

// noRedirects keeps 3xx responses intact for the caller instead of chasing
// Location headers.
func noRedirects(_ *http.Request, _ []*http.Request) error {
	return http.ErrUseLastResponse
}
