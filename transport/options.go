package transport

import (
	"net/http"
	"time"

	"github.com/veldtcloud/veldt-sdk-go/logger"
	"github.com/veldtcloud/veldt-sdk-go/resilience"
)

// Option customizes a Transport at construction time.
type Option func(*Transport)

// WithClient installs an externally managed http.Client. When owned is false
// the transport never closes the client's idle connections; Close is a no-op
// and Open only verifies the client is present.
func WithClient(client *http.Client, owned bool) Option {
	return func(t *Transport) {
		t.client = client
		t.owned = owned
	}
}

// WithUserAgent overrides the User-Agent header stamped on requests.
func WithUserAgent(ua string) Option {
	return func(t *Transport) {
		t.userAgent = ua
	}
}

// WithRateLimit throttles outbound exchanges through the given limiter.
func WithRateLimit(rl *resilience.RateLimiter) Option {
	return func(t *Transport) {
		t.limiter = rl
	}
}

// WithStats installs a metrics sink for exchanges and stream retries.
func WithStats(stats Stats) Option {
	return func(t *Transport) {
		t.stats = stats
	}
}

// WithLogger installs a logger. The default transport logs nothing.
func WithLogger(log *logger.Logger) Option {
	return func(t *Transport) {
		t.log = log.WithComponent("transport")
	}
}

// Stats receives transport-level measurements. Implementations must be safe
// for concurrent use.
type Stats interface {
	// ObserveRequest records one completed exchange. Status is zero when the
	// exchange failed before a response arrived.
	ObserveRequest(method, host string, status int, elapsed time.Duration)
	// ObserveStreamRetry records one ranged re-request issued by a download.
	ObserveStreamRetry(host string)
	// AddBytesDownloaded records payload bytes delivered to a consumer.
	AddBytesDownloaded(host string, n int64)
}

// CallOption customizes a single Do invocation.
type CallOption func(*callSettings)

type callSettings struct {
	timeout    time.Duration
	tls        *TLSConfig
	skipVerify bool
	certFile   string
	keyFile    string
	headers    map[string]string
	hook       func(*http.Request)
}

// hasTLSOverride reports whether the call needs a dedicated client with its
// own TLS configuration.
func (cs *callSettings) hasTLSOverride() bool {
	return cs.tls != nil || cs.skipVerify || cs.certFile != ""
}

// WithTimeout bounds the whole exchange, response body included. The
// deadline stays armed until the response is closed.
func WithTimeout(d time.Duration) CallOption {
	return func(cs *callSettings) {
		cs.timeout = d
	}
}

// WithTLS replaces the connection's TLS configuration for this call.
func WithTLS(cfg *TLSConfig) CallOption {
	return func(cs *callSettings) {
		cs.tls = cfg
	}
}

// WithSkipVerify disables server certificate verification for this call.
func WithSkipVerify() CallOption {
	return func(cs *callSettings) {
		cs.skipVerify = true
	}
}

// WithClientCert presents a client certificate for this call.
func WithClientCert(certFile, keyFile string) CallOption {
	return func(cs *callSettings) {
		cs.certFile = certFile
		cs.keyFile = keyFile
	}
}

// WithCallHeader sets a header on this call only.
func WithCallHeader(key, value string) CallOption {
	return func(cs *callSettings) {
		if cs.headers == nil {
			cs.headers = make(map[string]string)
		}
		cs.headers[key] = value
	}
}

// WithRequestHook runs f on the final http.Request just before it is sent.
// Hooks accumulate and run in registration order.
func WithRequestHook(f func(*http.Request)) CallOption {
	return func(cs *callSettings) {
		prev := cs.hook
		cs.hook = func(r *http.Request) {
			if prev != nil {
				prev(r)
			}
			f(r)
		}
	}
}
