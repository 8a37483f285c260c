// Package metrics provides optional Prometheus collectors for transport
// statistics. Pass a *Metrics to transport.WithStats and register its
// Collectors with the registry of your choice; nothing registers itself.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/veldtcloud/veldt-sdk-go/transport"
)

var _ transport.Stats = (*Metrics)(nil)

// Metrics holds transport-level Prometheus metrics. A nil *Metrics is a
// valid no-op sink, so callers can wire it unconditionally.
type Metrics struct {
	// Requests counts completed exchanges by host, method and status code.
	// The code label is "0" when the exchange failed before a response
	// arrived.
	Requests *prometheus.CounterVec
	// RequestDuration observes wall time per exchange in seconds.
	RequestDuration *prometheus.HistogramVec
	// StreamRetries counts ranged re-requests issued by downloads.
	StreamRetries *prometheus.CounterVec
	// BytesDownloaded counts payload bytes delivered to consumers.
	BytesDownloaded *prometheus.CounterVec
}

// New creates the metric set under namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "requests_total",
			Help:      "Completed exchanges by host, method and status code.",
		}, []string{"host", "method", "code"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "request_duration_seconds",
			Help:      "Wall time per exchange, from send to response headers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host", "method"}),

		StreamRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "stream_retries_total",
			Help:      "Ranged re-requests issued to resume broken downloads.",
		}, []string{"host"}),

		BytesDownloaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "bytes_downloaded_total",
			Help:      "Payload bytes delivered to download consumers.",
		}, []string{"host"}),
	}
}

// Collectors returns every metric for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{
		m.Requests,
		m.RequestDuration,
		m.StreamRetries,
		m.BytesDownloaded,
	}
}

// ObserveRequest records one completed exchange.
func (m *Metrics) ObserveRequest(method, host string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(host, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(host, method).Observe(elapsed.Seconds())
}

// ObserveStreamRetry records one ranged re-request issued by a download.
func (m *Metrics) ObserveStreamRetry(host string) {
	if m == nil {
		return
	}
	m.StreamRetries.WithLabelValues(host).Inc()
}

// AddBytesDownloaded records payload bytes delivered to a consumer.
func (m *Metrics) AddBytesDownloaded(host string, n int64) {
	if m == nil {
		return
	}
	m.BytesDownloaded.WithLabelValues(host).Add(float64(n))
}
