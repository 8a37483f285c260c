package buckets

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/veldtcloud/veldt-sdk-go/config"
	errs "github.com/veldtcloud/veldt-sdk-go/errors"
	"github.com/veldtcloud/veldt-sdk-go/logger"
	"github.com/veldtcloud/veldt-sdk-go/observability"
	"github.com/veldtcloud/veldt-sdk-go/pager"
	"github.com/veldtcloud/veldt-sdk-go/pipeline"
	"github.com/veldtcloud/veldt-sdk-go/resilience"
	"github.com/veldtcloud/veldt-sdk-go/transport"
	"github.com/veldtcloud/veldt-sdk-go/validation"
)

const serviceName = "buckets"

// Container names: lowercase alphanumerics and dashes, starting with an
// alphanumeric, 3 to 63 characters.
var containerRE = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{2,62}$`)

// Client talks to the storage service. Construct with New or FromSettings;
// the zero value is not usable. All methods are safe for concurrent use.
type Client struct {
	pl      *pipeline.Pipeline
	tr      *transport.Transport
	log     *logger.Logger
	metrics *observability.Metrics
	retry   resilience.RetryConfig
}

// Option customizes a Client.
type Option func(*clientOptions)

type clientOptions struct {
	log      *logger.Logger
	policies []pipeline.Policy
	metrics  *observability.Metrics
	retry    resilience.RetryConfig
}

// WithLogger installs a logger. The default client logs nothing.
func WithLogger(log *logger.Logger) Option {
	return func(o *clientOptions) { o.log = log }
}

// WithPolicies appends pipeline policies, credentials for example.
func WithPolicies(policies ...pipeline.Policy) Option {
	return func(o *clientOptions) { o.policies = append(o.policies, policies...) }
}

// WithMetrics records operation metrics on the given instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// WithUploadRetry tunes the upload retry policy. Whatever the settings,
// uploads re-send only when the request never reached the service.
func WithUploadRetry(cfg resilience.RetryConfig) Option {
	return func(o *clientOptions) { o.retry = cfg }
}

func defaultUploadRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    4,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.2,
	}
}

// New builds a client that reaches the service at endpoint through runner.
func New(endpoint string, runner transport.Runner, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("buckets: endpoint is required")
	}
	o := clientOptions{log: logger.NewNop(), retry: defaultUploadRetry()}
	for _, opt := range opts {
		opt(&o)
	}
	pl, err := pipeline.New(endpoint, runner, o.policies...)
	if err != nil {
		return nil, err
	}
	// Uploads are re-sent only when the request never left the client.
	o.retry.RetryIf = errs.IsServiceRequestError
	return &Client{
		pl:      pl,
		log:     o.log.WithComponent(serviceName),
		metrics: o.metrics,
		retry:   o.retry,
	}, nil
}

// FromSettings builds a client that owns its transport, configured from s.
// Close the client to release the transport.
func FromSettings(s *config.Settings, opts ...Option) (*Client, error) {
	endpoint := s.ServiceEndpoint(serviceName)
	if endpoint == "" {
		return nil, fmt.Errorf("buckets: no endpoint configured")
	}
	logCfg := s.Logging
	logCfg.ApplyDefaults()
	log := logger.New(&logCfg, serviceName)
	tr, err := transport.New(s.Connection, transport.WithLogger(log))
	if err != nil {
		return nil, err
	}
	base := []Option{WithLogger(log)}
	if s.APIKey != "" {
		base = append(base, WithPolicies(pipeline.APIKeyHeader(s.APIKey, pipeline.HeaderAPIKey)))
	}
	c, err := New(endpoint, transport.RunnerFunc(tr.Do), append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	c.tr = tr
	return c, nil
}

// Endpoint returns the configured service endpoint.
func (c *Client) Endpoint() string { return c.pl.Endpoint() }

// Close releases the transport when the client owns one.
func (c *Client) Close() error {
	if c.tr != nil {
		return c.tr.Close()
	}
	return nil
}

// CheckHealth probes the service health endpoint. A service that answers
// outside the 2xx range reports degraded, an unreachable one down.
func (c *Client) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{Name: serviceName, Status: observability.HealthStatusUp}
	_, err := pipeline.Get[struct{}](c.pl, ctx, "health")
	switch {
	case err == nil:
	case errs.IsAPIError(err):
		h.Status = observability.HealthStatusDegraded
		h.Message = err.Error()
	default:
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	}
	return h
}

// CreateContainer creates a container. Creating one that already exists
// surfaces the service's conflict error.
func (c *Client) CreateContainer(ctx context.Context, name string) (Container, error) {
	if err := validContainer(name); err != nil {
		return Container{}, err
	}
	resp, err := pipeline.Put[Container](c.pl, ctx, containerPath(name), Container{Name: name})
	if err != nil {
		return Container{}, err
	}
	c.log.Debug("container created", logger.Fields("container", name))
	return resp.Data, nil
}

// DeleteContainer removes a container and every blob in it.
func (c *Client) DeleteContainer(ctx context.Context, name string) error {
	if err := validContainer(name); err != nil {
		return err
	}
	_, err := pipeline.Delete[struct{}](c.pl, ctx, containerPath(name))
	return err
}

// ListOption tunes a blob listing.
type ListOption func(*listSettings)

type listSettings struct {
	prefix string
}

// WithPrefix restricts the listing to blob names starting with prefix.
func WithPrefix(prefix string) ListOption {
	return func(ls *listSettings) { ls.prefix = prefix }
}

// ListBlobs pages through the blobs of a container.
func (c *Client) ListBlobs(container string, opts ...ListOption) *pager.Pager[BlobItem] {
	var ls listSettings
	for _, opt := range opts {
		opt(&ls)
	}
	return pager.New(func(ctx context.Context, token string) (pager.Page[BlobItem], error) {
		if err := validContainer(container); err != nil {
			return pager.Page[BlobItem]{}, err
		}
		var ropts []pipeline.RequestOption
		if ls.prefix != "" {
			ropts = append(ropts, pipeline.WithQuery("prefix", ls.prefix))
		}
		if token != "" {
			ropts = append(ropts, pipeline.WithQuery("token", token))
		}
		resp, err := pipeline.Get[blobsPage](c.pl, ctx, containerPath(container)+"/blobs", ropts...)
		if err != nil {
			return pager.Page[BlobItem]{}, err
		}
		return pager.Page[BlobItem]{
			Items:             resp.Data.Items,
			ContinuationToken: resp.Data.ContinuationToken,
		}, nil
	})
}

func containerPath(name string) string {
	return "containers/" + url.PathEscape(name)
}

func blobPath(container, name string) string {
	return containerPath(container) + "/blobs/" + url.PathEscape(name)
}

func validContainer(name string) error {
	return validation.New().
		Required("container", name).
		Matches("container", name, containerRE).
		Err()
}

func validBlobName(name string) error {
	return validation.New().
		Required("blob", name).
		MaxLength("blob", name, 1024).
		Err()
}
