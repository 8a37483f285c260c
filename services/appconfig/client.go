package appconfig

import (
	"context"
	"fmt"
	"net/url"

	"github.com/veldtcloud/veldt-sdk-go/config"
	errs "github.com/veldtcloud/veldt-sdk-go/errors"
	"github.com/veldtcloud/veldt-sdk-go/logger"
	"github.com/veldtcloud/veldt-sdk-go/observability"
	"github.com/veldtcloud/veldt-sdk-go/pager"
	"github.com/veldtcloud/veldt-sdk-go/pipeline"
	"github.com/veldtcloud/veldt-sdk-go/transport"
	"github.com/veldtcloud/veldt-sdk-go/validation"
)

const serviceName = "appconfig"

// Client talks to the configuration service. Construct with New or
// FromSettings; the zero value is not usable. All methods are safe for
// concurrent use.
type Client struct {
	pl  *pipeline.Pipeline
	tr  *transport.Transport
	log *logger.Logger
}

// Option customizes a Client.
type Option func(*clientOptions)

type clientOptions struct {
	log      *logger.Logger
	policies []pipeline.Policy
}

// WithLogger installs a logger. The default client logs nothing.
func WithLogger(log *logger.Logger) Option {
	return func(o *clientOptions) { o.log = log }
}

// WithPolicies appends pipeline policies, credentials for example.
func WithPolicies(policies ...pipeline.Policy) Option {
	return func(o *clientOptions) { o.policies = append(o.policies, policies...) }
}

// New builds a client that reaches the service at endpoint through runner.
func New(endpoint string, runner transport.Runner, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("appconfig: endpoint is required")
	}
	o := clientOptions{log: logger.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	pl, err := pipeline.New(endpoint, runner, o.policies...)
	if err != nil {
		return nil, err
	}
	return &Client{pl: pl, log: o.log.WithComponent(serviceName)}, nil
}

// FromSettings builds a client that owns its transport, configured from s.
// The endpoint comes from the service map with the shared endpoint as
// fallback, and the API key policy is attached when a key is set. Close the
// client to release the transport.
func FromSettings(s *config.Settings, opts ...Option) (*Client, error) {
	endpoint := s.ServiceEndpoint(serviceName)
	if endpoint == "" {
		return nil, fmt.Errorf("appconfig: no endpoint configured")
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

// Close releases the transport when the client owns one. A client built
// over a borrowed runner leaves the runner untouched.
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

// CallOption tunes a single settings operation.
type CallOption func(*callSettings)

type callSettings struct {
	label string
}

// WithLabel scopes the operation to settings carrying the given label.
func WithLabel(label string) CallOption {
	return func(cs *callSettings) { cs.label = label }
}

// GetSetting retrieves one setting by key.
func (c *Client) GetSetting(ctx context.Context, key string, opts ...CallOption) (Setting, error) {
	if err := validKey(key); err != nil {
		return Setting{}, err
	}
	resp, err := pipeline.Get[Setting](c.pl, ctx, settingPath(key), requestOptions(opts)...)
	if err != nil {
		return Setting{}, err
	}
	return resp.Data, nil
}

// SetSetting creates or replaces a setting and returns the stored entry.
func (c *Client) SetSetting(ctx context.Context, setting Setting) (Setting, error) {
	if err := validKey(setting.Key); err != nil {
		return Setting{}, err
	}
	var ropts []pipeline.RequestOption
	if setting.Label != nil && *setting.Label != "" {
		ropts = append(ropts, pipeline.WithQuery("label", *setting.Label))
	}
	resp, err := pipeline.Put[Setting](c.pl, ctx, settingPath(setting.Key), setting, ropts...)
	if err != nil {
		return Setting{}, err
	}
	c.log.Debug("setting stored", logger.Fields("key", setting.Key))
	return resp.Data, nil
}

// DeleteSetting removes a setting. Deleting an absent key surfaces the
// service's not-found error.
func (c *Client) DeleteSetting(ctx context.Context, key string, opts ...CallOption) error {
	if err := validKey(key); err != nil {
		return err
	}
	_, err := pipeline.Delete[struct{}](c.pl, ctx, settingPath(key), requestOptions(opts)...)
	return err
}

// ListSettings pages through settings, optionally scoped to a label. Each
// page carries a link to the next; the pager follows the links until the
// service stops sending one.
func (c *Client) ListSettings(opts ...CallOption) *pager.Pager[Setting] {
	var cs callSettings
	for _, opt := range opts {
		opt(&cs)
	}
	return pager.New(func(ctx context.Context, token string) (pager.Page[Setting], error) {
		path := "settings"
		var ropts []pipeline.RequestOption
		if token != "" {
			path = token
		} else if cs.label != "" {
			ropts = append(ropts, pipeline.WithQuery("label", cs.label))
		}
		resp, err := pipeline.Get[settingsPage](c.pl, ctx, path, ropts...)
		if err != nil {
			return pager.Page[Setting]{}, err
		}
		return pager.Page[Setting]{
			Items:             resp.Data.Items,
			ContinuationToken: resp.Data.NextLink,
		}, nil
	})
}

func settingPath(key string) string {
	return "settings/" + url.PathEscape(key)
}

func validKey(key string) error {
	return validation.New().
		Required("key", key).
		MaxLength("key", key, 256).
		Err()
}

func requestOptions(opts []CallOption) []pipeline.RequestOption {
	var cs callSettings
	for _, opt := range opts {
		opt(&cs)
	}
	var out []pipeline.RequestOption
	if cs.label != "" {
		out = append(out, pipeline.WithQuery("label", cs.label))
	}
	return out
}
