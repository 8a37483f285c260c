package resources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/veldtcloud/veldt-sdk-go/config"
	errs "github.com/veldtcloud/veldt-sdk-go/errors"
	"github.com/veldtcloud/veldt-sdk-go/logger"
	"github.com/veldtcloud/veldt-sdk-go/observability"
	"github.com/veldtcloud/veldt-sdk-go/pager"
	"github.com/veldtcloud/veldt-sdk-go/pipeline"
	"github.com/veldtcloud/veldt-sdk-go/transport"
	"github.com/veldtcloud/veldt-sdk-go/validation"
)

const serviceName = "resources"

// Group names: alphanumerics, dots, underscores, and dashes, starting with
// an alphanumeric, at most 90 characters.
var groupRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,89}$`)

// Client talks to the resource-management service. Construct with New or
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
		return nil, fmt.Errorf("resources: endpoint is required")
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
// Close the client to release the transport.
func FromSettings(s *config.Settings, opts ...Option) (*Client, error) {
	endpoint := s.ServiceEndpoint(serviceName)
	if endpoint == "" {
		return nil, fmt.Errorf("resources: no endpoint configured")
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

// CreateOrUpdateGroup creates the named group or replaces its mutable
// properties, and returns the stored group.
func (c *Client) CreateOrUpdateGroup(ctx context.Context, name string, group Group) (Group, error) {
	err := validation.New().
		Required("name", name).
		Matches("name", name, groupRE).
		Required("location", group.Location).
		Err()
	if err != nil {
		return Group{}, err
	}
	group.Name = name
	resp, err := pipeline.Put[Group](c.pl, ctx, groupPath(name), group)
	if err != nil {
		return Group{}, err
	}
	c.log.Debug("group stored", logger.Fields("name", name, "location", group.Location))
	return resp.Data, nil
}

// GetGroup retrieves one group by name.
func (c *Client) GetGroup(ctx context.Context, name string) (Group, error) {
	if err := validGroup(name); err != nil {
		return Group{}, err
	}
	resp, err := pipeline.Get[Group](c.pl, ctx, groupPath(name))
	if err != nil {
		return Group{}, err
	}
	return resp.Data, nil
}

// DeleteGroup removes a group and everything deployed into it.
func (c *Client) DeleteGroup(ctx context.Context, name string) error {
	if err := validGroup(name); err != nil {
		return err
	}
	_, err := pipeline.Delete[struct{}](c.pl, ctx, groupPath(name))
	return err
}

// ListGroups pages through every group.
func (c *Client) ListGroups() *pager.Pager[Group] {
	return pager.New(func(ctx context.Context, token string) (pager.Page[Group], error) {
		var ropts []pipeline.RequestOption
		if token != "" {
			ropts = append(ropts, pipeline.WithQuery("token", token))
		}
		resp, err := pipeline.Get[groupsPage](c.pl, ctx, "groups", ropts...)
		if err != nil {
			return pager.Page[Group]{}, err
		}
		return pager.Page[Group]{
			Items:             resp.Data.Items,
			ContinuationToken: resp.Data.ContinuationToken,
		}, nil
	})
}

// ListDeployments pages through the deployments of a group.
func (c *Client) ListDeployments(group string) *pager.Pager[Deployment] {
	return pager.New(func(ctx context.Context, token string) (pager.Page[Deployment], error) {
		if err := validGroup(group); err != nil {
			return pager.Page[Deployment]{}, err
		}
		var ropts []pipeline.RequestOption
		if token != "" {
			ropts = append(ropts, pipeline.WithQuery("token", token))
		}
		resp, err := pipeline.Get[deploymentsPage](c.pl, ctx, groupPath(group)+"/deployments", ropts...)
		if err != nil {
			return pager.Page[Deployment]{}, err
		}
		return pager.Page[Deployment]{
			Items:             resp.Data.Items,
			ContinuationToken: resp.Data.ContinuationToken,
		}, nil
	})
}

func groupPath(name string) string {
	return "groups/" + url.PathEscape(name)
}

func validGroup(name string) error {
	return validation.New().
		Required("name", name).
		Matches("name", name, groupRE).
		Err()
}
