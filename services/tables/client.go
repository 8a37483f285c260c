package tables

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/veldtcloud/veldt-sdk-go/config"
	errs "github.com/veldtcloud/veldt-sdk-go/errors"
	"github.com/veldtcloud/veldt-sdk-go/logger"
	"github.com/veldtcloud/veldt-sdk-go/observability"
	"github.com/veldtcloud/veldt-sdk-go/pager"
	"github.com/veldtcloud/veldt-sdk-go/pipeline"
	"github.com/veldtcloud/veldt-sdk-go/transport"
	"github.com/veldtcloud/veldt-sdk-go/validation"
)

const serviceName = "tables"

// Table names: a letter followed by letters and digits, 3 to 63 characters.
var tableRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{2,62}$`)

// Client talks to the database service. Construct with New or FromSettings;
// the zero value is not usable. All methods are safe for concurrent use.
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
		return nil, fmt.Errorf("tables: endpoint is required")
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
		return nil, fmt.Errorf("tables: no endpoint configured")
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

// GetItem retrieves one item by table, partition, and id.
func (c *Client) GetItem(ctx context.Context, table, partition, id string) (Item, error) {
	if err := validAddress(table, partition, id); err != nil {
		return nil, err
	}
	resp, err := pipeline.Get[Item](c.pl, ctx, itemPath(table, partition, id))
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// UpsertItem creates or replaces an item and returns the stored version,
// service-stamped properties included.
func (c *Client) UpsertItem(ctx context.Context, table, partition, id string, item Item) (Item, error) {
	if err := validAddress(table, partition, id); err != nil {
		return nil, err
	}
	resp, err := pipeline.Put[Item](c.pl, ctx, itemPath(table, partition, id), item)
	if err != nil {
		return nil, err
	}
	c.log.Debug("item upserted", logger.Fields("table", table, "partition", partition, "id", id))
	return resp.Data, nil
}

// DeleteItem removes an item. Deleting an absent item surfaces the
// service's not-found error.
func (c *Client) DeleteItem(ctx context.Context, table, partition, id string) error {
	if err := validAddress(table, partition, id); err != nil {
		return err
	}
	_, err := pipeline.Delete[struct{}](c.pl, ctx, itemPath(table, partition, id))
	return err
}

// QueryOption tunes a query.
type QueryOption func(*querySettings)

type querySettings struct {
	partition string
	filter    string
	limit     int
	resume    string
}

// WithPartition restricts the query to one partition.
func WithPartition(partition string) QueryOption {
	return func(qs *querySettings) { qs.partition = partition }
}

// WithFilter applies a service-side filter expression.
func WithFilter(filter string) QueryOption {
	return func(qs *querySettings) { qs.filter = filter }
}

// WithPageLimit caps the number of items per page.
func WithPageLimit(n int) QueryOption {
	return func(qs *querySettings) { qs.limit = n }
}

// WithContinuationToken resumes a query from a token checkpointed off an
// earlier pager.
func WithContinuationToken(token string) QueryOption {
	return func(qs *querySettings) { qs.resume = token }
}

// QueryItems pages through the items of a table. The service hands back a
// continuation token with each partial page; the pager feeds it to the next
// fetch until the listing is done.
func (c *Client) QueryItems(table string, opts ...QueryOption) *pager.Pager[Item] {
	var qs querySettings
	for _, opt := range opts {
		opt(&qs)
	}
	fetch := func(ctx context.Context, token string) (pager.Page[Item], error) {
		if err := validTable(table); err != nil {
			return pager.Page[Item]{}, err
		}
		ropts := []pipeline.RequestOption{}
		if qs.partition != "" {
			ropts = append(ropts, pipeline.WithQuery("partition", qs.partition))
		}
		if qs.filter != "" {
			ropts = append(ropts, pipeline.WithQuery("filter", qs.filter))
		}
		if qs.limit > 0 {
			ropts = append(ropts, pipeline.WithQuery("limit", strconv.Itoa(qs.limit)))
		}
		if token != "" {
			ropts = append(ropts, pipeline.WithQuery("token", token))
		}
		resp, err := pipeline.Get[itemsPage](c.pl, ctx, "tables/"+url.PathEscape(table)+"/items", ropts...)
		if err != nil {
			return pager.Page[Item]{}, err
		}
		return pager.Page[Item]{
			Items:             resp.Data.Items,
			ContinuationToken: resp.Data.ContinuationToken,
		}, nil
	}
	if qs.resume != "" {
		return pager.NewFromToken(fetch, qs.resume)
	}
	return pager.New(fetch)
}

func itemPath(table, partition, id string) string {
	return "tables/" + url.PathEscape(table) +
		"/items/" + url.PathEscape(partition) +
		"/" + url.PathEscape(id)
}

func validTable(table string) error {
	return validation.New().
		Required("table", table).
		Matches("table", table, tableRE).
		Err()
}

func validAddress(table, partition, id string) error {
	return validation.New().
		Required("table", table).
		Matches("table", table, tableRE).
		Required("partition", partition).
		Required("id", id).
		Err()
}
