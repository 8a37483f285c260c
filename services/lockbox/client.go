package lockbox

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
	"github.com/veldtcloud/veldt-sdk-go/util"
	"github.com/veldtcloud/veldt-sdk-go/validation"
)

const serviceName = "lockbox"

// Secret and key names: alphanumerics and dashes, at most 127 characters.
var nameRE = regexp.MustCompile(`^[0-9A-Za-z-]{1,127}$`)

// Client talks to the key-management service. Construct with New or
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
		return nil, fmt.Errorf("lockbox: endpoint is required")
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
		return nil, fmt.Errorf("lockbox: no endpoint configured")
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

// CallOption tunes a single secret or key operation.
type CallOption func(*callSettings)

type callSettings struct {
	version string
}

// WithVersion addresses a specific version instead of the latest.
func WithVersion(version string) CallOption {
	return func(cs *callSettings) { cs.version = version }
}

// GetSecret retrieves a secret, the latest version unless WithVersion says
// otherwise.
func (c *Client) GetSecret(ctx context.Context, name string, opts ...CallOption) (Secret, error) {
	if err := validName("name", name); err != nil {
		return Secret{}, err
	}
	var cs callSettings
	for _, opt := range opts {
		opt(&cs)
	}
	path := "secrets/" + url.PathEscape(name)
	if cs.version != "" {
		path += "/" + url.PathEscape(cs.version)
	}
	resp, err := pipeline.Get[Secret](c.pl, ctx, path)
	if err != nil {
		return Secret{}, err
	}
	return resp.Data, nil
}

// SetSecret stores a new version of the named secret and returns it, value
// included.
func (c *Client) SetSecret(ctx context.Context, name, value string, opts ...SecretOption) (Secret, error) {
	if err := validName("name", name); err != nil {
		return Secret{}, err
	}
	body := Secret{Name: name, Value: value}
	for _, opt := range opts {
		opt(&body)
	}
	resp, err := pipeline.Put[Secret](c.pl, ctx, "secrets/"+url.PathEscape(name), body)
	if err != nil {
		return Secret{}, err
	}
	c.log.Debug("secret stored", logger.Fields("name", name, "version", resp.Data.Version))
	return resp.Data, nil
}

// SecretOption decorates the secret sent by SetSecret.
type SecretOption func(*Secret)

// WithContentType records the value's content type.
func WithContentType(ct string) SecretOption {
	return func(s *Secret) { s.ContentType = util.Ptr(ct) }
}

// WithTags attaches tags to the secret.
func WithTags(tags map[string]string) SecretOption {
	return func(s *Secret) { s.Tags = tags }
}

// DeleteSecret removes a secret and every version of it.
func (c *Client) DeleteSecret(ctx context.Context, name string) error {
	if err := validName("name", name); err != nil {
		return err
	}
	_, err := pipeline.Delete[struct{}](c.pl, ctx, "secrets/"+url.PathEscape(name))
	return err
}

// ListSecrets pages through secret metadata. Values are not included.
func (c *Client) ListSecrets() *pager.Pager[SecretProperties] {
	return pager.New(func(ctx context.Context, token string) (pager.Page[SecretProperties], error) {
		var ropts []pipeline.RequestOption
		if token != "" {
			ropts = append(ropts, pipeline.WithQuery("token", token))
		}
		resp, err := pipeline.Get[secretsPage](c.pl, ctx, "secrets", ropts...)
		if err != nil {
			return pager.Page[SecretProperties]{}, err
		}
		return pager.Page[SecretProperties]{
			Items:             resp.Data.Items,
			ContinuationToken: resp.Data.ContinuationToken,
		}, nil
	})
}

// GetKey retrieves a key's description, the latest version unless
// WithVersion says otherwise.
func (c *Client) GetKey(ctx context.Context, name string, opts ...CallOption) (Key, error) {
	if err := validName("name", name); err != nil {
		return Key{}, err
	}
	var cs callSettings
	for _, opt := range opts {
		opt(&cs)
	}
	path := "keys/" + url.PathEscape(name)
	if cs.version != "" {
		path += "/" + url.PathEscape(cs.version)
	}
	resp, err := pipeline.Get[Key](c.pl, ctx, path)
	if err != nil {
		return Key{}, err
	}
	return resp.Data, nil
}

// CreateKey asks the service to generate a key of the given type. The key
// material stays in the service; the returned Key describes it.
func (c *Client) CreateKey(ctx context.Context, name, keyType string, opts ...KeyOption) (Key, error) {
	err := validation.New().
		Required("name", name).
		Matches("name", name, nameRE).
		Required("type", keyType).
		OneOf("type", keyType, []string{KeyTypeRSA, KeyTypeEC, KeyTypeOct}).
		Err()
	if err != nil {
		return Key{}, err
	}

	body := createKeyRequest{Type: keyType}
	for _, opt := range opts {
		opt(&body)
	}
	resp, err := pipeline.Post[Key](c.pl, ctx, "keys/"+url.PathEscape(name), body)
	if err != nil {
		return Key{}, err
	}
	c.log.Debug("key created", logger.Fields("name", name, "type", keyType))
	return resp.Data, nil
}

// KeyOption decorates a key creation request.
type KeyOption func(*createKeyRequest)

// WithKeySize sets the key size in bits for key types that take one.
func WithKeySize(bits int) KeyOption {
	return func(r *createKeyRequest) { r.Size = util.Ptr(bits) }
}

func validName(field, value string) error {
	return validation.New().
		Required(field, value).
		Matches(field, value, nameRE).
		Err()
}
