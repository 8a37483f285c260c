package pipeline

import (
	"context"
	"fmt"
	"net/url"

	"github.com/veldtcloud/veldt-sdk-go/transport"
)

// Pipeline decorates a transport runner with an endpoint and a policy
// chain. Request URLs resolve against the endpoint, policies stamp
// credentials and headers, and the runner performs the exchange.
type Pipeline struct {
	runner   transport.Runner
	base     *url.URL
	policies []Policy
}

// New builds a pipeline around runner. endpoint is the base URL that
// relative request paths resolve against; it may be empty when every
// request carries an absolute URL.
func New(endpoint string, runner transport.Runner, policies ...Policy) (*Pipeline, error) {
	if runner == nil {
		return nil, fmt.Errorf("pipeline: runner is required")
	}
	var base *url.URL
	if endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("pipeline: parse endpoint: %w", err)
		}
		if !u.IsAbs() {
			return nil, fmt.Errorf("pipeline: endpoint %q is not absolute", endpoint)
		}
		base = u
	}
	return &Pipeline{runner: runner, base: base, policies: policies}, nil
}

// Endpoint returns the configured base URL, or "" when none was set.
func (p *Pipeline) Endpoint() string {
	if p.base == nil {
		return ""
	}
	return p.base.String()
}

// Run resolves the request URL, applies the policy chain and performs the
// exchange. The caller's request is never modified: policies operate on a
// clone, so the same request value can be reused across calls.
func (p *Pipeline) Run(ctx context.Context, req *transport.Request, opts ...transport.CallOption) (*transport.Response, error) {
	resolved, err := p.resolveURL(req.URL)
	if err != nil {
		return nil, err
	}
	out := req.Clone()
	out.URL = resolved
	for _, pol := range p.policies {
		if err := pol.Apply(ctx, out); err != nil {
			return nil, fmt.Errorf("pipeline: apply policy: %w", err)
		}
	}
	return p.runner.Run(ctx, out, opts...)
}

// resolveURL joins a request URL onto the endpoint. Absolute URLs pass
// through untouched, absolute paths replace the endpoint path, and
// relative paths extend it, following standard URL reference resolution.
func (p *Pipeline) resolveURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("pipeline: parse request url: %w", err)
	}
	if u.IsAbs() {
		return raw, nil
	}
	if p.base == nil {
		return "", fmt.Errorf("pipeline: relative url %q requires an endpoint", raw)
	}
	return p.base.ResolveReference(u).String(), nil
}
