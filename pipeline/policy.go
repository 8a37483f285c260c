package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/veldtcloud/veldt-sdk-go/transport"
)

// HeaderAPIKey is the header Veldt services read API keys from.
const HeaderAPIKey = "x-veldt-api-key"

// Policy mutates an outgoing request before the runner sends it. Policies
// run in the order they were given to New; an error from any policy aborts
// the exchange before anything reaches the wire.
type Policy interface {
	Apply(ctx context.Context, req *transport.Request) error
}

// PolicyFunc adapts a plain function to the Policy interface.
type PolicyFunc func(ctx context.Context, req *transport.Request) error

// Apply implements Policy.
func (f PolicyFunc) Apply(ctx context.Context, req *transport.Request) error {
	return f(ctx, req)
}

// BearerToken authenticates every request with a static bearer token.
func BearerToken(token string) Policy {
	return PolicyFunc(func(_ context.Context, req *transport.Request) error {
		req.SetHeader("Authorization", "Bearer "+token)
		return nil
	})
}

// BearerTokenFunc authenticates with a token fetched on every exchange, so
// the source can refresh or rotate credentials between calls.
func BearerTokenFunc(source func(ctx context.Context) (string, error)) Policy {
	return PolicyFunc(func(ctx context.Context, req *transport.Request) error {
		token, err := source(ctx)
		if err != nil {
			return fmt.Errorf("fetch bearer token: %w", err)
		}
		req.SetHeader("Authorization", "Bearer "+token)
		return nil
	})
}

// BasicAuth authenticates with HTTP basic credentials.
func BasicAuth(username, password string) Policy {
	cred := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return PolicyFunc(func(_ context.Context, req *transport.Request) error {
		req.SetHeader("Authorization", "Basic "+cred)
		return nil
	})
}

// APIKey sends an API key in the X-API-Key header.
func APIKey(key string) Policy {
	return APIKeyHeader(key, "X-API-Key")
}

// APIKeyHeader sends an API key in a custom header.
func APIKeyHeader(key, headerName string) Policy {
	return PolicyFunc(func(_ context.Context, req *transport.Request) error {
		req.SetHeader(headerName, key)
		return nil
	})
}

// APIKeyQuery sends an API key as a query parameter.
func APIKeyQuery(key, paramName string) Policy {
	return PolicyFunc(func(_ context.Context, req *transport.Request) error {
		req.SetQuery(paramName, key)
		return nil
	})
}

// ExtraHeaders stamps a fixed set of headers on every request. Headers
// already present on the request are overwritten.
func ExtraHeaders(headers map[string]string) Policy {
	return PolicyFunc(func(_ context.Context, req *transport.Request) error {
		for k, v := range headers {
			req.SetHeader(k, v)
		}
		return nil
	})
}
