package transport

import "context"

// Runner issues one request and returns its response. Transport.Do satisfies
// it through RunnerFunc, and request pipelines implement it directly, so
// downloads can resume through whichever layer produced their response.
type Runner interface {
	Run(ctx context.Context, req *Request, opts ...CallOption) (*Response, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, req *Request, opts ...CallOption) (*Response, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, req *Request, opts ...CallOption) (*Response, error) {
	return f(ctx, req, opts...)
}
