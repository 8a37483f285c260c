// Package pipeline assembles the request path of a service client: an
// endpoint that relative paths resolve against, an ordered chain of
// policies that stamp credentials and headers onto each request, and a
// runner that performs the exchange.
//
// A Pipeline is itself a transport.Runner, so typed calls, pagers and
// stream resumption all send through the same decorated path:
//
//	tr, err := transport.New(transport.ConnConfig{})
//	if err != nil {
//		return err
//	}
//	pl, err := pipeline.New("https://vault.veldt.example",
//		transport.RunnerFunc(tr.Do),
//		pipeline.BearerToken(token),
//	)
//	if err != nil {
//		return err
//	}
//
//	item, err := pipeline.Get[Secret](pl, ctx, "/v1/secrets/db-password")
//
// Typed helpers decode JSON bodies and convert non-2xx responses into
// *errors.APIError values, so callers branch on errors.IsNotFound and
// friends instead of status codes.
package pipeline
