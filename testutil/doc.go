// Package testutil provides shared HTTP fixtures for SDK tests.
//
// Two servers cover most scenarios. BlobServer serves a byte payload with
// Range support and can be scripted to cut the connection mid-body, which
// exercises download resumption:
//
//	blob := testutil.NewBlobServer(t, payload)
//	blob.DropAfter(2500)
//	// first request breaks after 2500 bytes; the ranged retry succeeds
//
// APIServer answers scripted JSON routes and records everything it receives:
//
//	api := testutil.NewAPIServer(t)
//	api.Handle("GET /widgets/1", 200, `{"id":"1"}`)
//	api.Handle("DELETE /widgets/1", 204, "")
//
// Both clean up through t.Cleanup. For TLS certificate generation, use
// security/tlstest, which lives in the root module so every package can
// import it.
package testutil
