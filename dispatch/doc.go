// Package dispatch runs blocking calls off the caller's critical path and
// hands the result back through a Future.
//
// Two dispatchers are provided. Loop accepts work through a single admission
// queue and offloads each call onto its own goroutine, so submitters are
// serialized but never wait on each other's network latency. Pool runs work
// on a fixed set of workers with an optional admission limiter bounding
// in-flight calls.
//
// Futures carry a discard hook: when an awaiter gives up before the call
// finishes, the eventual result is passed to the hook instead of being
// dropped, so resources such as open response bodies are still released.
//
//	pool := dispatch.NewPool(dispatch.PoolConfig{Workers: 8})
//	defer pool.Close()
//
//	fut := dispatch.Submit(ctx, pool, fetch, func(r *Result) { r.Release() })
//	res, err := fut.Await(ctx)
package dispatch
