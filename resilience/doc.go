// Package resilience provides protection primitives wrapped around outbound
// service traffic.
//
// Retry re-runs an operation with exponential backoff while its error is
// still worth another attempt. Bulkhead bounds the number of calls in flight
// and rejects work that cannot get a slot in time. RateLimiter paces call
// admission with a token bucket.
//
// The primitives are independent and compose by nesting: the transport
// accepts a RateLimiter to pace exchanges, and the dispatch pool guards its
// workers with a Bulkhead.
package resilience
