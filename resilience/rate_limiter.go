package resilience

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures a RateLimiter.
type RateLimiterConfig struct {
	// Name identifies the limiter.
	Name string
	// Rate is the sustained number of calls admitted per second.
	Rate float64
	// Burst is how many calls may be admitted back to back after idle
	// time. Defaults to the integer rate.
	Burst int
}

// RateLimiter paces call admission with a token bucket. Each call consumes
// one token; tokens refill at Rate per second up to Burst.
type RateLimiter struct {
	name   string
	bucket *rate.Limiter
}

// NewRateLimiter creates a RateLimiter from cfg. Rate defaults to 10 calls
// per second.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.Rate)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}
	return &RateLimiter{
		name:   cfg.Name,
		bucket: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
	}
}

// Name returns the identifier the limiter was created with.
func (rl *RateLimiter) Name() string {
	return rl.name
}

// Allow reports whether a call may proceed right now, consuming a token
// when it may.
func (rl *RateLimiter) Allow() bool {
	return rl.bucket.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.bucket.Wait(ctx)
}

// Tokens returns the number of tokens available right now.
func (rl *RateLimiter) Tokens() float64 {
	return rl.bucket.Tokens()
}

// Rate returns the sustained calls per second.
func (rl *RateLimiter) Rate() float64 {
	return float64(rl.bucket.Limit())
}

// Burst returns the burst capacity.
func (rl *RateLimiter) Burst() int {
	return rl.bucket.Burst()
}
