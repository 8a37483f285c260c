package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Bulkhead admission errors.
var (
	// ErrBulkheadFull is returned when no slot is free and the bulkhead
	// does not wait.
	ErrBulkheadFull = errors.New("bulkhead full")
	// ErrBulkheadTimeout is returned when no slot frees up within MaxWait.
	ErrBulkheadTimeout = errors.New("bulkhead wait timed out")
)

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	// Name identifies the bulkhead in errors.
	Name string
	// MaxConcurrent is the number of calls allowed in flight at once.
	MaxConcurrent int
	// MaxWait is how long Execute waits for a slot before giving up.
	// Zero rejects immediately when full.
	MaxWait time.Duration
}

// Bulkhead bounds the number of calls running concurrently. Work beyond
// the limit waits up to MaxWait for a slot or is rejected, so a stalled
// dependency cannot absorb every caller.
type Bulkhead struct {
	name    string
	maxWait time.Duration
	slots   chan struct{}
}

// NewBulkhead creates a Bulkhead from cfg. MaxConcurrent defaults to 10.
func NewBulkhead(cfg BulkheadConfig) *Bulkhead {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	return &Bulkhead{
		name:    cfg.Name,
		maxWait: cfg.MaxWait,
		slots:   make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Execute runs fn inside a slot, waiting up to MaxWait for one to free.
// It returns an error wrapping ErrBulkheadFull or ErrBulkheadTimeout when
// no slot could be had, or ctx's error if the caller gave up first.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer func() { <-b.slots }()
	return fn()
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	default:
	}
	if b.maxWait <= 0 {
		return fmt.Errorf("bulkhead %q: %w", b.name, ErrBulkheadFull)
	}

	timer := time.NewTimer(b.maxWait)
	defer timer.Stop()
	select {
	case b.slots <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("bulkhead %q: %w", b.name, ErrBulkheadTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InUse returns the number of slots currently held.
func (b *Bulkhead) InUse() int {
	return len(b.slots)
}

// Available returns the number of free slots.
func (b *Bulkhead) Available() int {
	return cap(b.slots) - len(b.slots)
}
