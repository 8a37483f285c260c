package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/veldtcloud/veldt-sdk-go/resilience"
)

const (
	defaultPoolWorkers = 4
	defaultLimiterWait = 30 * time.Second
)

// PoolConfig configures a Pool dispatcher.
type PoolConfig struct {
	// Workers is the number of worker goroutines. Defaults to 4.
	Workers int
	// QueueSize bounds the admission queue. Defaults to 64.
	QueueSize int
	// MaxConcurrent caps in-flight calls below the worker count. Zero
	// disables the limiter and the worker count alone bounds concurrency.
	MaxConcurrent int
	// MaxWait is how long a worker waits for limiter capacity before the
	// call is rejected. Defaults to 30s when MaxConcurrent is set.
	MaxWait time.Duration
}

// ApplyDefaults fills in zero values.
func (c *PoolConfig) ApplyDefaults() {
	if c.Workers <= 0 {
		c.Workers = defaultPoolWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.MaxConcurrent > 0 && c.MaxWait <= 0 {
		c.MaxWait = defaultLimiterWait
	}
}

// Pool dispatches calls onto a fixed set of worker goroutines. When
// MaxConcurrent is set, a bulkhead additionally bounds in-flight calls and
// rejects work that cannot get capacity in time.
type Pool struct {
	tasks   chan task
	limiter *resilience.Bulkhead
	workers sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool creates and starts a Pool.
func NewPool(cfg PoolConfig) *Pool {
	cfg.ApplyDefaults()
	p := &Pool{
		tasks: make(chan task, cfg.QueueSize),
	}
	if cfg.MaxConcurrent > 0 {
		p.limiter = resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "dispatch-pool",
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.MaxWait,
		})
	}
	for i := 0; i < cfg.Workers; i++ {
		p.workers.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for t := range p.tasks {
		if p.limiter == nil {
			t.run()
			continue
		}
		err := p.limiter.Execute(t.ctx, func() error {
			t.run()
			return nil
		})
		if err != nil {
			t.reject(err)
		}
	}
}

// Dispatch implements Dispatcher.
func (p *Pool) Dispatch(ctx context.Context, run func(), reject func(error)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrDispatcherClosed
	}
	select {
	case p.tasks <- task{ctx: ctx, run: run, reject: reject}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sleep implements Dispatcher.
func (p *Pool) Sleep(ctx context.Context, d time.Duration) error {
	return sleepContext(ctx, d)
}

// InFlight returns the number of calls currently holding limiter capacity.
// It reports zero when no limiter is configured.
func (p *Pool) InFlight() int {
	if p.limiter == nil {
		return 0
	}
	return p.limiter.InUse()
}

// Close stops admission, lets the workers drain the queue, and waits for
// them to exit.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.workers.Wait()
		return nil
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.workers.Wait()
	return nil
}
