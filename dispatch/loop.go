package dispatch

import (
	"context"
	"sync"
	"time"
)

const defaultQueueSize = 64

// LoopConfig configures a Loop dispatcher.
type LoopConfig struct {
	// QueueSize bounds the admission queue. Defaults to 64.
	QueueSize int
}

// ApplyDefaults fills in zero values.
func (c *LoopConfig) ApplyDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
}

// Loop is a single-queue dispatcher. One goroutine drains the admission
// queue and offloads every call onto its own goroutine, so the queue is
// never blocked by a slow exchange and submission order is preserved up to
// the offload point.
type Loop struct {
	tasks chan task

	mu     sync.RWMutex
	closed bool

	offloads sync.WaitGroup
	drained  chan struct{}
}

type task struct {
	ctx    context.Context
	run    func()
	reject func(error)
}

// NewLoop creates and starts a Loop.
func NewLoop(cfg LoopConfig) *Loop {
	cfg.ApplyDefaults()
	l := &Loop{
		tasks:   make(chan task, cfg.QueueSize),
		drained: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.drained)
	for t := range l.tasks {
		l.offloads.Add(1)
		go func(t task) {
			defer l.offloads.Done()
			t.run()
		}(t)
	}
}

// Dispatch implements Dispatcher.
func (l *Loop) Dispatch(ctx context.Context, run func(), reject func(error)) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrDispatcherClosed
	}
	select {
	case l.tasks <- task{ctx: ctx, run: run, reject: reject}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sleep implements Dispatcher.
func (l *Loop) Sleep(ctx context.Context, d time.Duration) error {
	return sleepContext(ctx, d)
}

// Close stops admission, drains the queue, and waits for offloaded calls.
func (l *Loop) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.drained
		l.offloads.Wait()
		return nil
	}
	l.closed = true
	close(l.tasks)
	l.mu.Unlock()

	<-l.drained
	l.offloads.Wait()
	return nil
}
