package dispatch

import (
	"context"
	"sync"
)

type futureState int

const (
	statePending futureState = iota
	stateResolved
	stateAbandoned
)

// Future is the pending result of a dispatched call. It is resolved exactly
// once and is meant for a single awaiter.
type Future[T any] struct {
	done    chan struct{}
	discard func(T)

	mu    sync.Mutex
	state futureState
	value T
	err   error
}

// NewFuture creates an unresolved future. discard receives the successful
// result if it arrives after the awaiter has given up; it may be nil when the
// result holds no resources.
func NewFuture[T any](discard func(T)) *Future[T] {
	return &Future[T]{
		done:    make(chan struct{}),
		discard: discard,
	}
}

// complete resolves the future. A result arriving after abandonment goes to
// the discard hook so it is released rather than leaked.
func (f *Future[T]) complete(v T, err error) {
	f.mu.Lock()
	if f.state == statePending {
		f.value, f.err = v, err
		f.state = stateResolved
		close(f.done)
		f.mu.Unlock()
		return
	}
	abandoned := f.state == stateAbandoned
	f.mu.Unlock()

	if abandoned && err == nil && f.discard != nil {
		f.discard(v)
	}
}

// Await blocks until the result arrives or ctx is done. Giving up abandons
// the future: the in-flight call keeps running, and its eventual result is
// handed to the discard hook.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		f.abandon(ctx.Err())
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

func (f *Future[T]) abandon(cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// A result that won the race is kept; Await returns it.
	if f.state != statePending {
		return
	}
	f.state = stateAbandoned
	f.err = cause
	close(f.done)
}

// Done returns a channel closed when the future is resolved or abandoned.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
