package dispatch

import (
	"context"
	stderrors "errors"
	"time"
)

// ErrDispatcherClosed is returned when work is submitted after Close.
var ErrDispatcherClosed = stderrors.New("dispatch: dispatcher is closed")

// Dispatcher schedules blocking calls away from the caller. Implementations
// must invoke exactly one of run or reject for every accepted dispatch.
type Dispatcher interface {
	// Dispatch schedules run. If the dispatcher later decides it cannot run
	// the call (admission limit, shutdown race), it calls reject with the
	// reason. A non-nil return means the call was never accepted.
	Dispatch(ctx context.Context, run func(), reject func(error)) error

	// Sleep waits for d without occupying a dispatch slot. It returns early
	// with the context error when ctx is done.
	Sleep(ctx context.Context, d time.Duration) error

	// Close stops admission and waits for in-flight calls to finish.
	Close() error
}

// Submit runs fn on d and returns a future for its result. Every failure
// path, including dispatch refusal, resolves the future, so awaiting is
// always safe. discard receives fn's successful result when the awaiter has
// already given up.
func Submit[T any](ctx context.Context, d Dispatcher, fn func() (T, error), discard func(T)) *Future[T] {
	f := NewFuture[T](discard)
	err := d.Dispatch(ctx,
		func() {
			v, ferr := fn()
			f.complete(v, ferr)
		},
		func(cause error) {
			var zero T
			f.complete(zero, cause)
		},
	)
	if err != nil {
		var zero T
		f.complete(zero, err)
	}
	return f
}

// sleepContext is the shared Sleep implementation.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
