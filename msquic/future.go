package msquic

import (
	"context"
	"sync"
)

// Future is the result of an operation the native library completes
// asynchronously. It settles exactly once.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
		settled = true
	})
	return settled
}

func (f *Future[T]) resolve(v T) bool {
	return f.settle(v, nil)
}

func (f *Future[T]) fail(err error) bool {
	var zero T
	return f.settle(zero, err)
}

// result returns the outcome without blocking. ok is false while pending.
func (f *Future[T]) result() (v T, err error, ok bool) {
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		return v, nil, false
	}
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx is done. Cancelling ctx only
// abandons the wait; the underlying operation keeps running.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
