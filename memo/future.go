package memo

import (
	"context"
	"sync"
)

// Future is the Go shape of a value delivered asynchronously: it settles
// exactly once, either resolved with a value or rejected with an error.
//
// Hooks registered internally (by Async) run on the settling goroutine
// before Done is closed, so a waiter that wakes up observes their effects.
type Future[V any] struct {
	done chan struct{}

	mu      sync.Mutex
	settled bool
	val     V
	err     error
	hooks   []func(V, error)
}

// NewFuture returns an unsettled future. Settle it with Resolve or Reject.
func NewFuture[V any]() *Future[V] {
	return &Future[V]{done: make(chan struct{})}
}

// Resolved returns a future already resolved with v.
func Resolved[V any](v V) *Future[V] {
	f := NewFuture[V]()
	f.settle(v, nil)
	return f
}

// Rejected returns a future already rejected with err.
func Rejected[V any](err error) *Future[V] {
	f := NewFuture[V]()
	var zero V
	f.settle(zero, err)
	return f
}

// Go runs fn on a new goroutine and returns a future for its result.
// ctx is handed to fn untouched; cancellation is up to fn.
func Go[V any](ctx context.Context, fn func(context.Context) (V, error)) *Future[V] {
	f := NewFuture[V]()
	go func() {
		v, err := fn(ctx)
		f.settle(v, err)
	}()
	return f
}

// Resolve settles the future with v. It reports false if already settled.
func (f *Future[V]) Resolve(v V) bool { return f.settle(v, nil) }

// Reject settles the future with err. It reports false if already settled.
func (f *Future[V]) Reject(err error) bool {
	var zero V
	return f.settle(zero, err)
}

// Done is closed once the future is settled.
func (f *Future[V]) Done() <-chan struct{} { return f.done }

// Await blocks until the future settles or ctx is done.
// Giving up on ctx does not affect the future itself.
func (f *Future[V]) Await(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Result returns the outcome without blocking; ok is false while unsettled.
func (f *Future[V]) Result() (v V, err error, ok bool) {
	select {
	case <-f.done:
		return f.val, f.err, true
	default:
		var zero V
		return zero, nil, false
	}
}

func (f *Future[V]) settle(v V, err error) bool {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}
	f.settled = true
	f.val, f.err = v, err
	hooks := f.hooks
	f.hooks = nil
	f.mu.Unlock()

	for _, h := range hooks {
		h(v, err)
	}
	close(f.done)
	return true
}

// whenSettled registers h to run on settlement. If the future has already
// settled, h runs immediately on the calling goroutine.
func (f *Future[V]) whenSettled(h func(V, error)) {
	f.mu.Lock()
	if !f.settled {
		f.hooks = append(f.hooks, h)
		f.mu.Unlock()
		return
	}
	v, err := f.val, f.err
	f.mu.Unlock()
	h(v, err)
}
