package memo

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNilFuture is the rejection of a call whose async function returned nil.
var ErrNilFuture = errors.New("memo: async function returned a nil future")

// ErrPanicked rejects the shared future of a single-flight Async call whose
// function panicked before returning a future.
var ErrPanicked = errors.New("memo: async function panicked")

// Async memoizes a function that returns a Future.
//
// On a hit it returns an already-resolved future without calling fn.
// On a miss it returns fn's future unmodified and stores the value once
// the future resolves; rejections are never stored. The store happens on
// the settling goroutine before the future's Done is closed, so s must be
// safe for concurrent use (cache.Locked or NewStore).
//
// With WithSingleflight, callers that miss while a call for the same key is
// pending share one future instead of calling fn again.
func Async[A, V any](s Store[V], fn func(context.Context, A) *Future[V], opts ...Option) func(context.Context, A) *Future[V] {
	w := newWrapper(s, opts)

	var (
		mu       sync.Mutex
		inflight = map[string]*Future[V]{}
	)

	return func(ctx context.Context, a A) *Future[V] {
		key := w.keyFn(a)
		if v, ok := s.Get(key); ok {
			w.trace(ctx, "memo: hit", key)
			return Resolved(v)
		}
		w.trace(ctx, "memo: miss", key)

		if !w.sf {
			f := fn(ctx, a)
			if f == nil {
				return Rejected[V](ErrNilFuture)
			}
			f.whenSettled(func(v V, err error) {
				if err == nil {
					s.Set(key, v)
				}
			})
			return f
		}

		mu.Lock()
		if p, ok := inflight[key]; ok {
			mu.Unlock()
			w.trace(ctx, "memo: joined in-flight call", key)
			return p
		}
		p := NewFuture[V]()
		inflight[key] = p
		mu.Unlock()

		// p stands for the call so fn runs outside the lock.
		settle := func(v V, err error) {
			if err == nil {
				s.Set(key, v)
			}
			mu.Lock()
			if inflight[key] == p {
				delete(inflight, key)
			}
			mu.Unlock()
			p.settle(v, err)
		}

		// A panicking fn must not leave joined callers on a future that never settles.
		defer func() {
			if r := recover(); r != nil {
				var zero V
				settle(zero, fmt.Errorf("%w: %v", ErrPanicked, r))
				panic(r)
			}
		}()

		f := fn(ctx, a)
		if f == nil {
			var zero V
			settle(zero, ErrNilFuture)
			return p
		}
		f.whenSettled(settle)
		return p
	}
}
