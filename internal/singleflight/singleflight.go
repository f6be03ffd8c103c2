// Package singleflight coalesces concurrent calls for the same key.
package singleflight

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// Group coalesces concurrent function calls for the same key K so that
// the supplied fn is executed at most once per flight. Other concurrent
// callers wait for the shared result.
//
// Concurrency notes:
//   - The first caller for a given key becomes the leader and runs fn.
//   - Followers wait on c.done. Publishing (val, err) happens-before
//     close(c.done), so reads after <-done observe the final values.
//   - Cancelling ctx in a follower unblocks only that follower; it does
//     NOT cancel the leader's fn.
//   - Once the leader returns, the key is forgotten: the next call starts
//     a new flight.
//   - If fn panics, the leader re-panics with the original value and every
//     follower panics with a *PanicError carrying it.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done  chan struct{} // closed when val/err are published
	val   V
	err   error
	panic *PanicError
	dups  int
}

// PanicError is what followers panic with when the leader's fn panicked.
type PanicError struct {
	Value any    // value passed to panic in the leader
	Stack []byte // leader's stack at the time of the panic
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("singleflight: fn panicked: %v\n\n%s", p.Value, p.Stack)
}

// Unwrap exposes the panic value when it was an error.
func (p *PanicError) Unwrap() error {
	err, _ := p.Value.(error)
	return err
}

// Do runs fn once for the given key. Concurrent calls with the same key
// wait for the shared result; shared reports whether the result was
// given to more than one caller. If ctx is cancelled in a follower, that
// follower returns ctx.Err() while the leader continues to run fn.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (v V, err error, shared bool) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		c.dups++
		g.mu.Unlock()

		select {
		case <-c.done:
			if c.panic != nil {
				panic(c.panic)
			}
			return c.val, c.err, true
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err(), true
		}
	}

	// We are the leader for this key.
	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	// Always publish and forget, even if fn panics, so followers never hang.
	defer func() {
		r := recover()
		if r != nil {
			c.panic = &PanicError{Value: r, Stack: debug.Stack()}
		}
		g.mu.Lock()
		delete(g.m, key)
		shared = c.dups > 0
		g.mu.Unlock()
		close(c.done)
		if r != nil {
			panic(r)
		}
	}()

	c.val, c.err = fn()
	return c.val, c.err, false
}

// InFlight reports whether a call for key is currently running.
func (g *Group[K, V]) InFlight(key K) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.m[key]
	return ok
}
