package cache

import (
	"sync"
	"time"
)

// Locked serializes every operation on a Cache behind a single mutex.
// Use it when a cache is shared between goroutines, e.g. by memo.Async
// whose continuations run off the caller's goroutine.
//
// Get takes the exclusive lock because a hit may reorder the list.
type Locked[K comparable, V any] struct {
	mu sync.Mutex
	c  *Cache[K, V]
}

// NewLocked constructs a Cache with opts and wraps it.
func NewLocked[K comparable, V any](opts ...Option) (*Locked[K, V], error) {
	c, err := New[K, V](opts...)
	if err != nil {
		return nil, err
	}
	return &Locked[K, V]{c: c}, nil
}

// Lock wraps an existing cache. The caller must stop using c directly.
func Lock[K comparable, V any](c *Cache[K, V]) *Locked[K, V] {
	return &Locked[K, V]{c: c}
}

// Get is Cache.Get under the lock.
func (l *Locked[K, V]) Get(k K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Get(k)
}

// Peek is Cache.Peek under the lock.
func (l *Locked[K, V]) Peek(k K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Peek(k)
}

// Set is Cache.Set under the lock.
func (l *Locked[K, V]) Set(k K, v V) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c.Set(k, v)
}

// Delete is Cache.Delete under the lock.
func (l *Locked[K, V]) Delete(k K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Delete(k)
}

// Clear is Cache.Clear under the lock.
func (l *Locked[K, V]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c.Clear()
}

// Len is Cache.Len under the lock.
func (l *Locked[K, V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Len()
}

// Keys returns a snapshot of resident keys, most recent first.
func (l *Locked[K, V]) Keys() []K {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Keys()
}

// MaxSize returns the configured entry bound. It is fixed at construction
// and needs no lock.
func (l *Locked[K, V]) MaxSize() int { return l.c.MaxSize() }

// MaxAge returns the configured age bound; zero means entries never expire.
func (l *Locked[K, V]) MaxAge() time.Duration { return l.c.MaxAge() }

// SetEvictCallback installs fn on the wrapped cache. fn runs with the lock
// held and must not call back into l.
func (l *Locked[K, V]) SetEvictCallback(fn func(k K, v V, reason EvictReason)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c.SetEvictCallback(fn)
}
