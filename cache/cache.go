package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IvanBrykalov/lrucache/clock"
)

// Cache is a bounded key/value store with least-recently-used eviction and
// optional lazy age expiry.
//
// A Cache is not safe for concurrent use. Serialize access externally or
// wrap it with NewLocked.
type Cache[K comparable, V any] struct {
	m    map[K]*node[K, V]
	head *node[K, V] // MRU
	tail *node[K, V] // LRU
	len  int

	maxSize    int
	maxAge     int64 // nanoseconds; 0 = no age expiry
	touchOnGet bool
	clock      clock.Clock
	metrics    Metrics
	log        *slog.Logger

	onEvict func(k K, v V, reason EvictReason)
}

// New constructs a cache. Defaults:
//   - MaxSize    -> 100
//   - MaxAge     -> unset (no age expiry)
//   - Clock      -> clock.System
//   - TouchOnGet -> true
//
// It returns an error wrapping ErrInvalidConfiguration if MaxSize <= 0 or MaxAge < 0.
func New[K comparable, V any](opts ...Option) (*Cache[K, V], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.maxSize <= 0 {
		return nil, fmt.Errorf("%w: max size must be > 0, got %d", ErrInvalidConfiguration, o.maxSize)
	}
	if o.maxAge < 0 {
		return nil, fmt.Errorf("%w: max age must not be negative, got %s", ErrInvalidConfiguration, o.maxAge)
	}

	return &Cache[K, V]{
		m:          make(map[K]*node[K, V], o.maxSize),
		maxSize:    o.maxSize,
		maxAge:     int64(o.maxAge),
		touchOnGet: o.touchOnGet,
		clock:      o.clock,
		metrics:    o.metrics,
		log:        o.logger,
	}, nil
}

// MustNew is like New but panics on invalid configuration.
func MustNew[K comparable, V any](opts ...Option) *Cache[K, V] {
	c, err := New[K, V](opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// SetEvictCallback sets a function called for every capacity eviction and
// every lazy expiry. Explicit Delete and Clear do not trigger it.
func (c *Cache[K, V]) SetEvictCallback(fn func(k K, v V, reason EvictReason)) {
	c.onEvict = fn
}

// Get returns the value for k and a presence flag.
// An entry older than MaxAge is removed and reported as a miss.
// On hit, with TouchOnGet, the entry becomes the most recent and its timestamp is refreshed.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	n, ok := c.lookup(k)
	if !ok {
		var zero V
		return zero, false
	}
	if c.touchOnGet {
		n.ts = c.clock.NowUnixNano()
		c.moveToFront(n)
	}
	return n.val, true
}

// Peek is like Get but never changes recency order or timestamps.
// Lazy expiry still applies.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	n, ok := c.lookup(k)
	if !ok {
		var zero V
		return zero, false
	}
	return n.val, true
}

// Set inserts or refreshes k→v as the most recent entry.
// Inserting a new key into a full cache first evicts the least recent entry.
func (c *Cache[K, V]) Set(k K, v V) {
	now := c.clock.NowUnixNano()

	if n, ok := c.m[k]; ok {
		// Refresh: same effect on order as remove + reinsert.
		n.val = v
		n.ts = now
		c.moveToFront(n)
		c.metrics.Size(c.len)
		return
	}

	for c.len >= c.maxSize {
		if c.tail == nil {
			break
		}
		c.evictNode(c.tail, EvictCapacity)
	}

	n := &node[K, V]{key: k, val: v, ts: now}
	c.m[k] = n
	c.insertFront(n)
	c.metrics.Size(c.len)
}

// Delete removes k if present and reports whether it was.
func (c *Cache[K, V]) Delete(k K) bool {
	n, ok := c.m[k]
	if !ok {
		return false
	}
	c.removeNode(n)
	delete(c.m, k)
	c.metrics.Size(c.len)
	return true
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	// Unlink nodes so retained references do not keep the whole chain alive.
	for n := c.head; n != nil; {
		next := n.next
		n.prev, n.next = nil, nil
		n = next
	}
	clear(c.m)
	c.head, c.tail, c.len = nil, nil, 0
	c.metrics.Size(0)
}

// Len returns the number of resident entries, including expired entries
// that have not been read yet.
func (c *Cache[K, V]) Len() int { return c.len }

// Keys returns resident keys ordered from most to least recent.
func (c *Cache[K, V]) Keys() []K {
	keys := make([]K, 0, c.len)
	for n := c.head; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// MaxSize returns the configured entry bound.
func (c *Cache[K, V]) MaxSize() int { return c.maxSize }

// MaxAge returns the configured age bound; zero means entries never expire.
func (c *Cache[K, V]) MaxAge() time.Duration { return time.Duration(c.maxAge) }

// lookup resolves k, applying lazy expiry and recording hit/miss.
func (c *Cache[K, V]) lookup(k K) (*node[K, V], bool) {
	n, ok := c.m[k]
	if !ok {
		c.metrics.Miss()
		return nil, false
	}
	if c.expired(n) {
		c.evictNode(n, EvictExpired)
		c.metrics.Size(c.len)
		c.metrics.Miss()
		return nil, false
	}
	c.metrics.Hit()
	return n, true
}

func (c *Cache[K, V]) expired(n *node[K, V]) bool {
	if c.maxAge == 0 {
		return false
	}
	return c.clock.NowUnixNano()-n.ts > c.maxAge
}

// evictNode removes the node, updates metrics, and calls the eviction callback.
func (c *Cache[K, V]) evictNode(n *node[K, V], reason EvictReason) {
	c.removeNode(n)
	delete(c.m, n.key)
	c.metrics.Evict(reason)
	if c.log.Enabled(context.Background(), slog.LevelDebug) {
		c.log.Debug("cache: evicted entry",
			slog.Any("key", n.key),
			slog.String("reason", reason.String()),
			slog.Int("len", c.len),
		)
	}
	if cb := c.onEvict; cb != nil {
		cb(n.key, n.val, reason)
	}
}
