// Package cache provides a generic, bounded, in-memory cache with
// least-recently-used eviction and optional lazy age expiry.
//
// Design
//
//   - Storage: a map[K]*node for lookups and an intrusive MRU↔LRU doubly
//     linked list for ordering. Get/Set/Delete are O(1) expected.
//
//   - Capacity: at most MaxSize entries are resident. Inserting a new key
//     into a full cache evicts exactly one entry, the least recent one.
//     Recency is a total order: every Set, and every Get with TouchOnGet,
//     moves the key to the most recent end.
//
//   - Age expiry: with MaxAge set, an entry whose age (now minus its last
//     insert/touch time) exceeds MaxAge is dropped when it is read.
//     There is no background sweep, so an expired entry that is never read
//     still occupies a slot until LRU eviction reaches it.
//
//   - Time: the Clock is injected (WithClock). Tests pass a clock.Mock.
//
//   - Metrics: WithMetrics receives Hit/Miss/Evict/Size signals.
//     NoopMetrics is the default; metrics/prom exports them to Prometheus.
//
//   - Callbacks: SetEvictCallback(fn) is called for every eviction with
//     reason EvictCapacity or EvictExpired.
//
// Basic usage
//
//	c, err := cache.New[string, int](cache.WithMaxSize(3))
//	if err != nil {
//	    return err
//	}
//	c.Set("a", 1)
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.Delete("a")
//
// With age expiry and a mock clock
//
//	clk := clock.NewMock(0)
//	c := cache.MustNew[string, int](
//	    cache.WithMaxSize(3),
//	    cache.WithMaxAge(100*time.Millisecond),
//	    cache.WithClock(clk),
//	)
//	c.Set("a", 1)
//	clk.Advance(101 * time.Millisecond)
//	_, ok := c.Get("a") // ok == false, entry removed
//
// From a YAML file
//
//	cfg, err := cache.LoadConfig(f) // max_size: 500, max_age: 30s
//	c, err := cache.NewFromConfig[string, []byte](cfg)
//
// Thread-safety
//
// Cache does no locking and is not safe for concurrent use. Serialize access
// externally, keep one cache per goroutine, or use Locked (NewLocked / Lock),
// which guards every call with a mutex.
package cache
