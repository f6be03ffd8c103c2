// Package memo turns functions into cached functions backed by a
// bounded cache (package cache).
//
// Entry points are chosen by the function's shape:
//
//   - Func / Func2: synchronous, infallible results.
//   - FuncErr: synchronous results with an error; errors are never cached.
//   - Async: results delivered through a Future; rejections are never cached.
//
// Every wrapper computes key := KeyFunc(args...), returns the cached value on
// a hit and otherwise calls the function and stores its result. Eviction and
// expiry are entirely the cache's business.
//
//	store, _ := memo.NewStore[int](cache.WithMaxSize(3), cache.WithMaxAge(time.Minute))
//	double := memo.Func(store, func(x int) int { return x * 2 })
//	double(2) // computes
//	double(2) // cache hit
//
// The function runs at most once per key while the entry stays valid.
// Concurrent misses for the same key are not coalesced unless
// WithSingleflight is given.
package memo
