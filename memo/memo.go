package memo

import (
	"context"
	"log/slog"

	"github.com/IvanBrykalov/lrucache/cache"
	"github.com/IvanBrykalov/lrucache/internal/singleflight"
)

// Store is the cache a memoized function reads and populates.
// *cache.Cache[string, V] and *cache.Locked[string, V] satisfy it.
type Store[V any] interface {
	Get(key string) (V, bool)
	Set(key string, v V)
}

var (
	_ Store[int] = (*cache.Cache[string, int])(nil)
	_ Store[int] = (*cache.Locked[string, int])(nil)
)

// NewStore builds a fresh, concurrency-safe store from cache options.
func NewStore[V any](opts ...cache.Option) (*cache.Locked[string, V], error) {
	return cache.NewLocked[string, V](opts...)
}

// NewStoreFromConfig is NewStore for a cache.Config.
func NewStoreFromConfig[V any](cfg cache.Config, extra ...cache.Option) (*cache.Locked[string, V], error) {
	return cache.NewLocked[string, V](append(cfg.Options(), extra...)...)
}

// Func memoizes a one-argument function. On a hit fn is not called.
func Func[A, V any](s Store[V], fn func(A) V, opts ...Option) func(A) V {
	w := newWrapper(s, opts)
	return func(a A) V {
		v, _ := w.call(context.Background(), w.keyFn(a), func() (V, error) {
			return fn(a), nil
		})
		return v
	}
}

// Func2 memoizes a two-argument function. The key covers both arguments.
func Func2[A, B, V any](s Store[V], fn func(A, B) V, opts ...Option) func(A, B) V {
	w := newWrapper(s, opts)
	return func(a A, b B) V {
		v, _ := w.call(context.Background(), w.keyFn(a, b), func() (V, error) {
			return fn(a, b), nil
		})
		return v
	}
}

// FuncErr memoizes a fallible function. Errors are returned unchanged and
// never cached, so a failed call does not poison later calls for the key.
// ctx is passed to fn and is not part of the key.
func FuncErr[A, V any](s Store[V], fn func(context.Context, A) (V, error), opts ...Option) func(context.Context, A) (V, error) {
	w := newWrapper(s, opts)
	return func(ctx context.Context, a A) (V, error) {
		return w.call(ctx, w.keyFn(a), func() (V, error) {
			return fn(ctx, a)
		})
	}
}

// wrapper is the shared forwarding layer behind every memoized variant.
type wrapper[V any] struct {
	store Store[V]
	keyFn KeyFunc
	log   *slog.Logger
	sf    bool
	group singleflight.Group[string, V]
}

func newWrapper[V any](s Store[V], opts []Option) *wrapper[V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &wrapper[V]{
		store: s,
		keyFn: o.keyFn,
		log:   o.logger,
		sf:    o.singleflight,
	}
}

func (w *wrapper[V]) call(ctx context.Context, key string, compute func() (V, error)) (V, error) {
	if v, ok := w.store.Get(key); ok {
		w.trace(ctx, "memo: hit", key)
		return v, nil
	}
	w.trace(ctx, "memo: miss", key)

	if !w.sf {
		return w.computeAndStore(key, compute)
	}

	v, err, shared := w.group.Do(ctx, key, func() (V, error) {
		// Another flight may have stored the value since our miss.
		if v, ok := w.store.Get(key); ok {
			return v, nil
		}
		return w.computeAndStore(key, compute)
	})
	if shared {
		w.trace(ctx, "memo: joined in-flight call", key)
	}
	return v, err
}

func (w *wrapper[V]) computeAndStore(key string, compute func() (V, error)) (V, error) {
	v, err := compute()
	if err != nil {
		return v, err
	}
	w.store.Set(key, v)
	return v, nil
}

func (w *wrapper[V]) trace(ctx context.Context, msg, key string) {
	if w.log.Enabled(ctx, slog.LevelDebug) {
		w.log.DebugContext(ctx, msg, slog.String("key", key))
	}
}
