package memo

import (
	"io"
	"log/slog"
)

// KeyFunc derives the cache key from a call's arguments, in call order.
type KeyFunc func(args ...any) string

// Option configures a memoized function.
type Option func(*options)

type options struct {
	keyFn        KeyFunc
	logger       *slog.Logger
	singleflight bool
}

func defaultOptions() *options {
	return &options{
		keyFn:  DefaultKey,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithKeyFunc replaces DefaultKey. Nil keeps the default.
func WithKeyFunc(fn KeyFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.keyFn = fn
		}
	}
}

// WithLogger sets the logger used for hit/miss tracing at debug level.
// Nil keeps the default, which discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSingleflight coalesces concurrent misses for the same key into one
// call of the wrapped function. Without it, callers that miss before the
// first result is stored each run the function.
//
// Coalescing implies concurrent callers, so the Store must be safe for
// concurrent use (cache.Locked).
func WithSingleflight() Option {
	return func(o *options) {
		o.singleflight = true
	}
}
