package cache

import (
	"io"
	"log/slog"
	"time"

	"github.com/IvanBrykalov/lrucache/clock"
)

// DefaultMaxSize is the entry bound used when WithMaxSize is not given.
const DefaultMaxSize = 100

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCapacity: the least-recently-used entry made room for a new key.
	EvictCapacity EvictReason = iota
	// EvictExpired: the entry outlived MaxAge and was dropped on read.
	EvictExpired
)

// String returns a stable lower-case name, suitable as a metric label.
func (r EvictReason) String() string {
	switch r {
	case EvictExpired:
		return "expired"
	default:
		return "capacity"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	maxSize    int
	maxAge     time.Duration
	clock      clock.Clock
	touchOnGet bool
	metrics    Metrics
	logger     *slog.Logger
}

func defaultOptions() *options {
	return &options{
		maxSize:    DefaultMaxSize,
		clock:      clock.System{},
		touchOnGet: true,
		metrics:    NoopMetrics{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithMaxSize sets the maximum number of resident entries.
// Must be > 0.
// Default: 100.
func WithMaxSize(n int) Option {
	return func(o *options) {
		o.maxSize = n
	}
}

// WithMaxAge sets how long an entry stays valid after it was last inserted
// (or touched, see WithTouchOnGet). Zero disables age expiry; negative is invalid.
// Default: 0 (entries never expire by age).
func WithMaxAge(d time.Duration) Option {
	return func(o *options) {
		o.maxAge = d
	}
}

// WithClock overrides the time source, mainly for tests. Nil keeps the default.
// Default: clock.System.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithTouchOnGet controls whether a hit refreshes the entry's recency and timestamp.
// Default: true.
func WithTouchOnGet(touch bool) Option {
	return func(o *options) {
		o.touchOnGet = touch
	}
}

// WithMetrics plugs an observability backend (e.g. metrics/prom). Nil keeps the default.
// Default: NoopMetrics.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithLogger sets the logger used for debug tracing. Nil keeps the default.
// Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
