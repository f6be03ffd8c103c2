// Package clock provides the time source used for entry aging and recency.
//
// A Clock is always passed explicitly at construction time. System reads the
// wall clock; Mock is advanced by hand and is meant for deterministic tests.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock provides time in UnixNano.
// Implementations must be monotonically non-decreasing for aging to be correct.
type Clock interface{ NowUnixNano() int64 }

// System reads time.Now.
type System struct{}

// NowUnixNano implements Clock.
func (System) NowUnixNano() int64 { return time.Now().UnixNano() }

// Mock is a manually advanced Clock. Safe for concurrent use.
type Mock struct {
	t atomic.Int64
}

// NewMock returns a Mock positioned at start (UnixNano).
func NewMock(start int64) *Mock {
	m := &Mock{}
	m.t.Store(start)
	return m
}

// NowUnixNano implements Clock.
func (m *Mock) NowUnixNano() int64 { return m.t.Load() }

// Advance moves the clock forward by d. Negative durations are ignored
// so the clock never goes backwards.
func (m *Mock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.t.Add(int64(d))
}

// Set positions the clock at t (UnixNano) if t is not before the current reading.
func (m *Mock) Set(t int64) {
	for {
		cur := m.t.Load()
		if t < cur || m.t.CompareAndSwap(cur, t) {
			return
		}
	}
}

var (
	_ Clock = System{}
	_ Clock = (*Mock)(nil)
)
