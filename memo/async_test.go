package memo_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/lrucache/cache"
	"github.com/IvanBrykalov/lrucache/clock"
	"github.com/IvanBrykalov/lrucache/memo"
)

func newLockedStore(t *testing.T) (*cache.Locked[string, int], *clock.Mock) {
	t.Helper()
	clk := clock.NewMock(0)
	s, err := memo.NewStore[int](
		cache.WithMaxSize(3),
		cache.WithMaxAge(100*time.Millisecond),
		cache.WithClock(clk),
	)
	require.NoError(t, err)
	return s, clk
}

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("caches resolved values until max age", func(t *testing.T) {
		t.Parallel()

		store, clk := newLockedStore(t)
		var calls atomic.Int64
		slow := func(ctx context.Context, x int) *memo.Future[int] {
			return memo.Go(ctx, func(context.Context) (int, error) {
				calls.Add(1)
				return x * 2, nil
			})
		}
		cached := memo.Async(store, slow)
		ctx := context.Background()

		v, err := cached(ctx, 2).Await(ctx)
		require.NoError(t, err)
		require.Equal(t, 4, v)
		require.Equal(t, int64(1), calls.Load())

		v, err = cached(ctx, 2).Await(ctx)
		require.NoError(t, err)
		require.Equal(t, 4, v)
		require.Equal(t, int64(1), calls.Load(), "hit must not call fn")

		clk.Advance(101 * time.Millisecond)
		v, err = cached(ctx, 2).Await(ctx)
		require.NoError(t, err)
		require.Equal(t, 4, v)
		require.Equal(t, int64(2), calls.Load(), "expired entry must call fn again")
	})

	t.Run("returns fn's future unmodified on a miss", func(t *testing.T) {
		t.Parallel()

		store, _ := newLockedStore(t)
		f := memo.NewFuture[int]()
		cached := memo.Async(store, func(context.Context, int) *memo.Future[int] { return f })

		got := cached(context.Background(), 1)
		require.Same(t, f, got)

		_, ok := store.Get(memo.DefaultKey(1))
		require.False(t, ok, "pending value must not be cached")

		f.Resolve(9)
		v, ok := store.Get(memo.DefaultKey(1))
		require.True(t, ok)
		require.Equal(t, 9, v)
	})

	t.Run("does not cache rejections", func(t *testing.T) {
		t.Parallel()

		store, _ := newLockedStore(t)
		boom := errors.New("boom")
		var calls int
		cached := memo.Async(store, func(context.Context, int) *memo.Future[int] {
			calls++
			if calls == 1 {
				return memo.Rejected[int](boom)
			}
			return memo.Resolved(5)
		})
		ctx := context.Background()

		_, err := cached(ctx, 1).Await(ctx)
		require.ErrorIs(t, err, boom)
		require.Equal(t, 0, store.Len())

		v, err := cached(ctx, 1).Await(ctx)
		require.NoError(t, err)
		require.Equal(t, 5, v)
		require.Equal(t, 2, calls)
	})

	t.Run("nil future is rejected", func(t *testing.T) {
		t.Parallel()

		store, _ := newLockedStore(t)
		cached := memo.Async(store, func(context.Context, int) *memo.Future[int] { return nil })

		_, err := cached(context.Background(), 1).Await(context.Background())
		require.ErrorIs(t, err, memo.ErrNilFuture)
	})

	t.Run("singleflight shares the pending future", func(t *testing.T) {
		t.Parallel()

		store, _ := newLockedStore(t)
		var calls atomic.Int64
		release := make(chan struct{})
		cached := memo.Async(store, func(ctx context.Context, x int) *memo.Future[int] {
			calls.Add(1)
			return memo.Go(ctx, func(context.Context) (int, error) {
				<-release
				return x + 1, nil
			})
		}, memo.WithSingleflight())
		ctx := context.Background()

		futures := make([]*memo.Future[int], 10)
		for i := range futures {
			futures[i] = cached(ctx, 41)
		}
		close(release)

		for _, f := range futures {
			v, err := f.Await(ctx)
			require.NoError(t, err)
			require.Equal(t, 42, v)
		}
		require.Equal(t, int64(1), calls.Load())

		// After settling, later calls are plain hits.
		v, err := cached(ctx, 41).Await(ctx)
		require.NoError(t, err)
		require.Equal(t, 42, v)
		require.Equal(t, int64(1), calls.Load())
	})

	t.Run("singleflight forgets rejected flights", func(t *testing.T) {
		t.Parallel()

		store, _ := newLockedStore(t)
		var calls int
		cached := memo.Async(store, func(context.Context, int) *memo.Future[int] {
			calls++
			if calls == 1 {
				return memo.Rejected[int](errors.New("first"))
			}
			return memo.Resolved(3)
		}, memo.WithSingleflight())
		ctx := context.Background()

		_, err := cached(ctx, 1).Await(ctx)
		require.Error(t, err)

		v, err := cached(ctx, 1).Await(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, v)
	})
	t.Run("singleflight rejects joined callers when fn panics", func(t *testing.T) {
		t.Parallel()

		store, _ := newLockedStore(t)
		var calls atomic.Int64
		entered := make(chan struct{})
		release := make(chan struct{})
		cached := memo.Async(store, func(context.Context, int) *memo.Future[int] {
			if calls.Add(1) == 1 {
				close(entered)
				<-release
				panic("boom")
			}
			return memo.Resolved(5)
		}, memo.WithSingleflight())
		ctx := context.Background()

		recovered := make(chan any, 1)
		go func() {
			defer func() { recovered <- recover() }()
			cached(ctx, 1)
		}()
		<-entered

		joined := cached(ctx, 1)
		close(release)
		require.Equal(t, "boom", <-recovered)

		_, err := joined.Await(ctx)
		require.ErrorIs(t, err, memo.ErrPanicked)
		require.Equal(t, int64(1), calls.Load())

		v, err := cached(ctx, 1).Await(ctx)
		require.NoError(t, err)
		require.Equal(t, 5, v)
	})
}

func TestFuture(t *testing.T) {
	t.Parallel()

	t.Run("settles once", func(t *testing.T) {
		t.Parallel()

		f := memo.NewFuture[string]()
		_, _, ok := f.Result()
		require.False(t, ok)

		require.True(t, f.Resolve("a"))
		require.False(t, f.Resolve("b"))
		require.False(t, f.Reject(errors.New("late")))

		v, err, ok := f.Result()
		require.True(t, ok)
		require.NoError(t, err)
		require.Equal(t, "a", v)
	})

	t.Run("await respects context", func(t *testing.T) {
		t.Parallel()

		f := memo.NewFuture[int]()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := f.Await(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		// Giving up does not settle the future.
		_, _, ok := f.Result()
		require.False(t, ok)
	})

	t.Run("go passes context through", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		f := memo.Go(ctx, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		cancel()

		_, err := f.Await(context.Background())
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("concurrent waiters see the same result", func(t *testing.T) {
		t.Parallel()

		f := memo.NewFuture[int]()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := f.Await(context.Background())
				if err != nil || v != 7 {
					t.Errorf("waiter got v=%d err=%v", v, err)
				}
			}()
		}
		f.Resolve(7)
		wg.Wait()
	})
}
