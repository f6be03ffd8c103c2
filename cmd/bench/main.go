// Command bench runs a synthetic workload against a Locked cache, optionally
// through a memoized loader, and serves Prometheus metrics and pprof over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/lrucache/cache"
	"github.com/IvanBrykalov/lrucache/memo"
	pmet "github.com/IvanBrykalov/lrucache/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		configPath = flag.String("config", "", "YAML cache config (max_size, max_age, touch_on_get); flags below override it")
		size       = flag.Int("size", 0, "cache max size in entries (0 = config/default)")
		maxAge     = flag.Duration("max-age", 0, "entry max age (0 = config/none)")
		noTouch    = flag.Bool("no-touch", false, "do not refresh recency on reads")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 0, "preload entries (0 = size/2)")

		useMemo     = flag.Bool("memo", false, "read through a memoized loader instead of Get/Set")
		loadLatency = flag.Duration("load-latency", 200*time.Microsecond, "simulated loader latency for -memo")
		single      = flag.Bool("singleflight", false, "coalesce concurrent loader misses for -memo")

		httpAddr = flag.String("http", ":8080", "serve /metrics, /stats and /debug at addr; empty = disabled")
		debug    = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := validateWorkload(*keys, *zipfS, *zipfV, *readPct); err != nil {
		log.Error("invalid flags", slog.Any("error", err))
		os.Exit(2)
	}

	// ---- Config: file first, then flags ----
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Error("load config", slog.String("path", *configPath), slog.Any("error", err))
		os.Exit(1)
	}
	if *size > 0 {
		cfg.MaxSize = *size
	}
	if *maxAge > 0 {
		cfg.MaxAge = cache.Duration(*maxAge)
	}
	if *noTouch {
		touch := false
		cfg.TouchOnGet = &touch
	}

	// ---- Build cache ----
	metrics := pmet.New(nil, "lru", "bench", nil)
	c, err := cache.NewLocked[string, string](append(cfg.Options(),
		cache.WithMetrics(metrics),
		cache.WithLogger(log),
	)...)
	if err != nil {
		log.Error("build cache", slog.Any("error", err))
		os.Exit(1)
	}

	var loads uint64
	load := memo.FuncErr(c, func(_ context.Context, k string) (string, error) {
		atomic.AddUint64(&loads, 1)
		time.Sleep(*loadLatency)
		return "v:" + k, nil
	}, memoOptions(*single, log)...)

	// ---- Counters ----
	var st stats

	if *httpAddr != "" {
		go serve(*httpAddr, log, c, &st)
	}

	// ---- Preload half capacity to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = c.MaxSize() / 2
	}
	for i := 0; i < pl; i++ {
		c.Set(memo.DefaultKey("k:"+strconv.Itoa(i)), "v"+strconv.Itoa(i))
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}
	memoMode := *useMemo

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	log.Info("bench started",
		slog.Int("max_size", c.MaxSize()),
		slog.Duration("max_age", c.MaxAge()),
		slog.Int("workers", workersN),
		slog.Bool("memo", memoMode),
		slog.Duration("duration", *duration),
	)

	// ---- Load generation ----
	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&st.total, 1)
				if memoMode {
					atomic.AddUint64(&st.reads, 1)
					if _, err := load(ctx, keyByZipf()); err != nil {
						return
					}
					continue
				}
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&st.reads, 1)
					if _, ok := c.Get(memo.DefaultKey(keyByZipf())); ok {
						atomic.AddUint64(&st.hits, 1)
					} else {
						atomic.AddUint64(&st.misses, 1)
					}
				} else {
					atomic.AddUint64(&st.writes, 1)
					c.Set(memo.DefaultKey(keyByZipf()), "v"+strconv.Itoa(localR.Int()))
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	snap := st.snapshot()
	if memoMode {
		// Every read that did not reach the loader was a hit.
		l := atomic.LoadUint64(&loads)
		snap.Misses = l
		snap.Hits = snap.Reads - l
	}

	fmt.Printf("size=%d max_age=%v workers=%d keys=%d memo=%v dur=%v seed=%d\n",
		c.MaxSize(), c.MaxAge(), workersN, *keys, memoMode, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		snap.Total, float64(snap.Total)/elapsed.Seconds(), snap.Reads, snap.Writes)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", snap.Hits, snap.Misses, snap.hitRate())
	fmt.Printf("Len()=%d\n", c.Len())
}

func loadConfig(path string) (cache.Config, error) {
	if path == "" {
		return cache.Config{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cache.Config{}, err
	}
	defer func() { _ = f.Close() }()
	return cache.LoadConfig(f)
}

func memoOptions(single bool, log *slog.Logger) []memo.Option {
	opts := []memo.Option{memo.WithLogger(log)}
	if single {
		opts = append(opts, memo.WithSingleflight())
	}
	return opts
}

// validateWorkload rejects flag values that rand.NewZipf or the key space cannot take.
func validateWorkload(keys int, zipfS, zipfV float64, readPct int) error {
	switch {
	case keys < 1:
		return fmt.Errorf("-keys must be >= 1, got %d", keys)
	case zipfS <= 1:
		return fmt.Errorf("-zipf_s must be > 1, got %g", zipfS)
	case zipfV < 1:
		return fmt.Errorf("-zipf_v must be >= 1, got %g", zipfV)
	case readPct < 0 || readPct > 100:
		return fmt.Errorf("-reads must be in [0, 100], got %d", readPct)
	}
	return nil
}
