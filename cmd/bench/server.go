package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IvanBrykalov/lrucache/cache"
)

// stats holds the live workload counters; updated with atomics.
type stats struct {
	total, reads, writes, hits, misses uint64
}

type statsSnapshot struct {
	Total  uint64 `json:"total"`
	Reads  uint64 `json:"reads"`
	Writes uint64 `json:"writes"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Len    int    `json:"len,omitempty"`
}

func (s *stats) snapshot() statsSnapshot {
	return statsSnapshot{
		Total:  atomic.LoadUint64(&s.total),
		Reads:  atomic.LoadUint64(&s.reads),
		Writes: atomic.LoadUint64(&s.writes),
		Hits:   atomic.LoadUint64(&s.hits),
		Misses: atomic.LoadUint64(&s.misses),
	}
}

func (s statsSnapshot) hitRate() float64 {
	if s.Reads == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Reads) * 100
}

func newRouter(c *cache.Locked[string, string], st *stats) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/debug", middleware.Profiler())
	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		snap := st.snapshot()
		snap.Len = c.Len()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	})
	return r
}

func serve(addr string, log *slog.Logger, c *cache.Locked[string, string], st *stats) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(c, st),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("http: serving", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("http: server stopped", slog.Any("error", err))
	}
}
