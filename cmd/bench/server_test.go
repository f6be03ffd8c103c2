package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/lrucache/cache"
)

func TestRouter_Stats(t *testing.T) {
	t.Parallel()

	c, err := cache.NewLocked[string, string](cache.WithMaxSize(4))
	require.NoError(t, err)
	c.Set("a", "1")

	st := &stats{reads: 4, hits: 3, misses: 1, total: 4}
	srv := httptest.NewServer(newRouter(c, st))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap statsSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.Equal(t, uint64(3), snap.Hits)
	require.Equal(t, 1, snap.Len)
	require.InDelta(t, 75.0, snap.hitRate(), 0.001)
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	c, err := cache.NewLocked[string, string]()
	require.NoError(t, err)
	srv := httptest.NewServer(newRouter(c, &stats{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.Equal(t, cache.Config{}, cfg)
}

func TestValidateWorkload(t *testing.T) {
	t.Parallel()

	require.NoError(t, validateWorkload(1_000_000, 1.1, 1.0, 80))
	require.NoError(t, validateWorkload(1, 1.1, 1.0, 0))

	for name, tc := range map[string]struct {
		keys    int
		s, v    float64
		readPct int
	}{
		"zero keys":     {keys: 0, s: 1.1, v: 1, readPct: 80},
		"negative keys": {keys: -3, s: 1.1, v: 1, readPct: 80},
		"zipf s":        {keys: 10, s: 1.0, v: 1, readPct: 80},
		"zipf v":        {keys: 10, s: 1.1, v: 0.5, readPct: 80},
		"reads":         {keys: 10, s: 1.1, v: 1, readPct: 101},
	} {
		require.Error(t, validateWorkload(tc.keys, tc.s, tc.v, tc.readPct), name)
	}
}
