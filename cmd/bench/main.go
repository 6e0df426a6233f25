// Command bench runs a synthetic workload against a shared cache and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ssgreg/logf"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/slotcache/cache"
	pmet "github.com/IvanBrykalov/slotcache/metrics/prom"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// counters collects workload totals shared by all workers.
type counters struct {
	total, reads, writes, deletes atomic.Uint64
	hits, misses, evictions       atomic.Uint64
}

func run(args []string) int {
	cfg, err := parseConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		return 2
	}
	logger, closeLog, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		return 2
	}
	defer closeLog()

	// ---- pprof server (on DefaultServeMux) ----
	if cfg.PprofAddr != "" {
		go serve(logger.With(logf.String("server", "pprof")), cfg.PprofAddr)
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "slotcache", "bench", nil)
	if cfg.MetricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go serve(logger.With(logf.String("server", "metrics")), cfg.MetricsAddr)
	}

	// ---- Build cache ----
	var cnt counters
	c, err := cache.NewSynced[string, string](cache.Options[string, string]{
		Capacity: cfg.Capacity,
		Metrics:  metrics,
		OnRemove: func(_ string, _ string, r cache.RemoveReason) {
			if r == cache.RemoveEvicted {
				cnt.evictions.Add(1)
			}
		},
	})
	if err != nil {
		logger.Error("failed to build cache", logf.Error(err))
		return 1
	}

	// ---- Preload to get a realistic hit-rate ----
	for i := 0; i < cfg.Preload; i++ {
		c.Set("k:"+strconv.Itoa(i), "v"+strconv.Itoa(i))
	}
	cnt.evictions.Store(0)
	logger.Debug("preloaded", logf.Int("entries", c.Len()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	logger.Info("benchmark started",
		logf.Int("capacity", cfg.Capacity),
		logf.Int("workers", cfg.Workers),
		logf.Int("keys", cfg.Keys),
		logf.Duration("duration", cfg.Duration),
		logf.Int64("seed", cfg.Seed),
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		id := w
		g.Go(func() error {
			return work(gctx, c, cfg, id, &cnt)
		})
	}
	if err = g.Wait(); err != nil {
		logger.Error("worker failed", logf.Error(err))
		return 1
	}
	elapsed := time.Since(start)

	// ---- Report ----
	ops := cnt.total.Load()
	reads := cnt.reads.Load()
	hitRate := 0.0
	if reads > 0 {
		hitRate = float64(cnt.hits.Load()) / float64(reads) * 100
	}
	logger.Info("benchmark finished",
		logf.Duration("elapsed", elapsed),
		logf.Uint64("ops", ops),
		logf.Float64("ops_per_sec", float64(ops)/elapsed.Seconds()),
		logf.Uint64("reads", reads),
		logf.Uint64("writes", cnt.writes.Load()),
		logf.Uint64("deletes", cnt.deletes.Load()),
		logf.Uint64("hits", cnt.hits.Load()),
		logf.Uint64("misses", cnt.misses.Load()),
		logf.Float64("hit_rate_pct", hitRate),
		logf.Uint64("evictions", cnt.evictions.Load()),
		logf.Int("len", c.Len()),
	)
	return 0
}

// work issues a Zipf-distributed mix of Get/Delete/Set until ctx is done.
func work(ctx context.Context, c *cache.Synced[string, string], cfg config, id int, cnt *counters) error {
	// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
	r := rand.New(rand.NewSource(cfg.Seed + int64(id)*9973))
	zipf := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, uint64(cfg.Keys-1))
	if zipf == nil {
		return fmt.Errorf("worker %d: invalid zipf parameters s=%v v=%v", id, cfg.ZipfS, cfg.ZipfV)
	}
	key := func() string { return "k:" + strconv.FormatUint(zipf.Uint64(), 10) }

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		cnt.total.Add(1)
		switch p := int(r.Int31n(100)); {
		case p < cfg.ReadPct:
			cnt.reads.Add(1)
			if _, ok := c.Get(key()); ok {
				cnt.hits.Add(1)
			} else {
				cnt.misses.Add(1)
			}
		case p < cfg.ReadPct+cfg.DelPct:
			cnt.deletes.Add(1)
			c.Delete(key())
		default:
			cnt.writes.Add(1)
			c.Set(key(), "v"+strconv.Itoa(r.Int()))
		}
	}
}

func serve(logger *logf.Logger, addr string) {
	logger.Info("serving", logf.String("addr", addr))
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Error("server stopped", logf.Error(err))
	}
}
