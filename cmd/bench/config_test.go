package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ssgreg/logf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/slotcache/cache"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, 100_000, cfg.Capacity)
	assert.Equal(t, 50_000, cfg.Preload, "preload defaults to cap/2")
	assert.Equal(t, 80, cfg.ReadPct)
	assert.Equal(t, 0, cfg.DelPct)
	assert.Equal(t, ":8080", cfg.MetricsAddr)
	assert.Equal(t, logFormatText, cfg.Log.Format)
}

func TestParseConfig_FileThenFlags(t *testing.T) {
	path := filepath.Join("testdata", "bench.yaml")

	cfg, err := parseConfig([]string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, 2048, cfg.Capacity)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Duration)
	assert.Equal(t, 70, cfg.ReadPct)
	assert.Equal(t, 10, cfg.DelPct)
	assert.Equal(t, 1.2, cfg.ZipfS)
	assert.Equal(t, 1.0, cfg.ZipfV, "unset keys keep their defaults")
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, "", cfg.MetricsAddr)
	assert.Equal(t, logConfig{Format: logFormatJSON, Level: "debug"}, cfg.Log)

	// Explicit flags win over the file regardless of their position.
	cfg, err = parseConfig([]string{"-workers", "1", "-config", path, "-log-level", "warn"})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2048, cfg.Capacity)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero capacity", []string{"-cap", "0"}},
		{"no workers", []string{"-workers", "0"}},
		{"mix over 100", []string{"-reads", "90", "-deletes", "20"}},
		{"flat zipf", []string{"-zipf_s", "1"}},
		{"bad level", []string{"-log-level", "loud"}},
		{"bad format", []string{"-log-format", "xml"}},
		{"missing file", []string{"-config", filepath.Join("testdata", "nope.yaml")}},
		{"unknown flag", []string{"-shards", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig(tt.args)
			require.Error(t, err)
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog, err := newLogger(logConfig{Format: logFormatJSON, Level: "info"}, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("benchmark finished", logf.Int("workers", 4))
	closeLog()

	out := buf.String()
	assert.Contains(t, out, "benchmark finished")
	assert.Contains(t, out, `"workers":4`)
	assert.NotContains(t, out, "hidden")
}

func TestWork_Mix(t *testing.T) {
	cfg, err := parseConfig([]string{"-cap", "64", "-keys", "256", "-reads", "50", "-deletes", "25", "-seed", "1"})
	require.NoError(t, err)

	c, err := cache.NewSynced[string, string](cache.Options[string, string]{Capacity: cfg.Capacity})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var cnt counters
	require.NoError(t, work(ctx, c, cfg, 0, &cnt))

	total := cnt.total.Load()
	require.Positive(t, total)
	assert.Equal(t, total, cnt.reads.Load()+cnt.writes.Load()+cnt.deletes.Load())
	assert.Equal(t, cnt.reads.Load(), cnt.hits.Load()+cnt.misses.Load())
	assert.LessOrEqual(t, c.Len(), 64)
}
