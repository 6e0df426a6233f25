package cache

import (
	"context"
	"errors"
)

// DefaultCapacity is used when Options.Capacity is left at zero.
const DefaultCapacity = 50

var (
	// ErrInvalidCapacity is returned by New when Options.Capacity is negative.
	ErrInvalidCapacity = errors.New("cache: capacity must be > 0")

	// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
	ErrNoLoader = errors.New("cache: no Loader provided")
)

// RemoveReason explains why an entry left the cache.
type RemoveReason int

const (
	// RemoveEvicted — the LRU entry was dropped to make room for a new key.
	RemoveEvicted RemoveReason = iota
	// RemoveDeleted — removed by an explicit Delete.
	RemoveDeleted
	// RemoveCleared — removed by Clear.
	RemoveCleared
)

// String returns a stable lowercase name, suitable for metric labels.
func (r RemoveReason) String() string {
	switch r {
	case RemoveEvicted:
		return "evicted"
	case RemoveDeleted:
		return "deleted"
	case RemoveCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Remove(reason RemoveReason)
	Size(entries, capacity int)
}

// Options configures the cache. Zero values are safe;
// defaults are applied in New():
//   - Capacity == 0 => DefaultCapacity
//   - nil Metrics   => NoopMetrics
type Options[K comparable, V any] struct {
	// Capacity is the maximum number of live entries. It is fixed for the
	// lifetime of the cache; negative values are rejected.
	Capacity int

	// OnRemove is called once for every entry leaving the cache, whatever the
	// cause. It runs synchronously on the caller's goroutine after the entry
	// has been fully removed, and must not call back into the same cache.
	OnRemove func(k K, v V, reason RemoveReason)

	Metrics Metrics

	// Loader fetches a value on a miss. Used by Synced.GetOrLoad only.
	Loader func(ctx context.Context, k K) (V, error)
}
