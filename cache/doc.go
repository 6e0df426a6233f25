// Package cache provides a fixed-capacity, generic, in-process LRU cache
// built on a slot store instead of a pointer graph.
//
// Design
//
//   - Storage: keys and values live in parallel arrays of Capacity slots.
//     A map[K]int resolves a key to its slot. Nothing is allocated per entry
//     after construction.
//
//   - Recency: an intrusive doubly linked list (head=MRU, tail=LRU) is
//     threaded through next/prev arrays of slot numbers. The element width
//     is the narrowest of uint8/uint16/uint32/uint64 that can hold
//     Capacity-1, which keeps the link arrays dense for small caches.
//
//   - Allocation: new keys take a never-used slot until the store is full.
//     Deleted slots go onto a LIFO free stack and are reused first. When the
//     cache is full, the tail slot is evicted and reused for the new key.
//
//   - Callbacks: Options.OnRemove(k, v, reason) is called exactly once for
//     every entry leaving the cache: eviction, Delete, or Clear (MRU first).
//     The entry is fully removed before the callback runs.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Remove/Size signals.
//     By default NoopMetrics is used; see package metrics/prom.
//
// Basic usage
//
//	c, err := cache.New[string, []byte](cache.Options[string, []byte]{Capacity: 10_000})
//	if err != nil {
//	    return err
//	}
//	c.Set("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v // use value
//	}
//	c.Delete("a")
//
// With an eviction callback
//
//	c, _ := cache.New[string, int](cache.Options[string, int]{
//	    Capacity: 2,
//	    OnRemove: func(k string, v int, r cache.RemoveReason) {
//	        log.Printf("%s=%d left the cache (%s)", k, v, r)
//	    },
//	})
//
// # Thread-safety
//
// LRU is meant for a single goroutine: even Get relinks the recency list.
// Synced wraps it behind one mutex and adds GetOrLoad, which coalesces
// concurrent loads of the same key:
//
//	c, _ := cache.NewSynced[string, string](cache.Options[string, string]{
//	    Capacity: 1024,
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        // e.g. fetch from DB
//	        return "v:" + k, nil
//	    },
//	})
//	v, err := c.GetOrLoad(context.Background(), "key")
package cache
