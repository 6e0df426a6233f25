package cache

import (
	"context"
	"sync"

	"github.com/IvanBrykalov/slotcache/internal/singleflight"
)

// Synced wraps an LRU behind a single exclusive lock so it can be shared
// by multiple goroutines. Every method takes the same mutex: the recency
// list is relinked on reads too, so a reader/writer split would not help.
//
// OnRemove runs while the lock is held; it must not call back into the
// same Synced instance.
type Synced[K comparable, V any] struct {
	mu  sync.Mutex
	lru *LRU[K, V]

	loader func(ctx context.Context, k K) (V, error)

	// singleflight group for coalescing concurrent loads in GetOrLoad.
	sf singleflight.Group[K, V]
}

// NewSynced constructs a lock-guarded cache. Options are validated and
// defaulted exactly as in New; Options.Loader enables GetOrLoad.
func NewSynced[K comparable, V any](opt Options[K, V]) (*Synced[K, V], error) {
	lru, err := New[K, V](opt)
	if err != nil {
		return nil, err
	}
	return &Synced[K, V]{lru: lru, loader: opt.Loader}, nil
}

// Set inserts or updates k→v and promotes it to MRU.
func (s *Synced[K, V]) Set(k K, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Set(k, v)
}

// Add inserts k→v only if absent.
func (s *Synced[K, V]) Add(k K, v V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Add(k, v)
}

// Get returns the value for k and promotes it to MRU.
func (s *Synced[K, V]) Get(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Get(k)
}

// Peek returns the value for k without promotion.
func (s *Synced[K, V]) Peek(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Peek(k)
}

// Has reports whether k is present.
func (s *Synced[K, V]) Has(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Has(k)
}

// Delete removes k if present.
func (s *Synced[K, V]) Delete(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Delete(k)
}

// Oldest returns the LRU entry without promotion.
func (s *Synced[K, V]) Oldest() (K, V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Oldest()
}

// Entries returns an MRU-first snapshot.
func (s *Synced[K, V]) Entries() []Entry[K, V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Entries()
}

// Keys returns an MRU-first snapshot of keys.
func (s *Synced[K, V]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Keys()
}

// Clear removes every entry.
func (s *Synced[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Clear()
}

// Len returns the number of live entries.
func (s *Synced[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// Cap returns the fixed capacity. It never changes, so no lock is taken.
func (s *Synced[K, V]) Cap() int { return s.lru.Cap() }

// GetOrLoad returns the value for k; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key (singleflight). The loader
// runs without the cache lock held. Loader errors are returned as is and
// nothing is cached for them.
// If no Loader is configured, returns ErrNoLoader.
func (s *Synced[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	// fast path
	if v, ok := s.Get(k); ok {
		return v, nil
	}
	if s.loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	return s.sf.Do(ctx, k, func() (V, error) {
		// A previous leader may have stored k while we were queued.
		if v, ok := s.Peek(k); ok {
			return v, nil
		}
		v, err := s.loader(ctx, k)
		if err != nil {
			return v, err
		}
		s.Set(k, v)
		return v, nil
	})
}
