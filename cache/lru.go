package cache

import "fmt"

// Entry is a key/value pair returned by Entries.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// LRU is a fixed-capacity key/value cache with least-recently-used eviction.
//
// Entries live in a slot store: parallel arrays of keys, values and
// next/prev links indexed by slot number. The links thread an intrusive
// doubly linked list through the live slots (head=MRU, tail=LRU), and a map
// resolves keys to slots. Nothing is heap-allocated per entry.
//
// LRU is not safe for concurrent use; see Synced.
type LRU[K comparable, V any] struct {
	capacity int

	// ---- slot store ----
	index  map[K]int
	keys   []K
	values []V
	links  links

	// ---- recency list ----
	head   int // MRU slot, or none
	tail   int // LRU slot, or none
	length int // number of live slots

	// ---- allocator ----
	bump    int // first never-used slot
	freeTop int // most recently freed slot (top of the free stack)
	freeLen int // number of slots on the free stack

	onRemove func(k K, v V, reason RemoveReason)
	metrics  Metrics
}

// New constructs an LRU with the provided Options.
// Defaults:
//   - Capacity == 0 -> DefaultCapacity
//   - nil Metrics   -> NoopMetrics
//
// A negative Capacity is rejected with an error wrapping ErrInvalidCapacity
// before any slot is allocated.
func New[K comparable, V any](opt Options[K, V]) (*LRU[K, V], error) {
	capacity := opt.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if capacity < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, opt.Capacity)
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}

	c := &LRU[K, V]{
		capacity: capacity,
		onRemove: opt.OnRemove,
		metrics:  opt.Metrics,
	}
	c.reset()
	return c, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew[K comparable, V any](opt Options[K, V]) *LRU[K, V] {
	c, err := New[K, V](opt)
	if err != nil {
		panic(err)
	}
	return c
}

// Set inserts or updates k→v and makes it the most recently used entry.
// Inserting a new key into a full cache evicts the least recently used one.
func (c *LRU[K, V]) Set(k K, v V) {
	if s, ok := c.index[k]; ok {
		c.moveToHead(s)
		c.values[s] = v
		return
	}
	c.insert(k, v)
}

// Add inserts k→v only if k is not present.
// Returns false if the key already exists (no update, no promotion).
func (c *LRU[K, V]) Add(k K, v V) bool {
	if _, ok := c.index[k]; ok {
		return false
	}
	c.insert(k, v)
	return true
}

// Get returns the value for k and promotes it to MRU.
func (c *LRU[K, V]) Get(k K) (V, bool) {
	s, ok := c.index[k]
	if !ok {
		c.metrics.Miss()
		var zero V
		return zero, false
	}
	c.moveToHead(s)
	c.metrics.Hit()
	return c.values[s], true
}

// Peek returns the value for k without touching recency order or metrics.
func (c *LRU[K, V]) Peek(k K) (V, bool) {
	s, ok := c.index[k]
	if !ok {
		var zero V
		return zero, false
	}
	return c.values[s], true
}

// Has reports whether k is present. Recency order is left untouched.
func (c *LRU[K, V]) Has(k K) bool {
	_, ok := c.index[k]
	return ok
}

// Delete removes k and reports whether a live entry was removed.
// Deleting an absent key is a no-op.
func (c *LRU[K, V]) Delete(k K) bool {
	s, ok := c.index[k]
	if !ok {
		return false
	}
	c.remove(s, RemoveDeleted)
	return true
}

// Oldest returns the LRU entry without promoting it.
func (c *LRU[K, V]) Oldest() (k K, v V, ok bool) {
	if c.length == 0 {
		return k, v, false
	}
	return c.keys[c.tail], c.values[c.tail], true
}

// Entries returns a snapshot of all entries, most recently used first.
func (c *LRU[K, V]) Entries() []Entry[K, V] {
	out := make([]Entry[K, V], 0, c.length)
	c.walk(func(s int) {
		out = append(out, Entry[K, V]{Key: c.keys[s], Value: c.values[s]})
	})
	return out
}

// Keys returns a snapshot of all keys, most recently used first.
func (c *LRU[K, V]) Keys() []K {
	out := make([]K, 0, c.length)
	c.walk(func(s int) {
		out = append(out, c.keys[s])
	})
	return out
}

// Clear removes every entry. OnRemove fires once per entry in MRU→LRU
// order, after the cache has already been reset to the empty state.
func (c *LRU[K, V]) Clear() {
	old := *c
	c.reset()
	c.metrics.Size(0, c.capacity)

	if _, noop := c.metrics.(NoopMetrics); noop && c.onRemove == nil {
		return
	}
	old.walk(func(s int) {
		c.metrics.Remove(RemoveCleared)
		if c.onRemove != nil {
			c.onRemove(old.keys[s], old.values[s], RemoveCleared)
		}
	})
}

// Len returns the number of live entries.
func (c *LRU[K, V]) Len() int { return c.length }

// Cap returns the fixed capacity.
func (c *LRU[K, V]) Cap() int { return c.capacity }

// -------------------- internals --------------------

// reset installs a fresh, empty slot store.
func (c *LRU[K, V]) reset() {
	c.index = make(map[K]int, c.capacity)
	c.keys = make([]K, c.capacity)
	c.values = make([]V, c.capacity)
	c.links = newLinks(c.capacity)
	c.head, c.tail, c.length = none, none, 0
	c.bump, c.freeTop, c.freeLen = 0, none, 0
}

// insert places a new key at MRU, evicting the LRU entry first when full.
// The evicted slot is the one handed back by alloc.
func (c *LRU[K, V]) insert(k K, v V) {
	if c.length == c.capacity {
		c.remove(c.tail, RemoveEvicted)
	}
	s := c.alloc()
	c.keys[s] = k
	c.values[s] = v
	c.index[k] = s
	c.pushFront(s)
	c.length++
	c.metrics.Size(c.length, c.capacity)
}

// remove fully detaches slot s, returns it to the allocator and only then
// notifies, so a panicking OnRemove cannot break the list invariants.
func (c *LRU[K, V]) remove(s int, reason RemoveReason) {
	k, v := c.keys[s], c.values[s]
	c.unlink(s)
	delete(c.index, k)
	c.length--
	c.release(s)

	c.metrics.Remove(reason)
	c.metrics.Size(c.length, c.capacity)
	if c.onRemove != nil {
		c.onRemove(k, v, reason)
	}
}

// pushFront links s in as the new head in O(1).
func (c *LRU[K, V]) pushFront(s int) {
	if c.head == none {
		c.head, c.tail = s, s
		return
	}
	c.links.setNext(s, c.head)
	c.links.setPrev(c.head, s)
	c.head = s
}

// unlink detaches s from the list in O(1), relinking both neighbours.
func (c *LRU[K, V]) unlink(s int) {
	prev, next := c.links.prev(s), c.links.next(s)
	switch {
	case s == c.head && s == c.tail:
		c.head, c.tail = none, none
	case s == c.head:
		c.head = next
	case s == c.tail:
		c.tail = prev
	default:
		c.links.setNext(prev, next)
		c.links.setPrev(next, prev)
	}
}

// moveToHead promotes s to MRU in O(1).
func (c *LRU[K, V]) moveToHead(s int) {
	if s == c.head {
		return
	}
	c.unlink(s)
	c.pushFront(s)
}

// alloc hands out a free slot: the most recently released one if any,
// otherwise the next never-used slot. Callers guarantee length < capacity,
// which implies one of the two is available.
func (c *LRU[K, V]) alloc() int {
	if c.freeLen > 0 {
		s := c.freeTop
		c.freeLen--
		if c.freeLen > 0 {
			c.freeTop = c.links.next(s)
		} else {
			c.freeTop = none
		}
		return s
	}
	s := c.bump
	c.bump++
	return s
}

// release pushes s onto the free stack, threading it through next().
// The key and value are zeroed so the cache does not pin them.
func (c *LRU[K, V]) release(s int) {
	var (
		zk K
		zv V
	)
	c.keys[s] = zk
	c.values[s] = zv
	if c.freeLen > 0 {
		c.links.setNext(s, c.freeTop)
	}
	c.freeTop = s
	c.freeLen++
}

// walk visits live slots from head to tail. The walk is bounded: it stops
// after visiting tail and never takes more than length steps.
func (c *LRU[K, V]) walk(fn func(s int)) {
	s := c.head
	for i := 0; i < c.length; i++ {
		fn(s)
		if s == c.tail {
			return
		}
		s = c.links.next(s)
	}
}
