package cache

// Cache is the operation set shared by LRU and Synced.
//
// Every operation is O(1) amortized except Entries/Keys and Clear, which are
// O(n) in the number of live entries.
type Cache[K comparable, V any] interface {
	// Set inserts or updates k→v and promotes it to MRU. Inserting a new
	// key into a full cache evicts the LRU entry first.
	Set(k K, v V)

	// Add inserts k→v only if k is not present.
	// Returns false if the key already exists (no update is performed).
	Add(k K, v V) bool

	// Get returns the value for k and a boolean flag indicating presence.
	// On hit, the entry is promoted to MRU.
	Get(k K) (V, bool)

	// Peek is Get without promotion.
	Peek(k K) (V, bool)

	// Has reports presence without promotion.
	Has(k K) bool

	// Delete removes k if present and returns true on success.
	Delete(k K) bool

	// Oldest returns the LRU entry without promoting it.
	Oldest() (K, V, bool)

	// Entries returns an MRU-first snapshot of all entries.
	Entries() []Entry[K, V]

	// Keys returns an MRU-first snapshot of all keys.
	Keys() []K

	// Clear removes all entries, notifying OnRemove for each (MRU first).
	Clear()

	// Len returns the number of live entries.
	Len() int

	// Cap returns the fixed capacity.
	Cap() int
}

var (
	_ Cache[string, int] = (*LRU[string, int])(nil)
	_ Cache[string, int] = (*Synced[string, int])(nil)
)
