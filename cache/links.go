package cache

import "math"

// none marks an empty head/tail (the list holds no live slot).
const none = -1

// slotIndex is the set of element types usable for the next/prev arrays.
type slotIndex interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// links stores the intrusive recency list: next/prev "pointers" are plain
// slot numbers kept in two parallel arrays of capacity length.
//
// prev(head) and next(tail) are never read while the slot is live, so the
// arrays need no sentinel value and a full uint8 range covers 256 slots.
// Free slots reuse next() to thread the allocator's free stack.
type links interface {
	next(slot int) int
	prev(slot int) int
	setNext(slot, to int)
	setPrev(slot, to int)
	// width reports the element size in bits (8, 16, 32 or 64).
	width() int
}

// linkArray is a links implementation over a fixed-width unsigned type.
type linkArray[I slotIndex] struct {
	nexts []I
	prevs []I
	bits  int
}

func newLinkArray[I slotIndex](capacity, bits int) *linkArray[I] {
	return &linkArray[I]{
		nexts: make([]I, capacity),
		prevs: make([]I, capacity),
		bits:  bits,
	}
}

func (a *linkArray[I]) next(slot int) int    { return int(a.nexts[slot]) }
func (a *linkArray[I]) prev(slot int) int    { return int(a.prevs[slot]) }
func (a *linkArray[I]) setNext(slot, to int) { a.nexts[slot] = I(to) }
func (a *linkArray[I]) setPrev(slot, to int) { a.prevs[slot] = I(to) }
func (a *linkArray[I]) width() int           { return a.bits }

// slotWidth picks the narrowest unsigned width (in bits) able to hold
// every slot number of a cache with the given capacity, i.e. capacity-1.
func slotWidth(capacity int) int {
	maxIndex := uint64(capacity - 1)
	switch {
	case maxIndex <= math.MaxUint8:
		return 8
	case maxIndex <= math.MaxUint16:
		return 16
	case maxIndex <= math.MaxUint32:
		return 32
	default:
		return 64
	}
}

// newLinks allocates next/prev arrays sized and typed for capacity.
func newLinks(capacity int) links {
	switch bits := slotWidth(capacity); bits {
	case 8:
		return newLinkArray[uint8](capacity, bits)
	case 16:
		return newLinkArray[uint16](capacity, bits)
	case 32:
		return newLinkArray[uint32](capacity, bits)
	default:
		return newLinkArray[uint64](capacity, bits)
	}
}
