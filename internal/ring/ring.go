// Package ring is a specialized adaption of `container/ring` for use in a
// CLOCK-Pro replacement engine. A Node doubles as both the ring link and
// the page descriptor the replacement engine mutates (type, reference
// bit, boxed value), since in this algorithm the two are never needed
// separately.
package ring

import "sync/atomic"

// PageType classifies a descriptor's current residency/history state.
type PageType int

const (
	// Empty descriptors are detached; they never appear in a ring.
	Empty PageType = iota
	// Test descriptors are non-resident history entries.
	Test
	// Cold descriptors are resident pages on probation.
	Cold
	// Hot descriptors are resident pages with demonstrated reuse.
	Hot
)

// Node is an element of a circular list, or ring, that also carries the
// CLOCK-Pro page descriptor fields for Key K and Value V. Rings do not
// have a beginning or end; a pointer to any ring element serves as
// reference to the entire ring. The zero value for a Node is a
// one-element ring with a zero Key and no resident value.
type Node[K comparable, V any] struct {
	next, prev *Node[K, V]

	// key is boxed behind an atomic pointer, not a plain field, because
	// a Node is recycled across unrelated keys via an arena: a
	// lock-free reader that captured this Node before it was recycled
	// must be able to load the key it currently denotes and compare it
	// against the key it looked up, rather than observe a half-written
	// value during reassignment. See Key and SetKey.
	key atomic.Pointer[K]
	// Type is the current classification. Mutated only by the
	// replacement engine, under its cache lock.
	Type PageType
	// Ref is the CLOCK reference bit. Set on cache hit (without the
	// cache lock); cleared by the hands (under the cache lock).
	Ref atomic.Bool

	val atomic.Pointer[V]
}

func (r *Node[K, V]) init() *Node[K, V] {
	r.next = r
	r.prev = r
	return r
}

// Key loads the key this descriptor currently denotes. Safe to call
// without any external synchronization, including concurrently with a
// SetKey on the same Node from an arena recycling it for another key.
func (r *Node[K, V]) Key() K {
	p := r.key.Load()
	if p == nil {
		var zero K
		return zero
	}
	return *p
}

// SetKey binds the descriptor to key.
func (r *Node[K, V]) SetKey(key K) {
	r.key.Store(&key)
}

// Value loads the resident value, or reports false if the descriptor is
// non-resident (Test or Empty).
func (r *Node[K, V]) Value() (V, bool) {
	p := r.val.Load()
	if p == nil {
		var zero V
		return zero, false
	}
	return *p, true
}

// SetValue publishes value as the descriptor's resident value.
func (r *Node[K, V]) SetValue(value V) {
	r.val.Store(&value)
}

// ClearValue marks the descriptor non-resident.
func (r *Node[K, V]) ClearValue() {
	r.val.Store(nil)
}

// Next returns the next ring element. r must not be empty.
func (r *Node[K, V]) Next() *Node[K, V] {
	if r.next == nil {
		return r.init()
	}
	return r.next
}

// Prev returns the previous ring element. r must not be empty.
func (r *Node[K, V]) Prev() *Node[K, V] {
	if r.next == nil {
		return r.init()
	}
	return r.prev
}

// Move moves n % r.Len() elements backward (n < 0) or forward (n >= 0)
// in the ring and returns that ring element. r must not be empty.
func (r *Node[K, V]) Move(n int) *Node[K, V] {
	if r.next == nil {
		return r.init()
	}
	switch {
	case n < 0:
		for ; n < 0; n++ {
			r = r.prev
		}
	case n > 0:
		for ; n > 0; n-- {
			r = r.next
		}
	}
	return r
}

// Link connects ring r with ring s such that r.Next() becomes s and
// returns the original value for r.Next(). r must not be empty.
//
// If r and s point to the same ring, linking them removes the elements
// between r and s from the ring. The removed elements form a subring and
// the result is a reference to that subring (if no elements were
// removed, the result is still the original value for r.Next(), and not
// nil).
//
// If r and s point to different rings, linking them creates a single
// ring with the elements of s inserted after r. The result points to the
// element following the last element of s after insertion.
func (r *Node[K, V]) Link(s *Node[K, V]) *Node[K, V] {
	n := r.Next()
	if s != nil {
		p := s.Prev()
		// Note: Cannot use multiple assignment because evaluation
		// order of LHS is not specified.
		r.next = s
		s.prev = r
		n.prev = p
		p.next = n
	}
	return n
}

// Unlink removes n % r.Len() elements from the ring r, starting at
// r.Next(). If n % r.Len() == 0, r remains unchanged. The result is the
// removed subring. r must not be empty.
func (r *Node[K, V]) Unlink(n int) *Node[K, V] {
	if n <= 0 {
		return nil
	}
	return r.Link(r.Move(n + 1))
}

// Len computes the number of elements in ring r. It executes in time
// proportional to the number of elements.
func (r *Node[K, V]) Len() int {
	n := 0
	if r != nil {
		n = 1
		for p := r.Next(); p != r; p = p.next {
			n++
		}
	}
	return n
}

// Reset detaches r into a clean singleton, clearing its descriptor
// fields, so it can be handed back to an arena for reuse.
func (r *Node[K, V]) Reset() {
	r.next = r
	r.prev = r
	r.key.Store(nil)
	r.Type = Empty
	r.Ref.Store(false)
	r.val.Store(nil)
}
