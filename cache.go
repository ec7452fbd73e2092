package clockpro

import (
	"context"
	"fmt"
	"sync"

	"github.com/nrag/clockpro/internal/index"
	"github.com/nrag/clockpro/internal/ring"

	"golang.org/x/sync/singleflight"
)

type page[Key comparable, Value any] = ring.Node[Key, Value]

// MinimumCapacity defines the lowest value supported by [New]: room for
// at least one Hot, one Cold, and one Test descriptor.
const MinimumCapacity = 3

// Cache is a fixed-capacity, concurrency-safe associative cache
// implementing the CLOCK-Pro replacement policy. Constructed by [New].
//
// Get never blocks on the cache's internal mutex; Set does, but only
// around the clock-structure mutation, never around descriptor
// allocation.
type Cache[Key comparable, Value any] struct {
	mu    sync.Mutex
	index *index.Map[Key, *page[Key, Value]]
	arena sync.Pool
	group singleflight.Group

	handHot, handCold, handTest *page[Key, Value]

	capacity, coldCapacity         int
	countHot, countCold, countTest int
}

// New creates a [Cache] with the given capacity. Capacity must be at
// least [MinimumCapacity].
func New[Key comparable, Value any](capacity int) (*Cache[Key, Value], error) {
	if capacity < MinimumCapacity {
		return nil, minCapacityError(capacity)
	}
	c := &Cache[Key, Value]{
		index:        index.New[Key, *page[Key, Value]](0),
		capacity:     capacity,
		coldCapacity: capacity,
	}
	c.arena.New = func() any { return new(page[Key, Value]) }
	return c, nil
}

// Get returns the Value for key if it is resident in the cache, and
// marks it as referenced; otherwise it returns the zero value and
// false. Get takes no lock on the cache's clock structure; it relies
// entirely on the key index and the descriptor's atomic fields.
//
// Because descriptors are recycled across unrelated keys by an arena
// (see newDescriptor), the descriptor index.Find returns for key may,
// by the time Get reads it, have already been evicted and handed back
// out for a different key. Get therefore re-checks e.Key() against key
// both before and after reading the value, and treats any mismatch as
// a miss rather than trust a descriptor that no longer denotes key.
func (c *Cache[Key, Value]) Get(key Key) (Value, bool) {
	e, found := c.index.Find(key)
	if !found || e.Key() != key {
		var zero Value
		return zero, false
	}
	value, resident := e.Value()
	if !resident || e.Key() != key {
		// Either a Test (non-resident) page -- a history hit, not a
		// cache hit -- or e was recycled for another key while this
		// call was reading it.
		var zero Value
		return zero, false
	}
	e.Ref.Store(true)
	return value, true
}

// Set inserts or updates key with value.
//
// It returns true when key was newly admitted as a resident entry
// (a miss, or a non-resident "Test" hit resurrected to Hot), and false
// when an already-resident entry was simply overwritten in place.
func (c *Cache[Key, Value]) Set(key Key, value Value) bool {
	for {
		e, found := c.index.Find(key)
		if !found {
			return c.insertNew(key, value)
		}

		c.mu.Lock()
		if e.Type == ring.Empty || e.Key() != key {
			// Lost a race with a concurrent eviction of this exact
			// descriptor between the lock-free index lookup above and
			// acquiring the cache lock -- either it was reset to Empty
			// and not yet reused (caught by the Type check), or an
			// arena.Get by another goroutine already rebound it to an
			// unrelated key (caught by the Key check, since Reset
			// alone can leave Key equal to key's zero value). Retry as
			// a fresh miss rather than mutate a descriptor that no
			// longer denotes key.
			c.mu.Unlock()
			continue
		}
		switch e.Type {
		case ring.Test:
			if c.coldCapacity < c.capacity {
				c.coldCapacity++
			}
			c.metaDel(e, false)
			c.countTest--
			e.Type = ring.Hot
			e.SetValue(value)
			e.Ref.Store(false)
			c.metaAdd(e)
			c.countHot++
			c.index.InsertOrAssign(key, e)
			c.mu.Unlock()
			return true

		default: // Cold or Hot: ordinary resident hit.
			e.SetValue(value)
			e.Ref.Store(true)
			c.mu.Unlock()
			return false
		}
	}
}

// Load returns the cached value for key if resident. Otherwise it calls
// fetch, caching and returning the value on success. Concurrent Load
// calls for the same non-resident key are coalesced: fetch runs once
// per in-flight key, and every waiter observes its result.
//
// If fetch returns an error, the value is not cached and the error is
// returned to every waiter for that key.
func (c *Cache[Key, Value]) Load(
	ctx context.Context, key Key,
	fetch func(context.Context) (Value, error),
) (Value, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}
	result, err, _ := c.group.Do(fmt.Sprint(key), func() (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero Value
		return zero, err
	}
	value := result.(Value)
	c.Set(key, value)
	return value, nil
}

// Len returns the number of resident pages (Hot + Cold).
func (c *Cache[Key, Value]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countHot + c.countCold
}

// insertNew allocates a fresh Cold descriptor for key outside the cache
// lock, then admits it under the lock.
func (c *Cache[Key, Value]) insertNew(key Key, value Value) bool {
	e := c.newDescriptor(key, value)
	c.index.InsertOrAssign(key, e)
	c.mu.Lock()
	c.metaAdd(e)
	c.countCold++
	c.mu.Unlock()
	return true
}

func (c *Cache[Key, Value]) newDescriptor(key Key, value Value) *page[Key, Value] {
	e := c.arena.Get().(*page[Key, Value])
	e.Reset()
	e.SetKey(key)
	e.Type = ring.Cold
	e.SetValue(value)
	return e
}

// metaAdd splices a singleton descriptor e into the ring immediately
// after handHot, initializing all three hands if the ring was empty.
// Must be called with the cache lock held. Precondition: e is a
// singleton not currently in the ring.
func (c *Cache[Key, Value]) metaAdd(e *page[Key, Value]) {
	c.evict()
	if c.handHot == nil {
		c.handHot, c.handCold, c.handTest = e, e, e
	} else {
		c.handHot.Link(e)
	}
	if c.handCold == c.handHot {
		c.handCold = e.Next()
	}
	if c.handTest == c.handHot {
		c.handTest = e.Next()
	}
	c.handHot = e.Next()
}

// metaDel detaches e from the ring and the key index. If deleteNode, e
// is reset and returned to the arena for reuse; otherwise the caller
// retains ownership of e as a clean singleton. Must be called with the
// cache lock held.
func (c *Cache[Key, Value]) metaDel(e *page[Key, Value], deleteNode bool) {
	e.Type = ring.Empty
	e.Ref.Store(false)
	e.ClearValue()
	c.index.Erase(e.Key())

	next := e.Next()
	if e == c.handHot {
		c.handHot = next
	}
	if e == c.handCold {
		c.handCold = next
	}
	if e == c.handTest {
		c.handTest = next
	}
	e.Prev().Unlink(1)

	if deleteNode {
		e.Reset()
		c.arena.Put(e)
	}
	if c.handHot == e {
		assert(false, "meta_del left a hand pointing at the removed node")
	}
}

// evict runs handCold until the resident budget is honored. Must be
// called with the cache lock held.
func (c *Cache[Key, Value]) evict() {
	for c.capacity <= c.countHot+c.countCold {
		c.runHandCold()
	}
}

// runHandCold advances handCold, promoting a referenced Cold descriptor
// to Hot or demoting an unreferenced one to Test, then rebalances
// handHot against the current hot budget. Must be called with the
// cache lock held.
func (c *Cache[Key, Value]) runHandCold() {
	e := c.handCold
	if e.Type == ring.Cold {
		if e.Ref.Load() {
			e.Type = ring.Hot
			e.Ref.Store(false)
			c.countCold--
			c.countHot++
		} else {
			e.Type = ring.Test
			e.ClearValue()
			c.countCold--
			c.countTest++
			for c.capacity < c.countTest {
				c.runHandTest()
			}
		}
	}
	c.handCold = c.handCold.Next()
	for c.capacity-c.coldCapacity < c.countHot {
		c.runHandHot()
	}
}

// runHandHot advances handHot, giving a referenced Hot descriptor a
// second chance or demoting an unreferenced one to Cold. Must be called
// with the cache lock held.
func (c *Cache[Key, Value]) runHandHot() {
	if c.handHot == c.handTest {
		c.runHandTest()
	}
	e := c.handHot
	if e.Type == ring.Hot {
		if debugging {
			assert(e != nil, "hot hand is nil")
		}
		if e.Ref.Load() {
			e.Ref.Store(false)
		} else {
			e.Type = ring.Cold
			c.countHot--
			c.countCold++
		}
	}
	c.handHot = c.handHot.Next()
}

// runHandTest advances handTest, reclaiming a Test descriptor's
// arena slot and relaxing coldCapacity. Must be called with the cache
// lock held.
func (c *Cache[Key, Value]) runHandTest() {
	if c.handTest == c.handCold {
		c.runHandCold()
	}
	e := c.handTest
	if e.Type == ring.Test {
		prev := c.handTest.Prev()
		c.metaDel(e, true)
		c.handTest = prev
		c.countTest--
		if c.coldCapacity > 1 {
			c.coldCapacity--
		}
	}
	c.handTest = c.handTest.Next()
}
