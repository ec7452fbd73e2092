// Package index provides a sharded, concurrency-safe map from a
// comparable key to an arbitrary reference value, used by the clockpro
// replacement engine as its key-to-descriptor index.
//
// Design mirrors the sharding approach described by the shardcache
// package (one RWMutex per shard, power-of-two shard count sized off
// GOMAXPROCS) adapted to a bare `comparable` key type by hashing with
// hash/maphash.Comparable instead of a byte/string-specialized hash
// function, since there is no closed set of concrete key types to
// switch over generically.
package index

import (
	"hash/maphash"
	"runtime"
	"sync"
)

// Map is a sharded, concurrency-safe map[K]V. A Map's zero value is not
// usable; construct one with New.
type Map[K comparable, V any] struct {
	seed   maphash.Seed
	shards []shard[K, V]
	mask   uint64
}

type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// New constructs a Map sized for concurrent use across the available
// processors. shardHint, if > 0, overrides the default shard count
// (rounded up to a power of two); it exists for tests that want
// deterministic, small shard counts.
func New[K comparable, V any](shardHint int) *Map[K, V] {
	count := shardHint
	if count <= 0 {
		count = 4 * runtime.GOMAXPROCS(0)
	}
	count = nextPow2(count)
	m := &Map[K, V]{
		seed:   maphash.MakeSeed(),
		shards: make([]shard[K, V], count),
		mask:   uint64(count - 1),
	}
	for i := range m.shards {
		m.shards[i].m = make(map[K]V)
	}
	return m
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (m *Map[K, V]) shardFor(key K) *shard[K, V] {
	h := maphash.Comparable(m.seed, key)
	return &m.shards[h&m.mask]
}

// Find returns the value bound to key, and whether it was present.
// Never blocks on any cache-level lock; only the owning shard's RWMutex
// is taken, for a read.
func (m *Map[K, V]) Find(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

// InsertOrAssign binds key to value, overwriting any prior binding.
func (m *Map[K, V]) InsertOrAssign(key K, value V) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

// Erase removes key's binding, if any.
func (m *Map[K, V]) Erase(key K) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

// Len returns the total number of bindings across all shards. Intended
// for tests and invariant checks, not a hot-path operation.
func (m *Map[K, V]) Len() int {
	var n int
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}
