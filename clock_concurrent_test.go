package clockpro_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nrag/clockpro"
)

// TestConcurrentAccess exercises Get/Set from many goroutines over a
// shared key space four times the capacity, so that descriptors are
// constantly evicted and recycled by the arena for unrelated keys.
// Every value written equals its own key, so a descriptor the arena
// handed back out for a different key between a reader's index lookup
// and its field reads -- the cross-key race the cache lock and the
// atomic Key/Value fields on ring.Node guard against -- would surface
// here as Get(k) returning a value != k.
func TestConcurrentAccess(t *testing.T) {
	const (
		capacity   = 16
		goroutines = 32
		opsPerG    = 2000
		keySpace   = 64
	)
	cache, err := clockpro.New[int, int](capacity)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var overflow, mismatched atomic.Int64
	for g := range goroutines {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := range opsPerG {
				key := (seed*opsPerG + i) % keySpace
				if value, ok := cache.Get(key); ok {
					if value != key {
						mismatched.Add(1)
					}
				} else {
					cache.Set(key, key)
				}
				if cache.Len() > capacity {
					overflow.Add(1)
				}
			}
		}(g)
	}
	wg.Wait()

	if n := mismatched.Load(); n > 0 {
		t.Fatalf("Get returned a value bound to a different key %d times", n)
	}
	if n := overflow.Load(); n > 0 {
		t.Fatalf("observed resident count exceed capacity %d times", n)
	}
	if got := cache.Len(); got > capacity {
		t.Fatalf("final resident count %d exceeds capacity %d", got, capacity)
	}
}

// TestLoadCoalescesConcurrentMisses runs concurrent Load calls for the
// same missing key and verifies that every caller observes the fetched
// value and that fetch ran. It does not assert how many times fetch
// ran: calls that overlap an in-flight fetch share it, but a call whose
// Get missed just before another call's Set starts a fresh one.
func TestLoadCoalescesConcurrentMisses(t *testing.T) {
	const (
		capacity   = clockpro.MinimumCapacity
		key        = "shared"
		want       = 7
		goroutines = 64
	)
	cache, err := clockpro.New[string, int](capacity)
	if err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int64
	fetch := func(_ context.Context) (int, error) {
		calls.Add(1)
		return want, nil
	}

	var wg sync.WaitGroup
	results := make([]int, goroutines)
	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			got, err := cache.Load(context.Background(), key, fetch)
			if err != nil {
				t.Error(err)
				return
			}
			results[idx] = got
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if got != want {
			t.Fatalf("goroutine %d observed %d, want %d", i, got, want)
		}
	}
	if n := calls.Load(); n == 0 {
		t.Fatal("fetch was never called")
	}
}
