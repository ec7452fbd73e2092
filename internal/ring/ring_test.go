package ring_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nrag/clockpro/internal/ring"
)

func newSingleton(key int) *ring.Node[int, int] {
	n := new(ring.Node[int, int])
	n.SetKey(key)
	n.Type = ring.Cold
	n.SetValue(key)
	return n
}

func TestSingletonSelfLoops(t *testing.T) {
	n := newSingleton(1)
	require.Same(t, n, n.Next())
	require.Same(t, n, n.Prev())
	require.Equal(t, 1, n.Len())
}

func TestLinkSplicesAfter(t *testing.T) {
	a, b, c := newSingleton(1), newSingleton(2), newSingleton(3)
	prevNext := a.Link(b)
	require.Same(t, a, prevNext, "Link must return the old a.Next()")
	require.Same(t, b, a.Next())
	require.Same(t, a, b.Prev())

	a.Link(c)
	require.Same(t, c, a.Next())
	require.Same(t, b, c.Next())
	require.Same(t, a, b.Next())
	require.Equal(t, 3, a.Len())
}

func TestUnlinkDetachesSubring(t *testing.T) {
	a, b, c := newSingleton(1), newSingleton(2), newSingleton(3)
	a.Link(b)
	a.Link(c) // ring: a -> c -> b -> a
	require.Equal(t, 3, a.Len())

	removed := a.Unlink(1) // detach c
	require.Same(t, c, removed)
	require.Equal(t, 1, removed.Len(), "detached node must be a singleton")
	require.Equal(t, 2, a.Len())
	require.Same(t, b, a.Next())
}

func TestMoveWrapsAroundRing(t *testing.T) {
	a, b, c := newSingleton(1), newSingleton(2), newSingleton(3)
	a.Link(b)
	a.Link(c) // ring: a -> c -> b -> a

	require.Same(t, c, a.Move(1))
	require.Same(t, b, a.Move(2))
	require.Same(t, a, a.Move(3))
	require.Same(t, b, a.Move(-1))
}

func TestValueRoundTrip(t *testing.T) {
	n := newSingleton(1)
	v, resident := n.Value()
	require.True(t, resident)
	require.Equal(t, 1, v)

	n.ClearValue()
	_, resident = n.Value()
	require.False(t, resident, "a descriptor with its value cleared must report non-resident")

	n.SetValue(9)
	v, resident = n.Value()
	require.True(t, resident)
	require.Equal(t, 9, v)
}

func TestResetProducesCleanSingleton(t *testing.T) {
	n := newSingleton(1)
	n.Ref.Store(true)
	n.Reset()

	require.Same(t, n, n.Next())
	require.Same(t, n, n.Prev())
	require.Equal(t, ring.Empty, n.Type)
	require.False(t, n.Ref.Load())
	_, resident := n.Value()
	require.False(t, resident)
	require.Zero(t, n.Key())
}
