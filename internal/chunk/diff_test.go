package chunk

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestKeyQuantization(t *testing.T) {
	a := NewKey(2, mgl64.Vec2{125.0000001, -375}, 250)
	b := NewKey(2, mgl64.Vec2{125, -375.0000002}, 250)
	require.Equal(t, a, b)

	require.NotEqual(t, a, NewKey(3, mgl64.Vec2{125, -375}, 250))
	require.NotEqual(t, a, NewKey(2, mgl64.Vec2{125, -375}, 500))
	require.Equal(t, "2/125,-375[250]", a.String())
}

func TestKeyOrdering(t *testing.T) {
	small := NewKey(0, mgl64.Vec2{0, 0}, 500)
	big := NewKey(0, mgl64.Vec2{-1000, -1000}, 1000)
	other := NewKey(1, mgl64.Vec2{-9000, -9000}, 1)

	require.True(t, small.Less(big))
	require.True(t, big.Less(other))
	require.False(t, other.Less(small))
	require.False(t, small.Less(small))
}

func TestDiffPartitions(t *testing.T) {
	a := testSpec(4, -250, -250, 500)
	b := testSpec(4, 250, -250, 500)
	c := testSpec(4, -250, 250, 500)
	d := testSpec(4, 250, 250, 500)

	previous := map[Key]*Entry{
		a.Key: {Key: a.Key, Spec: a, State: Ready},
		b.Key: {Key: b.Key, Spec: b, State: Ready},
		c.Key: {Key: c.Key, Spec: c, State: Ready},
	}
	target := specMap(b, c, d)

	res := Diff(previous, target)
	require.Len(t, res.Kept, 2)
	require.Same(t, previous[b.Key], res.Kept[b.Key])
	require.Same(t, previous[c.Key], res.Kept[c.Key])
	require.Equal(t, []Spec{d}, res.ToBuild)
	require.Len(t, res.ToRetire, 1)
	require.Same(t, previous[a.Key], res.ToRetire[0])

	// Inputs are left alone.
	require.Len(t, previous, 3)
	require.Len(t, target, 3)
}

func TestDiffIdenticalSetsIsNoop(t *testing.T) {
	a := testSpec(0, 0, 0, 1000)
	previous := map[Key]*Entry{a.Key: {Key: a.Key, Spec: a}}

	res := Diff(previous, specMap(a))
	require.Empty(t, res.ToBuild)
	require.Empty(t, res.ToRetire)
	require.Len(t, res.Kept, 1)
}

func TestDiffOrdersByKey(t *testing.T) {
	specs := []Spec{
		testSpec(5, 0, 0, 8000),
		testSpec(0, 500, 0, 500),
		testSpec(0, -500, 0, 500),
		testSpec(0, 0, 0, 1000),
	}
	res := Diff(nil, specMap(specs...))
	require.Len(t, res.ToBuild, 4)
	for i := 1; i < len(res.ToBuild); i++ {
		require.True(t, res.ToBuild[i-1].Key.Less(res.ToBuild[i].Key))
	}
}

func TestPoolByWidth(t *testing.T) {
	p := NewPool()
	small := &fakeTile{spec: testSpec(0, 0, 0, 500)}
	big := &fakeTile{spec: testSpec(0, 0, 0, 1000)}
	p.Put(small)
	p.Put(big)
	require.Equal(t, 2, p.Len())

	_, ok := p.Take(250)
	require.False(t, ok)

	got, ok := p.Take(500.0000001)
	require.True(t, ok)
	require.Same(t, small, got)
	require.Equal(t, 1, p.Len())

	require.Len(t, p.Drain(), 1)
	require.Zero(t, p.Len())
}
