package chunk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchedulerEmptyEnqueueStaysIdle(t *testing.T) {
	s := NewScheduler(&fakeFactory{steps: 1})
	require.True(t, s.Enqueue(nil, nil))
	require.True(t, s.IsIdle())
	require.False(t, s.Busy())
}

func TestSchedulerOneStepPerTick(t *testing.T) {
	f := &fakeFactory{steps: 3}
	s := NewScheduler(f)

	a, b := testSpec(0, -250, 0, 500), testSpec(0, 250, 0, 500)
	require.True(t, s.Enqueue([]Spec{a, b}, nil))
	require.True(t, s.Busy())
	require.Equal(t, 2, s.Pending())

	// Three steps per tile, the cycle closes on the step that finishes the last build.
	require.Equal(t, 6, drain(s, 100))
	require.True(t, s.IsIdle())

	done := s.TakeCompleted()
	require.Len(t, done, 2)
	require.Equal(t, a.Key, done[0].Key)
	require.Equal(t, b.Key, done[1].Key)
	for _, e := range done {
		require.Equal(t, Ready, e.State)
		require.True(t, e.Tile.Visible())
	}
	require.Empty(t, s.TakeCompleted())
}

func TestSchedulerIgnoresEnqueueWhileDraining(t *testing.T) {
	f := &fakeFactory{steps: 2}
	s := NewScheduler(f)

	require.True(t, s.Enqueue([]Spec{testSpec(0, 0, 0, 1000)}, nil))
	s.Step()
	require.False(t, s.Enqueue([]Spec{testSpec(1, 0, 0, 1000)}, nil))
	require.False(t, s.ForceFullRebuild(nil))
	require.Len(t, f.allocated, 1)

	drain(s, 10)
	require.Len(t, s.TakeCompleted(), 1)
}

func TestSchedulerNoGapDuringReplacement(t *testing.T) {
	f := &fakeFactory{steps: 2}
	s := NewScheduler(f)

	parent := testSpec(4, 0, 0, 1000)
	require.True(t, s.Enqueue([]Spec{parent}, nil))
	drain(s, 10)
	old := s.TakeCompleted()[0]
	require.True(t, old.Tile.Visible())

	children := []Spec{
		testSpec(4, -250, -250, 500),
		testSpec(4, 250, -250, 500),
		testSpec(4, -250, 250, 500),
		testSpec(4, 250, 250, 500),
	}
	require.True(t, s.Enqueue(children, []*Entry{old}))
	require.Equal(t, Retiring, old.State)

	for s.Busy() {
		// The old tile stays up and none of the children show until every
		// child is built.
		require.True(t, old.Tile.Visible())
		for _, e := range s.InFlight() {
			if e != old {
				require.False(t, e.Tile.Visible())
			}
		}
		s.Step()
	}

	require.False(t, old.Tile.Visible())
	require.True(t, old.Tile.(*fakeTile).destroyed)
	require.Equal(t, Released, old.State)

	done := s.TakeCompleted()
	require.Len(t, done, 4)
	for _, e := range done {
		require.True(t, e.Tile.Visible())
	}
}

func TestSchedulerRetireOnlyCycle(t *testing.T) {
	f := &fakeFactory{steps: 1}
	s := NewScheduler(f)
	require.True(t, s.Enqueue([]Spec{testSpec(0, 0, 0, 500)}, nil))
	drain(s, 10)
	e := s.TakeCompleted()[0]

	require.True(t, s.Enqueue(nil, []*Entry{e}))
	require.True(t, s.Busy())
	s.Step()
	require.True(t, s.IsIdle())
	require.Equal(t, Released, e.State)
	require.Equal(t, 1, s.Pool().Len())
}

func TestSchedulerReusesPooledTiles(t *testing.T) {
	f := &fakeFactory{steps: 1}
	s := NewScheduler(f)

	first := testSpec(0, -250, 0, 500)
	require.True(t, s.Enqueue([]Spec{first}, nil))
	drain(s, 10)
	e := s.TakeCompleted()[0]

	require.True(t, s.Enqueue(nil, []*Entry{e}))
	drain(s, 10)
	require.Equal(t, 1, s.Pool().Len())

	// Same width comes from the pool, a different width is allocated.
	second := testSpec(0, 250, 0, 500)
	third := testSpec(1, 0, 0, 1000)
	require.True(t, s.Enqueue([]Spec{second, third}, nil))
	drain(s, 10)

	require.Len(t, f.allocated, 2)
	reused := f.allocated[0]
	require.Equal(t, 1, reused.resets)
	require.Equal(t, second.Key, reused.spec.Key)
	require.True(t, reused.Visible())
	require.Zero(t, s.Pool().Len())
}

func TestSchedulerWithoutPooling(t *testing.T) {
	f := &fakeFactory{steps: 1}
	s := NewScheduler(f, WithPooling(false))
	require.True(t, s.Enqueue([]Spec{testSpec(0, 0, 0, 500)}, nil))
	drain(s, 10)
	e := s.TakeCompleted()[0]

	require.True(t, s.Enqueue(nil, []*Entry{e}))
	drain(s, 10)
	require.Zero(t, s.Pool().Len())
	require.True(t, e.Tile.(*fakeTile).destroyed)
}

func TestSchedulerDropsFailedBuilds(t *testing.T) {
	bad := testSpec(2, 0, 0, 500)
	good := testSpec(2, 500, 0, 500)
	f := &fakeFactory{steps: 2, failKeys: map[Key]bool{bad.Key: true}}
	s := NewScheduler(f)

	require.True(t, s.Enqueue([]Spec{bad, good}, nil))
	drain(s, 20)
	require.True(t, s.IsIdle())

	done := s.TakeCompleted()
	require.Len(t, done, 1)
	require.Equal(t, good.Key, done[0].Key)

	failed := f.allocated[0]
	require.True(t, failed.destroyed)
	require.False(t, failed.Visible())
}

func TestSchedulerKeepsTilesBehindFailedBuilds(t *testing.T) {
	f := &fakeFactory{steps: 1}
	s := NewScheduler(f)

	parent := testSpec(2, 500, 500, 1000)
	other := testSpec(2, -500, 500, 1000)
	require.True(t, s.Enqueue([]Spec{parent, other}, nil))
	drain(s, 10)
	live := s.TakeCompleted()
	require.Len(t, live, 2)
	oldParent, oldOther := live[0], live[1]
	if oldParent.Key != parent.Key {
		oldParent, oldOther = oldOther, oldParent
	}

	bad := testSpec(2, 250, 250, 500)
	f.failKeys = map[Key]bool{bad.Key: true}
	children := []Spec{
		bad,
		testSpec(2, 750, 250, 500),
		testSpec(2, 250, 750, 500),
		testSpec(2, 750, 750, 500),
	}
	otherChildren := []Spec{
		testSpec(2, -750, 250, 500),
		testSpec(2, -250, 250, 500),
		testSpec(2, -750, 750, 500),
		testSpec(2, -250, 750, 500),
	}
	require.True(t, s.Enqueue(append(children, otherChildren...), []*Entry{oldParent, oldOther}))
	drain(s, 40)
	require.True(t, s.IsIdle())

	require.True(t, oldParent.Tile.Visible())
	require.False(t, oldParent.Tile.(*fakeTile).destroyed)
	require.Equal(t, Ready, oldParent.State)
	require.False(t, oldOther.Tile.Visible())
	require.Equal(t, Released, oldOther.State)

	done := s.TakeCompleted()
	got := map[Key]*Entry{}
	for _, e := range done {
		got[e.Key] = e
	}
	require.Len(t, got, 5)
	require.Same(t, oldParent, got[parent.Key])
	for _, c := range children {
		require.NotContains(t, got, c.Key)
	}
	for _, c := range otherChildren {
		require.Contains(t, got, c.Key)
		require.True(t, got[c.Key].Tile.Visible())
	}
	for _, tl := range f.allocated[2:6] {
		require.False(t, tl.Visible())
		require.True(t, tl.destroyed)
	}

	// The retired tile and the three good children of the failed area.
	require.Equal(t, 4, s.Pool().Len())
	require.Equal(t, []Key{bad.Key}, s.TakeFailed())
	require.Empty(t, s.TakeFailed())
}

func TestHoldFollowsOverlaps(t *testing.T) {
	parent := testSpec(1, 500, 500, 1000).Key
	neighbour := testSpec(1, 1500, 500, 1000).Key
	bad := testSpec(1, 250, 250, 500).Key
	good := testSpec(1, 750, 750, 500).Key
	far := testSpec(1, 1250, 250, 500).Key

	require.True(t, parent.Overlaps(bad))
	require.True(t, bad.Overlaps(parent))
	require.False(t, parent.Overlaps(neighbour))
	require.False(t, bad.Overlaps(good))
	require.False(t, parent.Overlaps(testSpec(2, 500, 500, 1000).Key))

	heldBuild, heldRetire := Hold([]Key{bad}, []Key{good, far}, []Key{parent, neighbour})
	require.Equal(t, map[int]bool{0: true}, heldBuild)
	require.Equal(t, map[int]bool{0: true}, heldRetire)

	heldBuild, heldRetire = Hold(nil, []Key{good}, []Key{parent})
	require.Empty(t, heldBuild)
	require.Empty(t, heldRetire)
}

func TestSchedulerForceFullRebuild(t *testing.T) {
	f := &fakeFactory{steps: 1}
	s := NewScheduler(f, WithPooling(false))

	specs := []Spec{testSpec(3, -500, 0, 1000), testSpec(3, 500, 0, 1000)}
	require.True(t, s.Enqueue(specs, nil))
	drain(s, 10)
	current := s.TakeCompleted()

	require.True(t, s.ForceFullRebuild(current))
	require.Len(t, s.InFlight(), 4)
	drain(s, 10)

	rebuilt := s.TakeCompleted()
	require.Len(t, rebuilt, 2)
	for i, e := range rebuilt {
		require.Equal(t, current[i].Key, e.Key)
		require.NotSame(t, current[i].Tile, e.Tile)
		require.True(t, e.Tile.Visible())
		require.Equal(t, Released, current[i].State)
		require.False(t, current[i].Tile.Visible())
	}
	require.Len(t, f.allocated, 4)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "retiring", Retiring.String())
	require.Equal(t, "failed", BuildFailed.String())
	require.Equal(t, "unknown", State(42).String())
}
