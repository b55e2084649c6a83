package terrain

import (
	"math"
	"runtime"
	"sort"
	"testing"

	"mini-planet/internal/chunk"
	"mini-planet/internal/config"
	"mini-planet/internal/cubesphere"
	"mini-planet/internal/meshing"
	"mini-planet/internal/tile"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

const maxTicks = 100000

func testConfig() config.Config {
	cfg := config.Default()
	cfg.LOD.Resolution = 2
	cfg.Terrain.Octaves = 2
	return cfg
}

func converge(t *testing.T, o *Orchestrator, vp mgl64.Vec3) int {
	t.Helper()
	for i := 1; i <= maxTicks; i++ {
		require.NoError(t, o.Update(vp))
		if !o.Busy() {
			return i
		}
		runtime.Gosched()
	}
	t.Fatalf("terrain did not converge in %d ticks", maxTicks)
	return 0
}

func keysOf(entries []*chunk.Entry) []chunk.Key {
	out := make([]chunk.Key, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

func sortedKeys(entries []*chunk.Entry) []chunk.Key {
	out := keysOf(entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func countState(entries []*chunk.Entry, state chunk.State) int {
	n := 0
	for _, e := range entries {
		if e.State == state {
			n++
		}
	}
	return n
}

func visibleArea(o *Orchestrator) float64 {
	total := 0.0
	for _, e := range o.Visible() {
		total += e.Spec.Width * e.Spec.Width
	}
	return total
}

func TestOrchestratorConvergesToLeaves(t *testing.T) {
	cfg := testConfig()
	o := NewOrchestrator(cfg, tile.NewFactory(nil))
	vp := mgl64.Vec3{0, 0, 4010}
	converge(t, o, vp)

	tree := cubesphere.NewCubeQuadTree(cubesphere.Params{Radius: 4000, MinNodeSize: 500})
	tree.Insert(vp)
	leaves := tree.GetLeaves()

	entries := o.Entries()
	require.Len(t, entries, len(leaves))
	require.Len(t, o.Leaves(), len(leaves))
	for _, e := range entries {
		require.True(t, e.Tile.Visible())
		require.Equal(t, chunk.Ready, e.State)
	}

	smallest := map[int]float64{}
	perFace := map[int]int{}
	for _, e := range entries {
		perFace[e.Key.Face]++
		if s, ok := smallest[e.Key.Face]; !ok || e.Spec.Width < s {
			smallest[e.Key.Face] = e.Spec.Width
		}
	}
	require.Equal(t, 500.0, smallest[cubesphere.FacePosZ])
	require.Equal(t, 4, perFace[cubesphere.FaceNegZ])
	require.Equal(t, 4000.0, smallest[cubesphere.FaceNegZ])

	// Further updates at the same viewpoint change nothing.
	before := keysOf(o.Entries())
	require.NoError(t, o.Update(vp))
	require.False(t, o.Busy())
	require.Equal(t, before, keysOf(o.Entries()))
}

func TestOrchestratorKeepsSurfaceCoveredWhileMoving(t *testing.T) {
	o := NewOrchestrator(testConfig(), tile.NewFactory(nil))
	converge(t, o, mgl64.Vec3{0, 0, 12000})

	full := 6 * 8000.0 * 8000.0
	require.InDelta(t, full, visibleArea(o), 1e-6)

	near := mgl64.Vec3{0, 0, 4010}
	for i := 0; i < maxTicks; i++ {
		require.NoError(t, o.Update(near))
		require.InDelta(t, full, visibleArea(o), 1e-6, "gap at tick %d", i)
		if !o.Busy() {
			break
		}
	}
	require.False(t, o.Busy())
}

func TestOrchestratorBusyGating(t *testing.T) {
	o := NewOrchestrator(testConfig(), tile.NewFactory(nil))
	require.NoError(t, o.Update(mgl64.Vec3{0, 0, 4010}))
	require.True(t, o.Busy())
	inFlight := sortedKeys(o.Scheduler().InFlight())
	pending := o.Scheduler().Pending()
	ready := countState(o.Scheduler().InFlight(), chunk.Ready)
	refinements := o.Refinements()

	// A new viewpoint while draining only advances the current cycle by one
	// step: the same entries stay in flight and no refinement happens.
	require.NoError(t, o.Update(mgl64.Vec3{4010, 0, 0}))
	require.Equal(t, inFlight, sortedKeys(o.Scheduler().InFlight()))
	require.Equal(t, pending+ready, o.Scheduler().Pending()+countState(o.Scheduler().InFlight(), chunk.Ready))
	require.Equal(t, refinements, o.Refinements())
	require.Empty(t, o.Entries())

	require.False(t, o.ForceFullRebuild())
	require.False(t, o.ApplyConfig(testConfig()))
}

func TestOrchestratorRejectsNonFiniteViewpoint(t *testing.T) {
	o := NewOrchestrator(testConfig(), tile.NewFactory(nil))
	converge(t, o, mgl64.Vec3{0, 12000, 0})
	before := keysOf(o.Entries())
	leaves := len(o.Leaves())

	for _, vp := range []mgl64.Vec3{
		{math.NaN(), 0, 0},
		{0, math.Inf(1), 0},
		{0, 0, math.Inf(-1)},
	} {
		err := o.Update(vp)
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeNonFiniteViewpoint))
		require.False(t, o.Busy())
		require.Equal(t, before, keysOf(o.Entries()))
		require.Len(t, o.Leaves(), leaves)
	}
	got, ok := o.Viewpoint()
	require.True(t, ok)
	require.Equal(t, mgl64.Vec3{0, 12000, 0}, got)
}

func TestOrchestratorForceFullRebuild(t *testing.T) {
	o := NewOrchestrator(testConfig(), tile.NewFactory(nil))
	vp := mgl64.Vec3{0, 0, 9000}
	converge(t, o, vp)
	before := o.Entries()
	require.NotEmpty(t, before)

	require.True(t, o.ForceFullRebuild())
	require.True(t, o.Busy())
	require.False(t, o.ForceFullRebuild())
	require.Len(t, o.Scheduler().InFlight(), 2*len(before))
	require.Len(t, o.Visible(), len(before))

	converge(t, o, vp)
	after := o.Entries()
	require.Equal(t, keysOf(before), keysOf(after))
	for i := range after {
		require.NotSame(t, before[i], after[i])
		require.Equal(t, chunk.Released, before[i].State)
		require.True(t, after[i].Tile.Visible())
	}
	// Released tiles went back to the pool.
	require.Equal(t, len(before), o.Scheduler().Pool().Len())
}

func TestOrchestratorApplyConfig(t *testing.T) {
	cfg := testConfig()
	o := NewOrchestrator(cfg, tile.NewFactory(nil))
	vp := mgl64.Vec3{0, 0, 9000}
	converge(t, o, vp)
	before := keysOf(o.Entries())

	// Render-only changes do not rebuild anything.
	render := cfg
	render.Render.FPSLimit = 30
	require.True(t, o.ApplyConfig(render))
	require.False(t, o.Busy())

	seeded := render
	seeded.Terrain.Seed = 99
	require.True(t, o.ApplyConfig(seeded))
	require.True(t, o.Busy())
	converge(t, o, vp)
	require.Equal(t, before, keysOf(o.Entries()))
	require.Equal(t, int64(99), o.Config().Terrain.Seed)

	// A coarser minimum size yields fewer tiles.
	coarse := seeded
	coarse.LOD.MinNodeSize = 2000
	require.True(t, o.ApplyConfig(coarse))
	converge(t, o, vp)
	require.Less(t, len(o.Entries()), len(before))
	for _, e := range o.Entries() {
		require.GreaterOrEqual(t, e.Spec.Width, 2000.0)
	}
}

func TestOrchestratorAsyncBuildMatchesSync(t *testing.T) {
	workers := meshing.NewWorkerPool(2, 16)
	defer workers.Shutdown()

	vp := mgl64.Vec3{3000, 3000, 3000}
	syncOrch := NewOrchestrator(testConfig(), tile.NewFactory(nil))
	asyncOrch := NewOrchestrator(testConfig(), tile.NewFactory(workers))
	converge(t, syncOrch, vp)
	converge(t, asyncOrch, vp)

	a, b := syncOrch.Entries(), asyncOrch.Entries()
	require.Equal(t, keysOf(a), keysOf(b))
	for i := range a {
		require.Equal(t, a[i].Tile.(*tile.Tile).Mesh().Positions, b[i].Tile.(*tile.Tile).Mesh().Positions)
	}
}

func TestOrchestratorStats(t *testing.T) {
	o := NewOrchestrator(testConfig(), tile.NewFactory(nil))
	converge(t, o, mgl64.Vec3{0, 0, 20000})
	s := o.Stats()
	require.False(t, s.Busy)
	require.Equal(t, s.Leaves, s.Live)
	require.Equal(t, s.Live, s.Visible)
	require.Zero(t, s.Pending)
}

// failingFactory wraps the real tile factory and fails every build of the
// tiles matching fail.
type failingFactory struct {
	inner    chunk.Factory
	fail     func(chunk.Spec) bool
	attempts map[chunk.Key]int
}

func (f *failingFactory) Allocate(spec chunk.Spec) chunk.Tile {
	return &failingTile{Tile: f.inner.Allocate(spec), factory: f, spec: spec}
}

type failingTile struct {
	chunk.Tile
	factory *failingFactory
	spec    chunk.Spec
}

func (t *failingTile) Reset(spec chunk.Spec) {
	t.Tile.Reset(spec)
	t.spec = spec
}

func (t *failingTile) Build() chunk.BuildTask {
	if t.factory.fail(t.spec) {
		t.factory.attempts[t.spec.Key]++
		return failedTask{}
	}
	return t.Tile.Build()
}

type failedTask struct{}

func (failedTask) Step() chunk.StepResult { return chunk.Failed }

func TestOrchestratorStopsRetryingFailedTiles(t *testing.T) {
	f := &failingFactory{
		inner: tile.NewFactory(nil),
		fail: func(s chunk.Spec) bool {
			return s.Face == cubesphere.FacePosZ && s.Width == 500
		},
		attempts: make(map[chunk.Key]int),
	}
	o := NewOrchestrator(testConfig(), f)
	converge(t, o, mgl64.Vec3{0, 0, 12000})
	full := 6 * 8000.0 * 8000.0
	require.InDelta(t, full, visibleArea(o), 1e-6)

	near := mgl64.Vec3{0, 0, 4010}
	idle := false
	for i := 0; i < maxTicks; i++ {
		require.NoError(t, o.Update(near))
		require.InDelta(t, full, visibleArea(o), 1e-6, "gap at tick %d", i)
		if !o.Busy() {
			idle = true
			break
		}
	}
	require.True(t, idle)

	// The failing keys are no longer requested.
	refinements := o.Refinements()
	require.NoError(t, o.Update(near))
	require.False(t, o.Busy())
	require.Equal(t, refinements+1, o.Refinements())

	require.NotEmpty(t, f.attempts)
	for k, n := range f.attempts {
		require.Equal(t, maxBuildAttempts, n, "attempts for %s", k)
	}
	for _, e := range o.Visible() {
		require.False(t, f.fail(e.Spec), "failed tile %s is shown", e.Key)
		require.Equal(t, chunk.Ready, e.State)
	}

	// The other faces still refined.
	require.Equal(t, 4, countFace(o.Entries(), cubesphere.FaceNegZ))

	// A terrain change forgets the failures and tries again.
	cfg := testConfig()
	cfg.Terrain.Seed = 7
	require.True(t, o.ApplyConfig(cfg))
	converge(t, o, near)
	for k, n := range f.attempts {
		require.Equal(t, 2*maxBuildAttempts, n, "attempts for %s", k)
	}
}

func countFace(entries []*chunk.Entry, face int) int {
	n := 0
	for _, e := range entries {
		if e.Key.Face == face {
			n++
		}
	}
	return n
}
