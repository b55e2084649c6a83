package tile

import (
	"math"
	"testing"
	"time"

	"mini-planet/internal/chunk"
	"mini-planet/internal/cubesphere"
	"mini-planet/internal/meshing"
	"mini-planet/internal/noise"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func testSpec(height float64) chunk.Spec {
	proj := cubesphere.NewProjection(4000)
	return chunk.Spec{
		Key:        chunk.NewKey(cubesphere.FacePosZ, mgl64.Vec2{}, 1000),
		Face:       cubesphere.FacePosZ,
		Transform:  proj.Transform(cubesphere.FacePosZ),
		Width:      1000,
		Radius:     4000,
		Resolution: 4,
		Samplers: noise.Samplers{
			Heights: []noise.HeightSampler{noise.Fixed{Height: height, Weight: 1}},
		},
	}
}

func runTask(t *testing.T, task chunk.BuildTask) (chunk.StepResult, int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for steps := 1; ; steps++ {
		if res := task.Step(); res != chunk.InProgress {
			return res, steps
		}
		require.True(t, time.Now().Before(deadline), "build did not finish")
		if steps > 3 {
			time.Sleep(time.Millisecond)
		}
	}
}

func TestTileStepBuild(t *testing.T) {
	tl := NewFactory(nil).Allocate(testSpec(0)).(*Tile)
	require.True(t, tl.Mesh().Empty())
	require.False(t, tl.Visible())

	res, steps := runTask(t, tl.Build())
	require.Equal(t, chunk.Done, res)
	require.Equal(t, 3, steps)
	require.Equal(t, 25, tl.Mesh().VertexCount())
	require.Equal(t, uint64(1), tl.Version())
}

func TestTileDestroyAndReset(t *testing.T) {
	tl := NewFactory(nil).Allocate(testSpec(0)).(*Tile)
	runTask(t, tl.Build())
	tl.Show()

	tl.Destroy()
	require.True(t, tl.Destroyed())
	require.True(t, tl.Mesh().Empty())
	require.Equal(t, uint64(2), tl.Version())

	next := testSpec(10)
	next.Key = chunk.NewKey(cubesphere.FacePosZ, mgl64.Vec2{1000, 0}, 1000)
	tl.Reset(next)
	require.False(t, tl.Visible())
	require.Equal(t, next.Key, tl.Spec().Key)

	res, _ := runTask(t, tl.Build())
	require.Equal(t, chunk.Done, res)
	require.False(t, tl.Destroyed())
	require.Equal(t, 1000.0, tl.Width())
}

func TestTileBuildFailure(t *testing.T) {
	tl := NewFactory(nil).Allocate(testSpec(math.Inf(1))).(*Tile)
	res, _ := runTask(t, tl.Build())
	require.Equal(t, chunk.Failed, res)
	require.True(t, tl.Mesh().Empty())
	require.Zero(t, tl.Version())
}

func TestTileAsyncBuild(t *testing.T) {
	workers := meshing.NewWorkerPool(1, 4)
	defer workers.Shutdown()

	tl := NewFactory(workers).Allocate(testSpec(5)).(*Tile)
	res, steps := runTask(t, tl.Build())
	require.Equal(t, chunk.Done, res)
	require.GreaterOrEqual(t, steps, 2)
	require.Equal(t, 25, tl.Mesh().VertexCount())
}

func TestTileAsyncFallsBackWhenPoolStopped(t *testing.T) {
	workers := meshing.NewWorkerPool(1, 1)
	workers.Shutdown()

	tl := NewFactory(workers).Allocate(testSpec(0)).(*Tile)
	res, steps := runTask(t, tl.Build())
	require.Equal(t, chunk.Done, res)
	require.Equal(t, 3, steps)
}

func TestTilesHaveDistinctIDs(t *testing.T) {
	f := NewFactory(nil)
	a := f.Allocate(testSpec(0)).(*Tile)
	b := f.Allocate(testSpec(0)).(*Tile)
	require.NotEqual(t, a.ID(), b.ID())
}
