package tile

import (
	"sync/atomic"

	"mini-planet/internal/chunk"
	"mini-planet/internal/meshing"
	"mini-planet/internal/profiling"

	"github.com/aukilabs/go-tooling/pkg/logs"
)

var nextID atomic.Uint64

// Tile is a terrain patch whose geometry lives in CPU memory. Renderers
// upload it when Version changes.
type Tile struct {
	id        uint64
	spec      chunk.Spec
	mesh      meshing.Mesh
	visible   bool
	destroyed bool
	version   uint64
	workers   *meshing.WorkerPool
}

func newTile(spec chunk.Spec, workers *meshing.WorkerPool) *Tile {
	return &Tile{
		id:      nextID.Add(1),
		spec:    spec,
		workers: workers,
	}
}

// ID uniquely identifies the tile for the lifetime of the process.
func (t *Tile) ID() uint64 { return t.id }

// Spec returns the spec the tile is built from.
func (t *Tile) Spec() chunk.Spec { return t.spec }

// Mesh returns the current geometry. It is empty until a build finishes.
func (t *Tile) Mesh() *meshing.Mesh { return &t.mesh }

// Version increases every time the geometry changes.
func (t *Tile) Version() uint64 { return t.version }

// Destroyed reports whether the geometry has been released.
func (t *Tile) Destroyed() bool { return t.destroyed }

func (t *Tile) Show()          { t.visible = true }
func (t *Tile) Hide()          { t.visible = false }
func (t *Tile) Visible() bool  { return t.visible }
func (t *Tile) Width() float64 { return t.spec.Width }

// Destroy drops the geometry. The tile can be reused after Reset.
func (t *Tile) Destroy() {
	t.mesh = meshing.Mesh{}
	t.destroyed = true
	t.version++
}

// Reset assigns a new spec to a destroyed tile.
func (t *Tile) Reset(spec chunk.Spec) {
	t.spec = spec
	t.visible = false
}

// Build returns a task that regenerates the geometry, on the worker pool
// when the tile has one and on the calling goroutine otherwise.
func (t *Tile) Build() chunk.BuildTask {
	if t.workers != nil {
		return &asyncBuild{tile: t}
	}
	return &stepBuild{tile: t, builder: meshing.NewTerrainBuilder(t.spec)}
}

func (t *Tile) finish(m meshing.Mesh, err error) chunk.StepResult {
	if err != nil {
		logs.WithTag("key", t.spec.Key.String()).
			WithTag("tile", t.id).
			Error(err)
		return chunk.Failed
	}
	t.mesh = m
	t.destroyed = false
	t.version++
	return chunk.Done
}

// stepBuild runs one mesh phase per step.
type stepBuild struct {
	tile    *Tile
	builder *meshing.TerrainBuilder
}

func (b *stepBuild) Step() chunk.StepResult {
	defer profiling.Track("tile.build." + b.builder.Phase().String())()

	if !b.builder.Step() {
		return chunk.InProgress
	}
	return b.tile.finish(b.builder.Mesh(), b.builder.Err())
}

// asyncBuild submits the mesh to the worker pool and polls for the result.
// It falls back to stepping the build locally when the queue is full.
type asyncBuild struct {
	tile     *Tile
	results  chan meshing.MeshResult
	fallback *stepBuild
}

func (b *asyncBuild) Step() chunk.StepResult {
	if b.fallback != nil {
		return b.fallback.Step()
	}
	if b.results == nil {
		results := make(chan meshing.MeshResult, 1)
		if !b.tile.workers.SubmitJob(meshing.MeshJob{Spec: b.tile.spec, ResultChan: results}) {
			logs.WithTag("key", b.tile.spec.Key.String()).Debug("mesh queue full, building on the update loop")
			b.fallback = &stepBuild{tile: b.tile, builder: meshing.NewTerrainBuilder(b.tile.spec)}
			return b.fallback.Step()
		}
		b.results = results
		return chunk.InProgress
	}

	select {
	case r := <-b.results:
		return b.tile.finish(r.Mesh, r.Error)
	default:
		return chunk.InProgress
	}
}

// Factory allocates CPU mesh tiles.
type Factory struct {
	workers *meshing.WorkerPool
}

// NewFactory creates a factory. When workers is not nil, tile builds run on it.
func NewFactory(workers *meshing.WorkerPool) *Factory {
	return &Factory{workers: workers}
}

func (f *Factory) Allocate(spec chunk.Spec) chunk.Tile {
	return newTile(spec, f.workers)
}
