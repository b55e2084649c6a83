package terrain

import (
	"math"
	"sort"

	"mini-planet/internal/chunk"
	"mini-planet/internal/config"
	"mini-planet/internal/cubesphere"
	"mini-planet/internal/noise"
	"mini-planet/internal/profiling"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	ErrTypeNonFiniteViewpoint = "non-finite-viewpoint"
)

// maxBuildAttempts is how many times a tile key may fail to build before
// the orchestrator stops requesting it.
const maxBuildAttempts = 3

// Orchestrator keeps the tile set of a planet in step with a moving
// viewpoint. Update is meant to be called once per tick from a single
// goroutine.
type Orchestrator struct {
	cfg       config.Config
	factory   chunk.Factory
	tree      *cubesphere.CubeQuadTree
	samplers  noise.Samplers
	scheduler *chunk.Scheduler

	live         map[chunk.Key]*chunk.Entry
	failures     map[chunk.Key]int
	leaves       []cubesphere.Leaf
	refinements  uint64
	viewpoint    mgl64.Vec3
	hasViewpoint bool
}

// NewOrchestrator creates an orchestrator with an empty tile set. Tiles
// appear over the ticks following the first Update.
func NewOrchestrator(cfg config.Config, factory chunk.Factory) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		factory:   factory,
		tree:      newTree(cfg),
		samplers:  NewSamplers(cfg),
		scheduler: chunk.NewScheduler(factory, chunk.WithPooling(cfg.LOD.PoolTiles)),
		live:      make(map[chunk.Key]*chunk.Entry),
		failures:  make(map[chunk.Key]int),
	}
}

func newTree(cfg config.Config) *cubesphere.CubeQuadTree {
	return cubesphere.NewCubeQuadTree(cubesphere.Params{
		Radius:      cfg.Planet.Radius,
		MinNodeSize: cfg.LOD.MinNodeSize,
	})
}

// NewSamplers builds the height and colour generators described by cfg.
func NewSamplers(cfg config.Config) noise.Samplers {
	heights := noise.NewHeightGenerator(noise.NewFractal(cfg.Terrain))
	biome := &noise.Biome{Fractal: noise.NewFractal(cfg.Biome)}
	return noise.Samplers{
		Heights: []noise.HeightSampler{heights},
		Colour:  noise.NewHypsometricTints(biome),
	}
}

// Update advances the scheduler by one step and, once it is idle, refines
// the quadtree around viewpoint and enqueues the resulting tile changes.
// A viewpoint with a NaN or infinite component is rejected and nothing
// changes.
func (o *Orchestrator) Update(viewpoint mgl64.Vec3) error {
	if !finite(viewpoint) {
		err := errors.New("non-finite viewpoint").
			WithType(ErrTypeNonFiniteViewpoint).
			WithTag("x", viewpoint.X()).
			WithTag("y", viewpoint.Y()).
			WithTag("z", viewpoint.Z())
		logs.Warn(err)
		return err
	}
	defer profiling.Track("terrain.Orchestrator.Update")()

	o.viewpoint = viewpoint
	o.hasViewpoint = true

	o.scheduler.Step()
	if o.scheduler.Busy() {
		return nil
	}
	o.collect()

	target := o.refine(viewpoint)
	diff := o.withoutBlocked(chunk.Diff(o.live, target))
	if len(diff.ToBuild) == 0 && len(diff.ToRetire) == 0 {
		return nil
	}
	if o.scheduler.Enqueue(diff.ToBuild, diff.ToRetire) {
		o.live = diff.Kept
		logs.WithTag("build", len(diff.ToBuild)).
			WithTag("retire", len(diff.ToRetire)).
			WithTag("kept", len(diff.Kept)).
			Debug("terrain update enqueued")
	}
	return nil
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// collect moves the tiles shown by finished drain cycles into the live set
// and counts the failed builds per key.
func (o *Orchestrator) collect() {
	for _, e := range o.scheduler.TakeCompleted() {
		o.live[e.Key] = e
	}
	for _, k := range o.scheduler.TakeFailed() {
		o.failures[k]++
		if o.failures[k] == maxBuildAttempts {
			logs.WithTag("key", k.String()).
				WithTag("attempts", maxBuildAttempts).
				Warn("tile keeps failing to build, no longer requesting it")
		}
	}
}

// withoutBlocked removes from diff the builds of keys that failed too often,
// together with the retirements and builds that depend on them, so the
// tiles currently covering those areas stay live.
func (o *Orchestrator) withoutBlocked(diff chunk.DiffResult) chunk.DiffResult {
	var blocked []chunk.Key
	build := make([]chunk.Key, len(diff.ToBuild))
	for i, s := range diff.ToBuild {
		build[i] = s.Key
		if o.failures[s.Key] >= maxBuildAttempts {
			blocked = append(blocked, s.Key)
		}
	}
	if len(blocked) == 0 {
		return diff
	}

	retire := make([]chunk.Key, len(diff.ToRetire))
	for i, e := range diff.ToRetire {
		retire[i] = e.Key
	}
	heldBuild, heldRetire := chunk.Hold(blocked, build, retire)

	out := chunk.DiffResult{Kept: diff.Kept}
	for i, s := range diff.ToBuild {
		if !heldBuild[i] && o.failures[s.Key] < maxBuildAttempts {
			out.ToBuild = append(out.ToBuild, s)
		}
	}
	for i, e := range diff.ToRetire {
		if heldRetire[i] {
			out.Kept[e.Key] = e
			continue
		}
		out.ToRetire = append(out.ToRetire, e)
	}
	return out
}

// refine rebuilds the tree around viewpoint and returns the tile specs of
// its leaves.
func (o *Orchestrator) refine(viewpoint mgl64.Vec3) map[chunk.Key]chunk.Spec {
	o.tree.Insert(viewpoint)
	o.leaves = o.tree.GetLeaves()
	o.refinements++

	target := make(map[chunk.Key]chunk.Spec, len(o.leaves))
	for _, l := range o.leaves {
		s := o.specFor(l)
		target[s.Key] = s
	}
	return target
}

func (o *Orchestrator) specFor(l cubesphere.Leaf) chunk.Spec {
	return chunk.Spec{
		Key:        chunk.NewKey(l.Face, l.Center, l.Size),
		Face:       l.Face,
		Transform:  l.Transform,
		Offset:     mgl64.Vec3{l.Center.X(), l.Center.Y(), 0},
		Width:      l.Size,
		Radius:     o.cfg.Planet.Radius,
		Resolution: o.cfg.LOD.Resolution,
		Samplers:   o.samplers,
	}
}

// ForceFullRebuild rebuilds every live tile from scratch. The current tiles
// stay visible until all replacements are ready. It returns false, doing
// nothing, while a drain cycle is in progress.
func (o *Orchestrator) ForceFullRebuild() bool {
	if o.scheduler.Busy() {
		logs.Debug("full rebuild ignored while draining")
		return false
	}
	o.collect()

	current := o.Entries()
	if !o.scheduler.ForceFullRebuild(current) {
		return false
	}
	if len(current) > 0 {
		o.live = make(map[chunk.Key]*chunk.Entry)
	}
	logs.WithTag("tiles", len(current)).Info("full terrain rebuild")
	return true
}

// ApplyConfig switches to cfg. When the terrain changes, every live tile
// is rebuilt with the new parameters the same way ForceFullRebuild does.
// It returns false, doing nothing, while a drain cycle is in progress.
func (o *Orchestrator) ApplyConfig(cfg config.Config) bool {
	if o.scheduler.Busy() {
		logs.Debug("config change ignored while draining")
		return false
	}
	o.collect()

	old := o.cfg
	o.cfg = cfg
	if old.LOD.PoolTiles != cfg.LOD.PoolTiles {
		pool := o.scheduler.Pool()
		if !cfg.LOD.PoolTiles {
			pool.Drain()
		}
		o.scheduler = chunk.NewScheduler(o.factory,
			chunk.WithPooling(cfg.LOD.PoolTiles),
			chunk.WithPool(pool),
		)
	}
	if !old.TerrainDiffers(cfg) {
		return true
	}

	o.tree = newTree(cfg)
	o.samplers = NewSamplers(cfg)
	o.leaves = nil
	o.failures = make(map[chunk.Key]int)

	retire := o.Entries()
	var build []chunk.Spec
	if o.hasViewpoint {
		target := o.refine(o.viewpoint)
		build = make([]chunk.Spec, 0, len(target))
		for _, s := range target {
			build = append(build, s)
		}
		sort.Slice(build, func(i, j int) bool { return build[i].Key.Less(build[j].Key) })
	}

	if !o.scheduler.Enqueue(build, retire) {
		return false
	}
	o.live = make(map[chunk.Key]*chunk.Entry)
	logs.WithTag("build", len(build)).
		WithTag("retire", len(retire)).
		Info("terrain config applied")
	return true
}

// Config returns the config in use.
func (o *Orchestrator) Config() config.Config {
	return o.cfg
}

// Busy reports whether a drain cycle is in progress.
func (o *Orchestrator) Busy() bool {
	return o.scheduler.Busy()
}

// Scheduler returns the scheduler driving the tile builds.
func (o *Orchestrator) Scheduler() *chunk.Scheduler {
	return o.scheduler
}

// Viewpoint returns the last accepted viewpoint.
func (o *Orchestrator) Viewpoint() (mgl64.Vec3, bool) {
	return o.viewpoint, o.hasViewpoint
}

// Leaves returns the quadtree leaves computed by the last refinement.
func (o *Orchestrator) Leaves() []cubesphere.Leaf {
	return o.leaves
}

// Refinements counts how many times the leaves were recomputed.
func (o *Orchestrator) Refinements() uint64 {
	return o.refinements
}

// Entries returns the live tile set ordered by key. Tiles of a drain cycle
// in progress are not included.
func (o *Orchestrator) Entries() []*chunk.Entry {
	out := make([]*chunk.Entry, 0, len(o.live))
	for _, e := range o.live {
		out = append(out, e)
	}
	sortEntries(out)
	return out
}

// Visible returns every tile currently shown, including tiles that are
// being retired but are still displayed, ordered by key.
func (o *Orchestrator) Visible() []*chunk.Entry {
	var out []*chunk.Entry
	for _, e := range o.live {
		if e.Tile.Visible() {
			out = append(out, e)
		}
	}
	for _, e := range o.scheduler.InFlight() {
		if e.Tile.Visible() {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out
}

func sortEntries(entries []*chunk.Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key.Less(entries[j].Key) })
}

// Stats summarizes the orchestrator state.
type Stats struct {
	Leaves  int  `json:"leaves"`
	Live    int  `json:"live"`
	Visible int  `json:"visible"`
	Pending int  `json:"pending"`
	Pooled  int  `json:"pooled"`
	Busy    bool `json:"busy"`
}

func (o *Orchestrator) Stats() Stats {
	return Stats{
		Leaves:  len(o.leaves),
		Live:    len(o.live),
		Visible: len(o.Visible()),
		Pending: o.scheduler.Pending(),
		Pooled:  o.scheduler.Pool().Len(),
		Busy:    o.scheduler.Busy(),
	}
}
