package chunk

import (
	"mini-planet/internal/profiling"

	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Scheduler turns build and retire requests into visible tiles one build
// step per tick. A batch of new tiles only becomes visible, and the tiles it
// replaces only get released, once every build of the batch has finished.
// Tiles whose replacement failed to build stay up.
type Scheduler struct {
	factory   Factory
	pool      *Pool
	poolTiles bool

	draining bool
	steps    int

	queue    []*Entry
	active   *Entry
	task     BuildTask
	built    []*Entry
	retire   []*Entry
	failed   []Key
	results  []*Entry
	failures []Key
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPooling controls whether released tiles go back to the reuse pool
// (the default) or are dropped after Destroy.
func WithPooling(enabled bool) Option {
	return func(s *Scheduler) {
		s.poolTiles = enabled
	}
}

// WithPool makes the scheduler share an existing pool.
func WithPool(p *Pool) Option {
	return func(s *Scheduler) {
		s.pool = p
	}
}

// NewScheduler creates an idle scheduler allocating tiles from factory.
func NewScheduler(factory Factory, opts ...Option) *Scheduler {
	s := &Scheduler{
		factory:   factory,
		poolTiles: true,
	}
	for _, o := range opts {
		o(s)
	}
	if s.pool == nil {
		s.pool = NewPool()
	}
	return s
}

// Busy reports whether a drain cycle is in progress.
func (s *Scheduler) Busy() bool {
	return s.draining
}

// IsIdle reports whether the scheduler accepts new work.
func (s *Scheduler) IsIdle() bool {
	return !s.draining
}

// Pool returns the reuse pool.
func (s *Scheduler) Pool() *Pool {
	return s.pool
}

// Pending returns the number of builds not yet finished in the current cycle.
func (s *Scheduler) Pending() int {
	n := len(s.queue)
	if s.active != nil {
		n++
	}
	return n
}

// Enqueue starts a drain cycle. It is ignored and returns false while a
// cycle is already in progress. An empty request leaves the scheduler idle.
func (s *Scheduler) Enqueue(toBuild []Spec, toRetire []*Entry) bool {
	if s.draining {
		logs.WithTag("to_build", len(toBuild)).
			WithTag("to_retire", len(toRetire)).
			Debug("enqueue ignored while draining")
		return false
	}
	if len(toBuild) == 0 && len(toRetire) == 0 {
		return true
	}

	s.draining = true
	s.steps = 0
	for _, e := range toRetire {
		e.State = Retiring
	}
	s.retire = append(s.retire, toRetire...)

	for _, spec := range toBuild {
		s.queue = append(s.queue, &Entry{
			Key:   spec.Key,
			Spec:  spec,
			Tile:  s.allocate(spec),
			State: Queued,
		})
	}
	buildQueueDepth.Set(float64(len(s.queue)))

	logs.WithTag("to_build", len(toBuild)).
		WithTag("to_retire", len(toRetire)).
		WithTag("pooled", s.pool.Len()).
		Debug("drain cycle started")
	return true
}

// ForceFullRebuild rebuilds every entry in current: each one is queued for a
// fresh build and retired once the replacements are ready.
func (s *Scheduler) ForceFullRebuild(current []*Entry) bool {
	if s.draining {
		return false
	}
	specs := make([]Spec, 0, len(current))
	for _, e := range current {
		specs = append(specs, e.Spec)
	}
	return s.Enqueue(specs, current)
}

func (s *Scheduler) allocate(spec Spec) Tile {
	if t, ok := s.pool.Take(spec.Width); ok {
		t.Reset(spec)
		t.Hide()
		instrumentAllocation(true)
		return t
	}
	t := s.factory.Allocate(spec)
	t.Hide()
	instrumentAllocation(false)
	return t
}

// Step advances the current build by one unit of work and finishes the
// drain cycle once nothing is left to build.
func (s *Scheduler) Step() {
	if !s.draining {
		return
	}
	defer profiling.Track("chunk.Scheduler.Step")()
	s.steps++

	if s.task == nil {
		s.startNext()
	}
	if s.task != nil {
		res := s.task.Step()
		if res != InProgress {
			s.finishActive(res)
			s.startNext()
		}
	}

	if s.task == nil && len(s.queue) == 0 {
		s.finishCycle()
	}
}

func (s *Scheduler) startNext() {
	if len(s.queue) == 0 {
		return
	}
	e := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	buildQueueDepth.Set(float64(len(s.queue)))

	e.State = Building
	s.active = e
	s.task = e.Tile.Build()
}

func (s *Scheduler) finishActive(res StepResult) {
	e := s.active
	s.active, s.task = nil, nil
	instrumentBuild(res)

	if res == Failed {
		e.State = BuildFailed
		e.Tile.Destroy()
		s.failed = append(s.failed, e.Key)
		logs.WithTag("key", e.Key.String()).Warn("tile build failed, keeping the tiles it replaces")
		return
	}
	e.State = Ready
	s.built = append(s.built, e)
}

// finishCycle releases every retiring tile and then shows every newly built
// tile in the same tick. Retiring tiles overlapping a failed build are kept,
// together with the built tiles that would have covered them.
func (s *Scheduler) finishCycle() {
	heldBuild, heldRetire := Hold(s.failed, entryKeys(s.built), entryKeys(s.retire))

	released := 0
	for i, e := range s.retire {
		if heldRetire[i] {
			e.State = Ready
			s.results = append(s.results, e)
			continue
		}
		s.release(e)
		released++
	}
	for i, e := range s.built {
		if heldBuild[i] {
			s.release(e)
			continue
		}
		e.Tile.Show()
		s.results = append(s.results, e)
	}

	instrumentDrain(s.steps, released, s.pool.Len())
	logs.WithTag("built", len(s.built)-len(heldBuild)).
		WithTag("retired", released).
		WithTag("failed", len(s.failed)).
		WithTag("kept", len(heldRetire)).
		WithTag("steps", s.steps).
		Debug("drain cycle finished")

	s.failures = append(s.failures, s.failed...)
	s.failed = nil
	s.built = nil
	s.retire = nil
	s.queue = nil
	s.draining = false
}

func (s *Scheduler) release(e *Entry) {
	e.Tile.Hide()
	e.Tile.Destroy()
	e.State = Released
	if s.poolTiles {
		s.pool.Put(e.Tile)
	}
}

// TakeFailed returns the keys whose builds failed in finished drain cycles
// since the last call.
func (s *Scheduler) TakeFailed() []Key {
	out := s.failures
	s.failures = nil
	return out
}

// TakeCompleted returns the entries made visible by finished drain cycles
// since the last call, including retiring entries kept after a failed build.
func (s *Scheduler) TakeCompleted() []*Entry {
	out := s.results
	s.results = nil
	return out
}

// InFlight returns every entry the current drain cycle owns: the tiles being
// retired, the built ones waiting to be shown and the ones still to build.
func (s *Scheduler) InFlight() []*Entry {
	out := make([]*Entry, 0, len(s.retire)+len(s.built)+len(s.queue)+1)
	out = append(out, s.retire...)
	out = append(out, s.built...)
	if s.active != nil {
		out = append(out, s.active)
	}
	out = append(out, s.queue...)
	return out
}
