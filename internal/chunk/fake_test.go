package chunk

import (
	"github.com/go-gl/mathgl/mgl64"
)

type fakeTile struct {
	id        int
	spec      Spec
	steps     int
	fail      bool
	visible   bool
	destroyed bool
	resets    int
	builds    int
}

func (t *fakeTile) Build() BuildTask {
	t.builds++
	t.destroyed = false
	return &fakeTask{left: t.steps, fail: t.fail}
}

func (t *fakeTile) Show()          { t.visible = true }
func (t *fakeTile) Hide()          { t.visible = false }
func (t *fakeTile) Visible() bool  { return t.visible }
func (t *fakeTile) Destroy()       { t.destroyed = true }
func (t *fakeTile) Width() float64 { return t.spec.Width }

func (t *fakeTile) Reset(spec Spec) {
	t.spec = spec
	t.resets++
}

type fakeTask struct {
	left int
	fail bool
}

func (f *fakeTask) Step() StepResult {
	f.left--
	if f.left > 0 {
		return InProgress
	}
	if f.fail {
		return Failed
	}
	return Done
}

type fakeFactory struct {
	steps     int
	failKeys  map[Key]bool
	allocated []*fakeTile
}

func (f *fakeFactory) Allocate(spec Spec) Tile {
	t := &fakeTile{
		id:    len(f.allocated),
		spec:  spec,
		steps: f.steps,
		fail:  f.failKeys[spec.Key],
	}
	f.allocated = append(f.allocated, t)
	return t
}

func testSpec(face int, x, y, size float64) Spec {
	return Spec{
		Key:        NewKey(face, mgl64.Vec2{x, y}, size),
		Face:       face,
		Offset:     mgl64.Vec3{x, y, 0},
		Width:      size,
		Radius:     4000,
		Resolution: 4,
	}
}

func specMap(specs ...Spec) map[Key]Spec {
	out := make(map[Key]Spec, len(specs))
	for _, s := range specs {
		out[s.Key] = s
	}
	return out
}

func drain(s *Scheduler, max int) int {
	n := 0
	for s.Busy() && n < max {
		s.Step()
		n++
	}
	return n
}
