package chunk

import (
	"mini-planet/internal/noise"

	"github.com/go-gl/mathgl/mgl64"
)

// Spec describes the tile to build for one leaf.
type Spec struct {
	Key       Key
	Face      int
	Transform mgl64.Mat4
	// Offset is the leaf center in the face's local plane (z = 0).
	Offset     mgl64.Vec3
	Width      float64
	Radius     float64
	Resolution int
	Samplers   noise.Samplers
}

// StepResult reports the progress of a BuildTask.
type StepResult int

const (
	InProgress StepResult = iota
	Done
	Failed
)

// BuildTask is a resumable tile construction. Each Step performs one unit of
// work; the scheduler calls it once per tick until it stops returning InProgress.
type BuildTask interface {
	Step() StepResult
}

// Tile is a renderable terrain resource owned by a Factory.
type Tile interface {
	// Build returns a fresh task that rebuilds the tile's geometry.
	Build() BuildTask
	Show()
	Hide()
	Visible() bool
	// Destroy detaches the tile's geometry and resources.
	Destroy()
	// Reset prepares a destroyed tile for reuse with a new spec.
	Reset(spec Spec)
	Width() float64
}

// Factory allocates new tiles.
type Factory interface {
	Allocate(spec Spec) Tile
}

// State is the lifecycle state of an Entry.
type State int

const (
	Queued State = iota
	Building
	Ready
	Retiring
	Released
	BuildFailed
)

func (s State) String() string {
	switch s {
	case Queued:
		return "queued"
	case Building:
		return "building"
	case Ready:
		return "ready"
	case Retiring:
		return "retiring"
	case Released:
		return "released"
	case BuildFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Entry is a live tile tracked by the scheduler.
type Entry struct {
	Key   Key
	Spec  Spec
	Tile  Tile
	State State
}
