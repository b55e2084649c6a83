package meshing

import (
	"fmt"
	"math"

	"mini-planet/internal/chunk"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is an indexed triangle mesh in planet space. Positions, normals and
// colours hold three float32 per vertex.
type Mesh struct {
	Positions []float32
	Normals   []float32
	Colours   []float32
	Indices   []uint32
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// Empty reports whether the mesh has no triangles.
func (m *Mesh) Empty() bool {
	return len(m.Indices) == 0
}

// Phase is one step of a terrain mesh build.
type Phase int

const (
	PhasePositions Phase = iota
	PhaseIndices
	PhaseNormals
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhasePositions:
		return "positions"
	case PhaseIndices:
		return "indices"
	case PhaseNormals:
		return "normals"
	default:
		return "done"
	}
}

var white = mgl32.Vec3{1, 1, 1}

// TerrainBuilder generates the mesh of one tile in phases so the work can
// be spread across ticks.
type TerrainBuilder struct {
	spec  chunk.Spec
	phase Phase
	mesh  Mesh
	err   error
}

// NewTerrainBuilder prepares a build for spec.
func NewTerrainBuilder(spec chunk.Spec) *TerrainBuilder {
	b := &TerrainBuilder{spec: spec}
	if spec.Resolution < 1 {
		b.err = errors.New("tile resolution must be at least one").
			WithTag("key", spec.Key.String()).
			WithTag("resolution", spec.Resolution)
	}
	return b
}

// Phase returns the next phase to run.
func (b *TerrainBuilder) Phase() Phase {
	return b.phase
}

// Err returns the error that stopped the build, if any.
func (b *TerrainBuilder) Err() error {
	return b.err
}

// Mesh returns the finished mesh. It is only complete once Phase is PhaseDone.
func (b *TerrainBuilder) Mesh() Mesh {
	return b.mesh
}

// Step runs the current phase and reports whether the build is finished,
// either successfully or with an error.
func (b *TerrainBuilder) Step() bool {
	if b.err != nil || b.phase == PhaseDone {
		return true
	}
	switch b.phase {
	case PhasePositions:
		b.err = b.positions()
	case PhaseIndices:
		b.indices()
	case PhaseNormals:
		b.normals()
	}
	if b.err != nil {
		return true
	}
	b.phase++
	return b.phase == PhaseDone
}

// Run executes every remaining phase.
func (b *TerrainBuilder) Run() (Mesh, error) {
	for !b.Step() {
	}
	return b.mesh, b.err
}

// BuildTerrainMesh builds the complete mesh for spec in one call.
func BuildTerrainMesh(spec chunk.Spec) (Mesh, error) {
	return NewTerrainBuilder(spec).Run()
}

func (b *TerrainBuilder) positions() error {
	s := b.spec
	res := s.Resolution
	n := (res + 1) * (res + 1)
	half := s.Width / 2

	positions := make([]float32, 0, n*3)
	colours := make([]float32, 0, n*3)

	for x := 0; x <= res; x++ {
		xp := s.Width * float64(x) / float64(res)
		for y := 0; y <= res; y++ {
			yp := s.Width * float64(y) / float64(res)

			// Project the grid point onto the sphere in face-local space,
			// then move it to planet space.
			local := mgl64.Vec3{xp - half + s.Offset.X(), yp - half + s.Offset.Y(), s.Radius}
			local = local.Normalize().Mul(s.Radius)
			local[2] -= s.Radius
			world := mgl64.TransformCoordinate(local, s.Transform)

			height := s.Samplers.Height(world.X(), world.Y(), world.Z())
			if math.IsNaN(height) || math.IsInf(height, 0) {
				return errors.New("non-finite terrain height").
					WithTag("key", s.Key.String()).
					WithTag("vertex", fmt.Sprintf("%d,%d", x, y))
			}
			colour := white
			if s.Samplers.Colour != nil {
				colour = s.Samplers.Colour.Sample(world.X(), world.Y(), height)
			}

			p := world.Add(world.Normalize().Mul(height))
			positions = append(positions, float32(p.X()), float32(p.Y()), float32(p.Z()))
			colours = append(colours, colour.X(), colour.Y(), colour.Z())
		}
	}

	b.mesh.Positions = positions
	b.mesh.Colours = colours
	return nil
}

func (b *TerrainBuilder) indices() {
	res := b.spec.Resolution
	row := uint32(res + 1)
	indices := make([]uint32, 0, res*res*6)
	for i := uint32(0); i < uint32(res); i++ {
		for j := uint32(0); j < uint32(res); j++ {
			indices = append(indices,
				i*row+j, (i+1)*row+j+1, i*row+j+1,
				(i+1)*row+j, (i+1)*row+j+1, i*row+j,
			)
		}
	}
	b.mesh.Indices = indices
}

// normals averages the face normals around every vertex.
func (b *TerrainBuilder) normals() {
	pos := b.mesh.Positions
	acc := make([]mgl32.Vec3, len(pos)/3)
	vertex := func(i uint32) mgl32.Vec3 {
		return mgl32.Vec3{pos[i*3], pos[i*3+1], pos[i*3+2]}
	}

	idx := b.mesh.Indices
	for t := 0; t+2 < len(idx); t += 3 {
		a, c, d := idx[t], idx[t+1], idx[t+2]
		pa, pc, pd := vertex(a), vertex(c), vertex(d)
		n := pd.Sub(pc).Cross(pa.Sub(pc))
		acc[a] = acc[a].Add(n)
		acc[c] = acc[c].Add(n)
		acc[d] = acc[d].Add(n)
	}

	normals := make([]float32, 0, len(pos))
	for _, n := range acc {
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		normals = append(normals, n.X(), n.Y(), n.Z())
	}
	b.mesh.Normals = normals
}
