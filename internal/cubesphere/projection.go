package cubesphere

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// FaceCount is the number of cube faces projected onto the sphere.
const FaceCount = 6

// Face indices, in the order the projection builds them.
const (
	FacePosY = iota
	FaceNegY
	FacePosX
	FaceNegX
	FacePosZ
	FaceNegZ
)

var faceNames = [FaceCount]string{"+Y", "-Y", "+X", "-X", "+Z", "-Z"}

// FaceName returns a short label such as "+Z" for a face index.
func FaceName(face int) string {
	if face < 0 || face >= FaceCount {
		return "?"
	}
	return faceNames[face]
}

// Projection holds the six rigid transforms that map a face's local plane
// onto the cube surrounding a sphere of the given radius.
//
// Each face spans [-radius, radius] in its local plane and sits radius along
// its outward normal, so the six faces meet along the edges of the cube that
// circumscribes the sphere.
type Projection struct {
	radius  float64
	toWorld [FaceCount]mgl64.Mat4
	toLocal [FaceCount]mgl64.Mat4
}

// NewProjection builds the six face transforms for a sphere of radius r.
func NewProjection(radius float64) *Projection {
	p := &Projection{radius: radius}
	h := radius

	rotations := [FaceCount]mgl64.Mat4{
		mgl64.HomogRotate3DX(-math.Pi / 2),
		mgl64.HomogRotate3DX(math.Pi / 2),
		mgl64.HomogRotate3DY(math.Pi / 2),
		mgl64.HomogRotate3DY(-math.Pi / 2),
		mgl64.Ident4(),
		mgl64.HomogRotate3DY(math.Pi),
	}
	normals := [FaceCount]mgl64.Vec3{
		{0, 1, 0},
		{0, -1, 0},
		{1, 0, 0},
		{-1, 0, 0},
		{0, 0, 1},
		{0, 0, -1},
	}

	for i := range FaceCount {
		n := normals[i].Mul(h)
		m := mgl64.Translate3D(n.X(), n.Y(), n.Z()).Mul4(rotations[i])
		p.toWorld[i] = m
		p.toLocal[i] = m.Inv()
	}
	return p
}

// Radius returns the sphere radius the projection was built for.
func (p *Projection) Radius() float64 {
	return p.radius
}

// FaceExtent is the edge length of a face's root node.
func (p *Projection) FaceExtent() float64 {
	return 2 * p.radius
}

// Transform returns the local-to-world matrix of a face.
func (p *Projection) Transform(face int) mgl64.Mat4 {
	return p.toWorld[face]
}

// Inverse returns the world-to-local matrix of a face.
func (p *Projection) Inverse(face int) mgl64.Mat4 {
	return p.toLocal[face]
}

// ToWorld maps a point of the face's local plane (z = 0) to world space on the cube.
func (p *Projection) ToWorld(face int, local mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(local, p.toWorld[face])
}

// ToLocal maps a world-space point into the face's local frame.
func (p *Projection) ToLocal(face int, world mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(world, p.toLocal[face])
}

// ToSphere maps a local point through the face transform, normalizes it and
// scales it to the sphere radius.
func (p *Projection) ToSphere(face int, local mgl64.Vec3) mgl64.Vec3 {
	return p.ToWorld(face, local).Normalize().Mul(p.radius)
}
