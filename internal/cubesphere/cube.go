package cubesphere

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Params configures a CubeQuadTree.
type Params struct {
	Radius      float64
	MinNodeSize float64
}

// Leaf is a face quadtree leaf together with the face it belongs to.
type Leaf struct {
	Face      int
	Transform mgl64.Mat4
	Bounds    Bounds
	// Center and Size are in the face's local plane.
	Center mgl64.Vec2
	Size   float64
	// WorldCenter and WorldSize are the local center and size pushed
	// through the face transform.
	WorldCenter mgl64.Vec3
	WorldSize   float64
}

// CubeQuadTree owns one FaceQuadTree per cube face.
type CubeQuadTree struct {
	params Params
	proj   *Projection
	faces  [FaceCount]*FaceQuadTree
}

// NewCubeQuadTree builds six undivided face trees.
func NewCubeQuadTree(params Params) *CubeQuadTree {
	proj := NewProjection(params.Radius)
	q := &CubeQuadTree{params: params, proj: proj}
	for i := range FaceCount {
		q.faces[i] = NewFaceQuadTree(proj, i, params.MinNodeSize)
	}
	return q
}

// Params returns the parameters the tree was built with.
func (q *CubeQuadTree) Params() Params {
	return q.params
}

// Projection returns the face transforms shared by all six trees.
func (q *CubeQuadTree) Projection() *Projection {
	return q.proj
}

// Face returns the tree of one face.
func (q *CubeQuadTree) Face(face int) *FaceQuadTree {
	return q.faces[face]
}

// Insert forwards p to every face; each face rebuilds independently.
func (q *CubeQuadTree) Insert(p mgl64.Vec3) {
	for _, f := range q.faces {
		f.Insert(p)
	}
}

// GetLeaves returns the leaves of all six faces in face order.
func (q *CubeQuadTree) GetLeaves() []Leaf {
	var out []Leaf
	for i, f := range q.faces {
		m := q.proj.Transform(i)
		for _, n := range f.GetLeaves() {
			lo := mgl64.TransformCoordinate(mgl64.Vec3{n.Bounds.Min.X(), n.Bounds.Min.Y(), 0}, m)
			hi := mgl64.TransformCoordinate(mgl64.Vec3{n.Bounds.Max.X(), n.Bounds.Min.Y(), 0}, m)
			out = append(out, Leaf{
				Face:        i,
				Transform:   m,
				Bounds:      n.Bounds,
				Center:      n.Center,
				Size:        n.Size,
				WorldCenter: mgl64.TransformCoordinate(mgl64.Vec3{n.Center.X(), n.Center.Y(), 0}, m),
				WorldSize:   hi.Sub(lo).Len(),
			})
		}
	}
	return out
}
