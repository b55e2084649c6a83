package cubesphere

import (
	"github.com/go-gl/mathgl/mgl64"
)

// SplitFactor scales a node's size into the distance below which it subdivides.
const SplitFactor = 1.25

// Bounds is an axis-aligned rectangle in a face's local plane.
type Bounds struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// Center returns the planar midpoint of b.
func (b Bounds) Center() mgl64.Vec2 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the edge length of b along x.
func (b Bounds) Size() float64 {
	return b.Max.X() - b.Min.X()
}

// Area returns the area covered by b.
func (b Bounds) Area() float64 {
	return (b.Max.X() - b.Min.X()) * (b.Max.Y() - b.Min.Y())
}

// QuadNode is one node of a face quadtree. Children are owned by value and
// hold either zero or four entries.
type QuadNode struct {
	Bounds       Bounds
	Center       mgl64.Vec2
	Size         float64
	SphereCenter mgl64.Vec3
	Children     []QuadNode
}

// IsLeaf reports whether the node has no children.
func (n *QuadNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// FaceQuadTree is the adaptive partition of one cube face.
type FaceQuadTree struct {
	face        int
	proj        *Projection
	minNodeSize float64
	root        QuadNode
}

// NewFaceQuadTree creates an undivided tree for the given face.
func NewFaceQuadTree(proj *Projection, face int, minNodeSize float64) *FaceQuadTree {
	t := &FaceQuadTree{
		face:        face,
		proj:        proj,
		minNodeSize: minNodeSize,
	}
	t.reset()
	return t
}

// Face returns the face index the tree partitions.
func (t *FaceQuadTree) Face() int {
	return t.face
}

// Root returns the root node of the last insertion.
func (t *FaceQuadTree) Root() *QuadNode {
	return &t.root
}

func (t *FaceQuadTree) reset() {
	s := t.proj.FaceExtent() / 2
	t.root = t.newNode(Bounds{
		Min: mgl64.Vec2{-s, -s},
		Max: mgl64.Vec2{s, s},
	})
}

func (t *FaceQuadTree) newNode(b Bounds) QuadNode {
	c := b.Center()
	return QuadNode{
		Bounds:       b,
		Center:       c,
		Size:         b.Size(),
		SphereCenter: t.proj.ToSphere(t.face, mgl64.Vec3{c.X(), c.Y(), 0}),
	}
}

// Insert rebuilds the tree from an empty root and refines it around p.
func (t *FaceQuadTree) Insert(p mgl64.Vec3) {
	t.reset()
	t.insert(&t.root, p)
}

func (t *FaceQuadTree) insert(n *QuadNode, p mgl64.Vec3) {
	dist := p.Sub(n.SphereCenter).Len()
	if dist < n.Size*SplitFactor && n.Size > t.minNodeSize {
		n.Children = t.split(n)
		for i := range n.Children {
			t.insert(&n.Children[i], p)
		}
	}
}

// split partitions n into bottom-left, bottom-right, top-left and top-right quadrants.
func (t *FaceQuadTree) split(n *QuadNode) []QuadNode {
	lo, hi, mid := n.Bounds.Min, n.Bounds.Max, n.Center
	return []QuadNode{
		t.newNode(Bounds{Min: lo, Max: mid}),
		t.newNode(Bounds{Min: mgl64.Vec2{mid.X(), lo.Y()}, Max: mgl64.Vec2{hi.X(), mid.Y()}}),
		t.newNode(Bounds{Min: mgl64.Vec2{lo.X(), mid.Y()}, Max: mgl64.Vec2{mid.X(), hi.Y()}}),
		t.newNode(Bounds{Min: mid, Max: hi}),
	}
}

// GetLeaves returns every node without children, depth first.
func (t *FaceQuadTree) GetLeaves() []QuadNode {
	var leaves []QuadNode
	var walk func(n *QuadNode)
	walk = func(n *QuadNode) {
		if n.IsLeaf() {
			leaves = append(leaves, *n)
			return
		}
		for i := range n.Children {
			walk(&n.Children[i])
		}
	}
	walk(&t.root)
	return leaves
}
