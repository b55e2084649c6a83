package chunk

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// keyQuantum is the number of key units per local unit.
const keyQuantum = 1024

// Key is the structural identity of a tile: the face it lies on, its
// quantized center in the face's local plane and its quantized edge length.
// Two leaves with the same Key are the same logical tile.
type Key struct {
	Face int
	X    int64
	Y    int64
	Size int64
}

// NewKey quantizes a leaf's local center and size into a Key.
func NewKey(face int, center mgl64.Vec2, size float64) Key {
	return Key{
		Face: face,
		X:    quantize(center.X()),
		Y:    quantize(center.Y()),
		Size: quantize(size),
	}
}

func quantize(v float64) int64 {
	return int64(math.Round(v * keyQuantum))
}

// Less orders keys by face, size, y and then x.
func (k Key) Less(o Key) bool {
	if k.Face != o.Face {
		return k.Face < o.Face
	}
	if k.Size != o.Size {
		return k.Size < o.Size
	}
	if k.Y != o.Y {
		return k.Y < o.Y
	}
	return k.X < o.X
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%g,%g[%g]", k.Face,
		float64(k.X)/keyQuantum, float64(k.Y)/keyQuantum, float64(k.Size)/keyQuantum)
}

// Overlaps reports whether the areas of k and o share more than an edge.
func (k Key) Overlaps(o Key) bool {
	if k.Face != o.Face {
		return false
	}
	reach := k.Size + o.Size
	return 2*abs64(k.X-o.X) < reach && 2*abs64(k.Y-o.Y) < reach
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
