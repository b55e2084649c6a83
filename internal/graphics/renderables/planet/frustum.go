package planet

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type plane struct {
	a, b, c, d float32
}

// extractFrustumPlanes builds six planes from the combined projection*view matrix.
// Planes are returned in order: left, right, bottom, top, near, far.
func extractFrustumPlanes(clip mgl32.Mat4) [6]plane {
	// Matrix is in column-major order in mgl32
	row := func(r int) [4]float32 {
		return [4]float32{clip[r], clip[4+r], clip[8+r], clip[12+r]}
	}
	m0, m1, m2, m3 := row(0), row(1), row(2), row(3)
	combine := func(a, b [4]float32, sign float32) plane {
		return normalizePlane(plane{a[0] + sign*b[0], a[1] + sign*b[1], a[2] + sign*b[2], a[3] + sign*b[3]})
	}

	return [6]plane{
		combine(m3, m0, 1),  // left
		combine(m3, m0, -1), // right
		combine(m3, m1, 1),  // bottom
		combine(m3, m1, -1), // top
		combine(m3, m2, 1),  // near
		combine(m3, m2, -1), // far
	}
}

func normalizePlane(p plane) plane {
	l := float32(math.Sqrt(float64(p.a*p.a + p.b*p.b + p.c*p.c)))
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// aabbIntersectsFrustum tests an AABB against precomputed planes.
func aabbIntersectsFrustum(min, max mgl32.Vec3, planes [6]plane) bool {
	for _, p := range planes {
		// Select the positive vertex for this plane normal
		px := max.X()
		if p.a < 0 {
			px = min.X()
		}
		py := max.Y()
		if p.b < 0 {
			py = min.Y()
		}
		pz := max.Z()
		if p.c < 0 {
			pz = min.Z()
		}
		// If positive vertex is outside, AABB is outside
		if p.a*px+p.b*py+p.c*pz+p.d < 0 {
			return false
		}
	}
	return true
}
