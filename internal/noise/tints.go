package noise

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	colourWhite         = hexColour(0xffffff)
	colourOceanDeep     = hexColour(0x0020ff)
	colourOceanShallow  = hexColour(0x8080ff)
	colourForestBoreal  = hexColour(0x29c100)
	colourAridLowland   = hexColour(0xb7a67d)
	colourAridHighland  = hexColour(0xf1e1bc)
	colourHumidHighland = hexColour(0xcee59c)
)

// OceanLevel is the normalized height below which the ocean band applies.
const OceanLevel = 0.05

func hexColour(v uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32((v>>16)&0xff) / 255,
		float32((v>>8)&0xff) / 255,
		float32(v&0xff) / 255,
	}
}

type splinePoint struct {
	t float64
	c mgl32.Vec3
}

// LinearSpline interpolates colours between sorted control points.
type LinearSpline struct {
	points []splinePoint
}

// AddPoint inserts a control point, keeping the points ordered by t.
func (s *LinearSpline) AddPoint(t float64, c mgl32.Vec3) {
	s.points = append(s.points, splinePoint{t: t, c: c})
	sort.SliceStable(s.points, func(i, j int) bool { return s.points[i].t < s.points[j].t })
}

// Get returns the colour at t, clamped to the first and last points.
func (s *LinearSpline) Get(t float64) mgl32.Vec3 {
	if len(s.points) == 0 {
		return mgl32.Vec3{}
	}
	if t <= s.points[0].t {
		return s.points[0].c
	}
	last := s.points[len(s.points)-1]
	if t >= last.t {
		return last.c
	}
	i := sort.Search(len(s.points), func(i int) bool { return s.points[i].t > t })
	p0, p1 := s.points[i-1], s.points[i]
	f := float32((t - p0.t) / (p1.t - p0.t))
	return lerpColour(p0.c, p1.c, f)
}

func lerpColour(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// HypsometricTints colours terrain by elevation, mixing an arid and a humid
// band by biome moisture, with a separate ocean band near sea level.
type HypsometricTints struct {
	biome BiomeSampler
	// HeightScale normalizes a height into spline space.
	HeightScale float64

	arid  LinearSpline
	humid LinearSpline
	ocean LinearSpline
}

// NewHypsometricTints creates the elevation colouring.
func NewHypsometricTints(biome BiomeSampler) *HypsometricTints {
	h := &HypsometricTints{biome: biome, HeightScale: 100}

	h.arid.AddPoint(0.0, colourAridLowland)
	h.arid.AddPoint(0.5, colourAridHighland)
	h.arid.AddPoint(1.0, colourWhite)

	h.humid.AddPoint(0.0, colourForestBoreal)
	h.humid.AddPoint(0.5, colourHumidHighland)
	h.humid.AddPoint(1.0, colourWhite)

	h.ocean.AddPoint(0, colourOceanDeep)
	h.ocean.AddPoint(0.03, colourOceanShallow)
	h.ocean.AddPoint(OceanLevel, colourOceanShallow)
	return h
}

// Sample colours the point (x, y) at height z.
func (h *HypsometricTints) Sample(x, y, z float64) mgl32.Vec3 {
	m := h.biome.Sample(x, y, z)
	t := z / h.HeightScale
	if t < OceanLevel {
		return h.ocean.Get(t)
	}
	return lerpColour(h.arid.Get(t), h.humid.Get(t), float32(m))
}
