package noise

import (
	"github.com/go-gl/mathgl/mgl32"
)

// HeightSampler returns a terrain height and the weight used to blend it with
// other height samplers.
type HeightSampler interface {
	Sample(x, y, z float64) (height, weight float64)
}

// ColourSampler returns an RGB colour in [0, 1].
type ColourSampler interface {
	Sample(x, y, z float64) mgl32.Vec3
}

// BiomeSampler returns a moisture value in [0, 1].
type BiomeSampler interface {
	Sample(x, y, z float64) float64
}

// Samplers is the set of generators a tile build reads from.
type Samplers struct {
	Heights []HeightSampler
	Colour  ColourSampler
}

// Height blends every height sampler by its weight. It returns zero when
// the weights sum to zero.
func (s Samplers) Height(x, y, z float64) float64 {
	total, norm := 0.0, 0.0
	for _, h := range s.Heights {
		v, w := h.Sample(x, y, z)
		total += v * w
		norm += w
	}
	if norm <= 0 {
		return 0
	}
	return total / norm
}

// HeightGenerator wraps a fractal as a unit-weight height sampler.
type HeightGenerator struct {
	Fractal *Fractal
	Weight  float64
}

// NewHeightGenerator creates a height sampler with weight one.
func NewHeightGenerator(f *Fractal) *HeightGenerator {
	return &HeightGenerator{Fractal: f, Weight: 1}
}

func (h *HeightGenerator) Sample(x, y, z float64) (float64, float64) {
	return h.Fractal.Sample(x, y, z), h.Weight
}

// Biome samples moisture from a fractal configured with height one.
type Biome struct {
	Fractal *Fractal
}

func (b *Biome) Sample(x, y, z float64) float64 {
	return clamp01(b.Fractal.Sample(x, y, z))
}

// Fixed is a constant height sampler, handy for flat test planets.
type Fixed struct {
	Height float64
	Weight float64
}

func (f Fixed) Sample(x, y, z float64) (float64, float64) {
	return f.Height, f.Weight
}
