package noise

import (
	"math"
)

// Kind selects the coherent noise summed by a Fractal.
type Kind string

const (
	KindPerlin Kind = "perlin"
	KindValue  Kind = "value"
)

// FractalParams configures fractal Brownian motion noise.
type FractalParams struct {
	Kind           Kind    `yaml:"kind" json:"kind"`
	Octaves        int     `yaml:"octaves" json:"octaves"`
	Persistence    float64 `yaml:"persistence" json:"persistence"`
	Lacunarity     float64 `yaml:"lacunarity" json:"lacunarity"`
	Exponentiation float64 `yaml:"exponentiation" json:"exponentiation"`
	Scale          float64 `yaml:"scale" json:"scale"`
	Height         float64 `yaml:"height" json:"height"`
	Seed           int64   `yaml:"seed" json:"seed"`
}

// Fractal sums octaves of coherent noise.
type Fractal struct {
	params FractalParams
	perlin *Perlin
	gain   float64
}

// NewFractal creates a sampler for params. Octaves below one are raised to one.
func NewFractal(params FractalParams) *Fractal {
	if params.Octaves < 1 {
		params.Octaves = 1
	}
	if params.Scale == 0 {
		params.Scale = 1
	}
	f := &Fractal{
		params: params,
		gain:   math.Pow(2, -params.Persistence),
	}
	if params.Kind != KindValue {
		f.perlin = NewPerlin(params.Seed)
	}
	return f
}

// Params returns the parameters the sampler was built with.
func (f *Fractal) Params() FractalParams {
	return f.params
}

// Sample returns the normalized octave sum at (x, y, z), raised to the
// exponentiation and scaled by the height.
func (f *Fractal) Sample(x, y, z float64) float64 {
	p := f.params
	xs, ys, zs := x/p.Scale, y/p.Scale, z/p.Scale

	amplitude := 1.0
	frequency := 1.0
	total := 0.0
	norm := 0.0
	for o := 0; o < p.Octaves; o++ {
		total += f.octave(o, xs*frequency, ys*frequency, zs*frequency) * amplitude
		norm += amplitude
		amplitude *= f.gain
		frequency *= p.Lacunarity
	}
	total = clamp01(total / norm)
	return math.Pow(total, p.Exponentiation) * p.Height
}

func (f *Fractal) octave(o int, x, y, z float64) float64 {
	if f.perlin != nil {
		return f.perlin.Unit(x, y, z)
	}
	return Value3D(x, y, z, f.params.Seed+int64(o*131))
}
