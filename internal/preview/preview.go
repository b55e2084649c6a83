// Package preview renders the quadtree leaves of a planet into a flat
// image and summarizes them, without a GL context.
package preview

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strconv"

	"mini-planet/internal/cubesphere"
	"mini-planet/internal/noise"
	"mini-planet/internal/terrain"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// netCells places each face on a 4x3 cube net, indexed by face.
var netCells = [cubesphere.FaceCount]image.Point{
	cubesphere.FacePosY: {1, 0},
	cubesphere.FaceNegY: {1, 2},
	cubesphere.FacePosX: {2, 1},
	cubesphere.FaceNegX: {0, 1},
	cubesphere.FacePosZ: {1, 1},
	cubesphere.FaceNegZ: {3, 1},
}

var (
	background = color.RGBA{0x10, 0x10, 0x18, 0xff}
	outline    = color.RGBA{0x00, 0x00, 0x00, 0xff}
	labelColor = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// Options configures Render.
type Options struct {
	// Cell is the edge length in pixels of one face.
	Cell int
	// Samplers colour each leaf by the terrain under its center. Leaves
	// are grey when nil.
	Samplers *noise.Samplers
}

// Render draws every leaf as a rectangle on a cube net of the six faces.
func Render(leaves []cubesphere.Leaf, radius float64, opts Options) (*image.RGBA, error) {
	if opts.Cell < 8 {
		return nil, errors.New("preview cell too small").WithTag("cell", opts.Cell)
	}
	if radius <= 0 {
		return nil, errors.New("invalid radius").WithTag("radius", radius)
	}

	cell := opts.Cell
	img := image.NewRGBA(image.Rect(0, 0, cell*4, cell*3))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	for _, l := range leaves {
		r := leafRect(l, radius, cell)
		fill := color.RGBA{0x80, 0x80, 0x80, 0xff}
		if opts.Samplers != nil {
			fill = leafColour(l, radius, opts.Samplers)
		}
		draw.Draw(img, r, image.NewUniform(fill), image.Point{}, draw.Src)
		strokeRect(img, r, outline)
	}

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
	}
	for face, c := range netCells {
		d.Dot = fixed.P(c.X*cell+4, c.Y*cell+basicfont.Face7x13.Ascent+2)
		d.DrawString(cubesphere.FaceName(face))
	}
	return img, nil
}

// leafRect maps a leaf's local bounds into its face cell. Local +y is up.
func leafRect(l cubesphere.Leaf, radius float64, cell int) image.Rectangle {
	origin := netCells[l.Face].Mul(cell)
	scale := float64(cell) / (2 * radius)
	px := func(v float64) int { return int(math.Round((v + radius) * scale)) }
	py := func(v float64) int { return int(math.Round((radius - v) * scale)) }
	return image.Rect(
		origin.X+px(l.Bounds.Min.X()), origin.Y+py(l.Bounds.Max.Y()),
		origin.X+px(l.Bounds.Max.X()), origin.Y+py(l.Bounds.Min.Y()),
	)
}

func leafColour(l cubesphere.Leaf, radius float64, s *noise.Samplers) color.RGBA {
	p := l.WorldCenter.Normalize().Mul(radius)
	h := s.Height(p.X(), p.Y(), p.Z())
	c := s.Colour.Sample(p.X(), p.Y(), h)
	to8 := func(v float32) uint8 {
		return uint8(mgl64.Clamp(float64(v), 0, 1)*255 + 0.5)
	}
	return color.RGBA{to8(c.X()), to8(c.Y()), to8(c.Z()), 0xff}
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}

// WritePNG encodes img to w.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return errors.New("encoding png failed").Wrap(err)
	}
	return nil
}

// FaceSummary counts the leaves of one face.
type FaceSummary struct {
	Face     string  `json:"face"`
	Leaves   int     `json:"leaves"`
	Smallest float64 `json:"smallest"`
	Largest  float64 `json:"largest"`
}

// Report is the JSON summary written next to a preview.
type Report struct {
	Viewpoint [3]float64     `json:"viewpoint"`
	Ticks     int            `json:"ticks"`
	Stats     terrain.Stats  `json:"stats"`
	Faces     []FaceSummary  `json:"faces"`
	Sizes     map[string]int `json:"sizes"`
}

// Summarize groups leaves per face and per leaf size.
func Summarize(leaves []cubesphere.Leaf) ([]FaceSummary, map[string]int) {
	faces := make([]FaceSummary, cubesphere.FaceCount)
	for i := range faces {
		faces[i].Face = cubesphere.FaceName(i)
	}
	sizes := make(map[string]int)
	for _, l := range leaves {
		f := &faces[l.Face]
		if f.Leaves == 0 || l.Size < f.Smallest {
			f.Smallest = l.Size
		}
		if l.Size > f.Largest {
			f.Largest = l.Size
		}
		f.Leaves++
		sizes[formatSize(l.Size)]++
	}
	return faces, sizes
}

func formatSize(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
