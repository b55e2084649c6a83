package wireframe

import (
	"mini-planet/internal/cubesphere"
	"mini-planet/internal/graphics"
	renderer "mini-planet/internal/graphics/renderer"
	"mini-planet/internal/profiling"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// segments per leaf edge, so outlines follow the curvature
	edgeSegments = 8
	// outlines sit slightly above the sea level sphere
	lift = 1.002
)

// Wireframe outlines the quadtree leaves on the sphere
type Wireframe struct {
	shader *graphics.Shader
	vao    uint32
	vbo    uint32

	count       int32
	refinements uint64
	enabled     bool
}

// NewWireframe creates a new wireframe renderable
func NewWireframe() *Wireframe {
	return &Wireframe{}
}

// Init initializes the wireframe rendering system
func (w *Wireframe) Init() error {
	var err error
	w.shader, err = graphics.NewShader("lines")
	if err != nil {
		return err
	}

	gl.GenVertexArrays(1, &w.vao)
	gl.BindVertexArray(w.vao)
	gl.GenBuffers(1, &w.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, w.vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.BindVertexArray(0)
	return nil
}

func (w *Wireframe) SetViewport(width, height int) {}

// Toggle switches the leaf outlines on or off
func (w *Wireframe) Toggle() {
	w.enabled = !w.enabled
}

// Enabled reports whether outlines are drawn
func (w *Wireframe) Enabled() bool {
	return w.enabled
}

// Render draws the leaf outlines, rebuilding the line buffer whenever the
// leaves changed.
func (w *Wireframe) Render(ctx renderer.RenderContext) {
	if !w.enabled {
		return
	}
	defer profiling.Track("renderer.renderLeafOutlines")()

	if r := ctx.Terrain.Refinements(); r != w.refinements || w.count == 0 {
		vertices := OutlineVertices(ctx.Terrain.Leaves(), ctx.Terrain.Config().Planet.Radius*lift)
		gl.BindBuffer(gl.ARRAY_BUFFER, w.vbo)
		gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.DYNAMIC_DRAW)
		w.count = int32(len(vertices) / 3)
		w.refinements = r
	}
	if w.count == 0 {
		return
	}

	w.shader.Use()
	w.shader.SetMatrix4("proj", ctx.Proj)
	w.shader.SetMatrix4("view", ctx.View)
	w.shader.SetVector3("color", mgl32.Vec3{0.05, 0.05, 0.05})

	gl.BindVertexArray(w.vao)
	gl.LineWidth(1.0)
	gl.DrawArrays(gl.LINES, 0, w.count)
	gl.BindVertexArray(0)
}

// OutlineVertices returns line segment pairs tracing the border of every
// leaf, projected onto a sphere of the given radius.
func OutlineVertices(leaves []cubesphere.Leaf, radius float64) []float32 {
	out := make([]float32, 0, len(leaves)*4*edgeSegments*6)
	for _, l := range leaves {
		lo, hi := l.Bounds.Min, l.Bounds.Max
		corners := [5]mgl64.Vec2{
			lo, {hi.X(), lo.Y()}, hi, {lo.X(), hi.Y()}, lo,
		}
		for c := 0; c < 4; c++ {
			a, b := corners[c], corners[c+1]
			prev := onSphere(l.Transform, a, radius)
			for s := 1; s <= edgeSegments; s++ {
				t := float64(s) / edgeSegments
				next := onSphere(l.Transform, a.Add(b.Sub(a).Mul(t)), radius)
				out = append(out,
					float32(prev.X()), float32(prev.Y()), float32(prev.Z()),
					float32(next.X()), float32(next.Y()), float32(next.Z()),
				)
				prev = next
			}
		}
	}
	return out
}

func onSphere(transform mgl64.Mat4, p mgl64.Vec2, radius float64) mgl64.Vec3 {
	return mgl64.TransformCoordinate(mgl64.Vec3{p.X(), p.Y(), 0}, transform).Normalize().Mul(radius)
}

// Dispose cleans up OpenGL resources
func (w *Wireframe) Dispose() {
	if w.vao != 0 {
		gl.DeleteVertexArrays(1, &w.vao)
	}
	if w.vbo != 0 {
		gl.DeleteBuffers(1, &w.vbo)
	}
	if w.shader != nil {
		w.shader.Delete()
	}
}
