package crosshair

import (
	"mini-planet/internal/graphics"
	renderer "mini-planet/internal/graphics/renderer"
	"mini-planet/internal/profiling"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertices are two line segments in normalized device coordinates.
var Vertices = []float32{
	-0.02, 0.0, 0.0,
	0.02, 0.0, 0.0,
	0.0, -0.02, 0.0,
	0.0, 0.02, 0.0,
}

// Crosshair marks the screen center, where the camera is heading
type Crosshair struct {
	shader *graphics.Shader
	vao    uint32
	vbo    uint32
}

// NewCrosshair creates a new crosshair renderable
func NewCrosshair() *Crosshair {
	return &Crosshair{}
}

// Init initializes the crosshair rendering system
func (c *Crosshair) Init() error {
	var err error
	c.shader, err = graphics.NewShader("lines")
	if err != nil {
		return err
	}

	gl.GenVertexArrays(1, &c.vao)
	gl.BindVertexArray(c.vao)

	gl.GenBuffers(1, &c.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(Vertices)*4, gl.Ptr(Vertices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.BindVertexArray(0)
	return nil
}

func (c *Crosshair) SetViewport(width, height int) {}

// Render renders the crosshair
func (c *Crosshair) Render(ctx renderer.RenderContext) {
	defer profiling.Track("renderer.renderCrosshair")()

	// Keep the arms the same length on screen whatever the aspect ratio
	proj := mgl32.Scale3D(1/ctx.Camera.AspectRatio, 1, 1)

	gl.Disable(gl.DEPTH_TEST)
	c.shader.Use()
	c.shader.SetMatrix4("proj", proj)
	c.shader.SetMatrix4("view", mgl32.Ident4())
	c.shader.SetVector3("color", mgl32.Vec3{1, 1, 1})

	gl.BindVertexArray(c.vao)
	gl.LineWidth(1.0)
	gl.DrawArrays(gl.LINES, 0, 4)
	gl.BindVertexArray(0)
	gl.Enable(gl.DEPTH_TEST)
}

// Dispose cleans up OpenGL resources
func (c *Crosshair) Dispose() {
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
	}
	if c.vbo != 0 {
		gl.DeleteBuffers(1, &c.vbo)
	}
	if c.shader != nil {
		c.shader.Delete()
	}
}
