package renderer

import (
	"mini-planet/internal/graphics"
	"mini-planet/internal/profiling"
	"mini-planet/internal/terrain"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Renderer orchestrates rendering via renderable features
type Renderer struct {
	renderables []Renderable
	camera      *graphics.Camera

	// FOV transition while boosting
	targetFOV  float32
	currentFOV float32
}

// NewRenderer creates a new renderer with the given renderables
func NewRenderer(camera *graphics.Camera, rs ...Renderable) (*Renderer, error) {
	// Configure OpenGL
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	renderer := &Renderer{
		renderables: rs,
		camera:      camera,
		targetFOV:   camera.FOV,
		currentFOV:  camera.FOV,
	}

	// Initialize all renderables
	for _, r := range rs {
		if err := r.Init(); err != nil {
			return nil, err
		}
	}

	return renderer, nil
}

// Render draws one frame of the planet
func (r *Renderer) Render(t *terrain.Orchestrator, boosting bool, dt float64) {
	defer profiling.Track("renderer.Render")()

	gl.ClearColor(0.02, 0.03, 0.08, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	// Widen the FOV smoothly while boosting
	{
		if boosting {
			r.targetFOV = 75
		} else {
			r.targetFOV = 60
		}
		step := float32(dt) * 100
		if r.currentFOV < r.targetFOV {
			r.currentFOV = min(r.currentFOV+step, r.targetFOV)
		} else if r.currentFOV > r.targetFOV {
			r.currentFOV = max(r.currentFOV-step, r.targetFOV)
		}
		r.camera.FOV = r.currentFOV
	}

	ctx := RenderContext{
		Camera:  r.camera,
		Terrain: t,
		DT:      dt,
		View:    r.camera.GetViewMatrix(),
		Proj:    r.camera.GetProjectionMatrix(),
	}

	for _, renderable := range r.renderables {
		renderable.Render(ctx)
	}
}

// Dispose cleans up all renderables in reverse order
func (r *Renderer) Dispose() {
	for i := len(r.renderables) - 1; i >= 0; i-- {
		r.renderables[i].Dispose()
	}
}

// GetCamera returns the camera instance
func (r *Renderer) GetCamera() *graphics.Camera {
	return r.camera
}

// UpdateViewport updates the viewport of the camera and every renderable
func (r *Renderer) UpdateViewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	r.camera.SetViewport(width, height)
	for _, renderable := range r.renderables {
		renderable.SetViewport(width, height)
	}
}
