package game

import (
	"time"

	"mini-planet/internal/config"
	"mini-planet/internal/graphics"
	"mini-planet/internal/graphics/renderables/crosshair"
	"mini-planet/internal/graphics/renderables/hud"
	"mini-planet/internal/graphics/renderables/planet"
	"mini-planet/internal/graphics/renderables/wireframe"
	"mini-planet/internal/graphics/renderer"
	standardInput "mini-planet/internal/input"
	"mini-planet/internal/meshing"
	"mini-planet/internal/profiling"
	"mini-planet/internal/terrain"
	"mini-planet/internal/tile"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"
)

const mouseSensitivity = 0.1

// Session owns the planet, its tile builders and everything drawn on screen.
type Session struct {
	Window     *glfw.Window
	Renderer   *renderer.Renderer
	HUD        *hud.HUD
	Outlines   *wireframe.Wireframe
	Camera     *graphics.Camera
	Terrain    *terrain.Orchestrator
	Workers    *meshing.WorkerPool
	Paused     bool
	boosting   bool
	quit       bool
	configPath string

	firstMouse   bool
	lastX, lastY float64
}

// NewSession creates the terrain described by cfg and a camera looking at
// it from two radii above the +Z face. configPath is reread on reload and
// may be empty.
func NewSession(window *glfw.Window, cfg config.Config, configPath string) (*Session, error) {
	var workers *meshing.WorkerPool
	if cfg.LOD.AsyncBuild {
		workers = meshing.NewWorkerPool(cfg.LOD.Workers, cfg.LOD.QueueSize)
	}

	width, height := window.GetSize()
	camera := graphics.NewCamera(width, height)
	camera.Position = mgl64.Vec3{0, 0, cfg.Planet.Radius * 3}
	camera.FarPlane = float32(cfg.Planet.Radius * 8)

	outlines := wireframe.NewWireframe()
	hudRenderer := hud.NewHUD(width, height)
	r, err := renderer.NewRenderer(camera,
		planet.NewPlanet(),
		outlines,
		crosshair.NewCrosshair(),
		hudRenderer,
	)
	if err != nil {
		if workers != nil {
			workers.Shutdown()
		}
		return nil, err
	}
	r.UpdateViewport(width, height)

	logs.WithTag("radius", cfg.Planet.Radius).
		WithTag("min_node_size", cfg.LOD.MinNodeSize).
		WithTag("async", cfg.LOD.AsyncBuild).
		Info("planet session started")

	return &Session{
		Window:     window,
		Renderer:   r,
		HUD:        hudRenderer,
		Outlines:   outlines,
		Camera:     camera,
		Terrain:    terrain.NewOrchestrator(cfg, tile.NewFactory(workers)),
		Workers:    workers,
		configPath: configPath,
		firstMouse: true,
	}, nil
}

// Update moves the camera, applies toggles and advances the terrain by one tick.
func (s *Session) Update(dt float64, im *standardInput.InputManager) {
	s.handleInputActions(im)
	if s.Paused {
		return
	}

	s.boosting = im.IsActive(standardInput.ActionBoost)
	func() {
		defer profiling.Track("camera.Move")()
		var dir mgl64.Vec3
		if im.IsActive(standardInput.ActionMoveForward) {
			dir[2]++
		}
		if im.IsActive(standardInput.ActionMoveBackward) {
			dir[2]--
		}
		if im.IsActive(standardInput.ActionMoveRight) {
			dir[0]++
		}
		if im.IsActive(standardInput.ActionMoveLeft) {
			dir[0]--
		}
		if im.IsActive(standardInput.ActionMoveUp) {
			dir[1]++
		}
		if im.IsActive(standardInput.ActionMoveDown) {
			dir[1]--
		}
		// Slow down near the surface
		alt := s.Camera.Altitude(s.Terrain.Config().Planet.Radius)
		s.Camera.Speed = mgl64.Clamp(alt*0.5, 20, 5000)
		s.Camera.Move(dir, dt, s.boosting)
	}()

	if config.GetFreezeLOD() {
		return
	}
	start := time.Now()
	_ = s.Terrain.Update(s.Camera.Position)
	s.HUD.ProfilingSetUpdateDuration(time.Since(start))
}

// Render draws the frame and records its duration on the HUD.
func (s *Session) Render(dt float64) time.Duration {
	renderStart := time.Now()
	s.Renderer.Render(s.Terrain, s.boosting, dt)
	renderDur := time.Since(renderStart)
	s.HUD.ProfilingSetRenderDuration(renderDur)
	return renderDur
}

// HandleMouseMovement turns the camera from cursor motion.
func (s *Session) HandleMouseMovement(xpos, ypos float64) {
	if s.Paused {
		return
	}
	if s.firstMouse {
		s.lastX, s.lastY = xpos, ypos
		s.firstMouse = false
		return
	}
	dx, dy := xpos-s.lastX, s.lastY-ypos
	s.lastX, s.lastY = xpos, ypos
	s.Camera.Rotate(dx*mouseSensitivity, dy*mouseSensitivity)
}

func (s *Session) SetPaused(paused bool) {
	s.Paused = paused
	if s.Paused {
		s.Window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	} else {
		s.Window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		s.firstMouse = true
	}
}

// ShouldQuit reports whether the quit action was pressed.
func (s *Session) ShouldQuit() bool {
	return s.quit
}

func (s *Session) handleInputActions(im *standardInput.InputManager) {
	if im.JustPressed(standardInput.ActionPause) {
		s.SetPaused(!s.Paused)
	}
	if im.JustPressed(standardInput.ActionQuit) {
		s.quit = true
	}
	if im.JustPressed(standardInput.ActionToggleWireframe) {
		logs.WithTag("enabled", config.ToggleWireframe()).Info("wireframe toggled")
	}
	if im.JustPressed(standardInput.ActionToggleOutlines) {
		s.Outlines.Toggle()
	}
	if im.JustPressed(standardInput.ActionToggleProfiling) {
		s.HUD.ToggleProfiling()
	}
	if im.JustPressed(standardInput.ActionFreezeLOD) {
		logs.WithTag("frozen", config.ToggleFreezeLOD()).Info("LOD freeze toggled")
	}
	if im.JustPressed(standardInput.ActionRebuild) {
		s.Terrain.ForceFullRebuild()
	}
	if im.JustPressed(standardInput.ActionReloadConfig) {
		s.reloadConfig()
	}
}

// reloadConfig rereads the config file and applies it to the terrain.
func (s *Session) reloadConfig() {
	if s.configPath == "" {
		logs.Warn("no config file to reload")
		return
	}
	cfg, err := config.Load(s.configPath)
	if err != nil {
		logs.Warn(err)
		return
	}
	// Worker count and builder mode are fixed for the session
	cfg.LOD.AsyncBuild = s.Terrain.Config().LOD.AsyncBuild
	if !s.Terrain.ApplyConfig(cfg) {
		logs.Warn("config reload ignored while tiles are building, retry once idle")
		return
	}
	config.ApplyRender(cfg.Render)
	logs.WithTag("path", s.configPath).Info("config reloaded")
}

// Cleanup stops the tile builders and frees GL resources
func (s *Session) Cleanup() {
	if s.Workers != nil {
		s.Workers.Shutdown()
	}
	s.Renderer.Dispose()
}

// RefreshRender repaints during window resizes
func (s *Session) RefreshRender() {
	s.Renderer.Render(s.Terrain, s.boosting, 0.016)
	s.Window.SwapBuffers()
}
