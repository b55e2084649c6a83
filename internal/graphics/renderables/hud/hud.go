package hud

import (
	"fmt"
	"strings"
	"time"

	"mini-planet/internal/config"
	"mini-planet/internal/graphics"
	renderer "mini-planet/internal/graphics/renderer"
	"mini-planet/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// HUD draws the camera, terrain and profiling overlay
type HUD struct {
	fontRenderer  *graphics.FontRenderer
	width, height int
	showProfiling bool

	// FPS tracking
	frames       int
	lastFPSCheck time.Time
	currentFPS   int

	// Rolling render timings
	frameDuration    time.Duration
	frameTimeHistory []time.Duration
	avgFrameTime     time.Duration
	maxFrameTime     time.Duration
	updateDuration   time.Duration
}

// NewHUD creates a new HUD renderable
func NewHUD(width, height int) *HUD {
	return &HUD{
		width:         width,
		height:        height,
		showProfiling: true,
	}
}

// Init initializes the HUD rendering system
func (h *HUD) Init() error {
	fr, err := graphics.NewFontRenderer(h.width, h.height)
	if err != nil {
		return err
	}
	h.fontRenderer = fr
	h.lastFPSCheck = time.Now()
	return nil
}

func (h *HUD) SetViewport(width, height int) {
	h.width, h.height = width, height
	if h.fontRenderer != nil {
		h.fontRenderer.SetViewport(width, height)
	}
}

// Render renders the HUD elements
func (h *HUD) Render(ctx renderer.RenderContext) {
	h.frames++
	if time.Since(h.lastFPSCheck) >= time.Second {
		h.currentFPS = h.frames
		h.lastFPSCheck = time.Now()
		h.frames = 0
	}

	defer profiling.Track("renderer.hud")()

	cfg := ctx.Terrain.Config()
	pos := ctx.Camera.Position
	stats := ctx.Terrain.Stats()

	lines := []string{
		fmt.Sprintf("FPS: %d", h.currentFPS),
		fmt.Sprintf("Pos: %.1f, %.1f, %.1f  Alt: %.1f", pos.X(), pos.Y(), pos.Z(), ctx.Camera.Altitude(cfg.Planet.Radius)),
		fmt.Sprintf("Leaves: %d  Live: %d  Visible: %d  Pooled: %d", stats.Leaves, stats.Live, stats.Visible, stats.Pooled),
	}
	state := "idle"
	if stats.Busy {
		state = fmt.Sprintf("draining (%d pending)", stats.Pending)
	}
	if config.GetFreezeLOD() {
		state += ", LOD frozen"
	}
	lines = append(lines, "Terrain: "+state)

	if h.showProfiling {
		lines = append(lines, h.profilingLines()...)
	}

	lh := h.fontRenderer.LineHeight()
	h.fontRenderer.RenderLines(lines, 10, 10+lh, lh+4, 1, mgl32.Vec3{1, 1, 1})
}

func (h *HUD) profilingLines() []string {
	frameMs := float64(h.frameDuration.Microseconds()) / 1000.0
	avgMs := float64(h.avgFrameTime.Microseconds()) / 1000.0
	maxMs := float64(h.maxFrameTime.Microseconds()) / 1000.0
	trackedMs := float64(profiling.SumWithPrefix("renderer.").Microseconds()) / 1000.0
	lines := []string{
		fmt.Sprintf("Frame(render): %.2fms (%.2fms avg, %.2fms max) | Tracked(render): %.2fms", frameMs, avgMs, maxMs, trackedMs),
	}
	if h.updateDuration > 0 {
		lines = append(lines, fmt.Sprintf("Frame(update): %.2fms", float64(h.updateDuration.Microseconds())/1000.0))
	}
	buildMs := float64(profiling.SumWithPrefix("tile.build").Microseconds()) / 1000.0
	if buildMs > 0 {
		lines = append(lines, fmt.Sprintf("Tile builds: %.2fms", buildMs))
	}

	if top := profiling.TopN(8); top != "" {
		for _, line := range strings.Split(top, ", ") {
			if line != "" && !strings.HasSuffix(line, ":0ms") {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

// ToggleProfiling toggles profiling HUD visibility
func (h *HUD) ToggleProfiling() {
	h.showProfiling = !h.showProfiling
}

// ProfilingSetUpdateDuration stores the terrain update time of the last frame
func (h *HUD) ProfilingSetUpdateDuration(d time.Duration) {
	h.updateDuration = d
}

// ProfilingSetRenderDuration stores the render() call duration for this frame
func (h *HUD) ProfilingSetRenderDuration(d time.Duration) {
	h.frameDuration = d
	if len(h.frameTimeHistory) >= 60 {
		h.frameTimeHistory = h.frameTimeHistory[1:]
	}
	h.frameTimeHistory = append(h.frameTimeHistory, d)

	var total time.Duration
	h.maxFrameTime = 0
	for _, v := range h.frameTimeHistory {
		total += v
		if v > h.maxFrameTime {
			h.maxFrameTime = v
		}
	}
	h.avgFrameTime = total / time.Duration(len(h.frameTimeHistory))
}

// Dispose cleans up resources
func (h *HUD) Dispose() {
	if h.fontRenderer != nil {
		h.fontRenderer.Dispose()
	}
}
