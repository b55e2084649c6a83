package game

import (
	"context"
	"time"

	"mini-planet/internal/config"
	standardInput "mini-planet/internal/input"
	"mini-planet/internal/pacing"
	"mini-planet/internal/profiling"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// slowFrame is the frame time above which the busiest sections are logged
const slowFrame = 50 * time.Millisecond

type App struct {
	window       *glfw.Window
	inputManager *standardInput.InputManager
	session      *Session

	limiter  *pacing.Limiter
	lastTime time.Time
}

func NewApp(window *glfw.Window, im *standardInput.InputManager, session *Session) *App {
	app := &App{
		window:       window,
		inputManager: im,
		session:      session,
		limiter:      pacing.NewLimiter(config.GetFPSLimit),
		lastTime:     time.Now(),
	}
	SetupInputHandlers(app)
	return app
}

// Run ticks until the window closes, quit is pressed or ctx is done.
func (a *App) Run(ctx context.Context) {
	defer a.session.Cleanup()
	for !a.window.ShouldClose() && !a.session.ShouldQuit() {
		select {
		case <-ctx.Done():
			logs.Info("viewer interrupted")
			return
		default:
		}
		a.tick()
	}
}

func (a *App) tick() {
	profiling.ResetFrame()
	startTick := time.Now()
	dt := startTick.Sub(a.lastTime).Seconds()
	a.lastTime = startTick

	func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()

	a.session.Update(dt, a.inputManager)
	a.session.Render(dt)

	func() { defer profiling.Track("glfw.SwapBuffers")(); a.window.SwapBuffers() }()

	if d := time.Since(startTick); d > slowFrame {
		logs.WithTag("duration", d.String()).
			WithTag("top", profiling.TopN(5)).
			Debug("slow frame")
	}

	a.inputManager.PostUpdate() // Clear "JustPressed" flags
	a.limiter.Wait(a.session.Paused)
}
