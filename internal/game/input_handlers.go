package game

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

func SetupInputHandlers(app *App) {
	window := app.window
	im := app.inputManager
	s := app.session

	// Mouse position callback
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		s.HandleMouseMovement(xpos, ypos)
	})

	// Mouse button callback
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		im.HandleMouseButtonEvent(button, action)
		// Clicking into a paused window resumes
		if s.Paused && button == glfw.MouseButtonLeft && action == glfw.Press {
			s.SetPaused(false)
		}
	})

	// Handle keyboard actions
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		im.HandleKeyEvent(key, action)
	})

	// Framebuffer size callback
	window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		s.Renderer.UpdateViewport(fbWidth, fbHeight)
		// NOTE: Do not render here. Rely on SetRefreshCallback for smooth resizing on macOS.
	})

	// Focus callback
	window.SetFocusCallback(func(w *glfw.Window, focused bool) {
		if !focused && !s.Paused {
			s.SetPaused(true)
		}
	})

	// Refresh callback
	window.SetRefreshCallback(func(w *glfw.Window) {
		s.RefreshRender()
	})
}
