package config

import "sync"

// RuntimeSettings holds the viewer toggles that change while running.
type RuntimeSettings struct {
	mu        sync.RWMutex
	fpsLimit  int
	wireframe bool
	freezeLOD bool
}

var globalRuntimeSettings = &RuntimeSettings{
	fpsLimit: 120, // default value
}

// ApplyRender seeds the runtime settings from a loaded config.
func ApplyRender(r Render) {
	SetFPSLimit(r.FPSLimit)
	SetWireframe(r.Wireframe)
}

// GetFPSLimit returns the frame cap, 0 meaning uncapped
func GetFPSLimit() int {
	globalRuntimeSettings.mu.RLock()
	defer globalRuntimeSettings.mu.RUnlock()
	return globalRuntimeSettings.fpsLimit
}

// SetFPSLimit sets the frame cap
func SetFPSLimit(limit int) {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()

	// Clamp to reasonable values
	if limit < 0 {
		limit = 0
	}
	if limit > 1000 {
		limit = 1000
	}

	globalRuntimeSettings.fpsLimit = limit
}

// GetWireframe returns whether tiles are drawn as wireframe
func GetWireframe() bool {
	globalRuntimeSettings.mu.RLock()
	defer globalRuntimeSettings.mu.RUnlock()
	return globalRuntimeSettings.wireframe
}

// SetWireframe sets wireframe drawing
func SetWireframe(enabled bool) {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()
	globalRuntimeSettings.wireframe = enabled
}

// ToggleWireframe flips wireframe drawing and returns the new value
func ToggleWireframe() bool {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()
	globalRuntimeSettings.wireframe = !globalRuntimeSettings.wireframe
	return globalRuntimeSettings.wireframe
}

// GetFreezeLOD returns whether the LOD ignores camera movement
func GetFreezeLOD() bool {
	globalRuntimeSettings.mu.RLock()
	defer globalRuntimeSettings.mu.RUnlock()
	return globalRuntimeSettings.freezeLOD
}

// ToggleFreezeLOD flips LOD freezing and returns the new value
func ToggleFreezeLOD() bool {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()
	globalRuntimeSettings.freezeLOD = !globalRuntimeSettings.freezeLOD
	return globalRuntimeSettings.freezeLOD
}
