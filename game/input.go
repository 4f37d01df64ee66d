package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Camera input tuning
const (
	orbitPerPixel = 0.005 // radians per dragged pixel
	orbitKeyStep  = 0.03  // radians per frame with arrow keys held
	wheelZoomStep = 0.1
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Single step while paused
	if g.paused && rl.IsKeyPressed(rl.KeyN) {
		g.step(true)
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyR) {
		g.restart()
	}

	// Overlay toggles
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		g.overlays.HandleKeyPress(key)
	}

	// Camera controls
	g.handleCameraInput()
}

// restart rebuilds the engine and logs failures; the old engine keeps
// running when the rebuild fails.
func (g *Game) restart() {
	if err := g.Restart(); err != nil {
		slog.Error("restart failed", "error", err)
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.background.Resize(int32(w), int32(h))
	g.perfPanel.SetPosition(int32(w)-300, 10)
}

// handleCameraInput processes orbit, pan and zoom controls.
func (g *Game) handleCameraInput() {
	// Right drag orbits, middle drag pans
	delta := rl.GetMouseDelta()
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		g.camera.Orbit(-delta.X*orbitPerPixel, delta.Y*orbitPerPixel)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		g.camera.Pan(delta.X, delta.Y)
	}

	// Arrow key orbiting
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Orbit(orbitKeyStep, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Orbit(-orbitKeyStep, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Orbit(0, orbitKeyStep)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Orbit(0, -orbitKeyStep)
	}

	// Zoom controls: mouse wheel or +/- keys
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 {
		g.camera.ZoomBy(1 + wheelMove*wheelZoomStep)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
