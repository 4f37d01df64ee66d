package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particles/config"
	"github.com/pthm-cable/particles/renderer"
	"github.com/pthm-cable/particles/telemetry"
	"github.com/pthm-cable/particles/ui"
)

var (
	backgroundTop    = rl.Color{R: 18, G: 22, B: 34, A: 255}
	backgroundBottom = rl.Color{R: 6, G: 7, B: 10, A: 255}
	fireballColor    = rl.Color{R: 255, G: 140, B: 40, A: 255}
)

const controlsLegend = "[Space] Pause  [N] Step  [,/.] Steps  [R] Restart  [RMB] Orbit  [MMB] Pan  [Wheel] Zoom  [Home] Reset view"

// Draw renders the current frame.
func (g *Game) Draw() {
	if g.tickOpen {
		g.perfCollector.StartPhase(telemetry.PhaseRender)
	}

	rl.BeginDrawing()
	defer rl.EndDrawing()

	g.background.Draw()

	g.scene.Sync(g.engine)
	g.sceneRenderer.Draw(g.camera, g.scene, g.sceneOptions())

	g.drawUI()
	if g.tickOpen {
		g.perfCollector.EndTick()
		g.tickOpen = false
	}
}

// sceneOptions maps overlay toggles to renderer options.
func (g *Game) sceneOptions() renderer.Options {
	opts := renderer.Options{
		Spheres:      g.overlays.IsEnabled(ui.OverlayMasses),
		SphereRadius: 0.3,
		Links:        g.overlays.IsEnabled(ui.OverlayLinks),
		Floor:        g.overlays.IsEnabled(ui.OverlayFloor),
		Domain:       g.overlays.IsEnabled(ui.OverlayDomain),
	}
	if g.overlays.IsEnabled(ui.OverlayGravity) {
		c := g.engine.GravityCenter()
		opts.GravityCenter = &c
	}
	if fb := g.engine.Fireball(); fb != nil && g.overlays.IsEnabled(ui.OverlayFireball) {
		opts.Fireball = &renderer.Sphere{Center: fb.Center, Radius: fb.Radius(), Color: fireballColor}
	}
	return opts
}

// drawUI draws the HUD and panels and applies slider edits.
func (g *Game) drawUI() {
	e := g.engine
	data := ui.HUDData{
		Title:        "Particles",
		Mode:         e.Mode().String(),
		Alive:        e.NumAlive(),
		Capacity:     e.Capacity(),
		Springs:      g.scene.Links(),
		Frame:        int64(e.Frames()),
		SimTime:      float32(e.Time()),
		Substeps:     e.Substeps(),
		FPS:          rl.GetFPS(),
		Paused:       g.paused,
		ScreenWidth:  int32(g.screenWidth),
		ScreenHeight: int32(g.screenHeight),
	}
	if fb := e.Fireball(); fb != nil {
		data.Fireball = fb.Phase.String()
	}
	g.hud.Draw(data)
	g.hud.DrawControls(int32(g.screenWidth), int32(g.screenHeight),
		fmt.Sprintf("%s  x%d", controlsLegend, g.stepsPerUpdate))

	if g.overlays.IsEnabled(ui.OverlayPerf) {
		g.perfPanel.Draw(g.perfCollector.Stats())
	}

	if g.overlays.IsEnabled(ui.OverlayControls) {
		g.applyControls(g.controls.Draw(g.tunables(), g.overlays))
	}
}

// tunables reads the slider values from the engine.
func (g *Game) tunables() ui.Tunables {
	e := g.engine
	return ui.Tunables{
		SpawnRate:     float32(e.SpawnRate()),
		MaxSpawnRate:  float32(max(4*g.cfg.Population.SpawnRate, float64(e.Capacity()))),
		SimSpeed:      float32(e.SimSpeed()),
		GravityFactor: float32(e.GravityFactor()),
		HasSpawning:   !e.Mode().HasMasses(),
	}
}

// applyControls pushes panel edits into the engine. They take effect at the
// next frame's parameter upload.
func (g *Game) applyControls(a ui.ControlActions) {
	if a.Changed {
		g.engine.SetSpawnRate(float64(a.Tunables.SpawnRate))
		g.engine.SetSimSpeed(float64(a.Tunables.SimSpeed))
		g.engine.SetGravityFactor(float64(a.Tunables.GravityFactor))
	}
	if a.ResetCamera {
		g.camera.Reset()
	}
	if a.Restart {
		g.restart()
	}
}

// Config returns the game's active configuration.
func (g *Game) Config() *config.Config { return g.cfg }
