// Package game wires the engine, scene, telemetry and UI into the main loop.
package game

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/particles/camera"
	"github.com/pthm-cable/particles/config"
	"github.com/pthm-cable/particles/render"
	"github.com/pthm-cable/particles/renderer"
	"github.com/pthm-cable/particles/sim"
	"github.com/pthm-cable/particles/telemetry"
	"github.com/pthm-cable/particles/ui"
)

// Options configures a Game.
type Options struct {
	Seed           int64   // overrides simulation.seed when non-zero
	Workers        int     // compute workers, 0 = GOMAXPROCS
	LogStats       bool    // log window stats through slog
	StatsWindowSec float64 // telemetry window in simulated seconds
	OutputDir      string  // CSV and config snapshot directory, empty disables
	Headless       bool
	StepsPerUpdate int // frames simulated per Update call
}

// Game holds the complete runtime state.
type Game struct {
	cfg    *config.Config
	opts   Options
	engine *sim.Engine

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)

	// Config hot reload, applied between frames
	reloads chan *config.Config

	// Rendering (nil when headless)
	scene         *render.Scene
	camera        *camera.Camera
	background    *renderer.BackgroundRenderer
	sceneRenderer *renderer.SceneRenderer
	hud           *ui.HUD
	perfPanel     *ui.PerfPanel
	controls      *ui.ControlsPanel
	overlays      *ui.OverlayRegistry

	// State
	paused         bool
	tickOpen       bool // last step's perf tick is left open for Draw
	stepsPerUpdate int
	screenWidth    float32
	screenHeight   float32
}

// NewGameWithOptions creates a game for cfg. Graphical mode requires the
// raylib window to exist already.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	cfg = cfg.Clone()
	if opts.Seed != 0 {
		cfg.Simulation.Seed = opts.Seed
	}
	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	if opts.StatsWindowSec <= 0 {
		opts.StatsWindowSec = cfg.Telemetry.StatsWindow
	}

	g := &Game{
		cfg:            cfg,
		opts:           opts,
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		reloads:        make(chan *config.Config, 1),
		stepsPerUpdate: opts.StepsPerUpdate,
		screenWidth:    float32(cfg.Screen.Width),
		screenHeight:   float32(cfg.Screen.Height),
	}

	if err := g.startEngine(cfg); err != nil {
		return nil, err
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		g.engine.Close()
		return nil, fmt.Errorf("creating output: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	if !opts.Headless {
		g.initRendering()
	}
	return g, nil
}

// startEngine (re)creates the engine and everything sized by it from cfg.
// On error the running engine and its config are left untouched.
func (g *Game) startEngine(cfg *config.Config) error {
	engine, err := sim.New(cfg, sim.Options{
		Workers: g.opts.Workers,
		Timer:   g.perfCollector,
	})
	if err != nil {
		return err
	}
	if g.engine != nil {
		g.engine.Close()
	}
	g.cfg = cfg
	g.engine = engine
	g.collector = telemetry.NewCollector(g.opts.StatsWindowSec, engine.FrameDT())
	if g.scene != nil {
		g.scene = render.NewScene(engine)
		g.sceneRenderer = renderer.NewSceneRenderer(domain(g.cfg))
	}
	return nil
}

// initRendering builds the raylib side.
func (g *Game) initRendering() {
	min, max := domain(g.cfg)
	g.scene = render.NewScene(g.engine)
	g.camera = camera.New(g.screenWidth, g.screenHeight, min, max)
	g.background = renderer.NewBackgroundRenderer(int32(g.screenWidth), int32(g.screenHeight),
		backgroundTop, backgroundBottom)
	g.sceneRenderer = renderer.NewSceneRenderer(min, max)
	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-300, 10)
	g.controls = ui.NewControlsPanel(10, 150, 260)
	g.overlays = ui.NewOverlayRegistry()
}

// Update handles input and advances the simulation (graphical mode).
func (g *Game) Update() {
	g.perfCollector.RecordFrame()
	g.handleInput()
	g.applyReloads()
	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step(i < g.stepsPerUpdate-1)
	}
	g.tickOpen = true
}

// UpdateHeadless advances the simulation without any rendering.
func (g *Game) UpdateHeadless() {
	g.applyReloads()
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step(true)
	}
}

// step runs one engine frame and its telemetry. With endTick false the perf
// tick stays open so Draw can add the render phase to it.
func (g *Game) step(endTick bool) {
	g.perfCollector.StartTick()
	g.engine.Frame()
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()
	if endTick {
		g.perfCollector.EndTick()
	}
}

// RequestReload queues cfg to be applied before the next frame. It may be
// called from any goroutine; a pending reload is replaced by a newer one.
func (g *Game) RequestReload(cfg *config.Config) {
	for {
		select {
		case g.reloads <- cfg:
			return
		default:
		}
		select {
		case <-g.reloads:
		default:
		}
	}
}

// applyReloads applies a pending config. Shape changes restart the engine.
func (g *Game) applyReloads() {
	var next *config.Config
	select {
	case next = <-g.reloads:
	default:
		return
	}

	restart := next.Derived.Mode != g.cfg.Derived.Mode ||
		next.Derived.Capacity != g.cfg.Derived.Capacity ||
		next.Simulation.WorkGroupSize != g.cfg.Simulation.WorkGroupSize
	if g.opts.Seed != 0 {
		next.Simulation.Seed = g.opts.Seed
	}

	if restart {
		slog.Info("config reload restarts engine", "mode", next.Derived.Mode, "capacity", next.Derived.Capacity)
		if err := g.startEngine(next); err != nil {
			slog.Error("restart failed, keeping previous engine", "error", err)
		}
		return
	}
	g.cfg = next
	g.engine.ApplyRuntime(next)
	slog.Info("runtime parameters applied", "spawn_rate", next.Population.SpawnRate, "sim_speed", next.Simulation.SimSpeed)
}

// Restart rebuilds the engine from the current config.
func (g *Game) Restart() error {
	return g.startEngine(g.cfg)
}

// SetStatsCallback registers fn to receive every flushed stats window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}

// Engine returns the running engine.
func (g *Game) Engine() *sim.Engine { return g.engine }

// Frames returns the number of simulated frames.
func (g *Game) Frames() uint64 { return g.engine.Frames() }

// Unload releases resources and flushes output.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.engine.Close()
}

func domain(cfg *config.Config) (min, max mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		min[i] = float32(cfg.Domain.Min[i])
		max[i] = float32(cfg.Domain.Max[i])
	}
	return min, max
}
