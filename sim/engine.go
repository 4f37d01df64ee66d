// Package sim runs the particle and mass-spring simulation: it owns the
// buffers, fills the parameter block, and drives the spawn, force and
// integrate kernels through a compute device with explicit barriers.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/particles/buffers"
	"github.com/pthm-cable/particles/compute"
	"github.com/pthm-cable/particles/config"
	"github.com/pthm-cable/particles/topology"
)

// Phase names reported to a PhaseTimer besides the kernel stages.
const (
	PhaseParams   = "params"
	PhaseReadback = "readback"
)

// PhaseTimer receives the start of each frame phase.
type PhaseTimer interface {
	StartPhase(phase string)
}

// Options configures an Engine.
type Options struct {
	// Device runs the kernels. Nil starts a CPU device owned by the engine.
	Device compute.Device
	// Workers sizes the owned CPU device; 0 uses GOMAXPROCS.
	Workers int
	// Timer, if set, is told when each phase of a frame starts.
	Timer PhaseTimer
}

// Engine is one simulation instance. It is not safe for concurrent use; all
// methods must be called from the goroutine driving frames.
type Engine struct {
	cfg    *config.Config
	mode   config.Mode
	layout *buffers.Layout
	views  *views

	dev       compute.Device
	ownsDev   bool
	groups    int
	substeps  int
	spawn     *compute.Kernel
	force     *compute.Kernel
	integrate *compute.Kernel
	timer     PhaseTimer

	fireball *Fireball
	rng      *rand.Rand

	// runtime adjustable
	spawnRate     float64
	simSpeed      float64
	gravityCenter mgl32.Vec3
	gravityFactor float64

	time     float64
	frames   uint64
	counters buffers.Atomics
	numAlive int
}

// New builds an engine for cfg. cfg must have been loaded or refreshed; the
// engine keeps its own copy.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	cfg = cfg.Clone()
	if err := cfg.Refresh(); err != nil {
		return nil, err
	}
	mode := cfg.Derived.Mode

	springCap := 0
	if mode == config.ModeChain {
		springCap = cfg.Chain.SpringCapacity
	}
	layout, err := buffers.NewLayout(buffers.Spec{
		Capacity:       cfg.Derived.Capacity,
		WorkGroupSize:  cfg.Simulation.WorkGroupSize,
		Masses:         mode.HasMasses(),
		SpringCapacity: springCap,
	})
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	groups, err := compute.WorkGroups(layout.Capacity, layout.WorkGroupSize)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		cfg:           cfg,
		mode:          mode,
		layout:        layout,
		views:         newViews(layout),
		dev:           opts.Device,
		groups:        groups,
		substeps:      compute.ComputationsPerFrame(cfg.Screen.TargetFPS, cfg.Simulation.Timestep),
		timer:         opts.Timer,
		rng:           rand.New(rand.NewSource(seed)),
		spawnRate:     cfg.Population.SpawnRate,
		simSpeed:      cfg.Simulation.SimSpeed,
		gravityCenter: vec3(cfg.Gravity.Center),
		gravityFactor: cfg.Gravity.Factor,
	}
	if e.dev == nil {
		e.dev = compute.NewCPUDevice(opts.Workers)
		e.ownsDev = true
	}

	if err := e.populate(); err != nil {
		e.Close()
		return nil, err
	}
	if mode == config.ModeFireball {
		e.fireball = NewFireball(cfg.Fireball)
	}
	e.spawn, e.force, e.integrate = newKernels(layout, e.views, mode)
	e.readback()

	slog.Info("engine created",
		"mode", mode,
		"capacity", layout.Capacity,
		"work_groups", groups,
		"substeps", e.substeps,
		"seed", seed,
	)
	return e, nil
}

// populate seeds the buffers for the mode.
func (e *Engine) populate() error {
	cfg := e.cfg
	switch e.mode {
	case config.ModeCloth:
		m, err := topology.Grid(e.gridSpec(), e.rng)
		if err != nil {
			return err
		}
		return e.layout.InitMasses(m.Positions, m.Params, mgl32.Vec4{0.9, 0.9, 0.95, 1})

	case config.ModeChain:
		m, springs, err := topology.Chain(topology.ChainSpec{
			Masses:     cfg.Chain.Masses,
			Mass:       float32(cfg.Chain.Mass),
			RestLength: float32(cfg.Chain.RestLength),
			Stretch:    float32(cfg.Chain.Stretch),
			Anchor:     mgl32.Vec3{0, 0, float32(cfg.Chain.Height)},
		})
		if err != nil {
			return err
		}
		pool, err := topology.NewSpringPool(cfg.Chain.SpringCapacity, springs)
		if err != nil {
			return err
		}
		if err := e.layout.Springs.Upload(pool); err != nil {
			return err
		}
		return e.layout.InitMasses(m.Positions, m.Params, mgl32.Vec4{1, 0.8, 0.3, 1})

	case config.ModeFree:
		e.layout.InitParticles(buffers.InitRandom, vec3(cfg.Domain.Min), vec3(cfg.Domain.Max), e.rng)

	default:
		e.layout.InitParticles(buffers.InitDormant, mgl32.Vec3{}, mgl32.Vec3{}, e.rng)
	}
	return nil
}

func (e *Engine) gridSpec() topology.GridSpec {
	c := e.cfg.Cloth
	return topology.GridSpec{
		Threads:       c.Threads,
		PerThread:     c.MassesPerThread,
		Mass:          float32(c.Mass),
		ThreadSpacing: float32(c.ThreadSpacing),
		RungSpacing:   float32(c.RungSpacing),
		Height:        float32(c.Height),
		Jitter:        float32(c.Jitter),
	}
}

// Close stops an owned device.
func (e *Engine) Close() {
	if e.ownsDev {
		e.dev.Close()
	}
}

// FrameDT returns the simulated seconds one frame advances.
func (e *Engine) FrameDT() float64 {
	return float64(e.substeps) * e.cfg.Simulation.Timestep * e.simSpeed
}

// Frame advances the simulation by one rendered frame: upload params, spawn,
// then force and integrate for every sub-step, each stage followed by a
// barrier, and finally read back the counters.
func (e *Engine) Frame() {
	e.startPhase(PhaseParams)
	frameDT := e.FrameDT()
	e.uploadParams()
	e.layout.Atomics.Map(func(a []buffers.Atomics) {
		a[0].SpawnBudget = int32(SpawnQuota(e.effectiveSpawnRate(), frameDT, e.rng))
	})

	e.startPhase(StageSpawn)
	e.dev.Dispatch(e.spawn, e.groups)
	e.dev.MemoryBarrier()

	for s := 0; s < e.substeps; s++ {
		e.startPhase(StageForce)
		e.dev.Dispatch(e.force, e.groups)
		e.dev.MemoryBarrier()

		e.startPhase(StageIntegrate)
		e.dev.Dispatch(e.integrate, e.groups)
		e.dev.MemoryBarrier()
	}

	e.startPhase(PhaseReadback)
	e.readback()

	if e.fireball != nil {
		e.fireball.Advance(float32(frameDT), float32(e.cfg.Gravity.Accel),
			vec3(e.cfg.Domain.Min), vec3(e.cfg.Domain.Max))
	}
	e.time += frameDT
	e.frames++
}

func (e *Engine) startPhase(phase string) {
	if e.timer != nil {
		e.timer.StartPhase(phase)
	}
}

// effectiveSpawnRate is the rate this frame: zero without a dead pool,
// multiplied during a fireball burst.
func (e *Engine) effectiveSpawnRate() float64 {
	if e.mode.HasMasses() {
		return 0
	}
	if e.fireball != nil {
		return e.spawnRate * float64(e.fireball.SpawnMultiplier())
	}
	return e.spawnRate
}

// uploadParams fills the parameter block for this frame.
func (e *Engine) uploadParams() {
	cfg := e.cfg
	p := buffers.SimParams{
		GravityCenter: e.gravityCenter.Vec4(1),
		DomainMin:     vec3(cfg.Domain.Min).Vec4(1),
		DomainMax:     vec3(cfg.Domain.Max).Vec4(1),
		SimSpeed:      float32(e.simSpeed),
		GravityFactor: float32(e.gravityFactor),
		SpawnRate:     float32(e.effectiveSpawnRate()),
		Time:          float32(e.time),
		Mode:          uint32(e.mode),
		DT:            float32(cfg.Simulation.Timestep * e.simSpeed),
		Seed:          e.rng.Uint32(),
		Bounce:        float32(cfg.Population.Bounce),
		SettleSpeed:   float32(cfg.Population.SettleSpeed),
		MaxLifetime:   float32(cfg.Population.MaxLifetime),
		GravityAccel:  float32(cfg.Gravity.Accel),
		Drag:          float32(cfg.Gravity.Drag),
		SpawnSpeed:    float32(cfg.Population.SpawnSpeed),
		SpawnSpread:   float32(cfg.Population.SpawnSpread),
	}

	switch e.mode {
	case config.ModeCloth:
		p.Stiffness = float32(cfg.Cloth.Stiffness)
		p.Damping = float32(cfg.Cloth.Damping)
		p.ClothSpacing = mgl32.Vec4{float32(cfg.Cloth.ThreadSpacing), float32(cfg.Cloth.RungSpacing), 0, 0}
	case config.ModeChain:
		p.Stiffness = float32(cfg.Chain.Stiffness)
		p.Damping = float32(cfg.Chain.Damping)
		p.RestLength = float32(cfg.Chain.RestLength)
	case config.ModeFireball:
		p.FireballPhase = uint32(e.fireball.Phase)
		p.FireballCenter = e.fireball.Center.Vec4(1)
		p.FireballRadius = float32(cfg.Fireball.Radius)
		p.Buoyancy = float32(cfg.Fireball.Buoyancy)
	}

	// single element, cannot fail
	_ = e.layout.Params.Upload([]buffers.SimParams{p})
}

// readback copies the counters after the final barrier.
func (e *Engine) readback() {
	var a [1]buffers.Atomics
	_ = e.layout.Atomics.Download(a[:])
	e.counters = a[0]
	e.numAlive = e.layout.Capacity - int(a[0].NumDead)
}

// SetSpawnRate changes the spawn rate in particles per second.
func (e *Engine) SetSpawnRate(rate float64) {
	e.spawnRate = max(rate, 0)
}

// SetSimSpeed changes the sub-step multiplier.
func (e *Engine) SetSimSpeed(speed float64) {
	e.simSpeed = max(speed, 0)
}

// SetGravityCenter moves the attractor / fountain.
func (e *Engine) SetGravityCenter(c mgl32.Vec3) {
	e.gravityCenter = c
}

// SetGravityFactor changes the free-mode attraction strength.
func (e *Engine) SetGravityFactor(f float64) {
	e.gravityFactor = f
}

// ApplyRuntime copies the runtime-adjustable fields of a reloaded config.
// Structural changes (mode, capacity) need a new engine and are ignored.
func (e *Engine) ApplyRuntime(cfg *config.Config) {
	e.SetSpawnRate(cfg.Population.SpawnRate)
	e.SetSimSpeed(cfg.Simulation.SimSpeed)
	e.SetGravityCenter(vec3(cfg.Gravity.Center))
	e.SetGravityFactor(cfg.Gravity.Factor)
	if cfg.Derived.Mode != e.mode || cfg.Derived.Capacity != e.layout.Capacity {
		slog.Warn("config reload changes engine shape, restart to apply",
			"mode", cfg.Derived.Mode, "capacity", cfg.Derived.Capacity)
	}
}

// NumAlive returns the live element count at the last readback.
func (e *Engine) NumAlive() int { return e.numAlive }

// Counters returns the atomics at the last readback.
func (e *Engine) Counters() buffers.Atomics { return e.counters }

// Capacity returns the element count.
func (e *Engine) Capacity() int { return e.layout.Capacity }

// Mode returns the simulation mode.
func (e *Engine) Mode() config.Mode { return e.mode }

// Time returns the simulated seconds elapsed.
func (e *Engine) Time() float64 { return e.time }

// Frames returns the number of completed frames.
func (e *Engine) Frames() uint64 { return e.frames }

// Substeps returns the sub-steps per frame.
func (e *Engine) Substeps() int { return e.substeps }

// SpawnRate returns the configured spawn rate.
func (e *Engine) SpawnRate() float64 { return e.spawnRate }

// SimSpeed returns the sub-step multiplier.
func (e *Engine) SimSpeed() float64 { return e.simSpeed }

// GravityCenter returns the attractor / fountain position.
func (e *Engine) GravityCenter() mgl32.Vec3 { return e.gravityCenter }

// GravityFactor returns the free-mode attraction strength.
func (e *Engine) GravityFactor() float64 { return e.gravityFactor }

// Config returns the engine's copy of its configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Fireball returns the fireball state, nil outside fireball mode.
func (e *Engine) Fireball() *Fireball { return e.fireball }

// Layout exposes the buffers. Callers must only read between frames.
func (e *Engine) Layout() *buffers.Layout { return e.layout }

// Read access for the render adapter. The slices alias the buffers and are
// only stable between frames.

func (e *Engine) Positions() []mgl32.Vec4 { return e.layout.Position.Data() }
func (e *Engine) Velocities() []mgl32.Vec4 { return e.layout.Velocity.Data() }
func (e *Engine) Colors() []mgl32.Vec4 { return e.layout.Color.Data() }
func (e *Engine) Lifetimes() []float32 { return e.layout.Lifetime.Data() }
func (e *Engine) Springs() []buffers.Spring { return e.layout.Springs.Data() }
func (e *Engine) Masses() []buffers.MassParams { return e.layout.Masses.Data() }
