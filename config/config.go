// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/particles/buffers"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure. These are fatal: the
// simulation must not start with a configuration that would corrupt dispatch.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Simulation SimulationConfig `yaml:"simulation"`
	Domain     DomainConfig     `yaml:"domain"`
	Gravity    GravityConfig    `yaml:"gravity"`
	Population PopulationConfig `yaml:"population"`
	Cloth      ClothConfig      `yaml:"cloth"`
	Chain      ChainConfig      `yaml:"chain"`
	Fireball   FireballConfig   `yaml:"fireball"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"` // also the ideal frame rate the sub-step count is derived from
}

// SimulationConfig holds the engine shape and stepping parameters.
type SimulationConfig struct {
	Mode          string  `yaml:"mode"`            // free, fireball, water, cloth, chain
	Capacity      int     `yaml:"capacity"`        // particle slots for free/fireball/water
	WorkGroupSize int     `yaml:"work_group_size"` // lanes per dispatch unit
	Timestep      float64 `yaml:"timestep"`        // fixed sub-step in seconds
	SimSpeed      float64 `yaml:"sim_speed"`       // multiplier applied to every sub-step
	Seed          int64   `yaml:"seed"`            // 0 = time based
}

// DomainConfig holds the axis-aligned simulation bounds. Z is up.
type DomainConfig struct {
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`
}

// GravityConfig holds gravity parameters.
type GravityConfig struct {
	Center [3]float64 `yaml:"center"` // attractor for free mode, emitter for water
	Factor float64    `yaml:"factor"` // attraction strength toward Center
	Accel  float64    `yaml:"accel"`  // downward acceleration along -Z
	Drag   float64    `yaml:"drag"`   // linear velocity damping per second
}

// PopulationConfig holds spawn and death parameters.
type PopulationConfig struct {
	SpawnRate   float64 `yaml:"spawn_rate"`   // particles per second
	MaxLifetime float64 `yaml:"max_lifetime"` // seconds a particle lives
	SettleSpeed float64 `yaml:"settle_speed"` // vertical speed under which a bounced particle dies
	Bounce      float64 `yaml:"bounce"`       // velocity multiplier on collision, in (-1, 0]
	SpawnSpeed  float64 `yaml:"spawn_speed"`  // initial speed of emitted particles
	SpawnSpread float64 `yaml:"spawn_spread"` // cone spread of emitted particles (0..1)
}

// ClothConfig holds the cloth grid parameters.
type ClothConfig struct {
	Threads         int     `yaml:"threads"`
	MassesPerThread int     `yaml:"masses_per_thread"`
	Mass            float64 `yaml:"mass"`
	ThreadSpacing   float64 `yaml:"thread_spacing"` // rest length along a thread
	RungSpacing     float64 `yaml:"rung_spacing"`   // rest length between threads
	Height          float64 `yaml:"height"`
	Jitter          float64 `yaml:"jitter"` // random offset added to seeded positions
	Stiffness       float64 `yaml:"stiffness"`
	Damping         float64 `yaml:"damping"`
}

// ChainConfig holds the point-mass chain parameters.
type ChainConfig struct {
	Masses         int     `yaml:"masses"`
	SpringCapacity int     `yaml:"spring_capacity"`
	Mass           float64 `yaml:"mass"`
	RestLength     float64 `yaml:"rest_length"`
	Stretch        float64 `yaml:"stretch"` // initial spacing as a multiple of RestLength
	Height         float64 `yaml:"height"`
	Stiffness      float64 `yaml:"stiffness"`
	Damping        float64 `yaml:"damping"`
}

// FireballConfig holds the fireball state machine parameters.
type FireballConfig struct {
	Emitter         [3]float64 `yaml:"emitter"`
	LaunchVelocity  [3]float64 `yaml:"launch_velocity"`
	ChargeTime      float64    `yaml:"charge_time"`
	BurstTime       float64    `yaml:"burst_time"`
	BurstMultiplier float64    `yaml:"burst_multiplier"`
	Radius          float64    `yaml:"radius"`
	Buoyancy        float64    `yaml:"buoyancy"` // upward acceleration of embers
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Mode     Mode    // parsed Simulation.Mode
	Capacity int     // element count for the selected mode
	DT32     float32 // Simulation.Timestep as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Refresh(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Refresh recomputes derived values and validates. Call it after mutating a
// loaded Config in code.
func (c *Config) Refresh() error {
	if err := c.computeDerived(); err != nil {
		return err
	}
	return c.Validate()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	mode, err := ParseMode(c.Simulation.Mode)
	if err != nil {
		return err
	}
	c.Derived.Mode = mode
	c.Derived.DT32 = float32(c.Simulation.Timestep)

	switch mode {
	case ModeCloth:
		c.Derived.Capacity = c.Cloth.Threads * c.Cloth.MassesPerThread
	case ModeChain:
		c.Derived.Capacity = c.Chain.Masses
	default:
		c.Derived.Capacity = c.Simulation.Capacity
	}
	return nil
}

// Validate reports the first fatal configuration error.
func (c *Config) Validate() error {
	sim := &c.Simulation
	if sim.WorkGroupSize <= 0 {
		return fmt.Errorf("%w: work_group_size must be positive, got %d", ErrInvalid, sim.WorkGroupSize)
	}
	if c.Derived.Capacity <= 0 {
		return fmt.Errorf("%w: element count must be positive, got %d", ErrInvalid, c.Derived.Capacity)
	}
	if c.Derived.Capacity%sim.WorkGroupSize != 0 {
		return fmt.Errorf("%w: element count %d is not a multiple of work_group_size %d",
			ErrInvalid, c.Derived.Capacity, sim.WorkGroupSize)
	}
	if sim.Timestep <= 0 || math.IsNaN(sim.Timestep) {
		return fmt.Errorf("%w: timestep must be positive, got %v", ErrInvalid, sim.Timestep)
	}
	if c.Screen.TargetFPS <= 0 {
		return fmt.Errorf("%w: target_fps must be positive, got %d", ErrInvalid, c.Screen.TargetFPS)
	}
	if b := c.Population.Bounce; b > 0 || b <= -1 {
		return fmt.Errorf("%w: bounce must be in (-1, 0], got %v", ErrInvalid, b)
	}
	if c.Population.SpawnRate < 0 {
		return fmt.Errorf("%w: spawn_rate must not be negative, got %v", ErrInvalid, c.Population.SpawnRate)
	}
	for axis := 0; axis < 3; axis++ {
		if c.Domain.Min[axis] >= c.Domain.Max[axis] {
			return fmt.Errorf("%w: domain min[%d]=%v is not below max[%d]=%v",
				ErrInvalid, axis, c.Domain.Min[axis], axis, c.Domain.Max[axis])
		}
	}
	if c.Derived.Mode == ModeCloth && c.Derived.Capacity > buffers.MaxMasses {
		return fmt.Errorf("%w: cloth has %d masses, neighbor links address at most %d",
			ErrInvalid, c.Derived.Capacity, buffers.MaxMasses)
	}
	if c.Derived.Mode == ModeChain && c.Chain.SpringCapacity < c.Chain.Masses-1 {
		return fmt.Errorf("%w: spring_capacity %d cannot hold %d chain springs",
			ErrInvalid, c.Chain.SpringCapacity, c.Chain.Masses-1)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Clone returns a deep copy (all fields are values).
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
