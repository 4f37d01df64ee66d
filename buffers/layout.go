package buffers

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/particles/compute"
)

// ErrWorkGroupMismatch is returned when the element count cannot be split
// into whole work groups.
var ErrWorkGroupMismatch = compute.ErrWorkGroupMismatch

// Spec describes the buffers to allocate.
type Spec struct {
	Capacity       int  // particle or mass count
	WorkGroupSize  int  // lanes per group
	Masses         bool // allocate per-mass params (cloth, chain)
	SpringCapacity int  // spring pool slots, 0 for none
}

// Layout owns every storage buffer of one simulation. Buffers are allocated
// once and never resized.
type Layout struct {
	Capacity      int
	WorkGroupSize int

	Position    *Storage[mgl32.Vec4]
	Velocity    *Storage[mgl32.Vec4]
	NewVelocity *Storage[mgl32.Vec4] // force stage output
	Color       *Storage[mgl32.Vec4]
	ColorMod    *Storage[mgl32.Vec4]
	Lifetime    *Storage[float32]
	Masses      *Storage[MassParams]
	Springs     *Storage[Spring]
	Params      *Storage[SimParams] // single element
	Atomics     *Storage[Atomics]   // single element
}

// NewLayout allocates all buffers for spec.
func NewLayout(spec Spec) (*Layout, error) {
	if spec.Capacity <= 0 {
		return nil, fmt.Errorf("allocating buffers: capacity must be positive, got %d", spec.Capacity)
	}
	if _, err := compute.WorkGroups(spec.Capacity, spec.WorkGroupSize); err != nil {
		return nil, fmt.Errorf("allocating buffers: %w", err)
	}

	n := spec.Capacity
	massCount := 0
	if spec.Masses {
		massCount = n
	}

	return &Layout{
		Capacity:      n,
		WorkGroupSize: spec.WorkGroupSize,
		Position:      newVec4Storage("position", n),
		Velocity:      newVec4Storage("velocity", n),
		NewVelocity:   newVec4Storage("new_velocity", n),
		Color:         newVec4Storage("color", n),
		ColorMod:      newVec4Storage("color_mod", n),
		Lifetime:      newFloat32Storage("lifetime", n),
		Masses:        NewStorage[MassParams]("mass_params", massCount, MassParamsSize, PutMassParams),
		Springs:       NewStorage[Spring]("springs", spec.SpringCapacity, SpringSize, PutSpring),
		Params:        NewStorage[SimParams]("params", 1, SimParamsSize, PutSimParams),
		Atomics:       NewStorage[Atomics]("atomics", 1, AtomicsSize, PutAtomics),
	}, nil
}

// Groups returns the work group count for a full-capacity dispatch.
func (l *Layout) Groups() int {
	return l.Capacity / l.WorkGroupSize
}

// InitPolicy selects how particle buffers are seeded.
type InitPolicy int

const (
	// InitDormant leaves positions, velocities and colors zeroed.
	InitDormant InitPolicy = iota
	// InitRandom scatters positions through the domain with random colors.
	InitRandom
)

// InitParticles seeds the particle buffers and marks every slot dead. The
// domain bounds are only used by InitRandom.
func (l *Layout) InitParticles(policy InitPolicy, min, max mgl32.Vec3, rng *rand.Rand) {
	if policy == InitRandom {
		l.Position.Map(func(pos []mgl32.Vec4) {
			for i := range pos {
				pos[i] = mgl32.Vec4{
					min[0] + rng.Float32()*(max[0]-min[0]),
					min[1] + rng.Float32()*(max[1]-min[1]),
					min[2] + rng.Float32()*(max[2]-min[2]),
					1,
				}
			}
		})
		l.Color.Map(func(col []mgl32.Vec4) {
			for i := range col {
				col[i] = mgl32.Vec4{rng.Float32(), rng.Float32(), rng.Float32(), 1}
			}
		})
	}

	l.Lifetime.Map(func(life []float32) {
		for i := range life {
			life[i] = DeadLifetime
		}
	})
	l.Atomics.Map(func(a []Atomics) {
		a[0] = Atomics{NumDead: int32(l.Capacity)}
	})
}

// InitMasses copies positions and per-mass params into the buffers. Masses
// are immortal and there is no dead pool.
func (l *Layout) InitMasses(positions []mgl32.Vec3, params []MassParams, color mgl32.Vec4) error {
	if len(positions) != l.Capacity || len(params) != l.Capacity {
		return fmt.Errorf("initializing masses: got %d positions and %d params for capacity %d",
			len(positions), len(params), l.Capacity)
	}
	if l.Masses.Len() != l.Capacity {
		return fmt.Errorf("initializing masses: layout was allocated without mass params")
	}

	l.Position.Map(func(pos []mgl32.Vec4) {
		for i, p := range positions {
			pos[i] = p.Vec4(1)
		}
	})
	l.Color.Map(func(col []mgl32.Vec4) {
		for i := range col {
			col[i] = color
		}
	})
	l.Lifetime.Map(func(life []float32) {
		for i := range life {
			life[i] = Immortal
		}
	})
	if err := l.Masses.Upload(params); err != nil {
		return err
	}
	l.Atomics.Map(func(a []Atomics) {
		a[0] = Atomics{}
	})
	return nil
}
