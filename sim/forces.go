package sim

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/particles/buffers"
	"github.com/pthm-cable/particles/config"
	"github.com/pthm-cable/particles/topology"
)

// views holds the kernel-side slices of a layout. Buffers never resize, so
// the slices stay valid for the engine's lifetime.
type views struct {
	pos      []mgl32.Vec4
	vel      []mgl32.Vec4
	newVel   []mgl32.Vec4
	color    []mgl32.Vec4
	colorMod []mgl32.Vec4
	life     []float32
	masses   []buffers.MassParams
	springs  []buffers.Spring
	params   *buffers.SimParams
	atomics  *buffers.Atomics
}

func newViews(l *buffers.Layout) *views {
	return &views{
		pos:      l.Position.Data(),
		vel:      l.Velocity.Data(),
		newVel:   l.NewVelocity.Data(),
		color:    l.Color.Data(),
		colorMod: l.ColorMod.Data(),
		life:     l.Lifetime.Data(),
		masses:   l.Masses.Data(),
		springs:  l.Springs.Data(),
		params:   &l.Params.Data()[0],
		atomics:  &l.Atomics.Data()[0],
	}
}

// ForceModel is the force stage of one mode. NewVelocity is evaluated once
// per live element and sub-step; it may read any buffer but writes none.
type ForceModel interface {
	NewVelocity(i int, v *views, p *buffers.SimParams) mgl32.Vec3
}

// ForceModelFor returns the force stage for mode.
func ForceModelFor(mode config.Mode) ForceModel {
	switch mode {
	case config.ModeFree:
		return particleForce{attract: true}
	case config.ModeWater:
		return particleForce{gravity: true}
	case config.ModeFireball:
		return particleForce{gravity: true, buoyant: true}
	case config.ModeCloth:
		return clothForce{}
	case config.ModeChain:
		return chainForce{}
	}
	return particleForce{}
}

// particleForce applies body forces to free particles. Particles do not
// interact with each other.
type particleForce struct {
	attract bool // pull toward the gravity center
	gravity bool // constant downward acceleration
	buoyant bool // embers rise against gravity
}

func (f particleForce) NewVelocity(i int, v *views, p *buffers.SimParams) mgl32.Vec3 {
	vel := v.vel[i].Vec3()
	var accel mgl32.Vec3

	if f.attract && p.GravityFactor != 0 {
		d := p.GravityCenter.Vec3().Sub(v.pos[i].Vec3())
		if dist := d.Len(); dist > 1e-3 {
			accel = accel.Add(d.Mul(p.GravityFactor / dist))
		}
	}
	if f.gravity {
		accel[2] -= p.GravityAccel
	}
	if f.buoyant {
		accel[2] += p.Buoyancy
	}

	return drag(vel.Add(accel.Mul(p.DT)), p)
}

// drag applies linear damping for one sub-step.
func drag(vel mgl32.Vec3, p *buffers.SimParams) mgl32.Vec3 {
	if p.Drag <= 0 {
		return vel
	}
	return vel.Mul(math32.Max(0, 1-p.Drag*p.DT))
}

func massOf(m buffers.MassParams) float32 {
	if m.Mass <= 0 {
		return 1
	}
	return m.Mass
}

// clothForce sums the springs to the four grid neighbors plus gravity.
type clothForce struct{}

func (clothForce) NewVelocity(i int, v *views, p *buffers.SimParams) mgl32.Vec3 {
	m := v.masses[i]
	if m.IsFixed {
		return mgl32.Vec3{}
	}

	pos := v.pos[i].Vec3()
	vel := v.vel[i].Vec3()
	var force mgl32.Vec3

	for d, n := range m.Conn {
		j, ok := n.Get()
		if !ok || j >= len(v.pos) {
			continue
		}
		rest := p.ClothSpacing[1]
		if dir := buffers.Direction(d); dir == buffers.Up || dir == buffers.Down {
			rest = p.ClothSpacing[0]
		}
		force = force.Add(topology.SpringForce(pos, v.pos[j].Vec3(), vel, v.vel[j].Vec3(), rest, p.Stiffness, p.Damping))
	}

	mass := massOf(m)
	accel := force.Mul(1 / mass)
	accel[2] -= p.GravityAccel
	return drag(vel.Add(accel.Mul(p.DT)), p)
}

// chainForce sums every active spring of the pool that touches the mass.
type chainForce struct{}

func (chainForce) NewVelocity(i int, v *views, p *buffers.SimParams) mgl32.Vec3 {
	m := v.masses[i]
	if m.IsFixed {
		return mgl32.Vec3{}
	}

	pos := v.pos[i].Vec3()
	vel := v.vel[i].Vec3()
	var force mgl32.Vec3
	n := int32(len(v.pos))

	for _, s := range v.springs {
		if !s.Active() || s.MassOne >= n || s.MassTwo >= n {
			continue
		}
		var other int32
		switch int32(i) {
		case s.MassOne:
			other = s.MassTwo
		case s.MassTwo:
			other = s.MassOne
		default:
			continue
		}
		force = force.Add(topology.SpringForce(pos, v.pos[other].Vec3(), vel, v.vel[other].Vec3(), p.RestLength, p.Stiffness, p.Damping))
	}

	accel := force.Mul(1 / massOf(m))
	accel[2] -= p.GravityAccel
	return drag(vel.Add(accel.Mul(p.DT)), p)
}
