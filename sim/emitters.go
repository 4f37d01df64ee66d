package sim

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/particles/buffers"
	"github.com/pthm-cable/particles/compute"
	"github.com/pthm-cable/particles/config"
)

// Emitter initializes a slot that just claimed a spawn ticket. It writes only
// slot i.
type Emitter interface {
	Emit(i int, v *views, p *buffers.SimParams, r *compute.Rand)
}

// EmitterFor returns the spawn policy for mode, or nil for modes without a
// dead pool.
func EmitterFor(mode config.Mode) Emitter {
	switch mode {
	case config.ModeFree:
		return freeEmitter{}
	case config.ModeWater:
		return fountainEmitter{}
	case config.ModeFireball:
		return emberEmitter{}
	}
	return nil
}

func lifetime(p *buffers.SimParams, r *compute.Rand, minFrac float32) float32 {
	return p.MaxLifetime * (minFrac + (1-minFrac)*r.Float32())
}

// freeEmitter revives the slot where it was seeded, drifting slowly.
type freeEmitter struct{}

func (freeEmitter) Emit(i int, v *views, p *buffers.SimParams, r *compute.Rand) {
	speed := p.SpawnSpeed * p.SpawnSpread
	v.vel[i] = mgl32.Vec4{r.Float11() * speed, r.Float11() * speed, r.Float11() * speed, 0}
	v.color[i][3] = 1
	v.colorMod[i] = mgl32.Vec4{}
	v.life[i] = lifetime(p, r, 0.5)
}

// fountainEmitter shoots water upward from the gravity center in a cone.
type fountainEmitter struct{}

func (fountainEmitter) Emit(i int, v *views, p *buffers.SimParams, r *compute.Rand) {
	c := p.GravityCenter
	v.pos[i] = mgl32.Vec4{c[0], c[1], c[2], 1}

	spread := p.SpawnSpread * p.SpawnSpeed
	v.vel[i] = mgl32.Vec4{
		r.Norm() * spread * 0.5,
		r.Norm() * spread * 0.5,
		p.SpawnSpeed * (0.85 + 0.15*r.Float32()),
		0,
	}

	shade := 0.7 + 0.3*r.Float32()
	v.color[i] = mgl32.Vec4{0.2 * shade, 0.5 * shade, shade, 1}
	v.colorMod[i] = mgl32.Vec4{0.1, 0.1, 0.05, 0}
	v.life[i] = lifetime(p, r, 0.5)
}

// emberEmitter scatters embers from the fireball surface.
type emberEmitter struct{}

func (emberEmitter) Emit(i int, v *views, p *buffers.SimParams, r *compute.Rand) {
	dir := mgl32.Vec3{r.Norm(), r.Norm(), r.Norm()}
	if l := dir.Len(); l > 1e-6 {
		dir = dir.Mul(1 / l)
	} else {
		dir = mgl32.Vec3{0, 0, 1}
	}

	center := p.FireballCenter.Vec3()
	pos := center.Add(dir.Mul(p.FireballRadius * r.Float32()))
	v.pos[i] = pos.Vec4(1)

	vel := dir.Mul(p.SpawnSpeed * p.SpawnSpread * (0.5 + r.Float32()))
	if FireballPhase(p.FireballPhase) == Burst {
		vel = vel.Mul(4)
	}
	v.vel[i] = vel.Vec4(0)

	v.color[i] = mgl32.Vec4{1, 0.6 + 0.4*r.Float32(), 0.1, 1}
	// cool from yellow to dark red, then fade
	v.colorMod[i] = mgl32.Vec4{-0.1, -0.5, -0.05, -0.3}
	v.life[i] = lifetime(p, r, 0.25)
}
