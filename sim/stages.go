package sim

import (
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/particles/buffers"
	"github.com/pthm-cable/particles/compute"
	"github.com/pthm-cable/particles/config"
)

// Kernel names, also used as perf phase names.
const (
	StageSpawn     = "spawn"
	StageForce     = "force"
	StageIntegrate = "integrate"
)

// spawnKernel revives dead slots while spawn tickets remain. A slot claims a
// ticket by atomically decrementing the budget; a negative result means the
// quota is used up and the slot stays dead.
func spawnKernel(v *views, emit Emitter) func(i int) {
	return func(i int) {
		if emit == nil || v.life[i] >= 0 {
			return
		}
		a := v.atomics
		if atomic.AddInt32(&a.SpawnBudget, -1) < 0 {
			return
		}
		atomic.AddInt32(&a.NumDead, -1)
		atomic.AddInt32(&a.Spawned, 1)

		r := compute.NewRand(v.params.Seed, i)
		emit.Emit(i, v, v.params, &r)
	}
}

// forceKernel writes only newVel.
func forceKernel(v *views, model ForceModel) func(i int) {
	return func(i int) {
		if v.life[i] < 0 {
			return
		}
		v.newVel[i] = model.NewVelocity(i, v, v.params).Vec4(0)
	}
}

// integrateKernel advances positions with the new velocities, resolves
// domain collisions and ages particles.
func integrateKernel(v *views, mode config.Mode) func(i int) {
	hasMasses := mode.HasMasses()
	settles := mode == config.ModeWater || mode == config.ModeFireball

	return func(i int) {
		life := v.life[i]
		if life < 0 {
			return
		}
		p := v.params

		if hasMasses && v.masses[i].IsFixed {
			v.vel[i] = mgl32.Vec4{}
			v.newVel[i] = mgl32.Vec4{}
			return
		}

		vel := v.newVel[i]
		pos := v.pos[i]
		for axis := 0; axis < 3; axis++ {
			pos[axis] += vel[axis] * p.DT
		}

		floorBounce := false
		for axis := 0; axis < 3; axis++ {
			switch {
			case pos[axis] < p.DomainMin[axis] && vel[axis] < 0:
				pos[axis] = p.DomainMin[axis]
				vel[axis] *= p.Bounce
				if axis == 2 {
					floorBounce = true
				}
			case pos[axis] > p.DomainMax[axis] && vel[axis] > 0:
				pos[axis] = p.DomainMax[axis]
				vel[axis] *= p.Bounce
			}
		}

		v.pos[i] = pos
		v.vel[i] = vel

		if hasMasses {
			return
		}

		// color drift, clamped to [0, 1]
		mod := v.colorMod[i]
		col := v.color[i]
		for c := 0; c < 4; c++ {
			col[c] = mgl32.Clamp(col[c]+mod[c]*p.DT, 0, 1)
		}
		v.color[i] = col

		life -= p.DT
		if life <= 0 || (settles && floorBounce && math32.Abs(vel[2]) < p.SettleSpeed) {
			kill(v, i)
			return
		}
		v.life[i] = life
	}
}

func kill(v *views, i int) {
	v.life[i] = buffers.DeadLifetime
	v.vel[i] = mgl32.Vec4{}
	atomic.AddInt32(&v.atomics.NumDead, 1)
	atomic.AddInt32(&v.atomics.Killed, 1)
}

// newKernels builds the three stages for a layout.
func newKernels(l *buffers.Layout, v *views, mode config.Mode) (spawn, force, integrate *compute.Kernel) {
	size := l.WorkGroupSize
	spawn = &compute.Kernel{Name: StageSpawn, GroupSize: size, Invoke: spawnKernel(v, EmitterFor(mode))}
	force = &compute.Kernel{Name: StageForce, GroupSize: size, Invoke: forceKernel(v, ForceModelFor(mode))}
	integrate = &compute.Kernel{Name: StageIntegrate, GroupSize: size, Invoke: integrateKernel(v, mode)}
	return spawn, force, integrate
}
