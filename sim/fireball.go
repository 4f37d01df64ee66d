package sim

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/particles/config"
)

// FireballPhase is the state of the fireball cycle.
type FireballPhase uint32

const (
	Charging FireballPhase = iota // held at the emitter
	Launched                      // in ballistic flight
	Burst                         // exploded, spawning at the burst rate
)

func (p FireballPhase) String() string {
	switch p {
	case Charging:
		return "charging"
	case Launched:
		return "launched"
	case Burst:
		return "burst"
	default:
		return "unknown"
	}
}

// Fireball drives the fireball cycle on the CPU. Its center is part of the
// parameter block, not per-element data.
type Fireball struct {
	Phase    FireballPhase
	Center   mgl32.Vec3
	Velocity mgl32.Vec3

	timer float32

	emitter    mgl32.Vec3
	launch     mgl32.Vec3
	chargeTime float32
	burstTime  float32
	multiplier float32
	radius     float32
}

// NewFireball returns a fireball charging at the configured emitter.
func NewFireball(cfg config.FireballConfig) *Fireball {
	emitter := vec3(cfg.Emitter)
	return &Fireball{
		Phase:      Charging,
		Center:     emitter,
		emitter:    emitter,
		launch:     vec3(cfg.LaunchVelocity),
		chargeTime: float32(cfg.ChargeTime),
		burstTime:  float32(cfg.BurstTime),
		multiplier: float32(cfg.BurstMultiplier),
		radius:     float32(cfg.Radius),
	}
}

// Advance moves the cycle forward by dt seconds. gravity pulls along -Z;
// leaving the domain or touching its floor triggers the burst.
func (f *Fireball) Advance(dt, gravity float32, min, max mgl32.Vec3) {
	f.timer += dt

	switch f.Phase {
	case Charging:
		f.Center = f.emitter
		f.Velocity = mgl32.Vec3{}
		if f.timer >= f.chargeTime {
			f.enter(Launched)
			f.Velocity = f.launch
		}

	case Launched:
		f.Velocity[2] -= gravity * dt
		f.Center = f.Center.Add(f.Velocity.Mul(dt))
		if f.Center.Z()-f.radius <= min.Z() {
			f.Center[2] = min.Z() + f.radius
			f.enter(Burst)
			return
		}
		for axis := 0; axis < 3; axis++ {
			if f.Center[axis] < min[axis] || f.Center[axis] > max[axis] {
				f.Center[axis] = mgl32.Clamp(f.Center[axis], min[axis], max[axis])
				f.enter(Burst)
				return
			}
		}

	case Burst:
		f.Velocity = mgl32.Vec3{}
		if f.timer >= f.burstTime {
			f.enter(Charging)
			f.Center = f.emitter
		}
	}
}

func (f *Fireball) enter(p FireballPhase) {
	slog.Debug("fireball phase", "from", f.Phase, "to", p, "center", f.Center)
	f.Phase = p
	f.timer = 0
}

// SpawnMultiplier scales the configured spawn rate for the current phase.
func (f *Fireball) SpawnMultiplier() float32 {
	if f.Phase == Burst {
		return f.multiplier
	}
	return 1
}

// Radius returns the fireball radius.
func (f *Fireball) Radius() float32 { return f.radius }

func vec3(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}
