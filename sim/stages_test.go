package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/particles/buffers"
	"github.com/pthm-cable/particles/config"
)

func testViews(t *testing.T, n int, masses bool, springs int) (*buffers.Layout, *views) {
	t.Helper()
	l, err := buffers.NewLayout(buffers.Spec{Capacity: n, WorkGroupSize: 1, Masses: masses, SpringCapacity: springs})
	require.NoError(t, err)
	return l, newViews(l)
}

func boxParams(p *buffers.SimParams) {
	p.DomainMin = mgl32.Vec4{-10, -10, 0, 1}
	p.DomainMax = mgl32.Vec4{10, 10, 20, 1}
	p.DT = 0.1
	p.Bounce = -0.8
	p.MaxLifetime = 10
	p.SettleSpeed = 1
}

func TestSpawnQuotaWholeRate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		require.Equal(t, 1, SpawnQuota(2, 0.5, rng))
	}
	assert.Equal(t, 0, SpawnQuota(0, 0.5, rng))
	assert.Equal(t, 0, SpawnQuota(-3, 0.5, rng))
}

func TestSpawnQuotaLongRunAverage(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	const (
		rate  = 37.0
		dt    = 1.0 / 60
		ticks = 20000
	)

	total := 0
	for i := 0; i < ticks; i++ {
		q := SpawnQuota(rate, dt, rng)
		require.True(t, q == 0 || q == 1, "quota must round %v up or down, got %d", rate*dt, q)
		total += q
	}

	observed := float64(total) / (ticks * dt)
	assert.InEpsilon(t, rate, observed, 0.03, "long-run spawn rate %v", observed)
}

func TestSpawnQuotaVaryingFrameTimes(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	jitter := rand.New(rand.NewSource(18))
	const (
		rate  = 37.0
		ticks = 20000
	)

	total, elapsed := 0, 0.0
	for i := 0; i < ticks; i++ {
		dt := 1.0/120 + jitter.Float64()*(1.0/20-1.0/120)
		q := SpawnQuota(rate, dt, rng)
		whole := int(math.Floor(rate * dt))
		require.True(t, q == whole || q == whole+1, "quota must round %v up or down, got %d", rate*dt, q)
		total += q
		elapsed += dt
	}

	observed := float64(total) / elapsed
	assert.InEpsilon(t, rate, observed, 0.03, "long-run spawn rate %v", observed)
}

func TestSentinelNeighborsContributeNothing(t *testing.T) {
	_, v := testViews(t, 2, true, 0)
	p := v.params
	p.DT = 0.01
	p.Stiffness = 1000
	p.Damping = 10
	p.ClothSpacing = mgl32.Vec4{1, 1, 0, 0}

	v.masses[0] = buffers.MassParams{Mass: 1}
	v.pos[0] = mgl32.Vec4{0, 0, 5, 1}
	v.vel[0] = mgl32.Vec4{1, 2, 3, 0}
	// a real mass sits far away but is not linked
	v.pos[1] = mgl32.Vec4{9, 9, 9, 1}

	got := clothForce{}.NewVelocity(0, v, p)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, got, "all-None connectivity must leave velocity untouched")
}

func TestInactiveSpringSlotsContributeNothing(t *testing.T) {
	_, v := testViews(t, 2, true, 3)
	p := v.params
	p.DT = 0.01
	p.Stiffness = 1000
	p.RestLength = 1

	v.masses[1] = buffers.MassParams{Mass: 1}
	v.pos[0] = mgl32.Vec4{0, 0, 10, 1}
	v.pos[1] = mgl32.Vec4{0, 0, 5, 1}
	for i := range v.springs {
		v.springs[i] = buffers.InactiveSpring
	}
	assert.Equal(t, mgl32.Vec3{}, chainForce{}.NewVelocity(1, v, p))

	// one active spring among sentinels: only it pulls
	v.springs[1] = buffers.Spring{MassOne: 0, MassTwo: 1}
	got := chainForce{}.NewVelocity(1, v, p)
	assert.InDelta(t, 40, got.Z(), 1e-3, "k*(5-1)*dt/m upward")
}

func TestFixedMassIgnoresSprings(t *testing.T) {
	_, v := testViews(t, 2, true, 1)
	p := v.params
	p.DT = 0.1
	p.Stiffness = 1000
	p.RestLength = 1
	p.GravityAccel = 9.8
	v.masses[0] = buffers.MassParams{IsFixed: true, Mass: 1}
	v.masses[1] = buffers.MassParams{Mass: 1}
	v.pos[0] = mgl32.Vec4{0, 0, 10, 1}
	v.pos[1] = mgl32.Vec4{0, 0, 0, 1}
	v.springs[0] = buffers.Spring{MassOne: 0, MassTwo: 1}

	assert.Equal(t, mgl32.Vec3{}, chainForce{}.NewVelocity(0, v, p))

	v.newVel[0] = mgl32.Vec4{5, 5, 5, 0}
	integrateKernel(v, config.ModeChain)(0)
	assert.Equal(t, mgl32.Vec4{0, 0, 10, 1}, v.pos[0])
	assert.Equal(t, mgl32.Vec4{}, v.vel[0])
}

func TestBoundaryClampAndBounce(t *testing.T) {
	_, v := testViews(t, 1, false, 0)
	boxParams(v.params)

	v.life[0] = 5
	v.pos[0] = mgl32.Vec4{9.5, 0, 0.2, 1}
	v.newVel[0] = mgl32.Vec4{10, 0, -10, 0}

	integrateKernel(v, config.ModeFree)(0)

	assert.Equal(t, float32(10), v.pos[0].X(), "clamped to max x")
	assert.Equal(t, float32(0), v.pos[0].Z(), "clamped to floor")
	assert.InDelta(t, -8, v.vel[0].X(), 1e-5)
	assert.InDelta(t, 8, v.vel[0].Z(), 1e-5)
	assert.InDelta(t, 4.9, v.life[0], 1e-5)
}

func TestInwardVelocityIsNotReflected(t *testing.T) {
	_, v := testViews(t, 1, false, 0)
	boxParams(v.params)

	v.life[0] = 5
	v.pos[0] = mgl32.Vec4{0, 0, -3, 1}
	v.newVel[0] = mgl32.Vec4{0, 0, 1, 0}

	integrateKernel(v, config.ModeFree)(0)
	assert.Equal(t, float32(1), v.vel[0].Z())
}

func TestSettledWaterDies(t *testing.T) {
	_, v := testViews(t, 1, false, 0)
	boxParams(v.params)

	v.life[0] = 5
	v.pos[0] = mgl32.Vec4{0, 0, 0.05, 1}
	v.newVel[0] = mgl32.Vec4{0, 0, -1, 0} // bounces to 0.8 < settle speed

	integrateKernel(v, config.ModeWater)(0)
	assert.Equal(t, buffers.DeadLifetime, v.life[0])
	assert.Equal(t, int32(1), v.atomics.NumDead)
	assert.Equal(t, int32(1), v.atomics.Killed)

	// the same bounce in free mode keeps the particle
	_, v = testViews(t, 1, false, 0)
	boxParams(v.params)
	v.life[0] = 5
	v.pos[0] = mgl32.Vec4{0, 0, 0.05, 1}
	v.newVel[0] = mgl32.Vec4{0, 0, -1, 0}
	integrateKernel(v, config.ModeFree)(0)
	assert.Greater(t, v.life[0], float32(0))
}

func TestAgeDeath(t *testing.T) {
	_, v := testViews(t, 1, false, 0)
	boxParams(v.params)
	v.life[0] = 0.05
	v.pos[0] = mgl32.Vec4{0, 0, 5, 1}

	integrateKernel(v, config.ModeFree)(0)
	assert.Equal(t, buffers.DeadLifetime, v.life[0])
	assert.Equal(t, int32(1), v.atomics.NumDead)
}

func TestDeadSlotsAreSkipped(t *testing.T) {
	_, v := testViews(t, 1, false, 0)
	boxParams(v.params)
	v.params.GravityAccel = 9.8
	v.life[0] = buffers.DeadLifetime
	v.pos[0] = mgl32.Vec4{1, 1, 1, 1}
	v.newVel[0] = mgl32.Vec4{7, 7, 7, 0}

	forceKernel(v, ForceModelFor(config.ModeWater))(0)
	integrateKernel(v, config.ModeWater)(0)

	assert.Equal(t, mgl32.Vec4{7, 7, 7, 0}, v.newVel[0], "force stage must not touch dead slots")
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, v.pos[0])
	assert.Equal(t, int32(0), v.atomics.NumDead)
}

func TestSpawnKernelHonorsBudget(t *testing.T) {
	l, v := testViews(t, 4, false, 0)
	boxParams(v.params)
	l.InitParticles(buffers.InitDormant, mgl32.Vec3{}, mgl32.Vec3{}, nil)
	v.atomics.SpawnBudget = 3
	v.life[1] = 2 // already alive
	v.atomics.NumDead = 3

	k := spawnKernel(v, fountainEmitter{})
	for i := 0; i < 4; i++ {
		k(i)
	}

	assert.Equal(t, int32(0), v.atomics.NumDead)
	assert.Equal(t, int32(3), v.atomics.Spawned)
	for i := range v.life {
		assert.GreaterOrEqual(t, v.life[i], float32(0), "slot %d", i)
	}
	assert.Equal(t, float32(2), v.life[1], "live slot untouched")
}

func TestFireballCycle(t *testing.T) {
	f := NewFireball(config.FireballConfig{
		Emitter:         [3]float64{0, 0, 5},
		LaunchVelocity:  [3]float64{0, 0, 10},
		ChargeTime:      1,
		BurstTime:       0.5,
		BurstMultiplier: 10,
		Radius:          1,
	})
	min := mgl32.Vec3{-50, -50, 0}
	max := mgl32.Vec3{50, 50, 100}

	assert.Equal(t, Charging, f.Phase)
	assert.Equal(t, float32(1), f.SpawnMultiplier())

	f.Advance(1, 10, min, max)
	require.Equal(t, Launched, f.Phase)

	steps := 0
	for f.Phase == Launched && steps < 1000 {
		f.Advance(0.01, 10, min, max)
		steps++
	}
	require.Equal(t, Burst, f.Phase, "the fireball must come down")
	assert.Equal(t, float32(1), f.Center.Z(), "resting on the floor at its radius")
	assert.Equal(t, float32(10), f.SpawnMultiplier())

	f.Advance(0.5, 10, min, max)
	assert.Equal(t, Charging, f.Phase)
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, f.Center)
	assert.Equal(t, "charging", f.Phase.String())
}
