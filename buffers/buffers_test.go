package buffers

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLayoutRejectsPartialGroups(t *testing.T) {
	_, err := NewLayout(Spec{Capacity: 10, WorkGroupSize: 4})
	require.ErrorIs(t, err, ErrWorkGroupMismatch)

	_, err = NewLayout(Spec{Capacity: 0, WorkGroupSize: 4})
	require.Error(t, err)

	l, err := NewLayout(Spec{Capacity: 8, WorkGroupSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, l.Groups())
	assert.Equal(t, 0, l.Masses.Len(), "particle layouts carry no mass params")
	assert.Equal(t, 0, l.Springs.Len())
}

func TestInitParticlesStartsDead(t *testing.T) {
	l, err := NewLayout(Spec{Capacity: 64, WorkGroupSize: 32})
	require.NoError(t, err)

	min := mgl32.Vec3{-5, -5, 0}
	max := mgl32.Vec3{5, 5, 10}
	l.InitParticles(InitRandom, min, max, rand.New(rand.NewSource(1)))

	for i, life := range l.Lifetime.Data() {
		require.Equal(t, DeadLifetime, life, "slot %d", i)
	}
	for i, p := range l.Position.Data() {
		for axis := 0; axis < 3; axis++ {
			require.GreaterOrEqual(t, p[axis], min[axis], "slot %d axis %d", i, axis)
			require.LessOrEqual(t, p[axis], max[axis], "slot %d axis %d", i, axis)
		}
	}
	assert.Equal(t, int32(64), l.Atomics.Data()[0].NumDead)
}

func TestInitDormantLeavesZeroState(t *testing.T) {
	l, err := NewLayout(Spec{Capacity: 4, WorkGroupSize: 4})
	require.NoError(t, err)
	l.InitParticles(InitDormant, mgl32.Vec3{}, mgl32.Vec3{}, nil)

	assert.Equal(t, mgl32.Vec4{}, l.Position.Data()[3])
	assert.Equal(t, int32(4), l.Atomics.Data()[0].NumDead)
}

func TestInitMassesIsImmortal(t *testing.T) {
	l, err := NewLayout(Spec{Capacity: 2, WorkGroupSize: 2, Masses: true, SpringCapacity: 1})
	require.NoError(t, err)

	err = l.InitMasses(
		[]mgl32.Vec3{{0, 0, 10}, {0, 0, 8}},
		[]MassParams{{IsFixed: true, Mass: 1}, {Mass: 1}},
		mgl32.Vec4{1, 1, 1, 1},
	)
	require.NoError(t, err)

	assert.Equal(t, Immortal, l.Lifetime.Data()[1])
	assert.Equal(t, int32(0), l.Atomics.Data()[0].NumDead)
	assert.Equal(t, float32(1), l.Position.Data()[0][3])

	err = l.InitMasses([]mgl32.Vec3{{}}, []MassParams{{}}, mgl32.Vec4{})
	assert.Error(t, err)
}

func TestStorageUploadDownload(t *testing.T) {
	s := newFloat32Storage("lifetime", 3)
	require.NoError(t, s.Upload([]float32{1, 2, 3}))

	out := make([]float32, 3)
	require.NoError(t, s.Download(out))
	assert.Equal(t, []float32{1, 2, 3}, out)

	assert.Error(t, s.Upload([]float32{1}))
	assert.Error(t, s.Download(make([]float32, 4)))
}

func TestStorageBytesLayout(t *testing.T) {
	s := newVec4Storage("position", 2)
	s.Map(func(d []mgl32.Vec4) {
		d[1] = mgl32.Vec4{1, 2, 3, 4}
	})

	raw := s.Bytes()
	require.Len(t, raw, 2*Vec4Size)
	assert.Equal(t, mgl32.Vec4{}, GetVec4(raw[0:16]))
	assert.Equal(t, mgl32.Vec4{1, 2, 3, 4}, GetVec4(raw[16:32]))
}

func TestRecordSizes(t *testing.T) {
	assert.Len(t, MassParams{}.Marshal(), MassParamsSize)
	assert.Len(t, Spring{}.Marshal(), SpringSize)
	assert.Len(t, SimParams{}.Marshal(), SimParamsSize)
	assert.Len(t, Atomics{}.Marshal(), AtomicsSize)
	assert.Equal(t, SimParamsSize, SimParams{}.Size())
}

func TestMassParamsWireSentinel(t *testing.T) {
	m := MassParams{
		IsFixed: true,
		Mass:    0.05,
		Conn:    [NumDirections]Neighbor{Some(16), None, None, Some(1)},
	}
	raw := m.Marshal()

	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(raw[0:4]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(raw[8:12]))
	assert.Equal(t, NoNeighbor, binary.LittleEndian.Uint32(raw[12:16]))
	assert.Equal(t, uint32(95683), binary.LittleEndian.Uint32(raw[16:20]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(raw[20:24]))

	assert.Equal(t, m, UnmarshalMassParams(raw))
}

func TestSpringSentinel(t *testing.T) {
	raw := InactiveSpring.Marshal()
	assert.Equal(t, uint32(0xFFFFFFFF), binary.LittleEndian.Uint32(raw[0:4]))
	assert.False(t, InactiveSpring.Active())
	assert.False(t, Spring{MassOne: 3, MassTwo: -1}.Active())
	assert.True(t, Spring{MassOne: 0, MassTwo: 1}.Active())
}

func TestSimParamsOffsets(t *testing.T) {
	p := SimParams{
		SimSpeed:       2,
		Mode:           3,
		Seed:           0xDEADBEEF,
		FireballCenter: mgl32.Vec4{7, 8, 9, 1},
	}
	raw := p.Marshal()

	assert.Equal(t, float32(2), GetFloat32(raw[48:52]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(raw[64:68]))
	assert.Equal(t, uint32(0xDEADBEEF), binary.LittleEndian.Uint32(raw[76:80]))
	assert.Equal(t, mgl32.Vec4{7, 8, 9, 1}, GetVec4(raw[128:144]))
	assert.Equal(t, p, UnmarshalSimParams(raw))
}

func TestNeighbor(t *testing.T) {
	i, ok := Some(5).Get()
	assert.True(t, ok)
	assert.Equal(t, 5, i)

	_, ok = None.Get()
	assert.False(t, ok)
	assert.Equal(t, None, DecodeNeighbor(NoNeighbor))
	assert.Equal(t, "none", None.String())

	assert.Panics(t, func() { Some(int(NoNeighbor)) })
	assert.Panics(t, func() { Some(-1) })
}
