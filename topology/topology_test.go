package topology

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/particles/buffers"
)

func clothSpec() GridSpec {
	return GridSpec{
		Threads:       32,
		PerThread:     16,
		Mass:          0.05,
		ThreadSpacing: 2,
		RungSpacing:   1,
		Height:        20,
	}
}

func TestGridNeighbors(t *testing.T) {
	m, err := Grid(clothSpec(), nil)
	require.NoError(t, err)
	require.Equal(t, 512, m.Len())

	// interior mass: thread 3, position 5
	i := 3*16 + 5
	conn := m.Params[i].Conn
	want := map[buffers.Direction]int{
		buffers.Left:  i + 16,
		buffers.Right: i - 16,
		buffers.Up:    i - 1,
		buffers.Down:  i + 1,
	}
	for d, w := range want {
		got, ok := conn[d].Get()
		assert.True(t, ok, "direction %d", d)
		assert.Equal(t, w, got, "direction %d", d)
	}
}

func TestGridBoundaries(t *testing.T) {
	m, err := Grid(clothSpec(), nil)
	require.NoError(t, err)

	first := m.Params[0].Conn
	assert.Equal(t, buffers.None, first[buffers.Right])
	assert.Equal(t, buffers.None, first[buffers.Up])

	last := m.Params[511].Conn
	assert.Equal(t, buffers.None, last[buffers.Left])
	assert.Equal(t, buffers.None, last[buffers.Down])

	// every referenced index is in range and links back
	for i, p := range m.Params {
		for d, n := range p.Conn {
			j, ok := n.Get()
			if !ok {
				continue
			}
			require.True(t, j >= 0 && j < m.Len(), "mass %d direction %d points out of range: %d", i, d, j)
			k, ok := m.Params[j].Conn[opposite(buffers.Direction(d))].Get()
			assert.True(t, ok && k == i, "link %d -> %d is not symmetric", i, j)
		}
	}
}

func opposite(d buffers.Direction) buffers.Direction {
	switch d {
	case buffers.Left:
		return buffers.Right
	case buffers.Right:
		return buffers.Left
	case buffers.Up:
		return buffers.Down
	default:
		return buffers.Up
	}
}

func TestGridFixesFirstMassOfEachThread(t *testing.T) {
	m, err := Grid(clothSpec(), rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	for i, p := range m.Params {
		assert.Equal(t, i%16 == 0, p.IsFixed, "mass %d", i)
	}
}

func TestGridRejectsEmpty(t *testing.T) {
	_, err := Grid(GridSpec{Threads: 0, PerThread: 4}, nil)
	assert.Error(t, err)
}

func TestGridRejectsIndexOnSentinel(t *testing.T) {
	// 131072 masses would hand mass 95683 the "no neighbor" wire value
	spec := clothSpec()
	spec.Threads = 2048
	spec.PerThread = 64

	var err error
	require.NotPanics(t, func() { _, err = Grid(spec, nil) })
	assert.Error(t, err)

	// the largest grid that still fits is accepted
	spec.Threads = 1
	spec.PerThread = buffers.MaxMasses
	m, err := Grid(spec, nil)
	require.NoError(t, err)
	last, ok := m.Params[buffers.MaxMasses-2].Conn[buffers.Down].Get()
	assert.True(t, ok)
	assert.Equal(t, buffers.MaxMasses-1, last)
}

func TestChainSprings(t *testing.T) {
	m, springs, err := Chain(ChainSpec{Masses: 4, Mass: 1, RestLength: 1, Stretch: 2, Anchor: mgl32.Vec3{0, 0, 10}})
	require.NoError(t, err)
	require.Len(t, springs, 3)
	for i, s := range springs {
		assert.Equal(t, buffers.Spring{MassOne: int32(i), MassTwo: int32(i + 1)}, s)
	}
	assert.True(t, m.Params[0].IsFixed)
	assert.False(t, m.Params[1].IsFixed)
	assert.Equal(t, float32(4), m.Positions[3].Z())

	_, _, err = Chain(ChainSpec{Masses: 1})
	assert.Error(t, err)
}

func TestSpringPool(t *testing.T) {
	springs := []buffers.Spring{{MassOne: 0, MassTwo: 1}}
	pool, err := NewSpringPool(4, springs)
	require.NoError(t, err)
	assert.True(t, pool[0].Active())
	for i := 1; i < 4; i++ {
		assert.Equal(t, buffers.InactiveSpring, pool[i], "slot %d", i)
	}

	_, err = NewSpringPool(0, springs)
	assert.ErrorIs(t, err, ErrPoolTooSmall)
}

func TestSpringForce(t *testing.T) {
	pa := mgl32.Vec3{0, 0, 0}
	pb := mgl32.Vec3{0, 0, 3}
	var still mgl32.Vec3

	// stretched by 1: pulls a toward b
	f := SpringForce(pa, pb, still, still, 2, 10, 0)
	assert.True(t, f.ApproxEqual(mgl32.Vec3{0, 0, 10}), "got %v", f)

	// equal and opposite
	g := SpringForce(pb, pa, still, still, 2, 10, 0)
	assert.True(t, f.Add(g).ApproxEqual(mgl32.Vec3{}), "forces not opposite: %v vs %v", f, g)

	// damping resists separation
	f = SpringForce(pa, pb, still, mgl32.Vec3{0, 0, 1}, 3, 10, 0.5)
	assert.True(t, f.ApproxEqual(mgl32.Vec3{0, 0, 0.5}), "got %v", f)

	// coincident endpoints contribute nothing
	assert.Equal(t, mgl32.Vec3{}, SpringForce(pa, pa, still, still, 1, 10, 1))
}
