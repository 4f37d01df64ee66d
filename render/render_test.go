package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/particles/buffers"
	"github.com/pthm-cable/particles/components"
	"github.com/pthm-cable/particles/config"
	"github.com/pthm-cable/particles/sim"
)

type fakeSource struct {
	pos     []mgl32.Vec4
	col     []mgl32.Vec4
	life    []float32
	springs []buffers.Spring
	masses  []buffers.MassParams
}

func (f *fakeSource) Positions() []mgl32.Vec4 { return f.pos }
func (f *fakeSource) Colors() []mgl32.Vec4 { return f.col }
func (f *fakeSource) Lifetimes() []float32 { return f.life }
func (f *fakeSource) Springs() []buffers.Spring { return f.springs }
func (f *fakeSource) Masses() []buffers.MassParams { return f.masses }
func (f *fakeSource) NumAlive() int {
	n := 0
	for _, l := range f.life {
		if l >= 0 {
			n++
		}
	}
	return n
}

func fourSlots() *fakeSource {
	return &fakeSource{
		pos: []mgl32.Vec4{{0, 0, 0, 1}, {1, 0, 0, 1}, {2, 0, 0, 1}, {3, 0, 0, 1}},
		col: []mgl32.Vec4{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 0}, {1, 1, 1, 1}},
		life: []float32{
			2,
			buffers.DeadLifetime,
			1, // alive but faded out
			0,
		},
	}
}

func TestCollectSkipsDeadAndInvisible(t *testing.T) {
	got := Collect(fourSlots(), nil)

	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 3, got[1].Index)
	assert.Equal(t, mgl32.Vec3{3, 0, 0}, got[1].Position)
}

func TestEdges(t *testing.T) {
	src := &fakeSource{
		springs: []buffers.Spring{{MassOne: 0, MassTwo: 1}, buffers.InactiveSpring},
		masses: []buffers.MassParams{
			{Conn: [buffers.NumDirections]buffers.Neighbor{buffers.Some(2), buffers.None, buffers.None, buffers.Some(1)}},
			{Conn: [buffers.NumDirections]buffers.Neighbor{buffers.None, buffers.None, buffers.Some(0), buffers.None}},
		},
	}
	assert.Equal(t, [][2]int{{0, 1}, {0, 2}, {0, 1}}, Edges(src))
}

func TestSceneSync(t *testing.T) {
	src := fourSlots()
	scene := NewScene(src)

	assert.Equal(t, 4, scene.Len())
	assert.Equal(t, 2, scene.Visible())

	var drawn []components.Position
	scene.EachVisible(func(p components.Position, _ components.Tint) {
		drawn = append(drawn, p)
	})
	assert.ElementsMatch(t, []components.Position{{X: 0}, {X: 3}}, drawn)

	// slot 1 respawns somewhere else
	src.life[1] = 5
	src.pos[1] = mgl32.Vec4{7, 8, 9, 1}
	assert.Equal(t, 3, scene.Sync(src))

	found := false
	scene.EachVisible(func(p components.Position, tint components.Tint) {
		if p == (components.Position{X: 7, Y: 8, Z: 9}) {
			found = true
			assert.Equal(t, components.Tint{G: 1, A: 1}, tint)
		}
	})
	assert.True(t, found)
}

func TestSceneFromChainEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Mode = "chain"
	cfg.Simulation.Seed = 3
	require.NoError(t, cfg.Refresh())

	e, err := sim.New(cfg, sim.Options{Workers: 2})
	require.NoError(t, err)
	defer e.Close()

	scene := NewScene(e)
	assert.Equal(t, cfg.Chain.Masses, scene.Visible())
	assert.Equal(t, cfg.Chain.Masses-1, scene.Links())

	e.Frame()
	scene.Sync(e)

	links := 0
	scene.EachLink(func(a, b components.Position) { links++ })
	assert.Equal(t, cfg.Chain.Masses-1, links)
}

func TestSceneNeverShowsDeadWaterParticles(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Capacity = 256
	cfg.Simulation.Seed = 11
	cfg.Population.MaxLifetime = 0.3
	require.NoError(t, cfg.Refresh())

	e, err := sim.New(cfg, sim.Options{})
	require.NoError(t, err)
	defer e.Close()

	scene := NewScene(e)
	var buf []Instance
	for f := 0; f < 60; f++ {
		e.Frame()
		scene.Sync(e)
		buf = Collect(e, buf[:0])
		require.LessOrEqual(t, len(buf), e.NumAlive())
		require.Equal(t, len(buf), scene.Visible())
		for _, inst := range buf {
			require.GreaterOrEqual(t, e.Lifetimes()[inst.Index], float32(0))
		}
	}
}
