// Package topology builds mass-spring connectivity: the cloth grid, where
// each mass names up to four neighbors, and explicit spring pools for chains.
package topology

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/particles/buffers"
)

// Masses is the initial state of a mass-spring body.
type Masses struct {
	Positions []mgl32.Vec3
	Params    []buffers.MassParams
}

// Len returns the mass count.
func (m *Masses) Len() int { return len(m.Positions) }

// GridSpec shapes a cloth grid.
type GridSpec struct {
	Threads       int
	PerThread     int
	Mass          float32
	ThreadSpacing float32 // between consecutive masses of a thread
	RungSpacing   float32 // between adjacent threads
	Height        float32
	Jitter        float32
}

// Grid lays out threads*perThread masses. Mass i belongs to thread
// i/perThread at position i%perThread along it. Left and right link the same
// position on the next and previous thread; up and down link along the
// thread. The first mass of every thread is fixed.
func Grid(spec GridSpec, rng *rand.Rand) (*Masses, error) {
	if spec.Threads <= 0 || spec.PerThread <= 0 {
		return nil, fmt.Errorf("cloth grid: need positive dimensions, got %dx%d", spec.Threads, spec.PerThread)
	}

	n := spec.Threads * spec.PerThread
	if n > buffers.MaxMasses {
		return nil, fmt.Errorf("cloth grid: %d masses exceed the %d addressable by neighbor links", n, buffers.MaxMasses)
	}
	m := &Masses{
		Positions: make([]mgl32.Vec3, n),
		Params:    make([]buffers.MassParams, n),
	}

	jitter := func() float32 {
		if spec.Jitter == 0 || rng == nil {
			return 0
		}
		return rng.Float32() * spec.Jitter
	}

	for i := 0; i < n; i++ {
		thread := i / spec.PerThread
		along := i % spec.PerThread

		p := &m.Params[i]
		p.Mass = spec.Mass
		p.IsFixed = along == 0
		p.Conn = [buffers.NumDirections]buffers.Neighbor{
			buffers.None, buffers.None, buffers.None, buffers.None,
		}
		if thread < spec.Threads-1 {
			p.Conn[buffers.Left] = buffers.Some(i + spec.PerThread)
		}
		if thread > 0 {
			p.Conn[buffers.Right] = buffers.Some(i - spec.PerThread)
		}
		if along > 0 {
			p.Conn[buffers.Up] = buffers.Some(i - 1)
		}
		if along < spec.PerThread-1 {
			p.Conn[buffers.Down] = buffers.Some(i + 1)
		}

		m.Positions[i] = mgl32.Vec3{
			float32(along)*spec.ThreadSpacing + jitter(),
			float32(thread)*spec.RungSpacing + jitter(),
			spec.Height,
		}
	}
	return m, nil
}

// RestLength returns the rest length of the link from a mass in direction d.
func (spec GridSpec) RestLength(d buffers.Direction) float32 {
	if d == buffers.Up || d == buffers.Down {
		return spec.ThreadSpacing
	}
	return spec.RungSpacing
}
