package topology

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/particles/buffers"
)

// ErrPoolTooSmall is returned when a spring pool cannot hold the topology.
var ErrPoolTooSmall = errors.New("spring pool capacity below edge count")

// ChainSpec shapes a hanging chain.
type ChainSpec struct {
	Masses     int
	Mass       float32
	RestLength float32
	Stretch    float32 // initial spacing as a multiple of RestLength
	Anchor     mgl32.Vec3
}

// Chain hangs n masses straight down from Anchor, mass 0 fixed, joined by
// springs i <-> i+1.
func Chain(spec ChainSpec) (*Masses, []buffers.Spring, error) {
	if spec.Masses < 2 {
		return nil, nil, fmt.Errorf("chain: need at least 2 masses, got %d", spec.Masses)
	}

	m := &Masses{
		Positions: make([]mgl32.Vec3, spec.Masses),
		Params:    make([]buffers.MassParams, spec.Masses),
	}
	gap := spec.RestLength * spec.Stretch
	for i := range m.Positions {
		m.Positions[i] = spec.Anchor.Sub(mgl32.Vec3{0, 0, float32(i) * gap})
		m.Params[i] = buffers.MassParams{IsFixed: i == 0, Mass: spec.Mass}
	}

	springs := make([]buffers.Spring, 0, spec.Masses-1)
	for i := 0; i < spec.Masses-1; i++ {
		springs = append(springs, buffers.Spring{MassOne: int32(i), MassTwo: int32(i + 1)})
	}
	return m, springs, nil
}

// NewSpringPool copies springs into a pool of the given capacity, padding
// the unused slots with the inactive sentinel.
func NewSpringPool(capacity int, springs []buffers.Spring) ([]buffers.Spring, error) {
	if capacity < len(springs) {
		return nil, fmt.Errorf("%d springs, capacity %d: %w", len(springs), capacity, ErrPoolTooSmall)
	}
	pool := make([]buffers.Spring, capacity)
	n := copy(pool, springs)
	for i := n; i < capacity; i++ {
		pool[i] = buffers.InactiveSpring
	}
	return pool, nil
}
