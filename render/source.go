// Package render adapts simulation buffers for drawing. It never writes to
// the simulation; everything here reads buffers between frames.
package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/particles/buffers"
)

// Source is read access to a simulation's buffers. sim.Engine implements it.
type Source interface {
	Positions() []mgl32.Vec4
	Colors() []mgl32.Vec4
	Lifetimes() []float32
	Springs() []buffers.Spring
	Masses() []buffers.MassParams
	NumAlive() int
}

// Instance is one drawable element.
type Instance struct {
	Index    int
	Position mgl32.Vec3
	Color    mgl32.Vec4
}

// Live reports whether slot i should be drawn.
func Live(life float32, color mgl32.Vec4) bool {
	return life >= 0 && color[3] > 0
}

// Collect appends every live element of src to dst and returns it. Dead
// sentinel slots are never included.
func Collect(src Source, dst []Instance) []Instance {
	pos := src.Positions()
	col := src.Colors()
	for i, life := range src.Lifetimes() {
		if !Live(life, col[i]) {
			continue
		}
		dst = append(dst, Instance{Index: i, Position: pos[i].Vec3(), Color: col[i]})
	}
	return dst
}

// Edges returns the drawable links of src: active springs of the pool, plus
// the left and down links of every mass so each cloth edge appears once.
func Edges(src Source) [][2]int {
	var edges [][2]int
	for _, s := range src.Springs() {
		if s.Active() {
			edges = append(edges, [2]int{int(s.MassOne), int(s.MassTwo)})
		}
	}
	for i, m := range src.Masses() {
		for _, d := range []buffers.Direction{buffers.Left, buffers.Down} {
			if j, ok := m.Conn[d].Get(); ok {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return edges
}
