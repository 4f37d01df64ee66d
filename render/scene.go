package render

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/particles/components"
)

// Scene mirrors the buffers as ECS entities: one per buffer slot and one per
// link. Sync copies the buffers in once per frame, the way a renderer would
// copy GPU results into its scene objects.
type Scene struct {
	world *ecs.World

	slotMapper *ecs.Map3[components.Position, components.Tint, components.Slot]
	slotFilter *ecs.Filter3[components.Position, components.Tint, components.Slot]
	linkMapper *ecs.Map1[components.Link]
	linkFilter *ecs.Filter1[components.Link]

	entities []ecs.Entity // by slot index
	visible  int
}

// NewScene creates the entities for src. Links are built once; the spring
// pool and cloth connectivity never change after initialization.
func NewScene(src Source) *Scene {
	world := ecs.NewWorld()
	s := &Scene{
		world:      world,
		slotMapper: ecs.NewMap3[components.Position, components.Tint, components.Slot](world),
		slotFilter: ecs.NewFilter3[components.Position, components.Tint, components.Slot](world),
		linkMapper: ecs.NewMap1[components.Link](world),
		linkFilter: ecs.NewFilter1[components.Link](world),
	}

	n := len(src.Positions())
	s.entities = make([]ecs.Entity, n)
	for i := 0; i < n; i++ {
		pos := components.Position{}
		tint := components.Tint{}
		slot := components.Slot{Index: int32(i)}
		s.entities[i] = s.slotMapper.NewEntity(&pos, &tint, &slot)
	}

	for _, e := range Edges(src) {
		link := components.Link{A: int32(e[0]), B: int32(e[1])}
		s.linkMapper.NewEntity(&link)
	}

	s.Sync(src)
	return s
}

// Sync copies positions, colors and liveness from src. It returns the number
// of visible entities.
func (s *Scene) Sync(src Source) int {
	pos := src.Positions()
	col := src.Colors()
	life := src.Lifetimes()

	s.visible = 0
	query := s.slotFilter.Query()
	for query.Next() {
		p, t, slot := query.Get()
		i := slot.Index
		c := col[i]
		*p = components.Position{X: pos[i][0], Y: pos[i][1], Z: pos[i][2]}
		*t = components.Tint{R: c[0], G: c[1], B: c[2], A: c[3]}
		slot.Alive = Live(life[i], c)
		if slot.Alive {
			s.visible++
		}
	}
	return s.visible
}

// Visible returns the visible count from the last Sync.
func (s *Scene) Visible() int { return s.visible }

// Len returns the number of slot entities.
func (s *Scene) Len() int { return len(s.entities) }

// Links returns the number of link entities.
func (s *Scene) Links() int {
	n := 0
	query := s.linkFilter.Query()
	for query.Next() {
		n++
	}
	return n
}

// EachVisible calls fn for every live slot.
func (s *Scene) EachVisible(fn func(pos components.Position, tint components.Tint)) {
	query := s.slotFilter.Query()
	for query.Next() {
		p, t, slot := query.Get()
		if slot.Alive {
			fn(*p, *t)
		}
	}
}

// EachLink calls fn with both endpoints of every link whose ends are live.
func (s *Scene) EachLink(fn func(a, b components.Position)) {
	query := s.linkFilter.Query()
	for query.Next() {
		link := query.Get()
		pa, _, sa := s.slotMapper.Get(s.entities[link.A])
		pb, _, sb := s.slotMapper.Get(s.entities[link.B])
		if sa.Alive && sb.Alive {
			fn(*pa, *pb)
		}
	}
}
