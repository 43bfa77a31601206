package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
)

// EntityDetectionSystem fills every Perception with the entities strictly
// within its range, using the positions the grid captured this tick.
// It must run after the grid rebuild.
type EntityDetectionSystem struct {
	grid   *SpatialGrid
	filter *ecs.Filter2[components.Transform, components.Perception]

	candidates []ecs.Entity
}

// NewEntityDetectionSystem creates the detector for grid.
func NewEntityDetectionSystem(w *ecs.World, grid *SpatialGrid) *EntityDetectionSystem {
	return &EntityDetectionSystem{
		grid:   grid,
		filter: ecs.NewFilter2[components.Transform, components.Perception](w),
	}
}

// Update rewrites each Perception's entity list in grid query order.
func (s *EntityDetectionSystem) Update(w *ecs.World) {
	query := s.filter.Query()
	for query.Next() {
		tr, p := query.Get()
		self := query.Entity()
		p.Entities = p.Entities[:0]
		if p.Range <= 0 {
			continue
		}

		pos := tr.Position
		if gp, ok := s.grid.Position(self); ok {
			pos = gp
		}
		r2max := p.Range * p.Range
		s.candidates = s.grid.QueryInto(s.candidates[:0], pos, p.Range)
		for _, other := range s.candidates {
			if other == self {
				continue
			}
			op, ok := s.grid.Position(other)
			if !ok {
				continue
			}
			if r2.Norm2(r2.Sub(op, pos)) < r2max {
				p.Entities = append(p.Entities, other)
			}
		}
	}
}
