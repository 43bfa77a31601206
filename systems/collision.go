package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/events"
)

// body is a collider snapshot taken before the pairwise scan.
type body struct {
	e      ecs.Entity
	pos    r2.Vec
	radius float64
}

// CollisionSystem tests every moving collider against every other collider.
//
// The scan is O(n^2) over all colliders; there is no broad phase. For each
// overlap (a, b) with a moving, a CollisionEvent{a, b} is emitted and a's
// velocity is pointed along the separation normal at unchanged speed. When b
// moves too, the reverse pair is emitted from b's own pass.
type CollisionSystem struct {
	colliders *ecs.Filter2[components.Transform, components.Collider]
	movement  *ecs.Map[components.Movement]
	out       *events.Channel[events.CollisionEvent]

	bodies []body
}

// NewCollisionSystem creates the detector writing to out.
func NewCollisionSystem(w *ecs.World, out *events.Channel[events.CollisionEvent]) *CollisionSystem {
	return &CollisionSystem{
		colliders: ecs.NewFilter2[components.Transform, components.Collider](w),
		movement:  ecs.NewMap[components.Movement](w),
		out:       out,
	}
}

// Update runs the detector over post-move positions.
func (s *CollisionSystem) Update(w *ecs.World) {
	s.bodies = s.bodies[:0]
	query := s.colliders.Query()
	for query.Next() {
		tr, col := query.Get()
		s.bodies = append(s.bodies, body{e: query.Entity(), pos: tr.Position, radius: col.Radius})
	}

	for i := range s.bodies {
		a := &s.bodies[i]
		mov := lookup(w, s.movement, a.e)
		if mov == nil {
			continue
		}
		for j := range s.bodies {
			if i == j {
				continue
			}
			b := &s.bodies[j]
			allowed := a.radius + b.radius
			dir := r2.Sub(a.pos, b.pos)
			if r2.Norm2(dir) >= allowed*allowed {
				continue
			}

			s.out.Write(events.CollisionEvent{A: a.e, B: b.e})

			if dist := r2.Norm(dir); dist < epsilon {
				mov.Velocity = r2.Scale(-1, mov.Velocity)
			} else {
				mov.Velocity = r2.Scale(r2.Norm(mov.Velocity)/dist, dir)
			}
		}
	}
}
