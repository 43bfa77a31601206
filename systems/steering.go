package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
)

// Steered records which entities a seek rule touched during the current tick.
type Steered struct {
	set map[ecs.Entity]struct{}
}

// NewSteered creates an empty record.
func NewSteered() *Steered {
	return &Steered{set: make(map[ecs.Entity]struct{})}
}

// Reset forgets every entity. Called once per tick before the seek rules run.
func (s *Steered) Reset() {
	clear(s.set)
}

// Mark records e as steered.
func (s *Steered) Mark(e ecs.Entity) {
	s.set[e] = struct{}{}
}

// Has reports whether e was steered this tick.
func (s *Steered) Has(e ecs.Entity) bool {
	_, ok := s.set[e]
	return ok
}

// Len returns the number of steered entities.
func (s *Steered) Len() int {
	return len(s.set)
}

// SeekSystem steers toward (or, rotated, away from) the Closest[T] target.
//
// desired = unit(offset) * Magnitude, and the velocity integrates
// v += R(Rotation) * (desired - v) * dt. A rotation of 0 seeks, Pi flees,
// and anything in between deflects.
type SeekSystem[T components.Relation] struct {
	Rotation  float64 // radians
	Magnitude float64

	filter  *ecs.Filter2[components.Closest[T], components.Movement]
	steered *Steered
}

// NewSeekSystem creates a seek rule for relation T.
func NewSeekSystem[T components.Relation](w *ecs.World, rotation, magnitude float64, steered *Steered) *SeekSystem[T] {
	return &SeekSystem[T]{
		Rotation:  rotation,
		Magnitude: magnitude,
		filter:    ecs.NewFilter2[components.Closest[T], components.Movement](w),
		steered:   steered,
	}
}

// Update applies the rule for one tick.
func (s *SeekSystem[T]) Update(w *ecs.World, dt float64) {
	query := s.filter.Query()
	for query.Next() {
		closest, mov := query.Get()
		dist := r2.Norm(closest.Offset)
		if dist < epsilon {
			continue
		}
		desired := r2.Scale(s.Magnitude/dist, closest.Offset)
		force := r2.Rotate(r2.Sub(desired, mov.Velocity), s.Rotation, r2.Vec{})
		mov.Velocity = r2.Add(mov.Velocity, r2.Scale(dt, force))
		if s.steered != nil {
			s.steered.Mark(query.Entity())
		}
	}
}

// WanderSystem nudges unsteered creatures toward a drifting point ahead of them.
type WanderSystem struct {
	turnRate  float64
	lookahead float64
	rng       *rand.Rand

	filter  *ecs.Filter3[components.Transform, components.Movement, components.Wander]
	steered *Steered
}

// NewWanderSystem creates the wander rule. rng must not be shared across goroutines.
func NewWanderSystem(w *ecs.World, turnRate, lookahead float64, rng *rand.Rand, steered *Steered) *WanderSystem {
	return &WanderSystem{
		turnRate:  turnRate,
		lookahead: lookahead,
		rng:       rng,
		filter:    ecs.NewFilter3[components.Transform, components.Movement, components.Wander](w),
		steered:   steered,
	}
}

// Update applies the rule for one tick.
func (s *WanderSystem) Update(w *ecs.World, dt float64) {
	query := s.filter.Query()
	for query.Next() {
		tr, mov, wander := query.Get()
		if s.steered != nil && s.steered.Has(query.Entity()) {
			continue
		}

		future := r2.Add(tr.Position, r2.Scale(s.lookahead, mov.Velocity))
		target := r2.Add(future, r2.Scale(wander.Radius, wander.Direction()))
		desired := r2.Sub(target, tr.Position)
		mov.Velocity = r2.Add(mov.Velocity, r2.Scale(dt, desired))

		if s.rng.Intn(2) == 0 {
			wander.Angle += s.turnRate * dt
		} else {
			wander.Angle -= s.turnRate * dt
		}
	}
}

// RicochetSystem reflects the velocity of tagged entities that reach a wall.
type RicochetSystem struct {
	bounds Bounds
	filter *ecs.Filter3[components.Transform, components.Movement, components.RicochetTag]
}

// NewRicochetSystem creates the bounce rule.
func NewRicochetSystem(w *ecs.World, bounds Bounds) *RicochetSystem {
	return &RicochetSystem{
		bounds: bounds,
		filter: ecs.NewFilter3[components.Transform, components.Movement, components.RicochetTag](w),
	}
}

// Update applies the rule for one tick.
func (s *RicochetSystem) Update(w *ecs.World) {
	query := s.filter.Query()
	for query.Next() {
		tr, mov, _ := query.Get()
		if tr.Position.X >= s.bounds.Right || tr.Position.X <= s.bounds.Left {
			mov.Velocity.X = -mov.Velocity.X
		}
		if tr.Position.Y >= s.bounds.Top || tr.Position.Y <= s.bounds.Bottom {
			mov.Velocity.Y = -mov.Velocity.Y
		}
	}
}
