package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/config"
)

// Bounds is the axis-aligned world rectangle. Y grows upward.
type Bounds struct {
	Left, Right, Bottom, Top float64
}

// BoundsFromConfig converts the world section of the config.
func BoundsFromConfig(c config.WorldConfig) Bounds {
	return Bounds{Left: c.Left, Right: c.Right, Bottom: c.Bottom, Top: c.Top}
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.Right - b.Left }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.Top - b.Bottom }

// Contains reports whether p lies inside or on the walls.
func (b Bounds) Contains(p r2.Vec) bool {
	return p.X >= b.Left && p.X <= b.Right && p.Y >= b.Bottom && p.Y <= b.Top
}

// Clamp returns p moved onto the nearest in-bounds point.
func (b Bounds) Clamp(p r2.Vec) r2.Vec {
	return r2.Vec{
		X: clampFloat(p.X, b.Left, b.Right),
		Y: clampFloat(p.Y, b.Bottom, b.Top),
	}
}

// NearestWall returns the offset from p to the closest of the four walls,
// measured perpendicular to that wall.
func (b Bounds) NearestWall(p r2.Vec) r2.Vec {
	walls := [4]r2.Vec{
		{X: b.Left - p.X},
		{X: b.Right - p.X},
		{Y: b.Top - p.Y},
		{Y: b.Bottom - p.Y},
	}
	best := walls[0]
	for _, w := range walls[1:] {
		if r2.Norm2(w) < r2.Norm2(best) {
			best = w
		}
	}
	return best
}

// MovementSystem clamps speed and advances positions.
type MovementSystem struct {
	filter *ecs.Filter2[components.Transform, components.Movement]
}

// NewMovementSystem creates a new movement integrator.
func NewMovementSystem(w *ecs.World) *MovementSystem {
	return &MovementSystem{
		filter: ecs.NewFilter2[components.Transform, components.Movement](w),
	}
}

// Update runs the integrator for dt seconds.
func (s *MovementSystem) Update(w *ecs.World, dt float64) {
	query := s.filter.Query()
	for query.Next() {
		tr, mov := query.Get()

		// Rescale, never truncate per axis, so direction is preserved
		mov.Velocity = limitSpeed(mov.Velocity, mov.MaxSpeed)

		// NaN would poison every later distance test
		if math.IsNaN(mov.Velocity.X) || math.IsNaN(mov.Velocity.Y) {
			mov.Velocity = r2.Vec{}
		}

		tr.Position.X += mov.Velocity.X * dt
		tr.Position.Y += mov.Velocity.Y * dt
		tr.Heading = headingOf(mov.Velocity, tr.Heading)
	}
}

// EnforceBoundsSystem keeps every transform inside the world.
type EnforceBoundsSystem struct {
	bounds Bounds
	filter *ecs.Filter1[components.Transform]
}

// NewEnforceBoundsSystem creates the bounds clamp.
func NewEnforceBoundsSystem(w *ecs.World, bounds Bounds) *EnforceBoundsSystem {
	return &EnforceBoundsSystem{
		bounds: bounds,
		filter: ecs.NewFilter1[components.Transform](w),
	}
}

// Update clamps all positions.
func (s *EnforceBoundsSystem) Update(w *ecs.World) {
	query := s.filter.Query()
	for query.Next() {
		tr := query.Get()
		tr.Position = s.bounds.Clamp(tr.Position)
	}
}
