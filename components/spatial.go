package components

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Transform is a creature's world placement.
type Transform struct {
	Position r2.Vec
	Heading  float64 // radians, derived from velocity
}

// Movement marks an entity as mobile.
// Entities without it are static: never moved, never the first party of a collision.
type Movement struct {
	Velocity r2.Vec
	MaxSpeed float64 // 0 = unbounded
}

// Collider is a circular collision body.
type Collider struct {
	Radius float64
}

// Wander holds random-drift steering state.
type Wander struct {
	Angle  float64 // radians
	Radius float64
}

// Direction returns the unit vector of the wander angle.
func (w Wander) Direction() r2.Vec {
	return r2.Vec{X: math.Cos(w.Angle), Y: math.Sin(w.Angle)}
}

// RicochetTag makes an entity bounce off world walls by reflecting velocity.
type RicochetTag struct{}

// IntelligenceTag marks entities that perceive and steer toward targets.
type IntelligenceTag struct{}
