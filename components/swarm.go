package components

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"
)

// SwarmCenter is the wandering anchor a swarm orbits.
// Members is pruned every tick; an empty center is deleted.
type SwarmCenter struct {
	Members []ecs.Entity
}

// SwarmBehavior ties a swarmling to its center.
type SwarmBehavior struct {
	Center     ecs.Entity
	Attraction float64
	Deviation  float64
	MaxSpeed   float64 // applied to Velocity, not to the world velocity
	Velocity   r2.Vec  // relative to the center
}
