package components

import "github.com/mlange-42/ark/ecs"

// Perception lists every other positioned entity strictly within Range.
// Entities is rewritten each tick and must not be retained.
type Perception struct {
	Range    float64
	Entities []ecs.Entity
}
