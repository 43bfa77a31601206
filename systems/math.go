package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"
)

// epsilon guards normalization of near-zero vectors.
const epsilon = 1e-6

// lookup returns e's component from m, or nil when e is dead or lacks it.
// Stale handles from earlier stages of the tick resolve to nil.
func lookup[T any](w *ecs.World, m *ecs.Map[T], e ecs.Entity) *T {
	if !w.Alive(e) || !m.Has(e) {
		return nil
	}
	return m.Get(e)
}

// clampFloat clamps v between minVal and maxVal.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// headingOf returns the angle of v, or fallback when v is near zero.
func headingOf(v r2.Vec, fallback float64) float64 {
	if r2.Norm2(v) < epsilon*epsilon {
		return fallback
	}
	return math.Atan2(v.Y, v.X)
}

// limitSpeed rescales v so its magnitude does not exceed maxSpeed.
// A non-positive maxSpeed means unbounded.
func limitSpeed(v r2.Vec, maxSpeed float64) r2.Vec {
	if maxSpeed <= 0 {
		return v
	}
	mag := r2.Norm(v)
	if mag > maxSpeed {
		return r2.Scale(maxSpeed/mag, v)
	}
	return v
}
