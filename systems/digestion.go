package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/critters/components"
)

// DigestionSystem burns fullness over time.
type DigestionSystem struct {
	filter *ecs.Filter2[components.Digestion, components.Fullness]
}

// NewDigestionSystem creates a new digestion system.
func NewDigestionSystem(w *ecs.World) *DigestionSystem {
	return &DigestionSystem{
		filter: ecs.NewFilter2[components.Digestion, components.Fullness](w),
	}
}

// Update burns BurnRate*dt from every stomach. Not clamped at zero;
// starvation picks up anything below the threshold.
func (s *DigestionSystem) Update(w *ecs.World, dt float64) {
	query := s.filter.Query()
	for query.Next() {
		dig, full := query.Get()
		full.Value -= dig.BurnRate * dt
	}
}
