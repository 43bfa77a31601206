// Package systems provides ECS systems for the simulation.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
)

// cellKey addresses one grid bucket.
type cellKey struct {
	X, Y int
}

// SpatialGrid buckets entity positions into fixed-size cells for radius queries.
// It is unbounded: cells exist only where entities were inserted.
type SpatialGrid struct {
	cellSize  float64
	cells     map[cellKey][]ecs.Entity
	positions map[ecs.Entity]r2.Vec
}

// NewSpatialGrid creates an empty grid with the given cell size.
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialGrid{
		cellSize:  cellSize,
		cells:     make(map[cellKey][]ecs.Entity),
		positions: make(map[ecs.Entity]r2.Vec),
	}
}

// Len returns the number of inserted entities.
func (g *SpatialGrid) Len() int {
	return len(g.positions)
}

// Position returns the position e was inserted at since the last Reset.
func (g *SpatialGrid) Position(e ecs.Entity) (r2.Vec, bool) {
	p, ok := g.positions[e]
	return p, ok
}

// Reset empties every bucket, keeping their storage for the next rebuild.
func (g *SpatialGrid) Reset() {
	for k, bucket := range g.cells {
		if len(bucket) == 0 {
			// Drop buckets that stayed empty for a whole tick
			delete(g.cells, k)
			continue
		}
		g.cells[k] = bucket[:0]
	}
	clear(g.positions)
}

// Insert adds an entity to the bucket containing pos.
func (g *SpatialGrid) Insert(e ecs.Entity, pos r2.Vec) {
	k := g.cellOf(pos)
	g.cells[k] = append(g.cells[k], e)
	g.positions[e] = pos
}

// Query returns every entity in the cells within range of pos.
// The result is a superset; callers apply their own exact distance test.
func (g *SpatialGrid) Query(pos r2.Vec, radius float64) []ecs.Entity {
	return g.QueryInto(nil, pos, radius)
}

// QueryInto appends the Query result to dst and returns it.
// Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryInto(dst []ecs.Entity, pos r2.Vec, radius float64) []ecs.Entity {
	if len(g.positions) == 0 || radius < 0 {
		return dst
	}
	// One extra ring so entities sitting on a cell edge are never missed
	cellRadius := int(math.Ceil(radius/g.cellSize)) + 1
	center := g.cellOf(pos)

	for dx := -cellRadius; dx <= cellRadius; dx++ {
		for dy := -cellRadius; dy <= cellRadius; dy++ {
			bucket := g.cells[cellKey{center.X + dx, center.Y + dy}]
			dst = append(dst, bucket...)
		}
	}
	return dst
}

func (g *SpatialGrid) cellOf(pos r2.Vec) cellKey {
	return cellKey{
		X: int(math.Floor(pos.X / g.cellSize)),
		Y: int(math.Floor(pos.Y / g.cellSize)),
	}
}

// SpatialGridSystem rebuilds the grid from every transform each tick.
type SpatialGridSystem struct {
	filter *ecs.Filter1[components.Transform]
	grid   *SpatialGrid
}

// NewSpatialGridSystem creates the rebuild system for grid.
func NewSpatialGridSystem(w *ecs.World, grid *SpatialGrid) *SpatialGridSystem {
	return &SpatialGridSystem{
		filter: ecs.NewFilter1[components.Transform](w),
		grid:   grid,
	}
}

// Update clears the grid and re-inserts all positioned entities.
func (s *SpatialGridSystem) Update(w *ecs.World) {
	s.grid.Reset()
	query := s.filter.Query()
	for query.Next() {
		tr := query.Get()
		s.grid.Insert(query.Entity(), tr.Position)
	}
}
