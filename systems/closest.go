package systems

import (
	"context"
	"runtime"

	"github.com/mlange-42/ark/ecs"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
)

// parallelThreshold is the creature count above which the distance scan fans out.
const parallelThreshold = 64

// seeker is one creature's input to the nearest-target scan.
type seeker struct {
	e   ecs.Entity
	pos r2.Vec
	set map[ecs.Entity]struct{}
}

// closestResult is one creature's scan output.
type closestResult struct {
	found  bool
	target ecs.Entity
	offset r2.Vec
}

// ClosestSystem resolves, for each creature, the nearest member of its
// faction's Query[T] set within the awareness radius.
//
// Every Closest[T] from the previous tick is discarded first. A creature whose
// faction has no Query[T] attached, or whose faction is gone, gets none.
type ClosestSystem[T components.Relation] struct {
	grid      *SpatialGrid
	radius    float64
	workers   int
	threshold int

	creatures  *ecs.Filter2[components.Transform, components.HasFaction]
	stale      *ecs.Filter1[components.Closest[T]]
	querySets  *ecs.Map[components.Query[T]]
	closestMap *ecs.Map[components.Closest[T]]

	// Reused between ticks
	seekers []seeker
	results []closestResult
	remove  []ecs.Entity
}

// NewClosestSystem creates a resolver for relation T.
// workers <= 0 uses GOMAXPROCS.
func NewClosestSystem[T components.Relation](w *ecs.World, grid *SpatialGrid, radius float64, workers int) *ClosestSystem[T] {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ClosestSystem[T]{
		grid:       grid,
		radius:     radius,
		workers:    workers,
		threshold:  parallelThreshold,
		creatures:  ecs.NewFilter2[components.Transform, components.HasFaction](w),
		stale:      ecs.NewFilter1[components.Closest[T]](w),
		querySets:  ecs.NewMap[components.Query[T]](w),
		closestMap: ecs.NewMap[components.Closest[T]](w),
	}
}

// SetParallelThreshold overrides the creature count that triggers the parallel scan.
func (s *ClosestSystem[T]) SetParallelThreshold(n int) {
	s.threshold = n
}

// Update runs the resolver.
func (s *ClosestSystem[T]) Update(w *ecs.World) {
	// Discard last tick's results unconditionally
	s.remove = s.remove[:0]
	sq := s.stale.Query()
	for sq.Next() {
		s.remove = append(s.remove, sq.Entity())
	}
	for _, e := range s.remove {
		s.closestMap.Remove(e)
	}

	s.seekers = s.seekers[:0]
	query := s.creatures.Query()
	for query.Next() {
		tr, hf := query.Get()
		set := lookup(w, s.querySets, hf.Faction)
		if set == nil || set.Len() == 0 {
			continue
		}
		s.seekers = append(s.seekers, seeker{e: query.Entity(), pos: tr.Position, set: set.Members})
	}
	if len(s.seekers) == 0 {
		return
	}

	if cap(s.results) < len(s.seekers) {
		s.results = make([]closestResult, len(s.seekers))
	}
	s.results = s.results[:len(s.seekers)]

	// Read phase: no component writes happen until every scan has finished
	if len(s.seekers) < s.threshold || s.workers == 1 {
		s.scanRange(0, len(s.seekers), nil)
	} else {
		s.scanParallel()
	}

	// Write phase
	for i, r := range s.results {
		if !r.found {
			continue
		}
		s.closestMap.Add(s.seekers[i].e, &components.Closest[T]{Target: r.target, Offset: r.offset})
	}
}

func (s *ClosestSystem[T]) scanParallel() {
	n := len(s.seekers)
	chunk := (n + s.workers - 1) / s.workers

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(s.workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			s.scanRange(start, end, nil)
			return nil
		})
	}
	// Workers never fail; Wait only joins them
	_ = g.Wait()
}

// scanRange fills results[start:end]. Each call only touches its own slots.
func (s *ClosestSystem[T]) scanRange(start, end int, buf []ecs.Entity) {
	radiusSq := s.radius * s.radius
	for i := start; i < end; i++ {
		sk := s.seekers[i]
		buf = s.grid.QueryInto(buf[:0], sk.pos, s.radius)

		best := closestResult{}
		bestSq := radiusSq
		for _, c := range buf {
			if _, ok := sk.set[c]; !ok {
				continue
			}
			p, ok := s.grid.Position(c)
			if !ok {
				continue
			}
			offset := r2.Sub(p, sk.pos)
			d := r2.Norm2(offset)
			// Strictly positive excludes self and exact overlaps
			if d > 0 && d < bestSq {
				bestSq = d
				best = closestResult{found: true, target: c, offset: offset}
			}
		}
		s.results[i] = best
	}
}

// ClosestObstacleSystem finds the nearest world wall for each moving entity.
type ClosestObstacleSystem struct {
	bounds Bounds
	radius float64

	movers     *ecs.Filter2[components.Transform, components.Movement]
	stale      *ecs.Filter1[components.Closest[components.Obstacle]]
	closestMap *ecs.Map[components.Closest[components.Obstacle]]

	remove []ecs.Entity
	found  []ecs.Entity
	offset []r2.Vec
}

// NewClosestObstacleSystem creates the wall resolver.
func NewClosestObstacleSystem(w *ecs.World, bounds Bounds, radius float64) *ClosestObstacleSystem {
	return &ClosestObstacleSystem{
		bounds:     bounds,
		radius:     radius,
		movers:     ecs.NewFilter2[components.Transform, components.Movement](w),
		stale:      ecs.NewFilter1[components.Closest[components.Obstacle]](w),
		closestMap: ecs.NewMap[components.Closest[components.Obstacle]](w),
	}
}

// Update runs the wall resolver.
func (s *ClosestObstacleSystem) Update(w *ecs.World) {
	s.remove = s.remove[:0]
	sq := s.stale.Query()
	for sq.Next() {
		s.remove = append(s.remove, sq.Entity())
	}
	for _, e := range s.remove {
		s.closestMap.Remove(e)
	}

	radiusSq := s.radius * s.radius
	s.found = s.found[:0]
	s.offset = s.offset[:0]
	query := s.movers.Query()
	for query.Next() {
		tr, _ := query.Get()
		off := s.bounds.NearestWall(tr.Position)
		if d := r2.Norm2(off); d > 0 && d < radiusSq {
			s.found = append(s.found, query.Entity())
			s.offset = append(s.offset, off)
		}
	}

	for i, e := range s.found {
		s.closestMap.Add(e, &components.Closest[components.Obstacle]{Offset: s.offset[i]})
	}
}
