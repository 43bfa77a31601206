package systems

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/config"
	"github.com/pthm-cable/critters/events"
)

// reaper captures a deceased creature's last state and queues its deletion.
type reaper struct {
	transform *ecs.Map[components.Transform]
	creature  *ecs.Map[components.Creature]
	carcass   *ecs.Map[components.Carcass]
	buffer    *CommandBuffer
	out       *events.Channel[events.DeathEvent]

	dead []ecs.Entity
}

func newReaper(w *ecs.World, buffer *CommandBuffer, out *events.Channel[events.DeathEvent]) reaper {
	return reaper{
		transform: ecs.NewMap[components.Transform](w),
		creature:  ecs.NewMap[components.Creature](w),
		carcass:   ecs.NewMap[components.Carcass](w),
		buffer:    buffer,
		out:       out,
	}
}

// reap emits one DeathEvent per collected entity not already queued for removal.
func (r *reaper) reap(w *ecs.World, cause events.DeathCause) int {
	n := 0
	for _, e := range r.dead {
		if !r.buffer.Remove(e) {
			continue
		}
		ev := events.DeathEvent{Deceased: e, Cause: cause}
		if tr := lookup(w, r.transform, e); tr != nil {
			ev.Position = tr.Position
			ev.Heading = tr.Heading
		}
		if c := lookup(w, r.creature, e); c != nil {
			ev.CreatureType = c.Type
		}
		if c := lookup(w, r.carcass, e); c != nil {
			ev.Carcass = c.CreatureType
		}
		r.out.Write(ev)
		n++
	}
	r.dead = r.dead[:0]
	return n
}

// StarvationSystem kills creatures whose fullness fell below the threshold.
type StarvationSystem struct {
	filter *ecs.Filter1[components.Fullness]
	reaper
}

// NewStarvationSystem creates a starvation check.
func NewStarvationSystem(w *ecs.World, buffer *CommandBuffer, out *events.Channel[events.DeathEvent]) *StarvationSystem {
	return &StarvationSystem{
		filter: ecs.NewFilter1[components.Fullness](w),
		reaper: newReaper(w, buffer, out),
	}
}

// Update returns the number of creatures that starved.
func (s *StarvationSystem) Update(w *ecs.World) int {
	query := s.filter.Query()
	for query.Next() {
		if query.Get().Value < components.Epsilon {
			s.dead = append(s.dead, query.Entity())
		}
	}
	return s.reap(w, events.CauseStarvation)
}

// DeathByHealthSystem kills creatures whose health fell below the threshold.
type DeathByHealthSystem struct {
	filter *ecs.Filter1[components.Health]
	reaper
}

// NewDeathByHealthSystem creates a health check.
func NewDeathByHealthSystem(w *ecs.World, buffer *CommandBuffer, out *events.Channel[events.DeathEvent]) *DeathByHealthSystem {
	return &DeathByHealthSystem{
		filter: ecs.NewFilter1[components.Health](w),
		reaper: newReaper(w, buffer, out),
	}
}

// Update returns the number of creatures killed by damage.
func (s *DeathByHealthSystem) Update(w *ecs.World) int {
	query := s.filter.Query()
	for query.Next() {
		if query.Get().Value < components.Epsilon {
			s.dead = append(s.dead, query.Entity())
		}
	}
	return s.reap(w, events.CauseHealth)
}

// CarcassSystem asks the spawner for a carcass where each creature died.
type CarcassSystem struct {
	in     *events.Channel[events.DeathEvent]
	reader events.ReaderID
	out    *events.Channel[events.SpawnEvent]
}

// NewCarcassSystem creates a carcass system reading deaths from in.
func NewCarcassSystem(in *events.Channel[events.DeathEvent], out *events.Channel[events.SpawnEvent]) *CarcassSystem {
	return &CarcassSystem{in: in, reader: in.Register(), out: out}
}

// Update consumes this tick's deaths.
func (s *CarcassSystem) Update() {
	for _, ev := range s.in.Read(s.reader) {
		if ev.Carcass == "" {
			continue
		}
		s.out.Write(events.SpawnEvent{
			CreatureType: ev.Carcass,
			Transform:    components.Transform{Position: ev.Position, Heading: ev.Heading},
		})
	}
}

// RespawnSystem tops each creature type back up to its population floor.
type RespawnSystem struct {
	floors []config.PopulationConfig
	bounds Bounds
	rng    *rand.Rand

	filter *ecs.Filter1[components.Creature]
	buffer *CommandBuffer
	out    *events.Channel[events.SpawnEvent]

	counts map[string]int
}

// NewRespawnSystem creates a respawn system for the given floors.
func NewRespawnSystem(w *ecs.World, floors []config.PopulationConfig, bounds Bounds, rng *rand.Rand,
	buffer *CommandBuffer, out *events.Channel[events.SpawnEvent]) *RespawnSystem {
	return &RespawnSystem{
		floors: floors,
		bounds: bounds,
		rng:    rng,
		filter: ecs.NewFilter1[components.Creature](w),
		buffer: buffer,
		out:    out,
		counts: make(map[string]int),
	}
}

// Update counts survivors and pending spawns, then requests the shortfall.
// Returns the number of spawns requested.
func (s *RespawnSystem) Update(w *ecs.World) int {
	clear(s.counts)
	query := s.filter.Query()
	for query.Next() {
		if s.buffer.Queued(query.Entity()) {
			continue
		}
		s.counts[query.Get().Type]++
	}
	for _, ev := range s.out.All() {
		s.counts[ev.CreatureType]++
	}

	requested := 0
	for _, floor := range s.floors {
		missing := floor.Min - s.counts[floor.Creature]
		if floor.Min <= 0 || missing <= 0 {
			continue
		}
		for range missing {
			s.out.Write(events.SpawnEvent{CreatureType: floor.Creature, Transform: RandomTransform(s.rng, s.bounds)})
		}
		requested += missing
		slog.Info("respawn",
			"creature", floor.Creature,
			"population_before", s.counts[floor.Creature],
			"respawned", missing,
		)
	}
	return requested
}

// RandomTransform returns a uniformly placed, randomly headed transform inside b.
func RandomTransform(rng *rand.Rand, b Bounds) components.Transform {
	return components.Transform{
		Position: r2.Vec{
			X: b.Left + rng.Float64()*b.Width(),
			Y: b.Bottom + rng.Float64()*b.Height(),
		},
		Heading: rng.Float64() * 2 * math.Pi,
	}
}
