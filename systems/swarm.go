package systems

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/config"
	"github.com/pthm-cable/critters/events"
)

// SwarmSpawnSystem periodically builds a wandering center with a handful of
// swarmlings around it. Builds go through the command buffer; every
// swarmling is announced on the spawned channel when it is built.
type SwarmSpawnSystem struct {
	cfg    config.SwarmConfig
	bounds Bounds
	rng    *rand.Rand
	buffer *CommandBuffer
	out    *events.Channel[events.SpawnedEvent]

	centers     *ecs.Filter1[components.SwarmCenter]
	centerMap   *ecs.Map4[components.Transform, components.Movement, components.Wander, components.SwarmCenter]
	memberMap   *ecs.Map3[components.Transform, components.Movement, components.SwarmBehavior]
	swarmCenter *ecs.Map[components.SwarmCenter]

	timer float64
}

// swarmling is a member rolled at request time and built at flush time.
type swarmling struct {
	pos, vel r2.Vec
}

// NewSwarmSpawnSystem creates the swarm spawner. The first swarm is requested on the first tick.
func NewSwarmSpawnSystem(w *ecs.World, cfg config.SwarmConfig, bounds Bounds, rng *rand.Rand,
	buffer *CommandBuffer, out *events.Channel[events.SpawnedEvent]) *SwarmSpawnSystem {
	return &SwarmSpawnSystem{
		cfg:         cfg,
		bounds:      bounds,
		rng:         rng,
		buffer:      buffer,
		out:         out,
		centers:     ecs.NewFilter1[components.SwarmCenter](w),
		centerMap:   ecs.NewMap4[components.Transform, components.Movement, components.Wander, components.SwarmCenter](w),
		memberMap:   ecs.NewMap3[components.Transform, components.Movement, components.SwarmBehavior](w),
		swarmCenter: ecs.NewMap[components.SwarmCenter](w),
	}
}

// Update advances the spawn timer by dt seconds and returns the number of
// swarmlings queued this tick.
func (s *SwarmSpawnSystem) Update(w *ecs.World, dt float64) int {
	s.timer -= dt
	if s.timer > 0 {
		return 0
	}
	s.timer = s.cfg.Interval
	if s.cfg.MaxSwarms > 0 && s.liveCenters() >= s.cfg.MaxSwarms {
		return 0
	}

	r := s.cfg.SpawnRange
	center := s.bounds.Clamp(r2.Vec{X: s.uniform(-r, r), Y: s.uniform(-r, r)})

	n := s.cfg.MinSize + s.rng.Intn(s.cfg.MaxSize-s.cfg.MinSize)
	members := make([]swarmling, n)
	spread := s.cfg.MemberSpread
	for i := range members {
		offset := r2.Vec{X: s.uniform(-spread, spread), Y: s.uniform(-spread, spread)}
		members[i] = swarmling{
			pos: s.bounds.Clamp(r2.Add(center, offset)),
			vel: r2.Vec{X: s.uniform(-1, 1), Y: s.uniform(-1, 1)},
		}
	}

	s.buffer.Defer(func(w *ecs.World) {
		s.build(center, members)
	})
	return n
}

func (s *SwarmSpawnSystem) build(center r2.Vec, members []swarmling) {
	tr := components.Transform{Position: center}
	mov := components.Movement{MaxSpeed: s.cfg.CenterMaxSpeed}
	wander := components.Wander{Radius: s.cfg.CenterWanderRadius}
	sc := components.SwarmCenter{}
	ce := s.centerMap.NewEntity(&tr, &mov, &wander, &sc)

	ids := make([]ecs.Entity, 0, len(members))
	for _, m := range members {
		mtr := components.Transform{Position: m.pos, Heading: headingOf(m.vel, 0)}
		mmov := components.Movement{Velocity: m.vel}
		beh := components.SwarmBehavior{
			Center:     ce,
			Attraction: s.cfg.Attraction,
			Deviation:  s.cfg.Deviation,
			MaxSpeed:   s.cfg.MemberMaxSpeed,
			Velocity:   m.vel,
		}
		e := s.memberMap.NewEntity(&mtr, &mmov, &beh)
		ids = append(ids, e)
		s.out.Write(events.SpawnedEvent{Entity: e, CreatureType: s.cfg.MemberType})
	}
	// Storage may move while members are built, so the center is fetched last
	s.swarmCenter.Get(ce).Members = ids
}

func (s *SwarmSpawnSystem) liveCenters() int {
	n := 0
	query := s.centers.Query()
	for query.Next() {
		if !s.buffer.Queued(query.Entity()) {
			n++
		}
	}
	return n
}

func (s *SwarmSpawnSystem) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// SwarmBehaviorSystem steers swarmlings around their center.
//
// The orbit is integrated in the center's frame with fixed substeps: a pull
// toward the center outside InnerRadius plus a push perpendicular to the
// current velocity, clamped to the swarmling's MaxSpeed after each substep.
// The averaged result becomes the relative velocity; the world velocity adds
// the center's own motion on top.
type SwarmBehaviorSystem struct {
	pullFactor  float64
	sideFactor  float64
	innerRadius float64
	timeStep    float64

	filter    *ecs.Filter3[components.Transform, components.Movement, components.SwarmBehavior]
	transform *ecs.Map[components.Transform]
	movement  *ecs.Map[components.Movement]
}

// NewSwarmBehaviorSystem creates the orbit integrator.
func NewSwarmBehaviorSystem(w *ecs.World, cfg config.SwarmConfig) *SwarmBehaviorSystem {
	return &SwarmBehaviorSystem{
		pullFactor:  cfg.PullFactor,
		sideFactor:  cfg.SideFactor,
		innerRadius: cfg.InnerRadius,
		timeStep:    cfg.TimeStep,
		filter:      ecs.NewFilter3[components.Transform, components.Movement, components.SwarmBehavior](w),
		transform:   ecs.NewMap[components.Transform](w),
		movement:    ecs.NewMap[components.Movement](w),
	}
}

// Update runs the integrator for dt seconds. A zero dt leaves every velocity untouched.
func (s *SwarmBehaviorSystem) Update(w *ecs.World, dt float64) {
	if dt <= epsilon || s.timeStep <= 0 {
		return
	}
	iterations := int(dt/s.timeStep) + 1
	inner2 := s.innerRadius * s.innerRadius

	query := s.filter.Query()
	for query.Next() {
		tr, mov, beh := query.Get()
		ctr := lookup(w, s.transform, beh.Center)
		if ctr == nil {
			continue
		}

		origin := r2.Sub(tr.Position, ctr.Position)
		pos, vel := origin, beh.Velocity
		for i := 0; i < iterations; i++ {
			h := math.Min(s.timeStep, dt-s.timeStep*float64(i))
			if h <= 0 {
				break
			}
			var pull r2.Vec
			if r2.Norm2(pos) > inner2 {
				pull = r2.Scale(-beh.Attraction*s.pullFactor, pos)
			}
			side := r2.Vec{X: vel.Y, Y: -vel.X}
			if n := r2.Norm(side); n > epsilon {
				side = r2.Scale(1/n, side)
			}
			force := r2.Add(pull, r2.Scale(beh.Deviation*s.sideFactor, side))
			vel = limitSpeed(r2.Add(vel, r2.Scale(h, force)), beh.MaxSpeed)
			pos = r2.Add(pos, r2.Scale(h, vel))
		}

		beh.Velocity = r2.Scale(1/dt, r2.Sub(pos, origin))
		var carry r2.Vec
		if cm := lookup(w, s.movement, beh.Center); cm != nil {
			carry = limitSpeed(cm.Velocity, cm.MaxSpeed)
		}
		mov.Velocity = r2.Add(beh.Velocity, carry)
	}
}

// SwarmCenterSystem prunes departed swarmlings and deletes centers left empty.
type SwarmCenterSystem struct {
	filter   *ecs.Filter1[components.SwarmCenter]
	behavior *ecs.Map[components.SwarmBehavior]
	buffer   *CommandBuffer
}

// NewSwarmCenterSystem creates the center bookkeeping system.
func NewSwarmCenterSystem(w *ecs.World, buffer *CommandBuffer) *SwarmCenterSystem {
	return &SwarmCenterSystem{
		filter:   ecs.NewFilter1[components.SwarmCenter](w),
		behavior: ecs.NewMap[components.SwarmBehavior](w),
		buffer:   buffer,
	}
}

// Update returns the number of centers queued for removal.
// Members already queued for removal count as gone.
func (s *SwarmCenterSystem) Update(w *ecs.World) int {
	removed := 0
	query := s.filter.Query()
	for query.Next() {
		sc := query.Get()
		kept := sc.Members[:0]
		for _, m := range sc.Members {
			if lookup(w, s.behavior, m) != nil && !s.buffer.Queued(m) {
				kept = append(kept, m)
			}
		}
		sc.Members = kept
		if len(kept) == 0 && s.buffer.Remove(query.Entity()) {
			removed++
		}
	}
	return removed
}
