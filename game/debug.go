package game

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
)

// views holds read-only filters and maps used for inspection.
type views struct {
	bodies    *ecs.Filter3[components.Transform, components.Collider, components.Creature]
	vitals    *ecs.Filter2[components.Creature, components.Health]
	prey      *ecs.Filter2[components.Transform, components.Closest[components.Prey]]
	pred      *ecs.Filter2[components.Transform, components.Closest[components.Predator]]
	friend    *ecs.Filter2[components.Transform, components.Closest[components.Friend]]
	wall      *ecs.Filter2[components.Transform, components.Closest[components.Obstacle]]
	swarms    *ecs.Filter2[components.Transform, components.SwarmCenter]
	senses    *ecs.Filter2[components.Transform, components.Perception]
	movement  *ecs.Map[components.Movement]
	transform *ecs.Map[components.Transform]
	health    *ecs.Map[components.Health]
	fullness  *ecs.Map[components.Fullness]
	cooldown  *ecs.Map[components.Cooldown]
	intel     *ecs.Map[components.IntelligenceTag]
	perceived *ecs.Map[components.Perception]
}

func newViews(w *ecs.World) views {
	return views{
		bodies:    ecs.NewFilter3[components.Transform, components.Collider, components.Creature](w),
		vitals:    ecs.NewFilter2[components.Creature, components.Health](w),
		prey:      ecs.NewFilter2[components.Transform, components.Closest[components.Prey]](w),
		pred:      ecs.NewFilter2[components.Transform, components.Closest[components.Predator]](w),
		friend:    ecs.NewFilter2[components.Transform, components.Closest[components.Friend]](w),
		wall:      ecs.NewFilter2[components.Transform, components.Closest[components.Obstacle]](w),
		swarms:    ecs.NewFilter2[components.Transform, components.SwarmCenter](w),
		senses:    ecs.NewFilter2[components.Transform, components.Perception](w),
		movement:  ecs.NewMap[components.Movement](w),
		transform: ecs.NewMap[components.Transform](w),
		health:    ecs.NewMap[components.Health](w),
		fullness:  ecs.NewMap[components.Fullness](w),
		cooldown:  ecs.NewMap[components.Cooldown](w),
		intel:     ecs.NewMap[components.IntelligenceTag](w),
		perceived: ecs.NewMap[components.Perception](w),
	}
}

// DebugBody is one collider as the overlay sees it.
type DebugBody struct {
	Entity       ecs.Entity
	CreatureType string
	Position     r2.Vec
	Heading      float64
	Radius       float64
	Intelligent  bool
	HealthFrac   float64 // 1 when the creature has no Health
	OnCooldown   bool
	Perceived    int // entities in Perception range, 0 without Perception

	// Lifetime counters; Age is simulation seconds since spawn
	Age                float64
	Bites, Hits, Kills int
}

// DebugTarget is a nearest-target line from a creature to its Closest offset.
type DebugTarget struct {
	From, To r2.Vec
	Relation string
}

// DebugCollision is an overlapping pair from the last tick.
type DebugCollision struct {
	A, B r2.Vec
}

// DebugSwarm is a swarm center and the positions of its members.
type DebugSwarm struct {
	Center  r2.Vec
	Members []r2.Vec
}

// DebugView is a read-only snapshot for visualization.
type DebugView struct {
	Bodies          []DebugBody
	Targets         []DebugTarget
	Collisions      []DebugCollision
	Swarms          []DebugSwarm
	Perceived       []DebugTarget // perceiver to each perceived entity
	AwarenessRadius float64
}

// DebugView snapshots colliders, nearest-target offsets and last tick's collisions.
// Nothing in the snapshot aliases simulation state.
func (g *Game) DebugView() DebugView {
	w := g.world
	v := DebugView{AwarenessRadius: g.cfg.Perception.AwarenessRadius}

	bq := g.views.bodies.Query()
	for bq.Next() {
		tr, col, cr := bq.Get()
		e := bq.Entity()
		b := DebugBody{
			Entity:       e,
			CreatureType: cr.Type,
			Position:     tr.Position,
			Heading:      tr.Heading,
			Radius:       col.Radius,
			Intelligent:  g.views.intel.Has(e),
			HealthFrac:   1,
			OnCooldown:   g.views.cooldown.Has(e),
		}
		if g.views.health.Has(e) {
			if h := g.views.health.Get(e); h.Max > 0 {
				b.HealthFrac = math.Max(0, h.Value/h.Max)
			}
		}
		if g.views.perceived.Has(e) {
			b.Perceived = len(g.views.perceived.Get(e).Entities)
		}
		if life := g.lifetime.Get(e); life != nil {
			b.Age = g.simTime - life.BirthTime
			b.Bites, b.Hits, b.Kills = life.BitesAttempted, life.BitesHit, life.Kills
		}
		v.Bodies = append(v.Bodies, b)
	}

	v.Targets = appendTargets(v.Targets, g.views.prey, "prey")
	v.Targets = appendTargets(v.Targets, g.views.pred, "predator")
	v.Targets = appendTargets(v.Targets, g.views.friend, "friend")
	v.Targets = appendTargets(v.Targets, g.views.wall, "obstacle")

	pq := g.views.senses.Query()
	for pq.Next() {
		tr, p := pq.Get()
		for _, other := range p.Entities {
			if !w.Alive(other) || !g.views.transform.Has(other) {
				continue
			}
			v.Perceived = append(v.Perceived, DebugTarget{
				From:     tr.Position,
				To:       g.views.transform.Get(other).Position,
				Relation: "perceived",
			})
		}
	}

	sq := g.views.swarms.Query()
	for sq.Next() {
		tr, sc := sq.Get()
		ds := DebugSwarm{Center: tr.Position}
		for _, m := range sc.Members {
			if w.Alive(m) && g.views.transform.Has(m) {
				ds.Members = append(ds.Members, g.views.transform.Get(m).Position)
			}
		}
		v.Swarms = append(v.Swarms, ds)
	}

	for _, ev := range g.bus.Collisions.All() {
		if !w.Alive(ev.A) || !w.Alive(ev.B) || !g.views.transform.Has(ev.A) || !g.views.transform.Has(ev.B) {
			continue
		}
		v.Collisions = append(v.Collisions, DebugCollision{
			A: g.views.transform.Get(ev.A).Position,
			B: g.views.transform.Get(ev.B).Position,
		})
	}
	return v
}

func appendTargets[T components.Relation](dst []DebugTarget, filter *ecs.Filter2[components.Transform, components.Closest[T]], relation string) []DebugTarget {
	query := filter.Query()
	for query.Next() {
		tr, c := query.Get()
		dst = append(dst, DebugTarget{
			From:     tr.Position,
			To:       r2.Add(tr.Position, c.Offset),
			Relation: relation,
		})
	}
	return dst
}

// StateDigest hashes every creature's type, position, velocity, health and
// fullness in entity ID order. Two runs with the same seed and config produce
// the same digest at the same tick.
func (g *Game) StateDigest() uint64 {
	type row struct {
		id   uint32
		typ  string
		vals [7]float64
	}

	var rows []row
	query := g.views.bodies.Query()
	for query.Next() {
		tr, _, cr := query.Get()
		e := query.Entity()
		r := row{id: e.ID(), typ: cr.Type}
		r.vals[0], r.vals[1], r.vals[2] = tr.Position.X, tr.Position.Y, tr.Heading
		if g.views.movement.Has(e) {
			m := g.views.movement.Get(e)
			r.vals[3], r.vals[4] = m.Velocity.X, m.Velocity.Y
		}
		if g.views.health.Has(e) {
			r.vals[5] = g.views.health.Get(e).Value
		}
		if g.views.fullness.Has(e) {
			r.vals[6] = g.views.fullness.Get(e).Value
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].id < rows[j].id })

	d := xxhash.New()
	var buf [8]byte
	for _, r := range rows {
		binary.LittleEndian.PutUint64(buf[:], uint64(r.id))
		d.Write(buf[:])
		d.WriteString(r.typ)
		for _, v := range r.vals {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			d.Write(buf[:])
		}
	}
	return d.Sum64()
}
