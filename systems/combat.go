package systems

import (
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/events"
)

// CooldownSystem counts attack cooldowns down and removes the expired ones.
type CooldownSystem struct {
	filter      *ecs.Filter1[components.Cooldown]
	cooldownMap *ecs.Map[components.Cooldown]

	expired []ecs.Entity
}

// NewCooldownSystem creates a new cooldown system.
func NewCooldownSystem(w *ecs.World) *CooldownSystem {
	return &CooldownSystem{
		filter:      ecs.NewFilter1[components.Cooldown](w),
		cooldownMap: ecs.NewMap[components.Cooldown](w),
	}
}

// Update subtracts dt from every cooldown. A cooldown whose remaining time
// would reach zero or below is removed instead of stored.
func (s *CooldownSystem) Update(w *ecs.World, dt time.Duration) {
	s.expired = s.expired[:0]
	query := s.filter.Query()
	for query.Next() {
		cd := query.Get()
		left := cd.TimeLeft - dt
		if left <= 0 {
			s.expired = append(s.expired, query.Entity())
			continue
		}
		cd.TimeLeft = left
	}
	for _, e := range s.expired {
		s.cooldownMap.Remove(e)
	}
}

// FindAttackSystem turns collisions between hostile creatures into attacks.
type FindAttackSystem struct {
	in     *events.Channel[events.CollisionEvent]
	reader events.ReaderID
	out    *events.Channel[events.AttackEvent]

	hasFaction *ecs.Map[components.HasFaction]
	prey       *ecs.Map[components.Query[components.Prey]]
	cooldown   *ecs.Map[components.Cooldown]
}

// NewFindAttackSystem creates the gate reading collisions from in and writing attacks to out.
func NewFindAttackSystem(w *ecs.World, in *events.Channel[events.CollisionEvent], out *events.Channel[events.AttackEvent]) *FindAttackSystem {
	return &FindAttackSystem{
		in:         in,
		reader:     in.Register(),
		out:        out,
		hasFaction: ecs.NewMap[components.HasFaction](w),
		prey:       ecs.NewMap[components.Query[components.Prey]](w),
		cooldown:   ecs.NewMap[components.Cooldown](w),
	}
}

// Update consumes this tick's collisions. Both directions are checked, so
// mutually hostile creatures can attack each other in the same tick.
func (s *FindAttackSystem) Update(w *ecs.World) {
	for _, ev := range s.in.Read(s.reader) {
		if !w.Alive(ev.A) || !w.Alive(ev.B) {
			continue
		}
		if s.canAttack(w, ev.A, ev.B) {
			s.out.Write(events.AttackEvent{Attacker: ev.A, Defender: ev.B})
		}
		if s.canAttack(w, ev.B, ev.A) {
			s.out.Write(events.AttackEvent{Attacker: ev.B, Defender: ev.A})
		}
	}
}

func (s *FindAttackSystem) canAttack(w *ecs.World, attacker, defender ecs.Entity) bool {
	if s.cooldown.Has(attacker) {
		return false
	}
	return Hostile(w, s.hasFaction, s.prey, attacker, defender)
}

// AttackResult is one landed attack.
type AttackResult struct {
	Attacker, Defender ecs.Entity
	Killed             bool
}

// PerformAttackSystem applies attacks in arrival order.
//
// The attacker's cooldown is attached as soon as its attack lands, so any
// later event for the same attacker in this tick is dropped: at most one
// attack per cooldown period. Defenders already below the death threshold
// are not hit again and yield nutrition only once.
type PerformAttackSystem struct {
	in     *events.Channel[events.AttackEvent]
	reader events.ReaderID

	damage    *ecs.Map[components.Damage]
	speed     *ecs.Map[components.AttackSpeed]
	cooldown  *ecs.Map[components.Cooldown]
	health    *ecs.Map[components.Health]
	fullness  *ecs.Map[components.Fullness]
	nutrition *ecs.Map[components.Nutrition]

	// Outcome of the last Update
	Hits    int
	Kills   int
	Results []AttackResult
}

// NewPerformAttackSystem creates the resolver reading attacks from in.
func NewPerformAttackSystem(w *ecs.World, in *events.Channel[events.AttackEvent]) *PerformAttackSystem {
	return &PerformAttackSystem{
		in:        in,
		reader:    in.Register(),
		damage:    ecs.NewMap[components.Damage](w),
		speed:     ecs.NewMap[components.AttackSpeed](w),
		cooldown:  ecs.NewMap[components.Cooldown](w),
		health:    ecs.NewMap[components.Health](w),
		fullness:  ecs.NewMap[components.Fullness](w),
		nutrition: ecs.NewMap[components.Nutrition](w),
	}
}

// Update consumes this tick's attacks.
func (s *PerformAttackSystem) Update(w *ecs.World) {
	s.Hits, s.Kills = 0, 0
	s.Results = s.Results[:0]
	for _, ev := range s.in.Read(s.reader) {
		if !w.Alive(ev.Attacker) || s.cooldown.Has(ev.Attacker) {
			continue
		}
		dmg := lookup(w, s.damage, ev.Attacker)
		speed := lookup(w, s.speed, ev.Attacker)
		hp := lookup(w, s.health, ev.Defender)
		if dmg == nil || speed == nil || hp == nil || hp.Value < components.Epsilon {
			continue
		}

		hp.Value -= dmg.Damage
		s.Hits++
		s.cooldown.Add(ev.Attacker, &components.Cooldown{TimeLeft: speed.Interval()})

		if hp.Value >= components.Epsilon {
			s.Results = append(s.Results, AttackResult{Attacker: ev.Attacker, Defender: ev.Defender})
			continue
		}
		s.Kills++
		s.Results = append(s.Results, AttackResult{Attacker: ev.Attacker, Defender: ev.Defender, Killed: true})
		// A defender without Nutrition still dies, it just feeds nothing
		full := lookup(w, s.fullness, ev.Attacker)
		food := lookup(w, s.nutrition, ev.Defender)
		if full != nil && food != nil {
			full.Value += food.Value
		}
	}
}
