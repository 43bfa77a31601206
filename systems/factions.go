package systems

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/config"
)

// CreateFactions builds one faction entity per config entry, in order, with all
// three relation sets attached. The list must already be validated so every
// preys_on name refers to an earlier faction.
func CreateFactions(w *ecs.World, factions []config.FactionConfig) (map[string]ecs.Entity, error) {
	mapper := ecs.NewMap4[components.Faction, components.Query[components.Prey],
		components.Query[components.Predator], components.Query[components.Friend]](w)

	byName := make(map[string]ecs.Entity, len(factions))
	for _, fc := range factions {
		preys := make([]ecs.Entity, 0, len(fc.PreysOn))
		for _, name := range fc.PreysOn {
			e, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("faction %q: prey %q must be defined earlier", fc.Name, name)
			}
			preys = append(preys, e)
		}
		prey := components.NewQuery[components.Prey]()
		pred := components.NewQuery[components.Predator]()
		friend := components.NewQuery[components.Friend]()
		byName[fc.Name] = mapper.NewEntity(&components.Faction{Name: fc.Name, PreysOn: preys}, &prey, &pred, &friend)
	}
	return byName, nil
}

// FactionSystem recomputes every faction's Prey, Predator and Friend sets
// from the current creature population.
type FactionSystem struct {
	factions  *ecs.Filter1[components.Faction]
	creatures *ecs.Filter1[components.HasFaction]

	factionMap *ecs.Map[components.Faction]
	preyMap    *ecs.Map[components.Query[components.Prey]]
	predMap    *ecs.Map[components.Query[components.Predator]]
	friendMap  *ecs.Map[components.Query[components.Friend]]

	// Reused between ticks
	order   []ecs.Entity
	members map[ecs.Entity][]ecs.Entity
}

// NewFactionSystem creates a new faction resolver.
func NewFactionSystem(w *ecs.World) *FactionSystem {
	return &FactionSystem{
		factions:   ecs.NewFilter1[components.Faction](w),
		creatures:  ecs.NewFilter1[components.HasFaction](w),
		factionMap: ecs.NewMap[components.Faction](w),
		preyMap:    ecs.NewMap[components.Query[components.Prey]](w),
		predMap:    ecs.NewMap[components.Query[components.Predator]](w),
		friendMap:  ecs.NewMap[components.Query[components.Friend]](w),
		members:    make(map[ecs.Entity][]ecs.Entity),
	}
}

// Update runs the resolver.
func (s *FactionSystem) Update(w *ecs.World) {
	// Clear every set and remember faction order
	s.order = s.order[:0]
	fq := s.factions.Query()
	for fq.Next() {
		f := fq.Entity()
		s.order = append(s.order, f)
		if q := lookup(w, s.preyMap, f); q != nil {
			q.Clear()
		}
		if q := lookup(w, s.predMap, f); q != nil {
			q.Clear()
		}
		if q := lookup(w, s.friendMap, f); q != nil {
			q.Clear()
		}
	}

	// Bucket creatures by faction; dangling references are left out entirely
	for k, v := range s.members {
		s.members[k] = v[:0]
	}
	cq := s.creatures.Query()
	for cq.Next() {
		hf := cq.Get()
		if !w.Alive(hf.Faction) || !s.factionMap.Has(hf.Faction) {
			continue
		}
		s.members[hf.Faction] = append(s.members[hf.Faction], cq.Entity())
	}

	for _, f := range s.order {
		faction := s.factionMap.Get(f)

		if friends := lookup(w, s.friendMap, f); friends != nil {
			// Includes self; consumers exclude it by distance
			for _, c := range s.members[f] {
				friends.Add(c)
			}
		}

		if prey := lookup(w, s.preyMap, f); prey != nil {
			for _, pf := range faction.PreysOn {
				for _, c := range s.members[pf] {
					prey.Add(c)
				}
			}
		}

		// f's creatures are predators of every faction f preys on
		for _, pf := range faction.PreysOn {
			preds := lookup(w, s.predMap, pf)
			if preds == nil {
				continue
			}
			for _, c := range s.members[f] {
				preds.Add(c)
			}
		}
	}
}

// Hostile reports whether attacker's faction currently lists defender in its Prey set.
// A missing faction or a faction without a Prey set is never hostile.
func Hostile(w *ecs.World, hasFaction *ecs.Map[components.HasFaction],
	prey *ecs.Map[components.Query[components.Prey]], attacker, defender ecs.Entity) bool {
	hf := lookup(w, hasFaction, attacker)
	if hf == nil {
		return false
	}
	set := lookup(w, prey, hf.Faction)
	return set != nil && set.Contains(defender)
}
