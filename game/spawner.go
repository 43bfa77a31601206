package game

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/config"
)

// spawner attaches archetype components to new creature entities.
type spawner struct {
	cfg      *config.Config
	factions map[string]ecs.Entity

	base        *ecs.Map3[components.Transform, components.Collider, components.Creature]
	hasFaction  *ecs.Map[components.HasFaction]
	movement    *ecs.Map[components.Movement]
	health      *ecs.Map[components.Health]
	fullness    *ecs.Map[components.Fullness]
	digestion   *ecs.Map[components.Digestion]
	nutrition   *ecs.Map[components.Nutrition]
	damage      *ecs.Map[components.Damage]
	attackSpeed *ecs.Map[components.AttackSpeed]
	wander      *ecs.Map[components.Wander]
	intel       *ecs.Map[components.IntelligenceTag]
	ricochet    *ecs.Map[components.RicochetTag]
	carcass     *ecs.Map[components.Carcass]
	perception  *ecs.Map[components.Perception]

	creatures *ecs.Filter1[components.Creature]
}

func newSpawner(w *ecs.World, cfg *config.Config, factions map[string]ecs.Entity) *spawner {
	return &spawner{
		cfg:         cfg,
		factions:    factions,
		base:        ecs.NewMap3[components.Transform, components.Collider, components.Creature](w),
		hasFaction:  ecs.NewMap[components.HasFaction](w),
		movement:    ecs.NewMap[components.Movement](w),
		health:      ecs.NewMap[components.Health](w),
		fullness:    ecs.NewMap[components.Fullness](w),
		digestion:   ecs.NewMap[components.Digestion](w),
		nutrition:   ecs.NewMap[components.Nutrition](w),
		damage:      ecs.NewMap[components.Damage](w),
		attackSpeed: ecs.NewMap[components.AttackSpeed](w),
		wander:      ecs.NewMap[components.Wander](w),
		intel:       ecs.NewMap[components.IntelligenceTag](w),
		ricochet:    ecs.NewMap[components.RicochetTag](w),
		carcass:     ecs.NewMap[components.Carcass](w),
		perception:  ecs.NewMap[components.Perception](w),
		creatures:   ecs.NewFilter1[components.Creature](w),
	}
}

// spawn builds one creature from its archetype at tr.
// Returns false if the creature type is unknown.
func (s *spawner) spawn(creatureType string, tr components.Transform) (ecs.Entity, bool) {
	arch, ok := s.cfg.Creature(creatureType)
	if !ok {
		return ecs.Entity{}, false
	}

	col := components.Collider{Radius: arch.Radius}
	creature := components.Creature{Type: arch.Name}
	e := s.base.NewEntity(&tr, &col, &creature)

	if f, ok := s.factions[arch.Faction]; ok {
		s.hasFaction.Add(e, &components.HasFaction{Faction: f})
	}

	if !arch.Static {
		// Start moving along the spawn heading at half speed
		dir := r2.Vec{X: math.Cos(tr.Heading), Y: math.Sin(tr.Heading)}
		s.movement.Add(e, &components.Movement{
			Velocity: r2.Scale(arch.MaxSpeed*0.5, dir),
			MaxSpeed: arch.MaxSpeed,
		})
		if arch.WanderRadius > 0 {
			s.wander.Add(e, &components.Wander{Angle: tr.Heading, Radius: arch.WanderRadius})
		}
	}

	if arch.Health > 0 {
		s.health.Add(e, &components.Health{Value: arch.Health, Max: arch.Health})
	}
	if arch.MaxFullness > 0 {
		s.fullness.Add(e, &components.Fullness{Value: arch.Fullness, Max: arch.MaxFullness})
		if arch.BurnRate > 0 {
			s.digestion.Add(e, &components.Digestion{BurnRate: arch.BurnRate})
		}
	}
	if arch.Nutrition > 0 {
		s.nutrition.Add(e, &components.Nutrition{Value: arch.Nutrition})
	}
	if arch.Damage > 0 {
		s.damage.Add(e, &components.Damage{Damage: arch.Damage})
		s.attackSpeed.Add(e, &components.AttackSpeed{AttacksPerSecond: arch.AttacksPerSecond})
	}
	if arch.Intelligent {
		s.intel.Add(e, &components.IntelligenceTag{})
	}
	if arch.Ricochet {
		s.ricochet.Add(e, &components.RicochetTag{})
	}
	if arch.Carcass != "" {
		s.carcass.Add(e, &components.Carcass{CreatureType: arch.Carcass})
	}
	if arch.PerceptionRange > 0 {
		s.perception.Add(e, &components.Perception{Range: arch.PerceptionRange})
	}
	return e, true
}

// count returns the number of living creatures.
func (s *spawner) count() int {
	n := 0
	query := s.creatures.Query()
	for query.Next() {
		n++
	}
	return n
}
