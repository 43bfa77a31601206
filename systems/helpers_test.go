package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/config"
)

// fixture is a small world with factions and component maps for tests.
type fixture struct {
	w        *ecs.World
	factions map[string]ecs.Entity

	base       *ecs.Map2[components.Transform, components.Collider]
	transform  *ecs.Map[components.Transform]
	hasFaction *ecs.Map[components.HasFaction]
	movement   *ecs.Map[components.Movement]
	health     *ecs.Map[components.Health]
	fullness   *ecs.Map[components.Fullness]
	nutrition  *ecs.Map[components.Nutrition]
	damage     *ecs.Map[components.Damage]
	speed      *ecs.Map[components.AttackSpeed]
	cooldown   *ecs.Map[components.Cooldown]
	creature   *ecs.Map[components.Creature]
	carcass    *ecs.Map[components.Carcass]
}

func newFixture(t *testing.T, factions ...config.FactionConfig) *fixture {
	t.Helper()
	w := ecs.NewWorld()
	byName, err := CreateFactions(w, factions)
	if err != nil {
		t.Fatalf("CreateFactions: %v", err)
	}
	return &fixture{
		w:          w,
		factions:   byName,
		base:       ecs.NewMap2[components.Transform, components.Collider](w),
		transform:  ecs.NewMap[components.Transform](w),
		hasFaction: ecs.NewMap[components.HasFaction](w),
		movement:   ecs.NewMap[components.Movement](w),
		health:     ecs.NewMap[components.Health](w),
		fullness:   ecs.NewMap[components.Fullness](w),
		nutrition:  ecs.NewMap[components.Nutrition](w),
		damage:     ecs.NewMap[components.Damage](w),
		speed:      ecs.NewMap[components.AttackSpeed](w),
		cooldown:   ecs.NewMap[components.Cooldown](w),
		creature:   ecs.NewMap[components.Creature](w),
		carcass:    ecs.NewMap[components.Carcass](w),
	}
}

// predatorPrey is the two-faction setup most tests use.
func predatorPrey() []config.FactionConfig {
	return []config.FactionConfig{
		{Name: "herbivores"},
		{Name: "carnivores", PreysOn: []string{"herbivores"}},
	}
}

// body adds a static collider with radius 0.5 at (x, y).
func (f *fixture) body(x, y float64) ecs.Entity {
	return f.base.NewEntity(
		&components.Transform{Position: r2.Vec{X: x, Y: y}},
		&components.Collider{Radius: 0.5},
	)
}

// member adds a body belonging to the named faction.
func (f *fixture) member(t *testing.T, faction string, x, y float64) ecs.Entity {
	t.Helper()
	fe, ok := f.factions[faction]
	if !ok {
		t.Fatalf("unknown faction %q", faction)
	}
	e := f.body(x, y)
	f.hasFaction.Add(e, &components.HasFaction{Faction: fe})
	return e
}

// moving gives e a Movement with the given velocity and max speed.
func (f *fixture) moving(e ecs.Entity, vx, vy, maxSpeed float64) {
	f.movement.Add(e, &components.Movement{Velocity: r2.Vec{X: vx, Y: vy}, MaxSpeed: maxSpeed})
}

func (f *fixture) position(e ecs.Entity) r2.Vec {
	return f.transform.Get(e).Position
}

func (f *fixture) velocity(e ecs.Entity) r2.Vec {
	return f.movement.Get(e).Velocity
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func approxVec(a, b r2.Vec) bool {
	return approxEqual(a.X, b.X) && approxEqual(a.Y, b.Y)
}
