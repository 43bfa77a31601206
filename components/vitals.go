// Package components defines ECS components for the simulation.
package components

import "time"

// Health is hit points. The creature dies when Value drops below Epsilon.
type Health struct {
	Value float64
	Max   float64
}

// Fullness is satiety. The creature starves when Value drops below Epsilon.
type Fullness struct {
	Value float64
	Max   float64
}

// Nutrition is the fullness granted to whoever lands the killing blow.
type Nutrition struct {
	Value float64
}

// Digestion drains Fullness over time.
type Digestion struct {
	BurnRate float64 // per second
}

// Damage dealt by each attack.
type Damage struct {
	Damage float64
}

// AttackSpeed bounds how often a creature may attack.
type AttackSpeed struct {
	AttacksPerSecond float64
}

// Interval returns the cooldown attached after each attack.
func (a AttackSpeed) Interval() time.Duration {
	if a.AttacksPerSecond <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / a.AttacksPerSecond)
}

// Cooldown blocks attacking while present.
type Cooldown struct {
	TimeLeft time.Duration
}

// Creature names the archetype an entity was spawned from.
type Creature struct {
	Type string
}

// Carcass names the creature type spawned where this creature dies.
type Carcass struct {
	CreatureType string
}

// Epsilon is the threshold below which a scalar counts as depleted.
const Epsilon = 1e-6
