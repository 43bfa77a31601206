// Package events provides per-tick event channels with independent reader cursors.
package events

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
)

// CollisionEvent reports an overlapping pair. Both (A,B) and (B,A) may appear in one tick.
type CollisionEvent struct {
	A, B ecs.Entity
}

// AttackEvent requests that Attacker hit Defender.
type AttackEvent struct {
	Attacker, Defender ecs.Entity
}

// DeathCause identifies why a creature died.
type DeathCause uint8

const (
	CauseHealth DeathCause = iota
	CauseStarvation
)

func (c DeathCause) String() string {
	switch c {
	case CauseHealth:
		return "health"
	case CauseStarvation:
		return "starvation"
	default:
		return "unknown"
	}
}

// DeathEvent announces a creature removed this tick.
// Position and Carcass are captured before deletion since the entity is gone
// by the time most readers see the event.
type DeathEvent struct {
	Deceased     ecs.Entity
	CreatureType string
	Position     r2.Vec
	Heading      float64
	Carcass      string
	Cause        DeathCause
}

// SpawnEvent asks the external spawner to build a creature of the given type.
type SpawnEvent struct {
	CreatureType string
	Transform    components.Transform
}

// SpawnedEvent announces an entity built this tick.
type SpawnedEvent struct {
	Entity       ecs.Entity
	CreatureType string
}

// Bus bundles the simulation's event channels.
type Bus struct {
	Collisions *Channel[CollisionEvent]
	Attacks    *Channel[AttackEvent]
	Deaths     *Channel[DeathEvent]
	Spawns     *Channel[SpawnEvent]
	Spawned    *Channel[SpawnedEvent]
}

// NewBus creates a bus with empty channels.
func NewBus() *Bus {
	return &Bus{
		Collisions: NewChannel[CollisionEvent](),
		Attacks:    NewChannel[AttackEvent](),
		Deaths:     NewChannel[DeathEvent](),
		Spawns:     NewChannel[SpawnEvent](),
		Spawned:    NewChannel[SpawnedEvent](),
	}
}

// Reset clears every channel. Called at the start of each tick.
func (b *Bus) Reset() {
	b.Collisions.Reset()
	b.Attacks.Reset()
	b.Deaths.Reset()
	b.Spawns.Reset()
	b.Spawned.Reset()
}
