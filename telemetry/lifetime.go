package telemetry

import "github.com/mlange-42/ark/ecs"

// LifetimeStats tracks one creature from spawn to death.
type LifetimeStats struct {
	CreatureType string
	BirthTick    int64
	BirthTime    float64 // simulation seconds

	// Hunting
	BitesAttempted int
	BitesHit       int
	Kills          int

	PeakFullness float64
}

// LifetimeRecord is the CSV row written when a creature dies.
type LifetimeRecord struct {
	EntityID        uint32  `csv:"entity_id"`
	CreatureType    string  `csv:"creature"`
	BirthTick       int64   `csv:"birth_tick"`
	DeathTick       int64   `csv:"death_tick"`
	SurvivalTimeSec float64 `csv:"survival_sec"`
	Cause           string  `csv:"cause"`
	BitesAttempted  int     `csv:"bites_attempted"`
	BitesHit        int     `csv:"bites_hit"`
	Kills           int     `csv:"kills"`
	PeakFullness    float64 `csv:"peak_fullness"`
}

// LifetimeTracker manages per-creature lifetime statistics.
// Entries are keyed by the full entity handle, so a recycled ID never
// inherits the stats of the creature that held it before.
type LifetimeTracker struct {
	stats map[ecs.Entity]*LifetimeStats
}

// NewLifetimeTracker creates an empty tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{stats: make(map[ecs.Entity]*LifetimeStats)}
}

// Register starts tracking e.
func (lt *LifetimeTracker) Register(e ecs.Entity, creatureType string, tick int64, simTime, fullness float64) {
	lt.stats[e] = &LifetimeStats{
		CreatureType: creatureType,
		BirthTick:    tick,
		BirthTime:    simTime,
		PeakFullness: fullness,
	}
}

// Get returns the stats for e, or nil if e is not tracked.
func (lt *LifetimeTracker) Get(e ecs.Entity) *LifetimeStats {
	return lt.stats[e]
}

// RecordBiteAttempt increments the attempt count.
func (lt *LifetimeTracker) RecordBiteAttempt(e ecs.Entity) {
	if s := lt.stats[e]; s != nil {
		s.BitesAttempted++
	}
}

// RecordBiteHit increments the landed count.
func (lt *LifetimeTracker) RecordBiteHit(e ecs.Entity) {
	if s := lt.stats[e]; s != nil {
		s.BitesHit++
	}
}

// RecordKill increments the kill count.
func (lt *LifetimeTracker) RecordKill(e ecs.Entity) {
	if s := lt.stats[e]; s != nil {
		s.Kills++
	}
}

// UpdateFullness tracks peak fullness.
func (lt *LifetimeTracker) UpdateFullness(e ecs.Entity, fullness float64) {
	if s := lt.stats[e]; s != nil && fullness > s.PeakFullness {
		s.PeakFullness = fullness
	}
}

// Finish stops tracking e and returns its record.
// Returns false if e was never registered.
func (lt *LifetimeTracker) Finish(e ecs.Entity, tick int64, simTime float64, cause string) (LifetimeRecord, bool) {
	s := lt.stats[e]
	if s == nil {
		return LifetimeRecord{}, false
	}
	delete(lt.stats, e)
	return LifetimeRecord{
		EntityID:        e.ID(),
		CreatureType:    s.CreatureType,
		BirthTick:       s.BirthTick,
		DeathTick:       tick,
		SurvivalTimeSec: simTime - s.BirthTime,
		Cause:           cause,
		BitesAttempted:  s.BitesAttempted,
		BitesHit:        s.BitesHit,
		Kills:           s.Kills,
		PeakFullness:    s.PeakFullness,
	}, true
}

// Count returns the number of tracked creatures.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
