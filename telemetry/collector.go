// Package telemetry provides windowed simulation statistics and CSV output.
package telemetry

import (
	"sort"

	"github.com/pthm-cable/critters/events"
)

// Sample is one living creature's state at window end.
type Sample struct {
	CreatureType string
	Health       float64
	Fullness     float64
	HasFullness  bool
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	runID     string
	windowSec float64

	// Current window tracking
	windowStartTick int64
	windowStartTime float64

	// Event counters for current window
	collisions   int
	attacks      int
	hits         int
	kills        int
	starvations  int
	healthDeaths int
	spawns       int
	respawns     int
}

// NewCollector creates a new stats collector.
// windowSec is how long each stats window lasts in simulation seconds.
func NewCollector(runID string, windowSec float64) *Collector {
	if windowSec <= 0 {
		windowSec = 10
	}
	return &Collector{runID: runID, windowSec: windowSec}
}

// RecordCollisions adds n collision events.
func (c *Collector) RecordCollisions(n int) {
	c.collisions += n
}

// RecordAttacks adds n attack events.
func (c *Collector) RecordAttacks(n int) {
	c.attacks += n
}

// RecordHits adds n landed attacks.
func (c *Collector) RecordHits(n int) {
	c.hits += n
}

// RecordKills adds n killing blows.
func (c *Collector) RecordKills(n int) {
	c.kills += n
}

// RecordDeath records a death by cause.
func (c *Collector) RecordDeath(cause events.DeathCause) {
	switch cause {
	case events.CauseStarvation:
		c.starvations++
	default:
		c.healthDeaths++
	}
}

// RecordSpawns adds n spawned creatures.
func (c *Collector) RecordSpawns(n int) {
	c.spawns += n
}

// RecordRespawns adds n population-floor respawn requests.
func (c *Collector) RecordRespawns(n int) {
	c.respawns += n
}

// ShouldFlush returns true once the window has covered windowSec of simulation time.
// Paused time does not advance simTime, so paused windows never close.
func (c *Collector) ShouldFlush(simTime float64) bool {
	return simTime-c.windowStartTime >= c.windowSec
}

// Flush produces the window stats and per-type population stats, then resets
// counters for the next window. digest is the world state hash at window end.
func (c *Collector) Flush(tick int64, simTime float64, samples []Sample, digest uint64) (WindowStats, []PopulationStats) {
	var hitRate float64
	if c.attacks > 0 {
		hitRate = float64(c.hits) / float64(c.attacks)
	}

	stats := WindowStats{
		RunID:           c.runID,
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   tick,
		SimTimeSec:      simTime,
		Creatures:       len(samples),
		Collisions:      c.collisions,
		Attacks:         c.attacks,
		Hits:            c.hits,
		Kills:           c.kills,
		Starvations:     c.starvations,
		HealthDeaths:    c.healthDeaths,
		Spawns:          c.spawns,
		Respawns:        c.respawns,
		HitRate:         hitRate,
		Digest:          digest,
	}

	pops := populationStats(tick, samples)

	c.windowStartTick = tick
	c.windowStartTime = simTime
	c.collisions = 0
	c.attacks = 0
	c.hits = 0
	c.kills = 0
	c.starvations = 0
	c.healthDeaths = 0
	c.spawns = 0
	c.respawns = 0

	return stats, pops
}

// populationStats groups samples by creature type, sorted by type name.
func populationStats(tick int64, samples []Sample) []PopulationStats {
	health := make(map[string][]float64)
	fullness := make(map[string][]float64)
	for _, s := range samples {
		health[s.CreatureType] = append(health[s.CreatureType], s.Health)
		if s.HasFullness {
			fullness[s.CreatureType] = append(fullness[s.CreatureType], s.Fullness)
		}
	}

	types := make([]string, 0, len(health))
	for t := range health {
		types = append(types, t)
	}
	sort.Strings(types)

	out := make([]PopulationStats, 0, len(types))
	for _, t := range types {
		p := PopulationStats{WindowEndTick: tick, CreatureType: t, Count: len(health[t])}
		p.HealthMean, p.HealthStd, p.HealthP10, p.HealthP50, p.HealthP90 = Summarize(health[t])
		p.FullnessMean, _, _, _, _ = Summarize(fullness[t])
		out = append(out, p)
	}
	return out
}
