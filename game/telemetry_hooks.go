package game

import "github.com/pthm-cable/critters/telemetry"

// recordTelemetry adds this tick's event counts to the collector and updates
// per-creature lifetimes. Deaths close their lifetime record.
func (g *Game) recordTelemetry(respawned int) {
	g.collector.RecordCollisions(g.bus.Collisions.Len())
	g.collector.RecordAttacks(g.bus.Attacks.Len())
	g.collector.RecordHits(g.performAttack.Hits)
	g.collector.RecordKills(g.performAttack.Kills)
	g.collector.RecordSpawns(g.bus.Spawned.Len())
	g.collector.RecordRespawns(respawned)

	for _, ev := range g.bus.Attacks.All() {
		g.lifetime.RecordBiteAttempt(ev.Attacker)
	}
	for _, r := range g.performAttack.Results {
		g.lifetime.RecordBiteHit(r.Attacker)
		if r.Killed {
			g.lifetime.RecordKill(r.Attacker)
		}
		if g.world.Alive(r.Attacker) && g.views.fullness.Has(r.Attacker) {
			g.lifetime.UpdateFullness(r.Attacker, g.views.fullness.Get(r.Attacker).Value)
		}
	}
	for _, ev := range g.bus.Deaths.All() {
		g.collector.RecordDeath(ev.Cause)
		if rec, ok := g.lifetime.Finish(ev.Deceased, g.tick, g.simTime, ev.Cause.String()); ok {
			g.finished = append(g.finished, rec)
		}
	}
}

// flushTelemetry closes the stats window once enough simulation time has passed.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.simTime) {
		return
	}

	stats, pops := g.collector.Flush(g.tick, g.simTime, g.sampleCreatures(), g.StateDigest())

	perf := g.perf.Stats()
	if g.logStats {
		stats.LogStats(pops)
		g.log.Info("perf", "tick", g.tick, "stats", perf)
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			g.log.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePopulation(pops); err != nil {
			g.log.Error("failed to write population", "error", err)
		}
		if err := g.outputManager.WritePerf(perf.ToCSV(g.tick)); err != nil {
			g.log.Error("failed to write perf", "error", err)
		}
		if err := g.outputManager.WriteLifetimes(g.finished); err != nil {
			g.log.Error("failed to write lifetimes", "error", err)
		}
	}
	g.finished = g.finished[:0]
}

// sampleCreatures collects health and fullness of every living creature.
func (g *Game) sampleCreatures() []telemetry.Sample {
	var samples []telemetry.Sample
	query := g.views.vitals.Query()
	for query.Next() {
		c, h := query.Get()
		s := telemetry.Sample{CreatureType: c.Type, Health: h.Value}
		if e := query.Entity(); g.views.fullness.Has(e) {
			s.Fullness = g.views.fullness.Get(e).Value
			s.HasFullness = true
		}
		samples = append(samples, s)
	}
	return samples
}
