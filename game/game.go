// Package game wires the simulation systems into a fixed per-tick pipeline.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/config"
	"github.com/pthm-cable/critters/events"
	"github.com/pthm-cable/critters/systems"
	"github.com/pthm-cable/critters/telemetry"
)

// seekRule is one configured steering rule, independent of its relation type.
type seekRule interface {
	Update(w *ecs.World, dt float64)
}

// Game holds the complete simulation state.
type Game struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand
	log   *slog.Logger

	clock    *Clock
	bounds   systems.Bounds
	grid     *systems.SpatialGrid
	bus      *events.Bus
	buffer   *systems.CommandBuffer
	steered  *systems.Steered
	factions map[string]ecs.Entity

	// Pipeline stages, in execution order
	gridSys       *systems.SpatialGridSystem
	detection     *systems.EntityDetectionSystem
	factionSys    *systems.FactionSystem
	closestPrey   *systems.ClosestSystem[components.Prey]
	closestPred   *systems.ClosestSystem[components.Predator]
	closestFriend *systems.ClosestSystem[components.Friend]
	closestWall   *systems.ClosestObstacleSystem
	seekRules     []seekRule
	ricochet      *systems.RicochetSystem
	wander        *systems.WanderSystem
	swarmBehavior *systems.SwarmBehaviorSystem // nil when swarms are disabled
	movement      *systems.MovementSystem
	enforceBounds *systems.EnforceBoundsSystem
	collision     *systems.CollisionSystem
	cooldown      *systems.CooldownSystem
	findAttack    *systems.FindAttackSystem
	performAttack *systems.PerformAttackSystem
	digestion     *systems.DigestionSystem
	starvation    *systems.StarvationSystem
	deathByHealth *systems.DeathByHealthSystem
	carcass       *systems.CarcassSystem
	respawn       *systems.RespawnSystem
	swarmCenter   *systems.SwarmCenterSystem
	swarmSpawn    *systems.SwarmSpawnSystem

	// Spawner state
	spawnReader events.ReaderID
	spawner     *spawner
	views       views

	// Telemetry
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	perf          *telemetry.PerfCollector
	lifetime      *telemetry.LifetimeTracker
	finished      []telemetry.LifetimeRecord // written at the next window flush
	logStats      bool

	// State
	tick           int64
	simTime        float64
	stepsPerUpdate int
}

// NewGameWithOptions builds the world from cfg: factions, systems and the
// initial population.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}
	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:            cfg,
		world:          world,
		rng:            rand.New(rand.NewSource(opts.Seed)),
		log:            slog.Default().With("run_id", runID),
		clock:          NewClock(cfg),
		bounds:         systems.BoundsFromConfig(cfg.World),
		grid:           systems.NewSpatialGrid(cfg.Physics.GridCellSize),
		bus:            events.NewBus(),
		buffer:         systems.NewCommandBuffer(),
		steered:        systems.NewSteered(),
		collector:      telemetry.NewCollector(runID, statsWindow),
		perf:           telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		lifetime:       telemetry.NewLifetimeTracker(),
		logStats:       opts.LogStats,
		stepsPerUpdate: steps,
	}

	factions, err := systems.CreateFactions(world, cfg.Factions)
	if err != nil {
		return nil, fmt.Errorf("creating factions: %w", err)
	}
	g.factions = factions

	if opts.Headless {
		// Nothing could press Play without a window
		g.clock.SetPaused(false)
	}

	if err := g.buildPipeline(); err != nil {
		return nil, err
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	g.spawnInitialPopulation()

	g.log.Info("game_created",
		"seed", opts.Seed,
		"factions", len(g.factions),
		"creatures", g.CreatureCount(),
	)
	return g, nil
}

func (g *Game) buildPipeline() error {
	w := g.world
	cfg := g.cfg
	radius := cfg.Perception.AwarenessRadius
	workers := cfg.Physics.Workers

	g.gridSys = systems.NewSpatialGridSystem(w, g.grid)
	g.detection = systems.NewEntityDetectionSystem(w, g.grid)
	g.factionSys = systems.NewFactionSystem(w)
	g.closestPrey = systems.NewClosestSystem[components.Prey](w, g.grid, radius, workers)
	g.closestPred = systems.NewClosestSystem[components.Predator](w, g.grid, radius, workers)
	g.closestFriend = systems.NewClosestSystem[components.Friend](w, g.grid, radius, workers)
	if t := cfg.Physics.ParallelThreshold; t > 0 {
		g.closestPrey.SetParallelThreshold(t)
		g.closestPred.SetParallelThreshold(t)
		g.closestFriend.SetParallelThreshold(t)
	}
	g.closestWall = systems.NewClosestObstacleSystem(w, g.bounds, cfg.Perception.ObstacleRadius)

	for _, sc := range cfg.Steering {
		rot, mag := sc.RotationRad(), sc.Magnitude
		switch strings.ToLower(sc.Relation) {
		case "prey":
			g.seekRules = append(g.seekRules, systems.NewSeekSystem[components.Prey](w, rot, mag, g.steered))
		case "predator":
			g.seekRules = append(g.seekRules, systems.NewSeekSystem[components.Predator](w, rot, mag, g.steered))
		case "friend":
			g.seekRules = append(g.seekRules, systems.NewSeekSystem[components.Friend](w, rot, mag, g.steered))
		case "obstacle":
			g.seekRules = append(g.seekRules, systems.NewSeekSystem[components.Obstacle](w, rot, mag, g.steered))
		default:
			return fmt.Errorf("unknown steering relation %q", sc.Relation)
		}
	}

	g.ricochet = systems.NewRicochetSystem(w, g.bounds)
	g.wander = systems.NewWanderSystem(w, cfg.Wander.TurnRate, cfg.Wander.Lookahead, g.rng, g.steered)
	g.movement = systems.NewMovementSystem(w)
	g.enforceBounds = systems.NewEnforceBoundsSystem(w, g.bounds)
	g.collision = systems.NewCollisionSystem(w, g.bus.Collisions)
	g.cooldown = systems.NewCooldownSystem(w)
	g.findAttack = systems.NewFindAttackSystem(w, g.bus.Collisions, g.bus.Attacks)
	g.performAttack = systems.NewPerformAttackSystem(w, g.bus.Attacks)
	g.digestion = systems.NewDigestionSystem(w)
	g.starvation = systems.NewStarvationSystem(w, g.buffer, g.bus.Deaths)
	g.deathByHealth = systems.NewDeathByHealthSystem(w, g.buffer, g.bus.Deaths)
	g.carcass = systems.NewCarcassSystem(g.bus.Deaths, g.bus.Spawns)
	g.respawn = systems.NewRespawnSystem(w, cfg.Population, g.bounds, g.rng, g.buffer, g.bus.Spawns)
	if cfg.Swarm.Enabled {
		g.swarmBehavior = systems.NewSwarmBehaviorSystem(w, cfg.Swarm)
		g.swarmCenter = systems.NewSwarmCenterSystem(w, g.buffer)
		g.swarmSpawn = systems.NewSwarmSpawnSystem(w, cfg.Swarm, g.bounds, g.rng, g.buffer, g.bus.Spawned)
	}

	g.spawner = newSpawner(w, cfg, g.factions)
	g.spawnReader = g.bus.Spawns.Register()
	g.views = newViews(w)
	return nil
}

// Update runs StepsPerUpdate ticks unless paused.
func (g *Game) Update() {
	if g.clock.Paused() {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.Step()
	}
}

// Step runs a single tick of the pipeline. Stage order is fixed: each stage
// sees the complete output of the ones before it.
func (g *Game) Step() {
	w := g.world
	dt := g.clock.Delta()
	dtDur := g.clock.DeltaDuration()

	g.perf.StartTick()
	g.bus.Reset()
	g.steered.Reset()

	// 1. Perception
	g.perf.StartPhase(telemetry.PhaseSpatialGrid)
	g.gridSys.Update(w)
	g.perf.StartPhase(telemetry.PhasePerception)
	g.detection.Update(w)
	g.perf.StartPhase(telemetry.PhaseFactions)
	g.factionSys.Update(w)
	g.perf.StartPhase(telemetry.PhaseClosest)
	g.closestPrey.Update(w)
	g.closestPred.Update(w)
	g.closestFriend.Update(w)
	g.closestWall.Update(w)

	// 2. Steering, then integration
	g.perf.StartPhase(telemetry.PhaseSteering)
	for _, rule := range g.seekRules {
		rule.Update(w, dt)
	}
	g.ricochet.Update(w)
	g.wander.Update(w, dt)
	if g.swarmBehavior != nil {
		g.swarmBehavior.Update(w, dt)
	}
	g.perf.StartPhase(telemetry.PhaseMovement)
	g.movement.Update(w, dt)
	g.enforceBounds.Update(w)

	// 3. Collision and combat on post-move positions
	g.perf.StartPhase(telemetry.PhaseCollision)
	g.collision.Update(w)
	g.perf.StartPhase(telemetry.PhaseCombat)
	g.cooldown.Update(w, dtDur)
	g.findAttack.Update(w)
	g.performAttack.Update(w)

	// 4. Lifecycle
	g.perf.StartPhase(telemetry.PhaseLifecycle)
	g.digestion.Update(w, dt)
	g.starvation.Update(w)
	g.deathByHealth.Update(w)
	g.carcass.Update()
	respawned := g.respawn.Update(w)
	if g.swarmCenter != nil {
		g.swarmCenter.Update(w)
	}

	removed := g.buffer.Flush(w)

	// 5. External spawner and swarms
	g.perf.StartPhase(telemetry.PhaseSpawning)
	if g.swarmSpawn != nil {
		g.swarmSpawn.Update(w, dt)
	}
	requested := g.consumeSpawnEvents()

	g.tick++
	g.simTime += dt

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.recordTelemetry(respawned)
	if removed > 0 || requested > 0 {
		g.log.Debug("lifecycle", "tick", g.tick, "removed", removed, "requested", requested, "spawned", g.bus.Spawned.Len())
	}
	g.flushTelemetry()
	g.perf.EndTick()
}

// consumeSpawnEvents builds every requested creature through the command
// buffer, together with any swarm queued this tick. Returns the number of
// spawn requests read.
func (g *Game) consumeSpawnEvents() int {
	pending := g.bus.Spawns.Read(g.spawnReader)
	for _, ev := range pending {
		g.buffer.Defer(func(w *ecs.World) {
			if _, ok := g.spawnCreature(ev.CreatureType, ev.Transform); !ok {
				g.log.Warn("unknown creature type in spawn event", "creature", ev.CreatureType)
			}
		})
	}
	g.buffer.Flush(g.world)
	return len(pending)
}

// spawnCreature builds a creature, starts its lifetime record and announces it.
func (g *Game) spawnCreature(creatureType string, tr components.Transform) (ecs.Entity, bool) {
	e, ok := g.spawner.spawn(creatureType, tr)
	if !ok {
		return e, false
	}
	var fullness float64
	if g.views.fullness.Has(e) {
		fullness = g.views.fullness.Get(e).Value
	}
	g.lifetime.Register(e, creatureType, g.tick, g.simTime, fullness)
	g.bus.Spawned.Write(events.SpawnedEvent{Entity: e, CreatureType: creatureType})
	return e, true
}

// Spawn builds a creature of the given type immediately. Must not be called
// from inside Step.
func (g *Game) Spawn(creatureType string, tr components.Transform) (ecs.Entity, bool) {
	return g.spawnCreature(creatureType, tr)
}

func (g *Game) spawnInitialPopulation() {
	for _, p := range g.cfg.Population {
		for range p.Initial {
			g.spawnCreature(p.Creature, systems.RandomTransform(g.rng, g.bounds))
		}
	}
}

// World exposes the ECS world for read-only inspection.
func (g *Game) World() *ecs.World {
	return g.world
}

// Clock returns the time control.
func (g *Game) Clock() *Clock {
	return g.clock
}

// Bounds returns the world rectangle.
func (g *Game) Bounds() systems.Bounds {
	return g.bounds
}

// Events returns the event bus. Its channels hold the last completed tick's events.
func (g *Game) Events() *events.Bus {
	return g.bus
}

// Faction returns the faction entity with the given name.
func (g *Game) Faction(name string) (ecs.Entity, bool) {
	e, ok := g.factions[name]
	return e, ok
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() int64 {
	return g.tick
}

// SimTime returns elapsed simulation seconds.
func (g *Game) SimTime() float64 {
	return g.simTime
}

// CreatureCount returns the number of living creatures.
func (g *Game) CreatureCount() int {
	return g.spawner.count()
}

// Lifetime returns a copy of e's lifetime stats while it is alive.
func (g *Game) Lifetime(e ecs.Entity) (telemetry.LifetimeStats, bool) {
	if s := g.lifetime.Get(e); s != nil {
		return *s, true
	}
	return telemetry.LifetimeStats{}, false
}

// PerfStats returns step timing over the recent perf window.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perf.Stats()
}

// RecordFrame marks a rendered frame for FPS tracking.
func (g *Game) RecordFrame() {
	g.perf.RecordFrame()
}

// Unload writes pending lifetime records and closes telemetry output.
func (g *Game) Unload() {
	if err := g.outputManager.WriteLifetimes(g.finished); err != nil {
		g.log.Error("failed to write lifetimes", "error", err)
	}
	g.finished = g.finished[:0]
	if err := g.outputManager.Close(); err != nil {
		g.log.Error("failed to close telemetry output", "error", err)
	}
}
