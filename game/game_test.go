package game

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/config"
	"github.com/pthm-cable/critters/events"
	"github.com/pthm-cable/critters/telemetry"
)

func loadConfig(t *testing.T, overlay string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(overlay))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func newTestGame(t *testing.T, cfg *config.Config, seed int64) *Game {
	t.Helper()
	g, err := NewGameWithOptions(cfg, Options{Seed: seed, RunID: "test"})
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

func TestNewGameSpawnsInitialPopulation(t *testing.T) {
	cfg := loadConfig(t, "")
	g := newTestGame(t, cfg, 1)

	want := 0
	for _, p := range cfg.Population {
		want += p.Initial
	}
	if got := g.CreatureCount(); got != want {
		t.Errorf("creatures = %d, want %d", got, want)
	}
	for _, f := range cfg.Factions {
		if _, ok := g.Faction(f.Name); !ok {
			t.Errorf("faction %q not created", f.Name)
		}
	}
}

func TestDeterministicRuns(t *testing.T) {
	cfg := loadConfig(t, "")

	run := func(seed int64) uint64 {
		g := newTestGame(t, cfg, seed)
		for i := 0; i < 300; i++ {
			g.Step()
		}
		return g.StateDigest()
	}

	a, b := run(42), run(42)
	if a != b {
		t.Errorf("same seed produced different states: %x vs %x", a, b)
	}
	if c := run(43); c == a {
		t.Errorf("different seeds produced identical states: %x", c)
	}
}

func TestUpdateDoesNothingWhilePaused(t *testing.T) {
	g := newTestGame(t, loadConfig(t, ""), 3)
	g.Clock().SetPaused(true)

	before := g.StateDigest()
	for i := 0; i < 10; i++ {
		g.Update()
	}
	if g.Tick() != 0 {
		t.Errorf("tick advanced to %d while paused", g.Tick())
	}
	if g.StateDigest() != before {
		t.Error("state changed while paused")
	}

	g.Clock().SetPaused(false)
	g.Update()
	if g.Tick() != 1 {
		t.Errorf("tick = %d after resuming, want 1", g.Tick())
	}
}

func TestStepWithZeroDeltaDoesNotMove(t *testing.T) {
	g := newTestGame(t, loadConfig(t, ""), 5)
	g.Clock().SetPaused(true)

	positions := map[ecs.Entity]r2.Vec{}
	for _, b := range g.DebugView().Bodies {
		positions[b.Entity] = b.Position
	}

	g.Step()

	for _, b := range g.DebugView().Bodies {
		if p, ok := positions[b.Entity]; ok && p != b.Position {
			t.Fatalf("entity %v moved from %v to %v with zero delta", b.Entity, p, b.Position)
		}
	}
	if g.SimTime() != 0 {
		t.Errorf("sim time = %v, want 0", g.SimTime())
	}
}

func TestStepsPerUpdate(t *testing.T) {
	cfg := loadConfig(t, "")
	g, err := NewGameWithOptions(cfg, Options{Seed: 1, StepsPerUpdate: 4})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Unload()

	g.Update()
	if g.Tick() != 4 {
		t.Errorf("tick = %d, want 4", g.Tick())
	}
}

func TestKillLeavesCarcass(t *testing.T) {
	cfg := loadConfig(t, "population: []\n")
	g := newTestGame(t, cfg, 9)

	carn, ok := g.Spawn("carnivore", components.Transform{})
	if !ok {
		t.Fatal("spawn carnivore")
	}
	herb, ok := g.Spawn("herbivore", components.Transform{Position: r2.Vec{X: 0.3}})
	if !ok {
		t.Fatal("spawn herbivore")
	}
	health := ecs.NewMap[components.Health](g.world)
	health.Get(herb).Value = 15

	g.Step()

	if g.world.Alive(herb) {
		t.Fatal("herbivore should have been killed and removed")
	}
	if !g.world.Alive(carn) {
		t.Fatal("carnivore should survive")
	}

	deaths := g.Events().Deaths.All()
	if len(deaths) != 1 || deaths[0].Cause != events.CauseHealth || deaths[0].CreatureType != "herbivore" {
		t.Fatalf("unexpected deaths %+v", deaths)
	}

	cooldown := ecs.NewMap[components.Cooldown](g.world)
	if !cooldown.Has(carn) || cooldown.Get(carn).TimeLeft != time.Second {
		t.Error("carnivore should be on a one second cooldown")
	}

	// 80 start + 50 nutrition, minus one tick of digestion
	full := ecs.NewMap[components.Fullness](g.world).Get(carn).Value
	want := 80 + 50 - 3*cfg.Physics.DT
	if math.Abs(full-want) > 1e-9 {
		t.Errorf("carnivore fullness = %v, want %v", full, want)
	}

	var carcasses []DebugBody
	for _, b := range g.DebugView().Bodies {
		if b.CreatureType == "carcass" {
			carcasses = append(carcasses, b)
		}
	}
	if len(carcasses) != 1 {
		t.Fatalf("expected one carcass, got %d", len(carcasses))
	}
	if d := r2.Norm(r2.Sub(carcasses[0].Position, deaths[0].Position)); d > 1e-9 {
		t.Errorf("carcass at %v, death at %v", carcasses[0].Position, deaths[0].Position)
	}
}

func TestRespawnKeepsFloor(t *testing.T) {
	cfg := loadConfig(t, `
population:
  - creature: carnivore
    initial: 0
    min: 3
`)
	g := newTestGame(t, cfg, 11)
	if g.CreatureCount() != 0 {
		t.Fatalf("expected empty world, got %d", g.CreatureCount())
	}

	g.Step()
	if got := g.CreatureCount(); got != 3 {
		t.Errorf("creatures after one tick = %d, want 3", got)
	}
	g.Step()
	if got := g.CreatureCount(); got != 3 {
		t.Errorf("respawn overshot the floor: %d", got)
	}
}

func TestCreaturesStayInBounds(t *testing.T) {
	g := newTestGame(t, loadConfig(t, ""), 21)
	b := g.Bounds()
	for i := 0; i < 600; i++ {
		g.Step()
	}
	for _, body := range g.DebugView().Bodies {
		if !b.Contains(body.Position) {
			t.Errorf("%s at %v left the world", body.CreatureType, body.Position)
		}
	}
}

func TestDebugView(t *testing.T) {
	g := newTestGame(t, loadConfig(t, "population: []\n"), 2)
	g.Spawn("carnivore", components.Transform{})
	g.Spawn("herbivore", components.Transform{Position: r2.Vec{X: 3}})

	g.Step()
	view := g.DebugView()

	if len(view.Bodies) != 2 {
		t.Fatalf("bodies = %d, want 2", len(view.Bodies))
	}
	if view.AwarenessRadius != g.cfg.Perception.AwarenessRadius {
		t.Errorf("awareness radius = %v", view.AwarenessRadius)
	}
	relations := map[string]int{}
	for _, tgt := range view.Targets {
		relations[tgt.Relation]++
	}
	if relations["prey"] != 1 || relations["predator"] != 1 {
		t.Errorf("expected one prey and one predator line, got %v", relations)
	}
	for _, b := range view.Bodies {
		if !b.Intelligent {
			t.Errorf("%s should be tagged intelligent", b.CreatureType)
		}
	}
}

func TestTelemetryOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := loadConfig(t, "")
	g, err := NewGameWithOptions(cfg, Options{Seed: 1, OutputDir: dir, StatsWindowSec: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 30; i++ {
		g.Step()
	}
	g.Unload()

	for _, name := range []string{"config.yaml", "telemetry.csv", "population.csv", "perf.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestSwarmsSpawnOnFirstTick(t *testing.T) {
	cfg := loadConfig(t, "population: []\n")
	g := newTestGame(t, cfg, 4)

	g.Step()
	view := g.DebugView()
	if len(view.Swarms) != 1 {
		t.Fatalf("swarms = %d, want 1", len(view.Swarms))
	}
	members := len(view.Swarms[0].Members)
	if members < cfg.Swarm.MinSize || members >= cfg.Swarm.MaxSize {
		t.Errorf("swarm size %d outside [%d, %d)", members, cfg.Swarm.MinSize, cfg.Swarm.MaxSize)
	}
	spawned := g.Events().Spawned.All()
	if len(spawned) != members {
		t.Errorf("spawned events = %d, want %d", len(spawned), members)
	}
	for _, ev := range spawned {
		if ev.CreatureType != cfg.Swarm.MemberType {
			t.Errorf("spawned %q, want %q", ev.CreatureType, cfg.Swarm.MemberType)
		}
	}
	if g.CreatureCount() != 0 || len(view.Bodies) != 0 {
		t.Errorf("swarmlings counted as creatures: count %d, bodies %d", g.CreatureCount(), len(view.Bodies))
	}

	b := g.Bounds()
	for range 120 {
		g.Step()
	}
	for _, sw := range g.DebugView().Swarms {
		for _, m := range sw.Members {
			if !b.Contains(m) {
				t.Errorf("swarmling at %v left the world", m)
			}
		}
	}
}

func TestSwarmsDisabled(t *testing.T) {
	g := newTestGame(t, loadConfig(t, "population: []\nswarm:\n  enabled: false\n"), 4)
	g.Step()
	if n := len(g.DebugView().Swarms); n != 0 {
		t.Errorf("swarms = %d with swarms disabled", n)
	}
}

func TestPerceptionInGame(t *testing.T) {
	g := newTestGame(t, loadConfig(t, "population: []\nswarm:\n  enabled: false\n"), 6)
	carn, _ := g.Spawn("carnivore", components.Transform{})
	herb, _ := g.Spawn("herbivore", components.Transform{Position: r2.Vec{X: 3}})

	g.Step()
	perceived := map[ecs.Entity]int{}
	for _, b := range g.DebugView().Bodies {
		perceived[b.Entity] = b.Perceived
	}
	// Carnivores see 4 units, herbivores 3; the range itself is excluded
	if perceived[carn] != 1 {
		t.Errorf("carnivore perceives %d, want 1", perceived[carn])
	}
	if perceived[herb] != 0 {
		t.Errorf("herbivore perceives %d at exactly its range, want 0", perceived[herb])
	}
	if n := len(g.DebugView().Perceived); n != 1 {
		t.Errorf("perception lines = %d, want 1", n)
	}
}

func TestLifetimeRecordsKill(t *testing.T) {
	dir := t.TempDir()
	cfg := loadConfig(t, "population: []\n")
	g, err := NewGameWithOptions(cfg, Options{Seed: 9, OutputDir: dir})
	if err != nil {
		t.Fatal(err)
	}

	carn, _ := g.Spawn("carnivore", components.Transform{})
	herb, _ := g.Spawn("herbivore", components.Transform{Position: r2.Vec{X: 0.3}})
	ecs.NewMap[components.Health](g.world).Get(herb).Value = 15
	if _, ok := g.Lifetime(herb); !ok {
		t.Fatal("spawned herbivore should be tracked")
	}

	g.Step()

	life, ok := g.Lifetime(carn)
	if !ok {
		t.Fatal("carnivore lifetime missing")
	}
	if life.BitesHit != 1 || life.Kills != 1 || life.BitesAttempted < life.BitesHit {
		t.Errorf("attempts/hits/kills = %d/%d/%d, want >=1/1/1", life.BitesAttempted, life.BitesHit, life.Kills)
	}
	if want := 80 + 50 - 3*cfg.Physics.DT; math.Abs(life.PeakFullness-want) > 1e-9 {
		t.Errorf("peak fullness = %v, want %v", life.PeakFullness, want)
	}
	if _, ok := g.Lifetime(herb); ok {
		t.Error("dead herbivore should no longer be tracked")
	}

	g.Unload()
	data, err := os.ReadFile(filepath.Join(dir, "lifetimes.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lifetimes.csv has %d lines, want header + 1 row", len(lines))
	}
	if !strings.Contains(lines[1], "herbivore") || !strings.Contains(lines[1], "health") {
		t.Errorf("unexpected lifetime row %q", lines[1])
	}
}

func TestPerfPhasesRecorded(t *testing.T) {
	g := newTestGame(t, loadConfig(t, ""), 8)
	for range 10 {
		g.Step()
	}

	stats := g.PerfStats()
	if stats.AvgTickDuration <= 0 {
		t.Fatal("expected a positive average step time")
	}
	phases := []string{
		telemetry.PhaseSpatialGrid, telemetry.PhasePerception, telemetry.PhaseFactions,
		telemetry.PhaseClosest, telemetry.PhaseSteering, telemetry.PhaseMovement,
		telemetry.PhaseCollision, telemetry.PhaseCombat, telemetry.PhaseLifecycle,
		telemetry.PhaseSpawning, telemetry.PhaseTelemetry,
	}
	for _, phase := range phases {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("phase %s not timed", phase)
		}
	}
}

func TestHeadlessStartsRunning(t *testing.T) {
	cfg := loadConfig(t, "physics:\n  time_scale: 0\n")

	tests := []struct {
		headless   bool
		wantPaused bool
	}{
		{false, true},
		{true, false},
	}
	for _, tt := range tests {
		g, err := NewGameWithOptions(cfg, Options{Seed: 1, Headless: tt.headless})
		if err != nil {
			t.Fatal(err)
		}
		if got := g.Clock().Paused(); got != tt.wantPaused {
			t.Errorf("headless=%v: paused = %v, want %v", tt.headless, got, tt.wantPaused)
		}
		g.Unload()
	}
}
