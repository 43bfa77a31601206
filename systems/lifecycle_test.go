package systems

import (
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/config"
	"github.com/pthm-cable/critters/events"
)

func TestCommandBuffer(t *testing.T) {
	f := newFixture(t)
	a := f.body(0, 0)
	b := f.body(1, 1)

	buf := NewCommandBuffer()
	if !buf.Remove(a) {
		t.Fatal("first Remove should queue")
	}
	if buf.Remove(a) {
		t.Error("second Remove of the same entity should be a no-op")
	}
	if !buf.Queued(a) || buf.Queued(b) {
		t.Error("Queued reports the wrong entities")
	}

	var order []string
	var built ecs.Entity
	buf.Defer(func(w *ecs.World) {
		// Removals already applied when builds run
		if w.Alive(a) {
			order = append(order, "a still alive")
		}
		order = append(order, "build")
		built = f.body(5, 5)
		buf.Defer(func(w *ecs.World) { order = append(order, "chained") })
	})

	if buf.Pending() != 2 {
		t.Errorf("pending = %d, want 2", buf.Pending())
	}

	if removed := buf.Flush(f.w); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if f.w.Alive(a) || !f.w.Alive(b) {
		t.Error("wrong entities removed")
	}
	if !f.w.Alive(built) {
		t.Error("deferred build did not run")
	}
	if len(order) != 2 || order[0] != "build" || order[1] != "chained" {
		t.Errorf("unexpected flush order %v", order)
	}
	if buf.Pending() != 0 || buf.Queued(a) {
		t.Error("buffer not empty after flush")
	}

	// Flushing a removal of an entity that is already gone is harmless
	buf.Remove(a)
	if removed := buf.Flush(f.w); removed != 0 {
		t.Errorf("removed = %d for an already dead entity", removed)
	}
}

func TestStarvationAndHealthDeaths(t *testing.T) {
	tests := []struct {
		name      string
		health    float64
		fullness  float64
		wantDeath bool
		wantCause events.DeathCause
	}{
		{"healthy and fed", 10, 5, false, 0},
		{"starved", 10, 0, true, events.CauseStarvation},
		{"overdrawn stomach", 10, -3, true, events.CauseStarvation},
		{"killed", -1, 5, true, events.CauseHealth},
		{"both at once dies once", 0, 0, true, events.CauseStarvation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			e := f.body(3, 4)
			f.transform.Get(e).Heading = 0.7
			f.health.Add(e, &components.Health{Value: tc.health, Max: 10})
			f.fullness.Add(e, &components.Fullness{Value: tc.fullness, Max: 10})
			f.creature.Add(e, &components.Creature{Type: "herbivore"})
			f.carcass.Add(e, &components.Carcass{CreatureType: "carcass"})

			bus := events.NewBus()
			buffer := NewCommandBuffer()
			NewStarvationSystem(f.w, buffer, bus.Deaths).Update(f.w)
			NewDeathByHealthSystem(f.w, buffer, bus.Deaths).Update(f.w)

			deaths := bus.Deaths.All()
			if !tc.wantDeath {
				if len(deaths) != 0 {
					t.Fatalf("unexpected deaths %v", deaths)
				}
				return
			}
			if len(deaths) != 1 {
				t.Fatalf("expected exactly one death, got %d", len(deaths))
			}
			d := deaths[0]
			if d.Cause != tc.wantCause {
				t.Errorf("cause = %v, want %v", d.Cause, tc.wantCause)
			}
			if d.CreatureType != "herbivore" || d.Carcass != "carcass" {
				t.Errorf("death lost identity: %+v", d)
			}
			if d.Position != (r2.Vec{X: 3, Y: 4}) || d.Heading != 0.7 {
				t.Errorf("death captured wrong transform: %v %v", d.Position, d.Heading)
			}

			buffer.Flush(f.w)
			if f.w.Alive(e) {
				t.Error("dead creature still alive after flush")
			}
		})
	}
}

func TestDigestion(t *testing.T) {
	f := newFixture(t)
	e := f.body(0, 0)
	f.fullness.Add(e, &components.Fullness{Value: 1, Max: 10})
	ecs.NewMap[components.Digestion](f.w).Add(e, &components.Digestion{BurnRate: 2})
	sated := f.body(1, 1)
	f.fullness.Add(sated, &components.Fullness{Value: 1, Max: 10})

	sys := NewDigestionSystem(f.w)
	sys.Update(f.w, 0.25)
	if got := f.fullness.Get(e).Value; !approxEqual(got, 0.5) {
		t.Errorf("fullness = %v, want 0.5", got)
	}
	sys.Update(f.w, 1)
	if got := f.fullness.Get(e).Value; !approxEqual(got, -1.5) {
		t.Errorf("fullness = %v, want -1.5 (not clamped)", got)
	}
	if got := f.fullness.Get(sated).Value; got != 1 {
		t.Errorf("creature without digestion burned fullness: %v", got)
	}
}

func TestCarcassSystem(t *testing.T) {
	deaths := events.NewChannel[events.DeathEvent]()
	spawns := events.NewChannel[events.SpawnEvent]()
	sys := NewCarcassSystem(deaths, spawns)

	deaths.Write(events.DeathEvent{CreatureType: "herbivore", Carcass: "carcass", Position: r2.Vec{X: 1, Y: 2}, Heading: 0.5})
	deaths.Write(events.DeathEvent{CreatureType: "plant"})
	sys.Update()

	got := spawns.All()
	if len(got) != 1 {
		t.Fatalf("expected one carcass spawn, got %d", len(got))
	}
	want := events.SpawnEvent{CreatureType: "carcass", Transform: components.Transform{Position: r2.Vec{X: 1, Y: 2}, Heading: 0.5}}
	if got[0] != want {
		t.Errorf("spawn = %+v, want %+v", got[0], want)
	}

	// Events already read are not replayed
	sys.Update()
	if spawns.Len() != 1 {
		t.Errorf("carcass system re-read old deaths: %d spawns", spawns.Len())
	}
}

func TestRespawnTopsUpFloor(t *testing.T) {
	f := newFixture(t)
	bounds := Bounds{Left: -10, Right: 10, Bottom: -5, Top: 5}

	alive := f.body(0, 0)
	f.creature.Add(alive, &components.Creature{Type: "plant"})
	dying := f.body(1, 0)
	f.creature.Add(dying, &components.Creature{Type: "plant"})
	herb := f.body(2, 0)
	f.creature.Add(herb, &components.Creature{Type: "herbivore"})

	buffer := NewCommandBuffer()
	buffer.Remove(dying)
	spawns := events.NewChannel[events.SpawnEvent]()
	// A carcass-style pending spawn counts toward its type
	spawns.Write(events.SpawnEvent{CreatureType: "herbivore"})

	floors := []config.PopulationConfig{
		{Creature: "plant", Min: 4},
		{Creature: "herbivore", Min: 2},
		{Creature: "carnivore", Min: 0},
	}
	sys := NewRespawnSystem(f.w, floors, bounds, rand.New(rand.NewSource(7)), buffer, spawns)
	if got := sys.Update(f.w); got != 3 {
		t.Fatalf("requested = %d, want 3", got)
	}

	counts := map[string]int{}
	for _, ev := range spawns.All()[1:] {
		counts[ev.CreatureType]++
		if !bounds.Contains(ev.Transform.Position) {
			t.Errorf("respawn outside the world at %v", ev.Transform.Position)
		}
	}
	if counts["plant"] != 3 || counts["herbivore"] != 0 || counts["carnivore"] != 0 {
		t.Errorf("unexpected respawn counts %v", counts)
	}
}
