package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/config"
)

func TestCreateFactionsOrder(t *testing.T) {
	w := ecs.NewWorld()
	_, err := CreateFactions(w, []config.FactionConfig{
		{Name: "carnivores", PreysOn: []string{"herbivores"}},
		{Name: "herbivores"},
	})
	if err == nil {
		t.Fatal("expected error for prey defined after its predator")
	}
}

func TestFactionSets(t *testing.T) {
	f := newFixture(t,
		config.FactionConfig{Name: "plants"},
		config.FactionConfig{Name: "herbivores", PreysOn: []string{"plants"}},
		config.FactionConfig{Name: "carnivores", PreysOn: []string{"herbivores"}},
	)
	plant := f.member(t, "plants", 0, 0)
	herb := f.member(t, "herbivores", 1, 0)
	carn := f.member(t, "carnivores", 2, 0)

	NewFactionSystem(f.w).Update(f.w)

	prey := ecs.NewMap[components.Query[components.Prey]](f.w)
	pred := ecs.NewMap[components.Query[components.Predator]](f.w)
	friend := ecs.NewMap[components.Query[components.Friend]](f.w)

	plants, herbs, carns := f.factions["plants"], f.factions["herbivores"], f.factions["carnivores"]

	tests := []struct {
		name string
		set  *components.Query[components.Prey]
		want []ecs.Entity
	}{
		{"plants prey", prey.Get(plants), nil},
		{"herbivores prey", prey.Get(herbs), []ecs.Entity{plant}},
		{"carnivores prey", prey.Get(carns), []ecs.Entity{herb}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.set.Len() != len(tc.want) {
				t.Fatalf("expected %d members, got %d", len(tc.want), tc.set.Len())
			}
			for _, e := range tc.want {
				if !tc.set.Contains(e) {
					t.Errorf("missing member %v", e)
				}
			}
		})
	}

	if p := pred.Get(plants); p.Len() != 1 || !p.Contains(herb) {
		t.Errorf("plants predators: expected herbivore only, got %d members", p.Len())
	}
	if p := pred.Get(herbs); p.Len() != 1 || !p.Contains(carn) {
		t.Errorf("herbivores predators: expected carnivore only, got %d members", p.Len())
	}
	if p := pred.Get(carns); p.Len() != 0 {
		t.Errorf("carnivores predators: expected none, got %d", p.Len())
	}
	if fr := friend.Get(herbs); fr.Len() != 1 || !fr.Contains(herb) {
		t.Errorf("herbivores friends should contain itself, got %d members", fr.Len())
	}
}

func TestFactionSetsRebuiltEachTick(t *testing.T) {
	f := newFixture(t, predatorPrey()...)
	herb := f.member(t, "herbivores", 0, 0)
	f.member(t, "carnivores", 1, 0)

	sys := NewFactionSystem(f.w)
	sys.Update(f.w)

	f.w.RemoveEntity(herb)
	sys.Update(f.w)

	prey := ecs.NewMap[components.Query[components.Prey]](f.w).Get(f.factions["carnivores"])
	if prey.Len() != 0 {
		t.Errorf("removed creature still listed as prey (%d members)", prey.Len())
	}
}

func TestFactionDanglingReference(t *testing.T) {
	f := newFixture(t, predatorPrey()...)

	// A creature pointing at an entity that is not a faction
	stray := f.body(5, 5)
	ghost := f.body(6, 6)
	f.hasFaction.Add(stray, &components.HasFaction{Faction: ghost})
	f.member(t, "herbivores", 0, 0)

	NewFactionSystem(f.w).Update(f.w)

	for _, name := range []string{"herbivores", "carnivores"} {
		fr := ecs.NewMap[components.Query[components.Friend]](f.w).Get(f.factions[name])
		if fr.Contains(stray) {
			t.Errorf("%s friends contain creature with dangling faction", name)
		}
	}
}

func TestHostile(t *testing.T) {
	f := newFixture(t, predatorPrey()...)
	herb := f.member(t, "herbivores", 0, 0)
	carn := f.member(t, "carnivores", 1, 0)
	other := f.member(t, "herbivores", 2, 0)
	NewFactionSystem(f.w).Update(f.w)

	prey := ecs.NewMap[components.Query[components.Prey]](f.w)

	tests := []struct {
		name               string
		attacker, defender ecs.Entity
		want               bool
	}{
		{"predator on prey", carn, herb, true},
		{"prey on predator", herb, carn, false},
		{"same faction", herb, other, false},
		{"attacker without faction", f.body(9, 9), herb, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Hostile(f.w, f.hasFaction, prey, tc.attacker, tc.defender); got != tc.want {
				t.Errorf("Hostile = %v, want %v", got, tc.want)
			}
		})
	}
}
