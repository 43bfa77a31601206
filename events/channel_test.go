package events

import "testing"

func TestChannelReadersIndependent(t *testing.T) {
	ch := NewChannel[int]()
	a := ch.Register()
	b := ch.Register()

	ch.Write(1)
	ch.Write(2)

	if got := ch.Read(a); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("reader a = %v, want [1 2]", got)
	}
	if got := ch.Read(a); len(got) != 0 {
		t.Errorf("reader a second read = %v, want empty", got)
	}

	ch.WriteAll([]int{3, 4})

	if got := ch.Read(b); len(got) != 4 {
		t.Errorf("reader b = %v, want 4 events", got)
	}
	if got := ch.Read(a); len(got) != 2 || got[0] != 3 {
		t.Errorf("reader a after more writes = %v, want [3 4]", got)
	}
}

func TestChannelReset(t *testing.T) {
	ch := NewChannel[string]()
	r := ch.Register()
	ch.Write("x")
	ch.Read(r)

	ch.Reset()
	if ch.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", ch.Len())
	}

	ch.Write("y")
	got := ch.Read(r)
	if len(got) != 1 || got[0] != "y" {
		t.Errorf("read after Reset = %v, want [y]", got)
	}
}

func TestChannelUnknownReader(t *testing.T) {
	ch := NewChannel[int]()
	ch.Write(1)
	if got := ch.Read(ReaderID(3)); got != nil {
		t.Errorf("unknown reader = %v, want nil", got)
	}
}

func TestBusReset(t *testing.T) {
	bus := NewBus()
	bus.Collisions.Write(CollisionEvent{})
	bus.Spawns.Write(SpawnEvent{CreatureType: "plant"})
	bus.Reset()
	if bus.Collisions.Len() != 0 || bus.Spawns.Len() != 0 {
		t.Error("Bus.Reset should clear every channel")
	}
}

func TestDeathCauseString(t *testing.T) {
	if CauseStarvation.String() != "starvation" || CauseHealth.String() != "health" {
		t.Error("unexpected cause names")
	}
}
