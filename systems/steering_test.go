package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/components"
)

func TestSeekSystem(t *testing.T) {
	tests := []struct {
		name      string
		rotation  float64
		magnitude float64
		offset    r2.Vec
		velocity  r2.Vec
		dt        float64
		want      r2.Vec
		steered   bool
	}{
		{"seek from rest", 0, 1, r2.Vec{X: 2}, r2.Vec{}, 0.5, r2.Vec{X: 0.5}, true},
		{"flee from rest", math.Pi, 1, r2.Vec{X: 2}, r2.Vec{}, 0.5, r2.Vec{X: -0.5}, true},
		{"deflect a quarter turn", math.Pi / 2, 2, r2.Vec{Y: 3}, r2.Vec{}, 1, r2.Vec{X: -2}, true},
		{"already at desired velocity", 0, 1, r2.Vec{X: 4}, r2.Vec{X: 1}, 1, r2.Vec{X: 1}, true},
		{"zero offset is ignored", 0, 1, r2.Vec{}, r2.Vec{X: 0.3}, 1, r2.Vec{X: 0.3}, false},
		{"zero dt leaves velocity", 0, 1, r2.Vec{X: 2}, r2.Vec{Y: 1}, 0, r2.Vec{Y: 1}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			e := f.body(0, 0)
			f.moving(e, tc.velocity.X, tc.velocity.Y, 10)
			ecs.NewMap[components.Closest[components.Prey]](f.w).Add(e, &components.Closest[components.Prey]{Offset: tc.offset})

			steered := NewSteered()
			NewSeekSystem[components.Prey](f.w, tc.rotation, tc.magnitude, steered).Update(f.w, tc.dt)

			if got := f.velocity(e); !approxVec(got, tc.want) {
				t.Errorf("velocity = %v, want %v", got, tc.want)
			}
			if steered.Has(e) != tc.steered {
				t.Errorf("steered = %v, want %v", steered.Has(e), tc.steered)
			}
		})
	}
}

func TestSeekIgnoresOtherRelations(t *testing.T) {
	f := newFixture(t)
	e := f.body(0, 0)
	f.moving(e, 0, 0, 10)
	ecs.NewMap[components.Closest[components.Predator]](f.w).Add(e, &components.Closest[components.Predator]{Offset: r2.Vec{X: 1}})

	NewSeekSystem[components.Prey](f.w, 0, 1, nil).Update(f.w, 1)

	if got := f.velocity(e); got != (r2.Vec{}) {
		t.Errorf("prey rule moved an entity with only a predator target: %v", got)
	}
}

func TestWanderSkipsSteered(t *testing.T) {
	f := newFixture(t)
	wander := ecs.NewMap[components.Wander](f.w)

	steeredEntity := f.body(0, 0)
	f.moving(steeredEntity, 1, 0, 10)
	wander.Add(steeredEntity, &components.Wander{Radius: 1})

	free := f.body(3, 3)
	f.moving(free, 1, 0, 10)
	wander.Add(free, &components.Wander{Radius: 1})

	steered := NewSteered()
	steered.Mark(steeredEntity)
	NewWanderSystem(f.w, 10, 0.5, rand.New(rand.NewSource(1)), steered).Update(f.w, 0.1)

	if got := f.velocity(steeredEntity); got != (r2.Vec{X: 1}) {
		t.Errorf("steered entity was wandered: %v", got)
	}
	if wander.Get(steeredEntity).Angle != 0 {
		t.Error("steered entity's wander angle changed")
	}

	// free: future = p + v*0.5, target = future + (1,0); desired = (1.5, 0)
	if got, want := f.velocity(free), (r2.Vec{X: 1.15}); !approxVec(got, want) {
		t.Errorf("free entity velocity = %v, want %v", got, want)
	}
	if a := wander.Get(free).Angle; !approxEqual(math.Abs(a), 1) {
		t.Errorf("wander angle should move by turn_rate*dt = 1, got %v", a)
	}
}

func TestRicochet(t *testing.T) {
	bounds := Bounds{Left: -10, Right: 10, Bottom: -5, Top: 5}

	tests := []struct {
		name string
		pos  r2.Vec
		vel  r2.Vec
		want r2.Vec
	}{
		{"right wall", r2.Vec{X: 10}, r2.Vec{X: 1, Y: 1}, r2.Vec{X: -1, Y: 1}},
		{"top wall", r2.Vec{Y: 5}, r2.Vec{X: 1, Y: 1}, r2.Vec{X: 1, Y: -1}},
		{"corner", r2.Vec{X: -10, Y: -5}, r2.Vec{X: -1, Y: -2}, r2.Vec{X: 1, Y: 2}},
		{"inside", r2.Vec{X: 1, Y: 1}, r2.Vec{X: 1, Y: 1}, r2.Vec{X: 1, Y: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			e := f.body(tc.pos.X, tc.pos.Y)
			f.moving(e, tc.vel.X, tc.vel.Y, 10)
			ecs.NewMap[components.RicochetTag](f.w).Add(e, &components.RicochetTag{})

			untagged := f.body(tc.pos.X, tc.pos.Y)
			f.moving(untagged, tc.vel.X, tc.vel.Y, 10)

			NewRicochetSystem(f.w, bounds).Update(f.w)

			if got := f.velocity(e); got != tc.want {
				t.Errorf("velocity = %v, want %v", got, tc.want)
			}
			if got := f.velocity(untagged); got != tc.vel {
				t.Errorf("untagged entity bounced: %v", got)
			}
		})
	}
}
