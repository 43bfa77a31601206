package game

import (
	"testing"
	"time"

	"github.com/pthm-cable/critters/config"
)

func testClockConfig() *config.Config {
	return &config.Config{
		Physics: config.PhysicsConfig{
			DT:              0.02,
			TimeScale:       1,
			TimeScaleFactor: 2,
			TimeScaleMin:    0.25,
			TimeScaleMax:    4,
		},
		Derived: config.DerivedConfig{DT: 20 * time.Millisecond},
	}
}

func TestClockScaling(t *testing.T) {
	c := NewClock(testClockConfig())

	steps := []struct {
		name string
		op   func()
		want float64
	}{
		{"speed up", c.SpeedUp, 2},
		{"speed up again", c.SpeedUp, 4},
		{"clamped at max", c.SpeedUp, 4},
		{"slow down", c.SlowDown, 2},
		{"slow down to 1", c.SlowDown, 1},
		{"slow down to 0.5", c.SlowDown, 0.5},
		{"slow down to 0.25", c.SlowDown, 0.25},
		{"clamped at min", c.SlowDown, 0.25},
	}
	for _, s := range steps {
		s.op()
		if got := c.Scale(); got != s.want {
			t.Errorf("%s: scale = %v, want %v", s.name, got, s.want)
		}
	}
}

func TestClockPause(t *testing.T) {
	c := NewClock(testClockConfig())

	if c.Delta() != 0.02 {
		t.Errorf("delta = %v, want 0.02", c.Delta())
	}
	if c.DeltaDuration() != 20*time.Millisecond {
		t.Errorf("delta duration = %v, want 20ms", c.DeltaDuration())
	}

	c.TogglePause()
	if !c.Paused() || c.Delta() != 0 || c.DeltaDuration() != 0 || c.Scale() != 0 {
		t.Error("paused clock must report zero delta and scale")
	}

	// Scale changes while paused apply on resume
	c.SpeedUp()
	c.TogglePause()
	if c.Scale() != 2 || c.Delta() != 0.04 || c.DeltaDuration() != 40*time.Millisecond {
		t.Errorf("after resume: scale %v delta %v, want 2 and 0.04", c.Scale(), c.Delta())
	}
}

func TestClockStartsPausedAtZeroScale(t *testing.T) {
	cfg := testClockConfig()
	cfg.Physics.TimeScale = 0
	c := NewClock(cfg)

	if !c.Paused() {
		t.Error("a zero initial time scale should start paused")
	}
	c.SetPaused(false)
	if c.Scale() != 1 {
		t.Errorf("scale after unpausing = %v, want 1", c.Scale())
	}
}

func TestClockFollowsConfiguredDT(t *testing.T) {
	cfg, err := config.Parse([]byte("physics:\n  dt: 0.05\n"))
	if err != nil {
		t.Fatal(err)
	}
	c := NewClock(cfg)
	if c.DeltaDuration() != 50*time.Millisecond {
		t.Errorf("delta duration = %v, want 50ms", c.DeltaDuration())
	}
	if c.Delta() != 0.05 {
		t.Errorf("delta = %v, want 0.05", c.Delta())
	}
}
