package game

import (
	"time"

	"github.com/pthm-cable/critters/config"
)

// Clock scales the fixed tick duration by a user-controlled time scale.
// The core only reads it; the UI layer mutates it.
type Clock struct {
	base   time.Duration // tick length at scale 1
	scale  float64
	paused bool

	factor   float64
	minScale float64
	maxScale float64
}

// NewClock creates a clock from the physics section and the derived tick length.
// An initial time_scale of 0 starts paused at scale 1.
func NewClock(cfg *config.Config) *Clock {
	p := cfg.Physics
	c := &Clock{
		base:     cfg.Derived.DT,
		scale:    p.TimeScale,
		factor:   p.TimeScaleFactor,
		minScale: p.TimeScaleMin,
		maxScale: p.TimeScaleMax,
	}
	if c.scale <= 0 {
		c.scale = 1
		c.paused = true
	}
	c.scale = clampScale(c.scale, c.minScale, c.maxScale)
	return c
}

func clampScale(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Delta returns the scaled tick duration in seconds; 0 while paused.
func (c *Clock) Delta() float64 {
	if c.paused {
		return 0
	}
	return c.base.Seconds() * c.scale
}

// DeltaDuration is Delta as a time.Duration.
func (c *Clock) DeltaDuration() time.Duration {
	if c.paused {
		return 0
	}
	return time.Duration(float64(c.base) * c.scale)
}

// Scale returns the effective time scale (0 while paused).
func (c *Clock) Scale() float64 {
	if c.paused {
		return 0
	}
	return c.scale
}

// Paused reports whether time is frozen.
func (c *Clock) Paused() bool {
	return c.paused
}

// SetPaused freezes or resumes time.
func (c *Clock) SetPaused(p bool) {
	c.paused = p
}

// TogglePause flips the paused state.
func (c *Clock) TogglePause() {
	c.paused = !c.paused
}

// SpeedUp multiplies the time scale by the configured factor, up to the maximum.
func (c *Clock) SpeedUp() {
	c.scale = clampScale(c.scale*c.factor, c.minScale, c.maxScale)
}

// SlowDown divides the time scale by the configured factor, down to the minimum.
func (c *Clock) SlowDown() {
	c.scale = clampScale(c.scale/c.factor, c.minScale, c.maxScale)
}
