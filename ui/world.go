package ui

import (
	"math"

	"github.com/cespare/xxhash/v2"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/camera"
	"github.com/pthm-cable/critters/game"
	"github.com/pthm-cable/critters/systems"
)

// WorldRenderer draws a DebugView through a camera.
type WorldRenderer struct {
	renderer *Renderer
	cam      *camera.Camera
	colors   map[string]rl.Color
}

// NewWorldRenderer creates a renderer for the given camera.
func NewWorldRenderer(cam *camera.Camera) *WorldRenderer {
	return &WorldRenderer{
		renderer: NewRenderer(),
		cam:      cam,
		colors:   make(map[string]rl.Color),
	}
}

// CreatureColor returns a stable color for a creature type name.
func (wr *WorldRenderer) CreatureColor(creatureType string) rl.Color {
	if c, ok := wr.colors[creatureType]; ok {
		return c
	}
	c := creaturePalette[xxhash.Sum64String(creatureType)%uint64(len(creaturePalette))]
	wr.colors[creatureType] = c
	return c
}

func (wr *WorldRenderer) toScreen(p r2.Vec) rl.Vector2 {
	sx, sy := wr.cam.WorldToScreen(float32(p.X), float32(p.Y))
	return rl.NewVector2(sx, sy)
}

// Draw renders the world rectangle, bodies and enabled overlays.
func (wr *WorldRenderer) Draw(view game.DebugView, bounds systems.Bounds, overlays *OverlayRegistry, selected *game.DebugBody) {
	theme := wr.renderer.Theme

	tl := wr.toScreen(r2.Vec{X: bounds.Left, Y: bounds.Top})
	br := wr.toScreen(r2.Vec{X: bounds.Right, Y: bounds.Bottom})
	rect := rl.Rectangle{X: tl.X, Y: tl.Y, Width: br.X - tl.X, Height: br.Y - tl.Y}
	rl.DrawRectangleRec(rect, theme.WorldBg)
	rl.DrawRectangleLinesEx(rect, 2, theme.WorldBorder)

	if overlays.IsEnabled(OverlayTargets) {
		for _, t := range view.Targets {
			color, ok := relationColors[t.Relation]
			if !ok {
				color = rl.Gray
			}
			rl.DrawLineV(wr.toScreen(t.From), wr.toScreen(t.To), color)
		}
	}

	if overlays.IsEnabled(OverlayPerception) {
		for _, t := range view.Perceived {
			rl.DrawLineV(wr.toScreen(t.From), wr.toScreen(t.To), rl.Fade(rl.Yellow, 0.3))
		}
	}

	if overlays.IsEnabled(OverlaySwarms) {
		for _, s := range view.Swarms {
			c := wr.toScreen(s.Center)
			rl.DrawCircleLines(int32(c.X), int32(c.Y), 4, theme.SwarmCenter)
			for _, m := range s.Members {
				rl.DrawCircleV(wr.toScreen(m), 2, theme.Swarmling)
			}
		}
	}

	awareness := wr.cam.WorldLength(float32(view.AwarenessRadius))
	for _, b := range view.Bodies {
		if !wr.cam.IsVisible(float32(b.Position.X), float32(b.Position.Y), float32(b.Radius)) {
			continue
		}
		center := wr.toScreen(b.Position)
		radius := wr.cam.WorldLength(float32(b.Radius))
		color := wr.CreatureColor(b.CreatureType)
		if b.OnCooldown {
			color = rl.Fade(color, 0.6)
		}
		rl.DrawCircleV(center, radius, color)

		if b.Intelligent && overlays.IsEnabled(OverlayAwareness) {
			rl.DrawCircleLines(int32(center.X), int32(center.Y), awareness, rl.Fade(color, 0.25))
		}
		if overlays.IsEnabled(OverlayHeadings) {
			tip := rl.NewVector2(
				center.X+float32(math.Cos(b.Heading))*radius*1.6,
				center.Y-float32(math.Sin(b.Heading))*radius*1.6,
			)
			rl.DrawLineV(center, tip, rl.White)
		}
		if overlays.IsEnabled(OverlayHealth) && b.HealthFrac < 1 {
			w := int32(radius * 2)
			x := int32(center.X - radius)
			y := int32(center.Y - radius - 6)
			rl.DrawRectangle(x, y, w, 3, theme.BarBg)
			rl.DrawRectangle(x, y, int32(float32(w)*float32(b.HealthFrac)), 3, wr.renderer.ratioColor(float32(b.HealthFrac)))
		}
	}

	if overlays.IsEnabled(OverlayCollisions) {
		for _, c := range view.Collisions {
			rl.DrawLineV(wr.toScreen(c.A), wr.toScreen(c.B), rl.Red)
		}
	}

	if selected != nil {
		center := wr.toScreen(selected.Position)
		rl.DrawCircleLines(int32(center.X), int32(center.Y), wr.cam.WorldLength(float32(selected.Radius))+4, rl.Yellow)
	}
}
