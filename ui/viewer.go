package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/camera"
	"github.com/pthm-cable/critters/config"
	"github.com/pthm-cable/critters/game"
)

const controlsLegend = "Space: pause | -/+: speed | Drag RMB: pan | Wheel: zoom | LMB: inspect | O: overlays | R: reset view"

// Viewer owns the window-side state for one running game.
type Viewer struct {
	game *game.Game
	cam  *camera.Camera

	overlays *OverlayRegistry
	world    *WorldRenderer
	hud      *HUD
	time     *TimeControls
	controls *ControlsPanel
	inspect  *Inspector
}

// NewViewer creates a viewer sized to the configured screen.
func NewViewer(g *game.Game, cfg *config.Config) *Viewer {
	w, h := float32(cfg.Screen.Width), float32(cfg.Screen.Height)
	b := g.Bounds()
	cam := camera.New(w, h, float32(cfg.Screen.PixelsPerUnit),
		float32(b.Left), float32(b.Right), float32(b.Bottom), float32(b.Top))
	cam.SetZoom(cam.FitZoom() * 0.9)

	return &Viewer{
		game:     g,
		cam:      cam,
		overlays: NewOverlayRegistry(),
		world:    NewWorldRenderer(cam),
		hud:      NewHUD(),
		time:     NewTimeControls(w-440, 10),
		controls: NewControlsPanel(10, 120, 200),
		inspect:  NewInspector(int32(w)-230, 50, 220),
	}
}

// HandleInput applies this frame's keyboard and mouse input.
func (v *Viewer) HandleInput() {
	v.cam.Resize(float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
	v.time.SetPosition(v.cam.ViewportW-440, 10)
	v.inspect.SetPosition(int32(v.cam.ViewportW)-230, 50)

	v.time.HandleKeys(v.game.Clock())
	v.overlays.HandleKeys()
	if rl.IsKeyPressed(rl.KeyO) {
		v.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.cam.Reset()
		v.cam.SetZoom(v.cam.FitZoom() * 0.9)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.cam.ZoomBy(1 + 0.1*wheel)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		v.cam.Pan(-d.X, -d.Y)
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		m := rl.GetMousePosition()
		// Clicks on the top bar belong to the buttons
		if m.Y > 50 {
			wx, wy := v.cam.ScreenToWorld(m.X, m.Y)
			v.inspect.Select(v.game.DebugView(), r2.Vec{X: float64(wx), Y: float64(wy)})
		}
	}
}

// Draw renders one frame.
func (v *Viewer) Draw() {
	v.game.RecordFrame()
	view := v.game.DebugView()
	selected, hasSelection := v.inspect.Selected(view)

	rl.BeginDrawing()
	rl.ClearBackground(v.world.renderer.Theme.Background)

	v.world.Draw(view, v.game.Bounds(), v.overlays, selected)

	population := make(map[string]int)
	for _, b := range view.Bodies {
		population[b.CreatureType]++
	}
	clock := v.game.Clock()
	v.hud.Draw(HUDData{
		Title:      "Critters",
		Population: population,
		Tick:       v.game.Tick(),
		SimTime:    v.game.SimTime(),
		Scale:      clock.Scale(),
		FPS:        rl.GetFPS(),
		TickUS:     v.game.PerfStats().AvgTickDuration.Microseconds(),
		Paused:     clock.Paused(),
		Collisions: len(view.Collisions),
		Deaths:     v.game.Events().Deaths.Len(),
	})
	v.hud.DrawControls(int32(v.cam.ViewportH), controlsLegend)
	v.time.Draw(clock)
	v.controls.Draw(v.overlays)
	if hasSelection {
		v.inspect.Draw(selected)
	}

	rl.EndDrawing()
}
