package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/critters/game"
)

// TimeControls renders the Pause/Play, Slow Down and Speed Up buttons.
type TimeControls struct {
	x, y float32
}

// NewTimeControls creates the time control bar at the given screen position.
func NewTimeControls(x, y float32) *TimeControls {
	return &TimeControls{x: x, y: y}
}

// SetPosition updates the bar position.
func (t *TimeControls) SetPosition(x, y float32) {
	t.x = x
	t.y = y
}

// Draw renders the buttons and applies any click to the clock.
func (t *TimeControls) Draw(clock *game.Clock) {
	const w, h, gap = 100, 28, 8

	label := "Pause"
	if clock.Paused() {
		label = "Play"
	}
	if gui.Button(rl.Rectangle{X: t.x, Y: t.y, Width: w, Height: h}, label) {
		clock.TogglePause()
	}
	if gui.Button(rl.Rectangle{X: t.x + w + gap, Y: t.y, Width: w, Height: h}, "Slow Down") {
		clock.SlowDown()
	}
	if gui.Button(rl.Rectangle{X: t.x + 2*(w+gap), Y: t.y, Width: w, Height: h}, "Speed Up") {
		clock.SpeedUp()
	}
	gui.Label(rl.Rectangle{X: t.x + 3*(w+gap), Y: t.y, Width: w, Height: h}, fmt.Sprintf("x%.2f", clock.Scale()))
}

// HandleKeys maps Space, minus and plus to the same clock controls.
func (t *TimeControls) HandleKeys(clock *game.Clock) {
	if rl.IsKeyPressed(rl.KeySpace) {
		clock.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		clock.SlowDown()
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		clock.SpeedUp()
	}
}

// ControlsPanel renders the overlay toggle list.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the controls panel.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) {
	if !c.visible {
		return
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight
	all := overlays.All()
	panelHeight := int32(len(all)+1)*lineHeight + padding*2 + 4

	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding
	rl.DrawText("Overlays", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	for _, desc := range all {
		c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
		y += lineHeight
	}
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	nameColor := r.Theme.LabelColor
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
		nameColor = rl.White
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}
