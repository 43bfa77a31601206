package ui

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/critters/game"
)

// Inspector renders a panel for the selected creature.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32

	selected ecs.Entity
	active   bool
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Select picks the body under the world point p, or clears the selection.
func (ins *Inspector) Select(view game.DebugView, p r2.Vec) {
	ins.active = false
	best := 0.0
	for _, b := range view.Bodies {
		d2 := r2.Norm2(r2.Sub(b.Position, p))
		if d2 > b.Radius*b.Radius {
			continue
		}
		if !ins.active || d2 < best {
			ins.selected = b.Entity
			ins.active = true
			best = d2
		}
	}
}

// Selected returns the selected body from view, if it still exists.
func (ins *Inspector) Selected(view game.DebugView) (*game.DebugBody, bool) {
	if !ins.active {
		return nil, false
	}
	for i := range view.Bodies {
		if view.Bodies[i].Entity == ins.selected {
			return &view.Bodies[i], true
		}
	}
	ins.active = false
	return nil, false
}

// Draw renders the inspector panel for b.
func (ins *Inspector) Draw(b *game.DebugBody) {
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2

	r.DrawPanel(ins.x, ins.y, ins.width, 10*r.Theme.LineHeight+padding*2)

	x := ins.x + padding
	y := ins.y + padding
	y = r.DrawSectionHeader(x, y, b.CreatureType)
	y = r.DrawLabelValue(x, y, "Entity", fmt.Sprintf("%d", b.Entity.ID()))
	y = r.DrawLabelValue(x, y, "Position", fmt.Sprintf("(%.2f, %.2f)", b.Position.X, b.Position.Y))
	y = r.DrawLabelValue(x, y, "Heading", fmt.Sprintf("%.2f rad", b.Heading))
	y = r.DrawLabelValue(x, y, "Cooldown", fmt.Sprintf("%t", b.OnCooldown))
	y = r.DrawLabelValue(x, y, "Aware", fmt.Sprintf("%t", b.Intelligent))
	y = r.DrawLabelValue(x, y, "Perceives", fmt.Sprintf("%d", b.Perceived))
	y = r.DrawLabelValue(x, y, "Age", fmt.Sprintf("%.1fs", b.Age))
	y = r.DrawLabelValue(x, y, "Bites", fmt.Sprintf("%d/%d, %d kills", b.Hits, b.Bites, b.Kills))
	r.DrawRatioBar(x, y, "Health", float32(b.HealthFrac), contentWidth)
}
