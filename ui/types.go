// Package ui draws the simulation's debug view with raylib and exposes the
// time controls. It only reads game.DebugView snapshots; all simulation
// changes go through the game's public controls.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme holds UI styling constants.
type Theme struct {
	Background     rl.Color
	WorldBg        rl.Color
	WorldBorder    rl.Color
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFillLow     rl.Color
	BarFillMedium  rl.Color
	BarFillHigh    rl.Color
	SwarmCenter    rl.Color
	Swarmling      rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		Background:     rl.Color{R: 12, G: 14, B: 18, A: 255},
		WorldBg:        rl.Color{R: 24, G: 30, B: 26, A: 255},
		WorldBorder:    rl.Color{R: 90, G: 100, B: 90, A: 255},
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.LightGray,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFillLow:     rl.Color{R: 200, G: 100, B: 100, A: 255},
		BarFillMedium:  rl.Color{R: 200, G: 180, B: 100, A: 255},
		BarFillHigh:    rl.Color{R: 100, G: 200, B: 100, A: 255},
		SwarmCenter:    rl.Color{R: 200, G: 140, B: 255, A: 200},
		Swarmling:      rl.Color{R: 220, G: 180, B: 255, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     70,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}

// Relation line colors, keyed by the DebugTarget relation name.
var relationColors = map[string]rl.Color{
	"prey":     {R: 230, G: 80, B: 80, A: 200},
	"predator": {R: 240, G: 200, B: 60, A: 200},
	"friend":   {R: 80, G: 160, B: 240, A: 160},
	"obstacle": {R: 180, G: 180, B: 180, A: 160},
}

// creaturePalette colors creature types that have no fixed color.
var creaturePalette = []rl.Color{
	{R: 90, G: 200, B: 120, A: 255},
	{R: 230, G: 120, B: 70, A: 255},
	{R: 110, G: 150, B: 240, A: 255},
	{R: 200, G: 110, B: 220, A: 255},
	{R: 240, G: 220, B: 90, A: 255},
	{R: 120, G: 220, B: 220, A: 255},
}
