package ui

import (
	"fmt"
	"sort"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title      string
	Population map[string]int
	Tick       int64
	SimTime    float64
	Scale      float64
	FPS        int32
	TickUS     int64 // average step time in microseconds
	Paused     bool
	Collisions int
	Deaths     int
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(populationLine(data.Population), 10, 35, 16, rl.LightGray)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Time: %.1fs | Scale: %.2fx | FPS: %d", data.Tick, data.SimTime, data.Scale, data.FPS),
		10, 55, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Collisions: %d | Deaths: %d | Step: %dus", data.Collisions, data.Deaths, data.TickUS),
		10, 75, 16, rl.LightGray,
	)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 95, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// populationLine formats counts as "herbivore: 12 | plant: 40", sorted by name.
func populationLine(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %d", name, counts[name]))
	}
	return strings.Join(parts, " | ")
}
