package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayAwareness  OverlayID = "awareness"
	OverlayTargets    OverlayID = "targets"
	OverlayCollisions OverlayID = "collisions"
	OverlayHeadings   OverlayID = "headings"
	OverlayHealth     OverlayID = "health"
	OverlayPerception OverlayID = "perception"
	OverlaySwarms     OverlayID = "swarms"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID       OverlayID // Unique identifier
	Name     string    // Display name
	Key      int32     // Keyboard key to toggle (0 = no key)
	KeyLabel string    // Key label for display (e.g., "A")
	Enabled  bool      // Initial state
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{enabled: make(map[OverlayID]bool)}
	reg.Register(OverlayDescriptor{ID: OverlayAwareness, Name: "Awareness Rings", Key: rl.KeyA, KeyLabel: "A"})
	reg.Register(OverlayDescriptor{ID: OverlayTargets, Name: "Target Lines", Key: rl.KeyT, KeyLabel: "T", Enabled: true})
	reg.Register(OverlayDescriptor{ID: OverlayCollisions, Name: "Collisions", Key: rl.KeyC, KeyLabel: "C", Enabled: true})
	reg.Register(OverlayDescriptor{ID: OverlayHeadings, Name: "Headings", Key: rl.KeyH, KeyLabel: "H", Enabled: true})
	reg.Register(OverlayDescriptor{ID: OverlayHealth, Name: "Health Bars", Key: rl.KeyB, KeyLabel: "B"})
	reg.Register(OverlayDescriptor{ID: OverlayPerception, Name: "Perception", Key: rl.KeyP, KeyLabel: "P"})
	reg.Register(OverlayDescriptor{ID: OverlaySwarms, Name: "Swarms", Key: rl.KeyS, KeyLabel: "S", Enabled: true})
	return reg
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.enabled[desc.ID] = desc.Enabled
}

// Toggle switches an overlay on/off.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.enabled[id]; !ok {
		return false
	}
	r.enabled[id] = !r.enabled[id]
	return r.enabled[id]
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// HandleKeys toggles every overlay whose key was pressed this frame.
func (r *OverlayRegistry) HandleKeys() {
	for _, desc := range r.descriptors {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			r.Toggle(desc.ID)
		}
	}
}
