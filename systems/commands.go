package systems

import "github.com/mlange-42/ark/ecs"

// CommandBuffer collects structural changes during a stage and applies them
// in a dedicated flush step, so no stage observes a half-built or
// half-removed entity.
type CommandBuffer struct {
	removals []ecs.Entity
	queued   map[ecs.Entity]struct{}
	builds   []func(w *ecs.World)
}

// NewCommandBuffer creates an empty buffer.
func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{queued: make(map[ecs.Entity]struct{})}
}

// Remove queues e for deletion. Queuing the same entity twice is a no-op.
func (b *CommandBuffer) Remove(e ecs.Entity) bool {
	if _, ok := b.queued[e]; ok {
		return false
	}
	b.queued[e] = struct{}{}
	b.removals = append(b.removals, e)
	return true
}

// Queued reports whether e is already scheduled for deletion.
func (b *CommandBuffer) Queued(e ecs.Entity) bool {
	_, ok := b.queued[e]
	return ok
}

// Defer queues an arbitrary world mutation, typically an entity build.
func (b *CommandBuffer) Defer(fn func(w *ecs.World)) {
	b.builds = append(b.builds, fn)
}

// Pending returns the number of queued commands.
func (b *CommandBuffer) Pending() int {
	return len(b.removals) + len(b.builds)
}

// Flush applies removals first, then deferred builds, in queue order.
// Entities that are already gone are skipped. Returns the number of entities removed.
func (b *CommandBuffer) Flush(w *ecs.World) int {
	removed := 0
	for _, e := range b.removals {
		if !w.Alive(e) {
			continue
		}
		w.RemoveEntity(e)
		removed++
	}
	b.removals = b.removals[:0]
	clear(b.queued)

	// A build may queue further builds; they run in this same flush
	for i := 0; i < len(b.builds); i++ {
		b.builds[i](w)
	}
	for i := range b.builds {
		b.builds[i] = nil
	}
	b.builds = b.builds[:0]
	return removed
}
