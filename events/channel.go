package events

// ReaderID identifies a registered consumer of a Channel.
type ReaderID int

// Channel is an append-only log of events for the current tick.
// Each registered reader keeps its own cursor, so several systems can
// consume the same stream without interfering.
type Channel[T any] struct {
	log     []T
	cursors []int
}

// NewChannel creates an empty channel.
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{log: make([]T, 0, 64)}
}

// Register adds a reader positioned at the start of the current log.
func (c *Channel[T]) Register() ReaderID {
	c.cursors = append(c.cursors, 0)
	return ReaderID(len(c.cursors) - 1)
}

// Write appends one event.
func (c *Channel[T]) Write(ev T) {
	c.log = append(c.log, ev)
}

// WriteAll appends events in order.
func (c *Channel[T]) WriteAll(evs []T) {
	c.log = append(c.log, evs...)
}

// Read returns the events written since the reader's last Read and advances its cursor.
// The returned slice aliases the log and is valid until the next Reset.
func (c *Channel[T]) Read(id ReaderID) []T {
	if int(id) < 0 || int(id) >= len(c.cursors) {
		return nil
	}
	start := c.cursors[id]
	if start > len(c.log) {
		start = len(c.log)
	}
	c.cursors[id] = len(c.log)
	return c.log[start:]
}

// All returns every event in the current log without moving any cursor.
func (c *Channel[T]) All() []T {
	return c.log
}

// Len returns the number of events in the current log.
func (c *Channel[T]) Len() int {
	return len(c.log)
}

// Reset clears the log and rewinds all cursors, keeping capacity.
func (c *Channel[T]) Reset() {
	var zero T
	for i := range c.log {
		c.log[i] = zero
	}
	c.log = c.log[:0]
	for i := range c.cursors {
		c.cursors[i] = 0
	}
}
