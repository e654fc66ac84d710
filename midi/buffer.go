package midi

import "sort"

// Buffer is a reusable per-block event collection. It keeps its backing
// array across blocks so steady-state use never allocates: Clear resets
// the length, capacity only grows.
type Buffer struct {
	events []Event
}

// NewBuffer creates a buffer with room for n events
func NewBuffer(n int) *Buffer {
	return &Buffer{events: make([]Event, 0, n)}
}

// Clear empties the buffer, keeping capacity
func (b *Buffer) Clear() {
	b.events = b.events[:0]
}

// Add appends an event
func (b *Buffer) Add(e Event) {
	b.events = append(b.events, e)
}

// Len returns the number of events
func (b *Buffer) Len() int {
	return len(b.events)
}

// Events returns the buffered events. The slice is owned by the buffer
// and is only valid until the next Clear/Add.
func (b *Buffer) Events() []Event {
	return b.events
}

// SortByPos stable-sorts the buffer by sample position, preserving the
// relative order of events at the same position
func (b *Buffer) SortByPos() {
	sort.SliceStable(b.events, func(i, j int) bool {
		return b.events[i].Pos < b.events[j].Pos
	})
}
