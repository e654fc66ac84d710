package arp

import "sort"

// ChordNote is one note currently defined as part of the chord
type ChordNote struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// ChordTable holds the current chord membership, sorted ascending by note
// number. Duplicate note numbers are allowed and kept as separate entries.
// Index positions are not stable identifiers - they shift as notes come and
// go, and are recomputed fresh each time they're needed.
//
// No locking: the table is only touched from the engine's block processing.
type ChordTable struct {
	notes []ChordNote
}

// Len returns the number of notes in the chord
func (c *ChordTable) Len() int {
	return len(c.notes)
}

// Empty reports whether the chord has no notes
func (c *ChordTable) Empty() bool {
	return len(c.notes) == 0
}

// Insert adds a note and re-sorts the chord ascending by note number.
// Never deduplicates: inserting the same note twice keeps both entries.
func (c *ChordTable) Insert(note, velocity, channel uint8) {
	c.notes = append(c.notes, ChordNote{Note: note, Velocity: velocity, Channel: channel})
	sort.SliceStable(c.notes, func(i, j int) bool {
		return c.notes[i].Note < c.notes[j].Note
	})
}

// RemoveFirst removes the first entry with the given note number and
// reports whether a removal occurred. With duplicates present, only one
// entry is removed per call.
func (c *ChordTable) RemoveFirst(note uint8) bool {
	for i := range c.notes {
		if c.notes[i].Note == note {
			c.notes = append(c.notes[:i], c.notes[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the chord
func (c *ChordTable) Clear() {
	c.notes = c.notes[:0]
}

// ByIndex returns the entry at the given 0-based position.
// ok is false for any index outside [0, Len).
func (c *ChordTable) ByIndex(index int) (note ChordNote, ok bool) {
	if index < 0 || index >= len(c.notes) {
		return ChordNote{}, false
	}
	return c.notes[index], true
}

// AppendNotes copies the current chord into dst (for display snapshots)
func (c *ChordTable) AppendNotes(dst []ChordNote) []ChordNote {
	return append(dst, c.notes...)
}
