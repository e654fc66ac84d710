package midi

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// Event represents one note event inside an audio block
type Event struct {
	Channel  uint8 // MIDI channel (1-16)
	Kind     uint8 // NoteOn, NoteOff
	Note     uint8
	Velocity uint8
	Pos      int32 // sample offset within the block
}

// IsNoteOffLike reports whether the event releases a note.
// A NoteOn with velocity 0 is the standard alternate encoding of note-off.
func (e Event) IsNoteOffLike() bool {
	return e.Kind == NoteOff || (e.Kind == NoteOn && e.Velocity == 0)
}

// IsNoteOn reports a true note-on (velocity > 0)
func (e Event) IsNoteOn() bool {
	return e.Kind == NoteOn && e.Velocity > 0
}
