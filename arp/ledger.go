package arp

import "go-arp/midi"

// NoOwner marks a playing note that was started by index rather than by a
// rhythm trigger (TUI audition)
const NoOwner = -1

// PlayingNote is one note currently sounding on the output channel.
// Owner is the rhythm-trigger note number that caused it, and is the sole
// lookup key for stopping the note later: it stays valid no matter how the
// chord changes in the meantime. ChordIndex and OctaveOffset are snapshots
// from trigger time, kept for diagnostics only.
type PlayingNote struct {
	Note         uint8
	Velocity     uint8
	Channel      uint8
	ChordIndex   int
	OctaveOffset int
	Owner        int
}

// Ledger tracks which output notes are currently sounding and which rhythm
// key owns each. Same single-threaded access discipline as ChordTable.
type Ledger struct {
	playing []PlayingNote
	stopped []PlayingNote // scratch reused by Stop/StopAll/StopIndexed
}

// Len returns the number of notes currently sounding
func (l *Ledger) Len() int {
	return len(l.playing)
}

// Start unconditionally appends a new playing note. Callers are responsible
// for stopping any prior entry with the same owner first - the ledger
// performs no deduplication.
func (l *Ledger) Start(owner int, note, velocity, channel uint8, chordIndex, octaveOffset int) {
	l.playing = append(l.playing, PlayingNote{
		Note:         note,
		Velocity:     velocity,
		Channel:      channel,
		ChordIndex:   chordIndex,
		OctaveOffset: octaveOffset,
		Owner:        owner,
	})
}

// Stop removes and returns every entry owned by the given rhythm key, in
// original relative order. An unknown owner returns an empty slice - not
// an error. The returned slice is scratch owned by the ledger and is only
// valid until the next Stop/StopAll/StopIndexed call.
func (l *Ledger) Stop(owner int) []PlayingNote {
	return l.remove(func(pn PlayingNote) bool {
		return pn.Owner == owner
	})
}

// StopIndexed removes and returns every entry that was started with the
// given chord index and octave offset, independent of the current chord
// state. Used by index-based triggering (audition).
func (l *Ledger) StopIndexed(chordIndex, octaveOffset int) []PlayingNote {
	return l.remove(func(pn PlayingNote) bool {
		return pn.ChordIndex == chordIndex && pn.OctaveOffset == octaveOffset
	})
}

// StopAll drains and returns every entry
func (l *Ledger) StopAll() []PlayingNote {
	return l.remove(func(PlayingNote) bool { return true })
}

// remove partitions in place: matches go to the stopped scratch, the rest
// stay in playing. No allocation once capacities have grown.
func (l *Ledger) remove(match func(PlayingNote) bool) []PlayingNote {
	l.stopped = l.stopped[:0]
	kept := l.playing[:0]
	for _, pn := range l.playing {
		if match(pn) {
			l.stopped = append(l.stopped, pn)
		} else {
			kept = append(kept, pn)
		}
	}
	l.playing = kept
	return l.stopped
}

// AppendNoteOffs writes a note-off at sample position 0 for every currently
// sounding note into out, without mutating the ledger. Used to silence
// everything when the host transport stops.
func (l *Ledger) AppendNoteOffs(channel uint8, out *midi.Buffer) {
	for _, pn := range l.playing {
		out.Add(midi.Event{
			Channel:  channel,
			Kind:     midi.NoteOff,
			Note:     pn.Note,
			Velocity: pn.Velocity,
			Pos:      0,
		})
	}
}

// AppendPlaying copies the current entries into dst (for display snapshots)
func (l *Ledger) AppendPlaying(dst []PlayingNote) []PlayingNote {
	return append(dst, l.playing...)
}
