package arp

import (
	"sort"

	"go-arp/debug"
	"go-arp/midi"
)

// Default routing: chord input on channel 1, rhythm triggers on channel 16,
// output on channel 2, rhythm root at C1
const (
	DefaultChordChannel  uint8 = 1
	DefaultRhythmChannel uint8 = 16
	DefaultOutputChannel uint8 = 2
	DefaultRootNote      uint8 = 24
)

// Config is the engine's routing configuration. Fixed per instance,
// mutable only between blocks - never mid-block.
type Config struct {
	ChordChannel  uint8
	RhythmChannel uint8
	OutputChannel uint8
	RootNote      uint8
	PassThrough   bool // preserve events from unrouted channels
}

// DefaultConfig returns the standard channel routing
func DefaultConfig() Config {
	return Config{
		ChordChannel:  DefaultChordChannel,
		RhythmChannel: DefaultRhythmChannel,
		OutputChannel: DefaultOutputChannel,
		RootNote:      DefaultRootNote,
	}
}

// Engine turns chord input and rhythm triggers into output notes, one block
// at a time. It holds no state beyond the chord table and the ledger: a
// block's output depends only on the block's events plus what those two
// collections carried over from prior blocks.
//
// Single-threaded: exactly one caller invokes ProcessBlock / PlayStateChanged
// at a time. Scratch buffers are reused across blocks so steady-state
// processing does not allocate.
type Engine struct {
	cfg    Config
	chord  ChordTable
	ledger Ledger

	scratch   []midi.Event // block snapshot, sorted causally
	generated []midi.Event // output events produced this block
}

// NewEngine creates an engine with the given configuration
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:       cfg,
		scratch:   make([]midi.Event, 0, 64),
		generated: make([]midi.Event, 0, 64),
	}
}

// Config returns the current configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// SetRootNote changes the rhythm root note (between blocks only)
func (e *Engine) SetRootNote(root uint8) {
	e.cfg.RootNote = root
}

// SetPassThrough toggles pass-through of unrouted channels (between blocks only)
func (e *Engine) SetPassThrough(on bool) {
	e.cfg.PassThrough = on
}

// Chord exposes the chord table (engine thread only)
func (e *Engine) Chord() *ChordTable {
	return &e.chord
}

// Ledger exposes the ownership ledger (engine thread only)
func (e *Engine) Ledger() *Ledger {
	return &e.ledger
}

// ChordIndexFor maps a rhythm note to a chord index in [0, 12), correct
// even for rhythm notes below the root
func ChordIndexFor(rhythmNote, rootNote int) int {
	m := (rhythmNote - rootNote) % 12
	if m < 0 {
		m += 12
	}
	return m
}

// OctaveOffsetFor returns the octave offset in semitones for a rhythm note,
// using floor division so negative offsets round toward negative infinity
func OctaveOffsetFor(rhythmNote, rootNote int) int {
	rel := rhythmNote - rootNote
	div := rel / 12
	if rel%12 != 0 && rel < 0 {
		div--
	}
	return div * 12
}

// phase is the tie-break for events at the same sample position:
// rhythm note-offs resolve before chord updates, chord updates before
// rhythm note-ons. This is what keeps processing time-causal when the host
// hands us events sorted by channel rather than by time.
func (e *Engine) phase(ev midi.Event) int {
	if ev.Channel == e.cfg.RhythmChannel {
		if ev.IsNoteOffLike() {
			return 0
		}
		if ev.Kind == midi.NoteOn {
			return 2
		}
	}
	if ev.Channel == e.cfg.ChordChannel {
		if ev.Kind == midi.NoteOn || ev.IsNoteOffLike() {
			return 1
		}
	}
	return 3
}

// ProcessBlock consumes one block of input events and fills out with the
// block's output. The input slice is not modified. out is cleared first;
// with PassThrough set, events from unrouted channels survive verbatim at
// their original positions, and events on the three routed channels never do.
func (e *Engine) ProcessBlock(in []midi.Event, out *midi.Buffer) {
	e.scratch = append(e.scratch[:0], in...)

	// Stable lexicographic ordering: (sample position, phase)
	sort.SliceStable(e.scratch, func(i, j int) bool {
		a, b := e.scratch[i], e.scratch[j]
		if a.Pos != b.Pos {
			return a.Pos < b.Pos
		}
		return e.phase(a) < e.phase(b)
	})

	e.generated = e.generated[:0]
	for _, ev := range e.scratch {
		switch ev.Channel {
		case e.cfg.RhythmChannel:
			if ev.IsNoteOffLike() {
				e.stopOwned(ev.Pos, int(ev.Note))
			} else if ev.Kind == midi.NoteOn {
				e.startOwned(ev.Pos, int(ev.Note))
			}
		case e.cfg.ChordChannel:
			if ev.IsNoteOn() {
				e.chord.Insert(ev.Note, ev.Velocity, ev.Channel)
			} else if ev.IsNoteOffLike() {
				e.chord.RemoveFirst(ev.Note)
			}
		}
	}

	out.Clear()
	if e.cfg.PassThrough {
		for _, ev := range in {
			if ev.Channel != e.cfg.ChordChannel &&
				ev.Channel != e.cfg.RhythmChannel &&
				ev.Channel != e.cfg.OutputChannel {
				out.Add(ev)
			}
		}
		for _, ev := range e.generated {
			out.Add(ev)
		}
		// Re-establish position order across preserved + generated.
		// Stable, so generated events keep their causal order within a tick.
		out.SortByPos()
	} else {
		for _, ev := range e.generated {
			out.Add(ev)
		}
	}
}

// stopOwned stops every note owned by the rhythm key and emits matching
// note-offs. The note-off uses what was actually turned on, not the current
// chord, so chord changes can never strand a sounding note.
func (e *Engine) stopOwned(pos int32, owner int) {
	for _, stopped := range e.ledger.Stop(owner) {
		e.generated = append(e.generated, midi.Event{
			Channel:  e.cfg.OutputChannel,
			Kind:     midi.NoteOff,
			Note:     stopped.Note,
			Velocity: stopped.Velocity,
			Pos:      pos,
		})
	}
}

// startOwned handles a rhythm note-on: retriggers stop the previous owned
// note first, then the chord is resolved and the new note recorded and
// emitted at the event's own position - no timestamp shifting.
func (e *Engine) startOwned(pos int32, owner int) {
	e.stopOwned(pos, owner)

	chordIndex := ChordIndexFor(owner, int(e.cfg.RootNote))
	octaveOffset := OctaveOffsetFor(owner, int(e.cfg.RootNote))

	cn, ok := e.chord.ByIndex(chordIndex)
	if !ok {
		// Chord empty or too small for this index: silence, not an error
		return
	}

	actual := int(cn.Note) + octaveOffset
	if actual < 0 || actual > 127 {
		return
	}

	e.ledger.Start(owner, uint8(actual), cn.Velocity, e.cfg.OutputChannel, chordIndex, octaveOffset)
	e.generated = append(e.generated, midi.Event{
		Channel:  e.cfg.OutputChannel,
		Kind:     midi.NoteOn,
		Note:     uint8(actual),
		Velocity: cn.Velocity,
		Pos:      pos,
	})
}

// StartIndexed starts a note by chord index + octave offset, bypassing the
// rhythm mapping (TUI audition). Returns the actual note and whether the
// index resolved.
func (e *Engine) StartIndexed(chordIndex, octaveOffset int, out *midi.Buffer) (uint8, bool) {
	cn, ok := e.chord.ByIndex(chordIndex)
	if !ok {
		return 0, false
	}
	actual := int(cn.Note) + octaveOffset
	if actual < 0 || actual > 127 {
		return 0, false
	}
	e.ledger.Start(NoOwner, uint8(actual), cn.Velocity, e.cfg.OutputChannel, chordIndex, octaveOffset)
	out.Add(midi.Event{
		Channel:  e.cfg.OutputChannel,
		Kind:     midi.NoteOn,
		Note:     uint8(actual),
		Velocity: cn.Velocity,
		Pos:      0,
	})
	return uint8(actual), true
}

// StopIndexed stops notes started with StartIndexed, emitting matching
// note-offs. Independent of the current chord state.
func (e *Engine) StopIndexed(chordIndex, octaveOffset int, out *midi.Buffer) int {
	stopped := e.ledger.StopIndexed(chordIndex, octaveOffset)
	for _, pn := range stopped {
		out.Add(midi.Event{
			Channel:  e.cfg.OutputChannel,
			Kind:     midi.NoteOff,
			Note:     pn.Note,
			Velocity: pn.Velocity,
			Pos:      0,
		})
	}
	return len(stopped)
}

// PlayStateChanged reacts to a host transport transition. On play->stop the
// output buffer is replaced with note-offs for everything still sounding,
// at sample position 0, and both the ledger and the chord are cleared.
// Every other transition is a no-op.
func (e *Engine) PlayStateChanged(oldPlaying, newPlaying bool, out *midi.Buffer) {
	if !oldPlaying || newPlaying {
		return
	}

	out.Clear()
	e.ledger.AppendNoteOffs(e.cfg.OutputChannel, out)
	debug.Log("engine", "transport stopped: %d note-offs, chord cleared", out.Len())
	e.ledger.StopAll()
	e.chord.Clear()
}
