package arp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-arp/midi"
)

func noteOn(ch, note, vel uint8, pos int32) midi.Event {
	return midi.Event{Channel: ch, Kind: midi.NoteOn, Note: note, Velocity: vel, Pos: pos}
}

func noteOff(ch, note uint8, pos int32) midi.Event {
	return midi.Event{Channel: ch, Kind: midi.NoteOff, Note: note, Velocity: 64, Pos: pos}
}

// buildChord runs one block that inserts the given notes on the chord channel
func buildChord(e *Engine, out *midi.Buffer, notes ...uint8) {
	var in []midi.Event
	for _, n := range notes {
		in = append(in, noteOn(1, n, 100, 0))
	}
	e.ProcessBlock(in, out)
}

func TestChordIndexMapping(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, ChordIndexFor(24, 24))
	assert.Equal(1, ChordIndexFor(25, 24))
	assert.Equal(11, ChordIndexFor(35, 24))
	assert.Equal(0, ChordIndexFor(36, 24))

	// Below the root the index must still land in [0, 12)
	assert.Equal(0, ChordIndexFor(12, 24))
	assert.Equal(11, ChordIndexFor(23, 24))
}

func TestOctaveOffsetMapping(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, OctaveOffsetFor(24, 24))
	assert.Equal(0, OctaveOffsetFor(35, 24))
	assert.Equal(12, OctaveOffsetFor(36, 24))

	// Floor division: negative offsets round toward negative infinity
	assert.Equal(-12, OctaveOffsetFor(12, 24))
	assert.Equal(-12, OctaveOffsetFor(23, 24))
	assert.Equal(-24, OctaveOffsetFor(11, 24))
}

func TestRhythmTriggerPlaysChordNote(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)

	// Root key -> chord index 0 -> note 60
	e.ProcessBlock([]midi.Event{noteOn(16, 24, 110, 5)}, out)

	assert := assert.New(t)
	assert.Equal(1, out.Len())
	ev := out.Events()[0]
	assert.Equal(uint8(2), ev.Channel)
	assert.Equal(midi.NoteOn, ev.Kind)
	assert.Equal(uint8(60), ev.Note)
	assert.Equal(uint8(100), ev.Velocity) // chord note's velocity, not the trigger's
	assert.Equal(int32(5), ev.Pos)
	assert.Equal(1, e.Ledger().Len())
}

func TestRhythmTriggerWithOctaveOffset(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)

	// Root + 12 -> chord index 0, one octave up
	e.ProcessBlock([]midi.Event{noteOn(16, 36, 110, 0)}, out)

	assert.Equal(t, uint8(72), out.Events()[0].Note)
}

func TestRhythmTriggerBelowRoot(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)

	// Root - 12 -> chord index 0, one octave down (not a negative index)
	e.ProcessBlock([]midi.Event{noteOn(16, 12, 110, 0)}, out)

	assert.Equal(t, 1, out.Len())
	assert.Equal(t, uint8(48), out.Events()[0].Note)
}

func TestEmptyChordIsSilent(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)

	e.ProcessBlock([]midi.Event{noteOn(16, 24, 110, 0)}, out)

	assert.Equal(t, 0, out.Len())
	assert.Equal(t, 0, e.Ledger().Len())
}

func TestChordIndexBeyondSizeIsSilent(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60)

	// Index 1 with a one-note chord
	e.ProcessBlock([]midi.Event{noteOn(16, 25, 110, 0)}, out)

	assert.Equal(t, 0, out.Len())
	assert.Equal(t, 0, e.Ledger().Len())
}

func TestRhythmNoteOffStopsOwnedNote(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)

	e.ProcessBlock([]midi.Event{noteOn(16, 24, 110, 0)}, out)
	e.ProcessBlock([]midi.Event{noteOff(16, 24, 30)}, out)

	assert := assert.New(t)
	assert.Equal(1, out.Len())
	ev := out.Events()[0]
	assert.Equal(midi.NoteOff, ev.Kind)
	assert.Equal(uint8(60), ev.Note)
	assert.Equal(int32(30), ev.Pos)
	assert.Equal(0, e.Ledger().Len())
}

func TestVelocityZeroNoteOnActsAsNoteOff(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)

	e.ProcessBlock([]midi.Event{noteOn(16, 24, 110, 0)}, out)
	e.ProcessBlock([]midi.Event{noteOn(16, 24, 0, 10)}, out)

	assert.Equal(t, 1, out.Len())
	assert.Equal(t, midi.NoteOff, out.Events()[0].Kind)
	assert.Equal(t, 0, e.Ledger().Len())
}

func TestRetriggerIsDeterministic(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)

	// Two note-ons for the same rhythm key, no note-off in between
	e.ProcessBlock([]midi.Event{
		noteOn(16, 24, 110, 0),
		noteOn(16, 24, 110, 0),
	}, out)

	assert := assert.New(t)
	assert.Equal(1, e.Ledger().Len())

	evs := out.Events()
	assert.Len(evs, 3)
	assert.Equal(midi.NoteOn, evs[0].Kind)
	assert.Equal(midi.NoteOff, evs[1].Kind) // first instance terminated
	assert.Equal(midi.NoteOn, evs[2].Kind)  // second instance started
	for _, ev := range evs {
		assert.Equal(int32(0), ev.Pos)
		assert.Equal(uint8(60), ev.Note)
	}
}

func TestOwnershipSurvivesChordMutation(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)

	e.ProcessBlock([]midi.Event{noteOn(16, 24, 110, 0)}, out)
	assert.Equal(t, uint8(60), out.Events()[0].Note)

	// Chord becomes [63 64 67] while the note is held
	e.ProcessBlock([]midi.Event{
		noteOff(1, 60, 0),
		noteOn(1, 63, 100, 0),
	}, out)
	assert.Equal(t, 0, out.Len())

	// Note-off must terminate what was actually started: 60, not 63
	e.ProcessBlock([]midi.Event{noteOff(16, 24, 50)}, out)

	assert := assert.New(t)
	assert.Equal(1, out.Len())
	ev := out.Events()[0]
	assert.Equal(midi.NoteOff, ev.Kind)
	assert.Equal(uint8(60), ev.Note)
	assert.Equal(int32(50), ev.Pos)
}

func TestOwnershipSurvivesChordClear(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)

	e.ProcessBlock([]midi.Event{noteOn(16, 24, 110, 0)}, out)

	// Remove the whole chord
	e.ProcessBlock([]midi.Event{
		noteOff(1, 60, 0), noteOff(1, 64, 0), noteOff(1, 67, 0),
	}, out)
	assert.True(t, e.Chord().Empty())

	e.ProcessBlock([]midi.Event{noteOff(16, 24, 0)}, out)

	assert.Equal(t, 1, out.Len())
	assert.Equal(t, uint8(60), out.Events()[0].Note)
}

func TestSameTickCausalOrdering(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)
	e.ProcessBlock([]midi.Event{noteOn(16, 24, 110, 0)}, out)

	// All at position 40, deliberately misordered: the rhythm note-on
	// arrives first in the buffer but must be interpreted last, after the
	// note-off and the chord change.
	e.ProcessBlock([]midi.Event{
		noteOn(16, 25, 110, 40),  // rhythm on, index 1
		noteOn(1, 62, 100, 40),   // chord insert -> [60 62 64 67]
		noteOff(16, 24, 40),      // rhythm off for the held note
	}, out)

	assert := assert.New(t)
	evs := out.Events()
	assert.Len(evs, 2)

	// Off first (stored ownership -> 60), then the on sees the mutated
	// chord: index 1 is now 62
	assert.Equal(midi.NoteOff, evs[0].Kind)
	assert.Equal(uint8(60), evs[0].Note)
	assert.Equal(midi.NoteOn, evs[1].Kind)
	assert.Equal(uint8(62), evs[1].Note)
}

func TestSameTickOffThenOnSameKeyReconfirms(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)
	e.ProcessBlock([]midi.Event{noteOn(16, 24, 110, 0)}, out)

	// Off and on for the same key at the identical position: the off is
	// resolved first, so the tick re-confirms the note rather than
	// flickering it - and only one owned note remains.
	e.ProcessBlock([]midi.Event{
		noteOn(16, 24, 110, 20),
		noteOff(16, 24, 20),
	}, out)

	assert := assert.New(t)
	evs := out.Events()
	assert.Len(evs, 2)
	assert.Equal(midi.NoteOff, evs[0].Kind)
	assert.Equal(midi.NoteOn, evs[1].Kind)
	assert.Equal(1, e.Ledger().Len())
}

func TestTransportStopDrainsEverything(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)

	e.ProcessBlock([]midi.Event{
		noteOn(16, 24, 110, 0),
		noteOn(16, 25, 110, 0),
	}, out)
	assert.Equal(t, 2, e.Ledger().Len())

	e.PlayStateChanged(true, false, out)

	assert := assert.New(t)
	assert.Equal(2, out.Len())
	for _, ev := range out.Events() {
		assert.Equal(midi.NoteOff, ev.Kind)
		assert.Equal(int32(0), ev.Pos)
	}
	assert.Equal(0, e.Ledger().Len())
	assert.True(e.Chord().Empty())
}

func TestTransportStartIsNoOp(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)
	e.ProcessBlock([]midi.Event{noteOn(16, 24, 110, 0)}, out)

	e.PlayStateChanged(false, true, out)

	// Stop->play keeps state and the buffer untouched
	assert.Equal(t, 1, out.Len())
	assert.Equal(t, 1, e.Ledger().Len())
	assert.False(t, e.Chord().Empty())
}

func TestPassThroughPreservesUnroutedChannels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PassThrough = true
	e := NewEngine(cfg)
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)

	e.ProcessBlock([]midi.Event{
		noteOn(5, 90, 70, 30),   // unrouted channel: survives verbatim
		noteOn(16, 24, 110, 10), // rhythm: consumed, replaced by output
		noteOn(2, 55, 80, 0),    // output channel input: always dropped
	}, out)

	assert := assert.New(t)
	evs := out.Events()
	assert.Len(evs, 2)

	// Merged buffer is ordered by position
	assert.Equal(uint8(2), evs[0].Channel)
	assert.Equal(uint8(60), evs[0].Note)
	assert.Equal(int32(10), evs[0].Pos)

	assert.Equal(uint8(5), evs[1].Channel)
	assert.Equal(uint8(90), evs[1].Note)
	assert.Equal(uint8(70), evs[1].Velocity)
	assert.Equal(int32(30), evs[1].Pos)
}

func TestReplaceModeDropsAllInput(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)

	e.ProcessBlock([]midi.Event{noteOn(5, 90, 70, 30)}, out)

	assert.Equal(t, 0, out.Len())
}

func TestCustomRouting(t *testing.T) {
	e := NewEngine(Config{
		ChordChannel:  3,
		RhythmChannel: 4,
		OutputChannel: 5,
		RootNote:      36,
	})
	out := midi.NewBuffer(16)

	e.ProcessBlock([]midi.Event{noteOn(3, 60, 100, 0)}, out)
	e.ProcessBlock([]midi.Event{noteOn(4, 36, 110, 0)}, out)

	assert := assert.New(t)
	assert.Equal(1, out.Len())
	assert.Equal(uint8(5), out.Events()[0].Channel)
	assert.Equal(uint8(60), out.Events()[0].Note)
}

func TestIndexedStartStop(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)
	buildChord(e, out, 60, 64, 67)

	out.Clear()
	note, ok := e.StartIndexed(1, 12, out)

	assert := assert.New(t)
	assert.True(ok)
	assert.Equal(uint8(76), note)
	assert.Equal(1, out.Len())
	assert.Equal(midi.NoteOn, out.Events()[0].Kind)

	out.Clear()
	stopped := e.StopIndexed(1, 12, out)
	assert.Equal(1, stopped)
	assert.Equal(midi.NoteOff, out.Events()[0].Kind)
	assert.Equal(uint8(76), out.Events()[0].Note)
	assert.Equal(0, e.Ledger().Len())
}

func TestIndexedStartOnMissingSlot(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := midi.NewBuffer(16)

	_, ok := e.StartIndexed(0, 0, out)

	assert.False(t, ok)
	assert.Equal(t, 0, out.Len())
}
