package arp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-arp/midi"
)

func newTestBridge() *Bridge {
	e := NewEngine(DefaultConfig())
	tr := NewTransport(48000)
	return NewBridge(e, tr, 480)
}

func TestBridgeFlushProcessesCapturedEvents(t *testing.T) {
	b := newTestBridge()

	// Captured as if from the input port: chord note then rhythm trigger
	b.capture(1, midi.NoteOn, 60, 100)
	b.capture(16, midi.NoteOn, 24, 110)
	b.flush()

	chord, sounding := b.Snapshot()

	assert := assert.New(t)
	assert.Len(chord, 1)
	assert.Equal(uint8(60), chord[0].Note)
	assert.Len(sounding, 1)
	assert.Equal(uint8(60), sounding[0].Note)
	assert.Equal(24, sounding[0].Owner)
}

func TestBridgeCommandsRunBetweenBlocks(t *testing.T) {
	b := newTestBridge()

	b.Do(func() {
		b.Engine().SetRootNote(36)
	})
	b.flush()

	assert.Equal(t, uint8(36), b.Engine().Config().RootNote)
}

func TestBridgeStopDrainsLedger(t *testing.T) {
	b := newTestBridge()
	b.SetPlaying(true)
	b.capture(1, midi.NoteOn, 60, 100)
	b.capture(16, midi.NoteOn, 24, 110)
	b.flush()

	_, sounding := b.Snapshot()
	assert.Len(t, sounding, 1)

	b.SetPlaying(false)
	b.flush()

	chord, sounding := b.Snapshot()
	assert.Empty(t, chord)
	assert.Empty(t, sounding)
}

func TestBridgeCapturePositionIsClamped(t *testing.T) {
	b := newTestBridge()

	// blockStart is zero here, so the computed position is far past the
	// block end and must clamp to the last sample
	b.capture(5, midi.NoteOn, 60, 100)

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Len(t, b.pending, 1)
	assert.Equal(t, int32(479), b.pending[0].Pos)
}
