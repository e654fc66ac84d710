package arp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-arp/debug"
	"go-arp/midi"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Bridge feeds the engine from a live MIDI input. Incoming note events are
// timestamped into sample positions within the current block; a ticker
// flushes one block at a time through the engine and sends the output to
// the MIDI out port.
//
// The engine itself is lock-free: only the flush goroutine ever touches it.
// The gomidi listener callback just appends to a mutex-guarded pending
// list, and configuration changes from the TUI are queued as commands that
// run between blocks on the flush goroutine.
type Bridge struct {
	engine    *Engine
	transport *Transport

	blockSize int32

	send       func(gomidi.Message) error
	stopListen func()

	mu         sync.Mutex
	pending    []midi.Event
	blockStart time.Time
	sampleRate float64

	in   []midi.Event // swap target for pending
	out  *midi.Buffer
	cmds chan func()

	// Display snapshot, updated after every block
	snapMu      sync.RWMutex
	snapChord   []ChordNote
	snapPlaying []PlayingNote

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewBridge wires an engine and transport to a block clock
func NewBridge(engine *Engine, transport *Transport, blockSize int32) *Bridge {
	b := &Bridge{
		engine:     engine,
		transport:  transport,
		blockSize:  blockSize,
		sampleRate: transport.SampleRate(),
		pending:    make([]midi.Event, 0, 64),
		in:         make([]midi.Event, 0, 64),
		out:        midi.NewBuffer(64),
		cmds:       make(chan func(), 16),
		UpdateChan: make(chan struct{}, 1),
	}
	transport.OnPlayChange(engine.PlayStateChanged)
	transport.OnSampleRateChange(func(_, rate float64) {
		b.mu.Lock()
		b.sampleRate = rate
		b.mu.Unlock()
	})
	return b
}

// Connect opens the MIDI ports. Either port may be nil (input-less or
// output-less operation, useful for the monitor and tests).
func (b *Bridge) Connect(in drivers.In, out drivers.Out) error {
	if out != nil {
		send, err := midi.OpenSender(out)
		if err != nil {
			return err
		}
		b.send = send
	}

	if in != nil {
		stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
			var channel, note, velocity uint8
			switch {
			case msg.GetNoteOn(&channel, &note, &velocity):
				b.capture(channel+1, midi.NoteOn, note, velocity)
			case msg.GetNoteOff(&channel, &note, &velocity):
				b.capture(channel+1, midi.NoteOff, note, velocity)
			}
		})
		if err != nil {
			return fmt.Errorf("open input %s: %w", in.String(), err)
		}
		b.stopListen = stop
	}

	return nil
}

// capture stamps an incoming event with its sample position in the
// current block and queues it for the next flush
func (b *Bridge) capture(channel, kind, note, velocity uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos := int32(time.Since(b.blockStart).Seconds() * b.sampleRate)
	if pos < 0 {
		pos = 0
	}
	if pos >= b.blockSize {
		pos = b.blockSize - 1
	}
	b.pending = append(b.pending, midi.Event{
		Channel:  channel,
		Kind:     kind,
		Note:     note,
		Velocity: velocity,
		Pos:      pos,
	})
}

// Run drives the block clock until ctx is done (blocking - run in goroutine)
func (b *Bridge) Run(ctx context.Context) {
	blockDur := time.Duration(float64(b.blockSize) / b.transport.SampleRate() * float64(time.Second))
	ticker := time.NewTicker(blockDur)
	defer ticker.Stop()

	b.mu.Lock()
	b.blockStart = time.Now()
	b.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			b.shutdown()
			return
		case <-ticker.C:
			b.flush()
		}
	}
}

// Do queues a command to run between blocks on the flush goroutine.
// This is how the TUI mutates engine config and transport state without
// touching the engine mid-block.
func (b *Bridge) Do(fn func()) {
	b.cmds <- fn
}

// SetPlaying queues a transport play-state change. A stop transition drains
// the ledger into note-offs, which are sent before the next block.
func (b *Bridge) SetPlaying(playing bool) {
	b.Do(func() {
		b.transport.SetPlaying(playing, b.out)
	})
}

// Engine returns the engine. Only safe to touch through Do.
func (b *Bridge) Engine() *Engine {
	return b.engine
}

// Transport returns the transport. Only safe to mutate through Do.
func (b *Bridge) Transport() *Transport {
	return b.transport
}

// Out returns the current block's output buffer, for commands that emit
// events directly (audition). Only safe to touch through Do.
func (b *Bridge) Out() *midi.Buffer {
	return b.out
}

// flush processes one block: run queued commands, send anything they
// emitted (transport-stop note-offs), then run the engine over the
// captured input and send its output.
func (b *Bridge) flush() {
drain:
	for {
		select {
		case fn := <-b.cmds:
			fn()
		default:
			break drain
		}
	}
	if b.out.Len() > 0 {
		b.sendBuffer()
	}

	b.mu.Lock()
	b.in, b.pending = b.pending, b.in[:0]
	b.blockStart = time.Now()
	b.mu.Unlock()

	b.engine.ProcessBlock(b.in, b.out)
	b.sendBuffer()
	b.publish()
}

// sendBuffer dispatches the output buffer to the out port in order
func (b *Bridge) sendBuffer() {
	if b.send != nil {
		for _, ev := range b.out.Events() {
			ch := ev.Channel - 1 // gomidi channels are 0-15
			switch {
			case ev.Kind == midi.NoteOn && ev.Velocity > 0:
				b.send(gomidi.NoteOn(ch, ev.Note, ev.Velocity))
			default:
				b.send(gomidi.NoteOff(ch, ev.Note))
			}
		}
		if b.out.Len() > 0 {
			debug.LogEvery(32, "dispatch", "sent %d events", b.out.Len())
		}
	}
	b.out.Clear()
}

// publish refreshes the display snapshot and pokes the TUI
func (b *Bridge) publish() {
	b.snapMu.Lock()
	b.snapChord = b.engine.Chord().AppendNotes(b.snapChord[:0])
	b.snapPlaying = b.engine.Ledger().AppendPlaying(b.snapPlaying[:0])
	b.snapMu.Unlock()

	select {
	case b.UpdateChan <- struct{}{}:
	default:
	}
}

// Snapshot returns display copies of the chord and the sounding notes
func (b *Bridge) Snapshot() (chord []ChordNote, playing []PlayingNote) {
	b.snapMu.RLock()
	defer b.snapMu.RUnlock()
	chord = append(chord, b.snapChord...)
	playing = append(playing, b.snapPlaying...)
	return chord, playing
}

func (b *Bridge) shutdown() {
	if b.stopListen != nil {
		b.stopListen()
	}
	// Silence anything still sounding
	b.transport.SetPlaying(false, b.out)
	b.sendBuffer()
}
