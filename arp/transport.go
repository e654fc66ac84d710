package arp

import (
	"go-arp/debug"
	"go-arp/midi"
)

// Transport tracks host global state: play/stop, tempo and sample rate.
// One instance per engine, owned and passed explicitly - never shared
// across engines or threads. Callbacks fire synchronously on the caller's
// goroutine, so by the time a setter returns all consequences are visible.
type Transport struct {
	playing    bool
	bpm        float64
	sampleRate float64

	onPlayChange func(oldPlaying, newPlaying bool, out *midi.Buffer)
	onBPMChange  func(oldBPM, newBPM float64)
	onRateChange func(oldRate, newRate float64)
}

// NewTransport creates a stopped transport at 120 BPM
func NewTransport(sampleRate float64) *Transport {
	return &Transport{bpm: 120, sampleRate: sampleRate}
}

// Playing returns the current play state
func (t *Transport) Playing() bool {
	return t.playing
}

// BPM returns the current tempo
func (t *Transport) BPM() float64 {
	return t.bpm
}

// SampleRate returns the current sample rate
func (t *Transport) SampleRate() float64 {
	return t.sampleRate
}

// OnPlayChange registers the play-state handler. out in the callback is the
// current block's output buffer, so a stop transition can inject note-offs.
func (t *Transport) OnPlayChange(fn func(oldPlaying, newPlaying bool, out *midi.Buffer)) {
	t.onPlayChange = fn
}

// OnBPMChange registers the tempo handler
func (t *Transport) OnBPMChange(fn func(oldBPM, newBPM float64)) {
	t.onBPMChange = fn
}

// OnSampleRateChange registers the sample-rate handler
func (t *Transport) OnSampleRateChange(fn func(oldRate, newRate float64)) {
	t.onRateChange = fn
}

// SetPlaying updates the play state, firing the handler on a transition.
// Setting the same state twice is a no-op.
func (t *Transport) SetPlaying(playing bool, out *midi.Buffer) {
	if playing == t.playing {
		return
	}
	old := t.playing
	t.playing = playing
	debug.Log("transport", "playing %v -> %v", old, playing)
	if t.onPlayChange != nil {
		t.onPlayChange(old, playing, out)
	}
}

// SetBPM updates the tempo, firing the handler on a change
func (t *Transport) SetBPM(bpm float64) {
	if bpm == t.bpm || bpm <= 0 {
		return
	}
	old := t.bpm
	t.bpm = bpm
	if t.onBPMChange != nil {
		t.onBPMChange(old, bpm)
	}
}

// SetSampleRate updates the sample rate, firing the handler on a change
func (t *Transport) SetSampleRate(rate float64) {
	if rate == t.sampleRate || rate <= 0 {
		return
	}
	old := t.sampleRate
	t.sampleRate = rate
	if t.onRateChange != nil {
		t.onRateChange(old, rate)
	}
}
