package midi

import (
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Ports is a snapshot of the available MIDI ports
type Ports struct {
	Ins  []drivers.In
	Outs []drivers.Out
}

// ScanPorts lists the available ports with a timeout (CoreMIDI can hang)
func ScanPorts() (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		ch <- Ports{Ins: gomidi.GetInPorts(), Outs: gomidi.GetOutPorts()}
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-time.After(3 * time.Second):
		// User needs to run: sudo killall coreaudiod midiserver
		return Ports{}, fmt.Errorf("timed out listing MIDI ports")
	}
}

// FindIn returns the first input port whose name contains the given
// substring (case-insensitive), or nil if none matches. An empty name
// returns the first available port.
func (p Ports) FindIn(name string) drivers.In {
	for i, port := range p.Ins {
		if name == "" || containsFold(port.String(), name) {
			return p.Ins[i]
		}
	}
	return nil
}

// FindOut is the output-port counterpart of FindIn
func (p Ports) FindOut(name string) drivers.Out {
	for i, port := range p.Outs {
		if name == "" || containsFold(port.String(), name) {
			return p.Outs[i]
		}
	}
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// OpenSender opens an output port and returns a send function
func OpenSender(port drivers.Out) (func(gomidi.Message) error, error) {
	sender, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", port.String(), err)
	}
	return sender, nil
}
