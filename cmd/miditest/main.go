package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "echo":
		echoInput()
	case "chord":
		sendChord()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI test scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list           - List all MIDI ports")
	fmt.Println("  echo [name]    - Print note events from an input port")
	fmt.Println("  chord [name]   - Send a C major chord on channel 1")
}

func portArg() string {
	if len(os.Args) > 2 {
		return strings.ToLower(os.Args[2])
	}
	return ""
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: midi.GetInPorts(), outs: midi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

func findIn(name string) drivers.In {
	for _, p := range midi.GetInPorts() {
		if name == "" || strings.Contains(strings.ToLower(p.String()), name) {
			return p
		}
	}
	return nil
}

func findOut(name string) drivers.Out {
	for _, p := range midi.GetOutPorts() {
		if name == "" || strings.Contains(strings.ToLower(p.String()), name) {
			return p
		}
	}
	return nil
}

func echoInput() {
	inPort := findIn(portArg())
	if inPort == nil {
		fmt.Println("No input port found")
		return
	}
	fmt.Printf("Listening on %s (Ctrl+C to exit)\n", inPort.String())

	stop, err := midi.ListenTo(inPort, func(msg midi.Message, timestampms int32) {
		var channel, note, velocity uint8
		switch {
		case msg.GetNoteOn(&channel, &note, &velocity):
			fmt.Printf("[%6dms] ch%-2d note-on  %3d vel %3d\n", timestampms, channel+1, note, velocity)
		case msg.GetNoteOff(&channel, &note, &velocity):
			fmt.Printf("[%6dms] ch%-2d note-off %3d vel %3d\n", timestampms, channel+1, note, velocity)
		}
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}

func sendChord() {
	outPort := findOut(portArg())
	if outPort == nil {
		fmt.Println("No output port found")
		return
	}
	fmt.Printf("Sending C major to %s\n", outPort.String())

	send, err := midi.SendTo(outPort)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	notes := []uint8{60, 64, 67}
	for _, n := range notes {
		send(midi.NoteOn(0, n, 100))
	}
	time.Sleep(time.Second)
	for _, n := range notes {
		send(midi.NoteOff(0, n))
	}
	fmt.Println("Done!")
}
