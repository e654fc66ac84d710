package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"go-arp/arp"
	"go-arp/config"
	"go-arp/debug"
	"go-arp/midi"
	"go-arp/theme"
	"go-arp/tui"
)

func main() {
	if os.Getenv("GO_ARP_DEBUG") != "" {
		if err := debug.Enable(); err != nil {
			fmt.Printf("debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config: %v\n", err)
		os.Exit(1)
	}

	engine := arp.NewEngine(arp.Config{
		ChordChannel:  cfg.Routing.ChordChannel,
		RhythmChannel: cfg.Routing.RhythmChannel,
		OutputChannel: cfg.Routing.OutputChannel,
		RootNote:      cfg.Routing.RootNote,
		PassThrough:   cfg.Routing.PassThrough,
	})
	transport := arp.NewTransport(cfg.Clock.SampleRate)
	bridge := arp.NewBridge(engine, transport, cfg.Clock.BlockSize)

	// Connect MIDI ports (either may be missing - the monitor still works)
	ports, err := midi.ScanPorts()
	if err != nil {
		fmt.Printf("midi: %v\n", err)
	}
	in := ports.FindIn(cfg.Ports.Input)
	out := ports.FindOut(cfg.Ports.Output)
	if err := bridge.Connect(in, out); err != nil {
		fmt.Printf("midi: %v\n", err)
		os.Exit(1)
	}
	if in == nil {
		fmt.Println("no MIDI input found - running without live input")
	}
	if out == nil {
		fmt.Println("no MIDI output found - running silent")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bridge.Run(ctx)

	th := theme.New(theme.DefaultPalette())
	m := tui.NewModel(bridge, th)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
