package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// RoutingConfig defines the three MIDI channels the engine routes between
type RoutingConfig struct {
	ChordChannel  uint8 `json:"chordChannel"`
	RhythmChannel uint8 `json:"rhythmChannel"`
	OutputChannel uint8 `json:"outputChannel"`
	RootNote      uint8 `json:"rootNote"`
	PassThrough   bool  `json:"passThrough,omitempty"`
}

// PortsConfig names the MIDI ports to connect to (substring match,
// empty = first available)
type PortsConfig struct {
	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`
}

// ClockConfig sets the block timing
type ClockConfig struct {
	SampleRate float64 `json:"sampleRate"`
	BlockSize  int32   `json:"blockSize"`
}

// Config is the main configuration structure
type Config struct {
	Routing RoutingConfig `json:"routing"`
	Ports   PortsConfig   `json:"ports,omitempty"`
	Clock   ClockConfig   `json:"clock"`
}

// DefaultConfig returns a config with the standard routing: chord input on
// channel 1, rhythm on 16, output on 2, root at C1
func DefaultConfig() *Config {
	return &Config{
		Routing: RoutingConfig{
			ChordChannel:  1,
			RhythmChannel: 16,
			OutputChannel: 2,
			RootNote:      24,
		},
		Clock: ClockConfig{
			SampleRate: 48000,
			BlockSize:  480, // 10ms blocks
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-arp"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	return &cfg, nil
}

// fillDefaults patches zero values left by a partial config file
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Routing.ChordChannel == 0 {
		c.Routing.ChordChannel = def.Routing.ChordChannel
	}
	if c.Routing.RhythmChannel == 0 {
		c.Routing.RhythmChannel = def.Routing.RhythmChannel
	}
	if c.Routing.OutputChannel == 0 {
		c.Routing.OutputChannel = def.Routing.OutputChannel
	}
	if c.Clock.SampleRate == 0 {
		c.Clock.SampleRate = def.Clock.SampleRate
	}
	if c.Clock.BlockSize == 0 {
		c.Clock.BlockSize = def.Clock.BlockSize
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
