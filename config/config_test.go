package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(uint8(1), cfg.Routing.ChordChannel)
	assert.Equal(uint8(16), cfg.Routing.RhythmChannel)
	assert.Equal(uint8(2), cfg.Routing.OutputChannel)
	assert.Equal(uint8(24), cfg.Routing.RootNote)
	assert.False(cfg.Routing.PassThrough)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Routing.RootNote = 36
	cfg.Routing.PassThrough = true
	cfg.Ports.Input = "arturia"

	assert := assert.New(t)
	assert.NoError(cfg.Save())

	loaded, err := Load()
	assert.NoError(err)
	assert.Equal(cfg, loaded)
}

func TestPartialConfigGetsDefaultsFilled(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "go-arp")
	assert.NoError(t, os.MkdirAll(dir, 0755))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"routing":{"rootNote":48}}`), 0644))

	cfg, err := Load()

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(uint8(48), cfg.Routing.RootNote)
	assert.Equal(uint8(1), cfg.Routing.ChordChannel)
	assert.Equal(uint8(16), cfg.Routing.RhythmChannel)
	assert.Equal(48000.0, cfg.Clock.SampleRate)
	assert.Equal(int32(480), cfg.Clock.BlockSize)
}
