package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gochip8/internal/cpu"
	"gochip8/internal/display"

	"github.com/retroenv/retrogolib/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	c := NewConfig()

	assert.Equal(t, 640, c.Window.Width)
	assert.Equal(t, 320, c.Window.Height)
	assert.Equal(t, 10, c.Emulation.CyclesPerFrame)
	assert.Equal(t, "ebitengine", c.Video.Backend)
	assert.Equal(t, cpu.DefaultQuirks(), c.Quirks)
	assert.NoError(t, c.validate())

	q, err := c.ResolveQuirks()
	assert.NoError(t, err)
	assert.Equal(t, cpu.DefaultQuirks(), q)
}

func TestConfig_RoundTrip(t *testing.T) {
	for _, ext := range []string{".json", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "gochip8"+ext)

			c := NewConfig()
			c.Emulation.CyclesPerFrame = 20
			c.Emulation.QuirkProfile = "chip48"
			c.Video.Palette = "amber"
			c.Input.Layout = "X123QWEASDZCRFV4"
			c.Debug.Watchpoints = []string{"0x300"}
			assert.NoError(t, c.SaveToFile(path))

			loaded := NewConfig()
			assert.NoError(t, loaded.LoadFromFile(path))
			assert.True(t, loaded.IsLoaded())
			assert.Equal(t, path, loaded.GetConfigPath())
			assert.Equal(t, 20, loaded.Emulation.CyclesPerFrame)
			assert.Equal(t, "chip48", loaded.Emulation.QuirkProfile)
			assert.Equal(t, "amber", loaded.Video.Palette)
			assert.Equal(t, "X123QWEASDZCRFV4", loaded.Input.Layout)
			assert.Equal(t, []string{"0x300"}, loaded.Debug.Watchpoints)
		})
	}
}

func TestConfig_TOMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	assert.NoError(t, NewConfig().SaveToFile(path))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "[emulation]")
	assert.Contains(t, string(data), "cycles_per_frame = 10")
	assert.Contains(t, string(data), "[quirks]")
}

func TestConfig_LoadMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	c := NewConfig()
	assert.NoError(t, c.LoadFromFile(path))
	assert.False(t, c.IsLoaded())

	_, err := os.Stat(path)
	assert.NoError(t, err, "defaults should be written")
}

func TestConfig_LoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[emulation]\ncycles_per_frame = 99999\nquirk_profile = \"custom\"\n\n[quirks]\nwrap_sprites = true\n"
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c := NewConfig()
	assert.NoError(t, c.LoadFromFile(path))
	assert.Equal(t, 10000, c.Emulation.CyclesPerFrame, "speed is clamped")

	q, err := c.ResolveQuirks()
	assert.NoError(t, err)
	assert.True(t, q.WrapSprites)
	assert.True(t, q.LogicResetsVF, "unset quirks keep their defaults")
}

func TestConfig_ValidateErrors(t *testing.T) {
	tests := []struct {
		field  string
		modify func(c *Config)
	}{
		{"window", func(c *Config) { c.Window.Width = 0 }},
		{"video.backend", func(c *Config) { c.Video.Backend = "sdl2" }},
		{"video.palette", func(c *Config) { c.Video.Palette = "rainbow" }},
		{"video.palette", func(c *Config) { c.Video.Foreground = "#12" }},
		{"input.layout", func(c *Config) { c.Input.Layout = "123" }},
		{"emulation.quirk_profile", func(c *Config) { c.Emulation.QuirkProfile = "xo-chip" }},
		{"debug.dump_format", func(c *Config) { c.Debug.DumpFormat = "gif" }},
		{"debug.watchpoints", func(c *Config) { c.Debug.Watchpoints = []string{"0x10000"} }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			c := NewConfig()
			tt.modify(c)

			err := c.validate()
			var configErr *ConfigError
			assert.True(t, errors.As(err, &configErr), "expected ConfigError, got %v", err)
			assert.Equal(t, tt.field, configErr.Field)
			assert.True(t, strings.Contains(err.Error(), tt.field))
		})
	}
}

func TestConfig_ValidateClamps(t *testing.T) {
	c := NewConfig()
	c.Video.Brightness = 10
	c.Emulation.CyclesPerFrame = -5
	c.Emulation.FrameRate = 0
	c.Debug.TraceHistory = 0

	assert.NoError(t, c.validate())
	assert.Equal(t, float32(1.0), c.Video.Brightness)
	assert.Equal(t, 10, c.Emulation.CyclesPerFrame)
	assert.Equal(t, 60.0, c.Emulation.FrameRate)
	assert.Equal(t, 32, c.Debug.TraceHistory)
}

func TestConfig_Palette(t *testing.T) {
	c := NewConfig()
	c.Video.Palette = "lcd"
	c.Video.Background = "#102030"

	p, err := c.Palette()
	assert.NoError(t, err)
	lcd, _ := display.NamedPalette("lcd")
	assert.Equal(t, lcd.Foreground, p.Foreground)
	assert.Equal(t, uint8(0x10), p.Background.R)
	assert.Equal(t, uint8(0x30), p.Background.B)
}

func TestConfig_WatchpointAddresses(t *testing.T) {
	c := NewConfig()
	c.Debug.Watchpoints = []string{"0x3F0", " 768 "}

	addrs, err := c.WatchpointAddresses()
	assert.NoError(t, err)
	assert.Equal(t, []uint16{0x3F0, 768}, addrs)
}

func TestConfig_Clone(t *testing.T) {
	c := NewConfig()
	c.Debug.Watchpoints = []string{"0x300"}

	clone := c.Clone()
	clone.Debug.Watchpoints[0] = "0x400"
	clone.Emulation.CyclesPerFrame = 1

	assert.Equal(t, "0x300", c.Debug.Watchpoints[0])
	assert.Equal(t, 10, c.Emulation.CyclesPerFrame)
}

func TestCreateLogger(t *testing.T) {
	assert.NotNil(t, CreateLogger(true, false))
	assert.NotNil(t, CreateLogger(false, true))
}
