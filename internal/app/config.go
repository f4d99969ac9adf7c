// Package app provides configuration management for the CHIP-8 interpreter.
package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gochip8/internal/bus"
	"gochip8/internal/cpu"
	"gochip8/internal/debug"
	"gochip8/internal/display"
	"gochip8/internal/input"

	"github.com/BurntSushi/toml"
	"github.com/retroenv/retrogolib/log"
)

// ProfileCustom selects the quirks given in the quirks section
const ProfileCustom = "custom"

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window" toml:"window"`
	Video     VideoConfig     `json:"video" toml:"video"`
	Input     InputConfig     `json:"input" toml:"input"`
	Emulation EmulationConfig `json:"emulation" toml:"emulation"`
	Quirks    cpu.Quirks      `json:"quirks" toml:"quirks"`
	Debug     DebugConfig     `json:"debug" toml:"debug"`
	Paths     PathsConfig     `json:"paths" toml:"paths"`

	// Internal state
	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Width      int  `json:"width" toml:"width"`
	Height     int  `json:"height" toml:"height"`
	Fullscreen bool `json:"fullscreen" toml:"fullscreen"`
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	VSync      bool    `json:"vsync" toml:"vsync"`
	Filter     string  `json:"filter" toml:"filter"`         // "nearest", "linear"
	Backend    string  `json:"backend" toml:"backend"`       // "ebitengine", "terminal", "headless"
	Palette    string  `json:"palette" toml:"palette"`       // named palette
	Foreground string  `json:"foreground" toml:"foreground"` // "#RRGGBB", overrides the palette
	Background string  `json:"background" toml:"background"` // "#RRGGBB", overrides the palette
	Brightness float32 `json:"brightness" toml:"brightness"`
	Contrast   float32 `json:"contrast" toml:"contrast"`
	Saturation float32 `json:"saturation" toml:"saturation"`
}

// InputConfig contains input configuration
type InputConfig struct {
	// Layout lists 16 host keys in keypad order 123C 456D 789E A0BF
	Layout string `json:"layout" toml:"layout"`
}

// EmulationConfig contains interpreter settings
type EmulationConfig struct {
	CyclesPerFrame int     `json:"cycles_per_frame" toml:"cycles_per_frame"` // instructions per 60 Hz frame
	FrameRate      float64 `json:"frame_rate" toml:"frame_rate"`             // target frame rate
	QuirkProfile   string  `json:"quirk_profile" toml:"quirk_profile"`       // "cosmac", "chip48" or "custom"
	Seed           uint64  `json:"seed" toml:"seed"`                         // random seed, 0 for a random one
	MaxFrames      int     `json:"max_frames" toml:"max_frames"`             // stop after N frames, 0 for no limit
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	EnableLogging bool     `json:"enable_logging" toml:"enable_logging"`
	CPUTracing    bool     `json:"cpu_tracing" toml:"cpu_tracing"`
	TraceFile     string   `json:"trace_file" toml:"trace_file"`
	TraceHistory  int      `json:"trace_history" toml:"trace_history"`
	Watchpoints   []string `json:"watchpoints" toml:"watchpoints"` // memory addresses, e.g. "0x3F0"
	DumpFrames    bool     `json:"dump_frames" toml:"dump_frames"`
	DumpFormat    string   `json:"dump_format" toml:"dump_format"` // "png", "bmp", "txt"
	DumpInterval  int      `json:"dump_interval" toml:"dump_interval"`
	MaxDumps      int      `json:"max_dumps" toml:"max_dumps"`
}

// PathsConfig contains file system paths
type PathsConfig struct {
	ROMs        string `json:"roms" toml:"roms"`
	Screenshots string `json:"screenshots" toml:"screenshots"`
	Dumps       string `json:"dumps" toml:"dumps"`
}

// NewConfig creates a configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  display.Width * 10,
			Height: display.Height * 10,
		},
		Video: VideoConfig{
			VSync:      true,
			Filter:     "nearest",
			Backend:    "ebitengine",
			Palette:    "classic",
			Brightness: 1.0,
			Contrast:   1.0,
			Saturation: 1.0,
		},
		Input: InputConfig{
			Layout: input.DefaultLayout,
		},
		Emulation: EmulationConfig{
			CyclesPerFrame: bus.DefaultCyclesPerFrame,
			FrameRate:      60.0,
			QuirkProfile:   cpu.ProfileCOSMAC,
		},
		Quirks: cpu.DefaultQuirks(),
		Debug: DebugConfig{
			TraceHistory: debug.DefaultHistorySize,
			DumpFormat:   string(debug.FormatPNG),
			DumpInterval: 60,
			MaxDumps:     10,
		},
		Paths: PathsConfig{
			ROMs:        "./roms",
			Screenshots: "./screenshots",
			Dumps:       "./dumps",
		},
	}
}

// isTOML reports whether a path selects the TOML format
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadFromFile loads configuration from a JSON or TOML file, selected by
// the file extension. A missing file is created with the current values.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, c)
	} else {
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON or TOML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = json.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// validate rejects unusable settings and clamps out-of-range values
func (c *Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return &ConfigError{
			Field: "window",
			Value: fmt.Sprintf("%dx%d", c.Window.Width, c.Window.Height),
			Err:   errors.New("invalid window dimensions"),
		}
	}

	if c.Video.Brightness < 0.1 || c.Video.Brightness > 3.0 {
		c.Video.Brightness = 1.0
	}
	if c.Video.Contrast < 0.1 || c.Video.Contrast > 3.0 {
		c.Video.Contrast = 1.0
	}
	if c.Video.Saturation < 0.0 || c.Video.Saturation > 3.0 {
		c.Video.Saturation = 1.0
	}

	switch graphicsBackendType(c.Video.Backend) {
	case "ebitengine", "terminal", "headless":
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: errors.New("unknown backend")}
	}

	if _, err := c.Palette(); err != nil {
		return &ConfigError{Field: "video.palette", Value: c.Video.Palette, Err: err}
	}

	if _, err := c.KeyMap(); err != nil {
		return &ConfigError{Field: "input.layout", Value: c.Input.Layout, Err: err}
	}

	if c.Emulation.CyclesPerFrame <= 0 {
		c.Emulation.CyclesPerFrame = bus.DefaultCyclesPerFrame
	}
	if c.Emulation.CyclesPerFrame > bus.MaxCyclesPerFrame {
		c.Emulation.CyclesPerFrame = bus.MaxCyclesPerFrame
	}
	if c.Emulation.FrameRate <= 0 {
		c.Emulation.FrameRate = 60.0
	}
	if c.Emulation.MaxFrames < 0 {
		c.Emulation.MaxFrames = 0
	}
	if _, err := c.ResolveQuirks(); err != nil {
		return &ConfigError{Field: "emulation.quirk_profile", Value: c.Emulation.QuirkProfile, Err: err}
	}

	if c.Debug.TraceHistory <= 0 {
		c.Debug.TraceHistory = debug.DefaultHistorySize
	}
	if c.Debug.DumpInterval <= 0 {
		c.Debug.DumpInterval = 60
	}
	if _, err := debug.ParseFormat(c.Debug.DumpFormat); err != nil {
		return &ConfigError{Field: "debug.dump_format", Value: c.Debug.DumpFormat, Err: err}
	}
	if _, err := c.WatchpointAddresses(); err != nil {
		return &ConfigError{Field: "debug.watchpoints", Value: c.Debug.Watchpoints, Err: err}
	}

	return nil
}

// graphicsBackendType normalizes a backend name, empty meaning ebitengine
func graphicsBackendType(name string) string {
	name = strings.ToLower(name)
	if name == "" {
		return "ebitengine"
	}
	return name
}

// ResolveQuirks returns the quirks selected by the quirk profile. The
// custom profile uses the quirks section as is.
func (c *Config) ResolveQuirks() (cpu.Quirks, error) {
	if strings.EqualFold(c.Emulation.QuirkProfile, ProfileCustom) {
		return c.Quirks, nil
	}
	return cpu.QuirksForProfile(c.Emulation.QuirkProfile)
}

// Palette returns the display colors. Explicit foreground and background
// colors override the named palette.
func (c *Config) Palette() (display.Palette, error) {
	palette := display.DefaultPalette()
	if c.Video.Palette != "" {
		named, ok := display.NamedPalette(c.Video.Palette)
		if !ok {
			return display.Palette{}, fmt.Errorf("unknown palette %q, available: %s",
				c.Video.Palette, strings.Join(display.PaletteNames(), ", "))
		}
		palette = named
	}

	if c.Video.Foreground != "" {
		fg, err := display.ParseColor(c.Video.Foreground)
		if err != nil {
			return display.Palette{}, err
		}
		palette.Foreground = fg
	}
	if c.Video.Background != "" {
		bg, err := display.ParseColor(c.Video.Background)
		if err != nil {
			return display.Palette{}, err
		}
		palette.Background = bg
	}
	return palette, nil
}

// KeyMap returns the host key mapping of the configured layout
func (c *Config) KeyMap() (input.KeyMap, error) {
	if c.Input.Layout == "" {
		return input.DefaultKeyMap(), nil
	}
	return input.ParseLayout(c.Input.Layout)
}

// WatchpointAddresses parses the configured watchpoint addresses
func (c *Config) WatchpointAddresses() ([]uint16, error) {
	addresses := make([]uint16, 0, len(c.Debug.Watchpoints))
	for _, s := range c.Debug.Watchpoints {
		addr, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
		if err != nil {
			return nil, fmt.Errorf("parsing watchpoint %q: %w", s, err)
		}
		addresses = append(addresses, uint16(addr))
	}
	return addresses, nil
}

// GetWindowResolution returns the configured window size
func (c *Config) GetWindowResolution() (int, int) {
	return c.Window.Width, c.Window.Height
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	clone.Debug.Watchpoints = append([]string(nil), c.Debug.Watchpoints...)
	return &clone
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/gochip8.toml"
}

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
