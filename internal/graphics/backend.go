// Package graphics provides an abstraction layer for different rendering backends
package graphics

import (
	"errors"

	"gochip8/internal/display"
	"gochip8/internal/input"

	"github.com/retroenv/retrogolib/log"
)

// ErrQuit is returned by an emulator update function to end the backend's
// run loop
var ErrQuit = errors.New("quit requested")

// Backend represents a graphics rendering backend (Ebitengine, terminal, headless)
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if running in headless mode
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering window
type Window interface {
	// SetTitle sets the window title
	SetTitle(title string)

	// GetSize returns window dimensions
	GetSize() (width, height int)

	// ShouldClose returns true if window should close
	ShouldClose() bool

	// SwapBuffers presents the rendered frame
	SwapBuffers()

	// PollEvents returns the input events collected since the last call
	PollEvents() []InputEvent

	// RenderFrame renders a 64x32 frame to the window
	RenderFrame(frame *display.Frame) error

	// Cleanup releases window resources
	Cleanup() error
}

// Runner is implemented by windows that own the main loop. The update
// function is called once per 60 Hz tick.
type Runner interface {
	SetEmulatorUpdateFunc(updateFunc func() error)
	Run() error
}

// Config contains configuration for graphics backends
type Config struct {
	// Window configuration
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool

	// Rendering configuration
	Filter  string // "nearest", "linear"
	Palette display.Palette

	// Input configuration
	KeyMap input.KeyMap

	// Backend-specific options
	Headless bool
	Debug    bool
	Logger   *log.Logger
}

// keyMap returns the configured key map or the default layout
func (c Config) keyMap() input.KeyMap {
	if len(c.KeyMap) == 0 {
		return input.DefaultKeyMap()
	}
	return c.KeyMap
}

// palette returns the configured palette or the default colors
func (c Config) palette() display.Palette {
	if c.Palette == (display.Palette{}) {
		return display.DefaultPalette()
	}
	return c.Palette
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type    InputEventType
	Key     Key   // host key for InputEventTypeKey
	Keypad  uint8 // CHIP-8 key 0x0-0xF for InputEventTypeKeypad
	Pressed bool
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeKey InputEventType = iota
	InputEventTypeKeypad
	InputEventTypeQuit
)

// Key represents host keys that are not part of the keypad layout
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyP
	KeyN
	KeyF5
	KeyF12
)

var keyNames = map[Key]string{
	KeyUnknown: "Unknown",
	KeyEscape:  "Escape",
	KeyP:       "P",
	KeyN:       "N",
	KeyF5:      "F5",
	KeyF12:     "F12",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "Unknown"
}

// hotkeyRunes maps printable host keys to hotkeys
var hotkeyRunes = map[rune]Key{
	'p': KeyP,
	'P': KeyP,
	'n': KeyN,
	'N': KeyN,
}

// keypadEvent builds a keypad press or release event
func keypadEvent(key uint8, pressed bool) InputEvent {
	return InputEvent{Type: InputEventTypeKeypad, Keypad: key, Pressed: pressed}
}

// hostKeyEvent builds a hotkey press or release event
func hostKeyEvent(key Key, pressed bool) InputEvent {
	return InputEvent{Type: InputEventTypeKey, Key: key, Pressed: pressed}
}

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine, "":
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	default:
		return nil, &BackendError{Backend: string(backendType), Err: ErrUnknownBackend}
	}
}

// ErrUnknownBackend is returned for an unsupported backend name
var ErrUnknownBackend = errors.New("unknown graphics backend")

// BackendError describes a backend failure
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return "graphics backend " + e.Backend + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// AsEbitengineWindow tries to cast a Window to EbitengineWindow
func AsEbitengineWindow(window Window) (*EbitengineWindow, bool) {
	if ebitengineWindow, ok := window.(*EbitengineWindow); ok {
		return ebitengineWindow, true
	}
	return nil, false
}

// fitScale returns the largest scale that fits the 64x32 picture into a
// window of the given size while keeping its aspect ratio, and the
// offsets that center it
func fitScale(windowWidth, windowHeight int) (scale, offsetX, offsetY float64) {
	scaleX := float64(windowWidth) / display.Width
	scaleY := float64(windowHeight) / display.Height
	scale = min(scaleX, scaleY)

	offsetX = (float64(windowWidth) - display.Width*scale) / 2
	offsetY = (float64(windowHeight) - display.Height*scale) / 2
	return scale, offsetX, offsetY
}
