package graphics

import (
	"errors"

	"gochip8/internal/display"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow implements the Window interface for headless operation.
// It keeps the last rendered frame and accepts scripted input events.
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	running    bool
	frameCount int
	lastFrame  display.Frame
	pending    []InputEvent
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return errors.New("headless backend already initialized")
	}

	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a headless "window" (no actual window)
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, errors.New("backend not initialized")
	}

	return &HeadlessWindow{
		title:   title,
		width:   width,
		height:  height,
		running: true,
	}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// Title returns the current window title
func (w *HeadlessWindow) Title() string {
	return w.title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers does nothing in headless mode
func (w *HeadlessWindow) SwapBuffers() {}

// PollEvents returns the events queued with Inject
func (w *HeadlessWindow) PollEvents() []InputEvent {
	events := w.pending
	w.pending = nil
	return events
}

// Inject queues input events for the next PollEvents call
func (w *HeadlessWindow) Inject(events ...InputEvent) {
	w.pending = append(w.pending, events...)
}

// RenderFrame records the frame
func (w *HeadlessWindow) RenderFrame(frame *display.Frame) error {
	if frame == nil {
		return errors.New("nil frame")
	}
	w.frameCount++
	w.lastFrame = *frame
	return nil
}

// LastFrame returns the most recently rendered frame
func (w *HeadlessWindow) LastFrame() display.Frame {
	return w.lastFrame
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// GetFrameCount returns the number of rendered frames
func (w *HeadlessWindow) GetFrameCount() int {
	return w.frameCount
}
