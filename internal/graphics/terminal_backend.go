package graphics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gochip8/internal/display"
	"gochip8/internal/input"

	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"
)

// terminalHoldFrames is the number of polls a keypad key stays pressed
// after its last byte arrived. Terminals report no key releases, so
// releases are synthesized once the key stops repeating.
const terminalHoldFrames = 10

// ANSI control sequences
const (
	ansiClear      = "\x1b[2J"
	ansiHome       = "\x1b[H"
	ansiHideCursor = "\x1b[?25l"
	ansiShowCursor = "\x1b[?25h"
)

// TerminalBackend implements the Backend interface for terminal-based rendering
type TerminalBackend struct {
	initialized bool
	config      Config
	in          io.Reader
	out         io.Writer
}

// TerminalWindow renders frames with Unicode half blocks, two pixel rows
// per text line, and reads keys from a raw mode terminal.
type TerminalWindow struct {
	title   string
	width   int
	height  int
	running bool

	out    *bufio.Writer
	in     io.Reader
	keyMap input.KeyMap
	logger *log.Logger

	mu      sync.Mutex
	pending []InputEvent // filled by the reader goroutine

	held map[uint8]int // keypad key -> remaining polls

	lastFrame display.Frame
	rendered  bool

	fd       int
	oldState *term.State
	stopCh   chan struct{}
	stopped  sync.Once
}

// NewTerminalBackend creates a new terminal graphics backend using the
// process standard streams
func NewTerminalBackend() Backend {
	return &TerminalBackend{in: os.Stdin, out: os.Stdout}
}

// NewTerminalBackendWithStreams creates a terminal backend reading keys
// from in and rendering to out
func NewTerminalBackendWithStreams(in io.Reader, out io.Writer) Backend {
	return &TerminalBackend{in: in, out: out}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return errors.New("terminal backend already initialized")
	}

	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow puts the terminal into raw mode when the input is a
// terminal and starts reading keys
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, errors.New("backend not initialized")
	}

	w := &TerminalWindow{
		title:   title,
		width:   width,
		height:  height,
		running: true,
		out:     bufio.NewWriter(b.out),
		in:      b.in,
		keyMap:  b.config.keyMap(),
		logger:  b.config.Logger,
		held:    make(map[uint8]int),
		fd:      -1,
		stopCh:  make(chan struct{}),
	}

	if f, ok := b.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		w.fd = int(f.Fd())
		oldState, err := term.MakeRaw(w.fd)
		if err != nil {
			return nil, fmt.Errorf("setting terminal raw mode: %w", err)
		}
		w.oldState = oldState
	}

	w.writeString(ansiClear + ansiHideCursor)
	w.SetTitle(title)

	if w.in != nil {
		go w.readInput()
	}
	return w, nil
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

// SetTitle sets the terminal title
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	w.writeString("\x1b]0;" + title + "\a")
}

// GetSize returns the terminal size in characters, or the requested
// window size when the output is not a terminal
func (w *TerminalWindow) GetSize() (width, height int) {
	if w.fd >= 0 {
		if cols, rows, err := term.GetSize(w.fd); err == nil {
			return cols, rows
		}
	}
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *TerminalWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers flushes buffered output
func (w *TerminalWindow) SwapBuffers() {
	_ = w.out.Flush()
}

// PollEvents returns the events read since the last call. Keypad keys
// are reported as pressed until no byte for them arrived for
// terminalHoldFrames polls.
func (w *TerminalWindow) PollEvents() []InputEvent {
	w.mu.Lock()
	raw := w.pending
	w.pending = nil
	w.mu.Unlock()

	var events []InputEvent
	refreshed := make(map[uint8]bool)
	for _, ev := range raw {
		if ev.Type != InputEventTypeKeypad {
			events = append(events, ev)
			continue
		}
		if _, held := w.held[ev.Keypad]; !held {
			events = append(events, ev)
		}
		w.held[ev.Keypad] = terminalHoldFrames
		refreshed[ev.Keypad] = true
	}

	for key, remaining := range w.held {
		if refreshed[key] {
			continue
		}
		remaining--
		if remaining > 0 {
			w.held[key] = remaining
			continue
		}
		delete(w.held, key)
		events = append(events, keypadEvent(key, false))
	}
	return events
}

// RenderFrame draws the frame if it differs from the last one
func (w *TerminalWindow) RenderFrame(frame *display.Frame) error {
	if frame == nil {
		return errors.New("nil frame")
	}
	if w.rendered && w.lastFrame == *frame {
		return nil
	}
	w.lastFrame = *frame
	w.rendered = true

	if _, err := w.out.WriteString(ansiHome); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	for y := 0; y < display.Height; y += 2 {
		for x := range display.Width {
			_, _ = w.out.WriteString(halfBlock(frame.Pixel(x, y), frame.Pixel(x, y+1)))
		}
		_, _ = w.out.WriteString("\r\n")
	}
	if err := w.out.Flush(); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// halfBlock returns the character showing two vertically stacked pixels
func halfBlock(top, bottom bool) string {
	switch {
	case top && bottom:
		return "█"
	case top:
		return "▀"
	case bottom:
		return "▄"
	default:
		return " "
	}
}

// Cleanup stops reading input and restores the terminal state
func (w *TerminalWindow) Cleanup() error {
	w.running = false
	w.stopped.Do(func() {
		close(w.stopCh)
	})

	w.writeString(ansiShowCursor + "\r\n")
	if w.oldState != nil {
		if err := term.Restore(w.fd, w.oldState); err != nil {
			return fmt.Errorf("restoring terminal: %w", err)
		}
		w.oldState = nil
	}
	return nil
}

func (w *TerminalWindow) writeString(s string) {
	_, _ = w.out.WriteString(s)
	_ = w.out.Flush()
}

// readInput reads raw bytes until the window is cleaned up or the input
// ends. A blocked read returns only with the next byte, after which the
// stop channel is honored.
func (w *TerminalWindow) readInput() {
	buf := make([]byte, 32)
	for {
		n, err := w.in.Read(buf)
		select {
		case <-w.stopCh:
			return
		default:
		}

		if n > 0 {
			events := w.parseInput(buf[:n])
			w.mu.Lock()
			w.pending = append(w.pending, events...)
			w.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && w.logger != nil {
				w.logger.Error("Reading terminal input failed", log.Err(err))
			}
			return
		}
	}
}

// parseInput converts raw terminal bytes into events. Escape sequences
// for F5 and F12 map to hotkeys, a lone Escape or Ctrl-C quits and
// Ctrl-R resets.
func (w *TerminalWindow) parseInput(data []byte) []InputEvent {
	var events []InputEvent
	for i := 0; i < len(data); i++ {
		b := data[i]
		switch {
		case b == 0x03:
			events = append(events, InputEvent{Type: InputEventTypeQuit, Pressed: true})

		case b == 0x12:
			events = append(events, hostKeyEvent(KeyF5, true))

		case b == 0x1b && i+1 < len(data) && data[i+1] == '[':
			end := i + 2
			for end < len(data) && (data[end] < 0x40 || data[end] > 0x7E) {
				end++
			}
			if end >= len(data) {
				end = len(data) - 1
			}
			switch string(data[i : end+1]) {
			case "\x1b[15~":
				events = append(events, hostKeyEvent(KeyF5, true))
			case "\x1b[24~":
				events = append(events, hostKeyEvent(KeyF12, true))
			}
			i = end

		case b == 0x1b:
			events = append(events, InputEvent{Type: InputEventTypeQuit, Pressed: true})

		default:
			r := rune(b)
			if key, ok := w.keyMap.Lookup(r); ok {
				events = append(events, keypadEvent(key, true))
			} else if hotkey, ok := hotkeyRunes[r]; ok {
				events = append(events, hostKeyEvent(hotkey, true))
			}
		}
	}
	return events
}
