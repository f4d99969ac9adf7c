//go:build !headless

package graphics

import (
	"errors"
	"fmt"

	"gochip8/internal/display"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/retroenv/retrogolib/log"
)

// ebitenKeys maps lower case host runes to Ebitengine keys
var ebitenKeys = map[rune]ebiten.Key{
	'0': ebiten.Key0, '1': ebiten.Key1, '2': ebiten.Key2, '3': ebiten.Key3,
	'4': ebiten.Key4, '5': ebiten.Key5, '6': ebiten.Key6, '7': ebiten.Key7,
	'8': ebiten.Key8, '9': ebiten.Key9,
	'a': ebiten.KeyA, 'b': ebiten.KeyB, 'c': ebiten.KeyC, 'd': ebiten.KeyD,
	'e': ebiten.KeyE, 'f': ebiten.KeyF, 'g': ebiten.KeyG, 'h': ebiten.KeyH,
	'i': ebiten.KeyI, 'j': ebiten.KeyJ, 'k': ebiten.KeyK, 'l': ebiten.KeyL,
	'm': ebiten.KeyM, 'n': ebiten.KeyN, 'o': ebiten.KeyO, 'p': ebiten.KeyP,
	'q': ebiten.KeyQ, 'r': ebiten.KeyR, 's': ebiten.KeyS, 't': ebiten.KeyT,
	'u': ebiten.KeyU, 'v': ebiten.KeyV, 'w': ebiten.KeyW, 'x': ebiten.KeyX,
	'y': ebiten.KeyY, 'z': ebiten.KeyZ,
	',': ebiten.KeyComma, '.': ebiten.KeyPeriod, '/': ebiten.KeySlash,
	';': ebiten.KeySemicolon, '-': ebiten.KeyMinus, '=': ebiten.KeyEqual,
}

// hotkeyMappings are checked after the keypad so a layout may claim P or N
var hotkeyMappings = map[ebiten.Key]Key{
	ebiten.KeyEscape: KeyEscape,
	ebiten.KeyP:      KeyP,
	ebiten.KeyN:      KeyN,
	ebiten.KeyF5:     KeyF5,
	ebiten.KeyF12:    KeyF12,
}

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
	game        *EbitengineGame
}

// EbitengineWindow implements the Window interface for Ebitengine
type EbitengineWindow struct {
	backend            *EbitengineBackend
	title              string
	width              int
	height             int
	game               *EbitengineGame
	running            bool
	events             []InputEvent
	emulatorUpdateFunc func() error
}

// EbitengineGame implements ebiten.Game for the interpreter
type EbitengineGame struct {
	window       *EbitengineWindow
	frameImage   *ebiten.Image // created on first Draw
	palette      display.Palette
	filter       ebiten.Filter
	windowWidth  int
	windowHeight int

	keypadKeys map[ebiten.Key]uint8
	hotkeys    map[ebiten.Key]Key
	logger     *log.Logger

	// Reusable pixel buffer for WritePixels
	pixels []byte
	dirty  bool
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return errors.New("ebitengine backend already initialized")
	}

	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates an Ebitengine window
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, errors.New("backend not initialized")
	}
	if b.config.Headless {
		return nil, errors.New("cannot create window in headless mode")
	}

	game := newEbitengineGame(b.config, width, height)
	window := &EbitengineWindow{
		backend: b,
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}
	game.window = window
	b.game = game

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	ebiten.SetTPS(60)
	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	return window, nil
}

// newEbitengineGame builds the game state without touching global
// Ebitengine window settings
func newEbitengineGame(config Config, width, height int) *EbitengineGame {
	game := &EbitengineGame{
		palette:      config.palette(),
		windowWidth:  width,
		windowHeight: height,
		keypadKeys:   make(map[ebiten.Key]uint8),
		hotkeys:      make(map[ebiten.Key]Key),
		logger:       config.Logger,
		filter:       ebiten.FilterNearest,
		pixels:       make([]byte, display.Width*display.Height*4),
	}

	if config.Filter == "linear" {
		game.filter = ebiten.FilterLinear
	}

	for r, key := range config.keyMap() {
		if ek, ok := ebitenKeys[r]; ok {
			game.keypadKeys[ek] = key
		}
	}
	for ek, key := range hotkeyMappings {
		if _, taken := game.keypadKeys[ek]; !taken {
			game.hotkeys[ek] = key
		}
	}
	return game
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true if running in headless mode
func (b *EbitengineBackend) IsHeadless() bool {
	return b.config.Headless
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers is handled automatically by Ebitengine
func (w *EbitengineWindow) SwapBuffers() {}

// PollEvents returns and clears the collected input events
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame converts a frame with the configured palette. The pixels
// are uploaded to the window texture on the next Draw.
func (w *EbitengineWindow) RenderFrame(frame *display.Frame) error {
	if w.game == nil {
		return errors.New("game not initialized")
	}
	if frame == nil {
		return errors.New("nil frame")
	}

	w.game.pixels = w.game.palette.RGBA(frame, w.game.pixels)
	w.game.dirty = true
	return nil
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Run starts the Ebitengine game loop and blocks until the window closes
func (w *EbitengineWindow) Run() error {
	if w.game == nil {
		return errors.New("game not initialized")
	}
	if err := ebiten.RunGame(w.game); err != nil {
		return fmt.Errorf("running game loop: %w", err)
	}
	return nil
}

// SetEmulatorUpdateFunc sets the emulator update function
func (w *EbitengineWindow) SetEmulatorUpdateFunc(updateFunc func() error) {
	w.emulatorUpdateFunc = updateFunc
}

// Update implements ebiten.Game.Update
func (g *EbitengineGame) Update() error {
	if g.window == nil {
		return nil
	}
	if !g.window.running || ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}

	g.window.events = append(g.window.events, g.processInput()...)

	if g.window.emulatorUpdateFunc != nil {
		if err := g.window.emulatorUpdateFunc(); err != nil {
			if errors.Is(err, ErrQuit) {
				g.window.running = false
				return ebiten.Termination
			}
			if g.logger != nil {
				g.logger.Error("Emulator update failed", log.Err(err))
			}
		}
	}
	return nil
}

// Draw implements ebiten.Game.Draw
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(g.palette.Background)
	if g.frameImage == nil {
		g.frameImage = ebiten.NewImage(display.Width, display.Height)
		g.dirty = true
	}
	if g.dirty {
		g.frameImage.WritePixels(g.pixels)
		g.dirty = false
	}

	scale, offsetX, offsetY := fitScale(g.windowWidth, g.windowHeight)
	op := &ebiten.DrawImageOptions{Filter: g.filter}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(g.frameImage, op)
}

// Layout implements ebiten.Game.Layout
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

// processInput converts key transitions of this tick into events
func (g *EbitengineGame) processInput() []InputEvent {
	var events []InputEvent

	for ek, key := range g.keypadKeys {
		if inpututil.IsKeyJustPressed(ek) {
			events = append(events, keypadEvent(key, true))
		} else if inpututil.IsKeyJustReleased(ek) {
			events = append(events, keypadEvent(key, false))
		}
	}

	for ek, key := range g.hotkeys {
		if !inpututil.IsKeyJustPressed(ek) {
			continue
		}
		if key == KeyEscape {
			events = append(events, InputEvent{Type: InputEventTypeQuit, Pressed: true})
			continue
		}
		events = append(events, hostKeyEvent(key, true))
	}
	return events
}
