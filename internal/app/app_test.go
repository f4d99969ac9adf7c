package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gochip8/internal/cpu"
	"gochip8/internal/graphics"
	"gochip8/internal/rom"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// drawZeroProgram draws the font glyph 0 at (5,5) and loops
var drawZeroProgram = []byte{
	0x60, 0x05, // 200: LD V0, 5
	0x61, 0x05, // 202: LD V1, 5
	0xA0, 0x50, // 204: LD I, 050
	0xD0, 0x15, // 206: DRW V0, V1, 5
	0x12, 0x08, // 208: JP 208
}

func newHeadlessConfig(t *testing.T, maxFrames int) *Config {
	t.Helper()

	dir := t.TempDir()
	c := NewConfig()
	c.Video.Backend = "headless"
	c.Emulation.MaxFrames = maxFrames
	c.Paths.Screenshots = filepath.Join(dir, "screenshots")
	c.Paths.Dumps = filepath.Join(dir, "dumps")
	return c
}

func newTestApplication(t *testing.T, config *Config, program []byte) *Application {
	t.Helper()
	return newTestApplicationWithLogger(t, config, program, log.NewTestLogger(t))
}

func newTestApplicationWithLogger(t *testing.T, config *Config, program []byte, logger *log.Logger) *Application {
	t.Helper()

	app, err := NewApplication(config, logger)
	assert.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, app.Cleanup())
	})

	p, err := rom.LoadBytes(program, "test")
	assert.NoError(t, err)
	assert.NoError(t, app.LoadProgram(p))
	return app
}

func headlessWindow(t *testing.T, app *Application) *graphics.HeadlessWindow {
	t.Helper()

	window, ok := app.GetWindow().(*graphics.HeadlessWindow)
	assert.True(t, ok, "expected a headless window")
	return window
}

func TestApplication_RunHeadless(t *testing.T) {
	app := newTestApplication(t, newHeadlessConfig(t, 3), drawZeroProgram)

	assert.NoError(t, app.Run(context.Background()))
	assert.False(t, app.IsRunning())
	assert.Equal(t, uint64(3), app.GetFrameCount())

	window := headlessWindow(t, app)
	assert.Equal(t, 3, window.GetFrameCount())
	assert.Equal(t, "gochip8 - test", window.Title())

	frame := window.LastFrame()
	glyph := []string{
		"####",
		"#..#",
		"#..#",
		"#..#",
		"####",
	}
	for row, line := range glyph {
		for col, c := range line {
			assert.Equal(t, c == '#', frame.Pixel(5+col, 5+row), "pixel (%d,%d)", 5+col, 5+row)
		}
	}
	assert.Equal(t, 14, frame.LitCount())
}

func TestApplication_RunHeadlessFault(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApplicationWithLogger(t, newHeadlessConfig(t, 0), []byte{0x00, 0x00}, newCaptureLogger(&buf))

	err := app.Run(context.Background())
	assert.Contains(t, buf.String(), "CPU halted")
	assert.Contains(t, buf.String(), "Execution halted")
	assert.True(t, errors.Is(err, cpu.ErrIllegalOpcode), "got %v", err)

	var appErr *ApplicationError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "cpu", appErr.Component)

	var fault *cpu.Fault
	assert.True(t, errors.As(err, &fault))
	assert.Equal(t, uint16(0x200), fault.PC)
}

func TestApplication_RunCanceled(t *testing.T) {
	app := newTestApplication(t, newHeadlessConfig(t, 0), drawZeroProgram)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, app.Run(ctx))
	assert.Equal(t, uint64(1), app.GetFrameCount())
}

func TestApplication_KeypadInput(t *testing.T) {
	program := []byte{
		0x60, 0x05, // 200: LD V0, 5
		0xE0, 0x9E, // 202: SKP V0
		0x12, 0x02, // 204: JP 202
		0x6A, 0x01, // 206: LD VA, 1
		0x12, 0x08, // 208: JP 208
	}
	app := newTestApplication(t, newHeadlessConfig(t, 1), program)

	headlessWindow(t, app).Inject(graphics.InputEvent{
		Type:    graphics.InputEventTypeKeypad,
		Keypad:  0x5,
		Pressed: true,
	})
	assert.NoError(t, app.Run(context.Background()))
	assert.Equal(t, uint8(1), app.GetBus().GetCPUState().V[0xA])
}

func TestApplication_Hotkeys(t *testing.T) {
	app := newTestApplication(t, newHeadlessConfig(t, 2), drawZeroProgram)
	window := headlessWindow(t, app)

	window.Inject(graphics.InputEvent{Type: graphics.InputEventTypeKey, Key: graphics.KeyP, Pressed: true})
	assert.NoError(t, app.Run(context.Background()))
	assert.True(t, app.IsPaused())
	assert.Equal(t, uint64(0), app.GetEmulator().GetFrameCount())
	assert.Equal(t, uint16(0x200), app.GetBus().GetCPUState().PC)

	window.Inject(
		graphics.InputEvent{Type: graphics.InputEventTypeKey, Key: graphics.KeyN, Pressed: true},
		graphics.InputEvent{Type: graphics.InputEventTypeKey, Key: graphics.KeyN, Pressed: true},
	)
	app.config.Emulation.MaxFrames = 3
	assert.NoError(t, app.Run(context.Background()))
	assert.Equal(t, uint16(0x204), app.GetBus().GetCPUState().PC)
	assert.Equal(t, uint8(5), app.GetBus().GetCPUState().V[1])

	window.Inject(graphics.InputEvent{Type: graphics.InputEventTypeKey, Key: graphics.KeyF5, Pressed: true})
	app.config.Emulation.MaxFrames = 1
	assert.NoError(t, app.Run(context.Background()))
	assert.Equal(t, uint16(0x200), app.GetBus().GetCPUState().PC)
	assert.True(t, app.IsPaused(), "reset keeps the pause state")
}

func TestApplication_QuitEvent(t *testing.T) {
	app := newTestApplication(t, newHeadlessConfig(t, 0), drawZeroProgram)

	headlessWindow(t, app).Inject(graphics.InputEvent{Type: graphics.InputEventTypeQuit, Pressed: true})
	assert.NoError(t, app.Run(context.Background()))
	assert.Equal(t, uint64(1), app.GetFrameCount())
}

func TestApplication_SaveFrame(t *testing.T) {
	config := newHeadlessConfig(t, 1)
	config.Debug.DumpFormat = "txt"
	app := newTestApplication(t, config, drawZeroProgram)
	assert.NoError(t, app.Run(context.Background()))

	path := filepath.Join(t.TempDir(), "frame.txt")
	assert.NoError(t, app.SaveFrame(path))
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "Lit Pixels: 14")

	shot, err := app.Screenshot()
	assert.NoError(t, err)
	assert.Equal(t, ".txt", filepath.Ext(shot))
	_, err = os.Stat(shot)
	assert.NoError(t, err)

	err = app.SaveFrame(filepath.Join(t.TempDir(), "missing", "frame.png"))
	var appErr *ApplicationError
	assert.True(t, errors.As(err, &appErr))
}

func TestApplication_DumpFrames(t *testing.T) {
	config := newHeadlessConfig(t, 4)
	config.Debug.DumpFrames = true
	config.Debug.DumpFormat = "png"
	config.Debug.DumpInterval = 2
	config.Debug.MaxDumps = 10
	app := newTestApplication(t, config, drawZeroProgram)

	assert.NoError(t, app.Run(context.Background()))

	entries, err := os.ReadDir(config.Paths.Dumps)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestApplication_LoadROM(t *testing.T) {
	app := newTestApplication(t, newHeadlessConfig(t, 1), drawZeroProgram)

	err := app.LoadROM(filepath.Join(t.TempDir(), "missing.ch8"))
	var appErr *ApplicationError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "rom", appErr.Component)

	path := filepath.Join(t.TempDir(), "zero.ch8")
	assert.NoError(t, os.WriteFile(path, drawZeroProgram, 0o644))
	assert.NoError(t, app.LoadROM(path))
	assert.Equal(t, path, app.GetROMPath())
	assert.Equal(t, "gochip8 - zero", headlessWindow(t, app).Title())
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	config := NewConfig()
	config.Video.Backend = "sdl2"

	_, err := NewApplication(config, nil)
	var configErr *ConfigError
	assert.True(t, errors.As(err, &configErr))
}

func TestNewApplication_Watchpoints(t *testing.T) {
	config := newHeadlessConfig(t, 1)
	config.Debug.Watchpoints = []string{"0x300"}
	app := newTestApplication(t, config, drawZeroProgram)

	assert.NoError(t, app.GetBus().Memory.Write(0x300, 0x42))
	hits := app.GetBus().CheckMemoryWatchpoints()
	assert.Len(t, hits, 1)
}
