// Package app implements the CHIP-8 interpreter application and its host loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"gochip8/internal/bus"
	"gochip8/internal/debug"
	"gochip8/internal/display"
	"gochip8/internal/graphics"
	"gochip8/internal/rom"

	"github.com/retroenv/retrogolib/log"
)

// Application represents the main interpreter application
type Application struct {
	// Core emulation components
	bus *bus.Bus

	// Graphics backend
	graphicsBackend graphics.Backend
	window          graphics.Window
	videoProcessor  *display.VideoProcessor
	palette         display.Palette

	// Application state
	config   *Config
	emulator *Emulator
	logger   *log.Logger

	// Diagnostics
	tracer    *debug.Tracer
	traceFile *os.File
	dumper    *debug.FrameDumper

	// Control flags
	running     bool
	initialized bool
	headless    bool
	soundActive bool

	// Performance tracking
	frameCount uint64
	startTime  time.Time

	// Program management
	romPath string
	program *rom.Program
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates a new application from a validated configuration
func NewApplication(config *Config, logger *log.Logger) (*Application, error) {
	if config == nil {
		config = NewConfig()
	}
	if err := config.validate(); err != nil {
		return nil, &ApplicationError{Component: "config", Operation: "validation", Err: err}
	}

	app := &Application{
		config:    config,
		logger:    logger,
		headless:  graphicsBackendType(config.Video.Backend) == string(graphics.BackendHeadless),
		startTime: time.Now(),
	}

	if err := app.initializeComponents(); err != nil {
		_ = app.Cleanup()
		return nil, &ApplicationError{
			Component: "initialization",
			Operation: "component setup",
			Err:       err,
		}
	}
	return app, nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	quirks, err := app.config.ResolveQuirks()
	if err != nil {
		return err
	}

	app.tracer = debug.NewTracer(app.config.Debug.TraceHistory)
	if app.config.Debug.CPUTracing {
		app.tracer.SetLogger(app.logger)
	}
	if app.config.Debug.TraceFile != "" {
		f, err := os.Create(app.config.Debug.TraceFile)
		if err != nil {
			return fmt.Errorf("creating trace file: %w", err)
		}
		app.traceFile = f
		app.tracer.SetOutput(f)
	}

	opts := []bus.Option{
		bus.WithCyclesPerFrame(app.config.Emulation.CyclesPerFrame),
		bus.WithQuirks(quirks),
		bus.WithTracer(app.tracer.Trace),
	}
	if app.logger != nil {
		opts = append(opts, bus.WithLogger(app.logger))
	}
	if seed := app.config.Emulation.Seed; seed != 0 {
		opts = append(opts, bus.WithRand(rand.New(rand.NewPCG(seed, seed))))
	}
	app.bus = bus.New(opts...)
	if app.logger != nil && app.config.Debug.EnableLogging {
		app.bus.Keypad.SetLogger(app.logger)
	}

	if err := app.initializeWatchpoints(); err != nil {
		return err
	}

	if err := app.initializeGraphicsBackend(); err != nil {
		return fmt.Errorf("initializing graphics backend: %w", err)
	}

	if err := app.initializeFrameDumper(); err != nil {
		return err
	}

	app.emulator = NewEmulator(app.bus, app.config, app.logger, app.tracer)
	app.initialized = true
	return nil
}

func (app *Application) initializeWatchpoints() error {
	addresses, err := app.config.WatchpointAddresses()
	if err != nil {
		return err
	}
	for _, addr := range addresses {
		if err := app.bus.AddMemoryWatchpoint(addr); err != nil {
			return fmt.Errorf("adding watchpoint: %w", err)
		}
	}
	if len(addresses) > 0 {
		app.bus.EnableWatchpointLogging(true)
	}
	return nil
}

// initializeGraphicsBackend initializes the graphics backend based on configuration
func (app *Application) initializeGraphicsBackend() error {
	backendType := graphics.BackendType(graphicsBackendType(app.config.Video.Backend))

	palette, err := app.config.Palette()
	if err != nil {
		return err
	}
	app.videoProcessor = display.NewVideoProcessor(
		app.config.Video.Brightness,
		app.config.Video.Contrast,
		app.config.Video.Saturation,
	)
	app.palette = app.videoProcessor.ProcessPalette(palette)

	keyMap, err := app.config.KeyMap()
	if err != nil {
		return err
	}

	graphicsConfig := graphics.Config{
		WindowTitle:  "gochip8",
		WindowWidth:  app.config.Window.Width,
		WindowHeight: app.config.Window.Height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		Filter:       app.config.Video.Filter,
		Palette:      app.palette,
		KeyMap:       keyMap,
		Headless:     app.headless,
		Debug:        app.config.Debug.EnableLogging,
		Logger:       app.logger,
	}

	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return err
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return fmt.Errorf("initializing %s backend: %w", backendType, err)
		}
		if app.logger != nil {
			app.logger.Warn("Ebitengine backend failed, falling back to headless mode", log.Err(err))
		}
		app.graphicsBackend = graphics.NewHeadlessBackend()
		app.headless = true
		graphicsConfig.Headless = true
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("initializing fallback headless backend: %w", err)
		}
	}

	app.window, err = app.graphicsBackend.CreateWindow(
		graphicsConfig.WindowTitle,
		graphicsConfig.WindowWidth,
		graphicsConfig.WindowHeight,
	)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	return nil
}

func (app *Application) initializeFrameDumper() error {
	format, err := debug.ParseFormat(app.config.Debug.DumpFormat)
	if err != nil {
		return err
	}

	app.dumper = debug.NewFrameDumper(app.config.Paths.Dumps)
	app.dumper.SetFormat(format)
	app.dumper.SetPalette(app.palette)
	app.dumper.SetDumpInterval(app.config.Debug.DumpInterval)
	app.dumper.SetMaxDumps(app.config.Debug.MaxDumps)

	if app.config.Debug.DumpFrames {
		if err := app.dumper.Enable(); err != nil {
			return err
		}
	}
	return nil
}

// LoadROM loads a program file into the interpreter
func (app *Application) LoadROM(romPath string) error {
	program, err := rom.LoadFile(romPath)
	if err != nil {
		return &ApplicationError{
			Component: "rom",
			Operation: "load program",
			Err:       err,
		}
	}

	if err := app.LoadProgram(program); err != nil {
		return err
	}
	app.romPath = romPath
	return nil
}

// LoadProgram installs a program image and starts the emulator
func (app *Application) LoadProgram(program *rom.Program) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	app.program = program
	app.bus.LoadProgram(program)
	app.emulator.Reset()
	app.frameCount = 0

	if app.window != nil {
		app.window.SetTitle(fmt.Sprintf("gochip8 - %s", program.Name))
	}

	app.emulator.Start()
	return nil
}

// Run starts the main application loop and blocks until the window
// closes, the context is canceled or the frame limit is reached. In
// headless mode a fault ends the loop and is returned.
func (app *Application) Run(ctx context.Context) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	app.running = true
	app.startTime = time.Now()

	if app.logger != nil {
		app.logger.Info("Starting interpreter",
			log.String("backend", app.graphicsBackend.GetName()),
			log.Int("cycles_per_frame", app.bus.CyclesPerFrame()))
	}

	if runner, ok := app.window.(graphics.Runner); ok && !app.headless {
		runner.SetEmulatorUpdateFunc(func() error {
			if ctx.Err() != nil {
				app.Stop()
			}
			return app.runFrame()
		})
		if err := runner.Run(); err != nil {
			return &ApplicationError{Component: "graphics", Operation: "run", Err: err}
		}
		return nil
	}

	// Headless runs unthrottled, the terminal is paced at the frame rate
	var ticker *time.Ticker
	if !app.headless {
		ticker = time.NewTicker(app.emulator.GetTargetFrameTime())
		defer ticker.Stop()
	}

	for app.running {
		if err := app.runFrame(); err != nil && !errors.Is(err, graphics.ErrQuit) {
			return err
		}
		if app.headless {
			if fault := app.emulator.Fault(); fault != nil {
				return &ApplicationError{Component: "cpu", Operation: "execute", Err: fault}
			}
			if ctx.Err() != nil {
				app.Stop()
			}
			continue
		}

		select {
		case <-ctx.Done():
			app.Stop()
		case <-ticker.C:
		}
	}

	if app.logger != nil {
		app.logger.Debug("Main loop ended", log.Int("frames", int(app.frameCount)))
	}
	return nil
}

// runFrame processes input, runs one emulator frame and renders it. It
// returns graphics.ErrQuit once the application stopped.
func (app *Application) runFrame() error {
	app.processInput()

	if err := app.emulator.Update(); err != nil && app.logger != nil && !app.headless {
		app.logger.Info("Press F5 to restart the program")
	}

	if err := app.render(); err != nil && app.logger != nil {
		app.logger.Error("Rendering frame failed", log.Err(err))
	}
	app.frameCount++

	if limit := app.config.Emulation.MaxFrames; limit > 0 && app.frameCount >= uint64(limit) {
		app.Stop()
	}
	if app.window != nil && app.window.ShouldClose() {
		app.Stop()
	}
	if !app.running {
		return graphics.ErrQuit
	}
	return nil
}

// processInput applies input events from the graphics backend
func (app *Application) processInput() {
	if app.window == nil {
		return
	}

	for _, event := range app.window.PollEvents() {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			app.Stop()
		case graphics.InputEventTypeKeypad:
			app.bus.SetKey(event.Keypad, event.Pressed)
		case graphics.InputEventTypeKey:
			if event.Pressed {
				app.handleHotkey(event.Key)
			}
		}
	}
}

// handleHotkey executes the pause, step, reset and screenshot hotkeys
func (app *Application) handleHotkey(key graphics.Key) {
	switch key {
	case graphics.KeyP:
		paused := app.emulator.TogglePause()
		if app.logger != nil {
			if paused {
				app.logger.Info("Paused")
			} else {
				app.logger.Info("Resumed")
			}
		}

	case graphics.KeyN:
		if !app.emulator.IsPaused() {
			return
		}
		if err := app.emulator.StepInstruction(); err != nil && app.logger != nil {
			app.logger.Error("Single step failed", log.Err(err))
		}

	case graphics.KeyF5:
		app.Reset()

	case graphics.KeyF12:
		path, err := app.Screenshot()
		if app.logger == nil {
			return
		}
		if err != nil {
			app.logger.Error("Screenshot failed", log.Err(err))
			return
		}
		app.logger.Info("Screenshot saved", log.String("path", path))
	}
}

// render presents the current frame and feeds the frame dumper
func (app *Application) render() error {
	frame := app.bus.GetFrame()

	if sound := app.bus.SoundActive(); sound != app.soundActive {
		app.soundActive = sound
		if app.logger != nil {
			if sound {
				app.logger.Debug("Sound on")
			} else {
				app.logger.Debug("Sound off")
			}
		}
	}

	if path, err := app.dumper.DumpFrame(&frame, app.frameCount); err != nil {
		return fmt.Errorf("dumping frame: %w", err)
	} else if path != "" && app.logger != nil {
		app.logger.Debug("Frame dumped", log.String("path", path))
	}

	if app.window == nil {
		return nil
	}
	if err := app.window.RenderFrame(&frame); err != nil {
		return err
	}
	app.window.SwapBuffers()
	return nil
}

// Screenshot writes the current frame to the screenshot directory in
// the configured dump format and returns the file path
func (app *Application) Screenshot() (string, error) {
	if err := os.MkdirAll(app.config.Paths.Screenshots, 0o755); err != nil {
		return "", fmt.Errorf("creating screenshot directory: %w", err)
	}

	name := "screen"
	if app.program != nil && app.program.Name != "" {
		name = app.program.Name
	}
	filename := fmt.Sprintf("%s_%s.%s", name, time.Now().Format("20060102_150405"), app.config.Debug.DumpFormat)
	path := filepath.Join(app.config.Paths.Screenshots, filename)

	if err := app.SaveFrame(path); err != nil {
		return "", err
	}
	return path, nil
}

// SaveFrame writes the current frame to path, the format taken from the
// file extension
func (app *Application) SaveFrame(path string) error {
	frame := app.bus.GetFrame()
	if err := app.dumper.WriteFile(path, &frame, app.frameCount); err != nil {
		return &ApplicationError{Component: "debug", Operation: "save frame", Err: err}
	}
	return nil
}

// Stop stops the application
func (app *Application) Stop() {
	app.running = false
}

// Pause pauses the emulator
func (app *Application) Pause() {
	app.emulator.Pause()
}

// Resume resumes the emulator
func (app *Application) Resume() {
	app.emulator.Resume()
}

// Reset restarts the loaded program
func (app *Application) Reset() {
	app.emulator.Reset()
	if app.logger != nil {
		app.logger.Info("Reset")
	}
}

// IsRunning returns whether the application is running
func (app *Application) IsRunning() bool {
	return app.running
}

// IsPaused returns whether the emulator is paused
func (app *Application) IsPaused() bool {
	return app.emulator.IsPaused()
}

// GetFrameCount returns the total frame count
func (app *Application) GetFrameCount() uint64 {
	return app.frameCount
}

// GetUptime returns the application uptime
func (app *Application) GetUptime() time.Duration {
	return time.Since(app.startTime)
}

// GetROMPath returns the currently loaded program path
func (app *Application) GetROMPath() string {
	return app.romPath
}

// GetConfig returns the application configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// GetBus returns the system bus
func (app *Application) GetBus() *bus.Bus {
	return app.bus
}

// GetEmulator returns the frame scheduler
func (app *Application) GetEmulator() *Emulator {
	return app.emulator
}

// GetWindow returns the rendering window
func (app *Application) GetWindow() graphics.Window {
	return app.window
}

// Cleanup releases all resources and shuts down the application
func (app *Application) Cleanup() error {
	var errs []error

	if app.emulator != nil {
		app.emulator.Stop()
	}

	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("window cleanup: %w", err))
		}
	}

	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("graphics backend cleanup: %w", err))
		}
	}

	if app.traceFile != nil {
		if err := app.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing trace file: %w", err))
		}
		app.traceFile = nil
	}

	app.initialized = false
	return errors.Join(errs...)
}
