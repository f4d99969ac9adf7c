// Package app provides emulator integration for the main application.
package app

import (
	"errors"
	"fmt"
	"time"

	"gochip8/internal/bus"
	"gochip8/internal/cpu"
	"gochip8/internal/debug"

	"github.com/retroenv/retrogolib/log"
)

// Emulator manages the frame cadence: each Update runs one 60 Hz frame
// of instructions followed by one timer tick.
type Emulator struct {
	bus    *bus.Bus
	config *Config
	logger *log.Logger
	tracer *debug.Tracer

	// Timing
	targetFrameTime  time.Duration
	actualFrameTime  time.Duration
	averageFrameTime time.Duration

	// State tracking
	isRunning     bool
	paused        bool
	fault         error
	frameCount    uint64
	lastResetTime time.Time
}

// NewEmulator creates a new emulator for a bus. The tracer may be nil.
func NewEmulator(b *bus.Bus, config *Config, logger *log.Logger, tracer *debug.Tracer) *Emulator {
	e := &Emulator{
		bus:    b,
		config: config,
		logger: logger,
		tracer: tracer,
	}
	e.SetTargetFrameRate(config.Emulation.FrameRate)
	e.Reset()
	return e
}

// Reset restarts the loaded program and clears a previous fault
func (e *Emulator) Reset() {
	e.bus.Reset()
	if e.tracer != nil {
		e.tracer.Reset()
	}
	e.fault = nil
	e.frameCount = 0
	e.actualFrameTime = 0
	e.averageFrameTime = 0
	e.lastResetTime = time.Now()
}

// Start starts the emulator
func (e *Emulator) Start() {
	e.isRunning = true
}

// Stop stops the emulator
func (e *Emulator) Stop() {
	e.isRunning = false
}

// Pause suspends frame execution
func (e *Emulator) Pause() {
	e.paused = true
}

// Resume continues frame execution
func (e *Emulator) Resume() {
	e.paused = false
}

// TogglePause toggles the pause state and returns the new state
func (e *Emulator) TogglePause() bool {
	e.paused = !e.paused
	return e.paused
}

// Update runs one frame unless the emulator is stopped, paused or
// halted by a fault. The fault is returned once, when it occurs.
func (e *Emulator) Update() error {
	if !e.isRunning || e.paused || e.fault != nil {
		return nil
	}

	frameStart := time.Now()
	if err := e.bus.StepFrame(); err != nil {
		return e.handleFault(err)
	}
	e.frameCount++

	e.actualFrameTime = time.Since(frameStart)
	if e.averageFrameTime == 0 {
		e.averageFrameTime = e.actualFrameTime
	} else {
		e.averageFrameTime = time.Duration(
			float64(e.averageFrameTime)*0.95 + float64(e.actualFrameTime)*0.05,
		)
	}
	return nil
}

// StepInstruction executes a single instruction, used while paused
func (e *Emulator) StepInstruction() error {
	if e.fault != nil {
		return e.fault
	}
	if err := e.bus.Step(); err != nil {
		return e.handleFault(err)
	}

	if e.logger != nil {
		state := e.bus.GetCPUState()
		e.logger.Info("Single step",
			log.Hex("pc", state.PC),
			log.Hex("i", state.I),
			log.Int("sp", int(state.SP)))
	}
	return nil
}

// StepFrame executes exactly one frame regardless of the pause state
func (e *Emulator) StepFrame() error {
	if e.fault != nil {
		return e.fault
	}
	if err := e.bus.StepFrame(); err != nil {
		return e.handleFault(err)
	}
	e.frameCount++
	return nil
}

// handleFault records a fault and logs the faulting instruction with the
// recent instruction history
func (e *Emulator) handleFault(err error) error {
	e.fault = err
	if e.logger == nil {
		return err
	}

	var fault *cpu.Fault
	if errors.As(err, &fault) {
		e.logger.Error("Execution halted",
			log.Stringer("kind", fault.Kind),
			log.Hex("pc", fault.PC),
			log.Hex("opcode", fault.Opcode),
			log.String("instruction", debug.DisassembleWord(fault.PC, fault.Opcode).Text()))
	} else {
		e.logger.Error("Execution halted", log.Err(err))
	}

	if e.tracer != nil {
		for _, line := range e.tracer.Recent() {
			e.logger.Error("Recent instruction", log.String("trace", line.String()))
		}
	}
	return err
}

// Fault returns the fault that halted execution, or nil
func (e *Emulator) Fault() error {
	return e.fault
}

// IsRunning returns whether the emulator is running
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}

// IsPaused returns whether frame execution is suspended
func (e *Emulator) IsPaused() bool {
	return e.paused
}

// GetFrameCount returns the number of frames run since the last reset
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetActualFrameTime returns the time spent executing the last frame
func (e *Emulator) GetActualFrameTime() time.Duration {
	return e.actualFrameTime
}

// GetAverageFrameTime returns the average frame execution time
func (e *Emulator) GetAverageFrameTime() time.Duration {
	return e.averageFrameTime
}

// GetTargetFrameTime returns the target frame time
func (e *Emulator) GetTargetFrameTime() time.Duration {
	return e.targetFrameTime
}

// GetUptime returns the time since the last reset
func (e *Emulator) GetUptime() time.Duration {
	return time.Since(e.lastResetTime)
}

// SetTargetFrameRate sets the target frame rate, non-positive values
// select 60 frames per second
func (e *Emulator) SetTargetFrameRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	e.targetFrameTime = time.Duration(float64(time.Second) / fps)
}

// SetCyclesPerFrame sets the number of instructions per frame
func (e *Emulator) SetCyclesPerFrame(cycles int) {
	e.bus.SetCyclesPerFrame(cycles)
}

// GetCyclesPerFrame returns the number of instructions per frame
func (e *Emulator) GetCyclesPerFrame() int {
	return e.bus.CyclesPerFrame()
}

// String summarizes the emulator state for status output
func (e *Emulator) String() string {
	state := "running"
	switch {
	case e.fault != nil:
		state = "halted"
	case e.paused:
		state = "paused"
	case !e.isRunning:
		state = "stopped"
	case e.bus.WaitingForKey():
		state = "waiting for key"
	}
	return fmt.Sprintf("%s, frame %d, %d instructions/frame", state, e.frameCount, e.bus.CyclesPerFrame())
}
