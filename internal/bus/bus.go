// Package bus wires the CHIP-8 components together.
package bus

import (
	"fmt"
	"math/rand/v2"

	"gochip8/internal/cpu"
	"gochip8/internal/display"
	"gochip8/internal/input"
	"gochip8/internal/memory"
	"gochip8/internal/rom"

	"github.com/retroenv/retrogolib/log"
)

// DefaultCyclesPerFrame is the number of instructions executed per
// 60 Hz frame, about 600 instructions per second.
const DefaultCyclesPerFrame = 10

// MaxCyclesPerFrame bounds the speed setting
const MaxCyclesPerFrame = 10000

// Bus connects all CHIP-8 components together
type Bus struct {
	// Core components
	CPU    *cpu.CPU
	Memory *memory.Memory
	Screen *display.Screen
	Keypad *input.Keypad

	program *rom.Program
	logger  *log.Logger

	// Instructions per frame
	cyclesPerFrame int

	// System state
	totalSteps uint64
	frameCount uint64

	// Execution logging for testing
	executionLog   []ExecutionEvent
	loggingEnabled bool

	// Memory monitoring for debugging
	memoryWatchpoints map[uint16]uint8 // Address -> previous value
	watchpointLogging bool
}

type options struct {
	cyclesPerFrame int
	cpuOptions     []cpu.Option
	logger         *log.Logger
}

// Option configures a Bus
type Option func(*options)

// WithCyclesPerFrame sets the number of instructions per frame.
func WithCyclesPerFrame(n int) Option {
	return func(o *options) { o.cyclesPerFrame = n }
}

// WithQuirks selects interpreter compatibility behavior.
func WithQuirks(q cpu.Quirks) Option {
	return func(o *options) { o.cpuOptions = append(o.cpuOptions, cpu.WithQuirks(q)) }
}

// WithRand sets the random source of the CPU.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.cpuOptions = append(o.cpuOptions, cpu.WithRand(r)) }
}

// WithTracer installs an instruction trace hook on the CPU.
func WithTracer(fn func(pc uint16, ins cpu.Instruction)) Option {
	return func(o *options) { o.cpuOptions = append(o.cpuOptions, cpu.WithTracer(fn)) }
}

// WithLogger sets the logger for the bus and CPU.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
		o.cpuOptions = append(o.cpuOptions, cpu.WithLogger(logger))
	}
}

// New creates a new system bus with all components
func New(opts ...Option) *Bus {
	o := options{cyclesPerFrame: DefaultCyclesPerFrame}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Bus{
		Memory:            memory.New(),
		Screen:            display.New(),
		Keypad:            input.New(),
		logger:            o.logger,
		memoryWatchpoints: make(map[uint16]uint8),
	}
	b.SetCyclesPerFrame(o.cyclesPerFrame)
	b.CPU = cpu.New(b.Memory, b.Screen, b.Keypad, o.cpuOptions...)

	return b
}

// LoadProgram installs a program at 0x200 and resets the machine. It
// returns the number of bytes installed.
func (b *Bus) LoadProgram(p *rom.Program) int {
	b.program = p
	b.Memory.Reset()
	n := b.Memory.Load(p.Data)
	b.resetState()

	if b.logger != nil {
		b.logger.Info("Program loaded",
			log.String("name", p.Name),
			log.Int("bytes", n))
		if p.Truncated {
			b.logger.Warn("Program truncated",
				log.Int("size", p.Size),
				log.Int("max", rom.MaxSize))
		}
	}
	return n
}

// Program returns the currently loaded program, or nil
func (b *Bus) Program() *rom.Program {
	return b.program
}

// Reset restarts the loaded program from a fresh memory image
func (b *Bus) Reset() {
	b.Memory.Reset()
	if b.program != nil {
		b.Memory.Load(b.program.Data)
	}
	b.resetState()
}

func (b *Bus) resetState() {
	b.CPU.Reset()
	b.Screen.Clear()
	b.Keypad.Reset()

	b.totalSteps = 0
	b.frameCount = 0
	b.executionLog = b.executionLog[:0]
}

// Step executes one CPU instruction
func (b *Bus) Step() error {
	prePC := b.CPU.PC
	var preOpcode uint16
	if b.loggingEnabled {
		preOpcode, _ = b.Memory.ReadWord(prePC)
	}

	if err := b.CPU.Step(); err != nil {
		return err
	}
	b.totalSteps++

	if b.loggingEnabled {
		b.executionLog = append(b.executionLog, ExecutionEvent{
			StepNumber: len(b.executionLog) + 1,
			FrameCount: b.frameCount,
			PC:         prePC,
			Opcode:     preOpcode,
		})
	}
	return nil
}

// StepFrame runs one 60 Hz frame: CyclesPerFrame instructions followed
// by one timer tick. Execution stops at the first fault.
func (b *Bus) StepFrame() error {
	for range b.cyclesPerFrame {
		if err := b.Step(); err != nil {
			return err
		}
	}
	b.TickTimers()
	b.frameCount++

	if b.watchpointLogging && b.frameCount%60 == 0 {
		b.CheckMemoryWatchpoints()
	}
	return nil
}

// Run executes the given number of frames
func (b *Bus) Run(frames int) error {
	for range frames {
		if err := b.StepFrame(); err != nil {
			return err
		}
	}
	return nil
}

// TickTimers decrements the delay and sound timers once
func (b *Bus) TickTimers() {
	b.CPU.DecrementTimers()
}

// SetCyclesPerFrame changes the emulation speed, clamped to [1, MaxCyclesPerFrame]
func (b *Bus) SetCyclesPerFrame(n int) {
	switch {
	case n < 1:
		n = 1
	case n > MaxCyclesPerFrame:
		n = MaxCyclesPerFrame
	}
	b.cyclesPerFrame = n
}

// CyclesPerFrame returns the number of instructions executed per frame
func (b *Bus) CyclesPerFrame() int {
	return b.cyclesPerFrame
}

// GetFrameCount returns the number of completed frames
func (b *Bus) GetFrameCount() uint64 {
	return b.frameCount
}

// GetStepCount returns the number of executed instructions
func (b *Bus) GetStepCount() uint64 {
	return b.totalSteps
}

// GetFrame returns a snapshot of the screen
func (b *Bus) GetFrame() display.Frame {
	return b.Screen.Snapshot()
}

// SoundActive reports whether the buzzer would be sounding
func (b *Bus) SoundActive() bool {
	return b.CPU.SoundActive()
}

// Halted returns the fault that stopped the CPU, or nil
func (b *Bus) Halted() error {
	return b.CPU.Halted()
}

// WaitingForKey reports whether the program is blocked in FX0A
func (b *Bus) WaitingForKey() bool {
	return b.CPU.WaitingForKey()
}

// SetKey forwards a host key event to the keypad
func (b *Bus) SetKey(key uint8, pressed bool) {
	b.Keypad.SetKey(key, pressed)
}

// GetCPUState returns the current CPU state
func (b *Bus) GetCPUState() cpu.State {
	return b.CPU.State()
}

// ExecutionEvent represents a single execution step for testing
type ExecutionEvent struct {
	StepNumber int
	FrameCount uint64
	PC         uint16
	Opcode     uint16
}

// GetExecutionLog returns the execution log
func (b *Bus) GetExecutionLog() []ExecutionEvent {
	return b.executionLog
}

// EnableExecutionLogging enables execution logging
func (b *Bus) EnableExecutionLogging() {
	b.loggingEnabled = true
}

// DisableExecutionLogging disables execution logging
func (b *Bus) DisableExecutionLogging() {
	b.loggingEnabled = false
}

// ClearExecutionLog clears the execution log
func (b *Bus) ClearExecutionLog() {
	b.executionLog = b.executionLog[:0]
}

// AddMemoryWatchpoint adds a memory address to monitor for changes
func (b *Bus) AddMemoryWatchpoint(address uint16) error {
	value, err := b.Memory.Read(address)
	if err != nil {
		return fmt.Errorf("adding watchpoint: %w", err)
	}
	b.memoryWatchpoints[address] = value
	return nil
}

// EnableWatchpointLogging enables/disables memory watchpoint logging
func (b *Bus) EnableWatchpointLogging(enabled bool) {
	b.watchpointLogging = enabled
}

// WatchpointHit describes a change of a watched memory location
type WatchpointHit struct {
	Address  uint16
	Previous uint8
	Current  uint8
}

// CheckMemoryWatchpoints checks all watchpoints for changes, logs and
// returns them
func (b *Bus) CheckMemoryWatchpoints() []WatchpointHit {
	var hits []WatchpointHit
	for address, previous := range b.memoryWatchpoints {
		current, err := b.Memory.Read(address)
		if err != nil || current == previous {
			continue
		}
		b.memoryWatchpoints[address] = current
		hits = append(hits, WatchpointHit{Address: address, Previous: previous, Current: current})

		if b.logger != nil {
			b.logger.Debug("Memory changed",
				log.Hex("address", address),
				log.Hex("previous", previous),
				log.Hex("current", current),
				log.Int("frame", int(b.frameCount)))
		}
	}
	return hits
}
