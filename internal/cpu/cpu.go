// Package cpu implements the CHIP-8 instruction decoder and execution engine.
package cpu

import (
	"math/rand/v2"

	"gochip8/internal/memory"

	"github.com/retroenv/retrogolib/log"
)

// Machine constants
const (
	NumRegisters = 16
	StackDepth   = 16
	NumKeys      = 16

	// Display dimensions in pixels
	Width  = 64
	Height = 32

	flagRegister = 0xF
	instrSize    = 2
	noKey        = -1
)

// Memory is the address space the CPU executes from
type Memory interface {
	Read(address uint16) (uint8, error)
	Write(address uint16, value uint8) error
}

// PixelSink receives every pixel change
type PixelSink interface {
	SetPixel(x, y int, on bool)
}

// KeySource reports the current keypad state
type KeySource interface {
	IsPressed(key uint8) bool
}

// CPU represents the CHIP-8 virtual machine state
type CPU struct {
	// Registers
	V  [NumRegisters]uint8 // General purpose registers V0..VF
	I  uint16              // Index register
	PC uint16              // Program counter

	// Call stack
	Stack [StackDepth]uint16
	SP    uint8 // Number of return addresses on the stack

	// Timers, decremented at 60 Hz by the host
	DelayTimer uint8
	SoundTimer uint8

	frameBuffer [Width * Height]bool

	memory Memory
	pixels PixelSink
	keys   KeySource

	quirks Quirks
	rng    *rand.Rand
	logger *log.Logger
	tracer func(pc uint16, ins Instruction)

	// Key observed pressed by a pending FX0A, waiting for release
	waitKey int

	fault *Fault
	steps uint64
}

// Option configures a CPU
type Option func(*CPU)

// WithQuirks selects interpreter compatibility behavior.
func WithQuirks(q Quirks) Option {
	return func(cpu *CPU) { cpu.quirks = q }
}

// WithRand sets the random source used by CXNN.
func WithRand(r *rand.Rand) Option {
	return func(cpu *CPU) { cpu.rng = r }
}

// WithLogger sets the logger used to report faults.
func WithLogger(logger *log.Logger) Option {
	return func(cpu *CPU) { cpu.logger = logger }
}

// WithTracer installs a hook called before each instruction executes.
func WithTracer(fn func(pc uint16, ins Instruction)) Option {
	return func(cpu *CPU) { cpu.tracer = fn }
}

// New creates a new CPU instance in its power-on state
func New(mem Memory, pixels PixelSink, keys KeySource, opts ...Option) *CPU {
	cpu := &CPU{
		memory: mem,
		pixels: pixels,
		keys:   keys,
		quirks: DefaultQuirks(),
	}
	for _, opt := range opts {
		opt(cpu)
	}
	if cpu.pixels == nil {
		cpu.pixels = discardPixels{}
	}
	if cpu.keys == nil {
		cpu.keys = noKeys{}
	}
	cpu.Reset()
	return cpu
}

// Reset returns the machine to its power-on state. Memory is not touched.
func (cpu *CPU) Reset() {
	cpu.V = [NumRegisters]uint8{}
	cpu.I = 0
	cpu.PC = memory.ProgramStart
	cpu.Stack = [StackDepth]uint16{}
	cpu.SP = 0
	cpu.DelayTimer = 0
	cpu.SoundTimer = 0
	cpu.waitKey = noKey
	cpu.fault = nil
	cpu.steps = 0
	cpu.clearScreen()
}

// Step executes a single instruction. Once a fault occurred the CPU is
// halted and every call returns the same fault until Reset.
func (cpu *CPU) Step() error {
	if cpu.fault != nil {
		return cpu.fault
	}

	pc := cpu.PC
	word, err := cpu.fetch(pc)
	if err != nil {
		return cpu.halt(newFault(pc, 0, err))
	}

	ins := Decode(word)
	if cpu.tracer != nil {
		cpu.tracer(pc, ins)
	}

	cpu.PC = pc + instrSize
	if err := cpu.execute(ins); err != nil {
		cpu.PC = pc
		return cpu.halt(newFault(pc, word, err))
	}

	cpu.steps++
	return nil
}

// DecrementTimers counts both timers down by one, stopping at zero.
// The host calls it at 60 Hz.
func (cpu *CPU) DecrementTimers() {
	if cpu.DelayTimer > 0 {
		cpu.DelayTimer--
	}
	if cpu.SoundTimer > 0 {
		cpu.SoundTimer--
	}
}

// SoundActive reports whether the sound timer is running
func (cpu *CPU) SoundActive() bool {
	return cpu.SoundTimer > 0
}

// Halted returns the fault that stopped the CPU, or nil while running
func (cpu *CPU) Halted() error {
	if cpu.fault == nil {
		return nil
	}
	return cpu.fault
}

// WaitingForKey reports whether an FX0A instruction is blocking execution
func (cpu *CPU) WaitingForKey() bool {
	if cpu.fault != nil {
		return false
	}
	word, err := cpu.fetch(cpu.PC)
	return err == nil && Decode(word).Op == OpWaitKey
}

// FrameBuffer returns a copy of the CPU's view of the display, row-major
func (cpu *CPU) FrameBuffer() [Width * Height]bool {
	return cpu.frameBuffer
}

// Pixel reports whether the pixel at (x, y) is lit
func (cpu *CPU) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return cpu.frameBuffer[y*Width+x]
}

// State is a snapshot of the register file for diagnostics
type State struct {
	V          [NumRegisters]uint8
	I          uint16
	PC         uint16
	Stack      [StackDepth]uint16
	SP         uint8
	DelayTimer uint8
	SoundTimer uint8
	Steps      uint64
	Halted     bool
}

// State returns the current register state
func (cpu *CPU) State() State {
	return State{
		V:          cpu.V,
		I:          cpu.I,
		PC:         cpu.PC,
		Stack:      cpu.Stack,
		SP:         cpu.SP,
		DelayTimer: cpu.DelayTimer,
		SoundTimer: cpu.SoundTimer,
		Steps:      cpu.steps,
		Halted:     cpu.fault != nil,
	}
}

func (cpu *CPU) fetch(pc uint16) (uint16, error) {
	high, err := cpu.memory.Read(pc)
	if err != nil {
		return 0, err
	}
	if pc == 0xFFFF {
		return 0, &memory.AccessError{Address: pc, Err: memory.ErrOutOfRange}
	}
	low, err := cpu.memory.Read(pc + 1)
	if err != nil {
		return 0, err
	}
	return uint16(high)<<8 | uint16(low), nil
}

func (cpu *CPU) halt(f *Fault) error {
	cpu.fault = f
	if cpu.logger != nil {
		cpu.logger.Error("CPU halted",
			log.Stringer("fault", f.Kind),
			log.Hex("pc", f.PC),
			log.Hex("opcode", f.Opcode))
	}
	return f
}

func (cpu *CPU) randomByte() uint8 {
	if cpu.rng != nil {
		return uint8(cpu.rng.UintN(256))
	}
	return uint8(rand.UintN(256))
}

type discardPixels struct{}

func (discardPixels) SetPixel(int, int, bool) {}

type noKeys struct{}

func (noKeys) IsPressed(uint8) bool { return false }
