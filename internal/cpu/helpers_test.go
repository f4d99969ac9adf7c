package cpu

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"gochip8/internal/memory"

	"github.com/retroenv/retrogolib/log"
)

// pixelEvent records one SetPixel call
type pixelEvent struct {
	X, Y int
	On   bool
}

// RecordingSink implements PixelSink and keeps every notification
type RecordingSink struct {
	Events []pixelEvent
}

func (s *RecordingSink) SetPixel(x, y int, on bool) {
	s.Events = append(s.Events, pixelEvent{X: x, Y: y, On: on})
}

// Clear forgets all recorded events
func (s *RecordingSink) Clear() {
	s.Events = s.Events[:0]
}

// FakeKeys implements KeySource with directly settable state
type FakeKeys struct {
	pressed [NumKeys]bool
}

func (k *FakeKeys) IsPressed(key uint8) bool {
	return key < NumKeys && k.pressed[key]
}

// Press marks a key as held down
func (k *FakeKeys) Press(key uint8) {
	k.pressed[key] = true
}

// Release marks a key as up
func (k *FakeKeys) Release(key uint8) {
	k.pressed[key] = false
}

// CPUTestHelper provides common test utilities
type CPUTestHelper struct {
	t      *testing.T
	CPU    *CPU
	Memory *memory.Memory
	Sink   *RecordingSink
	Keys   *FakeKeys
}

// NewCPUTestHelper creates a CPU wired to real memory, a recording
// pixel sink and fake keys. Options are applied after a fixed seed.
func NewCPUTestHelper(t *testing.T, opts ...Option) *CPUTestHelper {
	t.Helper()
	mem := memory.New()
	sink := &RecordingSink{}
	keys := &FakeKeys{}
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	cpu := New(mem, sink, keys, opts...)
	sink.Clear()
	return &CPUTestHelper{
		t:      t,
		CPU:    cpu,
		Memory: mem,
		Sink:   sink,
		Keys:   keys,
	}
}

// LoadProgram installs big-endian opcode words at 0x200
func (h *CPUTestHelper) LoadProgram(words ...uint16) {
	h.t.Helper()
	program := make([]byte, 0, len(words)*2)
	for _, w := range words {
		program = append(program, uint8(w>>8), uint8(w))
	}
	h.Memory.Load(program)
}

// StepN executes n instructions and fails the test on any error
func (h *CPUTestHelper) StepN(n int) {
	h.t.Helper()
	for i := range n {
		if err := h.CPU.Step(); err != nil {
			h.t.Fatalf("step %d: unexpected error: %v", i+1, err)
		}
	}
}

// Run loads the given program and executes every instruction once
func (h *CPUTestHelper) Run(words ...uint16) {
	h.t.Helper()
	h.LoadProgram(words...)
	h.StepN(len(words))
}

// MockMemory is a flat 64KB memory without protection, counting writes
type MockMemory struct {
	data       [0x10000]uint8
	writeCount map[uint16]int
}

func NewMockMemory() *MockMemory {
	return &MockMemory{writeCount: make(map[uint16]int)}
}

func (m *MockMemory) Read(address uint16) (uint8, error) {
	return m.data[address], nil
}

func (m *MockMemory) Write(address uint16, value uint8) error {
	m.writeCount[address]++
	m.data[address] = value
	return nil
}

// SetBytes sets multiple bytes starting at the given address
func (m *MockMemory) SetBytes(address uint16, values ...uint8) {
	for i, value := range values {
		m.data[address+uint16(i)] = value
	}
}

// Poke writes big-endian opcode words at an arbitrary program address
func (h *CPUTestHelper) Poke(address uint16, words ...uint16) {
	h.t.Helper()
	for i, w := range words {
		addr := address + uint16(i*2)
		if err := h.Memory.Write(addr, uint8(w>>8)); err != nil {
			h.t.Fatalf("poke 0x%03X: %v", addr, err)
		}
		if err := h.Memory.Write(addr+1, uint8(w)); err != nil {
			h.t.Fatalf("poke 0x%03X: %v", addr+1, err)
		}
	}
}

// Peek reads n bytes starting at address
func (h *CPUTestHelper) Peek(address uint16, n int) []byte {
	h.t.Helper()
	out := make([]byte, n)
	for i := range out {
		v, err := h.Memory.Read(address + uint16(i))
		if err != nil {
			h.t.Fatalf("peek 0x%03X: %v", address+uint16(i), err)
		}
		out[i] = v
	}
	return out
}

// newCaptureLogger returns a logger writing plain records to buf
func newCaptureLogger(buf *bytes.Buffer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = buf
	cfg.TimeFormat = "-"
	return log.NewWithConfig(cfg)
}
