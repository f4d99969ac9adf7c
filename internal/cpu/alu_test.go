package cpu

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestCPU_ALU(t *testing.T) {
	tests := []struct {
		name   string
		quirks Quirks
		word   uint16
		vx, vy uint8
		wantVX uint8
		wantVF uint8
	}{
		{"move", DefaultQuirks(), 0x8120, 0x11, 0x22, 0x22, 0xEE},
		{"or resets vf", DefaultQuirks(), 0x8121, 0xF0, 0x0F, 0xFF, 0},
		{"and resets vf", DefaultQuirks(), 0x8122, 0xF0, 0x3C, 0x30, 0},
		{"xor resets vf", DefaultQuirks(), 0x8123, 0xFF, 0x0F, 0xF0, 0},
		{"or keeps vf", CHIP48Quirks(), 0x8121, 0xF0, 0x0F, 0xFF, 0xEE},
		{"add no carry", DefaultQuirks(), 0x8124, 0x10, 0x20, 0x30, 0},
		{"add carry", DefaultQuirks(), 0x8124, 0xFF, 0x02, 0x01, 1},
		{"sub no borrow", DefaultQuirks(), 0x8125, 0x30, 0x10, 0x20, 1},
		{"sub equal", DefaultQuirks(), 0x8125, 0x30, 0x30, 0x00, 1},
		{"sub borrow", DefaultQuirks(), 0x8125, 0x10, 0x30, 0xE0, 0},
		{"subn no borrow", DefaultQuirks(), 0x8127, 0x10, 0x30, 0x20, 1},
		{"subn borrow", DefaultQuirks(), 0x8127, 0x30, 0x10, 0xE0, 0},
		{"shr uses vy", DefaultQuirks(), 0x8126, 0x00, 0x05, 0x02, 1},
		{"shr in place", CHIP48Quirks(), 0x8126, 0x04, 0xFF, 0x02, 0},
		{"shl uses vy", DefaultQuirks(), 0x812E, 0x00, 0x81, 0x02, 1},
		{"shl in place", CHIP48Quirks(), 0x812E, 0x40, 0xFF, 0x80, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCPUTestHelper(t, WithQuirks(tt.quirks))
			h.CPU.V[1] = tt.vx
			h.CPU.V[2] = tt.vy
			h.CPU.V[0xF] = 0xEE
			h.Run(tt.word)

			assert.Equal(t, tt.wantVX, h.CPU.V[1], "VX")
			assert.Equal(t, tt.wantVF, h.CPU.V[0xF], "VF")
			assert.Equal(t, tt.vy, h.CPU.V[2], "VY must be unchanged")
		})
	}
}

func TestCPU_ALUFlagWrittenLast(t *testing.T) {
	tests := []struct {
		name   string
		word   uint16
		vf, vy uint8
		wantVF uint8
	}{
		// VF is the destination: the flag wins over the result
		{"add carry into vf", 0x8F14, 0xFF, 0x01, 1},
		{"add no carry into vf", 0x8F14, 0x01, 0x01, 0},
		{"sub into vf", 0x8F15, 0x05, 0x01, 1},
		{"shr into vf", 0x8F16, 0x00, 0x02, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCPUTestHelper(t)
			h.CPU.V[0xF] = tt.vf
			h.CPU.V[1] = tt.vy
			h.Run(tt.word)

			assert.Equal(t, tt.wantVF, h.CPU.V[0xF])
		})
	}
}
