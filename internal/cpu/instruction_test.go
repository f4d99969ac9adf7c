package cpu

import (
	"fmt"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDecode_Total(t *testing.T) {
	for w := range 0x10000 {
		word := uint16(w)
		ins := Decode(word)

		if ins.Raw != word {
			t.Fatalf("Decode(0x%04X).Raw = 0x%04X", word, ins.Raw)
		}
		if ins.Op >= opCount {
			t.Fatalf("Decode(0x%04X) produced invalid op %d", word, ins.Op)
		}
		if ins.NNN != word&0x0FFF || ins.NN != uint8(word) {
			t.Fatalf("Decode(0x%04X) operand mismatch: %+v", word, ins)
		}
		if ins.X != uint8(word>>8)&0xF || ins.Y != uint8(word>>4)&0xF || ins.N != uint8(word)&0xF {
			t.Fatalf("Decode(0x%04X) nibble mismatch: %+v", word, ins)
		}
	}
}

func TestDecode_Classification(t *testing.T) {
	tests := []struct {
		word uint16
		op   Op
	}{
		{0x00E0, OpClearScreen},
		{0x00EE, OpReturn},
		{0x1ABC, OpJump},
		{0x2ABC, OpCall},
		{0x3A12, OpSkipEqualImm},
		{0x4A12, OpSkipNotEqualImm},
		{0x5AB0, OpSkipEqualReg},
		{0x6A12, OpSetRegister},
		{0x7A12, OpAddRegister},
		{0x8AB0, OpMove},
		{0x8AB1, OpOr},
		{0x8AB2, OpAnd},
		{0x8AB3, OpXor},
		{0x8AB4, OpAddCarry},
		{0x8AB5, OpSub},
		{0x8AB6, OpShiftRight},
		{0x8AB7, OpSubReverse},
		{0x8ABE, OpShiftLeft},
		{0x9AB0, OpSkipNotEqualReg},
		{0xA123, OpSetIndex},
		{0xB123, OpJumpOffset},
		{0xCA12, OpRandom},
		{0xDAB5, OpDraw},
		{0xEA9E, OpSkipKeyPressed},
		{0xEAA1, OpSkipKeyNotPressed},
		{0xFA07, OpGetDelay},
		{0xFA0A, OpWaitKey},
		{0xFA15, OpSetDelay},
		{0xFA18, OpSetSound},
		{0xFA1E, OpAddIndex},
		{0xFA29, OpFontChar},
		{0xFA33, OpBCD},
		{0xFA55, OpStoreRegisters},
		{0xFA65, OpLoadRegisters},

		{0x0000, OpUnknown},
		{0x0123, OpUnknown},
		{0x00E1, OpUnknown},
		{0x5AB1, OpUnknown},
		{0x8AB8, OpUnknown},
		{0x8ABF, OpUnknown},
		{0x9AB1, OpUnknown},
		{0xE000, OpUnknown},
		{0xEA9F, OpUnknown},
		{0xF0FF, OpUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%04X", tt.word), func(t *testing.T) {
			ins := Decode(tt.word)
			assert.Equal(t, tt.op, ins.Op, "word 0x%04X", tt.word)
		})
	}
}

func TestDecode_Operands(t *testing.T) {
	ins := Decode(0xD125)
	assert.Equal(t, OpDraw, ins.Op)
	assert.Equal(t, uint8(1), ins.X)
	assert.Equal(t, uint8(2), ins.Y)
	assert.Equal(t, uint8(5), ins.N)

	ins = Decode(0x6A42)
	assert.Equal(t, uint8(0xA), ins.X)
	assert.Equal(t, uint8(0x42), ins.NN)

	ins = Decode(0x12F0)
	assert.Equal(t, uint16(0x2F0), ins.NNN)
}

func TestNibbles(t *testing.T) {
	assert.Equal(t, [4]uint8{0xD, 0x1, 0x2, 0x5}, Nibbles(0xD125))
	assert.Equal(t, [4]uint8{0, 0, 0xE, 0xE}, Nibbles(0x00EE))
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "Draw", OpDraw.String())
	assert.Equal(t, "Unknown", OpUnknown.String())
	assert.Equal(t, "Op(200)", Op(200).String())
}
