package cpu

import "fmt"

// Op identifies a decoded instruction kind
type Op uint8

const (
	OpUnknown Op = iota
	OpClearScreen
	OpReturn
	OpJump
	OpCall
	OpSkipEqualImm
	OpSkipNotEqualImm
	OpSkipEqualReg
	OpSetRegister
	OpAddRegister
	OpMove
	OpOr
	OpAnd
	OpXor
	OpAddCarry
	OpSub
	OpShiftRight
	OpSubReverse
	OpShiftLeft
	OpSkipNotEqualReg
	OpSetIndex
	OpJumpOffset
	OpRandom
	OpDraw
	OpSkipKeyPressed
	OpSkipKeyNotPressed
	OpGetDelay
	OpWaitKey
	OpSetDelay
	OpSetSound
	OpAddIndex
	OpFontChar
	OpBCD
	OpStoreRegisters
	OpLoadRegisters

	opCount
)

var opNames = [opCount]string{
	OpUnknown:           "Unknown",
	OpClearScreen:       "ClearScreen",
	OpReturn:            "Return",
	OpJump:              "Jump",
	OpCall:              "Call",
	OpSkipEqualImm:      "SkipEqualImm",
	OpSkipNotEqualImm:   "SkipNotEqualImm",
	OpSkipEqualReg:      "SkipEqualReg",
	OpSetRegister:       "SetRegister",
	OpAddRegister:       "AddRegister",
	OpMove:              "Move",
	OpOr:                "Or",
	OpAnd:               "And",
	OpXor:               "Xor",
	OpAddCarry:          "AddCarry",
	OpSub:               "Sub",
	OpShiftRight:        "ShiftRight",
	OpSubReverse:        "SubReverse",
	OpShiftLeft:         "ShiftLeft",
	OpSkipNotEqualReg:   "SkipNotEqualReg",
	OpSetIndex:          "SetIndex",
	OpJumpOffset:        "JumpOffset",
	OpRandom:            "Random",
	OpDraw:              "Draw",
	OpSkipKeyPressed:    "SkipKeyPressed",
	OpSkipKeyNotPressed: "SkipKeyNotPressed",
	OpGetDelay:          "GetDelay",
	OpWaitKey:           "WaitKey",
	OpSetDelay:          "SetDelay",
	OpSetSound:          "SetSound",
	OpAddIndex:          "AddIndex",
	OpFontChar:          "FontChar",
	OpBCD:               "BCD",
	OpStoreRegisters:    "StoreRegisters",
	OpLoadRegisters:     "LoadRegisters",
}

func (op Op) String() string {
	if op >= opCount {
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
	return opNames[op]
}

// Instruction is a decoded 16-bit opcode. Operand fields that the
// instruction kind does not use are still filled from the raw word.
type Instruction struct {
	Op  Op
	Raw uint16

	X   uint8  // second nibble, register index
	Y   uint8  // third nibble, register index
	N   uint8  // fourth nibble
	NN  uint8  // low byte
	NNN uint16 // low 12 bits, address
}

// Nibbles splits an opcode word into its four 4-bit fields, most
// significant first.
func Nibbles(word uint16) [4]uint8 {
	return [4]uint8{
		uint8(word>>12) & 0x0F,
		uint8(word>>8) & 0x0F,
		uint8(word>>4) & 0x0F,
		uint8(word) & 0x0F,
	}
}

// Decode classifies a 16-bit word. It is total: every word yields an
// Instruction, unrecognized patterns decode as OpUnknown.
func Decode(word uint16) Instruction {
	n := Nibbles(word)
	ins := Instruction{
		Raw: word,
		X:   n[1],
		Y:   n[2],
		N:   n[3],
		NN:  uint8(word),
		NNN: word & 0x0FFF,
	}

	switch n[0] {
	case 0x0:
		switch word {
		case 0x00E0:
			ins.Op = OpClearScreen
		case 0x00EE:
			ins.Op = OpReturn
		}
	case 0x1:
		ins.Op = OpJump
	case 0x2:
		ins.Op = OpCall
	case 0x3:
		ins.Op = OpSkipEqualImm
	case 0x4:
		ins.Op = OpSkipNotEqualImm
	case 0x5:
		if n[3] == 0 {
			ins.Op = OpSkipEqualReg
		}
	case 0x6:
		ins.Op = OpSetRegister
	case 0x7:
		ins.Op = OpAddRegister
	case 0x8:
		ins.Op = decodeALU(n[3])
	case 0x9:
		if n[3] == 0 {
			ins.Op = OpSkipNotEqualReg
		}
	case 0xA:
		ins.Op = OpSetIndex
	case 0xB:
		ins.Op = OpJumpOffset
	case 0xC:
		ins.Op = OpRandom
	case 0xD:
		ins.Op = OpDraw
	case 0xE:
		switch ins.NN {
		case 0x9E:
			ins.Op = OpSkipKeyPressed
		case 0xA1:
			ins.Op = OpSkipKeyNotPressed
		}
	case 0xF:
		ins.Op = decodeMisc(ins.NN)
	}

	return ins
}

func decodeALU(variant uint8) Op {
	switch variant {
	case 0x0:
		return OpMove
	case 0x1:
		return OpOr
	case 0x2:
		return OpAnd
	case 0x3:
		return OpXor
	case 0x4:
		return OpAddCarry
	case 0x5:
		return OpSub
	case 0x6:
		return OpShiftRight
	case 0x7:
		return OpSubReverse
	case 0xE:
		return OpShiftLeft
	}
	return OpUnknown
}

func decodeMisc(low uint8) Op {
	switch low {
	case 0x07:
		return OpGetDelay
	case 0x0A:
		return OpWaitKey
	case 0x15:
		return OpSetDelay
	case 0x18:
		return OpSetSound
	case 0x1E:
		return OpAddIndex
	case 0x29:
		return OpFontChar
	case 0x33:
		return OpBCD
	case 0x55:
		return OpStoreRegisters
	case 0x65:
		return OpLoadRegisters
	}
	return OpUnknown
}
