// Package debug provides disassembly, instruction tracing and frame
// dumping utilities.
package debug

import (
	"fmt"
	"strings"

	"gochip8/internal/cpu"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// opMnemonics names each decoded instruction kind the way the CHIP-8
// assembler tradition does, used when the opcode table has no entry
var opMnemonics = map[cpu.Op]string{
	cpu.OpClearScreen:       "cls",
	cpu.OpReturn:            "ret",
	cpu.OpJump:              "jp",
	cpu.OpCall:              "call",
	cpu.OpSkipEqualImm:      "se",
	cpu.OpSkipNotEqualImm:   "sne",
	cpu.OpSkipEqualReg:      "se",
	cpu.OpSetRegister:       "ld",
	cpu.OpAddRegister:       "add",
	cpu.OpMove:              "ld",
	cpu.OpOr:                "or",
	cpu.OpAnd:               "and",
	cpu.OpXor:               "xor",
	cpu.OpAddCarry:          "add",
	cpu.OpSub:               "sub",
	cpu.OpShiftRight:        "shr",
	cpu.OpSubReverse:        "subn",
	cpu.OpShiftLeft:         "shl",
	cpu.OpSkipNotEqualReg:   "sne",
	cpu.OpSetIndex:          "ld",
	cpu.OpJumpOffset:        "jp",
	cpu.OpRandom:            "rnd",
	cpu.OpDraw:              "drw",
	cpu.OpSkipKeyPressed:    "skp",
	cpu.OpSkipKeyNotPressed: "sknp",
	cpu.OpGetDelay:          "ld",
	cpu.OpWaitKey:           "ld",
	cpu.OpSetDelay:          "ld",
	cpu.OpSetSound:          "ld",
	cpu.OpAddIndex:          "add",
	cpu.OpFontChar:          "ld",
	cpu.OpBCD:               "ld",
	cpu.OpStoreRegisters:    "ld",
	cpu.OpLoadRegisters:     "ld",
}

// Line is one disassembled instruction
type Line struct {
	Address     uint16
	Opcode      uint16
	Instruction cpu.Instruction
	Mnemonic    string
	Operands    string
}

// Known reports whether the word is a valid instruction
func (l Line) Known() bool {
	return l.Instruction.Op != cpu.OpUnknown
}

// Text returns the assembly text without address and opcode
func (l Line) Text() string {
	if l.Operands == "" {
		return l.Mnemonic
	}
	return l.Mnemonic + " " + l.Operands
}

func (l Line) String() string {
	return fmt.Sprintf("%03X  %04X  %s", l.Address, l.Opcode, l.Text())
}

// lookupOpcode finds the opcode table entry matching a word
func lookupOpcode(word uint16) (chip8.Opcode, bool) {
	firstNibble := (word & 0xF000) >> 12
	for _, op := range chip8.Opcodes[int(firstNibble)] {
		if op.Info.Mask&word == op.Info.Value {
			return op, op.Instruction != nil
		}
	}
	return chip8.Opcode{}, false
}

// DisassembleWord disassembles a single instruction word located at address
func DisassembleWord(address, word uint16) Line {
	ins := cpu.Decode(word)
	line := Line{
		Address:     address,
		Opcode:      word,
		Instruction: ins,
	}

	if ins.Op == cpu.OpUnknown {
		line.Mnemonic = "dw"
		line.Operands = fmt.Sprintf("$%04X", word)
		return line
	}

	if op, ok := lookupOpcode(word); ok {
		line.Mnemonic = op.Instruction.Name
	} else {
		line.Mnemonic = opMnemonics[ins.Op]
	}
	line.Operands = formatOperands(ins)
	return line
}

// Disassemble decodes a byte slice as a sequence of 2-byte instructions
// starting at base. A trailing odd byte is emitted as a data byte.
func Disassemble(data []byte, base uint16) []Line {
	lines := make([]Line, 0, (len(data)+1)/2)
	for i := 0; i+1 < len(data); i += 2 {
		word := uint16(data[i])<<8 | uint16(data[i+1])
		lines = append(lines, DisassembleWord(base+uint16(i), word))
	}
	if len(data)%2 == 1 {
		last := len(data) - 1
		lines = append(lines, Line{
			Address:  base + uint16(last),
			Opcode:   uint16(data[last]),
			Mnemonic: "db",
			Operands: fmt.Sprintf("$%02X", data[last]),
		})
	}
	return lines
}

// Listing renders lines as a multi-line listing
func Listing(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatOperands(ins cpu.Instruction) string {
	switch ins.Op {
	case cpu.OpClearScreen, cpu.OpReturn:
		return ""
	case cpu.OpJump, cpu.OpCall:
		return fmt.Sprintf("$%03X", ins.NNN)
	case cpu.OpJumpOffset:
		return fmt.Sprintf("V0, $%03X", ins.NNN)
	case cpu.OpSetIndex:
		return fmt.Sprintf("I, $%03X", ins.NNN)
	case cpu.OpSkipEqualImm, cpu.OpSkipNotEqualImm, cpu.OpSetRegister, cpu.OpAddRegister, cpu.OpRandom:
		return fmt.Sprintf("V%X, $%02X", ins.X, ins.NN)
	case cpu.OpShiftRight, cpu.OpShiftLeft, cpu.OpSkipKeyPressed, cpu.OpSkipKeyNotPressed:
		return fmt.Sprintf("V%X", ins.X)
	case cpu.OpDraw:
		return fmt.Sprintf("V%X, V%X, $%X", ins.X, ins.Y, ins.N)
	case cpu.OpGetDelay:
		return fmt.Sprintf("V%X, DT", ins.X)
	case cpu.OpWaitKey:
		return fmt.Sprintf("V%X, K", ins.X)
	case cpu.OpSetDelay:
		return fmt.Sprintf("DT, V%X", ins.X)
	case cpu.OpSetSound:
		return fmt.Sprintf("ST, V%X", ins.X)
	case cpu.OpAddIndex:
		return fmt.Sprintf("I, V%X", ins.X)
	case cpu.OpFontChar:
		return fmt.Sprintf("F, V%X", ins.X)
	case cpu.OpBCD:
		return fmt.Sprintf("B, V%X", ins.X)
	case cpu.OpStoreRegisters:
		return fmt.Sprintf("[I], V%X", ins.X)
	case cpu.OpLoadRegisters:
		return fmt.Sprintf("V%X, [I]", ins.X)
	default:
		return fmt.Sprintf("V%X, V%X", ins.X, ins.Y)
	}
}
