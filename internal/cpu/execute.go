package cpu

import (
	"gochip8/internal/memory"
)

// execute runs a decoded instruction. PC already points past it.
func (cpu *CPU) execute(ins Instruction) error {
	switch ins.Op {
	case OpClearScreen:
		cpu.clearScreen()
	case OpReturn:
		return cpu.ret()
	case OpJump:
		cpu.PC = ins.NNN
	case OpCall:
		return cpu.call(ins.NNN)

	case OpSkipEqualImm:
		cpu.skipIf(cpu.V[ins.X] == ins.NN)
	case OpSkipNotEqualImm:
		cpu.skipIf(cpu.V[ins.X] != ins.NN)
	case OpSkipEqualReg:
		cpu.skipIf(cpu.V[ins.X] == cpu.V[ins.Y])
	case OpSkipNotEqualReg:
		cpu.skipIf(cpu.V[ins.X] != cpu.V[ins.Y])

	case OpSetRegister:
		cpu.V[ins.X] = ins.NN
	case OpAddRegister:
		cpu.V[ins.X] += ins.NN

	case OpMove, OpOr, OpAnd, OpXor, OpAddCarry, OpSub, OpShiftRight, OpSubReverse, OpShiftLeft:
		cpu.alu(ins)

	case OpSetIndex:
		cpu.I = ins.NNN
	case OpJumpOffset:
		reg := uint8(0)
		if cpu.quirks.JumpUsesVX {
			reg = ins.X
		}
		cpu.PC = ins.NNN + uint16(cpu.V[reg])
	case OpRandom:
		cpu.V[ins.X] = cpu.randomByte() & ins.NN
	case OpDraw:
		return cpu.draw(ins)

	case OpSkipKeyPressed:
		cpu.skipIf(cpu.keys.IsPressed(cpu.V[ins.X] & 0x0F))
	case OpSkipKeyNotPressed:
		cpu.skipIf(!cpu.keys.IsPressed(cpu.V[ins.X] & 0x0F))
	case OpWaitKey:
		cpu.waitForKey(ins.X)

	case OpGetDelay:
		cpu.V[ins.X] = cpu.DelayTimer
	case OpSetDelay:
		cpu.DelayTimer = cpu.V[ins.X]
	case OpSetSound:
		cpu.SoundTimer = cpu.V[ins.X]

	case OpAddIndex:
		cpu.I += uint16(cpu.V[ins.X])
	case OpFontChar:
		cpu.I = memory.GlyphAddress(cpu.V[ins.X])
	case OpBCD:
		return cpu.storeBCD(cpu.V[ins.X])
	case OpStoreRegisters:
		return cpu.storeRegisters(ins.X)
	case OpLoadRegisters:
		return cpu.loadRegisters(ins.X)

	default:
		return ErrIllegalOpcode
	}
	return nil
}

func (cpu *CPU) skipIf(cond bool) {
	if cond {
		cpu.PC += instrSize
	}
}

func (cpu *CPU) call(target uint16) error {
	if cpu.SP >= StackDepth {
		return ErrStackOverflow
	}
	cpu.Stack[cpu.SP] = cpu.PC
	cpu.SP++
	cpu.PC = target
	return nil
}

func (cpu *CPU) ret() error {
	if cpu.SP == 0 {
		return ErrStackUnderflow
	}
	cpu.SP--
	cpu.PC = cpu.Stack[cpu.SP]
	cpu.Stack[cpu.SP] = 0
	return nil
}

// alu executes the 8XYN register group. VF is always written last so
// that it holds the flag even when it is one of the operands.
func (cpu *CPU) alu(ins Instruction) {
	vx, vy := cpu.V[ins.X], cpu.V[ins.Y]

	switch ins.Op {
	case OpMove:
		cpu.V[ins.X] = vy
	case OpOr:
		cpu.V[ins.X] = vx | vy
		cpu.logicFlag()
	case OpAnd:
		cpu.V[ins.X] = vx & vy
		cpu.logicFlag()
	case OpXor:
		cpu.V[ins.X] = vx ^ vy
		cpu.logicFlag()
	case OpAddCarry:
		sum := uint16(vx) + uint16(vy)
		cpu.V[ins.X] = uint8(sum)
		cpu.V[flagRegister] = uint8(sum >> 8)
	case OpSub:
		cpu.V[ins.X] = vx - vy
		cpu.V[flagRegister] = boolToFlag(vx >= vy)
	case OpSubReverse:
		cpu.V[ins.X] = vy - vx
		cpu.V[flagRegister] = boolToFlag(vy >= vx)
	case OpShiftRight:
		src := vx
		if cpu.quirks.ShiftUsesVY {
			src = vy
		}
		cpu.V[ins.X] = src >> 1
		cpu.V[flagRegister] = src & 0x01
	case OpShiftLeft:
		src := vx
		if cpu.quirks.ShiftUsesVY {
			src = vy
		}
		cpu.V[ins.X] = src << 1
		cpu.V[flagRegister] = src >> 7
	}
}

func (cpu *CPU) logicFlag() {
	if cpu.quirks.LogicResetsVF {
		cpu.V[flagRegister] = 0
	}
}

// waitForKey implements FX0A. The instruction re-executes until a key
// has been pressed and released again; the released key is stored in VX.
func (cpu *CPU) waitForKey(x uint8) {
	if cpu.waitKey != noKey {
		if !cpu.keys.IsPressed(uint8(cpu.waitKey)) {
			cpu.V[x] = uint8(cpu.waitKey)
			cpu.waitKey = noKey
			return
		}
		cpu.PC -= instrSize
		return
	}

	for key := range uint8(NumKeys) {
		if cpu.keys.IsPressed(key) {
			cpu.waitKey = int(key)
			break
		}
	}
	cpu.PC -= instrSize
}

func (cpu *CPU) storeBCD(value uint8) error {
	return cpu.writeIndexed([]uint8{value / 100, (value / 10) % 10, value % 10})
}

func (cpu *CPU) storeRegisters(x uint8) error {
	if err := cpu.writeIndexed(cpu.V[:int(x)+1]); err != nil {
		return err
	}
	if cpu.quirks.LoadStoreIncrementsI {
		cpu.I += uint16(x) + 1
	}
	return nil
}

func (cpu *CPU) loadRegisters(x uint8) error {
	var values [NumRegisters]uint8
	if err := cpu.readIndexed(values[:int(x)+1]); err != nil {
		return err
	}
	copy(cpu.V[:], values[:int(x)+1])
	if cpu.quirks.LoadStoreIncrementsI {
		cpu.I += uint16(x) + 1
	}
	return nil
}

// writeChecker is implemented by memories that can validate a write
// range up front.
type writeChecker interface {
	CheckWrite(address uint16, length int) error
}

// writeIndexed stores data at I, I+1, ... Every address is validated
// before the first byte is written, a faulting store changes nothing.
func (cpu *CPU) writeIndexed(data []uint8) error {
	if _, err := cpu.indexOffset(len(data) - 1); err != nil {
		return err
	}
	if checker, ok := cpu.memory.(writeChecker); ok {
		if err := checker.CheckWrite(cpu.I, len(data)); err != nil {
			return err
		}
	}
	for i, value := range data {
		if err := cpu.memory.Write(cpu.I+uint16(i), value); err != nil {
			return err
		}
	}
	return nil
}

// readIndexed fills dst from I, I+1, ...
func (cpu *CPU) readIndexed(dst []uint8) error {
	for i := range dst {
		addr, err := cpu.indexOffset(i)
		if err != nil {
			return err
		}
		if dst[i], err = cpu.memory.Read(addr); err != nil {
			return err
		}
	}
	return nil
}

// indexOffset returns I+offset, rejecting addresses that do not fit
// into 16 bits.
func (cpu *CPU) indexOffset(offset int) (uint16, error) {
	addr := int(cpu.I) + offset
	if addr > 0xFFFF {
		return 0, &memory.AccessError{Address: cpu.I, Err: memory.ErrOutOfRange}
	}
	return uint16(addr), nil
}

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
