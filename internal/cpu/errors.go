package cpu

import (
	"errors"
	"fmt"

	"gochip8/internal/memory"
)

// FaultKind classifies a fatal execution error
type FaultKind int

const (
	FaultIllegalOpcode FaultKind = iota + 1
	FaultStackOverflow
	FaultStackUnderflow
	FaultAddressOutOfRange
	FaultProtectedWrite
)

// Sentinel errors, one per fault kind. A *Fault matches its kind's
// sentinel with errors.Is.
var (
	ErrIllegalOpcode     = errors.New("illegal opcode")
	ErrStackOverflow     = errors.New("stack overflow")
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrAddressOutOfRange = errors.New("address out of range")
	ErrProtectedWrite    = errors.New("write to protected memory")
)

func (k FaultKind) String() string {
	switch k {
	case FaultIllegalOpcode:
		return "IllegalOpcode"
	case FaultStackOverflow:
		return "StackOverflow"
	case FaultStackUnderflow:
		return "StackUnderflow"
	case FaultAddressOutOfRange:
		return "AddressOutOfRange"
	case FaultProtectedWrite:
		return "ProtectedWrite"
	default:
		return fmt.Sprintf("FaultKind(%d)", int(k))
	}
}

func (k FaultKind) sentinel() error {
	switch k {
	case FaultIllegalOpcode:
		return ErrIllegalOpcode
	case FaultStackOverflow:
		return ErrStackOverflow
	case FaultStackUnderflow:
		return ErrStackUnderflow
	case FaultAddressOutOfRange:
		return ErrAddressOutOfRange
	case FaultProtectedWrite:
		return ErrProtectedWrite
	default:
		return nil
	}
}

// Fault is returned by Step when the machine halts
type Fault struct {
	Kind    FaultKind
	PC      uint16 // address of the faulting instruction
	Opcode  uint16
	Address uint16 // offending memory address for memory faults
	Err     error  // underlying cause, if any
}

func (f *Fault) Error() string {
	switch f.Kind {
	case FaultAddressOutOfRange, FaultProtectedWrite:
		return fmt.Sprintf("%s at PC=0x%03X (opcode 0x%04X, address 0x%04X)", f.Kind, f.PC, f.Opcode, f.Address)
	default:
		return fmt.Sprintf("%s at PC=0x%03X (opcode 0x%04X)", f.Kind, f.PC, f.Opcode)
	}
}

func (f *Fault) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := f.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// newFault classifies an execution error into a Fault.
func newFault(pc, opcode uint16, err error) *Fault {
	f := &Fault{PC: pc, Opcode: opcode}

	var access *memory.AccessError
	switch {
	case errors.As(err, &access):
		f.Address = access.Address
		f.Err = err
		if errors.Is(err, memory.ErrProtected) {
			f.Kind = FaultProtectedWrite
		} else {
			f.Kind = FaultAddressOutOfRange
		}
	case errors.Is(err, ErrStackOverflow):
		f.Kind = FaultStackOverflow
	case errors.Is(err, ErrStackUnderflow):
		f.Kind = FaultStackUnderflow
	case errors.Is(err, ErrIllegalOpcode):
		f.Kind = FaultIllegalOpcode
	case errors.Is(err, memory.ErrProtected), errors.Is(err, ErrProtectedWrite):
		f.Kind = FaultProtectedWrite
		f.Err = err
	default:
		f.Kind = FaultAddressOutOfRange
		f.Err = err
	}
	return f
}
