// Package memory implements the 4KB CHIP-8 address space.
package memory

import (
	"errors"
	"fmt"
)

// Memory layout constants
const (
	// Size is the total number of addressable bytes
	Size = 0x1000
	// MaxAddress is the highest valid address
	MaxAddress = Size - 1
	// ProgramStart is where loaded programs begin and execution starts
	ProgramStart = 0x200
	// ProgramSize is the room available for a program image (3584 bytes)
	ProgramSize = Size - ProgramStart
	// FontBase is where the hexadecimal digit glyphs are stored
	FontBase = 0x050
	// GlyphHeight is the number of bytes (rows) of one font glyph
	GlyphHeight = 5
)

var (
	// ErrOutOfRange is returned for accesses beyond MaxAddress.
	ErrOutOfRange = errors.New("address out of range")
	// ErrProtected is returned for writes into the reserved system area.
	ErrProtected = errors.New("write to reserved system area")
)

// Font holds the 16 hexadecimal digit glyphs, 5 rows each.
var Font = [16 * GlyphHeight]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// AccessError describes a rejected memory access
type AccessError struct {
	Address uint16
	Write   bool
	Err     error
}

func (e *AccessError) Error() string {
	op := "read"
	if e.Write {
		op = "write"
	}
	return fmt.Sprintf("memory %s at 0x%04X: %v", op, e.Address, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// Memory represents the CHIP-8 main memory
type Memory struct {
	data [Size]uint8

	// Number of program bytes installed by the last Load
	programLength int
}

// New creates a new Memory instance with the font table installed
func New() *Memory {
	mem := &Memory{}
	mem.Reset()
	return mem
}

// Reset zeroes memory and reinstalls the font glyphs
func (m *Memory) Reset() {
	m.data = [Size]uint8{}
	copy(m.data[FontBase:], Font[:])
	m.programLength = 0
}

// Read returns the byte stored at address
func (m *Memory) Read(address uint16) (uint8, error) {
	if address > MaxAddress {
		return 0, &AccessError{Address: address, Err: ErrOutOfRange}
	}
	return m.data[address], nil
}

// Write stores a byte at address. The reserved area below ProgramStart
// is read-only for programs.
func (m *Memory) Write(address uint16, value uint8) error {
	if err := checkWrite(address); err != nil {
		return err
	}
	m.data[address] = value
	return nil
}

// CheckWrite returns the error the first rejected write of length bytes
// starting at address would return, without writing anything.
func (m *Memory) CheckWrite(address uint16, length int) error {
	for i := range length {
		addr := int(address) + i
		if addr > 0xFFFF {
			return &AccessError{Address: address, Write: true, Err: ErrOutOfRange}
		}
		if err := checkWrite(uint16(addr)); err != nil {
			return err
		}
	}
	return nil
}

func checkWrite(address uint16) error {
	if address > MaxAddress {
		return &AccessError{Address: address, Write: true, Err: ErrOutOfRange}
	}
	if address < ProgramStart {
		return &AccessError{Address: address, Write: true, Err: ErrProtected}
	}
	return nil
}

// ReadWord reads a big-endian 16-bit word
func (m *Memory) ReadWord(address uint16) (uint16, error) {
	high, err := m.Read(address)
	if err != nil {
		return 0, err
	}
	low, err := m.Read(address + 1)
	if err != nil {
		return 0, err
	}
	return uint16(high)<<8 | uint16(low), nil
}

// Load installs a program image at ProgramStart. Images larger than
// ProgramSize are truncated silently; the number of bytes actually
// installed is returned.
func (m *Memory) Load(program []byte) int {
	// Clear any previous image so a shorter program does not inherit bytes
	for i := ProgramStart; i < Size; i++ {
		m.data[i] = 0
	}
	n := copy(m.data[ProgramStart:], program)
	m.programLength = n
	return n
}

// ProgramLength returns the size of the currently loaded program image
func (m *Memory) ProgramLength() int {
	return m.programLength
}

// GlyphAddress returns the address of the font glyph for a hex digit
func GlyphAddress(digit uint8) uint16 {
	return FontBase + uint16(digit&0x0F)*GlyphHeight
}
