// Package rom implements loading of CHIP-8 program images.
package rom

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gochip8/internal/memory"
)

// MaxSize is the largest program that fits into memory
const MaxSize = memory.ProgramSize

// ErrEmptyProgram is returned for images without any bytes
var ErrEmptyProgram = errors.New("program image is empty")

// Program is a raw program image ready to be installed at 0x200
type Program struct {
	Name string
	Data []byte

	// Size is the size of the source image, which may exceed len(Data)
	Size int
	// Truncated is set when the image was larger than MaxSize
	Truncated bool
}

// LoadFile loads a program from a file
func LoadFile(filename string) (*Program, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening program file: %w", err)
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	p, err := Load(file, name)
	if err != nil {
		return nil, err
	}
	if info, err := file.Stat(); err == nil && p.Truncated {
		p.Size = int(info.Size())
	}
	return p, nil
}

// Load reads a program image from a reader. At most MaxSize+1 bytes are
// read, larger images are truncated and flagged. Size is then only a
// lower bound of the source size.
func Load(r io.Reader, name string) (*Program, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading program image: %w", err)
	}
	return LoadBytes(data, name)
}

// LoadBytes wraps an in-memory program image
func LoadBytes(data []byte, name string) (*Program, error) {
	if len(data) == 0 {
		return nil, ErrEmptyProgram
	}

	p := &Program{
		Name: name,
		Size: len(data),
	}
	if len(data) > MaxSize {
		data = data[:MaxSize]
		p.Truncated = true
	}
	p.Data = make([]byte, len(data))
	copy(p.Data, data)
	return p, nil
}

func (p *Program) String() string {
	if p.Truncated {
		return fmt.Sprintf("%s (%d bytes, truncated to %d)", p.Name, p.Size, len(p.Data))
	}
	return fmt.Sprintf("%s (%d bytes)", p.Name, len(p.Data))
}
