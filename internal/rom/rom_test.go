package rom

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestLoad(t *testing.T) {
	data := []byte{0x00, 0xE0, 0xA2, 0x2A, 0x60, 0x0C}

	p, err := Load(bytes.NewReader(data), "ibm")
	assert.NoError(t, err)
	assert.Equal(t, "ibm", p.Name)
	assert.Equal(t, len(data), p.Size)
	assert.False(t, p.Truncated)
	assert.Equal(t, data, p.Data)
	assert.Equal(t, "ibm (6 bytes)", p.String())
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load(bytes.NewReader(nil), "empty")
	assert.True(t, errors.Is(err, ErrEmptyProgram))
}

func TestLoad_Truncates(t *testing.T) {
	data := bytes.Repeat([]byte{0x12}, MaxSize+10)

	p, err := LoadBytes(data, "big")
	assert.NoError(t, err)
	assert.True(t, p.Truncated)
	assert.Equal(t, MaxSize+10, p.Size)
	assert.Len(t, p.Data, MaxSize)
	assert.Equal(t, "big (3594 bytes, truncated to 3584)", p.String())
}

func TestLoadBytes_Copies(t *testing.T) {
	data := []byte{0x12, 0x00}
	p, err := LoadBytes(data, "x")
	assert.NoError(t, err)

	data[0] = 0xFF
	assert.Equal(t, uint8(0x12), p.Data[0])
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "maze.ch8")
	assert.NoError(t, os.WriteFile(path, []byte{0x12, 0x00}, 0o644))

	p, err := LoadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "maze", p.Name)

	_, err = LoadFile(filepath.Join(dir, "missing.ch8"))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_ReadsBoundedPrefix(t *testing.T) {
	src := &countingReader{r: bytes.NewReader(bytes.Repeat([]byte{0x12}, 3*MaxSize))}

	p, err := Load(src, "stream")
	assert.NoError(t, err)
	assert.True(t, p.Truncated)
	assert.Len(t, p.Data, MaxSize)
	assert.Equal(t, MaxSize+1, src.n, "only one byte past the limit is read")
}

func TestLoadFile_TruncatedReportsFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.ch8")
	assert.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0x12}, MaxSize+100), 0o644))

	p, err := LoadFile(path)
	assert.NoError(t, err)
	assert.True(t, p.Truncated)
	assert.Equal(t, MaxSize+100, p.Size)
	assert.Len(t, p.Data, MaxSize)
}

// countingReader counts the bytes handed out by r
type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}
