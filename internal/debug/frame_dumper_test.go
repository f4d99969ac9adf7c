package debug

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gochip8/internal/display"

	"github.com/retroenv/retrogolib/assert"
	"golang.org/x/image/bmp"
)

func testFrame() *display.Frame {
	s := display.New()
	s.SetPixel(0, 0, true)
	s.SetPixel(63, 31, true)
	f := s.Snapshot()
	return &f
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"png": FormatPNG, ".BMP": FormatBMP, "txt": FormatText, "text": FormatText} {
		got, err := ParseFormat(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("gif")
	assert.Error(t, err)

	assert.Equal(t, FormatBMP, FormatForPath("/tmp/shot.bmp"))
	assert.Equal(t, FormatPNG, FormatForPath("/tmp/shot"))
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteText(&buf, testFrame(), 7))

	out := buf.String()
	assert.Contains(t, out, "Frame Number: 7")
	assert.Contains(t, out, "Lit Pixels: 2")

	rows := strings.Split(strings.TrimRight(out, "\n"), "\n")
	pixels := rows[len(rows)-display.Height:]
	assert.Equal(t, "#"+strings.Repeat(".", display.Width-1), pixels[0])
	assert.Equal(t, strings.Repeat(".", display.Width-1)+"#", pixels[display.Height-1])
}

func TestFrameDumper_Images(t *testing.T) {
	fd := NewFrameDumper(t.TempDir())
	fd.SetScale(2)

	var pngBuf bytes.Buffer
	assert.NoError(t, fd.Write(&pngBuf, FormatPNG, testFrame(), 0))
	img, err := png.Decode(&pngBuf)
	assert.NoError(t, err)
	assert.Equal(t, display.Width*2, img.Bounds().Dx())

	var bmpBuf bytes.Buffer
	assert.NoError(t, fd.Write(&bmpBuf, FormatBMP, testFrame(), 0))
	img, err = bmp.Decode(&bmpBuf)
	assert.NoError(t, err)
	assert.Equal(t, display.Height*2, img.Bounds().Dy())

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), r&g&b)
}

func TestFrameDumper_DumpFrame(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	fd := NewFrameDumper(dir)
	fd.SetFormat(FormatText)
	fd.SetDumpInterval(2)
	fd.SetMaxDumps(2)

	path, err := fd.DumpFrame(testFrame(), 0)
	assert.NoError(t, err)
	assert.Equal(t, "", path, "disabled dumper writes nothing")

	assert.NoError(t, fd.Enable())

	var written []string
	for frame := range uint64(8) {
		path, err := fd.DumpFrame(testFrame(), frame)
		assert.NoError(t, err)
		if path != "" {
			written = append(written, path)
		}
	}
	assert.Len(t, written, 2)

	data, err := os.ReadFile(written[1])
	assert.NoError(t, err)
	assert.Contains(t, string(data), "Frame Number: 2")
}
