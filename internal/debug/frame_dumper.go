package debug

import (
	"bufio"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gochip8/internal/display"

	"golang.org/x/image/bmp"
)

// Format selects the output format of a frame dump
type Format string

const (
	FormatText Format = "txt"
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatText, FormatPNG, FormatBMP:
		return f, nil
	case "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported dump format %q", s)
	}
}

// FormatForPath returns the format implied by a file extension, PNG if
// the extension is not recognized
func FormatForPath(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatPNG
	}
	return f
}

// FrameDumper provides utilities for dumping frame contents
type FrameDumper struct {
	outputDir    string
	dumpEnabled  bool
	dumpCount    int
	maxDumps     int
	dumpInterval int // Dump every N frames
	format       Format
	scale        int
	palette      display.Palette
}

// NewFrameDumper creates a new frame dumper
func NewFrameDumper(outputDir string) *FrameDumper {
	return &FrameDumper{
		outputDir:    outputDir,
		maxDumps:     10,
		dumpInterval: 1,
		format:       FormatPNG,
		scale:        8,
		palette:      display.DefaultPalette(),
	}
}

// Enable activates frame dumping
func (fd *FrameDumper) Enable() error {
	if err := os.MkdirAll(fd.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating dump directory: %w", err)
	}
	fd.dumpEnabled = true
	return nil
}

// Disable deactivates frame dumping
func (fd *FrameDumper) Disable() {
	fd.dumpEnabled = false
}

// SetMaxDumps sets the maximum number of frames to dump
func (fd *FrameDumper) SetMaxDumps(n int) {
	fd.maxDumps = n
}

// SetDumpInterval sets the interval between frame dumps
func (fd *FrameDumper) SetDumpInterval(interval int) {
	if interval < 1 {
		interval = 1
	}
	fd.dumpInterval = interval
}

// SetFormat sets the file format used by DumpFrame
func (fd *FrameDumper) SetFormat(f Format) {
	fd.format = f
}

// SetScale sets the pixel scale of image dumps
func (fd *FrameDumper) SetScale(scale int) {
	if scale < 1 {
		scale = 1
	}
	fd.scale = scale
}

// SetPalette sets the colors of image dumps
func (fd *FrameDumper) SetPalette(p display.Palette) {
	fd.palette = p
}

// DumpFrame writes a frame to the output directory if dumping is enabled
// and the frame is selected by the interval and limit settings. It
// returns the written path or "" when the frame was skipped.
func (fd *FrameDumper) DumpFrame(frame *display.Frame, frameNum uint64) (string, error) {
	if !fd.dumpEnabled {
		return "", nil
	}
	if frameNum%uint64(fd.dumpInterval) != 0 {
		return "", nil
	}
	if fd.maxDumps > 0 && fd.dumpCount >= fd.maxDumps {
		return "", nil
	}

	filename := fmt.Sprintf("frame_%06d_%s.%s", frameNum, time.Now().Format("150405"), fd.format)
	path := filepath.Join(fd.outputDir, filename)
	if err := fd.WriteFile(path, frame, frameNum); err != nil {
		return "", err
	}
	fd.dumpCount++
	return path, nil
}

// WriteFile writes a frame to path in the format implied by its extension
func (fd *FrameDumper) WriteFile(path string, frame *display.Frame, frameNum uint64) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating frame dump file: %w", err)
	}

	if err := fd.Write(file, FormatForPath(path), frame, frameNum); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing frame dump file: %w", err)
	}
	return nil
}

// Write encodes a frame in the given format
func (fd *FrameDumper) Write(w io.Writer, format Format, frame *display.Frame, frameNum uint64) error {
	switch format {
	case FormatText:
		return WriteText(w, frame, frameNum)
	case FormatBMP:
		if err := bmp.Encode(w, fd.palette.Image(frame, fd.scale)); err != nil {
			return fmt.Errorf("encoding BMP: %w", err)
		}
	default:
		if err := png.Encode(w, fd.palette.Image(frame, fd.scale)); err != nil {
			return fmt.Errorf("encoding PNG: %w", err)
		}
	}
	return nil
}

// WriteText writes a frame as ASCII art, '#' for lit pixels
func WriteText(w io.Writer, frame *display.Frame, frameNum uint64) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Frame Dump\n")
	fmt.Fprintf(bw, "Frame Number: %d\n", frameNum)
	fmt.Fprintf(bw, "Dimensions: %dx%d\n", display.Width, display.Height)
	fmt.Fprintf(bw, "Lit Pixels: %d\n", frame.LitCount())
	fmt.Fprintf(bw, "%s\n", strings.Repeat("=", display.Width))

	for y := range display.Height {
		for x := range display.Width {
			if frame.Pixel(x, y) {
				bw.WriteByte('#')
			} else {
				bw.WriteByte('.')
			}
		}
		bw.WriteByte('\n')
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing text dump: %w", err)
	}
	return nil
}
