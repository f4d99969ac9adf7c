// Package display implements the host side of the 64x32 monochrome screen.
package display

// Display dimensions in pixels
const (
	Width  = 64
	Height = 32
)

// Frame is a row-major snapshot of the screen, true meaning lit
type Frame [Width * Height]bool

// Pixel reports whether (x, y) is lit; out-of-bounds pixels are dark
func (f *Frame) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return f[y*Width+x]
}

// LitCount returns the number of lit pixels
func (f *Frame) LitCount() int {
	n := 0
	for _, on := range f {
		if on {
			n++
		}
	}
	return n
}

// Screen receives pixel updates from the CPU and keeps the current
// picture for presentation. It is not safe for concurrent use; the host
// steps the CPU and renders from the same goroutine.
type Screen struct {
	pixels  Frame
	version uint64 // incremented on every visible change
}

// New creates a new dark Screen
func New() *Screen {
	return &Screen{}
}

// SetPixel sets a single pixel. Coordinates outside the screen are ignored.
func (s *Screen) SetPixel(x, y int, on bool) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	idx := y*Width + x
	if s.pixels[idx] == on {
		return
	}
	s.pixels[idx] = on
	s.version++
}

// Pixel reports whether (x, y) is lit
func (s *Screen) Pixel(x, y int) bool {
	return s.pixels.Pixel(x, y)
}

// Clear turns every pixel off
func (s *Screen) Clear() {
	if s.pixels.LitCount() == 0 {
		return
	}
	s.pixels = Frame{}
	s.version++
}

// Snapshot returns a copy of the current picture
func (s *Screen) Snapshot() Frame {
	return s.pixels
}

// Version returns a counter that changes whenever the picture changes.
// Renderers compare it against the last drawn version to skip redundant
// uploads.
func (s *Screen) Version() uint64 {
	return s.version
}
