package display

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strconv"
	"strings"
)

// Palette maps the two pixel states to colors
type Palette struct {
	Foreground color.RGBA
	Background color.RGBA
}

// Predefined palettes
var palettes = map[string]Palette{
	"classic": {Foreground: rgb(0xFF, 0xFF, 0xFF), Background: rgb(0x00, 0x00, 0x00)},
	"amber":   {Foreground: rgb(0xFF, 0xB0, 0x00), Background: rgb(0x1A, 0x10, 0x00)},
	"green":   {Foreground: rgb(0x33, 0xFF, 0x66), Background: rgb(0x00, 0x1A, 0x08)},
	"lcd":     {Foreground: rgb(0x0F, 0x38, 0x0F), Background: rgb(0x9B, 0xBC, 0x0F)},
}

// DefaultPalette returns white on black
func DefaultPalette() Palette {
	return palettes["classic"]
}

// PaletteNames lists the predefined palette names in sorted order
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NamedPalette returns a predefined palette
func NamedPalette(name string) (Palette, bool) {
	p, ok := palettes[strings.ToLower(name)]
	return p, ok
}

// ParsePalette builds a palette from two "#RRGGBB" colors
func ParsePalette(foreground, background string) (Palette, error) {
	fg, err := ParseColor(foreground)
	if err != nil {
		return Palette{}, fmt.Errorf("foreground: %w", err)
	}
	bg, err := ParseColor(background)
	if err != nil {
		return Palette{}, fmt.Errorf("background: %w", err)
	}
	return Palette{Foreground: fg, Background: bg}, nil
}

// ParseColor parses "#RRGGBB" or "RRGGBB"
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: expected 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return rgb(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// FormatColor renders a color as "#RRGGBB"
func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Color returns the color for a pixel state
func (p Palette) Color(on bool) color.RGBA {
	if on {
		return p.Foreground
	}
	return p.Background
}

// RGB returns packed 0xRRGGBB values for every pixel of the frame
func (p Palette) RGB(f *Frame) [Width * Height]uint32 {
	fg := packRGB(p.Foreground)
	bg := packRGB(p.Background)

	var out [Width * Height]uint32
	for i, on := range f {
		if on {
			out[i] = fg
		} else {
			out[i] = bg
		}
	}
	return out
}

// RGBA writes the frame as RGBA bytes, 4 per pixel, into dst. dst must
// hold at least Width*Height*4 bytes; a new slice is allocated if it is
// too small.
func (p Palette) RGBA(f *Frame, dst []byte) []byte {
	if len(dst) < Width*Height*4 {
		dst = make([]byte, Width*Height*4)
	}
	for i, on := range f {
		c := p.Color(on)
		dst[i*4] = c.R
		dst[i*4+1] = c.G
		dst[i*4+2] = c.B
		dst[i*4+3] = 0xFF
	}
	return dst
}

// Image renders the frame into an image, each pixel scaled to a
// scale x scale block.
func (p Palette) Image(f *Frame, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, Width*scale, Height*scale))
	for y := range Height {
		for x := range Width {
			c := p.Color(f[y*Width+x])
			for dy := range scale {
				for dx := range scale {
					img.SetRGBA(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
	return img
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}

func packRGB(c color.RGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
