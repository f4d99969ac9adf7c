package display

import (
	"image/color"
	"math"
)

// VideoProcessor applies brightness, contrast and saturation adjustments
// to palette colors
type VideoProcessor struct {
	brightness float32
	contrast   float32
	saturation float32
}

// NewVideoProcessor creates a new video processor
func NewVideoProcessor(brightness, contrast, saturation float32) *VideoProcessor {
	return &VideoProcessor{
		brightness: brightness,
		contrast:   contrast,
		saturation: saturation,
	}
}

// ProcessPalette returns the palette with all adjustments applied
func (vp *VideoProcessor) ProcessPalette(p Palette) Palette {
	return Palette{
		Foreground: vp.ProcessColor(p.Foreground),
		Background: vp.ProcessColor(p.Background),
	}
}

// ProcessColor applies the adjustments to a single color
func (vp *VideoProcessor) ProcessColor(c color.RGBA) color.RGBA {
	if vp.brightness == 1.0 && vp.contrast == 1.0 && vp.saturation == 1.0 {
		return c
	}

	r := float32(c.R) * vp.brightness
	g := float32(c.G) * vp.brightness
	b := float32(c.B) * vp.brightness

	r = ((r/255.0-0.5)*vp.contrast + 0.5) * 255.0
	g = ((g/255.0-0.5)*vp.contrast + 0.5) * 255.0
	b = ((b/255.0-0.5)*vp.contrast + 0.5) * 255.0

	if vp.saturation != 1.0 {
		h, s, l := rgbToHSL(clamp(r, 0, 255)/255.0, clamp(g, 0, 255)/255.0, clamp(b, 0, 255)/255.0)
		s *= vp.saturation
		if s > 1.0 {
			s = 1.0
		}
		r, g, b = hslToRGB(h, s, l)
		r *= 255.0
		g *= 255.0
		b *= 255.0
	}

	return color.RGBA{
		R: uint8(clamp(r, 0, 255) + 0.5),
		G: uint8(clamp(g, 0, 255) + 0.5),
		B: uint8(clamp(b, 0, 255) + 0.5),
		A: c.A,
	}
}

// clamp limits a value to a range
func clamp(value, lo, hi float32) float32 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// rgbToHSL converts RGB to HSL color space
func rgbToHSL(r, g, b float32) (h, s, l float32) {
	maxC := math.Max(float64(r), math.Max(float64(g), float64(b)))
	minC := math.Min(float64(r), math.Min(float64(g), float64(b)))

	l = float32((maxC + minC) / 2.0)

	if maxC == minC {
		return 0, 0, l
	}

	d := float32(maxC - minC)
	if l > 0.5 {
		s = d / float32(2.0-maxC-minC)
	} else {
		s = d / float32(maxC+minC)
	}

	switch maxC {
	case float64(r):
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case float64(g):
		h = (b-r)/d + 2
	case float64(b):
		h = (r-g)/d + 4
	}
	h /= 6

	return h, s, l
}

// hslToRGB converts HSL to RGB color space
func hslToRGB(h, s, l float32) (r, g, b float32) {
	if s == 0 {
		return l, l, l
	}

	var q float32
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	r = hueToRGB(p, q, h+1.0/3.0)
	g = hueToRGB(p, q, h)
	b = hueToRGB(p, q, h-1.0/3.0)

	return r, g, b
}

// hueToRGB helper function for HSL to RGB conversion
func hueToRGB(p, q, t float32) float32 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
