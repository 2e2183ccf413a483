package gratingaux

import (
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms1"
)

// Part of the HSV logic in this file is taken from Esme Lamb's (@dedelala)
// color manipulation work presented at Gophercon AU 2024.
// https://github.com/dedelala/disco/tree/main/color

var red = color.RGBA{R: 255, A: 255}

// ColorConversionSigned maps luminance to the signed color convention used by
// stimuli: mid-grey is the zero point and contrast scales each channel of rgb,
// given in [-1,1], about it. NaN luminance is drawn red.
func ColorConversionSigned(contrast float32, rgb [3]float32) func(lum float32) color.Color {
	return func(lum float32) color.Color {
		if math.IsNaN(lum) {
			return red
		}
		s := (2*lum - 1) * contrast
		ch := func(c float32) uint8 {
			return uint8(ms1.Clamp((s*c+1)/2, 0, 1)*math.MaxUint8 + 0.5)
		}
		return color.RGBA{R: ch(rgb[0]), G: ch(rgb[1]), B: ch(rgb[2]), A: 255}
	}
}

// ColorConversionLinearGradient creates a color conversion that blends from c0
// at zero luminance to c1 at full luminance through HSV space.
func ColorConversionLinearGradient(c0, c1 color.Color) func(lum float32) color.Color {
	if c0 == color.Black && c1 == color.White {
		return grey
	}
	h0, s0, v0 := colorToHSV(c0)
	h1, s1, v1 := colorToHSV(c1)
	return func(lum float32) color.Color {
		if math.IsNaN(lum) {
			return red
		} else if lum <= 0 {
			return c0
		} else if lum >= 1 {
			return c1
		}
		h, s, v := interpHSV(h0, s0, v0, h1, s1, v1, lum)
		c := rgbToC(hsvToRGB(h, s, v))
		return color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 255}
	}
}

func grey(lum float32) color.Color {
	if math.IsNaN(lum) {
		return red
	}
	return color.Gray{Y: uint8(ms1.Clamp(lum, 0, 1)*math.MaxUint8 + 0.5)}
}

func interpHSV(h0, s0, v0, h1, s1, v1, t float32) (h, s, v float32) {
	switch {
	case h1-h0 > 0.5:
		h0 += 1.0
	case h1-h0 < -0.5:
		h1 += 1.0
	}
	h = ms1.Interp(h0, h1, t)
	if h > 1 {
		h -= 1
	}
	s = ms1.Interp(s0, s1, t)
	v = ms1.Interp(v0, v1, t)
	return h, s, v
}

func colorToHSV(c color.Color) (h, s, v float32) {
	r0, g0, b0, _ := c.RGBA()
	return rgbToHSV(float32(r0>>8)/math.MaxUint8, float32(g0>>8)/math.MaxUint8, float32(b0>>8)/math.MaxUint8)
}

// rgbToC packs r, g and b in [0,1] into the 24 least significant bits of c.
func rgbToC(r, g, b float32) (c uint32) {
	return uint32(ms1.Clamp(r, 0, 1)*math.MaxUint8+0.5)<<16 |
		uint32(ms1.Clamp(g, 0, 1)*math.MaxUint8+0.5)<<8 |
		uint32(ms1.Clamp(b, 0, 1)*math.MaxUint8+0.5)
}

// hsvToRGB converts hue, saturation and value in [0,1] to RGB in [0,1].
func hsvToRGB(h, s, v float32) (r, g, b float32) {
	var (
		c = s * v
		x = c * (1 - math.Abs(math.Mod(h*6, 2)-1))
		m = v - c
	)
	switch {
	case h <= 1.0/6:
		r, g, b = c, x, 0
	case h <= 2.0/6:
		r, g, b = x, c, 0
	case h <= 3.0/6:
		r, g, b = 0, c, x
	case h <= 4.0/6:
		r, g, b = 0, x, c
	case h <= 5.0/6:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

// rgbToHSV converts RGB in [0,1] to hue, saturation and value in [0,1].
func rgbToHSV(r, g, b float32) (h, s, v float32) {
	var (
		xmax = max(r, g, b)
		xmin = min(r, g, b)
		c    = xmax - xmin
	)
	v = xmax
	switch {
	case c == 0:
		h = 0
	case v == r:
		h = (g - b) / (c * 6)
	case v == g:
		h = 1.0/3 + (b-r)/(c*6)
	case v == b:
		h = 2.0/3 + (r-g)/(c*6)
	}
	if h < 0 {
		h += 1
	}
	if xmax > 0 {
		s = c / xmax
	}
	return h, s, v
}
