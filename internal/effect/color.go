package effect

import (
	"fmt"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	Black = colorful.Color{R: 0, G: 0, B: 0}
	White = colorful.Color{R: 1, G: 1, B: 1}
)

// ParseColor reads "#rrggbb" (the leading # is optional).
func ParseColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if s != "" && !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return c, nil
}

// Background is the default panel fill for the current theme.
func Background(light bool) colorful.Color {
	if light {
		return White
	}
	return Black
}

// Brighter moves every channel toward white; amount 0 leaves it unchanged.
func Brighter(c colorful.Color, amount float64) colorful.Color {
	k := 1 / (1 + amount)
	return colorful.Color{R: 1 - k*(1-c.R), G: 1 - k*(1-c.G), B: 1 - k*(1-c.B)}.Clamped()
}

// Darker scales every channel toward black.
func Darker(c colorful.Color, amount float64) colorful.Color {
	k := 1 / (1 + amount)
	return colorful.Color{R: c.R * k, G: c.G * k, B: c.B * k}.Clamped()
}

// Shade multiplies the HSV value of c.
func Shade(c colorful.Color, factor float64) colorful.Color {
	h, s, v := c.Hsv()
	return colorful.Hsv(h, s, clamp01(v*factor)).Clamped()
}

// Lerp blends from a to b in RGB.
func Lerp(a, b colorful.Color, t float64) colorful.Color {
	return a.BlendRgb(b, clamp01(t)).Clamped()
}

// WithAlpha converts c to a non-premultiplied colour with the given opacity.
func WithAlpha(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(clamp01(alpha)*255 + 0.5)}
}

// Opaque converts c for drawing.
func Opaque(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// remap maps v from [a0, a1] onto [b0, b1] without clamping.
func remap(v, a0, a1, b0, b1 float64) float64 {
	return b0 + (v-a0)/(a1-a0)*(b1-b0)
}
