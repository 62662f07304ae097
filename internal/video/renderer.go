// Package video prints RGBA frames to the terminal.
package video

import (
	"fmt"
	"image"
	"strings"

	"github.com/muesli/termenv"
)

// ASCII brightness ramp from darkest to brightest.
const asciiRamp = " .:-=+*#%@"

const ansiReset = "\x1b[0m"

// Renderer converts an RGBA frame into a terminal string.
// It supports two modes:
//   - Color (half-block): uses "▀" with fg/bg colors to pack 2 pixel rows per terminal row.
//   - ASCII (no color): maps each pixel pair to a brightness character.
type Renderer struct {
	profile termenv.Profile
	sb      strings.Builder
	fg, bg  map[uint32]string
}

// NewRenderer creates a renderer using the terminal's color profile.
func NewRenderer() *Renderer {
	return NewRendererWithProfile(termenv.EnvColorProfile())
}

// NewRendererWithProfile creates a renderer for a fixed color profile.
func NewRendererWithProfile(p termenv.Profile) *Renderer {
	return &Renderer{
		profile: p,
		fg:      make(map[uint32]string),
		bg:      make(map[uint32]string),
	}
}

// Profile is the color profile in use.
func (r *Renderer) Profile() termenv.Profile { return r.profile }

// CellSize is the pixel size of a frame that fills cols x rows cells.
func CellSize(cols, rows int) (int, int) {
	return cols, rows * 2
}

// Render converts img into outW x outH terminal cells. Each cell covers two
// pixel rows; the image is sampled nearest-neighbour when sizes differ.
func (r *Renderer) Render(img *image.RGBA, outW, outH int) string {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 || outW <= 0 || outH <= 0 {
		return ""
	}

	r.sb.Reset()
	r.sb.Grow(outW * outH * 24)

	if r.profile == termenv.Ascii {
		r.renderASCII(img, outW, outH)
	} else {
		r.renderHalfBlock(img, outW, outH)
	}
	return r.sb.String()
}

// renderHalfBlock uses "▀" (upper half block) with fg = top pixel, bg = bottom pixel.
func (r *Renderer) renderHalfBlock(img *image.RGBA, outW, outH int) {
	b := img.Bounds()
	pixelRows := outH * 2
	var lastFg, lastBg string

	for row := 0; row < outH; row++ {
		for col := 0; col < outW; col++ {
			srcX := b.Min.X + col*b.Dx()/outW
			top := samplePixel(img, srcX, b.Min.Y+(row*2)*b.Dy()/pixelRows)
			bot := samplePixel(img, srcX, b.Min.Y+(row*2+1)*b.Dy()/pixelRows)

			if fg := r.seq(r.fg, top, false); fg != lastFg {
				r.sb.WriteString(fg)
				lastFg = fg
			}
			if bg := r.seq(r.bg, bot, true); bg != lastBg {
				r.sb.WriteString(bg)
				lastBg = bg
			}
			r.sb.WriteString("▀")
		}
		r.sb.WriteString(ansiReset)
		lastFg, lastBg = "", ""
		if row < outH-1 {
			r.sb.WriteByte('\n')
		}
	}
}

func (r *Renderer) renderASCII(img *image.RGBA, outW, outH int) {
	b := img.Bounds()
	for row := 0; row < outH; row++ {
		for col := 0; col < outW; col++ {
			srcX := b.Min.X + col*b.Dx()/outW
			srcY := b.Min.Y + row*b.Dy()/outH
			r.sb.WriteByte(brightnessChar(luminance(samplePixel(img, srcX, srcY))))
		}
		if row < outH-1 {
			r.sb.WriteByte('\n')
		}
	}
}

// seq returns the escape sequence for rgb, caching per colour.
func (r *Renderer) seq(cache map[uint32]string, rgb uint32, bg bool) string {
	if s, ok := cache[rgb]; ok {
		return s
	}
	if len(cache) > 4096 {
		clear(cache)
	}
	hex := fmt.Sprintf("#%06x", rgb)
	s := ""
	if code := r.profile.Color(hex).Sequence(bg); code != "" {
		s = termenv.CSI + code + "m"
	}
	cache[rgb] = s
	return s
}

// samplePixel reads an RGB triplet packed as 0xRRGGBB. Alpha is ignored;
// the frame is opaque.
func samplePixel(img *image.RGBA, x, y int) uint32 {
	if !(image.Point{x, y}.In(img.Rect)) {
		return 0
	}
	off := img.PixOffset(x, y)
	p := img.Pix[off : off+3 : off+3]
	return uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])
}

// luminance computes perceived brightness (ITU-R BT.601).
func luminance(rgb uint32) uint8 {
	r, g, b := int(rgb>>16&0xff), int(rgb>>8&0xff), int(rgb&0xff)
	return uint8((299*r + 587*g + 114*b) / 1000)
}

// brightnessChar maps a 0-255 luminance to an ASCII character.
func brightnessChar(lum uint8) byte {
	idx := int(lum) * (len(asciiRamp) - 1) / 255
	return asciiRamp[idx]
}
