package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// Canvas rasterizes onto an RGBA image with anti-aliased fills and strokes.
type Canvas struct {
	img     *image.RGBA
	clip    image.Rectangle
	scanner *rasterx.ScannerGV
	filler  *rasterx.Filler
	stroker *rasterx.Stroker
}

// NewCanvas allocates a w×h canvas cleared to transparent black.
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{}
	c.Resize(w, h)
	return c
}

// Resize reallocates the backing image when the size changes.
func (c *Canvas) Resize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if c.img != nil && c.img.Rect.Dx() == w && c.img.Rect.Dy() == h {
		return
	}
	c.img = image.NewRGBA(image.Rect(0, 0, w, h))
	c.clip = c.img.Rect
	c.scanner = rasterx.NewScannerGV(w, h, c.img, c.img.Rect)
	c.filler = rasterx.NewFiller(w, h, c.scanner)
	c.stroker = rasterx.NewStroker(w, h, c.scanner)
}

// Image exposes the backing pixels.
func (c *Canvas) Image() *image.RGBA { return c.img }

func (c *Canvas) Bounds() image.Rectangle { return c.img.Rect }

// Clear fills the whole canvas, ignoring the clip.
func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.img, c.img.Rect, image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *Canvas) Clip(r image.Rectangle) {
	c.clip = r.Intersect(c.img.Rect)
	c.scanner.SetClip(c.clip)
}

func (c *Canvas) Unclip() {
	c.clip = c.img.Rect
	c.scanner.SetClip(c.clip)
}

func (c *Canvas) FillRect(r image.Rectangle, col color.Color) {
	r = r.Intersect(c.clip)
	if r.Empty() {
		return
	}
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

func (c *Canvas) StrokeRect(r image.Rectangle, width float64, col color.Color) {
	if r.Empty() {
		return
	}
	x0, y0 := float64(r.Min.X)+width/2, float64(r.Min.Y)+width/2
	x1, y1 := float64(r.Max.X)-width/2, float64(r.Max.Y)-width/2
	c.StrokePolygon([]Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}, width, col)
}

func (c *Canvas) FillCircle(cx, cy, radius float64, col color.Color) {
	if radius <= 0 {
		return
	}
	c.filler.Clear()
	rasterx.AddCircle(cx, cy, radius, c.filler)
	c.filler.SetColor(col)
	c.filler.Draw()
}

func (c *Canvas) Line(x0, y0, x1, y1, width float64, col color.Color) {
	c.beginStroke(width)
	c.stroker.Start(rasterx.ToFixedP(x0, y0))
	c.stroker.Line(rasterx.ToFixedP(x1, y1))
	c.stroker.Stop(false)
	c.stroker.SetColor(col)
	c.stroker.Draw()
}

func (c *Canvas) FillPolygon(pts []Point, col color.Color) {
	if len(pts) < 3 {
		return
	}
	c.filler.Clear()
	c.filler.Start(rasterx.ToFixedP(pts[0].X, pts[0].Y))
	for _, p := range pts[1:] {
		c.filler.Line(rasterx.ToFixedP(p.X, p.Y))
	}
	c.filler.Stop(true)
	c.filler.SetColor(col)
	c.filler.Draw()
}

func (c *Canvas) StrokePolygon(pts []Point, width float64, col color.Color) {
	if len(pts) < 2 {
		return
	}
	c.beginStroke(width)
	c.stroker.Start(rasterx.ToFixedP(pts[0].X, pts[0].Y))
	for _, p := range pts[1:] {
		c.stroker.Line(rasterx.ToFixedP(p.X, p.Y))
	}
	c.stroker.Stop(true)
	c.stroker.SetColor(col)
	c.stroker.Draw()
}

func (c *Canvas) StrokePath(p *Path, width float64, col color.Color) {
	if p == nil || len(p.ops) < 2 {
		return
	}
	c.beginStroke(width)
	open := false
	for _, op := range p.ops {
		switch op.kind {
		case opMove:
			if open {
				c.stroker.Stop(false)
			}
			c.stroker.Start(rasterx.ToFixedP(op.pts[0].X, op.pts[0].Y))
			open = true
		case opLine:
			c.stroker.Line(rasterx.ToFixedP(op.pts[0].X, op.pts[0].Y))
		case opCube:
			c.stroker.CubeBezier(
				rasterx.ToFixedP(op.pts[0].X, op.pts[0].Y),
				rasterx.ToFixedP(op.pts[1].X, op.pts[1].Y),
				rasterx.ToFixedP(op.pts[2].X, op.pts[2].Y),
			)
		}
	}
	if open {
		c.stroker.Stop(false)
	}
	c.stroker.SetColor(col)
	c.stroker.Draw()
}

func (c *Canvas) beginStroke(width float64) {
	c.stroker.Clear()
	c.stroker.SetStroke(
		fixed.Int26_6(width*64),
		fixed.Int26_6(4*64),
		rasterx.RoundCap, rasterx.RoundCap,
		rasterx.RoundGap, rasterx.Round,
	)
}
