package render

import (
	"image"
	"image/color"
	"testing"
)

func TestFillRectRespectsClip(t *testing.T) {
	c := NewCanvas(20, 10)
	c.Clear(color.RGBA{A: 255})
	c.Clip(image.Rect(0, 0, 10, 10))
	c.FillRect(image.Rect(0, 0, 20, 10), color.RGBA{R: 255, A: 255})
	c.Unclip()

	if got := c.Image().RGBAAt(5, 5); got.R != 255 {
		t.Fatalf("expected red inside the clip, got %+v", got)
	}
	if got := c.Image().RGBAAt(15, 5); got.R != 0 {
		t.Fatalf("expected untouched pixel outside the clip, got %+v", got)
	}
}

func TestFillCircleCoversCentre(t *testing.T) {
	c := NewCanvas(32, 32)
	c.Clear(color.RGBA{A: 255})
	c.FillCircle(16, 16, 6, color.RGBA{G: 200, A: 255})

	if got := c.Image().RGBAAt(16, 16); got.G < 150 {
		t.Fatalf("expected the circle centre to be filled, got %+v", got)
	}
	if got := c.Image().RGBAAt(2, 2); got.G != 0 {
		t.Fatalf("expected the corner to stay empty, got %+v", got)
	}
}

func TestStrokePathDrawsAlongCurve(t *testing.T) {
	c := NewCanvas(40, 20)
	c.Clear(color.RGBA{A: 255})
	var p Path
	p.MoveTo(2, 10)
	p.CubeTo(12, 10, 28, 10, 38, 10)
	c.StrokePath(&p, 2, color.RGBA{B: 255, A: 255})

	if got := c.Image().RGBAAt(20, 10); got.B == 0 {
		t.Fatalf("expected the stroke to cross the middle, got %+v", got)
	}
	if got := c.Image().RGBAAt(20, 2); got.B != 0 {
		t.Fatalf("expected no ink far from the stroke, got %+v", got)
	}
	if end, ok := p.End(); !ok || end.X != 38 {
		t.Fatalf("unexpected path end %+v", end)
	}
}

func TestResizeKeepsImageWhenUnchanged(t *testing.T) {
	c := NewCanvas(8, 8)
	img := c.Image()
	c.Resize(8, 8)
	if c.Image() != img {
		t.Fatal("expected the same backing image for an unchanged size")
	}
	c.Resize(9, 8)
	if c.Bounds().Dx() != 9 {
		t.Fatalf("expected width 9, got %d", c.Bounds().Dx())
	}
}
