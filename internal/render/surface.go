// Package render is the 2D drawing surface panels paint into.
package render

import (
	"image"
	"image/color"
)

// Point is a sub-pixel position.
type Point struct {
	X, Y float64
}

// Surface is what effects and overlays draw on. Every call is clipped to
// the current clip rectangle.
type Surface interface {
	Bounds() image.Rectangle
	Clip(r image.Rectangle)
	Unclip()

	FillRect(r image.Rectangle, c color.Color)
	StrokeRect(r image.Rectangle, width float64, c color.Color)
	FillCircle(cx, cy, radius float64, c color.Color)
	Line(x0, y0, x1, y1, width float64, c color.Color)
	FillPolygon(pts []Point, c color.Color)
	StrokePolygon(pts []Point, width float64, c color.Color)
	StrokePath(p *Path, width float64, c color.Color)
}

type opKind uint8

const (
	opMove opKind = iota
	opLine
	opCube
)

type pathOp struct {
	kind opKind
	pts  [3]Point
}

// Path is an open polyline of straight and cubic segments.
type Path struct {
	ops []pathOp
}

func (p *Path) MoveTo(x, y float64) {
	p.ops = append(p.ops, pathOp{kind: opMove, pts: [3]Point{{x, y}}})
}

func (p *Path) LineTo(x, y float64) {
	p.ops = append(p.ops, pathOp{kind: opLine, pts: [3]Point{{x, y}}})
}

// CubeTo adds a cubic Bezier through control points c1, c2 ending at (x, y).
func (p *Path) CubeTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.ops = append(p.ops, pathOp{kind: opCube, pts: [3]Point{{c1x, c1y}, {c2x, c2y}, {x, y}}})
}

// Len is the number of recorded operations.
func (p *Path) Len() int { return len(p.ops) }

// Reset empties the path, keeping its storage.
func (p *Path) Reset() { p.ops = p.ops[:0] }

// End returns the last point reached by the path.
func (p *Path) End() (Point, bool) {
	if len(p.ops) == 0 {
		return Point{}, false
	}
	op := p.ops[len(p.ops)-1]
	if op.kind == opCube {
		return op.pts[2], true
	}
	return op.pts[0], true
}
