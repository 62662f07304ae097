// Package interaction turns pointer gestures into workspace mutations:
// panel dragging with drop zones, click grouping and the panel menu.
package interaction

import (
	"image"
	"math"
	"time"

	"github.com/olivier-w/panelviz/internal/layout"
	"github.com/olivier-w/panelviz/internal/workspace"
)

const (
	// DragDelay is how long the button must be held before a drag starts.
	DragDelay = 300 * time.Millisecond
	// DragMinDistance is how far, in pixels, the pointer must travel.
	DragMinDistance = 4
)

// Phase is the drag gesture state.
type Phase int

const (
	Idle Phase = iota
	Pending
	Active
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Active:
		return "active"
	}
	return "idle"
}

// ZoneAction is what dropping on a zone does.
type ZoneAction int

const (
	SwapZone ZoneAction = iota
	TopZone
	BottomZone
	LeftZone
	RightZone
)

// placement returns the split that a directional zone produces.
func (a ZoneAction) placement() (layout.Axis, bool) {
	switch a {
	case TopZone:
		return layout.Vertical, true
	case BottomZone:
		return layout.Vertical, false
	case LeftZone:
		return layout.Horizontal, true
	default:
		return layout.Horizontal, false
	}
}

// Zone is a drop target on another panel.
type Zone struct {
	Bounds image.Rectangle
	Target int
	Action ZoneAction
}

// BuildZones lays out drop zones on every panel except source. Edge zones
// only exist while the layout has room for another split.
func BuildZones(source int, panels []*workspace.Panel, leaves int) []Zone {
	canSplit := leaves < layout.MaxLeaves
	var zones []Zone
	for _, p := range panels {
		if p.ID == source {
			continue
		}
		b := p.Bounds
		w, h := b.Dx(), b.Dy()
		zones = append(zones, Zone{
			Bounds: image.Rect(b.Min.X+w/4, b.Min.Y+h/4, b.Max.X-w/4, b.Max.Y-h/4),
			Target: p.ID,
			Action: SwapZone,
		})
		if !canSplit {
			continue
		}
		zones = append(zones,
			Zone{Bounds: image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+h/4), Target: p.ID, Action: TopZone},
			Zone{Bounds: image.Rect(b.Min.X, b.Max.Y-h/4, b.Max.X, b.Max.Y), Target: p.ID, Action: BottomZone},
			Zone{Bounds: image.Rect(b.Min.X, b.Min.Y, b.Min.X+w/4, b.Max.Y), Target: p.ID, Action: LeftZone},
			Zone{Bounds: image.Rect(b.Max.X-w/4, b.Min.Y, b.Max.X, b.Max.Y), Target: p.ID, Action: RightZone},
		)
	}
	return zones
}

// Preview is the area highlighted while hovering z over a target with the
// given bounds: the whole target for a swap, else the half the source
// will take.
func Preview(z Zone, target image.Rectangle) image.Rectangle {
	b := target
	switch z.Action {
	case TopZone:
		b.Max.Y = b.Min.Y + b.Dy()/2
	case BottomZone:
		b.Min.Y = b.Min.Y + b.Dy()/2
	case LeftZone:
		b.Max.X = b.Min.X + b.Dx()/2
	case RightZone:
		b.Min.X = b.Min.X + b.Dx()/2
	}
	return b
}

// Drop is a completed gesture.
type Drop struct {
	Source int
	Target int
	Action ZoneAction
}

// Apply performs the drop on ws.
func (d Drop) Apply(ws *workspace.Workspace) bool {
	if d.Action == SwapZone {
		return ws.Swap(d.Source, d.Target)
	}
	axis, first := d.Action.placement()
	return ws.MoveSplit(d.Source, d.Target, axis, first)
}

// Drag tracks one press-hold-drag gesture on a panel.
type Drag struct {
	phase   Phase
	source  int
	start   image.Point
	cur     image.Point
	startAt time.Time
	zones   []Zone
	hovered int
}

// Phase reports the current state.
func (d *Drag) Phase() Phase { return d.phase }

// Source is the panel being dragged.
func (d *Drag) Source() (int, bool) { return d.source, d.phase != Idle }

// Zones returns the drop zones of an active drag.
func (d *Drag) Zones() []Zone { return d.zones }

// Press starts a pending gesture on a panel.
func (d *Drag) Press(id int, pos image.Point, now time.Time) {
	*d = Drag{phase: Pending, source: id, start: pos, cur: pos, startAt: now, hovered: -1}
}

// Move records the pointer and refreshes the hovered zone.
func (d *Drag) Move(pos image.Point) {
	if d.phase == Idle {
		return
	}
	d.cur = pos
	if d.phase == Active {
		d.updateHover()
	}
}

func (d *Drag) updateHover() {
	d.hovered = -1
	for i, z := range d.zones {
		if d.cur.In(z.Bounds) {
			d.hovered = i
			return
		}
	}
}

// Tick activates a pending gesture once both the hold time and the travel
// distance are reached. It reports whether the drag became active.
func (d *Drag) Tick(now time.Time, ws *workspace.Workspace) bool {
	if d.phase != Pending {
		return false
	}
	dx, dy := float64(d.cur.X-d.start.X), float64(d.cur.Y-d.start.Y)
	if now.Sub(d.startAt) < DragDelay || math.Hypot(dx, dy) < DragMinDistance {
		return false
	}
	d.phase = Active
	d.zones = BuildZones(d.source, ws.Panels(), ws.Count())
	d.updateHover()
	return true
}

// Hovered returns the zone under the pointer.
func (d *Drag) Hovered() (Zone, bool) {
	if d.phase != Active || d.hovered < 0 || d.hovered >= len(d.zones) {
		return Zone{}, false
	}
	return d.zones[d.hovered], true
}

// Release ends the gesture. It returns a drop only when an active drag was
// over a zone; the gesture is always reset.
func (d *Drag) Release() (Drop, bool) {
	z, ok := d.Hovered()
	src := d.source
	d.Cancel()
	if !ok {
		return Drop{}, false
	}
	return Drop{Source: src, Target: z.Target, Action: z.Action}, true
}

// Cancel abandons the gesture.
func (d *Drag) Cancel() {
	*d = Drag{hovered: -1}
}
