package interaction

import "time"

// ClickWindow groups rapid clicks into one action.
const ClickWindow = 400 * time.Millisecond

// ClickGroup counts clicks that land within ClickWindow of the first click
// of their group.
type ClickGroup struct {
	count   int
	firstAt time.Time
}

// Click registers a click and reports whether it is the second of its
// group.
func (g *ClickGroup) Click(now time.Time) bool {
	if g.count == 0 || now.Sub(g.firstAt) > ClickWindow {
		g.count = 0
		g.firstAt = now
	}
	g.count++
	return g.count == 2
}

// Count is the size of the current group.
func (g *ClickGroup) Count() int { return g.count }

// Reset forgets the current group.
func (g *ClickGroup) Reset() { *g = ClickGroup{} }
