// Package workspace owns the panel collection and the layout tree that
// places it. It is only touched from the UI goroutine.
package workspace

import (
	"fmt"
	"image"
	"math/rand"
	"sort"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/olivier-w/panelviz/internal/analysis"
	"github.com/olivier-w/panelviz/internal/effect"
	"github.com/olivier-w/panelviz/internal/layout"
	"github.com/olivier-w/panelviz/internal/router"
)

// Panel is one rectangle of visuals.
type Panel struct {
	ID     int
	Config effect.Config
	State  *effect.State
	Slot   router.PanelID
	Bounds image.Rectangle

	Background    colorful.Color
	HasBackground bool
}

// Workspace pairs the layout tree with the panels its leaves name.
type Workspace struct {
	root   layout.Node
	panels map[int]*Panel
	nextID int
	rng    *rand.Rand
}

// New assembles a workspace from a tree and its panels. Every leaf must have
// a panel and every panel a leaf.
func New(root layout.Node, panels []*Panel) (*Workspace, error) {
	if err := layout.Validate(root); err != nil {
		return nil, err
	}
	w := &Workspace{
		root:   root,
		panels: make(map[int]*Panel, len(panels)),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, p := range panels {
		if _, dup := w.panels[p.ID]; dup {
			return nil, fmt.Errorf("duplicate panel %d", p.ID)
		}
		if p.State == nil {
			p.State = effect.NewState(p.Config, rand.New(rand.NewSource(w.rng.Int63())))
		}
		w.panels[p.ID] = p
		if p.ID >= w.nextID {
			w.nextID = p.ID + 1
		}
	}
	if err := w.Check(); err != nil {
		return nil, err
	}
	return w, nil
}

// Default is the four-panel starting arrangement.
func Default() *Workspace {
	mk := func(id int, slot router.PanelID, kind effect.Kind, band analysis.Band) *Panel {
		return &Panel{ID: id, Slot: slot, Config: effect.NewConfig(kind, band, effect.White)}
	}
	panels := []*Panel{
		mk(0, router.Top, effect.Flutter, analysis.Highs),
		mk(1, router.BottomLeft, effect.RotatingCube, analysis.Mids),
		mk(2, router.BottomRight, effect.Starfield, analysis.KickTransient),
		mk(3, router.Main, effect.FrequencyLine, analysis.FullSpectrum),
	}
	root := layout.NewSplit(layout.Vertical,
		&layout.Leaf{PanelID: 0},
		layout.NewSplit(layout.Horizontal,
			&layout.Leaf{PanelID: 1},
			layout.NewSplit(layout.Vertical, &layout.Leaf{PanelID: 2}, &layout.Leaf{PanelID: 3}),
		),
	)
	w, err := New(root, panels)
	if err != nil {
		panic(err)
	}
	return w
}

// Root is the current layout tree.
func (w *Workspace) Root() layout.Node { return w.root }

// NextID is the id the next new panel will get.
func (w *Workspace) NextID() int { return w.nextID }

// ReserveIDs makes sure new panels get ids of at least next.
func (w *Workspace) ReserveIDs(next int) {
	if next > w.nextID {
		w.nextID = next
	}
}

// Count is the number of panels on screen.
func (w *Workspace) Count() int { return layout.CountLeaves(w.root) }

// Panel looks up a panel by id.
func (w *Workspace) Panel(id int) *Panel { return w.panels[id] }

// Panels lists panels in layout order.
func (w *Workspace) Panels() []*Panel {
	ids := layout.Leaves(w.root)
	out := make([]*Panel, 0, len(ids))
	for _, id := range ids {
		if p := w.panels[id]; p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (w *Workspace) freeSlot() router.PanelID {
	order := router.Slots()
	start := len(w.panels)
	if start > len(order)-1 {
		start = len(order) - 1
	}
	used := make(map[router.PanelID]bool, len(w.panels))
	for _, p := range w.panels {
		used[p.Slot] = true
	}
	for i := 0; i < len(order); i++ {
		if s := order[(start+i)%len(order)]; !used[s] {
			return s
		}
	}
	return order[start]
}

// Split adds a Flutter panel next to target. It does nothing once the
// layout is full.
func (w *Workspace) Split(target int, axis layout.Axis, newFirst bool) (int, bool) {
	if w.Count() >= layout.MaxLeaves || w.panels[target] == nil {
		return 0, false
	}
	id := w.nextID
	cfg := effect.NewConfig(effect.Flutter, analysis.Mids, effect.White)
	p := &Panel{
		ID:     id,
		Config: cfg,
		State:  effect.NewState(cfg, rand.New(rand.NewSource(w.rng.Int63()))),
		Slot:   w.freeSlot(),
	}
	w.root = layout.InsertSplit(w.root, target, id, axis, newFirst)
	w.panels[id] = p
	w.nextID++
	return id, true
}

// Close removes a panel unless it is the last one.
func (w *Workspace) Close(id int) bool {
	if w.Count() <= 1 || w.panels[id] == nil {
		return false
	}
	w.root = layout.Remove(w.root, id)
	delete(w.panels, id)
	return true
}

// Swap exchanges two panels' positions.
func (w *Workspace) Swap(a, b int) bool {
	next := layout.Swap(w.root, a, b)
	changed := next != w.root
	w.root = next
	return changed
}

// MoveSplit detaches src and re-inserts it beside target.
func (w *Workspace) MoveSplit(src, target int, axis layout.Axis, newFirst bool) bool {
	if src == target || w.panels[src] == nil || w.panels[target] == nil || w.Count() < 2 {
		return false
	}
	w.root = layout.InsertSplit(layout.Remove(w.root, src), target, src, axis, newFirst)
	return true
}

// Layout recomputes every panel's bounds within area.
func (w *Workspace) Layout(area image.Rectangle) {
	for _, p := range w.panels {
		p.Bounds = image.Rectangle{}
	}
	layout.ComputeBounds(w.root, area, func(id int, r image.Rectangle) {
		if p := w.panels[id]; p != nil {
			p.Bounds = r
		}
	})
}

// PanelAt returns the panel under pt, or nil.
func (w *Workspace) PanelAt(pt image.Point) *Panel {
	for _, p := range w.Panels() {
		if pt.In(p.Bounds) {
			return p
		}
	}
	return nil
}

// ApplyEffect switches a panel's effect and accent colour.
func (w *Workspace) ApplyEffect(id int, kind effect.Kind, accent colorful.Color) {
	p := w.panels[id]
	if p == nil {
		return
	}
	p.Config.Kind = kind
	p.Config.Accent = accent
	p.State.Apply(p.Config)
}

// SetBand rebinds a panel to a frequency band.
func (w *Workspace) SetBand(id int, band analysis.Band) {
	p := w.panels[id]
	if p == nil {
		return
	}
	p.Config.Band = band
	p.State.Sync(p.Config)
}

// SetBackground overrides one panel's background.
func (w *Workspace) SetBackground(id int, c colorful.Color) {
	if p := w.panels[id]; p != nil {
		p.Background = c
		p.HasBackground = true
	}
}

// SetBackgroundAll overrides every panel's background.
func (w *Workspace) SetBackgroundAll(c colorful.Color) {
	for _, p := range w.panels {
		p.Background = c
		p.HasBackground = true
	}
}

// BackgroundFor resolves the fill behind a panel's effect.
func BackgroundFor(p *Panel, light bool) colorful.Color {
	if p.HasBackground {
		return p.Background
	}
	return effect.Background(light)
}

// Check verifies that leaves and panels match one to one.
func (w *Workspace) Check() error {
	ids := layout.Leaves(w.root)
	if len(ids) != len(w.panels) {
		return fmt.Errorf("%d leaves but %d panels", len(ids), len(w.panels))
	}
	for _, id := range ids {
		if w.panels[id] == nil {
			return fmt.Errorf("leaf %d has no panel", id)
		}
	}
	return nil
}

// IDs returns panel ids in ascending order.
func (w *Workspace) IDs() []int {
	ids := make([]int, 0, len(w.panels))
	for id := range w.panels {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Leaves returns panel ids in layout order.
func (w *Workspace) Leaves() []int { return layout.Leaves(w.root) }
