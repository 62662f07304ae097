package interaction

import (
	"github.com/olivier-w/panelviz/internal/analysis"
	"github.com/olivier-w/panelviz/internal/layout"
	"github.com/olivier-w/panelviz/internal/workspace"
)

// ActionKind identifies a menu command.
type ActionKind int

const (
	SetBandAction ActionKind = iota
	ToggleValuesAction
	OpenPanelAction
	ClosePanelAction
)

// Action is a menu command bound to a panel.
type Action struct {
	Kind  ActionKind
	Panel int
	Band  analysis.Band
	Axis  layout.Axis
}

// Apply runs the workspace part of the action. ToggleValuesAction belongs
// to the caller and is ignored here.
func (a Action) Apply(ws *workspace.Workspace) bool {
	switch a.Kind {
	case SetBandAction:
		if ws.Panel(a.Panel) == nil {
			return false
		}
		ws.SetBand(a.Panel, a.Band)
		return true
	case OpenPanelAction:
		_, ok := ws.Split(a.Panel, a.Axis, false)
		return ok
	case ClosePanelAction:
		return ws.Close(a.Panel)
	}
	return false
}

// MenuItem is one row of the panel menu.
type MenuItem struct {
	Label     string
	Enabled   bool
	Checked   bool
	Separator bool

	action *Action
}

// Menu is the context menu for one panel.
type Menu struct {
	Panel int
	Items []MenuItem
}

// NewMenu builds the menu for p.
func NewMenu(p *workspace.Panel, leaves int, showValues, sidechain bool) Menu {
	m := Menu{Panel: p.ID}
	for _, b := range analysis.Bands() {
		m.Items = append(m.Items, MenuItem{
			Label:   b.Label(),
			Enabled: true,
			Checked: p.Config.Band == b,
			action:  &Action{Kind: SetBandAction, Panel: p.ID, Band: b},
		})
	}

	input := "Input: Main Track"
	if sidechain {
		input = "Input: Sidechain"
	}
	// larger dimension decides the direction of a new split
	axis := layout.Vertical
	if p.Bounds.Dx() >= p.Bounds.Dy() {
		axis = layout.Horizontal
	}

	m.Items = append(m.Items,
		MenuItem{Separator: true},
		MenuItem{Label: "Show Values", Enabled: true, Checked: showValues, action: &Action{Kind: ToggleValuesAction, Panel: p.ID}},
		MenuItem{Separator: true},
		MenuItem{Label: input},
		MenuItem{Separator: true},
		MenuItem{Label: "Open New Panel", Enabled: leaves < layout.MaxLeaves, action: &Action{Kind: OpenPanelAction, Panel: p.ID, Axis: axis}},
		MenuItem{Label: "Close Panel", Enabled: leaves > 1, action: &Action{Kind: ClosePanelAction, Panel: p.ID}},
	)
	return m
}

// Select returns the action of item i. Separators, labels and disabled
// items return nothing.
func (m Menu) Select(i int) (Action, bool) {
	if i < 0 || i >= len(m.Items) {
		return Action{}, false
	}
	it := m.Items[i]
	if !it.Enabled || it.action == nil {
		return Action{}, false
	}
	return *it.action, true
}

// Selectable reports whether item i can be chosen.
func (m Menu) Selectable(i int) bool {
	_, ok := m.Select(i)
	return ok
}
