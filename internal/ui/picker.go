package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/olivier-w/panelviz/internal/effect"
)

// pickerWidth is the sidebar width in cells.
const pickerWidth = 28

const swatchWidth = 3

var accentSwatches = []string{"#FFFFFF", "#FF3B30", "#FF9500", "#FFCC00", "#34C759", "#00C7BE", "#007AFF", "#AF52DE"}

var backgroundSwatches = []string{"#000000", "#FFFFFF", "#1C1C1E", "#14213D", "#2C3E50", "#3A0CA3", "#3D0000", "#003D1F"}

// pickerRow identifies what a sidebar row does.
type pickerRow int

const (
	rowBlank pickerRow = iota
	rowTitle
	rowSep
	rowColor
	rowAccents
	rowBackgroundLabel
	rowBackgrounds
	rowApplyAll
	rowEffect
	rowHint
	rowLight
)

type pickerLine struct {
	kind   pickerRow
	effect effect.Kind
	text   string
}

// pickerRows is the sidebar from top to bottom. Hit testing and drawing
// both walk it.
func pickerRows() []pickerLine {
	rows := []pickerLine{
		{kind: rowTitle},
		{kind: rowSep},
		{kind: rowColor},
		{kind: rowAccents},
		{kind: rowBackgroundLabel},
		{kind: rowBackgrounds},
		{kind: rowApplyAll},
		{kind: rowSep},
	}
	for _, k := range effect.PickerKinds() {
		rows = append(rows, pickerLine{kind: rowEffect, effect: k})
	}
	return append(rows,
		pickerLine{kind: rowSep},
		pickerLine{kind: rowHint, text: "Drag effect onto panel"},
		pickerLine{kind: rowHint, text: "Right-click panel for options"},
		pickerLine{kind: rowBlank},
		pickerLine{kind: rowLight},
	)
}

// pickerHit is what a press inside the sidebar landed on.
type pickerHit struct {
	kind   pickerRow
	index  int
	effect effect.Kind
}

// picker is the effect sidebar. Its width springs between 0 and
// pickerWidth.
type picker struct {
	open   bool
	spring harmonica.Spring
	pos    float64
	vel    float64

	hex     textinput.Model
	editing bool
}

func newPicker(fps int) picker {
	ti := textinput.New()
	ti.Prompt = "#"
	ti.CharLimit = 6
	ti.Width = 8
	return picker{
		spring: harmonica.NewSpring(harmonica.FPS(fps), 8.0, 1.0),
		hex:    ti,
	}
}

func (p *picker) toggle() {
	p.open = !p.open
	if !p.open {
		p.editing = false
		p.hex.Blur()
	}
}

// step advances the slide animation by one frame.
func (p *picker) step() {
	target := 0.0
	if p.open {
		target = pickerWidth
	}
	p.pos, p.vel = p.spring.Update(p.pos, p.vel, target)
	if math.Abs(p.pos-target) < 0.05 && math.Abs(p.vel) < 0.05 {
		p.pos, p.vel = target, 0
	}
}

// cols is the visible width of the sidebar.
func (p *picker) cols() int {
	c := int(math.Round(p.pos))
	if c < 0 {
		return 0
	}
	if c > pickerWidth {
		return pickerWidth
	}
	return c
}

// hit maps a cell relative to the sidebar's left edge.
func (p *picker) hit(col, row int) (pickerHit, bool) {
	rows := pickerRows()
	if row < 0 || row >= len(rows) || col < 0 || col >= pickerWidth {
		return pickerHit{}, false
	}
	line := rows[row]
	switch line.kind {
	case rowAccents, rowBackgrounds:
		i := (col - 2) / swatchWidth
		n := len(accentSwatches)
		if line.kind == rowBackgrounds {
			n = len(backgroundSwatches)
		}
		if col < 2 || i >= n || (col-2)%swatchWidth == swatchWidth-1 {
			return pickerHit{}, false
		}
		return pickerHit{kind: line.kind, index: i}, true
	case rowColor, rowApplyAll, rowLight:
		return pickerHit{kind: line.kind}, true
	case rowEffect:
		return pickerHit{kind: rowEffect, effect: line.effect}, true
	}
	return pickerHit{}, false
}

// startHexEdit focuses the hex field with the current accent.
func (p *picker) startHexEdit(accent colorful.Color) {
	p.editing = true
	p.hex.SetValue(strings.TrimPrefix(accent.Hex(), "#"))
	p.hex.CursorEnd()
	p.hex.Focus()
}

// finishHexEdit returns the typed colour if it parses.
func (p *picker) finishHexEdit() (colorful.Color, bool) {
	p.editing = false
	p.hex.Blur()
	c, err := effect.ParseColor(p.hex.Value())
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// pickerView is everything the sidebar shows.
type pickerView struct {
	light    bool
	accent   colorful.Color
	applyAll bool
	hoverFx  effect.Kind
	dragging bool
	height   int
}

// view renders the sidebar, pickerWidth cells wide and height rows tall.
func (p *picker) view(v pickerView) string {
	th := newPickerTheme(v.light)
	out := make([]string, 0, v.height)
	for _, line := range pickerRows() {
		if len(out) == v.height {
			break
		}
		out = append(out, p.line(th, line, v))
	}
	for len(out) < v.height {
		out = append(out, th.base.Render(strings.Repeat(" ", pickerWidth)))
	}
	return strings.Join(out, "\n")
}

func (p *picker) line(th pickerTheme, line pickerLine, v pickerView) string {
	pad := func(st lipgloss.Style, s string) string {
		return st.Render(fit(s, pickerWidth))
	}
	switch line.kind {
	case rowTitle:
		return pad(th.text.Bold(true), "  Effects")
	case rowSep:
		return pad(th.sep, strings.Repeat("─", pickerWidth))
	case rowColor:
		if p.editing {
			return th.text.Render("  Color ") + th.text.Render(fit(p.hex.View(), pickerWidth-8))
		}
		sw := lipgloss.NewStyle().Background(lipgloss.Color(v.accent.Hex())).Render("  ")
		return th.text.Render("  Color ") + sw + pad2(th.dim, " "+strings.ToUpper(v.accent.Hex()), pickerWidth-10)
	case rowAccents:
		return swatchRow(th, accentSwatches)
	case rowBackgroundLabel:
		return pad(th.text, "  Background")
	case rowBackgrounds:
		return swatchRow(th, backgroundSwatches)
	case rowApplyAll:
		box := "[ ]"
		if v.applyAll {
			box = "[x]"
		}
		return pad(th.text, "  "+box+" Apply to all")
	case rowEffect:
		st := th.text
		if v.dragging && v.hoverFx == line.effect {
			st = st.Foreground(lipgloss.Color("#007AFF"))
		}
		name := "  " + line.effect.Name()
		return pad(st, name+strings.Repeat(" ", max(1, pickerWidth-3-len(name)))+"⠿")
	case rowHint:
		return pad(th.dim, "  "+line.text)
	case rowLight:
		knob := "●    "
		label := "Dark"
		if v.light {
			knob, label = "    ●", "Light"
		}
		return pad(th.text, fmt.Sprintf("  (%s) %s", knob, label))
	}
	return pad(th.base, "")
}

func pad2(st lipgloss.Style, s string, width int) string {
	return st.Render(fit(s, width))
}

func swatchRow(th pickerTheme, swatches []string) string {
	var sb strings.Builder
	sb.WriteString(th.base.Render("  "))
	for _, hex := range swatches {
		sb.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  "))
		sb.WriteString(th.base.Render(" "))
	}
	used := 2 + len(swatches)*swatchWidth
	if used < pickerWidth {
		sb.WriteString(th.base.Render(strings.Repeat(" ", pickerWidth-used)))
	}
	return sb.String()
}
