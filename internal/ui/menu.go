package ui

import (
	"image"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/olivier-w/panelviz/internal/interaction"
)

// menuState is an open context menu anchored at a cell.
type menuState struct {
	menu   interaction.Menu
	at     image.Point
	cursor int
}

func newMenuState(m interaction.Menu, at image.Point) *menuState {
	ms := &menuState{menu: m, at: at, cursor: -1}
	ms.move(1)
	return ms
}

// move steps the cursor to the next selectable item in dir.
func (ms *menuState) move(dir int) {
	n := len(ms.menu.Items)
	for i, c := 0, ms.cursor; i < n; i++ {
		c = (c + dir + n) % n
		if ms.menu.Selectable(c) {
			ms.cursor = c
			return
		}
	}
}

func (ms *menuState) innerWidth() int {
	w := 0
	for _, it := range ms.menu.Items {
		if l := ansi.StringWidth(it.Label) + 4; l > w {
			w = l
		}
	}
	return w
}

// box renders the menu and returns its top-left cell, placed so it fits in
// cols x rows.
func (ms *menuState) box(cols, rows int) (string, image.Point) {
	w := ms.innerWidth()
	lines := make([]string, len(ms.menu.Items))
	for i, it := range ms.menu.Items {
		switch {
		case it.Separator:
			lines[i] = menuDisabledStyle.Render(strings.Repeat("─", w))
		default:
			mark := "  "
			if it.Checked {
				mark = "✓ "
			}
			text := fit(" "+mark+it.Label, w)
			switch {
			case i == ms.cursor:
				lines[i] = menuActiveStyle.Render(text)
			case !it.Enabled:
				lines[i] = menuDisabledStyle.Render(text)
			default:
				lines[i] = text
			}
		}
	}
	out := menuStyle.Render(strings.Join(lines, "\n"))

	at := ms.at
	bw, bh := w+2, len(lines)+2
	if at.X+bw > cols {
		at.X = cols - bw
	}
	if at.Y+bh > rows {
		at.Y = rows - bh
	}
	if at.X < 0 {
		at.X = 0
	}
	if at.Y < 0 {
		at.Y = 0
	}
	return out, at
}

// itemAt maps a cell to an item index, or -1.
func (ms *menuState) itemAt(cell image.Point, cols, rows int) int {
	_, at := ms.box(cols, rows)
	x, y := cell.X-at.X-1, cell.Y-at.Y-1
	if x < 0 || x >= ms.innerWidth() || y < 0 || y >= len(ms.menu.Items) {
		return -1
	}
	return y
}

// contains reports whether the cell is on the menu, border included.
func (ms *menuState) contains(cell image.Point, cols, rows int) bool {
	_, at := ms.box(cols, rows)
	r := image.Rect(at.X, at.Y, at.X+ms.innerWidth()+2, at.Y+len(ms.menu.Items)+2)
	return cell.In(r)
}
