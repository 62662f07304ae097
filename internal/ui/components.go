package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

func renderProgressBar(elapsed, total float64, width int) string {
	if width < 10 {
		width = 10
	}
	barWidth := width - 2

	var ratio float64
	if total > 0 {
		ratio = elapsed / total
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	filled := int(ratio * float64(barWidth))
	return strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
}

// overlay writes block over lines starting at cell (x, y). Cells outside
// the frame are dropped. Escape sequences in the covered text are kept so
// the colours to the right of the block survive.
func overlay(lines []string, x, y int, block string) {
	if x < 0 {
		x = 0
	}
	for i, row := range strings.Split(block, "\n") {
		ly := y + i
		if ly < 0 || ly >= len(lines) {
			continue
		}
		w := ansi.StringWidth(row)
		base := lines[ly]
		left := ansi.Truncate(base, x, "")
		if pad := x - ansi.StringWidth(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		right := ansi.TruncateLeft(base, x+w, "")
		lines[ly] = left + ansiReset + row + ansiReset + right
	}
}

// fit pads or cuts s to exactly width cells.
func fit(s string, width int) string {
	w := ansi.StringWidth(s)
	if w > width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-w)
}

const ansiReset = "\x1b[0m"
