package util

import (
	"fmt"
	"time"
)

// FormatDuration renders a transport time as m:ss, or h:mm:ss past an hour.
func FormatDuration(d time.Duration) string {
	h, m, s := clockParts(d)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatProgress is the status bar's "elapsed / total". Elapsed takes the
// hour field whenever total has one, so the text keeps its width.
func FormatProgress(elapsed, total time.Duration) string {
	if th, _, _ := clockParts(total); th > 0 {
		h, m, s := clockParts(elapsed)
		return fmt.Sprintf("%d:%02d:%02d / %s", h, m, s, FormatDuration(total))
	}
	return FormatDuration(elapsed) + " / " + FormatDuration(total)
}

func clockParts(d time.Duration) (h, m, s int) {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return total / 3600, total / 60 % 60, total % 60
}
