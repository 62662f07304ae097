package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "ctrl+c":
		return true
	}
	return false
}

func helpText(loaded bool) string {
	s := ""
	if loaded {
		s += "space play  "
	}
	return s + "o open  e effects  l light  v values  q quit"
}
