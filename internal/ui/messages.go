package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/panelviz/internal/config"
	"github.com/olivier-w/panelviz/internal/player"
)

type frameMsg time.Time

// trackOpenedMsg carries the result of opening a file off the UI goroutine.
type trackOpenedMsg struct {
	path  string
	track *player.Track
	err   error
}

type stateSavedMsg struct {
	err error
}

// AppearanceMsg pushes edited config values into the running editor.
type AppearanceMsg config.Appearance

// LoadPathMsg asks the editor to load a file, as if it had been dropped.
type LoadPathMsg string

func frameCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}
