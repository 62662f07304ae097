package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/panelviz/internal/media"
)

// BrowserSelectedMsg reports the file picked in the browser.
type BrowserSelectedMsg struct {
	Path string
}

// BrowserCancelledMsg reports that the browser was closed without a pick.
type BrowserCancelledMsg struct{}

type fileItem struct {
	name string
	ext  string
}

func (i fileItem) Title() string       { return i.name }
func (i fileItem) Description() string { return i.ext }
func (i fileItem) FilterValue() string { return i.name }

type dirItem struct {
	name string
}

func (i dirItem) Title() string       { return i.name + "/" }
func (i dirItem) Description() string { return "folder" }
func (i dirItem) FilterValue() string { return i.name }

type pathItem struct{}

func (i pathItem) Title() string       { return "Enter a path..." }
func (i pathItem) Description() string { return "type or paste the location of a file" }
func (i pathItem) FilterValue() string { return "path" }

// BrowserModel lists the audio files of a directory.
type BrowserModel struct {
	dir       string
	list      list.Model
	input     textinput.Model
	inputMode bool
	err       error
}

// NewEmbeddedBrowser scans dir for supported audio files and sub-folders.
func NewEmbeddedBrowser(dir string) BrowserModel {
	abs, err := filepath.Abs(dir)
	if err == nil {
		dir = abs
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(nil, delegate, 80, 20)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = headerStyle

	ti := textinput.New()
	ti.Placeholder = "/path/to/track.wav"
	ti.CharLimit = 4096
	ti.Width = 60

	m := BrowserModel{list: l, input: ti}
	m.err = m.scan(dir)
	return m
}

func (m *BrowserModel) scan(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read directory: %w", err)
	}
	m.dir = dir

	items := []list.Item{pathItem{}}
	if parent := filepath.Dir(dir); parent != dir {
		items = append(items, dirItem{name: ".."})
	}
	var files []list.Item
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			items = append(items, dirItem{name: e.Name()})
			continue
		}
		ext := filepath.Ext(e.Name())
		if !media.IsSupportedExt(ext) {
			continue
		}
		files = append(files, fileItem{name: strings.TrimSuffix(e.Name(), ext), ext: ext})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].(fileItem).name < files[j].(fileItem).name
	})
	m.list.SetItems(append(items, files...))
	m.list.Title = "Open audio: " + dir
	m.list.ResetSelected()
	return nil
}

// HasError returns true if the browser could not read its directory.
func (m BrowserModel) HasError() bool { return m.err != nil }

// Error returns the scan error, if any.
func (m BrowserModel) Error() error { return m.err }

// SetSize fits the list to the terminal.
func (m *BrowserModel) SetSize(w, h int) {
	m.list.SetWidth(w)
	m.list.SetHeight(h)
}

func selected(path string) tea.Cmd {
	return func() tea.Msg { return BrowserSelectedMsg{Path: path} }
}

func cancelled() tea.Msg { return BrowserCancelledMsg{} }

func (m BrowserModel) Update(msg tea.Msg) (BrowserModel, tea.Cmd) {
	if m.inputMode {
		return m.updatePathInput(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			switch item := m.list.SelectedItem().(type) {
			case pathItem:
				m.inputMode = true
				m.input.Focus()
				return m, textinput.Blink
			case dirItem:
				if err := m.scan(filepath.Join(m.dir, item.name)); err != nil {
					m.err = err
				}
				return m, nil
			case fileItem:
				return m, selected(filepath.Join(m.dir, item.name+item.ext))
			}
		case "q", "esc", "ctrl+c":
			return m, cancelled
		}

	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BrowserModel) updatePathInput(msg tea.Msg) (BrowserModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			if path, ok := media.DroppedAudio(m.input.Value()); ok {
				return m, selected(path)
			}
			m.err = fmt.Errorf("not a supported audio file (%s)", media.SupportedExtsList())
			return m, nil
		case "esc":
			m.inputMode = false
			m.err = nil
			m.input.Reset()
			m.input.Blur()
			return m, nil
		case "ctrl+c":
			return m, cancelled
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m BrowserModel) View() string {
	if m.inputMode {
		s := "\n"
		s += "  " + headerStyle.Render("panelviz") + "\n"
		s += "\n"
		s += "  " + statusStyle.Render("Path:") + "\n"
		s += "  " + m.input.View() + "\n"
		if m.err != nil {
			s += "  " + hintStyle.Render(m.err.Error()) + "\n"
		}
		s += "\n"
		s += "  " + helpStyle.Render("enter open  esc back  ctrl+c close") + "\n"
		return s
	}
	return m.list.View()
}
