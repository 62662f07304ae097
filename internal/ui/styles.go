package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"})

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#888888", Dark: "#888888"})

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"})

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"})

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3A3A48")).
			Background(lipgloss.Color("#202028")).
			Foreground(lipgloss.Color("#E8E8EE"))

	menuActiveStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#007AFF")).
			Foreground(lipgloss.Color("#FFFFFF"))

	menuDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6A6A78"))

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B3B3B3"))
)

// pickerTheme holds the sidebar colours for one mode.
type pickerTheme struct {
	base, text, dim, sep lipgloss.Style
}

func newPickerTheme(light bool) pickerTheme {
	bg, text, dim, sep := "#121218", "#FFFFFF", "#6E6E78", "#30303A"
	if light {
		bg, text, dim, sep = "#F5F5FA", "#000000", "#8E8E96", "#C8C8D2"
	}
	base := lipgloss.NewStyle().Background(lipgloss.Color(bg))
	return pickerTheme{
		base: base,
		text: base.Foreground(lipgloss.Color(text)),
		dim:  base.Foreground(lipgloss.Color(dim)),
		sep:  base.Foreground(lipgloss.Color(sep)),
	}
}

func valueStyle(light bool) lipgloss.Style {
	if light {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#E6E6E6"))
}
