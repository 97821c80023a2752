package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/scanbridge"
	"github.com/allbin/scanbridge/internal/tui/colors"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Padding(0, 1)

	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	HelpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(1, 2).
			Margin(1, 0)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	CodeStyle = lipgloss.NewStyle().
			Foreground(colors.Teal).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay1)
)

// StateColor is the accent used for a bridge state.
func StateColor(state scanbridge.State) lipgloss.Color {
	switch state {
	case scanbridge.StateStarted:
		return colors.Green
	case scanbridge.StateConnecting, scanbridge.StateRequestingPermission:
		return colors.Yellow
	case scanbridge.StateNoDevice, scanbridge.StateNoDriver, scanbridge.StateNoPermission:
		return colors.Peach
	case scanbridge.StateError:
		return colors.Red
	default:
		return colors.Blue
	}
}

// StateBadgeStyle renders the state name as a filled block, like the mode
// indicator of an editor status line.
func StateBadgeStyle(state scanbridge.State) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(StateColor(state)).
		Bold(true).
		Padding(0, 1)
}
