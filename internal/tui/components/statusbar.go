package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/scanbridge"
	"github.com/allbin/scanbridge/internal/tui/colors"
	"github.com/allbin/scanbridge/internal/tui/styles"
)

// StatusBar is the single line at the bottom of the listen screen.
type StatusBar struct {
	title    string
	baudRate int
	width    int
}

func NewStatusBar(title string, baudRate int) *StatusBar {
	return &StatusBar{
		title:    title,
		baudRate: baudRate,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

// indicator returns the one-character connection glyph for a state.
func indicator(state scanbridge.State) string {
	switch state {
	case scanbridge.StateStarted:
		return "●"
	case scanbridge.StateError, scanbridge.StateNoDevice, scanbridge.StateNoDriver, scanbridge.StateNoPermission:
		return "✗"
	default:
		return "○"
	}
}

// View renders the bar: state badge, title, indicator and any error on the
// left; line settings, scan count and clock on the right.
func (sb *StatusBar) View(status scanbridge.Status, scans int, timestamp string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	badge := styles.StateBadgeStyle(status.State).Render(status.State.String())
	title := styles.TitleStyle.Render(sb.title)
	conn := lipgloss.NewStyle().
		Foreground(styles.StateColor(status.State)).
		Render(indicator(status.State))

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	left := []string{badge, title, conn}
	if status.State == scanbridge.StateError && status.Message != "" {
		left = append(left, lipgloss.NewStyle().Padding(0, 1).Inherit(styles.ErrorStyle).Render(status.Message))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	details := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(fmt.Sprintf("⚡ %d baud 8N1", sb.baudRate))
	count := lipgloss.NewStyle().
		Foreground(colors.Teal).
		Padding(0, 1).
		Render(fmt.Sprintf("%d scans", scans))
	clock := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(timestamp)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, count, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(terminalWidth).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
