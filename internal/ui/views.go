package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) viewHelp() string {
	help := []string{
		m.styles.Header.Render("Planboard Help"),
		"",
		m.help.FullHelpView(m.keys.FullHelp()),
		"",
		m.styles.Normal.Render("Views:"),
		m.styles.Help.Render("  day    - hour list for the selected date"),
		m.styles.Help.Render("  week   - item counts per day and class meetings"),
		m.styles.Help.Render("  month  - six-week grid, dots mark class days"),
		"",
		m.styles.Help.Render("Press any key to return..."),
	}

	return lipgloss.JoinVertical(lipgloss.Left, help...)
}

func (m *Model) renderStatusBar() string {
	left := fmt.Sprintf(" %s | %s | Items: %d",
		shortDate(m.day.State.Selected),
		m.mode(),
		m.day.Schedule.Count())
	if m.loading {
		left += " | loading"
	}

	right := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.message != "" {
		right = m.styles.Message.Render(m.message)
	}

	width := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if width < 0 {
		width = 0
	}

	middle := strings.Repeat(" ", width)

	return m.styles.Help.Render(left+middle) + right
}
