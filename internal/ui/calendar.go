package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/intelliplan/planboard/internal/dates"
)

func (m *Model) viewWeek() string {
	w := m.week
	lines := []string{m.styles.Header.Render("Week of " + shortDate(w.WeekStart)), ""}

	for _, d := range w.Days {
		day, err := dates.ParseISODate(d.Date)
		if err != nil {
			continue
		}
		dot := "  "
		if d.HasClasses {
			dot = m.styles.Mark.Render("• ")
		}
		count := "nothing"
		switch {
		case d.Count == 1:
			count = "1 item"
		case d.Count > 1:
			count = fmt.Sprintf("%d items", d.Count)
		}
		row := fmt.Sprintf("%s %s  ", d.Abbrev, day.Format("Jan 02"))

		style := m.styles.Normal
		switch {
		case d.Date == w.State.Selected:
			style = m.styles.Selected
		case d.Date == w.State.Today:
			style = m.styles.Today
		case day.Weekday() == time.Saturday || day.Weekday() == time.Sunday:
			style = m.styles.Weekend
		}
		lines = append(lines, style.Render(row)+dot+m.styles.Help.Render(count))
	}

	if len(w.Classes) > 0 {
		lines = append(lines, "", m.styles.Header.Render("Classes"))
		nameWidth := 0
		for _, c := range w.Classes {
			nameWidth = max(nameWidth, runewidth.StringWidth(c.Name))
		}
		nameWidth = min(nameWidth, max(m.width/2, 12))
		for _, c := range w.Classes {
			days := make([]string, 0, len(c.Dates))
			for _, iso := range c.Dates {
				if d, err := dates.ParseISODate(iso); err == nil {
					days = append(days, dates.DayAbbrev(d))
				}
			}
			name := runewidth.FillRight(runewidth.Truncate(c.Name, nameWidth, "…"), nameWidth)
			lines = append(lines, name+"  "+m.styles.Event.Render(strings.Join(days, ", ")))
		}
	}

	// The selected day's hours sit beside the week list.
	left := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "   ", m.renderSelectedHour(max(m.width/3, 24)))
}

// viewMonth draws the 42-day grid. Days with a class carry a dot.
func (m *Model) viewMonth() string {
	g := m.month.Grid
	if len(g.Cells) == 0 {
		return m.styles.Help.Render("(no month)")
	}

	const cellWidth = 5
	lines := []string{m.styles.Header.Render(g.Title), ""}

	var head []string
	for _, name := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		head = append(head, m.styles.Dim.Render(runewidth.FillRight(name, cellWidth)))
	}
	lines = append(lines, strings.Join(head, ""))

	for row := 0; row*7 < len(g.Cells); row++ {
		var cells []string
		for _, c := range g.Cells[row*7 : row*7+7] {
			text := fmt.Sprintf("%2d", c.Day)
			if m.month.Marks[c.Date] {
				text += "•"
			}
			text = runewidth.FillRight(text, cellWidth-1)

			style := m.styles.Normal
			switch {
			case c.Selected:
				style = m.styles.Selected
			case c.Today:
				style = m.styles.Today
			case c.Muted:
				style = m.styles.Dim
			case m.month.Marks[c.Date]:
				style = m.styles.Mark
			}
			cells = append(cells, style.Render(text)+" ")
		}
		lines = append(lines, strings.Join(cells, ""))
	}

	grid := m.styles.Border.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.JoinVertical(lipgloss.Left, grid, m.renderTaskStats())
}

func shortDate(iso string) string {
	d, err := dates.ParseISODate(iso)
	if err != nil {
		return iso
	}
	return d.Format("Jan 2, 2006")
}
