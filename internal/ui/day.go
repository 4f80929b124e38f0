package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/intelliplan/planboard/internal/dates"
)

const (
	labelWidth = 9 // "12:00 PM "
	itemSep    = "  │ "
)

// viewDay renders the hour list on the left and the week strip, the
// selected hour and the task counters on the right.
func (m *Model) viewDay() string {
	listWidth := m.width * 2 / 3
	if listWidth < 40 {
		listWidth = 40
	}
	sideWidth := m.width - listWidth - 1
	if sideWidth < 24 {
		sideWidth = 24
	}

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderDayHeader(listWidth),
		m.renderHourList(listWidth),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderWeekStrip(),
		"",
		m.renderSelectedHour(sideWidth),
		"",
		m.renderTaskStats(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listWidth).Render(left),
		" ",
		right,
	)
}

func (m *Model) renderDayHeader(width int) string {
	title := selectedTitle(m.day.State.Selected)
	if m.day.State.Selected == m.day.State.Today {
		title += " (today)"
	}
	lines := []string{m.styles.Header.Render(title)}

	if len(m.day.Failed) > 0 {
		kinds := make([]string, len(m.day.Failed))
		for i, k := range m.day.Failed {
			kinds[i] = string(k)
		}
		warn := "Could not load: " + strings.Join(kinds, ", ")
		lines = append(lines, m.styles.Warning.Render(runewidth.Truncate(warn, width, "…")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// hourRows is how many buckets fit between the header and the status bar.
func (m *Model) hourRows() int {
	rows := m.height - 4
	if len(m.day.Failed) > 0 {
		rows--
	}
	if rows < 5 {
		rows = 5
	}
	return rows
}

func (m *Model) renderHourList(width int) string {
	buckets := m.day.Schedule.Buckets
	rows := m.hourRows()

	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+rows {
		m.top = m.cursor - rows + 1
	}

	now := time.Now()
	isToday := m.day.State.Selected == dates.ISODate(now)

	var lines []string
	for i := m.top; i < len(buckets) && i < m.top+rows; i++ {
		b := buckets[i]
		label := fmt.Sprintf("%*s ", labelWidth-1, b.Label)

		texts := make([]string, 0, len(b.Items))
		for _, it := range b.Items {
			texts = append(texts, it.Text)
		}
		line := runewidth.Truncate(label+strings.Join(texts, itemSep), width, "…")

		style := m.styles.Normal
		switch {
		case i == m.cursor:
			style = m.styles.Selected
		case isToday && b.Hour == now.Hour():
			style = m.styles.Today
		case len(b.Items) > 0 && b.Items[0].Placeholder:
			style = m.styles.Dim
		case len(b.Items) > 0:
			style = m.styles.Event
		}
		lines = append(lines, style.Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderWeekStrip shows the seven days around the selection with a dot on
// days that have a class.
func (m *Model) renderWeekStrip() string {
	start, err := dates.ParseISODate(m.day.WeekStart)
	if err != nil {
		return ""
	}

	var names, days, dots []string
	for i := 0; i < 7; i++ {
		d := dates.AddDays(start, i)
		iso := dates.ISODate(d)

		names = append(names, m.styles.Dim.Render(dates.DayAbbrev(d)[:2]+" "))

		num := fmt.Sprintf("%2d ", d.Day())
		switch {
		case iso == m.day.State.Selected:
			num = m.styles.Selected.Render(num)
		case iso == m.day.State.Today:
			num = m.styles.Today.Render(num)
		case d.Weekday() == time.Saturday || d.Weekday() == time.Sunday:
			num = m.styles.Weekend.Render(num)
		default:
			num = m.styles.Normal.Render(num)
		}
		days = append(days, num)

		dot := "   "
		if m.day.Indicators[i] {
			dot = m.styles.Mark.Render(" • ")
		}
		dots = append(dots, dot)
	}

	return m.styles.Border.Render(lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(names, ""),
		strings.Join(days, ""),
		strings.Join(dots, ""),
	))
}

// renderSelectedHour lists every item of the bucket under the cursor.
func (m *Model) renderSelectedHour(width int) string {
	buckets := m.day.Schedule.Buckets
	if m.cursor >= len(buckets) {
		return ""
	}
	b := buckets[m.cursor]
	wrapAt := max(width-4, 20)

	lines := []string{m.styles.Header.Render(wordwrap.String(b.Label, wrapAt)), ""}
	if len(b.Items) == 0 {
		lines = append(lines, m.styles.Help.Render("(nothing this hour)"))
	}
	for i, it := range b.Items {
		if i > 0 {
			lines = append(lines, "")
		}
		if it.Placeholder {
			lines = append(lines, m.styles.Dim.Render(it.Text))
			continue
		}
		lines = append(lines, m.styles.Dim.Render(string(it.Kind)))
		for _, l := range strings.Split(wordwrap.String(it.Text, wrapAt), "\n") {
			if l != "" {
				lines = append(lines, l)
			}
		}
	}

	return m.styles.Border.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) renderTaskStats() string {
	s := m.day.Stats
	line := fmt.Sprintf("Tasks  %d pending  %d due today  %d overdue  %d done",
		s.Pending, s.DueToday, s.Overdue, s.Completed)
	if s.Overdue > 0 {
		return m.styles.Warning.Render(line)
	}
	return m.styles.Help.Render(line)
}

func selectedTitle(iso string) string {
	d, err := dates.ParseISODate(iso)
	if err != nil {
		return iso
	}
	return d.Format("Monday, January 2, 2006")
}
