package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelliplan/planboard/internal/config"
	"github.com/intelliplan/planboard/internal/navigation"
	"github.com/intelliplan/planboard/internal/planner"
	"github.com/intelliplan/planboard/internal/refresh"
	"github.com/intelliplan/planboard/internal/source"
)

func fixture() source.Records {
	return source.Records{
		Events: []source.CalendarEvent{
			{ID: "e1", Title: "Study group", Start: "2025-08-27 14:30:00", End: "2025-08-27 15:30:00"},
		},
		Tasks: []source.Task{
			{ID: "t1", Title: "Essay", DueDate: "2025-08-27", DueTime: "17:00", Status: source.TaskOpen},
		},
		Classes: []source.ClassSchedule{
			{ID: "c1", Name: "Calculus", Days: "Mon,Wed", StartTime: "09:00", EndTime: "10:00", Status: source.ClassActive},
		},
	}
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Normalize()

	today := time.Date(2025, 8, 27, 8, 0, 0, 0, time.Local)
	engine := planner.New(source.All(source.NewStatic(fixture())), nil,
		navigation.New(today, navigation.ModeDay), planner.Options{Schedule: cfg.ScheduleOptions()})
	m := NewModel(context.Background(), cfg, engine, Options{})

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	run(m, m.Init())
	require.True(t, m.rendered)
	return m
}

// collect runs cmd and returns its messages. Commands that do not finish
// quickly, such as message timeouts, are ignored.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c)...)
			}
			return out
		}
		return []tea.Msg{msg}
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

// run feeds the loads started by cmd back into the model.
func run(m *Model, cmd tea.Cmd) {
	for _, msg := range collect(cmd) {
		if lm, ok := msg.(loadedMsg); ok {
			m.Update(lm)
		}
	}
}

func press(m *Model, keys string) {
	for _, r := range keys {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		run(m, cmd)
	}
}

func TestInitialRender(t *testing.T) {
	m := newTestModel(t)

	assert.Equal(t, "2025-08-27", m.day.State.Selected)
	assert.False(t, m.loading)

	view := m.View()
	assert.Contains(t, view, "Wednesday, August 27, 2025 (today)")
	assert.Contains(t, view, "Calculus")
	assert.Contains(t, view, "Study group")
	assert.Contains(t, view, "Items: 3")
}

func TestNavigationKeys(t *testing.T) {
	m := newTestModel(t)

	press(m, "l")
	assert.Equal(t, "2025-08-28", m.day.State.Selected)

	press(m, "hh")
	assert.Equal(t, "2025-08-26", m.day.State.Selected)

	press(m, "J")
	assert.Equal(t, "2025-09-02", m.day.State.Selected)
	assert.Equal(t, "2025-09-01|2025-09-07", m.day.State.CacheKey)

	press(m, "t")
	assert.Equal(t, "2025-08-27", m.day.State.Selected)
	assert.Contains(t, m.View(), "Calculus")
}

func TestViewModes(t *testing.T) {
	m := newTestModel(t)

	press(m, "w")
	assert.Equal(t, navigation.ModeWeek, m.mode())
	view := m.View()
	assert.Contains(t, view, "Week of Aug 25, 2025")
	assert.Contains(t, view, "Classes")
	assert.Contains(t, view, "Mon, Wed")

	// In week mode next moves a whole week.
	press(m, "l")
	assert.Equal(t, "2025-09-03", m.day.State.Selected)

	press(m, "m")
	assert.Equal(t, navigation.ModeMonth, m.mode())
	assert.Contains(t, m.View(), "September 2025")

	press(m, "d")
	assert.Contains(t, m.View(), "Wednesday, September 3, 2025")
}

func TestCursorMoves(t *testing.T) {
	m := newTestModel(t)
	m.cursor = 0

	press(m, "j")
	assert.Equal(t, 1, m.cursor)

	press(m, "kk")
	assert.Equal(t, 0, m.cursor)

	for range 40 {
		press(m, "j")
	}
	assert.Equal(t, len(m.day.Schedule.Buckets)-1, m.cursor)
}

func TestTriggerCatchesUp(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(TriggerMsg{Trigger: refresh.Trigger{Reason: refresh.ReasonMidnight, Today: "2025-08-28"}})
	run(m, cmd)

	assert.Equal(t, "2025-08-28", m.day.State.Today)
	assert.Equal(t, "2025-08-28", m.day.State.Selected)
	assert.Contains(t, m.View(), "Thursday, August 28, 2025 (today)")
}

func TestStaleLoadIgnored(t *testing.T) {
	m := newTestModel(t)

	// Start a fetch for next week but do not deliver it yet.
	_, slow := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("J")})
	require.NotNil(t, slow)
	assert.True(t, m.loading)

	// Going back to today is served from the cache right away.
	press(m, "t")
	assert.Equal(t, "2025-08-27", m.day.State.Selected)
	assert.False(t, m.loading)

	run(m, slow)
	assert.Equal(t, "2025-08-27", m.day.State.Selected)
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t)

	press(m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Planboard Help")

	press(m, "x")
	assert.False(t, m.showHelp)
	assert.Equal(t, "2025-08-27", m.day.State.Selected)
}

func TestRefreshShowsMessage(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, "Refreshing", m.message)
	run(m, cmd)
	assert.False(t, m.loading)

	m.Update(clearMessageMsg{seq: m.msgSeq})
	assert.Empty(t, m.message)
}
