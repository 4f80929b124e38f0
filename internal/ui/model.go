package ui

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/intelliplan/planboard/internal/config"
	"github.com/intelliplan/planboard/internal/dates"
	"github.com/intelliplan/planboard/internal/navigation"
	"github.com/intelliplan/planboard/internal/planner"
	"github.com/intelliplan/planboard/internal/refresh"
)

const messageTimeout = 3 * time.Second

// Model is the terminal presenter. The engine renders into it from Apply,
// which Update calls, so every view model is touched on the program's
// goroutine only.
type Model struct {
	ctx       context.Context
	engine    *planner.Engine
	scheduler *refresh.Scheduler
	logger    *log.Logger
	keys      keyMap
	help      help.Model
	styles    Styles

	// Latest view models
	day      planner.DayView
	week     planner.WeekView
	month    planner.MonthView
	rendered bool
	loading  bool

	// Day view cursor
	cursor     int
	top        int
	cursorDate string

	// UI state
	width    int
	height   int
	showHelp bool
	message  string
	msgSeq   int
}

type Styles struct {
	Normal   lipgloss.Style
	Selected lipgloss.Style
	Today    lipgloss.Style
	Weekend  lipgloss.Style
	Header   lipgloss.Style
	Event    lipgloss.Style
	Dim      lipgloss.Style
	Mark     lipgloss.Style
	Warning  lipgloss.Style
	Help     lipgloss.Style
	Message  lipgloss.Style
	Border   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("235")).
			Background(lipgloss.Color("220")).
			Bold(true),
		Today: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true),
		Weekend: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true).
			Underline(true),
		Event: lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Mark: lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Message: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")),
	}
}

type Options struct {
	// Scheduler, when set, receives focus events so the resulting catch-up
	// carries the scheduler's idea of today.
	Scheduler *refresh.Scheduler
	Logger    *log.Logger
}

// NewModel creates the presenter and attaches it to engine.
func NewModel(ctx context.Context, cfg *config.Config, engine *planner.Engine, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	m := &Model{
		ctx:       ctx,
		engine:    engine,
		scheduler: opts.Scheduler,
		logger:    opts.Logger,
		keys:      newKeyMap(cfg),
		help:      help.New(),
		styles:    DefaultStyles(),
	}
	engine.SetPresenter(m)
	return m
}

// TriggerMsg delivers a refresh trigger into the program.
type TriggerMsg struct {
	Trigger refresh.Trigger
}

type loadedMsg struct {
	result planner.Result
}

type clearMessageMsg struct {
	seq int
}

func (m *Model) RenderDaySchedule(v planner.DayView) {
	m.day = v
	m.rendered = true
	if v.State.Selected != m.cursorDate {
		m.cursorDate = v.State.Selected
		m.cursor = m.initialCursor()
		m.top = 0
	}
	if n := len(v.Schedule.Buckets); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m *Model) RenderWeekGrid(v planner.WeekView)   { m.week = v }
func (m *Model) RenderMonthGrid(v planner.MonthView) { m.month = v }

// initialCursor points at the current hour on today, otherwise at the
// first bucket holding something.
func (m *Model) initialCursor() int {
	buckets := m.day.Schedule.Buckets
	if m.day.State.Selected == m.day.State.Today {
		hour := time.Now().Hour()
		for i, b := range buckets {
			if b.Hour == hour {
				return i
			}
		}
	}
	for i, b := range buckets {
		for _, it := range b.Items {
			if !it.Placeholder {
				return i
			}
		}
	}
	return 0
}

func (m *Model) Init() tea.Cmd {
	return m.build(m.engine.SelectDate(m.engine.State().Selected))
}

// build runs a Build. Cached builds apply immediately; fetching ones load
// off the update loop and come back as a loadedMsg.
func (m *Model) build(b planner.Build) tea.Cmd {
	if !b.Fetch {
		m.engine.Apply(planner.Result{Build: b})
		m.loading = false
		return nil
	}
	m.loading = true
	ctx, engine := m.ctx, m.engine
	return func() tea.Msg {
		return loadedMsg{result: engine.Load(ctx, b)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case loadedMsg:
		if m.engine.Apply(msg.result) {
			m.loading = false
		}
		return m, nil

	case TriggerMsg:
		m.logger.Debug("catching up", "reason", msg.Trigger.Reason, "today", msg.Trigger.Today)
		return m, m.build(m.engine.CatchUp(msg.Trigger))

	case tea.FocusMsg:
		if m.scheduler != nil {
			m.scheduler.Focus()
			return m, nil
		}
		now := time.Now()
		t := refresh.Trigger{Reason: refresh.ReasonFocus, At: now, Today: dates.ISODate(now)}
		return m, m.build(m.engine.CatchUp(t))

	case clearMessageMsg:
		if msg.seq == m.msgSeq {
			m.message = ""
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) mode() navigation.Mode {
	if m.rendered {
		return m.day.State.Mode
	}
	return m.engine.State().Mode
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.showHelp {
		// Any other key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.refresh):
		return m, tea.Batch(m.build(m.engine.Refresh()), m.showMessage("Refreshing"))

	case key.Matches(msg, m.keys.today):
		return m, m.build(m.engine.Today())

	case key.Matches(msg, m.keys.next):
		return m, m.build(m.engine.Step(1))

	case key.Matches(msg, m.keys.prev):
		return m, m.build(m.engine.Step(-1))

	case key.Matches(msg, m.keys.nextWeek):
		return m, m.shiftDays(7)

	case key.Matches(msg, m.keys.prevWeek):
		return m, m.shiftDays(-7)

	case key.Matches(msg, m.keys.viewDay):
		return m, m.build(m.engine.SetMode(navigation.ModeDay))

	case key.Matches(msg, m.keys.viewWeek):
		return m, m.build(m.engine.SetMode(navigation.ModeWeek))

	case key.Matches(msg, m.keys.viewMonth):
		return m, m.build(m.engine.SetMode(navigation.ModeMonth))

	case key.Matches(msg, m.keys.down):
		return m, m.moveCursor(1)

	case key.Matches(msg, m.keys.up):
		return m, m.moveCursor(-1)
	}

	return m, nil
}

// moveCursor walks hour buckets in the day view, days in the week view and
// weeks in the month grid.
func (m *Model) moveCursor(delta int) tea.Cmd {
	switch m.mode() {
	case navigation.ModeWeek:
		return m.shiftDays(delta)
	case navigation.ModeMonth:
		return m.shiftDays(7 * delta)
	}

	n := len(m.day.Schedule.Buckets)
	if n == 0 {
		return nil
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	return nil
}

func (m *Model) shiftDays(n int) tea.Cmd {
	sel, err := dates.ParseISODate(m.engine.State().Selected)
	if err != nil {
		return nil
	}
	return m.build(m.engine.SelectDate(dates.ISODate(dates.AddDays(sel, n))))
}

func (m *Model) showMessage(text string) tea.Cmd {
	m.msgSeq++
	m.message = text
	seq := m.msgSeq
	return tea.Tick(messageTimeout, func(time.Time) tea.Msg {
		return clearMessageMsg{seq: seq}
	})
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 || !m.rendered {
		return "Loading..."
	}
	if m.showHelp {
		return m.viewHelp()
	}

	var body string
	switch m.mode() {
	case navigation.ModeWeek:
		body = m.viewWeek()
	case navigation.ModeMonth:
		body = m.viewMonth()
	default:
		body = m.viewDay()
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
}
