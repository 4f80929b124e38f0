// Package planner runs the schedule pipeline: navigation state in, fetch
// through the sources, aggregate, and hand view models to a Presenter.
//
// Every state change returns a Build. Load performs the (possibly shared)
// fetch without holding any lock, and Apply renders the result only if no
// newer Build has been issued since. Older results are dropped, not
// cancelled.
package planner

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/intelliplan/planboard/internal/dates"
	"github.com/intelliplan/planboard/internal/navigation"
	"github.com/intelliplan/planboard/internal/recurrence"
	"github.com/intelliplan/planboard/internal/refresh"
	"github.com/intelliplan/planboard/internal/schedule"
	"github.com/intelliplan/planboard/internal/source"
)

// Build is one requested rebuild.
type Build struct {
	Seq   uint64
	State navigation.State
	// Fetch is set when the cached records do not cover State.CacheKey.
	Fetch bool
}

// Result is a loaded Build waiting to be applied.
type Result struct {
	Build   Build
	Records source.Records
	Report  schedule.FetchReport
}

type Options struct {
	Schedule schedule.Options
	Logger   *log.Logger
}

type Engine struct {
	sources   source.Sources
	presenter Presenter
	opts      schedule.Options
	logger    *log.Logger
	flight    singleflight.Group

	mu         sync.Mutex
	state      navigation.State
	latest     uint64
	records    source.Records
	recordsKey string
	report     schedule.FetchReport
}

// New creates an engine whose view starts at initial. Nothing is fetched
// until the first Build is loaded.
func New(srcs source.Sources, p Presenter, initial navigation.State, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Schedule.Logger == nil {
		opts.Schedule.Logger = opts.Logger
	}
	return &Engine{
		sources:   srcs,
		presenter: p,
		opts:      opts.Schedule,
		logger:    opts.Logger,
		state:     initial,
	}
}

// State returns the authoritative navigation state.
func (e *Engine) State() navigation.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Records returns the last applied records.
func (e *Engine) Records() source.Records {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.records
}

// SetPresenter swaps the presenter used by later Applies.
func (e *Engine) SetPresenter(p Presenter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.presenter = p
}

func (e *Engine) SelectDate(iso string) Build {
	return e.transition(func(s navigation.State) navigation.State {
		s, _ = navigation.SelectDate(s, iso)
		return s
	})
}

func (e *Engine) SetMode(m navigation.Mode) Build {
	return e.transition(func(s navigation.State) navigation.State {
		return navigation.SetMode(s, m)
	})
}

func (e *Engine) Today() Build {
	return e.transition(func(s navigation.State) navigation.State {
		s, _ = navigation.Today(s)
		return s
	})
}

func (e *Engine) Step(n int) Build {
	return e.transition(func(s navigation.State) navigation.State {
		s, _ = navigation.Step(s, n)
		return s
	})
}

// Refresh forces the next load to go to the sources.
func (e *Engine) Refresh() Build {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recordsKey = ""
	e.state = navigation.Invalidate(e.state)
	return e.forceLocked()
}

// CatchUp handles a refresh trigger. A new date rolls the state over; any
// trigger invalidates the cache so new records surface.
func (e *Engine) CatchUp(t refresh.Trigger) Build {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t.Today != "" && t.Today != e.state.Today {
		e.logger.Info("date rolled over", "from", e.state.Today, "to", t.Today, "reason", t.Reason)
		e.state = navigation.Rollover(e.state, t.Today)
	} else {
		e.state = navigation.Invalidate(e.state)
	}
	e.recordsKey = ""
	return e.forceLocked()
}

// forceLocked begins a Build that must not join a fetch started before it.
func (e *Engine) forceLocked() Build {
	b := e.beginLocked()
	e.flight.Forget(b.State.CacheKey)
	return b
}

func (e *Engine) transition(fn func(navigation.State) navigation.State) Build {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = fn(e.state)
	return e.beginLocked()
}

func (e *Engine) beginLocked() Build {
	if e.state.CacheKey == "" {
		e.state, _ = navigation.Claim(e.state)
	}
	e.latest++
	return Build{
		Seq:   e.latest,
		State: e.state,
		Fetch: e.state.CacheKey != e.recordsKey,
	}
}

// Load fetches the records a Build needs. Builds wanting the same range
// share one fetch. Load never fails; source errors show up in the report.
func (e *Engine) Load(ctx context.Context, b Build) Result {
	if !b.Fetch {
		return Result{Build: b}
	}

	start, end := navigation.VisibleRange(b.State)
	key := b.State.CacheKey
	v, _, shared := e.flight.Do(key, func() (any, error) {
		recs, report := schedule.Fetch(context.WithoutCancel(ctx), e.sources, source.Range{Start: start, End: end}, e.logger)
		return Result{Records: recs, Report: report}, nil
	})

	res := v.(Result)
	res.Build = b
	e.logger.Debug("records loaded", "seq", b.Seq, "range", key, "shared", shared, "count", res.Records.Len())
	return res
}

// Apply renders a loaded Build. It reports false, rendering nothing, when a
// newer Build has been issued.
func (e *Engine) Apply(r Result) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if r.Build.Seq != e.latest {
		e.logger.Debug("discarding stale build", "seq", r.Build.Seq, "latest", e.latest)
		return false
	}

	if r.Build.Fetch {
		e.records = r.Records
		e.recordsKey = r.Build.State.CacheKey
		e.report = r.Report
	}
	if e.presenter != nil {
		e.renderLocked()
	}
	return true
}

// Do loads and applies b in one go.
func (e *Engine) Do(ctx context.Context, b Build) bool {
	return e.Apply(e.Load(ctx, b))
}

func (e *Engine) renderLocked() {
	s := e.state
	e.presenter.RenderDaySchedule(e.dayViewLocked(s))
	e.presenter.RenderWeekGrid(e.weekViewLocked(s))
	e.presenter.RenderMonthGrid(e.monthViewLocked(s))
}

func weekStartOf(iso string) string {
	d, err := dates.ParseISODate(iso)
	if err != nil {
		return ""
	}
	return dates.ISODate(dates.StartOfWeek(d))
}

func (e *Engine) dayViewLocked(s navigation.State) DayView {
	ws := weekStartOf(s.Selected)
	v := DayView{
		State:      s,
		Schedule:   schedule.BuildDaySchedule(s.Selected, e.records, e.opts),
		WeekStart:  ws,
		Indicators: schedule.BuildWeekIndicators(ws, e.records.Classes),
		Stats:      schedule.ComputeTaskStats(e.records.Tasks, s.Today),
	}
	for _, f := range e.report.Failures {
		v.Failed = append(v.Failed, f.Kind)
	}
	return v
}

func (e *Engine) weekViewLocked(s navigation.State) WeekView {
	ws := weekStartOf(s.Selected)
	v := WeekView{
		State:     s,
		WeekStart: ws,
		Days:      schedule.BuildWeekSummary(ws, e.records, e.opts),
	}

	start, err := dates.ParseISODate(ws)
	if err != nil {
		return v
	}
	end := dates.AddDays(start, 6)
	for _, c := range e.records.Classes {
		occ := recurrence.Occurrences(c, start, end)
		if len(occ) == 0 {
			continue
		}
		cw := ClassWeek{Name: c.Name}
		for _, d := range occ {
			cw.Dates = append(cw.Dates, dates.ISODate(d))
		}
		v.Classes = append(v.Classes, cw)
	}
	return v
}

func (e *Engine) monthViewLocked(s navigation.State) MonthView {
	v := MonthView{State: s, Marks: map[string]bool{}}
	if len(s.Selected) < 7 {
		return v
	}

	grid, err := schedule.BuildMonthGrid(s.Selected[:7], s.Selected, s.Today)
	if err != nil {
		e.logger.Debug("month grid", "err", err)
		return v
	}
	v.Grid = grid

	for i := 0; i < len(grid.Cells); i += 7 {
		week := schedule.BuildWeekIndicators(grid.Cells[i].Date, e.records.Classes)
		for j, marked := range week {
			if marked {
				v.Marks[grid.Cells[i+j].Date] = true
			}
		}
	}
	return v
}
