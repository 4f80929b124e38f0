package planner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelliplan/planboard/internal/navigation"
	"github.com/intelliplan/planboard/internal/refresh"
	"github.com/intelliplan/planboard/internal/schedule"
	"github.com/intelliplan/planboard/internal/source"
)

type recorder struct {
	days   []DayView
	weeks  []WeekView
	months []MonthView
}

func (r *recorder) RenderDaySchedule(v DayView) { r.days = append(r.days, v) }
func (r *recorder) RenderWeekGrid(v WeekView)   { r.weeks = append(r.weeks, v) }
func (r *recorder) RenderMonthGrid(v MonthView) { r.months = append(r.months, v) }

func (r *recorder) lastDay() DayView { return r.days[len(r.days)-1] }

// counting wraps a Static and counts event fetches.
type counting struct {
	*source.Static
	calls    atomic.Int32
	tasksErr error
}

func (c *counting) Events(ctx context.Context, r source.Range) ([]source.CalendarEvent, error) {
	c.calls.Add(1)
	return c.Static.Events(ctx, r)
}

func (c *counting) Tasks(ctx context.Context) ([]source.Task, error) {
	if c.tasksErr != nil {
		return nil, c.tasksErr
	}
	return c.Static.Tasks(ctx)
}

func fixture() source.Records {
	return source.Records{
		Events: []source.CalendarEvent{
			{ID: "e1", Title: "Study group", Start: "2025-08-27 14:30:00", End: "2025-08-27 15:30:00"},
		},
		Tasks: []source.Task{
			{ID: "t1", Title: "Essay", DueDate: "2025-08-27", DueTime: "17:00", Status: source.TaskOpen},
			{ID: "t2", Title: "Lab report", DueDate: "2025-08-20", Status: source.TaskOpen},
		},
		Classes: []source.ClassSchedule{
			{ID: "c1", Name: "Calculus", Days: "Mon,Wed", StartTime: "09:00", EndTime: "10:00", Status: source.ClassActive},
		},
		Exams: []source.Exam{
			{ID: "x1", Title: "Physics midterm", ExamDate: "2025-08-29", ExamTime: "10:00", Location: "Hall B", Status: source.ExamScheduled},
		},
	}
}

func newEngine(t *testing.T, src *counting) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	today := time.Date(2025, 8, 27, 8, 0, 0, 0, time.Local)
	e := New(source.All(src), rec, navigation.New(today, navigation.ModeDay), Options{Schedule: schedule.DefaultOptions()})
	return e, rec
}

func TestEngineRendersEveryView(t *testing.T) {
	src := &counting{Static: source.NewStatic(fixture())}
	e, rec := newEngine(t, src)

	b := e.SelectDate("2025-08-27")
	require.True(t, b.Fetch)
	require.True(t, e.Do(context.Background(), b))

	require.Len(t, rec.days, 1)
	require.Len(t, rec.weeks, 1)
	require.Len(t, rec.months, 1)

	day := rec.lastDay()
	assert.Equal(t, "2025-08-25", day.WeekStart)
	assert.Equal(t, [7]bool{true, false, true, false, false, false, false}, day.Indicators)
	assert.Equal(t, 3, day.Schedule.Count())
	assert.Equal(t, 1, day.Stats.Overdue)
	assert.Empty(t, day.Failed)

	week := rec.weeks[0]
	require.Len(t, week.Days, 7)
	assert.Equal(t, 1, week.Days[4].Count)
	require.Len(t, week.Classes, 1)
	assert.Equal(t, []string{"2025-08-25", "2025-08-27"}, week.Classes[0].Dates)

	month := rec.months[0]
	assert.Equal(t, "2025-07-28", month.Grid.Cells[0].Date)
	assert.True(t, month.Marks["2025-08-25"])
	assert.False(t, month.Marks["2025-08-26"])
}

func TestEngineReusesCachedRange(t *testing.T) {
	src := &counting{Static: source.NewStatic(fixture())}
	e, _ := newEngine(t, src)
	ctx := context.Background()

	require.True(t, e.Do(ctx, e.SelectDate("2025-08-27")))
	assert.EqualValues(t, 1, src.calls.Load())

	b := e.SelectDate("2025-08-29")
	assert.False(t, b.Fetch, "same week must not refetch")
	require.True(t, e.Do(ctx, b))
	assert.EqualValues(t, 1, src.calls.Load())

	b = e.SetMode(navigation.ModeWeek)
	assert.False(t, b.Fetch)

	b = e.SelectDate("2025-09-03")
	assert.True(t, b.Fetch)
	require.True(t, e.Do(ctx, b))
	assert.EqualValues(t, 2, src.calls.Load())
}

func TestEngineRefreshAlwaysFetches(t *testing.T) {
	src := &counting{Static: source.NewStatic(fixture())}
	e, rec := newEngine(t, src)
	ctx := context.Background()

	require.True(t, e.Do(ctx, e.SelectDate("2025-08-27")))

	src.Set(source.Records{})
	b := e.Refresh()
	assert.True(t, b.Fetch)
	require.True(t, e.Do(ctx, b))
	assert.EqualValues(t, 2, src.calls.Load())
	assert.True(t, rec.lastDay().Schedule.Items()[0].Placeholder)
}

func TestEngineDiscardsStaleBuild(t *testing.T) {
	src := &counting{Static: source.NewStatic(fixture())}
	e, rec := newEngine(t, src)
	ctx := context.Background()

	first := e.Load(ctx, e.SelectDate("2025-08-27"))
	second := e.Load(ctx, e.SelectDate("2025-09-10"))

	// The older result arrives late and must not overwrite anything.
	assert.True(t, e.Apply(second))
	assert.False(t, e.Apply(first))

	require.Len(t, rec.days, 1)
	assert.Equal(t, "2025-09-10", rec.lastDay().State.Selected)
	assert.Equal(t, "2025-09-08|2025-09-14", e.State().CacheKey)
}

func TestEngineStaleBuildBeforeNewerApply(t *testing.T) {
	src := &counting{Static: source.NewStatic(fixture())}
	e, rec := newEngine(t, src)
	ctx := context.Background()

	first := e.Load(ctx, e.SelectDate("2025-08-27"))
	e.SelectDate("2025-09-10")

	assert.False(t, e.Apply(first))
	assert.Empty(t, rec.days)
	assert.Empty(t, e.Records().Events)
}

func TestEngineCatchUpRollsOver(t *testing.T) {
	src := &counting{Static: source.NewStatic(fixture())}
	e, rec := newEngine(t, src)
	ctx := context.Background()
	require.True(t, e.Do(ctx, e.SelectDate("2025-08-27")))

	b := e.CatchUp(refresh.Trigger{Reason: refresh.ReasonMidnight, Today: "2025-08-28"})
	assert.True(t, b.Fetch)
	assert.Equal(t, "2025-08-28", b.State.Today)
	assert.Equal(t, "2025-08-28", b.State.Selected)
	require.True(t, e.Do(ctx, b))
	assert.Equal(t, "2025-08-28", rec.lastDay().State.Selected)

	// Same day: the selection stays but the records are refetched.
	require.True(t, e.Do(ctx, e.SelectDate("2025-08-30")))
	b = e.CatchUp(refresh.Trigger{Reason: refresh.ReasonFocus, Today: "2025-08-28"})
	assert.True(t, b.Fetch)
	assert.Equal(t, "2025-08-30", b.State.Selected)
}

func TestEngineReportsFailedSources(t *testing.T) {
	src := &counting{Static: source.NewStatic(fixture()), tasksErr: errors.New("tasks.php: 500")}
	e, rec := newEngine(t, src)

	require.True(t, e.Do(context.Background(), e.SelectDate("2025-08-27")))
	day := rec.lastDay()
	assert.Equal(t, []schedule.Kind{schedule.KindTask}, day.Failed)
	// The other kinds still render.
	assert.Equal(t, 2, day.Schedule.Count())
}
