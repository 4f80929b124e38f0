package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelliplan/planboard/internal/navigation"
	"github.com/intelliplan/planboard/internal/planner"
	"github.com/intelliplan/planboard/internal/refresh"
	"github.com/intelliplan/planboard/internal/schedule"
	"github.com/intelliplan/planboard/internal/source"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	recs := source.Records{
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
	today := time.Date(2025, 8, 27, 8, 0, 0, 0, time.Local)
	engine := planner.New(source.All(source.NewStatic(recs)), nil,
		navigation.New(today, navigation.ModeDay), planner.Options{Schedule: schedule.DefaultOptions()})
	return NewServer(engine, nil)
}

func get(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func hasItem(day schedule.DaySchedule, text string) bool {
	for _, it := range day.Items() {
		if strings.Contains(it.Text, text) {
			return true
		}
	}
	return false
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestDay(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, http.MethodGet, "/api/day")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var v planner.DayView
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "2025-08-27", v.State.Selected)
	assert.Equal(t, "2025-08-27", v.Schedule.Date)
	assert.True(t, hasItem(v.Schedule, "Calculus"))
	assert.True(t, hasItem(v.Schedule, "Study group"))
	assert.Equal(t, "2025-08-25", v.WeekStart)
	assert.True(t, v.Indicators[0])
	assert.False(t, v.Indicators[1])
}

func TestDayRelativeDate(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, http.MethodGet, "/api/day?date=tomorrow")
	require.Equal(t, http.StatusOK, rec.Code)

	var v planner.DayView
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "2025-08-28", v.State.Selected)
	assert.Equal(t, "2025-08-27", v.State.Today)
	assert.False(t, hasItem(v.Schedule, "Calculus"))
}

func TestBadDate(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, http.MethodGet, "/api/day?date=someday+soon")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestWeek(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, http.MethodGet, "/api/week?date=2025-08-29")
	require.Equal(t, http.StatusOK, rec.Code)

	var v planner.WeekView
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, navigation.ModeWeek, v.State.Mode)
	assert.Equal(t, "2025-08-25", v.WeekStart)
	require.Len(t, v.Days, 7)
	assert.True(t, v.Days[0].HasClasses)
	assert.True(t, v.Days[2].HasClasses)
	assert.False(t, v.Days[4].HasClasses)
	require.Len(t, v.Classes, 1)
	assert.Equal(t, []string{"2025-08-25", "2025-08-27"}, v.Classes[0].Dates)
}

func TestMonth(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, http.MethodGet, "/api/month?date=2025-09-10")
	require.Equal(t, http.StatusOK, rec.Code)

	var v planner.MonthView
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, navigation.ModeMonth, v.State.Mode)
	assert.Equal(t, "September 2025", v.Grid.Title)
	assert.Len(t, v.Grid.Cells, 42)
	assert.True(t, v.Marks["2025-09-01"])
	assert.False(t, v.Marks["2025-09-02"])
}

func TestTaskStats(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, http.MethodGet, "/api/tasks/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Today string             `json:"today"`
		Stats schedule.TaskStats `json:"stats"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2025-08-27", body.Today)
	assert.Equal(t, 1, body.Stats.Pending)
	assert.Equal(t, 1, body.Stats.DueToday)
}

func TestRefreshNeedsPost(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusMethodNotAllowed, get(t, s, http.MethodGet, "/api/refresh").Code)
	assert.Equal(t, http.StatusOK, get(t, s, http.MethodPost, "/api/refresh").Code)
}

func TestCatchUpMovesToday(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, get(t, s, http.MethodGet, "/api/day").Code)

	s.CatchUp(context.Background(), refresh.Trigger{Reason: refresh.ReasonMidnight, Today: "2025-08-28"})

	rec := get(t, s, http.MethodGet, "/api/day")
	var v planner.DayView
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "2025-08-28", v.State.Today)
	assert.Equal(t, "2025-08-28", v.State.Selected)
}

func TestTasks(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, http.MethodGet, "/api/tasks?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Today string        `json:"today"`
		Tasks []source.Task `json:"tasks"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2025-08-27", body.Today)
	require.Len(t, body.Tasks, 1)
	assert.Equal(t, "Essay", body.Tasks[0].Title)

	rec = get(t, s, http.MethodGet, "/api/tasks?view=overdue")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Tasks)

	assert.Equal(t, http.StatusBadRequest, get(t, s, http.MethodGet, "/api/tasks?view=someday").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, http.MethodGet, "/api/tasks?limit=-1").Code)
}
