package planner

import (
	"github.com/intelliplan/planboard/internal/navigation"
	"github.com/intelliplan/planboard/internal/schedule"
)

// Presenter draws the view models. The engine calls it from Apply, never
// concurrently with itself.
type Presenter interface {
	RenderDaySchedule(DayView)
	RenderWeekGrid(WeekView)
	RenderMonthGrid(MonthView)
}

// DayView is the hour list for the selected date plus the strip of the
// week around it.
type DayView struct {
	State      navigation.State     `json:"state"`
	Schedule   schedule.DaySchedule `json:"schedule"`
	WeekStart  string               `json:"week_start"`
	Indicators [7]bool              `json:"indicators"`
	Stats      schedule.TaskStats   `json:"task_stats"`
	Failed     []schedule.Kind      `json:"failed_sources,omitempty"`
}

// ClassWeek lists the dates on which one class meets in a week.
type ClassWeek struct {
	Name  string   `json:"name"`
	Dates []string `json:"dates"`
}

type WeekView struct {
	State     navigation.State    `json:"state"`
	WeekStart string              `json:"week_start"`
	Days      []schedule.DayCount `json:"days"`
	Classes   []ClassWeek         `json:"classes"`
}

type MonthView struct {
	State navigation.State   `json:"state"`
	Grid  schedule.MonthGrid `json:"grid"`
	// Marks holds the dates on which a class meets.
	Marks map[string]bool `json:"marks"`
}

// Snapshot is a Presenter that keeps the last view of each kind. It suits
// callers that drive the engine synchronously with Do.
type Snapshot struct {
	Day   DayView
	Week  WeekView
	Month MonthView
}

func (s *Snapshot) RenderDaySchedule(v DayView) { s.Day = v }
func (s *Snapshot) RenderWeekGrid(v WeekView)   { s.Week = v }
func (s *Snapshot) RenderMonthGrid(v MonthView) { s.Month = v }
