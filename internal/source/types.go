package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/intelliplan/planboard/internal/dates"
)

type TaskStatus string

const (
	TaskOpen TaskStatus = "open"
	TaskDone TaskStatus = "done"
)

type ClassStatus string

const (
	ClassActive   ClassStatus = "active"
	ClassArchived ClassStatus = "archived"
)

type ExamStatus string

const (
	ExamScheduled ExamStatus = "scheduled"
	ExamDone      ExamStatus = "done"
)

// ClassView is the listing hint passed to class sources.
type ClassView string

const (
	ClassViewCurrent ClassView = "current"
	ClassViewPast    ClassView = "past"
	ClassViewAll     ClassView = "all"
)

// Range is an inclusive local wall-clock interval.
type Range struct {
	Start time.Time
	End   time.Time
}

// DayRange covers from..to as whole days.
func DayRange(from, to time.Time) Range {
	end := dates.StartOfDay(to)
	return Range{
		Start: dates.StartOfDay(from),
		End:   time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location()),
	}
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ContainsDate reports whether the ISO date falls inside the range.
func (r Range) ContainsDate(iso string) bool {
	return iso >= dates.ISODate(r.Start) && iso <= dates.ISODate(r.End)
}

func (r Range) String() string {
	return fmt.Sprintf("%s..%s", dates.ISODate(r.Start), dates.ISODate(r.End))
}

// CalendarEvent is an ad-hoc calendar entry. Start and End keep the
// collaborator's text; use StartTime/EndTime to read them.
type CalendarEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	AllDay      bool   `json:"allDay"`
	Description string `json:"description,omitempty"`
}

func (e CalendarEvent) StartTime() (time.Time, error) {
	return ParseTimestamp(e.Start)
}

// EndTime returns false when the event has no usable end.
func (e CalendarEvent) EndTime() (time.Time, bool) {
	if strings.TrimSpace(e.End) == "" {
		return time.Time{}, false
	}
	t, err := ParseTimestamp(e.End)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type Task struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Subject string     `json:"subject,omitempty"`
	DueDate string     `json:"due_date,omitempty"`
	DueTime string     `json:"due_time,omitempty"`
	Status  TaskStatus `json:"status"`
}

func (t Task) Done() bool { return t.Status == TaskDone }

// Due returns the task's due date in local time, false when it has none.
func (t Task) Due() (time.Time, bool) {
	if strings.TrimSpace(t.DueDate) == "" {
		return time.Time{}, false
	}
	d, err := ParseTimestamp(t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return dates.StartOfDay(d), true
}

type ClassSchedule struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	StartsAt  string      `json:"starts_at,omitempty"`
	Days      string      `json:"days,omitempty"`
	StartTime string      `json:"start_time,omitempty"`
	EndTime   string      `json:"end_time,omitempty"`
	Professor string      `json:"professor,omitempty"`
	Status    ClassStatus `json:"status"`
}

func (c ClassSchedule) Archived() bool { return c.Status == ClassArchived }

// Override returns the absolute starts_at timestamp in local time when it
// parses. The classes endpoint sends it as UTC.
func (c ClassSchedule) Override() (time.Time, bool) {
	if strings.TrimSpace(c.StartsAt) == "" {
		return time.Time{}, false
	}
	t, err := ParseInstant(c.StartsAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DaySet splits the comma-separated day list, dropping blanks.
func (c ClassSchedule) DaySet() []string {
	var out []string
	for _, d := range strings.Split(c.Days, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

type Exam struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	ExamDate string     `json:"exam_date"`
	ExamTime string     `json:"exam_time,omitempty"`
	Location string     `json:"location,omitempty"`
	Status   ExamStatus `json:"status"`
}

func (e Exam) Done() bool { return e.Status == ExamDone }

// Records is one fetch worth of raw records from all four kinds.
type Records struct {
	Events  []CalendarEvent `json:"events"`
	Tasks   []Task          `json:"tasks"`
	Classes []ClassSchedule `json:"classes"`
	Exams   []Exam          `json:"exams"`
}

// Len is the total record count.
func (r Records) Len() int {
	return len(r.Events) + len(r.Tasks) + len(r.Classes) + len(r.Exams)
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp reads the timestamp shapes the collaborators send. Zone
// offsets are discarded and the wall clock is kept as local time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrMalformedRecord)
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrMalformedRecord, s)
}

// ParseInstant is ParseTimestamp for values that name an absolute instant:
// a zone offset is honoured and the result converted to local time.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(time.Local), nil
		}
	}
	return ParseTimestamp(s)
}
