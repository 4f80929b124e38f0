package source

import (
	"context"
	"sync"

	"github.com/intelliplan/planboard/internal/dates"
)

// Static serves records held in memory. It backs the bundle file adapter and
// is handy for demos.
type Static struct {
	mu      sync.RWMutex
	records Records
}

func NewStatic(r Records) *Static {
	return &Static{records: r}
}

// Set replaces the held records.
func (s *Static) Set(r Records) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = r
}

func (s *Static) Records() Records {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

func (s *Static) Events(_ context.Context, r Range) ([]CalendarEvent, error) {
	return FilterEvents(s.Records().Events, r), nil
}

func (s *Static) Tasks(_ context.Context) ([]Task, error) {
	tasks := s.Records().Tasks
	return append([]Task(nil), tasks...), nil
}

func (s *Static) Classes(_ context.Context, view ClassView) ([]ClassSchedule, error) {
	return FilterClasses(s.Records().Classes, view), nil
}

func (s *Static) Exams(_ context.Context, r Range) ([]Exam, error) {
	return FilterExams(s.Records().Exams, r), nil
}

// FilterEvents keeps events overlapping r. Events whose start cannot be read
// are passed through for the aggregator to reject.
func FilterEvents(events []CalendarEvent, r Range) []CalendarEvent {
	var out []CalendarEvent
	for _, e := range events {
		start, err := e.StartTime()
		if err != nil {
			out = append(out, e)
			continue
		}
		end, hasEnd := e.EndTime()
		switch {
		case r.Contains(start):
		case hasEnd && r.Contains(end):
		case hasEnd && !start.After(r.Start) && !end.Before(r.End):
		case e.AllDay && r.ContainsDate(dates.ISODate(start)):
		default:
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterClasses applies the listing view: current hides archived classes,
// past shows only archived ones.
func FilterClasses(classes []ClassSchedule, view ClassView) []ClassSchedule {
	var out []ClassSchedule
	for _, c := range classes {
		switch view {
		case ClassViewCurrent:
			if c.Archived() {
				continue
			}
		case ClassViewPast:
			if !c.Archived() {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// FilterExams keeps exams whose date lies inside r.
func FilterExams(exams []Exam, r Range) []Exam {
	var out []Exam
	for _, e := range exams {
		d, err := ParseTimestamp(e.ExamDate)
		if err != nil {
			out = append(out, e)
			continue
		}
		if r.ContainsDate(dates.ISODate(d)) {
			out = append(out, e)
		}
	}
	return out
}
