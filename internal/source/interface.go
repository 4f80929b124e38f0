package source

import (
	"context"
	"time"
)

// EventSource returns calendar events overlapping a range.
type EventSource interface {
	Events(ctx context.Context, r Range) ([]CalendarEvent, error)
}

// TaskSource returns every task; callers filter by date.
type TaskSource interface {
	Tasks(ctx context.Context) ([]Task, error)
}

// ClassSource returns class records for the given listing view.
type ClassSource interface {
	Classes(ctx context.Context, view ClassView) ([]ClassSchedule, error)
}

// ExamSource returns exams dated inside a range.
type ExamSource interface {
	Exams(ctx context.Context, r Range) ([]Exam, error)
}

// Sources groups one adapter per record kind. A nil field behaves like a
// source that always returns nothing.
type Sources struct {
	Events  EventSource
	Tasks   TaskSource
	Classes ClassSource
	Exams   ExamSource
}

// All wires a single adapter implementing every kind.
func All(s interface {
	EventSource
	TaskSource
	ClassSource
	ExamSource
}) Sources {
	return Sources{Events: s, Tasks: s, Classes: s, Exams: s}
}

// Watchable is implemented by file-backed adapters.
type Watchable interface {
	// WatchFiles returns a channel that sends updates when source files change.
	WatchFiles() (<-chan FileChangeEvent, error)
	StopWatching() error
}

// FileChangeEvent represents a change to a source file
type FileChangeEvent struct {
	Path      string
	Timestamp time.Time
}
