// Package schedule merges events, tasks, classes and exams into per-day
// hour buckets and builds the week and month summaries around them.
package schedule

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/intelliplan/planboard/internal/dates"
)

type Kind string

const (
	KindEvent Kind = "event"
	KindTask  Kind = "task"
	KindClass Kind = "class"
	KindExam  Kind = "exam"
)

// All-day sort keys. They order all-day entries of different kinds among
// themselves and keep them ahead of timed items in the first bucket.
const (
	allDayEventKey = iota
	allDayTaskKey
	allDayClassKey
	allDayExamKey
)

// Item is one normalised schedule entry. Items are built per render and
// never persisted.
type Item struct {
	Kind        Kind   `json:"kind"`
	ID          string `json:"id,omitempty"`
	Text        string `json:"text"`
	SortKey     int    `json:"sort_key"`
	Hour        int    `json:"hour"`
	AllDay      bool   `json:"all_day"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// Bucket holds the items starting in one visible hour.
type Bucket struct {
	Hour  int    `json:"hour"`
	Label string `json:"label"`
	Items []Item `json:"items"`
}

// DaySchedule is the bucketed view of one date.
type DaySchedule struct {
	Date    string   `json:"date"`
	Buckets []Bucket `json:"buckets"`
}

// Count returns the number of real items, leaving out the placeholder.
func (d DaySchedule) Count() int {
	n := 0
	for _, b := range d.Buckets {
		for _, it := range b.Items {
			if !it.Placeholder {
				n++
			}
		}
	}
	return n
}

// Items flattens the buckets in display order.
func (d DaySchedule) Items() []Item {
	var out []Item
	for _, b := range d.Buckets {
		out = append(out, b.Items...)
	}
	return out
}

// Bucket returns the bucket for hour, false if the hour is not visible.
func (d DaySchedule) Bucket(hour int) (Bucket, bool) {
	for _, b := range d.Buckets {
		if b.Hour == hour {
			return b, true
		}
	}
	return Bucket{}, false
}

type TimeFormat string

const (
	Clock12 TimeFormat = "12h"
	Clock24 TimeFormat = "24h"
)

const DefaultPlaceholder = "No reminders"

// Options control how a day is bucketed and labelled.
type Options struct {
	// FirstHour and LastHour bound the visible buckets, inclusive. All-day
	// items fold into FirstHour.
	FirstHour   int
	LastHour    int
	TimeFormat  TimeFormat
	Placeholder string
	Logger      *log.Logger
}

func DefaultOptions() Options {
	return Options{
		FirstHour:   1,
		LastHour:    23,
		TimeFormat:  Clock12,
		Placeholder: DefaultPlaceholder,
	}
}

func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.FirstHour < 0 || o.FirstHour > 23 || o.LastHour < o.FirstHour || o.LastHour > 23 ||
		(o.FirstHour == 0 && o.LastHour == 0) {
		o.FirstHour, o.LastHour = d.FirstHour, d.LastHour
	}
	if o.TimeFormat != Clock24 {
		o.TimeFormat = Clock12
	}
	if o.Placeholder == "" {
		o.Placeholder = d.Placeholder
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

func (o Options) visible(hour int) bool {
	return hour >= o.FirstHour && hour <= o.LastHour
}

func (o Options) formatClock(c dates.Clock) string {
	if o.TimeFormat == Clock24 {
		return c.Format24()
	}
	return c.Format12()
}

func (o Options) hourLabel(hour int) string {
	return o.formatClock(dates.Clock{Hour: hour})
}
