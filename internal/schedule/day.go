package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/intelliplan/planboard/internal/dates"
	"github.com/intelliplan/planboard/internal/recurrence"
	"github.com/intelliplan/planboard/internal/source"
)

const (
	textSep  = " — "
	rangeSep = "–"
)

// BuildDaySchedule buckets every record that falls on isoDate into the
// visible hours. Timed items outside the visible range are dropped, all-day
// items go to the first bucket, and an empty day gets a single placeholder.
// Records that cannot be read are skipped one at a time.
func BuildDaySchedule(isoDate string, recs source.Records, opts Options) DaySchedule {
	opts = opts.normalize()

	day := DaySchedule{Date: isoDate}
	for h := opts.FirstHour; h <= opts.LastHour; h++ {
		day.Buckets = append(day.Buckets, Bucket{Hour: h, Label: opts.hourLabel(h), Items: []Item{}})
	}

	target, err := dates.ParseISODate(isoDate)
	if err != nil {
		opts.Logger.Debug("invalid schedule date", "date", isoDate, "err", err)
		day.Buckets[0].Items = []Item{placeholder(opts)}
		return day
	}
	abbrev := dates.DayAbbrev(target)

	var items []Item
	for _, e := range recs.Events {
		if it, ok := eventItem(e, isoDate, opts); ok {
			items = append(items, it)
		}
	}
	for _, t := range recs.Tasks {
		if it, ok := taskItem(t, isoDate, opts); ok {
			items = append(items, it)
		}
	}
	for _, c := range recs.Classes {
		if !recurrence.Matches(c, isoDate, abbrev) {
			continue
		}
		if it, ok := classItem(c, opts); ok {
			items = append(items, it)
		}
	}
	for _, x := range recs.Exams {
		if it, ok := examItem(x, isoDate, opts); ok {
			items = append(items, it)
		}
	}

	total := 0
	for _, it := range items {
		if !opts.visible(it.Hour) {
			continue
		}
		idx := it.Hour - opts.FirstHour
		day.Buckets[idx].Items = append(day.Buckets[idx].Items, it)
		total++
	}

	for i := range day.Buckets {
		b := day.Buckets[i].Items
		sort.SliceStable(b, func(a, c int) bool { return b[a].SortKey < b[c].SortKey })
	}

	if total == 0 {
		day.Buckets[0].Items = []Item{placeholder(opts)}
	}
	return day
}

func placeholder(opts Options) Item {
	return Item{
		Kind:        KindEvent,
		Text:        opts.Placeholder,
		Hour:        opts.FirstHour,
		AllDay:      true,
		Placeholder: true,
	}
}

func allDay(kind Kind, id, text string, key int, opts Options) Item {
	return Item{Kind: kind, ID: id, Text: "All day" + textSep + text, SortKey: key, Hour: opts.FirstHour, AllDay: true}
}

func timed(kind Kind, id, text string, at dates.Clock) Item {
	return Item{Kind: kind, ID: id, Text: text, SortKey: at.Minutes(), Hour: at.Hour}
}

// eventOnDate reports whether an event shows on isoDate. Timed events show
// on their start date. All-day events with an end span up to, but not
// including, the end date.
func eventOnDate(e source.CalendarEvent, start time.Time, isoDate string) bool {
	startISO := dates.ISODate(start)
	if startISO == isoDate {
		return true
	}
	if !e.AllDay || isoDate < startISO {
		return false
	}
	end, ok := e.EndTime()
	return ok && isoDate < dates.ISODate(end)
}

func eventItem(e source.CalendarEvent, isoDate string, opts Options) (Item, bool) {
	start, err := e.StartTime()
	if err != nil {
		opts.Logger.Debug("skipping event", "id", e.ID, "err", err)
		return Item{}, false
	}
	if !eventOnDate(e, start, isoDate) {
		return Item{}, false
	}

	if e.AllDay {
		return allDay(KindEvent, e.ID, e.Title, allDayEventKey, opts), true
	}

	at := dates.ClockOf(start)
	text := opts.formatClock(at)
	if end, ok := e.EndTime(); ok && dates.ISODate(end) == dates.ISODate(start) && end.After(start) {
		text += rangeSep + opts.formatClock(dates.ClockOf(end))
	}
	return timed(KindEvent, e.ID, text+textSep+e.Title, at), true
}

func taskItem(t source.Task, isoDate string, opts Options) (Item, bool) {
	if t.Done() || strings.TrimSpace(t.DueDate) == "" {
		return Item{}, false
	}
	due, ok := t.Due()
	if !ok {
		opts.Logger.Debug("skipping task", "id", t.ID, "due_date", t.DueDate)
		return Item{}, false
	}
	if dates.ISODate(due) != isoDate {
		return Item{}, false
	}

	if strings.TrimSpace(t.DueTime) == "" {
		return allDay(KindTask, t.ID, t.Title, allDayTaskKey, opts), true
	}
	at, err := dates.ParseClock(t.DueTime)
	if err != nil {
		opts.Logger.Debug("skipping task", "id", t.ID, "due_time", t.DueTime)
		return Item{}, false
	}
	return timed(KindTask, t.ID, opts.formatClock(at)+textSep+t.Title, at), true
}

// classItem assumes the class already matched the date.
func classItem(c source.ClassSchedule, opts Options) (Item, bool) {
	at, hasTime, err := classStart(c)
	if err != nil {
		opts.Logger.Debug("skipping class", "id", c.ID, "start_time", c.StartTime)
		return Item{}, false
	}
	if !hasTime {
		return allDay(KindClass, c.ID, c.Name, allDayClassKey, opts), true
	}

	text := opts.formatClock(at)
	if strings.TrimSpace(c.EndTime) != "" {
		if end, err := dates.ParseClock(c.EndTime); err == nil {
			text += rangeSep + opts.formatClock(end)
		}
	}
	return timed(KindClass, c.ID, text+textSep+c.Name, at), true
}

// classStart is the class's start_time, or the time of day of a starts_at
// override that carries one. It reports false for an all-day class.
func classStart(c source.ClassSchedule) (dates.Clock, bool, error) {
	if s := strings.TrimSpace(c.StartTime); s != "" {
		at, err := dates.ParseClock(s)
		return at, err == nil, err
	}
	if len(strings.TrimSpace(c.StartsAt)) > len("2006-01-02") {
		if o, ok := c.Override(); ok {
			return dates.ClockOf(o), true, nil
		}
	}
	return dates.Clock{}, false, nil
}

func examItem(x source.Exam, isoDate string, opts Options) (Item, bool) {
	if x.Done() {
		return Item{}, false
	}
	d, err := source.ParseTimestamp(x.ExamDate)
	if err != nil {
		opts.Logger.Debug("skipping exam", "id", x.ID, "exam_date", x.ExamDate)
		return Item{}, false
	}
	if dates.ISODate(d) != isoDate {
		return Item{}, false
	}

	title := "Exam: " + x.Title
	if loc := strings.TrimSpace(x.Location); loc != "" {
		title = fmt.Sprintf("%s @ %s", title, loc)
	}

	if strings.TrimSpace(x.ExamTime) == "" {
		return allDay(KindExam, x.ID, title, allDayExamKey, opts), true
	}
	at, err := dates.ParseClock(x.ExamTime)
	if err != nil {
		opts.Logger.Debug("skipping exam", "id", x.ID, "exam_time", x.ExamTime)
		return Item{}, false
	}
	return timed(KindExam, x.ID, opts.formatClock(at)+textSep+title, at), true
}
