package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/charmbracelet/log"
	"github.com/teambition/rrule-go"
)

// ICSFile reads calendar events from a local iCalendar file. Recurring
// VEVENTs are expanded over the requested range.
type ICSFile struct {
	Path   string
	logger *log.Logger
	fileWatch
}

func NewICSFile(path string, logger *log.Logger) *ICSFile {
	if logger == nil {
		logger = log.Default()
	}
	return &ICSFile{Path: path, logger: logger}
}

func (f *ICSFile) Events(_ context.Context, r Range) ([]CalendarEvent, error) {
	if f.Path == "" {
		return nil, ErrNoPath
	}
	body, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read ics: %w", err)
	}

	events, err := ParseICS(body, r, f.logger)
	if err != nil {
		return nil, fmt.Errorf("ics %s: %w", f.Path, err)
	}
	return events, nil
}

func (f *ICSFile) WatchFiles() (<-chan FileChangeEvent, error) {
	return f.watchPath(f.Path, f.logger)
}

// ParseICS converts VEVENTs to calendar events overlapping r. A VEVENT that
// cannot be read is logged and skipped.
func ParseICS(body []byte, r Range, logger *log.Logger) ([]CalendarEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty ICS body", ErrMalformedRecord)
	}
	if logger == nil {
		logger = log.Default()
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var out []CalendarEvent
	for _, ve := range cal.Events() {
		events, err := expandVEvent(ve, r)
		if err != nil {
			logger.Debug("skipping vevent", "err", err)
			continue
		}
		out = append(out, FilterEvents(events, r)...)
	}
	return out, nil
}

func expandVEvent(ve *ical.VEvent, r Range) ([]CalendarEvent, error) {
	uid := ve.Id()
	if uid == "" {
		return nil, fmt.Errorf("%w: VEVENT without UID", ErrMalformedRecord)
	}

	base := CalendarEvent{ID: uid}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		base.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		base.Description = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return nil, fmt.Errorf("%w: %s has no DTSTART", ErrMalformedRecord, uid)
	}
	base.AllDay = isDateValue(dtStart)

	var start, end time.Time
	var hasEnd bool
	if base.AllDay {
		d, err := time.ParseInLocation("20060102", strings.TrimSpace(dtStart.Value), time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: %s DTSTART: %v", ErrMalformedRecord, uid, err)
		}
		start = d
	} else {
		t, err := ve.GetStartAt()
		if err != nil {
			return nil, fmt.Errorf("%w: %s DTSTART: %v", ErrMalformedRecord, uid, err)
		}
		start = wallClock(t)
		if t, err := ve.GetEndAt(); err == nil {
			end, hasEnd = wallClock(t), true
		}
	}

	p := ve.GetProperty(ical.ComponentPropertyRrule)
	if p == nil {
		return []CalendarEvent{withTimes(base, start, end, hasEnd)}, nil
	}

	rule, err := rrule.StrToRRule(p.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s RRULE: %v", ErrMalformedRecord, uid, err)
	}
	rule.DTStart(start)

	var out []CalendarEvent
	for _, occ := range rule.Between(r.Start, r.End, true) {
		ev := base
		ev.ID = fmt.Sprintf("%s@%s", uid, occ.Format("20060102T150405"))
		occEnd := end
		if hasEnd {
			occEnd = occ.Add(end.Sub(start))
		}
		out = append(out, withTimes(ev, occ, occEnd, hasEnd))
	}
	return out, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// wallClock drops the zone, keeping the local reading of t.
func wallClock(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
}

func withTimes(ev CalendarEvent, start, end time.Time, hasEnd bool) CalendarEvent {
	if ev.AllDay {
		ev.Start = start.Format("2006-01-02")
		return ev
	}
	ev.Start = start.Format(rangeLayout)
	if hasEnd {
		ev.End = end.Format(rangeLayout)
	}
	return ev
}
