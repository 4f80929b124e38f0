// Package recurrence decides on which dates a class meets.
package recurrence

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/intelliplan/planboard/internal/dates"
	"github.com/intelliplan/planboard/internal/source"
)

// Matches reports whether class meets on isoDate, whose weekday is dayAbbrev.
//
// Archived classes never match. A readable starts_at override pins the class
// to that one date and the day-set is not consulted. Otherwise the class
// meets on every day in its day-set; a class with neither never matches.
func Matches(class source.ClassSchedule, isoDate, dayAbbrev string) bool {
	if class.Archived() {
		return false
	}

	if at, ok := class.Override(); ok {
		return dates.ISODate(at) == isoDate
	}

	for _, d := range class.DaySet() {
		if strings.EqualFold(d, dayAbbrev) {
			return true
		}
	}
	return false
}

// MatchesDate is Matches for a calendar date.
func MatchesDate(class source.ClassSchedule, day time.Time) bool {
	return Matches(class, dates.ISODate(day), dates.DayAbbrev(day))
}

var rruleDays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Occurrences lists the midnight of every date in [from, to] on which the
// class meets, in order. It agrees with Matches for every date.
func Occurrences(class source.ClassSchedule, from, to time.Time) []time.Time {
	from, to = dates.StartOfDay(from), dates.StartOfDay(to)
	if class.Archived() || to.Before(from) {
		return nil
	}

	if at, ok := class.Override(); ok {
		day := dates.StartOfDay(at)
		if day.Before(from) || day.After(to) {
			return nil
		}
		return []time.Time{time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, from.Location())}
	}

	var byDay []rrule.Weekday
	seen := map[time.Weekday]bool{}
	for _, d := range class.DaySet() {
		wd, ok := dates.WeekdayFromAbbrev(d)
		if !ok || seen[wd] {
			continue
		}
		seen[wd] = true
		byDay = append(byDay, rruleDays[wd])
	}
	if len(byDay) == 0 {
		return nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: byDay,
		Dtstart:   from,
		Until:     to,
	})
	if err != nil {
		return nil
	}
	return rule.All()
}
