package schedule

import (
	"github.com/intelliplan/planboard/internal/dates"
	"github.com/intelliplan/planboard/internal/recurrence"
	"github.com/intelliplan/planboard/internal/source"
)

// BuildWeekIndicators marks each of the seven days from weekStartISO on
// which at least one non-archived class meets.
func BuildWeekIndicators(weekStartISO string, classes []source.ClassSchedule) [7]bool {
	var out [7]bool
	start, err := dates.ParseISODate(weekStartISO)
	if err != nil {
		return out
	}

	for i := range out {
		d := dates.AddDays(start, i)
		iso, abbrev := dates.ISODate(d), dates.DayAbbrev(d)
		for _, c := range classes {
			if recurrence.Matches(c, iso, abbrev) {
				out[i] = true
				break
			}
		}
	}
	return out
}

// DayCount summarises one day of a week.
type DayCount struct {
	Date       string `json:"date"`
	Abbrev     string `json:"abbrev"`
	Count      int    `json:"count"`
	HasClasses bool   `json:"has_classes"`
}

// BuildWeekSummary counts the real items on each of the seven days from
// weekStartISO, using the same rules as the day schedule.
func BuildWeekSummary(weekStartISO string, recs source.Records, opts Options) []DayCount {
	start, err := dates.ParseISODate(weekStartISO)
	if err != nil {
		return nil
	}
	indicators := BuildWeekIndicators(weekStartISO, recs.Classes)

	out := make([]DayCount, 7)
	for i := range out {
		d := dates.AddDays(start, i)
		iso := dates.ISODate(d)
		out[i] = DayCount{
			Date:       iso,
			Abbrev:     dates.DayAbbrev(d),
			Count:      BuildDaySchedule(iso, recs, opts).Count(),
			HasClasses: indicators[i],
		}
	}
	return out
}
