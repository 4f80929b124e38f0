package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelliplan/planboard/internal/dates"
	"github.com/intelliplan/planboard/internal/source"
)

func day(s string) time.Time {
	d, err := dates.ParseISODate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMatchesWeekly(t *testing.T) {
	class := source.ClassSchedule{Name: "Math", Days: "Mon, Wed", Status: source.ClassActive}

	tests := []struct {
		date string
		want bool
	}{
		{"2025-08-25", true},  // Mon
		{"2025-08-26", false}, // Tue
		{"2025-08-27", true},  // Wed
		{"2025-08-31", false}, // Sun
		{"2026-02-04", true},  // Wed, different month and year
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesDate(class, day(tt.date)))
		})
	}
}

func TestMatchesIsPureFunctionOfWeekday(t *testing.T) {
	class := source.ClassSchedule{Days: "Tue,Thu,Sat"}
	start := day("2024-01-01")
	for i := 0; i < 800; i++ {
		d := start.AddDate(0, 0, i)
		wd := d.Weekday()
		want := wd == time.Tuesday || wd == time.Thursday || wd == time.Saturday
		require.Equal(t, want, MatchesDate(class, d), dates.ISODate(d))
	}
}

func TestMatchesOverrideIsExclusive(t *testing.T) {
	class := source.ClassSchedule{
		Name:     "Review",
		StartsAt: "2025-08-28T18:00:00+00:00",
		Days:     "Mon,Tue,Wed,Thu,Fri,Sat,Sun",
	}

	hits := 0
	start := day("2025-08-01")
	for i := 0; i < 60; i++ {
		d := start.AddDate(0, 0, i)
		if MatchesDate(class, d) {
			hits++
			assert.Equal(t, "2025-08-28", dates.ISODate(d))
		}
	}
	assert.Equal(t, 1, hits)
}

func TestMatchesEdgeCases(t *testing.T) {
	wed := day("2025-08-27")

	archived := source.ClassSchedule{Days: "Wed", Status: source.ClassArchived}
	assert.False(t, MatchesDate(archived, wed))

	archivedOverride := source.ClassSchedule{StartsAt: "2025-08-27 09:00:00", Status: source.ClassArchived}
	assert.False(t, MatchesDate(archivedOverride, wed))

	inert := source.ClassSchedule{Name: "Nothing"}
	assert.False(t, MatchesDate(inert, wed))

	// An unreadable override falls back to the day-set.
	badOverride := source.ClassSchedule{StartsAt: "soon", Days: "Wed"}
	assert.True(t, MatchesDate(badOverride, wed))

	assert.True(t, Matches(source.ClassSchedule{Days: "wed"}, "2025-08-27", "Wed"))
}

func TestOccurrencesAgreeWithMatches(t *testing.T) {
	classes := []source.ClassSchedule{
		{Days: "Mon,Wed,Fri"},
		{Days: "Sun"},
		{Days: "Tue, Tue ,Xyz"},
		{StartsAt: "2025-09-03 09:00:00", Days: "Mon"},
		{StartsAt: "2025-12-01", Days: "Mon"},
		{Days: "Thu", Status: source.ClassArchived},
		{},
	}
	from, to := day("2025-08-25"), day("2025-09-30")

	for i, c := range classes {
		var want []string
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if MatchesDate(c, d) {
				want = append(want, dates.ISODate(d))
			}
		}

		var got []string
		for _, o := range Occurrences(c, from, to) {
			got = append(got, dates.ISODate(o))
		}
		assert.Equal(t, want, got, "class %d", i)
	}
}

func TestOccurrencesEmptyRange(t *testing.T) {
	assert.Nil(t, Occurrences(source.ClassSchedule{Days: "Mon"}, day("2025-09-02"), day("2025-09-01")))
}

// inZone runs the rest of the test with time.Local set to the named zone.
func inZone(t *testing.T, name string) {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("zone %s unavailable: %v", name, err)
	}
	saved := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = saved })
}

func TestOverrideUsesLocalDateOfUTCInstant(t *testing.T) {
	inZone(t, "America/New_York")

	// 01:00 UTC on the 6th is 20:00 on the 5th in New York.
	class := source.ClassSchedule{Name: "Lab", StartsAt: "2025-03-06T01:00:00+00:00", Status: source.ClassActive}

	assert.True(t, MatchesDate(class, day("2025-03-05")))
	assert.False(t, MatchesDate(class, day("2025-03-06")))

	occ := Occurrences(class, day("2025-03-03"), day("2025-03-09"))
	require.Len(t, occ, 1)
	assert.Equal(t, "2025-03-05", dates.ISODate(occ[0]))
}
