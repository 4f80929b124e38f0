// Package dates holds the calendar helpers shared by the schedule engine.
//
// All values are naive local wall-clock times: nothing here converts between
// zones, and every function reads the calendar fields of its argument as-is.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

var dayAbbrevs = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// ISODate formats t as YYYY-MM-DD using its own calendar fields.
func ISODate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// ParseISODate parses YYYY-MM-DD into midnight local time.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(isoLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ISO date %q: %w", s, err)
	}
	return t, nil
}

// StartOfDay returns t truncated to 00:00:00.000 in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddDays moves t by n calendar days, keeping the wall clock.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// StartOfWeek returns the Monday on or before t at 00:00:00.000.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// EndOfWeek returns start+6 days at 23:59:59.999.
func EndOfWeek(start time.Time) time.Time {
	end := start.AddDate(0, 0, 6)
	return time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, int(999*time.Millisecond), end.Location())
}

// StartOfMonth returns the first day of t's month at midnight.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DayAbbrev returns the three-letter English weekday name of t.
func DayAbbrev(t time.Time) string {
	return dayAbbrevs[t.Weekday()]
}

// WeekdayFromAbbrev maps "Mon" (any case, surrounding space ignored) to its weekday.
func WeekdayFromAbbrev(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(s)
	for i, abbr := range dayAbbrevs {
		if strings.EqualFold(abbr, s) {
			return time.Weekday(i), true
		}
	}
	return time.Sunday, false
}

// Clock is a wall-clock time of day without a date.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock accepts HH:MM or HH:MM:SS.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Clock{}, fmt.Errorf("invalid clock %q", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("invalid minute in %q", s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return Clock{}, fmt.Errorf("invalid second in %q", s)
		}
	}

	return Clock{Hour: hour, Minute: minute}, nil
}

// ClockOf returns the wall clock of t.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// Format12 renders the clock as "9:05 AM".
func (c Clock) Format12() string {
	suffix := "AM"
	if c.Hour >= 12 {
		suffix = "PM"
	}
	h := c.Hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute, suffix)
}

// Format24 renders the clock as "09:05".
func (c Clock) Format24() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
