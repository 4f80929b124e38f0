// Package parser reads the date expressions accepted on the command line,
// such as "tomorrow", "next fri", "in 2 weeks", "3/14" or "2025-09-01".
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/intelliplan/planboard/internal/dates"
)

var ErrUnrecognized = errors.New("unrecognized date")

var (
	isoRe       = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	slashRe     = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})(?:[/-](\d{4}))?$`)
	monthNameRe = regexp.MustCompile(`^(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)\s+(\d{1,2})(?:,?\s+(\d{4}))?$`)
	weekdayRe   = regexp.MustCompile(`^(?:(next|this|last)\s+)?(mon|monday|tue|tues|tuesday|wed|wednesday|thu|thur|thurs|thursday|fri|friday|sat|saturday|sun|sunday)$`)
	inRe        = regexp.MustCompile(`^in\s+(\d+)\s+(day|days|week|weeks|month|months)$`)
	agoRe       = regexp.MustCompile(`^(\d+)\s+(day|days|week|weeks|month|months)\s+(ago|from\s+(?:now|today))$`)
	offsetRe    = regexp.MustCompile(`^([+-]\d+)([dwm]?)$`)
)

type DateParser struct {
	now time.Time
}

func NewDateParser() *DateParser {
	return &DateParser{now: time.Now()}
}

func (p *DateParser) SetNow(now time.Time) {
	p.now = now
}

// Parse resolves input to a local midnight.
func (p *DateParser) Parse(input string) (time.Time, error) {
	lower := strings.Join(strings.Fields(strings.ToLower(input)), " ")
	if lower == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrUnrecognized)
	}

	today := dates.StartOfDay(p.now)
	switch lower {
	case "today", "now":
		return today, nil
	case "tomorrow", "tmrw":
		return dates.AddDays(today, 1), nil
	case "yesterday":
		return dates.AddDays(today, -1), nil
	}

	if m := isoRe.FindStringSubmatch(lower); m != nil {
		return p.date(atoi(m[1]), atoi(m[2]), atoi(m[3]), input)
	}
	if m := slashRe.FindStringSubmatch(lower); m != nil {
		year := p.now.Year()
		if m[3] != "" {
			year = atoi(m[3])
		}
		return p.date(year, atoi(m[1]), atoi(m[2]), input)
	}
	if m := monthNameRe.FindStringSubmatch(lower); m != nil {
		year := p.now.Year()
		if m[3] != "" {
			year = atoi(m[3])
		}
		return p.date(year, int(parseMonth(m[1])), atoi(m[2]), input)
	}
	if m := weekdayRe.FindStringSubmatch(lower); m != nil {
		wd, _ := dates.WeekdayFromAbbrev(m[2][:3])
		return p.weekday(wd, m[1]), nil
	}
	if m := inRe.FindStringSubmatch(lower); m != nil {
		return shift(today, atoi(m[1]), m[2]), nil
	}
	if m := agoRe.FindStringSubmatch(lower); m != nil {
		n := atoi(m[1])
		if m[3] == "ago" {
			n = -n
		}
		return shift(today, n, m[2]), nil
	}
	if m := offsetRe.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		unit := map[string]string{"": "day", "d": "day", "w": "week", "m": "month"}[m[2]]
		return shift(today, n, unit), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, input)
}

// date builds a local date and rejects values time.Date would normalize,
// such as February 30.
func (p *DateParser) date(year, month, day int, input string) (time.Time, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrUnrecognized, input)
	}
	return t, nil
}

// weekday resolves a weekday name. A bare name or "this" means the next
// such day on or after today, "next" skips a week from that, and "last" is
// the most recent one strictly before today.
func (p *DateParser) weekday(target time.Weekday, qualifier string) time.Time {
	today := dates.StartOfDay(p.now)
	if qualifier == "last" {
		back := int(today.Weekday()-target+7) % 7
		if back == 0 {
			back = 7
		}
		return dates.AddDays(today, -back)
	}

	ahead := int(target-today.Weekday()+7) % 7
	if qualifier == "next" {
		if ahead == 0 {
			ahead = 7
		} else {
			ahead += 7
		}
	}
	return dates.AddDays(today, ahead)
}

func shift(t time.Time, n int, unit string) time.Time {
	switch {
	case strings.HasPrefix(unit, "week"):
		return dates.AddDays(t, 7*n)
	case strings.HasPrefix(unit, "month"):
		return t.AddDate(0, n, 0)
	default:
		return dates.AddDays(t, n)
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseMonth(s string) time.Month {
	switch s[:3] {
	case "jan":
		return time.January
	case "feb":
		return time.February
	case "mar":
		return time.March
	case "apr":
		return time.April
	case "may":
		return time.May
	case "jun":
		return time.June
	case "jul":
		return time.July
	case "aug":
		return time.August
	case "sep":
		return time.September
	case "oct":
		return time.October
	case "nov":
		return time.November
	default:
		return time.December
	}
}
