// Package navigation holds the calendar's view state. State is a value and
// every transition returns a new one; the caller keeps the authoritative copy.
package navigation

import (
	"fmt"
	"strings"
	"time"

	"github.com/intelliplan/planboard/internal/dates"
)

type Mode string

const (
	ModeDay   Mode = "day"
	ModeWeek  Mode = "week"
	ModeMonth Mode = "month"
)

// ParseMode accepts day, week or month in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeDay, ModeWeek, ModeMonth:
		return m, nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

// State is the view mode, the selected and current dates, and the cache key
// of the range whose records the caller last fetched. An empty CacheKey
// means nothing usable is cached.
type State struct {
	Mode     Mode   `json:"mode"`
	Selected string `json:"selected"`
	Today    string `json:"today"`
	CacheKey string `json:"cache_key"`
}

// New starts on today with nothing fetched.
func New(today time.Time, mode Mode) State {
	if mode == "" {
		mode = ModeDay
	}
	iso := dates.ISODate(today)
	return State{Mode: mode, Selected: iso, Today: iso}
}

// SelectDate moves the selection to iso. It reports whether the visible
// range now differs from the cached one, in which case the returned state
// already carries the new key and the caller must fetch.
func SelectDate(s State, iso string) (State, bool) {
	if _, err := dates.ParseISODate(iso); err != nil {
		return s, false
	}
	s.Selected = iso
	return Claim(s)
}

// SetMode switches the view surface. It never asks for a fetch; the next
// selection picks up the new range.
func SetMode(s State, m Mode) State {
	if m != "" {
		s.Mode = m
	}
	return s
}

// Today selects the current date.
func Today(s State) (State, bool) {
	return SelectDate(s, s.Today)
}

// Step moves the selection n days, weeks or months depending on the mode.
func Step(s State, n int) (State, bool) {
	sel, err := dates.ParseISODate(s.Selected)
	if err != nil {
		return s, false
	}

	switch s.Mode {
	case ModeWeek:
		sel = dates.AddDays(sel, 7*n)
	case ModeMonth:
		sel = addMonths(sel, n)
	default:
		sel = dates.AddDays(sel, n)
	}
	return SelectDate(s, dates.ISODate(sel))
}

// addMonths keeps the day of month, clamped to the target month's length.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

// VisibleRange is the Monday-anchored week holding the selection, or the
// 42-day grid in month mode. End is the last day at 23:59:59.999.
func VisibleRange(s State) (time.Time, time.Time) {
	sel, err := dates.ParseISODate(s.Selected)
	if err != nil {
		sel, _ = dates.ParseISODate(s.Today)
	}

	if s.Mode == ModeMonth {
		start := dates.StartOfWeek(dates.StartOfMonth(sel))
		return start, dates.EndOfWeek(dates.AddDays(start, 35))
	}
	start := dates.StartOfWeek(sel)
	return start, dates.EndOfWeek(start)
}

// CacheKey identifies a fetched range.
func CacheKey(start, end time.Time) string {
	return dates.ISODate(start) + "|" + dates.ISODate(end)
}

// RangeKey is the cache key of s's visible range.
func RangeKey(s State) string {
	return CacheKey(VisibleRange(s))
}

// NeedsFetch reports whether the cached records no longer cover the view.
func NeedsFetch(s State) bool {
	return s.CacheKey == "" || s.CacheKey != RangeKey(s)
}

// Claim stores the visible range's key, reporting whether it changed. A
// true result obliges the caller to fetch that range.
func Claim(s State) (State, bool) {
	key := RangeKey(s)
	if key == s.CacheKey {
		return s, false
	}
	s.CacheKey = key
	return s, true
}

// Rollover moves the state to a new current date. A selection that was on
// the old today follows to the new one; the cache is always invalidated.
func Rollover(s State, newTodayISO string) State {
	if s.Selected == s.Today {
		s.Selected = newTodayISO
	}
	s.Today = newTodayISO
	return Invalidate(s)
}

// Invalidate forgets the cached range so the next build fetches.
func Invalidate(s State) State {
	s.CacheKey = ""
	return s
}
