package schedule

import (
	"fmt"
	"time"

	"github.com/intelliplan/planboard/internal/dates"
)

// GridCells is the fixed size of a month grid: six Monday-anchored weeks.
const GridCells = 42

type MonthCell struct {
	Date     string `json:"date"`
	Day      int    `json:"day"`
	Muted    bool   `json:"muted"`
	Selected bool   `json:"selected"`
	Today    bool   `json:"today"`
}

type MonthGrid struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Title string      `json:"title"`
	Cells []MonthCell `json:"cells"`
}

// ParseYearMonth reads "YYYY-MM" and returns the first of that month.
func ParseYearMonth(yearMonth string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", yearMonth, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year-month %q: %w", yearMonth, err)
	}
	return t, nil
}

// GridStart returns the Monday that opens the grid for the month holding t.
func GridStart(t time.Time) time.Time {
	return dates.StartOfWeek(dates.StartOfMonth(t))
}

// BuildMonthGrid lays out 42 days starting on the Monday on or before the
// first of yearMonth. Days of adjacent months are muted.
func BuildMonthGrid(yearMonth, selectedISO, todayISO string) (MonthGrid, error) {
	first, err := ParseYearMonth(yearMonth)
	if err != nil {
		return MonthGrid{}, err
	}

	grid := MonthGrid{
		Year:  first.Year(),
		Month: first.Month(),
		Title: first.Format("January 2006"),
		Cells: make([]MonthCell, GridCells),
	}

	start := GridStart(first)
	for i := range grid.Cells {
		d := dates.AddDays(start, i)
		iso := dates.ISODate(d)
		grid.Cells[i] = MonthCell{
			Date:     iso,
			Day:      d.Day(),
			Muted:    d.Month() != first.Month() || d.Year() != first.Year(),
			Selected: iso == selectedISO,
			Today:    iso == todayISO,
		}
	}
	return grid, nil
}
