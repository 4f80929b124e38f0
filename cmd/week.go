package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/intelliplan/planboard/internal/dates"
	"github.com/intelliplan/planboard/internal/navigation"
	"github.com/intelliplan/planboard/internal/planner"
)

var weekDate string

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Print a week overview and exit",
	RunE:  runWeek,
}

func init() {
	weekCmd.Flags().StringVarP(&weekDate, "date", "d", "", "Any day in the week (default today)")
	rootCmd.AddCommand(weekCmd)
}

func runWeek(cmd *cobra.Command, _ []string) error {
	snap, _, err := snapshot(cmd.Context(), cfg, navigation.ModeWeek, weekDate)
	if err != nil {
		return err
	}
	printWeek(cmd.OutOrStdout(), snap.Week, terminalWidth())
	return nil
}

func printWeek(w io.Writer, v planner.WeekView, width int) {
	if d, err := dates.ParseISODate(v.WeekStart); err == nil {
		fmt.Fprintf(w, "Week of %s\n", d.Format("Jan 2, 2006"))
	}

	for _, day := range v.Days {
		mark := " "
		if day.HasClasses {
			mark = "•"
		}
		cur := " "
		if day.Date == v.State.Today {
			cur = ">"
		}
		count := "-"
		if day.Count > 0 {
			count = fmt.Sprintf("%d", day.Count)
		}
		fmt.Fprintf(w, "%s %s %s  %3s %s\n", cur, day.Abbrev, day.Date, count, mark)
	}

	if len(v.Classes) == 0 {
		return
	}
	fmt.Fprintln(w, "\nClasses")
	for _, c := range v.Classes {
		days := make([]string, 0, len(c.Dates))
		for _, iso := range c.Dates {
			if d, err := dates.ParseISODate(iso); err == nil {
				days = append(days, dates.DayAbbrev(d))
			}
		}
		line := fmt.Sprintf("  %s: %s", c.Name, strings.Join(days, ", "))
		fmt.Fprintln(w, runewidth.Truncate(line, width, "…"))
	}
}
