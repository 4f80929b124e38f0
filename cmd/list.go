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

var (
	listDate  string
	listHours bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print one day's schedule and exit",
	Long: `Print the hour-by-hour schedule for a day. The date may be an ISO date or
an expression such as "tomorrow", "next fri" or "+3".`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listDate, "date", "d", "", "Day to list (default today)")
	listCmd.Flags().BoolVar(&listHours, "all-hours", false, "Include hours with nothing scheduled")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	snap, _, err := snapshot(cmd.Context(), cfg, navigation.ModeDay, listDate)
	if err != nil {
		return err
	}
	printDay(cmd.OutOrStdout(), snap.Day, terminalWidth(), listHours)
	return nil
}

func printDay(w io.Writer, v planner.DayView, width int, allHours bool) {
	title := v.State.Selected
	if d, err := dates.ParseISODate(v.State.Selected); err == nil {
		title = d.Format("Monday, January 2, 2006")
	}
	fmt.Fprintf(w, "Schedule for %s:\n", title)

	for _, b := range v.Schedule.Buckets {
		if len(b.Items) == 0 && !allHours {
			continue
		}
		texts := make([]string, len(b.Items))
		for i, it := range b.Items {
			texts[i] = it.Text
		}
		line := fmt.Sprintf("  %8s  %s", b.Label, strings.Join(texts, "; "))
		fmt.Fprintln(w, runewidth.Truncate(line, width, "…"))
	}

	s := v.Stats
	fmt.Fprintf(w, "\nTasks: %d pending, %d due today, %d overdue, %d done\n",
		s.Pending, s.DueToday, s.Overdue, s.Completed)
}
