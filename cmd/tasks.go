package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/intelliplan/planboard/internal/dates"
	"github.com/intelliplan/planboard/internal/navigation"
	"github.com/intelliplan/planboard/internal/schedule"
	"github.com/intelliplan/planboard/internal/source"
)

var (
	tasksSubject  string
	tasksView     string
	tasksLimit    int
	tasksSubjects bool
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks and exit",
	Long: `List open tasks ordered by due date. --view overdue shows only overdue tasks
and --view past shows completed ones.`,
	RunE: runTasks,
}

func init() {
	f := tasksCmd.Flags()
	f.StringVar(&tasksSubject, "subject", "", "Only tasks for this subject")
	f.StringVar(&tasksView, "view", string(schedule.TaskViewCurrent), "current, overdue or past")
	f.IntVarP(&tasksLimit, "limit", "n", 0, "Show at most this many tasks")
	f.BoolVar(&tasksSubjects, "subjects", false, "List the known subjects instead")
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, _ []string) error {
	view := schedule.TaskView(strings.ToLower(tasksView))
	switch view {
	case schedule.TaskViewCurrent, schedule.TaskViewOverdue, schedule.TaskViewPast:
	default:
		return fmt.Errorf("unknown task view %q", tasksView)
	}

	snap, engine, err := snapshot(cmd.Context(), cfg, navigation.ModeDay, "")
	if err != nil {
		return err
	}
	tasks := engine.Records().Tasks
	out := cmd.OutOrStdout()

	if tasksSubjects {
		for _, s := range schedule.Subjects(tasks) {
			fmt.Fprintln(out, s)
		}
		return nil
	}

	list := schedule.TaskPanel(tasks, snap.Day.State.Today, schedule.TaskPanelOptions{
		Subject: tasksSubject,
		View:    view,
		Limit:   tasksLimit,
	})
	printTasks(out, list, terminalWidth())
	return nil
}

func printTasks(w io.Writer, tasks []source.Task, width int) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	for _, t := range tasks {
		due := "no due date"
		if d, ok := t.Due(); ok {
			due = d.Format("Mon Jan 2")
			if c, err := dates.ParseClock(t.DueTime); err == nil {
				due += " " + c.Format12()
			}
		}
		line := fmt.Sprintf("  %-18s %s", due, t.Title)
		if t.Subject != "" {
			line += " [" + t.Subject + "]"
		}
		fmt.Fprintln(w, runewidth.Truncate(line, width, "…"))
	}
}
