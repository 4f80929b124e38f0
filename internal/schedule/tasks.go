package schedule

import (
	"sort"
	"strconv"
	"strings"

	"github.com/intelliplan/planboard/internal/dates"
	"github.com/intelliplan/planboard/internal/source"
)

// TaskStats are the dashboard counters.
type TaskStats struct {
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
	Completed int `json:"completed"`
	DueToday  int `json:"due_today"`
}

type TaskView string

const (
	TaskViewCurrent TaskView = "current"
	TaskViewPast    TaskView = "past"
	TaskViewOverdue TaskView = "overdue"
)

// dueISO returns the task's due date as YYYY-MM-DD, or "" when it has none
// or it cannot be read.
func dueISO(t source.Task) string {
	d, ok := t.Due()
	if !ok {
		return ""
	}
	return dates.ISODate(d)
}

func isOverdue(t source.Task, todayISO string) bool {
	due := dueISO(t)
	return !t.Done() && due != "" && due < todayISO
}

// isPending covers open tasks that are undated or not yet due.
func isPending(t source.Task, todayISO string) bool {
	due := dueISO(t)
	return !t.Done() && (due == "" || due >= todayISO)
}

// ComputeTaskStats counts tasks relative to todayISO.
func ComputeTaskStats(tasks []source.Task, todayISO string) TaskStats {
	var s TaskStats
	for _, t := range tasks {
		switch {
		case t.Done():
			s.Completed++
		case isOverdue(t, todayISO):
			s.Overdue++
		case isPending(t, todayISO):
			s.Pending++
			if dueISO(t) == todayISO {
				s.DueToday++
			}
		}
	}
	return s
}

// TaskPanelOptions filter the dashboard task list.
type TaskPanelOptions struct {
	Subject string
	View    TaskView
	Limit   int
}

// TaskPanel returns the dashboard task list: filtered by subject and view,
// dated tasks first by due date, ties broken by newest id. Limit <= 0 means
// no limit.
func TaskPanel(tasks []source.Task, todayISO string, opts TaskPanelOptions) []source.Task {
	subject := strings.TrimSpace(opts.Subject)

	var out []source.Task
	for _, t := range tasks {
		if subject != "" && t.Subject != subject {
			continue
		}
		var keep bool
		switch opts.View {
		case TaskViewPast:
			keep = t.Done()
		case TaskViewOverdue:
			keep = isOverdue(t, todayISO)
		default:
			keep = isPending(t, todayISO)
		}
		if keep {
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := dueISO(out[i]), dueISO(out[j])
		switch {
		case a == "" && b != "":
			return false
		case a != "" && b == "":
			return true
		case a != b:
			return a < b
		}
		return idAfter(out[i].ID, out[j].ID)
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// Subjects lists the distinct non-empty task subjects, sorted.
func Subjects(tasks []source.Task) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range tasks {
		s := strings.TrimSpace(t.Subject)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// idAfter orders numeric ids numerically and anything else lexically, both
// descending.
func idAfter(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai > bi
	}
	return a > b
}
