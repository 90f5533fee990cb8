// Package render projects the task list through the active filter, sort,
// grouping and fold state into display rows. A projection is always built
// from scratch; callers replace their previous rows wholesale.
package render

import (
	"sort"
	"strings"

	"github.com/nhle/todo-board/internal/model"
)

// RowKind distinguishes category headers from task rows.
type RowKind int

const (
	RowHeader RowKind = iota
	RowTask
)

// UncategorizedLabel is the header text of the uncategorized bucket.
const UncategorizedLabel = "Uncategorized"

// Row is one line of the projected list.
type Row struct {
	Kind  RowKind
	Depth int

	// Group is the bucket key the row belongs to. Header rows carry their
	// own key; in the flat list every task row has an empty Group.
	Group string

	Label  string
	Color  string
	Folded bool

	// Count and Done cover the bucket and all of its descendants, folded or
	// not, after filtering.
	Count int
	Done  int

	Task *model.Task
}

// Matches reports whether t passes filter f.
func Matches(f model.Filter, t model.Task) bool {
	switch f {
	case model.FilterActive:
		return !t.Completed
	case model.FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Apply returns the tasks that pass f, in order.
func Apply(f model.Filter, tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(f, t) {
			out = append(out, t)
		}
	}
	return out
}

// Counts returns the number of tasks, active tasks and completed tasks.
func Counts(tasks []model.Task) (total, active, completed int) {
	for _, t := range tasks {
		if t.Completed {
			completed++
		} else {
			active++
		}
	}
	return len(tasks), active, completed
}

// SortTasks orders tasks in place. Names compare case-insensitively, dates
// compare the ISO created_at strings. The sort is stable so equal keys keep
// their list order. SortByPosition sorts by position.
func SortTasks(tasks []model.Task, by model.SortBy, dir model.SortDirection) {
	less := func(a, b model.Task) int {
		switch by {
		case model.SortByName:
			return strings.Compare(strings.ToLower(a.Text), strings.ToLower(b.Text))
		case model.SortByDate:
			return strings.Compare(a.CreatedAt, b.CreatedAt)
		default:
			return a.Position - b.Position
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		c := less(tasks[i], tasks[j])
		if dir == model.SortDesc {
			return c > 0
		}
		return c < 0
	})
}

// Project builds the display rows for tasks under prefs.
func Project(tasks []model.Task, categories []model.Category, prefs model.Prefs) []Row {
	visible := Apply(prefs.Filter, tasks)
	if prefs.SortTarget == model.SortTargetTasks {
		SortTasks(visible, prefs.SortBy, prefs.SortDirection)
	} else {
		SortTasks(visible, model.SortByPosition, model.SortAsc)
	}

	if !prefs.GroupByCategory {
		rows := make([]Row, 0, len(visible))
		for i := range visible {
			rows = append(rows, taskRow(&visible[i], "", 0))
		}
		return rows
	}

	return newGrouper(visible, categories, prefs).rows()
}

// ListIDs returns the ids of the task rows in group, in display order. It is
// the sibling list the drag placeholder moves through.
func ListIDs(rows []Row, group string) []int64 {
	var out []int64
	for _, r := range rows {
		if r.Kind == RowTask && r.Group == group {
			out = append(out, r.Task.ID)
		}
	}
	return out
}

func taskRow(t *model.Task, group string, depth int) Row {
	return Row{Kind: RowTask, Depth: depth, Group: group, Label: t.Text, Task: t}
}
