// Package reorder implements drag-and-drop reordering of the task list: a
// placeholder that follows the pointer through one visible list, and the
// commit that moves the dragged record in the full backing list and
// renumbers every position.
package reorder

import (
	"errors"
	"fmt"

	"github.com/nhle/todo-board/internal/model"
)

// ErrNoDrag is returned by Drop when there is no dragged record or no
// placeholder.
var ErrNoDrag = errors.New("no drag in progress")

// ErrNotInList is returned when the moved task or its anchor is missing.
var ErrNotInList = errors.New("task not in list")

// Renumber sets every task's position to its index.
func Renumber(tasks []model.Task) {
	for i := range tasks {
		tasks[i].Position = i
	}
}

// IsDense reports whether positions are exactly 0..len-1 in order.
func IsDense(tasks []model.Task) bool {
	for i, t := range tasks {
		if t.Position != i {
			return false
		}
	}
	return true
}

// InsertionIndex applies the midpoint rule: the drop slot is before the
// first sibling whose vertical midpoint lies below y, or after the last
// sibling when none does. midpoints must be in display order.
func InsertionIndex(midpoints []float64, y float64) int {
	for i, mid := range midpoints {
		if y < mid {
			return i
		}
	}
	return len(midpoints)
}

// MoveBefore removes the task with id from tasks and reinserts it directly
// before the task beforeID, or at the end when beforeID is nil. Moving a
// task before itself leaves the order as it is. Positions are renumbered
// across the whole list. The input slice is not modified.
func MoveBefore(tasks []model.Task, id int64, beforeID *int64) ([]model.Task, error) {
	from := indexOf(tasks, id)
	if from < 0 {
		return nil, fmt.Errorf("moving task %d: %w", id, ErrNotInList)
	}
	if beforeID != nil && *beforeID == id {
		out := append([]model.Task(nil), tasks...)
		Renumber(out)
		return out, nil
	}

	out := make([]model.Task, 0, len(tasks))
	out = append(out, tasks[:from]...)
	out = append(out, tasks[from+1:]...)

	to := len(out)
	if beforeID != nil {
		to = indexOf(out, *beforeID)
		if to < 0 {
			return nil, fmt.Errorf("moving task %d before %d: %w", id, *beforeID, ErrNotInList)
		}
	}

	out = append(out, model.Task{})
	copy(out[to+1:], out[to:])
	out[to] = tasks[from]

	Renumber(out)
	return out, nil
}

// MoveAfter is MoveBefore with the anchor on the other side.
func MoveAfter(tasks []model.Task, id, afterID int64) ([]model.Task, error) {
	moved, err := MoveBefore(tasks, id, nil)
	if err != nil {
		return nil, err
	}
	anchor := indexOf(moved, afterID)
	if anchor < 0 || anchor == len(moved)-1 {
		return moved, nil
	}
	next := moved[anchor+1].ID
	if next == id {
		return moved, nil
	}
	return MoveBefore(moved, id, &next)
}

func indexOf(tasks []model.Task, id int64) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
