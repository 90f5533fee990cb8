package reorder

import "github.com/nhle/todo-board/internal/model"

// Drop commits the gesture against the full task list: the dragged record
// moves in front of the sibling following the placeholder, or right after
// the last sibling when the placeholder ends its list, or to the very end
// when the list is otherwise empty. Positions are renumbered across the
// entire list, not only the visible subset. The drag ends either way.
func (d *Drag) Drop(tasks []model.Task) ([]model.Task, error) {
	if !d.Active() || d.id == 0 {
		return nil, ErrNoDrag
	}
	defer d.Cancel()

	if before := d.Before(); before != nil {
		return MoveBefore(tasks, d.id, before)
	}
	if n := len(d.siblings); n > 0 {
		return MoveAfter(tasks, d.id, d.siblings[n-1])
	}
	return MoveBefore(tasks, d.id, nil)
}
