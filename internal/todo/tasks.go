package todo

import (
	"context"
	"fmt"

	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/reorder"
)

// NewTodo holds the fields of a task being created.
type NewTodo struct {
	Text       string
	DueDate    string
	CategoryID *int64
}

// TodoUpdate replaces the editable fields of a task. An empty DueDate or a
// nil CategoryID clears the field. A non-empty CategoryColor different from
// the category's colour recolours the category itself.
type TodoUpdate struct {
	Text          string
	DueDate       string
	CategoryID    *int64
	CategoryColor string
}

// AddTodo appends a task at the end of the list.
func (s *Service) AddTodo(ctx context.Context, in NewTodo) (model.Task, error) {
	text := model.NormalizeText(in.Text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}
	if !model.ValidDueDate(in.DueDate) {
		return model.Task{}, fmt.Errorf("due date %q: %w", in.DueDate, ErrInvalidDueDate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := model.Task{
		ID:        nextID(now, maxTaskID(s.todos, s.trash)),
		Text:      text,
		CreatedAt: model.FormatTime(now),
		DueDate:   model.StringPtr(in.DueDate),
		Position:  len(s.todos),
	}
	if in.CategoryID != nil {
		c, ok := findCategory(s.categories, *in.CategoryID)
		if !ok {
			return model.Task{}, fmt.Errorf("category %d: %w", *in.CategoryID, ErrCategoryNotFound)
		}
		t.Category = c.Ref()
	}

	todos := append(cloneTasks(s.todos), t)
	if err := s.saveTodosLocked(ctx, todos); err != nil {
		return model.Task{}, err
	}
	s.log.Infow("todo added", "id", t.ID)
	return t.Clone(), nil
}

// UpdateTodo edits text, due date and category of a task.
func (s *Service) UpdateTodo(ctx context.Context, id int64, in TodoUpdate) error {
	text := model.NormalizeText(in.Text)
	if text == "" {
		return ErrEmptyText
	}
	if !model.ValidDueDate(in.DueDate) {
		return fmt.Errorf("due date %q: %w", in.DueDate, ErrInvalidDueDate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := taskIndex(s.todos, id)
	if idx < 0 {
		return fmt.Errorf("updating todo %d: %w", id, ErrTodoNotFound)
	}

	todos := cloneTasks(s.todos)
	categories := s.categories
	recoloured := false

	var ref *model.CategoryRef
	if in.CategoryID != nil {
		ci := categoryIndex(s.categories, *in.CategoryID)
		switch {
		case ci >= 0:
			if in.CategoryColor != "" && in.CategoryColor != s.categories[ci].Color {
				if !model.ValidColor(in.CategoryColor) {
					return ErrInvalidColor
				}
				categories = cloneCategories(s.categories)
				categories[ci].Color = in.CategoryColor
				recoloured = true
				propagateSnapshot(todos, categories[ci])
			}
			ref = categories[ci].Ref()
		case todos[idx].Category != nil && todos[idx].Category.ID == *in.CategoryID:
			// A restored task may still carry the snapshot of a deleted
			// category; leaving it unchanged is not an error.
			ref = todos[idx].Category
		default:
			return fmt.Errorf("category %d: %w", *in.CategoryID, ErrCategoryNotFound)
		}
	}

	todos[idx].Text = text
	todos[idx].DueDate = model.StringPtr(in.DueDate)
	todos[idx].Category = ref

	if recoloured {
		if err := s.saveCategoriesLocked(ctx, categories); err != nil {
			return err
		}
	}
	return s.saveTodosLocked(ctx, todos)
}

// ToggleTodo flips a task's completed flag. Its position is unchanged.
func (s *Service) ToggleTodo(ctx context.Context, id int64) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := taskIndex(s.todos, id)
	if idx < 0 {
		return model.Task{}, fmt.Errorf("toggling todo %d: %w", id, ErrTodoNotFound)
	}
	todos := cloneTasks(s.todos)
	todos[idx].Completed = !todos[idx].Completed
	if err := s.saveTodosLocked(ctx, todos); err != nil {
		return model.Task{}, err
	}
	return todos[idx].Clone(), nil
}

// SetCompleted sets a task's completed flag explicitly.
func (s *Service) SetCompleted(ctx context.Context, id int64, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := taskIndex(s.todos, id)
	if idx < 0 {
		return fmt.Errorf("completing todo %d: %w", id, ErrTodoNotFound)
	}
	if s.todos[idx].Completed == completed {
		return nil
	}
	todos := cloneTasks(s.todos)
	todos[idx].Completed = completed
	return s.saveTodosLocked(ctx, todos)
}

// SetCategoryCompleted marks every task in the bucket key, and in the
// bucket's direct subcategories, as completed or active. key is a
// category key or model.UncategorizedKey. It returns the number of tasks
// that changed.
func (s *Service) SetCategoryCompleted(ctx context.Context, key string, completed bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := map[string]bool{key: true}
	if id, ok := model.ParseCategoryKey(key); ok {
		for _, c := range s.categories {
			if c.ParentID != nil && *c.ParentID == id {
				keys[c.Key()] = true
			}
		}
	}

	todos := cloneTasks(s.todos)
	changed := 0
	for i := range todos {
		if keys[todos[i].GroupKey()] && todos[i].Completed != completed {
			todos[i].Completed = completed
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.saveTodosLocked(ctx, todos); err != nil {
		return 0, err
	}
	return changed, nil
}

// Move commits a drag gesture against the full task list.
func (s *Service) Move(ctx context.Context, drag *reorder.Drag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := drag.Drop(s.todos)
	if err != nil {
		return err
	}
	return s.saveTodosLocked(ctx, todos)
}

// MoveBefore moves id in front of beforeID, or to the end when beforeID is
// nil. Moving a task before itself is a no-op.
func (s *Service) MoveBefore(ctx context.Context, id int64, beforeID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if taskIndex(s.todos, id) < 0 {
		return fmt.Errorf("moving todo %d: %w", id, ErrTodoNotFound)
	}
	if beforeID != nil {
		if *beforeID == id {
			return nil
		}
		if taskIndex(s.todos, *beforeID) < 0 {
			return fmt.Errorf("moving todo %d before %d: %w", id, *beforeID, ErrTodoNotFound)
		}
	}
	todos, err := reorder.MoveBefore(s.todos, id, beforeID)
	if err != nil {
		return err
	}
	return s.saveTodosLocked(ctx, todos)
}

// saveTodosLocked renumbers, writes and commits todos, then emits
// todos-updated. s.mu must be held.
func (s *Service) saveTodosLocked(ctx context.Context, todos []model.Task) error {
	reorder.Renumber(todos)
	if err := s.store.SaveTodos(ctx, todos); err != nil {
		s.log.WithError(err).Errorw("saving todos failed")
		return fmt.Errorf("saving todos: %w", err)
	}
	s.todos = todos
	s.emit(events.TodosUpdated, nil)
	return nil
}

func maxTaskID(lists ...[]model.Task) int64 {
	var max int64
	for _, list := range lists {
		for _, t := range list {
			if t.ID > max {
				max = t.ID
			}
		}
	}
	return max
}
