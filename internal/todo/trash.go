package todo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/model"
)

// BulkResult collects the outcome of a bulk trash operation. Every id is
// attempted; failures never stop the remaining ids.
type BulkResult struct {
	Verb      string
	Succeeded []int64
	Failed    map[int64]error
}

// Err joins the per-item errors, or returns nil when all succeeded.
func (r BulkResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	errs := make([]error, 0, len(ids))
	for _, id := range ids {
		errs = append(errs, r.Failed[id])
	}
	return errors.Join(errs...)
}

// Summary renders the aggregate outcome for a status line or alert.
func (r BulkResult) Summary() string {
	if len(r.Failed) == 0 {
		return fmt.Sprintf("%s %d items", r.Verb, len(r.Succeeded))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d items, but encountered %d errors.", r.Verb, len(r.Succeeded), len(r.Failed))
	if err := r.Err(); err != nil {
		b.WriteString("\n")
		b.WriteString(err.Error())
	}
	return b.String()
}

// TrashTodo moves a task to the trash, stamping trashedAt. The remaining
// tasks are renumbered.
func (s *Service) TrashTodo(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if taskIndex(s.todos, id) < 0 {
		return fmt.Errorf("trashing todo %d: %w", id, ErrTodoNotFound)
	}
	return s.trashLocked(ctx, func(t model.Task) bool { return t.ID == id })
}

// ClearCompleted moves every completed task to the trash and returns how
// many moved.
func (s *Service) ClearCompleted(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.todos {
		if t.Completed {
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	if err := s.trashLocked(ctx, func(t model.Task) bool { return t.Completed }); err != nil {
		return 0, err
	}
	return n, nil
}

// trashLocked moves matching tasks to the trash. The trash is written
// first so a failed todo write leaves a duplicate rather than a lost task.
func (s *Service) trashLocked(ctx context.Context, match func(model.Task) bool) error {
	stamp := model.FormatTime(s.now())

	var keep []model.Task
	trash := cloneTasks(s.trash)
	for _, t := range s.todos {
		if !match(t) {
			keep = append(keep, t.Clone())
			continue
		}
		item := t.Clone()
		item.TrashedAt = &stamp
		trash = append(trash, item)
	}
	if keep == nil {
		keep = []model.Task{}
	}

	if err := s.saveTrashLocked(ctx, trash); err != nil {
		return err
	}
	return s.saveTodosLocked(ctx, keep)
}

// Restore moves one trash item back to the end of the task list.
func (s *Service) Restore(ctx context.Context, id int64) error {
	if err := s.store.RestoreTodoItem(ctx, id); err != nil {
		return fmt.Errorf("restoring todo %d: %w", id, err)
	}
	s.afterTrashChange(ctx, true)
	return nil
}

// Purge permanently deletes one trash item.
func (s *Service) Purge(ctx context.Context, id int64) error {
	if err := s.store.DeleteTodoItemPermanently(ctx, id); err != nil {
		return fmt.Errorf("deleting todo %d permanently: %w", id, err)
	}
	s.afterTrashChange(ctx, false)
	return nil
}

// EmptyTrash permanently deletes every trash item.
func (s *Service) EmptyTrash(ctx context.Context) error {
	if err := s.store.EmptyTrashBin(ctx); err != nil {
		return fmt.Errorf("emptying trash: %w", err)
	}
	s.afterTrashChange(ctx, false)
	return nil
}

// RestoreMany restores each id independently.
func (s *Service) RestoreMany(ctx context.Context, ids []int64) BulkResult {
	return s.bulk(ctx, "Restored", ids, s.store.RestoreTodoItem, true)
}

// PurgeMany permanently deletes each id independently.
func (s *Service) PurgeMany(ctx context.Context, ids []int64) BulkResult {
	return s.bulk(ctx, "Deleted", ids, s.store.DeleteTodoItemPermanently, false)
}

func (s *Service) bulk(ctx context.Context, verb string, ids []int64, op func(context.Context, int64) error, touchesTodos bool) BulkResult {
	res := BulkResult{Verb: verb, Failed: make(map[int64]error)}
	for _, id := range ids {
		if err := op(ctx, id); err != nil {
			res.Failed[id] = err
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	if len(res.Failed) > 0 {
		s.log.Warnw("bulk trash operation had failures",
			"verb", verb, "succeeded", len(res.Succeeded), "failed", len(res.Failed))
	}
	if len(res.Succeeded) > 0 {
		s.afterTrashChange(ctx, touchesTodos)
	}
	return res
}

// afterTrashChange reloads the lists the store changed underneath us and
// tells the other screens.
func (s *Service) afterTrashChange(ctx context.Context, todosChanged bool) {
	trash, err := s.store.LoadTrash(ctx)
	if err != nil {
		s.log.WithError(err).Warnw("reloading trash failed")
	}
	var todos []model.Task
	if todosChanged {
		todos, err = s.store.LoadTodos(ctx)
		if err != nil {
			s.log.WithError(err).Warnw("reloading todos failed")
		}
	}

	s.mu.Lock()
	if trash != nil {
		s.trash = trash
	}
	if todos != nil {
		sort.SliceStable(todos, func(i, j int) bool { return todos[i].Position < todos[j].Position })
		s.todos = todos
	}
	s.mu.Unlock()

	s.emit(events.TodosUpdated, nil)
}

func (s *Service) saveTrashLocked(ctx context.Context, trash []model.Task) error {
	if err := s.store.SaveTrash(ctx, trash); err != nil {
		s.log.WithError(err).Errorw("saving trash failed")
		return fmt.Errorf("saving trash: %w", err)
	}
	s.trash = trash
	return nil
}
