package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todo-board/internal/todo"
	"github.com/nhle/todo-board/internal/ui/tasklist"
)

// mutate runs op off the update loop. The result lands on the task list's
// status line.
func (m Model) mutate(op func(ctx context.Context, svc *todo.Service) (string, error)) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		status, err := op(context.Background(), svc)
		return tasklist.MutatedMsg{Status: status, Err: err}
	}
}

func (m Model) createTodo(in todo.NewTodo) tea.Cmd {
	return m.mutate(func(ctx context.Context, svc *todo.Service) (string, error) {
		t, err := svc.AddTodo(ctx, in)
		if err != nil {
			return "", err
		}
		return "Added: " + t.Text, nil
	})
}

func (m Model) updateTodo(id int64, in todo.TodoUpdate) tea.Cmd {
	return m.mutate(func(ctx context.Context, svc *todo.Service) (string, error) {
		if err := svc.UpdateTodo(ctx, id, in); err != nil {
			return "", err
		}
		return "Saved", nil
	})
}

func (m Model) toggleTodo(id int64) tea.Cmd {
	return m.mutate(func(ctx context.Context, svc *todo.Service) (string, error) {
		t, err := svc.ToggleTodo(ctx, id)
		if err != nil {
			return "", err
		}
		if t.Completed {
			return "Completed: " + t.Text, nil
		}
		return "Reopened: " + t.Text, nil
	})
}

func (m Model) trashTodo(id int64) tea.Cmd {
	return m.mutate(func(ctx context.Context, svc *todo.Service) (string, error) {
		t, _ := svc.Todo(id)
		if err := svc.TrashTodo(ctx, id); err != nil {
			return "", err
		}
		return "Moved to trash: " + t.Text, nil
	})
}

func (m Model) clearCompleted() tea.Cmd {
	return m.mutate(func(ctx context.Context, svc *todo.Service) (string, error) {
		n, err := svc.ClearCompleted(ctx)
		return fmt.Sprintf("Moved %d completed to trash", n), err
	})
}

func (m Model) emptyTrash() tea.Cmd {
	return m.mutate(func(ctx context.Context, svc *todo.Service) (string, error) {
		n := len(svc.Trash())
		return fmt.Sprintf("Deleted %d trashed items", n), svc.EmptyTrash(ctx)
	})
}
