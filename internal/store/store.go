package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/todo-board/internal/model"
)

// ErrNotInTrash is returned by the single-item trash operations when the id
// is not present in the trash list.
var ErrNotInTrash = errors.New("not found in trash")

// NotInTrash returns the error reported for an id missing from the trash.
func NotInTrash(id int64) error {
	return fmt.Errorf("item with id %d %w", id, ErrNotInTrash)
}

// Store is the persistence boundary shared by the list, trash and calendar
// screens. Saves always replace the whole list; there are no partial writes.
type Store interface {
	// === Todos ===

	LoadTodos(ctx context.Context) ([]model.Task, error)
	SaveTodos(ctx context.Context, todos []model.Task) error

	// === Categories ===

	LoadCategories(ctx context.Context) ([]model.Category, error)
	SaveCategories(ctx context.Context, categories []model.Category) error

	// === Trash ===

	LoadTrash(ctx context.Context) ([]model.Task, error)
	SaveTrash(ctx context.Context, trash []model.Task) error

	// RestoreTodoItem moves one item from the trash to the end of the todo
	// list, dropping its trashedAt stamp.
	RestoreTodoItem(ctx context.Context, id int64) error

	// DeleteTodoItemPermanently removes one item from the trash.
	DeleteTodoItemPermanently(ctx context.Context, id int64) error

	// EmptyTrashBin clears the trash list.
	EmptyTrashBin(ctx context.Context) error

	// === Preferences ===

	LoadPrefs(ctx context.Context) (model.Prefs, error)
	SavePrefs(ctx context.Context, prefs model.Prefs) error

	Close() error
}
