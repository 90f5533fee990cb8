package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/store"
	"github.com/nhle/todo-board/tests/testutil"
)

func backends(t *testing.T) map[string]store.Store {
	return map[string]store.Store{
		"file":   testutil.NewTestFileStore(t),
		"sqlite": testutil.NewTestStore(t),
	}
}

func TestEmptyStoreLoadsEmptyLists(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			todos, err := s.LoadTodos(ctx)
			require.NoError(t, err)
			assert.Empty(t, todos)
			assert.NotNil(t, todos)

			cats, err := s.LoadCategories(ctx)
			require.NoError(t, err)
			assert.Empty(t, cats)

			trash, err := s.LoadTrash(ctx)
			require.NoError(t, err)
			assert.Empty(t, trash)

			prefs, err := s.LoadPrefs(ctx)
			require.NoError(t, err)
			assert.Equal(t, model.DefaultPrefs(), prefs)
		})
	}
}

func TestSaveTodosRenumbersPositions(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a, b, c := testutil.Task(1, "a"), testutil.Task(2, "b"), testutil.Task(3, "c")
			a.Position, b.Position, c.Position = 7, 7, 2

			require.NoError(t, s.SaveTodos(ctx, []model.Task{a, b, c}))

			got, err := s.LoadTodos(ctx)
			require.NoError(t, err)
			require.Len(t, got, 3)
			for i, task := range got {
				assert.Equal(t, i, task.Position)
			}
			assert.Equal(t, 7, a.Position, "caller's slice must not be mutated")
		})
	}
}

func TestRestoreTodoItem(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			due := "2024-03-01"
			keep := testutil.Task(1, "keep")
			gone := testutil.Task(2, "gone")
			gone.DueDate = &due
			gone.Completed = true
			gone.Category = &model.CategoryRef{ID: 9, Name: "Work", Color: "#ff5555"}
			stamp := "2024-02-01T10:00:00.000Z"
			gone.TrashedAt = &stamp

			require.NoError(t, s.SaveTodos(ctx, []model.Task{keep}))
			require.NoError(t, s.SaveTrash(ctx, []model.Task{gone}))

			require.NoError(t, s.RestoreTodoItem(ctx, 2))

			todos, err := s.LoadTodos(ctx)
			require.NoError(t, err)
			require.Len(t, todos, 2)
			restored := todos[1]
			assert.Equal(t, int64(2), restored.ID)
			assert.Equal(t, 1, restored.Position)
			assert.Nil(t, restored.TrashedAt)
			assert.True(t, restored.Completed)
			assert.Equal(t, "2024-03-01", restored.Due())
			assert.Equal(t, "Work", restored.Category.Name)

			trash, err := s.LoadTrash(ctx)
			require.NoError(t, err)
			assert.Empty(t, trash)
		})
	}
}

func TestRestoreMissingItem(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := s.RestoreTodoItem(ctx, 42)
			require.Error(t, err)
			assert.True(t, errors.Is(err, store.ErrNotInTrash))
			assert.Contains(t, err.Error(), "item with id 42 not found in trash")

			err = s.DeleteTodoItemPermanently(ctx, 42)
			assert.True(t, errors.Is(err, store.ErrNotInTrash))
		})
	}
}

func TestDeletePermanentlyAndEmpty(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			trash := []model.Task{testutil.Task(1, "a"), testutil.Task(2, "b"), testutil.Task(3, "c")}
			require.NoError(t, s.SaveTrash(ctx, trash))

			require.NoError(t, s.DeleteTodoItemPermanently(ctx, 2))
			got, err := s.LoadTrash(ctx)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, int64(1), got[0].ID)
			assert.Equal(t, int64(3), got[1].ID)

			require.NoError(t, s.EmptyTrashBin(ctx))
			got, err = s.LoadTrash(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestCategoriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			cats := []model.Category{testutil.Category(1, "Home"), testutil.Child(2, "Garden", 1)}
			require.NoError(t, s.SaveCategories(ctx, cats))

			got, err := s.LoadCategories(ctx)
			require.NoError(t, err)
			assert.Equal(t, cats, got)
		})
	}
}

func TestPrefsRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			prefs := model.Prefs{
				Filter:           model.FilterActive,
				SortBy:           model.SortByDate,
				SortDirection:    model.SortDesc,
				SortTarget:       model.SortTargetCategories,
				GroupByCategory:  true,
				FoldedCategories: []string{"12", model.UncategorizedKey},
			}
			require.NoError(t, s.SavePrefs(ctx, prefs))

			got, err := s.LoadPrefs(ctx)
			require.NoError(t, err)
			assert.Equal(t, prefs, got)
		})
	}
}

func TestFileStoreFormats(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestFileStore(t)

	require.NoError(t, s.SaveTodos(ctx, []model.Task{testutil.Task(1, "one")}))
	data, err := os.ReadFile(filepath.Join(s.Dir(), store.TodosFile))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "\n  "), "short lists are indented")
	assert.Contains(t, string(data), `"created_at"`)
	assert.Contains(t, string(data), `"due_date": null`)
	assert.NotContains(t, string(data), "trashedAt")

	many := make([]model.Task, 100)
	for i := range many {
		many[i] = testutil.Task(int64(i+1), "x")
	}
	require.NoError(t, s.SaveTodos(ctx, many))
	data, err = os.ReadFile(filepath.Join(s.Dir(), store.TodosFile))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")
}

func TestFileStoreEmptyFile(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestFileStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), store.TrashFile), nil, 0o644))

	trash, err := s.LoadTrash(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)
}

func TestFileStoreMalformedFile(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestFileStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), store.CategoriesFile), []byte("{"), 0o644))

	_, err := s.LoadCategories(ctx)
	assert.Error(t, err)
}

func TestFileStoreWriteHook(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestFileStore(t)

	var written []string
	var content []byte
	s.OnWrite(func(path string, data []byte) {
		written = append(written, filepath.Base(path))
		content = data
	})

	require.NoError(t, s.SaveTrash(ctx, nil))
	assert.Equal(t, []string{store.TrashFile}, written)

	onDisk, err := os.ReadFile(filepath.Join(s.Dir(), store.TrashFile))
	require.NoError(t, err)
	assert.Equal(t, onDisk, content)
}
