package categorymgr

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/keys"
	"github.com/nhle/todo-board/internal/todo"
	"github.com/nhle/todo-board/tests/testutil"
)

func newManager(t *testing.T) (Model, *todo.Service) {
	t.Helper()
	svc := todo.New(testutil.NewTestFileStore(t), events.NewBus(), nil)
	require.NoError(t, svc.Load(context.Background()))
	m := New(svc, keys.DefaultKeyMap(), 80, 24)
	m.Refresh()
	return m, svc
}

func TestSaveNewSubcategory(t *testing.T) {
	m, svc := newManager(t)
	parent, err := svc.AddCategory(context.Background(), todo.NewCategory{Name: "Work", Color: "#ff5555"})
	require.NoError(t, err)
	m.Refresh()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	require.True(t, m.Editing())
	assert.Equal(t, parent.ID, m.fb.parentID)

	m.fb.name = "Reports"
	m, _ = m.Update(m.saveCategory()())

	assert.False(t, m.Editing())
	assert.Equal(t, "Category saved", m.statusMsg)
	require.Len(t, m.entries, 2)
	assert.Equal(t, "Reports", m.entries[1].Category.Name)
	assert.Equal(t, 1, m.entries[1].Depth)
}

func TestEditExcludesSubtreeFromParents(t *testing.T) {
	ctx := context.Background()
	m, svc := newManager(t)
	root, err := svc.AddCategory(ctx, todo.NewCategory{Name: "a"})
	require.NoError(t, err)
	_, err = svc.AddCategory(ctx, todo.NewCategory{Name: "b", ParentID: &root.ID})
	require.NoError(t, err)
	_, err = svc.AddCategory(ctx, todo.NewCategory{Name: "c"})
	require.NoError(t, err)
	m.Refresh()

	candidates := svc.ParentCandidates(root.ID)
	require.Len(t, candidates, 1)
	assert.Equal(t, "c", candidates[0].Name)
}

func TestDeleteSubtree(t *testing.T) {
	ctx := context.Background()
	m, svc := newManager(t)
	root, err := svc.AddCategory(ctx, todo.NewCategory{Name: "a"})
	require.NoError(t, err)
	_, err = svc.AddCategory(ctx, todo.NewCategory{Name: "b", ParentID: &root.ID})
	require.NoError(t, err)
	task, err := svc.AddTodo(ctx, todo.NewTodo{Text: "x", CategoryID: &root.ID})
	require.NoError(t, err)
	m.Refresh()

	m, _ = m.Update(m.deleteCategory(root.ID)())

	assert.Equal(t, "Deleted 2 categories", m.statusMsg)
	assert.Empty(t, m.entries)
	got, ok := svc.Todo(task.ID)
	require.True(t, ok)
	assert.Nil(t, got.Category)
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	m, svc := newManager(t)
	for _, name := range []string{"a", "b"} {
		_, err := svc.AddCategory(ctx, todo.NewCategory{Name: name})
		require.NoError(t, err)
	}
	m.Refresh()

	m, _ = m.Update(m.deleteAll()())

	assert.Equal(t, "Deleted 2 categories", m.statusMsg)
	assert.Empty(t, svc.Categories())
}

func TestBackCloses(t *testing.T) {
	m, _ := newManager(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.IsType(t, CategoryListCloseMsg{}, cmd())
}
