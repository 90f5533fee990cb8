package trash

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/keys"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/todo"
	"github.com/nhle/todo-board/tests/testutil"
)

func newTrash(t *testing.T, texts ...string) (Model, *todo.Service) {
	t.Helper()
	ctx := context.Background()
	svc := todo.New(testutil.NewTestFileStore(t), events.NewBus(), nil)
	require.NoError(t, svc.Load(ctx))
	for _, text := range texts {
		task, err := svc.AddTodo(ctx, todo.NewTodo{Text: text})
		require.NoError(t, err)
		require.NoError(t, svc.TrashTodo(ctx, task.ID))
	}
	m := New(svc, keys.DefaultKeyMap(), 80, 24)
	m.sortBy = model.SortByName
	m.sortDir = model.SortAsc
	m.Refresh()
	return m, svc
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRestoreMarked(t *testing.T) {
	m, svc := newTrash(t, "a", "b", "c")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	m, _ = m.Update(runes("j"))
	m, _ = m.Update(runes("j"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	assert.Equal(t, []int64{m.items[0].ID, m.items[2].ID}, m.targets())

	m, cmd := m.Update(runes("u"))
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())

	assert.Equal(t, "Restored 2 items", m.statusMsg)
	assert.False(t, m.failed)
	require.Len(t, m.items, 1)
	assert.Equal(t, "b", m.items[0].Text)
	assert.Empty(t, m.marked)
	assert.Len(t, svc.Todos(), 2)
}

func TestTargetsFallsBackToCursor(t *testing.T) {
	m, _ := newTrash(t, "a", "b")

	m, _ = m.Update(runes("j"))

	assert.Equal(t, []int64{m.items[1].ID}, m.targets())
}

func TestPurgeReportsPartialFailure(t *testing.T) {
	m, _ := newTrash(t, "a")

	m, _ = m.Update(m.purge([]int64{m.items[0].ID, 42})())

	assert.True(t, m.failed)
	assert.Contains(t, m.statusMsg, "Deleted 1 items, but encountered 1 errors.")
	assert.Contains(t, m.statusMsg, "item with id 42 not found in trash")
	assert.Empty(t, m.items)
}

func TestEmpty(t *testing.T) {
	m, svc := newTrash(t, "a", "b")

	m, _ = m.Update(m.empty()())

	assert.Equal(t, "Deleted 2 items", m.statusMsg)
	assert.Empty(t, svc.Trash())
}

func TestSelectAllToggles(t *testing.T) {
	m, _ := newTrash(t, "a", "b")

	m, _ = m.Update(runes("a"))
	assert.Len(t, m.marked, 2)
	m, _ = m.Update(runes("a"))
	assert.Empty(t, m.marked)
}

func TestTrashedAge(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	at := model.FormatTime(now.Add(-3 * time.Hour))

	assert.Equal(t, "trashed 3 hours ago", trashedAge(model.Task{TrashedAt: &at}, now))
	assert.Empty(t, trashedAge(model.Task{}, now))
}
