package tasklist

import (
	"context"
	"strings"
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

func newList(t *testing.T, texts ...string) (Model, *todo.Service) {
	t.Helper()
	svc := todo.New(testutil.NewTestFileStore(t), events.NewBus(), nil)
	require.NoError(t, svc.Load(context.Background()))
	for _, text := range texts {
		_, err := svc.AddTodo(context.Background(), todo.NewTodo{Text: text})
		require.NoError(t, err)
	}

	m := New(svc, keys.DefaultKeyMap(), 80, 20)
	m.prefs.SortBy = model.SortByPosition
	m.Refresh()
	return m, svc
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drive feeds msg through Update and then every resulting command's message.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	m, cmd := m.Update(msg)
	for cmd != nil {
		next := cmd()
		if next == nil {
			break
		}
		m, cmd = m.Update(next)
	}
	return m
}

func texts(svc *todo.Service) []string {
	var out []string
	for _, t := range svc.Todos() {
		out = append(out, t.Text)
	}
	return out
}

func TestKeyboardDragReorders(t *testing.T) {
	m, svc := newList(t, "a", "b", "c")

	m = drive(t, m, press("m"))
	require.True(t, m.Dragging())

	m = drive(t, m, press("j"))
	m = drive(t, m, press("j"))
	m = drive(t, m, press("enter"))

	assert.False(t, m.Dragging())
	assert.Equal(t, []string{"b", "c", "a"}, texts(svc))
	for i, task := range svc.Todos() {
		assert.Equal(t, i, task.Position)
	}
}

func TestDragCancelLeavesOrder(t *testing.T) {
	m, svc := newList(t, "a", "b", "c")

	m = drive(t, m, press("m"))
	m = drive(t, m, press("j"))
	m = drive(t, m, press("esc"))

	assert.False(t, m.Dragging())
	assert.Equal(t, []string{"a", "b", "c"}, texts(svc))
}

func TestPlaceholderFollowsNudge(t *testing.T) {
	m, _ := newList(t, "a", "b", "c")

	m = drive(t, m, press("m"))
	m = drive(t, m, press("j"))

	lines := m.lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "b", lines[0].row.Task.Text)
	assert.True(t, lines[1].placeholder)
	assert.Equal(t, "a", lines[1].row.Task.Text)
	assert.Equal(t, 1, m.cursor)
}

func TestMouseDragUsesMidpoints(t *testing.T) {
	m, svc := newList(t, "a", "b", "c")

	// Rows start on line 1 below the title.
	m = drive(t, m, tea.MouseMsg{X: 4, Y: 1, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	require.True(t, m.Dragging())

	// Below the last row but still inside the list area.
	m = drive(t, m, tea.MouseMsg{X: 4, Y: 4, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion})
	m = drive(t, m, tea.MouseMsg{X: 4, Y: 4, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})

	assert.False(t, m.Dragging())
	assert.Equal(t, []string{"b", "c", "a"}, texts(svc))
}

func TestMouseClickWithoutMotionDoesNotMove(t *testing.T) {
	m, svc := newList(t, "a", "b")

	m = drive(t, m, tea.MouseMsg{Y: 2, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	m = drive(t, m, tea.MouseMsg{Y: 2, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})

	assert.False(t, m.Dragging())
	assert.Equal(t, 1, m.cursor)
	assert.Equal(t, []string{"a", "b"}, texts(svc))
}

func TestMouseLeavingListCancelsDrag(t *testing.T) {
	m, svc := newList(t, "a", "b")

	m = drive(t, m, tea.MouseMsg{Y: 1, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	m = drive(t, m, tea.MouseMsg{Y: 40, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion})

	assert.False(t, m.Dragging())
	assert.Equal(t, []string{"a", "b"}, texts(svc))
}

func TestToggleCompletes(t *testing.T) {
	m, svc := newList(t, "Buy milk")

	m = drive(t, m, press("x"))

	assert.True(t, svc.Todos()[0].Completed)
	assert.Contains(t, m.status, "Completed: Buy milk")
}

func TestTrashKeyMovesToTrash(t *testing.T) {
	m, svc := newList(t, "a", "b")

	m = drive(t, m, press("d"))

	assert.Equal(t, []string{"b"}, texts(svc))
	require.Len(t, svc.Trash(), 1)
	assert.Equal(t, "a", svc.Trash()[0].Text)
	assert.Len(t, m.rows, 1)
}

func TestGroupAndFold(t *testing.T) {
	ctx := context.Background()
	m, svc := newList(t)
	cat, err := svc.AddCategory(ctx, todo.NewCategory{Name: "Work", Color: "#ff5555"})
	require.NoError(t, err)
	_, err = svc.AddTodo(ctx, todo.NewTodo{Text: "report", CategoryID: &cat.ID})
	require.NoError(t, err)
	m.Refresh()

	m = drive(t, m, press("g"))
	require.True(t, m.prefs.GroupByCategory)
	require.Len(t, m.rows, 2)

	m = drive(t, m, press("z"))
	assert.True(t, m.prefs.IsFolded(cat.Key()))
	assert.Len(t, m.rows, 1)
	assert.True(t, svc.LoadPrefs(ctx).IsFolded(cat.Key()))
}

func TestFilterCycle(t *testing.T) {
	m, _ := newList(t, "a")

	m = drive(t, m, press("f"))
	assert.Equal(t, model.FilterActive, m.prefs.Filter)
	m = drive(t, m, press("f"))
	assert.Equal(t, model.FilterCompleted, m.prefs.Filter)
	assert.Empty(t, m.rows)
	assert.Contains(t, m.View(), "No matching tasks")
}

func TestOverdue(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	past, future := "2024-05-09", "2024-05-10"

	assert.True(t, IsOverdue(&model.Task{DueDate: &past}, now))
	assert.False(t, IsOverdue(&model.Task{DueDate: &future}, now))
	assert.False(t, IsOverdue(&model.Task{DueDate: &past, Completed: true}, now))
}

func TestViewShowsItemsLeft(t *testing.T) {
	m, _ := newList(t, "a", "b")

	out := m.View()
	assert.True(t, strings.Contains(out, "2 items left"))
}
