package calendarview

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo-board/internal/calendar"
	"github.com/nhle/todo-board/internal/keys"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/store"
	"github.com/nhle/todo-board/tests/testutil"
)

func newView(t *testing.T, tasks ...model.Task) (Model, store.Store) {
	t.Helper()
	st := testutil.NewTestFileStore(t)
	require.NoError(t, st.SaveTodos(context.Background(), tasks))

	m := New(calendar.New(st, nil, nil, "monday"), keys.DefaultKeyMap(), 160, 30)
	m, _ = m.Update(m.Init()())
	return m, st
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyboardDragAcrossColumnsAndSave(t *testing.T) {
	ctx := context.Background()
	m, st := newView(t, testutil.Task(1, "Buy milk"), testutil.Task(2, "Call mum"))

	m, _ = m.Update(runes("m"))
	require.True(t, m.Dragging())
	m, _ = m.Update(runes("l"))
	assert.Equal(t, 1, m.dragCol)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.Dragging())
	assert.Equal(t, 1, m.col)
	assert.Contains(t, m.View(), "1 unsaved")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.Equal(t, "Saved 1 assignments", m.status)

	todos, err := st.LoadTodos(ctx)
	require.NoError(t, err)
	byID := make(map[int64]model.Task)
	for _, task := range todos {
		byID[task.ID] = task
	}
	require.NotNil(t, byID[1].CalendarDay)
	assert.Equal(t, model.Monday, *byID[1].CalendarDay)
	assert.Nil(t, byID[2].CalendarDay)
}

func TestAssignNextAndPrev(t *testing.T) {
	m, _ := newView(t, testutil.Task(1, "a"))

	m, _ = m.Update(runes(">"))
	m, _ = m.Update(runes(">"))
	assert.Equal(t, 2, m.col)
	task, ok := m.current()
	require.True(t, ok)
	assert.Equal(t, model.Tuesday, *task.CalendarDay)

	m, _ = m.Update(runes("<"))
	m, _ = m.Update(runes("<"))
	assert.Equal(t, 0, m.col)
	assert.Empty(t, m.board.Dirty())
}

func TestDragCancelKeepsColumn(t *testing.T) {
	m, _ := newView(t, testutil.Task(1, "a"))

	m, _ = m.Update(runes("m"))
	m, _ = m.Update(runes("l"))
	require.Empty(t, m.cells(0))
	require.True(t, m.cells(1)[0].placeholder)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, m.Dragging())
	assert.Len(t, m.cells(0), 1)
	assert.Empty(t, m.board.Dirty())
}

func TestMouseDragToColumn(t *testing.T) {
	m, _ := newView(t, testutil.Task(1, "a"))
	w := m.columnWidth()

	m, _ = m.Update(tea.MouseMsg{X: 1, Y: itemTop, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	require.True(t, m.Dragging())
	m, _ = m.Update(tea.MouseMsg{X: 3*w + 1, Y: itemTop, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion})
	m, _ = m.Update(tea.MouseMsg{X: 3*w + 1, Y: itemTop, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})

	assert.False(t, m.Dragging())
	task, ok := m.current()
	require.True(t, ok)
	assert.Equal(t, model.Wednesday, *task.CalendarDay)
}

func TestSaveSummaryNamesConflicts(t *testing.T) {
	tue := model.Tuesday
	res := calendar.SaveResult{
		Updated:   []int64{1},
		Conflicts: []calendar.Conflict{{ID: 2, Text: "b", Theirs: &tue}},
		Missing:   []int64{3},
	}

	assert.Equal(t,
		`Saved 1 assignments; 1 changed elsewhere and were kept: "b" (now Tuesday); 1 no longer exist`,
		saveSummary(res))
}
