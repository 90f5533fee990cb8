package detail

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo-board/internal/keys"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/tests/testutil"
)

func TestCategoryPath(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	task := testutil.Task(1, "report")
	task.Category = &model.CategoryRef{ID: 3, Name: "Q1", Color: "#ff5555"}

	m.SetTask(task, []model.Category{
		testutil.Category(1, "Work"),
		testutil.Child(2, "Reports", 1),
		testutil.Child(3, "Q1", 2),
	})
	assert.Equal(t, "Work › Reports › Q1", m.categoryPath())

	m.SetTask(task, nil)
	assert.Equal(t, "Q1", m.categoryPath())
}

func TestContentShowsOverdue(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.now = func() time.Time { return time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC) }
	due := "2024-05-01"
	task := testutil.Task(1, "pay rent")
	task.DueDate = &due

	m.SetTask(task, nil)

	content := m.renderContent()
	assert.Contains(t, content, "pay rent")
	assert.Contains(t, content, "2024-05-01 (overdue)")
	assert.Contains(t, content, "Unassigned")
}

func TestActionKeys(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetTask(testutil.Task(9, "x"), nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	require.NotNil(t, cmd)
	assert.Equal(t, ActionMsg{Action: ActionEdit, TaskID: 9}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}
