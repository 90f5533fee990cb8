package todoform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/tests/testutil"
)

func TestValidators(t *testing.T) {
	assert.Error(t, validateRequired("Task")("   "))
	assert.NoError(t, validateRequired("Task")("milk"))

	assert.NoError(t, validateOptionalDate(""))
	assert.NoError(t, validateOptionalDate("2024-05-01"))
	assert.Error(t, validateOptionalDate("05/01/2024"))

	assert.NoError(t, validateOptionalColor(""))
	assert.NoError(t, validateOptionalColor("#ff5555"))
	assert.Error(t, validateOptionalColor("red"))
}

func TestStartEditFillsBindings(t *testing.T) {
	m := New(80, 24)
	m.SetOptions([]model.Category{testutil.Category(7, "Work")})

	due := "2024-06-01"
	task := testutil.Task(1, "report")
	task.DueDate = &due
	task.Category = &model.CategoryRef{ID: 7, Name: "Work", Color: "#ff5555"}

	m.StartEdit(task)

	assert.True(t, m.editMode)
	assert.Equal(t, int64(1), m.editID)
	assert.Equal(t, "report", m.fb.text)
	assert.Equal(t, due, m.fb.dueDate)
	assert.Equal(t, int64(7), m.fb.categoryID)
	assert.Equal(t, "#ff5555", m.fb.color)
}

func TestSubmitBuildsMessages(t *testing.T) {
	m := New(80, 24)
	cat := int64(7)
	m.StartCreate(&cat)
	m.fb.text = "Buy milk"

	msg := m.handleSubmit()()
	created, ok := msg.(TodoCreatedMsg)
	require.True(t, ok)
	assert.Equal(t, "Buy milk", created.Todo.Text)
	require.NotNil(t, created.Todo.CategoryID)
	assert.Equal(t, cat, *created.Todo.CategoryID)

	m.StartEdit(testutil.Task(3, "old"))
	m.fb.text = "new"
	msg = m.handleSubmit()()
	updated, ok := msg.(TodoUpdatedMsg)
	require.True(t, ok)
	assert.Equal(t, int64(3), updated.ID)
	assert.Equal(t, "new", updated.Update.Text)
	assert.Nil(t, updated.Update.CategoryID)
}
