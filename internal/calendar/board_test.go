package calendar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/reorder"
	"github.com/nhle/todo-board/internal/store"
	"github.com/nhle/todo-board/tests/testutil"
)

func seed(t *testing.T, tasks ...model.Task) *store.KVStore {
	t.Helper()
	st := testutil.NewTestStore(t)
	require.NoError(t, st.SaveTodos(context.Background(), tasks))
	return st
}

func day(d model.Day) *model.Day { return &d }

func ids(tasks []model.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestAssignAndSavePersistsDay(t *testing.T) {
	ctx := context.Background()
	st := seed(t, testutil.Task(1, "Buy milk"), testutil.Task(2, "Walk dog"))
	bus := events.NewBus()
	sub := bus.Listen(events.CalendarAssignmentsUpdated)
	defer sub.Close()

	board := New(st, bus, nil, "")
	require.NoError(t, board.Load(ctx))
	assert.Len(t, board.Column(Unassigned), 2)

	require.NoError(t, board.Assign(1, model.Monday))
	assert.Equal(t, []int64{1}, board.Dirty())

	res, err := board.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, res.Updated)
	assert.Empty(t, res.Conflicts)
	assert.Empty(t, board.Dirty())

	todos, err := st.LoadTodos(ctx)
	require.NoError(t, err)
	require.NotNil(t, todos[0].CalendarDay)
	assert.Equal(t, model.Monday, *todos[0].CalendarDay)
	assert.Nil(t, todos[1].CalendarDay)

	ev := <-sub.C
	assert.Equal(t, Origin, ev.Origin)
	assert.Equal(t, events.CalendarPayload{UpdatedTasks: []int64{1}}, ev.Payload)
}

func TestSaveOnlyWritesCalendarDay(t *testing.T) {
	ctx := context.Background()
	st := seed(t, testutil.Task(1, "a"), testutil.Task(2, "b"))
	board := New(st, nil, nil, "")
	require.NoError(t, board.Load(ctx))
	require.NoError(t, board.Assign(2, model.Friday))

	// The list screen edits task 2 and adds task 3 after the board loaded.
	todos, _ := st.LoadTodos(ctx)
	todos[1].Text = "b edited"
	todos[1].Completed = true
	todos = append(todos, testutil.Task(3, "c"))
	todos[2].Position = 2
	require.NoError(t, st.SaveTodos(ctx, todos))

	_, err := board.Save(ctx)
	require.NoError(t, err)

	got, _ := st.LoadTodos(ctx)
	require.Len(t, got, 3)
	assert.Equal(t, "b edited", got[1].Text)
	assert.True(t, got[1].Completed)
	assert.Equal(t, model.Friday, *got[1].CalendarDay)
}

func TestSaveReportsConflicts(t *testing.T) {
	ctx := context.Background()
	st := seed(t, testutil.Task(1, "a"), testutil.Task(2, "b"))
	board := New(st, nil, nil, "")
	require.NoError(t, board.Load(ctx))
	require.NoError(t, board.Assign(1, model.Monday))
	require.NoError(t, board.Assign(2, model.Tuesday))

	// Another board assigns task 1 first; task 2 is deleted.
	todos, _ := st.LoadTodos(ctx)
	todos[0].CalendarDay = day(model.Sunday)
	require.NoError(t, st.SaveTodos(ctx, todos[:1]))

	res, err := board.Save(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Updated)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, int64(1), res.Conflicts[0].ID)
	assert.Equal(t, model.Monday, *res.Conflicts[0].Ours)
	assert.Equal(t, model.Sunday, *res.Conflicts[0].Theirs)
	assert.Equal(t, []int64{2}, res.Missing)

	got, _ := st.LoadTodos(ctx)
	assert.Equal(t, model.Sunday, *got[0].CalendarDay)
	assert.Equal(t, []int64{1}, ids(board.Column(model.Sunday)))
}

func TestAssignBackToLoadedDayIsClean(t *testing.T) {
	ctx := context.Background()
	task := testutil.Task(1, "a")
	task.CalendarDay = day(model.Wednesday)
	board := New(seed(t, task), nil, nil, "")
	require.NoError(t, board.Load(ctx))

	require.NoError(t, board.Assign(1, Unassigned))
	assert.Equal(t, []int64{1}, board.Dirty())
	require.NoError(t, board.Assign(1, model.Wednesday))
	assert.Empty(t, board.Dirty())

	assert.Error(t, board.Assign(1, model.Day("Caturday")))
	assert.ErrorIs(t, board.Assign(99, model.Monday), ErrTaskNotFound)
}

func TestDropUsesPlaceholderSlot(t *testing.T) {
	ctx := context.Background()
	board := New(seed(t, testutil.Task(1, "a"), testutil.Task(2, "b"), testutil.Task(3, "c")), nil, nil, "")
	require.NoError(t, board.Load(ctx))
	require.NoError(t, board.Assign(1, model.Monday))
	require.NoError(t, board.Assign(2, model.Monday))

	drag := reorder.Start(3, board.ColumnIDs(Unassigned))
	drag.Retarget(board.ColumnIDs(model.Monday), 1)
	require.NoError(t, board.Drop(drag, model.Monday))
	assert.Equal(t, []int64{1, 3, 2}, ids(board.Column(model.Monday)))
	assert.False(t, drag.Active())

	require.NoError(t, board.MoveWithin(2, nil))
	assert.Equal(t, []int64{1, 3, 2}, ids(board.Column(model.Monday)))
	first := int64(1)
	require.NoError(t, board.MoveWithin(2, &first))
	assert.Equal(t, []int64{2, 1, 3}, ids(board.Column(model.Monday)))

	assert.ErrorIs(t, board.Drop(drag, model.Monday), reorder.ErrNoDrag)
}

func TestReloadKeepsUnsavedAssignments(t *testing.T) {
	ctx := context.Background()
	st := seed(t, testutil.Task(1, "a"), testutil.Task(2, "b"))
	board := New(st, nil, nil, "")
	require.NoError(t, board.Load(ctx))
	require.NoError(t, board.Assign(1, model.Saturday))

	todos, _ := st.LoadTodos(ctx)
	todos[1].Text = "b2"
	require.NoError(t, st.SaveTodos(ctx, todos))
	require.NoError(t, board.Load(ctx))

	assert.Equal(t, []int64{1}, board.Dirty())
	assert.Equal(t, []int64{1}, ids(board.Column(model.Saturday)))
	assert.Equal(t, "b2", board.Column(Unassigned)[0].Text)
}

func TestColumnsFollowWeekStart(t *testing.T) {
	board := New(testutil.NewTestStore(t), nil, nil, "sunday")
	cols := board.Columns()
	require.Len(t, cols, 8)
	assert.Equal(t, Unassigned, cols[0])
	assert.Equal(t, model.Sunday, cols[1])
	assert.Equal(t, model.Saturday, cols[7])
}

func TestLoadNormalizesStoredDays(t *testing.T) {
	ctx := context.Background()
	lower, junk := testutil.Task(1, "lower"), testutil.Task(2, "junk")
	lower.CalendarDay = day("monday")
	junk.CalendarDay = day("Someday")
	st := seed(t, lower, junk, testutil.Task(3, "plain"))

	board := New(st, nil, nil, "")
	require.NoError(t, board.Load(ctx))
	assert.Equal(t, []int64{1}, ids(board.Column(model.Monday)))
	assert.Equal(t, []int64{2, 3}, ids(board.Column(Unassigned)))

	require.NoError(t, board.Assign(3, model.Friday))
	res, err := board.Save(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, []int64{3}, res.Updated)

	todos, err := st.LoadTodos(ctx)
	require.NoError(t, err)
	require.NotNil(t, todos[0].CalendarDay)
	assert.Equal(t, model.Monday, *todos[0].CalendarDay)
	assert.Nil(t, todos[1].CalendarDay)
	assert.Equal(t, model.Friday, *todos[2].CalendarDay)
}
