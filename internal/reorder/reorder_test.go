package reorder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo-board/internal/model"
)

func tasks(ids ...int64) []model.Task {
	out := make([]model.Task, len(ids))
	for i, id := range ids {
		out[i] = model.Task{ID: id, Text: "t", Position: i}
	}
	return out
}

func ids(ts []model.Task) []int64 {
	out := make([]int64, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func ptr(id int64) *int64 { return &id }

func TestInsertionIndex(t *testing.T) {
	mids := []float64{0.5, 1.5, 2.5}

	tests := []struct {
		name string
		y    float64
		want int
	}{
		{"above first", 0, 0},
		{"between first and second", 1, 1},
		{"on a midpoint goes after", 1.5, 2},
		{"below all", 9, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InsertionIndex(mids, tt.y))
		})
	}
	assert.Equal(t, 0, InsertionIndex(nil, 4))
}

func TestMoveBefore(t *testing.T) {
	in := tasks(1, 2, 3, 4)

	out, err := MoveBefore(in, 4, ptr(2))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4, 2, 3}, ids(out))
	assert.True(t, IsDense(out))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(in), "input untouched")
	assert.Equal(t, 3, in[3].Position)

	out, err = MoveBefore(in, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4, 1}, ids(out))

	_, err = MoveBefore(in, 99, nil)
	assert.ErrorIs(t, err, ErrNotInList)
}

func TestMoveBeforeSelfKeepsOrder(t *testing.T) {
	out, err := MoveBefore(tasks(1, 2, 3), 2, ptr(2))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(out))
	assert.True(t, IsDense(out))
}

func TestMoveBeforeUnknownAnchor(t *testing.T) {
	in := tasks(1, 2, 3)
	_, err := MoveBefore(in, 1, ptr(42))
	assert.ErrorIs(t, err, ErrNotInList)
	assert.Equal(t, []int64{1, 2, 3}, ids(in))
}

func TestMoveAfter(t *testing.T) {
	out, err := MoveAfter(tasks(1, 2, 3, 4), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 1, 4}, ids(out))

	out, err = MoveAfter(tasks(1, 2, 3, 4), 2, 4)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 4, 2}, ids(out))
	assert.True(t, IsDense(out))
}

func TestDragKeyboard(t *testing.T) {
	d := Start(2, []int64{1, 2, 3})
	assert.Equal(t, []int64{1, 3}, d.Siblings())
	assert.Equal(t, 1, d.Slot())

	assert.True(t, d.Nudge(1))
	assert.False(t, d.Nudge(1))
	assert.Equal(t, []int64{1, 3, 0}, d.Placeholder())

	out, err := d.Drop(tasks(1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 2, 4}, ids(out))
	assert.True(t, IsDense(out))
	assert.False(t, d.Active())
}

func TestDragHoverWithinFilteredList(t *testing.T) {
	// Visible list shows 10, 30, 50 out of a larger backing list.
	all := tasks(10, 20, 30, 40, 50)
	d := Start(50, []int64{10, 30, 50})

	d.Hover(0.2, []float64{0.5, 1.5})
	assert.Equal(t, 0, d.Slot())

	out, err := d.Drop(all)
	require.NoError(t, err)
	assert.Equal(t, []int64{50, 10, 20, 30, 40}, ids(out))
	for i, task := range out {
		assert.Equal(t, i, task.Position)
	}
}

func TestDropAtEndOfGroupLandsAfterLastSibling(t *testing.T) {
	all := tasks(1, 2, 3, 4, 5)
	d := Start(1, []int64{1, 2, 3})
	d.Hover(99, []float64{0.5, 1.5})

	out, err := d.Drop(all)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 1, 4, 5}, ids(out))
}

func TestRetargetIntoEmptyList(t *testing.T) {
	d := Start(1, []int64{1, 2})
	d.Retarget(nil, 5)
	assert.Equal(t, 0, d.Slot())

	out, err := d.Drop(tasks(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 1}, ids(out))
}

func TestDropWithoutDragAborts(t *testing.T) {
	var d *Drag
	_, err := d.Drop(tasks(1))
	assert.True(t, errors.Is(err, ErrNoDrag))

	d = Start(1, []int64{1})
	d.Cancel()
	_, err = d.Drop(tasks(1))
	assert.True(t, errors.Is(err, ErrNoDrag))
}

func TestRenumberProducesDensePermutation(t *testing.T) {
	in := tasks(5, 6, 7)
	in[0].Position, in[1].Position, in[2].Position = 4, 4, 9
	assert.False(t, IsDense(in))
	Renumber(in)
	assert.True(t, IsDense(in))
}
