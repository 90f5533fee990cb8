package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo-board/internal/model"
)

func task(id int64, text string, created string, completed bool, cat *model.Category) model.Task {
	t := model.Task{ID: id, Text: text, CreatedAt: created, Completed: completed, Position: int(id)}
	if cat != nil {
		t.Category = cat.Ref()
	}
	return t
}

func cat(id int64, name string, parent *int64) model.Category {
	return model.Category{ID: id, Name: name, Color: "#ff5555", ParentID: parent}
}

func labels(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Label
	}
	return out
}

func TestFilterPartitionsTasks(t *testing.T) {
	tasks := []model.Task{
		task(1, "a", "", false, nil),
		task(2, "b", "", true, nil),
		task(3, "c", "", false, nil),
	}

	active := Apply(model.FilterActive, tasks)
	completed := Apply(model.FilterCompleted, tasks)

	assert.Len(t, Apply(model.FilterAll, tasks), 3)
	assert.Equal(t, len(tasks), len(active)+len(completed))
	seen := map[int64]bool{}
	for _, tk := range append(active, completed...) {
		assert.False(t, seen[tk.ID], "overlap on %d", tk.ID)
		seen[tk.ID] = true
	}

	total, left, done := Counts(tasks)
	assert.Equal(t, []int{3, 2, 1}, []int{total, left, done})
}

func TestSortTasks(t *testing.T) {
	tasks := []model.Task{
		task(1, "banana", "2024-01-03T00:00:00.000Z", false, nil),
		task(2, "Apple", "2024-01-01T00:00:00.000Z", false, nil),
		task(3, "cherry", "2024-01-02T00:00:00.000Z", false, nil),
	}

	SortTasks(tasks, model.SortByName, model.SortAsc)
	assert.Equal(t, "Apple", tasks[0].Text)
	assert.Equal(t, "cherry", tasks[2].Text)

	SortTasks(tasks, model.SortByDate, model.SortDesc)
	assert.Equal(t, []int64{1, 3, 2}, []int64{tasks[0].ID, tasks[1].ID, tasks[2].ID})

	SortTasks(tasks, model.SortByPosition, model.SortAsc)
	assert.Equal(t, []int64{1, 2, 3}, []int64{tasks[0].ID, tasks[1].ID, tasks[2].ID})
}

func TestProjectFlat(t *testing.T) {
	tasks := []model.Task{
		task(1, "b", "", false, nil),
		task(2, "a", "", true, nil),
	}
	prefs := model.DefaultPrefs()
	prefs.Filter = model.FilterActive

	rows := Project(tasks, nil, prefs)
	require.Len(t, rows, 1)
	assert.Equal(t, RowTask, rows[0].Kind)
	assert.Equal(t, "", rows[0].Group)
	assert.Equal(t, int64(1), rows[0].Task.ID)
}

func TestProjectGroupedTree(t *testing.T) {
	home := cat(10, "Home", nil)
	garden := cat(11, "Garden", &home.ID)
	work := cat(20, "Work", nil)
	empty := cat(30, "Empty", nil)
	emptyChild := cat(31, "Nothing", &empty.ID)

	tasks := []model.Task{
		task(1, "mow", "", false, &garden),
		task(2, "loose", "", false, nil),
		task(3, "report", "", true, &work),
		task(4, "dishes", "", false, &home),
	}
	prefs := model.DefaultPrefs()
	prefs.GroupByCategory = true

	rows := Project(tasks, []model.Category{work, home, garden, empty, emptyChild}, prefs)

	assert.Equal(t, []string{
		"Home", "dishes", "Garden", "mow",
		"Work", "report",
		UncategorizedLabel, "loose",
	}, labels(rows))

	assert.Equal(t, 0, rows[0].Depth)
	assert.Equal(t, 2, rows[0].Count, "parent counts include descendants")
	assert.Equal(t, 1, rows[2].Depth)
	assert.Equal(t, 2, rows[3].Depth)
	assert.Equal(t, 1, rows[4].Done)
	assert.Equal(t, []int64{4}, ListIDs(rows, home.Key()))
	assert.Equal(t, []int64{2}, ListIDs(rows, model.UncategorizedKey))
}

func TestGroupedOmitsEmptyBuckets(t *testing.T) {
	a := cat(1, "A", nil)
	b := cat(2, "B", nil)
	tasks := []model.Task{task(5, "done", "", true, &a), task(6, "open", "", false, &b)}

	prefs := model.DefaultPrefs()
	prefs.GroupByCategory = true
	prefs.Filter = model.FilterActive

	rows := Project(tasks, []model.Category{a, b}, prefs)
	for _, r := range rows {
		if r.Kind == RowHeader {
			assert.NotZero(t, r.Count, "header %s has nothing under it", r.Label)
		}
	}
	assert.Equal(t, []string{"B", "open"}, labels(rows))
}

func TestFoldHidesButKeepsCounts(t *testing.T) {
	parent := cat(1, "Parent", nil)
	child := cat(2, "Child", &parent.ID)
	tasks := []model.Task{task(5, "x", "", false, &parent), task(6, "y", "", false, &child)}

	prefs := model.DefaultPrefs().ToggleFold(parent.Key())
	prefs.GroupByCategory = true

	rows := Project(tasks, []model.Category{parent, child}, prefs)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Folded)
	assert.Equal(t, 2, rows[0].Count)
}

func TestSortTargetCategories(t *testing.T) {
	old := cat(1, "Zeta", nil)
	old.CreatedAt = "2023-01-01T00:00:00.000Z"
	newer := cat(2, "Alpha", nil)
	newer.CreatedAt = "2024-01-01T00:00:00.000Z"
	tasks := []model.Task{
		task(5, "b", "", false, &old),
		task(6, "a", "", false, &old),
		task(7, "c", "", false, &newer),
	}

	prefs := model.Prefs{
		Filter:          model.FilterAll,
		SortBy:          model.SortByDate,
		SortDirection:   model.SortDesc,
		SortTarget:      model.SortTargetCategories,
		GroupByCategory: true,
	}
	rows := Project(tasks, []model.Category{old, newer}, prefs)
	assert.Equal(t, []string{"Alpha", "c", "Zeta", "b", "a"}, labels(rows),
		"tasks keep list order when sorting targets categories")
}

func TestDeletedCategorySnapshotGetsOwnBucket(t *testing.T) {
	gone := cat(99, "Gone", nil)
	tasks := []model.Task{task(1, "stale", "", false, &gone)}
	prefs := model.DefaultPrefs()
	prefs.GroupByCategory = true

	rows := Project(tasks, nil, prefs)
	assert.Equal(t, []string{"Gone", "stale"}, labels(rows))
}

func TestParentCycleStillRenders(t *testing.T) {
	aID, bID := int64(1), int64(2)
	a := cat(aID, "A", &bID)
	b := cat(bID, "B", &aID)
	tasks := []model.Task{task(5, "x", "", false, &a), task(6, "y", "", false, &b)}
	prefs := model.DefaultPrefs()
	prefs.GroupByCategory = true

	rows := Project(tasks, []model.Category{a, b}, prefs)
	assert.Equal(t, []string{"A", "x", "B", "y"}, labels(rows))
}

func TestSortTrash(t *testing.T) {
	s1, s2 := "2024-01-01T00:00:00.000Z", "2024-02-01T00:00:00.000Z"
	items := []model.Task{
		{ID: 1, Text: "beta", TrashedAt: &s1},
		{ID: 2, Text: "Alpha", TrashedAt: &s2},
		{ID: 3, Text: "gamma"},
	}

	SortTrash(items, model.SortByDate, model.SortDesc)
	assert.Equal(t, []int64{2, 1, 3}, []int64{items[0].ID, items[1].ID, items[2].ID})

	SortTrash(items, model.SortByName, model.SortAsc)
	assert.Equal(t, []int64{2, 1, 3}, []int64{items[0].ID, items[1].ID, items[2].ID})
}
