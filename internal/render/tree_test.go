package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/tests/testutil"
)

func treeNames(entries []TreeEntry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Category.Name)
	}
	return out
}

func TestTreeDepthFirstByName(t *testing.T) {
	cats := []model.Category{
		testutil.Category(1, "work"),
		testutil.Child(2, "reports", 1),
		testutil.Category(3, "Home"),
		testutil.Child(4, "admin", 1),
		testutil.Child(5, "q1", 2),
	}

	entries := Tree(cats)

	assert.Equal(t, []string{"Home", "work", "admin", "reports", "q1"}, treeNames(entries))
	assert.Equal(t, []int{0, 0, 1, 1, 2}, []int{
		entries[0].Depth, entries[1].Depth, entries[2].Depth, entries[3].Depth, entries[4].Depth,
	})
}

func TestTreeOrphansAndCycles(t *testing.T) {
	cats := []model.Category{
		testutil.Child(1, "orphan", 99),
		testutil.Child(2, "a", 3),
		testutil.Child(3, "b", 2),
	}

	entries := Tree(cats)

	assert.Len(t, entries, 3)
	assert.Equal(t, "orphan", entries[0].Category.Name)
	assert.Equal(t, 0, entries[0].Depth)
}
