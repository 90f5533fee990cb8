package render

import (
	"sort"
	"strings"

	"github.com/nhle/todo-board/internal/model"
)

// SortTrash orders trash records by trashedAt (date) or text (name).
// Records without a trashedAt stamp sort as the oldest.
func SortTrash(items []model.Task, by model.SortBy, dir model.SortDirection) {
	sort.SliceStable(items, func(i, j int) bool {
		var c int
		if by == model.SortByName {
			c = strings.Compare(strings.ToLower(items[i].Text), strings.ToLower(items[j].Text))
		} else {
			c = strings.Compare(stamp(items[i]), stamp(items[j]))
		}
		if dir == model.SortDesc {
			return c > 0
		}
		return c < 0
	})
}

func stamp(t model.Task) string {
	if t.TrashedAt == nil {
		return ""
	}
	return *t.TrashedAt
}
