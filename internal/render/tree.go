package render

import (
	"sort"
	"strings"

	"github.com/nhle/todo-board/internal/model"
)

// TreeEntry is one category in depth-first display order.
type TreeEntry struct {
	Category model.Category
	Depth    int
}

// Tree flattens categories depth-first, siblings by name. Categories whose
// parent is missing are shown as roots; parent cycles are cut.
func Tree(categories []model.Category) []TreeEntry {
	byID := make(map[int64]bool, len(categories))
	for _, c := range categories {
		byID[c.ID] = true
	}

	kids := make(map[int64][]model.Category)
	var roots []model.Category
	for _, c := range categories {
		if c.ParentID == nil || !byID[*c.ParentID] {
			roots = append(roots, c)
			continue
		}
		kids[*c.ParentID] = append(kids[*c.ParentID], c)
	}

	byName := func(cs []model.Category) {
		sort.SliceStable(cs, func(i, j int) bool {
			return strings.ToLower(cs[i].Name) < strings.ToLower(cs[j].Name)
		})
	}

	out := make([]TreeEntry, 0, len(categories))
	seen := make(map[int64]bool, len(categories))
	var walk func(c model.Category, depth int)
	walk = func(c model.Category, depth int) {
		if seen[c.ID] {
			return
		}
		seen[c.ID] = true
		out = append(out, TreeEntry{Category: c, Depth: depth})
		children := kids[c.ID]
		byName(children)
		for _, k := range children {
			walk(k, depth+1)
		}
	}

	byName(roots)
	for _, r := range roots {
		walk(r, 0)
	}
	// Members of a parent cycle are unreachable from any root.
	for _, c := range categories {
		if !seen[c.ID] {
			walk(c, 0)
		}
	}
	return out
}
