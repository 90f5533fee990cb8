package render

import (
	"sort"
	"strings"

	"github.com/nhle/todo-board/internal/model"
)

// bucket is one category's worth of tasks while grouping.
type bucket struct {
	key      string
	label    string
	color    string
	created  string
	tasks    []*model.Task
	children []*bucket

	count, done int
}

type grouper struct {
	prefs   model.Prefs
	buckets map[string]*bucket
	order   []*bucket
	roots   []*bucket
}

func newGrouper(tasks []model.Task, categories []model.Category, prefs model.Prefs) *grouper {
	g := &grouper{prefs: prefs, buckets: make(map[string]*bucket)}

	for _, c := range categories {
		b := &bucket{
			key:     c.Key(),
			label:   c.Name,
			color:   c.Color,
			created: c.Created(),
		}
		g.buckets[b.key] = b
		g.order = append(g.order, b)
	}

	for i := range tasks {
		t := &tasks[i]
		key := t.GroupKey()
		b, ok := g.buckets[key]
		if !ok {
			b = g.orphan(t)
		}
		b.tasks = append(b.tasks, t)
	}

	// Link children to parents. Unknown parents and self-parents make the
	// category a root.
	for _, c := range categories {
		b := g.buckets[c.Key()]
		if c.ParentID != nil && *c.ParentID != c.ID {
			if parent, ok := g.buckets[model.CategoryKey(*c.ParentID)]; ok {
				parent.children = append(parent.children, b)
				continue
			}
		}
		g.roots = append(g.roots, b)
	}
	return g
}

// orphan creates a bucket for a task whose category no longer exists, or the
// uncategorized bucket.
func (g *grouper) orphan(t *model.Task) *bucket {
	b := &bucket{key: t.GroupKey()}
	g.buckets[b.key] = b
	if t.Category == nil {
		b.label = UncategorizedLabel
		return b
	}
	b.label = t.Category.Name
	b.color = t.Category.Color
	g.roots = append(g.roots, b)
	return b
}

func (g *grouper) rows() []Row {
	visited := make(map[string]bool)
	for _, b := range g.roots {
		g.tally(b, visited)
	}
	// Categories caught in a parent cycle are unreachable from any root;
	// surface them as roots so their tasks stay visible.
	for _, b := range g.order {
		if !visited[b.key] {
			g.tally(b, visited)
			g.roots = append(g.roots, b)
		}
	}

	g.sortBuckets(g.roots)
	if u, ok := g.buckets[model.UncategorizedKey]; ok {
		u.count, u.done = len(u.tasks), doneCount(u.tasks)
		g.roots = append(g.roots, u)
	}

	var out []Row
	emitted := make(map[string]bool)
	for _, b := range g.roots {
		out = g.emit(out, b, 0, emitted)
	}
	return out
}

// tally computes count/done over the subtree. visited guards against
// parent cycles in malformed data.
func (g *grouper) tally(b *bucket, visited map[string]bool) {
	if visited[b.key] {
		return
	}
	visited[b.key] = true
	b.count, b.done = len(b.tasks), doneCount(b.tasks)
	for _, c := range b.children {
		if visited[c.key] {
			continue
		}
		g.tally(c, visited)
		b.count += c.count
		b.done += c.done
	}
}

func (g *grouper) emit(out []Row, b *bucket, depth int, emitted map[string]bool) []Row {
	if b.count == 0 || emitted[b.key] {
		return out
	}
	emitted[b.key] = true

	folded := g.prefs.IsFolded(b.key)
	out = append(out, Row{
		Kind:   RowHeader,
		Depth:  depth,
		Group:  b.key,
		Label:  b.label,
		Color:  b.color,
		Folded: folded,
		Count:  b.count,
		Done:   b.done,
	})
	if folded {
		return out
	}

	for _, t := range b.tasks {
		out = append(out, taskRow(t, b.key, depth+1))
	}

	g.sortBuckets(b.children)
	for _, c := range b.children {
		out = g.emit(out, c, depth+1, emitted)
	}
	return out
}

// sortBuckets orders sibling headers: by the sort key when sorting targets
// categories, otherwise by name ascending.
func (g *grouper) sortBuckets(bs []*bucket) {
	by, dir := model.SortByName, model.SortAsc
	if g.prefs.SortTarget == model.SortTargetCategories {
		by, dir = g.prefs.SortBy, g.prefs.SortDirection
	}
	sort.SliceStable(bs, func(i, j int) bool {
		var c int
		switch by {
		case model.SortByDate:
			c = strings.Compare(bs[i].created, bs[j].created)
		default:
			c = strings.Compare(strings.ToLower(bs[i].label), strings.ToLower(bs[j].label))
		}
		if dir == model.SortDesc {
			return c > 0
		}
		return c < 0
	})
}

func doneCount(tasks []*model.Task) int {
	n := 0
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}
