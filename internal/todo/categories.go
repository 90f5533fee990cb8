package todo

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/model"
)

// NewCategory holds the fields of a category being created. An empty Color
// picks one from the palette.
type NewCategory struct {
	Name     string
	Color    string
	ParentID *int64
}

// CategoryUpdate replaces a category's name, colour and parent. A nil
// ParentID makes it a root.
type CategoryUpdate struct {
	Name     string
	Color    string
	ParentID *int64
}

// RootCategories returns the categories without a parent.
func (s *Service) RootCategories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Category
	for _, c := range s.categories {
		if c.IsRoot() {
			out = append(out, c)
		}
	}
	return cloneCategories(out)
}

// Subcategories returns the direct children of parentID.
func (s *Service) Subcategories(parentID int64) []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCategories(children(s.categories, parentID))
}

// Category returns the category with id.
func (s *Service) Category(id int64) (model.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := findCategory(s.categories, id)
	if !ok {
		return model.Category{}, false
	}
	return cloneCategories([]model.Category{c})[0], true
}

// Descendants returns the ids of every category below id, depth first.
func (s *Service) Descendants(id int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return descendants(s.categories, id)
}

// ParentCandidates lists the categories that id may be re-parented under:
// everything except id itself and its descendants.
func (s *Service) ParentCandidates(id int64) []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	excluded := map[int64]bool{id: true}
	for _, d := range descendants(s.categories, id) {
		excluded[d] = true
	}
	var out []model.Category
	for _, c := range s.categories {
		if !excluded[c.ID] {
			out = append(out, c)
		}
	}
	return cloneCategories(out)
}

// AddCategory appends a new category.
func (s *Service) AddCategory(ctx context.Context, in NewCategory) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, ErrEmptyName
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = model.RandomColor()
	} else if !model.ValidColor(color) {
		return model.Category{}, ErrInvalidColor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ParentID != nil {
		if _, ok := findCategory(s.categories, *in.ParentID); !ok {
			return model.Category{}, fmt.Errorf("parent %d: %w", *in.ParentID, ErrCategoryNotFound)
		}
	}

	now := s.now()
	var maxID int64
	for _, c := range s.categories {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	c := model.Category{
		ID:        nextID(now, maxID),
		Name:      name,
		Color:     color,
		CreatedAt: model.FormatTime(now),
	}
	if in.ParentID != nil {
		p := *in.ParentID
		c.ParentID = &p
	}

	if err := s.saveCategoriesLocked(ctx, append(cloneCategories(s.categories), c)); err != nil {
		return model.Category{}, err
	}
	s.log.Infow("category added", "id", c.ID, "parent", in.ParentID)
	return c, nil
}

// UpdateCategory edits a category in place and refreshes the snapshot on
// every task that references it.
func (s *Service) UpdateCategory(ctx context.Context, id int64, in CategoryUpdate) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ErrEmptyName
	}
	color := strings.TrimSpace(in.Color)
	if color != "" && !model.ValidColor(color) {
		return ErrInvalidColor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := categoryIndex(s.categories, id)
	if idx < 0 {
		return fmt.Errorf("updating category %d: %w", id, ErrCategoryNotFound)
	}
	if in.ParentID != nil {
		if *in.ParentID == id {
			return ErrCategoryCycle
		}
		for _, d := range descendants(s.categories, id) {
			if d == *in.ParentID {
				return ErrCategoryCycle
			}
		}
		if categoryIndex(s.categories, *in.ParentID) < 0 {
			return fmt.Errorf("parent %d: %w", *in.ParentID, ErrCategoryNotFound)
		}
	}

	categories := cloneCategories(s.categories)
	categories[idx].Name = name
	if color != "" {
		categories[idx].Color = color
	}
	categories[idx].ParentID = nil
	if in.ParentID != nil {
		p := *in.ParentID
		categories[idx].ParentID = &p
	}

	if err := s.saveCategoriesLocked(ctx, categories); err != nil {
		return err
	}

	todos := cloneTasks(s.todos)
	if propagateSnapshot(todos, categories[idx]) > 0 {
		return s.saveTodosLocked(ctx, todos)
	}
	return nil
}

// DeleteCategory removes the category and its whole subtree, and clears the
// category of every task (active or trashed) that referenced a removed id.
// It returns the removed ids.
func (s *Service) DeleteCategory(ctx context.Context, id int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if categoryIndex(s.categories, id) < 0 {
		return nil, fmt.Errorf("deleting category %d: %w", id, ErrCategoryNotFound)
	}

	removed := append([]int64{id}, descendants(s.categories, id)...)
	gone := make(map[int64]bool, len(removed))
	for _, r := range removed {
		gone[r] = true
	}

	var categories []model.Category
	for _, c := range s.categories {
		if !gone[c.ID] {
			categories = append(categories, c)
		}
	}

	if err := s.clearSnapshotsLocked(ctx, cloneCategories(categories), func(id int64) bool { return gone[id] }); err != nil {
		return nil, err
	}
	s.log.Infow("category deleted", "id", id, "removed", len(removed))
	return removed, nil
}

// DeleteAllCategories removes every category and clears every task's
// category.
func (s *Service) DeleteAllCategories(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearSnapshotsLocked(ctx, []model.Category{}, func(int64) bool { return true })
}

// clearSnapshotsLocked saves categories, then nulls out the category of
// every active or trashed task for which drop returns true.
func (s *Service) clearSnapshotsLocked(ctx context.Context, categories []model.Category, drop func(int64) bool) error {
	if err := s.saveCategoriesLocked(ctx, categories); err != nil {
		return err
	}

	todos := cloneTasks(s.todos)
	if clearCategory(todos, drop) > 0 {
		if err := s.saveTodosLocked(ctx, todos); err != nil {
			return err
		}
	}

	trash := cloneTasks(s.trash)
	if clearCategory(trash, drop) > 0 {
		if err := s.saveTrashLocked(ctx, trash); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) saveCategoriesLocked(ctx context.Context, categories []model.Category) error {
	if err := s.store.SaveCategories(ctx, categories); err != nil {
		s.log.WithError(err).Errorw("saving categories failed")
		return fmt.Errorf("saving categories: %w", err)
	}
	s.categories = categories
	s.emit(events.CategoriesUpdated, nil)
	return nil
}

func findCategory(categories []model.Category, id int64) (model.Category, bool) {
	if i := categoryIndex(categories, id); i >= 0 {
		return categories[i], true
	}
	return model.Category{}, false
}

func categoryIndex(categories []model.Category, id int64) int {
	for i, c := range categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func children(categories []model.Category, parentID int64) []model.Category {
	var out []model.Category
	for _, c := range categories {
		if c.ParentID != nil && *c.ParentID == parentID && c.ID != parentID {
			out = append(out, c)
		}
	}
	return out
}

// descendants walks the tree below id. Already visited ids are skipped so a
// cycle in stored data cannot loop forever.
func descendants(categories []model.Category, id int64) []int64 {
	var out []int64
	seen := map[int64]bool{id: true}
	queue := []int64{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range children(categories, cur) {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c.ID)
			queue = append(queue, c.ID)
		}
	}
	return out
}

// propagateSnapshot rewrites the snapshot of tasks that reference c. It
// returns the number of tasks changed.
func propagateSnapshot(tasks []model.Task, c model.Category) int {
	n := 0
	for i := range tasks {
		ref := tasks[i].Category
		if ref == nil || ref.ID != c.ID {
			continue
		}
		if ref.Name != c.Name || ref.Color != c.Color {
			tasks[i].Category = c.Ref()
			n++
		}
	}
	return n
}

func clearCategory(tasks []model.Task, drop func(int64) bool) int {
	n := 0
	for i := range tasks {
		if id, ok := tasks[i].CategoryID(); ok && drop(id) {
			tasks[i].Category = nil
			n++
		}
	}
	return n
}
