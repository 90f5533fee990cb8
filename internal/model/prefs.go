package model

import (
	"slices"
	"sort"
)

// Keys used by the key-value fallback store.
const (
	KeyTodos            = "todos"
	KeyCategories       = "categories"
	KeyTrash            = "trash"
	KeyFoldedCategories = "foldedCategories"
	KeyGroupByCategory  = "isGroupedByCategory"
	KeySortBy           = "sortBy"
	KeySortDirection    = "sortDirection"
	KeySortTarget       = "sortTarget"
	KeyFilter           = "filter"
)

// Filter selects tasks by completion state.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// SortBy selects the sort key.
type SortBy string

const (
	SortByName SortBy = "name"
	SortByDate SortBy = "date"
	// SortByPosition keeps the manual drag order.
	SortByPosition SortBy = "position"
)

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortTarget says whether the sort applies to tasks or category headers.
type SortTarget string

const (
	SortTargetTasks      SortTarget = "tasks"
	SortTargetCategories SortTarget = "categories"
)

// Prefs holds list view state persisted next to the data.
type Prefs struct {
	Filter           Filter        `json:"filter" validate:"omitempty,oneof=all active completed"`
	SortBy           SortBy        `json:"sortBy" validate:"omitempty,oneof=name date position"`
	SortDirection    SortDirection `json:"sortDirection" validate:"omitempty,oneof=asc desc"`
	SortTarget       SortTarget    `json:"sortTarget" validate:"omitempty,oneof=tasks categories"`
	GroupByCategory  bool          `json:"isGroupedByCategory"`
	FoldedCategories []string      `json:"foldedCategories"`
}

// DefaultPrefs returns the initial view state.
func DefaultPrefs() Prefs {
	return Prefs{
		Filter:        FilterAll,
		SortBy:        SortByName,
		SortDirection: SortAsc,
		SortTarget:    SortTargetTasks,
	}
}

// Normalize replaces unknown values with defaults.
func (p Prefs) Normalize() Prefs {
	d := DefaultPrefs()
	switch p.Filter {
	case FilterAll, FilterActive, FilterCompleted:
	default:
		p.Filter = d.Filter
	}
	switch p.SortBy {
	case SortByName, SortByDate, SortByPosition:
	default:
		p.SortBy = d.SortBy
	}
	switch p.SortDirection {
	case SortAsc, SortDesc:
	default:
		p.SortDirection = d.SortDirection
	}
	switch p.SortTarget {
	case SortTargetTasks, SortTargetCategories:
	default:
		p.SortTarget = d.SortTarget
	}
	return p
}

// IsFolded reports whether the bucket with key is collapsed.
func (p Prefs) IsFolded(key string) bool {
	return slices.Contains(p.FoldedCategories, key)
}

// ToggleFold flips the fold state of key and returns the updated prefs.
func (p Prefs) ToggleFold(key string) Prefs {
	folded := make([]string, 0, len(p.FoldedCategories)+1)
	found := false
	for _, k := range p.FoldedCategories {
		if k == key {
			found = true
			continue
		}
		folded = append(folded, k)
	}
	if !found {
		folded = append(folded, key)
	}
	sort.Strings(folded)
	p.FoldedCategories = folded
	return p
}
