package model

import (
	"strings"
	"time"
)

// DueDateLayout is the format of Task.DueDate.
const DueDateLayout = "2006-01-02"

// isoLayout matches the ISO strings written by the desktop host so that
// lexicographic comparison of created_at values stays chronological.
const isoLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t as a UTC ISO timestamp with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// ParseTime parses an ISO timestamp written by FormatTime or any RFC 3339 writer.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(isoLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// CategoryRef is the denormalized category snapshot embedded in a task.
// It is copied from a Category when the task is assigned, not looked up.
type CategoryRef struct {
	ID    int64  `json:"id" validate:"gt=0"`
	Name  string `json:"name"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// Task is a single to-do entry. Trash records share the same shape with
// TrashedAt set.
type Task struct {
	// ID is the creation timestamp in milliseconds and never changes.
	ID int64 `json:"id" validate:"gt=0"`

	Text      string `json:"text" validate:"required"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"created_at"`

	// DueDate is an optional YYYY-MM-DD date.
	DueDate *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`

	Category *CategoryRef `json:"category"`

	// Position matches the task's index in the full list at save time.
	Position int `json:"position" validate:"gte=0"`

	// CalendarDay is only used by the calendar board; nil means unassigned.
	CalendarDay *Day `json:"calendarDay,omitempty" validate:"omitempty,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`

	TrashedAt *string `json:"trashedAt,omitempty"`
}

// Clone returns a deep copy of t so callers can mutate it freely.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.Category != nil {
		ref := *t.Category
		c.Category = &ref
	}
	if t.CalendarDay != nil {
		day := *t.CalendarDay
		c.CalendarDay = &day
	}
	if t.TrashedAt != nil {
		ts := *t.TrashedAt
		c.TrashedAt = &ts
	}
	return c
}

// CategoryID returns the id of the snapshot category, if any.
func (t Task) CategoryID() (int64, bool) {
	if t.Category == nil {
		return 0, false
	}
	return t.Category.ID, true
}

// GroupKey returns the bucket key used when grouping by category.
func (t Task) GroupKey() string {
	if t.Category == nil {
		return UncategorizedKey
	}
	return CategoryKey(t.Category.ID)
}

// Due returns the due date string or "" when unset.
func (t Task) Due() string {
	if t.DueDate == nil {
		return ""
	}
	return *t.DueDate
}

// IsOverdue reports whether an active task is past its due date.
func (t Task) IsOverdue(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	due, err := time.ParseInLocation(DueDateLayout, *t.DueDate, now.Location())
	if err != nil {
		return false
	}
	y, m, d := now.Date()
	return due.Before(time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
}

// ValidDueDate reports whether s is empty or a YYYY-MM-DD calendar date.
func ValidDueDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(DueDateLayout, s)
	return err == nil
}

// NormalizeText trims surrounding whitespace from user-entered task text.
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
