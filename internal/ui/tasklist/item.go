package tasklist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/render"
	"github.com/nhle/todo-board/internal/theme"
)

// dateLayout is the format of due dates.
const dateLayout = "2006-01-02"

// line is one rendered row of the list. Placeholder marks the slot the
// dragged task would land in.
type line struct {
	row         render.Row
	placeholder bool
}

// renderLine renders a single row. selected draws the cursor marker.
func renderLine(l line, selected bool, width int, now time.Time) string {
	indent := strings.Repeat("  ", l.row.Depth)

	var body string
	switch {
	case l.placeholder:
		body = theme.PlaceholderStyle.Render(fmt.Sprintf("%s┄ %s ┄", indent, l.row.Label))
	case l.row.Kind == render.RowHeader:
		body = indent + renderHeader(l.row)
	default:
		body = indent + renderTask(l.row.Task, now)
	}

	if width > 0 {
		body = lipgloss.NewStyle().MaxWidth(width - 2).Render(body)
	}
	if selected {
		return theme.SelectedItemStyle.Render(body)
	}
	return theme.ListItemStyle.Render(body)
}

func renderHeader(r render.Row) string {
	arrow := "▾"
	if r.Folded {
		arrow = "▸"
	}
	label := theme.CategoryHeaderStyle(r.Color).Render(r.Label)
	count := theme.DimmedStyle.Render(fmt.Sprintf("%d/%d", r.Done, r.Count))
	return fmt.Sprintf("%s %s %s", arrow, label, count)
}

func renderTask(t *model.Task, now time.Time) string {
	check := "[ ]"
	text := t.Text
	if t.Completed {
		check = "[x]"
		text = theme.DoneStyle.Render(text)
	}

	parts := []string{check, text}
	if t.Category != nil {
		parts = append(parts, theme.CategoryStyle(t.Category.Color).Render(t.Category.Name))
	}
	if due := dueLabel(t, now); due != "" {
		parts = append(parts, due)
	}
	if t.CalendarDay != nil {
		parts = append(parts, theme.DimmedStyle.Render("@"+model.DayLabel(t.CalendarDay)))
	}
	return strings.Join(parts, " ")
}

// dueLabel renders the due date, flagged when it has passed on an open task.
func dueLabel(t *model.Task, now time.Time) string {
	if t.DueDate == nil || *t.DueDate == "" {
		return ""
	}
	if IsOverdue(t, now) {
		return theme.OverdueStyle.Render("due " + *t.DueDate + " (overdue)")
	}
	return theme.DueDateStyle.Render("due " + *t.DueDate)
}

// IsOverdue reports whether an open task's due date lies before today.
func IsOverdue(t *model.Task, now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	due, err := time.ParseInLocation(dateLayout, *t.DueDate, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return due.Before(today)
}
