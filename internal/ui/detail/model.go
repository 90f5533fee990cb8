package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"

	"github.com/nhle/todo-board/internal/keys"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ActionMsg signals the parent to execute an action on the current task.
type ActionMsg struct {
	Action string
	TaskID int64
}

// Actions carried by ActionMsg.
const (
	ActionEdit   = "edit"
	ActionToggle = "toggle"
	ActionTrash  = "trash"
)

// Model is the task detail view component.
type Model struct {
	task       *model.Task
	categories []model.Category
	viewport   viewport.Model
	keys       *keys.KeyMap
	width      int
	height     int
	now        func() time.Time
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
		now:      time.Now,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Edit):
			return m, m.action(ActionEdit)

		case key.Matches(msg, m.keys.Toggle):
			return m, m.action(ActionToggle)

		case key.Matches(msg, m.keys.Trash):
			return m, m.action(ActionTrash)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(name string) tea.Cmd {
	if m.task == nil {
		return nil
	}
	id := m.task.ID
	return func() tea.Msg {
		return ActionMsg{Action: name, TaskID: id}
	}
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No task selected")
	}

	return m.viewport.View()
}

// TaskID returns the id of the task on screen, or 0.
func (m Model) TaskID() int64 {
	if m.task == nil {
		return 0
	}
	return m.task.ID
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	task := m.task
	now := m.now()
	var sections []string

	// Text, wrapped to the panel width
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(wordwrap.String(task.Text, max(m.width-4, 20))))

	// Badges line: state + category
	state := theme.StatusStyle("idle").Render("OPEN")
	if task.Completed {
		state = theme.StatusStyle("streaming").Render("DONE")
	}
	badges := []string{state}
	if task.Category != nil {
		badges = append(badges, "  ", theme.CategoryStyle(task.Category.Color).Render(m.categoryPath()))
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, badges...))
	sections = append(sections, "")

	// Metadata table
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-10s", label+":")), value)
	}

	if task.DueDate != nil {
		due := valStyle.Render(*task.DueDate)
		if overdue(task, now) {
			due = theme.OverdueStyle.Render(*task.DueDate + " (overdue)")
		}
		sections = append(sections, row("Due", due))
	}
	sections = append(sections, row("Calendar", valStyle.Render(model.DayLabel(task.CalendarDay))))
	if created, err := model.ParseTime(task.CreatedAt); err == nil {
		sections = append(sections, row("Created", valStyle.Render(fmt.Sprintf(
			"%s (%s)",
			created.Local().Format("2006-01-02 15:04"),
			humanize.RelTime(created, now, "ago", "from now"),
		))))
	}
	sections = append(sections, row("Position", valStyle.Render(fmt.Sprintf("%d", task.Position))))
	sections = append(sections, row("ID", valStyle.Render(fmt.Sprintf("%d", task.ID))))

	// Separator
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	sections = append(sections, "")
	sections = append(sections, sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0))))
	sections = append(sections, metaStyle.Render("e edit | x toggle | d trash | esc back"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// categoryPath renders the task's category with its ancestors, root first.
// The snapshot name is used when the category no longer exists.
func (m Model) categoryPath() string {
	ref := m.task.Category
	byID := make(map[int64]model.Category, len(m.categories))
	for _, c := range m.categories {
		byID[c.ID] = c
	}

	c, ok := byID[ref.ID]
	if !ok {
		return ref.Name
	}
	path := []string{c.Name}
	seen := map[int64]bool{c.ID: true}
	for c.ParentID != nil {
		parent, ok := byID[*c.ParentID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		path = append([]string{parent.Name}, path...)
		c = parent
	}
	return strings.Join(path, " › ")
}

// SetTask updates the task being displayed and re-renders the content.
func (m *Model) SetTask(task model.Task, categories []model.Category) {
	m.task = &task
	m.categories = categories
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Clear removes the task, e.g. after it was trashed elsewhere.
func (m *Model) Clear() {
	m.task = nil
	m.viewport.SetContent("")
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.task != nil {
		m.viewport.SetContent(m.renderContent())
	}
}

func overdue(t *model.Task, now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	due, err := time.ParseInLocation("2006-01-02", *t.DueDate, now.Location())
	if err != nil {
		return false
	}
	return due.Before(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()))
}
