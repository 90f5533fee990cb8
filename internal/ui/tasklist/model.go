package tasklist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todo-board/internal/keys"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/render"
	"github.com/nhle/todo-board/internal/reorder"
	"github.com/nhle/todo-board/internal/theme"
	"github.com/nhle/todo-board/internal/todo"
)

// PrefsLoadedMsg is sent when the persisted view state has been read.
type PrefsLoadedMsg struct {
	Prefs model.Prefs
}

// SelectedTodoMsg is sent when a user opens a task's detail view.
type SelectedTodoMsg struct {
	ID int64
}

// NewTodoMsg asks for the create form. CategoryID preselects the category
// of the bucket under the cursor.
type NewTodoMsg struct {
	CategoryID *int64
}

// EditTodoMsg asks for the edit form of a task.
type EditTodoMsg struct {
	ID int64
}

// MutatedMsg reports the outcome of a store mutation started from the list.
type MutatedMsg struct {
	Status string
	Err    error
}

// filterCycle is the order the filter key steps through.
var filterCycle = []model.Filter{model.FilterAll, model.FilterActive, model.FilterCompleted}

// sortCycle is the order the sort key steps through.
var sortCycle = []model.SortBy{model.SortByName, model.SortByDate, model.SortByPosition}

// chromeLines is the title line plus the status line.
const chromeLines = 2

// Model is the main task list view component.
type Model struct {
	svc    *todo.Service
	keys   *keys.KeyMap
	prefs  model.Prefs
	rows   []render.Row
	cursor int
	offset int

	drag      *reorder.Drag
	dragGroup string
	mouseDrag bool
	moved     bool

	status string
	width  int
	height int
	now    func() time.Time
}

// New creates a new task list model.
func New(svc *todo.Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		svc:    svc,
		keys:   k,
		prefs:  model.DefaultPrefs(),
		width:  width,
		height: height,
		now:    time.Now,
	}
}

// Init returns a command that loads the persisted view state.
func (m Model) Init() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return PrefsLoadedMsg{Prefs: svc.LoadPrefs(context.Background())}
	}
}

// Prefs returns the current view state.
func (m Model) Prefs() model.Prefs {
	return m.prefs
}

// SetPrefs replaces the view state and persists it.
func (m *Model) SetPrefs(p model.Prefs) tea.Cmd {
	m.prefs = p.Normalize()
	return m.savePrefs()
}

// SetStatus replaces the status line until the next mutation.
func (m *Model) SetStatus(s string) {
	m.status = s
}

// Dragging reports whether a row is picked up.
func (m Model) Dragging() bool {
	return m.drag.Active()
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PrefsLoadedMsg:
		m.prefs = msg.Prefs.Normalize()
		m.Refresh()
		return m, nil

	case MutatedMsg:
		if msg.Err != nil {
			m.status = theme.ErrorStyle.Render(msg.Err.Error())
		} else {
			m.status = msg.Status
		}
		m.Refresh()
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.drag.Active() {
			return m.handleDragKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// Refresh rebuilds the rows from the service's current lists, keeping the
// cursor on the same task or header when it is still visible.
func (m *Model) Refresh() {
	selected, hadSelection := m.Selected()
	m.rows = render.Project(m.svc.Todos(), m.svc.Categories(), m.prefs)

	if m.drag.Active() {
		ids := render.ListIDs(m.rows, m.dragGroup)
		if !containsID(ids, m.drag.ID()) {
			m.cancelDrag()
		} else {
			m.drag.Retarget(ids, m.drag.Slot())
		}
	}

	if hadSelection {
		for i, r := range m.rows {
			if sameRow(r, selected) {
				m.cursor = i
				break
			}
		}
	}
	m.clampCursor()
}

// Selected returns the row under the cursor.
func (m Model) Selected() (render.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return render.Row{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	row, hasRow := m.Selected()

	switch {
	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampCursor()

	case key.Matches(msg, m.keys.Up):
		m.cursor--
		m.clampCursor()

	case key.Matches(msg, m.keys.Select):
		if !hasRow {
			return m, nil
		}
		if row.Kind == render.RowHeader {
			return m, m.toggleFold(row.Group)
		}
		id := row.Task.ID
		return m, func() tea.Msg { return SelectedTodoMsg{ID: id} }

	case key.Matches(msg, m.keys.New):
		var catID *int64
		if hasRow {
			if id, ok := model.ParseCategoryKey(row.Group); ok {
				catID = &id
			}
		}
		return m, func() tea.Msg { return NewTodoMsg{CategoryID: catID} }

	case key.Matches(msg, m.keys.Edit):
		if !hasRow || row.Kind != render.RowTask {
			return m, nil
		}
		id := row.Task.ID
		return m, func() tea.Msg { return EditTodoMsg{ID: id} }

	case key.Matches(msg, m.keys.Toggle):
		if !hasRow || row.Kind != render.RowTask {
			return m, nil
		}
		id := row.Task.ID
		return m, m.run(func(ctx context.Context) (string, error) {
			t, err := m.svc.ToggleTodo(ctx, id)
			if err != nil {
				return "", err
			}
			if t.Completed {
				return "Completed: " + t.Text, nil
			}
			return "Reopened: " + t.Text, nil
		})

	case key.Matches(msg, m.keys.Trash):
		if !hasRow || row.Kind != render.RowTask {
			return m, nil
		}
		id, text := row.Task.ID, row.Task.Text
		return m, m.run(func(ctx context.Context) (string, error) {
			return "Moved to trash: " + text, m.svc.TrashTodo(ctx, id)
		})

	case key.Matches(msg, m.keys.ClearCompleted):
		return m, m.run(func(ctx context.Context) (string, error) {
			n, err := m.svc.ClearCompleted(ctx)
			return fmt.Sprintf("Moved %d completed to trash", n), err
		})

	case key.Matches(msg, m.keys.CompleteAll), key.Matches(msg, m.keys.ActivateAll):
		if !hasRow || !m.prefs.GroupByCategory {
			return m, nil
		}
		done := key.Matches(msg, m.keys.CompleteAll)
		group, label := row.Group, m.headerLabel(row.Group)
		return m, m.run(func(ctx context.Context) (string, error) {
			n, err := m.svc.SetCategoryCompleted(ctx, group, done)
			verb := "Reopened"
			if done {
				verb = "Completed"
			}
			return fmt.Sprintf("%s %d in %s", verb, n, label), err
		})

	case key.Matches(msg, m.keys.Move):
		if !hasRow || row.Kind != render.RowTask {
			return m, nil
		}
		m.startDrag(row)

	case key.Matches(msg, m.keys.Fold):
		if !hasRow || !m.prefs.GroupByCategory {
			return m, nil
		}
		return m, m.toggleFold(row.Group)

	case key.Matches(msg, m.keys.Group):
		m.prefs.GroupByCategory = !m.prefs.GroupByCategory
		return m, m.savePrefs()

	case key.Matches(msg, m.keys.Filter):
		m.prefs.Filter = filterCycle[(indexOf(filterCycle, m.prefs.Filter)+1)%len(filterCycle)]
		return m, m.savePrefs()

	case key.Matches(msg, m.keys.CycleSort):
		m.prefs.SortBy = sortCycle[(indexOf(sortCycle, m.prefs.SortBy)+1)%len(sortCycle)]
		return m, m.savePrefs()

	case key.Matches(msg, m.keys.SortDirection):
		if m.prefs.SortDirection == model.SortAsc {
			m.prefs.SortDirection = model.SortDesc
		} else {
			m.prefs.SortDirection = model.SortAsc
		}
		return m, m.savePrefs()

	case key.Matches(msg, m.keys.SortTarget):
		if m.prefs.SortTarget == model.SortTargetTasks {
			m.prefs.SortTarget = model.SortTargetCategories
		} else {
			m.prefs.SortTarget = model.SortTargetTasks
		}
		return m, m.savePrefs()
	}

	return m, nil
}

// handleDragKeys moves the placeholder with up/down; enter drops and esc
// puts the row back.
func (m Model) handleDragKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.drag.Nudge(-1)
		m.followPlaceholder()
	case key.Matches(msg, m.keys.Down):
		m.drag.Nudge(1)
		m.followPlaceholder()
	case key.Matches(msg, m.keys.Drop):
		return m, m.commitDrag()
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Move):
		m.cancelDrag()
		m.status = "Move cancelled"
	}
	return m, nil
}

// handleMouse implements press, motion and release dragging. Y is relative
// to the top of this component.
func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionMotion {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.cursor--
			m.clampCursor()
		case tea.MouseButtonWheelDown:
			m.cursor++
			m.clampCursor()
		}
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		i, ok := m.rowAt(msg.Y)
		if !ok {
			return m, nil
		}
		m.cursor = i
		if m.rows[i].Kind == render.RowTask && !m.drag.Active() {
			m.startDrag(m.rows[i])
			m.mouseDrag = true
			m.moved = false
		}

	case tea.MouseActionMotion:
		if !m.drag.Active() || !m.mouseDrag {
			return m, nil
		}
		if msg.Y < 1 || msg.Y > m.visibleRows() {
			m.cancelDrag()
			m.status = ""
			return m, nil
		}
		before := m.drag.Slot()
		m.drag.Hover(float64(msg.Y), m.midpoints())
		if m.drag.Slot() != before {
			m.moved = true
		}
		m.followPlaceholder()

	case tea.MouseActionRelease:
		if !m.drag.Active() || !m.mouseDrag {
			return m, nil
		}
		if !m.moved {
			m.cancelDrag()
			m.status = ""
			return m, nil
		}
		return m, m.commitDrag()
	}
	return m, nil
}

func (m *Model) startDrag(row render.Row) {
	m.dragGroup = row.Group
	m.drag = reorder.Start(row.Task.ID, render.ListIDs(m.rows, row.Group))
	m.status = "Moving: " + row.Task.Text + "  (↑/↓ to move, enter to drop, esc to cancel)"
}

func (m *Model) cancelDrag() {
	m.drag.Cancel()
	m.drag = nil
	m.dragGroup = ""
	m.mouseDrag = false
	m.moved = false
}

// commitDrag hands the gesture to the service and clears local drag state.
func (m *Model) commitDrag() tea.Cmd {
	drag := m.drag
	m.drag = nil
	m.dragGroup = ""
	m.mouseDrag = false
	m.moved = false

	svc := m.svc
	return m.run(func(ctx context.Context) (string, error) {
		return "Moved", svc.Move(ctx, drag)
	})
}

// midpoints returns the vertical midpoints of the dragged row's siblings as
// currently displayed, in component coordinates.
func (m Model) midpoints() []float64 {
	var mids []float64
	for i, l := range m.lines() {
		if l.placeholder || l.row.Kind != render.RowTask || l.row.Group != m.dragGroup {
			continue
		}
		mids = append(mids, float64(i-m.offset+1)+0.5)
	}
	return mids
}

// lines returns the rows to draw, with the dragged group's task rows
// rearranged around the placeholder.
func (m Model) lines() []line {
	out := make([]line, len(m.rows))
	for i, r := range m.rows {
		out[i] = line{row: r}
	}
	if !m.drag.Active() {
		return out
	}

	byID := make(map[int64]render.Row)
	for _, r := range m.rows {
		if r.Kind == render.RowTask && r.Group == m.dragGroup {
			byID[r.Task.ID] = r
		}
	}
	dragged, ok := byID[m.drag.ID()]
	if !ok {
		return out
	}

	order := m.drag.Placeholder()
	k := 0
	for i, r := range m.rows {
		if r.Kind != render.RowTask || r.Group != m.dragGroup || k >= len(order) {
			continue
		}
		if id := order[k]; id == 0 {
			out[i] = line{row: dragged, placeholder: true}
		} else {
			out[i] = line{row: byID[id]}
		}
		k++
	}
	return out
}

func (m *Model) followPlaceholder() {
	for i, l := range m.lines() {
		if l.placeholder {
			m.cursor = i
			break
		}
	}
	m.clampCursor()
}

// rowAt maps a component-relative y to a row index.
func (m Model) rowAt(y int) (int, bool) {
	if y < 1 || y > m.visibleRows() {
		return 0, false
	}
	i := y - 1 + m.offset
	if i < 0 || i >= len(m.rows) {
		return 0, false
	}
	return i, true
}

func (m *Model) toggleFold(group string) tea.Cmd {
	m.prefs = m.prefs.ToggleFold(group)
	return m.savePrefs()
}

// savePrefs re-projects immediately and persists the view state.
func (m *Model) savePrefs() tea.Cmd {
	m.Refresh()
	prefs := m.prefs
	svc := m.svc
	return func() tea.Msg {
		if err := svc.SavePrefs(context.Background(), prefs); err != nil {
			return MutatedMsg{Err: err}
		}
		return nil
	}
}

// run performs op off the update loop and reports it as a MutatedMsg.
func (m Model) run(op func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		status, err := op(context.Background())
		return MutatedMsg{Status: status, Err: err}
	}
}

func (m Model) headerLabel(group string) string {
	for _, r := range m.rows {
		if r.Kind == render.RowHeader && r.Group == group {
			return r.Label
		}
	}
	return render.UncategorizedLabel
}

func (m Model) visibleRows() int {
	n := m.height - chromeLines
	if n < 1 {
		return 1
	}
	return n
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// View renders the task list view.
func (m Model) View() string {
	title := theme.HeaderStyle.Render("Todos") + " " + theme.HelpStyle.Render(m.summary())

	var body string
	if len(m.rows) == 0 {
		body = m.renderEmptyState()
	} else {
		var b strings.Builder
		lines := m.lines()
		end := min(m.offset+m.visibleRows(), len(lines))
		now := m.now()
		for i := m.offset; i < end; i++ {
			b.WriteString(renderLine(lines[i], i == m.cursor, m.width, now))
			if i < end-1 {
				b.WriteString("\n")
			}
		}
		body = lipgloss.NewStyle().Height(m.visibleRows()).Render(b.String())
	}

	status := m.status
	if status == "" {
		total, active, completed := render.Counts(m.svc.Todos())
		status = fmt.Sprintf("%d items left · %d total · %d completed", active, total, completed)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, body, theme.HelpStyle.Render(status))
}

func (m Model) summary() string {
	parts := []string{
		string(m.prefs.Filter),
		fmt.Sprintf("%s %s", m.prefs.SortBy, arrowFor(m.prefs.SortDirection)),
		"sorting " + string(m.prefs.SortTarget),
	}
	if m.prefs.GroupByCategory {
		parts = append(parts, "grouped")
	}
	return strings.Join(parts, " · ")
}

// renderEmptyState shows guidance text when no rows are visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.visibleRows()).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if len(m.svc.Todos()) > 0 {
		return style.Render("No matching tasks.\nPress f to change the filter.")
	}
	return style.Render("No tasks yet.\n\nPress n to add one.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.clampCursor()
}

func arrowFor(dir model.SortDirection) string {
	if dir == model.SortDesc {
		return "↓"
	}
	return "↑"
}

func sameRow(a, b render.Row) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == render.RowHeader {
		return a.Group == b.Group
	}
	return a.Task.ID == b.Task.ID
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func indexOf[T comparable](list []T, v T) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
