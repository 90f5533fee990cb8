package calendarview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todo-board/internal/calendar"
	"github.com/nhle/todo-board/internal/keys"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/reorder"
	"github.com/nhle/todo-board/internal/theme"
)

// CalendarCloseMsg signals the parent to close the calendar view.
type CalendarCloseMsg struct{}

type boardLoadedMsg struct{ err error }

type boardSavedMsg struct {
	res calendar.SaveResult
	err error
}

// itemTop is the line of the first task inside a column: title line, top
// border, column header.
const itemTop = 3

// cell is one entry drawn in a column.
type cell struct {
	task        model.Task
	placeholder bool
}

// Model is the calendar board screen.
type Model struct {
	board *calendar.Board
	keys  *keys.KeyMap
	cols  []model.Day
	col   int
	row   int

	drag      *reorder.Drag
	dragCol   int
	mouseDrag bool
	moved     bool

	status string
	failed bool
	width  int
	height int
}

// New creates the calendar screen over board.
func New(board *calendar.Board, k *keys.KeyMap, width, height int) Model {
	return Model{
		board:  board,
		keys:   k,
		cols:   board.Columns(),
		width:  width,
		height: height,
	}
}

// Init loads the board.
func (m Model) Init() tea.Cmd {
	return m.Reload()
}

// Reload re-reads the task list. Unsaved assignments survive.
func (m Model) Reload() tea.Cmd {
	b := m.board
	return func() tea.Msg {
		return boardLoadedMsg{err: b.Load(context.Background())}
	}
}

// Dragging reports whether a task is picked up.
func (m Model) Dragging() bool {
	return m.drag.Active()
}

// Update handles messages for the calendar view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardLoadedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Error: %v", msg.err), true)
		}
		if m.drag.Active() && !m.onBoard(m.drag.ID()) {
			m.cancelDrag()
		}
		m.clampRow()
		return m, nil

	case boardSavedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Error: %v", msg.err), true)
			return m, nil
		}
		m.setStatus(saveSummary(msg.res), len(msg.res.Conflicts) > 0 || len(msg.res.Missing) > 0)
		m.clampRow()
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.drag.Active() {
			return m.handleDragKeys(msg)
		}
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CalendarCloseMsg{} }

	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
		}
		m.clampRow()

	case key.Matches(msg, m.keys.Right):
		if m.col < len(m.cols)-1 {
			m.col++
		}
		m.clampRow()

	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}

	case key.Matches(msg, m.keys.Down):
		m.row++
		m.clampRow()

	case key.Matches(msg, m.keys.MovePrev), key.Matches(msg, m.keys.MoveNext):
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		next := m.col - 1
		if key.Matches(msg, m.keys.MoveNext) {
			next = m.col + 1
		}
		if next < 0 || next >= len(m.cols) {
			return m, nil
		}
		if err := m.board.Assign(t.ID, m.cols[next]); err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.col = next
		m.row = len(m.board.Column(m.cols[next])) - 1
		m.setStatus(fmt.Sprintf("%s → %s (unsaved)", t.Text, columnTitle(m.cols[next])), false)

	case key.Matches(msg, m.keys.Move):
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		m.startDrag(t.ID, m.col)

	case key.Matches(msg, m.keys.Save):
		return m, m.save()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Reload()
	}
	return m, nil
}

// handleDragKeys moves the placeholder: up/down inside a column, left/right
// across columns.
func (m Model) handleDragKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.drag.Nudge(-1)
	case key.Matches(msg, m.keys.Down):
		m.drag.Nudge(1)
	case key.Matches(msg, m.keys.Left):
		m.retarget(m.dragCol - 1)
	case key.Matches(msg, m.keys.Right):
		m.retarget(m.dragCol + 1)
	case key.Matches(msg, m.keys.Drop):
		m.commitDrag()
		return m, nil
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Move):
		m.cancelDrag()
		m.setStatus("Move cancelled", false)
		return m, nil
	}
	m.col, m.row = m.dragCol, m.drag.Slot()
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	ci := m.columnAt(msg.X)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || ci < 0 {
			return m, nil
		}
		cells := m.cells(ci)
		k := msg.Y - itemTop
		if k < 0 || k >= len(cells) {
			return m, nil
		}
		m.col, m.row = ci, k
		m.startDrag(cells[k].task.ID, ci)
		m.mouseDrag = true
		m.moved = false

	case tea.MouseActionMotion:
		if !m.drag.Active() || !m.mouseDrag {
			return m, nil
		}
		if ci < 0 || msg.Y < itemTop-1 || msg.Y >= m.height {
			m.cancelDrag()
			m.status = ""
			return m, nil
		}
		if ci != m.dragCol {
			m.retarget(ci)
			m.moved = true
		}
		before := m.drag.Slot()
		m.drag.Hover(float64(msg.Y), m.midpoints())
		if m.drag.Slot() != before {
			m.moved = true
		}
		m.col, m.row = m.dragCol, m.drag.Slot()

	case tea.MouseActionRelease:
		if !m.drag.Active() || !m.mouseDrag {
			return m, nil
		}
		if !m.moved {
			m.cancelDrag()
			m.status = ""
			return m, nil
		}
		m.commitDrag()
	}
	return m, nil
}

func (m *Model) startDrag(id int64, col int) {
	m.dragCol = col
	m.drag = reorder.Start(id, m.board.ColumnIDs(m.cols[col]))
	m.setStatus("Moving  (←/→ day, ↑/↓ slot, enter to drop, esc to cancel)", false)
}

func (m *Model) retarget(col int) {
	if col < 0 || col >= len(m.cols) {
		return
	}
	m.dragCol = col
	m.drag.Retarget(m.board.ColumnIDs(m.cols[col]), m.drag.Slot())
}

func (m *Model) commitDrag() {
	day := m.cols[m.dragCol]
	id := m.drag.ID()
	if err := m.board.Drop(m.drag, day); err != nil {
		m.setStatus(err.Error(), true)
	} else {
		m.setStatus(fmt.Sprintf("Moved to %s (unsaved)", columnTitle(day)), false)
	}
	m.drag = nil
	m.mouseDrag = false
	m.moved = false

	m.col = m.dragCol
	for i, t := range m.board.Column(day) {
		if t.ID == id {
			m.row = i
		}
	}
}

func (m *Model) cancelDrag() {
	m.drag.Cancel()
	m.drag = nil
	m.mouseDrag = false
	m.moved = false
}

// cells returns what column ci draws: the dragged task is lifted out of its
// own column and shown as a placeholder in the target column.
func (m Model) cells(ci int) []cell {
	tasks := m.board.Column(m.cols[ci])
	if !m.drag.Active() {
		out := make([]cell, len(tasks))
		for i, t := range tasks {
			out[i] = cell{task: t}
		}
		return out
	}

	byID := make(map[int64]model.Task)
	for _, t := range m.board.Tasks() {
		byID[t.ID] = t
	}

	if ci != m.dragCol {
		var out []cell
		for _, t := range tasks {
			if t.ID != m.drag.ID() {
				out = append(out, cell{task: t})
			}
		}
		return out
	}

	order := m.drag.Placeholder()
	out := make([]cell, 0, len(order))
	for _, id := range order {
		if id == 0 {
			out = append(out, cell{task: byID[m.drag.ID()], placeholder: true})
			continue
		}
		out = append(out, cell{task: byID[id]})
	}
	return out
}

// midpoints returns the siblings' vertical midpoints in the drag column.
func (m Model) midpoints() []float64 {
	var mids []float64
	for i, c := range m.cells(m.dragCol) {
		if c.placeholder {
			continue
		}
		mids = append(mids, float64(itemTop+i)+0.5)
	}
	return mids
}

func (m Model) current() (model.Task, bool) {
	tasks := m.board.Column(m.cols[m.col])
	if m.row < 0 || m.row >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.row], true
}

func (m Model) onBoard(id int64) bool {
	for _, t := range m.board.Tasks() {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (m *Model) clampRow() {
	n := len(m.board.Column(m.cols[m.col]))
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func (m *Model) setStatus(s string, failed bool) {
	m.status = s
	m.failed = failed
}

func (m Model) columnWidth() int {
	w := m.width / len(m.cols)
	if w < 12 {
		w = 12
	}
	return w
}

// columnAt maps an x coordinate to a column index, or -1.
func (m Model) columnAt(x int) int {
	ci := x / m.columnWidth()
	if x < 0 || ci >= len(m.cols) {
		return -1
	}
	return ci
}

func (m Model) save() tea.Cmd {
	b := m.board
	return func() tea.Msg {
		res, err := b.Save(context.Background())
		return boardSavedMsg{res: res, err: err}
	}
}

// View renders the eight columns side by side.
func (m Model) View() string {
	title := theme.HeaderStyle.Render("Calendar")
	if n := len(m.board.Dirty()); n > 0 {
		title += " " + theme.DueDateStyle.Render(fmt.Sprintf("%d unsaved", n))
	}

	w := m.columnWidth()
	colHeight := m.height - 3
	if colHeight < 3 {
		colHeight = 3
	}

	columns := make([]string, len(m.cols))
	for ci, day := range m.cols {
		cells := m.cells(ci)

		var b strings.Builder
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%s (%d)", columnTitle(day), len(cells))))
		for i, c := range cells {
			b.WriteString("\n")
			text := lipgloss.NewStyle().MaxWidth(w - 4).Render(c.task.Text)
			switch {
			case c.placeholder:
				b.WriteString(theme.PlaceholderStyle.Render("┄ " + text))
			case ci == m.col && i == m.row && !m.drag.Active():
				b.WriteString(theme.SelectedItemStyle.UnsetPaddingLeft().Render(text))
			case c.task.Completed:
				b.WriteString(theme.DoneStyle.Render(text))
			default:
				b.WriteString(text)
			}
		}

		style := theme.ColumnStyle
		if ci == m.col {
			style = theme.ActiveColumnStyle
		}
		columns[ci] = style.Width(w - 2).Height(colHeight).Render(b.String())
	}

	status := m.status
	if status == "" {
		status = "m move | < > assign | ctrl+s save | r reload | esc back"
	}
	statusStyle := theme.HelpStyle
	if m.failed {
		statusStyle = theme.ErrorStyle
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		statusStyle.Render(status),
	)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func columnTitle(d model.Day) string {
	if d == calendar.Unassigned {
		return "Unassigned"
	}
	return string(d)
}

// saveSummary describes a save, naming every conflict.
func saveSummary(res calendar.SaveResult) string {
	parts := []string{fmt.Sprintf("Saved %d assignments", len(res.Updated))}
	if n := len(res.Conflicts); n > 0 {
		names := make([]string, 0, n)
		for _, c := range res.Conflicts {
			names = append(names, fmt.Sprintf("%q (now %s)", c.Text, model.DayLabel(c.Theirs)))
		}
		parts = append(parts, fmt.Sprintf("%d changed elsewhere and were kept: %s", n, strings.Join(names, ", ")))
	}
	if n := len(res.Missing); n > 0 {
		parts = append(parts, fmt.Sprintf("%d no longer exist", n))
	}
	return strings.Join(parts, "; ")
}
