package trash

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/todo-board/internal/keys"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/render"
	"github.com/nhle/todo-board/internal/theme"
	"github.com/nhle/todo-board/internal/todo"
)

// TrashCloseMsg signals the parent to close the trash view.
type TrashCloseMsg struct{}

type trashMode int

const (
	modeList trashMode = iota
	modeConfirmPurge
	modeConfirmEmpty
)

type formBindings struct {
	confirm bool
}

// bulkDoneMsg carries the outcome of a restore/purge/empty.
type bulkDoneMsg struct {
	summary string
	failed  bool
}

// Model is the Bubble Tea model for the trash bin.
type Model struct {
	mode        trashMode
	svc         *todo.Service
	keys        *keys.KeyMap
	items       []model.Task
	marked      map[int64]bool
	selectedIdx int
	sortBy      model.SortBy
	sortDir     model.SortDirection
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	failed      bool
	width       int
	height      int
	now         func() time.Time
}

// New creates a new trash bin model, newest first.
func New(svc *todo.Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:    modeList,
		svc:     svc,
		keys:    k,
		marked:  make(map[int64]bool),
		sortBy:  model.SortByDate,
		sortDir: model.SortDesc,
		fb:      &formBindings{},
		width:   width, height: height,
		now: time.Now,
	}
}

// Refresh re-reads the trash list, dropping marks on records that are gone.
func (m *Model) Refresh() {
	m.items = m.svc.Trash()
	render.SortTrash(m.items, m.sortBy, m.sortDir)

	present := make(map[int64]bool, len(m.items))
	for _, it := range m.items {
		present[it.ID] = true
	}
	for id := range m.marked {
		if !present[id] {
			delete(m.marked, id)
		}
	}
	if m.selectedIdx >= len(m.items) {
		m.selectedIdx = max(len(m.items)-1, 0)
	}
}

// Editing reports whether a confirmation is open.
func (m Model) Editing() bool {
	return m.mode != modeList
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case bulkDoneMsg:
		m.statusMsg = msg.summary
		m.failed = msg.failed
		m.mode = modeList
		m.Refresh()
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeList {
			return m.handleListKey(msg)
		}
	}

	if m.mode != modeList {
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return TrashCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.items) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.items)
		}

	case key.Matches(msg, m.keys.Up):
		if len(m.items) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.items) - 1
			}
		}

	case key.Matches(msg, m.keys.Mark):
		if it, ok := m.current(); ok {
			m.marked[it.ID] = !m.marked[it.ID]
			if !m.marked[it.ID] {
				delete(m.marked, it.ID)
			}
		}

	case key.Matches(msg, m.keys.MarkAll):
		if len(m.marked) == len(m.items) {
			m.marked = make(map[int64]bool)
		} else {
			for _, it := range m.items {
				m.marked[it.ID] = true
			}
		}

	case key.Matches(msg, m.keys.CycleSort):
		if m.sortBy == model.SortByDate {
			m.sortBy = model.SortByName
		} else {
			m.sortBy = model.SortByDate
		}
		m.Refresh()

	case key.Matches(msg, m.keys.SortDirection):
		if m.sortDir == model.SortAsc {
			m.sortDir = model.SortDesc
		} else {
			m.sortDir = model.SortAsc
		}
		m.Refresh()

	case key.Matches(msg, m.keys.Restore):
		ids := m.targets()
		if len(ids) == 0 {
			return m, nil
		}
		return m, m.restore(ids)

	case key.Matches(msg, m.keys.Purge):
		if len(m.targets()) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm(
			fmt.Sprintf("Delete %d items forever?", len(m.targets())),
			"This cannot be undone.",
		)
		m.mode = modeConfirmPurge
		return m, m.confirmForm.Init()

	case key.Matches(msg, m.keys.EmptyTrash):
		if len(m.items) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm(
			"Empty the trash?",
			fmt.Sprintf("All %d items will be deleted forever.", len(m.items)),
		)
		m.mode = modeConfirmEmpty
		return m, m.confirmForm.Init()
	}
	return m, nil
}

// targets returns the marked ids in display order, or the record under the
// cursor when nothing is marked.
func (m Model) targets() []int64 {
	var ids []int64
	for _, it := range m.items {
		if m.marked[it.ID] {
			ids = append(ids, it.ID)
		}
	}
	if len(ids) == 0 {
		if it, ok := m.current(); ok {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

func (m Model) current() (model.Task, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.items) {
		return model.Task{}, false
	}
	return m.items[m.selectedIdx], true
}

func (m Model) buildConfirmForm(title, desc string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(desc).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		m.mode = modeList
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if !m.fb.confirm {
			m.mode = modeList
			return m, nil
		}
		if m.mode == modeConfirmEmpty {
			return m, m.empty()
		}
		return m, m.purge(m.targets())
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the trash bin.
func (m Model) View() string {
	if m.mode != modeList && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render(fmt.Sprintf("Trash (%d)", len(m.items))))
	b.WriteString(" ")
	b.WriteString(theme.HelpStyle.Render(fmt.Sprintf("sorted by %s %s", sortLabel(m.sortBy), m.sortDir)))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("Trash is empty."))
	} else {
		now := m.now()
		for i, it := range m.items {
			box := "[ ]"
			if m.marked[it.ID] {
				box = "[x]"
			}
			label := fmt.Sprintf("%s %s  %s", box, it.Text, theme.DimmedStyle.Render(trashedAge(it, now)))
			if it.Category != nil {
				label += " " + theme.CategoryStyle(it.Category.Color).Render(it.Category.Name)
			}
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		style := lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true)
		if m.failed {
			style = theme.ErrorStyle
		}
		b.WriteString(style.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"space select | a select all | u restore | D delete forever | E empty | s sort | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func (m Model) restore(ids []int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		res := svc.RestoreMany(context.Background(), ids)
		return bulkDoneMsg{summary: res.Summary(), failed: res.Err() != nil}
	}
}

func (m Model) purge(ids []int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		res := svc.PurgeMany(context.Background(), ids)
		return bulkDoneMsg{summary: res.Summary(), failed: res.Err() != nil}
	}
}

func (m Model) empty() tea.Cmd {
	svc := m.svc
	n := len(m.items)
	return func() tea.Msg {
		if err := svc.EmptyTrash(context.Background()); err != nil {
			return bulkDoneMsg{summary: fmt.Sprintf("Error: %v", err), failed: true}
		}
		return bulkDoneMsg{summary: fmt.Sprintf("Deleted %d items", n)}
	}
}

// trashedAge renders trashedAt relative to now, e.g. "3 hours ago".
func trashedAge(t model.Task, now time.Time) string {
	if t.TrashedAt == nil {
		return ""
	}
	at, err := model.ParseTime(*t.TrashedAt)
	if err != nil {
		return *t.TrashedAt
	}
	return "trashed " + humanize.RelTime(at, now, "ago", "from now")
}

func sortLabel(by model.SortBy) string {
	if by == model.SortByName {
		return "name"
	}
	return "date"
}
