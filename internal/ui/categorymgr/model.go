package categorymgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todo-board/internal/keys"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/render"
	"github.com/nhle/todo-board/internal/theme"
	"github.com/nhle/todo-board/internal/todo"
)

// CategoryListCloseMsg signals the parent to close the category view.
type CategoryListCloseMsg struct{}

type categoryMode int

const (
	modeList categoryMode = iota
	modeForm
	modeConfirmDelete
	modeConfirmDeleteAll
)

type formBindings struct {
	name     string
	color    string
	parentID int64
	confirm  bool
}

type categorySavedMsg struct{ err error }
type categoryDeletedMsg struct {
	removed int
	err     error
}

// Model is the Bubble Tea model for category management.
type Model struct {
	mode        categoryMode
	svc         *todo.Service
	keys        *keys.KeyMap
	entries     []render.TreeEntry
	selectedIdx int
	editingID   int64
	isNew       bool
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new category manager model.
func New(svc *todo.Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		svc:   svc,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Refresh re-reads the category tree from the service.
func (m *Model) Refresh() {
	m.entries = render.Tree(m.svc.Categories())
	if m.selectedIdx >= len(m.entries) {
		m.selectedIdx = max(len(m.entries)-1, 0)
	}
}

// Editing reports whether a form or confirmation is open.
func (m Model) Editing() bool {
	return m.mode != modeList
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case categorySavedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Category saved"
		}
		m.mode = modeList
		m.Refresh()
		return m, nil

	case categoryDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = fmt.Sprintf("Deleted %d categories", msg.removed)
		}
		m.mode = modeList
		m.Refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete, modeConfirmDeleteAll:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CategoryListCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.entries) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.entries)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.entries) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.entries) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.New), msg.String() == "s":
		m.isNew = true
		m.editingID = 0
		m.fb.name = ""
		m.fb.color = model.RandomColor()
		m.fb.parentID = 0
		// "s" adds a subcategory of the selected one.
		if msg.String() == "s" {
			if c, ok := m.selected(); ok {
				m.fb.parentID = c.ID
			}
		}
		m.form = m.buildForm(m.svc.Categories())
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		c, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.isNew = false
		m.editingID = c.ID
		m.fb.name = c.Name
		m.fb.color = c.Color
		m.fb.parentID = 0
		if c.ParentID != nil {
			m.fb.parentID = *c.ParentID
		}
		m.form = m.buildForm(m.svc.ParentCandidates(c.ID))
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.selected(); !ok {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()

	case key.Matches(msg, m.keys.DeleteAll):
		if len(m.entries) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmAllForm()
		m.mode = modeConfirmDeleteAll
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) selected() (model.Category, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.entries) {
		return model.Category{}, false
	}
	return m.entries[m.selectedIdx].Category, true
}

func (m Model) buildForm(parents []model.Category) *huh.Form {
	opts := []huh.Option[int64]{huh.NewOption("None (top level)", int64(0))}
	for _, e := range render.Tree(parents) {
		opts = append(opts, huh.NewOption(strings.Repeat("  ", e.Depth)+e.Category.Name, e.Category.ID))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Category name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Color").
				Placeholder("#55aaff").
				Value(&m.fb.color).
				Validate(func(s string) error {
					if !model.ValidColor(strings.TrimSpace(s)) {
						return fmt.Errorf("use #rrggbb")
					}
					return nil
				}),
			huh.NewSelect[int64]().
				Title("Parent").
				Options(opts...).
				Value(&m.fb.parentID),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	c, _ := m.selected()
	desc := "Tasks in it will become uncategorized."
	if n := len(m.svc.Descendants(c.ID)); n > 0 {
		desc = fmt.Sprintf("Its %d subcategories are deleted too. %s", n, desc)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete category %q?", c.Name)).
				Description(desc).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmAllForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete all %d categories?", len(m.entries))).
				Description("Every task becomes uncategorized.").
				Affirmative("Yes, delete all").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		return m, m.saveCategory()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
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
		if m.mode == modeConfirmDeleteAll {
			return m, m.deleteAll()
		}
		c, _ := m.selected()
		return m, m.deleteCategory(c.ID)
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete, modeConfirmDeleteAll:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the category manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete, modeConfirmDeleteAll:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Categories"))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No categories yet. Press 'n' to create one."))
	} else {
		for i, e := range m.entries {
			label := fmt.Sprintf("%s%s %s",
				strings.Repeat("  ", e.Depth),
				theme.SwatchStyle(e.Category.Color).Render("●"),
				e.Category.Name,
			)
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
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"n new | s new subcategory | e edit | d delete | D delete all | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
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

func (m Model) saveCategory() tea.Cmd {
	svc := m.svc
	fb := *m.fb
	editID := m.editingID
	isNew := m.isNew
	return func() tea.Msg {
		var parent *int64
		if fb.parentID != 0 {
			parent = &fb.parentID
		}
		ctx := context.Background()
		if isNew {
			_, err := svc.AddCategory(ctx, todo.NewCategory{Name: fb.name, Color: fb.color, ParentID: parent})
			return categorySavedMsg{err: err}
		}
		err := svc.UpdateCategory(ctx, editID, todo.CategoryUpdate{Name: fb.name, Color: fb.color, ParentID: parent})
		return categorySavedMsg{err: err}
	}
}

func (m Model) deleteCategory(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		removed, err := svc.DeleteCategory(context.Background(), id)
		return categoryDeletedMsg{removed: len(removed), err: err}
	}
}

func (m Model) deleteAll() tea.Cmd {
	svc := m.svc
	n := len(m.entries)
	return func() tea.Msg {
		err := svc.DeleteAllCategories(context.Background())
		return categoryDeletedMsg{removed: n, err: err}
	}
}
