package todoform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/render"
	"github.com/nhle/todo-board/internal/theme"
	"github.com/nhle/todo-board/internal/todo"
)

// TodoCreatedMsg is dispatched when a new todo is submitted via the form.
type TodoCreatedMsg struct {
	Todo todo.NewTodo
}

// TodoUpdatedMsg is dispatched when an existing todo is submitted via the form.
type TodoUpdatedMsg struct {
	ID     int64
	Update todo.TodoUpdate
}

// TodoFormCancelMsg is dispatched when the user cancels the form.
type TodoFormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	text       string
	dueDate    string
	categoryID int64
	color      string
}

// Model is the Bubble Tea model for the todo create/edit form.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	editMode   bool
	editID     int64
	categories []model.Category
	width      int
	height     int
}

// New creates a new todo form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// SetOptions sets the categories offered by the category selector.
func (m *Model) SetOptions(categories []model.Category) {
	m.categories = categories
}

// StartCreate initializes the form for creating a new todo, preselecting
// categoryID when it is set.
func (m *Model) StartCreate(categoryID *int64) tea.Cmd {
	m.editMode = false
	m.editID = 0
	m.fb.text = ""
	m.fb.dueDate = ""
	m.fb.categoryID = 0
	if categoryID != nil {
		m.fb.categoryID = *categoryID
	}
	m.fb.color = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing todo.
func (m *Model) StartEdit(t model.Task) tea.Cmd {
	m.editMode = true
	m.editID = t.ID
	m.fb.text = t.Text
	m.fb.dueDate = ""
	if t.DueDate != nil {
		m.fb.dueDate = *t.DueDate
	}
	m.fb.categoryID = 0
	m.fb.color = ""
	if t.Category != nil {
		m.fb.categoryID = t.Category.ID
		m.fb.color = t.Category.Color
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the todo form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return TodoFormCancelMsg{} }
	}

	return m, cmd
}

// View renders the todo form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Todo"
	if m.editMode {
		titleText = "Edit Todo"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Task").
			Placeholder("What needs to be done?").
			Value(&m.fb.text).
			Validate(validateRequired("Task")),
		huh.NewInput().
			Title("Due Date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.dueDate).
			Validate(validateOptionalDate),
		m.categoryField(),
	}
	if m.editMode {
		fields = append(fields,
			huh.NewInput().
				Title("Category Colour").
				Description("Changing it recolours the category everywhere").
				Placeholder("#rrggbb").
				Value(&m.fb.color).
				Validate(validateOptionalColor),
		)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) categoryField() huh.Field {
	opts := []huh.Option[int64]{
		huh.NewOption("None", int64(0)),
	}
	for _, e := range render.Tree(m.categories) {
		label := strings.Repeat("  ", e.Depth) + e.Category.Name
		opts = append(opts, huh.NewOption(label, e.Category.ID))
	}
	return huh.NewSelect[int64]().
		Title("Category").
		Options(opts...).
		Value(&m.fb.categoryID)
}

func (m Model) handleSubmit() tea.Cmd {
	var catID *int64
	if m.fb.categoryID != 0 {
		id := m.fb.categoryID
		catID = &id
	}
	text := m.fb.text
	due := strings.TrimSpace(m.fb.dueDate)

	if m.editMode {
		id := m.editID
		update := todo.TodoUpdate{
			Text:          text,
			DueDate:       due,
			CategoryID:    catID,
			CategoryColor: strings.TrimSpace(m.fb.color),
		}
		return func() tea.Msg { return TodoUpdatedMsg{ID: id, Update: update} }
	}

	create := todo.NewTodo{Text: text, DueDate: due, CategoryID: catID}
	return func() tea.Msg { return TodoCreatedMsg{Todo: create} }
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

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

func validateOptionalColor(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || model.ValidColor(s) {
		return nil
	}
	return fmt.Errorf("invalid colour, use #rrggbb")
}
