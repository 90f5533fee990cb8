package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/nhle/todo-board/internal/theme"
)

// CommandMsg is emitted when the user executes a command. It holds the
// command name followed by any arguments typed after it.
type CommandMsg string

// Command is one palette entry.
type Command struct {
	Name        string
	Description string
}

// Commands lists every palette entry in display order.
var Commands = []Command{
	{"add", "Create a task"},
	{"categories", "Manage categories"},
	{"trash", "Open the trash bin"},
	{"calendar", "Open the calendar board"},
	{"settings", "Edit configuration"},
	{"group", "Toggle grouping by category"},
	{"filter", "Show all, active or completed (filter <name>)"},
	{"sort", "Sort by name, date or position (sort <key> [asc|desc])"},
	{"clear-completed", "Move completed tasks to the trash"},
	{"empty-trash", "Delete everything in the trash"},
	{"reload", "Reload from storage"},
	{"reconnect", "Reconnect to the host"},
	{"help", "Show keyboard shortcuts"},
	{"quit", "Exit"},
}

// maxSuggestions caps the list under the input.
const maxSuggestions = 8

type commandSource []Command

func (s commandSource) String(i int) string { return s[i].Name }
func (s commandSource) Len() int            { return len(s) }

// Model is the command palette view.
type Model struct {
	input    textinput.Model
	matches  []fuzzy.Match
	selected int
	width    int
	height   int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	m := Model{
		input:  ti,
		width:  width,
		height: height,
	}
	m.match()
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			cmd := m.resolve()
			m.input.Reset()
			m.match()
			if cmd != "" {
				return m, func() tea.Msg {
					return CommandMsg(cmd)
				}
			}
			return m, nil
		case "up", "ctrl+p":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "ctrl+n", "tab":
			if m.selected < len(m.matches)-1 {
				m.selected++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.match()
	return m, cmd
}

// resolve turns the input into a command line. An exact command name keeps
// its arguments; anything else, empty input included, runs the highlighted
// suggestion.
func (m Model) resolve() string {
	line := strings.TrimSpace(m.input.Value())
	name, _, _ := strings.Cut(line, " ")
	for _, c := range Commands {
		if line != "" && c.Name == name {
			return line
		}
	}
	if m.selected < len(m.matches) {
		return Commands[m.matches[m.selected].Index].Name
	}
	return ""
}

// match recomputes the suggestions for the word being typed.
func (m *Model) match() {
	name, _, _ := strings.Cut(strings.TrimSpace(m.input.Value()), " ")
	m.selected = 0
	if name == "" {
		m.matches = make([]fuzzy.Match, len(Commands))
		for i, c := range Commands {
			m.matches[i] = fuzzy.Match{Str: c.Name, Index: i}
		}
		return
	}
	m.matches = fuzzy.FindFrom(name, commandSource(Commands))
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	lines := []string{titleStyle.Render("Command Palette"), m.input.View(), ""}
	for i, match := range m.matches {
		if i >= maxSuggestions {
			break
		}
		c := Commands[match.Index]
		label := fmt.Sprintf("%-16s %s", c.Name, theme.HelpStyle.Render(c.Description))
		if i == m.selected {
			lines = append(lines, theme.SelectedItemStyle.Render(label))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(label))
		}
	}
	if len(m.matches) == 0 {
		lines = append(lines, theme.HelpStyle.Render("no matching command"))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
