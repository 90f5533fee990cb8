package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todo-board/internal/model"
)

// executeCommand runs a command line from the palette: a command name
// followed by optional arguments.
func (m Model) executeCommand(line string) (Model, tea.Cmd) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return m, nil
	}
	name, args := fields[0], fields[1:]

	switch name {
	case "add":
		return m.openCreate(nil)
	case "categories":
		return m.open(ViewCategories)
	case "trash":
		return m.open(ViewTrash)
	case "calendar":
		return m.open(ViewCalendar)
	case "settings":
		return m.open(ViewSettings)
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil
	case "quit":
		return m, m.quit()
	case "reload":
		return m, m.reloadAll()
	case "reconnect":
		if m.relay == nil {
			m.taskList.SetStatus("Not connected to a host")
			return m, nil
		}
		return m, m.relay.Reconnect()
	case "clear-completed":
		return m, m.clearCompleted()
	case "empty-trash":
		return m, m.emptyTrash()
	case "group":
		p := m.taskList.Prefs()
		p.GroupByCategory = !p.GroupByCategory
		return m, m.taskList.SetPrefs(p)
	case "filter":
		return m.setFilter(args)
	case "sort":
		return m.setSort(args)
	}

	m.taskList.SetStatus(fmt.Sprintf("Unknown command %q", name))
	return m, nil
}

func (m Model) setFilter(args []string) (Model, tea.Cmd) {
	p := m.taskList.Prefs()
	if len(args) == 0 {
		switch p.Filter {
		case model.FilterAll:
			p.Filter = model.FilterActive
		case model.FilterActive:
			p.Filter = model.FilterCompleted
		default:
			p.Filter = model.FilterAll
		}
		return m, m.taskList.SetPrefs(p)
	}

	switch f := model.Filter(strings.ToLower(args[0])); f {
	case model.FilterAll, model.FilterActive, model.FilterCompleted:
		p.Filter = f
		return m, m.taskList.SetPrefs(p)
	}
	m.taskList.SetStatus(fmt.Sprintf("Unknown filter %q (all, active, completed)", args[0]))
	return m, nil
}

func (m Model) setSort(args []string) (Model, tea.Cmd) {
	p := m.taskList.Prefs()
	if len(args) == 0 {
		m.taskList.SetStatus("Usage: sort name|date|position [asc|desc]")
		return m, nil
	}

	switch s := model.SortBy(strings.ToLower(args[0])); s {
	case model.SortByName, model.SortByDate, model.SortByPosition:
		p.SortBy = s
	default:
		m.taskList.SetStatus(fmt.Sprintf("Unknown sort key %q", args[0]))
		return m, nil
	}

	if len(args) > 1 {
		switch d := model.SortDirection(strings.ToLower(args[1])); d {
		case model.SortAsc, model.SortDesc:
			p.SortDirection = d
		default:
			m.taskList.SetStatus(fmt.Sprintf("Unknown sort direction %q", args[1]))
			return m, nil
		}
	}
	return m, m.taskList.SetPrefs(p)
}
