// Package app is the root Bubble Tea model. It routes input between the
// screens and keeps them in step with storage events.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todo-board/internal/calendar"
	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/keys"
	"github.com/nhle/todo-board/internal/logger"
	"github.com/nhle/todo-board/internal/model"
	appsync "github.com/nhle/todo-board/internal/sync"
	"github.com/nhle/todo-board/internal/theme"
	"github.com/nhle/todo-board/internal/todo"
	"github.com/nhle/todo-board/internal/ui"
	"github.com/nhle/todo-board/internal/ui/calendarview"
	"github.com/nhle/todo-board/internal/ui/categorymgr"
	"github.com/nhle/todo-board/internal/ui/command"
	"github.com/nhle/todo-board/internal/ui/detail"
	helpview "github.com/nhle/todo-board/internal/ui/help"
	"github.com/nhle/todo-board/internal/ui/settings"
	"github.com/nhle/todo-board/internal/ui/tasklist"
	"github.com/nhle/todo-board/internal/ui/todoform"
	"github.com/nhle/todo-board/internal/ui/trash"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewTodoCreate
	ViewTodoEdit
	ViewCategories
	ViewTrash
	ViewCalendar
	ViewSettings
	ViewHelp
	ViewCommand
)

// reloadedMsg is sent after the service re-read storage.
type reloadedMsg struct{ err error }

// Options carries the collaborators the root model drives.
type Options struct {
	Service *todo.Service
	Board   *calendar.Board
	Bus     *events.Bus

	// Relay is set when the data lives on a remote host.
	Relay *appsync.Relay

	Config     model.AppConfig
	ConfigPath string
	Log        *logger.Logger
}

// Model is the root Bubble Tea model that manages view routing, layout and
// the event subscription.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	svc    *todo.Service
	board  *calendar.Board
	sub    *events.Subscription
	relay  *appsync.Relay
	status appsync.RelayStatus
	cfg    model.AppConfig
	log    *logger.Logger

	taskList     tasklist.Model
	detail       detail.Model
	todoFormView todoform.Model
	categoryView categorymgr.Model
	trashView    trash.Model
	calendarView calendarview.Model
	settingsView settings.Model
	helpView     helpview.Model
	commandView  command.Model

	ready bool
}

// New creates the root model. The subscription to storage events is made
// here so nothing emitted before Init is missed.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	var sub *events.Subscription
	if opts.Bus != nil {
		sub = opts.Bus.Listen(
			events.TodosUpdated,
			events.CategoriesUpdated,
			events.CalendarAssignmentsUpdated,
		)
	}

	return Model{
		currentView:  ViewList,
		keys:         k,
		svc:          opts.Service,
		board:        opts.Board,
		sub:          sub,
		relay:        opts.Relay,
		cfg:          opts.Config,
		log:          log.WithComponent("app"),
		taskList:     tasklist.New(opts.Service, k, 80, 22),
		detail:       detail.New(k, 80, 22),
		todoFormView: todoform.New(80, 22),
		categoryView: categorymgr.New(opts.Service, k, 80, 22),
		trashView:    trash.New(opts.Service, k, 80, 22),
		calendarView: calendarview.New(opts.Board, k, 80, 22),
		settingsView: settings.New(opts.Config, opts.ConfigPath, nil, k, 80, 22),
		helpView:     helpview.New(k, 80, 22),
		commandView:  command.New(80, 22),
	}
}

// Init loads the view state and the calendar, and starts listening.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.taskList.Init(), m.calendarView.Init(), m.waitForEvent()}
	if m.relay != nil {
		cmds = append(cmds, m.relay.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.taskList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.todoFormView.SetSize(w, h)
		m.categoryView.SetSize(w, h)
		m.trashView.SetSize(w, h)
		m.calendarView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case events.Msg:
		return m.handleEvent(msg.Event)

	case reloadedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warnw("reload failed")
			m.taskList.SetStatus(theme.ErrorStyle.Render("Reload failed: " + msg.err.Error()))
		}
		m.refreshViews()
		return m, nil

	case appsync.RelayStatusMsg:
		m.status = msg.Status
		return m, m.relay.WaitForNextStatus()

	case tasklist.MutatedMsg:
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		m.refreshViews()
		return m, cmd

	case tasklist.SelectedTodoMsg:
		return m.openDetail(msg.ID), nil

	case tasklist.NewTodoMsg:
		return m.openCreate(msg.CategoryID)

	case tasklist.EditTodoMsg:
		return m.openEdit(msg.ID)

	case todoform.TodoCreatedMsg:
		m.currentView = ViewList
		return m, m.createTodo(msg.Todo)

	case todoform.TodoUpdatedMsg:
		m.currentView = m.previousView
		return m, m.updateTodo(msg.ID, msg.Update)

	case todoform.TodoFormCancelMsg:
		m.currentView = m.previousView
		return m, nil

	case detail.BackMsg:
		m.detail.Clear()
		m.currentView = ViewList
		return m, nil

	case detail.ActionMsg:
		return m.handleDetailAction(msg)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case categorymgr.CategoryListCloseMsg:
		m.currentView = ViewList
		return m, nil

	case trash.TrashCloseMsg:
		m.currentView = ViewList
		return m, nil

	case calendarview.CalendarCloseMsg:
		m.currentView = ViewList
		return m, nil

	case settings.SettingsCloseMsg:
		m.currentView = ViewList
		return m, nil

	case settings.SettingsSavedMsg:
		m.cfg = msg.Config
		m.log.Infow("settings saved", "backend", msg.Config.Storage.Backend)
		return m, nil

	case tea.MouseMsg:
		msg.Y = m.layout.ContentY(msg.Y)
		return m.updateActiveView(msg)

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKeys(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that are not owned by the active screen.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, m.quit(), true
	}

	switch m.currentView {
	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Quit) {
			m.currentView = m.previousView
		}
		return m, nil, true
	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false
	}

	if m.capturesKeys() {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true
	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true
	}

	if m.currentView != ViewList {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit(), true
	case key.Matches(msg, m.keys.Refresh):
		return m, m.reloadAll(), true
	case key.Matches(msg, m.keys.Categories):
		m2, cmd := m.open(ViewCategories)
		return m2, cmd, true
	case key.Matches(msg, m.keys.TrashBin):
		m2, cmd := m.open(ViewTrash)
		return m2, cmd, true
	case key.Matches(msg, m.keys.Calendar):
		m2, cmd := m.open(ViewCalendar)
		return m2, cmd, true
	case key.Matches(msg, m.keys.Settings):
		m2, cmd := m.open(ViewSettings)
		return m2, cmd, true
	}
	return m, nil, false
}

// capturesKeys reports whether the active screen is in a text form or a
// drag, where single letters must reach it untouched.
func (m Model) capturesKeys() bool {
	switch m.currentView {
	case ViewTodoCreate, ViewTodoEdit:
		return true
	case ViewList:
		return m.taskList.Dragging()
	case ViewCalendar:
		return m.calendarView.Dragging()
	case ViewCategories:
		return m.categoryView.Editing()
	case ViewTrash:
		return m.trashView.Editing()
	case ViewSettings:
		return m.settingsView.Editing()
	}
	return false
}

// open switches to a secondary screen, refreshing it first.
func (m Model) open(v ViewState) (Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = v

	switch v {
	case ViewCategories:
		m.categoryView.Refresh()
	case ViewTrash:
		m.trashView.Refresh()
	case ViewCalendar:
		return m, m.calendarView.Reload()
	}
	return m, nil
}

func (m Model) openDetail(id int64) Model {
	t, ok := m.svc.Todo(id)
	if !ok {
		return m
	}
	m.detail.SetTask(t, m.svc.Categories())
	m.previousView = m.currentView
	m.currentView = ViewDetail
	return m
}

func (m Model) openCreate(categoryID *int64) (Model, tea.Cmd) {
	m.todoFormView.SetOptions(m.svc.Categories())
	m.previousView = ViewList
	m.currentView = ViewTodoCreate
	return m, m.todoFormView.StartCreate(categoryID)
}

func (m Model) openEdit(id int64) (Model, tea.Cmd) {
	t, ok := m.svc.Todo(id)
	if !ok {
		return m, nil
	}
	m.todoFormView.SetOptions(m.svc.Categories())
	m.previousView = m.currentView
	m.currentView = ViewTodoEdit
	return m, m.todoFormView.StartEdit(t)
}

func (m Model) handleDetailAction(msg detail.ActionMsg) (Model, tea.Cmd) {
	switch msg.Action {
	case detail.ActionEdit:
		return m.openEdit(msg.TaskID)
	case detail.ActionToggle:
		return m, m.toggleTodo(msg.TaskID)
	case detail.ActionTrash:
		m.detail.Clear()
		m.currentView = ViewList
		return m, m.trashTodo(msg.TaskID)
	}
	return m, nil
}

// handleEvent reacts to a storage event. Foreign events reload the
// service; the board reloads unless the event came from the board itself.
func (m Model) handleEvent(ev events.Event) (Model, tea.Cmd) {
	cmds := []tea.Cmd{m.waitForEvent()}

	if ev.Origin != m.svc.Origin() {
		m.log.Debugw("external change", "event", ev.Name, "origin", ev.Origin)
		cmds = append(cmds, m.reload())
	} else {
		m.refreshViews()
	}
	if ev.Origin != calendar.Origin {
		cmds = append(cmds, m.calendarView.Reload())
	}
	return m, tea.Batch(cmds...)
}

// refreshViews re-projects every screen that reads the service.
func (m *Model) refreshViews() {
	m.taskList.Refresh()
	m.categoryView.Refresh()
	m.trashView.Refresh()

	if id := m.detail.TaskID(); id != 0 {
		if t, ok := m.svc.Todo(id); ok {
			m.detail.SetTask(t, m.svc.Categories())
		} else {
			m.detail.Clear()
			if m.currentView == ViewDetail {
				m.currentView = ViewList
				m.taskList.SetStatus("The task was removed elsewhere")
			}
		}
	}
}

func (m Model) waitForEvent() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	return events.WaitForEvent(m.sub)
}

func (m Model) reload() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return reloadedMsg{err: svc.Load(context.Background())}
	}
}

func (m Model) reloadAll() tea.Cmd {
	return tea.Batch(m.reload(), m.calendarView.Reload())
}

func (m Model) quit() tea.Cmd {
	if m.relay != nil {
		m.relay.Stop()
	}
	if m.sub != nil {
		m.sub.Close()
	}
	return tea.Quit
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewTodoCreate, ViewTodoEdit:
		m.todoFormView, cmd = m.todoFormView.Update(msg)
	case ViewCategories:
		m.categoryView, cmd = m.categoryView.Update(msg)
	case ViewTrash:
		m.trashView, cmd = m.trashView.Update(msg)
	case ViewCalendar:
		m.calendarView, cmd = m.calendarView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Todo Board", m.connectionStatus())
	statusBar := m.layout.RenderStatusBar(m.keyHints(), fmt.Sprintf("%d left", m.svc.ItemsLeft()))
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewTodoCreate, ViewTodoEdit:
		return m.todoFormView.View()
	case ViewCategories:
		return m.categoryView.View()
	case ViewTrash:
		return m.trashView.View()
	case ViewCalendar:
		return m.calendarView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// connectionStatus describes where the data lives.
func (m Model) connectionStatus() string {
	if m.relay == nil {
		return theme.StatusStyle("idle").Render(m.cfg.Storage.Backend)
	}
	switch m.status.State {
	case appsync.RelayStreaming:
		return theme.StatusStyle("streaming").Render("● " + m.cfg.Storage.HostURL)
	case appsync.RelayError:
		return theme.StatusStyle("error").Render("⚠ host unreachable")
	default:
		return theme.StatusStyle("idle").Render("connecting")
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter run | tab next | esc back"
	case ViewDetail:
		return "esc back | e edit | x toggle | d trash | j/k scroll"
	case ViewTodoCreate, ViewTodoEdit:
		return "enter submit | esc cancel"
	case ViewCategories:
		return "n new | s sub | e edit | d delete | D delete all | esc back"
	case ViewTrash:
		return "space mark | u restore | D delete | E empty | s sort | esc back"
	case ViewCalendar:
		if m.calendarView.Dragging() {
			return "←/→ column | ↑/↓ slot | enter drop | esc cancel"
		}
		return "h/l column | m move | </> assign | ctrl+s save | esc back"
	case ViewSettings:
		return "e edit | t test | esc back"
	default:
		if m.taskList.Dragging() {
			return "↑/↓ move | enter drop | esc cancel"
		}
		return "q quit | ? help | : command | n new | m move | g group | f filter | c categories | t trash | w calendar"
	}
}
