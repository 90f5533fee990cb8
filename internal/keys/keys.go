package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down  key.Binding
	Up    key.Binding
	Left  key.Binding
	Right key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual reload from the store
	Refresh key.Binding

	// Task actions
	New            key.Binding
	Edit           key.Binding
	Toggle         key.Binding
	Trash          key.Binding
	ClearCompleted key.Binding

	// Drag and drop
	Move key.Binding
	Drop key.Binding

	// View state
	Group         key.Binding
	Fold          key.Binding
	Filter        key.Binding
	CycleSort     key.Binding
	SortDirection key.Binding
	SortTarget    key.Binding

	// Category bulk actions, applied to the header under the cursor
	CompleteAll key.Binding
	ActivateAll key.Binding

	// Screens
	Categories key.Binding
	TrashBin   key.Binding
	Calendar   key.Binding
	Settings   key.Binding

	// Trash and calendar screens
	Mark       key.Binding
	MarkAll    key.Binding
	Restore    key.Binding
	Purge      key.Binding
	EmptyTrash key.Binding
	Save       key.Binding
	MovePrev   key.Binding
	MoveNext   key.Binding
	Delete     key.Binding
	DeleteAll  key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous column"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next column"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x", "toggle done"),
		),
		Trash: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "move to trash"),
		),
		ClearCompleted: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear completed"),
		),
		Move: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "pick up / drag"),
		),
		Drop: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "drop"),
		),
		Group: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "group by category"),
		),
		Fold: key.NewBinding(
			key.WithKeys("z", "tab"),
			key.WithHelp("z", "fold category"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "cycle filter"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle sort"),
		),
		SortDirection: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sort direction"),
		),
		SortTarget: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sort tasks/categories"),
		),
		CompleteAll: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "complete category"),
		),
		ActivateAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "activate category"),
		),
		Categories: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "categories"),
		),
		TrashBin: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "trash bin"),
		),
		Calendar: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "calendar"),
		),
		Settings: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "settings"),
		),
		Mark: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select"),
		),
		MarkAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		Restore: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "restore"),
		),
		Purge: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete forever"),
		),
		EmptyTrash: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "empty trash"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		MovePrev: key.NewBinding(
			key.WithKeys("<", "H"),
			key.WithHelp("<", "assign to previous day"),
		),
		MoveNext: key.NewBinding(
			key.WithKeys(">", "L"),
			key.WithHelp(">", "assign to next day"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		DeleteAll: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete all"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.New, k.Toggle,
		k.Trash, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit, k.Help, k.Command, k.Refresh},
		{k.New, k.Edit, k.Toggle, k.Trash, k.ClearCompleted, k.Move, k.Drop},
		{k.Group, k.Fold, k.Filter, k.CycleSort, k.SortDirection, k.SortTarget, k.CompleteAll, k.ActivateAll},
		{k.Categories, k.TrashBin, k.Calendar, k.Settings},
		{k.Mark, k.MarkAll, k.Restore, k.Purge, k.EmptyTrash, k.Left, k.Right, k.MovePrev, k.MoveNext, k.Save},
	}
}
