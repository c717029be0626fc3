package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the TUI.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Left         key.Binding
	Right        key.Binding
	Enter        key.Binding
	Space        key.Binding
	Tab          key.Binding
	NextList     key.Binding
	PrevList     key.Binding
	Indent       key.Binding
	Outdent      key.Binding
	InlineEdit   key.Binding
	ExternalEdit key.Binding
	Add          key.Binding
	AddSub       key.Binding
	AddList      key.Binding
	Delete       key.Binding
	Rename       key.Binding
	ToggleExpand key.Binding
	HideDone     key.Binding
	Reload       key.Binding
	Sync         key.Binding
	Help         key.Binding
	Move         key.Binding
	Search       key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "collapse"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "expand"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "toggle expand"),
		),
		Space: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "cycle status"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		NextList: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next list"),
		),
		PrevList: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev list"),
		),
		Indent: key.NewBinding(
			key.WithKeys(">"),
			key.WithHelp(">", "indent"),
		),
		Outdent: key.NewBinding(
			key.WithKeys("<"),
			key.WithHelp("<", "outdent"),
		),
		InlineEdit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "inline edit"),
		),
		ExternalEdit: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "$EDITOR"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add task"),
		),
		AddSub: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "add subtask"),
		),
		AddList: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "new list"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename task"),
		),
		ToggleExpand: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "toggle expand/collapse all"),
		),
		HideDone: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "hide/show done"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload"),
		),
		Sync: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "git sync"),
		),
		Move: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move mode"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the footer help text.
func (k KeyMap) ShortHelp() string {
	return "↑↓ nav  [] list  space status  >/< indent  a/A add  m move  e edit  / search  ? help"
}

// FullHelp returns all key bindings for the help modal.
func (k KeyMap) FullHelp() [][]string {
	return [][]string{
		{"↑/k", "Move up"},
		{"↓/j", "Move down"},
		{"←/h", "Collapse / go to parent"},
		{"→/l", "Expand"},
		{"enter", "Toggle expand/collapse"},
		{"space", "Cycle status (todo, doing, done)"},
		{"tab", "Switch pane (tree / notes)"},
		{"]", "Next list"},
		{"[", "Previous list"},
		{">", "Indent under the task above"},
		{"<", "Outdent one level"},
		{"e", "Inline edit notes"},
		{"E", "Edit notes in $EDITOR"},
		{"/", "Search tasks"},
		{"a", "Add task at the end of the list"},
		{"A", "Add subtask under selection"},
		{"L", "Create a list"},
		{"r", "Rename task"},
		{"d", "Delete task (subtasks move up)"},
		{"C", "Toggle expand/collapse all"},
		{"H", "Hide/show done tasks"},
		{"m", "Move mode (reorder / reparent)"},
		{"R", "Reload"},
		{"s", "Git sync"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
}
