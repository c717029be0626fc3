// Package tui is the interactive outline editor for subtasks.
package tui

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"github.com/stefanpenner/subtasks/pkg/config"
	"github.com/stefanpenner/subtasks/pkg/store"
	gsync "github.com/stefanpenner/subtasks/pkg/sync"
	"github.com/stefanpenner/subtasks/pkg/tasks"
)

// FileChangedMsg is sent when the file watcher detects changes.
type FileChangedMsg struct{}

// SyncDoneMsg is sent when git sync completes.
type SyncDoneMsg struct {
	Result gsync.Result
	Err    error
}

// EditorFinishedMsg is sent when $EDITOR returns.
type EditorFinishedMsg struct {
	TaskID int64
	Path   string
	Err    error
}

type inputKind int

const (
	inputTask inputKind = iota
	inputSubtask
	inputList
)

// Options configures a Model.
type Options struct {
	Service *tasks.Service
	Config  *config.Config
	// Syncer is optional; without it the sync key reports an error.
	Syncer *gsync.Syncer
	Logger zerolog.Logger
	// List is the slug shown first. It defaults to Config.DefaultList.
	List string
}

// Model is the Bubble Tea model for the outline editor.
type Model struct {
	ctx    context.Context
	svc    *tasks.Service
	cfg    *config.Config
	syncer *gsync.Syncer
	log    zerolog.Logger
	keys   KeyMap
	width  int
	height int

	lists        []*store.List
	activeList   int
	roots        []*tasks.Item
	visibleItems []TreeItem
	collapsed    map[int64]bool
	allCollapsed bool
	hideDone     bool
	cursor       int
	focusedPane  int // 0 = tree, 1 = notes
	notesScroll  int

	showHelpModal     bool
	showDeleteConfirm bool
	deleteTarget      TreeItem

	isMoveMode bool
	moveTarget int64

	isInputMode      bool
	inputKind        inputKind
	textInput        textinput.Model
	inputParent      int64
	inputDepth       int
	inputInsertAfter int

	isRenameMode bool
	renameID     int64

	isEditing  bool
	noteEditor textarea.Model
	editID     int64

	isSearching    bool
	searchQuery    string
	searchMatchIDs map[int64]bool
	searchAncIDs   map[int64]bool

	statusMsg     string
	statusTimeout time.Time

	glamourRenderer *glamour.TermRenderer
	glamourWidth    int
}

// NewModel creates a model and loads the starting list.
func NewModel(ctx context.Context, opts Options) Model {
	ti := textinput.New()
	ti.CharLimit = 200

	m := Model{
		ctx:       ctx,
		svc:       opts.Service,
		cfg:       opts.Config,
		syncer:    opts.Syncer,
		log:       opts.Logger.With().Str("component", "tui").Logger(),
		keys:      DefaultKeyMap(),
		collapsed: make(map[int64]bool),
		hideDone:  opts.Config.TUI.HideDone,
		textInput: ti,
	}

	m.reload()
	start := opts.List
	if start == "" {
		start = opts.Config.DefaultList
	}
	m.selectList(store.Slugify(start))
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.getGlamourRenderer(m.notesWidth() - 2)
		if m.isEditing {
			m.sizeEditor()
		}
		m.reload()
		return m, tea.ClearScreen

	case FileChangedMsg:
		if !m.isEditing {
			m.reload()
		}
		return m, nil

	case SyncDoneMsg:
		if msg.Err != nil {
			m.log.Error().Err(msg.Err).Msg("sync failed")
			m.setStatus("Sync failed: " + msg.Err.Error())
		} else {
			m.setStatus("Synced")
			m.reload()
		}
		return m, nil

	case EditorFinishedMsg:
		m.finishExternalEdit(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.isInputMode || m.isRenameMode {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	if m.isEditing {
		var cmd tea.Cmd
		m.noteEditor, cmd = m.noteEditor.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.isInputMode {
		return m.handleInputMode(msg)
	}

	if m.isRenameMode {
		switch msg.Type {
		case tea.KeyEsc:
			m.isRenameMode = false
		case tea.KeyEnter:
			if _, err := m.svc.Rename(m.ctx, m.renameID, m.textInput.Value()); err != nil {
				m.setError(err)
			} else {
				m.setStatus("Renamed")
				m.reload()
			}
			m.isRenameMode = false
		default:
			var cmd tea.Cmd
			m.textInput, cmd = m.textInput.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.isEditing {
		return m.handleEditMode(msg)
	}

	if m.isSearching {
		return m.handleSearchInput(msg)
	}

	if m.showHelpModal {
		switch msg.String() {
		case "esc", "enter", "?", "q":
			m.showHelpModal = false
		}
		return m, nil
	}

	if m.isMoveMode {
		return m.handleMoveMode(msg)
	}

	if m.showDeleteConfirm {
		switch msg.String() {
		case "y", "Y":
			if err := m.svc.Delete(m.ctx, m.deleteTarget.ID); err != nil {
				m.setStatus("Delete failed: " + err.Error())
			} else {
				m.setStatus("Deleted: " + m.deleteTarget.Name)
				m.reload()
			}
			m.showDeleteConfirm = false
		case "n", "N", "esc":
			m.showDeleteConfirm = false
		}
		return m, nil
	}

	// a filter left active after typing is cleared with esc or enter
	if m.searchQuery != "" && (msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter) {
		cur, _ := m.selected()
		m.clearSearch()
		m.moveCursorTo(cur.ID)
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.focusedPane == 1 {
			if m.notesScroll > 0 {
				m.notesScroll--
			}
		} else if m.cursor > 0 {
			m.cursor--
			m.notesScroll = 0
		}

	case key.Matches(msg, m.keys.Down):
		if m.focusedPane == 1 {
			m.notesScroll++
		} else if m.cursor < len(m.visibleItems)-1 {
			m.cursor++
			m.notesScroll = 0
		}

	case key.Matches(msg, m.keys.Right):
		if item, ok := m.selected(); ok && item.HasChildren {
			delete(m.collapsed, item.ID)
			m.rebuildVisible()
		}

	case key.Matches(msg, m.keys.Left):
		item, ok := m.selected()
		switch {
		case !ok:
		case item.IsExpanded:
			m.collapsed[item.ID] = true
			m.rebuildVisible()
		case item.ParentID != 0:
			m.moveCursorTo(item.ParentID)
		}

	case key.Matches(msg, m.keys.Enter):
		if item, ok := m.selected(); ok && item.HasChildren {
			m.collapsed[item.ID] = item.IsExpanded
			m.rebuildVisible()
		}

	case key.Matches(msg, m.keys.Space):
		if item, ok := m.selected(); ok {
			t, err := m.svc.CycleStatus(m.ctx, item.ID)
			if err != nil {
				m.setError(err)
			} else {
				m.setStatus(t.Title + " → " + string(t.Status))
				m.reload()
			}
		}

	case key.Matches(msg, m.keys.Tab):
		m.focusedPane = (m.focusedPane + 1) % 2

	case key.Matches(msg, m.keys.NextList):
		m.cycleList(1)

	case key.Matches(msg, m.keys.PrevList):
		m.cycleList(-1)

	case key.Matches(msg, m.keys.Indent):
		m.shift(1)

	case key.Matches(msg, m.keys.Outdent):
		m.shift(-1)

	case key.Matches(msg, m.keys.InlineEdit):
		if item, ok := m.selected(); ok {
			m.enterEditMode(item.Task)
			return m, textarea.Blink
		}

	case key.Matches(msg, m.keys.ExternalEdit):
		if item, ok := m.selected(); ok {
			return m, m.openEditor(item.Task)
		}

	case key.Matches(msg, m.keys.Add):
		m.startInput(inputTask, "new task")
		m.inputDepth = 0
		m.inputInsertAfter = len(m.visibleItems) - 1
		return m, textinput.Blink

	case key.Matches(msg, m.keys.AddSub):
		parent, ok := m.selected()
		if !ok {
			break
		}
		m.startInput(inputSubtask, "subtask of "+parent.Name)
		m.inputParent = parent.ID
		m.inputDepth = parent.Depth + 1

		if parent.HasChildren && !parent.IsExpanded {
			delete(m.collapsed, parent.ID)
			m.rebuildVisible()
		}
		m.inputInsertAfter = m.cursor
		for j := m.cursor + 1; j < len(m.visibleItems); j++ {
			if m.visibleItems[j].Depth <= parent.Depth {
				break
			}
			m.inputInsertAfter = j
		}
		return m, textinput.Blink

	case key.Matches(msg, m.keys.AddList):
		m.startInput(inputList, "list name")
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Rename):
		if item, ok := m.selected(); ok {
			m.isRenameMode = true
			m.renameID = item.ID
			m.textInput.Reset()
			m.textInput.SetValue(item.Name)
			m.textInput.Placeholder = "new title"
			m.textInput.Focus()
			return m, textinput.Blink
		}

	case key.Matches(msg, m.keys.Delete):
		if item, ok := m.selected(); ok {
			m.deleteTarget = item
			m.showDeleteConfirm = true
		}

	case key.Matches(msg, m.keys.ToggleExpand):
		m.collapsed = make(map[int64]bool)
		if !m.allCollapsed {
			for _, it := range tasks.Flatten(m.roots) {
				if it.HasChildren() {
					m.collapsed[it.Task.ID] = true
				}
			}
		}
		m.allCollapsed = !m.allCollapsed
		m.rebuildVisible()

	case key.Matches(msg, m.keys.HideDone):
		m.hideDone = !m.hideDone
		m.rebuildVisible()
		if m.hideDone {
			m.setStatus("Hiding done tasks")
		} else {
			m.setStatus("Showing done tasks")
		}

	case key.Matches(msg, m.keys.Reload):
		m.reload()
		m.setStatus("Reloaded")

	case key.Matches(msg, m.keys.Sync):
		m.setStatus("Syncing...")
		return m, m.doSync()

	case key.Matches(msg, m.keys.Move):
		if item, ok := m.selected(); ok {
			m.isMoveMode = true
			m.moveTarget = item.ID
			m.setStatus("Move mode: j/k reorder, </> outdent/indent, h to top level, enter/esc exit")
		}

	case key.Matches(msg, m.keys.Search):
		m.isSearching = true
		m.clearSearch()

	case key.Matches(msg, m.keys.Help):
		m.showHelpModal = !m.showHelpModal
	}

	return m, nil
}

func (m *Model) startInput(kind inputKind, placeholder string) {
	m.isInputMode = true
	m.inputKind = kind
	m.inputParent = 0
	m.textInput.Reset()
	m.textInput.Placeholder = placeholder
	m.textInput.Focus()
}

func (m Model) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.isInputMode = false
		return m, nil
	case tea.KeyEnter:
		m.isInputMode = false
		value := strings.TrimSpace(m.textInput.Value())
		if value == "" {
			return m, nil
		}
		m.submitInput(value)
		return m, nil
	default:
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
}

func (m *Model) submitInput(value string) {
	switch m.inputKind {
	case inputList:
		l, err := m.svc.CreateList(m.ctx, value, "")
		if err != nil {
			m.setError(err)
			return
		}
		m.reload()
		m.selectList(l.Slug)
		m.setStatus("Created list " + l.Slug)

	case inputSubtask:
		t, err := m.svc.AddSubtask(m.ctx, m.inputParent, value)
		if err != nil {
			m.setError(err)
			return
		}
		m.reload()
		m.moveCursorTo(t.ID)
		m.setStatus("Added #" + itoa(t.ID))

	default:
		t, err := m.svc.AddTask(m.ctx, m.activeSlug(), value)
		if err != nil {
			m.setError(err)
			return
		}
		m.reload()
		m.moveCursorTo(t.ID)
		m.setStatus("Added #" + itoa(t.ID))
	}
}

// handleEditMode handles key messages while inline editing.
func (m Model) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.saveInlineEdit()
		m.isEditing = false
		m.noteEditor.Blur()
		m.reload()
		return m, nil

	case tea.KeyCtrlS:
		m.saveInlineEdit()
		m.reload()
		return m, nil

	case tea.KeyCtrlC:
		m.isEditing = false
		m.noteEditor.Blur()
		m.setStatus("Edit cancelled")
		return m, nil

	default:
		var cmd tea.Cmd
		m.noteEditor, cmd = m.noteEditor.Update(msg)
		return m, cmd
	}
}

// handleSearchInput handles key messages while typing in the search bar.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.isSearching = false
		m.clearSearch()
		return m, nil

	case tea.KeyEnter, tea.KeyDown, tea.KeyTab:
		// keep the filter, leave the search bar
		m.isSearching = false
		return m, nil

	case tea.KeyBackspace:
		if len(m.searchQuery) > 0 {
			_, size := utf8.DecodeLastRuneInString(m.searchQuery)
			m.searchQuery = m.searchQuery[:len(m.searchQuery)-size]
		}
		m.applySearchFilter()
		return m, nil

	case tea.KeyRunes, tea.KeySpace:
		m.searchQuery += string(msg.Runes)
		m.applySearchFilter()
		return m, nil
	}
	return m, nil
}

func (m Model) handleMoveMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.isMoveMode = false
		m.setStatus("Move cancelled")
		return m, nil

	case msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter:
		m.isMoveMode = false
		m.setStatus("Move complete")
		return m, nil

	case key.Matches(msg, m.keys.Up):
		err = m.svc.MoveUp(m.ctx, m.moveTarget)

	case key.Matches(msg, m.keys.Down):
		err = m.svc.MoveDown(m.ctx, m.moveTarget)

	case key.Matches(msg, m.keys.Left):
		err = m.svc.MoveToRoot(m.ctx, m.moveTarget)

	case key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Indent):
		err = m.svc.Indent(m.ctx, m.moveTarget)

	case key.Matches(msg, m.keys.Outdent):
		err = m.svc.Outdent(m.ctx, m.moveTarget)

	default:
		return m, nil
	}

	if err != nil {
		m.setStatus("Move error: " + err.Error())
		return m, nil
	}
	m.reload()
	m.revealTask(m.moveTarget)
	return m, nil
}

// shift indents (delta > 0) or outdents the selected task.
func (m *Model) shift(delta int) {
	item, ok := m.selected()
	if !ok {
		return
	}
	var err error
	if delta > 0 {
		err = m.svc.Indent(m.ctx, item.ID)
	} else {
		err = m.svc.Outdent(m.ctx, item.ID)
	}
	if err != nil {
		m.setError(err)
		return
	}
	m.reload()
	m.revealTask(item.ID)
}

// enterEditMode sets up the textarea for inline editing of a task's notes.
func (m *Model) enterEditMode(t *store.Task) {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.SetValue(t.Body)
	ta.Focus()

	m.isEditing = true
	m.noteEditor = ta
	m.editID = t.ID
	m.focusedPane = 1
	m.sizeEditor()
}

func (m *Model) sizeEditor() {
	m.noteEditor.SetWidth(m.notesWidth())
	// header: title, blank line, status line
	height := m.contentHeight() - 3 - 1
	if height < 3 {
		height = 3
	}
	m.noteEditor.SetHeight(height)
}

// saveInlineEdit writes the textarea content back to the task.
func (m *Model) saveInlineEdit() {
	if _, err := m.svc.SetNotes(m.ctx, m.editID, m.noteEditor.Value()); err != nil {
		m.setStatus("Save error: " + err.Error())
		return
	}
	m.setStatus("Saved")
}

func (m *Model) applySearchFilter() {
	if m.searchQuery == "" {
		m.searchMatchIDs = nil
		m.searchAncIDs = nil
	} else {
		m.searchMatchIDs, m.searchAncIDs = searchTree(m.roots, m.searchQuery)
		for id := range m.searchAncIDs {
			delete(m.collapsed, id)
		}
	}
	m.rebuildVisible()
}

func (m *Model) clearSearch() {
	m.searchQuery = ""
	m.searchMatchIDs = nil
	m.searchAncIDs = nil
	m.rebuildVisible()
}

func (m *Model) activeSlug() string {
	if m.activeList < len(m.lists) {
		return m.lists[m.activeList].Slug
	}
	return ""
}

func (m *Model) selectList(slug string) {
	for i, l := range m.lists {
		if l.Slug == slug {
			if i != m.activeList {
				m.activeList = i
				m.cursor = 0
				m.reload()
			}
			return
		}
	}
}

func (m *Model) cycleList(delta int) {
	if len(m.lists) == 0 {
		return
	}
	m.activeList = (m.activeList + delta + len(m.lists)) % len(m.lists)
	m.cursor = 0
	m.clearSearch()
	m.reload()
}

func (m *Model) selected() (TreeItem, bool) {
	if m.cursor >= 0 && m.cursor < len(m.visibleItems) {
		return m.visibleItems[m.cursor], true
	}
	return TreeItem{}, false
}

// moveCursorTo positions the cursor on the given task if it is visible.
func (m *Model) moveCursorTo(id int64) {
	for i, item := range m.visibleItems {
		if item.ID == id {
			m.cursor = i
			return
		}
	}
}

// revealTask expands the ancestors of a task and puts the cursor on it.
func (m *Model) revealTask(id int64) {
	for _, it := range tasks.Flatten(m.roots) {
		if it.Task.ID != id {
			continue
		}
		for p := it.Parent; p != nil; p = p.Parent {
			delete(m.collapsed, p.Task.ID)
		}
		break
	}
	m.rebuildVisible()
	m.moveCursorTo(id)
}

func (m *Model) reload() {
	lists, err := m.svc.Lists(m.ctx)
	if err != nil {
		m.setStatus("Load error: " + err.Error())
		return
	}
	if len(lists) == 0 {
		l, err := m.svc.CreateList(m.ctx, m.cfg.DefaultList, "")
		if err != nil {
			m.setStatus("Load error: " + err.Error())
			return
		}
		lists = append(lists, l)
	}

	// keep the active list when lists are added or removed around it
	current := m.activeSlug()
	m.lists = lists
	m.activeList = 0
	for i, l := range lists {
		if l.Slug == current {
			m.activeList = i
		}
	}

	roots, err := m.svc.Tree(m.ctx, m.activeSlug())
	if err != nil {
		m.setStatus("Load error: " + err.Error())
		return
	}
	m.roots = roots
	if m.searchQuery != "" {
		m.searchMatchIDs, m.searchAncIDs = searchTree(m.roots, m.searchQuery)
	}
	m.rebuildVisible()
}

func (m *Model) rebuildVisible() {
	m.visibleItems = FlattenVisibleItems(m.roots, m.collapsed, m.hideDone)

	if m.searchQuery != "" {
		m.visibleItems = FilterVisibleItems(m.visibleItems, m.searchMatchIDs, m.searchAncIDs)
	}

	if m.cursor >= len(m.visibleItems) {
		m.cursor = len(m.visibleItems) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// getGlamourRenderer returns a cached glamour renderer, creating one if needed
// or if the width changed.
func (m *Model) getGlamourRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	if m.glamourRenderer != nil && m.glamourWidth == width {
		return m.glamourRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.log.Warn().Err(err).Msg("create markdown renderer")
		return nil
	}
	m.glamourRenderer = r
	m.glamourWidth = width
	return r
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusTimeout = time.Now().Add(3 * time.Second)
}

func (m *Model) setError(err error) {
	m.log.Debug().Err(err).Msg("action failed")
	m.setStatus("Error: " + err.Error())
}

func (m Model) doSync() tea.Cmd {
	syncer, ctx, dir := m.syncer, m.ctx, m.cfg.DataDir
	return func() tea.Msg {
		if syncer == nil {
			return SyncDoneMsg{Err: errSyncDisabled}
		}
		res, err := syncer.Sync(ctx, dir)
		return SyncDoneMsg{Result: res, Err: err}
	}
}
