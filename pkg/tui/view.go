package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stefanpenner/subtasks/pkg/store"
)

const (
	minWidth  = 40
	minHeight = 10
)

func (m Model) size() (int, int) {
	return max(m.width, minWidth), max(m.height, minHeight)
}

func (m Model) searchActive() bool {
	return m.isSearching || m.searchQuery != ""
}

func (m Model) showNotes() bool {
	return m.cfg.TUI.NotesPane || m.isEditing
}

func (m Model) treeWidth() int {
	w, _ := m.size()
	if !m.showNotes() {
		return w
	}
	return max(w/3, 24)
}

func (m Model) notesWidth() int {
	w, _ := m.size()
	return max(w-m.treeWidth()-1, 20)
}

// contentHeight is the number of rows left for the panels once the header,
// list tabs, separators, footer and search bar are drawn.
func (m Model) contentHeight() int {
	_, h := m.size()
	chrome := 5
	if m.searchActive() {
		chrome++
	}
	return max(h-chrome, 1)
}

// View implements tea.Model.
func (m Model) View() string {
	w, h := m.size()

	if m.showHelpModal {
		return placeOverlay(m.renderHelpModal(), w, h)
	}
	if m.showDeleteConfirm {
		return placeOverlay(m.renderDeleteModal(), w, h)
	}

	var b strings.Builder

	b.WriteString(m.renderHeader(w))
	b.WriteString("\n")
	b.WriteString(m.renderListTabs())
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")

	if m.searchActive() {
		b.WriteString(m.renderSearchBar(w))
		b.WriteString("\n")
	}

	height := m.contentHeight()
	treeWidth := m.treeWidth()
	tree := m.renderTreePanel(treeWidth, height)

	if !m.showNotes() {
		for i := 0; i < height; i++ {
			b.WriteString(getLine(tree, i, treeWidth))
			b.WriteString("\n")
		}
	} else {
		notesWidth := m.notesWidth()
		notes := m.renderNotesPanel(notesWidth, height)

		sepColor := ColorGrayDim
		if m.focusedPane == 1 || m.isEditing {
			sepColor = ColorPurple
		}
		sep := lipgloss.NewStyle().Foreground(sepColor).Render("│")
		for i := 0; i < height; i++ {
			b.WriteString(getLine(tree, i, treeWidth))
			b.WriteString(sep)
			b.WriteString(getLine(notes, i, notesWidth))
			b.WriteString("\n")
		}
	}

	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderHeader(width int) string {
	title := HeaderStyle.Render("subtasks")

	done, total := 0, 0
	for _, it := range m.roots {
		total++
		if it.Task.IsDone() {
			done++
		}
		d, t := it.Progress()
		done += d
		total += t
	}
	stats := HeaderCountStyle.Render(fmt.Sprintf("%d/%d done", done, total))

	status := ""
	if m.statusMsg != "" && time.Now().Before(m.statusTimeout) {
		status = StatusLineStyle.Render(m.statusMsg) + "  "
	}

	gap := max(width-lipgloss.Width(title)-lipgloss.Width(stats)-lipgloss.Width(status), 1)
	return title + strings.Repeat(" ", gap) + status + stats
}

func (m Model) renderListTabs() string {
	var tabs []string
	for i, l := range m.lists {
		if i == m.activeList {
			tabs = append(tabs, ActiveTabStyle.Render(l.Title))
		} else {
			tabs = append(tabs, InactiveTabStyle.Render(l.Title))
		}
	}
	return strings.Join(tabs, "")
}

func (m Model) renderSearchBar(width int) string {
	left := SearchBarStyle.Render(" / " + m.searchQuery)
	if m.isSearching {
		left += SearchBarStyle.Render("█")
	}

	count := ""
	if m.searchQuery != "" {
		count = SearchCountStyle.Render(fmt.Sprintf(" %d matches", len(m.searchMatchIDs)))
	}

	pad := max(width-lipgloss.Width(left)-lipgloss.Width(count), 1)
	return left + strings.Repeat(" ", pad) + count
}

func (m Model) inputLine(depth int) string {
	prompt := "> "
	if m.inputKind == inputList {
		prompt = "+ list: "
	}
	return strings.Repeat(DepthIndent, depth) + InputPromptStyle.Render(prompt) + m.textInput.View()
}

func (m Model) renderTreePanel(width, height int) string {
	var lines []string

	// the last line shows where the data lives
	treeHeight := max(height-1, 1)

	if len(m.visibleItems) == 0 && !m.isInputMode {
		msg := "No tasks yet. Press 'a' to add one."
		if m.searchQuery != "" {
			msg = "No matches."
		}
		lines = append(lines, FooterStyle.Render(msg))
	}

	start, end := scrollWindow(m.cursor, len(m.visibleItems), treeHeight)
	for i := start; i < end; i++ {
		item := m.visibleItems[i]

		if m.isRenameMode && item.ID == m.renameID {
			indent := strings.Repeat(DepthIndent, item.Depth)
			lines = append(lines, indent+InputPromptStyle.Render("✎ ")+m.textInput.View())
			continue
		}

		lines = append(lines, m.renderTreeItem(item, i == m.cursor, width))

		if m.isInputMode && m.inputKind != inputList && i == m.inputInsertAfter {
			lines = append(lines, m.inputLine(m.inputDepth))
		}
	}

	if m.isInputMode && (m.inputKind == inputList || len(m.visibleItems) == 0 ||
		m.inputInsertAfter < start || m.inputInsertAfter >= end) {
		lines = append(lines, m.inputLine(0))
	}

	for len(lines) < treeHeight {
		lines = append(lines, "")
	}
	lines = append(lines, PathStyle.Render(fileHyperlink(m.cfg.DataDir)))

	return strings.Join(lines, "\n")
}

// scrollWindow returns the range of rows to draw so the cursor stays near
// the middle of a panel of the given height.
func scrollWindow(cursor, n, height int) (int, int) {
	if n <= height {
		return 0, n
	}
	start := max(cursor-height/2, 0)
	end := start + height
	if end > n {
		end = n
		start = max(end-height, 0)
	}
	return start, end
}

func statusIcon(s store.Status) string {
	switch s {
	case store.StatusDone:
		return DoneStyle.Render(IconDone)
	case store.StatusDoing:
		return DoingStyle.Render(IconDoing)
	default:
		return TodoStyle.Render(IconTodo)
	}
}

func (m Model) renderTreeItem(item TreeItem, isSelected bool, width int) string {
	indent := strings.Repeat(DepthIndent, item.Depth)

	expandIcon := "  "
	if item.HasChildren {
		if item.IsExpanded {
			expandIcon = IconExpanded + " "
		} else {
			expandIcon = IconCollapsed + " "
		}
	}

	movePrefix := ""
	isMoveTarget := m.isMoveMode && item.ID == m.moveTarget
	if isMoveTarget {
		movePrefix = IconMove + " "
	}

	isSearchMatch := m.searchMatchIDs[item.ID]
	name := item.Name
	switch {
	case isSearchMatch && isSelected:
		name = highlightMatch(name, m.searchQuery, SearchCharSelectedStyle, SelectedStyle)
	case isSearchMatch:
		name = highlightMatch(name, m.searchQuery, SearchCharStyle, SearchRowStyle)
	case item.Task.IsDone() && !isSelected:
		name = DoneTitleStyle.Render(name)
	}

	progress := ""
	if item.Total > 0 {
		progress = ProgressStyle.Render(fmt.Sprintf(" %d/%d", item.Done, item.Total))
	}

	line := indent + movePrefix + expandIcon + statusIcon(item.Task.Status) + " " + name + progress

	if lineWidth := lipgloss.Width(line); lineWidth < width {
		line += strings.Repeat(" ", width-lineWidth)
	}

	switch {
	case isMoveTarget:
		line = MoveStyle.Render(line)
	case isSearchMatch && !isSelected:
		line = SearchRowStyle.Render(line)
	case isSelected:
		line = SelectedStyle.Render(line)
	}
	return line
}

func (m Model) renderMarkdown(md string) string {
	if m.glamourRenderer == nil {
		return md
	}
	out, err := m.glamourRenderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (m Model) renderNotesPanel(width, height int) string {
	item, ok := m.selected()
	if !ok {
		return FooterStyle.Render(" Select a task to view notes")
	}
	task := item.Task

	bodyHeight := max(height-1, 1)

	path := task.FilePath
	if path == "" {
		path = m.cfg.DataDir
	}
	pathLine := PathStyle.Render(fileHyperlink(path))

	header := taskHeader(item)

	var lines []string
	if m.isEditing {
		rendered := strings.TrimRight(m.renderMarkdown(header), "\n ")
		lines = append(lines, strings.Split(rendered, "\n")...)
		lines = append(lines, strings.Split(m.noteEditor.View(), "\n")...)
	} else {
		md := header
		if task.Body != "" {
			md += task.Body + "\n"
		}
		rendered := strings.TrimRight(m.renderMarkdown(md), "\n ")
		lines = strings.Split(rendered, "\n")

		scroll := min(m.notesScroll, len(lines)-1)
		lines = lines[max(scroll, 0):]
	}

	if len(lines) > bodyHeight {
		lines = lines[:bodyHeight]
	}
	for len(lines) < bodyHeight {
		lines = append(lines, "")
	}
	lines = append(lines, pathLine)

	return strings.Join(lines, "\n")
}

// taskHeader builds the markdown title and metadata line shown above a
// task's notes.
func taskHeader(item TreeItem) string {
	t := item.Task
	var md strings.Builder

	md.WriteString("# " + t.Title + "\n\n")

	meta := []string{
		fmt.Sprintf("**#%d**", t.ID),
		"**Status:** " + string(t.Status),
	}
	if item.Total > 0 {
		meta = append(meta, fmt.Sprintf("**Subtasks:** %d/%d", item.Done, item.Total))
	}
	if len(t.Tags) > 0 {
		meta = append(meta, "**Tags:** "+strings.Join(t.Tags, ", "))
	}
	md.WriteString(strings.Join(meta, " | ") + "\n\n")

	return md.String()
}

func (m Model) renderFooter() string {
	help := m.keys.ShortHelp()
	switch {
	case m.isInputMode || m.isRenameMode:
		help = "enter confirm  esc cancel"
	case m.isEditing:
		help = "esc save & exit  ctrl+s save  ctrl+c cancel"
	case m.isSearching:
		help = "type to search  enter/↓ keep filter  esc clear"
	case m.searchQuery != "":
		help = "esc/enter clear filter  ↑↓ nav"
	case m.isMoveMode:
		help = "↑↓ reorder  < outdent  >/→ indent  ← top level  enter/esc exit move"
	case m.focusedPane == 1:
		help = "↑↓ scroll notes  tab tree  e edit  E $EDITOR  ? help"
	}
	return FooterStyle.Render(help)
}

func (m Model) renderHelpModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(ColorBlue).Width(16)
	descStyle := lipgloss.NewStyle().Foreground(ColorWhite)

	for _, binding := range m.keys.FullHelp() {
		b.WriteString(keyStyle.Render(binding[0]))
		b.WriteString(descStyle.Render(binding[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("Press Esc or ? to close"))

	return ModalStyle.Render(b.String())
}

func (m Model) renderDeleteModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Delete Task"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Delete '%s'?\n", m.deleteTarget.Name)
	if m.deleteTarget.HasChildren {
		b.WriteString("Its subtasks move up one level.\n")
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(ColorGreen).Render("[y]") + " Yes  ")
	b.WriteString(lipgloss.NewStyle().Foreground(ColorRed).Render("[n]") + " No")

	return ModalStyle.Render(b.String())
}

// highlightMatch styles the first case-insensitive occurrence of query in
// name with charStyle and the rest of name with rowStyle.
func highlightMatch(name, query string, charStyle, rowStyle lipgloss.Style) string {
	idx := strings.Index(strings.ToLower(name), strings.ToLower(query))
	if idx < 0 || query == "" {
		return rowStyle.Render(name)
	}
	end := idx + len(query)

	var result string
	if idx > 0 {
		result += rowStyle.Render(name[:idx])
	}
	result += charStyle.Render(name[idx:end])
	if end < len(name) {
		result += rowStyle.Render(name[end:])
	}
	return result
}

// fileHyperlink wraps a path in an OSC 8 terminal hyperlink.
func fileHyperlink(path string) string {
	return fmt.Sprintf("\x1b]8;;file://%s\x1b\\%s\x1b]8;;\x1b\\", path, path)
}

func getLine(block string, idx int, width int) string {
	lines := strings.Split(block, "\n")
	if idx >= len(lines) {
		return strings.Repeat(" ", width)
	}
	line := lines[idx]
	if lw := lipgloss.Width(line); lw < width {
		return line + strings.Repeat(" ", width-lw)
	}
	return line
}

func placeOverlay(modal string, width, height int) string {
	modalLines := strings.Split(modal, "\n")

	top := max((height-len(modalLines))/2, 0)
	left := max((width-lipgloss.Width(modalLines[0]))/2, 0)

	var result strings.Builder
	result.WriteString(strings.Repeat("\n", top))
	for _, line := range modalLines {
		result.WriteString(strings.Repeat(" ", left))
		result.WriteString(line)
		result.WriteString("\n")
	}
	return result.String()
}
