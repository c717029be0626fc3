package tui

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stefanpenner/subtasks/pkg/store"
)

var errSyncDisabled = errors.New("git sync is not configured")

// openEditor writes the task's notes to a temporary markdown file and
// opens it in the configured editor. The file is read back when the
// editor exits, so both storage backends are edited the same way.
func (m *Model) openEditor(t *store.Task) tea.Cmd {
	f, err := os.CreateTemp("", fmt.Sprintf("subtasks-%d-*.md", t.ID))
	if err != nil {
		m.setError(err)
		return nil
	}
	path := f.Name()
	_, err = f.WriteString(t.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		m.setError(err)
		return nil
	}

	args := strings.Fields(m.cfg.EditorCommand())
	c := exec.Command(args[0], append(args[1:], path)...)
	id := t.ID
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return EditorFinishedMsg{TaskID: id, Path: path, Err: err}
	})
}

func (m *Model) finishExternalEdit(msg EditorFinishedMsg) {
	defer func() { _ = os.Remove(msg.Path) }()

	if msg.Err != nil {
		m.setStatus("Editor failed: " + msg.Err.Error())
		return
	}
	data, err := os.ReadFile(msg.Path)
	if err != nil {
		m.setError(err)
		return
	}

	t, err := m.svc.Task(m.ctx, msg.TaskID)
	if err != nil {
		m.setError(err)
		return
	}
	body := strings.TrimRight(string(data), "\n")
	if body == strings.TrimRight(t.Body, "\n") {
		return
	}
	if _, err := m.svc.SetNotes(m.ctx, msg.TaskID, body); err != nil {
		m.setError(err)
		return
	}
	m.setStatus("Saved notes")
	m.reload()
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
