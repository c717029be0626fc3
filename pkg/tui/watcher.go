package tui

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/stefanpenner/subtasks/pkg/store/sqlite"
)

const debounceDelay = 200 * time.Millisecond

// Watcher calls notify once a burst of changes to task data under a
// directory has settled.
type Watcher struct {
	watcher *fsnotify.Watcher
	notify  func()
	log     zerolog.Logger

	mu    sync.Mutex
	timer *time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher watches root and every non-hidden directory below it.
func NewWatcher(root string, log zerolog.Logger, notify func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if hidden(d.Name()) && path != root {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
	if err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fw,
		notify:  notify,
		log:     log.With().Str("component", "watcher").Logger(),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Close stops watching. Pending notifications are dropped.
func (w *Watcher) Close() error {
	close(w.done)
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !hidden(info.Name()) {
			if err := w.watcher.Add(event.Name); err != nil {
				w.log.Warn().Err(err).Str("dir", event.Name).Msg("watch new directory")
			}
			return
		}
	}
	if !relevant(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, func() {
		select {
		case <-w.done:
		default:
			w.notify()
		}
	})
}

// relevant reports whether a change to path can alter what the TUI shows:
// markdown task and list files or the SQLite database and its journal.
func relevant(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".md") || strings.HasPrefix(name, sqlite.FileName)
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// StartWatcher watches the data directory and sends FileChangedMsg to
// program on changes.
func StartWatcher(root string, program *tea.Program, log zerolog.Logger) (func(), error) {
	w, err := NewWatcher(root, log, func() { program.Send(FileChangedMsg{}) })
	if err != nil {
		return nil, err
	}
	return func() { _ = w.Close() }, nil
}
