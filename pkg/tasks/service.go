// Package tasks implements the outline operations on top of a storage
// backend: adding, nesting, moving, completing and deleting tasks.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stefanpenner/subtasks/pkg/ordered"
	"github.com/stefanpenner/subtasks/pkg/store"
)

var (
	ErrEmptyTitle    = errors.New("title is required")
	ErrInvalidStatus = errors.New("invalid status")
	ErrCrossList     = errors.New("tasks belong to different lists")
)

// Backend is a list and task store that also keeps outline records.
// Both the markdown file store and the SQLite store satisfy it.
type Backend interface {
	ordered.Store[string]
	ordered.Lister[string]

	CreateList(ctx context.Context, name, title string) (*store.List, error)
	LoadList(ctx context.Context, slug string) (*store.List, error)
	Lists(ctx context.Context) ([]*store.List, error)
	SaveList(ctx context.Context, l *store.List) error
	DeleteList(ctx context.Context, slug string) error

	CreateTask(ctx context.Context, list, title string) (*store.Task, error)
	LoadTask(ctx context.Context, id int64) (*store.Task, error)
	SaveTask(ctx context.Context, t *store.Task) error
	DeleteTask(ctx context.Context, id int64) error
	TasksInList(ctx context.Context, list string) ([]*store.Task, error)
	SearchTasks(ctx context.Context, query string) ([]*store.Task, error)
	AddNote(ctx context.Context, id int64, text string) (*store.Task, error)
}

// Option configures a Service.
type Option func(*Service)

// WithIgnoreParent stops the service from maintaining parent references;
// only order and indent are kept.
func WithIgnoreParent(ignore bool) Option {
	return func(s *Service) { s.updater.IgnoreParent = ignore }
}

// WithOnChange registers a callback run after every change to a list.
func WithOnChange(fn func(list string)) Option {
	return func(s *Service) { s.onChange = fn }
}

// Service applies task operations and keeps every list's outline consistent.
type Service struct {
	backend  Backend
	updater  *ordered.Updater[string]
	log      zerolog.Logger
	onChange func(list string)
}

// NewService creates a Service over backend.
func NewService(backend Backend, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		log:     log.With().Str("component", "tasks").Logger(),
	}
	s.updater = &ordered.Updater[string]{
		Store:  backend,
		Lister: backend,
		Hooks:  &hooks{s: s},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying store.
func (s *Service) Backend() Backend {
	return s.backend
}

func (s *Service) changed(list string) {
	if s.onChange != nil {
		s.onChange(list)
	}
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}

// CreateList creates an empty list.
func (s *Service) CreateList(ctx context.Context, name, title string) (*store.List, error) {
	list, err := s.backend.CreateList(ctx, name, strings.TrimSpace(title))
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("list", list.Slug).Msg("list created")
	return list, nil
}

// Lists returns every list.
func (s *Service) Lists(ctx context.Context) ([]*store.List, error) {
	return s.backend.Lists(ctx)
}

// DeleteList removes a list with all of its tasks.
func (s *Service) DeleteList(ctx context.Context, slug string) error {
	if err := s.backend.DeleteList(ctx, slug); err != nil {
		return err
	}
	s.log.Info().Str("list", slug).Msg("list deleted")
	s.changed(slug)
	return nil
}

// Task loads a single task.
func (s *Service) Task(ctx context.Context, id int64) (*store.Task, error) {
	return s.backend.LoadTask(ctx, id)
}

// AddTask appends a new top-level task to the end of a list.
func (s *Service) AddTask(ctx context.Context, list, title string) (*store.Task, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	task, err := s.backend.CreateTask(ctx, list, title)
	if err != nil {
		return nil, err
	}
	if err := s.updater.MoveTo(ctx, list, task.ID, ordered.NoID); err != nil {
		return nil, fmt.Errorf("placing task %d: %w", task.ID, err)
	}

	s.log.Debug().Int64("task", task.ID).Str("list", list).Msg("task added")
	s.changed(list)
	return s.backend.LoadTask(ctx, task.ID)
}

// AddSubtask adds a new task as the last child of parentID.
func (s *Service) AddSubtask(ctx context.Context, parentID int64, title string) (*store.Task, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	parent, err := s.backend.LoadTask(ctx, parentID)
	if err != nil {
		return nil, err
	}
	list := parent.List

	// Make sure the parent and its subtree have dense placements to
	// append after.
	if err := s.updater.Normalize(ctx, list); err != nil {
		return nil, err
	}
	parent, err = s.backend.LoadTask(ctx, parentID)
	if err != nil {
		return nil, err
	}

	last := parent
	err = s.updater.ApplyToChildren(ctx, list, parentID, func(n ordered.Node) error {
		t, err := s.backend.LoadTask(ctx, n.TaskID)
		if err != nil {
			return err
		}
		last = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	task, err := s.backend.CreateTask(ctx, list, title)
	if err != nil {
		return nil, err
	}
	// Sharing the last descendant's order puts the new task right after
	// it: ties are broken by ID and the new ID is the largest.
	task.Outline = &store.Outline{
		Order:  last.Outline.Order,
		Indent: parent.Outline.Indent + 1,
		Parent: parentID,
	}
	if s.updater.IgnoreParent {
		task.Outline.Parent = ordered.NoID
	}
	if err := s.backend.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	if err := s.updater.Normalize(ctx, list); err != nil {
		return nil, err
	}

	s.log.Debug().Int64("task", task.ID).Int64("parent", parentID).Msg("subtask added")
	s.changed(list)
	return s.backend.LoadTask(ctx, task.ID)
}

// Indent nests a task one level deeper under the task before it.
// Refused changes leave the outline as it was.
func (s *Service) Indent(ctx context.Context, id int64) error {
	return s.shift(ctx, id, 1)
}

// Outdent moves a task one level up.
func (s *Service) Outdent(ctx context.Context, id int64) error {
	return s.shift(ctx, id, -1)
}

func (s *Service) shift(ctx context.Context, id int64, delta int) error {
	task, err := s.backend.LoadTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.updater.Indent(ctx, task.List, id, delta); err != nil {
		return err
	}
	s.changed(task.List)
	return nil
}

// MoveBefore moves a task with its subtree right before another task of the
// same list, taking that task's parent. Moving a task into its own subtree
// is ignored.
func (s *Service) MoveBefore(ctx context.Context, id, beforeID int64) error {
	task, err := s.backend.LoadTask(ctx, id)
	if err != nil {
		return err
	}
	before, err := s.backend.LoadTask(ctx, beforeID)
	if err != nil {
		return err
	}
	if task.List != before.List {
		return fmt.Errorf("moving %d before %d: %w", id, beforeID, ErrCrossList)
	}

	if err := s.updater.MoveTo(ctx, task.List, id, beforeID); err != nil {
		return err
	}
	s.changed(task.List)
	return nil
}

// MoveToRoot moves a task with its subtree to the end of its list as a
// top-level task.
func (s *Service) MoveToRoot(ctx context.Context, id int64) error {
	task, err := s.backend.LoadTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.updater.MoveTo(ctx, task.List, id, ordered.NoID); err != nil {
		return err
	}
	s.changed(task.List)
	return nil
}

// siblings returns the tasks sharing id's parent, in order.
func (s *Service) siblings(ctx context.Context, list string, id int64) ([]int64, int, error) {
	var (
		parent = int64(-1)
		nodes  []ordered.Node
	)
	err := s.updater.Walk(ctx, list, func(n ordered.Node) error {
		nodes = append(nodes, n)
		if n.TaskID == id {
			parent = n.ParentID
		}
		return nil
	})
	if err != nil {
		return nil, -1, err
	}

	var ids []int64
	at := -1
	for _, n := range nodes {
		if n.ParentID != parent {
			continue
		}
		if n.TaskID == id {
			at = len(ids)
		}
		ids = append(ids, n.TaskID)
	}
	return ids, at, nil
}

// MoveUp swaps a task with its previous sibling. It does nothing for the
// first child.
func (s *Service) MoveUp(ctx context.Context, id int64) error {
	task, err := s.backend.LoadTask(ctx, id)
	if err != nil {
		return err
	}
	ids, at, err := s.siblings(ctx, task.List, id)
	if err != nil || at <= 0 {
		return err
	}
	return s.MoveBefore(ctx, id, ids[at-1])
}

// MoveDown swaps a task with its next sibling. It does nothing for the last
// child.
func (s *Service) MoveDown(ctx context.Context, id int64) error {
	task, err := s.backend.LoadTask(ctx, id)
	if err != nil {
		return err
	}
	ids, at, err := s.siblings(ctx, task.List, id)
	if err != nil || at < 0 || at >= len(ids)-1 {
		return err
	}
	return s.MoveBefore(ctx, ids[at+1], id)
}

// Delete removes a task. Its children take its place.
func (s *Service) Delete(ctx context.Context, id int64) error {
	task, err := s.backend.LoadTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.updater.OnDeleteTask(ctx, task.List, id); err != nil {
		return err
	}
	if err := s.backend.DeleteTask(ctx, id); err != nil {
		return err
	}

	s.log.Info().Int64("task", id).Str("list", task.List).Msg("task deleted")
	s.changed(task.List)
	return nil
}

// SetStatus changes a task's status. Marking a task done marks every task
// beneath it done as well.
func (s *Service) SetStatus(ctx context.Context, id int64, status store.Status) (*store.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%q: %w", status, ErrInvalidStatus)
	}

	task, err := s.backend.LoadTask(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Status = status
	if err := s.backend.SaveTask(ctx, task); err != nil {
		return nil, err
	}

	if status == store.StatusDone {
		var descendants []int64
		err := s.updater.ApplyToChildren(ctx, task.List, id, func(n ordered.Node) error {
			descendants = append(descendants, n.TaskID)
			return nil
		})
		if err != nil {
			return nil, err
		}
		for _, childID := range descendants {
			child, err := s.backend.LoadTask(ctx, childID)
			if err != nil {
				return nil, err
			}
			if child.Status == store.StatusDone {
				continue
			}
			child.Status = store.StatusDone
			if err := s.backend.SaveTask(ctx, child); err != nil {
				return nil, err
			}
		}
		s.log.Debug().Int64("task", id).Int("descendants", len(descendants)).Msg("task completed")
	}

	s.changed(task.List)
	return task, nil
}

// CycleStatus advances a task todo → doing → done → todo.
func (s *Service) CycleStatus(ctx context.Context, id int64) (*store.Task, error) {
	task, err := s.backend.LoadTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SetStatus(ctx, id, task.Status.Next())
}

// Rename changes a task's title.
func (s *Service) Rename(ctx context.Context, id int64, title string) (*store.Task, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}
	task, err := s.backend.LoadTask(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Title = title
	if err := s.backend.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	s.changed(task.List)
	return task, nil
}

// SetNotes replaces a task's notes.
func (s *Service) SetNotes(ctx context.Context, id int64, body string) (*store.Task, error) {
	task, err := s.backend.LoadTask(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Body = body
	if err := s.backend.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	s.changed(task.List)
	return task, nil
}

// AddNote appends a dated note to a task.
func (s *Service) AddNote(ctx context.Context, id int64, text string) (*store.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("note text is required")
	}
	task, err := s.backend.AddNote(ctx, id, text)
	if err != nil {
		return nil, err
	}
	s.changed(task.List)
	return task, nil
}

// Search finds tasks whose title or notes contain query.
func (s *Service) Search(ctx context.Context, query string) ([]*store.Task, error) {
	return s.backend.SearchTasks(ctx, query)
}

// Normalize rewrites a list's outline records from its indents, repairing
// stale parents and gaps in the order.
func (s *Service) Normalize(ctx context.Context, list string) error {
	if _, err := s.backend.LoadList(ctx, list); err != nil {
		return err
	}
	if err := s.updater.Normalize(ctx, list); err != nil {
		return err
	}
	s.changed(list)
	return nil
}
