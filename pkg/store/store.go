package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Store manages the filesystem-backed lists and tasks.
type Store struct {
	Root string // e.g., ~/.local/share/subtasks

	now func() time.Time
}

// NewStore creates a Store rooted at the given directory.
// It creates the directory structure if it doesn't exist.
func NewStore(root string) (*Store, error) {
	for _, dir := range []string{"lists", "tasks"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("creating %s directory: %w", dir, err)
		}
	}
	return &Store{Root: root, now: time.Now}, nil
}

// ListsDir returns the path to the lists directory.
func (s *Store) ListsDir() string {
	return filepath.Join(s.Root, "lists")
}

// TasksDir returns the path to the tasks directory.
func (s *Store) TasksDir() string {
	return filepath.Join(s.Root, "tasks")
}

func (s *Store) listPath(slug string) string {
	return filepath.Join(s.ListsDir(), slug+".md")
}

func (s *Store) taskPath(id int64) string {
	return filepath.Join(s.TasksDir(), strconv.FormatInt(id, 10)+".md")
}

// LoadList reads a single list by slug.
func (s *Store) LoadList(_ context.Context, slug string) (*List, error) {
	filePath := s.listPath(slug)
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("list %s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading list %s: %w", slug, err)
	}

	list, err := ParseList(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing list %s: %w", slug, err)
	}
	list.Slug = slug
	list.FilePath = filePath
	if list.Title == "" {
		list.Title = slug
	}
	return list, nil
}

// Lists loads every list, sorted by slug.
func (s *Store) Lists(ctx context.Context) ([]*List, error) {
	entries, err := os.ReadDir(s.ListsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading lists directory: %w", err)
	}

	var lists []*List
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		list, err := s.LoadList(ctx, strings.TrimSuffix(name, ".md"))
		if err != nil {
			continue // skip broken lists
		}
		lists = append(lists, list)
	}
	return lists, nil
}

// CreateList creates a new empty list. The slug is derived from name.
func (s *Store) CreateList(ctx context.Context, name, title string) (*List, error) {
	slug := Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("list name is required")
	}
	if _, err := os.Stat(s.listPath(slug)); err == nil {
		return nil, fmt.Errorf("list %s: %w", slug, ErrExists)
	}
	if title == "" {
		title = name
	}

	now := s.now()
	list := &List{
		Title:   title,
		Created: now,
		Updated: now,
		Slug:    slug,
	}
	if err := s.SaveList(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// SaveList writes a list to disk.
func (s *Store) SaveList(_ context.Context, l *List) error {
	l.Updated = s.now()

	content, err := SerializeList(l)
	if err != nil {
		return fmt.Errorf("serializing list: %w", err)
	}
	l.FilePath = s.listPath(l.Slug)
	return os.WriteFile(l.FilePath, []byte(content), 0644)
}

// DeleteList removes a list and every task in it.
func (s *Store) DeleteList(ctx context.Context, slug string) error {
	if _, err := os.Stat(s.listPath(slug)); os.IsNotExist(err) {
		return fmt.Errorf("list %s: %w", slug, ErrNotFound)
	}

	tasks, err := s.TasksInList(ctx, slug)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := os.Remove(s.taskPath(t.ID)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing task %d: %w", t.ID, err)
		}
	}
	return os.Remove(s.listPath(slug))
}

// LoadTask reads a single task by ID.
func (s *Store) LoadTask(_ context.Context, id int64) (*Task, error) {
	filePath := s.taskPath(id)
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading task %d: %w", id, err)
	}

	task, err := ParseTask(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing task %d: %w", id, err)
	}
	task.ID = id
	task.FilePath = filePath
	if task.Status == "" {
		task.Status = StatusTodo
	}
	return task, nil
}

// allTasks loads every task file, skipping broken ones.
func (s *Store) allTasks(ctx context.Context) ([]*Task, error) {
	entries, err := os.ReadDir(s.TasksDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading tasks directory: %w", err)
	}

	var tasks []*Task
	for _, entry := range entries {
		id, ok := taskIDFromName(entry.Name())
		if entry.IsDir() || !ok {
			continue
		}
		task, err := s.LoadTask(ctx, id)
		if err != nil {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func taskIDFromName(name string) (int64, bool) {
	if !strings.HasSuffix(name, ".md") {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSuffix(name, ".md"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Store) nextID() (int64, error) {
	entries, err := os.ReadDir(s.TasksDir())
	if err != nil {
		return 0, fmt.Errorf("reading tasks directory: %w", err)
	}
	var highest int64
	for _, entry := range entries {
		if id, ok := taskIDFromName(entry.Name()); ok && id > highest {
			highest = id
		}
	}
	return highest + 1, nil
}

// TasksInList returns the tasks of a list in listing order.
func (s *Store) TasksInList(ctx context.Context, list string) ([]*Task, error) {
	all, err := s.allTasks(ctx)
	if err != nil {
		return nil, err
	}

	var tasks []*Task
	for _, t := range all {
		if t.List == list {
			tasks = append(tasks, t)
		}
	}
	SortTasks(tasks)
	return tasks, nil
}

// CreateTask adds an unplaced task at the end of a list.
func (s *Store) CreateTask(ctx context.Context, list, title string) (*Task, error) {
	if _, err := s.LoadList(ctx, list); err != nil {
		return nil, err
	}

	id, err := s.nextID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &Task{
		ID:      id,
		List:    list,
		Title:   title,
		Status:  StatusTodo,
		Created: now,
		Updated: now,
	}
	if err := s.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// SaveTask writes a task to disk and stamps its update time.
func (s *Store) SaveTask(_ context.Context, t *Task) error {
	t.Updated = s.now()
	return s.writeTask(t)
}

func (s *Store) writeTask(t *Task) error {
	content, err := SerializeTask(t)
	if err != nil {
		return fmt.Errorf("serializing task: %w", err)
	}
	t.FilePath = s.taskPath(t.ID)
	return os.WriteFile(t.FilePath, []byte(content), 0644)
}

// DeleteTask removes a task file.
func (s *Store) DeleteTask(_ context.Context, id int64) error {
	err := os.Remove(s.taskPath(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return err
}

// AddNote appends a note entry to a task's body.
func (s *Store) AddNote(ctx context.Context, id int64, text string) (*Task, error) {
	task, err := s.LoadTask(ctx, id)
	if err != nil {
		return nil, err
	}

	task.Body = AppendNote(task.Body, text, s.now())
	if err := s.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// SearchTasks searches every task's title and notes for query. Results are
// grouped by list slug, in listing order within a list.
func (s *Store) SearchTasks(ctx context.Context, query string) ([]*Task, error) {
	all, err := s.allTasks(ctx)
	if err != nil {
		return nil, err
	}

	byList := make(map[string][]*Task)
	for _, t := range all {
		if t.Matches(query) {
			byList[t.List] = append(byList[t.List], t)
		}
	}

	slugs := make([]string, 0, len(byList))
	for slug := range byList {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	var matches []*Task
	for _, slug := range slugs {
		SortTasks(byList[slug])
		matches = append(matches, byList[slug]...)
	}
	return matches, nil
}

// IsNotFound reports whether err means a missing list or task.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
