package store

import (
	"sort"
	"time"
)

// Status represents the completion state of a task.
type Status string

const (
	StatusTodo  Status = "todo"
	StatusDoing Status = "doing"
	StatusDone  Status = "done"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusDone:
		return true
	}
	return false
}

// Next cycles todo → doing → done → todo.
func (s Status) Next() Status {
	switch s {
	case StatusTodo:
		return StatusDoing
	case StatusDoing:
		return StatusDone
	default:
		return StatusTodo
	}
}

// Outline is a task's placement inside its list.
type Outline struct {
	Order  int64 `yaml:"order"`
	Indent int   `yaml:"indent"`
	Parent int64 `yaml:"parent,omitempty"`
}

// List is a named, ordered collection of tasks loaded from lists/<slug>.md.
type List struct {
	Title   string    `yaml:"title"`
	Created time.Time `yaml:"created"`
	Updated time.Time `yaml:"updated"`

	// Description, parsed from the markdown body
	Body string `yaml:"-"`

	Slug     string `yaml:"-"` // file name without extension
	FilePath string `yaml:"-"`
}

// Task is a single entry of a list loaded from tasks/<id>.md.
type Task struct {
	ID      int64     `yaml:"id"`
	List    string    `yaml:"list"`
	Title   string    `yaml:"title"`
	Status  Status    `yaml:"status"`
	Created time.Time `yaml:"created"`
	Updated time.Time `yaml:"updated"`
	Tags    []string  `yaml:"tags,omitempty"`

	// Outline is nil until the task has been placed in its list.
	Outline *Outline `yaml:"outline,omitempty"`

	// Notes, parsed from the markdown body
	Body string `yaml:"-"`

	FilePath string `yaml:"-"`
}

// IsDone returns true if the task is marked done.
func (t *Task) IsDone() bool {
	return t.Status == StatusDone
}

// Indent returns the task's outline depth, 0 when unplaced.
func (t *Task) Indent() int {
	if t.Outline == nil {
		return 0
	}
	return t.Outline.Indent
}

// SortTasks orders tasks the way a list is read: placed tasks by
// (order, id), then unplaced tasks by id.
func SortTasks(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if (a.Outline == nil) != (b.Outline == nil) {
			return a.Outline != nil
		}
		if a.Outline != nil && a.Outline.Order != b.Outline.Order {
			return a.Outline.Order < b.Outline.Order
		}
		return a.ID < b.ID
	})
}
