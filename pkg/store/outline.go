package store

import (
	"context"
	"fmt"

	"github.com/stefanpenner/subtasks/pkg/ordered"
)

var (
	_ ordered.Store[string]  = (*Store)(nil)
	_ ordered.Lister[string] = (*Store)(nil)
)

// Record converts a task's outline into an ordered record, or nil when the
// task has not been placed yet.
func (t *Task) Record() *ordered.Record {
	if t.Outline == nil {
		return nil
	}
	return ordered.LoadedRecord(t.ID, t.Outline.Order, t.Outline.Indent, t.Outline.Parent)
}

// Get returns the outline record of a task. Missing tasks and unplaced
// tasks both yield nil.
func (s *Store) Get(ctx context.Context, taskID int64) (*ordered.Record, error) {
	task, err := s.LoadTask(ctx, taskID)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task.Record(), nil
}

// CreateEmpty returns a fresh unsaved record.
func (s *Store) CreateEmpty(_ context.Context, _ string, taskID int64) (*ordered.Record, error) {
	return ordered.NewRecord(taskID), nil
}

// Save writes a record into its task's outline. The task's update time is
// left alone.
func (s *Store) Save(ctx context.Context, rec *ordered.Record) error {
	task, err := s.LoadTask(ctx, rec.TaskID)
	if err != nil {
		return err
	}
	task.Outline = &Outline{Order: rec.Order, Indent: rec.Indent, Parent: rec.Parent}
	return s.writeTask(task)
}

// Iterate walks a list in listing order. The list is read once up front.
func (s *Store) Iterate(ctx context.Context, list string, fn func(int64, *ordered.Record) error) error {
	tasks, err := s.TasksInList(ctx, list)
	if err != nil {
		return fmt.Errorf("listing %s: %w", list, err)
	}
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(t.ID, t.Record()); err != nil {
			return err
		}
	}
	return nil
}
