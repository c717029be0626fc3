// Package ordered keeps a tree of tasks encoded as a flat list of
// (order, indent, parent) records consistent while tasks are indented,
// moved and deleted.
//
// A list is read in its current order through a Lister. For structural
// edits the updater rebuilds the forest from the indent values, edits it,
// then writes every record back in pre-order: order becomes the pre-order
// rank, indent the depth, and parent the enclosing task.
package ordered

import (
	"context"
	"fmt"
)

// Store loads and persists records by task ID.
type Store[L comparable] interface {
	// Get returns the record for a task, or nil if the task has none.
	Get(ctx context.Context, taskID int64) (*Record, error)
	// CreateEmpty returns a new unsaved record for a task in list.
	CreateEmpty(ctx context.Context, list L, taskID int64) (*Record, error)
	// Save persists the record's current values.
	Save(ctx context.Context, rec *Record) error
}

// Lister enumerates the tasks of a list in the list's current order.
// The record is nil for tasks without one. Returning an error from fn
// stops the iteration with that error.
type Lister[L comparable] interface {
	Iterate(ctx context.Context, list L, fn func(taskID int64, rec *Record) error) error
}

// Hooks are called around structural changes.
type Hooks[L comparable] interface {
	BeforeIndent(ctx context.Context, list L) error
	OnMovedOrIndented(ctx context.Context, rec *Record) error
}

// NopHooks does nothing.
type NopHooks[L comparable] struct{}

func (NopHooks[L]) BeforeIndent(context.Context, L) error            { return nil }
func (NopHooks[L]) OnMovedOrIndented(context.Context, *Record) error { return nil }

// Node describes a task's place in a rebuilt tree.
type Node struct {
	TaskID   int64
	ParentID int64
	Depth    int // equal to the indent the task is written with
	Position int // index among its siblings
}

// Visitor is called for each node of a traversal.
type Visitor func(Node) error

// Updater applies structural edits to the lists of one kind.
// Operations on the zero list handle do nothing.
type Updater[L comparable] struct {
	Store  Store[L]
	Lister Lister[L]
	Hooks  Hooks[L]

	// IgnoreParent disables maintenance of Record.Parent for lists that
	// only track order and indent.
	IgnoreParent bool
}

func (u *Updater[L]) hooks() Hooks[L] {
	if u.Hooks == nil {
		return NopHooks[L]{}
	}
	return u.Hooks
}

func absent[L comparable](list L) bool {
	var zero L
	return list == zero
}

func (u *Updater[L]) save(ctx context.Context, rec *Record) error {
	if !rec.NeedsSave() {
		return nil
	}
	if err := u.Store.Save(ctx, rec); err != nil {
		return fmt.Errorf("saving record %d: %w", rec.TaskID, err)
	}
	rec.MarkSaved()
	return nil
}

func (u *Updater[L]) notifyTarget(ctx context.Context, taskID int64) error {
	rec, err := u.Store.Get(ctx, taskID)
	if err != nil {
		return fmt.Errorf("loading record %d: %w", taskID, err)
	}
	if rec == nil {
		return nil
	}
	return u.hooks().OnMovedOrIndented(ctx, rec)
}

// MoveTo moves a task and its subtree so that it sits right before the
// task beforeID, taking that task's parent and indent. With beforeID ==
// NoID the task becomes the last top-level task. Moving a task before one
// of its own descendants is ignored. The whole list is renumbered either
// way.
func (u *Updater[L]) MoveTo(ctx context.Context, list L, targetID, beforeID int64) error {
	if absent(list) {
		return nil
	}

	t, err := u.buildTree(ctx, list)
	if err != nil {
		return err
	}

	if target := t.find(targetID); target != noNode {
		if beforeID == NoID {
			t.detach(target)
			t.insert(target, rootIndex, len(t.nodes[rootIndex].children))
		} else if sibling := t.find(beforeID); sibling != noNode && !t.ancestorOf(target, sibling) {
			newParent := t.nodes[sibling].parent
			index := t.position(sibling)
			if t.nodes[target].parent == newParent && t.position(target) < index {
				index--
			}
			t.detach(target)
			t.insert(target, newParent, index)
		}
	}

	if err := u.flush(ctx, list, t, rootIndex, &flushState{}); err != nil {
		return err
	}
	return u.notifyTarget(ctx, targetID)
}

// OnDeleteTask removes a task from the hierarchy. Its children take its
// place under its former parent, in their original order.
func (u *Updater[L]) OnDeleteTask(ctx context.Context, list L, targetID int64) error {
	if absent(list) {
		return nil
	}

	t, err := u.buildTree(ctx, list)
	if err != nil {
		return err
	}

	if target := t.find(targetID); target != noNode {
		parent := t.nodes[target].parent
		index := t.detach(target)
		for _, child := range t.nodes[target].children {
			t.insert(child, parent, index)
			index++
		}
		t.nodes[target].children = nil
	}

	return u.flush(ctx, list, t, rootIndex, &flushState{})
}

// ApplyToChildren calls visit for every descendant of a task in
// pre-order. The task itself is not visited.
func (u *Updater[L]) ApplyToChildren(ctx context.Context, list L, targetID int64, visit Visitor) error {
	if absent(list) {
		return nil
	}

	t, err := u.buildTree(ctx, list)
	if err != nil {
		return err
	}

	target := t.find(targetID)
	if target == noNode {
		return nil
	}
	return t.walk(target, func(n, depth int) error {
		return visit(t.view(n, depth))
	})
}

// Walk calls visit for every task of the list in pre-order.
func (u *Updater[L]) Walk(ctx context.Context, list L, visit Visitor) error {
	if absent(list) {
		return nil
	}

	t, err := u.buildTree(ctx, list)
	if err != nil {
		return err
	}
	return t.walk(rootIndex, func(n, depth int) error {
		return visit(t.view(n, depth))
	})
}

// Normalize rewrites every record of the list from its rebuilt tree
// without changing its shape.
func (u *Updater[L]) Normalize(ctx context.Context, list L) error {
	if absent(list) {
		return nil
	}

	t, err := u.buildTree(ctx, list)
	if err != nil {
		return err
	}
	return u.flush(ctx, list, t, rootIndex, &flushState{})
}
