package tasks

import (
	"context"
	"fmt"

	"github.com/stefanpenner/subtasks/pkg/ordered"
	"github.com/stefanpenner/subtasks/pkg/store"
)

// Item is a task placed in its list's outline.
type Item struct {
	Task     *store.Task
	Depth    int
	Parent   *Item
	Children []*Item
}

// HasChildren reports whether the item has subtasks.
func (i *Item) HasChildren() bool {
	return len(i.Children) > 0
}

// Progress counts the done tasks beneath the item.
func (i *Item) Progress() (done, total int) {
	for _, c := range i.Children {
		total++
		if c.Task.IsDone() {
			done++
		}
		d, t := c.Progress()
		done += d
		total += t
	}
	return done, total
}

// Tree returns the top-level items of a list with their subtasks nested.
func (s *Service) Tree(ctx context.Context, list string) ([]*Item, error) {
	tasks, err := s.backend.TasksInList(ctx, list)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*store.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	var roots []*Item
	items := make(map[int64]*Item, len(tasks))
	err = s.updater.Walk(ctx, list, func(n ordered.Node) error {
		task, ok := byID[n.TaskID]
		if !ok {
			return fmt.Errorf("task %d: %w", n.TaskID, store.ErrNotFound)
		}
		item := &Item{Task: task, Depth: n.Depth}
		items[n.TaskID] = item

		if parent, ok := items[n.ParentID]; ok && n.ParentID != ordered.NoID {
			item.Parent = parent
			parent.Children = append(parent.Children, item)
		} else {
			roots = append(roots, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roots, nil
}

// Flatten returns items and their descendants in pre-order.
func Flatten(items []*Item) []*Item {
	var out []*Item
	var walk func([]*Item)
	walk = func(items []*Item) {
		for _, it := range items {
			out = append(out, it)
			walk(it.Children)
		}
	}
	walk(items)
	return out
}
