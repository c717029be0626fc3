package tui

import (
	"github.com/stefanpenner/subtasks/pkg/store"
	"github.com/stefanpenner/subtasks/pkg/tasks"
)

// TreeItem is one visible row of the outline.
type TreeItem struct {
	ID          int64
	ParentID    int64
	Name        string
	Task        *store.Task
	Depth       int
	HasChildren bool
	IsExpanded  bool
	Done        int
	Total       int
}

// FlattenVisibleItems returns the rows to draw for roots. Subtrees of
// collapsed items are skipped, as are done items (with their subtrees)
// when hideDone is set.
func FlattenVisibleItems(roots []*tasks.Item, collapsed map[int64]bool, hideDone bool) []TreeItem {
	var result []TreeItem
	flattenItems(roots, collapsed, hideDone, &result)
	return result
}

func flattenItems(items []*tasks.Item, collapsed map[int64]bool, hideDone bool, result *[]TreeItem) {
	for _, it := range items {
		if hideDone && it.Task.IsDone() {
			continue
		}
		row := TreeItem{
			ID:          it.Task.ID,
			Name:        it.Task.Title,
			Task:        it.Task,
			Depth:       it.Depth,
			HasChildren: it.HasChildren(),
			IsExpanded:  it.HasChildren() && !collapsed[it.Task.ID],
		}
		if it.Parent != nil {
			row.ParentID = it.Parent.Task.ID
		}
		row.Done, row.Total = it.Progress()
		*result = append(*result, row)

		if row.IsExpanded {
			flattenItems(it.Children, collapsed, hideDone, result)
		}
	}
}

// FilterVisibleItems filters already-flattened visible items to only include
// items whose ID is in matchIDs or ancestorIDs.
func FilterVisibleItems(items []TreeItem, matchIDs, ancestorIDs map[int64]bool) []TreeItem {
	var result []TreeItem
	for _, item := range items {
		if matchIDs[item.ID] || ancestorIDs[item.ID] {
			result = append(result, item)
		}
	}
	return result
}

// searchTree marks the items matching query and the ancestors that lead to
// them.
func searchTree(roots []*tasks.Item, query string) (matches, ancestors map[int64]bool) {
	matches = make(map[int64]bool)
	ancestors = make(map[int64]bool)
	for _, it := range tasks.Flatten(roots) {
		if !it.Task.Matches(query) {
			continue
		}
		matches[it.Task.ID] = true
		for p := it.Parent; p != nil && !ancestors[p.Task.ID]; p = p.Parent {
			ancestors[p.Task.ID] = true
		}
	}
	return matches, ancestors
}
