package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/stefanpenner/subtasks/pkg/store"
	"github.com/stefanpenner/subtasks/pkg/tasks"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func taskToMap(t *store.Task) map[string]any {
	m := map[string]any{
		"id":     t.ID,
		"list":   t.List,
		"title":  t.Title,
		"status": string(t.Status),
		"tags":   t.Tags,
		"body":   t.Body,
	}
	if t.Outline != nil {
		m["order"] = t.Outline.Order
		m["indent"] = t.Outline.Indent
		m["parent"] = t.Outline.Parent
	}
	if !t.Created.IsZero() {
		m["created"] = t.Created.UTC().Format(time.RFC3339)
	}
	if !t.Updated.IsZero() {
		m["updated"] = t.Updated.UTC().Format(time.RFC3339)
	}
	return m
}

func tasksToMap(ts []*store.Task) []map[string]any {
	result := []map[string]any{}
	for _, t := range ts {
		result = append(result, taskToMap(t))
	}
	return result
}

func itemsToMap(items []*tasks.Item) []map[string]any {
	result := []map[string]any{}
	for _, it := range items {
		m := taskToMap(it.Task)
		if it.HasChildren() {
			m["children"] = itemsToMap(it.Children)
		}
		result = append(result, m)
	}
	return result
}

func listToMap(l *store.List) map[string]any {
	return map[string]any{
		"slug":  l.Slug,
		"title": l.Title,
		"body":  l.Body,
	}
}

func statusMark(s store.Status) string {
	switch s {
	case store.StatusDone:
		return "✓"
	case store.StatusDoing:
		return "◐"
	default:
		return "○"
	}
}

// printTree writes items as an indented outline. Done items are left out
// when hideDone is set, along with their subtrees.
func printTree(w io.Writer, items []*tasks.Item, hideDone bool) {
	for _, it := range items {
		if hideDone && it.Task.IsDone() {
			continue
		}
		progress := ""
		if it.HasChildren() {
			done, total := it.Progress()
			progress = fmt.Sprintf(" (%d/%d)", done, total)
		}
		_, _ = fmt.Fprintf(w, "%s%s #%d %s%s\n",
			strings.Repeat("  ", it.Depth), statusMark(it.Task.Status), it.Task.ID, it.Task.Title, progress)
		printTree(w, it.Children, hideDone)
	}
}

func printTask(w io.Writer, t *store.Task) {
	_, _ = fmt.Fprintf(w, "%s #%d %s [%s]\n", statusMark(t.Status), t.ID, t.Title, t.List)
}
