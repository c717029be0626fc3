package ordered

import (
	"context"
	"fmt"
	"slices"
)

const (
	rootIndex = 0
	noNode    = -1
)

type node struct {
	taskID   int64
	parent   int
	children []int
}

// tree is an arena of nodes rebuilt from a list for a single operation.
// Index 0 is the synthetic root.
type tree struct {
	nodes []node
	byID  map[int64]int
}

func newTree() *tree {
	return &tree{
		nodes: []node{{taskID: NoID, parent: noNode}},
		byID:  make(map[int64]int),
	}
}

// add appends a new node as the last child of parent.
func (t *tree) add(taskID int64, parent int) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{taskID: taskID, parent: parent})
	t.nodes[parent].children = append(t.nodes[parent].children, idx)
	if _, ok := t.byID[taskID]; !ok {
		t.byID[taskID] = idx
	}
	return idx
}

// find returns the node for taskID, or noNode. The root is never found.
func (t *tree) find(taskID int64) int {
	if idx, ok := t.byID[taskID]; ok {
		return idx
	}
	return noNode
}

// position returns the index of child among the children of its parent.
func (t *tree) position(child int) int {
	p := t.nodes[child].parent
	if p == noNode {
		return -1
	}
	return slices.Index(t.nodes[p].children, child)
}

// detach removes n from its parent's children and returns its former index.
func (t *tree) detach(n int) int {
	p := t.nodes[n].parent
	i := t.position(n)
	if i >= 0 {
		t.nodes[p].children = slices.Delete(t.nodes[p].children, i, i+1)
	}
	t.nodes[n].parent = noNode
	return i
}

// insert places n among parent's children at index i.
func (t *tree) insert(n, parent, i int) {
	t.nodes[parent].children = slices.Insert(t.nodes[parent].children, i, n)
	t.nodes[n].parent = parent
}

// ancestorOf reports whether a is a proper ancestor of d.
func (t *tree) ancestorOf(a, d int) bool {
	for p := t.nodes[d].parent; p != noNode; p = t.nodes[p].parent {
		if p == a {
			return true
		}
	}
	return false
}

// walk visits every strict descendant of start in pre-order.
func (t *tree) walk(start int, visit func(n, depth int) error) error {
	type frame struct{ n, depth int }
	startDepth := t.depth(start)

	stack := make([]frame, 0, len(t.nodes))
	children := t.nodes[start].children
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, frame{children[i], startDepth + 1})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := visit(f.n, f.depth); err != nil {
			return err
		}
		children := t.nodes[f.n].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], f.depth + 1})
		}
	}
	return nil
}

// depth returns the indent a node is written with; the root sits at -1.
func (t *tree) depth(n int) int {
	d := -1
	for p := t.nodes[n].parent; p != noNode; p = t.nodes[p].parent {
		d++
	}
	return d
}

func (t *tree) view(n, depth int) Node {
	return Node{
		TaskID:   t.nodes[n].taskID,
		ParentID: t.nodes[t.nodes[n].parent].taskID,
		Depth:    depth,
		Position: t.position(n),
	}
}

// buildTree reads the list in its current order and rebuilds the forest
// encoded by the indent values.
func (u *Updater[L]) buildTree(ctx context.Context, list L) (*tree, error) {
	t := newTree()
	current := rootIndex
	previousIndent := -1

	err := u.Lister.Iterate(ctx, list, func(taskID int64, rec *Record) error {
		indent := 0
		if rec != nil && rec.Indent > 0 {
			indent = rec.Indent
		}

		var parent int
		switch {
		case indent == previousIndent:
			parent = t.nodes[current].parent
		case indent > previousIndent:
			parent = current
		default:
			parent = t.nodes[current].parent
			for i := indent; i < previousIndent; i++ {
				parent = t.nodes[parent].parent
				if parent == noNode {
					parent = rootIndex
					break
				}
			}
		}

		current = t.add(taskID, parent)
		previousIndent = indent
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building tree: %w", err)
	}
	return t, nil
}

// flushState carries the order counter across a whole flush.
type flushState struct {
	order int64
}

// flush writes order, indent and parent for every descendant of start,
// renumbering from st.order. Start itself is written only when it is not
// the root.
func (u *Updater[L]) flush(ctx context.Context, list L, t *tree, start int, st *flushState) error {
	write := func(n, depth int) error {
		taskID := t.nodes[n].taskID
		if taskID == NoID {
			return nil
		}

		rec, err := u.Store.Get(ctx, taskID)
		if err != nil {
			return fmt.Errorf("loading record %d: %w", taskID, err)
		}
		if rec == nil {
			rec, err = u.Store.CreateEmpty(ctx, list, taskID)
			if err != nil {
				return fmt.Errorf("creating record %d: %w", taskID, err)
			}
		}

		rec.SetOrder(st.order)
		st.order++
		rec.SetIndent(depth)

		parentChanged := false
		if !u.IgnoreParent {
			newParent := t.nodes[t.nodes[n].parent].taskID
			if rec.Parent != newParent {
				rec.SetParent(newParent)
				parentChanged = true
			}
		}

		if err := u.save(ctx, rec); err != nil {
			return err
		}
		if parentChanged {
			return u.hooks().OnMovedOrIndented(ctx, rec)
		}
		return nil
	}

	if start != rootIndex {
		if err := write(start, t.depth(start)); err != nil {
			return err
		}
	}
	return t.walk(start, write)
}
