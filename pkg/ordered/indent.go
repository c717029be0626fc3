package ordered

import (
	"context"
	"fmt"
)

const unset = -1

// indentState is the running state of a single Indent pass.
type indentState struct {
	targetIndent   int     // original indent of the target once accepted, else unset
	previousIndent int     // indent of the nearest preceding task outside the target's subtree
	lastAtIndent   []int64 // closest preceding task at each indent
	order          int64   // next order value
}

// see records taskID as the latest task at indent. Deeper entries are
// dropped since they no longer belong to the current branch.
func (st *indentState) see(taskID int64, indent int) {
	if indent < 0 {
		indent = 0
	}
	for len(st.lastAtIndent) <= indent {
		st.lastAtIndent = append(st.lastAtIndent, NoID)
	}
	st.lastAtIndent = st.lastAtIndent[:indent+1]
	st.lastAtIndent[indent] = taskID
}

// parentAt returns the task a task written at indent hangs under.
func (st *indentState) parentAt(indent int) int64 {
	if indent <= 0 || indent > len(st.lastAtIndent) {
		return NoID
	}
	return st.lastAtIndent[indent-1]
}

// Indent shifts a task and its subtree by delta levels in a single pass
// over the list. The change is refused when the task would end up below
// zero or more than one level deeper than the task before it. Every task
// is renumbered in list order regardless.
func (u *Updater[L]) Indent(ctx context.Context, list L, targetID int64, delta int) error {
	if absent(list) {
		return nil
	}

	if err := u.hooks().BeforeIndent(ctx, list); err != nil {
		return err
	}

	st := indentState{
		targetIndent:   unset,
		previousIndent: unset,
	}

	err := u.Lister.Iterate(ctx, list, func(taskID int64, rec *Record) error {
		if rec == nil || !rec.Stored() {
			var err error
			rec, err = u.Store.CreateEmpty(ctx, list, taskID)
			if err != nil {
				return fmt.Errorf("creating record %d: %w", taskID, err)
			}
		}
		indent := rec.Indent

		rec.SetOrder(st.order)
		st.order++

		switch {
		case taskID == targetID:
			next := indent + delta
			if next > st.previousIndent+1 || next < 0 {
				break
			}
			st.targetIndent = indent
			rec.SetIndent(next)
			if !u.IgnoreParent {
				rec.SetParent(st.parentAt(next))
			}

		case st.targetIndent != unset:
			if indent <= st.targetIndent {
				st.targetIndent = unset
			} else {
				rec.SetIndent(indent + delta)
			}

		default:
			st.previousIndent = indent
			st.see(taskID, indent)
		}

		return u.save(ctx, rec)
	})
	if err != nil {
		return fmt.Errorf("indenting task %d: %w", targetID, err)
	}

	return u.notifyTarget(ctx, targetID)
}
