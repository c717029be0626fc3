package ordered

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const list = "inbox"

func TestBuildTree(t *testing.T) {
	m := newMemStore()
	// 1
	//   2
	//     3
	//   4
	// 5
	//   6
	seed(m, list, 0, 1, 2, 1, 0, 1)
	u, _ := newTestUpdater(m)

	tr, err := u.buildTree(context.Background(), list)
	require.NoError(t, err)

	root := tr.nodes[rootIndex]
	require.Len(t, root.children, 2)
	one := root.children[0]
	five := root.children[1]
	assert.Equal(t, int64(1), tr.nodes[one].taskID)
	assert.Equal(t, int64(5), tr.nodes[five].taskID)

	require.Len(t, tr.nodes[one].children, 2)
	two := tr.nodes[one].children[0]
	assert.Equal(t, int64(2), tr.nodes[two].taskID)
	assert.Equal(t, int64(4), tr.nodes[tr.nodes[one].children[1]].taskID)
	assert.Equal(t, int64(3), tr.nodes[tr.nodes[two].children[0]].taskID)
	assert.Equal(t, int64(6), tr.nodes[tr.nodes[five].children[0]].taskID)
}

func TestBuildTreeClampsToRoot(t *testing.T) {
	m := newMemStore()
	// A jump back further than the tree is deep lands at the root.
	m.add(list, 1, 0, 2, NoID)
	m.add(list, 2, 1, 0, NoID)
	u, _ := newTestUpdater(m)

	tr, err := u.buildTree(context.Background(), list)
	require.NoError(t, err)
	require.Len(t, tr.nodes[rootIndex].children, 2)
	assert.Equal(t, int64(2), tr.nodes[tr.nodes[rootIndex].children[1]].taskID)
}

func TestNormalizeClampsNegativeIndent(t *testing.T) {
	m := newMemStore()
	m.add(list, 1, 0, -2, NoID)
	m.add(list, 2, 1, 0, NoID)
	m.add(list, 3, 2, -1, 2)
	u, _ := newTestUpdater(m)

	require.NotPanics(t, func() {
		require.NoError(t, u.Normalize(context.Background(), list))
	})

	assert.Equal(t, []row{
		{ID: 1, Order: 0, Indent: 0, Parent: NoID},
		{ID: 2, Order: 1, Indent: 0, Parent: NoID},
		{ID: 3, Order: 2, Indent: 0, Parent: NoID},
	}, m.rows(list))
}

func TestNormalizeRoundTrip(t *testing.T) {
	m := newMemStore()
	m.add(list, 1, 10, 0, NoID)
	m.add(list, 2, 20, 1, 1)
	m.add(list, 3, 35, 2, 2)
	m.add(list, 4, 90, 0, NoID)
	u, h := newTestUpdater(m)

	require.NoError(t, u.Normalize(context.Background(), list))

	assert.Equal(t, []row{
		{ID: 1, Order: 0, Indent: 0, Parent: NoID},
		{ID: 2, Order: 1, Indent: 1, Parent: 1},
		{ID: 3, Order: 2, Indent: 2, Parent: 2},
		{ID: 4, Order: 3, Indent: 0, Parent: NoID},
	}, m.rows(list))
	assert.Empty(t, h.moved)
}

func TestNormalizeSkipsUnchangedRecords(t *testing.T) {
	m := newMemStore()
	seed(m, list, 0, 1, 1)
	u, _ := newTestUpdater(m)

	require.NoError(t, u.Normalize(context.Background(), list))
	assert.Equal(t, 0, m.saves)
}

func TestNormalizeCreatesMissingRecords(t *testing.T) {
	m := newMemStore()
	seed(m, list, 0, 1)
	m.addBare(list, 9)
	u, _ := newTestUpdater(m)

	require.NoError(t, u.Normalize(context.Background(), list))
	assert.Equal(t, []row{
		{ID: 1, Order: 0, Indent: 0, Parent: NoID},
		{ID: 2, Order: 1, Indent: 1, Parent: 1},
		{ID: 9, Order: 2, Indent: 0, Parent: NoID},
	}, m.rows(list))
	assert.Equal(t, 1, m.saves)
}

func TestMoveToRoot(t *testing.T) {
	m := newMemStore()
	// A, B (child of A), C
	seed(m, list, 0, 1, 0)
	u, h := newTestUpdater(m)

	require.NoError(t, u.MoveTo(context.Background(), list, 2, NoID))

	assert.Equal(t, []row{
		{ID: 1, Order: 0, Indent: 0, Parent: NoID},
		{ID: 3, Order: 1, Indent: 0, Parent: NoID},
		{ID: 2, Order: 2, Indent: 0, Parent: NoID},
	}, m.rows(list))
	// once for the parent change during the flush, once for the move
	assert.Equal(t, 2, h.count(2))
	assert.Equal(t, 0, h.count(1))
	assert.Equal(t, 0, h.count(3))
}

func TestMoveToKeepsSubtreeShape(t *testing.T) {
	m := newMemStore()
	seed(m, list, 0, 1, 2, 0)
	u, _ := newTestUpdater(m)

	require.NoError(t, u.MoveTo(context.Background(), list, 2, NoID))

	assert.Equal(t, []row{
		{ID: 1, Order: 0, Indent: 0, Parent: NoID},
		{ID: 4, Order: 1, Indent: 0, Parent: NoID},
		{ID: 2, Order: 2, Indent: 0, Parent: NoID},
		{ID: 3, Order: 3, Indent: 1, Parent: 2},
	}, m.rows(list))
}

func TestMoveBeforeSibling(t *testing.T) {
	tests := []struct {
		name     string
		target   int64
		before   int64
		wantIDs  []int64
		wantHook int
	}{
		{name: "later sibling forward", target: 1, before: 3, wantIDs: []int64{2, 1, 3}, wantHook: 1},
		{name: "last to first", target: 3, before: 1, wantIDs: []int64{3, 1, 2}, wantHook: 1},
		{name: "before itself", target: 2, before: 2, wantIDs: []int64{1, 2, 3}, wantHook: 1},
		{name: "unknown sibling", target: 2, before: 42, wantIDs: []int64{1, 2, 3}, wantHook: 1},
		{name: "unknown target", target: 42, before: 1, wantIDs: []int64{1, 2, 3}, wantHook: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMemStore()
			seed(m, list, 0, 0, 0)
			u, h := newTestUpdater(m)

			require.NoError(t, u.MoveTo(context.Background(), list, tt.target, tt.before))

			var ids []int64
			for i, r := range m.rows(list) {
				ids = append(ids, r.ID)
				assert.Equal(t, int64(i), r.Order)
				assert.Equal(t, 0, r.Indent)
				assert.Equal(t, NoID, r.Parent)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Len(t, h.moved, tt.wantHook)
		})
	}
}

func TestMoveBetweenParents(t *testing.T) {
	m := newMemStore()
	// 1
	//   2
	// 3
	//   4
	seed(m, list, 0, 1, 0, 1)
	u, h := newTestUpdater(m)

	require.NoError(t, u.MoveTo(context.Background(), list, 2, 4))

	assert.Equal(t, []row{
		{ID: 1, Order: 0, Indent: 0, Parent: NoID},
		{ID: 3, Order: 1, Indent: 0, Parent: NoID},
		{ID: 2, Order: 2, Indent: 1, Parent: 3},
		{ID: 4, Order: 3, Indent: 1, Parent: 3},
	}, m.rows(list))
	assert.Equal(t, 2, h.count(2))
	assert.Equal(t, 0, h.count(4))
}

func TestMoveIntoOwnSubtreeIsIgnored(t *testing.T) {
	m := newMemStore()
	seed(m, list, 0, 1, 2)
	before := m.rows(list)
	u, h := newTestUpdater(m)

	require.NoError(t, u.MoveTo(context.Background(), list, 1, 3))
	require.NoError(t, u.MoveTo(context.Background(), list, 1, 2))

	assert.Equal(t, before, m.rows(list))
	assert.Equal(t, 0, m.saves)
	assert.Equal(t, []int64{1, 1}, h.moved)
}

func TestDeletePromotesChildren(t *testing.T) {
	m := newMemStore()
	// A, B (child of A), C (child of B)
	seed(m, list, 0, 1, 2)
	u, h := newTestUpdater(m)

	require.NoError(t, u.OnDeleteTask(context.Background(), list, 1))

	b := m.records[2]
	c := m.records[3]
	assert.Equal(t, int64(0), b.Order)
	assert.Equal(t, 0, b.Indent)
	assert.Equal(t, NoID, b.Parent)
	assert.Equal(t, int64(1), c.Order)
	assert.Equal(t, 1, c.Indent)
	assert.Equal(t, int64(2), c.Parent)

	// only B's parent changed; the deleted task is not announced
	assert.Equal(t, []int64{2}, h.moved)
}

func TestDeleteSplicesChildrenInPlace(t *testing.T) {
	m := newMemStore()
	// 1
	// 2
	//   3
	//   4
	//     5
	// 6
	seed(m, list, 0, 0, 1, 1, 2, 0)
	u, _ := newTestUpdater(m)

	require.NoError(t, u.OnDeleteTask(context.Background(), list, 2))

	got := map[int64]row{}
	for _, r := range m.rows(list) {
		got[r.ID] = r
	}
	assert.Equal(t, row{ID: 1, Order: 0, Indent: 0, Parent: NoID}, got[1])
	assert.Equal(t, row{ID: 3, Order: 1, Indent: 0, Parent: NoID}, got[3])
	assert.Equal(t, row{ID: 4, Order: 2, Indent: 0, Parent: NoID}, got[4])
	assert.Equal(t, row{ID: 5, Order: 3, Indent: 1, Parent: 4}, got[5])
	assert.Equal(t, row{ID: 6, Order: 4, Indent: 0, Parent: NoID}, got[6])
}

func TestDeleteUnknownTaskStillRenumbers(t *testing.T) {
	m := newMemStore()
	m.add(list, 1, 5, 0, NoID)
	m.add(list, 2, 9, 0, NoID)
	u, _ := newTestUpdater(m)

	require.NoError(t, u.OnDeleteTask(context.Background(), list, 77))
	assert.Equal(t, int64(0), m.records[1].Order)
	assert.Equal(t, int64(1), m.records[2].Order)
}

func TestApplyToChildren(t *testing.T) {
	m := newMemStore()
	// X(1)
	//   Y(2)
	//     W(3)
	//   Z(4)
	// Q(5)
	seed(m, list, 0, 1, 2, 1, 0)
	u, _ := newTestUpdater(m)

	var visited []Node
	err := u.ApplyToChildren(context.Background(), list, 1, func(n Node) error {
		visited = append(visited, n)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []Node{
		{TaskID: 2, ParentID: 1, Depth: 1, Position: 0},
		{TaskID: 3, ParentID: 2, Depth: 2, Position: 0},
		{TaskID: 4, ParentID: 1, Depth: 1, Position: 1},
	}, visited)
	assert.Equal(t, 0, m.saves)
}

func TestApplyToChildrenStopsOnError(t *testing.T) {
	m := newMemStore()
	seed(m, list, 0, 1, 1)
	u, _ := newTestUpdater(m)

	stop := errors.New("stop")
	calls := 0
	err := u.ApplyToChildren(context.Background(), list, 1, func(Node) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestApplyToChildrenOfLeafOrUnknown(t *testing.T) {
	m := newMemStore()
	seed(m, list, 0, 1)
	u, _ := newTestUpdater(m)

	for _, id := range []int64{2, 99, NoID} {
		err := u.ApplyToChildren(context.Background(), list, id, func(Node) error {
			t.Fatalf("unexpected visit under %d", id)
			return nil
		})
		require.NoError(t, err)
	}
}

func TestWalk(t *testing.T) {
	m := newMemStore()
	seed(m, list, 0, 1, 0)
	u, _ := newTestUpdater(m)

	var ids []int64
	var depths []int
	err := u.Walk(context.Background(), list, func(n Node) error {
		ids = append(ids, n.TaskID)
		depths = append(depths, n.Depth)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Equal(t, []int{0, 1, 0}, depths)
}

func TestAbsentListIsNoop(t *testing.T) {
	m := newMemStore()
	seed(m, "", 0, 1)
	u, h := newTestUpdater(m)
	ctx := context.Background()

	require.NoError(t, u.Indent(ctx, "", 2, -1))
	require.NoError(t, u.MoveTo(ctx, "", 2, NoID))
	require.NoError(t, u.OnDeleteTask(ctx, "", 1))
	require.NoError(t, u.ApplyToChildren(ctx, "", 1, func(Node) error {
		t.Fatal("visited")
		return nil
	}))
	require.NoError(t, u.Normalize(ctx, ""))

	assert.Equal(t, 0, m.saves)
	assert.Empty(t, h.before)
	assert.Empty(t, h.moved)
}

func TestSaveErrorAbortsOperation(t *testing.T) {
	m := newMemStore()
	m.add(list, 1, 3, 0, NoID)
	m.add(list, 2, 4, 0, NoID)
	boom := errors.New("disk full")
	m.failSave = boom
	u, h := newTestUpdater(m)

	err := u.MoveTo(context.Background(), list, 2, 1)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, h.moved)

	err = u.Indent(context.Background(), list, 2, 1)
	assert.ErrorIs(t, err, boom)
}

func TestIgnoreParent(t *testing.T) {
	m := newMemStore()
	m.add(list, 1, 0, 0, NoID)
	m.add(list, 2, 1, 1, NoID)
	m.add(list, 3, 2, 0, NoID)
	u, h := newTestUpdater(m)
	u.IgnoreParent = true

	require.NoError(t, u.MoveTo(context.Background(), list, 3, 2))
	assert.Equal(t, []row{
		{ID: 1, Order: 0, Indent: 0, Parent: NoID},
		{ID: 3, Order: 1, Indent: 1, Parent: NoID},
		{ID: 2, Order: 2, Indent: 1, Parent: NoID},
	}, m.rows(list))
	assert.Equal(t, []int64{3}, h.moved)

	require.NoError(t, u.Indent(context.Background(), list, 2, 1))
	assert.Equal(t, 2, m.records[2].Indent)
	assert.Equal(t, NoID, m.records[2].Parent)
}
