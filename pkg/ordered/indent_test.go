package ordered

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndent(t *testing.T) {
	tests := []struct {
		name        string
		indents     []int
		target      int64
		delta       int
		wantIndents []int
		wantParents []int64
	}{
		{
			name:        "indent under previous sibling",
			indents:     []int{0, 0, 1, 0},
			target:      2,
			delta:       1,
			wantIndents: []int{0, 1, 2, 0},
			wantParents: []int64{NoID, 1, 2, NoID},
		},
		{
			name:        "first task cannot indent",
			indents:     []int{0, 0},
			target:      1,
			delta:       1,
			wantIndents: []int{0, 0},
			wantParents: []int64{NoID, NoID},
		},
		{
			name:        "cannot skip a level",
			indents:     []int{0, 0, 1},
			target:      3,
			delta:       1,
			wantIndents: []int{0, 0, 1},
			wantParents: []int64{NoID, NoID, 2},
		},
		{
			name:        "outdent to top level",
			indents:     []int{0, 0, 1},
			target:      3,
			delta:       -1,
			wantIndents: []int{0, 0, 0},
			wantParents: []int64{NoID, NoID, NoID},
		},
		{
			name:        "top level cannot outdent",
			indents:     []int{0, 1},
			target:      1,
			delta:       -1,
			wantIndents: []int{0, 1},
			wantParents: []int64{NoID, 1},
		},
		{
			name:        "subtree follows",
			indents:     []int{0, 0, 1, 2, 1, 0},
			target:      2,
			delta:       1,
			wantIndents: []int{0, 1, 2, 3, 2, 0},
			wantParents: []int64{NoID, 1, 2, 3, 2, NoID},
		},
		{
			// The follower keeps its stored parent even though the
			// indents now place it under the outdented task.
			name:        "outdent leaves follower parent",
			indents:     []int{0, 1, 2, 1},
			target:      2,
			delta:       -1,
			wantIndents: []int{0, 0, 1, 1},
			wantParents: []int64{NoID, NoID, 2, 1},
		},
		{
			name:        "unknown task only renumbers",
			indents:     []int{0, 1},
			target:      9,
			delta:       1,
			wantIndents: []int{0, 1},
			wantParents: []int64{NoID, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMemStore()
			seed(m, list, tt.indents...)
			u, h := newTestUpdater(m)

			require.NoError(t, u.Indent(context.Background(), list, tt.target, tt.delta))

			rows := m.rows(list)
			require.Len(t, rows, len(tt.indents))
			for i, r := range rows {
				assert.Equal(t, int64(i+1), r.ID)
				assert.Equal(t, int64(i), r.Order, "order of %d", r.ID)
				assert.Equal(t, tt.wantIndents[i], r.Indent, "indent of %d", r.ID)
				assert.Equal(t, tt.wantParents[i], r.Parent, "parent of %d", r.ID)
			}
			assert.Equal(t, []string{list}, h.before)
		})
	}
}

func TestIndentRenumbersOnRejection(t *testing.T) {
	m := newMemStore()
	m.add(list, 1, 5, 0, NoID)
	m.add(list, 2, 6, 0, NoID)
	m.add(list, 3, 7, 1, 2)
	m.add(list, 4, 8, 0, NoID)
	u, h := newTestUpdater(m)

	require.NoError(t, u.Indent(context.Background(), list, 1, 1))

	assert.Equal(t, []row{
		{ID: 1, Order: 0, Indent: 0, Parent: NoID},
		{ID: 2, Order: 1, Indent: 0, Parent: NoID},
		{ID: 3, Order: 2, Indent: 1, Parent: 2},
		{ID: 4, Order: 3, Indent: 0, Parent: NoID},
	}, m.rows(list))
	assert.Equal(t, []int64{1}, h.moved)
}

func TestIndentFiresHookOnceForTarget(t *testing.T) {
	m := newMemStore()
	seed(m, list, 0, 0, 1, 0)
	u, h := newTestUpdater(m)

	require.NoError(t, u.Indent(context.Background(), list, 2, 1))
	assert.Equal(t, []int64{2}, h.moved)
}

func TestIndentCreatesMissingRecords(t *testing.T) {
	m := newMemStore()
	m.addBare(list, 1)
	m.addBare(list, 2)
	u, h := newTestUpdater(m)

	require.NoError(t, u.Indent(context.Background(), list, 2, 1))

	assert.Equal(t, []row{
		{ID: 1, Order: 0, Indent: 0, Parent: NoID},
		{ID: 2, Order: 1, Indent: 1, Parent: 1},
	}, m.rows(list))
	assert.Equal(t, 2, m.saves)
	assert.Equal(t, []int64{2}, h.moved)
}

func TestIndentSkipsUnchangedRecords(t *testing.T) {
	m := newMemStore()
	seed(m, list, 0, 0, 0)
	u, _ := newTestUpdater(m)

	require.NoError(t, u.Indent(context.Background(), list, 3, 1))
	// only the target changed
	assert.Equal(t, 1, m.saves)
}

func TestIndentParentFromListingOrder(t *testing.T) {
	tests := []struct {
		name   string
		orders []int64
	}{
		{name: "tied orders", orders: []int64{0, 0, 0}},
		{name: "negative orders", orders: []int64{-5, -4, -3}},
		{name: "sparse orders", orders: []int64{3, 9, 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMemStore()
			for i, order := range tt.orders {
				m.add(list, int64(i+1), order, 0, NoID)
			}
			u, _ := newTestUpdater(m)

			require.NoError(t, u.Indent(context.Background(), list, 3, 1))

			assert.Equal(t, []row{
				{ID: 1, Order: 0, Indent: 0, Parent: NoID},
				{ID: 2, Order: 1, Indent: 0, Parent: NoID},
				{ID: 3, Order: 2, Indent: 1, Parent: 2},
			}, m.rows(list))
		})
	}
}

func TestIndentParentIsClosestAtLevel(t *testing.T) {
	m := newMemStore()
	// 1
	//   2
	//     3
	// 4
	//   5
	//   6  <- indented under 5, not 2
	m.add(list, 1, 0, 0, NoID)
	m.add(list, 2, 0, 1, 1)
	m.add(list, 3, 0, 2, 2)
	m.add(list, 4, 0, 0, NoID)
	m.add(list, 5, 0, 1, 4)
	m.add(list, 6, 0, 1, 4)
	u, _ := newTestUpdater(m)

	require.NoError(t, u.Indent(context.Background(), list, 6, 1))

	rows := m.rows(list)
	require.Len(t, rows, 6)
	assert.Equal(t, row{ID: 6, Order: 5, Indent: 2, Parent: 5}, rows[5])
	assertWellFormed(t, rows)
}

// randomIndents returns a valid indent sequence: it starts at 0 and never
// goes more than one level deeper than the entry before it.
func randomIndents(r *rand.Rand, n int) []int {
	out := make([]int, n)
	for i := 1; i < n; i++ {
		out[i] = r.Intn(out[i-1] + 2)
	}
	return out
}

func assertWellFormed(t *testing.T, rows []row) {
	t.Helper()
	indents := make([]int, len(rows))
	for i, r := range rows {
		indents[i] = r.Indent
		require.Equal(t, int64(i), r.Order, "orders must be dense")
		require.GreaterOrEqual(t, r.Indent, 0)
		if i == 0 {
			require.Equal(t, 0, r.Indent)
		} else {
			require.LessOrEqual(t, r.Indent, rows[i-1].Indent+1)
		}
	}
	for i, p := range parentsFromIndents(indents) {
		want := NoID
		if p >= 0 {
			want = rows[p].ID
		}
		require.Equal(t, want, rows[i].Parent, "parent of %d", rows[i].ID)
	}
}

func TestIndentRandomized(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for iter := 0; iter < 500; iter++ {
		n := 1 + r.Intn(12)
		indents := randomIndents(r, n)
		k := r.Intn(n)
		delta := 1
		if r.Intn(2) == 0 {
			delta = -1
		}

		m := newMemStore()
		seed(m, list, indents...)
		before := m.rows(list)
		u, _ := newTestUpdater(m)
		require.NoError(t, u.Indent(context.Background(), list, int64(k+1), delta))
		after := m.rows(list)

		prev := -1
		if k > 0 {
			prev = indents[k-1]
		}
		next := indents[k] + delta
		accepted := next >= 0 && next <= prev+1

		want := append([]int(nil), indents...)
		end := k + 1
		if accepted {
			want[k] = next
			for end < n && indents[end] > indents[k] {
				want[end] += delta
				end++
			}
		}

		require.Len(t, after, n)
		for i := range after {
			require.Equal(t, int64(i+1), after[i].ID)
			require.Equal(t, int64(i), after[i].Order)
			require.Equal(t, want[i], after[i].Indent, "iter %d indents %v target %d delta %d", iter, indents, k+1, delta)
		}

		if !accepted {
			for i := range after {
				require.Equal(t, before[i].Parent, after[i].Parent)
			}
			continue
		}

		if delta > 0 {
			assertWellFormed(t, after)
			continue
		}

		// After an outdent, followers at the target's old level keep their
		// stored parent up to the first task above that level.
		stale := map[int]bool{}
		for j := end; j < n && indents[j] >= indents[k]; j++ {
			if indents[j] == indents[k] {
				stale[j] = true
			}
		}
		rebuilt := parentsFromIndents(want)
		for i := range after {
			if stale[i] {
				require.Equal(t, before[i].Parent, after[i].Parent)
				continue
			}
			wantParent := NoID
			if rebuilt[i] >= 0 {
				wantParent = int64(rebuilt[i] + 1)
			}
			require.Equal(t, wantParent, after[i].Parent, "iter %d parent of %d", iter, i+1)
		}
	}
}

func TestMoveToRandomized(t *testing.T) {
	r := rand.New(rand.NewSource(11))

	for iter := 0; iter < 500; iter++ {
		n := 1 + r.Intn(10)
		m := newMemStore()
		seed(m, list, randomIndents(r, n)...)
		u, _ := newTestUpdater(m)

		target := int64(1 + r.Intn(n))
		before := int64(r.Intn(n + 1))
		require.NoError(t, u.MoveTo(context.Background(), list, target, before))

		rows := m.rows(list)
		require.Len(t, rows, n)
		seen := map[int64]bool{}
		for _, rw := range rows {
			seen[rw.ID] = true
		}
		require.Len(t, seen, n)
		assertWellFormed(t, rows)
	}
}
