package ordered

import (
	"context"
	"slices"
	"sort"
)

// memStore is an in-memory Store and Lister. Records handed out are copies,
// so nothing is visible to other readers until it is saved.
type memStore struct {
	records  map[int64]Record
	lists    map[string][]int64
	saves    int
	failSave error
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[int64]Record),
		lists:   make(map[string][]int64),
	}
}

func (m *memStore) add(list string, id, order int64, indent int, parent int64) {
	m.lists[list] = append(m.lists[list], id)
	m.records[id] = *LoadedRecord(id, order, indent, parent)
}

func (m *memStore) addBare(list string, id int64) {
	m.lists[list] = append(m.lists[list], id)
}

func (m *memStore) Get(_ context.Context, taskID int64) (*Record, error) {
	r, ok := m.records[taskID]
	if !ok {
		return nil, nil
	}
	return LoadedRecord(r.TaskID, r.Order, r.Indent, r.Parent), nil
}

func (m *memStore) CreateEmpty(_ context.Context, _ string, taskID int64) (*Record, error) {
	return NewRecord(taskID), nil
}

func (m *memStore) Save(_ context.Context, rec *Record) error {
	if m.failSave != nil {
		return m.failSave
	}
	m.records[rec.TaskID] = *LoadedRecord(rec.TaskID, rec.Order, rec.Indent, rec.Parent)
	m.saves++
	return nil
}

func (m *memStore) ordering(list string) []int64 {
	ids := slices.Clone(m.lists[list])
	sort.SliceStable(ids, func(i, j int) bool {
		a, aok := m.records[ids[i]]
		b, bok := m.records[ids[j]]
		if aok != bok {
			return aok
		}
		if !aok {
			return ids[i] < ids[j]
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return ids[i] < ids[j]
	})
	return ids
}

func (m *memStore) Iterate(ctx context.Context, list string, fn func(int64, *Record) error) error {
	for _, id := range m.ordering(list) {
		rec, _ := m.Get(ctx, id)
		if err := fn(id, rec); err != nil {
			return err
		}
	}
	return nil
}

type row struct {
	ID     int64
	Order  int64
	Indent int
	Parent int64
}

// rows returns the persisted state of a list in listing order.
func (m *memStore) rows(list string) []row {
	var out []row
	for _, id := range m.ordering(list) {
		r := m.records[id]
		out = append(out, row{ID: id, Order: r.Order, Indent: r.Indent, Parent: r.Parent})
	}
	return out
}

type hookRecorder struct {
	before []string
	moved  []int64
}

func (h *hookRecorder) BeforeIndent(_ context.Context, list string) error {
	h.before = append(h.before, list)
	return nil
}

func (h *hookRecorder) OnMovedOrIndented(_ context.Context, rec *Record) error {
	h.moved = append(h.moved, rec.TaskID)
	return nil
}

func (h *hookRecorder) count(id int64) int {
	n := 0
	for _, m := range h.moved {
		if m == id {
			n++
		}
	}
	return n
}

// seed stores a list from indents alone, deriving orders 0..n-1 and
// parents from the indent encoding. IDs are 1..n.
func seed(m *memStore, list string, indents ...int) {
	parents := parentsFromIndents(indents)
	for i, indent := range indents {
		id := int64(i + 1)
		var parent int64 = NoID
		if parents[i] >= 0 {
			parent = int64(parents[i] + 1)
		}
		m.add(list, id, int64(i), indent, parent)
	}
}

// parentsFromIndents returns for each position the position of the closest
// preceding entry one level up, or -1.
func parentsFromIndents(indents []int) []int {
	out := make([]int, len(indents))
	for i, indent := range indents {
		out[i] = -1
		for j := i - 1; j >= 0; j-- {
			if indents[j] == indent-1 {
				out[i] = j
				break
			}
		}
	}
	return out
}

func newTestUpdater(m *memStore) (*Updater[string], *hookRecorder) {
	h := &hookRecorder{}
	return &Updater[string]{Store: m, Lister: m, Hooks: h}, h
}
