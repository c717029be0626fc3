package ordered

// NoID is the reserved task reference meaning "no task". It names the
// synthetic root in a tree and the parent of top-level tasks.
const NoID int64 = 0

// Field identifies one of the positional fields of a Record.
type Field uint8

const (
	FieldOrder Field = 1 << iota
	FieldIndent
	FieldParent
)

// Record holds the persisted position of a task inside a list.
type Record struct {
	TaskID int64
	Order  int64
	Indent int
	Parent int64

	stored bool
	dirty  Field
}

// NewRecord returns an empty record that has never been persisted.
func NewRecord(taskID int64) *Record {
	return &Record{TaskID: taskID, Parent: NoID}
}

// LoadedRecord returns a record mirroring values already in the store.
func LoadedRecord(taskID, order int64, indent int, parent int64) *Record {
	return &Record{
		TaskID: taskID,
		Order:  order,
		Indent: indent,
		Parent: parent,
		stored: true,
	}
}

// SetOrder sets the order, marking it dirty only when it changes.
func (r *Record) SetOrder(v int64) {
	if r.Order != v {
		r.Order = v
		r.dirty |= FieldOrder
	}
}

// SetIndent sets the indent, marking it dirty only when it changes.
func (r *Record) SetIndent(v int) {
	if r.Indent != v {
		r.Indent = v
		r.dirty |= FieldIndent
	}
}

// SetParent sets the parent, marking it dirty only when it changes.
func (r *Record) SetParent(v int64) {
	if r.Parent != v {
		r.Parent = v
		r.dirty |= FieldParent
	}
}

// Stored reports whether the record has been persisted at least once.
func (r *Record) Stored() bool { return r.stored }

// Changed reports whether the given field differs from its persisted value.
func (r *Record) Changed(f Field) bool { return r.dirty&f != 0 }

// NeedsSave reports whether saving the record would write anything.
func (r *Record) NeedsSave() bool { return !r.stored || r.dirty != 0 }

// MarkSaved records that the current values are persisted.
func (r *Record) MarkSaved() {
	r.stored = true
	r.dirty = 0
}
