package outline

import "reflect"

// Listener receives synchronous model notifications. Calls arrive during the
// mutating call. A listener may read the model but must not start another
// structural mutation of it.
type Listener interface {
	RowsAdded(m *Model, rows []*Row)
	RowsWillBeRemoved(m *Model, rows []*Row)
	RowsWereRemoved(m *Model, rows []*Row)
	RowModified(m *Model, row *Row, column *Column)
	SortCleared(m *Model)
	Sorted(m *Model)
	LockedStateWillChange(m *Model)
	LockedStateDidChange(m *Model)
	SelectionWillChange(m *Model)
	SelectionDidChange(m *Model)
	UndoWillHappen(m *Model)
	UndoDidHappen(m *Model)
}

// BaseListener implements Listener with no-ops for embedding.
type BaseListener struct{}

func (BaseListener) RowsAdded(*Model, []*Row)          {}
func (BaseListener) RowsWillBeRemoved(*Model, []*Row)  {}
func (BaseListener) RowsWereRemoved(*Model, []*Row)    {}
func (BaseListener) RowModified(*Model, *Row, *Column) {}
func (BaseListener) SortCleared(*Model)                {}
func (BaseListener) Sorted(*Model)                     {}
func (BaseListener) LockedStateWillChange(*Model)      {}
func (BaseListener) LockedStateDidChange(*Model)       {}
func (BaseListener) SelectionWillChange(*Model)        {}
func (BaseListener) SelectionDidChange(*Model)         {}
func (BaseListener) UndoWillHappen(*Model)             {}
func (BaseListener) UndoDidHappen(*Model)              {}

// RowFilter hides rows from the visible traversal. Filtered rows are never
// selectable.
type RowFilter interface {
	IsRowFiltered(row *Row) bool
}

// RowFilterFunc adapts a function to RowFilter.
type RowFilterFunc func(row *Row) bool

// IsRowFiltered calls f.
func (f RowFilterFunc) IsRowFiltered(row *Row) bool {
	return f(row)
}

// AddListener registers l. Duplicates are ignored. Listeners whose dynamic
// type is not comparable, such as struct values holding a func, are always
// appended and can't be removed; register a pointer to remove one later.
func (m *Model) AddListener(l Listener) {
	if l == nil {
		return
	}
	for _, existing := range m.listeners {
		if sameListener(existing, l) {
			return
		}
	}
	m.listeners = append(m.listeners, l)
}

// RemoveListener unregisters l.
func (m *Model) RemoveListener(l Listener) {
	for i, existing := range m.listeners {
		if sameListener(existing, l) {
			m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
			return
		}
	}
}

// sameListener compares a and b without panicking on uncomparable types.
func sameListener(a, b Listener) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || ta == nil || !ta.Comparable() {
		return false
	}
	return a == b
}

// notify dispatches over a copy so listeners may register or unregister
// during the callback.
func (m *Model) notify(fn func(Listener)) {
	if len(m.listeners) == 0 {
		return
	}
	snapshot := make([]Listener, len(m.listeners))
	copy(snapshot, m.listeners)
	for _, l := range snapshot {
		fn(l)
	}
}
