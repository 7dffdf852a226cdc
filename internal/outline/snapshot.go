package outline

import (
	"errors"
	"slices"
)

var (
	ErrForeignSnapshot  = errors.New("snapshot belongs to another model")
	ErrSnapshotMismatch = errors.New("snapshot rows no longer match the model")
)

// containerState is the recorded parent, open flag and children of one container.
type containerState struct {
	row      *Row
	parent   *Row
	open     bool
	children []*Row
}

// Snapshot is an immutable capture of a model's structure. Rows are kept by
// identity, never copied.
type Snapshot struct {
	model      *Model
	rows       []*Row
	containers []containerState
	selection  *Selection
	sortConfig string
}

// Rows returns the captured stored order.
func (s *Snapshot) Rows() []*Row {
	return slices.Clone(s.rows)
}

// SortConfig returns the captured sort configuration.
func (s *Snapshot) SortConfig() string {
	return s.sortConfig
}

// CaptureSnapshot records stored order, every reachable container's
// parent, open flag and children, the selection and the sort configuration.
func (m *Model) CaptureSnapshot() *Snapshot {
	snap := &Snapshot{
		model:      m,
		rows:       slices.Clone(m.rows),
		selection:  m.selection.Clone(),
		sortConfig: m.SortConfig(),
	}
	for _, row := range collectContainers(nil, m.rows, map[*Row]struct{}{}) {
		snap.containers = append(snap.containers, containerState{
			row:      row,
			parent:   row.parent,
			open:     row.open,
			children: slices.Clone(row.children),
		})
	}
	return snap
}

// RestoreSnapshot puts the model back into the captured state. It fails
// without changing anything when the snapshot came from another model or a
// captured row is now owned by another model.
func (m *Model) RestoreSnapshot(snap *Snapshot) error {
	if err := m.validateSnapshot(snap); err != nil {
		return err
	}
	m.notify(func(l Listener) { l.UndoWillHappen(m) })
	m.clearSortInternal()
	current := collectContainers(nil, m.rows, map[*Row]struct{}{})
	for _, container := range current {
		for _, child := range container.children {
			child.parent = nil
		}
	}
	for _, row := range m.rows {
		row.owner = nil
	}
	m.rows = slices.Clone(snap.rows)
	for _, row := range m.rows {
		row.owner = m
		row.parent = nil
	}
	restoredContainers := make(map[*Row]struct{}, len(snap.containers))
	for _, state := range snap.containers {
		restoredContainers[state.row] = struct{}{}
		state.row.parent = state.parent
		state.row.open = state.open
		state.row.children = slices.Clone(state.children)
		for _, child := range state.row.children {
			child.parent = state.row
		}
	}
	// Containers created after the capture drop the children they no longer own.
	for _, container := range current {
		if _, ok := restoredContainers[container]; ok {
			continue
		}
		container.children = slices.DeleteFunc(container.children, func(child *Row) bool {
			return child.parent != container
		})
	}
	restored := snap.selection.Clone()
	restored.willChange = m.selectionWillChange
	restored.didChange = m.selectionDidChange
	m.selection = restored
	switch m.applySortCriteria(snap.sortConfig) {
	case sortApplied:
		m.notify(func(l Listener) { l.Sorted(m) })
	default:
		m.clearSortInternal()
		m.notify(func(l Listener) { l.SortCleared(m) })
	}
	m.notify(func(l Listener) { l.UndoDidHappen(m) })
	return nil
}

func (m *Model) validateSnapshot(snap *Snapshot) error {
	if snap == nil || snap.model != m {
		return ErrForeignSnapshot
	}
	if snap.selection == nil || snap.selection.Size() != len(snap.rows) {
		return ErrSnapshotMismatch
	}
	seen := make(map[*Row]bool, len(snap.rows))
	for _, row := range snap.rows {
		if row == nil || seen[row] || (row.owner != nil && row.owner != m) {
			return ErrSnapshotMismatch
		}
		seen[row] = true
	}
	for _, state := range snap.containers {
		if state.row == nil || !state.row.container {
			return ErrSnapshotMismatch
		}
		for _, child := range state.children {
			if child == nil || (child.owner != nil && child.owner != m) {
				return ErrSnapshotMismatch
			}
		}
	}
	if snap.sortConfig != "" {
		criteria, err := ParseSortConfig(snap.sortConfig)
		if err != nil {
			return ErrSnapshotMismatch
		}
		for _, c := range criteria {
			if m.Column(c.ColumnID) == nil {
				return ErrSnapshotMismatch
			}
		}
	}
	return nil
}
