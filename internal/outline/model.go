package outline

import "slices"

// Model owns the stored row order, the columns, the selection and the
// filter, sort, lock and drag state of one outline.
type Model struct {
	rows              []*Row
	columns           []*Column
	selection         *Selection
	filter            RowFilter
	listeners         []Listener
	hierarchyColumnID int
	indentWidth       int
	showIndent        bool
	locked            bool
	quietSelection    int
	dragRows          []*Row
	dragTargetRow     *Row
	dragColumn        *Column
}

// NewModel creates an empty model with no hierarchy column.
func NewModel() *Model {
	m := &Model{hierarchyColumnID: -1, indentWidth: 2, showIndent: true}
	m.selection = NewSelection(0, m.selectionWillChange, m.selectionDidChange)
	return m
}

// AddColumn appends col. Columns with a duplicate ID are rejected.
func (m *Model) AddColumn(col *Column) bool {
	if col == nil || m.Column(col.ID) != nil {
		return false
	}
	m.columns = append(m.columns, col)
	return true
}

// Columns returns the columns in display order.
func (m *Model) Columns() []*Column {
	return slices.Clone(m.columns)
}

// Column returns the column with id, or nil.
func (m *Model) Column(id int) *Column {
	for _, col := range m.columns {
		if col.ID == id {
			return col
		}
	}
	return nil
}

// SortKeys returns the columns as sort keys.
func (m *Model) SortKeys() []SortKey {
	keys := make([]SortKey, len(m.columns))
	for i, col := range m.columns {
		keys[i] = col
	}
	return keys
}

// HierarchyColumnID returns the ID of the column that shows nesting, or -1.
func (m *Model) HierarchyColumnID() int {
	return m.hierarchyColumnID
}

// SetHierarchyColumnID designates the column that shows nesting.
func (m *Model) SetHierarchyColumnID(id int) {
	m.hierarchyColumnID = id
}

// IsHierarchyColumn reports whether col shows nesting.
func (m *Model) IsHierarchyColumn(col *Column) bool {
	return col != nil && m.hierarchyColumnID >= 0 && col.ID == m.hierarchyColumnID
}

// IndentWidth returns the indent applied per nesting level.
func (m *Model) IndentWidth() int {
	return m.indentWidth
}

// SetIndentWidth sets the indent applied per nesting level.
func (m *Model) SetIndentWidth(width int) {
	m.indentWidth = max(width, 0)
}

// ShowIndent reports whether nesting is indented.
func (m *Model) ShowIndent() bool {
	return m.showIndent
}

// SetShowIndent toggles nesting indent.
func (m *Model) SetShowIndent(show bool) {
	m.showIndent = show
}

// IndentFor returns the indent of row within col.
func (m *Model) IndentFor(row *Row, col *Column) int {
	if !m.showIndent || row == nil || !m.IsHierarchyColumn(col) {
		return 0
	}
	return m.indentWidth * (1 + row.Depth())
}

// Rows returns a copy of stored order.
func (m *Model) Rows() []*Row {
	return slices.Clone(m.rows)
}

// RowCount returns the number of stored rows.
func (m *Model) RowCount() int {
	return len(m.rows)
}

// RowAt returns the stored row at index, or nil.
func (m *Model) RowAt(index int) *Row {
	if index < 0 || index >= len(m.rows) {
		return nil
	}
	return m.rows[index]
}

// IndexOf returns row's stored index, or -1.
func (m *Model) IndexOf(row *Row) int {
	if row == nil || row.owner != m {
		return -1
	}
	return slices.Index(m.rows, row)
}

// HasRow reports whether row is in stored order.
func (m *Model) HasRow(row *Row) bool {
	return m.IndexOf(row) >= 0
}

// TopLevelRows returns the stored rows without a parent.
func (m *Model) TopLevelRows() []*Row {
	var out []*Row
	for _, row := range m.rows {
		if row.parent == nil {
			out = append(out, row)
		}
	}
	return out
}

// AddRow appends row. See AddRowAt.
func (m *Model) AddRow(row *Row, includeOpenDescendants bool) bool {
	return m.AddRowAt(len(m.rows), row, includeOpenDescendants)
}

// AddRowAt inserts row at the stored index, followed by its open
// descendants in pre-order when includeOpenDescendants is set. It rejects
// nil rows, rows owned by any model and out of range indexes. A successful
// add clears the active sort.
func (m *Model) AddRowAt(index int, row *Row, includeOpenDescendants bool) bool {
	if row == nil || row.owner != nil || index < 0 || index > len(m.rows) {
		return false
	}
	rows := []*Row{row}
	if includeOpenDescendants {
		rows = row.collectOpen(rows)
	}
	for _, r := range rows[1:] {
		if r.owner != nil {
			return false
		}
	}
	m.insertRows(index, rows)
	m.ClearSort()
	return true
}

func (m *Model) insertRows(index int, rows []*Row) {
	had := !m.selection.IsEmpty()
	if had {
		m.notify(func(l Listener) { l.SelectionWillChange(m) })
	}
	memo := m.preserveSelection()
	m.rows = slices.Insert(m.rows, index, rows...)
	for _, r := range rows {
		r.owner = m
	}
	m.selection.SetSize(len(m.rows))
	m.restoreSelection(memo)
	m.notify(func(l Listener) { l.RowsAdded(m, rows) })
	if had {
		m.notify(func(l Listener) { l.SelectionDidChange(m) })
	}
}

// RemoveRows removes each stored row together with its stored descendants.
// Each listed row is detached from its parent unless the parent is removed
// too. It returns false when none of the rows are stored here. A successful
// removal clears the active sort.
func (m *Model) RemoveRows(rows ...*Row) bool {
	if len(m.removeRows(rows, true)) == 0 {
		return false
	}
	m.ClearSort()
	return true
}

// RemoveRowsAt removes the rows at the stored indexes. See RemoveRows.
func (m *Model) RemoveRowsAt(indexes ...int) bool {
	rows := make([]*Row, 0, len(indexes))
	for _, i := range indexes {
		if row := m.RowAt(i); row != nil {
			rows = append(rows, row)
		}
	}
	return m.RemoveRows(rows...)
}

// RemoveAllRows empties the model.
func (m *Model) RemoveAllRows() bool {
	return m.RemoveRows(m.TopLevelRows()...)
}

// RemoveSelection removes the selected rows.
func (m *Model) RemoveSelection() bool {
	return m.RemoveRows(m.SelectionAsList(true)...)
}

func (m *Model) removeRows(targets []*Row, detach bool) []*Row {
	position := m.indexMap()
	doomed := map[*Row]bool{}
	var indexes []int
	for _, target := range targets {
		i, ok := position[target]
		if !ok || doomed[target] {
			continue
		}
		doomed[target] = true
		indexes = append(indexes, i)
		for j := i + 1; j < len(m.rows) && m.rows[j].IsDescendantOf(target); j++ {
			if !doomed[m.rows[j]] {
				doomed[m.rows[j]] = true
				indexes = append(indexes, j)
			}
		}
	}
	if len(indexes) == 0 {
		return nil
	}
	slices.Sort(indexes)
	removed := make([]*Row, len(indexes))
	for i, index := range indexes {
		removed[i] = m.rows[index]
	}

	had := !m.selection.IsEmpty()
	if had {
		m.notify(func(l Listener) { l.SelectionWillChange(m) })
	}
	memo := m.preserveSelection()
	m.notify(func(l Listener) { l.RowsWillBeRemoved(m, removed) })
	kept := make([]*Row, 0, len(m.rows)-len(removed))
	for _, row := range m.rows {
		if !doomed[row] {
			kept = append(kept, row)
		}
	}
	for _, row := range removed {
		row.owner = nil
	}
	if detach {
		for _, target := range targets {
			if doomed[target] && target.parent != nil && !doomed[target.parent] {
				target.RemoveFromParent()
			}
		}
	}
	m.rows = kept
	m.selection.SetSize(len(m.rows))
	m.restoreSelection(memo)
	m.notify(func(l Listener) { l.RowsWereRemoved(m, removed) })
	if had {
		m.notify(func(l Listener) { l.SelectionDidChange(m) })
	}
	return removed
}

// ToggleRowOpenState flips row between open and closed.
func (m *Model) ToggleRowOpenState(row *Row) {
	if row != nil && row.CanHaveChildren() {
		row.SetOpen(!row.IsOpen())
	}
}

// rowOpenStateChanged keeps stored order in step with row's open flag.
func (m *Model) rowOpenStateChanged(row *Row, open bool) {
	index := m.IndexOf(row)
	if index < 0 || !row.HasChildren() {
		return
	}
	if open {
		rows := row.collectOpen(nil)
		for _, r := range rows {
			if r.owner != nil && r.owner != m {
				r.owner.removeRows([]*Row{r}, false)
			}
		}
		m.insertRows(index+1, rows)
		return
	}
	m.removeRows(row.children, false)
}

// Sort reorders stored rows and every container's children by the active
// sort keys. Selected rows stay selected.
func (m *Model) Sort() {
	had := !m.selection.IsEmpty()
	if had {
		m.notify(func(l Listener) { l.SelectionWillChange(m) })
	}
	memo := m.preserveSelection()
	SortRows(m.SortKeys(), m.rows, true)
	m.restoreSelection(memo)
	m.notify(func(l Listener) { l.Sorted(m) })
	if had {
		m.notify(func(l Listener) { l.SelectionDidChange(m) })
	}
}

// IsSorted reports whether any column participates in sorting.
func (m *Model) IsSorted() bool {
	for _, col := range m.columns {
		if col.sequence >= 0 {
			return true
		}
	}
	return false
}

// ClearSort resets every column's sort sequence. Listeners hear about it
// only when a sort was active.
func (m *Model) ClearSort() {
	if m.clearSortInternal() {
		m.notify(func(l Listener) { l.SortCleared(m) })
	}
}

func (m *Model) clearSortInternal() bool {
	changed := false
	for _, col := range m.columns {
		if col.sequence != -1 {
			col.sequence = -1
			changed = true
		}
	}
	return changed
}

// IsLocked reports whether the model is locked against editing.
func (m *Model) IsLocked() bool {
	return m.locked
}

// SetLocked changes the locked state.
func (m *Model) SetLocked(locked bool) {
	if m.locked == locked {
		return
	}
	m.notify(func(l Listener) { l.LockedStateWillChange(m) })
	m.locked = locked
	m.notify(func(l Listener) { l.LockedStateDidChange(m) })
}

// NotifyRowModified tells listeners that row's content changed. A nil
// column means any column.
func (m *Model) NotifyRowModified(row *Row, col *Column) {
	m.notify(func(l Listener) { l.RowModified(m, row, col) })
}

// RowFilter returns the active filter, or nil.
func (m *Model) RowFilter() RowFilter {
	return m.filter
}

// SetRowFilter installs filter and drops filtered rows from the selection.
func (m *Model) SetRowFilter(filter RowFilter) {
	m.filter = filter
	m.reapplyRowFilter()
}

// IsRowFiltered reports whether row is hidden by the active filter.
func (m *Model) IsRowFiltered(row *Row) bool {
	return m.filter != nil && m.filter.IsRowFiltered(row)
}

// VisibleRows returns stored rows that are not filtered.
func (m *Model) VisibleRows() []*Row {
	if m.filter == nil {
		return m.Rows()
	}
	out := make([]*Row, 0, len(m.rows))
	for _, row := range m.rows {
		if !m.filter.IsRowFiltered(row) {
			out = append(out, row)
		}
	}
	return out
}

// DragRows returns the rows being dragged, if any.
func (m *Model) DragRows() []*Row {
	return slices.Clone(m.dragRows)
}

// SetDragRows records the rows being dragged. Pass nil when the drag ends.
func (m *Model) SetDragRows(rows []*Row) {
	m.dragRows = slices.Clone(rows)
}

// DragTargetRow returns the row highlighted as the drop target.
func (m *Model) DragTargetRow() *Row {
	return m.dragTargetRow
}

// SetDragTargetRow records the row highlighted as the drop target.
func (m *Model) SetDragTargetRow(row *Row) {
	m.dragTargetRow = row
}

// DragColumn returns the column being dragged.
func (m *Model) DragColumn() *Column {
	return m.dragColumn
}

// SetDragColumn records the column being dragged.
func (m *Model) SetDragColumn(col *Column) {
	m.dragColumn = col
}

func (m *Model) indexMap() map[*Row]int {
	position := make(map[*Row]int, len(m.rows))
	for i, row := range m.rows {
		position[row] = i
	}
	return position
}
