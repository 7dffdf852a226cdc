package outline

// selectionMemo remembers the selection by row identity.
type selectionMemo struct {
	anchor *Row
	rows   []*Row
}

// preserveSelection captures the selection and silences selection
// notifications until the matching restoreSelection.
func (m *Model) preserveSelection() selectionMemo {
	memo := selectionMemo{anchor: m.RowAt(m.selection.Anchor())}
	for _, i := range m.selection.SelectedIndexes() {
		if row := m.RowAt(i); row != nil {
			memo.rows = append(memo.rows, row)
		}
	}
	m.quietSelection++
	return memo
}

func (m *Model) restoreSelection(memo selectionMemo) {
	position := m.indexMap()
	indexes := make([]int, 0, len(memo.rows))
	for _, row := range memo.rows {
		if i, ok := position[row]; ok {
			indexes = append(indexes, i)
		}
	}
	m.selection.SelectIndexes(indexes, false)
	anchor := -1
	if i, ok := position[memo.anchor]; ok && memo.anchor != nil {
		anchor = i
	}
	m.selection.SetAnchor(anchor)
	m.quietSelection--
}

func (m *Model) selectionWillChange() {
	if m.quietSelection == 0 {
		m.notify(func(l Listener) { l.SelectionWillChange(m) })
	}
}

func (m *Model) selectionDidChange() {
	if m.quietSelection == 0 {
		m.notify(func(l Listener) { l.SelectionDidChange(m) })
	}
}

// reapplyRowFilter removes filtered rows from the selection and keeps the anchor.
func (m *Model) reapplyRowFilter() {
	if m.filter == nil {
		return
	}
	var filtered []int
	for _, i := range m.selection.SelectedIndexes() {
		if m.filter.IsRowFiltered(m.rows[i]) {
			filtered = append(filtered, i)
		}
	}
	if len(filtered) == 0 {
		return
	}
	anchor := m.selection.Anchor()
	m.selection.DeselectIndexes(filtered)
	m.selection.SetAnchor(anchor)
}

// Selection returns a copy of the selection state.
func (m *Model) Selection() *Selection {
	return m.selection.Clone()
}

// Anchor returns the selection anchor index, or -1.
func (m *Model) Anchor() int {
	return m.selection.Anchor()
}

// HasSelection reports whether any row is selected.
func (m *Model) HasSelection() bool {
	return !m.selection.IsEmpty()
}

// SelectionCount returns the number of selected rows.
func (m *Model) SelectionCount() int {
	return m.selection.Count()
}

// FirstSelectedIndex returns the lowest selected stored index, or -1.
func (m *Model) FirstSelectedIndex() int {
	return m.selection.FirstSelectedIndex()
}

// LastSelectedIndex returns the highest selected stored index, or -1.
func (m *Model) LastSelectedIndex() int {
	return m.selection.LastSelectedIndex()
}

// IsIndexSelected reports whether the stored index is selected.
func (m *Model) IsIndexSelected(index int) bool {
	return m.selection.IsSelected(index)
}

// IsRowSelected reports whether row is selected.
func (m *Model) IsRowSelected(row *Row) bool {
	return m.selection.IsSelected(m.IndexOf(row))
}

// IsExtendedRowSelected reports whether row or any of its ancestors is selected.
func (m *Model) IsExtendedRowSelected(row *Row) bool {
	for r := row; r != nil; r = r.parent {
		if m.IsRowSelected(r) {
			return true
		}
	}
	return false
}

// SelectionAsList returns the selected rows in stored order. When minimal
// is set, rows with a selected ancestor are left out.
func (m *Model) SelectionAsList(minimal bool) []*Row {
	indexes := m.selection.SelectedIndexes()
	chosen := make(map[*Row]bool, len(indexes))
	for _, i := range indexes {
		chosen[m.rows[i]] = true
	}
	out := make([]*Row, 0, len(indexes))
	for _, i := range indexes {
		row := m.rows[i]
		if minimal && hasChosenAncestor(row, chosen) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func hasChosenAncestor(row *Row, chosen map[*Row]bool) bool {
	for p := row.parent; p != nil; p = p.parent {
		if chosen[p] {
			return true
		}
	}
	return false
}

// SelectAll selects every stored row.
func (m *Model) SelectAll() {
	m.selection.SelectAll()
	m.reapplyRowFilter()
}

// Select selects the stored index, replacing the selection unless add is set.
func (m *Model) Select(index int, add bool) {
	m.selection.Select(index, add)
	m.reapplyRowFilter()
}

// SelectRange selects stored indexes from..to inclusive.
func (m *Model) SelectRange(from, to int, add bool) {
	m.selection.SelectRange(from, to, add)
	m.reapplyRowFilter()
}

// SelectIndexes selects the listed stored indexes.
func (m *Model) SelectIndexes(indexes []int, add bool) {
	m.selection.SelectIndexes(indexes, add)
	m.reapplyRowFilter()
}

// SelectRow selects row when it is stored here.
func (m *Model) SelectRow(row *Row, add bool) {
	if index := m.IndexOf(row); index >= 0 {
		m.Select(index, add)
	}
}

// SelectRows selects every listed row stored here.
func (m *Model) SelectRows(rows []*Row, add bool) {
	position := m.indexMap()
	indexes := make([]int, 0, len(rows))
	for _, row := range rows {
		if i, ok := position[row]; ok {
			indexes = append(indexes, i)
		}
	}
	m.SelectIndexes(indexes, add)
}

// Deselect clears the stored index.
func (m *Model) Deselect(index int) {
	m.selection.Deselect(index)
}

// DeselectRange clears stored indexes from..to inclusive.
func (m *Model) DeselectRange(from, to int) {
	m.selection.DeselectRange(from, to)
}

// DeselectRow clears row.
func (m *Model) DeselectRow(row *Row) {
	m.selection.Deselect(m.IndexOf(row))
}

// DeselectAll clears the selection.
func (m *Model) DeselectAll() {
	m.selection.DeselectAll()
}

// SelectUp moves or extends the selection up. It returns the index to reveal.
func (m *Model) SelectUp(extend bool) int {
	index := m.selection.SelectUp(extend)
	m.reapplyRowFilter()
	return index
}

// SelectDown moves or extends the selection down. It returns the index to reveal.
func (m *Model) SelectDown(extend bool) int {
	index := m.selection.SelectDown(extend)
	m.reapplyRowFilter()
	return index
}

// SelectToHome selects, or extends to, the first row.
func (m *Model) SelectToHome(extend bool) int {
	index := m.selection.SelectToHome(extend)
	m.reapplyRowFilter()
	return index
}

// SelectToEnd selects, or extends to, the last row.
func (m *Model) SelectToEnd(extend bool) int {
	index := m.selection.SelectToEnd(extend)
	m.reapplyRowFilter()
	return index
}

// SelectByMouse applies a click. See Selection.SelectByMouse.
func (m *Model) SelectByMouse(index, method int) int {
	deferred := m.selection.SelectByMouse(index, method)
	m.reapplyRowFilter()
	return deferred
}
