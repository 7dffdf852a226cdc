package outline

// DropTarget names where relocated rows land. A nil Parent means top level,
// and ChildIndex is then a stored-order index.
type DropTarget struct {
	Parent     *Row
	ChildIndex int
}

// Geometry describes how rows are laid out vertically for drop planning.
type Geometry struct {
	// Top is the y of the first stored row.
	Top int
	// Left is the x where the hierarchy column starts.
	Left int
	// RowHeight is used for rows whose cached height is unknown.
	RowHeight int
	// Divider is the gap between consecutive rows.
	Divider int
}

// DragPlanner turns pointer positions into drop targets and performs moves.
type DragPlanner struct {
	Model    *Model
	Geometry Geometry
	// Accept optionally vetoes a target parent. Nil accepts everything.
	Accept func(parent *Row) bool
}

// NewDragPlanner creates a planner for m with one-unit rows.
func NewDragPlanner(m *Model) *DragPlanner {
	return &DragPlanner{Model: m, Geometry: Geometry{RowHeight: 1}}
}

// Plan computes the drop target for rows dragged to (x, y). It reports
// false when the position cannot take the rows.
func (p *DragPlanner) Plan(rows []*Row, x, y int) (DropTarget, bool) {
	m := p.Model
	moving := rowSet(rows)
	fromSelf := len(rows) > 0 && rows[0].owner == m
	extended := func(row *Row) bool {
		return fromSelf && isExtendedMember(row, moving)
	}
	hierarchy := m.Column(m.hierarchyColumnID)

	visible := make([]int, 0, len(m.rows))
	for i, row := range m.rows {
		if !m.IsRowFiltered(row) {
			visible = append(visible, i)
		}
	}

	target := DropTarget{ChildIndex: -1}
	top := p.Geometry.Top
scan:
	for n, i := range visible {
		row := m.rows[i]
		height := p.rowHeight(row)
		switch {
		case y <= top+height/2:
			if !extended(row) || (n > 0 && !extended(m.rows[visible[n-1]])) {
				target.Parent = row.parent
				target.ChildIndex = i
				if row.parent != nil {
					target.ChildIndex = row.parent.IndexOfChild(row)
				}
				break scan
			}
		case y <= top+height:
			if row.IsOpen() && x >= p.Geometry.Left+m.indentWidth+m.IndentFor(row, hierarchy) && !extended(row) {
				target = DropTarget{Parent: row, ChildIndex: 0}
				break scan
			}
			if !extended(row) || (n < len(visible)-1 && !extended(m.rows[visible[n+1]])) {
				if row.parent == nil {
					target = DropTarget{ChildIndex: i + 1}
					break scan
				}
				if !extended(row) {
					target = DropTarget{Parent: row.parent, ChildIndex: row.parent.IndexOfChild(row) + 1}
					break scan
				}
			}
		}
		top += height + p.Geometry.Divider
	}

	if target.ChildIndex == -1 {
		target = p.trailingTarget(visible, x, extended, hierarchy)
	}
	if target.Parent != nil && (isExtendedMember(target.Parent, moving) || !target.Parent.CanHaveChildren()) {
		return DropTarget{}, false
	}
	if p.Accept != nil && !p.Accept(target.Parent) {
		return DropTarget{}, false
	}
	return target, true
}

// trailingTarget handles a pointer below the last visible row.
func (p *DragPlanner) trailingTarget(visible []int, x int, extended func(*Row) bool, hierarchy *Column) DropTarget {
	m := p.Model
	if len(visible) == 0 {
		return DropTarget{}
	}
	last := visible[len(visible)-1]
	row := m.rows[last]
	if row.IsOpen() && x >= p.Geometry.Left+m.indentWidth+m.IndentFor(row, hierarchy) && !extended(row) {
		return DropTarget{Parent: row, ChildIndex: 0}
	}
	if row.parent != nil && !extended(row.parent) {
		return DropTarget{Parent: row.parent, ChildIndex: row.parent.IndexOfChild(row) + 1}
	}
	return DropTarget{ChildIndex: last + 1}
}

func (p *DragPlanner) rowHeight(row *Row) int {
	if row.height >= 0 {
		return row.height
	}
	return max(p.Geometry.RowHeight, 1)
}

// Apply moves rows, with their subtrees, to target. Rows may come from
// another model. It reports false and changes nothing when target would
// place a row under itself or cannot hold children. A move clears the
// active sort and leaves the moved rows selected.
func (p *DragPlanner) Apply(rows []*Row, target DropTarget) bool {
	m := p.Model
	if len(rows) == 0 {
		return false
	}
	parent := target.Parent
	requested := rowSet(rows)
	if parent != nil {
		if !parent.CanHaveChildren() || isExtendedMember(parent, requested) {
			return false
		}
		if parent.IsOpen() && !m.HasRow(parent) {
			return false
		}
	}
	fromSelf := rows[0].owner == m

	var selection []*Row
	if fromSelf {
		for _, row := range m.rows {
			if isExtendedMember(row, requested) {
				selection = append(selection, row)
			}
		}
	} else {
		selection = m.adopt(rows)
	}
	if len(selection) == 0 {
		return false
	}
	moving := rowSet(selection)

	insertAt := -1
	if parent == nil || parent.IsOpen() {
		insertAt = m.AbsoluteInsertionIndex(parent, target.ChildIndex)
	}
	childIndex := target.ChildIndex
	if parent != nil {
		for _, row := range selection {
			if row.parent == parent && parent.IndexOfChild(row) < target.ChildIndex {
				childIndex--
			}
		}
	}

	had := !m.selection.IsEmpty()
	if had {
		m.notify(func(l Listener) { l.SelectionWillChange(m) })
	}
	m.quietSelection++
	m.selection.DeselectAll()
	if fromSelf {
		m.notify(func(l Listener) { l.RowsWillBeRemoved(m, selection) })
	}

	reordered := make([]*Row, 0, len(m.rows)+len(selection))
	for i, row := range m.rows {
		if i == insertAt {
			reordered = append(reordered, selection...)
		}
		if !fromSelf || !moving[row] {
			reordered = append(reordered, row)
		}
	}
	if insertAt == len(m.rows) {
		reordered = append(reordered, selection...)
	}

	roots := make([]*Row, 0, len(selection))
	for _, row := range selection {
		if insertAt == -1 {
			row.owner = nil
		}
		switch {
		case row.parent != nil && !moving[row.parent]:
			row.RemoveFromParent()
			roots = append(roots, row)
		case row.parent == nil:
			roots = append(roots, row)
		}
	}
	if parent != nil {
		for i := len(roots) - 1; i >= 0; i-- {
			parent.InsertChild(childIndex, roots[i])
		}
	}

	m.rows = reordered
	m.selection.SetSize(len(m.rows))
	stored := make([]*Row, 0, len(selection))
	if insertAt != -1 {
		stored = selection
	}
	if fromSelf {
		m.notify(func(l Listener) { l.RowsWereRemoved(m, selection) })
	}
	if len(stored) > 0 {
		m.notify(func(l Listener) { l.RowsAdded(m, stored) })
	}
	m.SelectRows(stored, false)
	m.quietSelection--
	if had || len(stored) > 0 {
		m.notify(func(l Listener) { l.SelectionDidChange(m) })
	}
	m.ClearSort()
	m.dragRows = nil
	m.dragTargetRow = nil
	return true
}

// adopt takes rows out of their current model and claims them, with their
// open descendants, for m in pre-order.
func (m *Model) adopt(rows []*Row) []*Row {
	var out []*Row
	if owner := rows[0].owner; owner != nil {
		owner.removeRows(rows, false)
	}
	for _, row := range rows {
		if row.owner == m {
			continue
		}
		for _, r := range row.collectOpen([]*Row{row}) {
			r.owner = m
			out = append(out, r)
		}
	}
	return out
}

// AbsoluteInsertionIndex maps a drop target to a stored index. A nil
// parent treats childIndex as a stored index and skips forward past nested
// rows. A closed or empty parent yields the slot right after it.
func (m *Model) AbsoluteInsertionIndex(parent *Row, childIndex int) int {
	count := len(m.rows)
	if parent == nil {
		insertAt := max(0, min(childIndex, count))
		for insertAt < count && m.rows[insertAt].parent != nil {
			insertAt++
		}
		return insertAt
	}
	children := parent.ChildCount()
	if children == 0 || !parent.IsOpen() {
		return m.IndexOf(parent) + 1
	}
	if childIndex < children {
		return m.IndexOf(parent.Child(max(childIndex, 0)))
	}
	last := parent.Child(children - 1)
	insertAt := m.IndexOf(last) + 1
	for insertAt < count && m.rows[insertAt].IsDescendantOf(last) {
		insertAt++
	}
	return insertAt
}

func rowSet(rows []*Row) map[*Row]bool {
	set := make(map[*Row]bool, len(rows))
	for _, row := range rows {
		set[row] = true
	}
	return set
}

func isExtendedMember(row *Row, set map[*Row]bool) bool {
	for r := row; r != nil; r = r.parent {
		if set[r] {
			return true
		}
	}
	return false
}
