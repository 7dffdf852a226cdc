package outline

import (
	"slices"
	"testing"
)

func plannerFixture() (*Model, *DragPlanner, map[string]*Row) {
	rows := map[string]*Row{}
	mk := func(name string) *Row {
		row := leaf(name, 0)
		rows[name] = row
		return row
	}
	a := box("A", 0, true, mk("A1"), mk("A2"))
	rows["A"] = a
	b := mk("B")
	c := box("C", 0, true, mk("C1"))
	rows["C"] = c
	m := newTestModel(a, b, c)
	m.SetIndentWidth(2)
	p := NewDragPlanner(m)
	p.Geometry = Geometry{RowHeight: 10}
	return m, p, rows
}

// TestPlanLowerHalfOfOpenContainer plans a drop as the first child.
func TestPlanLowerHalfOfOpenContainer(t *testing.T) {
	_, p, rows := plannerFixture()
	// C sits at stored index 4, spanning y 40..50. Its indent is 2 + 2*(1+0).
	target, ok := p.Plan([]*Row{rows["B"]}, 5, 48)
	if !ok {
		t.Fatalf("expected a target")
	}
	if target.Parent != rows["C"] || target.ChildIndex != 0 {
		t.Fatalf("expected first child of C, got parent=%v index=%d", target.Parent, target.ChildIndex)
	}
}

// TestPlanUpperAndLowerHalves covers before and after targets.
func TestPlanUpperAndLowerHalves(t *testing.T) {
	_, p, rows := plannerFixture()
	drag := []*Row{rows["B"]}

	target, ok := p.Plan(drag, 0, 12)
	if !ok || target.Parent != rows["A"] || target.ChildIndex != 0 {
		t.Fatalf("expected before A1, got %+v", target)
	}
	target, ok = p.Plan(drag, 0, 28)
	if !ok || target.Parent != rows["A"] || target.ChildIndex != 2 {
		t.Fatalf("expected after A2, got %+v", target)
	}
	target, ok = p.Plan(drag, 0, 48)
	if !ok || target.Parent != nil || target.ChildIndex != 5 {
		t.Fatalf("expected after C at top level when left of the indent, got %+v", target)
	}
	target, ok = p.Plan(drag, 0, 200)
	if !ok || target.Parent != rows["C"] || target.ChildIndex != 1 {
		t.Fatalf("expected after the trailing row, got %+v", target)
	}
}

// TestPlanSkipsRelocatingRows verifies a dragged subtree is never its own target.
func TestPlanSkipsRelocatingRows(t *testing.T) {
	_, p, rows := plannerFixture()
	target, ok := p.Plan([]*Row{rows["A"]}, 0, 12)
	if !ok || target.Parent != nil || target.ChildIndex != 3 {
		t.Fatalf("expected the scan to skip A's subtree and land before B, got %+v", target)
	}
	p.Accept = func(parent *Row) bool { return parent == nil }
	if _, ok := p.Plan([]*Row{rows["B"]}, 5, 48); ok {
		t.Fatalf("expected Accept veto")
	}
}

// TestApplyMovesIntoContainer verifies structure, order, selection and sort after a move.
func TestApplyMovesIntoContainer(t *testing.T) {
	m, p, rows := plannerFixture()
	m.Column(1).SetSortCriteria(0, true)
	if !p.Apply([]*Row{rows["B"]}, DropTarget{Parent: rows["C"], ChildIndex: 0}) {
		t.Fatalf("expected move to succeed")
	}
	if got := names(m.Rows()); !slices.Equal(got, []string{"A", "A1", "A2", "C", "B", "C1"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if rows["B"].Parent() != rows["C"] || rows["C"].IndexOfChild(rows["B"]) != 0 {
		t.Fatalf("expected B as first child of C")
	}
	if !m.IsRowSelected(rows["B"]) || m.SelectionCount() != 1 {
		t.Fatalf("expected moved row to be selected")
	}
	if m.IsSorted() {
		t.Fatalf("expected move to clear the sort")
	}
}

// TestApplyWithinSameParent verifies the child index accounts for the departing row.
func TestApplyWithinSameParent(t *testing.T) {
	m, p, rows := plannerFixture()
	a3 := leaf("A3", 0)
	rows["A"].AddChild(a3)
	m.RemoveRows(rows["A"])
	m.AddRowAt(0, rows["A"], true)

	if !p.Apply([]*Row{rows["A1"]}, DropTarget{Parent: rows["A"], ChildIndex: 2}) {
		t.Fatalf("expected move to succeed")
	}
	if got := names(rows["A"].Children()); !slices.Equal(got, []string{"A2", "A1", "A3"}) {
		t.Fatalf("unexpected children %v", got)
	}
	if got := names(m.Rows()[:4]); !slices.Equal(got, []string{"A", "A2", "A1", "A3"}) {
		t.Fatalf("unexpected stored order %v", got)
	}
}

// TestApplyOutOfContainer moves a child to the top level with its subtree.
func TestApplyOutOfContainer(t *testing.T) {
	m, p, rows := plannerFixture()
	if !p.Apply([]*Row{rows["C"]}, DropTarget{ChildIndex: 0}) {
		t.Fatalf("expected move to succeed")
	}
	if got := names(m.Rows()); !slices.Equal(got, []string{"C", "C1", "A", "A1", "A2", "B"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if !p.Apply([]*Row{rows["A2"]}, DropTarget{ChildIndex: m.RowCount()}) {
		t.Fatalf("expected second move to succeed")
	}
	if rows["A2"].Parent() != nil || rows["A"].ChildCount() != 1 {
		t.Fatalf("expected A2 detached to the top level")
	}
	if got := names(m.Rows()); !slices.Equal(got, []string{"C", "C1", "A", "A1", "B", "A2"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

// TestApplyIntoClosedContainer keeps moved rows out of stored order.
func TestApplyIntoClosedContainer(t *testing.T) {
	m, p, rows := plannerFixture()
	rows["C"].SetOpen(false)
	if !p.Apply([]*Row{rows["B"]}, DropTarget{Parent: rows["C"], ChildIndex: 1}) {
		t.Fatalf("expected move to succeed")
	}
	if m.HasRow(rows["B"]) || rows["B"].Owner() != nil {
		t.Fatalf("expected B hidden inside closed C")
	}
	rows["C"].SetOpen(true)
	if got := names(m.Rows()); !slices.Equal(got, []string{"A", "A1", "A2", "C", "C1", "B"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

// TestApplyRejectsCycles verifies no change when dropping into a descendant.
func TestApplyRejectsCycles(t *testing.T) {
	m, p, rows := plannerFixture()
	before := m.Rows()
	if p.Apply([]*Row{rows["A"]}, DropTarget{Parent: rows["A"], ChildIndex: 0}) {
		t.Fatalf("expected drop into self to fail")
	}
	if p.Apply([]*Row{rows["B"]}, DropTarget{Parent: rows["A1"], ChildIndex: 0}) {
		t.Fatalf("expected drop into a leaf to fail")
	}
	if !slices.Equal(m.Rows(), before) {
		t.Fatalf("expected rows unchanged")
	}
}

// TestApplyFromAnotherModel adopts rows and their open descendants.
func TestApplyFromAnotherModel(t *testing.T) {
	m, p, _ := plannerFixture()
	x1 := leaf("X1", 0)
	x := box("X", 0, true, x1)
	source := newTestModel(x, leaf("Y", 0))
	if !p.Apply([]*Row{x}, DropTarget{ChildIndex: 0}) {
		t.Fatalf("expected cross-model move to succeed")
	}
	if source.RowCount() != 1 || x.Owner() != m || x1.Owner() != m {
		t.Fatalf("expected rows to move between models")
	}
	if got := names(m.Rows()[:3]); !slices.Equal(got, []string{"X", "X1", "A"}) {
		t.Fatalf("unexpected order %v", got)
	}
}
