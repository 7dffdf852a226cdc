package outline

import (
	"slices"
	"testing"

	"pgregory.net/rapid"
)

// TestCloseOpenScenario covers a closed container hiding its children and the selection following.
func TestCloseOpenScenario(t *testing.T) {
	a1, a2, b1 := leaf("A1", 0), leaf("A2", 0), leaf("B1", 0)
	a := box("A", 0, true, a1, a2)
	b := box("B", 0, false, b1)
	m := newTestModel(a, b)

	if got := names(m.Rows()); !slices.Equal(got, []string{"A", "A1", "A2", "B"}) {
		t.Fatalf("unexpected stored order %v", got)
	}
	m.SelectRow(a1, false)
	a.SetOpen(false)
	if got := names(m.Rows()); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("unexpected order after close %v", got)
	}
	if got := m.SelectionAsList(false); len(got) != 0 {
		t.Fatalf("expected no selected rows, got %v", names(got))
	}
	if m.IsRowSelected(a1) || a1.Owner() != nil {
		t.Fatalf("expected hidden row to be unselected and unowned")
	}
	if a1.Parent() != a || a.ChildCount() != 2 {
		t.Fatalf("expected closing to keep children attached")
	}
	m.ToggleRowOpenState(a)
	if got := names(m.Rows()); !slices.Equal(got, []string{"A", "A1", "A2", "B"}) {
		t.Fatalf("unexpected order after reopen %v", got)
	}
}

// TestAddRowRejectsMisuse verifies duplicates and out of range inserts fail without change.
func TestAddRowRejectsMisuse(t *testing.T) {
	a := leaf("A", 0)
	m := newTestModel(a)
	if m.AddRow(a, false) {
		t.Fatalf("expected duplicate add to fail")
	}
	if m.AddRowAt(5, leaf("B", 0), false) {
		t.Fatalf("expected out of range add to fail")
	}
	if m.AddRow(nil, false) {
		t.Fatalf("expected nil add to fail")
	}
	other := NewModel()
	c := leaf("C", 0)
	other.AddRow(c, false)
	if m.AddRow(c, false) {
		t.Fatalf("expected add of a row owned elsewhere to fail")
	}
	if m.RowCount() != 1 {
		t.Fatalf("expected model unchanged, got %d rows", m.RowCount())
	}
}

// TestAddRowNotificationOrder verifies the compound notification order.
func TestAddRowNotificationOrder(t *testing.T) {
	a := leaf("A", 0)
	m := newTestModel(a)
	m.Column(1).SetSortCriteria(0, true)
	m.Select(0, false)
	rec := &recorder{}
	m.AddListener(rec)

	m.AddRowAt(0, leaf("B", 0), false)
	want := []string{"selWill", "added:1", "selDid", "sortCleared"}
	if !slices.Equal(rec.events, want) {
		t.Fatalf("expected %v, got %v", want, rec.events)
	}
	if !m.IsRowSelected(a) || m.IsIndexSelected(0) {
		t.Fatalf("expected selection to follow row identity")
	}
	if m.IsSorted() {
		t.Fatalf("expected add to clear the sort")
	}
}

// TestRemoveRowsTakesSubtree verifies descendant closure and detaching.
func TestRemoveRowsTakesSubtree(t *testing.T) {
	a1, a2 := leaf("A1", 0), leaf("A2", 0)
	a := box("A", 0, true, a1, a2)
	b := leaf("B", 0)
	m := newTestModel(a, b)
	rec := &recorder{}
	m.AddListener(rec)

	if !m.RemoveRows(a) {
		t.Fatalf("expected removal to succeed")
	}
	if got := names(m.Rows()); !slices.Equal(got, []string{"B"}) {
		t.Fatalf("unexpected rows %v", got)
	}
	if a.Owner() != nil || a1.Owner() != nil {
		t.Fatalf("expected removed rows to lose their owner")
	}
	if a1.Parent() != a {
		t.Fatalf("expected subtree to stay intact")
	}
	if !slices.Equal(rec.events, []string{"willRemove:3", "removed:3"}) {
		t.Fatalf("unexpected events %v", rec.events)
	}
	if m.RemoveRows(a) {
		t.Fatalf("expected second removal to fail")
	}

	m.AddRow(a, true)
	m.RemoveRows(a2)
	if a2.Parent() != nil || a.ChildCount() != 1 {
		t.Fatalf("expected removed child to be detached from its parent")
	}
}

// TestRemoveSelectionUsesMinimalList verifies nested selections are removed once.
func TestRemoveSelectionUsesMinimalList(t *testing.T) {
	a1 := leaf("A1", 0)
	a := box("A", 0, true, a1)
	b := leaf("B", 0)
	m := newTestModel(a, b)
	m.SelectRange(0, 1, false)
	if got := names(m.SelectionAsList(true)); !slices.Equal(got, []string{"A"}) {
		t.Fatalf("unexpected minimal selection %v", got)
	}
	if !m.IsExtendedRowSelected(a1) || m.IsExtendedRowSelected(b) {
		t.Fatalf("unexpected extended selection state")
	}
	m.RemoveSelection()
	if got := names(m.Rows()); !slices.Equal(got, []string{"B"}) {
		t.Fatalf("unexpected rows %v", got)
	}
	if m.HasSelection() {
		t.Fatalf("expected empty selection")
	}
	m.RemoveAllRows()
	if m.RowCount() != 0 {
		t.Fatalf("expected empty model")
	}
}

// TestRowFilterDeselects verifies filtered rows never stay selected.
func TestRowFilterDeselects(t *testing.T) {
	a, b, c := leaf("A", 1), leaf("B", 2), leaf("C", 3)
	m := newTestModel(a, b, c)
	m.SelectAll()
	m.SetRowFilter(RowFilterFunc(func(row *Row) bool { return nameOf(row) == "B" }))
	if m.IsRowSelected(b) || !m.IsRowSelected(a) || !m.IsRowSelected(c) {
		t.Fatalf("expected only the filtered row to be deselected")
	}
	if m.Anchor() != 0 {
		t.Fatalf("expected anchor to be kept, got %d", m.Anchor())
	}
	m.Select(1, false)
	if m.HasSelection() {
		t.Fatalf("expected filtered row to be unselectable")
	}
	if got := names(m.VisibleRows()); !slices.Equal(got, []string{"A", "C"}) {
		t.Fatalf("unexpected visible rows %v", got)
	}
}

// TestLockedState verifies lock notifications fire only on change.
func TestLockedState(t *testing.T) {
	m := newTestModel()
	rec := &recorder{}
	m.AddListener(rec)
	m.SetLocked(true)
	m.SetLocked(true)
	if !m.IsLocked() || !slices.Equal(rec.events, []string{"lockWill", "lockDid"}) {
		t.Fatalf("unexpected lock events %v", rec.events)
	}
}

// TestListenerRemovalDuringDispatch verifies dispatch iterates a copy.
func TestListenerRemovalDuringDispatch(t *testing.T) {
	m := newTestModel()
	second := &recorder{}
	first := &selfRemover{model: m}
	m.AddListener(first)
	m.AddListener(second)
	m.AddRow(leaf("A", 0), false)
	if first.calls != 1 || len(second.events) == 0 {
		t.Fatalf("expected both listeners to hear the first add")
	}
	m.AddRow(leaf("B", 0), false)
	if first.calls != 1 {
		t.Fatalf("expected removed listener to stay quiet")
	}
}

type selfRemover struct {
	BaseListener
	model *Model
	calls int
}

func (s *selfRemover) RowsAdded(*Model, []*Row) {
	s.calls++
	s.model.RemoveListener(s)
}

// funcListener is a value listener whose type is not comparable.
type funcListener struct {
	BaseListener
	fn func()
}

func (f funcListener) RowsAdded(*Model, []*Row) {
	f.fn()
}

// TestUncomparableListeners verifies value listeners holding funcs register without panicking.
func TestUncomparableListeners(t *testing.T) {
	m := newTestModel()
	calls := 0
	l := funcListener{fn: func() { calls++ }}
	m.AddListener(l)
	m.AddListener(funcListener{fn: func() { calls++ }})
	m.RemoveListener(l)
	rec := &recorder{}
	m.AddListener(rec)
	m.AddListener(rec)
	m.AddRow(leaf("A", 0), false)
	if calls != 2 {
		t.Fatalf("expected both func listeners to hear the add, got %d", calls)
	}
	if got := slices.Index(rec.events, "added:1"); got < 0 || slices.Index(rec.events[got+1:], "added:1") >= 0 {
		t.Fatalf("expected pointer listener registered once, got %v", rec.events)
	}
	m.RemoveListener(rec)
	heard := len(rec.events)
	m.AddRow(leaf("B", 0), false)
	if len(rec.events) != heard || calls != 4 {
		t.Fatalf("expected removed pointer listener to stay quiet, got %v calls=%d", rec.events, calls)
	}
}

// TestIndentFor verifies indent only applies to the hierarchy column.
func TestIndentFor(t *testing.T) {
	child := leaf("A1", 0)
	a := box("A", 0, true, child)
	m := newTestModel(a)
	m.SetIndentWidth(4)
	if got := m.IndentFor(child, m.Column(0)); got != 8 {
		t.Fatalf("expected indent 8, got %d", got)
	}
	if got := m.IndentFor(child, m.Column(1)); got != 0 {
		t.Fatalf("expected no indent outside the hierarchy column, got %d", got)
	}
	m.SetShowIndent(false)
	if got := m.IndentFor(child, m.Column(0)); got != 0 {
		t.Fatalf("expected indent off, got %d", got)
	}
}

// TestOpenStateProperty checks stored order against open ancestry.
func TestOpenStateProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		roots := drawForest(t)
		m := NewModel()
		for _, root := range roots {
			m.AddRow(root, true)
		}
		if !slices.Equal(m.Rows(), expectedOrder(roots)) {
			t.Fatalf("stored order does not match open pre-order")
		}
		for _, row := range allRows(roots) {
			visible := true
			for p := row.Parent(); p != nil; p = p.Parent() {
				visible = visible && p.IsOpen()
			}
			if visible != m.HasRow(row) {
				t.Fatalf("row %s stored=%v, ancestors open=%v", nameOf(row), m.HasRow(row), visible)
			}
		}

		var open []*Row
		for _, row := range m.Rows() {
			if row.IsOpen() {
				open = append(open, row)
			}
		}
		if len(open) == 0 {
			return
		}
		target := rapid.SampledFrom(open).Draw(t, "target")
		before := m.Rows()
		structure := structureOf(roots)
		subtree := len(expectedOrder(target.Children()))

		target.SetOpen(false)
		if m.RowCount() != len(before)-subtree {
			t.Fatalf("closing removed %d rows, expected %d", len(before)-m.RowCount(), subtree)
		}
		target.SetOpen(true)
		if !slices.Equal(m.Rows(), before) {
			t.Fatalf("reopening did not restore stored order")
		}
		for row, state := range structureOf(roots) {
			prior := structure[row]
			if prior.parent != state.parent || prior.open != state.open || !slices.Equal(prior.children, state.children) {
				t.Fatalf("row %s changed structure across close and reopen", nameOf(row))
			}
		}
	})
}

// TestSelectionResizeProperty checks selection size and identity across adds and removes.
func TestSelectionResizeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := NewModel()
		for _, root := range drawForest(t) {
			m.AddRow(root, true)
		}
		steps := rapid.IntRange(1, 8).Draw(t, "steps")
		for s := 0; s < steps; s++ {
			if m.RowCount() > 0 {
				picks := rapid.SliceOfDistinct(rapid.IntRange(0, m.RowCount()-1), rapid.ID[int]).Draw(t, "selected")
				m.SelectIndexes(picks, false)
			}
			selected := m.SelectionAsList(false)

			var removed map[*Row]bool
			if m.RowCount() > 0 && rapid.Bool().Draw(t, "remove") {
				victim := m.RowAt(rapid.IntRange(0, m.RowCount()-1).Draw(t, "victim"))
				m.RemoveRows(victim)
				removed = map[*Row]bool{}
				for _, row := range selected {
					if row == victim || row.IsDescendantOf(victim) {
						removed[row] = true
					}
				}
			} else {
				m.AddRowAt(rapid.IntRange(0, m.RowCount()).Draw(t, "at"), leaf("new", 0), false)
			}

			if m.Selection().Size() != m.RowCount() {
				t.Fatalf("selection size %d != row count %d", m.Selection().Size(), m.RowCount())
			}
			for _, row := range selected {
				if removed[row] {
					continue
				}
				if !m.IsRowSelected(row) {
					t.Fatalf("row %s lost its selection", nameOf(row))
				}
			}
		}
	})
}
