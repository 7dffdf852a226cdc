package outline

import (
	"slices"
	"testing"

	"pgregory.net/rapid"
)

// TestSortSiblingsByValue covers ascending then descending order under one parent.
func TestSortSiblingsByValue(t *testing.T) {
	r3, r1, r2 := leaf("three", 3), leaf("one", 1), leaf("two", 2)
	parent := box("P", 0, true, r3, r1, r2)
	m := newTestModel(parent)

	m.Column(1).SetSortCriteria(0, true)
	m.Sort()
	if got := names(m.Rows()); !slices.Equal(got, []string{"P", "one", "two", "three"}) {
		t.Fatalf("unexpected ascending order %v", got)
	}
	m.Column(1).SetSortCriteria(0, false)
	m.Sort()
	if got := names(m.Rows()); !slices.Equal(got, []string{"P", "three", "two", "one"}) {
		t.Fatalf("unexpected descending order %v", got)
	}
	if got := names(parent.Children()); !slices.Equal(got, []string{"three", "two", "one"}) {
		t.Fatalf("expected children to be re-sorted, got %v", got)
	}
}

// TestSortKeepsHierarchy verifies containers stay ahead of their contents.
func TestSortKeepsHierarchy(t *testing.T) {
	a := box("A", 9, true, leaf("A2", 2), leaf("A1", 1))
	b := box("B", 1, false, leaf("B2", 2), leaf("B1", 1))
	c := leaf("C", 5)
	m := newTestModel(a, b, c)
	m.Column(1).SetSortCriteria(0, true)
	m.Sort()
	if got := names(m.Rows()); !slices.Equal(got, []string{"B", "C", "A", "A1", "A2"}) {
		t.Fatalf("unexpected order %v", got)
	}
	b.SetOpen(true)
	if got := names(m.Rows()); !slices.Equal(got, []string{"B", "B1", "B2", "C", "A", "A1", "A2"}) {
		t.Fatalf("expected closed children to have been sorted, got %v", got)
	}
}

// TestSortPreservesSelection verifies selection moves with its rows.
func TestSortPreservesSelection(t *testing.T) {
	x, y := leaf("x", 2), leaf("y", 1)
	m := newTestModel(x, y)
	m.SelectRow(x, false)
	m.Column(1).SetSortCriteria(0, true)
	m.Sort()
	if !m.IsRowSelected(x) || m.IndexOf(x) != 1 {
		t.Fatalf("expected x selected at index 1")
	}
}

// TestSortSecondaryKeyBreaksTies verifies priority order of keys.
func TestSortSecondaryKeyBreaksTies(t *testing.T) {
	b, a, c := leaf("b", 1), leaf("a", 1), leaf("c", 0)
	m := newTestModel(b, a, c)
	m.Column(1).SetSortCriteria(0, true)
	m.Column(0).SetSortCriteria(1, true)
	m.Sort()
	if got := names(m.Rows()); !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

// TestComparatorIgnoresInactiveKeys verifies unsequenced keys never compare.
func TestComparatorIgnoresInactiveKeys(t *testing.T) {
	col := valueColumn(1)
	cmp := NewRowComparator([]SortKey{col})
	if cmp.Active() {
		t.Fatalf("expected inactive comparator")
	}
	if got := cmp.Compare(leaf("a", 1), leaf("b", 2)); got != 0 {
		t.Fatalf("expected tie, got %d", got)
	}
}

// TestSiblingComparisonProperty checks antisymmetry and transitivity among siblings.
func TestSiblingComparisonProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := make([]*Row, 3)
		for i := range rows {
			rows[i] = leaf(rapid.StringMatching(`[a-c]{0,2}`).Draw(t, "name"), rapid.IntRange(0, 3).Draw(t, "value"))
		}
		box("P", 0, true, rows...)
		name := NewColumn(0, "Name", "name", nil)
		value := valueColumn(1)
		name.SetSortCriteria(rapid.IntRange(-1, 1).Draw(t, "nameSeq"), rapid.Bool().Draw(t, "nameAsc"))
		value.SetSortCriteria(rapid.IntRange(-1, 1).Draw(t, "valueSeq"), rapid.Bool().Draw(t, "valueAsc"))
		cmp := NewRowComparator([]SortKey{name, value})

		sign := func(v int) int {
			switch {
			case v < 0:
				return -1
			case v > 0:
				return 1
			}
			return 0
		}
		for _, a := range rows {
			for _, b := range rows {
				if sign(cmp.Compare(a, b)) != -sign(cmp.Compare(b, a)) {
					t.Fatalf("compare is not antisymmetric")
				}
			}
		}
		a, b, c := rows[0], rows[1], rows[2]
		if cmp.Compare(a, b) <= 0 && cmp.Compare(b, c) <= 0 && cmp.Compare(a, c) > 0 {
			t.Fatalf("compare is not transitive")
		}
	})
}

// TestSortPreOrderProperty checks that sorting keeps stored order a valid open pre-order.
func TestSortPreOrderProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		roots := drawForest(t)
		m := NewModel()
		m.AddColumn(valueColumn(1))
		for _, root := range roots {
			m.AddRow(root, true)
		}
		m.Column(1).SetSortCriteria(0, rapid.Bool().Draw(t, "asc"))
		m.Sort()
		if !slices.Equal(m.Rows(), expectedOrder(m.TopLevelRows())) {
			t.Fatalf("sorted rows are not a pre-order of the sorted children")
		}
	})
}
