package outline

import "slices"

// RowComparator orders rows without crossing hierarchy boundaries.
type RowComparator struct {
	keys []SortKey
}

// NewRowComparator builds a comparator from keys in priority order. Keys
// with a negative sequence are ignored. Keys sharing a sequence with an
// earlier key are appended after the distinct ones in their original order.
func NewRowComparator(keys []SortKey) *RowComparator {
	return &RowComparator{keys: priorityOrder(keys)}
}

// Active reports whether any key participates.
func (c *RowComparator) Active() bool {
	return len(c.keys) > 0
}

// Compare returns <0, 0 or >0. Siblings compare by keys. An ancestor
// precedes its descendants. Rows in different branches compare by the
// first pair of diverging ancestors.
func (c *RowComparator) Compare(a, b *Row) int {
	if a == b {
		return 0
	}
	if a.parent == b.parent {
		return c.compareSiblings(a, b)
	}
	if a.IsDescendantOf(b) {
		return 1
	}
	if b.IsDescendantOf(a) {
		return -1
	}
	pa, pb := a.Path(), b.Path()
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			return c.compareSiblings(pa[i], pb[i])
		}
	}
	return 0
}

func (c *RowComparator) compareSiblings(a, b *Row) int {
	for _, key := range c.keys {
		result := key.CompareRows(a, b)
		if result == 0 {
			continue
		}
		if !key.SortAscending() {
			return -result
		}
		return result
	}
	return 0
}

// SortRows sorts rows in place. The result keeps every ancestor ahead of
// its descendants and only reorders siblings. When internal is true each
// container's children are re-sorted as well, including closed ones.
func SortRows(keys []SortKey, rows []*Row, internal bool) {
	cmp := NewRowComparator(keys)
	if !cmp.Active() {
		return
	}
	rank := make(map[*Row]int, len(rows))
	for i, row := range rows {
		rank[row] = i
	}
	cmp.sort(rows, rank)
	if !internal {
		return
	}
	for _, container := range collectContainers(nil, rows, map[*Row]struct{}{}) {
		if len(container.children) < 2 {
			continue
		}
		childRank := make(map[*Row]int, len(container.children))
		for i, child := range container.children {
			childRank[child] = i
		}
		cmp.sort(container.children, childRank)
	}
}

// sort orders rows totally, breaking sibling ties by prior rank.
func (c *RowComparator) sort(rows []*Row, rank map[*Row]int) {
	slices.SortFunc(rows, func(a, b *Row) int {
		if a == b {
			return 0
		}
		if a.IsDescendantOf(b) {
			return 1
		}
		if b.IsDescendantOf(a) {
			return -1
		}
		sa, sb := a, b
		if a.parent != b.parent {
			pa, pb := a.Path(), b.Path()
			for i := 0; i < len(pa) && i < len(pb); i++ {
				if pa[i] != pb[i] {
					sa, sb = pa[i], pb[i]
					break
				}
			}
		}
		if result := c.compareSiblings(sa, sb); result != 0 {
			return result
		}
		return rankOf(rank, sa, sb) - rankOf(rank, sb, sa)
	})
}

// rankOf finds a row's prior position. Ancestors missing from the rank map
// fall back to their position among their parent's children.
func rankOf(rank map[*Row]int, row, other *Row) int {
	if r, ok := rank[row]; ok {
		if _, peer := rank[other]; peer {
			return r
		}
	}
	if row.parent != nil {
		return row.parent.IndexOfChild(row)
	}
	return 0
}

func priorityOrder(keys []SortKey) []SortKey {
	var primary, extra []SortKey
	seen := map[int]bool{}
	for _, key := range keys {
		seq := key.SortSequence()
		if seq < 0 {
			continue
		}
		if seen[seq] {
			extra = append(extra, key)
			continue
		}
		seen[seq] = true
		primary = append(primary, key)
	}
	slices.SortStableFunc(primary, func(a, b SortKey) int {
		return a.SortSequence() - b.SortSequence()
	})
	return append(primary, extra...)
}
