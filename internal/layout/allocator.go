package layout

// ColumnSpec carries one column's measured widths.
type ColumnSpec struct {
	// Preferred is the width the content would like.
	Preferred int
	// Min is the header's preferred width. A column never shrinks below it.
	Min int
	// Dynamic marks columns whose content can rewrap and so may shrink.
	Dynamic bool
}

// Allocator distributes a total width across columns.
type Allocator struct {
	// DividerWidth is the gap between adjacent columns.
	DividerWidth int
	// Hierarchy is the index of the column that absorbs surplus, or -1 for the first column.
	Hierarchy int
}

// Allocate returns one width per column. Surplus goes to the hierarchy
// column. A deficit is shared evenly across dynamic columns in repeated
// passes, clamping each at its minimum, until it is gone or nothing can
// shrink further.
func (a Allocator) Allocate(cols []ColumnSpec, total int) []int {
	widths := make([]int, len(cols))
	if len(cols) == 0 {
		return widths
	}
	available := total - a.DividerWidth*(len(cols)-1)
	sum := 0
	for i, col := range cols {
		widths[i] = max(col.Preferred, col.Min, 0)
		sum += widths[i]
	}

	if available >= sum {
		target := 0
		if a.Hierarchy >= 0 && a.Hierarchy < len(cols) {
			target = a.Hierarchy
		}
		widths[target] += available - sum
		return widths
	}

	deficit := sum - available
	var shrinkable []int
	for i, col := range cols {
		if col.Dynamic && widths[i] > max(col.Min, 0) {
			shrinkable = append(shrinkable, i)
		}
	}
	for deficit > 0 && len(shrinkable) > 0 {
		share := deficit / len(shrinkable)
		extra := deficit % len(shrinkable)
		next := shrinkable[:0:0]
		for n, i := range shrinkable {
			cut := share
			if n < extra {
				cut++
			}
			floor := max(cols[i].Min, 0)
			if widths[i]-cut <= floor {
				cut = widths[i] - floor
			} else {
				next = append(next, i)
			}
			widths[i] -= cut
			deficit -= cut
		}
		shrinkable = next
	}
	return widths
}
