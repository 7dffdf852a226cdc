package outline

import (
	"fmt"
	"strconv"

	"pgregory.net/rapid"
)

// item is a minimal row content used across tests.
type item struct {
	name  string
	value int
}

func (i *item) Field(key string) any {
	switch key {
	case "name":
		return i.name
	case "value":
		return i.value
	}
	return nil
}

func (i *item) FieldText(key string) string {
	switch key {
	case "name":
		return i.name
	case "value":
		return strconv.Itoa(i.value)
	}
	return ""
}

func (i *item) SetField(key string, value any) {
	switch key {
	case "name":
		i.name, _ = value.(string)
	case "value":
		i.value, _ = value.(int)
	}
}

func leaf(name string, value int) *Row {
	return NewRow(&item{name: name, value: value})
}

func box(name string, value int, open bool, children ...*Row) *Row {
	row := NewContainerRow(&item{name: name, value: value})
	for _, child := range children {
		row.AddChild(child)
	}
	row.SetOpen(open)
	return row
}

func nameOf(row *Row) string {
	return row.Content().(*item).name
}

func names(rows []*Row) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = nameOf(row)
	}
	return out
}

func valueColumn(id int) *Column {
	return NewColumn(id, "Value", "value", func(a, b *Row) int {
		return a.Content().(*item).value - b.Content().(*item).value
	})
}

func newTestModel(roots ...*Row) *Model {
	m := NewModel()
	m.AddColumn(NewColumn(0, "Name", "name", nil))
	m.AddColumn(valueColumn(1))
	m.SetHierarchyColumnID(0)
	for _, root := range roots {
		m.AddRow(root, true)
	}
	return m
}

// recorder captures notification names in order.
type recorder struct {
	BaseListener
	events []string
}

func (r *recorder) RowsAdded(_ *Model, rows []*Row) {
	r.events = append(r.events, fmt.Sprintf("added:%d", len(rows)))
}

func (r *recorder) RowsWillBeRemoved(_ *Model, rows []*Row) {
	r.events = append(r.events, fmt.Sprintf("willRemove:%d", len(rows)))
}

func (r *recorder) RowsWereRemoved(_ *Model, rows []*Row) {
	r.events = append(r.events, fmt.Sprintf("removed:%d", len(rows)))
}

func (r *recorder) SortCleared(*Model)         { r.events = append(r.events, "sortCleared") }
func (r *recorder) Sorted(*Model)              { r.events = append(r.events, "sorted") }
func (r *recorder) SelectionWillChange(*Model) { r.events = append(r.events, "selWill") }
func (r *recorder) SelectionDidChange(*Model)  { r.events = append(r.events, "selDid") }
func (r *recorder) UndoWillHappen(*Model)      { r.events = append(r.events, "undoWill") }
func (r *recorder) UndoDidHappen(*Model)       { r.events = append(r.events, "undoDid") }
func (r *recorder) LockedStateWillChange(*Model) {
	r.events = append(r.events, "lockWill")
}
func (r *recorder) LockedStateDidChange(*Model) {
	r.events = append(r.events, "lockDid")
}

// drawForest builds a random forest with random open states.
func drawForest(t *rapid.T) []*Row {
	seq := 0
	roots := make([]*Row, rapid.IntRange(1, 4).Draw(t, "roots"))
	for i := range roots {
		roots[i] = drawRow(t, 0, &seq)
	}
	return roots
}

func drawRow(t *rapid.T, depth int, seq *int) *Row {
	*seq++
	it := &item{name: fmt.Sprintf("r%d", *seq), value: rapid.IntRange(0, 9).Draw(t, "value")}
	if depth >= 3 || !rapid.Bool().Draw(t, "container") {
		return NewRow(it)
	}
	row := NewContainerRow(it)
	for n := rapid.IntRange(0, 3).Draw(t, "children"); n > 0; n-- {
		row.AddChild(drawRow(t, depth+1, seq))
	}
	row.SetOpen(rapid.Bool().Draw(t, "open"))
	return row
}

// expectedOrder is the pre-order of rows whose ancestors are all open.
func expectedOrder(roots []*Row) []*Row {
	var out []*Row
	for _, root := range roots {
		out = append(out, root)
		if root.IsOpen() {
			out = append(out, expectedOrder(root.Children())...)
		}
	}
	return out
}

// allRows walks every row reachable from roots, open or not.
func allRows(roots []*Row) []*Row {
	var out []*Row
	for _, root := range roots {
		out = append(out, root)
		out = append(out, allRows(root.Children())...)
	}
	return out
}

type rowState struct {
	parent   *Row
	open     bool
	children []*Row
}

func structureOf(roots []*Row) map[*Row]rowState {
	out := map[*Row]rowState{}
	for _, row := range allRows(roots) {
		out[row] = rowState{parent: row.Parent(), open: row.IsOpen(), children: row.Children()}
	}
	return out
}
