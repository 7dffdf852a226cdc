package outline

import "strings"

// CompareFunc orders two rows for one column. It returns <0, 0 or >0.
type CompareFunc func(a, b *Row) int

// SortKey is the sortable facet of a column.
type SortKey interface {
	SortSequence() int
	SortAscending() bool
	CompareRows(a, b *Row) int
}

// Column describes one column of a model.
type Column struct {
	ID        int
	Title     string
	Compare   CompareFunc
	Visible   bool
	sequence  int
	ascending bool
}

// NewColumn creates a visible, unsorted column. A nil compare falls back to
// comparing the text of the field named key.
func NewColumn(id int, title, key string, compare CompareFunc) *Column {
	if compare == nil {
		compare = TextCompare(key)
	}
	return &Column{ID: id, Title: title, Compare: compare, Visible: true, sequence: -1, ascending: true}
}

// SortSequence returns the column's sort priority, -1 when not sorting.
func (c *Column) SortSequence() int {
	return c.sequence
}

// SortAscending reports the sort direction.
func (c *Column) SortAscending() bool {
	return c.ascending
}

// SetSortCriteria sets the sort priority and direction. Any negative
// sequence means not participating.
func (c *Column) SetSortCriteria(sequence int, ascending bool) {
	c.sequence = max(sequence, -1)
	c.ascending = ascending
}

// CompareRows runs the column's comparison strategy.
func (c *Column) CompareRows(a, b *Row) int {
	if c.Compare == nil {
		return 0
	}
	return c.Compare(a, b)
}

// TextCompare compares the text form of a field, case-insensitively first.
func TextCompare(key string) CompareFunc {
	return func(a, b *Row) int {
		at, bt := fieldText(a, key), fieldText(b, key)
		if result := strings.Compare(strings.ToLower(at), strings.ToLower(bt)); result != 0 {
			return result
		}
		return strings.Compare(at, bt)
	}
}

func fieldText(row *Row, key string) string {
	if row == nil || row.content == nil {
		return ""
	}
	return row.content.FieldText(key)
}
