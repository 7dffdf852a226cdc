package outline

import "slices"

// Mouse selection methods for SelectByMouse. They may be combined.
const (
	MouseNone   = 0
	MouseExtend = 1
	MouseFlip   = 2
)

// Selection is an index set over stored row order with an anchor used by
// range gestures. It knows nothing about rows.
type Selection struct {
	bits       []bool
	anchor     int
	willChange func()
	didChange  func()
}

// NewSelection creates an empty selection of the given size. The hooks are
// optional and fire only when the selected set actually changes.
func NewSelection(size int, willChange, didChange func()) *Selection {
	return &Selection{bits: make([]bool, max(size, 0)), anchor: -1, willChange: willChange, didChange: didChange}
}

// Clone copies the selection state without its hooks.
func (s *Selection) Clone() *Selection {
	return &Selection{bits: slices.Clone(s.bits), anchor: s.anchor}
}

// Equal reports whether both selections hold the same size, bits and anchor.
func (s *Selection) Equal(other *Selection) bool {
	if other == nil {
		return false
	}
	return s.anchor == other.anchor && slices.Equal(s.bits, other.bits)
}

// Size returns the number of indexes tracked.
func (s *Selection) Size() int {
	return len(s.bits)
}

// SetSize resizes the selection. Indexes at or past size are dropped.
func (s *Selection) SetSize(size int) {
	size = max(size, 0)
	if size == len(s.bits) {
		return
	}
	if size < len(s.bits) {
		s.bits = slices.Clone(s.bits[:size])
	} else {
		s.bits = append(s.bits, make([]bool, size-len(s.bits))...)
	}
	if s.anchor >= size {
		s.anchor = s.FirstSelectedIndex()
	}
}

// Anchor returns the anchor index, or -1.
func (s *Selection) Anchor() int {
	return s.anchor
}

// SetAnchor sets the anchor. Out of range values clear it.
func (s *Selection) SetAnchor(index int) {
	s.anchor = s.clampIndex(index)
}

// IsSelected reports whether index is selected.
func (s *Selection) IsSelected(index int) bool {
	return index >= 0 && index < len(s.bits) && s.bits[index]
}

// IsEmpty reports whether nothing is selected.
func (s *Selection) IsEmpty() bool {
	return s.FirstSelectedIndex() < 0
}

// Count returns the number of selected indexes.
func (s *Selection) Count() int {
	count := 0
	for _, on := range s.bits {
		if on {
			count++
		}
	}
	return count
}

// FirstSelectedIndex returns the lowest selected index, or -1.
func (s *Selection) FirstSelectedIndex() int {
	return s.NextSelectedIndex(0)
}

// NextSelectedIndex returns the first selected index at or after from, or -1.
func (s *Selection) NextSelectedIndex(from int) int {
	for i := max(from, 0); i < len(s.bits); i++ {
		if s.bits[i] {
			return i
		}
	}
	return -1
}

// LastSelectedIndex returns the highest selected index, or -1.
func (s *Selection) LastSelectedIndex() int {
	for i := len(s.bits) - 1; i >= 0; i-- {
		if s.bits[i] {
			return i
		}
	}
	return -1
}

// SelectedIndexes returns the selected indexes in ascending order.
func (s *Selection) SelectedIndexes() []int {
	out := make([]int, 0, s.Count())
	for i, on := range s.bits {
		if on {
			out = append(out, i)
		}
	}
	return out
}

// CanSelectAll reports whether SelectAll would change anything.
func (s *Selection) CanSelectAll() bool {
	return len(s.bits) != s.Count()
}

// SelectAll selects every index and moves the anchor to 0.
func (s *Selection) SelectAll() {
	if len(s.bits) == 0 || !s.CanSelectAll() {
		return
	}
	next := make([]bool, len(s.bits))
	for i := range next {
		next[i] = true
	}
	s.anchor = 0
	s.apply(next)
}

// Select selects index. When add is false the prior selection is replaced.
// The anchor moves to index when the resulting prior selection was empty.
func (s *Selection) Select(index int, add bool) {
	next := s.begin(add)
	if !anySet(next) {
		s.anchor = s.clampIndex(index)
	}
	if index >= 0 && index < len(next) {
		next[index] = true
	}
	s.apply(next)
}

// SelectRange selects from..to inclusive, in either order.
func (s *Selection) SelectRange(from, to int, add bool) {
	next := s.begin(add)
	if !anySet(next) {
		s.anchor = s.clampIndex(from)
	}
	if from > to {
		from, to = to, from
	}
	from = max(from, 0)
	to = min(to, len(next)-1)
	for i := from; i <= to; i++ {
		next[i] = true
	}
	s.apply(next)
}

// SelectIndexes selects each listed index.
func (s *Selection) SelectIndexes(indexes []int, add bool) {
	next := s.begin(add)
	if !anySet(next) {
		if len(indexes) > 0 {
			s.anchor = s.clampIndex(indexes[0])
		} else {
			s.anchor = -1
		}
	}
	for _, index := range indexes {
		if index >= 0 && index < len(next) {
			next[index] = true
		}
	}
	s.apply(next)
}

// Deselect clears index. A deselected anchor moves to the first selected index.
func (s *Selection) Deselect(index int) {
	if !s.IsSelected(index) {
		return
	}
	next := slices.Clone(s.bits)
	next[index] = false
	if s.anchor == index {
		s.anchor = firstSet(next)
	}
	s.apply(next)
}

// DeselectRange clears from..to inclusive, in either order.
func (s *Selection) DeselectRange(from, to int) {
	if from > to {
		from, to = to, from
	}
	next := slices.Clone(s.bits)
	for i := max(from, 0); i <= min(to, len(next)-1); i++ {
		next[i] = false
	}
	if s.anchor >= from && s.anchor <= to {
		s.anchor = firstSet(next)
	}
	s.apply(next)
}

// DeselectIndexes clears each listed index.
func (s *Selection) DeselectIndexes(indexes []int) {
	next := slices.Clone(s.bits)
	for _, index := range indexes {
		if index >= 0 && index < len(next) {
			next[index] = false
		}
		if s.anchor == index {
			s.anchor = -1
		}
	}
	if s.anchor == -1 {
		s.anchor = firstSet(next)
	}
	s.apply(next)
}

// DeselectAll clears the selection and the anchor.
func (s *Selection) DeselectAll() {
	if s.IsEmpty() {
		return
	}
	s.anchor = -1
	s.apply(make([]bool, len(s.bits)))
}

// SelectUp moves or extends the selection one index up, as the up arrow
// does. It returns the index to scroll into view, or -1.
func (s *Selection) SelectUp(extend bool) int {
	if len(s.bits) == 0 {
		return -1
	}
	index := -1
	count := s.Count()
	switch {
	case extend && count > 0:
		index = s.LastSelectedIndex()
		if index > s.anchor {
			s.Deselect(index)
			index--
		} else {
			index = s.FirstSelectedIndex() - 1
			if index >= 0 {
				s.Select(index, true)
			}
		}
	case count == 0:
		s.Select(len(s.bits)-1, false)
	default:
		index = s.FirstSelectedIndex()
		if count == 1 {
			index--
		}
		if index >= 0 {
			s.Select(index, false)
		}
	}
	return s.clampIndex(index)
}

// SelectDown moves or extends the selection one index down. It returns the
// index to scroll into view, or -1.
func (s *Selection) SelectDown(extend bool) int {
	if len(s.bits) == 0 {
		return -1
	}
	index := -1
	count := s.Count()
	switch {
	case extend && count > 0:
		index = s.FirstSelectedIndex()
		if index < s.anchor {
			s.Deselect(index)
			index++
		} else {
			index = s.LastSelectedIndex() + 1
			if index < len(s.bits) {
				s.Select(index, true)
			}
		}
	case count == 0:
		s.Select(0, false)
	default:
		index = s.LastSelectedIndex()
		if count == 1 {
			index++
		}
		if index < len(s.bits) {
			s.Select(index, false)
		}
	}
	return s.clampIndex(index)
}

// SelectToHome selects the first index, or extends from the anchor to it.
func (s *Selection) SelectToHome(extend bool) int {
	if len(s.bits) == 0 {
		return -1
	}
	if extend && !s.IsEmpty() {
		if s.anchor < 0 {
			s.anchor = s.LastSelectedIndex()
		}
		s.SelectRange(0, s.anchor, true)
	} else {
		s.Select(0, false)
	}
	return 0
}

// SelectToEnd selects the last index, or extends from the anchor to it.
func (s *Selection) SelectToEnd(extend bool) int {
	if len(s.bits) == 0 {
		return -1
	}
	last := len(s.bits) - 1
	if extend && !s.IsEmpty() {
		if s.anchor < 0 {
			s.anchor = s.FirstSelectedIndex()
		}
		s.SelectRange(s.anchor, last, true)
	} else {
		s.Select(last, false)
	}
	return last
}

// SelectByMouse applies a click at index. It returns index when the click
// landed on a row that is already part of a multi-row selection, so the
// caller can collapse the selection on release if no drag starts. Otherwise
// it returns -1.
func (s *Selection) SelectByMouse(index, method int) int {
	switch {
	case index == -1:
		s.DeselectAll()
	case s.anchor >= 0 && method&MouseExtend == MouseExtend:
		s.SelectRange(s.anchor, index, true)
	case method&MouseFlip == MouseFlip:
		if s.IsSelected(index) {
			s.Deselect(index)
		} else {
			s.Select(index, true)
		}
	case !s.IsSelected(index):
		s.Select(index, false)
	case s.Count() != 1:
		return index
	}
	return -1
}

func (s *Selection) begin(add bool) []bool {
	if !add {
		return make([]bool, len(s.bits))
	}
	return slices.Clone(s.bits)
}

func (s *Selection) apply(next []bool) {
	if slices.Equal(next, s.bits) {
		return
	}
	if s.willChange != nil {
		s.willChange()
	}
	s.bits = next
	if s.didChange != nil {
		s.didChange()
	}
}

func (s *Selection) clampIndex(index int) int {
	if index < 0 || index >= len(s.bits) {
		return -1
	}
	return index
}

func anySet(bits []bool) bool {
	return firstSet(bits) >= 0
}

func firstSet(bits []bool) int {
	return slices.Index(bits, true)
}
