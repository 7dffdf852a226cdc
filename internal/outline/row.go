package outline

import "slices"

// Content supplies per-row field values. The outline never interprets them.
type Content interface {
	Field(key string) any
	FieldText(key string) string
	SetField(key string, value any)
}

// Row is a single tree element. Identity is pointer identity.
type Row struct {
	owner     *Model
	parent    *Row
	children  []*Row
	container bool
	open      bool
	height    int
	content   Content
}

// NewRow creates a leaf row that can never hold children.
func NewRow(content Content) *Row {
	return &Row{content: content, height: -1}
}

// NewContainerRow creates a row that can hold children. New containers start open.
func NewContainerRow(content Content) *Row {
	return &Row{content: content, height: -1, container: true, open: true, children: []*Row{}}
}

// Content returns the row's field provider.
func (r *Row) Content() Content {
	return r.content
}

// Owner returns the model currently storing the row, or nil.
func (r *Row) Owner() *Model {
	return r.owner
}

// Parent returns the parent row, or nil for a top-level row.
func (r *Row) Parent() *Row {
	return r.parent
}

// CanHaveChildren reports whether the row was created as a container.
func (r *Row) CanHaveChildren() bool {
	return r.container
}

// HasChildren reports whether the row holds at least one child.
func (r *Row) HasChildren() bool {
	return len(r.children) > 0
}

// ChildCount returns the number of direct children.
func (r *Row) ChildCount() int {
	return len(r.children)
}

// Children returns a copy of the direct children.
func (r *Row) Children() []*Row {
	if r.children == nil {
		return nil
	}
	return slices.Clone(r.children)
}

// Child returns the child at index, or nil when out of range.
func (r *Row) Child(index int) *Row {
	if index < 0 || index >= len(r.children) {
		return nil
	}
	return r.children[index]
}

// IndexOfChild returns the child's position, or -1.
func (r *Row) IndexOfChild(child *Row) int {
	return slices.Index(r.children, child)
}

// IsOpen reports whether the row's children are part of stored order.
func (r *Row) IsOpen() bool {
	return r.container && r.open
}

// SetOpen opens or closes the row. Leaves ignore the call.
func (r *Row) SetOpen(open bool) {
	if !r.container || r.open == open {
		return
	}
	r.open = open
	if r.owner != nil {
		r.owner.rowOpenStateChanged(r, open)
	}
}

// Height returns the cached display height, -1 when unknown.
func (r *Row) Height() int {
	return r.height
}

// SetHeight caches the display height. Pass -1 to invalidate.
func (r *Row) SetHeight(height int) {
	if height < -1 {
		height = -1
	}
	r.height = height
}

// Depth returns the number of ancestors.
func (r *Row) Depth() int {
	depth := 0
	for p := r.parent; p != nil; p = p.parent {
		depth++
	}
	return depth
}

// Path returns the ancestors from the root down to and including r.
func (r *Row) Path() []*Row {
	path := make([]*Row, r.Depth()+1)
	i := len(path) - 1
	for row := r; row != nil; row = row.parent {
		path[i] = row
		i--
	}
	return path
}

// IsDescendantOf reports whether ancestor appears above r in the tree.
func (r *Row) IsDescendantOf(ancestor *Row) bool {
	if ancestor == nil {
		return false
	}
	for p := r.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// AddChild appends child. See InsertChild.
func (r *Row) AddChild(child *Row) bool {
	return r.InsertChild(len(r.children), child)
}

// InsertChild inserts child at index, clamped to the valid range. It is
// rejected for leaves, for r itself, for an ancestor of r, and for a child
// that already has a parent.
func (r *Row) InsertChild(index int, child *Row) bool {
	if !r.container || child == nil || child == r || child.parent != nil || r.IsDescendantOf(child) {
		return false
	}
	index = max(0, min(index, len(r.children)))
	r.children = slices.Insert(r.children, index, child)
	child.parent = r
	return true
}

// RemoveChild detaches child from r. It leaves stored order untouched.
func (r *Row) RemoveChild(child *Row) bool {
	index := r.IndexOfChild(child)
	if index < 0 {
		return false
	}
	r.children = slices.Delete(r.children, index, index+1)
	child.parent = nil
	return true
}

// RemoveFromParent detaches r from its parent, if any.
func (r *Row) RemoveFromParent() {
	if r.parent != nil {
		r.parent.RemoveChild(r)
	}
}

// collectOpen appends r's open descendants in pre-order.
func (r *Row) collectOpen(dst []*Row) []*Row {
	if !r.IsOpen() {
		return dst
	}
	for _, child := range r.children {
		dst = append(dst, child)
		dst = child.collectOpen(dst)
	}
	return dst
}

// collectContainers appends r and every container beneath it, open or not.
func collectContainers(dst []*Row, rows []*Row, seen map[*Row]struct{}) []*Row {
	for _, row := range rows {
		if !row.container {
			continue
		}
		if _, ok := seen[row]; ok {
			continue
		}
		seen[row] = struct{}{}
		dst = append(dst, row)
		dst = collectContainers(dst, row.children, seen)
	}
	return dst
}
