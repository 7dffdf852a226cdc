package app

import (
	"cmp"
	"slices"
	"strings"

	"github.com/hylla/outliner/internal/domain"
	"github.com/hylla/outliner/internal/outline"
	"github.com/hylla/outliner/internal/undo"
)

// Direction names a keyboard move of the selected rows.
type Direction int

// MoveUp and related constants name the supported moves.
const (
	MoveUp Direction = iota
	MoveDown
	Indent
	Outdent
)

// DocumentOptions configures an open document.
type DocumentOptions struct {
	IndentWidth int
	HideIndent  bool
	UndoLimit   int
	IDGen       IDGenerator
	Clock       Clock
	Logger      Logger
}

// NewEntry holds the values of an entry added through a document.
type NewEntry struct {
	Name      string
	Kind      string
	Container bool
	AsChild   bool
	Points    int
	Quantity  int
	Weight    float64
	Reference string
	Notes     string
	Features  []domain.Feature
}

// Document is an open sheet: its outline model, undo history and the
// bookkeeping needed to save it back.
type Document struct {
	outline.BaseListener

	sheet   domain.Sheet
	defs    []domain.ColumnDef
	model   *outline.Model
	planner *outline.DragPlanner
	history *undo.History
	codec   undo.ContentCodec
	idGen   IDGenerator
	clock   Clock
	logger  Logger
	dirty   bool
	touched map[*outline.Row]struct{}
}

// NewDocument builds the outline for sheet from its persisted entries.
// Entries with unknown features, dangling parents or parent cycles are
// repaired and reported through the logger.
func NewDocument(sheet domain.Sheet, entries []domain.Entry, opts DocumentOptions) *Document {
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.IDGen == nil {
		opts.IDGen = func() string { return "" }
	}
	if opts.Clock == nil {
		opts.Clock = defaultClock
	}
	d := &Document{
		sheet:   sheet,
		defs:    domain.DefaultColumns(sheet.Kind),
		model:   outline.NewModel(),
		history: undo.NewHistory(opts.UndoLimit),
		idGen:   opts.IDGen,
		clock:   opts.Clock,
		logger:  opts.Logger,
		touched: map[*outline.Row]struct{}{},
	}
	for _, def := range d.defs {
		d.model.AddColumn(outline.NewColumn(def.ID, def.Title, def.Key, compareFor(def)))
	}
	d.model.SetHierarchyColumnID(domain.NameColumnID)
	if opts.IndentWidth > 0 {
		d.model.SetIndentWidth(opts.IndentWidth)
	}
	d.model.SetShowIndent(!opts.HideIndent)

	for _, root := range buildForest(entries, d.logger) {
		d.model.AddRow(root, true)
	}
	if sheet.SortConfig != "" && !d.model.ApplySortConfig(sheet.SortConfig) {
		d.logger.Warn("ignored stored sort configuration", "sheet", sheet.ID, "config", sheet.SortConfig)
	}
	d.planner = outline.NewDragPlanner(d.model)
	d.model.AddListener(d)
	return d
}

// compareFor orders numeric columns by value. Text columns use the
// outline's text comparison.
func compareFor(def domain.ColumnDef) outline.CompareFunc {
	if !def.Numeric {
		return nil
	}
	key := def.Key
	return func(a, b *outline.Row) int {
		return cmp.Compare(number(a, key), number(b, key))
	}
}

func number(row *outline.Row, key string) float64 {
	e := EntryOf(row)
	if e == nil {
		return 0
	}
	v, _ := e.Number(key)
	return v
}

// EntryOf returns the entry a row displays, or nil for foreign content.
func EntryOf(row *outline.Row) *domain.Entry {
	if row == nil {
		return nil
	}
	e, _ := row.Content().(*domain.Entry)
	return e
}

// buildForest links entries into rows and returns the roots in position
// order.
func buildForest(entries []domain.Entry, logger Logger) []*outline.Row {
	ordered := make([]*domain.Entry, 0, len(entries))
	byID := make(map[string]*domain.Entry, len(entries))
	for i := range entries {
		e := entries[i]
		if _, dup := byID[e.ID]; dup {
			logger.Warn("skipped duplicate entry", "entry", e.ID)
			continue
		}
		kept, skipped := domain.NormalizeFeatures(e.Features)
		for _, f := range skipped {
			logger.Warn("skipped unknown feature", "entry", e.ID, "type", string(f.Type))
		}
		e.Features = kept
		byID[e.ID] = &e
		ordered = append(ordered, &e)
	}
	slices.SortStableFunc(ordered, func(a, b *domain.Entry) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), strings.Compare(a.ID, b.ID))
	})

	children := map[string][]*domain.Entry{}
	for _, e := range ordered {
		if e.ParentID == "" {
			continue
		}
		parent, ok := byID[e.ParentID]
		if !ok {
			logger.Warn("moved entry with missing parent to top level", "entry", e.ID, "parent", e.ParentID)
			e.ParentID = ""
			continue
		}
		if !parent.Container {
			logger.Warn("promoted entry with children to container", "entry", parent.ID)
			parent.Container, parent.Open = true, true
		}
		children[e.ParentID] = append(children[e.ParentID], e)
	}

	rows := make(map[string]*outline.Row, len(ordered))
	for _, e := range ordered {
		if e.Container {
			rows[e.ID] = outline.NewContainerRow(e)
		} else {
			rows[e.ID] = outline.NewRow(e)
		}
	}

	visited := map[string]bool{}
	var attach func(e *domain.Entry)
	attach = func(e *domain.Entry) {
		visited[e.ID] = true
		row := rows[e.ID]
		for _, child := range children[e.ID] {
			if visited[child.ID] {
				continue
			}
			row.AddChild(rows[child.ID])
			attach(child)
		}
	}

	var roots []*outline.Row
	for _, e := range ordered {
		if e.ParentID == "" {
			roots = append(roots, rows[e.ID])
			attach(e)
		}
	}
	for _, e := range ordered {
		if visited[e.ID] {
			continue
		}
		logger.Warn("broke parent cycle at entry", "entry", e.ID, "parent", e.ParentID)
		e.ParentID = ""
		roots = append(roots, rows[e.ID])
		attach(e)
	}

	for _, e := range ordered {
		if e.Container {
			rows[e.ID].SetOpen(e.Open)
		}
	}
	return roots
}

// Sheet returns the sheet this document edits.
func (d *Document) Sheet() domain.Sheet {
	return d.sheet
}

// Columns returns the sheet's column definitions.
func (d *Document) Columns() []domain.ColumnDef {
	return slices.Clone(d.defs)
}

// Model returns the outline model.
func (d *Document) Model() *outline.Model {
	return d.model
}

// Planner returns the drag planner bound to the model.
func (d *Document) Planner() *outline.DragPlanner {
	return d.planner
}

// Dirty reports whether the document has unsaved changes.
func (d *Document) Dirty() bool {
	return d.dirty
}

// Locked reports whether edits are refused.
func (d *Document) Locked() bool {
	return d.model.IsLocked()
}

// SetLocked toggles read-only mode.
func (d *Document) SetLocked(locked bool) {
	d.model.SetLocked(locked)
}

// Walk visits every row in tree order, closed subtrees included. It stops
// when fn returns false.
func (d *Document) Walk(fn func(row *outline.Row, depth int) bool) {
	var walk func(rows []*outline.Row, depth int) bool
	walk = func(rows []*outline.Row, depth int) bool {
		for _, row := range rows {
			if !fn(row, depth) || !walk(row.Children(), depth+1) {
				return false
			}
		}
		return true
	}
	walk(d.model.TopLevelRows(), 0)
}

// FindRow returns the row holding the entry id.
func (d *Document) FindRow(id string) *outline.Row {
	var found *outline.Row
	d.Walk(func(row *outline.Row, _ int) bool {
		if e := EntryOf(row); e != nil && e.ID == id {
			found = row
			return false
		}
		return true
	})
	return found
}

// Focus returns the last selected row, if any.
func (d *Document) Focus() *outline.Row {
	if i := d.model.LastSelectedIndex(); i >= 0 {
		return d.model.RowAt(i)
	}
	return nil
}

// Reveal opens row's ancestors so it is visible, then makes it the only
// selected row.
func (d *Document) Reveal(row *outline.Row) {
	path := row.Path()
	for _, ancestor := range path[:len(path)-1] {
		ancestor.SetOpen(true)
	}
	d.model.SelectRow(row, false)
}

// AddEntry inserts a new entry after the focused row, or as its last child
// when AsChild is set. The new row becomes the selection.
func (d *Document) AddEntry(in NewEntry) (*outline.Row, error) {
	if d.Locked() {
		return nil, ErrLocked
	}
	entry, err := domain.NewEntry(domain.EntryInput{
		ID:        d.idGen(),
		SheetID:   d.sheet.ID,
		Container: in.Container,
		Kind:      in.Kind,
		Name:      in.Name,
		Points:    in.Points,
		Quantity:  in.Quantity,
		Weight:    in.Weight,
		Reference: in.Reference,
		Notes:     in.Notes,
		Features:  in.Features,
	}, d.clock())
	if err != nil {
		return nil, err
	}

	focus := d.Focus()
	target := outline.DropTarget{ChildIndex: d.model.RowCount()}
	switch {
	case in.AsChild && focus != nil:
		if !focus.CanHaveChildren() {
			return nil, ErrNotContainer
		}
		target = outline.DropTarget{Parent: focus, ChildIndex: focus.ChildCount()}
	case focus != nil:
		target = d.siblingAfter(focus)
	}

	var row *outline.Row
	if entry.Container {
		row = outline.NewContainerRow(&entry)
	} else {
		row = outline.NewRow(&entry)
	}
	edit := undo.BeginModelEdit(d.model, "Add "+entry.Name)
	if !d.applyOpened([]*outline.Row{row}, target) {
		return nil, ErrCannotMove
	}
	edit.End()
	d.history.Push(edit)
	return row, nil
}

// applyOpened opens the target parent so moved rows stay visible, then moves
// rows there. A refused move closes the parent again.
func (d *Document) applyOpened(rows []*outline.Row, target outline.DropTarget) bool {
	parent := target.Parent
	opened := parent != nil && parent.CanHaveChildren() && !parent.IsOpen()
	if opened {
		parent.SetOpen(true)
	}
	if d.planner.Apply(rows, target) {
		return true
	}
	if opened {
		parent.SetOpen(false)
	}
	return false
}

func (d *Document) siblingAfter(row *outline.Row) outline.DropTarget {
	if parent := row.Parent(); parent != nil {
		return outline.DropTarget{Parent: parent, ChildIndex: parent.IndexOfChild(row) + 1}
	}
	return outline.DropTarget{ChildIndex: d.subtreeEnd(row)}
}

// subtreeEnd returns the stored index just past row and its visible descendants.
func (d *Document) subtreeEnd(row *outline.Row) int {
	i := d.model.IndexOf(row) + 1
	for ; i < d.model.RowCount() && d.model.RowAt(i).IsDescendantOf(row); i++ {
	}
	return i
}

// RemoveSelection deletes the selected rows and their subtrees. It returns
// the number of selected subtrees removed.
func (d *Document) RemoveSelection() (int, error) {
	if d.Locked() {
		return 0, ErrLocked
	}
	roots := d.model.SelectionAsList(true)
	if len(roots) == 0 {
		return 0, ErrNoSelection
	}
	first := d.model.FirstSelectedIndex()
	label := "Delete " + rowName(roots[0])
	if len(roots) > 1 {
		label = "Delete selection"
	}
	edit := undo.BeginModelEdit(d.model, label)
	d.model.RemoveSelection()
	if count := d.model.RowCount(); count > 0 {
		d.model.Select(min(first, count-1), false)
	}
	edit.End()
	d.history.Push(edit)
	return len(roots), nil
}

// EditField parses text into one field of row's entry as an undoable edit.
func (d *Document) EditField(row *outline.Row, key, text string) error {
	if d.Locked() {
		return ErrLocked
	}
	entry := EntryOf(row)
	if entry == nil {
		return ErrNotFound
	}
	edit, err := undo.BeginRowEdit(row, d.codec, "Edit "+key)
	if err != nil {
		return err
	}
	if err := entry.SetFieldText(key, text); err != nil {
		return err
	}
	changed, err := edit.Finish()
	if err != nil || !changed {
		return err
	}
	d.history.Push(edit)
	var col *outline.Column
	if def, ok := domain.FindColumn(d.defs, key); ok {
		col = d.model.Column(def.ID)
	}
	d.model.NotifyRowModified(row, col)
	return nil
}

// SortBy makes columnID the primary sort key. Repeating it on the primary
// key flips the direction. With extend set the column is appended as the
// next key instead, or flipped if it already sorts.
func (d *Document) SortBy(columnID int, extend bool) error {
	col := d.model.Column(columnID)
	if col == nil {
		return ErrUnknownColumn
	}
	if extend {
		if col.SortSequence() >= 0 {
			return d.applySort("Sort by "+col.Title, func() {
				col.SetSortCriteria(col.SortSequence(), !col.SortAscending())
			})
		}
		next := 0
		for _, c := range d.model.Columns() {
			next = max(next, c.SortSequence()+1)
		}
		return d.applySort("Sort by "+col.Title, func() {
			col.SetSortCriteria(next, true)
		})
	}
	ascending := true
	if col.SortSequence() == 0 {
		ascending = !col.SortAscending()
	}
	return d.SetSort(columnID, ascending)
}

// SetSort sorts by columnID alone in the given direction.
func (d *Document) SetSort(columnID int, ascending bool) error {
	col := d.model.Column(columnID)
	if col == nil {
		return ErrUnknownColumn
	}
	return d.applySort("Sort by "+col.Title, func() {
		for _, c := range d.model.Columns() {
			c.SetSortCriteria(-1, c.SortAscending())
		}
		col.SetSortCriteria(0, ascending)
	})
}

func (d *Document) applySort(label string, configure func()) error {
	if d.Locked() {
		return ErrLocked
	}
	edit := undo.BeginModelEdit(d.model, label)
	configure()
	d.model.Sort()
	edit.End()
	d.history.Push(edit)
	return nil
}

// ClearSort stops sorting. Row order is kept.
func (d *Document) ClearSort() error {
	if d.Locked() {
		return ErrLocked
	}
	if !d.model.IsSorted() {
		return nil
	}
	edit := undo.BeginModelEdit(d.model, "Clear sort")
	d.model.ClearSort()
	edit.End()
	d.history.Push(edit)
	return nil
}

// Move relocates the selected sibling rows one step in dir.
func (d *Document) Move(dir Direction) error {
	if d.Locked() {
		return ErrLocked
	}
	roots := d.model.SelectionAsList(true)
	if len(roots) == 0 {
		return ErrNoSelection
	}
	parent := roots[0].Parent()
	for _, row := range roots[1:] {
		if row.Parent() != parent {
			return ErrCannotMove
		}
	}
	siblings := d.model.TopLevelRows()
	if parent != nil {
		siblings = parent.Children()
	}
	first := slices.Index(siblings, roots[0])
	last := slices.Index(siblings, roots[len(roots)-1])

	var target outline.DropTarget
	var label string
	switch dir {
	case MoveUp:
		if first <= 0 {
			return ErrCannotMove
		}
		label = "Move up"
		target = outline.DropTarget{Parent: parent, ChildIndex: first - 1}
		if parent == nil {
			target.ChildIndex = d.model.IndexOf(siblings[first-1])
		}
	case MoveDown:
		if last < 0 || last >= len(siblings)-1 {
			return ErrCannotMove
		}
		label = "Move down"
		target = outline.DropTarget{Parent: parent, ChildIndex: last + 2}
		if parent == nil {
			target.ChildIndex = d.subtreeEnd(siblings[last+1])
		}
	case Indent:
		if first <= 0 || !siblings[first-1].CanHaveChildren() {
			return ErrCannotMove
		}
		label = "Indent"
		prev := siblings[first-1]
		target = outline.DropTarget{Parent: prev, ChildIndex: prev.ChildCount()}
	case Outdent:
		if parent == nil {
			return ErrCannotMove
		}
		label = "Outdent"
		if grand := parent.Parent(); grand != nil {
			target = outline.DropTarget{Parent: grand, ChildIndex: grand.IndexOfChild(parent) + 1}
		} else {
			target = outline.DropTarget{ChildIndex: d.subtreeEnd(parent)}
		}
	default:
		return ErrCannotMove
	}

	edit := undo.BeginModelEdit(d.model, label)
	if !d.applyOpened(roots, target) {
		return ErrCannotMove
	}
	edit.End()
	d.history.Push(edit)
	return nil
}

// Drop moves dragged rows to target as one undoable edit.
func (d *Document) Drop(rows []*outline.Row, target outline.DropTarget) error {
	if d.Locked() {
		return ErrLocked
	}
	if len(rows) == 0 {
		return ErrCannotMove
	}
	edit := undo.BeginModelEdit(d.model, "Drag")
	if !d.applyOpened(rows, target) {
		return ErrCannotMove
	}
	edit.End()
	d.history.Push(edit)
	return nil
}

// ToggleOpen flips the open state of a container row.
func (d *Document) ToggleOpen(row *outline.Row) {
	if row != nil && row.CanHaveChildren() {
		d.model.ToggleRowOpenState(row)
	}
}

// SetAllOpen opens or closes every container.
func (d *Document) SetAllOpen(open bool) {
	d.Walk(func(row *outline.Row, _ int) bool {
		if row.CanHaveChildren() {
			row.SetOpen(open)
		}
		return true
	})
}

// SetFilter hides rows whose name, and every descendant's name, lacks
// query. An empty query shows everything.
func (d *Document) SetFilter(query string) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		d.model.SetRowFilter(nil)
		return
	}
	var matches func(row *outline.Row) bool
	matches = func(row *outline.Row) bool {
		if strings.Contains(strings.ToLower(rowName(row)), query) {
			return true
		}
		return slices.ContainsFunc(row.Children(), matches)
	}
	d.model.SetRowFilter(outline.RowFilterFunc(func(row *outline.Row) bool {
		return !matches(row)
	}))
}

// Undo reverses the latest edit and returns its label.
func (d *Document) Undo() (string, error) {
	if d.Locked() {
		return "", ErrLocked
	}
	edit, err := d.history.Undo()
	if err != nil {
		return "", err
	}
	return edit.Label(), nil
}

// Redo reapplies the latest undone edit and returns its label.
func (d *Document) Redo() (string, error) {
	if d.Locked() {
		return "", ErrLocked
	}
	edit, err := d.history.Redo()
	if err != nil {
		return "", err
	}
	return edit.Label(), nil
}

// History exposes the undo stacks for status display.
func (d *Document) History() *undo.History {
	return d.history
}

// SelectionText renders the selected subtrees as indented tab-separated lines.
func (d *Document) SelectionText() string {
	var b strings.Builder
	var write func(row *outline.Row, depth int)
	write = func(row *outline.Row, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		for i, def := range d.defs {
			if i > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(row.Content().FieldText(def.Key))
		}
		b.WriteByte('\n')
		for _, child := range row.Children() {
			write(child, depth+1)
		}
	}
	for _, row := range d.model.SelectionAsList(true) {
		write(row, 0)
	}
	return b.String()
}

// Entries flattens the outline into persisted entries. Parent, position and
// open state come from the tree.
func (d *Document) Entries() []domain.Entry {
	now := d.clock()
	var out []domain.Entry
	var walk func(rows []*outline.Row, parentID string)
	walk = func(rows []*outline.Row, parentID string) {
		for i, row := range rows {
			e := EntryOf(row)
			if e == nil {
				continue
			}
			_, touched := d.touched[row]
			if touched || e.ParentID != parentID || e.Position != i || (row.CanHaveChildren() && e.Open != row.IsOpen()) {
				e.Touch(now)
			}
			e.ParentID = parentID
			e.Position = i
			e.Container = row.CanHaveChildren()
			e.Open = row.CanHaveChildren() && row.IsOpen()
			out = append(out, *e)
			walk(row.Children(), e.ID)
		}
	}
	walk(d.model.TopLevelRows(), "")
	return out
}

func (d *Document) markSaved(sheet domain.Sheet) {
	d.sheet = sheet
	d.dirty = false
	clear(d.touched)
}

func rowName(row *outline.Row) string {
	if row == nil || row.Content() == nil {
		return ""
	}
	return row.Content().FieldText(domain.FieldName)
}

// RowsAdded marks the document changed.
func (d *Document) RowsAdded(*outline.Model, []*outline.Row) { d.dirty = true }

// RowsWereRemoved marks the document changed.
func (d *Document) RowsWereRemoved(*outline.Model, []*outline.Row) { d.dirty = true }

// RowModified records the row for a timestamp update on save.
func (d *Document) RowModified(_ *outline.Model, row *outline.Row, _ *outline.Column) {
	d.dirty = true
	d.touched[row] = struct{}{}
}

// Sorted marks the document changed.
func (d *Document) Sorted(*outline.Model) { d.dirty = true }

// SortCleared marks the document changed.
func (d *Document) SortCleared(*outline.Model) { d.dirty = true }

// UndoDidHappen marks the document changed.
func (d *Document) UndoDidHappen(*outline.Model) { d.dirty = true }
