package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/outliner/internal/app"
	"github.com/hylla/outliner/internal/domain"
	"github.com/hylla/outliner/internal/layout"
	"github.com/hylla/outliner/internal/outline"
	"github.com/hylla/outliner/internal/undo"
)

// Service is the subset of app.Service the outline view drives.
type Service interface {
	EnsureDefaultSheet(context.Context) (domain.Sheet, error)
	ListSheets(context.Context) ([]domain.Sheet, error)
	CreateSheet(context.Context, string, domain.SheetKind) (domain.Sheet, error)
	OpenDocument(context.Context, string) (*app.Document, error)
	SaveDocument(context.Context, *app.Document) error
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define the modal states.
const (
	modeNone inputMode = iota
	modeAddEntry
	modeRename
	modeEditField
	modeFilter
	modeNewSheet
	modeConfirmDelete
)

// notesPaneWidth is the width of the notes pane when it is shown.
const notesPaneWidth = 36

// Model is the Bubble Tea model for the outline view.
type Model struct {
	svc Service

	ready  bool
	busy   bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	sheets        []domain.Sheet
	selectedSheet int
	doc           *app.Document

	mode         inputMode
	input        textinput.Model
	pendingEntry app.NewEntry
	editRow      *outline.Row
	editKey      string
	filterQuery  string

	column    int
	scrollTop int

	showNotes     bool
	confirmDelete bool

	drag dragState

	layout   *columnLayout
	fits     *layout.FitScheduler
	notes    *markdownRenderer
	copyText func(string) error
}

// dragState tracks one pointer press until its release.
type dragState struct {
	pressed  bool
	active   bool
	startY   int
	deferred int
	rows     []*outline.Row
	target   outline.DropTarget
	valid    bool
}

// loadedMsg carries the sheet list and the opened document.
type loadedMsg struct {
	sheets   []domain.Sheet
	selected int
	doc      *app.Document
	err      error
}

// savedMsg reports a finished save.
type savedMsg struct {
	err  error
	quit bool
}

// copiedMsg reports a finished clipboard write.
type copiedMsg struct {
	rows int
	err  error
}

// fitColumnsMsg flushes pending column fits.
type fitColumnsMsg struct{}

// NewModel constructs the outline view over svc.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:      svc,
		status:   "loading...",
		help:     h,
		keys:     newKeyMap(),
		input:    newModalInput("", "", "", 256),
		layout:   newColumnLayout(DefaultLayoutConfig()),
		fits:     layout.NewFitScheduler(),
		notes:    &markdownRenderer{},
		copyText: systemClipboard,
	}
	m.showNotes = true
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init loads the first sheet.
func (m Model) Init() tea.Cmd {
	return m.loadSheet("")
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.layout.total = m.tableWidth()
		m.reveal()
		return m, m.requestFit()

	case loadedMsg:
		m.busy = false
		if msg.err != nil {
			if m.doc != nil {
				m.status = msg.err.Error()
				return m, nil
			}
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.sheets = msg.sheets
		m.selectedSheet = msg.selected
		m.doc = msg.doc
		m.layout.doc = msg.doc
		m.column = 0
		m.scrollTop = 0
		m.filterQuery = ""
		if model := m.doc.Model(); !model.HasSelection() && model.RowCount() > 0 {
			model.Select(0, false)
		}
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, m.requestFit()

	case savedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
			return m, nil
		}
		if msg.quit {
			return m, tea.Quit
		}
		m.status = "saved"
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("copied %d rows", msg.rows)
		return m, nil

	case fitColumnsMsg:
		m.fits.Flush()
		return m, nil

	case tea.KeyPressMsg:
		if m.busy {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		if m.doc == nil {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	default:
		return m, nil
	}
}

// loadSheet opens sheetID, or the first sheet when sheetID is empty.
func (m *Model) loadSheet(sheetID string) tea.Cmd {
	return m.openSheet(func(context.Context) (string, error) {
		return sheetID, nil
	})
}

// openSheet saves the open document when it changed, resolves the target
// sheet and opens it. The document is handed to the command, so keys are
// ignored until loadedMsg arrives.
func (m *Model) openSheet(target func(context.Context) (string, error)) tea.Cmd {
	svc := m.svc
	var pending *app.Document
	if m.doc != nil && m.doc.Dirty() {
		pending = m.doc
	}
	m.busy = true
	return func() tea.Msg {
		ctx := context.Background()
		if pending != nil {
			if err := svc.SaveDocument(ctx, pending); err != nil {
				return loadedMsg{err: fmt.Errorf("save sheet: %w", err)}
			}
		}
		sheetID, err := target(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		if _, err := svc.EnsureDefaultSheet(ctx); err != nil {
			return loadedMsg{err: err}
		}
		sheets, err := svc.ListSheets(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		selected := 0
		for i, sheet := range sheets {
			if sheet.ID == sheetID {
				selected = i
				break
			}
		}
		doc, err := svc.OpenDocument(ctx, sheets[selected].ID)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{sheets: sheets, selected: selected, doc: doc}
	}
}

// saveDocument writes the open document.
func (m *Model) saveDocument(quit bool) tea.Cmd {
	svc, doc := m.svc, m.doc
	m.busy = true
	return func() tea.Msg {
		return savedMsg{err: svc.SaveDocument(context.Background(), doc), quit: quit}
	}
}

// createSheet creates a sheet from "name" or "name:kind" and opens it.
func (m *Model) createSheet(raw string) tea.Cmd {
	name, kind, _ := strings.Cut(raw, ":")
	kind = strings.ToLower(strings.TrimSpace(kind))
	svc := m.svc
	return m.openSheet(func(ctx context.Context) (string, error) {
		sheet, err := svc.CreateSheet(ctx, name, domain.SheetKind(kind))
		return sheet.ID, err
	})
}

// requestFit schedules a column fit for the next update.
func (m Model) requestFit() tea.Cmd {
	if !m.fits.Request(m.layout) {
		return nil
	}
	return func() tea.Msg { return fitColumnsMsg{} }
}

// handleNormalModeKey handles keys outside modal input.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	model := m.doc.Model()
	switch {
	case key.Matches(msg, m.keys.quit):
		if m.doc.Dirty() {
			m.status = "saving..."
			cmd := m.saveDocument(true)
			return m, cmd
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		if m.help.ShowAll {
			m.status = "help"
		} else {
			m.status = "ready"
		}
		return m, nil
	case msg.String() == "esc":
		if m.help.ShowAll {
			m.help.ShowAll = false
			m.status = "ready"
			return m, nil
		}
		if m.filterQuery != "" {
			m.applyFilter("")
			m.status = "filter cleared"
			return m, m.requestFit()
		}
		if model.SelectionCount() > 1 {
			if focus := m.doc.Focus(); focus != nil {
				model.SelectRow(focus, false)
			}
			m.status = "selection cleared"
		}
		return m, nil
	case key.Matches(msg, m.keys.up):
		m.moveCursor(-1, false)
		return m, nil
	case key.Matches(msg, m.keys.down):
		m.moveCursor(1, false)
		return m, nil
	case key.Matches(msg, m.keys.extendUp):
		m.moveCursor(-1, true)
		return m, nil
	case key.Matches(msg, m.keys.extendDown):
		m.moveCursor(1, true)
		return m, nil
	case key.Matches(msg, m.keys.home):
		m.jumpCursor(false, shiftHeld(msg))
		return m, nil
	case key.Matches(msg, m.keys.end):
		m.jumpCursor(true, shiftHeld(msg))
		return m, nil
	case key.Matches(msg, m.keys.toggleOpen):
		m.doc.ToggleOpen(m.doc.Focus())
		m.reveal()
		return m, m.requestFit()
	case key.Matches(msg, m.keys.open):
		if row := m.doc.Focus(); row != nil && row.CanHaveChildren() && !row.IsOpen() {
			row.SetOpen(true)
		}
		return m, m.requestFit()
	case key.Matches(msg, m.keys.close):
		row := m.doc.Focus()
		switch {
		case row == nil:
		case row.CanHaveChildren() && row.IsOpen():
			row.SetOpen(false)
		case row.Parent() != nil:
			model.SelectRow(row.Parent(), false)
		}
		m.reveal()
		return m, m.requestFit()
	case key.Matches(msg, m.keys.openAll):
		m.doc.SetAllOpen(true)
		m.status = "opened all"
		return m, m.requestFit()
	case key.Matches(msg, m.keys.closeAll):
		m.doc.SetAllOpen(false)
		m.status = "closed all"
		m.reveal()
		return m, m.requestFit()
	case key.Matches(msg, m.keys.columnLeft):
		m.column = clamp(m.column-1, 0, len(m.doc.Columns())-1)
		return m, nil
	case key.Matches(msg, m.keys.columnRight):
		m.column = clamp(m.column+1, 0, len(m.doc.Columns())-1)
		return m, nil
	case key.Matches(msg, m.keys.newSibling):
		cmd := m.startAddEntry(app.NewEntry{})
		return m, cmd
	case key.Matches(msg, m.keys.newChild):
		cmd := m.startAddEntry(app.NewEntry{AsChild: true})
		return m, cmd
	case key.Matches(msg, m.keys.newContainer):
		cmd := m.startAddEntry(app.NewEntry{Container: true})
		return m, cmd
	case key.Matches(msg, m.keys.rename):
		cmd := m.startEditField(domain.FieldName)
		return m, cmd
	case key.Matches(msg, m.keys.editField):
		defs := m.doc.Columns()
		cmd := m.startEditField(defs[clamp(m.column, 0, len(defs)-1)].Key)
		return m, cmd
	case key.Matches(msg, m.keys.deleteRows):
		if !model.HasSelection() {
			m.status = "no row selected"
			return m, nil
		}
		if m.confirmDelete {
			m.mode = modeConfirmDelete
			m.status = fmt.Sprintf("delete %d rows? y/n", len(model.SelectionAsList(true)))
			return m, nil
		}
		return m.removeSelection()
	case key.Matches(msg, m.keys.moveUp):
		return m.applyMove(app.MoveUp, "moved up")
	case key.Matches(msg, m.keys.moveDown):
		return m.applyMove(app.MoveDown, "moved down")
	case key.Matches(msg, m.keys.indent):
		return m.applyMove(app.Indent, "indented")
	case key.Matches(msg, m.keys.outdent):
		return m.applyMove(app.Outdent, "outdented")
	case key.Matches(msg, m.keys.sortBy):
		return m.sortColumn(slices.Index(sortKeys, msg.String()), false)
	case key.Matches(msg, m.keys.sortExtend):
		return m.sortColumn(slices.Index(sortExtendKeys, msg.String()), true)
	case key.Matches(msg, m.keys.clearSort):
		if err := m.doc.ClearSort(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = "sort cleared"
		return m, nil
	case key.Matches(msg, m.keys.undo):
		label, err := m.doc.Undo()
		return m.afterHistory("undo", label, err)
	case key.Matches(msg, m.keys.redo):
		label, err := m.doc.Redo()
		return m.afterHistory("redo", label, err)
	case key.Matches(msg, m.keys.filter):
		m.mode = modeFilter
		m.input = newModalInput("filter: ", "name contains", m.filterQuery, 120)
		m.input.CursorEnd()
		m.status = "filter"
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.copy):
		text := m.doc.SelectionText()
		if text == "" {
			m.status = "no row selected"
			return m, nil
		}
		write, rows := m.copyText, strings.Count(text, "\n")
		return m, func() tea.Msg {
			return copiedMsg{rows: rows, err: write(text)}
		}
	case key.Matches(msg, m.keys.notes):
		m.showNotes = !m.showNotes
		m.layout.total = m.tableWidth()
		return m, m.requestFit()
	case key.Matches(msg, m.keys.nextSheet):
		return m.switchSheet(1)
	case key.Matches(msg, m.keys.prevSheet):
		return m.switchSheet(-1)
	case key.Matches(msg, m.keys.newSheet):
		m.mode = modeNewSheet
		m.input = newModalInput("sheet: ", "name or name:kind", "", 80)
		m.status = "new sheet"
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.save):
		m.status = "saving..."
		cmd := m.saveDocument(false)
		return m, cmd
	case key.Matches(msg, m.keys.lock):
		m.doc.SetLocked(!m.doc.Locked())
		if m.doc.Locked() {
			m.status = "locked"
		} else {
			m.status = "unlocked"
		}
		return m, nil
	default:
		return m, nil
	}
}

// handleInputModeKey handles keys while a prompt or confirmation is open.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeConfirmDelete {
		switch msg.String() {
		case "y", "Y", "enter":
			m.mode = modeNone
			return m.removeSelection()
		case "n", "N", "esc":
			m.mode = modeNone
			m.status = "cancelled"
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		if m.mode == modeFilter {
			m.applyFilter("")
			m.status = "filter cleared"
		} else {
			m.status = "cancelled"
		}
		m.mode = modeNone
		m.input.Blur()
		return m, m.requestFit()
	case "enter":
		return m.submitInputMode()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeFilter {
		m.applyFilter(m.input.Value())
		return m, tea.Batch(cmd, m.requestFit())
	}
	return m, cmd
}

// submitInputMode applies the open prompt.
func (m Model) submitInputMode() (tea.Model, tea.Cmd) {
	mode := m.mode
	value := strings.TrimSpace(m.input.Value())
	m.mode = modeNone
	m.input.Blur()

	switch mode {
	case modeAddEntry:
		if value == "" {
			m.status = "add cancelled"
			return m, nil
		}
		in := m.pendingEntry
		in.Name = value
		row, err := m.doc.AddEntry(in)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = "added " + value
		m.revealRow(row)
		return m, m.requestFit()
	case modeRename, modeEditField:
		if m.editRow == nil || m.editRow.Owner() == nil {
			m.status = "row no longer visible"
			return m, nil
		}
		if err := m.doc.EditField(m.editRow, m.editKey, value); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = "updated " + m.editKey
		return m, m.requestFit()
	case modeFilter:
		m.applyFilter(value)
		if value == "" {
			m.status = "filter cleared"
		} else {
			m.status = "filter: " + value
		}
		return m, m.requestFit()
	case modeNewSheet:
		if value == "" {
			m.status = "new sheet cancelled"
			return m, nil
		}
		m.status = "ready"
		cmd := m.createSheet(value)
		return m, cmd
	default:
		return m, nil
	}
}

// startAddEntry opens the name prompt for a new row.
func (m *Model) startAddEntry(in app.NewEntry) tea.Cmd {
	if m.doc.Locked() {
		m.status = app.ErrLocked.Error()
		return nil
	}
	if in.AsChild {
		if focus := m.doc.Focus(); focus == nil || !focus.CanHaveChildren() {
			m.status = app.ErrNotContainer.Error()
			return nil
		}
	}
	m.pendingEntry = in
	m.mode = modeAddEntry
	prompt := "new: "
	switch {
	case in.AsChild:
		prompt = "new child: "
	case in.Container:
		prompt = "new container: "
	}
	m.input = newModalInput(prompt, "name", "", 120)
	m.status = strings.TrimSuffix(prompt, ": ")
	return m.input.Focus()
}

// startEditField opens a prompt prefilled with the focused row's field.
func (m *Model) startEditField(fieldKey string) tea.Cmd {
	row := m.doc.Focus()
	if row == nil {
		m.status = "no row selected"
		return nil
	}
	if m.doc.Locked() {
		m.status = app.ErrLocked.Error()
		return nil
	}
	m.editRow = row
	m.editKey = fieldKey
	if fieldKey == domain.FieldName {
		m.mode = modeRename
	} else {
		m.mode = modeEditField
	}
	m.input = newModalInput(fieldKey+": ", "", row.Content().FieldText(fieldKey), 256)
	m.input.CursorEnd()
	m.status = "edit " + fieldKey
	return m.input.Focus()
}

// removeSelection deletes the selected subtrees.
func (m Model) removeSelection() (tea.Model, tea.Cmd) {
	n, err := m.doc.RemoveSelection()
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.status = fmt.Sprintf("deleted %d rows", n)
	m.reveal()
	return m, m.requestFit()
}

// applyMove moves the selection and reports the outcome.
func (m Model) applyMove(dir app.Direction, done string) (tea.Model, tea.Cmd) {
	if err := m.doc.Move(dir); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.status = done
	m.reveal()
	return m, m.requestFit()
}

// sortColumn sorts by the column at position idx.
func (m Model) sortColumn(idx int, extend bool) (tea.Model, tea.Cmd) {
	defs := m.doc.Columns()
	if idx < 0 || idx >= len(defs) {
		m.status = "no such column"
		return m, nil
	}
	if err := m.doc.SortBy(defs[idx].ID, extend); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.status = "sorted by " + m.sortSummary()
	m.reveal()
	return m, nil
}

// afterHistory reports an undo or redo.
func (m Model) afterHistory(verb, label string, err error) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(err, undo.ErrNothingToUndo), errors.Is(err, undo.ErrNothingToRedo):
		m.status = "nothing to " + verb
	case err != nil:
		m.status = err.Error()
	default:
		m.status = verb + " " + label
	}
	m.reveal()
	return m, m.requestFit()
}

// switchSheet saves and opens the neighboring sheet.
func (m Model) switchSheet(delta int) (tea.Model, tea.Cmd) {
	if len(m.sheets) < 2 {
		m.status = "only one sheet"
		return m, nil
	}
	next := wrapIndex(m.selectedSheet, delta, len(m.sheets))
	m.status = "loading..."
	cmd := m.loadSheet(m.sheets[next].ID)
	return m, cmd
}

// applyFilter narrows visible rows to names containing query.
func (m *Model) applyFilter(query string) {
	m.filterQuery = strings.TrimSpace(query)
	m.doc.SetFilter(m.filterQuery)
	m.scrollTop = 0
	m.reveal()
}

// moveCursor steps the selection over visible rows.
func (m *Model) moveCursor(delta int, extend bool) {
	model := m.doc.Model()
	if model.RowFilter() == nil {
		if delta < 0 {
			model.SelectUp(extend)
		} else {
			model.SelectDown(extend)
		}
		m.reveal()
		return
	}
	rows := model.VisibleRows()
	if len(rows) == 0 {
		return
	}
	idx := slices.Index(rows, m.doc.Focus())
	next := 0
	if idx >= 0 {
		next = clamp(idx+delta, 0, len(rows)-1)
	}
	model.SelectRow(rows[next], extend)
	m.revealRow(rows[next])
}

// jumpCursor moves the selection to the first or last row.
func (m *Model) jumpCursor(toEnd, extend bool) {
	model := m.doc.Model()
	if toEnd {
		model.SelectToEnd(extend)
	} else {
		model.SelectToHome(extend)
	}
	m.reveal()
}

// reveal scrolls the focused row into view.
func (m *Model) reveal() {
	if m.doc == nil {
		return
	}
	m.revealRow(m.doc.Focus())
}

func (m *Model) revealRow(row *outline.Row) {
	if m.doc == nil {
		return
	}
	rows := m.doc.Model().VisibleRows()
	window := m.bodyHeight()
	idx := slices.Index(rows, row)
	if idx >= 0 {
		if idx < m.scrollTop {
			m.scrollTop = idx
		}
		if idx >= m.scrollTop+window {
			m.scrollTop = idx - window + 1
		}
	}
	m.scrollTop = clamp(m.scrollTop, 0, max(0, len(rows)-window))
}

// handleMouseWheel scrolls the selection.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.doc == nil || m.mode != modeNone || m.help.ShowAll {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.moveCursor(-1, false)
	case tea.MouseWheelDown:
		m.moveCursor(1, false)
	}
	return m, nil
}

// handleMouseClick selects the clicked row. Shift extends and ctrl flips.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.doc == nil || m.mode != modeNone || m.help.ShowAll {
		return m, nil
	}
	lineHeight := max(1, m.layout.rowHeight)
	relative := msg.Y - m.bodyTop()
	if relative < 0 {
		return m, nil
	}
	rows := m.doc.Model().VisibleRows()
	idx := m.scrollTop + relative/lineHeight
	if idx >= len(rows) {
		return m, nil
	}
	method := outline.MouseNone
	if msg.Mod&tea.ModShift != 0 {
		method |= outline.MouseExtend
	}
	if msg.Mod&tea.ModCtrl != 0 {
		method |= outline.MouseFlip
	}
	model := m.doc.Model()
	deferred := model.SelectByMouse(model.IndexOf(rows[idx]), method)
	m.drag = dragState{pressed: msg.Button == tea.MouseLeft, startY: msg.Y, deferred: deferred}
	if !m.drag.pressed && deferred >= 0 {
		model.Select(deferred, false)
	}
	return m, nil
}

// handleMouseMotion starts a drag once a held pointer leaves its row line
// and tracks the drop target under it.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.doc == nil || !m.drag.pressed || msg.Button == tea.MouseNone {
		return m, nil
	}
	model := m.doc.Model()
	if !m.drag.active {
		if msg.Y == m.drag.startY || m.doc.Locked() {
			return m, nil
		}
		rows := model.SelectionAsList(true)
		if len(rows) == 0 {
			return m, nil
		}
		m.drag.active = true
		m.drag.rows = rows
		model.SetDragRows(rows)
	}
	planner := m.doc.Planner()
	planner.Geometry = m.dragGeometry()
	m.drag.target, m.drag.valid = planner.Plan(m.drag.rows, msg.X, msg.Y)
	switch {
	case !m.drag.valid:
		model.SetDragTargetRow(nil)
		m.status = "can't drop here"
	case m.drag.target.Parent != nil:
		model.SetDragTargetRow(m.drag.target.Parent)
		m.status = "drop into " + m.drag.target.Parent.Content().FieldText(domain.FieldName)
	default:
		model.SetDragTargetRow(nil)
		m.status = "drop at top level"
	}
	return m, nil
}

// handleMouseRelease drops dragged rows, or applies the selection a click
// deferred until release.
func (m Model) handleMouseRelease(tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	drag := m.drag
	m.drag = dragState{}
	if m.doc == nil || !drag.pressed {
		return m, nil
	}
	model := m.doc.Model()
	if !drag.active {
		if drag.deferred >= 0 {
			model.Select(drag.deferred, false)
		}
		return m, nil
	}
	model.SetDragRows(nil)
	model.SetDragTargetRow(nil)
	if !drag.valid {
		m.status = "drag cancelled"
		return m, nil
	}
	if err := m.doc.Drop(drag.rows, drag.target); err != nil {
		m.status = "drop failed: " + err.Error()
		return m, nil
	}
	m.status = fmt.Sprintf("moved %d rows", len(drag.rows))
	m.reveal()
	return m, m.requestFit()
}

// dragGeometry maps screen lines onto stored rows for drop planning.
func (m Model) dragGeometry() outline.Geometry {
	lineHeight := max(1, m.layout.rowHeight)
	left := 0
	model := m.doc.Model()
	for i, def := range m.doc.Columns() {
		if def.ID == model.HierarchyColumnID() {
			break
		}
		left += m.layout.widthFor(i, def) + m.layout.alloc.DividerWidth
	}
	return outline.Geometry{
		Top:       m.bodyTop() - m.scrollTop*lineHeight,
		Left:      left,
		RowHeight: lineHeight,
	}
}

// tableWidth returns the width left for the table.
func (m Model) tableWidth() int {
	width := m.width
	if m.showNotes && width >= notesPaneWidth*2 {
		width -= notesPaneWidth + 1
	}
	return max(0, width)
}

// bodyTop returns the first screen line of the table body.
func (m Model) bodyTop() int {
	top := 2 // header + column titles
	if len(m.sheets) > 1 {
		top++
	}
	return top
}

// bodyHeight returns how many rows fit in the table body.
func (m Model) bodyHeight() int {
	if m.height <= 0 {
		return 1 << 20
	}
	// status line plus the bordered help line.
	lines := m.height - m.bodyTop() - 3
	return max(1, lines/max(1, m.layout.rowHeight))
}

// sortSummary lists the sort keys in priority order.
func (m Model) sortSummary() string {
	if m.doc == nil {
		return ""
	}
	model := m.doc.Model()
	var keys []*outline.Column
	for _, col := range model.Columns() {
		if col.SortSequence() >= 0 {
			keys = append(keys, col)
		}
	}
	slices.SortFunc(keys, func(a, b *outline.Column) int { return a.SortSequence() - b.SortSequence() })
	parts := make([]string, 0, len(keys))
	for _, col := range keys {
		parts = append(parts, col.Title+sortArrow(col))
	}
	return strings.Join(parts, ", ")
}

func sortArrow(col *outline.Column) string {
	switch {
	case col.SortSequence() < 0:
		return ""
	case col.SortAscending():
		return "▲"
	default:
		return "▼"
	}
}

// shiftHeld reports whether msg carries the shift modifier.
func shiftHeld(msg tea.KeyPressMsg) bool {
	return msg.Mod&tea.ModShift != 0
}

func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// wrapIndex steps current by delta around total.
func wrapIndex(current, delta, total int) int {
	if total <= 0 {
		return 0
	}
	return ((current+delta)%total + total) % total
}

// clamp clamps v into [minV, maxV].
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines pads or cuts content to maxLines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay over base.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate cuts s to max cells, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}

// padCell truncates or right-pads s to exactly width cells.
func padCell(s string, width int, right bool) string {
	s = truncate(s, width)
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}
