package tui

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/outliner/internal/app"
	"github.com/hylla/outliner/internal/domain"
	"github.com/hylla/outliner/internal/layout"
	"github.com/hylla/outliner/internal/outline"
)

// disclosure markers prefix hierarchy cells.
const (
	markerOpen   = "▾ "
	markerClosed = "▸ "
	markerLeaf   = "  "
)

// columnLayout fits column widths to the open document. It is shared by
// every copy of the Model.
type columnLayout struct {
	doc       *app.Document
	alloc     layout.Allocator
	total     int
	rowHeight int
	widths    []int
	fits      int
}

func newColumnLayout(cfg LayoutConfig) *columnLayout {
	return &columnLayout{
		alloc:     layout.Allocator{DividerWidth: max(0, cfg.DividerWidth), Hierarchy: 0},
		rowHeight: max(1, cfg.RowHeight),
	}
}

// FitColumns measures visible rows and allocates the table width.
func (l *columnLayout) FitColumns() {
	l.fits++
	if l.doc == nil {
		l.widths = nil
		return
	}
	defs := l.doc.Columns()
	model := l.doc.Model()
	specs := make([]layout.ColumnSpec, len(defs))
	hierarchy := 0
	for i, def := range defs {
		title := lipgloss.Width(def.Title) + 1
		specs[i] = layout.ColumnSpec{
			Preferred: max(def.Preferred, title),
			Min:       max(def.Min, title),
			Dynamic:   def.Dynamic,
		}
		if def.ID == model.HierarchyColumnID() {
			hierarchy = i
		}
	}
	for _, row := range model.VisibleRows() {
		row.SetHeight(l.rowHeight)
		for i, def := range defs {
			w := lipgloss.Width(row.Content().FieldText(def.Key))
			if i == hierarchy {
				w += model.IndentFor(row, model.Column(def.ID)) + lipgloss.Width(markerLeaf)
			}
			specs[i].Preferred = max(specs[i].Preferred, w)
		}
	}
	l.alloc.Hierarchy = hierarchy
	l.widths = l.alloc.Allocate(specs, l.total)
}

// widthFor returns the fitted width of column i.
func (l *columnLayout) widthFor(i int, def domain.ColumnDef) int {
	if i < len(l.widths) {
		return l.widths[i]
	}
	return max(def.Preferred, def.Min)
}

// View renders the outline.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress q to quit\n")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready || m.doc == nil {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	sections := []string{m.renderHeader(accent, dim)}
	if tabs := m.renderSheetTabs(accent, dim); tabs != "" {
		sections = append(sections, tabs)
	}
	table := m.renderTable(accent, muted)
	if notes := m.renderNotesPane(muted, dim); notes != "" {
		table = lipgloss.JoinHorizontal(lipgloss.Top, table, " ", notes)
	}
	sections = append(sections, table)
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content + "\n" + helpLine

	overlay := m.renderModeOverlay(accent, muted, m.width-8)
	if m.help.ShowAll {
		overlay = m.renderHelpOverlay(accent, muted, dim, m.width-8)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}

	view := tea.NewView(fullContent)
	view.MouseMode = tea.MouseModeCellMotion
	view.AltScreen = true
	return view
}

// renderHeader renders the title line with document state badges.
func (m Model) renderHeader(accent, dim color.Color) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	badge := lipgloss.NewStyle().Foreground(dim)
	sheet := m.doc.Sheet()
	header := titleStyle.Render("outliner") + "  " + lipgloss.NewStyle().Foreground(accent).Render(sheet.Name)
	header += badge.Render("  [" + string(sheet.Kind) + "]")
	if m.doc.Dirty() {
		header += badge.Render("  modified")
	}
	if m.doc.Locked() {
		header += badge.Render("  locked")
	}
	if m.filterQuery != "" {
		header += badge.Render("  filter: " + truncate(m.filterQuery, 24))
	}
	if summary := m.sortSummary(); summary != "" {
		header += badge.Render("  sort: " + summary)
	}
	if n := m.doc.Model().SelectionCount(); n > 1 {
		header += badge.Render(fmt.Sprintf("  selected: %d", n))
	}
	return header
}

// renderSheetTabs lists sheets when there is more than one.
func (m Model) renderSheetTabs(accent, dim color.Color) string {
	if len(m.sheets) < 2 {
		return ""
	}
	active := lipgloss.NewStyle().Bold(true).Foreground(accent)
	inactive := lipgloss.NewStyle().Foreground(dim)
	tabs := make([]string, 0, len(m.sheets))
	for i, sheet := range m.sheets {
		label := truncate(sheet.Name, 18)
		if i == m.selectedSheet {
			tabs = append(tabs, active.Render("["+label+"]"))
		} else {
			tabs = append(tabs, inactive.Render(" "+label+" "))
		}
	}
	return strings.Join(tabs, " ")
}

// renderTable renders the column titles and the visible window of rows.
func (m Model) renderTable(accent, muted color.Color) string {
	defs := m.doc.Columns()
	model := m.doc.Model()
	divider := strings.Repeat(" ", m.layout.alloc.DividerWidth)

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(muted)
	cursorTitle := lipgloss.NewStyle().Bold(true).Underline(true).Foreground(accent)
	titles := make([]string, len(defs))
	for i, def := range defs {
		col := model.Column(def.ID)
		text := padCell(def.Title+sortArrow(col), m.layout.widthFor(i, def), def.Numeric)
		if i == m.column {
			titles[i] = cursorTitle.Render(text)
		} else {
			titles[i] = titleStyle.Render(text)
		}
	}
	lines := []string{strings.Join(titles, divider)}

	rows := model.VisibleRows()
	if len(rows) == 0 {
		empty := "(empty) press n to add a row"
		if m.filterQuery != "" {
			empty = "(no rows match the filter)"
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Render(empty))
		return strings.Join(lines, "\n")
	}

	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	extendedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("237"))
	containerStyle := lipgloss.NewStyle().Bold(true)
	focus := m.doc.Focus()
	end := min(len(rows), m.scrollTop+m.bodyHeight())
	for _, row := range rows[m.scrollTop:end] {
		cells := make([]string, len(defs))
		for i, def := range defs {
			width := m.layout.widthFor(i, def)
			text := row.Content().FieldText(def.Key)
			if def.ID == model.HierarchyColumnID() {
				text = strings.Repeat(" ", model.IndentFor(row, model.Column(def.ID))) + marker(row) + text
			}
			cells[i] = padCell(text, width, def.Numeric)
		}
		line := strings.Join(cells, divider)
		switch {
		case row == focus:
			line = selectedStyle.Render(line)
		case model.IsRowSelected(row):
			line = extendedStyle.Render(line)
		case model.IsExtendedRowSelected(row):
			line = lipgloss.NewStyle().Foreground(muted).Render(line)
		case row.CanHaveChildren():
			line = containerStyle.Render(line)
		}
		lines = append(lines, line)
		for extra := 1; extra < max(1, row.Height()); extra++ {
			lines = append(lines, "")
		}
	}
	return strings.Join(lines, "\n")
}

func marker(row *outline.Row) string {
	switch {
	case !row.CanHaveChildren():
		return markerLeaf
	case row.IsOpen():
		return markerOpen
	default:
		return markerClosed
	}
}

// renderNotesPane renders the focused entry's notes and features.
func (m Model) renderNotesPane(muted, dim color.Color) string {
	if !m.showNotes || m.width < notesPaneWidth*2 {
		return ""
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Width(notesPaneWidth)
	hint := lipgloss.NewStyle().Foreground(muted)
	entry := app.EntryOf(m.doc.Focus())
	if entry == nil {
		return style.Render(hint.Render("no row selected"))
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Render(truncate(entry.Name, notesPaneWidth-4))}
	if entry.Reference != "" {
		lines = append(lines, hint.Render("ref "+entry.Reference))
	}
	for _, f := range entry.Features {
		lines = append(lines, hint.Render("• "+f.String()))
	}
	if notes := m.notes.render(entry.Notes, notesPaneWidth-4); notes != "" {
		lines = append(lines, "", notes)
	} else {
		lines = append(lines, "", hint.Render("(no notes)"))
	}
	return style.Render(strings.Join(lines, "\n"))
}

// renderModeOverlay renders the open prompt or confirmation.
func (m Model) renderModeOverlay(accent, muted color.Color, maxWidth int) string {
	if m.mode == modeNone {
		return ""
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(clamp(maxWidth, 32, 72))
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)
	if m.mode == modeConfirmDelete {
		n := len(m.doc.Model().SelectionAsList(true))
		return style.Render(strings.Join([]string{
			titleStyle.Render("Delete"),
			fmt.Sprintf("Remove %d rows and their children?", n),
			hintStyle.Render("y confirm • n cancel"),
		}, "\n"))
	}
	title := map[inputMode]string{
		modeAddEntry:  "New Row",
		modeRename:    "Rename",
		modeEditField: "Edit Cell",
		modeFilter:    "Filter",
		modeNewSheet:  "New Sheet",
	}[m.mode]
	return style.Render(strings.Join([]string{
		titleStyle.Render(title),
		m.input.View(),
		hintStyle.Render("enter apply • esc cancel"),
	}, "\n"))
}

// renderHelpOverlay renders the full key reference.
func (m Model) renderHelpOverlay(accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	workflow := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Workflows"),
		"1. n new row • N new child • c new container • r rename • e edit cell",
		"2. space open/close • + open all • - close all • / filter by name",
		"3. ctrl+k/ctrl+j move • > indent • < outdent • d delete",
		"4. 1-9 sort by column (repeat flips) • shift+digit adds a key • 0 clears",
		"5. z undo • Z redo • y copy selection • tab next sheet • ctrl+s save",
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Outliner Help"),
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(muted).Render(strings.Join(workflow, "\n")),
		lipgloss.NewStyle().Foreground(muted).Render("press ? or esc to close"),
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(lines, "\n"))
}
