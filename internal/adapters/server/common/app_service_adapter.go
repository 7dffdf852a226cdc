package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hylla/outliner/internal/app"
	"github.com/hylla/outliner/internal/domain"
	"github.com/hylla/outliner/internal/outline"
)

// AppServiceAdapter serves SheetService from the application service.
type AppServiceAdapter struct {
	svc *app.Service
	// mu serializes open-edit-save cycles across requests.
	mu sync.Mutex
}

var _ SheetService = (*AppServiceAdapter)(nil)

// NewAppServiceAdapter wraps svc.
func NewAppServiceAdapter(svc *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{svc: svc}
}

// ListSheets lists every sheet.
func (a *AppServiceAdapter) ListSheets(ctx context.Context) ([]SheetSummary, error) {
	if a == nil || a.svc == nil {
		return nil, fmt.Errorf("app service is not configured")
	}
	sheets, err := a.svc.ListSheets(ctx)
	if err != nil {
		return nil, mapAppError("list sheets", err)
	}
	out := make([]SheetSummary, 0, len(sheets))
	for _, sheet := range sheets {
		out = append(out, summarize(sheet))
	}
	return out, nil
}

// GetSheetTree returns one sheet's rows in tree order.
func (a *AppServiceAdapter) GetSheetTree(ctx context.Context, req GetSheetTreeRequest) (SheetTree, error) {
	if a == nil || a.svc == nil {
		return SheetTree{}, fmt.Errorf("app service is not configured")
	}
	ref := strings.TrimSpace(req.Sheet)
	if ref == "" {
		return SheetTree{}, fmt.Errorf("sheet is required: %w", ErrInvalidRequest)
	}
	sheet, err := a.svc.FindSheet(ctx, ref)
	if err != nil {
		return SheetTree{}, mapAppError("find sheet", err)
	}
	doc, err := a.svc.OpenDocument(ctx, sheet.ID)
	if err != nil {
		return SheetTree{}, mapAppError("open sheet", err)
	}

	tree := SheetTree{Sheet: summarize(sheet), Rows: []TreeRow{}}
	var walk func(rows []*outline.Row, depth int)
	walk = func(rows []*outline.Row, depth int) {
		for _, row := range rows {
			tree.Rows = append(tree.Rows, treeRow(doc, row, depth))
			if req.All || row.IsOpen() {
				walk(row.Children(), depth+1)
			}
		}
	}
	walk(doc.Model().TopLevelRows(), 0)
	return tree, nil
}

// AddEntry appends a row, under ParentID when set, and saves the sheet.
func (a *AppServiceAdapter) AddEntry(ctx context.Context, req AddEntryRequest) (TreeRow, error) {
	if a == nil || a.svc == nil {
		return TreeRow{}, fmt.Errorf("app service is not configured")
	}
	ref := strings.TrimSpace(req.Sheet)
	if ref == "" {
		return TreeRow{}, fmt.Errorf("sheet is required: %w", ErrInvalidRequest)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	sheet, err := a.svc.FindSheet(ctx, ref)
	if err != nil {
		return TreeRow{}, mapAppError("find sheet", err)
	}
	doc, err := a.svc.OpenDocument(ctx, sheet.ID)
	if err != nil {
		return TreeRow{}, mapAppError("open sheet", err)
	}
	in := app.NewEntry{
		Name:      req.Name,
		Kind:      req.Kind,
		Container: req.Container,
		Points:    req.Points,
		Quantity:  req.Quantity,
		Weight:    req.Weight,
		Reference: req.Reference,
		Notes:     req.Notes,
	}
	if parentID := strings.TrimSpace(req.ParentID); parentID != "" {
		parent := doc.FindRow(parentID)
		if parent == nil {
			return TreeRow{}, fmt.Errorf("parent %q: %w", parentID, ErrNotFound)
		}
		doc.Reveal(parent)
		in.AsChild = true
	}
	row, err := doc.AddEntry(in)
	if err != nil {
		return TreeRow{}, mapAppError("add entry", err)
	}
	if err := a.svc.SaveDocument(ctx, doc); err != nil {
		return TreeRow{}, mapAppError("save sheet", err)
	}
	return treeRow(doc, row, row.Depth()), nil
}

func summarize(sheet domain.Sheet) SheetSummary {
	defs := domain.DefaultColumns(sheet.Kind)
	columns := make([]string, len(defs))
	for i, def := range defs {
		columns[i] = def.Key
	}
	return SheetSummary{
		ID:      sheet.ID,
		Name:    sheet.Name,
		Kind:    string(sheet.Kind),
		Columns: columns,
		Sort:    sheet.SortConfig,
	}
}

func treeRow(doc *app.Document, row *outline.Row, depth int) TreeRow {
	entry := app.EntryOf(row)
	out := TreeRow{
		Depth:     depth,
		Container: row.CanHaveChildren(),
		Open:      row.IsOpen(),
		Fields:    map[string]string{},
	}
	if entry != nil {
		out.ID = entry.ID
		out.Name = entry.Name
		out.Notes = entry.Notes
	}
	if parent := app.EntryOf(row.Parent()); parent != nil {
		out.ParentID = parent.ID
	}
	for _, def := range doc.Columns() {
		if def.ID == domain.NameColumnID {
			continue
		}
		out.Fields[def.Key] = row.Content().FieldText(def.Key)
	}
	return out
}

// mapAppError wraps app and domain failures with transport-neutral sentinels.
func mapAppError(op string, err error) error {
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrLocked):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrConflict, err))
	case errors.Is(err, app.ErrNotContainer),
		errors.Is(err, app.ErrCannotMove),
		errors.Is(err, app.ErrUnknownColumn),
		isDomainValidation(err):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isDomainValidation(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidID,
		domain.ErrInvalidName,
		domain.ErrInvalidSheetKind,
		domain.ErrInvalidPosition,
		domain.ErrInvalidPoints,
		domain.ErrInvalidQuantity,
		domain.ErrInvalidWeight,
		domain.ErrUnknownFeature,
		domain.ErrUnknownField,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
