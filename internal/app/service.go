package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/outliner/internal/domain"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

var defaultClock Clock = time.Now

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	IndentWidth int
	HideIndent  bool
	UndoLimit   int
	Logger      Logger
}

// Service opens, edits and saves sheets stored in a repository.
type Service struct {
	repo   Repository
	idGen  IDGenerator
	clock  Clock
	logger Logger
	cfg    ServiceConfig
}

// NewService constructs a service over repo.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = defaultClock
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	return &Service{
		repo:   repo,
		idGen:  idGen,
		clock:  clock,
		logger: cfg.Logger,
		cfg:    cfg,
	}
}

// EnsureDefaultSheet returns the first sheet, creating one when none exist.
func (s *Service) EnsureDefaultSheet(ctx context.Context) (domain.Sheet, error) {
	sheets, err := s.repo.ListSheets(ctx)
	if err != nil {
		return domain.Sheet{}, err
	}
	if len(sheets) > 0 {
		return sheets[0], nil
	}
	return s.CreateSheet(ctx, "Traits", domain.SheetTraits)
}

// CreateSheet creates an empty sheet.
func (s *Service) CreateSheet(ctx context.Context, name string, kind domain.SheetKind) (domain.Sheet, error) {
	sheet, err := domain.NewSheet(s.idGen(), name, kind, s.clock())
	if err != nil {
		return domain.Sheet{}, err
	}
	if err := s.repo.CreateSheet(ctx, sheet); err != nil {
		return domain.Sheet{}, err
	}
	s.logger.Info("created sheet", "sheet", sheet.ID, "kind", string(sheet.Kind))
	return sheet, nil
}

// RenameSheet renames a sheet.
func (s *Service) RenameSheet(ctx context.Context, sheetID, name string) (domain.Sheet, error) {
	sheet, err := s.repo.GetSheet(ctx, sheetID)
	if err != nil {
		return domain.Sheet{}, err
	}
	if err := sheet.Rename(name, s.clock()); err != nil {
		return domain.Sheet{}, err
	}
	if err := s.repo.UpdateSheet(ctx, sheet); err != nil {
		return domain.Sheet{}, err
	}
	return sheet, nil
}

// ListSheets lists every sheet.
func (s *Service) ListSheets(ctx context.Context) ([]domain.Sheet, error) {
	return s.repo.ListSheets(ctx)
}

// FindSheet resolves a sheet by id, or by name case-insensitively.
func (s *Service) FindSheet(ctx context.Context, ref string) (domain.Sheet, error) {
	ref = strings.TrimSpace(ref)
	sheet, err := s.repo.GetSheet(ctx, ref)
	if err == nil {
		return sheet, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Sheet{}, err
	}
	sheets, err := s.repo.ListSheets(ctx)
	if err != nil {
		return domain.Sheet{}, err
	}
	for _, sheet := range sheets {
		if strings.EqualFold(sheet.Name, ref) {
			return sheet, nil
		}
	}
	return domain.Sheet{}, fmt.Errorf("sheet %q: %w", ref, ErrNotFound)
}

// DeleteSheet removes a sheet and its entries.
func (s *Service) DeleteSheet(ctx context.Context, sheetID string) error {
	if err := s.repo.DeleteSheet(ctx, sheetID); err != nil {
		return err
	}
	s.logger.Info("deleted sheet", "sheet", sheetID)
	return nil
}

// OpenDocument loads a sheet into an editable document.
func (s *Service) OpenDocument(ctx context.Context, sheetID string) (*Document, error) {
	sheet, err := s.repo.GetSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, sheet.ID)
	if err != nil {
		return nil, err
	}
	doc := NewDocument(sheet, entries, DocumentOptions{
		IndentWidth: s.cfg.IndentWidth,
		HideIndent:  s.cfg.HideIndent,
		UndoLimit:   s.cfg.UndoLimit,
		IDGen:       s.idGen,
		Clock:       s.clock,
		Logger:      s.logger,
	})
	s.logger.Debug("opened sheet", "sheet", sheet.ID, "entries", len(entries), "rows", doc.Model().RowCount())
	return doc, nil
}

// SaveDocument writes the document's entries and sort back to the repository.
func (s *Service) SaveDocument(ctx context.Context, doc *Document) error {
	sheet := doc.Sheet()
	entries := doc.Entries()
	if err := s.repo.ReplaceEntries(ctx, sheet.ID, entries); err != nil {
		return fmt.Errorf("save entries: %w", err)
	}
	sheet.SetSortConfig(doc.Model().SortConfig(), s.clock())
	if err := s.repo.UpdateSheet(ctx, sheet); err != nil {
		return fmt.Errorf("save sheet: %w", err)
	}
	doc.markSaved(sheet)
	s.logger.Debug("saved sheet", "sheet", sheet.ID, "entries", len(entries))
	return nil
}
