package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/hylla/outliner/internal/domain"
)

// SnapshotVersion tags exported snapshot files.
const SnapshotVersion = "outliner.snapshot.v1"

// Snapshot is the portable form of every sheet and entry.
type Snapshot struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Sheets     []SnapshotSheet `json:"sheets"`
	Entries    []SnapshotEntry `json:"entries"`
}

// SnapshotSheet is one sheet in a snapshot.
type SnapshotSheet struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Kind       domain.SheetKind `json:"kind"`
	SortConfig string           `json:"sort_config,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// SnapshotEntry is one entry in a snapshot.
type SnapshotEntry struct {
	ID        string           `json:"id"`
	SheetID   string           `json:"sheet_id"`
	ParentID  string           `json:"parent_id,omitempty"`
	Position  int              `json:"position"`
	Open      bool             `json:"open"`
	Container bool             `json:"container"`
	Kind      string           `json:"kind,omitempty"`
	Name      string           `json:"name"`
	Points    int              `json:"points"`
	Quantity  int              `json:"quantity"`
	Weight    float64          `json:"weight"`
	Reference string           `json:"reference,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	Features  []domain.Feature `json:"features,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// EncodeSnapshot renders snap as indented JSON.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// DecodeSnapshot parses snapshot JSON.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return snap, nil
}

// ExportSnapshot captures every sheet and entry.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	sheets, err := s.repo.ListSheets(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Sheets:     make([]SnapshotSheet, 0, len(sheets)),
		Entries:    make([]SnapshotEntry, 0),
	}
	for _, sheet := range sheets {
		snap.Sheets = append(snap.Sheets, snapshotSheetFromDomain(sheet))
		entries, listErr := s.repo.ListEntries(ctx, sheet.ID)
		if listErr != nil {
			return Snapshot{}, listErr
		}
		for _, entry := range entries {
			snap.Entries = append(snap.Entries, snapshotEntryFromDomain(entry))
		}
	}
	snap.sort()
	return snap, nil
}

// ImportSnapshot validates snap and upserts its sheets. Each imported sheet's
// entries replace the stored ones. Unknown feature types are dropped.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()

	bySheet := map[string][]domain.Entry{}
	for _, entry := range snap.Entries {
		de := entry.toDomain()
		kept, skipped := domain.NormalizeFeatures(de.Features)
		for _, f := range skipped {
			s.logger.Warn("skipped unknown feature", "entry", de.ID, "type", string(f.Type))
		}
		de.Features = kept
		bySheet[de.SheetID] = append(bySheet[de.SheetID], de)
	}

	for _, sheet := range snap.Sheets {
		ds := sheet.toDomain()
		if _, err := s.repo.GetSheet(ctx, ds.ID); err == nil {
			if err := s.repo.UpdateSheet(ctx, ds); err != nil {
				return err
			}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		} else if err := s.repo.CreateSheet(ctx, ds); err != nil {
			return err
		}
		if err := s.repo.ReplaceEntries(ctx, ds.ID, bySheet[ds.ID]); err != nil {
			return err
		}
	}
	s.logger.Info("imported snapshot", "sheets", len(snap.Sheets), "entries", len(snap.Entries))
	return nil
}

// Validate checks references and required fields before anything is written.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, s.Version)
	}

	sheetIDs := map[string]struct{}{}
	for i, sh := range s.Sheets {
		if strings.TrimSpace(sh.ID) == "" {
			return fmt.Errorf("%w: sheets[%d].id is required", ErrInvalidSnapshot, i)
		}
		if strings.TrimSpace(sh.Name) == "" {
			return fmt.Errorf("%w: sheets[%d].name is required", ErrInvalidSnapshot, i)
		}
		if sh.Kind == "" {
			s.Sheets[i].Kind = domain.SheetTraits
		} else if !slices.Contains(domain.SheetKinds(), sh.Kind) {
			return fmt.Errorf("%w: sheets[%d].kind %q is not supported", ErrInvalidSnapshot, i, sh.Kind)
		}
		if sh.CreatedAt.IsZero() || sh.UpdatedAt.IsZero() {
			return fmt.Errorf("%w: sheets[%d] timestamps are required", ErrInvalidSnapshot, i)
		}
		if _, exists := sheetIDs[sh.ID]; exists {
			return fmt.Errorf("%w: duplicate sheet id %q", ErrInvalidSnapshot, sh.ID)
		}
		sheetIDs[sh.ID] = struct{}{}
	}

	entrySheet := map[string]string{}
	for i, e := range s.Entries {
		if strings.TrimSpace(e.ID) == "" {
			return fmt.Errorf("%w: entries[%d].id is required", ErrInvalidSnapshot, i)
		}
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("%w: entries[%d].name is required", ErrInvalidSnapshot, i)
		}
		if e.Position < 0 || e.Quantity < 0 || e.Weight < 0 {
			return fmt.Errorf("%w: entries[%d] position, quantity and weight must be >= 0", ErrInvalidSnapshot, i)
		}
		if e.CreatedAt.IsZero() || e.UpdatedAt.IsZero() {
			return fmt.Errorf("%w: entries[%d] timestamps are required", ErrInvalidSnapshot, i)
		}
		if _, ok := sheetIDs[e.SheetID]; !ok {
			return fmt.Errorf("%w: entries[%d] references unknown sheet_id %q", ErrInvalidSnapshot, i, e.SheetID)
		}
		if _, exists := entrySheet[e.ID]; exists {
			return fmt.Errorf("%w: duplicate entry id %q", ErrInvalidSnapshot, e.ID)
		}
		entrySheet[e.ID] = e.SheetID
	}

	parents := map[string]string{}
	for i, e := range s.Entries {
		if e.ParentID == "" {
			continue
		}
		if e.ParentID == e.ID {
			return fmt.Errorf("%w: entries[%d].parent_id cannot reference itself", ErrInvalidSnapshot, i)
		}
		sheet, ok := entrySheet[e.ParentID]
		if !ok {
			return fmt.Errorf("%w: entries[%d] references unknown parent_id %q", ErrInvalidSnapshot, i, e.ParentID)
		}
		if sheet != e.SheetID {
			return fmt.Errorf("%w: entries[%d] parent belongs to another sheet", ErrInvalidSnapshot, i)
		}
		parents[e.ID] = e.ParentID
	}
	for id := range parents {
		seen := map[string]bool{id: true}
		for next := parents[id]; next != ""; next = parents[next] {
			if seen[next] {
				return fmt.Errorf("%w: parent cycle through entry %q", ErrInvalidSnapshot, id)
			}
			seen[next] = true
		}
	}
	return nil
}

func (s *Snapshot) sort() {
	slices.SortFunc(s.Sheets, func(a, b SnapshotSheet) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	slices.SortFunc(s.Entries, func(a, b SnapshotEntry) int {
		return cmp.Or(
			strings.Compare(a.SheetID, b.SheetID),
			strings.Compare(a.ParentID, b.ParentID),
			cmp.Compare(a.Position, b.Position),
			strings.Compare(a.ID, b.ID),
		)
	})
}

func snapshotSheetFromDomain(sheet domain.Sheet) SnapshotSheet {
	return SnapshotSheet{
		ID:         sheet.ID,
		Name:       sheet.Name,
		Kind:       sheet.Kind,
		SortConfig: sheet.SortConfig,
		CreatedAt:  sheet.CreatedAt.UTC(),
		UpdatedAt:  sheet.UpdatedAt.UTC(),
	}
}

func (s SnapshotSheet) toDomain() domain.Sheet {
	return domain.Sheet{
		ID:         strings.TrimSpace(s.ID),
		Name:       strings.TrimSpace(s.Name),
		Kind:       s.Kind,
		SortConfig: s.SortConfig,
		CreatedAt:  s.CreatedAt.UTC(),
		UpdatedAt:  s.UpdatedAt.UTC(),
	}
}

func snapshotEntryFromDomain(e domain.Entry) SnapshotEntry {
	return SnapshotEntry{
		ID:        e.ID,
		SheetID:   e.SheetID,
		ParentID:  e.ParentID,
		Position:  e.Position,
		Open:      e.Open,
		Container: e.Container,
		Kind:      e.Kind,
		Name:      e.Name,
		Points:    e.Points,
		Quantity:  e.Quantity,
		Weight:    e.Weight,
		Reference: e.Reference,
		Notes:     e.Notes,
		Features:  slices.Clone(e.Features),
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
}

func (s SnapshotEntry) toDomain() domain.Entry {
	return domain.Entry{
		ID:        strings.TrimSpace(s.ID),
		SheetID:   strings.TrimSpace(s.SheetID),
		ParentID:  strings.TrimSpace(s.ParentID),
		Position:  s.Position,
		Open:      s.Open,
		Container: s.Container,
		Kind:      s.Kind,
		Name:      strings.TrimSpace(s.Name),
		Points:    s.Points,
		Quantity:  s.Quantity,
		Weight:    s.Weight,
		Reference: s.Reference,
		Notes:     s.Notes,
		Features:  slices.Clone(s.Features),
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
}
