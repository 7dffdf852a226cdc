package domain

import (
	"slices"
	"strings"
	"time"
)

// SheetKind names which list a sheet holds.
type SheetKind string

const (
	SheetTraits    SheetKind = "traits"
	SheetSkills    SheetKind = "skills"
	SheetEquipment SheetKind = "equipment"
	SheetNotes     SheetKind = "notes"
)

var validSheetKinds = []SheetKind{SheetTraits, SheetSkills, SheetEquipment, SheetNotes}

// SheetKinds returns every supported sheet kind.
func SheetKinds() []SheetKind {
	return slices.Clone(validSheetKinds)
}

// Sheet is one outline document: a named list with a persisted sort.
type Sheet struct {
	ID         string
	Name       string
	Kind       SheetKind
	SortConfig string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewSheet constructs a sheet. An empty kind defaults to traits.
func NewSheet(id, name string, kind SheetKind, now time.Time) (Sheet, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	kind = SheetKind(strings.ToLower(strings.TrimSpace(string(kind))))
	if id == "" {
		return Sheet{}, ErrInvalidID
	}
	if name == "" {
		return Sheet{}, ErrInvalidName
	}
	if kind == "" {
		kind = SheetTraits
	}
	if !slices.Contains(validSheetKinds, kind) {
		return Sheet{}, ErrInvalidSheetKind
	}
	return Sheet{
		ID:        id,
		Name:      name,
		Kind:      kind,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// Rename changes the sheet name.
func (s *Sheet) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	s.Name = name
	s.UpdatedAt = now.UTC()
	return nil
}

// SetSortConfig stores the serialized sort of the sheet's outline.
func (s *Sheet) SetSortConfig(config string, now time.Time) {
	if s.SortConfig == config {
		return
	}
	s.SortConfig = config
	s.UpdatedAt = now.UTC()
}
