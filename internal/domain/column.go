package domain

import "strings"

// Field keys shared by entries, columns and storage.
const (
	FieldName      = "name"
	FieldKind      = "kind"
	FieldPoints    = "points"
	FieldQuantity  = "quantity"
	FieldWeight    = "weight"
	FieldReference = "reference"
	FieldNotes     = "notes"
	FieldFeatures  = "features"
)

// NameColumnID is the column that carries the hierarchy on every sheet.
const NameColumnID = 0

// ColumnDef describes one column of a sheet's outline.
type ColumnDef struct {
	ID        int
	Key       string
	Title     string
	Preferred int
	Min       int
	Dynamic   bool
	Numeric   bool
}

// DefaultColumns returns the columns shown for a sheet kind.
func DefaultColumns(kind SheetKind) []ColumnDef {
	name := ColumnDef{ID: NameColumnID, Key: FieldName, Title: "Name", Preferred: 24, Min: 8, Dynamic: true}
	points := ColumnDef{ID: 1, Key: FieldPoints, Title: "Pts", Preferred: 5, Min: 3, Numeric: true}
	ref := ColumnDef{ID: 2, Key: FieldReference, Title: "Ref", Preferred: 8, Min: 3, Dynamic: true}
	switch kind {
	case SheetEquipment:
		return []ColumnDef{
			name,
			{ID: 3, Key: FieldQuantity, Title: "Qty", Preferred: 4, Min: 3, Numeric: true},
			{ID: 4, Key: FieldWeight, Title: "Wt", Preferred: 6, Min: 3, Numeric: true},
			{ID: 1, Key: FieldPoints, Title: "Cost", Preferred: 6, Min: 3, Numeric: true},
			ref,
		}
	case SheetNotes:
		return []ColumnDef{name, ref}
	case SheetSkills:
		return []ColumnDef{name, {ID: 5, Key: FieldKind, Title: "Diff", Preferred: 6, Min: 3}, points, ref}
	default:
		return []ColumnDef{name, points, ref}
	}
}

// FindColumn returns the column named by key or title, case-insensitively.
func FindColumn(defs []ColumnDef, name string) (ColumnDef, bool) {
	for _, def := range defs {
		if strings.EqualFold(def.Key, name) || strings.EqualFold(def.Title, name) {
			return def, true
		}
	}
	return ColumnDef{}, false
}
