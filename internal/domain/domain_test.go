package domain

import (
	"errors"
	"testing"
	"time"
)

// TestNewSheetDefaults verifies trimming and the default sheet kind.
func TestNewSheetDefaults(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	s, err := NewSheet(" s1 ", "  Advantages  ", "", now)
	if err != nil {
		t.Fatalf("NewSheet() error = %v", err)
	}
	if s.ID != "s1" || s.Name != "Advantages" || s.Kind != SheetTraits {
		t.Fatalf("unexpected sheet %+v", s)
	}
	if !s.CreatedAt.Equal(now) || !s.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected timestamps %+v", s)
	}
}

// TestNewSheetValidation verifies rejected inputs.
func TestNewSheetValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewSheet("", "ok", SheetSkills, now); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := NewSheet("id", "   ", SheetSkills, now); err != ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := NewSheet("id", "gear", "vehicles", now); err != ErrInvalidSheetKind {
		t.Fatalf("expected ErrInvalidSheetKind, got %v", err)
	}
}

// TestSheetRenameAndSortConfig verifies updates move the timestamp only on change.
func TestSheetRenameAndSortConfig(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	s, _ := NewSheet("s1", "Gear", SheetEquipment, now)
	later := now.Add(time.Minute)
	if err := s.Rename(" ", later); err != ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	s.SetSortConfig("", later)
	if !s.UpdatedAt.Equal(now) {
		t.Fatalf("expected unchanged sort config to keep timestamp")
	}
	s.SetSortConfig("S4\t1\t0\t0\ttrue", later)
	if !s.UpdatedAt.Equal(later) {
		t.Fatalf("expected updated timestamp, got %v", s.UpdatedAt)
	}
}

// TestNewEntryValidation verifies entry constructor checks.
func TestNewEntryValidation(t *testing.T) {
	now := time.Now()
	base := EntryInput{ID: "e1", SheetID: "s1", Name: "Climbing"}
	cases := []struct {
		name   string
		mutate func(*EntryInput)
		want   error
	}{
		{name: "missing id", mutate: func(in *EntryInput) { in.ID = " " }, want: ErrInvalidID},
		{name: "self parent", mutate: func(in *EntryInput) { in.ParentID = "e1" }, want: ErrInvalidID},
		{name: "blank name", mutate: func(in *EntryInput) { in.Name = "" }, want: ErrInvalidName},
		{name: "negative position", mutate: func(in *EntryInput) { in.Position = -1 }, want: ErrInvalidPosition},
		{name: "negative quantity", mutate: func(in *EntryInput) { in.Quantity = -2 }, want: ErrInvalidQuantity},
		{name: "negative weight", mutate: func(in *EntryInput) { in.Weight = -0.5 }, want: ErrInvalidWeight},
		{name: "unknown feature", mutate: func(in *EntryInput) { in.Features = []Feature{{Type: "luck"}} }, want: ErrUnknownFeature},
	}
	for _, tc := range cases {
		in := base
		tc.mutate(&in)
		if _, err := NewEntry(in, now); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	e, err := NewEntry(EntryInput{ID: "e2", SheetID: "s1", Name: " Pack ", Container: true, Kind: " Gear "}, now)
	if err != nil {
		t.Fatalf("NewEntry() error = %v", err)
	}
	if !e.Open || e.Name != "Pack" || e.Kind != "gear" {
		t.Fatalf("unexpected entry %+v", e)
	}
}

// TestEntryFields verifies typed and text field access.
func TestEntryFields(t *testing.T) {
	e := &Entry{Name: "Rope", Quantity: 2, Weight: 1.5, Features: []Feature{{Type: FeatureSkillBonus, Target: "climbing", Amount: 1}}}
	if got := e.FieldText(FieldWeight); got != "1.5" {
		t.Fatalf("unexpected weight text %q", got)
	}
	if got := e.FieldText(FieldFeatures); got != "skill_bonus climbing +1" {
		t.Fatalf("unexpected features text %q", got)
	}
	if err := e.SetFieldText(FieldQuantity, "x"); err != ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if e.Quantity != 2 {
		t.Fatalf("expected failed parse to keep quantity, got %d", e.Quantity)
	}
	e.SetField(FieldQuantity, "5")
	e.SetField(FieldPoints, 3)
	e.SetField(FieldWeight, -1.0)
	if e.Quantity != 5 || e.Points != 3 || e.Weight != 1.5 {
		t.Fatalf("unexpected entry after SetField %+v", e)
	}
	if err := e.SetFieldText("color", "red"); err != ErrUnknownField {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if v, ok := e.Number(FieldName); ok || v != 0 {
		t.Fatalf("expected name to have no numeric value")
	}
}

// TestEntryRowCapture verifies captures exclude placement and reload atomically.
func TestEntryRowCapture(t *testing.T) {
	e := &Entry{ID: "e1", ParentID: "p", Position: 4, Name: "Rope", Points: 2, Notes: "**50ft**"}
	data, err := e.MarshalRow()
	if err != nil {
		t.Fatalf("MarshalRow() error = %v", err)
	}
	e.Name, e.Points, e.Notes, e.Position = "Chain", 9, "", 1
	if err := e.UnmarshalRow(data); err != nil {
		t.Fatalf("UnmarshalRow() error = %v", err)
	}
	if e.Name != "Rope" || e.Points != 2 || e.Notes != "**50ft**" || e.Position != 1 {
		t.Fatalf("unexpected entry after reload %+v", e)
	}
	if err := e.UnmarshalRow([]byte(`{"name":"Whip","points":"bad"}`)); err == nil {
		t.Fatalf("expected decode error")
	}
	if e.Name != "Rope" {
		t.Fatalf("expected failed reload to leave entry alone, got %q", e.Name)
	}
}

// TestNormalizeFeatures verifies unknown types are separated out.
func TestNormalizeFeatures(t *testing.T) {
	kept, skipped := NormalizeFeatures([]Feature{
		{Type: " DR_Bonus ", Target: " torso ", Amount: 2},
		{Type: "mana_bonus", Amount: 1},
	})
	if len(kept) != 1 || kept[0].Type != FeatureDRBonus || kept[0].Target != "torso" {
		t.Fatalf("unexpected kept features %+v", kept)
	}
	if len(skipped) != 1 || skipped[0].Type != "mana_bonus" {
		t.Fatalf("unexpected skipped features %+v", skipped)
	}
}

// TestDefaultColumns verifies every kind carries the name column first.
func TestDefaultColumns(t *testing.T) {
	for _, kind := range SheetKinds() {
		defs := DefaultColumns(kind)
		if len(defs) == 0 || defs[0].ID != NameColumnID || defs[0].Key != FieldName {
			t.Fatalf("%s: expected name column first, got %+v", kind, defs)
		}
		seen := map[int]bool{}
		for _, def := range defs {
			if seen[def.ID] {
				t.Fatalf("%s: duplicate column id %d", kind, def.ID)
			}
			seen[def.ID] = true
		}
	}
	if def, ok := FindColumn(DefaultColumns(SheetEquipment), "wt"); !ok || def.Key != FieldWeight {
		t.Fatalf("expected to find weight column by title, got %+v %v", def, ok)
	}
}
