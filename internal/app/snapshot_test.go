package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hylla/outliner/internal/domain"
)

func seededRepo(now time.Time) *fakeRepo {
	repo := newFakeRepo()
	repo.sheets["s1"], _ = domain.NewSheet("s1", "Gear", domain.SheetEquipment, now)
	pack := entry("p", "", 0, "Pack", true)
	pack.CreatedAt, pack.UpdatedAt = now, now
	rope := entry("r", "p", 0, "Rope", false)
	rope.CreatedAt, rope.UpdatedAt = now, now
	rope.Features = []domain.Feature{{Type: domain.FeatureSkillBonus, Target: "climbing", Amount: 1}}
	repo.entries["s1"] = []domain.Entry{rope, pack}
	return repo
}

// TestExportImportRoundTrip verifies a snapshot survives encoding and import.
func TestExportImportRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc := NewService(seededRepo(now), nil, fixedClock(now), ServiceConfig{})
	snap, err := svc.ExportSnapshot(context.Background())
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if snap.Version != SnapshotVersion || len(snap.Sheets) != 1 || len(snap.Entries) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Entries[0].ID != "p" {
		t.Fatalf("expected top-level entries first, got %q", snap.Entries[0].ID)
	}

	data, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("EncodeSnapshot() error = %v", err)
	}
	if !strings.Contains(string(data), `"version": "outliner.snapshot.v1"`) {
		t.Fatalf("expected indented version field, got %s", data)
	}
	decoded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}

	target := newFakeRepo()
	importer := NewService(target, nil, fixedClock(now), ServiceConfig{})
	if err := importer.ImportSnapshot(context.Background(), decoded); err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}
	if target.sheets["s1"].Name != "Gear" || len(target.entries["s1"]) != 2 {
		t.Fatalf("unexpected imported state %+v %+v", target.sheets, target.entries)
	}
	doc, err := importer.OpenDocument(context.Background(), "s1")
	if err != nil {
		t.Fatalf("OpenDocument() error = %v", err)
	}
	rope := EntryOf(doc.FindRow("r"))
	if rope == nil || rope.ParentID != "p" || len(rope.Features) != 1 {
		t.Fatalf("unexpected imported rope %+v", rope)
	}
}

// TestImportSkipsUnknownFeatures verifies unknown feature types are dropped with a warning.
func TestImportSkipsUnknownFeatures(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	logger := &recordingLogger{}
	repo := newFakeRepo()
	svc := NewService(repo, nil, fixedClock(now), ServiceConfig{Logger: logger})
	snap := Snapshot{
		Version: SnapshotVersion,
		Sheets:  []SnapshotSheet{{ID: "s1", Name: "Traits", CreatedAt: now, UpdatedAt: now}},
		Entries: []SnapshotEntry{{
			ID: "e1", SheetID: "s1", Name: "Lucky", CreatedAt: now, UpdatedAt: now,
			Features: []domain.Feature{{Type: "fate_bonus", Amount: 3}},
		}},
	}
	if err := svc.ImportSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}
	if got := repo.entries["s1"]; len(got) != 1 || len(got[0].Features) != 0 {
		t.Fatalf("expected feature to be dropped, got %+v", got)
	}
	if repo.sheets["s1"].Kind != domain.SheetTraits {
		t.Fatalf("expected default sheet kind, got %q", repo.sheets["s1"].Kind)
	}
	if len(logger.warnings) != 1 {
		t.Fatalf("expected one warning, got %v", logger.warnings)
	}
}

// TestSnapshotValidateRejects verifies every rejected shape fails before writing.
func TestSnapshotValidateRejects(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	sheet := SnapshotSheet{ID: "s1", Name: "Traits", Kind: domain.SheetTraits, CreatedAt: now, UpdatedAt: now}
	e := func(id, parent string) SnapshotEntry {
		return SnapshotEntry{ID: id, SheetID: "s1", ParentID: parent, Name: id, CreatedAt: now, UpdatedAt: now}
	}
	cases := []struct {
		name string
		snap Snapshot
	}{
		{name: "version", snap: Snapshot{Version: "other.snapshot.v9"}},
		{name: "sheet kind", snap: Snapshot{Sheets: []SnapshotSheet{{ID: "s1", Name: "x", Kind: "spells", CreatedAt: now, UpdatedAt: now}}}},
		{name: "duplicate sheet", snap: Snapshot{Sheets: []SnapshotSheet{sheet, sheet}}},
		{name: "unknown sheet", snap: Snapshot{Entries: []SnapshotEntry{e("a", "")}}},
		{name: "duplicate entry", snap: Snapshot{Sheets: []SnapshotSheet{sheet}, Entries: []SnapshotEntry{e("a", ""), e("a", "")}}},
		{name: "missing parent", snap: Snapshot{Sheets: []SnapshotSheet{sheet}, Entries: []SnapshotEntry{e("a", "zz")}}},
		{name: "self parent", snap: Snapshot{Sheets: []SnapshotSheet{sheet}, Entries: []SnapshotEntry{e("a", "a")}}},
		{name: "cycle", snap: Snapshot{Sheets: []SnapshotSheet{sheet}, Entries: []SnapshotEntry{e("a", "b"), e("b", "a")}}},
	}
	for _, tc := range cases {
		repo := newFakeRepo()
		svc := NewService(repo, nil, fixedClock(now), ServiceConfig{})
		err := svc.ImportSnapshot(context.Background(), tc.snap)
		if !errors.Is(err, ErrInvalidSnapshot) {
			t.Fatalf("%s: expected ErrInvalidSnapshot, got %v", tc.name, err)
		}
		if len(repo.sheets) != 0 || repo.saves != 0 {
			t.Fatalf("%s: expected nothing written", tc.name)
		}
	}
	if _, err := DecodeSnapshot([]byte("{")); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot from bad json, got %v", err)
	}
}
