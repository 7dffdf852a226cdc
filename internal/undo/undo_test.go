package undo

import (
	"errors"
	"slices"
	"strconv"
	"testing"

	json "github.com/goccy/go-json"
	"pgregory.net/rapid"

	"github.com/hylla/outliner/internal/outline"
)

// note is serializable content used by these tests.
type note struct {
	Title string `json:"title"`
	Level int    `json:"level"`
}

func (n *note) Field(key string) any {
	if key == "level" {
		return n.Level
	}
	return n.Title
}

func (n *note) FieldText(key string) string {
	if key == "level" {
		return strconv.Itoa(n.Level)
	}
	return n.Title
}

func (n *note) SetField(key string, value any) {
	switch key {
	case "title":
		n.Title, _ = value.(string)
	case "level":
		n.Level, _ = value.(int)
	}
}

func (n *note) MarshalRow() ([]byte, error) {
	return json.Marshal(n)
}

func (n *note) UnmarshalRow(data []byte) error {
	var next note
	if err := json.Unmarshal(data, &next); err != nil {
		return err
	}
	*n = next
	return nil
}

// bare has fields but no serialized form.
type bare struct{}

func (bare) Field(string) any        { return nil }
func (bare) FieldText(string) string { return "" }
func (bare) SetField(string, any)    {}

func titles(rows []*outline.Row) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.Content().(*note).Title
	}
	return out
}

// TestRowEditRoundTrip verifies change detection plus undo and redo of content.
func TestRowEditRoundTrip(t *testing.T) {
	content := &note{Title: "Climbing", Level: 1}
	row := outline.NewRow(content)
	m := outline.NewModel()
	m.AddRow(row, false)

	edit, err := BeginRowEdit(row, ContentCodec{}, "Rename")
	if err != nil {
		t.Fatalf("BeginRowEdit() error = %v", err)
	}
	changed, err := edit.Finish()
	if err != nil || changed {
		t.Fatalf("expected no change before editing, got changed=%v err=%v", changed, err)
	}

	edit, _ = BeginRowEdit(row, ContentCodec{}, "Rename")
	content.SetField("title", "Stealth")
	content.SetField("level", 12)
	if changed, err = edit.Finish(); err != nil || !changed {
		t.Fatalf("expected change, got changed=%v err=%v", changed, err)
	}
	if err := edit.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if content.Title != "Climbing" || content.Level != 1 {
		t.Fatalf("unexpected content after undo %+v", content)
	}
	if err := edit.Redo(); err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if content.Title != "Stealth" || content.Level != 12 {
		t.Fatalf("unexpected content after redo %+v", content)
	}
}

// TestContentCodecRejects verifies unsupported content and versions fail cleanly.
func TestContentCodecRejects(t *testing.T) {
	codec := ContentCodec{}
	if _, err := codec.EncodeRow(outline.NewRow(bare{})); !errors.Is(err, ErrNotSerializable) {
		t.Fatalf("expected ErrNotSerializable, got %v", err)
	}
	content := &note{Title: "kept"}
	row := outline.NewRow(content)
	if err := codec.DecodeRow(row, []byte(`{"v":9,"data":{"title":"lost"}}`)); !errors.Is(err, ErrCodecVersion) {
		t.Fatalf("expected ErrCodecVersion, got %v", err)
	}
	if err := codec.DecodeRow(row, []byte(`{"v":1,"data":{"title":7}}`)); err == nil {
		t.Fatalf("expected type error")
	}
	if content.Title != "kept" {
		t.Fatalf("expected failed decode to leave content alone, got %q", content.Title)
	}
}

// TestGroupOrder verifies reverse undo and forward redo.
func TestGroupOrder(t *testing.T) {
	var log []string
	g := NewGroup("batch")
	g.Add(&traceEdit{name: "a", log: &log})
	g.Add(&traceEdit{name: "b", log: &log})
	g.Add(nil)
	if g.Len() != 2 {
		t.Fatalf("expected nil edits to be ignored")
	}
	_ = g.Undo()
	_ = g.Redo()
	if !slices.Equal(log, []string{"undo b", "undo a", "redo a", "redo b"}) {
		t.Fatalf("unexpected order %v", log)
	}
}

// TestGroupRollsBackOnFailure verifies a failing member leaves the group all-or-nothing.
func TestGroupRollsBackOnFailure(t *testing.T) {
	var log []string
	g := NewGroup("g")
	g.Add(&traceEdit{name: "f", log: &log, fail: true})
	g.Add(&traceEdit{name: "a", log: &log})
	g.Add(&traceEdit{name: "b", log: &log})

	h := NewHistory(0)
	h.Push(g)
	if _, err := h.Undo(); err == nil {
		t.Fatalf("expected failing undo to error")
	}
	if !slices.Equal(log, []string{"undo b", "undo a", "redo a", "redo b"}) {
		t.Fatalf("expected undone members reapplied, got %v", log)
	}
	if undo, redo := h.Len(); undo != 1 || redo != 0 {
		t.Fatalf("expected stacks unchanged, got %d/%d", undo, redo)
	}

	log = nil
	g = NewGroup("g")
	g.Add(&traceEdit{name: "a", log: &log})
	g.Add(&traceEdit{name: "b", log: &log})
	g.Add(&traceEdit{name: "f", log: &log, failRedo: true})
	if err := g.Redo(); err == nil {
		t.Fatalf("expected failing redo to error")
	}
	if !slices.Equal(log, []string{"redo a", "redo b", "undo b", "undo a"}) {
		t.Fatalf("expected redone members reversed, got %v", log)
	}
}

type traceEdit struct {
	name     string
	log      *[]string
	fail     bool
	failRedo bool
}

func (e *traceEdit) Label() string { return e.name }

func (e *traceEdit) Undo() error {
	if e.fail {
		return errors.New("boom")
	}
	*e.log = append(*e.log, "undo "+e.name)
	return nil
}

func (e *traceEdit) Redo() error {
	if e.failRedo {
		return errors.New("boom")
	}
	*e.log = append(*e.log, "redo "+e.name)
	return nil
}

// TestHistoryStacks covers push, undo, redo, limits and failures.
func TestHistoryStacks(t *testing.T) {
	var log []string
	h := NewHistory(2)
	if _, err := h.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
	h.Push(&traceEdit{name: "one", log: &log})
	h.Push(&traceEdit{name: "two", log: &log})
	h.Push(&traceEdit{name: "three", log: &log})
	if undo, _ := h.Len(); undo != 2 {
		t.Fatalf("expected limit of 2, got %d", undo)
	}
	if h.UndoLabel() != "three" {
		t.Fatalf("unexpected undo label %q", h.UndoLabel())
	}
	if _, err := h.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if !h.CanRedo() || h.RedoLabel() != "three" {
		t.Fatalf("expected redo of three")
	}
	h.Push(&traceEdit{name: "four", log: &log, fail: true})
	if h.CanRedo() {
		t.Fatalf("expected push to clear redo")
	}
	if _, err := h.Undo(); err == nil {
		t.Fatalf("expected failing undo to error")
	}
	if undo, redo := h.Len(); undo != 2 || redo != 0 {
		t.Fatalf("expected stacks unchanged after failure, got %d/%d", undo, redo)
	}
}

// TestModelEditUndoRedo verifies a structural edit through the whole-model snapshot.
func TestModelEditUndoRedo(t *testing.T) {
	m := outline.NewModel()
	first := outline.NewRow(&note{Title: "first"})
	m.AddRow(first, false)

	edit := BeginModelEdit(m, "Add")
	m.AddRow(outline.NewRow(&note{Title: "second"}), false)
	if err := edit.Redo(); !errors.Is(err, ErrEditNotFinished) {
		t.Fatalf("expected ErrEditNotFinished, got %v", err)
	}
	edit.End()

	h := NewHistory(0)
	h.Push(edit)
	if _, err := h.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if got := titles(m.Rows()); !slices.Equal(got, []string{"first"}) {
		t.Fatalf("unexpected rows after undo %v", got)
	}
	if _, err := h.Redo(); err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if got := titles(m.Rows()); !slices.Equal(got, []string{"first", "second"}) {
		t.Fatalf("unexpected rows after redo %v", got)
	}
}

// TestRowCaptureProperty checks undo and redo restore exact bytes for arbitrary edits.
func TestRowCaptureProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		content := &note{Title: rapid.StringMatching(`[a-zA-Z0-9 ]{0,12}`).Draw(t, "title"), Level: rapid.Int().Draw(t, "level")}
		row := outline.NewRow(content)
		codec := ContentCodec{}
		original, err := codec.EncodeRow(row)
		if err != nil {
			t.Fatalf("EncodeRow() error = %v", err)
		}
		edit, _ := BeginRowEdit(row, codec, "edit")
		content.Title = rapid.StringMatching(`[a-zA-Z0-9 ]{0,12}`).Draw(t, "newTitle")
		content.Level = rapid.Int().Draw(t, "newLevel")
		_, _ = edit.Finish()
		edited, _ := codec.EncodeRow(row)

		if err := edit.Undo(); err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
		if got, _ := codec.EncodeRow(row); string(got) != string(original) {
			t.Fatalf("undo produced %s, expected %s", got, original)
		}
		if err := edit.Redo(); err != nil {
			t.Fatalf("Redo() error = %v", err)
		}
		if got, _ := codec.EncodeRow(row); string(got) != string(edited) {
			t.Fatalf("redo produced %s, expected %s", got, edited)
		}
	})
}
