package undo

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/hylla/outliner/internal/outline"
)

var ErrEditNotFinished = errors.New("edit not finished")

// ModelEdit undoes a structural change by restoring whole-model snapshots.
type ModelEdit struct {
	label  string
	model  *outline.Model
	before *outline.Snapshot
	after  *outline.Snapshot
}

// BeginModelEdit captures m before a structural change.
func BeginModelEdit(m *outline.Model, label string) *ModelEdit {
	return &ModelEdit{label: label, model: m, before: m.CaptureSnapshot()}
}

// End captures m after the change.
func (e *ModelEdit) End() {
	e.after = e.model.CaptureSnapshot()
}

// Label names the edit.
func (e *ModelEdit) Label() string {
	return e.label
}

// Undo restores the state captured by BeginModelEdit.
func (e *ModelEdit) Undo() error {
	return e.model.RestoreSnapshot(e.before)
}

// Redo restores the state captured by End.
func (e *ModelEdit) Redo() error {
	if e.after == nil {
		return ErrEditNotFinished
	}
	return e.model.RestoreSnapshot(e.after)
}

// RowEdit undoes a content change to one row by reloading its serialized
// form. Children are not part of the capture.
type RowEdit struct {
	label  string
	row    *outline.Row
	codec  RowCodec
	before []byte
	after  []byte
}

// BeginRowEdit captures row before a content change.
func BeginRowEdit(row *outline.Row, codec RowCodec, label string) (*RowEdit, error) {
	before, err := codec.EncodeRow(row)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", label, err)
	}
	return &RowEdit{label: label, row: row, codec: codec, before: before}, nil
}

// Finish captures row after the change. It reports whether the row changed
// and so whether the edit is worth recording.
func (e *RowEdit) Finish() (bool, error) {
	after, err := e.codec.EncodeRow(e.row)
	if err != nil {
		return false, fmt.Errorf("capture %s: %w", e.label, err)
	}
	e.after = after
	return len(e.before) != len(e.after) || !bytes.Equal(e.before, e.after), nil
}

// Label names the edit.
func (e *RowEdit) Label() string {
	return e.label
}

// Row returns the edited row.
func (e *RowEdit) Row() *outline.Row {
	return e.row
}

// Undo reloads the row's prior content.
func (e *RowEdit) Undo() error {
	return e.load(e.before)
}

// Redo reloads the row's edited content.
func (e *RowEdit) Redo() error {
	if e.after == nil {
		return ErrEditNotFinished
	}
	return e.load(e.after)
}

func (e *RowEdit) load(data []byte) error {
	if err := e.codec.DecodeRow(e.row, data); err != nil {
		return err
	}
	if owner := e.row.Owner(); owner != nil {
		owner.NotifyRowModified(e.row, nil)
	}
	return nil
}

// Group bundles edits into one unit. Undo runs members last to first, Redo
// first to last.
type Group struct {
	label string
	edits []Edit
}

// NewGroup creates an empty group.
func NewGroup(label string) *Group {
	return &Group{label: label}
}

// Add appends e. Nil edits are ignored.
func (g *Group) Add(e Edit) {
	if e != nil {
		g.edits = append(g.edits, e)
	}
}

// Len returns the number of member edits.
func (g *Group) Len() int {
	return len(g.edits)
}

// Label names the group.
func (g *Group) Label() string {
	return g.label
}

// Undo reverses every member in reverse order. When a member fails, the
// members already reversed are reapplied so the group stays whole.
func (g *Group) Undo() error {
	for i := len(g.edits) - 1; i >= 0; i-- {
		if err := g.edits[i].Undo(); err != nil {
			return g.rollback(err, func(e Edit) error { return e.Redo() }, g.edits[i+1:])
		}
	}
	return nil
}

// Redo reapplies every member in order. When a member fails, the members
// already reapplied are reversed again.
func (g *Group) Redo() error {
	for i, e := range g.edits {
		if err := e.Redo(); err != nil {
			done := slices.Clone(g.edits[:i])
			slices.Reverse(done)
			return g.rollback(err, func(e Edit) error { return e.Undo() }, done)
		}
	}
	return nil
}

// rollback runs revert over done in order and joins any failure with cause.
func (g *Group) rollback(cause error, revert func(Edit) error, done []Edit) error {
	errs := []error{cause}
	for _, e := range done {
		if err := revert(e); err != nil {
			errs = append(errs, fmt.Errorf("roll back %s: %w", e.Label(), err))
		}
	}
	return errors.Join(errs...)
}
