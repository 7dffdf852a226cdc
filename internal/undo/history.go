package undo

import (
	"errors"
	"fmt"
)

// DefaultLimit bounds the undo stack when no limit is configured.
const DefaultLimit = 100

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Edit is one reversible user mutation.
type Edit interface {
	Label() string
	Undo() error
	Redo() error
}

// History keeps bounded undo and redo stacks.
type History struct {
	undo  []Edit
	redo  []Edit
	limit int
}

// NewHistory creates a history holding at most limit undo entries. A
// non-positive limit uses DefaultLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Push records e and clears the redo stack. Nil edits are ignored.
func (h *History) Push(e Edit) {
	if e == nil {
		return
	}
	h.undo = append(h.undo, e)
	if len(h.undo) > h.limit {
		h.undo = append([]Edit(nil), h.undo[len(h.undo)-h.limit:]...)
	}
	h.redo = nil
}

// Undo reverses the latest edit. On failure both stacks stay as they were.
func (h *History) Undo() (Edit, error) {
	if len(h.undo) == 0 {
		return nil, ErrNothingToUndo
	}
	top := h.undo[len(h.undo)-1]
	if err := top.Undo(); err != nil {
		return nil, fmt.Errorf("undo %s: %w", top.Label(), err)
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, top)
	return top, nil
}

// Redo reapplies the latest undone edit. On failure both stacks stay as they were.
func (h *History) Redo() (Edit, error) {
	if len(h.redo) == 0 {
		return nil, ErrNothingToRedo
	}
	top := h.redo[len(h.redo)-1]
	if err := top.Redo(); err != nil {
		return nil, fmt.Errorf("redo %s: %w", top.Label(), err)
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, top)
	return top, nil
}

// CanUndo reports whether Undo has work.
func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether Redo has work.
func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// UndoLabel returns the label of the edit Undo would reverse.
func (h *History) UndoLabel() string {
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].Label()
}

// RedoLabel returns the label of the edit Redo would reapply.
func (h *History) RedoLabel() string {
	if len(h.redo) == 0 {
		return ""
	}
	return h.redo[len(h.redo)-1].Label()
}

// Len returns the undo and redo depths.
func (h *History) Len() (undo, redo int) {
	return len(h.undo), len(h.redo)
}

// Clear drops all history.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}
