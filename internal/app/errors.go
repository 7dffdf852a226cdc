package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound        = errors.New("not found")
	ErrLocked          = errors.New("document is locked")
	ErrNoSelection     = errors.New("nothing selected")
	ErrNotContainer    = errors.New("row cannot hold children")
	ErrCannotMove      = errors.New("selection cannot move there")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
