package domain

import "errors"

var (
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidSheetKind = errors.New("invalid sheet kind")
	ErrInvalidPosition  = errors.New("invalid position")
	ErrInvalidPoints    = errors.New("invalid points")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidWeight    = errors.New("invalid weight")
	ErrUnknownFeature   = errors.New("unknown feature type")
	ErrUnknownField     = errors.New("unknown field")
)
