package app

import (
	"context"

	"github.com/hylla/outliner/internal/domain"
)

// Repository persists sheets and their entries.
type Repository interface {
	CreateSheet(context.Context, domain.Sheet) error
	UpdateSheet(context.Context, domain.Sheet) error
	GetSheet(context.Context, string) (domain.Sheet, error)
	ListSheets(context.Context) ([]domain.Sheet, error)
	DeleteSheet(context.Context, string) error

	ListEntries(context.Context, string) ([]domain.Entry, error)
	ReplaceEntries(context.Context, string, []domain.Entry) error
}
