// Package common holds the transport-neutral contracts shared by the HTTP API
// and MCP adapters.
package common

import (
	"context"
	"errors"
)

// ErrNotFound and related errors are mapped onto transport error codes.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrConflict       = errors.New("conflict")
)

// SheetSummary is one sheet as listed by the transports.
type SheetSummary struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Columns []string `json:"columns"`
	Sort    string   `json:"sort,omitempty"`
}

// TreeRow is one outline row flattened in tree order.
type TreeRow struct {
	ID        string            `json:"id"`
	ParentID  string            `json:"parent_id,omitempty"`
	Name      string            `json:"name"`
	Depth     int               `json:"depth"`
	Container bool              `json:"container"`
	Open      bool              `json:"open"`
	Fields    map[string]string `json:"fields"`
	Notes     string            `json:"notes,omitempty"`
}

// SheetTree is a sheet plus its rows.
type SheetTree struct {
	Sheet SheetSummary `json:"sheet"`
	Rows  []TreeRow    `json:"rows"`
}

// GetSheetTreeRequest selects a sheet by id or name.
type GetSheetTreeRequest struct {
	Sheet string `json:"sheet"`
	// All includes rows under closed containers.
	All bool `json:"all"`
}

// AddEntryRequest appends one row to a sheet.
type AddEntryRequest struct {
	Sheet     string  `json:"sheet"`
	ParentID  string  `json:"parent_id"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Container bool    `json:"container"`
	Points    int     `json:"points"`
	Quantity  int     `json:"quantity"`
	Weight    float64 `json:"weight"`
	Reference string  `json:"reference"`
	Notes     string  `json:"notes"`
}

// SheetService is the app-facing surface the transports call.
type SheetService interface {
	ListSheets(context.Context) ([]SheetSummary, error)
	GetSheetTree(context.Context, GetSheetTreeRequest) (SheetTree, error)
	AddEntry(context.Context, AddEntryRequest) (TreeRow, error)
}
