package tui

import "github.com/atotto/clipboard"

// KeyConfig holds configurable key overrides. Blank fields keep defaults.
type KeyConfig struct {
	Undo   string
	Redo   string
	Filter string
	Copy   string
	Save   string
}

// LayoutConfig controls table geometry.
type LayoutConfig struct {
	DividerWidth int
	RowHeight    int
}

type Option func(*Model)

func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{DividerWidth: 1, RowHeight: 1}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

func WithLayoutConfig(cfg LayoutConfig) Option {
	return func(m *Model) {
		if cfg.DividerWidth >= 0 {
			m.layout.alloc.DividerWidth = cfg.DividerWidth
		}
		if cfg.RowHeight > 0 {
			m.layout.rowHeight = cfg.RowHeight
		}
	}
}

func WithShowNotes(show bool) Option {
	return func(m *Model) {
		m.showNotes = show
	}
}

func WithConfirmDelete(confirm bool) Option {
	return func(m *Model) {
		m.confirmDelete = confirm
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

func systemClipboard(text string) error {
	return clipboard.WriteAll(text)
}
