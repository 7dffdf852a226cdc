package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders entry notes for the notes pane. It keeps one
// glamour renderer per wrap width and the output for the last note.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer

	source string
	output string
}

// render converts markdown into styled terminal text wrapped at width.
// Render failures fall back to the raw text.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	wrapWidth := max(width, 16)
	if r.renderer != nil && r.width == wrapWidth && r.source == markdown {
		return r.output
	}

	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	r.source = markdown
	r.output = strings.Trim(rendered, "\n")
	return r.output
}
