package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// keyMap holds every binding the outline view understands.
type keyMap struct {
	quit         key.Binding
	toggleHelp   key.Binding
	up           key.Binding
	down         key.Binding
	extendUp     key.Binding
	extendDown   key.Binding
	home         key.Binding
	end          key.Binding
	toggleOpen   key.Binding
	open         key.Binding
	close        key.Binding
	openAll      key.Binding
	closeAll     key.Binding
	columnLeft   key.Binding
	columnRight  key.Binding
	newSibling   key.Binding
	newChild     key.Binding
	newContainer key.Binding
	rename       key.Binding
	editField    key.Binding
	deleteRows   key.Binding
	moveUp       key.Binding
	moveDown     key.Binding
	indent       key.Binding
	outdent      key.Binding
	sortBy       key.Binding
	sortExtend   key.Binding
	clearSort    key.Binding
	undo         key.Binding
	redo         key.Binding
	filter       key.Binding
	copy         key.Binding
	notes        key.Binding
	nextSheet    key.Binding
	prevSheet    key.Binding
	newSheet     key.Binding
	save         key.Binding
	lock         key.Binding
}

// sortKeys maps the sort keys to column positions. Shifted digits extend.
var (
	sortKeys       = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}
	sortExtendKeys = []string{"!", "@", "#", "$", "%", "^", "&", "*", "("}
)

// newKeyMap constructs the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		up:           key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "row up")),
		down:         key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "row down")),
		extendUp:     key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K/⇧↑", "extend up")),
		extendDown:   key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J/⇧↓", "extend down")),
		home:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g/home", "first row")),
		end:          key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G/end", "last row")),
		toggleOpen:   key.NewBinding(key.WithKeys("space"), key.WithHelp("space", "open/close")),
		open:         key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "open")),
		close:        key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "close")),
		openAll:      key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "open all")),
		closeAll:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "close all")),
		columnLeft:   key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "column left")),
		columnRight:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "column right")),
		newSibling:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new row")),
		newChild:     key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new child")),
		newContainer: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "new container")),
		rename:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		editField:    key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e/enter", "edit cell")),
		deleteRows:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		moveUp:       key.NewBinding(key.WithKeys("ctrl+k", "alt+up"), key.WithHelp("ctrl+k", "move up")),
		moveDown:     key.NewBinding(key.WithKeys("ctrl+j", "alt+down"), key.WithHelp("ctrl+j", "move down")),
		indent:       key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "indent")),
		outdent:      key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "outdent")),
		sortBy:       key.NewBinding(key.WithKeys(sortKeys...), key.WithHelp("1-9", "sort column")),
		sortExtend:   key.NewBinding(key.WithKeys(sortExtendKeys...), key.WithHelp("⇧1-9", "add sort key")),
		clearSort:    key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "clear sort")),
		undo:         key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "undo")),
		redo:         key.NewBinding(key.WithKeys("Z", "shift+z"), key.WithHelp("Z", "redo")),
		filter:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		copy:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		notes:        key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "notes pane")),
		nextSheet:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next sheet")),
		prevSheet:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("⇧tab", "previous sheet")),
		newSheet:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new sheet")),
		save:         key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		lock:         key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "lock")),
	}
}

// applyConfig replaces the configurable bindings.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.undo, cfg.Undo, "z", "undo")
	configureBinding(&k.redo, cfg.Redo, "Z", "redo")
	configureBinding(&k.filter, cfg.Filter, "/", "filter")
	configureBinding(&k.copy, cfg.Copy, "y", "copy")
	configureBinding(&k.save, cfg.Save, "ctrl+s", "save")
}

// configureBinding rebinds b to raw, or fallback when raw is blank.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns a configured key into matcher keys and a help label.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") || raw == " " {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp returns the bindings shown in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.newSibling, k.rename, k.deleteRows, k.toggleOpen, k.filter, k.undo, k.save, k.toggleHelp, k.quit,
	}
}

// FullHelp returns the grouped bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.extendUp, k.extendDown, k.home, k.end, k.columnLeft, k.columnRight},
		{k.toggleOpen, k.open, k.close, k.openAll, k.closeAll, k.filter, k.notes, k.copy},
		{k.newSibling, k.newChild, k.newContainer, k.rename, k.editField, k.deleteRows, k.moveUp, k.moveDown, k.indent, k.outdent},
		{k.sortBy, k.sortExtend, k.clearSort, k.undo, k.redo, k.nextSheet, k.prevSheet, k.newSheet, k.save, k.lock, k.toggleHelp, k.quit},
	}
}
