// Package keys maps key events to named actions per page.
package keys

import (
	"github.com/gdamore/tcell/v2"

	"github.com/matheus3301/wuzdash/internal/tui/ui"
)

// Action represents a keybinding action. Label is the key as shown in the
// menu.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Label       string
	Description string
	Handler     func()
	Visible     bool
	Numeric     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

type named struct {
	name   string
	action *Action
}

// Registry holds keybindings organized by page. Bindings keep their
// registration order so hints render stably.
type Registry struct {
	global []named
	pages  map[string][]named
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{pages: make(map[string][]named)}
}

func put(list []named, name string, action *Action) []named {
	for i := range list {
		if list[i].name == name {
			list[i].action = action
			return list
		}
	}
	return append(list, named{name, action})
}

// AddGlobal registers a binding active on every page.
func (r *Registry) AddGlobal(name string, action *Action) {
	r.global = put(r.global, name, action)
}

// AddPage registers a binding for one page. Page bindings shadow globals.
func (r *Registry) AddPage(page, name string, action *Action) {
	r.pages[page] = put(r.pages[page], name, action)
}

// Hints returns the visible bindings of page, page bindings first.
func (r *Registry) Hints(page string) []ui.MenuHint {
	var hints []ui.MenuHint
	for _, n := range append(append([]named(nil), r.pages[page]...), r.global...) {
		if !n.action.Visible {
			continue
		}
		label := n.action.Label
		if label == "" {
			label = string(n.action.Rune)
		}
		hints = append(hints, ui.MenuHint{Key: label, Description: n.action.Description, Numeric: n.action.Numeric})
	}
	return hints
}

// HandleEvent dispatches ev to the first matching binding of page, then the
// globals. It reports whether a handler ran.
func (r *Registry) HandleEvent(page string, ev *tcell.EventKey) bool {
	for _, n := range r.pages[page] {
		if n.action.Matches(ev) {
			n.action.Handler()
			return true
		}
	}
	for _, n := range r.global {
		if n.action.Matches(ev) {
			n.action.Handler()
			return true
		}
	}
	return false
}
