package ui

import "github.com/rivo/tview"

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // true for 0-9 shortcuts (displayed in a different color)
}

// Component is a page of the dashboard.
type Component interface {
	tview.Primitive
	// Name is the page name and breadcrumb label.
	Name() string
}
