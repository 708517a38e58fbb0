package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Menu lays key hints out column by column, at most rows per column.
type Menu struct {
	*tview.Table
	theme *Theme
	rows  int
}

// NewMenu creates a menu whose columns hold rows hints each.
func NewMenu(theme *Theme, rows int) *Menu {
	if rows < 1 {
		rows = 1
	}
	t := tview.NewTable().SetBorders(false).SetSelectable(false, false)
	t.SetBackgroundColor(theme.BgColor)
	t.SetBorderPadding(0, 0, 2, 0)
	return &Menu{Table: t, theme: theme, rows: rows}
}

// Update replaces the hints.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	keyColor := ColorName(m.theme.MenuKeyColor)
	numColor := ColorName(m.theme.NumericKeyColor)
	for i, h := range hints {
		kc := keyColor
		if h.Numeric {
			kc = numColor
		}
		text := fmt.Sprintf("[%s::b]<%s>[-:-:-] %s  ", kc, tview.Escape(h.Key), h.Description)
		m.SetCell(i%m.rows, i/m.rows, tview.NewTableCell(text).
			SetBackgroundColor(m.theme.BgColor).
			SetSelectable(false))
	}
}
