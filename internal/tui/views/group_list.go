package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/wuzdash/internal/dashboard"
	"github.com/matheus3301/wuzdash/internal/perm"
	"github.com/matheus3301/wuzdash/internal/tui/ui"
	"github.com/matheus3301/wuzdash/internal/wa"
)

// GroupList shows the groups of the current session.
type GroupList struct {
	*tview.Table
	theme  *ui.Theme
	groups []dashboard.GroupView
	filter string
}

// NewGroupList creates a new group table.
func NewGroupList(theme *ui.Theme) *GroupList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Groups ")
	table.SetTitleColor(theme.TitleColor)

	return &GroupList{Table: table, theme: theme}
}

// Name implements ui.Component.
func (gl *GroupList) Name() string { return "Groups" }

// Update replaces the listed groups.
func (gl *GroupList) Update(groups []dashboard.GroupView) {
	gl.groups = groups
	gl.render()
}

// SetFilter sets the active filter text and re-renders.
func (gl *GroupList) SetFilter(filter string) {
	gl.filter = filter
	gl.render()
}

func (gl *GroupList) visible() []dashboard.GroupView {
	var out []dashboard.GroupView
	for _, g := range gl.groups {
		if gl.filter == "" || containsFold(g.Name, gl.filter) || containsFold(g.ParentName, gl.filter) {
			out = append(out, g)
		}
	}
	return out
}

func roleText(r perm.Role) string {
	if r == perm.None {
		return "member"
	}
	return r.String()
}

func (gl *GroupList) render() {
	gl.Clear()
	headers := []string{" NAME", " TYPE", " COMMUNITY", " MY ROLE", " MEMBERS", " ADMINS", " TIMER"}
	for col, h := range headers {
		exp := 0
		if col == 0 || col == 2 {
			exp = 1
		}
		gl.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(gl.theme.TableHeaderFg).
			SetBackgroundColor(gl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(exp))
	}

	rows := gl.visible()
	for i, g := range rows {
		row := i + 1
		admins := fmt.Sprintf(" %d", g.Counts.Admins)
		if g.Counts.SuperAdmins > 0 {
			admins = fmt.Sprintf(" %d+%d", g.Counts.SuperAdmins, g.Counts.Admins)
		}
		gl.SetCell(row, 0, tview.NewTableCell(" "+display(orDash(g.Name))).SetExpansion(1).SetTextColor(gl.theme.FgColor))
		gl.SetCell(row, 1, tview.NewTableCell(" "+g.Kind.String()).SetTextColor(gl.theme.FgColor))
		gl.SetCell(row, 2, tview.NewTableCell(" "+display(g.ParentName)).SetExpansion(1).SetTextColor(gl.theme.FgColor))
		gl.SetCell(row, 3, tview.NewTableCell(" "+roleText(g.Role)).SetTextColor(gl.theme.RoleColor(g.Role)))
		gl.SetCell(row, 4, tview.NewTableCell(fmt.Sprintf(" %d", g.Counts.Members)).SetTextColor(gl.theme.CounterColor))
		gl.SetCell(row, 5, tview.NewTableCell(admins).SetTextColor(gl.theme.CounterColor))
		gl.SetCell(row, 6, tview.NewTableCell(" "+wa.DisappearingLabel(g.DisappearingTimer)).SetTextColor(gl.theme.FgColor))
	}

	if gl.filter != "" {
		gl.SetTitle(fmt.Sprintf(" Groups (%d/%d) filter: %s ", len(rows), len(gl.groups), tview.Escape(gl.filter)))
	} else {
		gl.SetTitle(fmt.Sprintf(" Groups (%d) ", len(gl.groups)))
	}
}

// Selected returns the highlighted group.
func (gl *GroupList) Selected() (dashboard.GroupView, bool) {
	row, _ := gl.GetSelection()
	rows := gl.visible()
	if row < 1 || row > len(rows) {
		return dashboard.GroupView{}, false
	}
	return rows[row-1], true
}
