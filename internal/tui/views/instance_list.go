package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/tui/ui"
)

// InstanceList is the admin table of gateway instances.
type InstanceList struct {
	*tview.Table
	theme     *ui.Theme
	instances []gateway.Instance
	filter    string
}

// NewInstanceList creates a new instance table.
func NewInstanceList(theme *ui.Theme) *InstanceList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Instances ")
	table.SetTitleColor(theme.TitleColor)

	return &InstanceList{
		Table: table,
		theme: theme,
	}
}

// Name implements ui.Component.
func (il *InstanceList) Name() string { return "Instances" }

// Update refreshes the table, keeping the selected instance when it is
// still listed.
func (il *InstanceList) Update(instances []gateway.Instance) {
	selected := il.SelectedID()
	il.instances = instances
	il.render()
	if selected == "" {
		return
	}
	for row, inst := range il.visible() {
		if inst.ID == selected {
			il.Select(row+1, 0)
			return
		}
	}
}

// SetFilter sets the active filter text and re-renders.
func (il *InstanceList) SetFilter(filter string) {
	il.filter = filter
	il.render()
}

func (il *InstanceList) matches(inst gateway.Instance) bool {
	if il.filter == "" {
		return true
	}
	return containsFold(inst.Name, il.filter) || containsFold(inst.ID, il.filter) || containsFold(inst.JID, il.filter)
}

func (il *InstanceList) visible() []gateway.Instance {
	var out []gateway.Instance
	for _, inst := range il.instances {
		if il.matches(inst) {
			out = append(out, inst)
		}
	}
	return out
}

func (il *InstanceList) flag(on bool) *tview.TableCell {
	if on {
		return tview.NewTableCell(" yes").SetTextColor(il.theme.OnlineColor)
	}
	return tview.NewTableCell(" no").SetTextColor(il.theme.OfflineColor)
}

func (il *InstanceList) render() {
	il.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" #", 0},
		{" ID", 0},
		{" NAME", 1},
		{" CONNECTED", 0},
		{" LOGGED IN", 0},
		{" JID", 2},
		{" EVENTS", 1},
	}
	for col, h := range headers {
		il.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(il.theme.TableHeaderFg).
			SetBackgroundColor(il.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	rows := il.visible()
	for i, inst := range rows {
		row := i + 1
		il.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf(" %d", row)).SetTextColor(il.theme.NumericKeyColor))
		il.SetCell(row, 1, tview.NewTableCell(" "+display(inst.ID)).SetTextColor(il.theme.FgColor))
		il.SetCell(row, 2, tview.NewTableCell(" "+display(inst.Name)).SetExpansion(1).SetTextColor(il.theme.FgColor))
		il.SetCell(row, 3, il.flag(inst.Connected))
		il.SetCell(row, 4, il.flag(inst.LoggedIn))
		il.SetCell(row, 5, tview.NewTableCell(" "+display(orDash(inst.JID))).SetExpansion(2).SetTextColor(il.theme.FgColor))
		il.SetCell(row, 6, tview.NewTableCell(" "+display(orDash(inst.Events))).SetExpansion(1).SetTextColor(il.theme.FgColor))
	}

	if il.filter != "" {
		il.SetTitle(fmt.Sprintf(" Instances (%d/%d) filter: %s ", len(rows), len(il.instances), tview.Escape(il.filter)))
	} else {
		il.SetTitle(fmt.Sprintf(" Instances (%d) ", len(il.instances)))
	}
}

// SelectedID returns the id of the highlighted instance.
func (il *InstanceList) SelectedID() string {
	row, _ := il.GetSelection()
	return il.IDByIndex(row)
}

// IDByIndex returns the id of the Nth visible instance (1-based).
func (il *InstanceList) IDByIndex(n int) string {
	rows := il.visible()
	if n < 1 || n > len(rows) {
		return ""
	}
	return rows[n-1].ID
}
