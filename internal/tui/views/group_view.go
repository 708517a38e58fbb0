package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/wuzdash/internal/dashboard"
	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/perm"
	"github.com/matheus3301/wuzdash/internal/tui/ui"
	"github.com/matheus3301/wuzdash/internal/wa"
)

// GroupView shows one group's settings and its roster. The actions column
// lists only what the viewer may do to each participant.
type GroupView struct {
	*tview.Flex
	theme  *ui.Theme
	header *tview.TextView
	roster *tview.Table
	group  dashboard.GroupView
	viewer string
}

// NewGroupView creates a new group detail page.
func NewGroupView(theme *ui.Theme) *GroupView {
	header := tview.NewTextView().SetDynamicColors(true)
	header.SetBackgroundColor(theme.BgColor)
	header.SetBorderPadding(0, 0, 1, 1)

	roster := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	roster.SetBackgroundColor(theme.BgColor)
	roster.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, 6, 0, false).
		AddItem(roster, 0, 1, true)
	flex.SetBorder(true)
	flex.SetBorderColor(theme.BorderColor)
	flex.SetBackgroundColor(theme.BgColor)
	flex.SetTitleColor(theme.TitleColor)

	return &GroupView{Flex: flex, theme: theme, header: header, roster: roster}
}

// Name implements ui.Component.
func (gv *GroupView) Name() string { return "Group" }

// Roster exposes the participant table for focus.
func (gv *GroupView) Roster() *tview.Table { return gv.roster }

// Group returns the group on display.
func (gv *GroupView) Group() dashboard.GroupView { return gv.group }

// Update renders g as seen by viewerJID.
func (gv *GroupView) Update(g dashboard.GroupView, viewerJID string) {
	gv.group = g
	gv.viewer = viewerJID
	gv.SetTitle(fmt.Sprintf(" %s ", display(orDash(g.Name))))
	gv.renderHeader()
	gv.renderRoster()
}

func (gv *GroupView) renderHeader() {
	g := gv.group
	gv.header.Clear()
	fg := ui.ColorName(gv.theme.FgColor)
	ct := ui.ColorName(gv.theme.CounterColor)

	var settings []string
	if g.IsAnnounce {
		settings = append(settings, "admins only send")
	}
	if g.IsLocked {
		settings = append(settings, "admins only edit")
	}
	if g.IsJoinApprovalRequired {
		settings = append(settings, "join approval")
	}
	kind := g.Kind.String()
	if g.ParentName != "" {
		kind += " of " + g.ParentName
	}

	_, _ = fmt.Fprintf(gv.header,
		"[%s::b]JID:[-:-:-]      [%s]%s[-]\n"+
			"[%s::b]Type:[-:-:-]     [%s]%s[-]   [%s::b]My role:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Topic:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Members:[-:-:-]  [%s]%d (%d admins, %d super admins)[-]\n"+
			"[%s::b]Timer:[-:-:-]    [%s]%s[-]   [%s::b]Settings:[-:-:-] [%s]%s[-]",
		fg, ct, display(g.JID),
		fg, ct, display(kind), fg, ct, roleText(g.Role),
		fg, ct, display(orDash(g.Topic)),
		fg, ct, g.Counts.Members, g.Counts.Admins, g.Counts.SuperAdmins,
		fg, ct, wa.DisappearingLabel(g.DisappearingTimer), fg, ct, orDash(strings.Join(settings, ", ")),
	)
}

func (gv *GroupView) renderRoster() {
	gv.roster.Clear()
	for col, h := range []string{" PARTICIPANT", " PHONE", " ROLE", " ACTIONS"} {
		exp := 0
		if col == 0 {
			exp = 1
		}
		gv.roster.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(gv.theme.TableHeaderFg).
			SetBackgroundColor(gv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(exp))
	}
	for i, p := range gv.group.Participants {
		row := i + 1
		name := p.DisplayName
		if name == "" {
			name = p.JID
		}
		if perm.IsSelf(p, gv.viewer) {
			name += " (you)"
		}
		role := perm.RoleOf(p)
		gv.roster.SetCell(row, 0, tview.NewTableCell(" "+display(name)).SetExpansion(1).SetTextColor(gv.theme.FgColor))
		gv.roster.SetCell(row, 1, tview.NewTableCell(" "+display(orDash(phoneOf(p)))).SetTextColor(gv.theme.FgColor))
		gv.roster.SetCell(row, 2, tview.NewTableCell(" "+roleText(role)).SetTextColor(gv.theme.RoleColor(role)))
		gv.roster.SetCell(row, 3, tview.NewTableCell(" "+strings.Join(gv.Actions(p), " ")).SetTextColor(gv.theme.MenuKeyColor))
	}
}

func phoneOf(p gateway.Participant) string {
	if p.PhoneNumber != "" {
		return wa.PhoneOf(p.PhoneNumber)
	}
	return wa.PhoneOf(p.JID)
}

// Actions lists what the viewer may do to p.
func (gv *GroupView) Actions(p gateway.Participant) []string {
	return perm.Actions(gv.group.Role, p, gv.viewer)
}

// Selected returns the highlighted participant.
func (gv *GroupView) Selected() (gateway.Participant, bool) {
	row, _ := gv.roster.GetSelection()
	if row < 1 || row > len(gv.group.Participants) {
		return gateway.Participant{}, false
	}
	return gv.group.Participants[row-1], true
}

// SelectedPhone returns the phone of the highlighted participant.
func (gv *GroupView) SelectedPhone() string {
	p, ok := gv.Selected()
	if !ok {
		return ""
	}
	return phoneOf(p)
}
