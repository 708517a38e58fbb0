package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/wuzdash/internal/tui/ui"
)

// HelpEntry is one line of the command reference.
type HelpEntry struct {
	Usage       string
	Description string
}

// HelpView displays key binding and command reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view listing commands.
func NewHelpView(theme *ui.Theme, commands []HelpEntry) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render(commands)
	return hv
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "Help" }

func (hv *HelpView) render(commands []HelpEntry) {
	kc := ui.ColorName(hv.theme.MenuKeyColor)
	key := func(k, desc string) string {
		return fmt.Sprintf("  [%s]%-10s[-:-:-] %s\n", kc, k, desc)
	}

	var b strings.Builder
	b.WriteString("\n  [::b]Global Keys[-:-:-]\n\n")
	b.WriteString(key(":", "Command mode"))
	b.WriteString(key("/", "Filter the current table"))
	b.WriteString(key("Esc", "Cancel / go back"))
	b.WriteString(key("?", "This help"))
	b.WriteString(key("q", "Quit"))

	b.WriteString("\n  [::b]Instances[-:-:-]\n\n")
	b.WriteString(key("Enter", "Open instance (admin)"))
	b.WriteString(key("1-9", "Open the Nth instance"))
	b.WriteString(key("c / x", "Connect / disconnect"))
	b.WriteString(key("p", "Pair with a phone number"))
	b.WriteString(key("g", "Groups of the session"))
	b.WriteString(key("r", "Refresh now"))

	b.WriteString("\n  [::b]Group[-:-:-]\n\n")
	b.WriteString(key("P / D / R", "Promote / demote / remove the selected participant"))
	b.WriteString(key("a", "Add participants"))
	b.WriteString(key("i", "Invite link"))

	b.WriteString("\n  [::b]Commands (: mode)[-:-:-]\n\n")
	width := 0
	for _, c := range commands {
		width = max(width, len(c.Usage))
	}
	for _, c := range commands {
		fmt.Fprintf(&b, "  [%s]%-*s[-:-:-]  %s\n", kc, width, tview.Escape(c.Usage), c.Description)
	}
	_, _ = fmt.Fprint(hv, b.String())
}
