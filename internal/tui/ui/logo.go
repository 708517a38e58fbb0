package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Logo is the wordmark in the header corner.
type Logo struct {
	*tview.TextView
	theme *Theme
}

// NewLogo creates a new logo component.
func NewLogo(theme *Theme) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(1, 0, 1, 0)

	l := &Logo{
		TextView: tv,
		theme:    theme,
	}
	l.render()
	return l
}

var logoArt = []string{
	"╦ ╦╦ ╦╔═╗",
	"║║║║ ║╔═╝",
	"╚╩╝╚═╝╚═╝",
}

func (l *Logo) render() {
	art := ColorName(l.theme.TitleColor)
	for _, line := range logoArt {
		_, _ = fmt.Fprintf(l, "[%s::b]%s[-:-:-]\n", art, line)
	}
	_, _ = fmt.Fprintf(l, "[%s]dashboard[-:-:-]", ColorName(l.theme.FgColor))
}
