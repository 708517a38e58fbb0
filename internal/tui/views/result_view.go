package views

import (
	"fmt"

	"github.com/rivo/tview"
	"gopkg.in/yaml.v3"

	"github.com/matheus3301/wuzdash/internal/tui/ui"
)

// ResultView shows the output of a lookup command as YAML.
type ResultView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewResultView creates a new result page.
func NewResultView(theme *ui.Theme) *ResultView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitleColor(theme.TitleColor)
	return &ResultView{TextView: tv, theme: theme}
}

// Name implements ui.Component.
func (rv *ResultView) Name() string { return "Result" }

// Show renders v under title. Strings are shown verbatim.
func (rv *ResultView) Show(title string, v any) {
	rv.Clear()
	rv.SetTitle(" " + title + " ")
	rv.ScrollToBeginning()
	if s, ok := v.(string); ok {
		_, _ = fmt.Fprint(rv, tview.Escape(s))
		return
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		_, _ = fmt.Fprintf(rv, "cannot render result: %v", err)
		return
	}
	_, _ = fmt.Fprint(rv, tview.Escape(Sanitize(string(out))))
}
