package views

import (
	"github.com/rivo/tview"

	"github.com/matheus3301/wuzdash/internal/tui/ui"
)

// LoginView asks for a user token or an admin token.
type LoginView struct {
	*tview.Form
	theme    *ui.Theme
	onSubmit func(token string, admin bool)
}

// NewLoginView creates the login form.
func NewLoginView(theme *ui.Theme) *LoginView {
	form := tview.NewForm()
	form.SetBorder(true)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetTitle(" Login ")
	form.SetTitleColor(theme.TitleColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetButtonBackgroundColor(theme.BorderColor)

	lv := &LoginView{Form: form, theme: theme}
	form.AddPasswordField("Token", "", 48, '*', nil)
	form.AddCheckbox("Admin token", false, nil)
	form.AddButton("Login", lv.submit)
	return lv
}

// Name implements ui.Component.
func (lv *LoginView) Name() string { return "Login" }

// SetOnSubmit sets the callback for the Login button.
func (lv *LoginView) SetOnSubmit(fn func(token string, admin bool)) {
	lv.onSubmit = fn
}

func (lv *LoginView) submit() {
	token := lv.GetFormItemByLabel("Token").(*tview.InputField).GetText()
	admin := lv.GetFormItemByLabel("Admin token").(*tview.Checkbox).IsChecked()
	if lv.onSubmit != nil {
		lv.onSubmit(token, admin)
	}
}

// Reset clears the token so it is not left on screen.
func (lv *LoginView) Reset() {
	lv.GetFormItemByLabel("Token").(*tview.InputField).SetText("")
	lv.SetFocus(0)
}
