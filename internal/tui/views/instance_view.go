package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/media"
	"github.com/matheus3301/wuzdash/internal/tui/ui"
)

// InstanceView is the status card of one session: connection flags, the
// pairing QR while not logged in, and its configuration.
type InstanceView struct {
	*tview.TextView
	theme   *ui.Theme
	current gateway.Instance
	code    string
}

// NewInstanceView creates a new instance card.
func NewInstanceView(theme *ui.Theme) *InstanceView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Instance ")
	tv.SetTitleColor(theme.TitleColor)

	return &InstanceView{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements ui.Component.
func (iv *InstanceView) Name() string { return "Instance" }

// Current returns the instance on display.
func (iv *InstanceView) Current() gateway.Instance { return iv.current }

// ShowPairingCode displays a linking code until the session logs in.
func (iv *InstanceView) ShowPairingCode(code string) {
	iv.code = code
	iv.Update(iv.current)
}

// Update renders inst.
func (iv *InstanceView) Update(inst gateway.Instance) {
	if inst.ID != iv.current.ID || inst.LoggedIn {
		iv.code = ""
	}
	iv.current = inst
	iv.Clear()

	fg := ui.ColorName(iv.theme.FgColor)
	ct := ui.ColorName(iv.theme.CounterColor)
	on := ui.ColorName(iv.theme.OnlineColor)
	off := ui.ColorName(iv.theme.OfflineColor)
	flag := func(b bool) string {
		if b {
			return "[" + on + "]yes[-]"
		}
		return "[" + off + "]no[-]"
	}
	row := func(label, value string) string {
		return fmt.Sprintf(" [%s::b]%-12s[-:-:-] [%s]%s[-]\n", fg, label+":", ct, value)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(row("Name", display(inst.Name)))
	b.WriteString(row("ID", display(inst.ID)))
	b.WriteString(fmt.Sprintf(" [%s::b]%-12s[-:-:-] %s\n", fg, "Connected:", flag(inst.Connected)))
	b.WriteString(fmt.Sprintf(" [%s::b]%-12s[-:-:-] %s\n", fg, "Logged in:", flag(inst.LoggedIn)))
	b.WriteString(row("JID", display(orDash(inst.JID))))
	b.WriteString(row("Webhook", display(orDash(inst.Webhook))))
	b.WriteString(row("Events", display(orDash(inst.Events))))
	proxy := "disabled"
	if inst.Proxy.Enabled {
		proxy = inst.Proxy.ProxyURL
	}
	b.WriteString(row("Proxy", display(proxy)))
	s3 := "not configured"
	if inst.S3.Configured() {
		s3 = fmt.Sprintf("%s/%s (%s, %d days)", inst.S3.Endpoint, inst.S3.Bucket, inst.S3.MediaDelivery, inst.S3.RetentionDays)
	}
	b.WriteString(row("S3", display(s3)))

	switch {
	case inst.LoggedIn:
	case iv.code != "":
		b.WriteString(fmt.Sprintf("\n [%s::b]Pairing code:[-:-:-] [%s::b]%s[-:-:-]\n", fg, ct, tview.Escape(iv.code)))
		b.WriteString(" Enter it on the phone under Linked devices.\n")
	case inst.QRCode != "":
		text, err := media.QRDataURLText(inst.QRCode)
		if err != nil {
			b.WriteString("\n QR unavailable: " + tview.Escape(err.Error()) + "\n")
			break
		}
		b.WriteString("\n Scan with WhatsApp > Linked devices:\n\n")
		b.WriteString(text)
	case inst.Connected:
		b.WriteString("\n Waiting for a QR code...\n")
	default:
		b.WriteString("\n Not connected. Press c to connect.\n")
	}

	_, _ = fmt.Fprint(iv, b.String())
	iv.SetTitle(fmt.Sprintf(" %s ", display(orDash(inst.Name))))
}
