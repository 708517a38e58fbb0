package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// SessionData holds dashboard metadata for the header.
type SessionData struct {
	Profile   string
	Gateway   string
	Mode      string
	Viewer    string
	Instances int
	Cadence   string
	LastPoll  time.Time
}

// SessionInfo displays session metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the session info.
func (si *SessionInfo) Update(data *SessionData) {
	si.Clear()
	if data == nil {
		return
	}

	fg := ColorName(si.theme.FgColor)
	ct := ColorName(si.theme.CounterColor)

	viewer := data.Viewer
	if viewer == "" {
		viewer = "-"
	}
	last := "-"
	if !data.LastPoll.IsZero() {
		last = data.LastPoll.Format("15:04:05")
	}

	_, _ = fmt.Fprintf(si,
		"[%s::b]Profile:[-:-:-]   [%s]%s[-]\n"+
			"[%s::b]Gateway:[-:-:-]   [%s]%s[-]\n"+
			"[%s::b]Mode:[-:-:-]      [%s]%s[-]\n"+
			"[%s::b]Viewer:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Instances:[-:-:-] [%s]%d[-]\n"+
			"[%s::b]Polling:[-:-:-]   [%s]%s (last %s)[-]",
		fg, ct, tview.Escape(data.Profile),
		fg, ct, tview.Escape(data.Gateway),
		fg, ct, data.Mode,
		fg, ct, tview.Escape(viewer),
		fg, ct, data.Instances,
		fg, ct, data.Cadence, last,
	)
}
