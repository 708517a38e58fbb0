package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/wuzdash/internal/notify"
)

// How long a notice stays on the flash bar.
var flashTTL = map[notify.Level]time.Duration{
	notify.Info:    5 * time.Second,
	notify.Success: 5 * time.Second,
	notify.Error:   10 * time.Second,
}

// FlashModel holds the notice on the flash bar. It is the TUI's
// notify.Notifier, so controller actions report straight into it.
type FlashModel struct {
	mu      sync.RWMutex
	current notify.Notice
	expires time.Time
	changed chan struct{}
	now     func() time.Time
}

// NewFlashModel creates an empty flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{
		changed: make(chan struct{}, 1),
		now:     time.Now,
	}
}

// Notify implements notify.Notifier. A newer notice replaces the shown one.
func (f *FlashModel) Notify(n notify.Notice) {
	f.mu.Lock()
	f.current = n
	f.expires = f.now().Add(flashTTL[n.Level])
	f.mu.Unlock()
	select {
	case f.changed <- struct{}{}:
	default:
	}
}

// Current returns the shown notice, false when there is none or it expired.
func (f *FlashModel) Current() (notify.Notice, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || f.now().After(f.expires) {
		return notify.Notice{}, false
	}
	return f.current, true
}

// Watch signals every new notice. Bursts coalesce into one signal.
func (f *FlashModel) Watch() <-chan struct{} {
	return f.changed
}

// FlashBar is the one-line notice bar at the bottom of the screen.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates an empty flash bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &FlashBar{TextView: tv, theme: theme}
}

// Update shows n, or clears the bar when ok is false.
func (fb *FlashBar) Update(n notify.Notice, ok bool) {
	fb.Clear()
	if !ok {
		return
	}
	color := fb.theme.FlashInfoColor
	switch n.Level {
	case notify.Success:
		color = fb.theme.FlashOKColor
	case notify.Error:
		color = fb.theme.FlashErrColor
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", ColorName(color), tview.Escape(n.Text))
}
