// Package notify carries transient user feedback. Whether a failure reaches
// the user is decided per call site by a Policy.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/matheus3301/wuzdash/internal/bus"
	"github.com/matheus3301/wuzdash/internal/gateway"
)

// Level is the notice style.
type Level int

const (
	Info Level = iota
	Success
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notice is one transient message.
type Notice struct {
	Level Level
	Text  string
	At    time.Time
}

// Notifier shows notices.
type Notifier interface {
	Notify(n Notice)
}

// Policy says whether failures at a call site are shown to the user.
type Policy struct {
	ReportErrors bool
}

var (
	// Silent is used by background polling.
	Silent = Policy{ReportErrors: false}
	// Report is used by user-initiated actions.
	Report = Policy{ReportErrors: true}
)

// Failure reports err for action when the policy allows. It reports whether
// a notice was sent.
func (p Policy) Failure(n Notifier, action string, err error) bool {
	if err == nil || !p.ReportErrors || n == nil {
		return false
	}
	text := gateway.Message(err)
	if action != "" && !gateway.IsValidation(err) {
		text = action + ": " + text
	}
	n.Notify(Notice{Level: Error, Text: text, At: time.Now()})
	return true
}

// Success shows text when the policy reports. Silent call sites stay quiet
// either way.
func (p Policy) Success(n Notifier, text string) {
	if !p.ReportErrors || n == nil || text == "" {
		return
	}
	n.Notify(Notice{Level: Success, Text: text, At: time.Now()})
}

// WriterNotifier prints notices as lines, for the CLI and the daemon.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a WriterNotifier.
func NewWriter(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Notify implements Notifier.
func (w *WriterNotifier) Notify(n Notice) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintf(w.w, "[%s] %s\n", n.Level, n.Text)
}

// BusNotifier publishes notices for the views to render.
type BusNotifier struct {
	bus *bus.Bus
}

// NewBus creates a BusNotifier.
func NewBus(b *bus.Bus) *BusNotifier {
	return &BusNotifier{bus: b}
}

// Notify implements Notifier.
func (b *BusNotifier) Notify(n Notice) {
	kind := bus.KindNotifySuccess
	if n.Level == Error {
		kind = bus.KindNotifyError
	}
	b.bus.Emit(kind, n)
}

// Recorder keeps notices in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of what was recorded.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Multi fans out to several notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(n Notice) {
	for _, x := range m {
		x.Notify(n)
	}
}
