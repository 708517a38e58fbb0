// Package poll keeps the instance snapshot in step with the gateway. A Loop
// fetches, hands the result to a Sink and reschedules itself at the cadence
// interval, whether or not the fetch succeeded.
package poll

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/metrics"
)

// Result is one successful fetch.
type Result struct {
	Instances []gateway.Instance
	// Single is set when the result came from /session/status.
	Single bool
	// UserJID is the viewer identity reported by a user-loop status fetch.
	UserJID string
}

// LoggedIn reports the login flag of a single-session result.
func (r Result) LoggedIn() (loggedIn, ok bool) {
	if !r.Single || len(r.Instances) != 1 {
		return false, false
	}
	return r.Instances[0].LoggedIn, true
}

// Settled reports a list result in which every instance is logged in, so
// nothing is waiting for a pairing.
func (r Result) Settled() bool {
	if r.Single {
		return false
	}
	for _, inst := range r.Instances {
		if !inst.LoggedIn {
			return false
		}
	}
	return true
}

// Fetcher performs one poll request.
type Fetcher interface {
	Fetch(ctx context.Context) (Result, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context) (Result, error)

// Fetch implements Fetcher.
func (f FetchFunc) Fetch(ctx context.Context) (Result, error) { return f(ctx) }

// Sink receives results. Apply is called with the loop's lock held, so it
// must not call back into the Loop.
type Sink interface {
	Apply(res Result)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(res Result)

// Apply implements Sink.
func (f SinkFunc) Apply(res Result) { f(res) }

// Loop is a self-rescheduling poller. At most one tick is pending at a time
// and results from a superseded generation are dropped.
type Loop struct {
	name    string
	fetch   Fetcher
	sink    Sink
	cadence *Cadence
	sched   Scheduler
	logger  *zap.Logger

	mu      sync.Mutex
	gen     uint64
	timer   Timer
	cancel  context.CancelFunc
	running bool
	lastErr error
	lastOK  time.Time
}

// NewLoop creates a stopped loop.
func NewLoop(name string, fetch Fetcher, sink Sink, cadence *Cadence, sched Scheduler, logger *zap.Logger) *Loop {
	if sched == nil {
		sched = RealScheduler{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		name:    name,
		fetch:   fetch,
		sink:    sink,
		cadence: cadence,
		sched:   sched,
		logger:  logger.With(zap.String("loop", name)),
	}
}

// Name returns the loop name.
func (l *Loop) Name() string { return l.name }

// Start (re)starts the loop with an immediate tick. Any pending tick is
// cancelled and in-flight fetches become stale.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
	l.gen++
	gen := l.gen
	ctx, l.cancel = context.WithCancel(ctx)
	l.running = true
	l.timer = l.sched.AfterFunc(0, func() { l.tick(ctx, gen) })
	l.logger.Debug("poll loop started", zap.Uint64("generation", gen))
}

// Stop cancels the pending tick and invalidates in-flight fetches.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.stopLocked()
	l.gen++
	l.running = false
	l.logger.Debug("poll loop stopped")
}

func (l *Loop) stopLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Running reports whether the loop is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Health returns the time of the last applied result and the last error.
func (l *Loop) Health() (lastOK time.Time, lastErr error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastOK, l.lastErr
}

func (l *Loop) current(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return gen == l.gen
}

func (l *Loop) tick(ctx context.Context, gen uint64) {
	if !l.current(gen) {
		return
	}
	start := time.Now()
	res, err := l.fetch.Fetch(ctx)
	metrics.PollFetchSeconds.WithLabelValues(l.name).Observe(time.Since(start).Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		metrics.PollTicksTotal.WithLabelValues(l.name, "stale").Inc()
		l.logger.Debug("discarding stale poll result", zap.Uint64("generation", gen))
		return
	}

	if err != nil {
		l.lastErr = err
		l.logger.Debug("poll failed", zap.Error(err))
	} else {
		l.lastErr = nil
		l.lastOK = time.Now()
		if l.cadence != nil {
			if loggedIn, ok := res.LoggedIn(); ok {
				l.cadence.Observe(loggedIn)
			} else if res.Settled() {
				l.cadence.Reset()
			}
		}
		l.sink.Apply(res)
	}
	metrics.PollTicksTotal.WithLabelValues(l.name, metrics.Outcome(err)).Inc()

	interval := DefaultSteady
	if l.cadence != nil {
		interval = l.cadence.Interval()
	}
	metrics.PollInterval.WithLabelValues(l.name).Set(interval.Seconds())
	l.timer = l.sched.AfterFunc(interval, func() { l.tick(ctx, gen) })
}
