package poll

import (
	"sync"
	"time"
)

// Mode is the polling cadence.
type Mode int

const (
	// Steady is used once the session is logged in.
	Steady Mode = iota
	// Fast is used while waiting for a QR scan or pairing.
	Fast
)

func (m Mode) String() string {
	if m == Fast {
		return "fast"
	}
	return "steady"
}

// Default intervals.
const (
	DefaultFast   = time.Second
	DefaultSteady = 5 * time.Second
)

// Cadence is a two-state rate controller. It starts Steady.
type Cadence struct {
	mu     sync.Mutex
	mode   Mode
	fast   time.Duration
	steady time.Duration
}

// NewCadence creates a cadence. Non-positive intervals take the defaults.
func NewCadence(fast, steady time.Duration) *Cadence {
	if fast <= 0 {
		fast = DefaultFast
	}
	if steady <= 0 {
		steady = DefaultSteady
	}
	return &Cadence{fast: fast, steady: steady}
}

// Accelerate switches to Fast. Called when a connection attempt starts.
func (c *Cadence) Accelerate() { c.set(Fast) }

// Observe applies the loggedIn flag of a freshly fetched status.
func (c *Cadence) Observe(loggedIn bool) {
	if loggedIn {
		c.set(Steady)
		return
	}
	c.set(Fast)
}

// Reset returns to Steady.
func (c *Cadence) Reset() { c.set(Steady) }

func (c *Cadence) set(m Mode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

// Mode returns the current mode.
func (c *Cadence) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Interval returns the delay before the next tick.
func (c *Cadence) Interval() time.Duration {
	if c.Mode() == Fast {
		return c.fast
	}
	return c.steady
}
