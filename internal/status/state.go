// Package status tracks which screen family the dashboard is in. The state
// decides which poll loop runs.
package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/wuzdash/internal/bus"
)

// State represents a dashboard state.
type State string

const (
	Booting       State = "BOOTING"
	LoginRequired State = "LOGIN_REQUIRED"
	UserSession   State = "USER_SESSION"
	AdminList     State = "ADMIN_LIST"
	AdminInstance State = "ADMIN_INSTANCE"
)

// Poll loops owned by each state.
const (
	LoopNone  = ""
	LoopUser  = "user"
	LoopAdmin = "admin"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Booting:       {LoginRequired, UserSession, AdminList, AdminInstance},
	LoginRequired: {UserSession, AdminList},
	UserSession:   {LoginRequired},
	AdminList:     {AdminInstance, LoginRequired},
	AdminInstance: {AdminList, LoginRequired},
}

// Loop returns the poll loop that runs in s.
func (s State) Loop() string {
	switch s {
	case UserSession:
		return LoopUser
	case AdminList, AdminInstance:
		return LoopAdmin
	default:
		return LoopNone
	}
}

// TransitionError rejects a transition missing from the table.
type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// Machine tracks and enforces dashboard state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return &TransitionError{From: m.current, To: to}
	}
	from := m.current
	m.current = to
	m.bus.Emit(bus.KindStateChanged, StatusChange{From: from, To: to})
	return nil
}

// Reset forces Booting, for a fresh bootstrap after a profile switch.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Booting
}

// StatusChange is the payload for state change events.
type StatusChange struct {
	From State
	To   State
}
