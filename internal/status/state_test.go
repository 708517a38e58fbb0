package status

import (
	"errors"
	"testing"

	"github.com/matheus3301/wuzdash/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Booting {
		t.Errorf("initial state = %s, want BOOTING", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Booting, LoginRequired},
		{Booting, UserSession},
		{Booting, AdminList},
		{Booting, AdminInstance},
		{LoginRequired, UserSession},
		{LoginRequired, AdminList},
		{UserSession, LoginRequired},
		{AdminList, AdminInstance},
		{AdminInstance, AdminList},
		{AdminInstance, LoginRequired},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			// Walk to the "from" state.
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransition(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{UserSession, AdminList},
		{UserSession, AdminInstance},
		{LoginRequired, AdminInstance},
		{AdminList, UserSession},
		{AdminList, AdminList},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			err := m.Transition(tt.to)
			var te *TransitionError
			if !errors.As(err, &te) {
				t.Fatalf("Transition(%s -> %s) error = %v, want *TransitionError", tt.from, tt.to, err)
			}
			if m.Current() != tt.from {
				t.Errorf("state = %s, want %s (should not have changed)", m.Current(), tt.from)
			}
		})
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("dashboard.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(LoginRequired); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != bus.KindStateChanged {
		t.Errorf("event kind = %q, want %s", evt.Kind, bus.KindStateChanged)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Booting || change.To != LoginRequired {
		t.Errorf("change = %v -> %v, want BOOTING -> LOGIN_REQUIRED", change.From, change.To)
	}
}

// TestAdminNavigationCycle simulates an admin opening an instance, going back
// and logging out: LOGIN_REQUIRED -> ADMIN_LIST -> ADMIN_INSTANCE -> ADMIN_LIST -> LOGIN_REQUIRED
func TestAdminNavigationCycle(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, LoginRequired)

	steps := []State{AdminList, AdminInstance, AdminList, LoginRequired}
	for _, s := range steps {
		if err := m.Transition(s); err != nil {
			t.Fatalf("Transition to %s: %v (current: %s)", s, err, m.Current())
		}
	}
}

func TestLoopOwnership(t *testing.T) {
	tests := map[State]string{
		Booting:       LoopNone,
		LoginRequired: LoopNone,
		UserSession:   LoopUser,
		AdminList:     LoopAdmin,
		AdminInstance: LoopAdmin,
	}
	for s, want := range tests {
		if got := s.Loop(); got != want {
			t.Errorf("%s.Loop() = %q, want %q", s, got, want)
		}
	}
}

func TestReset(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, AdminInstance)
	m.Reset()
	if m.Current() != Booting {
		t.Errorf("state = %s, want BOOTING", m.Current())
	}
}

// walkTo is a helper that transitions the machine to a target state.
func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	paths := map[State][]State{
		Booting:       {},
		LoginRequired: {LoginRequired},
		UserSession:   {UserSession},
		AdminList:     {AdminList},
		AdminInstance: {AdminList, AdminInstance},
	}
	for _, s := range paths[target] {
		if err := m.Transition(s); err != nil {
			t.Fatalf("walkTo(%s): %v", target, err)
		}
	}
}
