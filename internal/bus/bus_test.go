package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("dashboard.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindStateChanged, Timestamp: time.Now(), Payload: "test"})

	select {
	case evt := <-ch:
		if evt.Kind != KindStateChanged {
			t.Errorf("got kind %q, want %s", evt.Kind, KindStateChanged)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("instances.", 10)
	defer unsub()

	b.Emit(KindStateChanged, nil)
	b.Emit(KindInstancesUpdated, nil)

	select {
	case evt := <-ch:
		if evt.Kind != KindInstancesUpdated {
			t.Errorf("got kind %q, want %s", evt.Kind, KindInstancesUpdated)
		}
		if evt.Timestamp.IsZero() {
			t.Error("Emit should stamp the event")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Ensure the dashboard event was not delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("notify.", 10)
	unsub()
	unsub() // second call is a no-op

	b.Emit(KindNotifyError, "boom")

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("message.", 1)
	defer unsub()

	b.Emit(KindSendAck, "one")
	// This should be dropped (non-blocking).
	b.Emit(KindSendFailed, "two")

	evt := <-ch
	if evt.Kind != KindSendAck {
		t.Errorf("got %q, want %s", evt.Kind, KindSendAck)
	}
	if got := b.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
}

func TestEmitOnNilBus(t *testing.T) {
	var b *Bus
	b.Emit(KindInstancesCleared, nil)
}
