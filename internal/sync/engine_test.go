package sync

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/wuzdash/internal/bus"
	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/poll"
	"github.com/matheus3301/wuzdash/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type jidRecorder struct{ jids []string }

func (r *jidRecorder) SetUserJID(jid string) error {
	r.jids = append(r.jids, jid)
	return nil
}

func TestApplyReplacesSnapshotAndPublishes(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, nil, nil)

	ch, unsub := b.Subscribe("instances.", 10)
	defer unsub()

	e.Apply(poll.Result{Instances: []gateway.Instance{{ID: "A", Name: "one"}, {ID: "B", Name: "two"}}})

	got := e.Snapshot()
	if len(got) != 2 || got[0].ID != "A" || got[1].ID != "B" {
		t.Fatalf("snapshot = %+v", got)
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindInstancesUpdated {
			t.Errorf("event kind = %q, want %s", evt.Kind, bus.KindInstancesUpdated)
		}
		upd := evt.Payload.(Update)
		if !upd.Changed || len(upd.Instances) != 2 {
			t.Errorf("update = %+v", upd)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for instances.updated")
	}

	cached, err := db.ListInstances()
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 2 || cached[1].Name != "two" {
		t.Errorf("cached = %+v", cached)
	}
}

func TestApplyIdenticalResultIsUnchanged(t *testing.T) {
	b := bus.New()
	e := NewEngine(nil, b, nil, nil)
	ch, unsub := b.Subscribe("instances.", 10)
	defer unsub()

	res := poll.Result{Instances: []gateway.Instance{{ID: "A", Connected: true}}}
	e.Apply(res)
	<-ch
	e.Apply(res)
	evt := <-ch
	if evt.Payload.(Update).Changed {
		t.Error("identical poll result should not be reported as a change")
	}
}

// TestConnectedFlipKeepsOtherFields covers a poll that flips the connected
// badge while the QR comes back null.
func TestConnectedFlipKeepsOtherFields(t *testing.T) {
	e := NewEngine(nil, bus.New(), nil, nil)
	e.Apply(poll.Result{Instances: []gateway.Instance{{ID: "A", Name: "one", QRCode: "data:image/png;base64,QR"}}})
	e.Apply(poll.Result{Instances: []gateway.Instance{{ID: "A", Name: "one", Connected: true}}})

	got, ok := e.Instance("A")
	if !ok {
		t.Fatal("instance A missing")
	}
	if !got.Connected {
		t.Error("connected flag should flip")
	}
	if got.LoggedIn || got.Name != "one" {
		t.Errorf("other fields changed: %+v", got)
	}
	if got.QRCode != "data:image/png;base64,QR" {
		t.Errorf("QR = %q, want the previous QR kept", got.QRCode)
	}
}

func TestQRDroppedOnceLoggedIn(t *testing.T) {
	e := NewEngine(nil, bus.New(), nil, nil)
	e.Apply(poll.Result{Instances: []gateway.Instance{{ID: "A", QRCode: "qr"}}})
	e.Apply(poll.Result{Instances: []gateway.Instance{{ID: "A", Connected: true, LoggedIn: true}}})

	got, _ := e.Instance("A")
	if got.QRCode != "" {
		t.Errorf("QR = %q, want cleared after login", got.QRCode)
	}
}

func TestApplyCachesUserJID(t *testing.T) {
	ids := &jidRecorder{}
	e := NewEngine(nil, bus.New(), ids, nil)
	e.Apply(poll.Result{Instances: []gateway.Instance{{ID: "A"}}, Single: true, UserJID: "111:2@s.whatsapp.net"})
	e.Apply(poll.Result{Instances: []gateway.Instance{{ID: "A"}}, Single: true})

	if len(ids.jids) != 1 || ids.jids[0] != "111:2@s.whatsapp.net" {
		t.Errorf("jids = %v", ids.jids)
	}
}

func TestRestoreAndClear(t *testing.T) {
	db := testDB(t)
	first := NewEngine(db, bus.New(), nil, nil)
	first.Apply(poll.Result{Instances: []gateway.Instance{{ID: "7", Name: "seven", Events: "Message,QR"}}})

	second := NewEngine(db, bus.New(), nil, nil)
	n, err := second.Restore()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("restored %d instances, want 1", n)
	}
	got, _ := second.Instance("7")
	if got.Name != "seven" || got.Events != "Message,QR" {
		t.Errorf("restored = %+v", got)
	}

	if err := second.Clear(); err != nil {
		t.Fatal(err)
	}
	if len(second.Snapshot()) != 0 {
		t.Error("snapshot should be empty after Clear")
	}
	cached, _ := db.ListInstances()
	if len(cached) != 0 {
		t.Errorf("cache has %d rows after Clear", len(cached))
	}
}

func TestCheckpoints(t *testing.T) {
	db := testDB(t)
	c := NewCheckpoints(db)
	c.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	if _, ok, err := c.LastApplied(); err != nil || ok {
		t.Fatalf("LastApplied on empty db = ok %v err %v", ok, err)
	}
	if err := c.MarkApplied(3); err != nil {
		t.Fatal(err)
	}
	at, ok, err := c.LastApplied()
	if err != nil || !ok {
		t.Fatalf("LastApplied = ok %v err %v", ok, err)
	}
	if at.UnixMilli() != 1_700_000_000_000 {
		t.Errorf("LastApplied = %v", at)
	}
	count, _, _ := c.Get(KeyLastCount)
	if count != "3" {
		t.Errorf("count = %q, want 3", count)
	}
}
