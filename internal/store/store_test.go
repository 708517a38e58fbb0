package store

import (
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateAppliesOnFreshDB(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate, so run it again to check idempotency.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 3 {
		t.Errorf("version = %d, want 3 (init + outbox + outbox token)", result.Version)
	}
}

// TestMigrateSchemaHasRequiredColumns verifies the migrations create every
// column the vault, the snapshot cache and the outbox sender depend on.
func TestMigrateSchemaHasRequiredColumns(t *testing.T) {
	db := testDB(t)

	requiredOps := []struct {
		desc  string
		query string
		args  []any
	}{
		{"set kv", "INSERT INTO kv (key, value, expiry, updated_at) VALUES (?, ?, ?, ?)", []any{"token", `{"value":"t","expiry":1}`, 1, 1}},
		{"cache instance", "INSERT INTO instances (id, name, connected, logged_in, jid, snapshot, position, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", []any{"1", "main", true, false, "", "{}", 0, 1}},
		{"queue outbox", "INSERT INTO outbox (client_msg_id, token, phone, body, status) VALUES (?, ?, ?, ?, ?)", []any{"cid", "tok", "5511", "text", "queued"}},
		{"set sync state", "INSERT INTO sync_state (key, value) VALUES (?, ?)", []any{"k", "v"}},
	}

	for _, op := range requiredOps {
		t.Run(op.desc, func(t *testing.T) {
			if _, err := db.Exec(op.query, op.args...); err != nil {
				t.Fatalf("%s failed: %v", op.desc, err)
			}
		})
	}
}

func TestResetClearsData(t *testing.T) {
	db := testDB(t)
	if err := db.SetItem("token", "abc", 6); err != nil {
		t.Fatal(err)
	}
	result, err := db.Reset()
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if result.Version != 3 || !result.Changed {
		t.Errorf("Reset() result = %+v, want version 3 changed", result)
	}
	ok, err := db.GetItem("token", nil)
	if err != nil || ok {
		t.Errorf("token survived reset: ok=%v err=%v", ok, err)
	}
}

func TestItemRoundTrip(t *testing.T) {
	db := testDB(t)

	if err := db.SetItem("token", "secret", 6); err != nil {
		t.Fatal(err)
	}
	if err := db.SetItem("isAdmin", true, 6); err != nil {
		t.Fatal(err)
	}

	var token string
	ok, err := db.GetItem("token", &token)
	if err != nil || !ok || token != "secret" {
		t.Fatalf("GetItem(token) = %q, %v, %v", token, ok, err)
	}
	var admin bool
	ok, err = db.GetItem("isAdmin", &admin)
	if err != nil || !ok || !admin {
		t.Fatalf("GetItem(isAdmin) = %v, %v, %v", admin, ok, err)
	}

	// Overwrite replaces the whole value.
	if err := db.SetItem("token", "rotated", 6); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetItem("token", &token); err != nil || token != "rotated" {
		t.Errorf("after overwrite token = %q, err %v", token, err)
	}
}

func TestItemWrapperFormat(t *testing.T) {
	db := testDB(t)
	fixed := time.UnixMilli(1_700_000_000_000)
	db.SetClock(func() time.Time { return fixed })

	if err := db.SetItem("currentInstance", "42", 6); err != nil {
		t.Fatal(err)
	}
	var raw string
	if err := db.QueryRow(`SELECT value FROM kv WHERE key = 'currentInstance'`).Scan(&raw); err != nil {
		t.Fatal(err)
	}
	want := `{"value":"42","expiry":1700021600000}`
	if raw != want {
		t.Errorf("stored wrapper = %s, want %s", raw, want)
	}
}

func TestItemExpiry(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	db.SetClock(func() time.Time { return now })

	if err := db.SetItem("admintoken", "adm", 6); err != nil {
		t.Fatal(err)
	}

	now = now.Add(5*time.Hour + 59*time.Minute)
	if ok, _ := db.GetItem("admintoken", nil); !ok {
		t.Fatal("item expired early")
	}

	now = now.Add(2 * time.Minute)
	ok, err := db.GetItem("admintoken", nil)
	if err != nil || ok {
		t.Fatalf("GetItem after expiry = %v, %v; want false, nil", ok, err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expired item not removed on read, %d rows left", count)
	}
}

func TestPurgeExpired(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	db.SetClock(func() time.Time { return now })

	_ = db.SetItem("a", "1", 1)
	_ = db.SetItem("b", "2", 10)
	now = now.Add(2 * time.Hour)

	n, err := db.PurgeExpired()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
}

func TestRemoveItems(t *testing.T) {
	db := testDB(t)
	for _, k := range []string{"token", "admintoken", "isAdmin"} {
		if err := db.SetItem(k, "x", 6); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.RemoveItems("token", "admintoken", "missing"); err != nil {
		t.Fatal(err)
	}
	for k, want := range map[string]bool{"token": false, "admintoken": false, "isAdmin": true} {
		ok, err := db.GetItem(k, nil)
		if err != nil || ok != want {
			t.Errorf("GetItem(%s) = %v, %v; want %v", k, ok, err, want)
		}
	}
}

func TestInstancesReplaceAndList(t *testing.T) {
	db := testDB(t)

	first := []CachedInstance{
		{ID: "2", Name: "beta", Connected: true, LoggedIn: true, JID: "5511@s.whatsapp.net", Snapshot: `{"id":"2"}`},
		{ID: "1", Name: "alpha", Snapshot: `{"id":"1"}`},
	}
	if err := db.ReplaceInstances(first); err != nil {
		t.Fatal(err)
	}
	got, err := db.ListInstances()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("ListInstances() = %+v, want order [2 1]", got)
	}
	if !got[0].LoggedIn || got[0].JID != "5511@s.whatsapp.net" {
		t.Errorf("first instance = %+v", got[0])
	}

	if err := db.ReplaceInstances([]CachedInstance{{ID: "3", Name: "gamma", Snapshot: "{}"}}); err != nil {
		t.Fatal(err)
	}
	got, _ = db.ListInstances()
	if len(got) != 1 || got[0].ID != "3" {
		t.Errorf("after replace = %+v, want only 3", got)
	}
}

func TestOutbox(t *testing.T) {
	db := testDB(t)

	if err := db.QueueOutbox("client1", "tok-a", "5511999999999", "test msg"); err != nil {
		t.Fatal(err)
	}

	pending, err := db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending, want 1", len(pending))
	}
	if pending[0].Token != "tok-a" || pending[0].Phone != "5511999999999" || pending[0].Body != "test msg" {
		t.Errorf("pending[0] = %+v", pending[0])
	}

	if err := db.MarkOutboxSending("client1"); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkOutboxSent("client1", "server1"); err != nil {
		t.Fatal(err)
	}

	pending, err = db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending after send, want 0", len(pending))
	}

	recent, err := db.RecentOutbox(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].Status != "sent" || recent[0].ServerMsgID != "server1" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestOutboxRequeueFailed(t *testing.T) {
	db := testDB(t)
	_ = db.QueueOutbox("c1", "t", "1", "a")
	_ = db.QueueOutbox("c2", "t", "2", "b")
	_ = db.MarkOutboxFailed("c1", "boom")

	pending, _ := db.PendingOutbox()
	if len(pending) != 1 || pending[0].ClientMsgID != "c2" {
		t.Fatalf("pending = %+v, want only c2", pending)
	}

	n, err := db.RequeueFailed()
	if err != nil || n != 1 {
		t.Fatalf("RequeueFailed() = %d, %v", n, err)
	}
	pending, _ = db.PendingOutbox()
	if len(pending) != 2 {
		t.Errorf("got %d pending after requeue, want 2", len(pending))
	}
}

func TestOutboxRequeueOne(t *testing.T) {
	db := testDB(t)
	_ = db.QueueOutbox("c1", "t", "1", "a")
	_ = db.MarkOutboxSending("c1")

	if pending, _ := db.PendingOutbox(); len(pending) != 0 {
		t.Fatalf("sending entry should not be pending: %+v", pending)
	}
	if err := db.RequeueOutbox("c1"); err != nil {
		t.Fatal(err)
	}
	if pending, _ := db.PendingOutbox(); len(pending) != 1 {
		t.Errorf("got %d pending after requeue, want 1", len(pending))
	}
}

func TestFailQueuedOutbox(t *testing.T) {
	db := testDB(t)
	_ = db.QueueOutbox("c1", "t", "1", "a")
	_ = db.QueueOutbox("c2", "t", "2", "b")
	_ = db.QueueOutbox("c3", "t", "3", "c")
	_ = db.MarkOutboxSent("c3", "s3")

	n, err := db.FailQueuedOutbox("logged out")
	if err != nil || n != 2 {
		t.Fatalf("FailQueuedOutbox() = %d, %v, want 2", n, err)
	}
	if pending, _ := db.PendingOutbox(); len(pending) != 0 {
		t.Errorf("got %d pending, want 0", len(pending))
	}
	recent, _ := db.RecentOutbox(10)
	for _, e := range recent {
		want := "failed"
		if e.ClientMsgID == "c3" {
			want = "sent"
		}
		if e.Status != want {
			t.Errorf("%s status = %q, want %q", e.ClientMsgID, e.Status, want)
		}
	}
}
