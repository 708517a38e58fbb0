package lock

import (
	"errors"
	"os"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	tmpDir := t.TempDir()

	l, err := Acquire(tmpDir, "wuzd")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	data, err := os.ReadFile(tmpDir + "/LOCK")
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	if len(data) == 0 {
		t.Error("lock file is empty")
	}

	if err := l.Release(); err != nil {
		t.Errorf("Release() error = %v", err)
	}
}

func TestDoubleAcquireFails(t *testing.T) {
	tmpDir := t.TempDir()

	l1, err := Acquire(tmpDir, "wuzd")
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	defer func() { _ = l1.Release() }()

	_, err = Acquire(tmpDir, "wuzdash")
	if err == nil {
		t.Fatal("second Acquire() should fail")
	}

	var lockErr *HeldError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected HeldError, got %T: %v", err, err)
	}
	if lockErr.Owner.PID != os.Getpid() || lockErr.Owner.Binary != "wuzd" {
		t.Errorf("owner = %+v, want pid %d binary wuzd", lockErr.Owner, os.Getpid())
	}
	if lockErr.Owner.Since.IsZero() {
		t.Error("owner start time not parsed")
	}
}

func TestProbe(t *testing.T) {
	tmpDir := t.TempDir()

	if _, held, err := Probe(tmpDir); err != nil || held {
		t.Fatalf("Probe() on empty dir = held %v, err %v", held, err)
	}

	l, err := Acquire(tmpDir, "wuzdash")
	if err != nil {
		t.Fatal(err)
	}
	owner, held, err := Probe(tmpDir)
	if err != nil || !held {
		t.Fatalf("Probe() while held = held %v, err %v", held, err)
	}
	if owner.Binary != "wuzdash" {
		t.Errorf("owner binary = %q, want wuzdash", owner.Binary)
	}

	_ = l.Release()
	if _, held, _ := Probe(tmpDir); held {
		t.Error("Probe() after release reports held")
	}
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("nil Release() error = %v", err)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	tmpDir := t.TempDir()

	l, err := Acquire(tmpDir, "wuzd")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if err := l.Release(); err != nil {
		t.Errorf("first Release() error = %v", err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}
