package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// HeldError is returned when another process holds the profile lock.
type HeldError struct {
	Owner Owner
	Path  string
}

func (e *HeldError) Error() string {
	if e.Owner.Binary != "" {
		return fmt.Sprintf("profile lock held by %s (PID %d, %s)", e.Owner.Binary, e.Owner.PID, e.Path)
	}
	return fmt.Sprintf("profile lock held by PID %d (%s)", e.Owner.PID, e.Path)
}

// Owner describes the process recorded in a lock file.
type Owner struct {
	PID    int
	Binary string
	Since  time.Time
}

// Lock represents an acquired profile lock file. Only one poller (the
// dashboard or the headless watcher) may run per profile.
type Lock struct {
	file *os.File
	path string
}

// Acquire attempts to acquire an exclusive lock on the profile directory on
// behalf of binary. Returns HeldError if another process already holds it.
func Acquire(profileDir, binary string) (*Lock, error) {
	lockPath := filepath.Join(profileDir, "LOCK")

	if err := os.MkdirAll(profileDir, 0700); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		data, _ := os.ReadFile(lockPath)
		_ = f.Close()
		return nil, &HeldError{Owner: parseOwner(string(data)), Path: lockPath}
	}

	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		_ = f.Close()
		return nil, err
	}
	content := fmt.Sprintf("pid=%d\nbinary=%s\ntime=%s\n", os.Getpid(), binary, time.Now().UTC().Format(time.RFC3339))
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Lock{file: f, path: lockPath}, nil
}

// Probe reports the current holder of the profile lock without taking it.
// ok is false when nobody holds the lock.
func Probe(profileDir string) (owner Owner, ok bool, err error) {
	lockPath := filepath.Join(profileDir, "LOCK")
	f, err := os.OpenFile(lockPath, os.O_RDWR, 0600)
	if os.IsNotExist(err) {
		return Owner{}, false, nil
	}
	if err != nil {
		return Owner{}, false, fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_SH|syscall.LOCK_NB); err == nil {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		return Owner{}, false, nil
	}
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return Owner{}, true, err
	}
	return parseOwner(string(data)), true, nil
}

// Release releases the lock. Safe to call on nil receiver.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	// Remove lock file before closing to avoid stale files.
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

func parseOwner(content string) Owner {
	var o Owner
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			o.PID, _ = strconv.Atoi(value)
		case "binary":
			o.Binary = value
		case "time":
			o.Since, _ = time.Parse(time.RFC3339, value)
		}
	}
	return o
}
