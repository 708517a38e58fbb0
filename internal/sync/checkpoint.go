package sync

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/matheus3301/wuzdash/internal/store"
)

// Checkpoint keys in sync_state.
const (
	KeyLastApplied = "snapshot.applied_at"
	KeyLastCount   = "snapshot.count"
)

// Checkpoints records when the snapshot was last refreshed, so wuzctl and
// /healthz can tell a stale cache from a live one.
type Checkpoints struct {
	db  *store.DB
	now func() time.Time
}

// NewCheckpoints creates a checkpoint writer over db.
func NewCheckpoints(db *store.DB) *Checkpoints {
	return &Checkpoints{db: db, now: time.Now}
}

// Set upserts a checkpoint value.
func (c *Checkpoints) Set(key, value string) error {
	_, err := c.db.Exec(`
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, c.now().UnixMilli())
	return err
}

// Get returns a checkpoint value. ok is false when it was never written.
func (c *Checkpoints) Get(key string) (value string, ok bool, err error) {
	err = c.db.QueryRow(`SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// MarkApplied stamps the snapshot refresh time and size.
func (c *Checkpoints) MarkApplied(count int) error {
	if err := c.Set(KeyLastApplied, strconv.FormatInt(c.now().UnixMilli(), 10)); err != nil {
		return err
	}
	return c.Set(KeyLastCount, strconv.Itoa(count))
}

// LastApplied returns when the snapshot was last refreshed.
func (c *Checkpoints) LastApplied() (time.Time, bool, error) {
	v, ok, err := c.Get(KeyLastApplied)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms), true, nil
}
