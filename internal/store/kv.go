package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// item is the on-disk wrapper for every kv value.
type item struct {
	Value  json.RawMessage `json:"value"`
	Expiry int64           `json:"expiry"`
}

// SetItem stores value under key, replacing any previous value. The entry
// expires ttlHours after now; every write refreshes the expiry.
func (db *DB) SetItem(key string, value any, ttlHours int) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	now := db.now()
	expiry := now.UnixMilli() + int64(ttlHours)*3600*1000
	wrapped, err := json.Marshal(item{Value: raw, Expiry: expiry})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = db.Exec(`
		INSERT INTO kv (key, value, expiry, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at`,
		key, string(wrapped), expiry, now.UnixMilli())
	return err
}

// GetItem decodes the value stored under key into dst. It reports false when
// the key is absent or expired; expired keys are deleted on read.
func (db *DB) GetItem(key string, dst any) (bool, error) {
	var raw string
	err := db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var it item
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		// Unreadable entries are treated like expired ones.
		_ = db.RemoveItems(key)
		return false, nil
	}
	if db.now().UnixMilli() > it.Expiry {
		if err := db.RemoveItems(key); err != nil {
			return false, err
		}
		return false, nil
	}
	if dst != nil {
		if err := json.Unmarshal(it.Value, dst); err != nil {
			return false, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	return true, nil
}

// RemoveItems deletes the given keys. Missing keys are ignored.
func (db *DB) RemoveItems(keys ...string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, k := range keys {
		if _, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, k); err != nil {
			return fmt.Errorf("remove %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// PurgeExpired removes every expired kv entry and returns how many were dropped.
func (db *DB) PurgeExpired() (int64, error) {
	res, err := db.Exec(`DELETE FROM kv WHERE expiry < ?`, db.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
