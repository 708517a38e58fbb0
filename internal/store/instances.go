package store

import "fmt"

// ReplaceInstances swaps the cached instance set for snapshot in one
// transaction. Order is preserved.
func (db *DB) ReplaceInstances(snapshot []CachedInstance) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM instances`); err != nil {
		return fmt.Errorf("clear instances: %w", err)
	}
	now := db.now().UnixMilli()
	for i, inst := range snapshot {
		if _, err := tx.Exec(`
			INSERT INTO instances (id, name, connected, logged_in, jid, snapshot, position, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			inst.ID, inst.Name, inst.Connected, inst.LoggedIn, inst.JID, inst.Snapshot, i, now); err != nil {
			return fmt.Errorf("insert instance %s: %w", inst.ID, err)
		}
	}
	return tx.Commit()
}

// ListInstances returns the cached instance set in the order it was stored.
func (db *DB) ListInstances() ([]CachedInstance, error) {
	rows, err := db.Query(`
		SELECT id, name, connected, logged_in, jid, snapshot, updated_at
		FROM instances ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []CachedInstance
	for rows.Next() {
		var c CachedInstance
		if err := rows.Scan(&c.ID, &c.Name, &c.Connected, &c.LoggedIn, &c.JID, &c.Snapshot, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
