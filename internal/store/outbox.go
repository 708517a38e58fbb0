package store

// QueueOutbox adds a text message to the send outbox. token is the instance
// token the message must be sent with.
func (db *DB) QueueOutbox(clientMsgID, token, phone, body string) error {
	now := db.now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO outbox (client_msg_id, token, phone, body, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'queued', ?, ?)`,
		clientMsgID, token, phone, body, now, now)
	return err
}

// FailQueuedOutbox marks every queued entry failed with errMsg and returns
// how many it touched.
func (db *DB) FailQueuedOutbox(errMsg string) (int64, error) {
	res, err := db.Exec(`UPDATE outbox SET status = 'failed', error_message = ?, updated_at = ? WHERE status IN ('queued', 'sending')`, errMsg, db.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkOutboxSending updates an outbox entry to 'sending' status.
func (db *DB) MarkOutboxSending(clientMsgID string) error {
	_, err := db.Exec(`UPDATE outbox SET status = 'sending', updated_at = ? WHERE client_msg_id = ?`, db.now().UnixMilli(), clientMsgID)
	return err
}

// MarkOutboxSent updates an outbox entry to 'sent' with the gateway message ID.
func (db *DB) MarkOutboxSent(clientMsgID, serverMsgID string) error {
	_, err := db.Exec(`UPDATE outbox SET status = 'sent', server_msg_id = ?, updated_at = ? WHERE client_msg_id = ?`, serverMsgID, db.now().UnixMilli(), clientMsgID)
	return err
}

// MarkOutboxFailed updates an outbox entry to 'failed' with an error message.
func (db *DB) MarkOutboxFailed(clientMsgID, errMsg string) error {
	_, err := db.Exec(`UPDATE outbox SET status = 'failed', error_message = ?, updated_at = ? WHERE client_msg_id = ?`, errMsg, db.now().UnixMilli(), clientMsgID)
	return err
}

// RequeueOutbox puts one entry back to 'queued', typically after a transport
// failure that is worth retrying.
func (db *DB) RequeueOutbox(clientMsgID string) error {
	_, err := db.Exec(`UPDATE outbox SET status = 'queued', updated_at = ? WHERE client_msg_id = ?`, db.now().UnixMilli(), clientMsgID)
	return err
}

// RequeueFailed moves failed entries back to 'queued' and returns how many moved.
func (db *DB) RequeueFailed() (int64, error) {
	res, err := db.Exec(`UPDATE outbox SET status = 'queued', error_message = '', updated_at = ? WHERE status = 'failed'`, db.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PendingOutbox returns outbox entries that are still queued.
func (db *DB) PendingOutbox() ([]OutboxEntry, error) {
	return db.outboxWhere(`status = 'queued' ORDER BY created_at ASC, id ASC`)
}

// RecentOutbox returns every outbox entry, newest first, up to limit.
func (db *DB) RecentOutbox(limit int) ([]OutboxEntry, error) {
	return db.outboxWhere(`1 = 1 ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

func (db *DB) outboxWhere(clause string, args ...any) ([]OutboxEntry, error) {
	query := `SELECT id, client_msg_id, token, phone, body, status, error_message, server_msg_id, created_at FROM outbox WHERE ` + clause
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.ID, &e.ClientMsgID, &e.Token, &e.Phone, &e.Body, &e.Status, &e.ErrorMessage, &e.ServerMsgID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
