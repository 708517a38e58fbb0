package store

// CachedInstance is the last polled snapshot of a gateway instance.
type CachedInstance struct {
	ID        string
	Name      string
	Connected bool
	LoggedIn  bool
	JID       string
	Snapshot  string // raw JSON as returned by the gateway
	UpdatedAt int64
}

// OutboxEntry represents a pending outgoing text message.
type OutboxEntry struct {
	ID           int64
	ClientMsgID  string
	Token        string // instance token the entry was queued under
	Phone        string
	Body         string
	Status       string // queued, sending, sent, failed
	ErrorMessage string
	ServerMsgID  string
	CreatedAt    int64
}
