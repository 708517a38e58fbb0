package bus

import "time"

// Event kinds published by the dashboard core.
const (
	KindInstancesUpdated = "instances.updated"
	KindInstancesCleared = "instances.cleared"
	KindGroupsLoaded     = "groups.loaded"
	KindStateChanged     = "dashboard.state_changed"
	KindSendAck          = "message.send_ack"
	KindSendFailed       = "message.send_failed"
	KindNotifySuccess    = "notify.success"
	KindNotifyError      = "notify.error"
)

// Event is a dashboard event carried on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
