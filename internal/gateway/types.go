package gateway

import (
	"encoding/json"
	"strings"
	"time"
)

// ProxyConfig is an instance's outbound proxy setting.
type ProxyConfig struct {
	Enabled  bool   `json:"enabled"`
	ProxyURL string `json:"proxy_url"`
}

// S3Config is an instance's media storage setting. The secret key is never
// returned; the access key may come back redacted as "***".
type S3Config struct {
	Enabled       bool   `json:"enabled"`
	Endpoint      string `json:"endpoint"`
	Region        string `json:"region"`
	Bucket        string `json:"bucket"`
	AccessKey     string `json:"access_key"`
	PathStyle     bool   `json:"path_style"`
	PublicURL     string `json:"public_url"`
	MediaDelivery string `json:"media_delivery"`
	RetentionDays int    `json:"retention_days"`
}

// RedactedKey is how the gateway masks stored access keys.
const RedactedKey = "***"

// Configured reports whether any storage setting is present.
func (s S3Config) Configured() bool {
	return s.Enabled || s.Endpoint != "" || s.Bucket != ""
}

// Instance is one gateway user/session as seen by the dashboard.
type Instance struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Token      string      `json:"token"`
	Connected  bool        `json:"connected"`
	LoggedIn   bool        `json:"loggedIn"`
	JID        string      `json:"jid"`
	Webhook    string      `json:"webhook"`
	Events     string      `json:"events"`
	Expiration int64       `json:"expiration"`
	QRCode     string      `json:"qrcode"`
	Proxy      ProxyConfig `json:"proxy_config"`
	S3         S3Config    `json:"s3_config"`
}

// UnmarshalJSON tolerates numeric ids and list-valued events.
func (i *Instance) UnmarshalJSON(data []byte) error {
	type plain Instance
	var aux struct {
		plain
		ID     json.RawMessage `json:"id"`
		Events json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*i = Instance(aux.plain)
	i.ID = scalarString(aux.ID)
	i.Events = eventsString(aux.Events)
	return nil
}

func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func eventsString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ",")
	}
	return scalarString(raw)
}

// Participant is a member of a group.
type Participant struct {
	JID          string `json:"JID"`
	PhoneNumber  string `json:"PhoneNumber,omitempty"`
	LID          string `json:"LID,omitempty"`
	IsAdmin      bool   `json:"IsAdmin"`
	IsSuperAdmin bool   `json:"IsSuperAdmin"`
	DisplayName  string `json:"DisplayName"`
}

// Group is a group snapshot as returned by /group/list and /group/info.
type Group struct {
	JID                    string        `json:"JID"`
	OwnerJID               string        `json:"OwnerJID,omitempty"`
	Name                   string        `json:"Name"`
	Topic                  string        `json:"Topic"`
	GroupCreated           time.Time     `json:"GroupCreated"`
	Participants           []Participant `json:"Participants"`
	IsParent               bool          `json:"IsParent"`
	LinkedParentJID        string        `json:"LinkedParentJID"`
	IsAnnounce             bool          `json:"IsAnnounce"`
	IsLocked               bool          `json:"IsLocked"`
	IsEphemeral            bool          `json:"IsEphemeral"`
	DisappearingTimer      uint32        `json:"DisappearingTimer"`
	IsJoinApprovalRequired bool          `json:"IsJoinApprovalRequired"`
}

// Webhook is the event callback configuration of the current instance.
type Webhook struct {
	URL       string   `json:"webhook"`
	Subscribe []string `json:"subscribe"`
}

// UserDetails is what /user/info returns per JID.
type UserDetails struct {
	Status       string   `json:"Status"`
	VerifiedName any      `json:"VerifiedName"`
	PictureID    string   `json:"PictureID"`
	Devices      []string `json:"Devices"`
}

// Avatar is a profile picture reference.
type Avatar struct {
	URL  string `json:"url"`
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Contact is one address-book entry flattened for export.
type Contact struct {
	Phone    string `json:"phone" yaml:"phone"`
	FullName string `json:"full_name" yaml:"full_name"`
	PushName string `json:"push_name" yaml:"push_name"`
}

// SendResult acknowledges an outgoing message.
type SendResult struct {
	ID        string `json:"Id"`
	Details   string `json:"Details"`
	Timestamp any    `json:"Timestamp"`
}
