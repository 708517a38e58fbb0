package gateway

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/matheus3301/wuzdash/internal/wa"
)

// NewMessageID returns a fresh client-side message id.
func (c *Client) NewMessageID() string { return c.newID() }

// SendText sends body to phone under the client message id.
func (c *Client) SendText(ctx context.Context, phone, body, id string) (*SendResult, error) {
	phone = wa.PhoneOf(strings.TrimPrefix(strings.TrimSpace(phone), "+"))
	if phone == "" {
		return nil, invalid("phone", "phone is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, invalid("body", "message is empty")
	}
	if id == "" {
		id = c.newID()
	}
	var out SendResult
	err := c.do(ctx, request{
		op: "send text", method: http.MethodPost, path: "/chat/send/text",
		body: map[string]string{"Phone": phone, "Body": body, "Id": id},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return &out, nil
}

// DeleteMessage revokes a sent message.
func (c *Client) DeleteMessage(ctx context.Context, phone, id string) error {
	phone = wa.PhoneOf(strings.TrimSpace(phone))
	if phone == "" {
		return invalid("phone", "phone is required")
	}
	if strings.TrimSpace(id) == "" {
		return invalid("id", "message id is required")
	}
	return c.do(ctx, request{
		op: "delete message", method: http.MethodPost, path: "/chat/delete",
		body: map[string]string{"Phone": phone, "Id": id},
	}, nil)
}

// UserInfo looks up a phone or JID.
func (c *Client) UserInfo(ctx context.Context, phone string) (map[string]UserDetails, error) {
	jid := wa.UserJID(phone)
	if jid == "" {
		return nil, invalid("phone", "phone is required")
	}
	var out struct {
		Users map[string]UserDetails `json:"Users"`
	}
	err := c.do(ctx, request{
		op: "user info", method: http.MethodPost, path: "/user/info",
		body: map[string][]string{"Phone": {jid}},
	}, &out)
	return out.Users, err
}

// UserAvatar fetches the full-size profile picture of a phone or JID.
func (c *Client) UserAvatar(ctx context.Context, phone string) (*Avatar, error) {
	jid := wa.UserJID(phone)
	if jid == "" {
		return nil, invalid("phone", "phone is required")
	}
	var out Avatar
	err := c.do(ctx, request{
		op: "user avatar", method: http.MethodPost, path: "/user/avatar",
		body: map[string]any{"Phone": jid, "Preview": false},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Contacts returns the address book sorted by phone.
func (c *Client) Contacts(ctx context.Context) ([]Contact, error) {
	var raw map[string]struct {
		FullName string `json:"FullName"`
		PushName string `json:"PushName"`
	}
	if err := c.do(ctx, request{op: "contacts", method: http.MethodGet, path: "/user/contacts"}, &raw); err != nil {
		return nil, err
	}
	out := make([]Contact, 0, len(raw))
	for jid, entry := range raw {
		out = append(out, Contact{Phone: wa.PhoneOf(jid), FullName: entry.FullName, PushName: entry.PushName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phone < out[j].Phone })
	return out, nil
}
