package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/matheus3301/wuzdash/internal/wa"
)

// Participant update actions.
const (
	ActionAdd     = "add"
	ActionRemove  = "remove"
	ActionPromote = "promote"
	ActionDemote  = "demote"
)

func requireGroup(jid string) error {
	if strings.TrimSpace(jid) == "" {
		return invalid("group", "group JID is required")
	}
	return nil
}

// Groups lists the groups the instance belongs to.
func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	var out struct {
		Groups []Group `json:"Groups"`
	}
	err := c.do(ctx, request{op: "list groups", method: http.MethodGet, path: "/group/list"}, &out)
	return out.Groups, err
}

// GroupInfo fetches one group.
func (c *Client) GroupInfo(ctx context.Context, groupJID string) (*Group, error) {
	if err := requireGroup(groupJID); err != nil {
		return nil, err
	}
	var out Group
	err := c.do(ctx, request{
		op: "group info", method: http.MethodGet, path: "/group/info",
		query: url.Values{"groupJID": {groupJID}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateGroup creates a group with the given participant phones.
func (c *Client) CreateGroup(ctx context.Context, name string, phones []string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "group name is required")
	}
	phones = cleanPhones(phones)
	if len(phones) == 0 {
		return nil, invalid("participants", "add at least one participant")
	}
	var out Group
	err := c.do(ctx, request{
		op: "create group", method: http.MethodPost, path: "/group/create",
		body: map[string]any{"name": name, "participants": phones},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// InviteInfo previews the group behind an invite link or code.
func (c *Client) InviteInfo(ctx context.Context, linkOrCode string) (*Group, error) {
	code := wa.InviteCode(linkOrCode)
	if code == "" {
		return nil, invalid("code", "invite code or link is required")
	}
	var out Group
	err := c.do(ctx, request{
		op: "invite info", method: http.MethodPost, path: "/group/inviteinfo",
		body: map[string]string{"code": code},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// JoinGroup joins the group behind an invite link or code.
func (c *Client) JoinGroup(ctx context.Context, linkOrCode string) error {
	code := wa.InviteCode(linkOrCode)
	if code == "" {
		return invalid("code", "invite code or link is required")
	}
	return c.do(ctx, request{
		op: "join group", method: http.MethodPost, path: "/group/join",
		body: map[string]string{"code": code},
	}, nil)
}

// SetGroupName renames a group.
func (c *Client) SetGroupName(ctx context.Context, groupJID, name string) error {
	if err := requireGroup(groupJID); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name", "group name is required")
	}
	return c.do(ctx, request{
		op: "set group name", method: http.MethodPost, path: "/group/name",
		body: map[string]string{"GroupJID": groupJID, "Name": name},
	}, nil)
}

// SetGroupTopic changes a group description. An empty topic clears it.
func (c *Client) SetGroupTopic(ctx context.Context, groupJID, topic string) error {
	if err := requireGroup(groupJID); err != nil {
		return err
	}
	return c.do(ctx, request{
		op: "set group topic", method: http.MethodPost, path: "/group/topic",
		body: map[string]string{"GroupJID": groupJID, "Topic": topic},
	}, nil)
}

// SetAnnounce toggles admins-only messaging.
func (c *Client) SetAnnounce(ctx context.Context, groupJID string, announce bool) error {
	if err := requireGroup(groupJID); err != nil {
		return err
	}
	return c.do(ctx, request{
		op: "set announce", method: http.MethodPost, path: "/group/announce",
		body: map[string]any{"GroupJID": groupJID, "Announce": announce},
	}, nil)
}

// SetLocked toggles admins-only group info edits.
func (c *Client) SetLocked(ctx context.Context, groupJID string, locked bool) error {
	if err := requireGroup(groupJID); err != nil {
		return err
	}
	return c.do(ctx, request{
		op: "set locked", method: http.MethodPost, path: "/group/locked",
		body: map[string]any{"GroupJID": groupJID, "Locked": locked},
	}, nil)
}

// SetDisappearing sets the disappearing-messages timer to a preset value.
func (c *Client) SetDisappearing(ctx context.Context, groupJID string, seconds uint32) error {
	if err := requireGroup(groupJID); err != nil {
		return err
	}
	duration, ok := wa.EphemeralDuration(seconds)
	if !ok {
		return invalid("duration", "timer must be off, 24 hours, 7 days or 90 days")
	}
	return c.do(ctx, request{
		op: "set disappearing timer", method: http.MethodPost, path: "/group/ephemeral",
		body: map[string]string{"GroupJID": groupJID, "Duration": duration},
	}, nil)
}

// UpdateParticipants adds, removes, promotes or demotes members by phone.
func (c *Client) UpdateParticipants(ctx context.Context, groupJID, action string, phones []string) error {
	if err := requireGroup(groupJID); err != nil {
		return err
	}
	switch action {
	case ActionAdd, ActionRemove, ActionPromote, ActionDemote:
	default:
		return invalid("action", "unknown participant action "+action)
	}
	phones = cleanPhones(phones)
	if len(phones) == 0 {
		return invalid("participants", "select at least one participant")
	}
	return c.do(ctx, request{
		op: action + " participants", method: http.MethodPost, path: "/group/updateparticipants",
		body: map[string]any{"GroupJID": groupJID, "Action": action, "Phone": phones},
	}, nil)
}

// InviteLink returns the group invite link, revoking the old one when reset.
func (c *Client) InviteLink(ctx context.Context, groupJID string, reset bool) (string, error) {
	if err := requireGroup(groupJID); err != nil {
		return "", err
	}
	q := url.Values{"groupJID": {groupJID}}
	if reset {
		q.Set("reset", "true")
	}
	var out struct {
		InviteLink string `json:"InviteLink"`
	}
	err := c.do(ctx, request{op: "invite link", method: http.MethodGet, path: "/group/invitelink", query: q}, &out)
	return out.InviteLink, err
}

// SetGroupPhoto uploads a JPEG data URL as the group picture.
func (c *Client) SetGroupPhoto(ctx context.Context, groupJID, jpegDataURL string) error {
	if err := requireGroup(groupJID); err != nil {
		return err
	}
	if !strings.HasPrefix(jpegDataURL, "data:image/jpeg;base64,") {
		return invalid("image", "photo must be a JPEG data URL")
	}
	return c.do(ctx, request{
		op: "set group photo", method: http.MethodPost, path: "/group/photo",
		body: map[string]string{"GroupJID": groupJID, "Image": jpegDataURL},
	}, nil)
}

// RemoveGroupPhoto clears the group picture.
func (c *Client) RemoveGroupPhoto(ctx context.Context, groupJID string) error {
	if err := requireGroup(groupJID); err != nil {
		return err
	}
	return c.do(ctx, request{
		op: "remove group photo", method: http.MethodPost, path: "/group/photo/remove",
		body: map[string]string{"GroupJID": groupJID},
	}, nil)
}

// LeaveGroup leaves a group.
func (c *Client) LeaveGroup(ctx context.Context, groupJID string) error {
	if err := requireGroup(groupJID); err != nil {
		return err
	}
	return c.do(ctx, request{
		op: "leave group", method: http.MethodPost, path: "/group/leave",
		body: map[string]string{"GroupJID": groupJID},
	}, nil)
}

// cleanPhones trims entries, strips '+' and any JID server, and drops blanks.
func cleanPhones(in []string) []string {
	var out []string
	for _, p := range in {
		p = wa.PhoneOf(strings.TrimPrefix(strings.TrimSpace(p), "+"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
