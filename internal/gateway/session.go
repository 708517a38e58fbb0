package gateway

import (
	"context"
	"net/http"
	"strings"
)

// Status fetches the current instance snapshot. User scope.
func (c *Client) Status(ctx context.Context) (*Instance, error) {
	var out Instance
	if err := c.do(ctx, request{op: "session status", method: http.MethodGet, path: "/session/status"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type connectPayload struct {
	Subscribe []string `json:"Subscribe"`
	Immediate bool     `json:"Immediate"`
}

// Connect begins a connection attempt subscribed to all events.
func (c *Client) Connect(ctx context.Context) error {
	return c.do(ctx, request{
		op: "connect", method: http.MethodPost, path: "/session/connect",
		body: connectPayload{Subscribe: []string{EventAll}, Immediate: true},
	}, nil)
}

// Disconnect ends the connection but keeps the pairing.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.do(ctx, request{op: "disconnect", method: http.MethodPost, path: "/session/disconnect"}, nil)
}

// Logout terminates the logged-in WhatsApp session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{op: "logout", method: http.MethodPost, path: "/session/logout"}, nil)
}

// PairPhone requests a linking code for phone.
func (c *Client) PairPhone(ctx context.Context, phone string) (string, error) {
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if err := requireField("phone", phone); err != nil {
		return "", err
	}
	var out struct {
		LinkingCode string `json:"LinkingCode"`
	}
	err := c.do(ctx, request{
		op: "pair phone", method: http.MethodPost, path: "/session/pairphone",
		body: map[string]string{"Phone": phone},
	}, &out)
	return out.LinkingCode, err
}

// QR returns the current pairing QR as a PNG data URL, or "" once paired.
func (c *Client) QR(ctx context.Context) (string, error) {
	var out struct {
		QRCode string `json:"QRCode"`
	}
	err := c.do(ctx, request{op: "qr", method: http.MethodGet, path: "/session/qr"}, &out)
	return out.QRCode, err
}
