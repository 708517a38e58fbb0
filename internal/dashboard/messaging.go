package dashboard

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/notify"
	"github.com/matheus3301/wuzdash/internal/outbox"
)

// SendText queues body for phone and returns the client message id. Without
// an outbox the message is sent synchronously.
func (c *Controller) SendText(ctx context.Context, phone, body string) (string, error) {
	var id string
	err := c.run(ctx, "Send message", notify.Report, "", func(ctx context.Context) error {
		var err error
		if c.outbox != nil {
			id, err = c.outbox.Enqueue(phone, body)
			return err
		}
		res, err := c.client.SendText(ctx, phone, body, c.client.NewMessageID())
		if err != nil {
			return err
		}
		id = res.ID
		return nil
	})
	if err == nil && c.outbox == nil {
		notify.Report.Success(c.notifier, "Message sent: "+id)
	}
	return id, err
}

// DeleteMessage revokes a sent message.
func (c *Controller) DeleteMessage(ctx context.Context, phone, messageID string) error {
	return c.run(ctx, "Delete message", notify.Report, "Message deleted", func(ctx context.Context) error {
		return c.client.DeleteMessage(ctx, phone, messageID)
	})
}

// UserInfo looks up phone on WhatsApp.
func (c *Controller) UserInfo(ctx context.Context, phone string) (map[string]gateway.UserDetails, error) {
	var out map[string]gateway.UserDetails
	err := c.run(ctx, "User info", notify.Report, "", func(ctx context.Context) error {
		var err error
		out, err = c.client.UserInfo(ctx, phone)
		return err
	})
	return out, err
}

// UserAvatar fetches the profile picture reference for phone.
func (c *Controller) UserAvatar(ctx context.Context, phone string) (*gateway.Avatar, error) {
	var out *gateway.Avatar
	err := c.run(ctx, "User avatar", notify.Report, "", func(ctx context.Context) error {
		var err error
		out, err = c.client.UserAvatar(ctx, phone)
		return err
	})
	return out, err
}

// Contacts returns the address book sorted by phone.
func (c *Controller) Contacts(ctx context.Context) ([]gateway.Contact, error) {
	var out []gateway.Contact
	err := c.run(ctx, "Contacts", notify.Report, "", func(ctx context.Context) error {
		var err error
		out, err = c.client.Contacts(ctx)
		return err
	})
	return out, err
}

// Watch turns outbox bus events into notices until ctx ends.
func (c *Controller) Watch(ctx context.Context) {
	if c.bus == nil {
		return
	}
	sub, unsubscribe := c.bus.Subscribe("message.", 32)
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				c.noticeFor(ev.Kind, ev.Payload)
			}
		}
	}()
}

func (c *Controller) noticeFor(kind string, payload any) {
	switch p := payload.(type) {
	case outbox.SendAck:
		notify.Report.Success(c.notifier, "Message sent to "+p.Phone)
	case outbox.SendFailure:
		if p.Retrying {
			return
		}
		msg := strings.TrimSpace(p.Error)
		if msg == "" {
			msg = "unknown error"
		}
		notify.Report.Failure(c.notifier, "Send message", &gateway.APIError{Op: "send message", Message: msg})
	default:
		c.logger.Debug("ignoring message event", zap.String("kind", kind))
	}
}
