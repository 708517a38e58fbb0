package dashboard

import (
	"context"
	"strings"

	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/notify"
	"github.com/matheus3301/wuzdash/internal/status"
)

// target returns a client acting on instance id. An empty id means the
// session the stored credentials select.
func (c *Controller) target(id string) (*gateway.Client, error) {
	if id == "" {
		return c.client, nil
	}
	if cur, _ := c.vault.CurrentInstance(); cur == id {
		return c.client, nil
	}
	inst, ok := c.engine.Instance(id)
	if !ok {
		return nil, &gateway.ValidationError{Field: "instance", Message: "unknown instance " + id}
	}
	return c.client.WithUserToken(inst.Token), nil
}

func (c *Controller) requireAdmin() error {
	switch c.machine.Current() {
	case status.AdminList, status.AdminInstance:
		return nil
	}
	return &gateway.ValidationError{Message: "admin login required"}
}

// Connect starts a connection attempt and polls fast until the session logs
// in.
func (c *Controller) Connect(ctx context.Context, id string) error {
	return c.run(ctx, "Connect", notify.Report, "Connecting", func(ctx context.Context) error {
		cl, err := c.target(id)
		if err != nil {
			return err
		}
		if err := cl.Connect(ctx); err != nil {
			return err
		}
		c.cadence.Accelerate()
		c.Refresh()
		return nil
	})
}

// Disconnect ends the connection but keeps the pairing.
func (c *Controller) Disconnect(ctx context.Context, id string) error {
	return c.run(ctx, "Disconnect", notify.Report, "Disconnected", func(ctx context.Context) error {
		cl, err := c.target(id)
		if err != nil {
			return err
		}
		if err := cl.Disconnect(ctx); err != nil {
			return err
		}
		c.Refresh()
		return nil
	})
}

// LogoutSession unpairs the WhatsApp session. Dashboard credentials stay.
func (c *Controller) LogoutSession(ctx context.Context, id string) error {
	return c.run(ctx, "Logout session", notify.Report, "Session logged out", func(ctx context.Context) error {
		cl, err := c.target(id)
		if err != nil {
			return err
		}
		if err := cl.Logout(ctx); err != nil {
			return err
		}
		c.cadence.Reset()
		c.Refresh()
		return nil
	})
}

// PairPhone connects and then returns a linking code for phone.
func (c *Controller) PairPhone(ctx context.Context, id, phone string) (string, error) {
	var code string
	err := c.run(ctx, "Pair phone", notify.Report, "", func(ctx context.Context) error {
		if strings.TrimPrefix(strings.TrimSpace(phone), "+") == "" {
			return &gateway.ValidationError{Field: "phone", Message: "phone is required"}
		}
		cl, err := c.target(id)
		if err != nil {
			return err
		}
		if err := cl.Connect(ctx); err != nil {
			return err
		}
		code, err = cl.PairPhone(ctx, phone)
		if err != nil {
			return err
		}
		c.cadence.Accelerate()
		c.Refresh()
		return nil
	})
	return code, err
}

// QR returns the pairing QR data URL, or "" once the session is paired.
func (c *Controller) QR(ctx context.Context, id string) (string, error) {
	var qr string
	err := c.run(ctx, "QR", notify.Report, "", func(ctx context.Context) error {
		cl, err := c.target(id)
		if err != nil {
			return err
		}
		qr, err = cl.QR(ctx)
		return err
	})
	return qr, err
}

// CreateInstance adds an instance and refreshes the list.
func (c *Controller) CreateInstance(ctx context.Context, req gateway.CreateInstanceRequest) (*gateway.Instance, error) {
	var inst *gateway.Instance
	err := c.run(ctx, "Create instance", notify.Report, "Instance created", func(ctx context.Context) error {
		if err := c.requireAdmin(); err != nil {
			return err
		}
		var err error
		inst, err = c.client.CreateInstance(ctx, req)
		if err != nil {
			return err
		}
		c.Refresh()
		return nil
	})
	return inst, err
}

// DeleteInstance removes an instance and refreshes the list.
func (c *Controller) DeleteInstance(ctx context.Context, id string) error {
	return c.run(ctx, "Delete instance", notify.Report, "Instance deleted", func(ctx context.Context) error {
		if err := c.requireAdmin(); err != nil {
			return err
		}
		if cur, _ := c.vault.CurrentInstance(); cur != "" && cur == id {
			return &gateway.ValidationError{Message: "go back to the list before deleting the open instance"}
		}
		if err := c.client.DeleteInstance(ctx, id); err != nil {
			return err
		}
		c.Refresh()
		return nil
	})
}

// Webhook reads the webhook configuration.
func (c *Controller) Webhook(ctx context.Context, id string) (*gateway.Webhook, error) {
	var out *gateway.Webhook
	err := c.run(ctx, "Webhook", notify.Report, "", func(ctx context.Context) error {
		cl, err := c.target(id)
		if err != nil {
			return err
		}
		out, err = cl.Webhook(ctx)
		return err
	})
	return out, err
}

// SetWebhook stores the webhook URL and event subscription.
func (c *Controller) SetWebhook(ctx context.Context, id, webhookURL string, events []string) error {
	return c.run(ctx, "Set webhook", notify.Report, "Webhook saved", func(ctx context.Context) error {
		cl, err := c.target(id)
		if err != nil {
			return err
		}
		return cl.SetWebhook(ctx, webhookURL, events)
	})
}

// Proxy reads the proxy configuration.
func (c *Controller) Proxy(ctx context.Context, id string) (*gateway.ProxyConfig, error) {
	var out *gateway.ProxyConfig
	err := c.run(ctx, "Proxy", notify.Report, "", func(ctx context.Context) error {
		cl, err := c.target(id)
		if err != nil {
			return err
		}
		out, err = cl.Proxy(ctx)
		return err
	})
	return out, err
}

// SetProxy enables or disables the outbound proxy.
func (c *Controller) SetProxy(ctx context.Context, id string, enable bool, proxyURL string) error {
	return c.run(ctx, "Set proxy", notify.Report, "Proxy saved", func(ctx context.Context) error {
		cl, err := c.target(id)
		if err != nil {
			return err
		}
		return cl.SetProxy(ctx, enable, proxyURL)
	})
}

// S3Config reads the media storage configuration.
func (c *Controller) S3Config(ctx context.Context, id string) (*gateway.S3Config, error) {
	var out *gateway.S3Config
	err := c.run(ctx, "S3 config", notify.Report, "", func(ctx context.Context) error {
		cl, err := c.target(id)
		if err != nil {
			return err
		}
		out, err = cl.S3Config(ctx)
		return err
	})
	return out, err
}

// SaveS3Config stores media storage settings.
func (c *Controller) SaveS3Config(ctx context.Context, id string, s gateway.S3Settings) error {
	return c.run(ctx, "Save S3 config", notify.Report, "S3 configuration saved", func(ctx context.Context) error {
		cl, err := c.target(id)
		if err != nil {
			return err
		}
		return cl.SaveS3Config(ctx, s)
	})
}

// TestS3 asks the gateway to probe the stored bucket.
func (c *Controller) TestS3(ctx context.Context, id string) error {
	return c.run(ctx, "Test S3", notify.Report, "S3 connection OK", func(ctx context.Context) error {
		cl, err := c.target(id)
		if err != nil {
			return err
		}
		return cl.TestS3(ctx)
	})
}

// DeleteS3Config removes media storage settings.
func (c *Controller) DeleteS3Config(ctx context.Context, id string) error {
	return c.run(ctx, "Delete S3 config", notify.Report, "S3 configuration deleted", func(ctx context.Context) error {
		cl, err := c.target(id)
		if err != nil {
			return err
		}
		return cl.DeleteS3Config(ctx)
	})
}
