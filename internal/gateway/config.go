package gateway

import (
	"context"
	"net/http"
	"strings"
)

// Webhook returns the webhook configuration.
func (c *Client) Webhook(ctx context.Context) (*Webhook, error) {
	var out Webhook
	if err := c.do(ctx, request{op: "get webhook", method: http.MethodGet, path: "/webhook"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetWebhook stores the webhook URL and subscribed events.
func (c *Client) SetWebhook(ctx context.Context, webhookURL string, events []string) error {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL != "" && validateEndpoint(webhookURL) != nil {
		return invalid("webhook", "webhook must be a valid URL")
	}
	events = NormalizeEvents(events)
	if len(events) == 0 {
		return invalid("events", "select at least one event")
	}
	return c.do(ctx, request{
		op: "set webhook", method: http.MethodPost, path: "/webhook",
		body: map[string]any{"webhookurl": webhookURL, "events": events},
	}, nil)
}

type proxyPayload struct {
	Enable   bool   `json:"enable"`
	ProxyURL string `json:"proxy_url"`
}

// Proxy reads the proxy configuration.
func (c *Client) Proxy(ctx context.Context) (*ProxyConfig, error) {
	var out ProxyConfig
	if err := c.do(ctx, request{op: "get proxy", method: http.MethodGet, path: "/session/proxy"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetProxy enables the proxy at proxyURL, or disables it.
func (c *Client) SetProxy(ctx context.Context, enable bool, proxyURL string) error {
	proxyURL = strings.TrimSpace(proxyURL)
	if !enable {
		proxyURL = ""
	} else if err := ValidateProxyURL(proxyURL); err != nil {
		return err
	}
	return c.do(ctx, request{
		op: "set proxy", method: http.MethodPost, path: "/session/proxy",
		body: proxyPayload{Enable: enable, ProxyURL: proxyURL},
	}, nil)
}

// S3Config reads the storage configuration.
func (c *Client) S3Config(ctx context.Context) (*S3Config, error) {
	var out S3Config
	if err := c.do(ctx, request{op: "get s3 config", method: http.MethodGet, path: "/session/s3/config"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveS3Config enables storage with s. A redacted access key is sent blank
// so the stored key is kept.
func (c *Client) SaveS3Config(ctx context.Context, s S3Settings) error {
	s.Enabled = true
	s.Endpoint = strings.TrimSpace(s.Endpoint)
	s.Bucket = strings.TrimSpace(s.Bucket)
	if s.AccessKey == RedactedKey {
		s.AccessKey = ""
	}
	if err := s.validateFormat(); err != nil {
		return err
	}
	s.applyDefaults()
	return c.do(ctx, request{op: "save s3 config", method: http.MethodPost, path: "/session/s3/config", body: s}, nil)
}

// TestS3 asks the gateway to probe the configured bucket.
func (c *Client) TestS3(ctx context.Context) error {
	return c.do(ctx, request{op: "test s3", method: http.MethodPost, path: "/session/s3/test"}, nil)
}

// DeleteS3Config removes the storage configuration.
func (c *Client) DeleteS3Config(ctx context.Context) error {
	return c.do(ctx, request{op: "delete s3 config", method: http.MethodDelete, path: "/session/s3/config"}, nil)
}
