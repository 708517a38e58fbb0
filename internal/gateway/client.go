// Package gateway is the REST client for the WhatsApp bridge. User-scoped
// calls authenticate with the "token" header, admin calls with
// "authorization". Responses are unwrapped from the gateway envelope and
// failures are typed as TransportError, APIError or ValidationError.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Credentials supplies tokens for each call. The vault implements it.
type Credentials interface {
	UserToken() (string, error)
	AdminToken() (string, error)
}

type scope int

const (
	scopeUser scope = iota
	scopeAdmin
)

const maxBody = 32 << 20

// Client talks to one gateway base URL.
type Client struct {
	base   string
	http   *http.Client
	creds  Credentials
	logger *zap.Logger
	newID  func() string
}

// New creates a client for baseURL.
func New(baseURL string, timeout time.Duration, creds Credentials, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: timeout},
		creds:  creds,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// BaseURL returns the gateway root this client targets.
func (c *Client) BaseURL() string { return c.base }

type fixedToken string

func (t fixedToken) UserToken() (string, error)  { return string(t), nil }
func (t fixedToken) AdminToken() (string, error) { return "", nil }

// WithUserToken returns a copy of c whose user-scoped calls use token, for
// acting on an instance from the admin list without selecting it.
func (c *Client) WithUserToken(token string) *Client {
	cp := *c
	cp.creds = fixedToken(token)
	return &cp
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	scope  scope
	body   any
}

func (c *Client) token(s scope) (string, error) {
	if c.creds == nil {
		return "", nil
	}
	if s == scopeAdmin {
		return c.creds.AdminToken()
	}
	return c.creds.UserToken()
}

// do sends r and decodes the envelope's data into out (which may be nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.base + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", r.op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return &TransportError{Op: r.op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	tok, err := c.token(r.scope)
	if err != nil {
		return fmt.Errorf("%s: read credential: %w", r.op, err)
	}
	if r.scope == scopeAdmin {
		req.Header.Set("authorization", tok)
	} else {
		req.Header.Set("token", tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: r.op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &TransportError{Op: r.op, Status: resp.StatusCode, Err: err}
	}
	c.logger.Debug("gateway call",
		zap.String("op", r.op),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	httpOK := resp.StatusCode >= 200 && resp.StatusCode < 300

	if !httpOK {
		msg := ""
		if decodeErr == nil {
			msg = env.errorText()
		} else {
			msg = truncate(strings.TrimSpace(string(raw)), 200)
		}
		return &TransportError{Op: r.op, Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return &APIError{Op: r.op, Code: resp.StatusCode, Message: "malformed response: " + decodeErr.Error()}
	}
	if !env.ok(resp.StatusCode) {
		return &APIError{Op: r.op, Code: env.code(resp.StatusCode), Message: env.errorText()}
	}
	if out == nil || !env.hasData() {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{Op: r.op, Code: env.code(resp.StatusCode), Message: "unexpected data: " + err.Error()}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
