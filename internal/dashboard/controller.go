// Package dashboard is the application state of wuzdash. It owns the
// credential vault, the active poll loop and the snapshot, and runs every
// user action with an explicit error policy.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/wuzdash/internal/bus"
	"github.com/matheus3301/wuzdash/internal/creds"
	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/metrics"
	"github.com/matheus3301/wuzdash/internal/notify"
	"github.com/matheus3301/wuzdash/internal/outbox"
	"github.com/matheus3301/wuzdash/internal/poll"
	"github.com/matheus3301/wuzdash/internal/status"
	intsync "github.com/matheus3301/wuzdash/internal/sync"
)

// ErrInvalidCredentials is reported when the gateway rejects a login token.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Deps are the collaborators of a Controller.
type Deps struct {
	Client    *gateway.Client
	Vault     *creds.Vault
	Engine    *intsync.Engine
	Machine   *status.Machine
	Cadence   *poll.Cadence
	Scheduler poll.Scheduler
	Outbox    *outbox.Sender
	Notifier  notify.Notifier
	Bus       *bus.Bus
	Logger    *zap.Logger
}

// Controller coordinates the dashboard.
type Controller struct {
	client   *gateway.Client
	vault    *creds.Vault
	engine   *intsync.Engine
	machine  *status.Machine
	cadence  *poll.Cadence
	sched    poll.Scheduler
	outbox   *outbox.Sender
	notifier notify.Notifier
	bus      *bus.Bus
	logger   *zap.Logger

	nav  sync.Mutex // serialises state changes and loop ownership
	ctx  context.Context
	loop *poll.Loop

	groupsMu sync.RWMutex
	groups   []gateway.Group
}

// New creates a controller. Call Bootstrap to enter the first state.
func New(d Deps) *Controller {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Cadence == nil {
		d.Cadence = poll.NewCadence(0, 0)
	}
	if d.Notifier == nil {
		d.Notifier = notify.Multi{}
	}
	return &Controller{
		client:   d.Client,
		vault:    d.Vault,
		engine:   d.Engine,
		machine:  d.Machine,
		cadence:  d.Cadence,
		sched:    d.Scheduler,
		outbox:   d.Outbox,
		notifier: d.Notifier,
		bus:      d.Bus,
		logger:   d.Logger,
		ctx:      context.Background(),
	}
}

// State returns the current dashboard state.
func (c *Controller) State() status.State { return c.machine.Current() }

// Snapshot returns the latest instance snapshot.
func (c *Controller) Snapshot() []gateway.Instance { return c.engine.Snapshot() }

// Cadence exposes the poll cadence.
func (c *Controller) Cadence() *poll.Cadence { return c.cadence }

// ViewerJID returns the cached identity of the logged-in user.
func (c *Controller) ViewerJID() string { return c.vault.UserJID() }

// Bootstrap restores the cached snapshot and enters the state the stored
// credentials select. ctx bounds every poll loop started later.
func (c *Controller) Bootstrap(ctx context.Context) error {
	c.nav.Lock()
	defer c.nav.Unlock()
	c.ctx = ctx

	if n, err := c.engine.Restore(); err != nil {
		c.logger.Warn("failed to restore cached snapshot", zap.Error(err))
	} else if n > 0 {
		c.logger.Debug("restored cached snapshot", zap.Int("instances", n))
	}

	role, err := c.vault.ActiveRole()
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}
	target := status.LoginRequired
	switch role {
	case creds.RoleAdmin:
		target = status.AdminList
		if id, _ := c.vault.CurrentInstance(); id != "" {
			target = status.AdminInstance
		}
	case creds.RoleUser:
		target = status.UserSession
	}
	c.logger.Info("bootstrap", zap.Stringer("role", role), zap.String("state", string(target)))
	return c.enterLocked(target)
}

// enterLocked moves to target and (re)starts the loop it owns.
func (c *Controller) enterLocked(target status.State) error {
	if c.machine.Current() != target {
		if err := c.machine.Transition(target); err != nil {
			return err
		}
	}
	c.restartLoopLocked()
	return nil
}

func (c *Controller) restartLoopLocked() {
	c.stopLoopLocked()
	var fetch poll.Fetcher
	name := c.machine.Current().Loop()
	switch name {
	case status.LoopUser:
		fetch = poll.UserFetcher(c.client)
	case status.LoopAdmin:
		fetch = poll.AdminFetcher(c.client, c.vault)
	default:
		return
	}
	c.loop = poll.NewLoop(name, fetch, c.engine, c.cadence, c.sched, c.logger)
	c.loop.Start(c.ctx)
}

func (c *Controller) stopLoopLocked() {
	if c.loop != nil {
		c.loop.Stop()
		c.loop = nil
	}
}

// Refresh restarts the active loop so the next tick runs now.
func (c *Controller) Refresh() {
	c.nav.Lock()
	defer c.nav.Unlock()
	if c.loop != nil {
		c.loop.Start(c.ctx)
	}
}

// leaveSessionLocked drops to LoginRequired from any logged-in state. Texts
// still queued under the old credentials are failed, not delivered later.
func (c *Controller) leaveSessionLocked() error {
	c.stopLoopLocked()
	if c.outbox != nil {
		if err := c.outbox.Abandon("session ended before delivery"); err != nil {
			c.logger.Warn("failed to abandon queued messages", zap.Error(err))
		}
	}
	switch c.machine.Current() {
	case status.Booting, status.LoginRequired:
		return nil
	}
	return c.machine.Transition(status.LoginRequired)
}

// LoginUser validates token against /session/status and enters user mode.
// A rejected token is removed again.
func (c *Controller) LoginUser(ctx context.Context, token string) error {
	return c.run(ctx, "Login", notify.Report, "Logged in", func(ctx context.Context) error {
		token = strings.TrimSpace(token)
		if token == "" {
			return &gateway.ValidationError{Field: "token", Message: "token is required"}
		}
		c.nav.Lock()
		defer c.nav.Unlock()
		if err := c.leaveSessionLocked(); err != nil {
			return err
		}
		if err := c.vault.LoginUser(token); err != nil {
			return err
		}
		inst, err := c.client.Status(ctx)
		if err != nil {
			if derr := c.vault.DropUserToken(); derr != nil {
				c.logger.Warn("failed to drop rejected token", zap.Error(derr))
			}
			c.enterLoginRequiredLocked()
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, gateway.Message(err))
		}
		if inst.JID != "" {
			_ = c.vault.SetUserJID(inst.JID)
		}
		return c.enterLocked(status.UserSession)
	})
}

// LoginAdmin validates token against /admin/users and enters admin mode.
// A rejected token clears every credential it could have touched.
func (c *Controller) LoginAdmin(ctx context.Context, token string) error {
	return c.run(ctx, "Admin login", notify.Report, "Logged in as admin", func(ctx context.Context) error {
		token = strings.TrimSpace(token)
		if token == "" {
			return &gateway.ValidationError{Field: "token", Message: "admin token is required"}
		}
		c.nav.Lock()
		defer c.nav.Unlock()
		if err := c.leaveSessionLocked(); err != nil {
			return err
		}
		if err := c.vault.LoginAdmin(token); err != nil {
			return err
		}
		if _, err := c.client.ListUsers(ctx); err != nil {
			if derr := c.vault.DropAdmin(); derr != nil {
				c.logger.Warn("failed to drop rejected admin token", zap.Error(derr))
			}
			c.enterLoginRequiredLocked()
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, gateway.Message(err))
		}
		return c.enterLocked(status.AdminList)
	})
}

func (c *Controller) enterLoginRequiredLocked() {
	if c.machine.Current() == status.Booting {
		_ = c.machine.Transition(status.LoginRequired)
	}
}

// Logout stops polling and forgets every credential and the snapshot.
func (c *Controller) Logout(ctx context.Context) error {
	return c.run(ctx, "Logout", notify.Report, "Logged out", func(context.Context) error {
		c.nav.Lock()
		defer c.nav.Unlock()
		if err := c.leaveSessionLocked(); err != nil {
			return err
		}
		c.cadence.Reset()
		c.clearGroups()
		if err := c.vault.Logout(); err != nil {
			return err
		}
		return c.engine.Clear()
	})
}

// OpenInstance selects an instance from the admin list and polls only it.
func (c *Controller) OpenInstance(ctx context.Context, id string) error {
	return c.run(ctx, "Open instance", notify.Report, "", func(context.Context) error {
		c.nav.Lock()
		defer c.nav.Unlock()
		if c.machine.Current() != status.AdminList {
			return &gateway.ValidationError{Message: "open an instance from the admin list"}
		}
		inst, ok := c.engine.Instance(id)
		if !ok {
			return &gateway.ValidationError{Field: "instance", Message: "unknown instance " + id}
		}
		if err := c.vault.SetCurrentInstance(inst.ID, inst.Token); err != nil {
			return err
		}
		if inst.JID != "" {
			_ = c.vault.SetUserJID(inst.JID)
		}
		c.clearGroups()
		return c.enterLocked(status.AdminInstance)
	})
}

// BackToList leaves the opened instance and polls the full list again.
func (c *Controller) BackToList(ctx context.Context) error {
	return c.run(ctx, "Back to list", notify.Report, "", func(context.Context) error {
		c.nav.Lock()
		defer c.nav.Unlock()
		if c.machine.Current() != status.AdminInstance {
			return nil
		}
		if err := c.vault.ClearCurrentInstance(); err != nil {
			return err
		}
		c.clearGroups()
		return c.enterLocked(status.AdminList)
	})
}

// Close stops the active loop.
func (c *Controller) Close() {
	c.nav.Lock()
	defer c.nav.Unlock()
	c.stopLoopLocked()
}

// CurrentInstance is the instance an admin has open, "" otherwise.
func (c *Controller) CurrentInstance() string {
	id, _ := c.vault.CurrentInstance()
	return id
}

// LastPoll is the time of the last successful poll, zero when none ran.
func (c *Controller) LastPoll() time.Time {
	c.nav.Lock()
	loop := c.loop
	c.nav.Unlock()
	if loop == nil {
		return time.Time{}
	}
	lastOK, _ := loop.Health()
	return lastOK
}

// Health summarises the controller for /healthz and wuzctl.
func (c *Controller) Health() (map[string]any, error) {
	c.nav.Lock()
	loop := c.loop
	c.nav.Unlock()

	out := map[string]any{
		"state":   string(c.machine.Current()),
		"cadence": c.cadence.Mode().String(),
	}
	if loop == nil {
		if c.machine.Current() == status.LoginRequired {
			return out, errors.New("no credentials; log in with wuzctl")
		}
		return out, nil
	}
	lastOK, lastErr := loop.Health()
	out["loop"] = loop.Name()
	if !lastOK.IsZero() {
		out["last_ok"] = lastOK.Format(time.RFC3339)
	}
	if lastErr != nil {
		out["last_error"] = lastErr.Error()
	}
	return out, nil
}

// run executes one action under policy p: it counts the outcome, logs it and
// reports it through the notifier when the policy says so.
func (c *Controller) run(ctx context.Context, action string, p notify.Policy, success string, fn func(context.Context) error) error {
	err := fn(ctx)
	metrics.ActionsTotal.WithLabelValues(action, metrics.Outcome(err)).Inc()
	if err != nil {
		if p.ReportErrors {
			c.logger.Warn("action failed", zap.String("action", action), zap.Error(err))
		} else {
			c.logger.Debug("action failed", zap.String("action", action), zap.Error(err))
		}
		p.Failure(c.notifier, action, err)
		return err
	}
	p.Success(c.notifier, success)
	return nil
}
