// Package sync reconciles poll results into the instance snapshot. The
// snapshot is only ever replaced by fetched data; a failed poll never reaches
// the engine.
package sync

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/wuzdash/internal/bus"
	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/metrics"
	"github.com/matheus3301/wuzdash/internal/poll"
	"github.com/matheus3301/wuzdash/internal/store"
)

// Identity records the viewer JID reported by the user loop.
type Identity interface {
	SetUserJID(jid string) error
}

// Update is the payload of instances.updated.
type Update struct {
	Instances []gateway.Instance
	Changed   bool
}

// Engine owns the latest instance snapshot.
type Engine struct {
	db          *store.DB
	bus         *bus.Bus
	identity    Identity
	checkpoints *Checkpoints
	logger      *zap.Logger

	mu       sync.RWMutex
	snapshot []gateway.Instance
}

// NewEngine creates a sync engine. db and identity may be nil.
func NewEngine(db *store.DB, b *bus.Bus, identity Identity, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{db: db, bus: b, identity: identity, logger: logger}
	if db != nil {
		e.checkpoints = NewCheckpoints(db)
	}
	return e
}

// Apply implements poll.Sink.
func (e *Engine) Apply(res poll.Result) {
	if res.UserJID != "" && e.identity != nil {
		if err := e.identity.SetUserJID(res.UserJID); err != nil {
			e.logger.Warn("failed to cache user JID", zap.Error(err))
		}
	}

	e.mu.Lock()
	next := merge(e.snapshot, res.Instances)
	changed := !slices.Equal(e.snapshot, next)
	e.snapshot = next
	e.mu.Unlock()

	recordGauges(next)
	if changed {
		if err := e.persist(next); err != nil {
			e.logger.Warn("failed to cache instances", zap.Error(err))
		}
	}
	if e.checkpoints != nil {
		if err := e.checkpoints.MarkApplied(len(next)); err != nil {
			e.logger.Debug("failed to write checkpoint", zap.Error(err))
		}
	}
	e.bus.Emit(bus.KindInstancesUpdated, Update{Instances: clone(next), Changed: changed})
}

// merge builds the next snapshot from incoming. An instance whose QR code
// comes back empty keeps its previous QR while it is still not logged in.
func merge(prev, incoming []gateway.Instance) []gateway.Instance {
	out := make([]gateway.Instance, len(incoming))
	for i, inst := range incoming {
		if inst.QRCode == "" && !inst.LoggedIn {
			if old, ok := find(prev, inst.ID); ok {
				inst.QRCode = old.QRCode
			}
		}
		out[i] = inst
	}
	return out
}

func find(list []gateway.Instance, id string) (gateway.Instance, bool) {
	for _, inst := range list {
		if inst.ID == id {
			return inst, true
		}
	}
	return gateway.Instance{}, false
}

func clone(list []gateway.Instance) []gateway.Instance {
	return slices.Clone(list)
}

func recordGauges(list []gateway.Instance) {
	var connected, loggedIn int
	for _, inst := range list {
		if inst.Connected {
			connected++
		}
		if inst.LoggedIn {
			loggedIn++
		}
	}
	metrics.Instances.WithLabelValues("total").Set(float64(len(list)))
	metrics.Instances.WithLabelValues("connected").Set(float64(connected))
	metrics.Instances.WithLabelValues("logged_in").Set(float64(loggedIn))
}

func (e *Engine) persist(list []gateway.Instance) error {
	if e.db == nil {
		return nil
	}
	cached := make([]store.CachedInstance, 0, len(list))
	for _, inst := range list {
		raw, err := json.Marshal(inst)
		if err != nil {
			return fmt.Errorf("encode instance %s: %w", inst.ID, err)
		}
		cached = append(cached, store.CachedInstance{
			ID:        inst.ID,
			Name:      inst.Name,
			Connected: inst.Connected,
			LoggedIn:  inst.LoggedIn,
			JID:       inst.JID,
			Snapshot:  string(raw),
		})
	}
	return e.db.ReplaceInstances(cached)
}

// Snapshot returns a copy of the current snapshot.
func (e *Engine) Snapshot() []gateway.Instance {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return clone(e.snapshot)
}

// Instance returns one instance of the snapshot by id.
func (e *Engine) Instance(id string) (gateway.Instance, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return find(e.snapshot, id)
}

// Restore loads the last cached snapshot so views have something to show
// before the first poll returns.
func (e *Engine) Restore() (int, error) {
	if e.db == nil {
		return 0, nil
	}
	cached, err := e.db.ListInstances()
	if err != nil {
		return 0, fmt.Errorf("list cached instances: %w", err)
	}
	list := make([]gateway.Instance, 0, len(cached))
	for _, c := range cached {
		var inst gateway.Instance
		if err := json.Unmarshal([]byte(c.Snapshot), &inst); err != nil {
			e.logger.Debug("skipping unreadable cached instance", zap.String("id", c.ID), zap.Error(err))
			continue
		}
		list = append(list, inst)
	}
	e.mu.Lock()
	e.snapshot = list
	e.mu.Unlock()
	return len(list), nil
}

// Clear empties the snapshot and its cache. Used on logout.
func (e *Engine) Clear() error {
	e.mu.Lock()
	e.snapshot = nil
	e.mu.Unlock()
	recordGauges(nil)
	e.bus.Emit(bus.KindInstancesCleared, nil)
	return e.persist(nil)
}
