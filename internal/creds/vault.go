// Package creds keeps the dashboard's persisted session state: the user and
// admin bearer tokens, the admin flag, the selected instance and the viewer's
// JID. Every value expires a fixed number of hours after its last write.
package creds

import (
	"errors"
	"fmt"
	"sync"

	"github.com/matheus3301/wuzdash/internal/store"
)

// Persisted keys.
const (
	KeyToken           = "token"
	KeyAdminToken      = "admintoken"
	KeyIsAdmin         = "isAdmin"
	KeyCurrentInstance = "currentInstance"
	KeyCurrentUserJID  = "currentUserJID"
)

// DefaultTTLHours is how long a written value lives.
const DefaultTTLHours = 6

// Role selects which polling loop runs.
type Role int

const (
	RoleNone Role = iota
	RoleUser
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "none"
	}
}

// ErrNoToken is returned when a request needs a credential that is not stored.
var ErrNoToken = errors.New("no credential stored")

// Vault reads and writes credentials in the profile store.
type Vault struct {
	db       *store.DB
	ttlHours int

	mu      sync.RWMutex
	userJID string // fallback when the store has no currentUserJID
}

// NewVault returns a vault whose writes expire after ttlHours.
func NewVault(db *store.DB, ttlHours int) *Vault {
	if ttlHours <= 0 {
		ttlHours = DefaultTTLHours
	}
	return &Vault{db: db, ttlHours: ttlHours}
}

func (v *Vault) set(key string, value any) error {
	if err := v.db.SetItem(key, value, v.ttlHours); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (v *Vault) getString(key string) (string, error) {
	var s string
	ok, err := v.db.GetItem(key, &s)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	return s, nil
}

// LoginUser stores a user token and clears admin mode and the previous
// viewer identity.
func (v *Vault) LoginUser(token string) error {
	v.forgetViewer()
	if err := v.db.RemoveItems(KeyIsAdmin, KeyAdminToken, KeyCurrentInstance, KeyCurrentUserJID); err != nil {
		return err
	}
	return v.set(KeyToken, token)
}

// LoginAdmin stores an admin token and raises the admin flag.
func (v *Vault) LoginAdmin(token string) error {
	v.forgetViewer()
	if err := v.db.RemoveItems(KeyToken, KeyCurrentInstance, KeyCurrentUserJID); err != nil {
		return err
	}
	if err := v.set(KeyAdminToken, token); err != nil {
		return err
	}
	return v.set(KeyIsAdmin, true)
}

// Logout removes every credential, including the cached viewer identity.
func (v *Vault) Logout() error {
	v.forgetViewer()
	return v.db.RemoveItems(KeyIsAdmin, KeyAdminToken, KeyToken, KeyCurrentInstance, KeyCurrentUserJID)
}

// DropUserToken forgets a user token that the gateway rejected.
func (v *Vault) DropUserToken() error {
	return v.db.RemoveItems(KeyToken)
}

// DropAdmin forgets admin credentials that the gateway rejected.
func (v *Vault) DropAdmin() error {
	return v.db.RemoveItems(KeyAdminToken, KeyToken, KeyIsAdmin)
}

// ActiveRole reports which mode a bootstrap should enter. The admin flag takes
// precedence; without it a stored user token selects user mode.
func (v *Vault) ActiveRole() (Role, error) {
	var admin bool
	ok, err := v.db.GetItem(KeyIsAdmin, &admin)
	if err != nil {
		return RoleNone, err
	}
	if ok && admin {
		tok, err := v.AdminToken()
		if err != nil {
			return RoleNone, err
		}
		if tok != "" {
			return RoleAdmin, nil
		}
	}
	tok, err := v.getString(KeyToken)
	if err != nil {
		return RoleNone, err
	}
	if tok != "" {
		return RoleUser, nil
	}
	return RoleNone, nil
}

// IsAdmin reports whether the admin flag is set.
func (v *Vault) IsAdmin() bool {
	var admin bool
	ok, err := v.db.GetItem(KeyIsAdmin, &admin)
	return err == nil && ok && admin
}

// UserToken returns the token for user-scoped calls. In admin mode this is
// the token of the instance being inspected.
func (v *Vault) UserToken() (string, error) {
	return v.getString(KeyToken)
}

// AdminToken returns the token for admin-scoped calls.
func (v *Vault) AdminToken() (string, error) {
	return v.getString(KeyAdminToken)
}

// SetCurrentInstance selects an instance for inspection and stores its token
// so that user-scoped endpoints act on it. The viewer identity of the
// previous instance is dropped.
func (v *Vault) SetCurrentInstance(id, token string) error {
	v.forgetViewer()
	if err := v.db.RemoveItems(KeyCurrentUserJID); err != nil {
		return err
	}
	if err := v.set(KeyCurrentInstance, id); err != nil {
		return err
	}
	return v.set(KeyToken, token)
}

// ClearCurrentInstance returns to the instance list.
func (v *Vault) ClearCurrentInstance() error {
	v.forgetViewer()
	return v.db.RemoveItems(KeyCurrentInstance, KeyToken, KeyCurrentUserJID)
}

// CurrentInstance returns the selected instance id, or "" when none.
func (v *Vault) CurrentInstance() (string, error) {
	return v.getString(KeyCurrentInstance)
}

// SetUserJID caches the viewer identity in memory and in the store.
func (v *Vault) SetUserJID(jid string) error {
	v.mu.Lock()
	v.userJID = jid
	v.mu.Unlock()
	return v.set(KeyCurrentUserJID, jid)
}

func (v *Vault) forgetViewer() {
	v.mu.Lock()
	v.userJID = ""
	v.mu.Unlock()
}

// UserJID returns the cached viewer identity, preferring the store and
// falling back to the in-memory copy.
func (v *Vault) UserJID() string {
	if jid, err := v.getString(KeyCurrentUserJID); err == nil && jid != "" {
		return jid
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.userJID
}
