package creds

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/wuzdash/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVault(t *testing.T) (*Vault, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	_, err = db.Migrate()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewVault(db, DefaultTTLHours), db
}

func TestEmptyVaultHasNoRole(t *testing.T) {
	v, _ := testVault(t)
	role, err := v.ActiveRole()
	require.NoError(t, err)
	assert.Equal(t, RoleNone, role)
	assert.False(t, v.IsAdmin())
}

func TestUserLogin(t *testing.T) {
	v, _ := testVault(t)
	require.NoError(t, v.LoginUser("user-tok"))

	role, err := v.ActiveRole()
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	tok, err := v.UserToken()
	require.NoError(t, err)
	assert.Equal(t, "user-tok", tok)
}

func TestAdminFlagSelectsAdminRole(t *testing.T) {
	v, _ := testVault(t)
	require.NoError(t, v.LoginAdmin("adm"))

	role, err := v.ActiveRole()
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)
	assert.True(t, v.IsAdmin())

	// Selecting an instance stores its token but keeps admin mode.
	require.NoError(t, v.SetCurrentInstance("7", "inst-tok"))
	role, _ = v.ActiveRole()
	assert.Equal(t, RoleAdmin, role)
	id, _ := v.CurrentInstance()
	assert.Equal(t, "7", id)
	tok, _ := v.UserToken()
	assert.Equal(t, "inst-tok", tok)

	require.NoError(t, v.ClearCurrentInstance())
	id, _ = v.CurrentInstance()
	assert.Empty(t, id)
	tok, _ = v.UserToken()
	assert.Empty(t, tok)
	adm, _ := v.AdminToken()
	assert.Equal(t, "adm", adm)
}

func TestLogoutClearsEverything(t *testing.T) {
	v, db := testVault(t)
	require.NoError(t, v.LoginAdmin("adm"))
	require.NoError(t, v.SetCurrentInstance("1", "t"))
	require.NoError(t, v.SetUserJID("5511999@s.whatsapp.net"))

	require.NoError(t, v.Logout())

	for _, k := range []string{KeyToken, KeyAdminToken, KeyIsAdmin, KeyCurrentInstance, KeyCurrentUserJID} {
		ok, err := db.GetItem(k, nil)
		require.NoError(t, err)
		assert.False(t, ok, "key %s survived logout", k)
	}
	assert.Empty(t, v.UserJID())
	role, _ := v.ActiveRole()
	assert.Equal(t, RoleNone, role)
}

func TestUserJIDFallsBackToMemory(t *testing.T) {
	v, db := testVault(t)
	require.NoError(t, v.SetUserJID("5511@s.whatsapp.net:3"))
	assert.Equal(t, "5511@s.whatsapp.net:3", v.UserJID())

	// Losing the persisted copy keeps the in-memory one.
	require.NoError(t, db.RemoveItems(KeyCurrentUserJID))
	assert.Equal(t, "5511@s.whatsapp.net:3", v.UserJID())
}

func TestCredentialsExpire(t *testing.T) {
	v, db := testVault(t)
	now := time.Now()
	db.SetClock(func() time.Time { return now })

	require.NoError(t, v.LoginUser("tok"))
	now = now.Add(6*time.Hour + time.Minute)

	role, err := v.ActiveRole()
	require.NoError(t, err)
	assert.Equal(t, RoleNone, role)
}

func TestDropAdmin(t *testing.T) {
	v, _ := testVault(t)
	require.NoError(t, v.LoginAdmin("bad"))
	require.NoError(t, v.DropAdmin())
	assert.False(t, v.IsAdmin())
	adm, _ := v.AdminToken()
	assert.Empty(t, adm)
}

func TestCredentialChangesForgetViewer(t *testing.T) {
	changes := map[string]func(v *Vault) error{
		"user login":    func(v *Vault) error { return v.LoginUser("other") },
		"admin login":   func(v *Vault) error { return v.LoginAdmin("adm") },
		"open instance": func(v *Vault) error { return v.SetCurrentInstance("b2", "tok-b") },
		"back to list":  func(v *Vault) error { return v.ClearCurrentInstance() },
	}
	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			v, _ := testVault(t)
			require.NoError(t, v.LoginAdmin("adm"))
			require.NoError(t, v.SetCurrentInstance("a1", "tok-a"))
			require.NoError(t, v.SetUserJID("5511000@s.whatsapp.net"))

			require.NoError(t, change(v))
			assert.Empty(t, v.UserJID())
		})
	}
}
