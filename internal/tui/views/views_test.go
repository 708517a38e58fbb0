package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/wuzdash/internal/dashboard"
	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/perm"
	"github.com/matheus3301/wuzdash/internal/tui/ui"
)

func TestInstanceListFilterAndIndex(t *testing.T) {
	il := NewInstanceList(ui.DefaultTheme())
	il.Update([]gateway.Instance{
		{ID: "a1", Name: "Shop"},
		{ID: "b2", Name: "Support", JID: "5511999@s.whatsapp.net"},
		{ID: "c3", Name: "Sales"},
	})
	assert.Equal(t, "b2", il.IDByIndex(2))
	assert.Empty(t, il.IDByIndex(0))
	assert.Empty(t, il.IDByIndex(4))

	il.SetFilter("5511")
	assert.Equal(t, "b2", il.IDByIndex(1))
	assert.Empty(t, il.IDByIndex(2))

	il.SetFilter("S")
	assert.Equal(t, "c3", il.IDByIndex(3))
}

func TestInstanceListKeepsSelection(t *testing.T) {
	il := NewInstanceList(ui.DefaultTheme())
	il.Update([]gateway.Instance{{ID: "a1"}, {ID: "b2"}})
	il.Select(2, 0)
	require.Equal(t, "b2", il.SelectedID())

	il.Update([]gateway.Instance{{ID: "z0"}, {ID: "a1"}, {ID: "b2"}})
	assert.Equal(t, "b2", il.SelectedID())
}

func TestGroupViewActions(t *testing.T) {
	const viewer = "5511000@s.whatsapp.net"
	g := gateway.Group{
		JID:  "120363@g.us",
		Name: "Neighbours",
		Participants: []gateway.Participant{
			{JID: viewer, IsAdmin: true},
			{JID: "5511111@s.whatsapp.net"},
			{JID: "5511222@s.whatsapp.net", IsAdmin: true},
			{JID: "5511333@s.whatsapp.net", IsAdmin: true, IsSuperAdmin: true},
		},
	}
	gv := NewGroupView(ui.DefaultTheme())
	gv.Update(dashboard.Annotate(g, []gateway.Group{g}, viewer), viewer)

	require.Equal(t, perm.Admin, gv.Group().Role)
	assert.Empty(t, gv.Actions(g.Participants[0]), "never offered on yourself")
	assert.Equal(t, []string{gateway.ActionPromote, gateway.ActionRemove}, gv.Actions(g.Participants[1]))
	assert.Equal(t, []string{gateway.ActionRemove}, gv.Actions(g.Participants[2]), "only super admins demote")
	assert.Equal(t, []string{gateway.ActionRemove}, gv.Actions(g.Participants[3]))

	gv.Roster().Select(2, 0)
	assert.Equal(t, "5511111", gv.SelectedPhone())
}

func TestGroupListFilter(t *testing.T) {
	gl := NewGroupList(ui.DefaultTheme())
	gl.Update([]dashboard.GroupView{
		{Group: gateway.Group{JID: "1@g.us", Name: "Family"}},
		{Group: gateway.Group{JID: "2@g.us", Name: "Announcements"}, Kind: perm.CommunityGroup, ParentName: "Building"},
	})
	gl.SetFilter("build")
	gl.Select(1, 0)
	g, ok := gl.Selected()
	require.True(t, ok)
	assert.Equal(t, "2@g.us", g.JID)
}

func TestSanitizeForTerminal(t *testing.T) {
	assert.Equal(t, "ab", Sanitize("a\u200db"))
	assert.Equal(t, "-", orDash(""))
	assert.True(t, containsFold("Hello", "hEL"))
}
