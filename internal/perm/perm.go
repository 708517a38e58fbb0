// Package perm derives what the viewer may do inside a group from the latest
// group snapshot. Everything here is pure.
package perm

import (
	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/wa"
)

// Role is the viewer's capability level in one group.
type Role int

const (
	None Role = iota
	Admin
	SuperAdmin
)

func (r Role) String() string {
	switch r {
	case Admin:
		return "admin"
	case SuperAdmin:
		return "super admin"
	default:
		return "member"
	}
}

// IsAdmin is true for admins and super admins.
func (r Role) IsAdmin() bool { return r >= Admin }

// matches reports whether p is the user behind viewerJID. Rosters addressed by
// LID carry the phone JID separately.
func matches(p gateway.Participant, viewerJID string) bool {
	return wa.SamePhone(p.JID, viewerJID) || (p.PhoneNumber != "" && wa.SamePhone(p.PhoneNumber, viewerJID))
}

// Find returns the first participant whose JID matches viewerJID by phone
// prefix. Only when no JID matches is the phone number of LID-addressed
// participants consulted, again first match wins.
func Find(participants []gateway.Participant, viewerJID string) (gateway.Participant, bool) {
	if wa.PhoneOf(viewerJID) == "" {
		return gateway.Participant{}, false
	}
	for _, p := range participants {
		if wa.SamePhone(p.JID, viewerJID) {
			return p, true
		}
	}
	for _, p := range participants {
		if p.PhoneNumber != "" && wa.SamePhone(p.PhoneNumber, viewerJID) {
			return p, true
		}
	}
	return gateway.Participant{}, false
}

// RoleOf maps a participant's flags to a Role.
func RoleOf(p gateway.Participant) Role {
	switch {
	case p.IsSuperAdmin:
		return SuperAdmin
	case p.IsAdmin:
		return Admin
	default:
		return None
	}
}

// ResolveRole returns the viewer's role in g. An empty roster, an empty
// viewer or no match yields None. Duplicate matches resolve to the first.
func ResolveRole(g gateway.Group, viewerJID string) Role {
	p, ok := Find(g.Participants, viewerJID)
	if !ok {
		return None
	}
	return RoleOf(p)
}

// IsSelf reports whether target is the viewer.
func IsSelf(target gateway.Participant, viewerJID string) bool {
	return matches(target, viewerJID)
}

// CanRemove: any admin may remove anyone but themselves.
func CanRemove(viewer Role, target gateway.Participant, viewerJID string) bool {
	return viewer.IsAdmin() && !IsSelf(target, viewerJID)
}

// CanPromote: any admin may promote a plain member.
func CanPromote(viewer Role, target gateway.Participant, viewerJID string) bool {
	return viewer.IsAdmin() && !IsSelf(target, viewerJID) && RoleOf(target) == None
}

// CanDemote: only super admins may demote, and only plain admins.
func CanDemote(viewer Role, target gateway.Participant, viewerJID string) bool {
	return viewer == SuperAdmin && !IsSelf(target, viewerJID) && RoleOf(target) == Admin
}

// Actions lists the participant actions offered for target.
func Actions(viewer Role, target gateway.Participant, viewerJID string) []string {
	var out []string
	if CanPromote(viewer, target, viewerJID) {
		out = append(out, gateway.ActionPromote)
	}
	if CanDemote(viewer, target, viewerJID) {
		out = append(out, gateway.ActionDemote)
	}
	if CanRemove(viewer, target, viewerJID) {
		out = append(out, gateway.ActionRemove)
	}
	return out
}

// Allowed checks an action against the gating rules. Add is open to admins.
func Allowed(action string, viewer Role, target gateway.Participant, viewerJID string) bool {
	switch action {
	case gateway.ActionAdd:
		return viewer.IsAdmin()
	case gateway.ActionRemove:
		return CanRemove(viewer, target, viewerJID)
	case gateway.ActionPromote:
		return CanPromote(viewer, target, viewerJID)
	case gateway.ActionDemote:
		return CanDemote(viewer, target, viewerJID)
	}
	return false
}
