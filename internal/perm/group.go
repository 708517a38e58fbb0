package perm

import "github.com/matheus3301/wuzdash/internal/gateway"

// Kind classifies a group.
type Kind int

const (
	NormalGroup Kind = iota
	CommunityGroup
	Community
)

func (k Kind) String() string {
	switch k {
	case Community:
		return "Community"
	case CommunityGroup:
		return "Community Group"
	default:
		return "Group"
	}
}

// Classify derives the kind from IsParent and LinkedParentJID. IsParent wins.
func Classify(g gateway.Group) Kind {
	switch {
	case g.IsParent:
		return Community
	case g.LinkedParentJID != "":
		return CommunityGroup
	default:
		return NormalGroup
	}
}

// Counts are the admin tallies shown on a group card. Super admins are not
// counted as admins.
type Counts struct {
	Members     int
	Admins      int
	SuperAdmins int
}

// CountAdmins tallies g's roster.
func CountAdmins(g gateway.Group) Counts {
	c := Counts{Members: len(g.Participants)}
	for _, p := range g.Participants {
		switch {
		case p.IsSuperAdmin:
			c.SuperAdmins++
		case p.IsAdmin:
			c.Admins++
		}
	}
	return c
}

// UnknownCommunity names a parent missing from the loaded groups.
const UnknownCommunity = "Unknown Community"

// ParentName resolves the community a community group belongs to. It returns
// "" for groups that are not community groups.
func ParentName(g gateway.Group, all []gateway.Group) string {
	if Classify(g) != CommunityGroup {
		return ""
	}
	for _, other := range all {
		if other.JID == g.LinkedParentJID {
			return other.Name
		}
	}
	return UnknownCommunity
}
