// Package wa holds WhatsApp identifier helpers shared by the gateway client,
// the permission resolver and the views. The gateway does all protocol work.
package wa

import (
	"fmt"
	"regexp"
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// PhoneOf returns the phone prefix of a JID: the text before the first ':'
// or '@'. "5511999:12@s.whatsapp.net" and "5511999@s.whatsapp.net" both
// yield "5511999". An empty JID yields "".
func PhoneOf(jid string) string {
	if i := strings.IndexAny(jid, ":@"); i >= 0 {
		return jid[:i]
	}
	return jid
}

// SamePhone reports whether two JIDs share a non-empty phone prefix.
func SamePhone(a, b string) bool {
	pa := PhoneOf(a)
	return pa != "" && pa == PhoneOf(b)
}

// NormalizeJID strips the device part of a user JID. Inputs that do not
// parse are returned unchanged.
func NormalizeJID(jid string) string {
	if jid == "" {
		return ""
	}
	parsed, err := types.ParseJID(jid)
	if err != nil || parsed.User == "" {
		return jid
	}
	return parsed.ToNonAD().String()
}

// UserJID turns a phone number (or a JID) into a user JID on the default
// user server. Anything after '@' is discarded.
func UserJID(phone string) string {
	phone = strings.TrimSpace(phone)
	if i := strings.IndexByte(phone, '@'); i >= 0 {
		phone = phone[:i]
	}
	phone = strings.TrimPrefix(phone, "+")
	if phone == "" {
		return ""
	}
	return types.NewJID(phone, types.DefaultUserServer).String()
}

// IsGroupJID reports whether jid addresses a group.
func IsGroupJID(jid string) bool {
	parsed, err := types.ParseJID(jid)
	return err == nil && parsed.Server == types.GroupServer
}

var inviteLinkRegexp = regexp.MustCompile(`chat\.whatsapp\.com/([A-Za-z0-9]+)`)

// InviteCode extracts the code from an invite link. Input that is not a link
// is returned trimmed, on the assumption that it already is a code.
func InviteCode(input string) string {
	input = strings.TrimSpace(input)
	if m := inviteLinkRegexp.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return input
}

// DisappearingLabel renders a disappearing-messages timer in seconds.
func DisappearingLabel(seconds uint32) string {
	switch seconds {
	case 0:
		return "Off"
	case 86400:
		return "24 hours"
	case 604800:
		return "7 days"
	case 7776000:
		return "90 days"
	}
	if days := seconds / 86400; days > 0 {
		return count(days, "day")
	}
	return count(seconds/3600, "hour")
}

// count formats n with unit, plural only above one.
func count(n uint32, unit string) string {
	if n > 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", n, unit)
}

// DisappearingPresets are the timer values the gateway accepts, in seconds.
var DisappearingPresets = []uint32{0, 86400, 604800, 7776000}

// EphemeralDuration maps a preset timer to the duration token the gateway
// expects on /group/ephemeral. ok is false for non-preset values.
func EphemeralDuration(seconds uint32) (token string, ok bool) {
	switch seconds {
	case 0:
		return "off", true
	case 86400:
		return "24h", true
	case 604800:
		return "7d", true
	case 7776000:
		return "90d", true
	}
	return "", false
}
