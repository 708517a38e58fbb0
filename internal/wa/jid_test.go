package wa

import "testing"

func TestPhoneOf(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"5511999999999@s.whatsapp.net", "5511999999999"},
		{"5511999999999:12@s.whatsapp.net", "5511999999999"},
		{"5511999999999", "5511999999999"},
		{"3917077286968@lid", "3917077286968"},
		{"", ""},
		{"@s.whatsapp.net", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := PhoneOf(tt.input); got != tt.want {
				t.Errorf("PhoneOf(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSamePhone(t *testing.T) {
	if !SamePhone("5511:3@s.whatsapp.net", "5511@s.whatsapp.net") {
		t.Error("device suffix should not matter")
	}
	if SamePhone("", "") {
		t.Error("empty JIDs must never match")
	}
	if SamePhone("5511@s.whatsapp.net", "5512@s.whatsapp.net") {
		t.Error("different phones matched")
	}
}

func TestNormalizeJID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"558592403672@s.whatsapp.net", "558592403672@s.whatsapp.net"},
		{"558592403672:0@s.whatsapp.net", "558592403672@s.whatsapp.net"},
		{"558592403672:5@s.whatsapp.net", "558592403672@s.whatsapp.net"},
		{"120363123456@g.us", "120363123456@g.us"},
		{"", ""},
		{"invalid", "invalid"},
		{"3917077286968@lid", "3917077286968@lid"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeJID(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeJID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUserJID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"5511999999999", "5511999999999@s.whatsapp.net"},
		{"+5511999999999", "5511999999999@s.whatsapp.net"},
		{"5511999999999@s.whatsapp.net", "5511999999999@s.whatsapp.net"},
		{" 5511 ", "5511@s.whatsapp.net"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := UserJID(tt.input); got != tt.want {
			t.Errorf("UserJID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsGroupJID(t *testing.T) {
	if !IsGroupJID("120363123456@g.us") {
		t.Error("group JID not detected")
	}
	if IsGroupJID("5511@s.whatsapp.net") {
		t.Error("user JID detected as group")
	}
}

func TestInviteCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://chat.whatsapp.com/AbCdEf123", "AbCdEf123"},
		{"join us: chat.whatsapp.com/XyZ987?x=1", "XyZ987"},
		{"  AbCdEf123  ", "AbCdEf123"},
	}
	for _, tt := range tests {
		if got := InviteCode(tt.input); got != tt.want {
			t.Errorf("InviteCode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDisappearingLabel(t *testing.T) {
	tests := []struct {
		seconds uint32
		want    string
	}{
		{0, "Off"},
		{86400, "24 hours"},
		{604800, "7 days"},
		{7776000, "90 days"},
		{172800, "2 days"},
		{7200, "2 hours"},
		{100000, "1 day"},
		{3600, "1 hour"},
	}
	for _, tt := range tests {
		if got := DisappearingLabel(tt.seconds); got != tt.want {
			t.Errorf("DisappearingLabel(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestEphemeralDuration(t *testing.T) {
	for _, secs := range DisappearingPresets {
		if _, ok := EphemeralDuration(secs); !ok {
			t.Errorf("preset %d has no duration token", secs)
		}
	}
	if tok, _ := EphemeralDuration(604800); tok != "7d" {
		t.Errorf("EphemeralDuration(604800) = %q, want 7d", tok)
	}
	if _, ok := EphemeralDuration(3600); ok {
		t.Error("non-preset value accepted")
	}
}
