package views

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/tview"
)

// Sanitize removes codepoints that tcell renders with the wrong
// width: skin tone modifiers, zero width joiners and variation selectors.
// Group names and push names are full of them.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isProblematicRune(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func isProblematicRune(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r == 0x200D:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	default:
		return false
	}
}

// display prepares gateway text for a tview cell.
func display(s string) string {
	return tview.Escape(Sanitize(s))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
