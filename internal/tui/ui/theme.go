package ui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/matheus3301/wuzdash/internal/perm"
)

// Theme holds the dashboard colors.
type Theme struct {
	BgColor           tcell.Color
	FgColor           tcell.Color
	BorderColor       tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	PromptBorderColor tcell.Color

	TableHeaderFg tcell.Color
	TableHeaderBg tcell.Color
	TableCursorFg tcell.Color
	TableCursorBg tcell.Color

	CrumbActiveFg   tcell.Color
	CrumbActiveBg   tcell.Color
	CrumbInactiveFg tcell.Color
	CrumbInactiveBg tcell.Color

	MenuKeyColor    tcell.Color
	NumericKeyColor tcell.Color

	FlashInfoColor tcell.Color
	FlashOKColor   tcell.Color
	FlashErrColor  tcell.Color

	// Instance connection state.
	OnlineColor  tcell.Color
	OfflineColor tcell.Color

	// Group roles.
	AdminColor      tcell.Color
	SuperAdminColor tcell.Color
}

// DefaultTheme returns the dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorCadetBlue,
		BorderColor:       tcell.ColorSeaGreen,
		TitleColor:        tcell.ColorLimeGreen,
		CounterColor:      tcell.ColorPapayaWhip,
		PromptBorderColor: tcell.ColorSeaGreen,

		TableHeaderFg: tcell.ColorWhite,
		TableHeaderBg: tcell.ColorBlack,
		TableCursorFg: tcell.ColorBlack,
		TableCursorBg: tcell.ColorMediumSpringGreen,

		CrumbActiveFg:   tcell.ColorBlack,
		CrumbActiveBg:   tcell.ColorOrange,
		CrumbInactiveFg: tcell.ColorBlack,
		CrumbInactiveBg: tcell.ColorMediumSpringGreen,

		MenuKeyColor:    tcell.ColorDodgerBlue,
		NumericKeyColor: tcell.ColorFuchsia,

		FlashInfoColor: tcell.ColorNavajoWhite,
		FlashOKColor:   tcell.ColorLightGreen,
		FlashErrColor:  tcell.ColorOrangeRed,

		OnlineColor:  tcell.ColorLime,
		OfflineColor: tcell.ColorOrangeRed,

		AdminColor:      tcell.ColorGold,
		SuperAdminColor: tcell.ColorFuchsia,
	}
}

// RoleColor is the text color of a group role.
func (t *Theme) RoleColor(r perm.Role) tcell.Color {
	switch r {
	case perm.SuperAdmin:
		return t.SuperAdminColor
	case perm.Admin:
		return t.AdminColor
	}
	return t.FgColor
}
