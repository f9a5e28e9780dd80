package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var (
	DefaultWindowSize = fyne.NewSize(460, 560)

	// Half of a 1080p capture, the default debug display scale
	DebugViewerSize = fyne.NewSize(960, 540)

	amber      = color.NRGBA{R: 255, G: 179, B: 0, A: 255}
	amberFaint = color.NRGBA{R: 255, G: 179, B: 0, A: 64}
	charcoal   = color.NRGBA{R: 24, G: 22, B: 20, A: 255}
	ink        = color.NRGBA{R: 36, G: 33, B: 30, A: 255}
	sand       = color.NRGBA{R: 238, G: 230, B: 214, A: 255}
)

// ClickerTheme is a compact dark theme with amber accents. It ignores the
// system light/dark preference so the overlay colors read the same everywhere.
type ClickerTheme struct{}

func (t *ClickerTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus, theme.ColorNameHyperlink:
		return amber
	case theme.ColorNameSelection, theme.ColorNameHover:
		return amberFaint
	case theme.ColorNameBackground:
		return charcoal
	case theme.ColorNameInputBackground, theme.ColorNameMenuBackground, theme.ColorNameOverlayBackground:
		return ink
	case theme.ColorNameForeground:
		return sand
	}
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}

func (t *ClickerTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *ClickerTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

// Size shrinks padding so the panel fits next to the game window
func (t *ClickerTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 4
	case theme.SizeNameInnerPadding:
		return 6
	case theme.SizeNameText:
		return 13
	case theme.SizeNameHeadingText:
		return 20
	}
	return theme.DefaultTheme().Size(name)
}
