package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Heading creates a large, bold heading
func Heading(text string) *widget.RichText {
	return styled(text, theme.SizeNameHeadingText, fyne.TextStyle{Bold: true})
}

// Subheading creates a section header
func Subheading(text string) *widget.RichText {
	return styled(text, theme.SizeNameSubHeadingText, fyne.TextStyle{Bold: true})
}

// Caption creates small hint text
func Caption(text string) *widget.RichText {
	return styled(text, theme.SizeNameCaptionText, fyne.TextStyle{})
}

// Monospace creates fixed-width text for counters and coordinates
func Monospace(text string) *widget.RichText {
	return styled(text, theme.SizeNameText, fyne.TextStyle{Monospace: true})
}

func styled(text string, size fyne.ThemeSizeName, style fyne.TextStyle) *widget.RichText {
	return widget.NewRichText(&widget.TextSegment{
		Text: text,
		Style: widget.RichTextStyle{
			SizeName:  size,
			TextStyle: style,
			ColorName: theme.ColorNameForeground,
		},
	})
}
