package components

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
)

// ChipStyle defines the visual style of a chip
type ChipStyle int

const (
	ChipStyleDefault ChipStyle = iota // Gray
	ChipStyleSuccess                  // Green
	ChipStyleWarning                  // Orange
	ChipStyleDanger                   // Red
)

// StateChip is a colored badge showing the engine state
type StateChip struct {
	bg    *canvas.Rectangle
	label *canvas.Text
	box   *fyne.Container
}

// NewStateChip creates a chip showing state
func NewStateChip(state string) *StateChip {
	c := &StateChip{
		bg:    canvas.NewRectangle(chipColor(ChipStyleDefault)),
		label: canvas.NewText("", color.White),
	}
	c.bg.CornerRadius = 8
	c.label.TextStyle = fyne.TextStyle{Bold: true}
	c.label.Alignment = fyne.TextAlignCenter
	c.box = container.NewStack(c.bg, container.NewPadded(c.label))
	c.SetState(state)
	return c
}

// SetState updates the text and color. Must run on the UI goroutine.
func (c *StateChip) SetState(state string) {
	c.label.Text = state
	c.bg.FillColor = chipColor(StateStyle(state))
	c.label.Refresh()
	c.bg.Refresh()
}

// Object returns the chip's canvas object
func (c *StateChip) Object() fyne.CanvasObject {
	return c.box
}

// StateStyle maps an engine state name to a chip style
func StateStyle(state string) ChipStyle {
	switch state {
	case "running", "RUNNING":
		return ChipStyleSuccess
	case "paused", "PAUSED":
		return ChipStyleWarning
	case "stopped", "STOPPED":
		return ChipStyleDanger
	default:
		return ChipStyleDefault
	}
}

func chipColor(style ChipStyle) color.Color {
	switch style {
	case ChipStyleSuccess:
		return color.NRGBA{R: 76, G: 175, B: 80, A: 255}
	case ChipStyleWarning:
		return color.NRGBA{R: 255, G: 152, B: 0, A: 255}
	case ChipStyleDanger:
		return color.NRGBA{R: 244, G: 67, B: 54, A: 255}
	default:
		return color.NRGBA{R: 140, G: 140, B: 140, A: 255}
	}
}
