//go:build windows

package input

import (
	"errors"
	"unsafe"

	"github.com/lxn/win"
)

// PointerClicker positions the cursor and injects a left click with SendInput
type PointerClicker struct{}

// NewClicker returns the platform click backend
func NewClicker() Clicker {
	return &PointerClicker{}
}

func (c *PointerClicker) Click(x, y int) error {
	if !win.SetCursorPos(int32(x), int32(y)) {
		return &ClickError{X: x, Y: y, Err: errors.New("SetCursorPos failed")}
	}

	inputs := []win.MOUSE_INPUT{
		{Type: win.INPUT_MOUSE, Mi: win.MOUSEINPUT{DwFlags: win.MOUSEEVENTF_LEFTDOWN}},
		{Type: win.INPUT_MOUSE, Mi: win.MOUSEINPUT{DwFlags: win.MOUSEEVENTF_LEFTUP}},
	}

	sent := win.SendInput(uint32(len(inputs)), unsafe.Pointer(&inputs[0]), int32(unsafe.Sizeof(inputs[0])))
	if sent != uint32(len(inputs)) {
		return &ClickError{X: x, Y: y, Err: errors.New("SendInput was blocked")}
	}
	return nil
}
