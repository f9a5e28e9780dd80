//go:build !windows

package input

import "github.com/go-vgo/robotgo"

// PointerClicker moves the system pointer and clicks through robotgo
type PointerClicker struct{}

// NewClicker returns the platform click backend
func NewClicker() Clicker {
	return &PointerClicker{}
}

func (c *PointerClicker) Click(x, y int) error {
	robotgo.Move(x, y)
	robotgo.Click("left", false)
	return nil
}
