package gui

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

// DebugViewer is a separate window showing annotated frames
type DebugViewer struct {
	app    fyne.App
	window fyne.Window
	image  *canvas.Image

	mu      sync.Mutex
	visible bool
	onClose func()
}

// NewDebugViewer creates the viewer. onClose runs when the user closes the
// window so the engine can stop rendering.
func NewDebugViewer(app fyne.App, onClose func()) *DebugViewer {
	return &DebugViewer{app: app, onClose: onClose}
}

// Display replaces the shown frame. Safe to call from any goroutine.
func (v *DebugViewer) Display(img image.Image) {
	v.mu.Lock()
	visible := v.visible
	v.mu.Unlock()
	if !visible {
		return
	}

	fyne.Do(func() {
		if v.image == nil {
			return
		}
		v.image.Image = img
		v.image.Refresh()
	})
}

// SetVisible shows or hides the window. Must run on the UI goroutine.
func (v *DebugViewer) SetVisible(visible bool) {
	v.mu.Lock()
	if v.visible == visible {
		v.mu.Unlock()
		return
	}
	v.visible = visible
	v.mu.Unlock()

	if !visible {
		if v.window != nil {
			v.window.Hide()
		}
		return
	}

	if v.window == nil {
		v.image = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
		v.image.FillMode = canvas.ImageFillContain
		v.image.ScaleMode = canvas.ImageScaleFastest

		v.window = v.app.NewWindow("Sun Clicker - debug view")
		v.window.SetContent(v.image)
		v.window.Resize(DebugViewerSize)
		v.window.SetCloseIntercept(func() {
			v.SetVisible(false)
			if v.onClose != nil {
				v.onClose()
			}
		})
	}
	v.window.Show()
}

// Visible reports whether frames are being shown
func (v *DebugViewer) Visible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible
}
