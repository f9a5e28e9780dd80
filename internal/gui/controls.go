package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"jordanella.com/sun-clicker/internal/bot"
	"jordanella.com/sun-clicker/internal/gui/components"
)

// ControlTab holds the engine controls and live status
type ControlTab struct {
	controller *Controller

	// Widgets
	stateChip       *components.StateChip
	stateLabel      *widget.Label
	regionLabel     *widget.Label
	statsLabel      *widget.Label
	confidenceLabel *widget.Label
	confidence      *widget.Slider
	earlyExitCheck  *widget.Check
	debugCheck      *widget.Check
	startBtn        *widget.Button
	stopBtn         *widget.Button
	pauseBtn        *widget.Button
}

// NewControlTab creates a new control tab
func NewControlTab(ctrl *Controller) *ControlTab {
	return &ControlTab{controller: ctrl}
}

// Build constructs the control UI
func (c *ControlTab) Build() fyne.CanvasObject {
	display := c.controller.settings.Display
	status := c.controller.engine.Status()

	header := components.Heading("Sun Clicker")

	c.stateChip = components.NewStateChip(string(status.State))
	c.stateLabel = widget.NewLabel("")
	c.stateLabel.TextStyle = fyne.TextStyle{Bold: true}
	c.regionLabel = widget.NewLabel("")
	c.statsLabel = widget.NewLabel("")

	// Confidence slider, bounded to the display range
	c.confidenceLabel = widget.NewLabel("")
	c.confidence = widget.NewSlider(display.ConfidenceMin, display.ConfidenceMax)
	c.confidence.Step = 0.01
	c.confidence.SetValue(ClampConfidence(status.Confidence, display.ConfidenceMin, display.ConfidenceMax))
	c.confidenceLabel.SetText(fmt.Sprintf("Confidence: %.2f", c.confidence.Value))
	c.confidence.OnChanged = func(v float64) {
		c.confidenceLabel.SetText(fmt.Sprintf("Confidence: %.2f", v))
	}
	c.confidence.OnChangeEnded = func(v float64) {
		c.controller.engine.SetConfidenceThreshold(v)
	}

	c.earlyExitCheck = widget.NewCheck("Early exit", func(on bool) {
		c.controller.engine.SetEarlyExit(on)
	})
	c.earlyExitCheck.SetChecked(status.EarlyExit)

	c.debugCheck = widget.NewCheck("Debug view (D)", func(on bool) {
		c.controller.setDebugVisible(on)
	})
	c.debugCheck.SetChecked(status.DebugVisible)

	c.startBtn = widget.NewButton("Start", func() {
		c.controller.StartEngine()
	})
	c.stopBtn = widget.NewButton("Stop", func() {
		c.controller.StopEngine()
	})
	c.pauseBtn = widget.NewButton("Pause (P)", func() {
		c.controller.TogglePause()
	})
	regionBtn := widget.NewButton("Next region (M)", func() {
		c.controller.CycleRegion()
	})
	saveBtn := widget.NewButton("Save settings", func() {
		if err := c.controller.SaveSettings(); err != nil {
			dialog.ShowError(err, c.controller.window)
			return
		}
		dialog.ShowInformation("Settings", "Settings saved", c.controller.window)
	})
	quitBtn := widget.NewButton("Quit (Q)", func() {
		c.controller.Quit()
	})

	c.Update()

	return container.NewVBox(
		container.NewHBox(header, c.stateChip.Object()),
		components.Section("Status", container.NewVBox(c.stateLabel, c.regionLabel, c.statsLabel)),
		components.Section("Detection", container.NewVBox(
			c.confidenceLabel,
			c.confidence,
			container.NewHBox(c.earlyExitCheck, c.debugCheck),
		)),
		container.NewGridWithColumns(2, c.startBtn, c.stopBtn, c.pauseBtn, regionBtn),
		container.NewGridWithColumns(2, saveBtn, quitBtn),
		components.Caption("Keys: P pause, M next region, D debug view, Q quit"),
	)
}

// Update refreshes labels and buttons from the engine status. Must run on
// the UI goroutine.
func (c *ControlTab) Update() {
	if c.stateLabel == nil {
		return
	}

	status := c.controller.engine.Status()
	state, region, stats := StatusLines(status)

	c.stateChip.SetState(string(status.State))
	c.stateLabel.SetText("Status: " + state)
	c.regionLabel.SetText(region)
	c.statsLabel.SetText(stats)

	switch status.State {
	case bot.StateStopped:
		c.startBtn.Enable()
		c.stopBtn.Disable()
		c.pauseBtn.Disable()
	case bot.StatePaused:
		c.startBtn.Disable()
		c.stopBtn.Enable()
		c.pauseBtn.Enable()
		c.pauseBtn.SetText("Resume (P)")
	default:
		c.startBtn.Disable()
		c.stopBtn.Enable()
		c.pauseBtn.Enable()
		c.pauseBtn.SetText("Pause (P)")
	}

	if c.debugCheck.Checked != status.DebugVisible {
		c.debugCheck.SetChecked(status.DebugVisible)
	}
}
