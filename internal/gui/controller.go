package gui

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"jordanella.com/sun-clicker/internal/config"
	"jordanella.com/sun-clicker/internal/events"
	"jordanella.com/sun-clicker/internal/logging"
)

// sessionRefreshTicks is how many status polls pass between journal reloads
const sessionRefreshTicks = 4

// Controller owns the control panel window and routes user input to the engine
type Controller struct {
	engine       Engine
	settings     *config.Settings
	settingsPath string
	app          fyne.App
	window       fyne.Window
	logger       *logging.Logger

	// GUI components
	controlTab  *ControlTab
	settingsTab *SettingsTab
	logTab      *LogTab
	sessionTab  *SessionTab
	viewer      *DebugViewer

	stopPoll chan struct{}
	quitOnce sync.Once
}

// Options carries the collaborators of the control panel
type Options struct {
	Engine       Engine
	Settings     *config.Settings
	SettingsPath string
	Bus          events.EventBus
	Journal      SessionJournal
	Viewer       *DebugViewer
	Logger       *logging.Logger
}

// NewController creates a new GUI controller
func NewController(app fyne.App, window fyne.Window, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger("gui")
	}

	ctrl := &Controller{
		engine:       opts.Engine,
		settings:     opts.Settings,
		settingsPath: opts.SettingsPath,
		app:          app,
		window:       window,
		logger:       logger,
		viewer:       opts.Viewer,
		stopPoll:     make(chan struct{}),
	}

	ctrl.controlTab = NewControlTab(ctrl)
	ctrl.settingsTab = NewSettingsTab(ctrl)
	ctrl.logTab = NewLogTab(opts.Bus)
	ctrl.sessionTab = NewSessionTab(opts.Journal)

	return ctrl
}

// BuildUI constructs the main UI and installs keyboard shortcuts
func (c *Controller) BuildUI() fyne.CanvasObject {
	tabs := container.NewAppTabs(
		container.NewTabItem("Control", c.controlTab.Build()),
		container.NewTabItem("Settings", c.settingsTab.Build()),
		container.NewTabItem("Event Log", c.logTab.Build()),
		container.NewTabItem("Session", c.sessionTab.Build()),
	)
	tabs.OnSelected = func(item *container.TabItem) {
		if item.Text == "Session" {
			c.sessionTab.Refresh()
		}
	}

	c.window.Canvas().SetOnTypedKey(c.handleKey)
	c.window.SetCloseIntercept(c.Quit)

	if c.engine.Status().DebugVisible && c.viewer != nil {
		c.viewer.SetVisible(true)
	}

	go c.poll()

	return tabs
}

// handleKey maps the single-key shortcuts
func (c *Controller) handleKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyP:
		c.TogglePause()
	case fyne.KeyM:
		c.CycleRegion()
	case fyne.KeyD:
		c.setDebugVisible(!c.engine.Status().DebugVisible)
	case fyne.KeyQ, fyne.KeyEscape:
		c.Quit()
	}
}

// poll refreshes the panel from the engine status until Quit
func (c *Controller) poll() {
	interval := c.settings.Display.Poll
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-c.stopPoll:
			return
		case <-ticker.C:
			ticks++
			refreshSession := ticks%sessionRefreshTicks == 0
			fyne.Do(func() {
				c.controlTab.Update()
				if refreshSession {
					c.sessionTab.Refresh()
				}
			})
		}
	}
}

// StartEngine starts the dispatch loop, reporting failures in a dialog
func (c *Controller) StartEngine() {
	if err := c.engine.Start(); err != nil {
		c.logger.Error("Failed to start engine", err)
		dialog.ShowError(err, c.window)
	}
	c.controlTab.Update()
}

// StopEngine stops the dispatch loop
func (c *Controller) StopEngine() {
	if err := c.engine.Stop(); err != nil {
		c.logger.Error("Failed to stop engine", err)
		dialog.ShowError(err, c.window)
	}
	c.controlTab.Update()
}

// TogglePause flips the pause flag
func (c *Controller) TogglePause() {
	paused := c.engine.TogglePause()
	c.logger.InfoWithContext("Pause toggled", map[string]interface{}{"paused": paused})
	c.controlTab.Update()
}

// CycleRegion advances to the next capture region
func (c *Controller) CycleRegion() {
	region := c.engine.CycleRegion()
	c.logger.InfoWithContext("Region selected", map[string]interface{}{"region": region})
	c.controlTab.Update()
}

// setDebugVisible toggles both engine annotation and the viewer window
func (c *Controller) setDebugVisible(visible bool) {
	c.engine.SetDebugVisible(visible)
	if c.viewer != nil {
		c.viewer.SetVisible(visible)
	}
	c.controlTab.Update()
}

// HideDebug is called when the viewer window is closed by the user
func (c *Controller) HideDebug() {
	c.engine.SetDebugVisible(false)
	c.controlTab.Update()
}

// SaveSettings writes the current runtime values back to the settings file
func (c *Controller) SaveSettings() error {
	status := c.engine.Status()
	c.settings.Engine.Confidence = status.Confidence
	c.settings.Engine.EarlyExit = status.EarlyExit
	c.settings.Engine.Debug = status.DebugVisible
	c.settings.Engine.RegionIndex = status.RegionIndex

	if err := config.SaveToINI(c.settings, c.settingsPath); err != nil {
		c.logger.Error("Failed to save settings", err)
		return err
	}
	c.logger.InfoWithContext("Settings saved", map[string]interface{}{"path": c.settingsPath})
	return nil
}

// Quit stops the engine and closes the application
func (c *Controller) Quit() {
	c.quitOnce.Do(func() {
		close(c.stopPoll)
		if err := c.engine.Stop(); err != nil {
			c.logger.Error("Engine did not stop cleanly", err)
		}
		c.logTab.Close()
		c.app.Quit()
	})
}
