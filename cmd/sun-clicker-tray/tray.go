package main

import (
	"fmt"
	"math"
	"time"

	"github.com/getlantern/systray"
	"jordanella.com/sun-clicker/internal/bot"
	"jordanella.com/sun-clicker/internal/config"
	"jordanella.com/sun-clicker/internal/coordinator"
	"jordanella.com/sun-clicker/internal/logging"
)

// confidenceSteps are the thresholds offered in the Confidence submenu
var confidenceSteps = []float64{0.50, 0.55, 0.60, 0.65, 0.70, 0.75, 0.80, 0.85, 0.90, 0.95}

// TrayApp drives a headless session from the system tray menu
type TrayApp struct {
	session *coordinator.Session
	logger  *logging.Logger

	statusItem     *systray.MenuItem
	statsItem      *systray.MenuItem
	startStopItem  *systray.MenuItem
	pauseItem      *systray.MenuItem
	regionItem     *systray.MenuItem
	earlyExitItem  *systray.MenuItem
	saveItem       *systray.MenuItem
	quitItem       *systray.MenuItem
	confidenceItem *systray.MenuItem
	confidence     []*systray.MenuItem

	done chan struct{}
}

// NewTrayApp creates a tray for session
func NewTrayApp(session *coordinator.Session) *TrayApp {
	return &TrayApp{
		session: session,
		logger:  logging.NewLogger("Tray"),
		done:    make(chan struct{}),
	}
}

// Run blocks until Quit is chosen
func (t *TrayApp) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *TrayApp) onReady() {
	systray.SetTitle("Sun Clicker")
	systray.SetTooltip("Sun Clicker")

	t.statusItem = systray.AddMenuItem("Status: starting", "Engine state")
	t.statusItem.Disable()
	t.statsItem = systray.AddMenuItem("", "Session counters")
	t.statsItem.Disable()

	systray.AddSeparator()

	t.startStopItem = systray.AddMenuItem("Start", "Start or stop the engine")
	t.pauseItem = systray.AddMenuItemCheckbox("Paused", "Pause matching", false)
	t.regionItem = systray.AddMenuItem("Next region", "Cycle the capture region")
	t.earlyExitItem = systray.AddMenuItemCheckbox("Early exit", "Stop searching after a confident match", false)

	t.confidenceItem = systray.AddMenuItem("Confidence", "Match threshold")
	for _, v := range confidenceSteps {
		t.confidence = append(t.confidence, t.confidenceItem.AddSubMenuItemCheckbox(fmt.Sprintf("%.2f", v), "", false))
	}

	systray.AddSeparator()

	t.saveItem = systray.AddMenuItem("Save settings", "Write current values to "+t.session.SettingsPath)
	t.quitItem = systray.AddMenuItem("Quit", "Stop the engine and exit")

	if err := t.session.Loop.Start(); err != nil {
		t.logger.Error("Failed to start engine", err)
	}
	t.refresh()

	go t.handleEvents()
	for i := range t.confidence {
		go t.handleConfidence(i)
	}
	go t.poll()

	t.logger.Info("System tray initialized")
}

func (t *TrayApp) onExit() {
	close(t.done)
	if err := t.session.Loop.Stop(); err != nil {
		t.logger.Error("Engine did not stop cleanly", err)
	}
}

func (t *TrayApp) handleEvents() {
	loop := t.session.Loop
	for {
		select {
		case <-t.done:
			return
		case <-t.startStopItem.ClickedCh:
			var err error
			if loop.State() == bot.StateStopped {
				err = loop.Start()
			} else {
				err = loop.Stop()
			}
			if err != nil {
				t.logger.Error("Start/stop failed", err)
			}
		case <-t.pauseItem.ClickedCh:
			loop.TogglePause()
		case <-t.regionItem.ClickedCh:
			loop.CycleRegion()
		case <-t.earlyExitItem.ClickedCh:
			loop.SetEarlyExit(!loop.Runtime().EarlyExit)
		case <-t.saveItem.ClickedCh:
			t.save()
		case <-t.quitItem.ClickedCh:
			systray.Quit()
			return
		}
		t.refresh()
	}
}

func (t *TrayApp) handleConfidence(i int) {
	for {
		select {
		case <-t.done:
			return
		case <-t.confidence[i].ClickedCh:
			t.session.Loop.SetConfidenceThreshold(confidenceSteps[i])
			t.refresh()
		}
	}
}

// poll keeps the status lines current
func (t *TrayApp) poll() {
	interval := t.session.Settings.Display.Poll
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.refresh()
		}
	}
}

// refresh mirrors the engine status into the menu
func (t *TrayApp) refresh() {
	status := t.session.Loop.Status()

	title := fmt.Sprintf("Status: %s, region %d of %d", status.State, status.RegionIndex, status.RegionCount)
	if status.Err != nil {
		title = fmt.Sprintf("Status: %s (%v)", status.State, status.Err)
	}
	t.statusItem.SetTitle(title)

	stats := fmt.Sprintf("Clicks: %d | FPS: %.1f | Templates: %d", status.Clicks, status.FPS, status.TemplateCount)
	t.statsItem.SetTitle(stats)
	systray.SetTooltip("Sun Clicker - " + stats)

	if status.State == bot.StateStopped {
		t.startStopItem.SetTitle("Start")
	} else {
		t.startStopItem.SetTitle("Stop")
	}
	setChecked(t.pauseItem, status.Paused)
	setChecked(t.earlyExitItem, status.EarlyExit)

	nearest := nearestStep(status.Confidence)
	for i, item := range t.confidence {
		setChecked(item, i == nearest)
	}
}

func (t *TrayApp) save() {
	status := t.session.Loop.Status()
	settings := t.session.Settings
	settings.Engine.Confidence = status.Confidence
	settings.Engine.EarlyExit = status.EarlyExit
	settings.Engine.RegionIndex = status.RegionIndex

	if err := config.SaveToINI(settings, t.session.SettingsPath); err != nil {
		t.logger.Error("Failed to save settings", err)
		return
	}
	t.logger.InfoWithContext("Settings saved", map[string]interface{}{"path": t.session.SettingsPath})
}

func setChecked(item *systray.MenuItem, checked bool) {
	if checked {
		item.Check()
	} else {
		item.Uncheck()
	}
}

// nearestStep returns the index of the menu threshold closest to v
func nearestStep(v float64) int {
	best := 0
	for i, step := range confidenceSteps {
		if math.Abs(step-v) < math.Abs(confidenceSteps[best]-v) {
			best = i
		}
	}
	return best
}
