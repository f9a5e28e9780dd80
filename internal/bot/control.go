package bot

import (
	"fmt"
	"math"

	"jordanella.com/sun-clicker/internal/cv"
	"jordanella.com/sun-clicker/internal/events"
	"jordanella.com/sun-clicker/internal/logging"
)

// Control surface. Every method is safe to call from any goroutine and holds
// the state mutex only to copy or assign.

// SetPaused pauses or resumes matching. Capture continues while paused.
func (l *DispatchLoop) SetPaused(paused bool) {
	l.updatePaused(func(bool) bool { return paused })
}

// TogglePause flips the paused flag and returns the new value
func (l *DispatchLoop) TogglePause() bool {
	return l.updatePaused(func(p bool) bool { return !p })
}

func (l *DispatchLoop) updatePaused(next func(bool) bool) bool {
	l.mu.Lock()
	from := l.stateLocked()
	l.runtime.Paused = next(l.runtime.Paused)
	paused := l.runtime.Paused
	to := l.stateLocked()
	l.mu.Unlock()

	if from != to {
		l.logger.Info("Dispatch loop " + string(to))
		l.publish(events.NewStateChangedEvent(string(from), string(to), "pause toggled"))
	}
	return paused
}

// CycleRegion advances to the next selectable region and returns the active
// index. With fewer than two selectable regions nothing changes.
func (l *DispatchLoop) CycleRegion() int {
	regions, err := l.deps.Source.Regions()
	if err != nil {
		l.reporter.ReportError(logging.ErrorCategoryCapture, logging.ErrorSeverityLow, "Failed to enumerate regions", err, nil)
		return l.RegionIndex()
	}

	l.mu.Lock()
	from := l.runtime.RegionIndex
	to := cv.NextRegion(from, len(regions))
	l.runtime.RegionIndex = to
	l.regions = regions
	l.mu.Unlock()

	if to != from {
		if region, ok := cv.RegionAt(regions, to); ok {
			l.logger.Info("Switched to " + region.String())
		}
		l.publish(events.NewRegionChangedEvent(from, to))
	}
	return to
}

// SetConfidenceThreshold sets the minimum match score, clamped to [0,1]
func (l *DispatchLoop) SetConfidenceThreshold(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = math.Max(0, math.Min(1, v))

	l.mu.Lock()
	changed := l.runtime.Confidence != v
	l.runtime.Confidence = v
	l.mu.Unlock()

	if changed {
		l.publish(events.NewConfigChangedEvent("confidence", v))
	}
}

func (l *DispatchLoop) SetEarlyExit(enabled bool) {
	l.mu.Lock()
	changed := l.runtime.EarlyExit != enabled
	l.runtime.EarlyExit = enabled
	l.mu.Unlock()

	if changed {
		l.publish(events.NewConfigChangedEvent("early_exit", enabled))
	}
}

func (l *DispatchLoop) SetDebugVisible(visible bool) {
	l.updateDebugVisible(func(bool) bool { return visible })
}

// ToggleDebugVisible flips the debug view and returns the new value
func (l *DispatchLoop) ToggleDebugVisible() bool {
	return l.updateDebugVisible(func(v bool) bool { return !v })
}

func (l *DispatchLoop) updateDebugVisible(next func(bool) bool) bool {
	l.mu.Lock()
	before := l.runtime.DebugVisible
	l.runtime.DebugVisible = next(before)
	visible := l.runtime.DebugVisible
	l.mu.Unlock()

	if visible != before {
		l.publish(events.NewConfigChangedEvent("debug_visible", visible))
	}
	return visible
}

// Accessors

func (l *DispatchLoop) RegionIndex() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runtime.RegionIndex
}

// TemplateCount returns the number of loaded templates, zero before the first Start
func (l *DispatchLoop) TemplateCount() int {
	l.mu.Lock()
	lib := l.library
	l.mu.Unlock()

	if lib == nil {
		return 0
	}
	return lib.Count()
}

func (l *DispatchLoop) ClickCount() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perf.Clicks()
}

func (l *DispatchLoop) FPS() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perf.FPS()
}

func (l *DispatchLoop) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runtime.Paused
}

func (l *DispatchLoop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLocked()
}

// Runtime returns a copy of the mutable configuration
func (l *DispatchLoop) Runtime() RuntimeConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runtime
}

// Err returns the error that stopped the last run, if it stopped fatally
func (l *DispatchLoop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Status returns everything a status display needs in one call
func (l *DispatchLoop) Status() Status {
	l.mu.Lock()
	s := Status{
		State:        l.stateLocked(),
		Paused:       l.runtime.Paused,
		RegionIndex:  l.runtime.RegionIndex,
		RegionCount:  cv.SelectableCount(l.regions),
		Clicks:       l.perf.Clicks(),
		Frames:       l.perf.Frames(),
		FPS:          l.perf.FPS(),
		Confidence:   l.runtime.Confidence,
		EarlyExit:    l.runtime.EarlyExit,
		DebugVisible: l.runtime.DebugVisible,
		Err:          l.err,
	}
	lib := l.library
	l.mu.Unlock()

	if lib != nil {
		s.TemplateCount = lib.Count()
	}
	return s
}

// Reconfigure replaces the fixed settings used by the next Start. Runtime
// values (confidence, early exit, debug, pause, region) keep their current
// state. It fails with ErrRunning while a loop is active.
func (l *DispatchLoop) Reconfigure(cfg Config) error {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != nil {
		return ErrRunning
	}
	l.cfg = cfg
	return nil
}
